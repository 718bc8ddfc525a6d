package spf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleKind_IsMechanism(t *testing.T) {
	assert.True(t, kAll.isMechanism())
	assert.True(t, kInclude.isMechanism())
	assert.False(t, kRedirect.isMechanism())
	assert.False(t, kExp.isMechanism())
	assert.False(t, kUnknown.isMechanism())
}

func TestRuleKind_IsDNSMechanism(t *testing.T) {
	assert.True(t, kInclude.isDNSMechanism())
	assert.True(t, kA.isDNSMechanism())
	assert.True(t, kMX.isDNSMechanism())
	assert.True(t, kPTR.isDNSMechanism())
	assert.True(t, kExists.isDNSMechanism())
	assert.False(t, kAll.isDNSMechanism(), "all never touches DNS")
	assert.False(t, kIP4.isDNSMechanism())
	assert.False(t, kIP6.isDNSMechanism())
}

func TestRuleKind_String(t *testing.T) {
	cases := map[ruleKind]string{
		kAll: "all", kInclude: "include", kA: "a", kMX: "mx",
		kPTR: "ptr", kIP4: "ip4", kIP6: "ip6", kExists: "exists",
		kRedirect: "redirect", kExp: "exp", kVersion: "v", kUnknown: "unknown",
	}
	for k, want := range cases {
		assert.Equal(t, want, k.String())
	}
}

func TestDefaultQualifierResult(t *testing.T) {
	assert.Equal(t, Pass, defaultQualifierResult(rule{qualifier: '+'}))
	assert.Equal(t, Fail, defaultQualifierResult(rule{qualifier: '-'}))
	assert.Equal(t, Softfail, defaultQualifierResult(rule{qualifier: '~'}))
	assert.Equal(t, Neutral, defaultQualifierResult(rule{qualifier: '?'}))
}
