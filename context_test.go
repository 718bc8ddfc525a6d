package spf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcquireContext_ResetsFields(t *testing.T) {
	tree := newEvalTree(newFakeResolver(), nil)
	c := acquireContext(tree, nil, 0)
	c.domain = "stale.example.com"
	c.done = true
	c.result = Fail
	releaseContext(c)

	c2 := acquireContext(tree, nil, 0)
	assert.Equal(t, "", c2.domain)
	assert.False(t, c2.done)
	assert.Equal(t, None, c2.result)
}

func TestChargeMechanism_Budget(t *testing.T) {
	tree := newEvalTree(newFakeResolver(), nil)
	c := &evalContext{tree: tree}
	for i := 0; i < maxDNSMechanisms; i++ {
		assert.True(t, c.chargeMechanism(), "charge %d should be within budget", i)
	}
	assert.False(t, c.chargeMechanism(), "the 11th charge must exceed the budget")
}

func TestCanceled(t *testing.T) {
	tree := newEvalTree(newFakeResolver(), nil)
	c := &evalContext{tree: tree}
	assert.False(t, c.canceled())
	tree.canceled.Store(true)
	assert.True(t, c.canceled())
}

func TestReleaseContext_ReleasesRulePool(t *testing.T) {
	tree := newEvalTree(newFakeResolver(), nil)
	c := acquireContext(tree, nil, 0)
	pol, err := parseRecord("v=spf1 -all")
	if err != nil {
		t.Fatal(err)
	}
	c.pol = pol
	releaseContext(c)
	assert.Nil(t, c.pol)
}
