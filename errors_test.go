package spf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyntaxError_Unwrap(t *testing.T) {
	err := &SyntaxError{Rule: "bogus:foo", Cause: ErrSyntax}
	assert.True(t, errors.Is(err, ErrSyntax))
	assert.Contains(t, err.Error(), "bogus:foo")
}

func TestDomainError_Unwrap(t *testing.T) {
	err := &DomainError{Domain: "bad..domain", Err: "empty label"}
	assert.True(t, errors.Is(err, ErrInvalidDomain))
	assert.Contains(t, err.Error(), "bad..domain")
	assert.Contains(t, err.Error(), "empty label")
}
