package spf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx() *evalContext {
	return &evalContext{
		tree:         &evalTree{},
		sender:       "strong-bad@email.example.com",
		localPart:    "strong-bad",
		senderDomain: "email.example.com",
		domain:       "email.example.com",
		helo:         "email.example.com",
		ip:           clientIP{v4: [4]byte{192, 0, 2, 3}},
	}
}

func TestExpandMacro_Identity(t *testing.T) {
	ctx := testCtx()
	got, err := expandMacro(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, "example.com", got)
}

func TestExpandMacro_RFCExamples(t *testing.T) {
	// Grounded on RFC 4408 §8.2's worked examples.
	cases := []struct {
		in   string
		want string
	}{
		{"%{o}.example.com", "email.example.com.example.com"},
		{"%{d}.example.com", "email.example.com.example.com"},
		{"%{d4}.example.com", "email.example.com.example.com"},
		{"%{d3}.example.com", "email.example.com.example.com"},
		{"%{d2}.example.com", "example.com.example.com"},
		{"%{d1}.example.com", "com.example.com"},
		{"%{d2r}.example.com", "example.email.example.com"},
		{"%{ir}.example.com", "3.2.0.192.example.com"},
		{"%{l}.example.com", "strong-bad.example.com"},
		{"%{l1r}.example.com", "strong-bad.example.com"},
		{"%{lr}.example.com", "strong-bad.example.com"},
	}
	for _, c := range cases {
		ctx := testCtx()
		got, err := expandMacro(ctx, c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestExpandMacro_PTRAlreadyValidated(t *testing.T) {
	ctx := testCtx()
	ctx.validated = "mail.example.com"
	got, err := expandMacro(ctx, "%{p}.example.com")
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com.example.com", got)
}

func TestExpandMacro_PTRPending(t *testing.T) {
	ctx := testCtx()
	ctx.tree.resolver = newFakeResolver()
	ctx.tree.resumeCh = make(chan func(), 1)
	_, err := expandMacro(ctx, "%{p}.example.com")
	assert.ErrorIs(t, err, errDNSPending)
	assert.True(t, ctx.ptrPending)
}

func TestExpandMacro_SyntaxErrors(t *testing.T) {
	cases := []string{
		"%{}",
		"%{zz}",
		"%{s",
		"% ",
		"100% sure",
	}
	for _, in := range cases {
		ctx := testCtx()
		_, err := expandMacro(ctx, in)
		assert.Error(t, err, in)
	}
}

func TestExpandMacro_PercentEscapes(t *testing.T) {
	ctx := testCtx()
	// "%%" expands to a literal '%', which is not a domain character, so
	// the expansion is rejected by domain validation; the DomainError
	// carries the expanded text.
	_, err := expandMacro(ctx, "foo%%bar")
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "foo%bar", de.Domain)
}

func TestUrlEscapeMacro(t *testing.T) {
	assert.Equal(t, "strong-bad.example.com", urlEscapeMacro("strong-bad.example.com"))
	assert.Equal(t, "strong-bad%40email.example.com", urlEscapeMacro("strong-bad@email.example.com"))
}
