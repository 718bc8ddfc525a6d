package spf

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drainResumeCh services ctx.tree.resumeCh until done fires, mirroring
// runLoop's pump for tests that exercise the engine below CheckHost.
func drainResumeCh(t *testing.T, tree *evalTree, done <-chan struct{}) {
	t.Helper()
	for {
		select {
		case fn := <-tree.resumeCh:
			fn()
		case <-done:
			return
		case <-time.After(2 * time.Second):
			t.Fatal("resumeCh drain timed out")
		}
	}
}

func newPTRTestCtx(r Resolver, ipStr string) *evalContext {
	ip, _ := newClientIP(net.ParseIP(ipStr))
	tree := &evalTree{resolver: r, resumeCh: make(chan func(), 8)}
	return &evalContext{tree: tree, ip: ip, domain: "example.com"}
}

func TestReverseDNSName_V4(t *testing.T) {
	ip, _ := newClientIP(net.ParseIP("192.0.2.3"))
	assert.Equal(t, "3.2.0.192.in-addr.arpa.", reverseDNSName(ip))
}

func TestReverseDNSName_V6(t *testing.T) {
	ip, _ := newClientIP(net.ParseIP("2001:db8::1"))
	name := reverseDNSName(ip)
	assert.Contains(t, name, "ip6.arpa.")
	assert.True(t, len(name) > len("ip6.arpa."))
}

func TestResolvePTR_Validates(t *testing.T) {
	r := newFakeResolver()
	ctx := newPTRTestCtx(r, "192.0.2.3")
	r.set(reverseDNSName(ctx.ip), TypePTR, ptrAnswer("mail.example.com"), nil)
	r.set("mail.example.com", TypeA, ipAnswer("192.0.2.3"), nil)

	done := make(chan struct{})
	var got string
	resolvePTR(ctx, func(validated string) {
		got = validated
		close(done)
	})
	drainResumeCh(t, ctx.tree, done)
	assert.Equal(t, "mail.example.com", got)
}

func TestResolvePTR_NoForwardMatch(t *testing.T) {
	r := newFakeResolver()
	ctx := newPTRTestCtx(r, "192.0.2.3")
	r.set(reverseDNSName(ctx.ip), TypePTR, ptrAnswer("evil.example.com"), nil)
	r.set("evil.example.com", TypeA, ipAnswer("9.9.9.9"), nil)

	done := make(chan struct{})
	var got string
	resolvePTR(ctx, func(validated string) {
		got = validated
		close(done)
	})
	drainResumeCh(t, ctx.tree, done)
	assert.Equal(t, "", got)
}

func TestResolvePTR_NXDomain(t *testing.T) {
	r := newFakeResolver()
	ctx := newPTRTestCtx(r, "192.0.2.3")

	done := make(chan struct{})
	var got string
	resolvePTR(ctx, func(validated string) {
		got = validated
		close(done)
	})
	drainResumeCh(t, ctx.tree, done)
	assert.Equal(t, "", got)
}

func TestStartPTRResolution_SetsUnknownOnMiss(t *testing.T) {
	r := newFakeResolver()
	ctx := newPTRTestCtx(r, "192.0.2.3")
	resumed := make(chan struct{})
	ctx.resumeMacro = func() { close(resumed) }

	startPTRResolution(ctx, nil)
	drainResumeCh(t, ctx.tree, resumed)
	require.Eventually(t, func() bool { return ctx.validated != "" }, time.Second, time.Millisecond)
	assert.Equal(t, "unknown", ctx.validated)
	assert.False(t, ctx.ptrPending)
}

func TestContainsClientIP(t *testing.T) {
	ip, _ := newClientIP(net.ParseIP("192.0.2.3"))
	ips := []clientIPAddr{{V4: [4]byte{192, 0, 2, 3}}}
	assert.True(t, containsClientIP(ips, ip))
	assert.False(t, containsClientIP(nil, ip))
}
