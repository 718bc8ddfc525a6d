package spf

import (
	"net"
	"strings"
)

// checkConfig holds the functional-option configuration for CheckHost
// (§1's "[ADDED] functional-option configuration, the teacher's pattern,
// rather than a config file").
type checkConfig struct {
	resolver    Resolver
	listener    Listener
	skipSPFType bool
}

// Option configures a CheckHost call.
type Option func(*checkConfig)

// WithResolver installs the DNS collaborator. Without one, CheckHost
// falls back to SystemResolver, the stdlib-backed implementation.
func WithResolver(r Resolver) Option {
	return func(c *checkConfig) { c.resolver = r }
}

// WithListener installs an observability hook (§4.11). Without one,
// CheckHost uses a no-op Listener.
func WithListener(l Listener) Option {
	return func(c *checkConfig) { c.listener = l }
}

// SkipTypeSPFLookup disables the type-99 SPF query the record retriever
// otherwise fires alongside TXT (§4.5: "unless the caller opted out").
func SkipTypeSPFLookup() Option {
	return func(c *checkConfig) { c.skipSPFType = true }
}

func defaultConfig() *checkConfig {
	return &checkConfig{
		resolver: defaultSystemResolver,
		listener: noopListener{},
	}
}

// Check is the handle returned by CheckHost (§4.8): "check(...) → handle
// or synchronous error code". Cancel marks the tree canceled; actual
// teardown happens once outstanding DNS callbacks drain (§5).
type Check struct {
	tree *evalTree
}

// Cancel stops delivery of the result callback (§4.8, §5). It is safe to
// call from any goroutine and safe to call more than once.
func (c *Check) Cancel() {
	if c == nil {
		return
	}
	c.tree.canceled.Store(true)
}

// CheckHost is the public façade (§4.8): the root check_host() entry
// point. It validates ip/domain/sender synchronously — substituting
// "postmaster" when sender has no local part, per §4.8 — and delivers
// None synchronously (calling cb before returning) for malformed input
// without starting any DNS work. Otherwise it starts one loop goroutine
// owning the whole tree (§2) and returns a handle; cb is invoked exactly
// once, from that loop goroutine, unless the returned handle is
// canceled first.
func CheckHost(ip net.IP, domain, sender, helo string, cb func(Result, error), opts ...Option) *Check {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}

	local, senderDomain := splitSender(sender)
	if local == "" {
		local = "postmaster"
	}
	if senderDomain == "" {
		senderDomain = domain
	}

	cip, err := newClientIP(ip)
	if err != nil {
		cb(None, err)
		return nil
	}
	if err := validateDomain(domain); err != nil {
		cb(None, err)
		return nil
	}
	if err := validateDomain(senderDomain); err != nil {
		cb(None, err)
		return nil
	}

	tree := newEvalTree(cfg.resolver, cfg.listener)
	tree.skipSPFType = cfg.skipSPFType

	root := acquireContext(tree, nil, 0)
	root.ip = cip
	root.domain = domain
	root.sender = local + "@" + senderDomain
	root.localPart = local
	root.senderDomain = senderDomain
	root.helo = helo
	root.onDone = func(res Result, rerr error) {
		releaseContext(root)
		cb(res, rerr)
	}

	handle := &Check{tree: tree}

	go runLoop(tree, root)

	return handle
}

// runLoop is the evaluation loop goroutine for one root Check (§2): it
// performs the initial synchronous dispatch then drains resume closures
// until the root context is done or the check is canceled, and no
// callbacks remain in flight.
func runLoop(tree *evalTree, root *evalContext) {
	tree.listener.CheckHost(root.ip.asNetIP(), root.domain, root.sender)
	startRecordFetch(root)

	for fn := range tree.resumeCh {
		fn()
		if (root.done || tree.canceled.Load()) && tree.inflight == 0 {
			return
		}
	}
}

// splitSender splits a MAIL FROM mailbox into local-part and domain.
func splitSender(sender string) (local, domain string) {
	i := strings.LastIndexByte(sender, '@')
	if i < 0 {
		return "", ""
	}
	return sender[:i], sender[i+1:]
}
