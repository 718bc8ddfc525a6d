package spf

// ruleOutcome is the result of dispatching one rule: either the driver
// advances to the next rule immediately, suspends awaiting a DNS
// callback or macro resolution, or the context has already reached a
// terminal verdict (finishContext was called).
type ruleOutcome int

const (
	outcomeAdvance ruleOutcome = iota
	outcomeSuspend
	outcomeDone
)

// issueQuery is the sole path through which the engine talks to the
// Resolver collaborator. It accounts the query against both the context
// and the shared tree, and — per §2's architecture note — always posts
// the resolver's answer back onto the tree's resume channel from a
// fresh goroutine, so that a Resolver invoking cb synchronously never
// deadlocks against the loop goroutine sending to its own channel.
func issueQuery(ctx *evalContext, name string, rrtype RRType, cb func(*Answer, error)) {
	tree := ctx.tree
	ctx.queries++
	tree.inflight++

	ok := tree.resolver.Resolve(name, rrtype, func(ans *Answer, err error) {
		go func() {
			tree.resumeCh <- func() {
				ctx.queries--
				tree.inflight--
				if tree.canceled.Load() {
					return
				}
				cb(ans, err)
			}
		}()
	})
	if !ok {
		ctx.queries--
		tree.inflight--
		cb(nil, ErrDNSTemperror)
	}
}

// startDriver begins rule-by-rule evaluation of a freshly-parsed policy
// (§4.6), entered once the record retriever hands off with start=true.
func startDriver(ctx *evalContext) {
	runRule(ctx)
}

// runRule advances ctx.current through ctx.pol.rules (§4.6's "state
// machine summary"), dispatching synchronously-resolvable rules in a
// tight loop and returning as soon as one rule suspends on DNS or a
// %p macro.
func runRule(ctx *evalContext) {
	for {
		if ctx.canceled() {
			finishContext(ctx, internalError, ErrCanceled)
			return
		}

		if ctx.current >= len(ctx.pol.rules) {
			if ctx.pol.redirectRule >= 0 {
				outcome := dispatchRedirect(ctx, ctx.pol.rules[ctx.pol.redirectRule])
				if outcome == outcomeSuspend {
					return
				}
				return
			}
			finishContext(ctx, Neutral, nil)
			return
		}

		r := ctx.pol.rules[ctx.current]
		switch dispatchRule(ctx, r) {
		case outcomeAdvance:
			ctx.current++
			ctx.mechCharged = false
		case outcomeSuspend, outcomeDone:
			return
		}
	}
}

// advanceAfterDNS is the common continuation DNS-consuming mechanisms
// use on a non-match: move to the next rule and resume the loop.
func advanceAfterDNS(ctx *evalContext) {
	ctx.current++
	ctx.mechCharged = false
	runRule(ctx)
}

func dispatchRule(ctx *evalContext, r rule) ruleOutcome {
	ctx.tree.listener.Directive(r.qualifier, r.kind.String(), r.payload)

	switch r.kind {
	case kAll:
		finishContext(ctx, qualifierResult(r.qualifier), nil)
		return outcomeDone

	case kIP4:
		if matchIP4(ctx.ip, r.ip4, r.cidr4) {
			finishContext(ctx, qualifierResult(r.qualifier), nil)
			return outcomeDone
		}
		return outcomeAdvance

	case kIP6:
		if matchIP6(ctx.ip, r.ip6, r.cidr6) {
			finishContext(ctx, qualifierResult(r.qualifier), nil)
			return outcomeDone
		}
		return outcomeAdvance

	case kRedirect, kExp, kUnknown:
		return outcomeAdvance

	case kA:
		return dispatchA(ctx, r)
	case kMX:
		return dispatchMX(ctx, r)
	case kExists:
		return dispatchExists(ctx, r)
	case kPTR:
		return dispatchPTR(ctx, r)
	case kInclude:
		return dispatchInclude(ctx, r)
	}
	return outcomeAdvance
}

// chargeCurrent enforces §4.6's "before any DNS-consuming dispatch,
// increment the counter; if it exceeds 10, emit permerror" — exactly
// once per rule, even across a %p-triggered suspension and resumption
// of the same rule (mechCharged guards the re-entry).
func chargeCurrent(ctx *evalContext) bool {
	if ctx.mechCharged {
		return true
	}
	if !ctx.chargeMechanism() {
		finishContext(ctx, Permerror, ErrLimitExceeded)
		return false
	}
	ctx.mechCharged = true
	return true
}

const (
	expandOK = iota
	expandSuspended
	expandFailed
)

// expandForRule macro-expands a rule's payload, suspending the driver on
// %p and reporting a terminal permerror on any expansion failure.
func expandForRule(ctx *evalContext, payload string, resume func()) (string, int) {
	if payload == "" {
		ctx.useBareDomain = true
		return ctx.domain, expandOK
	}
	expanded, err := expandMacro(ctx, payload)
	if err == nil {
		return expanded, expandOK
	}
	if err == errDNSPending {
		ctx.inMacro = true
		ctx.resumeMacro = resume
		return "", expandSuspended
	}
	finishContext(ctx, Permerror, err)
	return "", expandFailed
}

func dispatchA(ctx *evalContext, r rule) ruleOutcome {
	if !chargeCurrent(ctx) {
		return outcomeDone
	}
	domain, status := expandForRule(ctx, r.payload, func() { runRule(ctx) })
	if status == expandSuspended {
		return outcomeSuspend
	}
	if status == expandFailed {
		return outcomeDone
	}

	rrtype := TypeA
	if ctx.ip.isV6 {
		rrtype = TypeAAAA
	}
	issueQuery(ctx, normalizeFQDN(domain), rrtype, func(ans *Answer, err error) {
		if err != nil {
			finishContext(ctx, Temperror, ErrDNSTemperror)
			return
		}
		if matchAnyIP(ctx, ans, r.cidr4, r.cidr6) {
			ctx.tree.listener.Match(r.kind.String(), r.payload, qualifierResult(r.qualifier))
			finishContext(ctx, qualifierResult(r.qualifier), nil)
			return
		}
		ctx.tree.listener.NonMatch(r.kind.String(), r.payload, None)
		advanceAfterDNS(ctx)
	})
	return outcomeSuspend
}

func matchAnyIP(ctx *evalContext, ans *Answer, cidr4, cidr6 int) bool {
	if ans == nil || ans.NXDomain {
		return false
	}
	for _, ip := range ans.IPs {
		if !ctx.ip.isV6 && !ip.IsV6 && matchIP4(ctx.ip, ip.V4, cidr4) {
			return true
		}
		if ctx.ip.isV6 && ip.IsV6 && matchIP6(ctx.ip, ip.V6, cidr6) {
			return true
		}
	}
	return false
}

func dispatchExists(ctx *evalContext, r rule) ruleOutcome {
	if !chargeCurrent(ctx) {
		return outcomeDone
	}
	domain, status := expandForRule(ctx, r.payload, func() { runRule(ctx) })
	if status == expandSuspended {
		return outcomeSuspend
	}
	if status == expandFailed {
		return outcomeDone
	}

	issueQuery(ctx, normalizeFQDN(domain), TypeA, func(ans *Answer, err error) {
		if err != nil {
			finishContext(ctx, Temperror, ErrDNSTemperror)
			return
		}
		if ans != nil && !ans.NXDomain && len(ans.IPs) > 0 {
			finishContext(ctx, qualifierResult(r.qualifier), nil)
			return
		}
		advanceAfterDNS(ctx)
	})
	return outcomeSuspend
}

func dispatchPTR(ctx *evalContext, r rule) ruleOutcome {
	if !chargeCurrent(ctx) {
		return outcomeDone
	}
	target, status := expandForRule(ctx, r.payload, func() { runRule(ctx) })
	if status == expandSuspended {
		return outcomeSuspend
	}
	if status == expandFailed {
		return outcomeDone
	}

	resolvePTR(ctx, func(validated string) {
		if validated != "" && isSubDomainOrEqual(validated, target) {
			finishContext(ctx, qualifierResult(r.qualifier), nil)
			return
		}
		advanceAfterDNS(ctx)
	})
	return outcomeSuspend
}

func dispatchMX(ctx *evalContext, r rule) ruleOutcome {
	if !chargeCurrent(ctx) {
		return outcomeDone
	}
	domain, status := expandForRule(ctx, r.payload, func() { runRule(ctx) })
	if status == expandSuspended {
		return outcomeSuspend
	}
	if status == expandFailed {
		return outcomeDone
	}

	issueQuery(ctx, normalizeFQDN(domain), TypeMX, func(ans *Answer, err error) {
		if err != nil {
			finishContext(ctx, Temperror, ErrDNSTemperror)
			return
		}
		hosts := ans.Hosts
		if len(hosts) > maxMXAnswers {
			hosts = hosts[:maxMXAnswers]
		}
		if len(hosts) == 0 {
			advanceAfterDNS(ctx)
			return
		}

		rrtype := TypeA
		if ctx.ip.isV6 {
			rrtype = TypeAAAA
		}
		remaining := len(hosts)
		matched := false
		sawError := false

		for _, h := range hosts {
			issueQuery(ctx, normalizeFQDN(h.Host), rrtype, func(fans *Answer, ferr error) {
				remaining--
				if matched {
					return // already matched; discard remaining callbacks
				}
				if ferr != nil {
					sawError = true
				} else if matchAnyIP(ctx, fans, r.cidr4, r.cidr6) {
					matched = true
				}
				if matched {
					finishContext(ctx, qualifierResult(r.qualifier), nil)
					return
				}
				if remaining == 0 {
					if sawError {
						finishContext(ctx, Temperror, ErrDNSTemperror)
						return
					}
					advanceAfterDNS(ctx)
				}
			})
		}
	})
	return outcomeSuspend
}

func dispatchInclude(ctx *evalContext, r rule) ruleOutcome {
	if !chargeCurrent(ctx) {
		return outcomeDone
	}
	domain, status := expandForRule(ctx, r.payload, func() { runRule(ctx) })
	if status == expandSuspended {
		return outcomeSuspend
	}
	if status == expandFailed {
		return outcomeDone
	}

	spawnChild(ctx, domain, func(res Result, cerr error) {
		// §4.6's include result table.
		switch res {
		case Pass:
			finishContext(ctx, qualifierResult(r.qualifier), nil)
		case Fail, Softfail, Neutral:
			advanceAfterDNS(ctx)
		case Temperror:
			finishContext(ctx, Temperror, cerr)
		default: // None, Permerror, or anything else
			finishContext(ctx, Permerror, cerr)
		}
	})
	return outcomeSuspend
}

func dispatchRedirect(ctx *evalContext, r rule) ruleOutcome {
	if !chargeCurrent(ctx) {
		return outcomeDone
	}
	domain, status := expandForRule(ctx, r.payload, func() { runRule(ctx) })
	if status == expandSuspended {
		return outcomeSuspend
	}
	if status == expandFailed {
		return outcomeDone
	}

	ctx.tree.listener.Redirect(domain)
	spawnChild(ctx, domain, func(res Result, cerr error) {
		if res == None {
			finishContext(ctx, Permerror, ErrSPFNotFound)
			return
		}
		finishContext(ctx, res, cerr)
	})
	return outcomeSuspend
}

// spawnChild implements §4.8's child-context spawn for include/redirect,
// enforcing the 15-deep recursion budget (§3, §4.6) before acquiring a
// context from the shared pool.
func spawnChild(parent *evalContext, domain string, onChildDone func(Result, error)) {
	if parent.depth+1 > maxRecursionDepth {
		onChildDone(Permerror, ErrRecursionTooDeep)
		return
	}

	child := acquireContext(parent.tree, parent, parent.depth+1)
	child.ip = parent.ip
	child.domain = domain
	child.sender = parent.sender
	child.localPart = parent.localPart
	child.senderDomain = parent.senderDomain
	child.helo = parent.helo
	child.onDone = func(res Result, err error) {
		releaseContext(child)
		parent.child = nil
		onChildDone(res, err)
	}
	parent.child = child

	parent.tree.listener.CheckHost(child.ip.asNetIP(), child.domain, child.sender)
	startRecordFetch(child)
}

// finishContext delivers ctx's terminal verdict exactly once (§5: "Called
// exactly once per root context unless canceled").
func finishContext(ctx *evalContext, result Result, err error) {
	if ctx.done {
		return
	}
	ctx.done = true
	ctx.result = result
	ctx.resultErr = err

	if result == internalError {
		// a canceled context must not deliver a verdict (§5): drop the
		// listener notification and onDone callback entirely.
		ctx.onDone = nil
		return
	}

	ctx.tree.listener.CheckHostResult(result, err)

	if ctx.onDone != nil {
		done := ctx.onDone
		ctx.onDone = nil
		done(result, err)
	}
}
