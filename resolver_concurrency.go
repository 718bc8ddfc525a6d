package spf

// ConcurrencyLimitedResolver caps the number of queries in flight against
// the wrapped Resolver at once, queuing excess Resolve calls behind a
// semaphore. This is a distinct concern from the engine's own
// 10-mechanism budget (§4.6, enforced in evalContext.chargeMechanism):
// that budget bounds one policy tree's DNS-consuming mechanisms,
// while this decorator protects a shared Resolver instance (and the
// wire) against a thundering herd across many concurrent trees.
//
// Grounded on the teacher's resolver_limited.go, repurposed from a
// per-tree lookup-count limiter (redundant with the engine's own budget
// here) into a concurrency governor for the shared collaborator.
type ConcurrencyLimitedResolver struct {
	next Resolver
	sem  chan struct{}
}

// NewConcurrencyLimitedResolver wraps next, admitting at most max
// concurrent Resolve calls at a time.
func NewConcurrencyLimitedResolver(next Resolver, max int) *ConcurrencyLimitedResolver {
	if max <= 0 {
		max = 1
	}
	return &ConcurrencyLimitedResolver{next: next, sem: make(chan struct{}, max)}
}

func (r *ConcurrencyLimitedResolver) Resolve(name string, rrtype RRType, cb func(*Answer, error)) bool {
	go func() {
		r.sem <- struct{}{}
		ok := r.next.Resolve(name, rrtype, func(ans *Answer, err error) {
			<-r.sem
			cb(ans, err)
		})
		if !ok {
			<-r.sem
			cb(nil, ErrDNSTemperror)
		}
	}()
	return true
}
