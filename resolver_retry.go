package spf

import (
	"math/rand"
	"time"
)

// RetryResolver round-robins over a list of Resolvers, retrying a failed
// query against the next one after an exponential backoff. Grounded on
// the teacher's resolver_retry.go, adapted from its synchronous retry
// loop to the asynchronous Resolver contract: each retry schedules a
// delayed goroutine rather than blocking.
type RetryResolver struct {
	resolvers []Resolver

	delayMin time.Duration
	factor   float64
	jitter   float64
	maxTries int
}

// RetryOption configures a RetryResolver.
type RetryOption func(*RetryResolver)

func BackoffDelayMin(d time.Duration) RetryOption { return func(r *RetryResolver) { r.delayMin = d } }
func BackoffFactor(f float64) RetryOption         { return func(r *RetryResolver) { r.factor = f } }
func BackoffJitter(j float64) RetryOption         { return func(r *RetryResolver) { r.jitter = j } }
func MaxTries(n int) RetryOption                  { return func(r *RetryResolver) { r.maxTries = n } }

func NewRetryResolver(resolvers []Resolver, opts ...RetryOption) *RetryResolver {
	r := &RetryResolver{
		resolvers: resolvers,
		delayMin:  50 * time.Millisecond,
		factor:    2.0,
		jitter:    0.2,
		maxTries:  len(resolvers),
	}
	for _, o := range opts {
		o(r)
	}
	if r.maxTries <= 0 {
		r.maxTries = len(resolvers)
	}
	return r
}

func (r *RetryResolver) Resolve(name string, rrtype RRType, cb func(*Answer, error)) bool {
	if len(r.resolvers) == 0 {
		return false
	}
	r.attempt(name, rrtype, cb, 0, r.delayMin)
	return true
}

func (r *RetryResolver) attempt(name string, rrtype RRType, cb func(*Answer, error), try int, delay time.Duration) {
	rv := r.resolvers[try%len(r.resolvers)]
	ok := rv.Resolve(name, rrtype, func(ans *Answer, err error) {
		if err == nil || try+1 >= r.maxTries {
			cb(ans, err)
			return
		}
		next := time.Duration(float64(delay) * r.factor)
		if r.jitter > 0 {
			next += time.Duration(r.jitter * float64(next) * (rand.Float64()*2 - 1))
		}
		time.AfterFunc(delay, func() {
			r.attempt(name, rrtype, cb, try+1, next)
		})
	})
	if !ok {
		cb(nil, ErrDNSTemperror)
	}
}
