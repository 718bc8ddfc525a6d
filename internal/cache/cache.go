// Package cache provides the answer cache used by the built-in miekg/dns
// Resolver. Caching DNS answers is the DNS collaborator's responsibility,
// not the evaluation engine's — this
// package exists so the package's concrete Resolver still behaves well
// under repeated policy-tree lookups.
package cache

import "time"

// Cache is modeled after github.com/outcaste-io/ristretto's Cache and
// includes only the subset of methods the resolver needs.
type Cache interface {
	Get(k any) (v any, found bool)
	SetWithTTL(k, v any, cost int64, ttl time.Duration) bool
}
