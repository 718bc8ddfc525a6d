package spf

import "sync"

// contextPool and rulePool realize §4.7's "reusable context allocation
// with reference-count teardown": on teardown, buffers are emptied but
// storage retained, and acquisition prefers the free list. sync.Pool is
// the idiomatic Go analogue of the teacher's free-list structures and is
// safe for the cross-tree, cross-goroutine sharing §5 calls out as the
// one place pool access needs synchronization — sync.Pool provides that
// internally.
var contextPool = sync.Pool{
	New: func() any { return new(evalContext) },
}

var rulePool = sync.Pool{
	New: func() any { return make([]rule, 0, 16) },
}

func acquireRules() []rule {
	return rulePool.Get().([]rule)[:0]
}

func releaseRules(rules []rule) {
	if cap(rules) == 0 {
		return
	}
	rulePool.Put(rules[:0]) //nolint:staticcheck // intentional retention of backing array
}
