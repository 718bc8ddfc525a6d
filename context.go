package spf

import "sync/atomic"

// maxRecursionDepth and maxDNSMechanisms are the two hard limits of §3's
// invariants: "recursion depth is ≤ 15" and "the DNS-mechanism counter...
// may not exceed 10".
const (
	maxRecursionDepth = 15
	maxDNSMechanisms  = 10
	maxMXAnswers      = 10
	maxPTRAnswers     = 10
)

// evalTree is shared by a root evalContext and every include/redirect
// descendant it spawns. It owns the single loop goroutine's resume
// channel and the DNS-mechanism budget, which §3 specifies is "inherited
// by children and returned to the parent on child completion" — realized
// here as one counter shared by pointer across the whole tree rather than
// threaded up and down on every spawn/return.
type evalTree struct {
	resolver Resolver
	listener Listener

	resumeCh chan func()

	skipSPFType bool

	mechanisms int
	canceled   atomic.Bool

	// inflight counts DNS callbacks not yet drained anywhere in the tree;
	// the loop goroutine exits once it reaches zero and the root is done.
	inflight int
}

func newEvalTree(r Resolver, l Listener) *evalTree {
	if l == nil {
		l = noopListener{}
	}
	return &evalTree{
		resolver: r,
		listener: l,
		resumeCh: make(chan func(), 8),
	}
}

// evalContext is one in-flight check_host() invocation (§3). A root
// context and every include/redirect descendant share one evalTree and
// are all mutated exclusively from that tree's single loop goroutine;
// the only cross-goroutine-mutated field in the whole tree is
// evalTree.canceled, set via atomic.Bool from Cancel().
type evalContext struct {
	tree   *evalTree
	parent *evalContext
	depth  int

	ip           clientIP
	domain       string
	sender       string
	localPart    string
	senderDomain string
	helo         string

	policy      string
	txtRecv     bool
	txtErr      bool
	spfRecv     bool
	spfErr      bool
	tooMany     bool
	recordReady bool
	txtRecords  []string
	spfRecords  []string

	pol     *parsedPolicy
	current int

	queries int
	pending int

	// mechCharged guards the once-per-rule DNS-mechanism budget charge
	// (§4.6) across a %p-triggered suspension and resumption of the
	// same rule.
	mechCharged bool

	useBareDomain bool
	inMacro       bool
	validated     string
	resumeMacro   func() // re-invoked when a %p-triggered PTR resolution completes

	ptrPending    bool
	matchedInMX   bool
	dnsErrorAtMX  bool
	pendingCancel bool

	child *evalContext

	done     bool
	result   Result
	resultErr error

	// onDone delivers the terminal verdict exactly once (§4.8, §5). On the
	// root it is set by CheckHost; on a child it is set by spawnChild and
	// hands the verdict to the dispatchInclude / dispatchRedirect
	// continuation.
	onDone func(Result, error)
}

// acquireContext pulls a context off the shared pool (§4.7) or allocates
// a fresh one, resets its scalar fields, and wires it into tree.
func acquireContext(tree *evalTree, parent *evalContext, depth int) *evalContext {
	c := contextPool.Get().(*evalContext)
	c.tree = tree
	c.parent = parent
	c.depth = depth
	c.ip = clientIP{}
	c.domain = ""
	c.sender = ""
	c.localPart = ""
	c.senderDomain = ""
	c.helo = ""
	c.policy = ""
	c.txtRecv, c.txtErr = false, false
	c.spfRecv, c.spfErr = false, false
	c.tooMany = false
	c.recordReady = false
	c.txtRecords = nil
	c.spfRecords = nil
	c.pol = nil
	c.current = 0
	c.queries = 0
	c.pending = 0
	c.mechCharged = false
	c.useBareDomain = false
	c.inMacro = false
	c.validated = ""
	c.resumeMacro = nil
	c.ptrPending = false
	c.matchedInMX = false
	c.dnsErrorAtMX = false
	c.pendingCancel = false
	c.child = nil
	c.done = false
	c.result = None
	c.resultErr = nil
	c.onDone = nil
	return c
}

// releaseContext returns a context's storage to the pool once it has
// delivered its verdict and has no outstanding queries (§4.7, §5).
func releaseContext(c *evalContext) {
	if c.pol != nil {
		releaseRules(c.pol.rules)
		c.pol = nil
	}
	contextPool.Put(c)
}

func (c *evalContext) canceled() bool {
	return c.tree.canceled.Load()
}

// chargeMechanism enforces the 10-count budget (§4.6, §8). It returns
// false (caller must emit permerror) once the shared tree counter would
// exceed maxDNSMechanisms.
func (c *evalContext) chargeMechanism() bool {
	c.tree.mechanisms++
	return c.tree.mechanisms <= maxDNSMechanisms
}
