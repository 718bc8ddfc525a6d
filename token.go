package spf

// ruleKind enumerates the mechanism/modifier kinds of §3's Rule.kind.
type ruleKind uint8

const (
	kUnknown ruleKind = iota
	kVersion          // the leading v=spf1 term, consumed by the parser, never a Rule
	kAll
	kInclude
	kA
	kMX
	kPTR
	kIP4
	kIP6
	kExists
	kRedirect
	kExp
)

func (k ruleKind) isMechanism() bool {
	switch k {
	case kAll, kInclude, kA, kMX, kPTR, kIP4, kIP6, kExists:
		return true
	}
	return false
}

// isDNSMechanism reports whether dispatching this kind consumes one unit
// of the 10-mechanism DNS budget (§4.6, §8).
func (k ruleKind) isDNSMechanism() bool {
	switch k {
	case kInclude, kA, kMX, kPTR, kExists:
		return true
	}
	return false
}

func (k ruleKind) String() string {
	switch k {
	case kAll:
		return "all"
	case kInclude:
		return "include"
	case kA:
		return "a"
	case kMX:
		return "mx"
	case kPTR:
		return "ptr"
	case kIP4:
		return "ip4"
	case kIP6:
		return "ip6"
	case kExists:
		return "exists"
	case kRedirect:
		return "redirect"
	case kExp:
		return "exp"
	case kVersion:
		return "v"
	default:
		return "unknown"
	}
}

// mechanismNames maps the literal lower-cased token text to its kind.
var mechanismNames = map[string]ruleKind{
	"all":     kAll,
	"include": kInclude,
	"a":       kA,
	"mx":      kMX,
	"ptr":     kPTR,
	"ip4":     kIP4,
	"ip6":     kIP6,
	"exists":  kExists,
}

var modifierNames = map[string]ruleKind{
	"redirect": kRedirect,
	"exp":      kExp,
}

// rule is the compiled, ordered directive per §3: {qualifier, kind,
// payload, ipv4_cidr, ipv6_cidr, literal_ip}.
type rule struct {
	qualifier byte // '+', '-', '~', '?'
	kind      ruleKind
	payload   string // macro-string text after ':' or '=', before '/cidr'
	name      string // raw modifier name, for kUnknown

	hasCIDR4 bool
	cidr4    int
	hasCIDR6 bool
	cidr6    int

	hasIP4 bool
	ip4    [4]byte
	hasIP6 bool
	ip6    [16]byte
}

func defaultQualifierResult(r rule) Result {
	return qualifierResult(r.qualifier)
}
