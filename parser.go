package spf

import "strings"

// parsedPolicy is the compiled form of a v=spf1 record: an ordered rule
// list plus the (at most one) redirect/exp modifier indices, per §3.
type parsedPolicy struct {
	rules        []rule
	redirectRule int // index into rules, or -1
	expRule      int // index into rules, or -1
}

// parseRecord tokenizes and validates a selected policy string into an
// ordered rule list (§4.4). Any syntactic violation returns a non-nil
// error; the driver maps every parse error to permerror.
//
// Grounded on the teacher's parser.go sortTokens/parseX family, rewritten
// as a single-pass field tokenizer since §4.4's terms are space-separated
// with no internal whitespace, making the teacher's rune-at-a-time lexer
// unnecessary here.
func parseRecord(record string) (*parsedPolicy, error) {
	fields := strings.Fields(record)
	if len(fields) == 0 {
		return nil, &SyntaxError{Rule: "record", Cause: ErrSyntax}
	}
	if !strings.EqualFold(fields[0], "v=spf1") {
		return nil, &SyntaxError{Rule: "version", Cause: ErrSyntax}
	}

	pol := &parsedPolicy{rules: acquireRules(), redirectRule: -1, expRule: -1}
	seenRedirect := false
	seenExp := false
	seenAll := false

	for _, term := range fields[1:] {
		if seenAll {
			// terms after "all" are still syntax-checked but never
			// executed; the teacher truncates evaluation at "all" too.
		}

		r, isModifier, err := parseTerm(term)
		if err != nil {
			return nil, err
		}

		if isModifier {
			switch r.kind {
			case kRedirect:
				if seenRedirect {
					return nil, &SyntaxError{Rule: term, Cause: ErrSyntax}
				}
				seenRedirect = true
				pol.rules = append(pol.rules, r)
				pol.redirectRule = len(pol.rules) - 1
			case kExp:
				if seenExp {
					return nil, &SyntaxError{Rule: term, Cause: ErrSyntax}
				}
				seenExp = true
				pol.rules = append(pol.rules, r)
				pol.expRule = len(pol.rules) - 1
			default:
				// unknown modifier: parsed and retained, never executed.
				pol.rules = append(pol.rules, r)
			}
			continue
		}

		pol.rules = append(pol.rules, r)
		if r.kind == kAll {
			seenAll = true
		}
	}

	return pol, nil
}

// parseTerm parses one space-delimited term into a rule. isModifier
// distinguishes "name=value" modifiers from qualifier-prefixed mechanisms.
func parseTerm(term string) (rule, bool, error) {
	qualifier := byte('+')
	rest := term
	switch term[0] {
	case '+', '-', '~', '?':
		qualifier = term[0]
		rest = term[1:]
	}
	if rest == "" {
		return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
	}

	// split name from the rest at the first of ':', '=', '/'
	nameEnd := len(rest)
	sep := byte(0)
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' || rest[i] == '=' || rest[i] == '/' {
			nameEnd = i
			sep = rest[i]
			break
		}
	}
	name := strings.ToLower(rest[:nameEnd])
	tail := rest[nameEnd:]

	if sep == '=' {
		// modifier: name=value; a leading qualifier char is only valid on
		// mechanisms, never on modifiers.
		switch term[0] {
		case '+', '-', '~', '?':
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		value := tail[1:]
		if value == "" {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		if k, ok := modifierNames[name]; ok {
			return rule{kind: k, payload: value, qualifier: '+'}, true, nil
		}
		if _, isMech := mechanismNames[name]; isMech {
			// a mechanism name takes ':' (or '/'), never '='
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		if !isValidModifierName(name) {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		return rule{kind: kUnknown, name: name, payload: value, qualifier: '+'}, true, nil
	}

	kind, ok := mechanismNames[name]
	if !ok {
		return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
	}

	r := rule{qualifier: qualifier, kind: kind}

	switch kind {
	case kAll:
		if tail != "" {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		return r, false, nil

	case kIP4:
		if sep != ':' {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		lit, hasCIDR, cidr, err := parseSingleCIDR(tail[1:], 32)
		if err != nil {
			return rule{}, false, err
		}
		ip, ok := parseIP4Literal(lit)
		if !ok {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		r.hasIP4, r.ip4 = true, ip
		if hasCIDR {
			r.hasCIDR4, r.cidr4 = true, cidr
		} else {
			r.hasCIDR4, r.cidr4 = true, 32
		}
		return r, false, nil

	case kIP6:
		if sep != ':' {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		lit, hasCIDR, cidr, err := parseSingleCIDR(tail[1:], 128)
		if err != nil {
			return rule{}, false, err
		}
		ip, ok := parseIP6Literal(lit)
		if !ok {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		r.hasIP6, r.ip6 = true, ip
		if hasCIDR {
			r.hasCIDR6, r.cidr6 = true, cidr
		} else {
			r.hasCIDR6, r.cidr6 = true, 128
		}
		return r, false, nil

	case kInclude, kExists:
		if sep != ':' {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		payload := tail[1:]
		if payload == "" {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		r.payload = payload
		return r, false, nil

	case kPTR:
		if sep == 0 {
			return r, false, nil
		}
		if sep != ':' {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		payload := tail[1:]
		if payload == "" {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		r.payload = payload
		return r, false, nil

	case kA, kMX:
		if sep == 0 {
			r.cidr4, r.cidr6 = 32, 128
			return r, false, nil
		}
		var value string
		if sep == ':' {
			value = tail[1:]
		} else {
			// bare "/cidr" with no domainspec: value carries the cidr
			// suffix only, domain defaults to the evaluated domain.
			value = tail
		}
		domain, hasCIDR4, cidr4, hasCIDR6, cidr6, err := parseCIDRSuffix(value)
		if err != nil {
			return rule{}, false, err
		}
		if sep == ':' && domain == "" {
			return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
		}
		r.payload = domain
		r.hasCIDR4, r.cidr4 = hasCIDR4, cidr4
		r.hasCIDR6, r.cidr6 = hasCIDR6, cidr6
		if !hasCIDR4 {
			r.cidr4 = 32
		}
		if !hasCIDR6 {
			r.cidr6 = 128
		}
		return r, false, nil
	}

	return rule{}, false, &SyntaxError{Rule: term, Cause: ErrSyntax}
}

func isValidModifierName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			// ok
		default:
			_ = i
			return false
		}
	}
	return true
}
