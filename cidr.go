package spf

import "strconv"

// parseCIDRSuffix splits a domainspec that may carry a trailing dual-CIDR
// suffix (§4.4: "a:domain/24//64") into the bare domain part and the
// optional v4/v6 prefix lengths. Grounded on the teacher's
// splitDomainDualCIDR, generalized to return explicit has/value pairs
// rather than relying on a sentinel, since /0 is a valid prefix (§9 open
// question) and must be distinguishable from "absent".
func parseCIDRSuffix(raw string) (domain string, hasCIDR4 bool, cidr4 int, hasCIDR6 bool, cidr6 int, err error) {
	i := indexByte(raw, '/')
	if i < 0 {
		return raw, false, 0, false, 0, nil
	}
	domain = raw[:i]
	rest := raw[i:] // starts with '/'

	// rest is one of: "/n", "/n/m" (single-slash dual form), "/n//m"
	// (double-slash dual form, the first prefix interpreted as v4).
	first := rest[1:]
	if j := indexByte(first, '/'); j >= 0 {
		v4part := first[:j]
		v6part := first[j+1:]
		// double-slash form leaves a leading '/' on the v6 remainder
		if len(v6part) > 0 && v6part[0] == '/' {
			v6part = v6part[1:]
		}
		if v4part != "" {
			n, e := parseCIDRDigits(v4part, 32)
			if e != nil {
				return "", false, 0, false, 0, e
			}
			hasCIDR4, cidr4 = true, n
		}
		if v6part != "" {
			n, e := parseCIDRDigits(v6part, 128)
			if e != nil {
				return "", false, 0, false, 0, e
			}
			hasCIDR6, cidr6 = true, n
		}
		return domain, hasCIDR4, cidr4, hasCIDR6, cidr6, nil
	}

	n, e := parseCIDRDigits(first, 32)
	if e != nil {
		return "", false, 0, false, 0, e
	}
	return domain, true, n, false, 0, nil
}

// parseSingleCIDR parses the single CIDR suffix permitted after an ip4/ip6
// literal mechanism value, bounded by max (32 or 128).
func parseSingleCIDR(raw string, max int) (domain string, has bool, n int, err error) {
	i := indexByte(raw, '/')
	if i < 0 {
		return raw, false, 0, nil
	}
	n, err = parseCIDRDigits(raw[i+1:], max)
	if err != nil {
		return "", false, 0, err
	}
	return raw[:i], true, n, nil
}

// parseCIDRDigits enforces "reject leading-zero multi-digit prefixes" and
// the family's range.
func parseCIDRDigits(s string, max int) (int, error) {
	if s == "" {
		return 0, &SyntaxError{Rule: "cidr", Cause: ErrSyntax}
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, &SyntaxError{Rule: "cidr", Cause: ErrSyntax}
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, &SyntaxError{Rule: "cidr", Cause: ErrSyntax}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &SyntaxError{Rule: "cidr", Cause: ErrSyntax}
	}
	if n < 0 || n > max {
		return 0, &SyntaxError{Rule: "cidr", Cause: ErrInvalidCIDR}
	}
	return n, nil
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}
