package spf

import "strings"

// validateDomain enforces §4.2: non-empty, each label 1-63 chars of
// [A-Za-z0-9_-], no empty non-terminal label (a trailing dot is tolerated),
// at least two labels. Grounded on the teacher's isDomainName (itself
// adapted from the standard library's net package), generalized to also
// reject single-label names per this package's stricter domainspec rule.
func validateDomain(s string) error {
	if s == "" {
		return &DomainError{Domain: s, Err: "empty domain"}
	}

	l := len(s)
	if s[l-1] == '.' {
		s = s[:l-1]
		l--
	}
	if l == 0 {
		return &DomainError{Domain: s, Err: "empty domain"}
	}

	labels := 0
	last := byte('.')
	labelLen := 0
	nonNumeric := false // true once a letter, '_' or '-' is seen anywhere; not consulted

	for i := 0; i < l; i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_':
			nonNumeric = true
			labelLen++
		case '0' <= c && c <= '9':
			labelLen++
		case c == '-':
			if last == '.' {
				return &DomainError{Domain: s, Err: "label starts with hyphen"}
			}
			labelLen++
			nonNumeric = true
		case c == '.':
			if last == '.' || last == '-' {
				return &DomainError{Domain: s, Err: "empty or malformed label"}
			}
			if labelLen == 0 || labelLen > 63 {
				return &DomainError{Domain: s, Err: "label out of range"}
			}
			labels++
			labelLen = 0
		default:
			return &DomainError{Domain: s, Err: "invalid character in label"}
		}
		last = c
	}
	if last == '-' || last == '.' {
		return &DomainError{Domain: s, Err: "label ends with hyphen or dot"}
	}
	if labelLen == 0 || labelLen > 63 {
		return &DomainError{Domain: s, Err: "label out of range"}
	}
	labels++
	_ = nonNumeric

	if labels < 2 {
		return &DomainError{Domain: s, Err: "domain must have at least two labels"}
	}
	return nil
}

// normalizeFQDN lowercases and ensures a single trailing dot, without
// altering label content otherwise.
func normalizeFQDN(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}

// stripRoot removes a single trailing dot, if present.
func stripRoot(s string) string {
	if strings.HasSuffix(s, ".") {
		return s[:len(s)-1]
	}
	return s
}

// isSubDomainOrEqual reports whether name equals domain, or is a strict
// sub-label of it, ignoring case and a trailing dot on either side — used
// by PTR validation (§4.6: "equals...or is a sub-label of it").
func isSubDomainOrEqual(name, domain string) bool {
	name = strings.ToLower(stripRoot(name))
	domain = strings.ToLower(stripRoot(domain))
	if name == domain {
		return true
	}
	return strings.HasSuffix(name, "."+domain)
}
