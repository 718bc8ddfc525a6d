package spf

import "net"

// clientIP carries both address-family forms of the SMTP client IP, after
// v4-mapped-v6 normalization. Exactly one of v4/v6 is meaningful, selected
// by isV6.
type clientIP struct {
	v4   [4]byte
	v6   [16]byte
	isV6 bool
}

func newClientIP(ip net.IP) (clientIP, error) {
	if ip == nil {
		return clientIP{}, &DomainError{Err: "nil client IP"}
	}
	if v4 := ip.To4(); v4 != nil {
		var c clientIP
		copy(c.v4[:], v4)
		return c, nil
	}
	v6 := ip.To16()
	if v6 == nil {
		return clientIP{}, &DomainError{Err: "unparseable client IP"}
	}
	var c clientIP
	c.isV6 = true
	copy(c.v6[:], v6)
	return c, nil
}

func (c clientIP) asNetIP() net.IP {
	if c.isV6 {
		ip := make(net.IP, 16)
		copy(ip, c.v6[:])
		return ip
	}
	ip := make(net.IP, 4)
	copy(ip, c.v4[:])
	return ip
}

// matchIP4 reports whether ip, masked to cidr bits, equals c's v4 form
// masked the same way. cidr is assumed already validated to [0,32].
func matchIP4(c clientIP, ip [4]byte, cidr int) bool {
	if c.isV6 {
		return false
	}
	return maskedEqual(c.v4[:], ip[:], cidr)
}

// matchIP6 reports whether ip, masked to cidr bits, equals c's v6 form.
// cidr is assumed already validated to [0,128].
func matchIP6(c clientIP, ip [16]byte, cidr int) bool {
	if !c.isV6 {
		return false
	}
	return maskedEqual(c.v6[:], ip[:], cidr)
}

// maskedEqual compares a and b over the first cidr bits: whole bytes first,
// then the remaining partial byte via a shifted bitmask. cidr == 0 always
// matches; it is a valid prefix, not a sentinel for "absent".
func maskedEqual(a, b []byte, cidr int) bool {
	wholeBytes := cidr / 8
	remBits := cidr % 8

	for i := 0; i < wholeBytes; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	if remBits == 0 {
		return true
	}
	mask := byte(0xFF << (8 - remBits))
	return a[wholeBytes]&mask == b[wholeBytes]&mask
}

func parseIP4Literal(s string) ([4]byte, bool) {
	ip := net.ParseIP(s)
	if ip == nil {
		return [4]byte{}, false
	}
	v4 := ip.To4()
	if v4 == nil {
		return [4]byte{}, false
	}
	var out [4]byte
	copy(out[:], v4)
	return out, true
}

func parseIP6Literal(s string) ([16]byte, bool) {
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() != nil {
		return [16]byte{}, false
	}
	v6 := ip.To16()
	if v6 == nil {
		return [16]byte{}, false
	}
	var out [16]byte
	copy(out[:], v6)
	return out, true
}
