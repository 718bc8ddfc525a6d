package spf

// RRType enumerates the DNS record types the engine queries through a
// Resolver (§6: "asynchronous A, AAAA, MX, PTR, TXT, SPF queries").
type RRType uint16

const (
	TypeA RRType = iota
	TypeAAAA
	TypeMX
	TypePTR
	TypeTXT
	TypeSPF // RFC 4408 type 99, retired by RFC 7208 but still queried
)

func (t RRType) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeAAAA:
		return "AAAA"
	case TypeMX:
		return "MX"
	case TypePTR:
		return "PTR"
	case TypeTXT:
		return "TXT"
	case TypeSPF:
		return "SPF"
	default:
		return "UNKNOWN"
	}
}

// Answer carries the parsed, per-RR-type payload of one DNS response. This
// is the Go-idiomatic replacement for §6's "null-terminated array of raw
// answer blobs with a release function" — there is no manual memory
// management in a garbage-collected language.
type Answer struct {
	// Strings holds TXT/SPF character-strings, each already RFC 1035
	// length-prefix-joined per resource record.
	Strings []string
	// IPs holds A/AAAA addresses, 4 or 16 bytes each per the query type.
	IPs []clientIPAddr
	// Hosts holds MX exchange names (Host) with Preference, or PTR names
	// (Host only).
	Hosts []MXHost
	// NXDomain is true when the server answered authoritatively that the
	// name does not exist (RCODE 3). It is not itself a DNS failure.
	NXDomain bool
}

// clientIPAddr is a resolved address returned from an A/AAAA query.
type clientIPAddr struct {
	IsV6 bool
	V4   [4]byte
	V6   [16]byte
}

// MXHost is one answer to an MX (or, with Preference unused, PTR) query.
type MXHost struct {
	Host       string
	Preference uint16
}

// Resolver is the package's single DNS abstraction (§6's "DNS
// collaborator"). Resolve must invoke cb exactly once, possibly from a
// different goroutine than the caller; it returns false if the query
// could not even be issued (e.g. the underlying transport is already
// closed). The engine treats a non-nil err, or any rcode outside
// {NOERROR, NXDOMAIN}, as a DNS failure (mapped to ErrDNSTemperror)
// — NXDOMAIN itself is surfaced as a successful empty Answer with
// NXDomain set, never as an error.
type Resolver interface {
	Resolve(name string, rrtype RRType, cb func(*Answer, error)) bool
}
