package spf

import (
	"context"
	"net"
	"strings"
)

// SystemResolver is a Resolver backed by the standard library's
// net.Resolver, used as CheckHost's default when no Option supplies one.
// Grounded on the teacher's resolver_std.go, generalized from its
// synchronous calls into the asynchronous Resolver contract (§4.9) by
// running each lookup in its own goroutine.
//
// The standard library has no primitive for RFC 4408's type-99 SPF
// record (it predates net's resolver interface and was retired by RFC
// 7208 in favor of TXT alone); TypeSPF queries against SystemResolver
// therefore always report "no record" rather than failing, so a caller
// using SystemResolver effectively always falls back to TXT.
type SystemResolver struct {
	resolver *net.Resolver
}

var defaultSystemResolver = &SystemResolver{resolver: net.DefaultResolver}

// NewSystemResolver wraps an arbitrary *net.Resolver (for example one
// pointed at a specific host via Dial) as a Resolver.
func NewSystemResolver(r *net.Resolver) *SystemResolver {
	if r == nil {
		r = net.DefaultResolver
	}
	return &SystemResolver{resolver: r}
}

func (s *SystemResolver) Resolve(name string, rrtype RRType, cb func(*Answer, error)) bool {
	go func() {
		ctx := context.Background()
		switch rrtype {
		case TypeTXT:
			txt, err := s.resolver.LookupTXT(ctx, name)
			cb(answerFromTXTErr(txt, err))
		case TypeSPF:
			cb(&Answer{}, nil)
		case TypeA, TypeAAAA:
			ips, err := s.resolver.LookupIPAddr(ctx, name)
			cb(answerFromIPAddrs(ips, rrtype, err))
		case TypeMX:
			mx, err := s.resolver.LookupMX(ctx, name)
			cb(answerFromMX(mx, err))
		case TypePTR:
			names, err := s.resolver.LookupAddr(ctx, stripRoot(name))
			cb(answerFromPTR(names, err))
		default:
			cb(nil, ErrDNSTemperror)
		}
	}()
	return true
}

func isNXDomain(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if e, ok := err.(*net.DNSError); ok {
		dnsErr = e
	}
	return dnsErr != nil && dnsErr.IsNotFound
}

func answerFromTXTErr(txt []string, err error) (*Answer, error) {
	if err != nil {
		if isNXDomain(err) {
			return &Answer{NXDomain: true}, nil
		}
		return nil, ErrDNSTemperror
	}
	return &Answer{Strings: txt}, nil
}

func answerFromIPAddrs(ips []net.IPAddr, rrtype RRType, err error) (*Answer, error) {
	if err != nil {
		if isNXDomain(err) {
			return &Answer{NXDomain: true}, nil
		}
		return nil, ErrDNSTemperror
	}
	ans := &Answer{}
	for _, a := range ips {
		isV6 := a.IP.To4() == nil
		if rrtype == TypeA && isV6 {
			continue
		}
		if rrtype == TypeAAAA && !isV6 {
			continue
		}
		var addr clientIPAddr
		if isV6 {
			addr.IsV6 = true
			copy(addr.V6[:], a.IP.To16())
		} else {
			copy(addr.V4[:], a.IP.To4())
		}
		ans.IPs = append(ans.IPs, addr)
	}
	return ans, nil
}

func answerFromMX(mx []*net.MX, err error) (*Answer, error) {
	if err != nil {
		if isNXDomain(err) {
			return &Answer{NXDomain: true}, nil
		}
		return nil, ErrDNSTemperror
	}
	ans := &Answer{}
	for _, m := range mx {
		ans.Hosts = append(ans.Hosts, MXHost{Host: strings.ToLower(m.Host), Preference: m.Pref})
	}
	return ans, nil
}

func answerFromPTR(names []string, err error) (*Answer, error) {
	if err != nil {
		if isNXDomain(err) {
			return &Answer{NXDomain: true}, nil
		}
		return nil, ErrDNSTemperror
	}
	ans := &Answer{}
	for _, n := range names {
		ans.Hosts = append(ans.Hosts, MXHost{Host: n})
	}
	return ans, nil
}
