package spf

import (
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/outcaste-io/ristretto"

	icache "github.com/sendpath/spf/internal/cache"
)

// MiekgResolver is the package's concrete DNS collaborator (§4.10),
// grounded on the teacher's resolver_miekg.go: it issues a UDP exchange,
// falling back to TCP on truncation, treats RCODE 3 (NXDOMAIN) as a
// non-error empty answer, and caches responses by question.
type MiekgResolver struct {
	addr string
	udp  *dns.Client
	tcp  *dns.Client
	timeout time.Duration
	cache   icache.Cache
}

// MiekgOption configures a MiekgResolver.
type MiekgOption func(*MiekgResolver)

// MiekgDNSCache installs an answer cache (§4.10). Without one, every
// query hits the wire.
func MiekgDNSCache(c icache.Cache) MiekgOption {
	return func(r *MiekgResolver) { r.cache = c }
}

// MiekgDNSTimeout bounds each UDP/TCP exchange.
func MiekgDNSTimeout(d time.Duration) MiekgOption {
	return func(r *MiekgResolver) { r.timeout = d }
}

// NewMiekgDNSResolver builds a Resolver that queries addr (host:port)
// directly, per the teacher's pattern of pointing at a specific upstream
// rather than parsing /etc/resolv.conf.
func NewMiekgDNSResolver(addr string, opts ...MiekgOption) (*MiekgResolver, error) {
	r := &MiekgResolver{
		addr:    addr,
		timeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	r.udp = &dns.Client{Net: "udp", Timeout: r.timeout}
	r.tcp = &dns.Client{Net: "tcp", Timeout: r.timeout}
	return r, nil
}

// MustDefaultAnswerCache builds the ristretto-backed cache the teacher
// wires in by default, sized for a single process's worth of policy
// trees.
func MustDefaultAnswerCache() icache.Cache {
	return icache.MustRistrettoCache(&ristretto.Config{
		NumCounters: 1e6,
		MaxCost:     1 << 24,
		BufferItems: 64,
		Cost:        icache.MsgCost,
		KeyToHash: func(k any) (uint64, uint64) {
			return icache.QuestionToHash(k)
		},
	})
}

func (r *MiekgResolver) Resolve(name string, rrtype RRType, cb func(*Answer, error)) bool {
	qtype := rrTypeToDNS(rrtype)
	q := dns.Question{Name: dns.Fqdn(name), Qtype: qtype, Qclass: dns.ClassINET}

	if r.cache != nil {
		if v, found := r.cache.Get(q); found {
			msg := v.(*dns.Msg)
			go cb(msgToAnswer(msg, rrtype), msgError(msg))
			return true
		}
	}

	go func() {
		msg := new(dns.Msg)
		msg.SetQuestion(q.Name, qtype)
		msg.RecursionDesired = true

		m, _, err := r.udp.Exchange(msg, r.addr)
		if err == nil && m != nil && m.Truncated {
			m, _, err = r.tcp.Exchange(msg, r.addr)
		}
		if err != nil || m == nil {
			cb(nil, ErrDNSTemperror)
			return
		}

		if r.cache != nil {
			r.cacheResponse(q, m)
		}
		cb(msgToAnswer(m, rrtype), msgError(m))
	}()
	return true
}

func (r *MiekgResolver) cacheResponse(q dns.Question, m *dns.Msg) {
	ttl := minTTL(m)
	r.cache.SetWithTTL(q, m, icache.MsgCost(m), ttl)
}

func minTTL(m *dns.Msg) time.Duration {
	const defaultNegativeTTL = 60 * time.Second
	min := uint32(0)
	for i, rr := range m.Answer {
		t := rr.Header().Ttl
		if i == 0 || t < min {
			min = t
		}
	}
	if len(m.Answer) == 0 {
		return defaultNegativeTTL
	}
	return time.Duration(min) * time.Second
}

func msgError(m *dns.Msg) error {
	switch m.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
		return nil
	default:
		return ErrDNSTemperror
	}
}

func rrTypeToDNS(t RRType) uint16 {
	switch t {
	case TypeA:
		return dns.TypeA
	case TypeAAAA:
		return dns.TypeAAAA
	case TypeMX:
		return dns.TypeMX
	case TypePTR:
		return dns.TypePTR
	case TypeTXT:
		return dns.TypeTXT
	case TypeSPF:
		return dns.TypeSPF
	default:
		return dns.TypeTXT
	}
}

func msgToAnswer(m *dns.Msg, rrtype RRType) *Answer {
	ans := &Answer{NXDomain: m.Rcode == dns.RcodeNameError}
	for _, rr := range m.Answer {
		switch t := rr.(type) {
		case *dns.TXT:
			ans.Strings = append(ans.Strings, strings.Join(t.Txt, ""))
		case *dns.SPF:
			ans.Strings = append(ans.Strings, strings.Join(t.Txt, ""))
		case *dns.A:
			var addr clientIPAddr
			copy(addr.V4[:], t.A.To4())
			ans.IPs = append(ans.IPs, addr)
		case *dns.AAAA:
			var addr clientIPAddr
			addr.IsV6 = true
			copy(addr.V6[:], t.AAAA.To16())
			ans.IPs = append(ans.IPs, addr)
		case *dns.MX:
			ans.Hosts = append(ans.Hosts, MXHost{Host: t.Mx, Preference: t.Preference})
		case *dns.PTR:
			ans.Hosts = append(ans.Hosts, MXHost{Host: t.Ptr})
		}
	}
	return ans
}
