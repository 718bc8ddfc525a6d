package spf

import "strings"

// fakeAnswer scripts one zone entry for fakeResolver.
type fakeAnswer struct {
	ans *Answer
	err error
}

// fakeResolver is a deterministic Resolver test double, grounded on the
// teacher's testing/dns.go Zone() fixture but implementing this
// package's asynchronous Resolver contract directly instead of running a
// real UDP server — the engine never inspects transport details, so a
// synchronous map lookup scripted per (name, rrtype) is sufficient and
// keeps tests free of real sockets.
type fakeResolver struct {
	zone  map[string]map[RRType]fakeAnswer
	calls int
	async bool // when true, answers are delivered from a goroutine
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{zone: make(map[string]map[RRType]fakeAnswer)}
}

func (f *fakeResolver) set(name string, rrtype RRType, ans *Answer, err error) *fakeResolver {
	name = strings.ToLower(normalizeFQDN(name))
	if f.zone[name] == nil {
		f.zone[name] = make(map[RRType]fakeAnswer)
	}
	f.zone[name][rrtype] = fakeAnswer{ans: ans, err: err}
	return f
}

func (f *fakeResolver) Resolve(name string, rrtype RRType, cb func(*Answer, error)) bool {
	f.calls++
	name = strings.ToLower(normalizeFQDN(name))
	a, ok := f.zone[name][rrtype]
	if !ok {
		a = fakeAnswer{ans: &Answer{NXDomain: true}}
	}
	if f.async {
		go cb(a.ans, a.err)
	} else {
		cb(a.ans, a.err)
	}
	return true
}

func txtAnswer(records ...string) *Answer {
	return &Answer{Strings: records}
}

func ipAnswer(v4s ...string) *Answer {
	ans := &Answer{}
	for _, s := range v4s {
		v4, ok := parseIP4Literal(s)
		if !ok {
			panic("bad test literal " + s)
		}
		ans.IPs = append(ans.IPs, clientIPAddr{V4: v4})
	}
	return ans
}

func mxAnswer(hosts ...string) *Answer {
	ans := &Answer{}
	for _, h := range hosts {
		ans.Hosts = append(ans.Hosts, MXHost{Host: h})
	}
	return ans
}

func ptrAnswer(hosts ...string) *Answer {
	ans := &Answer{}
	for _, h := range hosts {
		ans.Hosts = append(ans.Hosts, MXHost{Host: h})
	}
	return ans
}
