package cache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/miekg/dns"
	"github.com/outcaste-io/ristretto"
)

// MsgCost estimates a cache entry's weight from the wire size of the
// cached dns.Msg, the same cost function the teacher charged ristretto.
func MsgCost(v any) int64 {
	return int64(v.(*dns.Msg).Len())
}

// QuestionToHash hashes a dns.Question into ristretto's two-uint64 key
// form, grounded on the teacher's z.QuestionToHash.
func QuestionToHash(k any) (uint64, uint64) {
	q := k.(dns.Question)

	h := xxhash.New()
	h.Write([]byte(q.Name))
	h.Write([]byte{byte(q.Qtype >> 8), byte(q.Qtype)})
	h.Write([]byte{byte(q.Qclass >> 8), byte(q.Qclass)})

	return h.Sum64(), 0
}

// MustRistrettoCache builds a ristretto.Cache or panics; used only at
// resolver construction time with a fixed, known-good config.
func MustRistrettoCache(cfg *ristretto.Config) *ristretto.Cache {
	c, err := ristretto.NewCache(cfg)
	if err != nil {
		panic(err)
	}
	return c
}
