// Package refid generates human-readable reference identifiers for
// transactions, deposits and investments.
//
// Format: PREFIX-<millisecond timestamp, base36>-<48 bits of entropy, base36>.
// The prefix disambiguates the domain (DEP deposit, RE real estate, LN loan)
// so identifiers on receipts are recognisable at a glance.
package refid

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// Domain prefixes stamped on reference IDs.
const (
	PrefixDeposit    = "DEP"
	PrefixWithdrawal = "WDL"
	PrefixTransfer   = "TRF"
	PrefixRealEstate = "RE"
	PrefixStock      = "STK"
	PrefixCrypto     = "CRY"
	PrefixLoan       = "LN"
)

// Generator produces collision-resistant reference IDs. The zero value is
// ready to use and safe for concurrent callers.
type Generator struct {
	fallback atomic.Uint64
	now      func() time.Time
}

// New creates a generator using the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

// NewWithClock creates a generator with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh reference ID for the given prefix. It never fails:
// if the entropy source is unavailable it falls back to an in-process
// atomic counter appended to the timestamp, which still cannot collide
// within this process.
func (g *Generator) Next(prefix string) string {
	now := time.Now
	if g.now != nil {
		now = g.now
	}
	ts := strings.ToUpper(strconv.FormatInt(now().UnixMilli(), 36))

	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		seq := g.fallback.Add(1)
		return fmt.Sprintf("%s-%s-C%s", prefix, ts, strings.ToUpper(strconv.FormatUint(seq, 36)))
	}

	entropy := uint64(buf[0])<<40 | uint64(buf[1])<<32 | uint64(buf[2])<<24 |
		uint64(buf[3])<<16 | uint64(buf[4])<<8 | uint64(buf[5])

	// Zero-pad to base36 width of 2^48-1 so IDs sort and align uniformly.
	random := strings.ToUpper(strconv.FormatUint(entropy, 36))
	if len(random) < 10 {
		random = strings.Repeat("0", 10-len(random)) + random
	}

	return fmt.Sprintf("%s-%s-%s", prefix, ts, random)
}
