// Package fx fetches, caches and applies foreign exchange rates.
//
// Rates are fetched from an external JSON source for a base currency against
// a fixed symbol set, cached for a bounded time window, and applied to
// amounts with a fixed rounding policy. A fetch failure is a typed, non-fatal
// condition: callers degrade to base-currency display instead of erroring.
package fx

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRateUnavailable covers network errors, non-success responses and
// malformed payloads from the rate source. It is never cached.
var ErrRateUnavailable = errors.New("exchange rates unavailable")

// DefaultTTL bounds how long a cached snapshot may be served.
const DefaultTTL = 6 * time.Hour

// Snapshot is a dated mapping from a base currency to one or more target
// currencies, immutable once fetched.
type Snapshot struct {
	Base  string
	Date  string // as-of date reported by the source
	Rates map[string]decimal.Decimal
}

// Rate returns the base->code rate carried by the snapshot.
func (s Snapshot) Rate(code string) (decimal.Decimal, bool) {
	r, ok := s.Rates[code]
	return r, ok
}

// CacheKey identifies a snapshot by its base code and ordered symbol set.
func CacheKey(base string, symbols []string) string {
	return base + ":" + strings.Join(symbols, ",")
}
