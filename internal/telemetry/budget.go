package telemetry

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Budget is a token bucket over external-evaluator cost units
type Budget struct {
	limiter *rate.Limiter
	burst   int

	mu    sync.Mutex
	spent float64
}

// NewBudget refills unitsPerSecond up to burst. It returns nil when
// unitsPerSecond <= 0, which callers treat as unlimited.
func NewBudget(unitsPerSecond float64, burst int) *Budget {
	if unitsPerSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = int(math.Ceil(unitsPerSecond * 60))
	}
	return &Budget{limiter: rate.NewLimiter(rate.Limit(unitsPerSecond), burst), burst: burst}
}

// Allow reports whether units can be spent now without consuming them. A
// request larger than the burst only needs a full bucket, since the
// limiter can never hold more than that.
func (b *Budget) Allow(units float64) bool {
	if b == nil {
		return true
	}
	return b.limiter.TokensAt(time.Now()) >= min(units, float64(b.burst))
}

// Spend charges actual usage. Overspend pushes the bucket negative so
// later calls wait for the refill.
func (b *Budget) Spend(units float64) {
	n := int(math.Ceil(units))
	if b == nil || n <= 0 {
		return
	}
	b.limiter.ReserveN(time.Now(), min(n, b.burst))

	b.mu.Lock()
	b.spent += units
	b.mu.Unlock()
}

// Spent is the total cost charged so far
func (b *Budget) Spent() float64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spent
}
