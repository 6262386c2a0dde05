package alpaca

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// limiter is a token bucket guarding the Alpaca REST budget. One bucket per
// client; all operations share it.
type limiter struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

func newLimiter(capacity, refillPerSec float64) *limiter {
	return &limiter{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillPerSec,
		last:       time.Now(),
	}
}

// wait blocks until a token is available or ctx is done.
func (l *limiter) wait(ctx context.Context) error {
	for {
		if l.take() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (l *limiter) take() bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.refillRate
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
		l.last = now
	}
	if l.tokens >= 1 {
		l.tokens--
		return true
	}
	return false
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
