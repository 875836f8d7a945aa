package upload

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// DefaultMaxRetries is the retry limit used when configuration omits one.
const DefaultMaxRetries = 10

// maxShift keeps 2^attempt inside an int64 multiplication.
const maxShift = 30

// Backoff computes exponential delays with full jitter:
// Base * rand[0,1) * 2^attempt, clamped to Max when Max is positive.
type Backoff struct {
	Base time.Duration
	Max  time.Duration
	// Rand returns a value in [0,1). Nil uses math/rand/v2.
	Rand func() float64
}

// Delay returns the sleep before retry number attempt (1-indexed).
func (b Backoff) Delay(attempt int) time.Duration {
	if b.Base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	random := rand.Float64
	if b.Rand != nil {
		random = b.Rand
	}
	r := random()
	if r < 0 || r >= 1 {
		r = 0
	}
	scaled := float64(b.Base) * float64(int64(1)<<attempt) * r
	delay := time.Duration(math.MaxInt64)
	if scaled < float64(math.MaxInt64) {
		delay = time.Duration(scaled)
	}
	if b.Max > 0 && delay > b.Max {
		delay = b.Max
	}
	if delay < 0 {
		return 0
	}
	return delay
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
