package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff computes the delay before retry number attempt (1-based):
//
//	floor(Base * 2^(attempt-1) * (1 + U(-Jitter, Jitter)))
//
// in whole milliseconds, never negative.
type Backoff struct {
	Base   time.Duration
	Jitter float64
	// Rand returns a value in [0,1). Nil uses math/rand/v2.
	Rand func() float64
}

// Delay returns the delay for attempt given a uniform sample r in [0,1).
func (b Backoff) Delay(attempt int, r float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	j := ClampJitter(b.Jitter)
	factor := 1 + (2*r-1)*j
	ms := math.Floor(float64(b.Base.Milliseconds()) * math.Pow(2, float64(attempt-1)) * factor)
	if ms <= 0 || math.IsNaN(ms) {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// ClampJitter bounds j to [0,1]. NaN becomes 0.
func ClampJitter(j float64) float64 {
	switch {
	case math.IsNaN(j), j < 0:
		return 0
	case j > 1:
		return 1
	}
	return j
}

func (b Backoff) sample() float64 {
	if b.Rand != nil {
		return b.Rand()
	}
	return rand.Float64()
}

// policy adapts Backoff to backoff.BackOff.
type policy struct {
	b       Backoff
	attempt int
}

func (p *policy) NextBackOff() time.Duration {
	p.attempt++
	return p.b.Delay(p.attempt, p.b.sample())
}

func (p *policy) Reset() { p.attempt = 0 }

// Notify is called after attempt fails and before sleeping for delay.
type Notify func(attempt int, err error, delay time.Duration)

// Do runs op up to 1+maxRetries times, sleeping between failures. An error
// wrapped with [Permanent] stops the loop and is returned unwrapped. When the
// budget is spent the last error is returned unchanged. Cancelling ctx
// during a sleep returns ctx.Err().
func Do(ctx context.Context, maxRetries int, b Backoff, op func() error, notify Notify) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	p := &policy{b: b}
	bo := backoff.WithContext(backoff.WithMaxRetries(p, uint64(maxRetries)), ctx)

	attempt := 0
	wrapped := func() error {
		attempt++
		return op()
	}
	var n backoff.Notify
	if notify != nil {
		n = func(err error, d time.Duration) { notify(attempt, err, d) }
	}
	return backoff.RetryNotify(wrapped, bo, n)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}
