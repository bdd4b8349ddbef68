package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_Delay(t *testing.T) {
	tests := []struct {
		name    string
		b       Backoff
		attempt int
		r       float64
		want    time.Duration
	}{
		{"first retry no jitter", Backoff{Base: 250 * time.Millisecond, Jitter: 0.2}, 1, 0.5, 250 * time.Millisecond},
		{"second retry doubles", Backoff{Base: 250 * time.Millisecond, Jitter: 0.2}, 2, 0.5, 500 * time.Millisecond},
		{"third retry", Backoff{Base: 250 * time.Millisecond, Jitter: 0.2}, 3, 0.5, time.Second},
		{"low jitter", Backoff{Base: 250 * time.Millisecond, Jitter: 0.2}, 1, 0, 200 * time.Millisecond},
		{"high jitter floors", Backoff{Base: 250 * time.Millisecond, Jitter: 0.2}, 1, 0.999999, 299 * time.Millisecond},
		{"jitter clamped to 1", Backoff{Base: 100 * time.Millisecond, Jitter: 5}, 1, 0, 0},
		{"negative jitter is zero", Backoff{Base: 100 * time.Millisecond, Jitter: -1}, 1, 0, 100 * time.Millisecond},
		{"zero base", Backoff{}, 4, 0.3, 0},
		{"attempt below one", Backoff{Base: 10 * time.Millisecond}, 0, 0.5, 10 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.b.Delay(tt.attempt, tt.r)
			if got != tt.want {
				t.Errorf("Delay(%d, %v) = %v, want %v", tt.attempt, tt.r, got, tt.want)
			}
		})
	}
}

func fixed(r float64) func() float64 { return func() float64 { return r } }

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	var delays []time.Duration
	var attempts []int
	err := Do(context.Background(), 3, Backoff{Base: time.Millisecond, Rand: fixed(0.5)}, func() error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	}, func(attempt int, err error, d time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, d)
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("notified attempts = %v, want [1 2]", attempts)
	}
	if len(delays) != 2 || delays[0] != time.Millisecond || delays[1] != 2*time.Millisecond {
		t.Errorf("delays = %v, want [1ms 2ms]", delays)
	}
}

func TestDo_ExhaustedReturnsLastError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 1, Backoff{Base: time.Millisecond}, func() error {
		calls++
		return errors.New("fail " + string(rune('0'+calls)))
	}, nil)
	if err == nil || err.Error() != "fail 2" {
		t.Errorf("err = %v, want fail 2", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestDo_ZeroRetries(t *testing.T) {
	calls := 0
	sentinel := errors.New("boom")
	err := Do(context.Background(), 0, Backoff{Base: time.Millisecond}, func() error {
		calls++
		return sentinel
	}, nil)
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_PermanentStops(t *testing.T) {
	calls := 0
	sentinel := errors.New("auth")
	err := Do(context.Background(), 5, Backoff{Base: time.Millisecond}, func() error {
		calls++
		return Permanent(sentinel)
	}, nil)
	if err != sentinel {
		t.Errorf("err = %v, want unwrapped %v", err, sentinel)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDo_ContextCancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 3, Backoff{Base: time.Hour, Rand: fixed(0.5)}, func() error {
		calls++
		return errors.New("retry me")
	}, func(int, error, time.Duration) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
