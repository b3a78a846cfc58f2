package fetcher

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"buildcheck/internal/output"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func testConsole() *output.Console {
	return output.NewConsole(io.Discard, io.Discard)
}

func TestQuotaTrackerSnapshot(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("refreshes only when stale", func(t *testing.T) {
		var refreshes int32
		now := fixedNow
		tr := NewQuotaTracker(func(ctx context.Context) (Snapshot, error) {
			atomic.AddInt32(&refreshes, 1)
			return Snapshot{Remaining: 4000, Limit: 5000, ResetAt: now.Add(time.Hour)}, nil
		}, testConsole(), testLogger())
		tr.now = func() time.Time { return now }

		s := tr.Snapshot(context.Background())
		if s.Remaining != 4000 {
			t.Fatalf("expected remaining 4000, got %d", s.Remaining)
		}
		tr.Snapshot(context.Background())
		tr.Snapshot(context.Background())
		if n := atomic.LoadInt32(&refreshes); n != 1 {
			t.Fatalf("expected 1 refresh while fresh, got %d", n)
		}

		now = now.Add(31 * time.Second)
		tr.Snapshot(context.Background())
		if n := atomic.LoadInt32(&refreshes); n != 2 {
			t.Fatalf("expected refresh after staleness window, got %d", n)
		}
	})

	t.Run("refresh failure keeps previous snapshot", func(t *testing.T) {
		now := fixedNow
		fail := false
		tr := NewQuotaTracker(func(ctx context.Context) (Snapshot, error) {
			if fail {
				return Snapshot{}, errors.New("boom")
			}
			return Snapshot{Remaining: 123, Limit: 5000, ResetAt: now.Add(time.Hour)}, nil
		}, testConsole(), testLogger())
		tr.now = func() time.Time { return now }

		tr.Snapshot(context.Background())
		fail = true
		now = now.Add(time.Minute)

		s := tr.Snapshot(context.Background())
		if s.Remaining != 123 {
			t.Fatalf("expected previous snapshot on refresh failure, got %+v", s)
		}
	})

	t.Run("refresh failure without previous returns permissive default", func(t *testing.T) {
		tr := NewQuotaTracker(func(ctx context.Context) (Snapshot, error) {
			return Snapshot{}, errors.New("unreachable")
		}, testConsole(), testLogger())
		tr.now = func() time.Time { return fixedNow }

		s := tr.Snapshot(context.Background())
		if s.Remaining != 5000 || s.Limit != 5000 {
			t.Fatalf("expected permissive 5000/5000 default, got %+v", s)
		}
	})
}

func TestRecommendDelay(t *testing.T) {
	tr := NewQuotaTracker(nil, testConsole(), testLogger())

	cases := []struct {
		remaining int
		want      time.Duration
	}{
		{5000, 0},
		{50, 0},
		{49, 50 * time.Millisecond},
		{10, 2000 * time.Millisecond},
		{1, 2450 * time.Millisecond},
	}
	for _, tc := range cases {
		got := tr.RecommendDelay(Snapshot{Remaining: tc.remaining, Limit: 5000})
		if got != tc.want {
			t.Errorf("RecommendDelay(remaining=%d) = %v, want %v", tc.remaining, got, tc.want)
		}
	}
}

func TestWaitForReset(t *testing.T) {
	fixedNow := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("blocks until reset plus buffer when exhausted", func(t *testing.T) {
		tr := NewQuotaTracker(nil, testConsole(), testLogger())
		tr.now = func() time.Time { return fixedNow }

		var slept time.Duration
		tr.sleep = func(_ context.Context, d time.Duration) error {
			slept = d
			return nil
		}

		snap := Snapshot{Remaining: 0, Limit: 5000, ResetAt: fixedNow.Add(5 * time.Second)}
		if err := tr.WaitForReset(context.Background(), snap); err != nil {
			t.Fatalf("WaitForReset failed: %v", err)
		}
		if slept != 6*time.Second {
			t.Fatalf("expected 6s wait (reset + 1s buffer), got %v", slept)
		}
	})

	t.Run("no-op when quota remains", func(t *testing.T) {
		tr := NewQuotaTracker(nil, testConsole(), testLogger())
		tr.now = func() time.Time { return fixedNow }
		tr.sleep = func(_ context.Context, d time.Duration) error {
			t.Fatalf("unexpected sleep of %v", d)
			return nil
		}
		snap := Snapshot{Remaining: 1, Limit: 5000, ResetAt: fixedNow.Add(5 * time.Second)}
		if err := tr.WaitForReset(context.Background(), snap); err != nil {
			t.Fatalf("WaitForReset failed: %v", err)
		}
	})

	t.Run("reset already passed returns immediately", func(t *testing.T) {
		tr := NewQuotaTracker(nil, testConsole(), testLogger())
		tr.now = func() time.Time { return fixedNow }
		tr.sleep = func(_ context.Context, d time.Duration) error {
			t.Fatalf("unexpected sleep of %v", d)
			return nil
		}
		snap := Snapshot{Remaining: 0, Limit: 5000, ResetAt: fixedNow.Add(-2 * time.Second)}
		if err := tr.WaitForReset(context.Background(), snap); err != nil {
			t.Fatalf("WaitForReset failed: %v", err)
		}
	})
}
