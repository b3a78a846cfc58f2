package fetcher

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	gh "buildcheck/internal/github"
	"buildcheck/internal/output"
)

const (
	// snapshotMaxAge is how long a rate-limit snapshot is trusted before
	// the tracker refreshes it from the API.
	snapshotMaxAge = 30 * time.Second

	// lowWatermark is the remaining-call count under which extra delay is
	// applied: (lowWatermark - remaining) * perCallPenalty per call.
	lowWatermark   = 50
	perCallPenalty = 50 * time.Millisecond

	// resetBuffer pads the wait past the advertised reset time.
	resetBuffer = time.Second

	// permissiveLimit is assumed when the quota endpoint has never been
	// reachable. GitHub grants 5000 core calls per hour to authenticated
	// clients.
	permissiveLimit = 5000
)

// Snapshot is one observation of the remote rate limit. It is replaced
// wholesale on refresh and read-only everywhere else.
type Snapshot struct {
	Remaining int
	Limit     int
	ResetAt   time.Time
}

// RefreshFunc fetches a fresh Snapshot from the remote API.
type RefreshFunc func(ctx context.Context) (Snapshot, error)

// QuotaFromClient builds a RefreshFunc over the GitHub rate-limit endpoint.
func QuotaFromClient(client *gh.Client) RefreshFunc {
	return func(ctx context.Context) (Snapshot, error) {
		limits, _, err := client.Client.RateLimit.Get(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		core := limits.GetCore()
		return Snapshot{
			Remaining: core.Remaining,
			Limit:     core.Limit,
			ResetAt:   core.Reset.Time,
		}, nil
	}
}

// QuotaTracker owns the cached rate-limit snapshot. Safe for concurrent
// use; refreshes are deduplicated across workers.
type QuotaTracker struct {
	mu        sync.Mutex
	refresh   RefreshFunc
	group     singleflight.Group
	snap      Snapshot
	fetchedAt time.Time
	have      bool

	console *output.Console
	logger  *log.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewQuotaTracker(refresh RefreshFunc, console *output.Console, logger *log.Logger) *QuotaTracker {
	return &QuotaTracker{
		refresh: refresh,
		console: console,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Snapshot returns the cached snapshot, refreshing it from the API only if
// it is older than 30 seconds or absent. A refresh failure is never fatal:
// the previous snapshot is returned unchanged, or a permissive default if
// none exists yet.
func (t *QuotaTracker) Snapshot(ctx context.Context) Snapshot {
	t.mu.Lock()
	if t.have && t.now().Sub(t.fetchedAt) < snapshotMaxAge {
		snap := t.snap
		t.mu.Unlock()
		return snap
	}
	t.mu.Unlock()

	v, err, _ := t.group.Do("quota", func() (any, error) {
		snap, err := t.refresh(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		t.mu.Lock()
		t.snap = snap
		t.fetchedAt = t.now()
		t.have = true
		t.mu.Unlock()
		t.logger.Debug("rate limit refreshed",
			"remaining", snap.Remaining, "limit", snap.Limit, "reset", snap.ResetAt.Format(time.DateTime))
		return snap, nil
	})
	if err != nil {
		t.console.Warnf("Warning: Could not check rate limit: %v", err)
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.have {
			return t.snap
		}
		return Snapshot{Remaining: permissiveLimit, Limit: permissiveLimit, ResetAt: t.now().Add(time.Hour)}
	}
	return v.(Snapshot)
}

// Cached returns the last snapshot without triggering a refresh.
func (t *QuotaTracker) Cached() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap, t.have
}

// RecommendDelay returns the extra backoff to apply before a call when the
// remaining quota is low: 50ms for every call under the 50-call watermark.
func (t *QuotaTracker) RecommendDelay(s Snapshot) time.Duration {
	if s.Remaining >= lowWatermark {
		return 0
	}
	return time.Duration(lowWatermark-s.Remaining) * perCallPenalty
}

// WaitForReset blocks until one second past the advertised reset time when
// the quota is exhausted. A no-op otherwise.
func (t *QuotaTracker) WaitForReset(ctx context.Context, s Snapshot) error {
	if s.Remaining != 0 {
		return nil
	}
	wait := s.ResetAt.Sub(t.now()) + resetBuffer
	if wait <= 0 {
		return nil
	}
	t.console.Errorf("Rate limit exceeded. Waiting %d seconds until reset...", int(wait.Seconds()))
	t.logger.Warn("rate limit exhausted", "wait", wait.Truncate(time.Second))
	return t.sleep(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
