package fetcher

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"buildcheck/internal/output"
)

// quotaCheckInterval bounds quota-refresh overhead: the full check sequence
// runs on the 1st call and every 10th after that, not on every call.
const quotaCheckInterval = 10

// CallGate wraps every outbound API request. It counts calls, throttles
// based on the tracked quota, and spaces consecutive calls by a fixed
// delay. Safe for concurrent use from scan workers.
type CallGate struct {
	quota   *QuotaTracker
	delay   time.Duration
	calls   atomic.Int64
	console *output.Console
	logger  *log.Logger

	sleep func(context.Context, time.Duration) error
}

func NewCallGate(quota *QuotaTracker, delay time.Duration, console *output.Console, logger *log.Logger) *CallGate {
	return &CallGate{
		quota:   quota,
		delay:   delay,
		console: console,
		logger:  logger,
		sleep:   sleepCtx,
	}
}

// Calls returns the number of calls attempted so far. Monotonic; never
// reset during a process lifetime.
func (g *CallGate) Calls() int64 {
	return g.calls.Load()
}

// Execute runs one outbound call. The sequence is: count the call, check
// quota every 10th call (refresh-if-stale, extra delay when low, block
// until reset when exhausted), apply the fixed inter-call delay (skipped
// for the very first call), then invoke the call. Transport errors are
// returned for the caller to treat as soft no-data results; Execute itself
// fails only on context cancellation during a throttle wait.
func (g *CallGate) Execute(ctx context.Context, description string, call func(ctx context.Context) error) error {
	n := g.calls.Add(1)

	if (n-1)%quotaCheckInterval == 0 {
		snap := g.quota.Snapshot(ctx)
		if extra := g.quota.RecommendDelay(snap); extra > 0 {
			g.console.Warnf("Rate limit warning: %d requests remaining", snap.Remaining)
			g.logger.Warn("low quota, backing off", "remaining", snap.Remaining, "extra_delay", extra)
			if err := g.sleep(ctx, extra); err != nil {
				return err
			}
		}
		if err := g.quota.WaitForReset(ctx, snap); err != nil {
			return err
		}
	}

	if n > 1 && g.delay > 0 {
		if err := g.sleep(ctx, g.delay); err != nil {
			return err
		}
	}

	if snap, ok := g.quota.Cached(); ok {
		g.logger.Debug("api call", "n", n, "call", description,
			"remaining", snap.Remaining, "limit", snap.Limit)
	} else {
		g.logger.Debug("api call", "n", n, "call", description)
	}

	return call(ctx)
}
