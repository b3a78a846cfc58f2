package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"buildcheck/internal/analyze"
	"buildcheck/internal/cache"
)

func repoBatch(n int) []cache.RepoRecord {
	repos := make([]cache.RepoRecord, n)
	for i := range repos {
		repos[i] = cache.RepoRecord{Name: fmt.Sprintf("repo-%02d", i), DefaultBranch: "main", Size: 1}
	}
	return repos
}

func TestSchedulerRunsEveryRepo(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)

	sched, err := NewScheduler(4, func(ctx context.Context, repo cache.RepoRecord) RepoResult {
		mu.Lock()
		seen[repo.Name] = true
		mu.Unlock()
		return RepoResult{Repo: repo}
	})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	count := 0
	for range sched.Run(context.Background(), repoBatch(25)) {
		count++
	}
	if count != 25 || len(seen) != 25 {
		t.Fatalf("expected 25 results for 25 repos, got %d results, %d scanned", count, len(seen))
	}
}

func TestSchedulerBoundsConcurrency(t *testing.T) {
	const workers = 3
	var active, peak atomic.Int64

	sched, err := NewScheduler(workers, func(ctx context.Context, repo cache.RepoRecord) RepoResult {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		defer active.Add(-1)
		return RepoResult{Repo: repo}
	})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	for range sched.Run(context.Background(), repoBatch(40)) {
	}
	if got := peak.Load(); got > workers {
		t.Fatalf("observed %d concurrent scans with %d workers", got, workers)
	}
}

func TestSchedulerIsolatesFailures(t *testing.T) {
	failing := errors.New("clone truncated")

	sched, err := NewScheduler(4, func(ctx context.Context, repo cache.RepoRecord) RepoResult {
		switch repo.Name {
		case "repo-03":
			return RepoResult{Repo: repo, Err: failing}
		case "repo-07":
			panic("malformed pom")
		default:
			return RepoResult{
				Repo:       repo,
				BuildTools: []analyze.BuildToolFact{{Tool: "maven", Version: "3.9.6", Repository: repo.Name}},
			}
		}
	})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	var ok, failed int
	for res := range sched.Run(context.Background(), repoBatch(10)) {
		if res.Err != nil {
			failed++
			continue
		}
		ok++
	}
	// One error, one panic, eight clean scans; every repo still reports.
	if failed != 2 || ok != 8 {
		t.Fatalf("expected 8 ok / 2 failed, got %d / %d", ok, failed)
	}
}

func TestSchedulerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{}, 100)
	sched, err := NewScheduler(2, func(ctx context.Context, repo cache.RepoRecord) RepoResult {
		started <- struct{}{}
		<-ctx.Done()
		return RepoResult{Repo: repo}
	})
	if err != nil {
		t.Fatalf("NewScheduler failed: %v", err)
	}

	results := sched.Run(ctx, repoBatch(50))
	<-started
	cancel()

	count := 0
	for range results {
		count++
	}
	if count >= 50 {
		t.Fatalf("expected an early stop, got %d results", count)
	}
}

func TestNewSchedulerValidation(t *testing.T) {
	if _, err := NewScheduler(0, func(context.Context, cache.RepoRecord) RepoResult { return RepoResult{} }); err == nil {
		t.Error("expected error for zero workers")
	}
	if _, err := NewScheduler(4, nil); err == nil {
		t.Error("expected error for nil scan func")
	}
}
