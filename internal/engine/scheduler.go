package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"buildcheck/internal/analyze"
	"buildcheck/internal/cache"
)

// RepoResult carries everything one repository's analysis produced. Err is
// set when the scan of that repository failed or panicked; failures never
// stop the run.
type RepoResult struct {
	Repo        cache.RepoRecord
	BuildTools  []analyze.BuildToolFact
	JavaFacts   []analyze.JavaFact
	PluginFacts []analyze.PluginFact
	Pipeline    *analyze.JenkinsPipeline
	Err         error
}

// ScanFunc analyzes one repository.
type ScanFunc func(ctx context.Context, repo cache.RepoRecord) RepoResult

// Scheduler fans repository scans out over a bounded worker pool and streams
// results back in completion order.
type Scheduler struct {
	workers int
	scan    ScanFunc
}

func NewScheduler(workers int, scan ScanFunc) (*Scheduler, error) {
	if scan == nil {
		return nil, errors.New("scan func is nil")
	}
	if workers <= 0 {
		return nil, fmt.Errorf("workers must be >= 1, got %d", workers)
	}
	return &Scheduler{workers: workers, scan: scan}, nil
}

// Run streams one RepoResult per repository. On cancellation it stops
// scheduling promptly and may emit fewer results; the channel is always
// closed. A panicking scan is converted into that repository's Err so a
// single bad repository cannot take down its siblings.
func (s *Scheduler) Run(ctx context.Context, repos []cache.RepoRecord) <-chan RepoResult {
	results := make(chan RepoResult)

	go func() {
		defer close(results)

		sem := make(chan struct{}, s.workers)
		var wg sync.WaitGroup

	scheduleLoop:
		for _, repo := range repos {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break scheduleLoop
			}

			wg.Add(1)
			go func(repo cache.RepoRecord) {
				defer wg.Done()
				defer func() { <-sem }()

				res := s.scanOne(ctx, repo)
				select {
				case results <- res:
				case <-ctx.Done():
				}
			}(repo)
		}

		wg.Wait()
	}()

	return results
}

func (s *Scheduler) scanOne(ctx context.Context, repo cache.RepoRecord) (res RepoResult) {
	defer func() {
		if r := recover(); r != nil {
			res = RepoResult{Repo: repo, Err: fmt.Errorf("scan panicked: %v", r)}
		}
	}()
	return s.scan(ctx, repo)
}
