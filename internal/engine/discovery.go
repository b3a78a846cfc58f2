// Package engine discovers repositories, schedules their analysis across a
// worker pool, and aggregates the findings into a report.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v66/github"

	"buildcheck/internal/cache"
	"buildcheck/internal/config"
	"buildcheck/internal/fetcher"
	gh "buildcheck/internal/github"
	"buildcheck/internal/output"
)

const (
	discoveryPageSize = 100

	// Repository names per search query when resolving metadata in bulk.
	metadataBatchSize = 25
)

// FilterStats counts what enumeration kept and why the rest was dropped.
// Archived and empty repositories are filtered before exclusions so each
// count has a single cause.
type FilterStats struct {
	Total    int
	Archived int
	Empty    int
	Excluded int
	Kept     int
}

// Enumerator lists the repositories a scan should cover. Listings go through
// the call gate and are cached on disk when caching is enabled.
type Enumerator struct {
	client   *gh.Client
	gate     *fetcher.CallGate
	store    *cache.DiskCache
	useCache bool
	cfg      *config.Config
	console  *output.Console
	logger   *log.Logger
}

func NewEnumerator(client *gh.Client, gate *fetcher.CallGate, store *cache.DiskCache, cfg *config.Config, console *output.Console, logger *log.Logger) *Enumerator {
	return &Enumerator{
		client:   client,
		gate:     gate,
		store:    store,
		useCache: cfg.Caching.Enabled,
		cfg:      cfg,
		console:  console,
		logger:   logger,
	}
}

func recordFromRepo(repo *github.Repository) cache.RepoRecord {
	return cache.RepoRecord{
		Name:          repo.GetName(),
		FullName:      repo.GetFullName(),
		DefaultBranch: repo.GetDefaultBranch(),
		Archived:      repo.GetArchived(),
		Size:          repo.GetSize(),
	}
}

// ListAll enumerates every repository of the organization and filters out
// archived, empty, and excluded ones. A fresh cache entry short-circuits the
// API walk entirely; the cached listing is already archived/empty filtered,
// so exclusions are re-applied on every run and config changes take effect
// without clearing the cache. A listing failure is reported on the console
// and yields whatever pages survived, never an error; only cancellation
// aborts. Partial listings are not cached.
func (e *Enumerator) ListAll(ctx context.Context, org string) ([]cache.RepoRecord, FilterStats, error) {
	if e.useCache {
		if cached, ok := e.store.Read(org, cache.KindAllRepos); ok {
			e.console.Infof("Using cached repository list for %s (%d repositories)", org, len(cached))
			kept, stats := e.applyExclusions(cached)
			return kept, stats, nil
		}
	}

	e.console.Infof("Fetching all repositories from %s...", org)

	var records []cache.RepoRecord
	stats := FilterStats{}
	partial := false
	opts := &github.RepositoryListByOrgOptions{
		ListOptions: github.ListOptions{PerPage: discoveryPageSize},
	}
	for page := 1; ; page++ {
		opts.Page = page
		var repos []*github.Repository
		err := e.gate.Execute(ctx, fmt.Sprintf("list repositories page %d", page), func(ctx context.Context) error {
			var err error
			repos, _, err = e.client.Client.Repositories.ListByOrg(ctx, org, opts)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, stats, ctx.Err()
			}
			e.console.Errorf("Error fetching repositories: %v", err)
			partial = true
			break
		}
		for _, repo := range repos {
			stats.Total++
			switch {
			case repo.GetArchived():
				stats.Archived++
				e.logger.Debug("skipping archived repository", "repo", repo.GetName())
			case repo.GetSize() == 0:
				stats.Empty++
				e.logger.Debug("skipping empty repository", "repo", repo.GetName())
			default:
				records = append(records, recordFromRepo(repo))
			}
		}
		if len(repos) < discoveryPageSize {
			break
		}
	}

	if e.useCache && !partial {
		if err := e.store.Write(org, cache.KindAllRepos, records); err != nil {
			e.console.Warnf("Warning: could not cache repository list: %v", err)
		}
	}

	kept, exclStats := e.applyExclusions(records)
	stats.Excluded = exclStats.Excluded
	stats.Kept = exclStats.Kept
	e.logger.Info("repository filtering summary",
		"total", stats.Total, "archived", stats.Archived,
		"empty", stats.Empty, "excluded", stats.Excluded, "kept", stats.Kept)
	return kept, stats, nil
}

// applyExclusions drops repositories the configuration excludes.
func (e *Enumerator) applyExclusions(records []cache.RepoRecord) ([]cache.RepoRecord, FilterStats) {
	stats := FilterStats{Total: len(records)}
	kept := make([]cache.RepoRecord, 0, len(records))
	for _, r := range records {
		if e.cfg.ShouldExclude(r.Name) {
			stats.Excluded++
			e.logger.Debug("skipping excluded repository", "repo", r.Name)
			continue
		}
		kept = append(kept, r)
	}
	stats.Kept = len(kept)
	return kept, stats
}

// ListJenkins finds repositories containing a Jenkinsfile via the code
// search API. One search walk replaces per-repo probing, which matters for
// large organizations. Search results repeat a repository once per matching
// file, so hits are deduplicated by name. The repository object embedded in
// a code-search hit is minimal (no archived or size fields), so full
// metadata is resolved in a second pass before the filters run. A search
// failure is reported on the console and yields whatever hits survived,
// never an error; only cancellation aborts.
func (e *Enumerator) ListJenkins(ctx context.Context, org string) ([]cache.RepoRecord, FilterStats, error) {
	if e.useCache {
		if cached, ok := e.store.Read(org, cache.KindJenkins); ok {
			e.console.Infof("Using cached Jenkins repository list for %s (%d repositories)", org, len(cached))
			kept, stats := e.applyJenkinsExclusions(cached)
			return kept, stats, nil
		}
	}

	e.console.Infof("Searching for repositories with Jenkinsfiles in %s...", org)

	query := fmt.Sprintf("org:%s filename:Jenkinsfile", org)
	seen := make(map[string]struct{})
	var names []string
	partial := false
	opts := &github.SearchOptions{ListOptions: github.ListOptions{PerPage: discoveryPageSize}}
	for page := 1; ; page++ {
		opts.Page = page
		var result *github.CodeSearchResult
		err := e.gate.Execute(ctx, fmt.Sprintf("search Jenkinsfiles page %d", page), func(ctx context.Context) error {
			var err error
			result, _, err = e.client.Client.Search.Code(ctx, query, opts)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, FilterStats{}, ctx.Err()
			}
			e.console.Errorf("Error searching repositories: %v", err)
			partial = true
			break
		}
		for _, item := range result.CodeResults {
			name := item.GetRepository().GetName()
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
		if len(result.CodeResults) < discoveryPageSize {
			break
		}
	}

	stats := FilterStats{}
	var records []cache.RepoRecord
	for _, rec := range e.resolveMetadata(ctx, org, names) {
		stats.Total++
		switch {
		case rec.Archived:
			stats.Archived++
			e.logger.Debug("skipping archived repository", "repo", rec.Name)
		case rec.Size == 0:
			stats.Empty++
			e.logger.Debug("skipping empty repository", "repo", rec.Name)
		default:
			records = append(records, rec)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	if len(records) == 0 {
		e.console.Warnf("No repositories with Jenkinsfiles found")
	} else {
		e.console.Successf("Found %d repositories with Jenkinsfiles", len(records))
	}

	if e.useCache && !partial {
		if err := e.store.Write(org, cache.KindJenkins, records); err != nil {
			e.console.Warnf("Warning: could not cache Jenkins repository list: %v", err)
		}
	}

	kept, exclStats := e.applyJenkinsExclusions(records)
	stats.Excluded = exclStats.Excluded
	stats.Kept = exclStats.Kept
	return kept, stats, nil
}

// resolveMetadata turns repository names from code-search hits into full
// records. When the optimized mode is on, names are batched into repository
// search queries so one call covers up to metadataBatchSize repositories;
// names the batches miss (and all names otherwise) cost one Get each. A
// failed lookup drops that repository with a warning. Output preserves the
// input order.
func (e *Enumerator) resolveMetadata(ctx context.Context, org string, names []string) []cache.RepoRecord {
	resolved := make(map[string]cache.RepoRecord, len(names))

	if e.cfg.Parallelism.Optimized {
		for start := 0; start < len(names); start += metadataBatchSize {
			end := start + metadataBatchSize
			if end > len(names) {
				end = len(names)
			}
			qualifiers := make([]string, 0, end-start)
			for _, name := range names[start:end] {
				qualifiers = append(qualifiers, "repo:"+org+"/"+name)
			}
			var result *github.RepositoriesSearchResult
			err := e.gate.Execute(ctx, fmt.Sprintf("resolve metadata batch %d", start/metadataBatchSize+1), func(ctx context.Context) error {
				var err error
				result, _, err = e.client.Client.Search.Repositories(ctx, strings.Join(qualifiers, " "),
					&github.SearchOptions{ListOptions: github.ListOptions{PerPage: discoveryPageSize}})
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				e.logger.Debug("metadata batch failed, falling back to per-repository lookups", "error", err)
				continue
			}
			for _, repo := range result.Repositories {
				resolved[repo.GetName()] = recordFromRepo(repo)
			}
		}
	}

	out := make([]cache.RepoRecord, 0, len(names))
	for _, name := range names {
		if rec, ok := resolved[name]; ok {
			out = append(out, rec)
			continue
		}
		var repo *github.Repository
		err := e.gate.Execute(ctx, "get repository "+name, func(ctx context.Context) error {
			var err error
			repo, _, err = e.client.Client.Repositories.Get(ctx, org, name)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return out
			}
			e.console.Warnf("Warning: could not resolve metadata for %s: %v", name, err)
			continue
		}
		out = append(out, recordFromRepo(repo))
	}
	return out
}

func (e *Enumerator) applyJenkinsExclusions(records []cache.RepoRecord) ([]cache.RepoRecord, FilterStats) {
	if !e.cfg.Exclusions.ApplyToJenkinsSearch {
		return records, FilterStats{Total: len(records), Kept: len(records)}
	}
	return e.applyExclusions(records)
}

// GetOne resolves a single repository by name. A missing repository or a
// failed lookup is reported and returns nil without an error so the run can
// finish cleanly; an archived one is analyzed anyway with a warning.
func (e *Enumerator) GetOne(ctx context.Context, org, name string) (*cache.RepoRecord, error) {
	e.console.Infof("Fetching repository: %s", name)

	var repo *github.Repository
	err := e.gate.Execute(ctx, "get repository "+name, func(ctx context.Context) error {
		var err error
		var resp *github.Response
		repo, resp, err = e.client.Client.Repositories.Get(ctx, org, name)
		if err != nil && resp != nil && resp.StatusCode == 404 {
			repo = nil
			return nil
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.console.Errorf("Error accessing repository %s: %v", name, err)
		return nil, nil
	}
	if repo == nil {
		e.console.Errorf("Repository %s not found in organization %s", name, org)
		return nil, nil
	}
	if repo.GetArchived() {
		e.console.Warnf("Warning: repository %s is archived", name)
	}
	rec := recordFromRepo(repo)
	return &rec, nil
}
