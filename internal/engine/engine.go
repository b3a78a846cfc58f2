package engine

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"buildcheck/internal/analyze"
	"buildcheck/internal/cache"
	"buildcheck/internal/config"
	"buildcheck/internal/fetcher"
	gh "buildcheck/internal/github"
	"buildcheck/internal/output"
)

// Analysis modes as they appear in reports.
const (
	ModeFull    = "full_analysis"
	ModeJenkins = "jenkins_only"
	ModeSingle  = "single_repository"
)

// Engine runs one scan end to end: quota setup, discovery, parallel
// analysis, aggregation.
type Engine struct {
	cfg     *config.Config
	client  *gh.Client
	quota   *fetcher.QuotaTracker
	gate    *fetcher.CallGate
	content *fetcher.ContentFetcher
	enum    *Enumerator
	console *output.Console
	logger  *log.Logger
}

func New(cfg *config.Config, client *gh.Client, console *output.Console, logger *log.Logger) *Engine {
	quota := fetcher.NewQuotaTracker(fetcher.QuotaFromClient(client), console, logger)
	gate := fetcher.NewCallGate(quota, cfg.Delay(), console, logger)
	store := cache.New(cfg.Caching.Directory, cfg.CacheTTL(), logger)
	return &Engine{
		cfg:     cfg,
		client:  client,
		quota:   quota,
		gate:    gate,
		content: fetcher.NewContentFetcher(client, gate, logger),
		enum:    NewEnumerator(client, gate, store, cfg, console, logger),
		console: console,
		logger:  logger,
	}
}

// Mode returns the analysis mode the configuration selects.
func (e *Engine) Mode() string {
	switch {
	case e.cfg.Analysis.SingleRepository != "":
		return ModeSingle
	case e.cfg.Analysis.JenkinsOnly:
		return ModeJenkins
	default:
		return ModeFull
	}
}

// Run executes the scan and returns the aggregated report. Individual
// repository and enumeration failures are reported and skipped, so the final
// summary always renders; only cancellation aborts the run.
func (e *Engine) Run(ctx context.Context) (*output.Report, error) {
	org := e.cfg.Organization
	mode := e.Mode()

	snap := e.quota.Snapshot(ctx)
	e.console.Infof("API rate limit: %d/%d requests remaining", snap.Remaining, snap.Limit)

	if e.cfg.Parallelism.Optimized && mode != ModeSingle {
		if size, err := e.enum.EstimateOrgSize(ctx, org); err != nil {
			e.console.Warnf("Warning: could not estimate organization size: %v", err)
		} else {
			Predict(size, mode == ModeJenkins, snap.Remaining, e.cfg.Delay()).Render(e.console)
		}
	}

	repos, stats, err := e.discover(ctx, org, mode)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		e.console.Warnf("No repositories to analyze")
		return e.report(ctx, mode, nil, 0), nil
	}
	if stats.Archived+stats.Empty+stats.Excluded > 0 {
		e.console.Dimf("Filtered out %d archived, %d empty, %d excluded repositories",
			stats.Archived, stats.Empty, stats.Excluded)
	}
	e.console.Successf("Found %d repositories for analysis", len(repos))

	sched, err := NewScheduler(e.cfg.Parallelism.MaxWorkers, e.scanRepo)
	if err != nil {
		return nil, err
	}
	e.console.Infof("Analyzing %d repositories with %d parallel workers...", len(repos), e.cfg.Parallelism.MaxWorkers)

	var results []RepoResult
	analyzed := 0
	for res := range sched.Run(ctx, repos) {
		analyzed++
		if res.Err != nil {
			e.console.Warnf("Warning: could not analyze %s: %v", res.Repo.Name, res.Err)
			continue
		}
		results = append(results, res)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return e.report(ctx, mode, results, analyzed), nil
}

func (e *Engine) discover(ctx context.Context, org, mode string) ([]cache.RepoRecord, FilterStats, error) {
	switch mode {
	case ModeSingle:
		rec, err := e.enum.GetOne(ctx, org, e.cfg.Analysis.SingleRepository)
		if err != nil || rec == nil {
			return nil, FilterStats{}, err
		}
		return []cache.RepoRecord{*rec}, FilterStats{Total: 1, Kept: 1}, nil
	case ModeJenkins:
		return e.enum.ListJenkins(ctx, org)
	default:
		return e.enum.ListAll(ctx, org)
	}
}

func (e *Engine) scanRepo(ctx context.Context, repo cache.RepoRecord) RepoResult {
	res := RepoResult{Repo: repo}
	org := e.cfg.Organization
	branch := repo.DefaultBranch

	e.logger.Debug("starting repository analysis", "repo", repo.Name, "branch", branch)

	for _, spec := range analyze.BuildTools {
		for _, file := range spec.Files {
			content, ok := e.content.Fetch(ctx, org, repo.Name, branch, file)
			if !ok {
				continue
			}
			version := analyze.ExtractVersion(content, spec.Patterns)
			if version == "" {
				continue
			}
			e.logger.Info("found build tool version", "repo", repo.Name, "tool", spec.Name, "version", version, "file", file)
			res.BuildTools = append(res.BuildTools, analyze.BuildToolFact{
				Tool:            spec.Name,
				Version:         version,
				FilePath:        file,
				Repository:      repo.Name,
				Branch:          branch,
				DetectionMethod: fmt.Sprintf("Found in %s", file),
			})
			break
		}
	}

	for _, spec := range analyze.JavaSpecs {
		for _, file := range spec.Files {
			content, ok := e.content.Fetch(ctx, org, repo.Name, branch, file)
			if !ok {
				continue
			}
			if fact := analyze.ExtractJava(content, spec, file, repo.Name, branch); fact != nil {
				e.logger.Info("found Java version", "repo", repo.Name, "version", fact.Version, "file", file)
				res.JavaFacts = append(res.JavaFacts, *fact)
				break
			}
		}
	}

	for _, spec := range analyze.PluginSpecs {
		for _, file := range spec.Files {
			content, ok := e.content.Fetch(ctx, org, repo.Name, branch, file)
			if !ok {
				continue
			}
			if fact := analyze.ExtractPlugin(content, spec, file, repo.Name, branch); fact != nil {
				e.logger.Info("found plugin version", "repo", repo.Name, "plugin", fact.PluginName, "version", fact.Version)
				res.PluginFacts = append(res.PluginFacts, *fact)
				break
			}
		}
	}

	if e.cfg.Analysis.JenkinsOnly {
		if jf, ok := e.content.FetchFirst(ctx, org, repo.Name, branch, []string{"Jenkinsfile", "jenkinsfile"}); ok {
			pipeline := analyze.AnalyzeJenkinsfile(jf.Text, repo.Name)
			res.Pipeline = &pipeline
		}
	}

	e.logger.Debug("completed repository analysis", "repo", repo.Name,
		"build_tools", len(res.BuildTools), "java_versions", len(res.JavaFacts), "plugins", len(res.PluginFacts))
	return res
}

func (e *Engine) report(ctx context.Context, mode string, results []RepoResult, analyzed int) *output.Report {
	rep := &output.Report{
		Organization:     e.cfg.Organization,
		TargetRepository: e.cfg.Analysis.SingleRepository,
		Mode:             mode,
		ReposAnalyzed:    analyzed,
		APICalls:         e.gate.Calls(),
		Workers:          e.cfg.Parallelism.MaxWorkers,
	}
	for _, res := range results {
		rep.BuildTools = append(rep.BuildTools, res.BuildTools...)
		rep.JavaVersions = append(rep.JavaVersions, res.JavaFacts...)
		rep.PluginVersions = append(rep.PluginVersions, res.PluginFacts...)
		if res.Pipeline != nil {
			rep.Pipelines = append(rep.Pipelines, *res.Pipeline)
		}
	}

	snap := e.quota.Snapshot(ctx)
	rep.QuotaRemaining = snap.Remaining
	rep.QuotaLimit = snap.Limit
	return rep
}
