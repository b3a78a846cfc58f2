package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"buildcheck/internal/cache"
	"buildcheck/internal/config"
	"buildcheck/internal/engine"
	gh "buildcheck/internal/github"
	"buildcheck/internal/output"
)

var scanFlags struct {
	org            string
	repo           string
	token          string
	jenkinsOnly    bool
	rateLimitDelay float64
	maxWorkers     int
	useCache       bool
	cacheDir       string
	clearCache     bool
	optimized      bool
	jsonOut        string
	csvOut         string
	htmlOut        string
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze an organization's repositories for build tool versions",
	Long: `Scan the repositories of a GitHub organization and report the Maven and
Gradle versions they build with, the Java versions they target, and the
plugin versions declared in gradle.properties.

Detection checks files in order of reliability: wrapper properties first
(the distribution URL names the exact version), then build files, then the
Jenkinsfile tool configuration. The first file that yields a version wins
per tool.

Authentication:
  BuildCheck uses a GitHub access token. Precedence: --token flag, then the
  GITHUB_TOKEN environment variable, then the config file, then GitHub CLI
  authentication (gh auth token).

Rate limiting:
  All API calls go through a shared gate that spaces calls, checks the
  remaining quota every tenth call, backs off when it runs low, and blocks
  until the reset when it is exhausted. A scan slows down near the limit
  instead of failing.

Examples:
  # Full organization scan
  export GITHUB_TOKEN="<your_token>"
  buildcheck scan --org my-org

  # Only repositories with Jenkinsfiles (much faster)
  buildcheck scan --org my-org --jenkins-only

  # One repository, with a JSON report
  buildcheck scan --org my-org --repo my-service -o report.json

  # Fresh listing, bypassing the cache
  buildcheck scan --org my-org --clear-cache
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		applyScanFlags(cmd, cfg)

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		console := output.NewConsole(nil, nil)
		logger := newLogger(verbose || cfg.Output.Verbose)
		ctx := context.Background()

		if scanFlags.clearCache {
			store := cache.New(cfg.Caching.Directory, cfg.CacheTTL(), logger)
			n, err := store.Clear(cfg.Organization)
			if err != nil {
				console.Warnf("Warning: could not clear cache: %v", err)
			} else if n > 0 {
				console.Infof("Cleared %d cache files for %s", n, cfg.Organization)
			}
		}

		token, source, err := gh.ResolveToken(ctx, scanFlags.token, cfg.Token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to resolve GitHub token: %v\n", err)
			os.Exit(1)
		}
		if strings.TrimSpace(token) == "" {
			fmt.Fprintln(os.Stderr, "Error: a GitHub token is required (set GITHUB_TOKEN, use --token, or run 'gh auth login')")
			os.Exit(1)
		}
		logger.Debug("resolved GitHub token", "source", source)

		client, err := gh.NewClient(ctx, token, gh.WithVerbose(verbose || cfg.Output.Verbose, nil))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create GitHub client: %v\n", err)
			os.Exit(1)
		}

		start := time.Now()
		report, err := engine.New(cfg, client, console, logger).Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		report.Render(console)
		console.Dimf("Completed in %s", time.Since(start).Round(time.Second))

		saveReports(cfg, report, console)
	},
}

// applyScanFlags lets command-line flags override the config file. Only
// flags the user actually set are applied.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	if scanFlags.org != "" {
		cfg.Organization = scanFlags.org
	}
	if scanFlags.repo != "" {
		cfg.Analysis.SingleRepository = scanFlags.repo
	}
	if cmd.Flags().Changed("jenkins-only") {
		cfg.Analysis.JenkinsOnly = scanFlags.jenkinsOnly
	}
	if cmd.Flags().Changed("rate-limit-delay") {
		cfg.Parallelism.RateLimitDelay = scanFlags.rateLimitDelay
	}
	if cmd.Flags().Changed("max-workers") {
		cfg.Parallelism.MaxWorkers = scanFlags.maxWorkers
	}
	if cmd.Flags().Changed("use-cache") {
		cfg.Caching.Enabled = scanFlags.useCache
	}
	if cmd.Flags().Changed("cache-dir") {
		cfg.Caching.Directory = scanFlags.cacheDir
	}
	if cmd.Flags().Changed("optimized") {
		cfg.Parallelism.Optimized = scanFlags.optimized
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.JSONReport = scanFlags.jsonOut
	}
	if cmd.Flags().Changed("csv") {
		cfg.Output.CSVReport = scanFlags.csvOut
	}
	if cmd.Flags().Changed("html") {
		cfg.Output.HTMLReport = scanFlags.htmlOut
	}
}

// saveReports writes whichever structured reports the configuration asks
// for. A failed write is reported and does not fail the scan.
func saveReports(cfg *config.Config, report *output.Report, console *output.Console) {
	if cfg.Output.JSONReport != "" {
		if err := report.WriteJSON(cfg.Output.JSONReport); err != nil {
			console.Errorf("Error: %v", err)
		} else {
			console.Successf("JSON report saved to: %s", cfg.Output.JSONReport)
		}
	}
	if cfg.Output.CSVReport != "" {
		if err := report.WriteCSV(cfg.Output.CSVReport); err != nil {
			console.Errorf("Error: %v", err)
		} else {
			console.Successf("CSV report saved to: %s", cfg.Output.CSVReport)
		}
	}
	if cfg.Output.HTMLReport != "" {
		if err := report.WriteHTML(cfg.Output.HTMLReport); err != nil {
			console.Errorf("Error: %v", err)
		} else {
			console.Successf("HTML report saved to: %s", cfg.Output.HTMLReport)
		}
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFlags.org, "org", "", "GitHub organization name")
	scanCmd.Flags().StringVar(&scanFlags.repo, "repo", "", "Analyze a single repository instead of the whole organization")
	scanCmd.Flags().StringVar(&scanFlags.token, "token", "", "GitHub access token (overrides GITHUB_TOKEN and the config file)")
	scanCmd.Flags().BoolVar(&scanFlags.jenkinsOnly, "jenkins-only", false, "Only analyze repositories with Jenkinsfiles (much faster)")
	scanCmd.Flags().Float64Var(&scanFlags.rateLimitDelay, "rate-limit-delay", 0.05, "Delay between API calls in seconds")
	scanCmd.Flags().IntVar(&scanFlags.maxWorkers, "max-workers", 8, "Parallel workers (1-16)")
	scanCmd.Flags().BoolVar(&scanFlags.useCache, "use-cache", true, "Cache repository listings on disk")
	scanCmd.Flags().StringVar(&scanFlags.cacheDir, "cache-dir", ".cache", "Directory for cache files")
	scanCmd.Flags().BoolVar(&scanFlags.clearCache, "clear-cache", false, "Clear the organization's cache entries before scanning")
	scanCmd.Flags().BoolVar(&scanFlags.optimized, "optimized", false, "Print an API usage prediction before scanning")
	scanCmd.Flags().StringVarP(&scanFlags.jsonOut, "output", "o", "", "Write a JSON report to this path")
	scanCmd.Flags().StringVar(&scanFlags.csvOut, "csv", "", "Write a CSV report to this path")
	scanCmd.Flags().StringVar(&scanFlags.htmlOut, "html", "", "Write an HTML report to this path")
}
