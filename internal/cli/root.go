package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buildcheck/internal/config"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var (
	verbose    bool
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "buildcheck",
	Short: "Scan a GitHub organization for build tool, Java, and plugin versions",
	Long: `BuildCheck scans the repositories of a GitHub organization and reports which
Maven and Gradle versions they build with, which Java versions they target,
and which plugin versions their gradle.properties declare.

BuildCheck is read-only: it fetches configuration files over the GitHub API
and never mutates repository state. Repository listings are cached on disk so
repeated scans of the same organization stay cheap.

Examples:
	# Show available commands and global flags
	buildcheck --help

	# Scan a whole organization
	buildcheck scan --org my-org

	# Only repositories with Jenkinsfiles (much faster)
	buildcheck scan --org my-org --jenkins-only

	# Write a default configuration file
	buildcheck config init

	# Inspect the on-disk cache
	buildcheck cache list

Output:
	Commands write human-readable output to stdout. The scan command can also
	save JSON, CSV, and HTML reports (see buildcheck scan --help).`,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (prints every GitHub API call and quota state)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultFile, "Path to the YAML configuration file")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file when it exists; a missing default
// file is not an error, flags alone can drive a scan.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) && configFile == config.DefaultFile {
			return config.New(), nil
		}
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}
	return config.Load(configFile)
}
