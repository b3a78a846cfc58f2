package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"buildcheck/internal/cache"
)

var cacheClearOrg string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached repository listings",
	Long: `Manage the on-disk cache of repository listings. Entries expire after the
configured duration (default: one hour) and are keyed by organization and
listing kind (all repositories, or Jenkins repositories).`,
}

func cacheStore() (*cache.DiskCache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Caching.Directory, cfg.CacheTTL(), newLogger(verbose)), nil
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cache files",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := cacheStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		entries, err := store.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
			return
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"File", "Size", "Age", "Status"})
		for _, e := range entries {
			status := "fresh"
			if e.Expired {
				status = "expired"
			}
			table.Append([]string{
				e.Name,
				fmt.Sprintf("%d B", e.Size),
				time.Since(e.ModTime).Round(time.Second).String(),
				status,
			})
		}
		table.Render()
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cache files",
	Long:  `Remove cache files. With --org only that organization's entries go.`,
	Run: func(cmd *cobra.Command, args []string) {
		store, err := cacheStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		n, err := store.Clear(cacheClearOrg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache files\n", n)
	},
}

var cacheInspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Show the repositories stored in one cache file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, err := cacheStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		entry, repos, err := store.Inspect(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d repositories, written %s\n",
			entry.Name, len(repos), entry.ModTime.Format(time.RFC3339))
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Repository", "Default Branch", "Size"})
		for _, r := range repos {
			table.Append([]string{r.FullName, r.DefaultBranch, fmt.Sprintf("%d", r.Size)})
		}
		table.Render()
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInspectCmd)

	cacheClearCmd.Flags().StringVar(&cacheClearOrg, "org", "", "Only clear entries for this organization")
}
