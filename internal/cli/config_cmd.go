package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"buildcheck/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the BuildCheck configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default configuration file",
	Long: `Write a commented default configuration file. The target path comes from
the global --config flag (default: config.yaml). Refuses to overwrite an
existing file.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.WriteDefault(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configFile)
		fmt.Fprintln(cmd.OutOrStdout(), "Edit it to set your organization and exclusions, then run: buildcheck scan")
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying defaults and the config file.
Secrets are redacted.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cfg.Token != "" {
			cfg.Token = "<redacted>"
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
