package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sumwatch/sumwatch/internal/userconfig"
)

// configKeys documents the settable keys for help output.
var configKeys = []struct{ key, desc string }{
	{"diversity_filter", "Reject low-entropy digest candidates (true/false)"},
	{"verify_all_algorithms", "Compute every algorithm instead of stopping at the first match (true/false)"},
	{"chunk_size_bytes", "Verifier read size in bytes"},
	{"scan_settle_delay_ms", "Delay before scanning a fetched page, in milliseconds"},
	{"risky_extensions", "Comma-separated download-link extension allow-list"},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sumwatch configuration",
	Long: `Manage sumwatch configuration settings.

Configuration is stored in ~/.sumwatch/config.toml.

Examples:
  sumwatch config get diversity_filter
  sumwatch config set verify_all_algorithms true`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]

		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitError)
		}

		value, err := cfg.Get(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitError)
		}

		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := args[1]

		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitError)
		}

		if err := cfg.Set(key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			fmt.Fprintf(os.Stderr, "\nAvailable keys:\n")
			printAvailableKeys()
			exitWithCode(ExitError)
		}

		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			exitWithCode(ExitError)
		}

		fmt.Printf("%s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration values",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := userconfig.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exitWithCode(ExitError)
		}

		for _, k := range configKeys {
			value, err := cfg.Get(k.key)
			if err != nil {
				continue
			}
			fmt.Printf("%s = %s\n", k.key, value)
		}
	},
}

func printAvailableKeys() {
	for _, k := range configKeys {
		fmt.Fprintf(os.Stderr, "  %-22s %s\n", k.key, k.desc)
	}
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
}
