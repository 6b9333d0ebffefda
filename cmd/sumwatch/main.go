package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sumwatch/sumwatch/internal/log"
)

// Version is the current version of sumwatch
var Version = "0.1.0"

// Global flags shared by all commands.
var (
	quietFlag   bool
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "sumwatch",
	Short: "Scan pages for checksums and verify downloads against them",
	Long: `sumwatch scrapes download pages for published checksums and verifies
downloaded files against them.

The scanner pulls hex digest candidates, algorithm mentions, and
download links out of a page. The verifier streams a file through the
declared hash algorithms in fixed-size chunks and reports whether any
computed digest matches a scraped value.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// setupLogging installs a structured logger on stderr. Without
// --verbose only warnings and errors surface; command output itself
// goes through the print helpers, not the logger.
func setupLogging() {
	level := slog.LevelWarn
	if verboseFlag {
		level = slog.LevelDebug
	}
	if quietFlag {
		level = slog.LevelError
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	log.SetDefault(log.New(h))
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress informational output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitError)
	}
}
