package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sumwatch/sumwatch/internal/config"
	"github.com/sumwatch/sumwatch/internal/track"
	"github.com/sumwatch/sumwatch/internal/userconfig"
)

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...interface{}) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...interface{}) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitError)
	}
}

// printError prints an error to stderr
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// openStore resolves the home directory and returns the tracking store
// plus the user policy settings. Commands that cannot proceed without
// them exit instead of limping on.
func openStore() (*track.Store, *userconfig.Config) {
	cfg, err := config.DefaultConfig()
	if err != nil {
		printError(err)
		exitWithCode(ExitError)
	}

	ucfg, err := userconfig.Load()
	if err != nil {
		printError(err)
		exitWithCode(ExitError)
	}

	return track.NewStore(cfg.StateFile), ucfg
}
