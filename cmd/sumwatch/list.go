package main

import (
	"github.com/spf13/cobra"
)

var listJSONFlag bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked downloads awaiting verification",
	Run: func(cmd *cobra.Command, args []string) {
		store, _ := openStore()

		entries, err := store.List()
		if err != nil {
			printError(err)
			exitWithCode(ExitError)
		}

		if listJSONFlag {
			printJSON(entries)
			return
		}

		if len(entries) == 0 {
			printInfo("No tracked downloads.")
			return
		}

		for _, e := range entries {
			status := "pending"
			if e.Completed {
				status = "completed"
			}
			printInfof("%s  %-9s  %s\n", e.ID, status, e.SourceURL)
			if e.Path != "" {
				printInfof("%36s  file: %s\n", "", e.Path)
			}
		}
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSONFlag, "json", false, "Output as JSON")
}
