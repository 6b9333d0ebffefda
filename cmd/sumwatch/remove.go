package main

import (
	"os"

	"github.com/spf13/cobra"
)

var removeKeepFileFlag bool

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete a tracked download and its file",
	Long: `Delete the file behind a tracked download, when its path is known,
and drop the tracking entry. Use --keep-file to drop only the entry.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := args[0]

		store, _ := openStore()

		e, err := store.Get(id)
		if err != nil {
			printError(err)
			exitWithCode(ExitError)
		}

		if e.Path != "" && !removeKeepFileFlag {
			if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
				printError(err)
				exitWithCode(ExitError)
			}
			printInfof("Deleted %s\n", e.Path)
		}

		if err := store.Remove(id); err != nil {
			printError(err)
			exitWithCode(ExitError)
		}
		printInfof("Removed entry %s\n", id)
	},
}

func init() {
	removeCmd.Flags().BoolVar(&removeKeepFileFlag, "keep-file", false, "Drop the entry but leave the file in place")
}
