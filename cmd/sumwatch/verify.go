package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sumwatch/sumwatch/internal/checksum"
	"github.com/sumwatch/sumwatch/internal/progress"
	"github.com/sumwatch/sumwatch/internal/track"
	"github.com/sumwatch/sumwatch/internal/userconfig"
)

var (
	verifyIDFlag        string
	verifyTypesFlag     []string
	verifyChecksumsFlag []string
	verifyAllFlag       bool
	verifyNoProgress    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a file against published checksums",
	Long: `Verify a downloaded file against checksum values, either from a
tracked download or supplied directly.

The file is streamed through each declared hash algorithm in fixed-size
chunks. By default verification stops at the first matching digest;
--all computes every algorithm regardless.

A tracked entry (--id) is removed once its verification attempt ends,
whatever the result.

Examples:
  sumwatch verify tool.zip --checksum b94d27b9... --type sha256
  sumwatch verify tool.zip --id 4f1c...
  sumwatch verify tool.zip --checksum <value>   (algorithm inferred by length)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store, ucfg := openStore()
		exitWithCode(runVerify(cmd.Context(), store, ucfg, args[0]))
	},
}

// runVerify performs one verification attempt and returns the exit
// code. It exits nowhere itself: the tracked-entry cleanup is deferred
// inside this function, so it runs on success, mismatch, and error
// alike before the process decides to exit.
func runVerify(ctx context.Context, store *track.Store, ucfg *userconfig.Config, filePath string) int {
	desc, cleanup, err := resolveDescriptor(store)
	if err != nil {
		printError(err)
		return ExitError
	}
	if cleanup != nil {
		defer cleanup()
	}

	v := checksum.New()
	v.ChunkSize = ucfg.ChunkSizeBytes
	v.StopOnMatch = !verifyAllFlag && !ucfg.VerifyAllAlgorithms

	var reporter *progress.Reporter
	if !verifyNoProgress && !quietFlag && progress.ShouldShowProgress() {
		reporter = progress.NewReporter(os.Stderr)
		v.OnProgress = func(algo checksum.Algorithm, hashed, total int64, running string) {
			reporter.Update(string(algo), hashed, total)
		}
	}

	outcome, err := v.VerifyFile(ctx, filePath, desc)
	if reporter != nil {
		reporter.Finish()
	}
	if err != nil {
		printError(err)
		return ExitError
	}

	if outcome.Valid {
		printInfof("OK: %s matches %s (%s)\n", filePath, outcome.MatchedValue, outcome.Matched)
		return ExitSuccess
	}

	if !quietFlag {
		writeMismatchReport(os.Stdout, filePath, desc, outcome)
	}
	return ExitMismatch
}

// writeMismatchReport renders the no-match verdict with every computed
// digest in fixed algorithm order, so output is stable across runs.
func writeMismatchReport(w io.Writer, filePath string, desc checksum.Descriptor, outcome *checksum.Outcome) {
	fmt.Fprintf(w, "MISMATCH: %s matched none of the %d claimed value(s)\n",
		filePath, len(desc.Values))
	for _, algo := range checksum.Algorithms {
		if digest, ok := outcome.Digests[algo]; ok {
			fmt.Fprintf(w, "  computed %s: %s\n", algo, digest)
		}
	}
}

// resolveDescriptor builds the checksum descriptor from a tracked
// entry or from the command line. For tracked entries it also returns
// a cleanup func that removes the entry; runVerify defers it so the
// entry goes away whatever the verification result.
func resolveDescriptor(store *track.Store) (checksum.Descriptor, func(), error) {
	if verifyIDFlag != "" {
		e, err := store.Get(verifyIDFlag)
		if err != nil {
			return checksum.Descriptor{}, nil, err
		}
		cleanup := func() {
			if err := store.Remove(verifyIDFlag); err != nil {
				printError(err)
			}
		}
		return e.Checksum, cleanup, nil
	}

	if len(verifyChecksumsFlag) == 0 {
		return checksum.Descriptor{}, nil, errors.New("either --id or at least one --checksum is required")
	}
	types := verifyTypesFlag
	if len(types) == 0 {
		// No labels given: try every algorithm whose digest length
		// matches one of the values.
		types = inferTypes(verifyChecksumsFlag)
	}
	return checksum.Descriptor{Types: types, Values: verifyChecksumsFlag}, nil, nil
}

// inferTypes picks candidate algorithms by claimed value length.
func inferTypes(values []string) []string {
	var types []string
	seen := make(map[checksum.Algorithm]bool)
	for _, val := range values {
		n := len(checksum.Normalize(val))
		for _, algo := range checksum.Algorithms {
			if algo.HexLen() == n && !seen[algo] {
				seen[algo] = true
				types = append(types, string(algo))
			}
		}
	}
	return types
}

func init() {
	verifyCmd.Flags().StringVar(&verifyIDFlag, "id", "", "Tracked download identifier")
	verifyCmd.Flags().StringSliceVar(&verifyTypesFlag, "type", nil, "Claimed algorithm label (repeatable)")
	verifyCmd.Flags().StringSliceVar(&verifyChecksumsFlag, "checksum", nil, "Claimed checksum value (repeatable)")
	verifyCmd.Flags().BoolVar(&verifyAllFlag, "all", false, "Compute every algorithm instead of stopping at the first match")
	verifyCmd.Flags().BoolVar(&verifyNoProgress, "no-progress", false, "Disable the progress bar")
}
