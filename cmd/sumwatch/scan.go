package main

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumwatch/sumwatch/internal/httputil"
	"github.com/sumwatch/sumwatch/internal/message"
	"github.com/sumwatch/sumwatch/internal/scan"
)

var (
	scanRegisterFlag bool
	scanJSONFlag     bool
	scanLooseFlag    bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <url-or-file>",
	Short: "Scan a page for published checksums and download links",
	Long: `Scan an HTML page for hex digest candidates, algorithm mentions, and
links to downloadable artifacts.

The source can be an http(s) URL or a local file. A record is emitted
only when the page yields both at least one plausible digest and at
least one download link; pages missing either side produce nothing.

Examples:
  sumwatch scan https://example.com/releases
  sumwatch scan release-page.html --json
  sumwatch scan https://example.com/releases --register`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := args[0]

		store, ucfg := openStore()

		body, err := readSource(cmd.Context(), source, ucfg.ScanSettleDelayMS)
		if err != nil {
			printError(err)
			exitWithCode(ExitError)
		}

		opts := scan.DefaultOptions()
		opts.DiversityFilter = ucfg.DiversityFilter && !scanLooseFlag
		if len(ucfg.RiskyExtensions) > 0 {
			opts.RiskyExtensions = ucfg.RiskyExtensions
		}

		record := scan.ScanHTML(bytes.NewReader(body), opts)
		if record == nil {
			printInfo("No checksum record found.")
			exitWithCode(ExitSuccess)
		}
		links := resolveLinks(source, record.URLs)

		if scanJSONFlag {
			env, err := message.Encode(message.Download{
				URLs:     links,
				Checksum: record.Checksum,
			})
			if err != nil {
				printError(err)
				exitWithCode(ExitError)
			}
			os.Stdout.Write(append(env, '\n'))
		} else {
			printInfof("Found %d download link(s) and %d checksum value(s)\n",
				len(links), len(record.Checksum.Values))
			for _, u := range links {
				printInfof("  link:  %s\n", u)
			}
			for _, t := range record.Checksum.Types {
				printInfof("  algo:  %s\n", t)
			}
			for _, v := range record.Checksum.Values {
				printInfof("  value: %s\n", v)
			}
		}

		if scanRegisterFlag {
			for _, u := range links {
				e, err := store.Add(u, record.Checksum)
				if err != nil {
					printError(err)
					exitWithCode(ExitError)
				}
				printInfof("Registered %s -> %s\n", e.ID, e.SourceURL)
			}
		}
	},
}

// readSource fetches an http(s) URL or reads a local file. A fetched
// page is held for the settle delay before it is handed to the
// scanner; local files are read as-is.
func readSource(ctx context.Context, source string, settleDelayMS int) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		client := httputil.NewClient(httputil.DefaultOptions())
		body, err := httputil.FetchPage(ctx, client, source)
		if err != nil {
			return nil, err
		}
		if settleDelayMS > 0 {
			select {
			case <-time.After(time.Duration(settleDelayMS) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return body, nil
	}
	return os.ReadFile(source)
}

// resolveLinks makes scraped hrefs absolute against the page URL.
// Local-file sources have no base, so links pass through unchanged.
func resolveLinks(source string, links []string) []string {
	base, err := url.Parse(source)
	if err != nil || !base.IsAbs() {
		return links
	}

	resolved := make([]string, 0, len(links))
	for _, l := range links {
		ref, err := url.Parse(l)
		if err != nil {
			resolved = append(resolved, l)
			continue
		}
		resolved = append(resolved, base.ResolveReference(ref).String())
	}
	return resolved
}

func init() {
	scanCmd.Flags().BoolVar(&scanRegisterFlag, "register", false, "Track the scanned links for later verification")
	scanCmd.Flags().BoolVar(&scanJSONFlag, "json", false, "Emit the record as a download message envelope")
	scanCmd.Flags().BoolVar(&scanLooseFlag, "loose", false, "Accept low-entropy digest candidates")
}
