// Package scan extracts checksum claims from web pages.
//
// Given a parsed HTML document it looks for long hexadecimal runs
// (candidate digests), mentions of digest algorithm names, and anchor
// links to risk-flagged downloadable files. When a page offers both a
// plausible checksum and a risky download link, the scanner emits a
// Record pairing them; pages with only one side are silently inert.
package scan

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/sumwatch/sumwatch/internal/checksum"
	"github.com/sumwatch/sumwatch/internal/log"
	"github.com/sumwatch/sumwatch/internal/userconfig"
)

// Record is a page's checksum claim: the candidate download URLs and
// the algorithm labels plus digest values scraped alongside them.
// A Record is immutable once returned.
type Record struct {
	URLs     []string            `json:"urls"`
	Checksum checksum.Descriptor `json:"checksum"`
}

var (
	// hexRunPattern matches a run of 32 or more hex characters,
	// greedily. There is no upper bound: an embedded digest with
	// trailing hex-like characters is captured whole and killed later
	// by the exact-length filter.
	hexRunPattern = regexp.MustCompile(`[0-9a-fA-F]{32,}`)

	// algoPattern recognizes loose mentions of the supported
	// algorithms: "sha" or "md" followed, with optional spaces or
	// hyphens in between, by a known suffix. Longer suffixes come
	// first so "sha256" is not clipped to "sha2".
	algoPattern = regexp.MustCompile(`(?i)(?:sha[\s-]*(?:256|384|512|1|2)|md[\s-]*5)`)
)

// excludedTags are containers whose text is code or styling, not page
// content, and must never contribute checksum candidates.
var excludedTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// Options controls scanner policy.
type Options struct {
	// DiversityFilter rejects low-entropy hex runs (see checksum.Plausible).
	DiversityFilter bool

	// RiskyExtensions is the download-link extension allow-list.
	// Matching is against the URL path, not a MIME sniff.
	RiskyExtensions []string

	// Logger receives diagnostics; nil falls back to log.Default().
	Logger log.Logger
}

// DefaultOptions returns the default scanner policy.
func DefaultOptions() Options {
	return Options{
		DiversityFilter: true,
		RiskyExtensions: userconfig.DefaultRiskyExtensions,
	}
}

func (o Options) logger() log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

// ScanHTML parses the given HTML and scans it. A document the parser
// cannot recover is treated as having no matches; it never aborts the
// caller.
func ScanHTML(r io.Reader, opts Options) *Record {
	doc, err := html.Parse(r)
	if err != nil {
		opts.logger().Warn("unparseable document, nothing scanned", "error", err)
		return nil
	}
	// Scan from <body> when present so text sitting directly under it
	// benefits from the root-text exception in extractPattern.
	if body := findElement(doc, "body"); body != nil {
		return Scan(body, opts)
	}
	return Scan(doc, opts)
}

// findElement returns the first element with the given tag, depth first.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// Scan walks a parsed document and returns a Record, or nil when the
// page does not pair a plausible checksum with a qualifying download
// link. Both sides are required: a hash mention without a risky
// download is noise, and so is the reverse.
func Scan(root *html.Node, opts Options) *Record {
	values := checksum.Filter(extractPattern(root, hexRunPattern), opts.DiversityFilter)
	if len(values) == 0 {
		return nil
	}

	urls := collectLinks(root, opts.RiskyExtensions)
	if len(urls) == 0 {
		opts.logger().Debug("checksum candidates without a risky download link, ignoring",
			"candidates", len(values))
		return nil
	}

	types := algorithmNames(extractPattern(root, algoPattern))
	opts.logger().Info("page yielded a checksum record",
		"urls", len(urls), "types", len(types), "values", len(values))

	return &Record{
		URLs: urls,
		Checksum: checksum.Descriptor{
			Types:  types,
			Values: values,
		},
	}
}

// extractPattern walks the element tree depth-first and collects
// pattern matches, lower-cased with hyphens removed. Text is read only
// from leaf elements (elements without element children) so nested
// containers do not contribute the same run twice. The one exception
// is the call's
// root, whose direct text is always scanned even when it has element
// children. script/style/noscript subtrees are excluded.
func extractPattern(root *html.Node, pattern *regexp.Regexp) []string {
	var matches []string
	add := func(text string) {
		for _, m := range pattern.FindAllString(text, -1) {
			matches = append(matches, checksum.Normalize(m))
		}
	}

	var walk func(n *html.Node, isRoot bool)
	walk = func(n *html.Node, isRoot bool) {
		if n.Type == html.ElementNode && excludedTags[n.Data] {
			return
		}
		if isRoot || isLeafElement(n) {
			add(directText(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode || c.Type == html.DocumentNode {
				walk(c, false)
			}
		}
	}
	walk(root, true)

	return matches
}

// isLeafElement reports whether n is an element with no element
// children, i.e. the node whose text is safe to read without
// duplicating a parent's.
func isLeafElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return false
		}
	}
	return true
}

// directText concatenates the text nodes that are immediate children
// of n. For a leaf element this is its entire text content.
func directText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// algorithmNames canonicalizes scraped algorithm mentions and drops
// anything unrecognized, deduplicating while preserving first-seen
// order.
func algorithmNames(raw []string) []string {
	var out []string
	seen := make(map[checksum.Algorithm]struct{}, len(raw))
	for _, m := range raw {
		algo, err := checksum.ParseAlgorithm(m)
		if err != nil {
			continue
		}
		if _, dup := seen[algo]; dup {
			continue
		}
		seen[algo] = struct{}{}
		out = append(out, string(algo))
	}
	return out
}

// collectLinks returns every anchor href whose URL path ends in one of
// the risk-flagged extensions, deduplicated in document order.
func collectLinks(root *html.Node, exts []string) []string {
	var urls []string
	seen := make(map[string]struct{})

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				if !hasRiskyExtension(attr.Val, exts) {
					continue
				}
				if _, dup := seen[attr.Val]; dup {
					continue
				}
				seen[attr.Val] = struct{}{}
				urls = append(urls, attr.Val)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return urls
}

// hasRiskyExtension checks the URL path (query string excluded)
// against the extension allow-list, case-insensitively.
func hasRiskyExtension(raw string, exts []string) bool {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}
	path = strings.ToLower(path)

	for _, ext := range exts {
		if strings.HasSuffix(path, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
