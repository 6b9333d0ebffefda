package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sha256OfRelease = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"

func scanString(t *testing.T, page string, opts Options) *Record {
	t.Helper()
	return ScanHTML(strings.NewReader(page), opts)
}

func TestScanEmitsRecord(t *testing.T) {
	page := `<html><body>
		<h1>Release 1.4</h1>
		<p>SHA-256: ` + sha256OfRelease + `</p>
		<a href="https://example.com/release-1.4.zip">Download</a>
	</body></html>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec)
	assert.Equal(t, []string{"https://example.com/release-1.4.zip"}, rec.URLs)
	assert.Equal(t, []string{"sha256"}, rec.Checksum.Types)
	assert.Equal(t, []string{sha256OfRelease}, rec.Checksum.Values)
}

func TestScanRequiresBothSides(t *testing.T) {
	checksumOnly := `<html><body>
		<p>sha256 ` + sha256OfRelease + `</p>
		<a href="/notes.txt">Release notes</a>
	</body></html>`
	assert.Nil(t, scanString(t, checksumOnly, DefaultOptions()),
		"checksum without a risky download link must not emit")

	linkOnly := `<html><body>
		<a href="/release.tar.gz">Download</a>
		<p>Version 1.2.3 build 20240101</p>
	</body></html>`
	assert.Nil(t, scanString(t, linkOnly, DefaultOptions()),
		"risky link without a checksum must not emit")
}

func TestScanIgnoresScriptAndStyleText(t *testing.T) {
	page := `<html><body>
		<script>var h = "` + sha256OfRelease + `";</script>
		<style>/* ` + sha256OfRelease + ` */</style>
		<noscript>` + sha256OfRelease + `</noscript>
		<a href="/tool.exe">Download</a>
	</body></html>`

	assert.Nil(t, scanString(t, page, DefaultOptions()),
		"script/style/noscript text is code, not page content")
}

func TestScanDeduplicatesNestedText(t *testing.T) {
	// The digest appears in a leaf inside nested containers; reading
	// only leaf elements keeps it from being captured per ancestor.
	page := `<html><body>
		<div><div><p>` + sha256OfRelease + `</p></div></div>
		<a href="/pkg.deb">get it</a>
	</body></html>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec)
	assert.Equal(t, []string{sha256OfRelease}, rec.Checksum.Values)
}

func TestScanReadsTextDirectlyUnderRoot(t *testing.T) {
	// Digest text sits directly under <body> next to element children.
	page := `<html><body>
		sha256: ` + sha256OfRelease + `
		<a href="/installer.msi">installer</a>
	</body></html>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec)
	assert.Equal(t, []string{sha256OfRelease}, rec.Checksum.Values)
}

func TestScanNormalizesDecoratedDigests(t *testing.T) {
	page := `<html><body>
		<code>` + strings.ToUpper(sha256OfRelease) + `</code>
		<a href="/app.dmg">macOS build</a>
	</body></html>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec)
	assert.Equal(t, []string{sha256OfRelease}, rec.Checksum.Values)
}

func TestScanRejectsImplausibleRuns(t *testing.T) {
	page := `<html><body>
		<p>` + strings.Repeat("0", 64) + `</p>
		<p>` + strings.Repeat("a1", 16) + `</p>
		<a href="/app.AppImage">Download</a>
	</body></html>`

	assert.Nil(t, scanString(t, page, DefaultOptions()),
		"pure digits and low-diversity runs are not checksums")

	// The looser policy accepts the low-diversity run.
	opts := DefaultOptions()
	opts.DiversityFilter = false
	rec := scanString(t, page, opts)
	require.NotNil(t, rec)
	assert.Equal(t, []string{strings.Repeat("a1", 16)}, rec.Checksum.Values)
}

func TestScanCollectsAlgorithmMentions(t *testing.T) {
	page := `<html><body>
		<p>Checksums (SHA-256, sha 1, MD5, crc32):</p>
		<p>` + sha256OfRelease + `</p>
		<a href="/release.7z">archive</a>
	</body></html>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec)
	assert.Equal(t, []string{"sha256", "sha1", "md5"}, rec.Checksum.Types,
		"recognized labels canonicalized in document order, crc32 dropped")
}

func TestHasRiskyExtension(t *testing.T) {
	exts := DefaultOptions().RiskyExtensions

	tests := []struct {
		href string
		want bool
	}{
		{"https://example.com/a.zip", true},
		{"https://example.com/a.ZIP", true},
		{"https://example.com/a.tar.gz", true},
		{"https://example.com/a.zip?token=abc", true},
		{"/relative/installer.exe", true},
		{"https://example.com/a.txt", false},
		{"https://example.com/zip", false},
		{"https://example.com/download?file=a.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, hasRiskyExtension(tt.href, exts))
		})
	}
}

func TestScanDeduplicatesLinks(t *testing.T) {
	page := `<html><body>
		<p>` + sha256OfRelease + `</p>
		<a href="/a.zip">one</a>
		<a href="/a.zip">again</a>
		<a href="/b.iso">two</a>
	</body></html>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec)
	assert.Equal(t, []string{"/a.zip", "/b.iso"}, rec.URLs)
}

func TestScanSurvivesMalformedHTML(t *testing.T) {
	page := `<body><div><p>` + sha256OfRelease + `</p><a href="/x.zip">dl</a><div>`

	rec := scanString(t, page, DefaultOptions())
	require.NotNil(t, rec, "error-recovering parse must still yield matches")
	assert.Equal(t, []string{sha256OfRelease}, rec.Checksum.Values)
}
