package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sumwatch/sumwatch/internal/checksum"
	"github.com/sumwatch/sumwatch/internal/track"
	"github.com/sumwatch/sumwatch/internal/userconfig"
)

const verifySHA256 = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9" // "hello world"

// setVerifyFlags points the verify command at a tracked entry and
// restores the package flags afterwards.
func setVerifyFlags(t *testing.T, id string) {
	t.Helper()
	origID := verifyIDFlag
	origQuiet := quietFlag
	origNoProgress := verifyNoProgress
	t.Cleanup(func() {
		verifyIDFlag = origID
		quietFlag = origQuiet
		verifyNoProgress = origNoProgress
	})
	verifyIDFlag = id
	quietFlag = true
	verifyNoProgress = true
}

func seedTrackedEntry(t *testing.T) (*track.Store, track.Entry, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tool.zip")
	if err := os.WriteFile(path, []byte("hello world"), 0644); err != nil {
		t.Fatal(err)
	}

	store := track.NewStore(filepath.Join(dir, "state.json"))
	e, err := store.Add("https://example.com/tool.zip", checksum.Descriptor{
		Types:  []string{"sha256"},
		Values: []string{verifySHA256},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store, e, path
}

func TestRunVerifyMatchRemovesTrackedEntry(t *testing.T) {
	store, e, path := seedTrackedEntry(t)
	setVerifyFlags(t, e.ID)

	code := runVerify(context.Background(), store, userconfig.DefaultConfig(), path)
	if code != ExitSuccess {
		t.Fatalf("expected exit %d, got %d", ExitSuccess, code)
	}

	if _, err := store.Get(e.ID); !errors.Is(err, track.ErrNotFound) {
		t.Errorf("entry still tracked after a successful verification: %v", err)
	}
}

func TestRunVerifyMismatchRemovesTrackedEntry(t *testing.T) {
	store, e, path := seedTrackedEntry(t)
	if err := os.WriteFile(path, []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}
	setVerifyFlags(t, e.ID)

	code := runVerify(context.Background(), store, userconfig.DefaultConfig(), path)
	if code != ExitMismatch {
		t.Fatalf("expected exit %d, got %d", ExitMismatch, code)
	}

	if _, err := store.Get(e.ID); !errors.Is(err, track.ErrNotFound) {
		t.Errorf("entry still tracked after a mismatch: %v", err)
	}
}

func TestRunVerifyErrorRemovesTrackedEntry(t *testing.T) {
	store, e, path := seedTrackedEntry(t)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	setVerifyFlags(t, e.ID)

	code := runVerify(context.Background(), store, userconfig.DefaultConfig(), path)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}

	if _, err := store.Get(e.ID); !errors.Is(err, track.ErrNotFound) {
		t.Errorf("entry still tracked after a failed computation: %v", err)
	}
}

func TestRunVerifyUnknownIDLeavesStoreAlone(t *testing.T) {
	store, e, path := seedTrackedEntry(t)
	setVerifyFlags(t, "no-such-id")

	code := runVerify(context.Background(), store, userconfig.DefaultConfig(), path)
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}

	if _, err := store.Get(e.ID); err != nil {
		t.Errorf("unrelated entry should survive: %v", err)
	}
}

func TestMismatchReportDigestsInAlgorithmOrder(t *testing.T) {
	outcome := &checksum.Outcome{
		Digests: map[checksum.Algorithm]string{
			checksum.SHA512: strings.Repeat("c", 128),
			checksum.MD5:    strings.Repeat("a", 32),
			checksum.SHA256: strings.Repeat("b", 64),
		},
	}
	desc := checksum.Descriptor{Values: []string{verifySHA256}}

	var buf bytes.Buffer
	writeMismatchReport(&buf, "tool.zip", desc, outcome)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "MISMATCH: tool.zip") {
		t.Errorf("unexpected verdict line: %q", lines[0])
	}
	for i, algo := range []string{"md5", "sha256", "sha512"} {
		if !strings.Contains(lines[i+1], "computed "+algo+":") {
			t.Errorf("line %d: expected %s, got %q", i+1, algo, lines[i+1])
		}
	}
}

func TestInferTypesByLength(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   []string
	}{
		{
			name:   "md5 length",
			values: []string{strings.Repeat("a1", 16)},
			want:   []string{"md5"},
		},
		{
			name:   "sha256 length",
			values: []string{strings.Repeat("a1", 32)},
			want:   []string{"sha256"},
		},
		{
			name:   "hyphenated value still measured",
			values: []string{strings.Repeat("a1", 16)[:16] + "-" + strings.Repeat("a1", 16)[16:]},
			want:   []string{"md5"},
		},
		{
			name:   "two lengths",
			values: []string{strings.Repeat("a1", 16), strings.Repeat("a1", 32)},
			want:   []string{"md5", "sha256"},
		},
		{
			name:   "unrecognized length",
			values: []string{"abcdef"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferTypes(tt.values)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}
