package checksum

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sumwatch/sumwatch/internal/log"
)

// DefaultChunkSize is the read size used when Verifier.ChunkSize is
// zero: 1 MiB. Chunking bounds peak memory to one chunk no matter how
// large the file is.
const DefaultChunkSize = 1 << 20

// ErrNoUsableAlgorithm is returned when every declared algorithm label
// failed to parse, leaving nothing to compute.
var ErrNoUsableAlgorithm = errors.New("no usable algorithm among declared types")

// Descriptor is the {types, values} pair scraped from a page: the page
// author's claimed algorithm labels and digest values for a download.
type Descriptor struct {
	Types  []string `json:"types"`
	Values []string `json:"values"`
}

// Outcome reports the result of one verification attempt. It is
// computed fresh per attempt and never persisted.
type Outcome struct {
	// Valid is true when some computed digest equaled a claimed value.
	Valid bool `json:"valid"`

	// Matched is the algorithm that produced the matching digest.
	// Empty when Valid is false.
	Matched Algorithm `json:"matched,omitempty"`

	// MatchedValue is the claimed value that matched, in canonical
	// (lowercase, hyphen-free) form. Empty when Valid is false.
	MatchedValue string `json:"matched_value,omitempty"`

	// Digests holds every digest actually computed, keyed by
	// algorithm. With stop-on-match enabled this may cover only a
	// prefix of the declared types.
	Digests map[Algorithm]string `json:"digests"`
}

// ProgressFunc receives per-chunk updates while a file is hashed.
// running is the accumulator's digest over the bytes folded so far,
// taken without disturbing the live state; it exists for display only.
type ProgressFunc func(algo Algorithm, hashed, total int64, running string)

// Verifier streams files through declared digest algorithms in
// bounded-memory chunks and compares the results against claimed
// checksum values.
type Verifier struct {
	// ChunkSize is the fixed read size. Zero means DefaultChunkSize.
	ChunkSize int64

	// StopOnMatch stops attempting further declared algorithms once
	// one of them matches.
	StopOnMatch bool

	// OnProgress, when set, is called after each chunk is folded in.
	OnProgress ProgressFunc

	// Logger receives diagnostics; nil falls back to log.Default().
	Logger log.Logger
}

// New returns a Verifier with the default chunk size and
// stop-on-first-match behavior.
func New() *Verifier {
	return &Verifier{ChunkSize: DefaultChunkSize, StopOnMatch: true}
}

func (v *Verifier) logger() log.Logger {
	if v.Logger != nil {
		return v.Logger
	}
	return log.Default()
}

// VerifyFile hashes the file at path with each declared algorithm in
// declaration order and compares every computed digest against the
// full claimed value set.
//
// An unrecognized algorithm label is skipped, not fatal; verification
// of the remaining labels proceeds. If no label parses at all the
// attempt fails with ErrNoUsableAlgorithm. A read failure aborts the
// attempt with an error; a failed computation is distinct from a
// clean no-match outcome, which returns Valid=false and a nil error.
func (v *Verifier) VerifyFile(ctx context.Context, path string, desc Descriptor) (*Outcome, error) {
	// Comparison is against the claimed values as given, canonicalized
	// only (lowercase, hyphens stripped). Plausibility filtering is the
	// scanner's job; re-filtering here could drop a value the user
	// supplied by hand.
	values := make([]string, 0, len(desc.Values))
	for _, val := range desc.Values {
		values = append(values, Normalize(val))
	}

	outcome := &Outcome{Digests: make(map[Algorithm]string)}
	usable := 0

	for _, label := range desc.Types {
		algo, err := ParseAlgorithm(label)
		if err != nil {
			v.logger().Warn("skipping unrecognized algorithm label", "label", label)
			continue
		}
		if _, done := outcome.Digests[algo]; done {
			continue // duplicate declaration
		}
		usable++

		digest, err := v.hashFile(ctx, path, algo)
		if err != nil {
			return nil, fmt.Errorf("computing %s digest: %w", algo, err)
		}
		outcome.Digests[algo] = digest

		for _, val := range values {
			if digest == val {
				outcome.Valid = true
				outcome.Matched = algo
				outcome.MatchedValue = val
				break
			}
		}
		if outcome.Valid && v.StopOnMatch {
			break
		}
	}

	if usable == 0 {
		return nil, ErrNoUsableAlgorithm
	}
	return outcome, nil
}

// hashFile streams the file through a fresh accumulator in fixed-size
// sequential chunks. Chunk i+1 is not read until chunk i has been
// folded in, so memory stays at one chunk regardless of file size.
func (v *Verifier) hashFile(ctx context.Context, path string, algo Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	var total int64 = -1
	if info, err := f.Stat(); err == nil {
		total = info.Size()
	}

	h, err := algo.New()
	if err != nil {
		return "", err
	}

	chunkSize := v.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	buf := make([]byte, chunkSize)
	var hashed int64
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := io.ReadFull(f, buf)
		if n > 0 {
			h.Write(buf[:n])
			hashed += int64(n)
			if v.OnProgress != nil {
				// Sum does not mutate the accumulator, so the peek is
				// safe mid-stream.
				v.OnProgress(algo, hashed, total, hex.EncodeToString(h.Sum(nil)))
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read failed at offset %d: %w", hashed, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
