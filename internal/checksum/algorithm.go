// Package checksum implements the streaming checksum verifier: the
// supported digest algorithms, the plausibility filter applied to
// scraped checksum candidates, and the chunked file verifier that
// compares computed digests against a page's claimed values.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA384 Algorithm = "sha384"
	SHA512 Algorithm = "sha512"
)

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{MD5, SHA1, SHA256, SHA384, SHA512}

// ParseAlgorithm canonicalizes a scraped algorithm label: lower-cased,
// internal hyphens and spaces stripped, then matched against the
// supported set. A bare "sha2" collapses to sha256. Unrecognized
// labels return an error; they are dropped by callers, never
// substituted with a guess.
func ParseAlgorithm(label string) (Algorithm, error) {
	s := strings.ToLower(label)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")

	switch s {
	case "md5":
		return MD5, nil
	case "sha1":
		return SHA1, nil
	case "sha2", "sha256":
		return SHA256, nil
	case "sha384":
		return SHA384, nil
	case "sha512":
		return SHA512, nil
	}
	return "", fmt.Errorf("unsupported algorithm label: %q", label)
}

// New returns a fresh incremental accumulator for the algorithm.
// The returned hash.Hash can be queried with Sum(nil) at any point
// without disturbing further accumulation.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("unsupported algorithm: %q", a)
}

// HexLen returns the length of the algorithm's lowercase hex digest.
func (a Algorithm) HexLen() int {
	switch a {
	case MD5:
		return 32
	case SHA1:
		return 40
	case SHA256:
		return 64
	case SHA384:
		return 96
	case SHA512:
		return 128
	}
	return 0
}
