package checksum

import "strings"

// validHexLengths holds the candidate lengths accepted by the filter.
// These cover the supported digest sizes plus the SHA-2 truncation
// variants that show up in scraped text (a 56-char SHA-224 value is
// accepted by the filter even though no supported algorithm will ever
// match it; it is still a plausible digest, not noise).
var validHexLengths = map[int]bool{
	32:  true,
	40:  true,
	56:  true,
	64:  true,
	96:  true,
	128: true,
}

// minDistinctChars is the diversity threshold: a real digest of 32+
// random hex characters essentially always uses more than 10 distinct
// ones, while junk like "000...0" or "aaa...a" does not.
const minDistinctChars = 11

// Normalize lower-cases a candidate and strips hyphens, the same
// canonical form the scanner emits and the verifier compares against.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "-", "")
}

// Plausible reports whether a normalized candidate looks like a real
// hex digest. The rules, in order:
//   - length must be one of the supported digest lengths
//   - every character must be hex
//   - it must mix letters (a-f) and decimal digits; pure-digit runs
//     (version numbers, timestamps) and pure-letter runs are noise
//   - with diversity on, at least 11 distinct characters are required
func Plausible(s string, diversity bool) bool {
	if !validHexLengths[len(s)] {
		return false
	}

	var hasAlpha, hasDigit bool
	distinct := make(map[rune]struct{}, 16)
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'f':
			hasAlpha = true
		default:
			return false
		}
		distinct[r] = struct{}{}
	}
	if !hasAlpha || !hasDigit {
		return false
	}
	if diversity && len(distinct) < minDistinctChars {
		return false
	}
	return true
}

// Filter normalizes candidates, drops everything implausible, and
// deduplicates while preserving first-seen order. Filter is
// idempotent: Filter(Filter(s)) == Filter(s).
func Filter(candidates []string, diversity bool) []string {
	var out []string
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		n := Normalize(c)
		if !Plausible(n, diversity) {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
