// internal/matching/similarity/similarity.go
package similarity

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Normalize lowercases and trims a name before any comparison.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeAll normalizes a list, dropping blanks and duplicates. The result
// is never nil so it can be bound directly as an array parameter.
func NormalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// StringSimilarity returns the longest-matching-block ratio of a and b,
// case-insensitively. Inputs are put in a fixed order so the result is
// symmetric.
func StringSimilarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a > b {
		a, b = b, a
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// IsSubstringMatch reports whether either normalized value contains the other.
// Blank values never match.
func IsSubstringMatch(a, b string) bool {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
