package updater

import (
	"strconv"
	"strings"
)

// parseParts extracts the dotted numeric parts of a free-form version string.
// Everything except digits and dots is discarded first, so "v1.0.0-beta" reads
// as [1 0 0]. An empty segment ("1..2") counts as 0. A segment too large for
// an int fails the whole parse.
func parseParts(v string) ([]int, bool) {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if r == '.' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, v))
	if cleaned == "" {
		return []int{}, true
	}

	segments := strings.Split(cleaned, ".")
	parts := make([]int, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			parts = append(parts, 0)
			continue
		}
		n, err := strconv.Atoi(seg)
		if err != nil {
			return nil, false
		}
		parts = append(parts, n)
	}
	return parts, true
}

// CompareParts orders two versions part by part, padding the shorter one with
// zeros. Returns -1, 0 or 1, and false when either side has no numeric parts.
func CompareParts(a, b string) (int, bool) {
	aParts, ok := parseParts(a)
	if !ok || len(aParts) == 0 {
		return 0, false
	}
	bParts, ok := parseParts(b)
	if !ok || len(bParts) == 0 {
		return 0, false
	}

	maxLen := len(aParts)
	if len(bParts) > maxLen {
		maxLen = len(bParts)
	}
	for i := 0; i < maxLen; i++ {
		var ai, bi int
		if i < len(aParts) {
			ai = aParts[i]
		}
		if i < len(bParts) {
			bi = bParts[i]
		}
		if ai > bi {
			return 1, true
		}
		if ai < bi {
			return -1, true
		}
	}
	return 0, true
}

// CompareVersions reports whether latest is strictly newer than current.
// Unparseable input on either side yields false.
func CompareVersions(current, latest string) bool {
	cmp, ok := CompareParts(latest, current)
	return ok && cmp > 0
}
