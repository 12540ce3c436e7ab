// Package strings holds small string-list helpers used when parsing config.
package strings

import (
	"strings"
)

// SplitList splits raw on sep, trims each element and drops empties and
// repeats. Order of first occurrence is kept. It returns nil when nothing
// remains.
func SplitList(raw, sep string) []string {
	parts := strings.Split(raw, sep)
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
