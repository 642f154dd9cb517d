// Package strings normalizes user-supplied identifiers and lists.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops empties and repeats, keeping
// first-seen order.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

var keyReplacer = strings.NewReplacer("-", "_", " ", "_")

// Key folds a loosely written identifier to snake case:
//
//	Key(" Full-Sister ") == "full_sister"
func Key(s string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}
