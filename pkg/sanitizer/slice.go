package sanitizer

import "strings"

// NormalizeTags normalizes every entry and drops empties and duplicates.
// Duplicates are detected case-insensitively; the first spelling wins.
func NormalizeTags(items []string) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := TrimAndNormalize(item)
		if normalized == "" {
			continue
		}

		key := strings.ToLower(normalized)
		if seen[key] {
			continue
		}

		seen[key] = true
		result = append(result, normalized)
	}

	return result
}
