package ingest

import "strings"

// DedupKey is the comparison form of a value: trimmed and lowercased. It is
// never written to output.
func DedupKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Dedup keeps the first item for every distinct DedupKey(key(item)), in input
// order. Items whose key is blank are dropped without being counted as
// duplicates.
func Dedup[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, it := range items {
		k := DedupKey(key(it))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

// DedupStrings is Dedup over plain strings; the first-seen original spelling
// survives.
func DedupStrings(values []string) []string {
	return Dedup(values, func(s string) string { return s })
}
