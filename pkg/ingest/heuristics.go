package ingest

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSuggestions = 3

// DetectColumn returns the first header, in header order, that matches any of
// the patterns case-insensitively. A plain pattern matches when the header
// contains it; a pattern prefixed with "=" must equal the whole header.
// First match wins so the choice is reproducible across runs.
func DetectColumn(header []string, patterns ...string) (string, error) {
	return detectColumn("column", header, patterns)
}

func detectColumn(field string, header []string, patterns []string) (string, error) {
	for _, h := range header {
		lh := strings.ToLower(strings.TrimSpace(h))
		if lh == "" {
			continue
		}
		for _, p := range patterns {
			if matchHeader(lh, p) {
				return h, nil
			}
		}
	}
	return "", &SchemaError{
		Field:       field,
		Patterns:    patterns,
		Headers:     header,
		Suggestions: suggestColumns(header, patterns),
	}
}

func matchHeader(lowerHeader, pattern string) bool {
	p := strings.ToLower(strings.TrimSpace(pattern))
	if exact, ok := strings.CutPrefix(p, "="); ok {
		return exact != "" && lowerHeader == exact
	}
	return p != "" && strings.Contains(lowerHeader, p)
}

func suggestColumns(header []string, patterns []string) []string {
	var ranks fuzzy.Ranks
	for _, p := range patterns {
		p = strings.TrimPrefix(strings.TrimSpace(p), "=")
		if p == "" {
			continue
		}
		ranks = append(ranks, fuzzy.RankFindNormalizedFold(p, header)...)
	}
	sort.Stable(ranks)

	seen := map[string]struct{}{}
	out := make([]string, 0, maxSuggestions)
	for _, r := range ranks {
		if _, ok := seen[r.Target]; ok {
			continue
		}
		seen[r.Target] = struct{}{}
		out = append(out, r.Target)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}
