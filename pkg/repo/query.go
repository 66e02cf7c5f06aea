package repo

import (
	"fmt"
	"strings"
)

// Join concatenates non-empty SQL pieces with single spaces.
func Join(expressions ...string) string {
	parts := make([]string, 0, len(expressions))
	for _, e := range expressions {
		if strings.TrimSpace(e) == "" {
			continue
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, " ")
}

// JoinWhere builds a WHERE clause from predicates, ignoring empty ones.
func JoinWhere(expressions ...string) string {
	parts := make([]string, 0, len(expressions))
	for _, e := range expressions {
		if strings.TrimSpace(e) == "" {
			continue
		}
		parts = append(parts, e)
	}
	if len(parts) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(parts, " AND ")
}

func FormatLimitOffset(limit, offset int) string {
	switch {
	case limit > 0 && offset > 0:
		return fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	case limit > 0:
		return fmt.Sprintf("LIMIT %d", limit)
	case offset > 0:
		return fmt.Sprintf("OFFSET %d", offset)
	}
	return ""
}
