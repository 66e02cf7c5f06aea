package repo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// JSONPathQuery addresses a value inside a JSON column of one table row set.
// Where is a raw SQL predicate and, like Value, is interpolated as-is.
type JSONPathQuery struct {
	Table   string
	Field   string
	KeyPath string
	Value   any
	Where   string
}

func JSONExtract(field, keyPath string) string {
	return fmt.Sprintf("json_extract(%s, '%s')", field, keyPath)
}

func JSONSet(field, keyPath string, value any) string {
	return fmt.Sprintf("json_set(%s, '%s', '%s')", field, keyPath, raw(value))
}

// CompileJSONRead renders
//
//	SELECT json_extract(<field>, '<path>') FROM <table> WHERE <where>
func CompileJSONRead(q JSONPathQuery) string {
	return Join(
		"SELECT", JSONExtract(q.Field, q.KeyPath),
		"FROM", q.Table,
		JoinWhere(q.Where),
	)
}

// CompileJSONWrite renders
//
//	UPDATE <table> SET <field> = json_set(<field>, '<path>', '<value>') WHERE <where>
func CompileJSONWrite(q JSONPathQuery) string {
	return Join(
		"UPDATE", q.Table,
		"SET", q.Field, "=", JSONSet(q.Field, q.KeyPath, q.Value),
		JoinWhere(q.Where),
	)
}

// ApplyJSONPath previews CompileJSONWrite on an in-memory document: the value
// at keyPath is created or replaced. The parent of keyPath must exist.
func ApplyJSONPath(doc []byte, keyPath string, value any) ([]byte, error) {
	ptr, err := JSONPointer(keyPath)
	if err != nil {
		return nil, err
	}
	if ptr == "" {
		return json.Marshal(value)
	}
	b, err := json.Marshal([]map[string]any{{"op": "add", "path": ptr, "value": value}})
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.DecodePatch(b)
	if err != nil {
		return nil, err
	}
	return patch.Apply(doc)
}

// JSONPointer converts a "$.a.b[0]" style path into the RFC 6901 pointer
// "/a/b/0". Quoted member names ($."a.b") are supported.
func JSONPointer(keyPath string) (string, error) {
	p := strings.TrimSpace(keyPath)
	if !strings.HasPrefix(p, "$") {
		return "", fmt.Errorf("%w: %q must start with $", ErrInvalidJSONPath, keyPath)
	}
	p = p[1:]
	var segs []string
	for len(p) > 0 {
		switch p[0] {
		case '.':
			p = p[1:]
			if strings.HasPrefix(p, `"`) {
				end := strings.Index(p[1:], `"`)
				if end < 0 {
					return "", fmt.Errorf("%w: unterminated quote in %q", ErrInvalidJSONPath, keyPath)
				}
				segs = append(segs, p[1:end+1])
				p = p[end+2:]
				continue
			}
			end := strings.IndexAny(p, ".[")
			if end < 0 {
				end = len(p)
			}
			if end == 0 {
				return "", fmt.Errorf("%w: empty member in %q", ErrInvalidJSONPath, keyPath)
			}
			segs = append(segs, p[:end])
			p = p[end:]
		case '[':
			end := strings.Index(p, "]")
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated index in %q", ErrInvalidJSONPath, keyPath)
			}
			idx := p[1:end]
			if _, err := strconv.Atoi(idx); err != nil && idx != "#" {
				return "", fmt.Errorf("%w: bad index %q", ErrInvalidJSONPath, idx)
			}
			if idx == "#" {
				idx = "-"
			}
			segs = append(segs, idx)
			p = p[end+1:]
		default:
			return "", fmt.Errorf("%w: unexpected %q in %q", ErrInvalidJSONPath, p[0], keyPath)
		}
	}
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString("/")
		sb.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(s))
	}
	return sb.String(), nil
}
