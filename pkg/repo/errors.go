// Package repo builds SQL text: bulk seed statements, list-endpoint filter
// predicates, pagination clauses and JSON-path fragments.
//
// The string builders (CompileFilter, CompileJSONRead, CompileJSONWrite)
// interpolate values without escaping and must never be executed against a
// live connection. Database access goes through FilterCompiler.Bind, which
// emits placeholders and an argument list instead.
package repo

import "errors"

var (
	ErrMissingBetweenBound = errors.New("between filter requires a second value")
	ErrUnknownOperator     = errors.New("unknown filter operator")
	ErrInvalidFilter       = errors.New("invalid filter")

	ErrNotArray      = errors.New("seed input must be a JSON array of objects")
	ErrEmptySeed     = errors.New("seed input is empty")
	ErrShapeMismatch = errors.New("seed records do not share the same keys")

	ErrInvalidCursor     = errors.New("invalid cursor")
	ErrInvalidPagination = errors.New("invalid pagination")
	ErrInvalidJSONPath   = errors.New("invalid json path")
)
