package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// MaxReportedIssues caps the diagnostics carried by a ParseError.
const MaxReportedIssues = 5

var (
	// ErrParse is matched by every *ParseError.
	ErrParse = errors.New("parse error")

	// ErrSchemaAssumption is matched by every *SchemaError.
	ErrSchemaAssumption = errors.New("schema assumption violated")
)

// Issue is one row-level parse diagnostic.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

// ParseError reports that one or more rows did not fit the header shape.
// Issues holds at most MaxReportedIssues representative entries; Total counts
// all of them.
type ParseError struct {
	Issues []Issue
	Total  int
}

func (e *ParseError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.String())
	}
	msg := fmt.Sprintf("parse failed with %d issue(s): %s", e.Total, strings.Join(parts, "; "))
	if e.Total > len(e.Issues) {
		msg += fmt.Sprintf(" (and %d more)", e.Total-len(e.Issues))
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

type issueList struct {
	issues []Issue
	total  int
}

func (l *issueList) add(line int, msg string) {
	l.total++
	if len(l.issues) < MaxReportedIssues {
		l.issues = append(l.issues, Issue{Line: line, Message: msg})
	}
}

func (l *issueList) err() error {
	if l.total == 0 {
		return nil
	}
	return &ParseError{Issues: l.issues, Total: l.total}
}

// SchemaError reports that a semantically required column could not be found
// among the headers.
type SchemaError struct {
	Field       string
	Patterns    []string
	Headers     []string
	Suggestions []string
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("no header matches %s (patterns: %s; headers: %s)",
		e.Field, strings.Join(e.Patterns, ", "), strings.Join(e.Headers, ", "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf("; did you mean %s?", strings.Join(e.Suggestions, " or "))
	}
	return msg
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaAssumption
}
