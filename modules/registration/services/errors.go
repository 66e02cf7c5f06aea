// Package services turns ingested legacy exports into registration records:
// districts, users and campites.
package services

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/campsite-dev/campseed/pkg/ingest"
)

var ErrInvalidOption = errors.New("invalid option")

// DateError is returned when a required date cannot be coerced. It aborts the
// run: there is no agreed fallback value.
type DateError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *DateError) Error() string {
	return fmt.Sprintf("line %d: column %q: %v", e.Line, e.Column, e.Err)
}

func (e *DateError) Unwrap() error { return e.Err }

// SkipReason explains why a registration row produced no campite.
type SkipReason string

const (
	SkipUnresolvableUser SkipReason = "unresolvable user"
	SkipUnresolvableCamp SkipReason = "unresolvable camp"
)

// Skip is a non-fatal, per-row resolution failure.
type Skip struct {
	Line   int
	Row    ingest.Row
	Reason SkipReason
}
