package services

import (
	"strings"

	"github.com/go-faster/errors"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/pkg/ingest"
)

// SynthesizeUsers builds one User per distinct email from a users export.
// Rows without an email are skipped; for repeated emails the first row wins.
// Every user keeps the row's legacy identifier as a bridge for campite
// resolution.
//
// Both the email and the joined-on columns are required, and a joined-on
// value that cannot be parsed fails the whole run.
func SynthesizeUsers(t *ingest.Table, profile ingest.Profile) ([]domain.User, error) {
	emailCol, err := profile.Resolve(t.Header, ingest.FieldEmail)
	if err != nil {
		return nil, errors.Wrap(err, "email column")
	}
	joinedCol, err := profile.Resolve(t.Header, ingest.FieldJoinedOn)
	if err != nil {
		return nil, errors.Wrap(err, "joined-on column")
	}
	cols := profile.Lookup(t.Header,
		ingest.FieldLegacyID,
		ingest.FieldFirstName,
		ingest.FieldLastName,
		ingest.FieldPhone,
		ingest.FieldRole,
	)

	rows := ingest.Dedup(t.Rows, func(r ingest.Row) string { return r.Get(emailCol) })
	out := make([]domain.User, 0, len(rows))
	for _, r := range rows {
		joined, err := ingest.ParseDate(r.Get(joinedCol))
		if err != nil {
			return nil, &DateError{Line: r.Line, Column: joinedCol, Value: r.Get(joinedCol), Err: err}
		}
		email := strings.TrimSpace(r.Get(emailCol))
		u := domain.User{
			ID:        UserID(email),
			LegacyID:  optionalID(cols.Value(r, ingest.FieldLegacyID)),
			FirstName: cols.Value(r, ingest.FieldFirstName),
			LastName:  cols.Value(r, ingest.FieldLastName),
			Email:     email,
			Phone:     optionalString(cols.Value(r, ingest.FieldPhone)),
			Role:      domain.RoleUser,
			CreatedAt: joined,
			UpdatedAt: joined,
		}
		if role := cols.Value(r, ingest.FieldRole); role != "" {
			u.Role = domain.Role(role)
		}
		out = append(out, u)
	}
	return out, nil
}

func optionalID(v string) *domain.ID {
	if v == "" {
		return nil
	}
	id := domain.ID(v)
	return &id
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
