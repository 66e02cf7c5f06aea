package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectColumn_FirstMatchInHeaderOrder(t *testing.T) {
	t.Parallel()

	header := []string{"ID", "Full Name", "District"}
	col, err := DetectColumn(header, "district", "name")
	require.NoError(t, err)
	// "Full Name" precedes "District" in the header, so it wins.
	assert.Equal(t, "Full Name", col)
}

func TestDetectColumn_ExactPattern(t *testing.T) {
	t.Parallel()

	header := []string{"Valid", "ID"}
	col, err := DetectColumn(header, "=id")
	require.NoError(t, err)
	assert.Equal(t, "ID", col)
}

func TestDetectColumn_NoMatch(t *testing.T) {
	t.Parallel()

	_, err := DetectColumn([]string{"Distrct", "Zone"}, "district")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSchemaAssumption))

	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"Distrct", "Zone"}, se.Headers)
}

func TestDedupStrings_CaseVariants(t *testing.T) {
	t.Parallel()

	in := []string{"Lagos", "lagos ", " Abuja", "ABUJA", "Kano", "   ", "", "kano"}
	got := DedupStrings(in)
	assert.Equal(t, []string{"Lagos", " Abuja", "Kano"}, got)
}

func TestDedup_KeepsFirstRecord(t *testing.T) {
	t.Parallel()

	type rec struct{ email, name string }
	in := []rec{{"A@x.io", "first"}, {"a@x.io", "second"}, {"", "blank"}, {"b@x.io", "third"}}
	got := Dedup(in, func(r rec) string { return r.email })
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].name)
	assert.Equal(t, "third", got[1].name)
}

func TestLoadProfile_MergesOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yml := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("email:\n  - contact\n"), 0o644))
	p, err := LoadProfile(yml)
	require.NoError(t, err)
	assert.Equal(t, []string{"contact"}, p[FieldEmail])
	assert.Equal(t, DefaultProfile()[FieldPhone], p[FieldPhone])

	tml := filepath.Join(dir, "profile.toml")
	require.NoError(t, os.WriteFile(tml, []byte("camp_ref = [\"=session\"]\n"), 0o644))
	p, err = LoadProfile(tml)
	require.NoError(t, err)
	assert.Equal(t, []string{"=session"}, p[FieldCampRef])

	_, err = LoadProfile(filepath.Join(dir, "profile.ini"))
	require.Error(t, err)
}

func TestProfileLookup(t *testing.T) {
	t.Parallel()

	header := []string{"First Name", "Email Address", "Camp"}
	cols := DefaultProfile().Lookup(header, FieldFirstName, FieldEmail, FieldCampRef, FieldPhone)
	assert.Equal(t, "First Name", cols[FieldFirstName])
	assert.Equal(t, "Email Address", cols[FieldEmail])
	assert.Equal(t, "Camp", cols[FieldCampRef])
	assert.False(t, cols.Has(FieldPhone))

	row := Row{Values: map[string]string{"First Name": "  Ada "}}
	assert.Equal(t, "Ada", cols.Value(row, FieldFirstName))
	assert.Equal(t, "", cols.Value(row, FieldPhone))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-03-01 10:30:00", time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)},
		{"2024-03-01T10:30:00+01:00", time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{"03/01/2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"Mar 1, 2024", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%q: want %s got %s", tc.in, tc.want, got)
		}
	}

	if _, err := ParseDate(" "); err == nil {
		t.Fatalf("expected error for blank value")
	}
	if _, err := ParseDate("yesterday"); err == nil {
		t.Fatalf("expected error for unparsable value")
	}
}
