package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/modules/registration/services"
	"github.com/campsite-dev/campseed/pkg/ingest"
	"github.com/campsite-dev/campseed/pkg/repo"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func TestDistrictsCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "districts.csv", "Name,Zones\nLagos,A\nlagos,B\nAbuja,\n")
	out := filepath.Join(dir, "out", "districts.json")

	r := run(t, "districts", in, out)
	require.NoError(t, r.err)
	assert.Empty(t, r.stdout)
	assert.Contains(t, r.stderr, "wrote 2 districts (skipped 1)")

	var got []domain.District
	readJSON(t, out, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "Lagos", got[0].Name)
	assert.Equal(t, []string{"A", "B"}, got[0].Zones)
}

func TestUsersCommand_BadDate(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "users.csv", "Email,Date Joined\na@x.com,2024-01-01\nb@x.com,someday\n")

	r := run(t, "users", in)
	require.Error(t, r.err)
	assert.Equal(t, 1, exitCode(r.err))

	var de *services.DateError
	require.True(t, errors.As(r.err, &de))
	assert.Equal(t, 3, de.Line)
	assert.Equal(t, "someday", de.Value)
}

func TestUsersCommand_ParseError(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "users.csv", "Email,Date Joined\n\"a@x.com,2024-01-01\n")

	r := run(t, "users", in)
	require.ErrorIs(t, r.err, ingest.ErrParse)
	assert.Equal(t, 1, exitCode(r.err))
}

func TestCampitesCommand(t *testing.T) {
	dir := t.TempDir()
	users := writeFile(t, dir, "users.json", `[
		{"id": "u1", "legacy_id": 100, "firstname": "Ada", "email": "ada@x.com", "role": "user",
		 "created_at": "2023-06-01T00:00:00Z", "updated_at": "2023-06-01T00:00:00Z"}
	]`)
	camps := writeFile(t, dir, "camps.json", `[{"id": "c1", "fee": "1500"}]`)
	districts := writeFile(t, dir, "districts.json", `[{"id": "d1", "name": "Lagos"}]`)
	regs := writeFile(t, dir, "registrations.csv", "User,Email,Camp,District\n"+
		"100,,1,Lagos\n"+
		",new@x.com,1,\n"+
		"555,,1,\n")
	out := filepath.Join(dir, "out", "campites.json")

	r := run(t, "campites", "--rewrite-users", regs, users, camps, districts, out)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "wrote 2 campites (skipped 1)")
	assert.Contains(t, r.stderr, "wrote 1 new users (skipped 0)")
	assert.Contains(t, r.stderr, "warning: 1 registration rows skipped")

	var campites []domain.Campite
	readJSON(t, out, &campites)
	require.Len(t, campites, 2)
	assert.Equal(t, domain.ID("u1"), campites[0].UserID)
	require.NotNil(t, campites[0].Amount)
	assert.Equal(t, int64(1500), *campites[0].Amount)

	var newUsers []domain.User
	readJSON(t, filepath.Join(dir, "out", "new-users.json"), &newUsers)
	require.Len(t, newUsers, 1)
	assert.Equal(t, "new@x.com", newUsers[0].Email)
	assert.Equal(t, newUsers[0].ID, campites[1].UserID)

	var rewritten []domain.User
	readJSON(t, users, &rewritten)
	require.Len(t, rewritten, 1)
	assert.Nil(t, rewritten[0].LegacyID)
}

func TestCampitesCommand_InvalidCampJoin(t *testing.T) {
	r := run(t, "campites", "--camp-join", "position", "a.csv", "u.json", "c.json", "d.json")
	require.ErrorIs(t, r.err, services.ErrInvalidOption)
	assert.Equal(t, 1, exitCode(r.err))
}

func TestSeedCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "records.json", `[{"id": 1, "name": "O'Brien"}, {"id": 2, "name": null}]`)

	r := run(t, "seed", in, "people")
	require.NoError(t, r.err)
	assert.Equal(t, "INSERT INTO \"people\" (\"id\", \"name\") VALUES\n(1, 'O''Brien'),\n(2, NULL);\n", r.stdout)
	assert.Contains(t, r.stderr, "wrote 2 rows")

	out := filepath.Join(dir, "seed.sql")
	r = run(t, "seed", in, "people", out)
	require.NoError(t, r.err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `INSERT INTO "people"`)
}

func TestSeedCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	ragged := writeFile(t, dir, "ragged.json", `[{"a": 1}, {"b": 2}]`)
	obj := writeFile(t, dir, "obj.json", `{"a": 1}`)

	r := run(t, "seed", ragged, "t")
	require.NoError(t, r.err)

	r = run(t, "seed", "--validate-shape", ragged, "t")
	require.ErrorIs(t, r.err, repo.ErrShapeMismatch)

	r = run(t, "seed", obj, "t")
	require.ErrorIs(t, r.err, repo.ErrNotArray)
	assert.Equal(t, 1, exitCode(r.err))
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	before := writeFile(t, dir, "a.json", `[{"id": 1, "name": "Ada"}]`)
	after := writeFile(t, dir, "b.json", `[{"id": 1, "name": "Ada L."}]`)

	r := run(t, "diff", before, after)
	require.NoError(t, r.err)
	assert.JSONEq(t, `[{"op": "replace", "path": "/0/name", "value": "Ada L."}]`, r.stdout)
	assert.Contains(t, r.stderr, "wrote 1 operations")

	r = run(t, "diff", before, before)
	require.NoError(t, r.err)
	assert.JSONEq(t, `[]`, r.stdout)
}

func TestJSONPathCommand(t *testing.T) {
	r := run(t, "jsonpath", "users", "meta", "$.a.b", "--where", "id=1")
	require.NoError(t, r.err)
	assert.Equal(t, "SELECT json_extract(meta, '$.a.b') FROM users WHERE id=1\n", r.stdout)

	r = run(t, "jsonpath", "users", "meta", "$.a", "x")
	require.NoError(t, r.err)
	assert.Equal(t, "UPDATE users SET meta = json_set(meta, '$.a', 'x')\n", r.stdout)

	doc := writeFile(t, t.TempDir(), "doc.json", `{"a": {"b": 1}}`)
	r = run(t, "jsonpath", "users", "meta", "$.a.b", `{"c": true}`, "--preview", doc)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"a": {"b": {"c": true}}}`, r.stdout)

	r = run(t, "jsonpath", "users", "meta", "$.a", "--preview", doc)
	require.Error(t, r.err)
}

func TestQueryCommand_RequiresDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	r := run(t, "query", `["lastname","startsWith","O"]`)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "DATABASE_URL")
	assert.Equal(t, 1, exitCode(r.err))
}

func TestQueryCommand_InvalidCursor(t *testing.T) {
	r := run(t, "query", "--dsn", "postgres://localhost/none", "--after", "%%%")
	require.ErrorIs(t, r.err, repo.ErrInvalidCursor)
}

func TestUsageErrors(t *testing.T) {
	r := run(t, "seed", "only-one")
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "usage: campseed seed")
	assert.Equal(t, 1, exitCode(r.err))

	r = run(t, "users", "--log-level", "loud", "x.csv")
	require.Error(t, r.err)
	assert.Equal(t, 1, exitCode(r.err))
}

func TestMetricsFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "records.json", `[{"id": 1}]`)
	prom := filepath.Join(dir, "campseed.prom")

	r := run(t, "seed", "--metrics-file", prom, in, "t")
	require.NoError(t, r.err)

	b, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(b), `campseed_records_written_total{artifact="sql",command="seed"} 1`)
	assert.Contains(t, string(b), "campseed_last_success_timestamp_seconds")
}

func TestQueryCommand_Explain(t *testing.T) {
	r := run(t, "query", "--explain", `["lastname","startsWith","O"]`, `["age","lessThan",5]`, `["x","nope",1]`)
	require.NoError(t, r.err)
	assert.Equal(t, "lastname LIKE 'O%' AND age < 5\n", r.stdout)

	r = run(t, "query", "--explain", "--strict", `["x","nope",1]`)
	require.ErrorIs(t, r.err, repo.ErrUnknownOperator)
}

func TestUsersOutputFeedsCampites(t *testing.T) {
	dir := t.TempDir()
	usersCSV := writeFile(t, dir, "users.csv", "ID,First Name,Email,Date Joined\n"+
		"7,Ada,ada(at)x.com,2024-01-01\n"+
		"8,Bo,bo@x.com,2024-01-02\n")
	users := filepath.Join(dir, "users.json")
	r := run(t, "users", usersCSV, users)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "wrote 2 users (skipped 0)")

	camps := writeFile(t, dir, "camps.json", `[{"id": "c1", "fee": "1500"}]`)
	districts := writeFile(t, dir, "districts.json", `[]`)
	regs := writeFile(t, dir, "registrations.csv", "User,Camp\n7,1\n7,1\n")
	out := filepath.Join(dir, "campites.json")

	r = run(t, "campites", regs, users, camps, districts, out)
	require.NoError(t, r.err)
	assert.Contains(t, r.stderr, "wrote 2 campites (skipped 0)")

	var campites []domain.Campite
	readJSON(t, out, &campites)
	require.Len(t, campites, 2)
	assert.Equal(t, campites[0].UserID, campites[1].UserID)
	assert.Equal(t, "ada(at)x.com", campites[0].Email)
}
