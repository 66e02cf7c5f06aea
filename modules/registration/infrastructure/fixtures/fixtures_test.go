package fixtures

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campsite-dev/campseed/modules/registration/domain"
)

func writeFixture(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadCamps_KeepsOrderAndFee(t *testing.T) {
	t.Parallel()

	p := writeFixture(t, "camps.json", `[
		{"id": 3, "title": "Teens", "fee": "1500.00", "venue": "ignored"},
		{"id": "c-1", "fee": 2000},
		{"id": 9, "fee": null}
	]`)
	camps, err := LoadCamps(p)
	require.NoError(t, err)
	require.Len(t, camps, 3)
	assert.Equal(t, domain.ID("3"), camps[0].ID)
	assert.True(t, camps[0].Fee.Valid)
	assert.Equal(t, "1500", camps[0].Fee.Decimal.String())
	assert.Equal(t, domain.ID("c-1"), camps[1].ID)
	assert.False(t, camps[2].Fee.Valid)
}

func TestLoadUsers_Validation(t *testing.T) {
	t.Parallel()

	p := writeFixture(t, "users.json", `[{"id": 1, "email": "a@x.com", "legacy_id": 77}]`)
	users, err := LoadUsers(p)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].LegacyID)
	assert.Equal(t, domain.ID("77"), *users[0].LegacyID)

	p = writeFixture(t, "bad.json", `[{"id": 1, "email": "a@x.com"}, {"email": "b@x.com"}]`)
	_, err = LoadUsers(p)
	require.ErrorIs(t, err, ErrInvalidFixture)
	assert.Contains(t, err.Error(), "item 1")

	p = writeFixture(t, "mail.json", `[{"id": 1, "email": "ada(at)x.com"}]`)
	users, err = LoadUsers(p)
	require.NoError(t, err, "legacy emails are kept as exported")
	assert.Equal(t, "ada(at)x.com", users[0].Email)
}

func TestLoadDistricts_NotArray(t *testing.T) {
	t.Parallel()

	p := writeFixture(t, "d.json", `{"id": 1, "name": "Lagos"}`)
	_, err := LoadDistricts(p)
	require.ErrorIs(t, err, ErrInvalidFixture)

	_, err = LoadDistricts(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "out", "districts.json")
	require.NoError(t, WriteFile(p, []domain.District{{ID: "1", Name: "A&B", Zones: []string{}}}))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"name": "A&B"`))
	assert.True(t, strings.Contains(string(b), `"id": 1`))

	back, err := LoadDistricts(p)
	require.NoError(t, err)
	assert.Equal(t, "A&B", back[0].Name)
}
