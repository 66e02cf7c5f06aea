package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/pkg/ingest"
)

func TestSynthesizeUsers_FirstEmailWins(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, "ID,First Name,Last Name,Email,Phone,Date Joined\n"+
		"7,Ada,Lovelace,Ada@X.com,0801,2024-01-02\n"+
		"8,Other,Person,ada@x.com ,,2024-02-02\n"+
		"9,No,Mail,,,2024-01-01\n"+
		",Bo,Kim,bo@x.com,,03/15/2024\n")

	users, err := SynthesizeUsers(tbl, ingest.DefaultProfile())
	require.NoError(t, err)
	require.Len(t, users, 2)

	ada := users[0]
	assert.Equal(t, "Ada", ada.FirstName)
	assert.Equal(t, "Ada@X.com", ada.Email)
	assert.Equal(t, UserID("ada@x.com"), ada.ID)
	require.NotNil(t, ada.LegacyID)
	assert.Equal(t, domain.ID("7"), *ada.LegacyID)
	require.NotNil(t, ada.Phone)
	assert.Equal(t, "0801", *ada.Phone)
	assert.Equal(t, domain.RoleUser, ada.Role)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ada.CreatedAt)
	assert.Equal(t, ada.CreatedAt, ada.UpdatedAt)

	bo := users[1]
	assert.Nil(t, bo.LegacyID)
	assert.Nil(t, bo.Phone)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), bo.CreatedAt)
}

func TestSynthesizeUsers_JoinedOnRequired(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, "Email,Name\na@x.com,A\n")
	_, err := SynthesizeUsers(tbl, ingest.DefaultProfile())
	require.ErrorIs(t, err, ingest.ErrSchemaAssumption)

	tbl = readTable(t, "Email,Joined\na@x.com,\n")
	_, err = SynthesizeUsers(tbl, ingest.DefaultProfile())
	var de *DateError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Line)
	assert.Equal(t, "Joined", de.Column)
}

func TestSynthesizeUsers_RoleColumn(t *testing.T) {
	t.Parallel()

	tbl := readTable(t, "Email,Role,Joined\na@x.com,admin,2024-01-01\nb@x.com,,2024-01-01\n")
	users, err := SynthesizeUsers(tbl, ingest.DefaultProfile())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, domain.Role("admin"), users[0].Role)
	assert.Equal(t, domain.RoleUser, users[1].Role)
}
