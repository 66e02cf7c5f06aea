package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalStringOrNumber(t *testing.T) {
	t.Parallel()

	var got struct {
		A ID  `json:"a"`
		B ID  `json:"b"`
		C *ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":12,"b":"u-7","c":null}`), &got))
	assert.Equal(t, ID("12"), got.A)
	assert.Equal(t, ID("u-7"), got.B)
	assert.Nil(t, got.C)

	var bad ID
	require.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}

func TestID_Marshal(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal([]ID{"12", "007", "u-7", "-3"})
	require.NoError(t, err)
	assert.JSONEq(t, `[12,"007","u-7",-3]`, string(b))
}

func TestCampite_JSONNullability(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Campite{ID: "c1", UserID: "u1", Type: CampiteRegular})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	v, ok := m["camp_id"]
	assert.True(t, ok)
	assert.Nil(t, v)
	v, ok = m["amount"]
	assert.True(t, ok)
	assert.Nil(t, v)
	_, ok = m["district_id"]
	assert.False(t, ok, "unresolved district must be absent, not null")
}
