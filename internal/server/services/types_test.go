package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  StringList
	}{
		{"array", `["Go","SQL"]`, StringList{"Go", "SQL"}},
		{"plain string wrapped", `"golang"`, StringList{"golang"}},
		{"stringified array expanded", `"[\"Go\",\"SQL\"]"`, StringList{"Go", "SQL"}},
		{"empty array", `[]`, StringList{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			require.NoError(t, json.Unmarshal([]byte(tt.input), &l))
			assert.Equal(t, tt.want, l)
		})
	}

	var l StringList
	assert.Error(t, json.Unmarshal([]byte(`42`), &l), "numbers are not string lists")
}

func TestAnyList_UnmarshalJSON(t *testing.T) {
	var l AnyList
	require.NoError(t, json.Unmarshal([]byte(`[{"company":"Example Corp"}]`), &l))
	require.Len(t, l, 1)

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`"self-taught"`), &l))
	assert.Equal(t, AnyList{"self-taught"}, l)

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`"[{\"school\":\"MIT\"}]"`), &l))
	require.Len(t, l, 1)
	entry, ok := l[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "MIT", entry["school"])

	l = nil
	require.NoError(t, json.Unmarshal([]byte(`{"company":"Example Corp"}`), &l))
	require.Len(t, l, 1, "a bare object is wrapped into a one-element list")
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"1990-05-01"`), &d))
	assert.Equal(t, 1990, d.Year())
	assert.Equal(t, 5, int(d.Month()))

	var rfc Date
	require.NoError(t, json.Unmarshal([]byte(`"1990-05-01T12:30:00Z"`), &rfc))
	assert.Equal(t, 12, rfc.Hour())

	var bad Date
	assert.Error(t, json.Unmarshal([]byte(`"May 1st 1990"`), &bad))
}

func TestDate_MarshalJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"1990-05-01"`), &d))
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1990-05-01"`, string(b))
}

func TestUserPatch_IsEmpty(t *testing.T) {
	assert.True(t, (&UserPatch{}).IsEmpty())

	name := "Alice"
	assert.False(t, (&UserPatch{FirstName: &name}).IsEmpty())

	empty := ""
	assert.False(t, (&UserPatch{Bio: &empty}).IsEmpty(), "a provided zero value still counts as provided")
}
