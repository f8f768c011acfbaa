package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Rank(t *testing.T) {
	assert.Greater(t, SeverityEmergency.Rank(), SeverityWarning.Rank())
	assert.Greater(t, SeverityWarning.Rank(), SeverityInfo.Rank())
	assert.False(t, Severity("critical").Valid())
	assert.True(t, SeverityEmergency.Valid())
}

func TestTargetRegions_UnmarshalJSON_Lenient(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want TargetRegions
	}{
		{
			name: "well formed",
			in:   `{"states":["Telangana"],"districts":["Warangal"],"cities":[]}`,
			want: TargetRegions{States: []string{"Telangana"}, Districts: []string{"Warangal"}, Cities: []string{}},
		},
		{
			name: "string instead of array",
			in:   `{"states":"Telangana","cities":["Hyderabad"]}`,
			want: TargetRegions{States: []string{}, Districts: []string{}, Cities: []string{"Hyderabad"}},
		},
		{
			name: "mixed element types",
			in:   `{"states":[1,"Kerala"],"districts":{"a":1}}`,
			want: TargetRegions{States: []string{}, Districts: []string{}, Cities: []string{}},
		},
		{
			name: "not an object",
			in:   `"everywhere"`,
			want: TargetRegions{States: []string{}, Districts: []string{}, Cities: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TargetRegions
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlert_MalformedRegionsInsideDocument(t *testing.T) {
	var a Alert
	err := json.Unmarshal([]byte(`{"title":"x","targetRegions":{"states":42}}`), &a)
	require.NoError(t, err)
	assert.True(t, a.TargetRegions.IsGlobal())
}

func TestTargetRegions_Normalize(t *testing.T) {
	r := TargetRegions{States: []string{"Kerala", "", "Kerala", "Goa"}}.Normalize()

	assert.Equal(t, []string{"Kerala", "Goa"}, r.States)
	assert.NotNil(t, r.Districts)
	assert.NotNil(t, r.Cities)
	assert.False(t, r.IsGlobal())
	assert.True(t, TargetRegions{}.IsGlobal())
}

func TestAlert_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	assert.False(t, (&Alert{}).Expired(now))
	assert.True(t, (&Alert{ExpiresAt: &past}).Expired(now))
	assert.False(t, (&Alert{ExpiresAt: &future}).Expired(now))
}

func TestRole_IsAdmin(t *testing.T) {
	assert.False(t, RoleUser.IsAdmin())
	assert.True(t, RoleInstitutionAdmin.IsAdmin())
	assert.True(t, RoleSuperAdmin.IsAdmin())
	assert.False(t, Role("root").Valid())
}
