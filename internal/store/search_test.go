package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
)

func TestMatchesSearch(t *testing.T) {
	el := &Element{
		QualifiedName: "Collection::Clinical Trials",
		Properties: map[string]any{
			"description": "Data from the Drop Foot study",
			"tags":        []any{"oncology", "phase-2"},
			"nested":      map[string]any{"owner": "Tanya"},
			"count":       3.0,
		},
	}

	tests := []struct {
		search string
		want   bool
	}{
		{"clinical", true},
		{"DROP FOOT", true},
		{"onco.*", true},
		{"tanya", true},
		{"^Collection::", true},
		{"genomics", false},
		{"3", false},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			re, err := CompileSearch(tt.search)
			require.NoError(t, err)
			assert.Equal(t, tt.want, MatchesSearch(el, re))
		})
	}
}

func TestCompileSearchRejectsBadRegex(t *testing.T) {
	_, err := CompileSearch("([a-z")
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestIsLiteralSearch(t *testing.T) {
	assert.True(t, IsLiteralSearch("clinical trials"))
	assert.False(t, IsLiteralSearch("clin.*"))
}

func TestPropertiesRoundTrip(t *testing.T) {
	type bean struct {
		QualifiedName string            `json:"qualifiedName"`
		Count         int               `json:"count,omitempty"`
		Extra         map[string]string `json:"extra,omitempty"`
	}
	props, err := ToProperties(bean{QualifiedName: "q", Extra: map[string]string{"a": "b"}})
	require.NoError(t, err)
	assert.Equal(t, "q", props["qualifiedName"])
	assert.NotContains(t, props, "count")

	back, err := FromProperties[bean](props)
	require.NoError(t, err)
	assert.Equal(t, "b", back.Extra["a"])

	merged := Merge(map[string]any{"a": 1, "b": 2}, map[string]any{"b": 3})
	assert.Equal(t, map[string]any{"a": 1, "b": 3}, merged)
}
