package params

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
)

func TestSchema(t *testing.T) {
	raw := Schema(
		String("guid", "GUID of the thing").Req(),
		String("status", "").OneOf("ACTIVE", "DRAFT"),
		Bool("cascade", "Delete anchored elements"),
		Int("page_size", "Page size").Req(),
	)

	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"guid", "page_size"}, schema.Required)
	assert.Equal(t, "boolean", schema.Properties["cascade"]["type"])
	assert.Equal(t, []any{"ACTIVE", "DRAFT"}, schema.Properties["status"]["enum"])
	assert.NotContains(t, schema.Properties["status"], "description")

	assert.NotContains(t, string(Schema(String("x", "y"))), "required")
}

func TestWith(t *testing.T) {
	base := []Field{String("a", ""), String("b", "")}
	got := With(base, String("z", ""))
	require.Len(t, got, 3)
	assert.Equal(t, "z", got[0].Name)
	assert.Equal(t, "b", got[2].Name)
	assert.Len(t, base, 2)
}

func TestQueryOptions(t *testing.T) {
	q, err := Query{StartFrom: 5, PageSize: 2, EffectiveTime: "2026-01-02T03:04:05Z"}.Options()
	require.NoError(t, err)
	assert.Equal(t, 5, q.StartFrom)
	assert.Equal(t, 2, q.PageSize)
	require.NotNil(t, q.EffectiveTime)
	assert.True(t, q.EffectiveTime.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	q, err = Query{}.Options()
	require.NoError(t, err)
	assert.Nil(t, q.EffectiveTime)

	_, err = Query{EffectiveTime: "yesterday"}.Options()
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
	assert.Contains(t, err.Error(), "effective_time")

	_, err = GUID{GUID: "g", EffectiveTime: "soon"}.At()
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestAnchorOptions(t *testing.T) {
	assert.Nil(t, Anchor{}.Options())

	opts := Anchor{ParentGUID: "p", ParentRel: "ResourceList", ParentEnd1: true}.Options()
	require.NotNil(t, opts)
	assert.Equal(t, "p", opts.ParentGUID)
	assert.Equal(t, "ResourceList", opts.ParentRelationshipTypeName)
	assert.True(t, opts.ParentAtEnd1)
	assert.False(t, opts.IsOwnAnchor)
}
