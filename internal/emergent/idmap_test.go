package emergent

import (
	"testing"

	"github.com/emergent-company/emergent/apps/server-go/pkg/sdk/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/store"
)

func TestIDSetVariants(t *testing.T) {
	assert.Equal(t, []string{""}, IDSet(nil).variants())
	assert.Equal(t, []string{"canon"}, NewIDSet("canon", "canon").variants())
	assert.Equal(t, []string{"canon", "v2"}, NewIDSet("v2", "canon").variants())
	assert.Equal(t, []string{"v1"}, NewIDSet("v1", "").variants())
}

func TestMergeRelationshipsCanonicalisesVersionEnds(t *testing.T) {
	idx := make(canonicalIndex)
	idx.add(&graph.GraphObject{ID: "coll-v3", CanonicalID: "coll"})
	idx.add(&graph.GraphObject{ID: "member-v1", CanonicalID: "member"})
	idx.add(&graph.GraphObject{ID: "plain"})

	byVersion := []*graph.GraphRelationship{
		{ID: "r1", Type: "CollectionMembership", SrcID: "coll-v3", DstID: "member-v1"},
		{ID: "r2", Type: "CollectionMembership", SrcID: "coll-v3", DstID: "plain"},
	}
	byCanonical := []*graph.GraphRelationship{
		{ID: "r1", Type: "CollectionMembership", SrcID: "coll-v3", DstID: "member-v1"},
		{ID: "r3", Type: "CollectionMembership", SrcID: "coll", DstID: "gone-v9"},
	}
	rels := mergeRelationships([][]*graph.GraphRelationship{byVersion, byCanonical}, idx)
	require.Len(t, rels, 3)

	ends := make(map[string][2]string)
	for _, r := range rels {
		ends[r.GUID] = [2]string{r.End1GUID, r.End2GUID}
	}
	assert.Equal(t, [2]string{"coll", "member"}, ends["r1"])
	assert.Equal(t, [2]string{"coll", "plain"}, ends["r2"])
	// An end the index cannot resolve is passed through.
	assert.Equal(t, [2]string{"coll", "gone-v9"}, ends["r3"])

	// Once canonical, the ends line up with element GUIDs for detach and link checks.
	detached := 0
	for _, r := range rels {
		if r.End1GUID == "coll" && r.End2GUID == "member" {
			detached++
		}
	}
	assert.Equal(t, 1, detached)
}

func TestCanonicalIndexUnknownEnds(t *testing.T) {
	idx := make(canonicalIndex)
	idx.add(&graph.GraphObject{ID: "a-v2", CanonicalID: "a"})
	items := []*graph.GraphRelationship{
		{ID: "r1", SrcID: "a-v2", DstID: "b-v1"},
		{ID: "r2", SrcID: "a", DstID: "b-v1"},
		{ID: "r3", SrcID: "c", DstID: ""},
	}
	assert.Equal(t, []string{"b-v1", "c"}, idx.unknown(items))
	assert.Equal(t, "a", idx.canonical("a-v2"))
	assert.Equal(t, "zzz", idx.canonical("zzz"))
}

func TestMatchSearch(t *testing.T) {
	key := "Collection::Sales"
	objs := []*graph.GraphObject{
		{ID: "1", Type: "Collection", Key: &key, Properties: map[string]any{"displayName": "Sales"}},
		{ID: "2", Type: "Collection", Properties: map[string]any{"qualifiedName": "Collection::Salt"}},
		nil,
	}
	re, err := store.CompileSearch("sales")
	require.NoError(t, err)
	matched := matchSearch(objs, re)
	require.Len(t, matched, 1)
	assert.Equal(t, "1", matched[0].GUID)

	re, err = store.CompileSearch("inventory")
	require.NoError(t, err)
	assert.Empty(t, matchSearch(objs, re))
}
