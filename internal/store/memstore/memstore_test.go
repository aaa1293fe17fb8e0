package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
)

func TestElementLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	el, err := s.CreateElement(ctx, &store.NewElement{
		TypeName:        "Collection",
		QualifiedName:   "Collection::one",
		Classifications: []string{"Folder"},
		Properties:      map[string]any{"qualifiedName": "Collection::one", "description": "first"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, el.GUID)

	got, err := s.GetElement(ctx, el.GUID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.StringProperty("description"))
	assert.True(t, got.HasClassification("Folder"))

	got.Properties["description"] = "mutated"
	again, err := s.GetElement(ctx, el.GUID)
	require.NoError(t, err)
	assert.Equal(t, "first", again.StringProperty("description"), "returned elements are copies")

	updated, err := s.UpdateElement(ctx, el.GUID, map[string]any{"displayName": "One"}, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "first", updated.StringProperty("description"))
	assert.Equal(t, "One", updated.StringProperty("displayName"))
	assert.Equal(t, []string{"Folder"}, updated.Classifications)

	replaced, err := s.UpdateElement(ctx, el.GUID, map[string]any{"qualifiedName": "Collection::renamed"}, []string{}, true)
	require.NoError(t, err)
	assert.Empty(t, replaced.StringProperty("description"))
	assert.Equal(t, "Collection::renamed", replaced.QualifiedName)
	assert.Empty(t, replaced.Classifications)

	require.NoError(t, s.DeleteElement(ctx, el.GUID))
	_, err = s.GetElement(ctx, el.GUID)
	assert.True(t, faults.IsCategory(err, faults.NotFound))
	assert.True(t, faults.IsCategory(s.DeleteElement(ctx, el.GUID), faults.NotFound))
}

func TestFindElementsFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	mk := func(typeName, qn, category string, classifications ...string) {
		_, err := s.CreateElement(ctx, &store.NewElement{
			TypeName:        typeName,
			QualifiedName:   qn,
			Classifications: classifications,
			Properties:      map[string]any{"qualifiedName": qn, "category": category},
		})
		require.NoError(t, err)
	}
	mk("Collection", "c1", "reports", "Folder")
	mk("Collection", "c2", "reports", "DigitalProduct")
	mk("Collection", "c3", "data")
	mk("SolutionComponent", "s1", "reports")

	byType, err := s.FindElements(ctx, &store.Query{TypeName: "Collection"})
	require.NoError(t, err)
	assert.Len(t, byType, 3)

	byProp, err := s.FindElements(ctx, &store.Query{TypeName: "Collection", Properties: map[string]any{"category": "reports"}})
	require.NoError(t, err)
	assert.Len(t, byProp, 2)

	byClass, err := s.FindElements(ctx, &store.Query{Classifications: []string{"DigitalProduct"}})
	require.NoError(t, err)
	require.Len(t, byClass, 1)
	assert.Equal(t, "c2", byClass[0].QualifiedName)

	paged, err := s.FindElements(ctx, &store.Query{TypeName: "Collection", Paging: store.Paging{StartFrom: 1, PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "c2", paged[0].QualifiedName)

	found, err := s.SearchElements(ctx, "Collection", "C[13]", store.Paging{})
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestRelationshipsRequireBothEndsAndVanishWithElements(t *testing.T) {
	ctx := context.Background()
	s := New()
	a, err := s.CreateElement(ctx, &store.NewElement{TypeName: "Collection"})
	require.NoError(t, err)
	b, err := s.CreateElement(ctx, &store.NewElement{TypeName: "Collection"})
	require.NoError(t, err)

	_, err = s.CreateRelationship(ctx, "CollectionMembership", a.GUID, "missing", nil)
	assert.True(t, faults.IsCategory(err, faults.NotFound))

	rel, err := s.CreateRelationship(ctx, "CollectionMembership", a.GUID, b.GUID, map[string]any{"notes": "x"})
	require.NoError(t, err)

	rels, err := s.ListRelationships(ctx, &store.RelationshipQuery{End2GUID: b.GUID})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, rel.GUID, rels[0].GUID)
	assert.Equal(t, "x", rels[0].Properties["notes"])

	require.NoError(t, s.DeleteElement(ctx, b.GUID))
	rels, err = s.ListRelationships(ctx, &store.RelationshipQuery{End1GUID: a.GUID})
	require.NoError(t, err)
	assert.Empty(t, rels)
	assert.True(t, faults.IsCategory(s.DeleteRelationship(ctx, rel.GUID), faults.NotFound))
}
