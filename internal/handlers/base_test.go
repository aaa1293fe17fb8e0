package handlers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/store/memstore"
)

func newTestBase(t *testing.T) (*Base, *memstore.Store) {
	t.Helper()
	mem := memstore.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBase(store.Static{Store: mem}, logger, Options{MaxPageSize: 2}), mem
}

func TestCreateElementAnchorOptions(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)

	owner, err := b.CreateElement(ctx, "create", "Owner", &NewElementOptions{IsOwnAnchor: true}, "Owner::a", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, owner.GUID, owner.AnchorGUID())

	dep, err := b.CreateElement(ctx, "create", "Dependent", &NewElementOptions{AnchorGUID: owner.GUID}, "Dependent::a", nil, map[string]any{"name": "d"})
	require.NoError(t, err)
	assert.Equal(t, owner.GUID, dep.AnchorGUID())
	assert.Equal(t, "Dependent::a", dep.StringProperty(store.PropQualifiedName))

	_, err = b.CreateElement(ctx, "create", "Dependent", &NewElementOptions{AnchorGUID: owner.GUID, IsOwnAnchor: true}, "x", nil, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = b.CreateElement(ctx, "create", "Dependent", &NewElementOptions{AnchorGUID: "not-a-guid"}, "x", nil, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = b.CreateElement(ctx, "create", "Dependent", &NewElementOptions{AnchorGUID: "5f0b8f4e-2a47-4a43-9a0c-0d6f1e1d2c3b"}, "x", nil, nil)
	assert.True(t, faults.IsCategory(err, faults.NotFound))

	_, err = b.CreateElement(ctx, "create", "Dependent", nil, "", nil, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestCreateElementLinksParent(t *testing.T) {
	ctx := context.Background()
	b, mem := newTestBase(t)

	parent, err := b.CreateElement(ctx, "create", "Parent", nil, "Parent::p", nil, nil)
	require.NoError(t, err)

	child, err := b.CreateElement(ctx, "create", "Child", &NewElementOptions{
		ParentGUID:                 parent.GUID,
		ParentRelationshipTypeName: "Owns",
		ParentAtEnd1:               true,
	}, "Child::c", nil, nil)
	require.NoError(t, err)

	rels, err := mem.ListRelationships(ctx, &store.RelationshipQuery{TypeName: "Owns"})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, parent.GUID, rels[0].End1GUID)
	assert.Equal(t, child.GUID, rels[0].End2GUID)

	_, err = b.CreateElement(ctx, "create", "Child", &NewElementOptions{ParentGUID: parent.GUID}, "Child::d", nil, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestGetElementChecksTypeAndEffectivity(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)

	el, err := b.CreateElement(ctx, "create", "Thing", nil, "Thing::t", nil, map[string]any{
		store.PropEffectiveFrom: "2026-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	got, err := b.GetElement(ctx, "get", "Thing", el.GUID, nil)
	require.NoError(t, err)
	assert.Equal(t, el.GUID, got.GUID)

	_, err = b.GetElement(ctx, "get", "Other", el.GUID, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	before := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = b.GetElement(ctx, "get", "Thing", el.GUID, &before)
	assert.True(t, faults.IsCategory(err, faults.NotFound))

	_, err = b.GetElement(ctx, "get", "Thing", "", nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestFindByNameMatchesQualifiedAndDisplayNames(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)

	a, err := b.CreateElement(ctx, "create", "Thing", nil, "Sales", nil, map[string]any{store.PropDisplayName: "Sales"})
	require.NoError(t, err)
	c, err := b.CreateElement(ctx, "create", "Thing", nil, "Thing::other", nil, map[string]any{store.PropDisplayName: "Sales"})
	require.NoError(t, err)
	_, err = b.CreateElement(ctx, "create", "Thing", nil, "Thing::third", nil, map[string]any{store.PropDisplayName: "Marketing"})
	require.NoError(t, err)

	found, err := b.FindByName(ctx, "find", "Thing", "Sales", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, a.GUID, found[0].GUID)
	assert.Equal(t, c.GUID, found[1].GUID)

	found, err = b.FindByName(ctx, "find", "Thing", "Sales", QueryOptions{StartFrom: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, c.GUID, found[0].GUID)

	_, err = b.FindByName(ctx, "find", "Thing", "Sales", QueryOptions{PageSize: 5})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestSearchIsCaseInsensitiveRegex(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)
	for _, qn := range []string{"Chain::Orders", "Chain::orders-archive", "Chain::Invoices"} {
		_, err := b.CreateElement(ctx, "create", "Chain", nil, qn, nil, nil)
		require.NoError(t, err)
	}

	found, err := b.Search(ctx, "find", "Chain", "ORDERS", QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	now := time.Now()
	found, err = b.Search(ctx, "find", "Chain", ".*", QueryOptions{EffectiveTime: &now})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = b.Search(ctx, "find", "Chain", "", QueryOptions{})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestUpdateReplaceKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)

	owner, err := b.CreateElement(ctx, "create", "Owner", nil, "Owner::o", nil, nil)
	require.NoError(t, err)
	el, err := b.CreateElement(ctx, "create", "Thing", &NewElementOptions{AnchorGUID: owner.GUID}, "Thing::t", nil, map[string]any{
		"description": "old",
		"category":    "keep?",
	})
	require.NoError(t, err)

	merged, err := b.Update(ctx, "update", "Thing", el.GUID, false, map[string]any{"description": "new"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", merged.StringProperty("description"))
	assert.Equal(t, "keep?", merged.StringProperty("category"))

	replaced, err := b.Update(ctx, "update", "Thing", el.GUID, true, map[string]any{"description": "only"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "only", replaced.StringProperty("description"))
	assert.Empty(t, replaced.StringProperty("category"))
	assert.Equal(t, "Thing::t", replaced.StringProperty(store.PropQualifiedName))
	assert.Equal(t, owner.GUID, replaced.AnchorGUID())

	_, err = b.Update(ctx, "update", "Thing", el.GUID, false, map[string]any{store.PropQualifiedName: ""}, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)
	el, err := b.CreateElement(ctx, "create", "Thing", nil, "Thing::s", nil, map[string]any{PropContentStatus: "DRAFT"})
	require.NoError(t, err)

	got, err := b.UpdateStatus(ctx, "status", "Thing", el.GUID, "PROPOSED")
	require.NoError(t, err)
	assert.Equal(t, "PROPOSED", got.StringProperty(PropContentStatus))

	_, err = b.UpdateStatus(ctx, "status", "Thing", el.GUID, "DEPRECATED")
	assert.True(t, faults.IsCategory(err, faults.Conflict))

	_, err = b.UpdateStatus(ctx, "status", "Thing", el.GUID, "BOGUS")
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestDeleteCascadesThroughAnchors(t *testing.T) {
	ctx := context.Background()
	b, mem := newTestBase(t)

	root, err := b.CreateElement(ctx, "create", "Root", &NewElementOptions{IsOwnAnchor: true}, "Root::r", nil, nil)
	require.NoError(t, err)
	last := root.GUID
	for _, qn := range []string{"Dep::1", "Dep::2", "Dep::3"} {
		dep, err := b.CreateElement(ctx, "create", "Dep", &NewElementOptions{AnchorGUID: last}, qn, nil, nil)
		require.NoError(t, err)
		last = dep.GUID
	}
	_, err = b.CreateElement(ctx, "create", "Dep", &NewElementOptions{AnchorGUID: root.GUID}, "Dep::sibling", nil, nil)
	require.NoError(t, err)
	unrelated, err := b.CreateElement(ctx, "create", "Other", nil, "Other::o", nil, nil)
	require.NoError(t, err)

	err = b.Delete(ctx, "delete", "Root", root.GUID, false)
	assert.True(t, faults.IsCategory(err, faults.Conflict))
	assert.Equal(t, 6, mem.Len())

	require.NoError(t, b.Delete(ctx, "delete", "Root", root.GUID, true))
	assert.Equal(t, 1, mem.Len())
	_, err = mem.GetElement(ctx, unrelated.GUID)
	assert.NoError(t, err)

	leaf, err := b.CreateElement(ctx, "create", "Leaf", nil, "Leaf::l", nil, nil)
	require.NoError(t, err)
	assert.NoError(t, b.Delete(ctx, "delete", "Leaf", leaf.GUID, false))
}

func TestLinkUnlinkAndUpdateLink(t *testing.T) {
	ctx := context.Background()
	b, mem := newTestBase(t)
	a, err := b.CreateElement(ctx, "create", "A", nil, "A::a", nil, nil)
	require.NoError(t, err)
	c, err := b.CreateElement(ctx, "create", "C", nil, "C::c", nil, nil)
	require.NoError(t, err)

	first, err := b.LinkOnce(ctx, "link", "Uses", a.GUID, c.GUID, map[string]any{"label": "x", "description": "d"})
	require.NoError(t, err)
	again, err := b.LinkOnce(ctx, "link", "Uses", a.GUID, c.GUID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.GUID, again.GUID)

	updated, err := b.UpdateLink(ctx, "update", "Uses", a.GUID, c.GUID, false, map[string]any{"label": "y"})
	require.NoError(t, err)
	assert.Equal(t, "y", updated.Properties["label"])
	assert.Equal(t, "d", updated.Properties["description"])

	replaced, err := b.UpdateLink(ctx, "update", "Uses", a.GUID, c.GUID, true, map[string]any{"label": "z"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"label": "z"}, replaced.Properties)

	rels, err := mem.ListRelationships(ctx, &store.RelationshipQuery{TypeName: "Uses"})
	require.NoError(t, err)
	assert.Len(t, rels, 1)

	require.NoError(t, b.Unlink(ctx, "unlink", "Uses", a.GUID, c.GUID))
	err = b.Unlink(ctx, "unlink", "Uses", a.GUID, c.GUID)
	assert.True(t, faults.IsCategory(err, faults.NotFound))

	_, err = b.Link(ctx, "link", "Uses", a.GUID, "5f0b8f4e-2a47-4a43-9a0c-0d6f1e1d2c3b", nil)
	assert.True(t, faults.IsCategory(err, faults.NotFound))
}

func TestRelatedFiltersByEffectiveTime(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBase(t)
	hub, err := b.CreateElement(ctx, "create", "Hub", nil, "Hub::h", nil, nil)
	require.NoError(t, err)
	for i, to := range []string{"", "2026-03-01T00:00:00Z", ""} {
		props := map[string]any{}
		if to != "" {
			props[store.PropEffectiveTo] = to
		}
		spoke, err := b.CreateElement(ctx, "create", "Spoke", nil, "Spoke::"+string(rune('a'+i)), nil, props)
		require.NoError(t, err)
		_, err = b.Link(ctx, "link", "Spoke", hub.GUID, spoke.GUID, nil)
		require.NoError(t, err)
	}

	all, err := b.Related(ctx, "related", hub.GUID, "Spoke", store.AtEnd1, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "one page of the configured maximum")

	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	effective, err := b.Related(ctx, "related", hub.GUID, "Spoke", store.AtEnd1, QueryOptions{EffectiveTime: &at})
	require.NoError(t, err)
	require.Len(t, effective, 2)
	assert.Equal(t, "Spoke::a", effective[0].Element.QualifiedName)
	assert.Equal(t, "Spoke::c", effective[1].Element.QualifiedName)

	s, err := b.Store(ctx)
	require.NoError(t, err)
	everything, err := b.AllRelated(ctx, s, hub.GUID, "Spoke", store.AtEnd1, nil)
	require.NoError(t, err)
	assert.Len(t, everything, 3)
}

func TestSummarize(t *testing.T) {
	el := &store.Element{GUID: "g", TypeName: "T", QualifiedName: "T::q", Properties: map[string]any{store.PropName: "n"}}
	s := Summarize(el)
	assert.Equal(t, "n", s.DisplayName)
	assert.Equal(t, "g", s.Header.GUID)

	el.Properties = nil
	assert.Equal(t, "T::q", DisplayName(el))
}
