package collections

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/store/memstore"
)

func newHandler(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	mem := memstore.New()
	base := handlers.NewBase(store.Static{Store: mem}, slog.New(slog.NewTextHandler(io.Discard, nil)), handlers.Options{MaxPageSize: 10, MaxDepth: 3})
	return New(base), mem
}

func mustCreate(t *testing.T, h *Handler, qn, classification string) string {
	t.Helper()
	guid, err := h.CreateCollection(context.Background(), nil, classification, &CollectionProperties{
		QualifiedName: qn,
		DisplayName:   strings.TrimPrefix(qn, "Collection::"),
		Category:      "reports",
	})
	require.NoError(t, err)
	return guid
}

func mustElement(t *testing.T, mem *memstore.Store, typeName, qn string) string {
	t.Helper()
	el, err := mem.CreateElement(context.Background(), &store.NewElement{
		TypeName:      typeName,
		QualifiedName: qn,
		Properties:    map[string]any{store.PropQualifiedName: qn, store.PropName: qn},
	})
	require.NoError(t, err)
	return el.GUID
}

func TestCreateAndGetCollection(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)

	guid := mustCreate(t, h, "Collection::Sales", ClassFolder)
	c, err := h.GetCollectionByGUID(ctx, guid, nil)
	require.NoError(t, err)
	assert.Equal(t, "Collection::Sales", c.Properties.QualifiedName)
	assert.Equal(t, "Sales", c.Properties.DisplayName)
	assert.Equal(t, "ACTIVE", c.Properties.ContentStatus)
	assert.Equal(t, []string{ClassFolder}, c.Header.Classifications)
	assert.Nil(t, c.DigitalProduct)

	_, err = h.CreateCollection(ctx, nil, "Bogus", &CollectionProperties{QualifiedName: "x"})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = h.CreateCollection(ctx, nil, "", nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = h.CreateCollection(ctx, nil, "", &CollectionProperties{})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestEffectiveDatesHideCollection(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	guid, err := h.CreateCollection(ctx, nil, "", &CollectionProperties{QualifiedName: "Collection::Future", EffectiveFrom: &from})
	require.NoError(t, err)

	early := from.Add(-time.Hour)
	_, err = h.GetCollectionByGUID(ctx, guid, &early)
	assert.True(t, faults.IsCategory(err, faults.NotFound))

	late := from.Add(time.Hour)
	c, err := h.GetCollectionByGUID(ctx, guid, &late)
	require.NoError(t, err)
	require.NotNil(t, c.Properties.EffectiveFrom)
	assert.True(t, from.Equal(*c.Properties.EffectiveFrom))
}

func TestDigitalProducts(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)

	consumer, err := h.CreateDigitalProduct(ctx, nil, &CollectionProperties{QualifiedName: "Product::Consumer"}, &DigitalProductProperties{ProductName: "Consumer", Maturity: "beta"})
	require.NoError(t, err)
	supplier, err := h.CreateDigitalProduct(ctx, nil, &CollectionProperties{QualifiedName: "Product::Supplier"}, &DigitalProductProperties{ProductName: "Supplier"})
	require.NoError(t, err)
	plain := mustCreate(t, h, "Collection::Plain", "")

	_, err = h.CreateDigitalProduct(ctx, nil, &CollectionProperties{QualifiedName: "Product::Nameless"}, &DigitalProductProperties{})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	require.NoError(t, h.UpdateDigitalProduct(ctx, consumer, &DigitalProductProperties{Maturity: "ga"}))
	c, err := h.GetCollectionByGUID(ctx, consumer, nil)
	require.NoError(t, err)
	require.NotNil(t, c.DigitalProduct)
	assert.Equal(t, "Consumer", c.DigitalProduct.ProductName)
	assert.Equal(t, "ga", c.DigitalProduct.Maturity)

	err = h.UpdateDigitalProduct(ctx, plain, &DigitalProductProperties{Maturity: "ga"})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = h.LinkDigitalProductDependency(ctx, consumer, supplier, &DependencyProperties{Label: "feeds"})
	require.NoError(t, err)
	_, err = h.LinkDigitalProductDependency(ctx, consumer, plain, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	require.NoError(t, h.DetachDigitalProductDependency(ctx, consumer, supplier))
	assert.True(t, faults.IsCategory(h.DetachDigitalProductDependency(ctx, consumer, supplier), faults.NotFound))

	byClass, err := h.GetCollectionsByClassification(ctx, ClassDigitalProduct, handlers.QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, byClass, 2)
}

func TestUpdateCollection(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	guid := mustCreate(t, h, "Collection::Ops", "")

	require.NoError(t, h.UpdateCollection(ctx, guid, false, &CollectionProperties{Description: "operations"}))
	c, err := h.GetCollectionByGUID(ctx, guid, nil)
	require.NoError(t, err)
	assert.Equal(t, "operations", c.Properties.Description)
	assert.Equal(t, "reports", c.Properties.Category)

	require.NoError(t, h.UpdateCollection(ctx, guid, true, &CollectionProperties{DisplayName: "Ops"}))
	c, err = h.GetCollectionByGUID(ctx, guid, nil)
	require.NoError(t, err)
	assert.Empty(t, c.Properties.Category)
	assert.Equal(t, "Collection::Ops", c.Properties.QualifiedName)
	assert.Equal(t, "ACTIVE", c.Properties.ContentStatus)

	err = h.UpdateCollection(ctx, guid, false, &CollectionProperties{ContentStatus: "DRAFT"})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	require.NoError(t, h.UpdateCollectionStatus(ctx, guid, "DEPRECATED"))
	assert.True(t, faults.IsCategory(h.UpdateCollectionStatus(ctx, guid, "PROPOSED"), faults.Conflict))
}

func TestReplaceCollectionKeepsProductProperties(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	intro := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	guid, err := h.CreateDigitalProduct(ctx, nil, &CollectionProperties{QualifiedName: "Product::Widget", Category: "retail"},
		&DigitalProductProperties{ProductName: "Widget", Maturity: "beta", IntroductionDate: &intro})
	require.NoError(t, err)

	require.NoError(t, h.UpdateCollection(ctx, guid, true, &CollectionProperties{QualifiedName: "Product::Widget", Description: "new"}))
	c, err := h.GetCollectionByGUID(ctx, guid, nil)
	require.NoError(t, err)
	assert.Equal(t, "new", c.Properties.Description)
	assert.Empty(t, c.Properties.Category)
	require.NotNil(t, c.DigitalProduct)
	assert.Equal(t, "Widget", c.DigitalProduct.ProductName)
	assert.Equal(t, "beta", c.DigitalProduct.Maturity)
	require.NotNil(t, c.DigitalProduct.IntroductionDate)
	assert.True(t, intro.Equal(*c.DigitalProduct.IntroductionDate))
}

func TestRetrievals(t *testing.T) {
	ctx := context.Background()
	h, _ := newHandler(t)
	mustCreate(t, h, "Collection::Sales", "")
	mustCreate(t, h, "Collection::Sales Archive", ClassSet)
	other, err := h.CreateCollection(ctx, nil, "", &CollectionProperties{QualifiedName: "Collection::HR", Category: "people"})
	require.NoError(t, err)

	byName, err := h.GetCollectionsByName(ctx, "Sales", handlers.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Collection::Sales", byName[0].Properties.QualifiedName)

	byCategory, err := h.GetCollectionsByCategory(ctx, "people", handlers.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, other, byCategory[0].Header.GUID)

	found, err := h.FindCollections(ctx, "sales", handlers.QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = h.FindCollections(ctx, "(", handlers.QueryOptions{})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = h.GetCollectionsByClassification(ctx, "Bogus", handlers.QueryOptions{})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))
}

func TestMembership(t *testing.T) {
	ctx := context.Background()
	h, mem := newHandler(t)
	coll := mustCreate(t, h, "Collection::Assets", "")
	asset := mustElement(t, mem, "Asset", "Asset::orders")

	rel, err := h.AddToCollection(ctx, coll, asset, &CollectionMembershipProperties{MembershipRationale: "core", Confidence: 80})
	require.NoError(t, err)
	again, err := h.AddToCollection(ctx, coll, asset, nil)
	require.NoError(t, err)
	assert.Equal(t, rel, again)

	_, err = h.AddToCollection(ctx, coll, asset, &CollectionMembershipProperties{Status: "MAYBE"})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	_, err = h.AddToCollection(ctx, asset, coll, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter), "end 1 must be a collection")

	require.NoError(t, h.UpdateCollectionMembership(ctx, coll, asset, false, &CollectionMembershipProperties{Status: MemberValidated}))
	members, err := h.GetCollectionMembers(ctx, coll, handlers.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "core", members[0].Membership.MembershipRationale)
	assert.Equal(t, 80, members[0].Membership.Confidence)
	assert.Equal(t, MemberValidated, members[0].Membership.Status)
	assert.Equal(t, asset, members[0].Member.Header.GUID)
	assert.Equal(t, "Asset::orders", members[0].Member.DisplayName)

	require.NoError(t, h.RemoveFromCollection(ctx, coll, asset))
	members, err = h.GetCollectionMembers(ctx, coll, handlers.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestAttachCollection(t *testing.T) {
	ctx := context.Background()
	h, mem := newHandler(t)
	project := mustElement(t, mem, "Project", "Project::p")
	coll := mustCreate(t, h, "Collection::Docs", ClassFolder)

	_, err := h.AttachCollection(ctx, project, coll, &ResourceListProperties{ResourceUse: "documentation", Watch: true})
	require.NoError(t, err)

	attached, err := h.GetAttachedCollections(ctx, project, handlers.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, attached, 1)
	assert.Equal(t, coll, attached[0].Collection.Header.GUID)
	assert.Equal(t, "documentation", attached[0].ResourceList.ResourceUse)
	assert.True(t, attached[0].ResourceList.Watch)

	require.NoError(t, h.DetachCollection(ctx, project, coll))
	attached, err = h.GetAttachedCollections(ctx, project, handlers.QueryOptions{})
	require.NoError(t, err)
	assert.Empty(t, attached)
}

func TestAgreements(t *testing.T) {
	ctx := context.Background()
	h, mem := newHandler(t)
	agreement := mustCreate(t, h, "Collection::Agreement", "")
	actor := mustElement(t, mem, "Person", "Person::ann")
	item := mustElement(t, mem, "Asset", "Asset::data")

	_, err := h.LinkAgreementActor(ctx, agreement, actor, &AgreementActorProperties{ActorName: "consumer"})
	require.NoError(t, err)
	require.NoError(t, h.DetachAgreementActor(ctx, agreement, actor))

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	_, err = h.LinkAgreementItem(ctx, agreement, item, &AgreementItemProperties{AgreementItemID: "1", AgreementStart: &start, AgreementEnd: &end})
	require.NoError(t, err)

	_, err = h.LinkAgreementItem(ctx, agreement, item, &AgreementItemProperties{AgreementStart: &end, AgreementEnd: &start})
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter))

	rels, err := mem.ListRelationships(ctx, &store.RelationshipQuery{TypeName: RelAgreementItem})
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "1", rels[0].Properties["agreementItemId"])

	require.NoError(t, h.DetachAgreementItem(ctx, agreement, item))
}

func TestCreateCollectionFromTemplate(t *testing.T) {
	ctx := context.Background()
	h, mem := newHandler(t)
	template, err := h.CreateCollection(ctx, nil, ClassWorkItemList, &CollectionProperties{
		QualifiedName: "Collection::{{team}}::Backlog",
		DisplayName:   "{{team}} backlog",
		AdditionalProperties: map[string]string{
			"owner": "{{team}} lead",
		},
	})
	require.NoError(t, err)
	asset := mustElement(t, mem, "Asset", "Asset::board")
	_, err = h.AddToCollection(ctx, template, asset, &CollectionMembershipProperties{MembershipRationale: "board"})
	require.NoError(t, err)

	guid, err := h.CreateCollectionFromTemplate(ctx, nil, template, &CollectionProperties{Description: "copied"}, map[string]string{"team": "Platform"})
	require.NoError(t, err)

	c, err := h.GetCollectionByGUID(ctx, guid, nil)
	require.NoError(t, err)
	assert.Equal(t, "Collection::Platform::Backlog", c.Properties.QualifiedName)
	assert.Equal(t, "Platform backlog", c.Properties.DisplayName)
	assert.Equal(t, "copied", c.Properties.Description)
	assert.Equal(t, "Platform lead", c.Properties.AdditionalProperties["owner"])
	assert.Equal(t, "DRAFT", c.Properties.ContentStatus)
	assert.Equal(t, []string{ClassWorkItemList}, c.Header.Classifications)

	members, err := h.GetCollectionMembers(ctx, guid, handlers.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "board", members[0].Membership.MembershipRationale)

	sourced, err := mem.ListRelationships(ctx, &store.RelationshipQuery{TypeName: RelSourcedFrom, End1GUID: guid})
	require.NoError(t, err)
	require.Len(t, sourced, 1)
	assert.Equal(t, template, sourced[0].End2GUID)

	_, err = h.CreateCollectionFromTemplate(ctx, nil, template, nil, nil)
	assert.True(t, faults.IsCategory(err, faults.InvalidParameter), "unsubstituted qualified name collides with the template")
}

func TestDeleteCollectionCascade(t *testing.T) {
	ctx := context.Background()
	h, mem := newHandler(t)
	owner := mustCreate(t, h, "Collection::Owner", "")
	_, err := h.CreateCollection(ctx, &handlers.NewElementOptions{AnchorGUID: owner}, "", &CollectionProperties{QualifiedName: "Collection::Owned"})
	require.NoError(t, err)

	assert.True(t, faults.IsCategory(h.DeleteCollection(ctx, owner, false), faults.Conflict))
	require.NoError(t, h.DeleteCollection(ctx, owner, true))
	assert.Equal(t, 0, mem.Len())
}

func TestCollectionGraph(t *testing.T) {
	ctx := context.Background()
	h, mem := newHandler(t)
	root := mustCreate(t, h, "Collection::Root", "")
	child := mustCreate(t, h, "Collection::Child", "")
	asset := mustElement(t, mem, "Asset", "Asset::leaf")

	_, err := h.AddToCollection(ctx, root, child, &CollectionMembershipProperties{MembershipRationale: "nested"})
	require.NoError(t, err)
	_, err = h.AddToCollection(ctx, child, asset, nil)
	require.NoError(t, err)
	// cycle back to the root
	_, err = h.AddToCollection(ctx, child, root, nil)
	require.NoError(t, err)

	g, err := h.GetCollectionGraph(ctx, root, nil)
	require.NoError(t, err)
	require.Len(t, g.Members, 1)
	assert.Equal(t, child, g.Members[0].Member.Header.GUID)
	require.Len(t, g.Members[0].Members, 2)
	assert.Equal(t, asset, g.Members[0].Members[0].Member.Header.GUID)
	assert.Empty(t, g.Members[0].Members[1].Members, "the root is not expanded twice")

	assert.Contains(t, g.MermaidGraph, "title: \"Collection - Root [")
	assert.Contains(t, g.MermaidGraph, root+"-->|nested|"+child)
	assert.Contains(t, g.MermaidGraph, child+"-->|member|"+asset)
	assert.Contains(t, g.MermaidGraph, child+"-->|member|"+root)
	assert.Equal(t, 1, strings.Count(g.MermaidGraph, root+"@{"))
}
