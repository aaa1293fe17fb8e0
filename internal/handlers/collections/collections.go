// Package collections manages Collection elements, their members, the
// digital product and agreement links between them, and the nested
// membership view.
package collections

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/validation"
)

// Handler translates collection operations onto the store.
type Handler struct {
	base *handlers.Base
}

// New creates a collections handler.
func New(base *handlers.Base) *Handler {
	return &Handler{base: base}
}

// CreateCollection creates a collection with an optional classification and
// returns its GUID.
func (h *Handler) CreateCollection(ctx context.Context, opts *handlers.NewElementOptions, classification string, props *CollectionProperties) (string, error) {
	const method = "CreateCollection"
	if classification != "" && !IsKnownClassification(classification) {
		return "", faults.Invalidf("%s: unknown collection classification %q", method, classification)
	}
	return h.create(ctx, method, opts, classification, props, nil)
}

// CreateDigitalProduct creates a collection classified as a DigitalProduct.
func (h *Handler) CreateDigitalProduct(ctx context.Context, opts *handlers.NewElementOptions, props *CollectionProperties, product *DigitalProductProperties) (string, error) {
	const method = "CreateDigitalProduct"
	if err := validation.Object(product != nil, "digitalProductProperties", method); err != nil {
		return "", err
	}
	if err := validation.Name(product.ProductName, "productName", method); err != nil {
		return "", err
	}
	return h.create(ctx, method, opts, ClassDigitalProduct, props, product)
}

func (h *Handler) create(ctx context.Context, method string, opts *handlers.NewElementOptions, classification string, props *CollectionProperties, product *DigitalProductProperties) (string, error) {
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	p := *props
	if p.ContentStatus == "" {
		p.ContentStatus = validation.DefaultStatus
	} else if !validation.IsKnownStatus(p.ContentStatus) {
		return "", faults.Invalidf("%s: unknown contentStatus %q", method, p.ContentStatus)
	}
	bag, err := store.ToProperties(&p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	if product != nil {
		productBag, err := store.ToProperties(product)
		if err != nil {
			return "", fmt.Errorf("%s: %w", method, err)
		}
		bag = store.Merge(bag, productBag)
	}
	var classifications []string
	if classification != "" {
		classifications = []string{classification}
	}
	el, err := h.base.CreateElement(ctx, method, TypeCollection, opts, p.QualifiedName, classifications, bag)
	if err != nil {
		return "", err
	}
	return el.GUID, nil
}

// CreateCollectionFromTemplate copies a template collection. Every
// {{placeholder}} token in the template's string properties is replaced by
// its value, props overrides the copied properties, and the template's
// members are added to the new collection.
func (h *Handler) CreateCollectionFromTemplate(ctx context.Context, opts *handlers.NewElementOptions, templateGUID string, props *CollectionProperties, placeholders map[string]string) (string, error) {
	const method = "CreateCollectionFromTemplate"
	template, err := h.base.GetElement(ctx, method, TypeCollection, templateGUID, nil)
	if err != nil {
		return "", err
	}

	bag := make(map[string]any, len(template.Properties))
	for k, v := range template.Properties {
		switch k {
		case store.PropAnchorGUID, store.PropEffectiveFrom, store.PropEffectiveTo:
			continue
		}
		bag[k] = substitute(v, placeholders)
	}
	if props != nil {
		overlay, err := store.ToProperties(props)
		if err != nil {
			return "", fmt.Errorf("%s: %w", method, err)
		}
		bag = store.Merge(bag, overlay)
	}
	bag[handlers.PropContentStatus] = validation.StatusDraft
	if props != nil && props.ContentStatus != "" {
		if !validation.IsKnownStatus(props.ContentStatus) {
			return "", faults.Invalidf("%s: unknown contentStatus %q", method, props.ContentStatus)
		}
		bag[handlers.PropContentStatus] = props.ContentStatus
	}

	qualifiedName, _ := bag[store.PropQualifiedName].(string)
	if qualifiedName == "" || qualifiedName == template.QualifiedName {
		return "", faults.Invalidf("%s: the new collection needs a qualifiedName distinct from the template's %q", method, template.QualifiedName)
	}

	el, err := h.base.CreateElement(ctx, method, TypeCollection, opts, qualifiedName, template.Classifications, bag)
	if err != nil {
		return "", err
	}

	s, err := h.base.Store(ctx)
	if err != nil {
		return "", err
	}
	if _, err := s.CreateRelationship(ctx, RelSourcedFrom, el.GUID, template.GUID, nil); err != nil {
		return "", fmt.Errorf("%s: recording template: %w", method, err)
	}
	members, err := h.base.AllRelated(ctx, s, template.GUID, RelCollectionMembership, store.AtEnd1, nil)
	if err != nil {
		return "", fmt.Errorf("%s: listing template members: %w", method, err)
	}
	for _, m := range members {
		if _, err := s.CreateRelationship(ctx, RelCollectionMembership, el.GUID, m.Element.GUID, m.Relationship.Properties); err != nil {
			return "", fmt.Errorf("%s: copying member %s: %w", method, m.Element.GUID, err)
		}
	}
	h.base.Logger().Info("created collection from template", "template", template.GUID, "guid", el.GUID, "members", len(members))
	return el.GUID, nil
}

func substitute(v any, placeholders map[string]string) any {
	switch val := v.(type) {
	case string:
		for name, replacement := range placeholders {
			val = strings.ReplaceAll(val, "{{"+name+"}}", replacement)
		}
		return val
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = substitute(item, placeholders)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = substitute(item, placeholders)
		}
		return out
	default:
		return v
	}
}

// UpdateCollection merges props into the collection, or replaces its
// properties when replaceAll is set.
func (h *Handler) UpdateCollection(ctx context.Context, guid string, replaceAll bool, props *CollectionProperties) error {
	const method = "UpdateCollection"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	if props.ContentStatus != "" {
		return faults.Invalidf("%s: use UpdateCollectionStatus to change contentStatus", method)
	}
	bag, err := store.ToProperties(props)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if replaceAll {
		// Product properties belong to the DigitalProduct classification and
		// only change through UpdateDigitalProduct.
		if bag, err = h.keepProductProperties(ctx, method, guid, bag); err != nil {
			return err
		}
	}
	_, err = h.base.Update(ctx, method, TypeCollection, guid, replaceAll, bag, nil)
	return err
}

func (h *Handler) keepProductProperties(ctx context.Context, method, guid string, bag map[string]any) (map[string]any, error) {
	el, err := h.base.GetElement(ctx, method, TypeCollection, guid, nil)
	if err != nil {
		return nil, err
	}
	if !el.HasClassification(ClassDigitalProduct) {
		return bag, nil
	}
	product, err := store.FromProperties[DigitalProductProperties](el.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	kept, err := store.ToProperties(product)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return store.Merge(kept, bag), nil
}

// UpdateDigitalProduct merges product properties into a DigitalProduct collection.
func (h *Handler) UpdateDigitalProduct(ctx context.Context, guid string, product *DigitalProductProperties) error {
	const method = "UpdateDigitalProduct"
	if err := validation.Object(product != nil, "digitalProductProperties", method); err != nil {
		return err
	}
	el, err := h.base.GetElement(ctx, method, TypeCollection, guid, nil)
	if err != nil {
		return err
	}
	if !el.HasClassification(ClassDigitalProduct) {
		return faults.Invalidf("%s: collection %s is not a digital product", method, guid)
	}
	bag, err := store.ToProperties(product)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	_, err = h.base.Update(ctx, method, TypeCollection, guid, false, bag, nil)
	return err
}

// UpdateCollectionStatus moves the collection to a new content status.
func (h *Handler) UpdateCollectionStatus(ctx context.Context, guid, status string) error {
	_, err := h.base.UpdateStatus(ctx, "UpdateCollectionStatus", TypeCollection, guid, status)
	return err
}

// DeleteCollection deletes the collection and, with cascade, the elements anchored to it.
func (h *Handler) DeleteCollection(ctx context.Context, guid string, cascade bool) error {
	return h.base.Delete(ctx, "DeleteCollection", TypeCollection, guid, cascade)
}

// GetCollectionByGUID returns the collection if it is effective at the given time.
func (h *Handler) GetCollectionByGUID(ctx context.Context, guid string, at *time.Time) (*CollectionElement, error) {
	const method = "GetCollectionByGUID"
	el, err := h.base.GetElement(ctx, method, TypeCollection, guid, at)
	if err != nil {
		return nil, err
	}
	return toCollection(method, el)
}

// GetCollectionsByName returns collections whose qualified or display name equals name.
func (h *Handler) GetCollectionsByName(ctx context.Context, name string, q handlers.QueryOptions) ([]*CollectionElement, error) {
	const method = "GetCollectionsByName"
	els, err := h.base.FindByName(ctx, method, TypeCollection, name, q)
	if err != nil {
		return nil, err
	}
	return toCollections(method, els)
}

// GetCollectionsByCategory returns collections with the given category.
func (h *Handler) GetCollectionsByCategory(ctx context.Context, category string, q handlers.QueryOptions) ([]*CollectionElement, error) {
	const method = "GetCollectionsByCategory"
	if err := validation.Name(category, "category", method); err != nil {
		return nil, err
	}
	els, err := h.base.FindByProperty(ctx, method, TypeCollection, map[string]any{"category": category}, nil, q)
	if err != nil {
		return nil, err
	}
	return toCollections(method, els)
}

// GetCollectionsByClassification returns collections carrying the classification.
func (h *Handler) GetCollectionsByClassification(ctx context.Context, classification string, q handlers.QueryOptions) ([]*CollectionElement, error) {
	const method = "GetCollectionsByClassification"
	if !IsKnownClassification(classification) {
		return nil, faults.Invalidf("%s: unknown collection classification %q", method, classification)
	}
	els, err := h.base.FindByProperty(ctx, method, TypeCollection, nil, []string{classification}, q)
	if err != nil {
		return nil, err
	}
	return toCollections(method, els)
}

// FindCollections returns collections matching the regular expression.
func (h *Handler) FindCollections(ctx context.Context, searchString string, q handlers.QueryOptions) ([]*CollectionElement, error) {
	const method = "FindCollections"
	els, err := h.base.Search(ctx, method, TypeCollection, searchString, q)
	if err != nil {
		return nil, err
	}
	return toCollections(method, els)
}

// AttachCollection attaches a collection to a parent element. Attaching the
// same pair twice returns the existing attachment.
func (h *Handler) AttachCollection(ctx context.Context, parentGUID, collectionGUID string, props *ResourceListProperties) (string, error) {
	const method = "AttachCollection"
	if _, err := h.base.GetElement(ctx, method, TypeCollection, collectionGUID, nil); err != nil {
		return "", err
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelResourceList, parentGUID, collectionGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// DetachCollection removes a collection from a parent element.
func (h *Handler) DetachCollection(ctx context.Context, parentGUID, collectionGUID string) error {
	return h.base.Unlink(ctx, "DetachCollection", RelResourceList, parentGUID, collectionGUID)
}

// GetAttachedCollections returns the collections attached to a parent element.
func (h *Handler) GetAttachedCollections(ctx context.Context, parentGUID string, q handlers.QueryOptions) ([]*AttachedCollection, error) {
	const method = "GetAttachedCollections"
	related, err := h.base.Related(ctx, method, parentGUID, RelResourceList, store.AtEnd1, q)
	if err != nil {
		return nil, err
	}
	out := make([]*AttachedCollection, 0, len(related))
	for _, r := range related {
		if r.Element.TypeName != TypeCollection {
			continue
		}
		c, err := toCollection(method, r.Element)
		if err != nil {
			return nil, err
		}
		rl, err := store.FromProperties[ResourceListProperties](r.Relationship.Properties)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		out = append(out, &AttachedCollection{
			RelationshipGUID: r.Relationship.GUID,
			ResourceList:     *rl,
			Collection:       *c,
		})
	}
	return out, nil
}

// AddToCollection adds an element to a collection and returns the membership
// relationship GUID. Adding an existing member returns its membership.
func (h *Handler) AddToCollection(ctx context.Context, collectionGUID, elementGUID string, membership *CollectionMembershipProperties) (string, error) {
	const method = "AddToCollection"
	if _, err := h.base.GetElement(ctx, method, TypeCollection, collectionGUID, nil); err != nil {
		return "", err
	}
	if membership != nil && membership.Status != "" && !knownMemberStatus[membership.Status] {
		return "", faults.Invalidf("%s: unknown membership status %q", method, membership.Status)
	}
	bag, err := handlers.OptionalProperties(membership)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelCollectionMembership, collectionGUID, elementGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// UpdateCollectionMembership rewrites the membership properties of an element in a collection.
func (h *Handler) UpdateCollectionMembership(ctx context.Context, collectionGUID, elementGUID string, replaceAll bool, membership *CollectionMembershipProperties) error {
	const method = "UpdateCollectionMembership"
	if err := validation.Object(membership != nil, "membershipProperties", method); err != nil {
		return err
	}
	if membership.Status != "" && !knownMemberStatus[membership.Status] {
		return faults.Invalidf("%s: unknown membership status %q", method, membership.Status)
	}
	bag, err := store.ToProperties(membership)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	_, err = h.base.UpdateLink(ctx, method, RelCollectionMembership, collectionGUID, elementGUID, replaceAll, bag)
	return err
}

// RemoveFromCollection removes an element from a collection.
func (h *Handler) RemoveFromCollection(ctx context.Context, collectionGUID, elementGUID string) error {
	return h.base.Unlink(ctx, "RemoveFromCollection", RelCollectionMembership, collectionGUID, elementGUID)
}

// GetCollectionMembers returns one page of a collection's members.
func (h *Handler) GetCollectionMembers(ctx context.Context, collectionGUID string, q handlers.QueryOptions) ([]*CollectionMember, error) {
	const method = "GetCollectionMembers"
	if _, err := h.base.GetElement(ctx, method, TypeCollection, collectionGUID, q.EffectiveTime); err != nil {
		return nil, err
	}
	related, err := h.base.Related(ctx, method, collectionGUID, RelCollectionMembership, store.AtEnd1, q)
	if err != nil {
		return nil, err
	}
	out := make([]*CollectionMember, 0, len(related))
	for _, r := range related {
		m, err := toMember(method, r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// LinkDigitalProductDependency records that consumer depends on supplier.
// Both must be digital products.
func (h *Handler) LinkDigitalProductDependency(ctx context.Context, consumerGUID, supplierGUID string, props *DependencyProperties) (string, error) {
	const method = "LinkDigitalProductDependency"
	for _, guid := range []string{consumerGUID, supplierGUID} {
		el, err := h.base.GetElement(ctx, method, TypeCollection, guid, nil)
		if err != nil {
			return "", err
		}
		if !el.HasClassification(ClassDigitalProduct) {
			return "", faults.Invalidf("%s: collection %s is not a digital product", method, guid)
		}
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelDigitalProductDependency, consumerGUID, supplierGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// DetachDigitalProductDependency removes a dependency between digital products.
func (h *Handler) DetachDigitalProductDependency(ctx context.Context, consumerGUID, supplierGUID string) error {
	return h.base.Unlink(ctx, "DetachDigitalProductDependency", RelDigitalProductDependency, consumerGUID, supplierGUID)
}

// LinkAgreementActor names an actor that is party to an agreement collection.
func (h *Handler) LinkAgreementActor(ctx context.Context, agreementGUID, actorGUID string, props *AgreementActorProperties) (string, error) {
	const method = "LinkAgreementActor"
	if _, err := h.base.GetElement(ctx, method, TypeCollection, agreementGUID, nil); err != nil {
		return "", err
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.Link(ctx, method, RelAgreementActor, agreementGUID, actorGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// DetachAgreementActor removes an actor from an agreement.
func (h *Handler) DetachAgreementActor(ctx context.Context, agreementGUID, actorGUID string) error {
	return h.base.Unlink(ctx, "DetachAgreementActor", RelAgreementActor, agreementGUID, actorGUID)
}

// LinkAgreementItem adds an element covered by an agreement.
func (h *Handler) LinkAgreementItem(ctx context.Context, agreementGUID, itemGUID string, props *AgreementItemProperties) (string, error) {
	const method = "LinkAgreementItem"
	if _, err := h.base.GetElement(ctx, method, TypeCollection, agreementGUID, nil); err != nil {
		return "", err
	}
	if props != nil && props.AgreementStart != nil && props.AgreementEnd != nil && props.AgreementEnd.Before(*props.AgreementStart) {
		return "", faults.Invalidf("%s: agreementEnd is before agreementStart", method)
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.Link(ctx, method, RelAgreementItem, agreementGUID, itemGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// DetachAgreementItem removes an element from an agreement.
func (h *Handler) DetachAgreementItem(ctx context.Context, agreementGUID, itemGUID string) error {
	return h.base.Unlink(ctx, "DetachAgreementItem", RelAgreementItem, agreementGUID, itemGUID)
}

func toCollection(method string, el *store.Element) (*CollectionElement, error) {
	props, err := store.FromProperties[CollectionProperties](el.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: converting %s: %w", method, el.GUID, err)
	}
	if props.QualifiedName == "" {
		props.QualifiedName = el.QualifiedName
	}
	c := &CollectionElement{
		Header:     handlers.Header(el),
		Properties: *props,
	}
	if el.HasClassification(ClassDigitalProduct) {
		product, err := store.FromProperties[DigitalProductProperties](el.Properties)
		if err != nil {
			return nil, fmt.Errorf("%s: converting %s: %w", method, el.GUID, err)
		}
		c.DigitalProduct = product
	}
	return c, nil
}

func toCollections(method string, els []*store.Element) ([]*CollectionElement, error) {
	out := make([]*CollectionElement, 0, len(els))
	for _, el := range els {
		c, err := toCollection(method, el)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func toMember(method string, r *store.RelatedElement) (*CollectionMember, error) {
	membership, err := store.FromProperties[CollectionMembershipProperties](r.Relationship.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: converting membership %s: %w", method, r.Relationship.GUID, err)
	}
	return &CollectionMember{
		RelationshipGUID: r.Relationship.GUID,
		Membership:       *membership,
		Member:           handlers.Summarize(r.Element),
	}, nil
}
