package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/validation"
)

const (
	DefaultMaxPageSize = 100
	DefaultMaxDepth    = 10
)

// Options bounds the work a single handler call may do.
type Options struct {
	MaxPageSize int
	MaxDepth    int
}

// Base carries the operations every handler translates onto the store.
type Base struct {
	provider    store.Provider
	logger      *slog.Logger
	maxPageSize int
	maxDepth    int
}

// NewBase creates the shared plumbing. Zero options take the defaults.
func NewBase(provider store.Provider, logger *slog.Logger, opts Options) *Base {
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = DefaultMaxPageSize
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		provider:    provider,
		logger:      logger,
		maxPageSize: opts.MaxPageSize,
		maxDepth:    opts.MaxDepth,
	}
}

// Logger returns the handler logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// MaxPageSize is the largest page the handlers request from the store.
func (b *Base) MaxPageSize() int { return b.maxPageSize }

// MaxDepth bounds recursive view assembly.
func (b *Base) MaxDepth() int { return b.maxDepth }

// Store resolves the store for the request.
func (b *Base) Store(ctx context.Context) (store.Store, error) {
	s, err := b.provider.StoreFor(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ValidatePaging checks the window and resolves a zero page size to the maximum.
func (b *Base) ValidatePaging(method string, q QueryOptions) (store.Paging, error) {
	size, err := validation.Paging(q.StartFrom, q.PageSize, b.maxPageSize, method)
	if err != nil {
		return store.Paging{}, err
	}
	return store.Paging{StartFrom: q.StartFrom, PageSize: size}, nil
}

// CreateElement validates the anchor and parent options, creates the element
// and wires it up. It returns the new element.
func (b *Base) CreateElement(ctx context.Context, method, typeName string, opts *NewElementOptions, qualifiedName string, classifications []string, props map[string]any) (*store.Element, error) {
	if err := validation.Name(qualifiedName, "qualifiedName", method); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &NewElementOptions{}
	}
	if opts.AnchorGUID != "" && opts.IsOwnAnchor {
		return nil, faults.Invalidf("%s: anchorGUID and isOwnAnchor cannot both be set", method)
	}
	if opts.AnchorGUID != "" {
		if err := validation.GUID(opts.AnchorGUID, "anchorGUID", method); err != nil {
			return nil, err
		}
	}
	if opts.ParentGUID != "" {
		if err := validation.GUID(opts.ParentGUID, "parentGUID", method); err != nil {
			return nil, err
		}
		if err := validation.Name(opts.ParentRelationshipTypeName, "parentRelationshipTypeName", method); err != nil {
			return nil, err
		}
	}

	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}

	if opts.AnchorGUID != "" {
		if _, err := s.GetElement(ctx, opts.AnchorGUID); err != nil {
			return nil, fmt.Errorf("%s: anchor: %w", method, err)
		}
	}
	if opts.ParentGUID != "" {
		if _, err := s.GetElement(ctx, opts.ParentGUID); err != nil {
			return nil, fmt.Errorf("%s: parent: %w", method, err)
		}
	}

	bag := store.Merge(props, map[string]any{store.PropQualifiedName: qualifiedName})
	if opts.AnchorGUID != "" {
		bag[store.PropAnchorGUID] = opts.AnchorGUID
	}

	el, err := s.CreateElement(ctx, &store.NewElement{
		TypeName:        typeName,
		QualifiedName:   qualifiedName,
		Classifications: classifications,
		Properties:      bag,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	if opts.IsOwnAnchor {
		el, err = s.UpdateElement(ctx, el.GUID, map[string]any{store.PropAnchorGUID: el.GUID}, nil, false)
		if err != nil {
			return nil, fmt.Errorf("%s: anchoring: %w", method, err)
		}
	}

	if opts.ParentGUID != "" {
		end1, end2 := el.GUID, opts.ParentGUID
		if opts.ParentAtEnd1 {
			end1, end2 = opts.ParentGUID, el.GUID
		}
		if _, err := s.CreateRelationship(ctx, opts.ParentRelationshipTypeName, end1, end2, opts.ParentRelationshipProperties); err != nil {
			return nil, fmt.Errorf("%s: linking parent: %w", method, err)
		}
	}

	b.logger.Debug("created element", "method", method, "type", typeName, "guid", el.GUID, "qualified_name", qualifiedName)
	return el, nil
}

// GetElement retrieves an element, checks its type and that it is effective at the given time.
func (b *Base) GetElement(ctx context.Context, method, typeName, guid string, at *time.Time) (*store.Element, error) {
	if err := validation.GUID(guid, "guid", method); err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	return b.getElement(ctx, s, method, typeName, guid, at)
}

func (b *Base) getElement(ctx context.Context, s store.Store, method, typeName, guid string, at *time.Time) (*store.Element, error) {
	el, err := s.GetElement(ctx, guid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if typeName != "" && el.TypeName != typeName {
		return nil, faults.Invalidf("%s: element %s is a %s, not a %s", method, guid, el.TypeName, typeName)
	}
	if !store.IsEffective(el.Properties, at) {
		return nil, faults.NotFoundf("%s: element %s is not effective at %s", method, guid, at.Format(time.RFC3339))
	}
	return el, nil
}

// FindByName returns elements whose qualified name, display name or name equals name exactly.
func (b *Base) FindByName(ctx context.Context, method, typeName, name string, q QueryOptions) ([]*store.Element, error) {
	if err := validation.Name(name, "name", method); err != nil {
		return nil, err
	}
	paging, err := b.ValidatePaging(method, q)
	if err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}

	queries := []*store.Query{
		{TypeName: typeName, QualifiedName: name},
		{TypeName: typeName, Properties: map[string]any{store.PropDisplayName: name}},
		{TypeName: typeName, Properties: map[string]any{store.PropName: name}},
	}
	seen := make(map[string]bool)
	var found []*store.Element
	for _, query := range queries {
		els, err := b.allElements(ctx, s, query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		for _, el := range els {
			if !seen[el.GUID] {
				seen[el.GUID] = true
				found = append(found, el)
			}
		}
	}
	return store.Window(store.EffectiveElements(found, q.EffectiveTime), paging), nil
}

// FindByProperty returns elements whose properties equal the given values.
func (b *Base) FindByProperty(ctx context.Context, method, typeName string, props map[string]any, classifications []string, q QueryOptions) ([]*store.Element, error) {
	paging, err := b.ValidatePaging(method, q)
	if err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	query := &store.Query{TypeName: typeName, Properties: props, Classifications: classifications}
	if q.EffectiveTime == nil {
		query.Paging = paging
		els, err := s.FindElements(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return els, nil
	}
	els, err := b.allElements(ctx, s, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return store.Window(store.EffectiveElements(els, q.EffectiveTime), paging), nil
}

// Search matches searchString as a case-insensitive regular expression.
func (b *Base) Search(ctx context.Context, method, typeName, searchString string, q QueryOptions) ([]*store.Element, error) {
	if err := validation.SearchString(searchString, "searchString", method); err != nil {
		return nil, err
	}
	paging, err := b.ValidatePaging(method, q)
	if err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	if q.EffectiveTime == nil {
		els, err := s.SearchElements(ctx, typeName, searchString, paging)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return els, nil
	}
	els, err := store.AllPages(ctx, b.maxPageSize, func(ctx context.Context, page store.Paging) ([]*store.Element, error) {
		return s.SearchElements(ctx, typeName, searchString, page)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return store.Window(store.EffectiveElements(els, q.EffectiveTime), paging), nil
}

func (b *Base) allElements(ctx context.Context, s store.Store, query *store.Query) ([]*store.Element, error) {
	return store.AllPages(ctx, b.maxPageSize, func(ctx context.Context, page store.Paging) ([]*store.Element, error) {
		pq := *query
		pq.Paging = page
		return s.FindElements(ctx, &pq)
	})
}

// Update merges or replaces an element's properties. The qualified name and
// anchor survive a replace when props does not restate them.
func (b *Base) Update(ctx context.Context, method, typeName, guid string, replaceAll bool, props map[string]any, classifications []string) (*store.Element, error) {
	if err := validation.GUID(guid, "guid", method); err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := b.getElement(ctx, s, method, typeName, guid, nil)
	if err != nil {
		return nil, err
	}
	bag := store.Merge(nil, props)
	if replaceAll {
		for _, keep := range []string{store.PropQualifiedName, store.PropAnchorGUID, PropContentStatus} {
			if _, ok := bag[keep]; !ok {
				if v, ok := existing.Properties[keep]; ok {
					bag[keep] = v
				}
			}
		}
	}
	if qn, ok := bag[store.PropQualifiedName].(string); ok && qn == "" {
		return nil, faults.Invalidf("%s: qualifiedName must not be empty", method)
	}
	el, err := s.UpdateElement(ctx, guid, bag, classifications, replaceAll)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	b.logger.Debug("updated element", "method", method, "guid", guid, "replace", replaceAll)
	return el, nil
}

// UpdateStatus moves an element to a new content status.
func (b *Base) UpdateStatus(ctx context.Context, method, typeName, guid, status string) (*store.Element, error) {
	if err := validation.GUID(guid, "guid", method); err != nil {
		return nil, err
	}
	if err := validation.Name(status, "status", method); err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := b.getElement(ctx, s, method, typeName, guid, nil)
	if err != nil {
		return nil, err
	}
	if err := validation.StatusTransition(existing.StringProperty(PropContentStatus), status, false); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	el, err := s.UpdateElement(ctx, guid, map[string]any{PropContentStatus: status}, nil, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	b.logger.Info("status changed", "method", method, "guid", guid, "from", existing.StringProperty(PropContentStatus), "to", status)
	return el, nil
}

// Delete removes an element. Elements anchored to it are deleted too when
// cascade is set; otherwise their presence is a conflict.
func (b *Base) Delete(ctx context.Context, method, typeName, guid string, cascade bool) error {
	if err := validation.GUID(guid, "guid", method); err != nil {
		return err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return err
	}
	if _, err := b.getElement(ctx, s, method, typeName, guid, nil); err != nil {
		return err
	}
	dependents, err := b.anchoredTo(ctx, s, guid)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if len(dependents) > 0 && !cascade {
		return faults.Conflictf("%s: %s anchors %d element(s); delete with cascade", method, guid, len(dependents))
	}
	deleted, err := b.deleteTree(ctx, s, guid, make(map[string]bool))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	b.logger.Info("deleted element", "method", method, "guid", guid, "cascade", cascade, "deleted", deleted)
	return nil
}

func (b *Base) anchoredTo(ctx context.Context, s store.Store, guid string) ([]*store.Element, error) {
	els, err := b.allElements(ctx, s, &store.Query{Properties: map[string]any{store.PropAnchorGUID: guid}})
	if err != nil {
		return nil, err
	}
	out := els[:0]
	for _, el := range els {
		if el.GUID != guid {
			out = append(out, el)
		}
	}
	return out, nil
}

// deleteTree deletes dependents depth first, then the element itself.
func (b *Base) deleteTree(ctx context.Context, s store.Store, guid string, visited map[string]bool) (int, error) {
	if visited[guid] {
		return 0, nil
	}
	visited[guid] = true
	dependents, err := b.anchoredTo(ctx, s, guid)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, dep := range dependents {
		n, err := b.deleteTree(ctx, s, dep.GUID, visited)
		if err != nil {
			return count, err
		}
		count += n
	}
	if err := s.DeleteElement(ctx, guid); err != nil {
		if faults.IsCategory(err, faults.NotFound) {
			return count, nil
		}
		return count, err
	}
	return count + 1, nil
}

// Link creates a relationship after checking both ends exist.
func (b *Base) Link(ctx context.Context, method, relType, end1GUID, end2GUID string, props map[string]any) (*store.Relationship, error) {
	s, err := b.linkEnds(ctx, method, end1GUID, end2GUID)
	if err != nil {
		return nil, err
	}
	rel, err := s.CreateRelationship(ctx, relType, end1GUID, end2GUID, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	b.logger.Debug("linked elements", "method", method, "type", relType, "end1", end1GUID, "end2", end2GUID)
	return rel, nil
}

// LinkOnce returns the existing relationship of relType between the ends, or creates it.
func (b *Base) LinkOnce(ctx context.Context, method, relType, end1GUID, end2GUID string, props map[string]any) (*store.Relationship, error) {
	s, err := b.linkEnds(ctx, method, end1GUID, end2GUID)
	if err != nil {
		return nil, err
	}
	existing, err := s.ListRelationships(ctx, &store.RelationshipQuery{TypeName: relType, End1GUID: end1GUID, End2GUID: end2GUID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(existing) > 0 {
		return existing[0], nil
	}
	rel, err := s.CreateRelationship(ctx, relType, end1GUID, end2GUID, props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return rel, nil
}

func (b *Base) linkEnds(ctx context.Context, method, end1GUID, end2GUID string) (store.Store, error) {
	if err := validation.GUID(end1GUID, "end1GUID", method); err != nil {
		return nil, err
	}
	if err := validation.GUID(end2GUID, "end2GUID", method); err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	for _, guid := range []string{end1GUID, end2GUID} {
		if _, err := s.GetElement(ctx, guid); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
	}
	return s, nil
}

// Unlink removes every relationship of relType from end1 to end2. It is
// NotFound when there was nothing to remove.
func (b *Base) Unlink(ctx context.Context, method, relType, end1GUID, end2GUID string) error {
	if err := validation.GUID(end1GUID, "end1GUID", method); err != nil {
		return err
	}
	if err := validation.GUID(end2GUID, "end2GUID", method); err != nil {
		return err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return err
	}
	n, err := store.DetachRelationships(ctx, s, relType, end1GUID, end2GUID)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if n == 0 {
		return faults.NotFoundf("%s: no %s relationship from %s to %s", method, relType, end1GUID, end2GUID)
	}
	b.logger.Debug("unlinked elements", "method", method, "type", relType, "end1", end1GUID, "end2", end2GUID, "count", n)
	return nil
}

// UpdateLink rewrites the properties of the relationship of relType between
// the ends. Relationships are immutable in the store, so the old one is
// replaced by a new one carrying the merged properties.
func (b *Base) UpdateLink(ctx context.Context, method, relType, end1GUID, end2GUID string, replaceAll bool, props map[string]any) (*store.Relationship, error) {
	s, err := b.linkEnds(ctx, method, end1GUID, end2GUID)
	if err != nil {
		return nil, err
	}
	existing, err := s.ListRelationships(ctx, &store.RelationshipQuery{TypeName: relType, End1GUID: end1GUID, End2GUID: end2GUID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(existing) == 0 {
		return nil, faults.NotFoundf("%s: no %s relationship from %s to %s", method, relType, end1GUID, end2GUID)
	}
	old := existing[0]
	merged := store.Merge(nil, props)
	if !replaceAll {
		merged = store.Merge(old.Properties, props)
	}
	for k, v := range merged {
		if v == nil {
			delete(merged, k)
		}
	}
	if err := s.DeleteRelationship(ctx, old.GUID); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	rel, err := s.CreateRelationship(ctx, relType, end1GUID, end2GUID, merged)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return rel, nil
}

// Related returns one page of elements related to guid, filtered to those
// effective at the requested time.
func (b *Base) Related(ctx context.Context, method, guid, relType string, dir store.Direction, q QueryOptions) ([]*store.RelatedElement, error) {
	if err := validation.GUID(guid, "guid", method); err != nil {
		return nil, err
	}
	paging, err := b.ValidatePaging(method, q)
	if err != nil {
		return nil, err
	}
	s, err := b.Store(ctx)
	if err != nil {
		return nil, err
	}
	if q.EffectiveTime == nil {
		related, err := store.RelatedElements(ctx, s, guid, relType, dir, paging)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return related, nil
	}
	related, err := store.AllRelatedElements(ctx, s, guid, relType, dir, b.maxPageSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return store.Window(EffectiveRelated(related, q.EffectiveTime), paging), nil
}

// AllRelated returns every element related to guid, paging through the store.
func (b *Base) AllRelated(ctx context.Context, s store.Store, guid, relType string, dir store.Direction, at *time.Time) ([]*store.RelatedElement, error) {
	related, err := store.AllRelatedElements(ctx, s, guid, relType, dir, b.maxPageSize)
	if err != nil {
		return nil, err
	}
	return EffectiveRelated(related, at), nil
}

// EffectiveRelated keeps entries whose relationship and far end are both effective.
func EffectiveRelated(related []*store.RelatedElement, at *time.Time) []*store.RelatedElement {
	if at == nil {
		return related
	}
	out := make([]*store.RelatedElement, 0, len(related))
	for _, r := range related {
		if store.IsEffective(r.Relationship.Properties, at) && store.IsEffective(r.Element.Properties, at) {
			out = append(out, r)
		}
	}
	return out
}
