package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/emergent-company/omviews/internal/faults"
)

const relatedFetchConcurrency = 8

func relationshipQuery(guid, relType string, dir Direction, paging Paging) *RelationshipQuery {
	q := &RelationshipQuery{TypeName: relType, Paging: paging}
	if dir == AtEnd1 {
		q.End1GUID = guid
	} else {
		q.End2GUID = guid
	}
	return q
}

// RelatedElements lists one page of relationships of relType touching guid at
// the given end and resolves the element at the far end of each.
// Relationships whose far end no longer exists are dropped.
func RelatedElements(ctx context.Context, s Store, guid, relType string, dir Direction, paging Paging) ([]*RelatedElement, error) {
	rels, err := s.ListRelationships(ctx, relationshipQuery(guid, relType, dir, paging))
	if err != nil {
		return nil, err
	}
	return resolveFarEnds(ctx, s, rels, dir)
}

// AllRelatedElements pages through every relationship of relType touching
// guid, then resolves the far ends.
func AllRelatedElements(ctx context.Context, s Store, guid, relType string, dir Direction, pageSize int) ([]*RelatedElement, error) {
	rels, err := AllPages(ctx, pageSize, func(ctx context.Context, page Paging) ([]*Relationship, error) {
		return s.ListRelationships(ctx, relationshipQuery(guid, relType, dir, page))
	})
	if err != nil {
		return nil, err
	}
	return resolveFarEnds(ctx, s, rels, dir)
}

func resolveFarEnds(ctx context.Context, s Store, rels []*Relationship, dir Direction) ([]*RelatedElement, error) {
	if len(rels) == 0 {
		return nil, nil
	}
	results := make([]*RelatedElement, len(rels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(relatedFetchConcurrency)
	for i, rel := range rels {
		farGUID := rel.End2GUID
		if dir == AtEnd2 {
			farGUID = rel.End1GUID
		}
		g.Go(func() error {
			el, err := s.GetElement(gctx, farGUID)
			if err != nil {
				if faults.IsCategory(err, faults.NotFound) {
					return nil
				}
				return fmt.Errorf("resolving %s end %s: %w", rel.TypeName, farGUID, err)
			}
			results[i] = &RelatedElement{Relationship: rel, Element: el}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]*RelatedElement, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// DetachRelationships deletes every relationship of relType from end1 to end2
// and returns how many were removed.
func DetachRelationships(ctx context.Context, s Store, relType, end1GUID, end2GUID string) (int, error) {
	rels, err := s.ListRelationships(ctx, &RelationshipQuery{
		TypeName: relType,
		End1GUID: end1GUID,
		End2GUID: end2GUID,
	})
	if err != nil {
		return 0, err
	}
	for _, rel := range rels {
		if err := s.DeleteRelationship(ctx, rel.GUID); err != nil {
			return 0, fmt.Errorf("detaching %s %s: %w", relType, rel.GUID, err)
		}
	}
	return len(rels), nil
}
