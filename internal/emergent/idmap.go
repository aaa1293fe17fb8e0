package emergent

import (
	"slices"

	"github.com/emergent-company/emergent/apps/server-go/pkg/sdk/graph"

	"github.com/emergent-company/omviews/internal/store"
)

// IDSet matches both IDs of one object: the version ID, which changes on
// every update, and the canonical ID, which does not. Relationship ends may
// store either.
type IDSet map[string]bool

// NewIDSet creates an IDSet for one object. Either id may be empty.
func NewIDSet(id, canonicalID string) IDSet {
	s := make(IDSet, 2)
	if id != "" {
		s[id] = true
	}
	if canonicalID != "" {
		s[canonicalID] = true
	}
	return s
}

// variants lists the IDs in a stable order; an empty set yields the single
// empty ID, meaning "any end".
func (s IDSet) variants() []string {
	if len(s) == 0 {
		return []string{""}
	}
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// canonicalIndex maps every known ID of an object to its canonical ID.
type canonicalIndex map[string]string

func (idx canonicalIndex) add(obj *graph.GraphObject) {
	if obj == nil {
		return
	}
	canonical := obj.CanonicalID
	if canonical == "" {
		canonical = obj.ID
	}
	idx[obj.ID] = canonical
	idx[canonical] = canonical
}

// canonical resolves id, passing unknown IDs through.
func (idx canonicalIndex) canonical(id string) string {
	if c, ok := idx[id]; ok {
		return c
	}
	return id
}

// unknown lists the relationship ends the index cannot resolve yet.
func (idx canonicalIndex) unknown(items []*graph.GraphRelationship) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, rel := range items {
		for _, id := range []string{rel.SrcID, rel.DstID} {
			if _, ok := idx[id]; !ok && id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// mergeRelationships flattens the per-variant query results, drops
// relationships seen twice and rewrites both ends to canonical IDs so they
// compare equal to element GUIDs.
func mergeRelationships(batches [][]*graph.GraphRelationship, idx canonicalIndex) []*store.Relationship {
	seen := make(map[string]bool)
	var rels []*store.Relationship
	for _, batch := range batches {
		for _, item := range batch {
			if item == nil || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			r := toRelationship(item)
			r.End1GUID = idx.canonical(r.End1GUID)
			r.End2GUID = idx.canonical(r.End2GUID)
			rels = append(rels, r)
		}
	}
	return rels
}
