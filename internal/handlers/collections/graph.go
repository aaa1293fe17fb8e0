package collections

import (
	"context"
	"fmt"
	"time"

	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/mermaid"
	"github.com/emergent-company/omviews/internal/store"
)

// GetCollectionGraph assembles the membership tree below a collection.
// Member collections are expanded up to the configured depth; a collection
// reached twice is expanded only the first time.
func (h *Handler) GetCollectionGraph(ctx context.Context, guid string, at *time.Time) (*CollectionGraph, error) {
	const method = "GetCollectionGraph"
	root, err := h.base.GetElement(ctx, method, TypeCollection, guid, at)
	if err != nil {
		return nil, err
	}
	collection, err := toCollection(method, root)
	if err != nil {
		return nil, err
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}

	processed := map[string]bool{root.GUID: true}
	members, err := h.membersOf(ctx, s, root.GUID, at, 1, processed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	g := &CollectionGraph{
		Collection: *collection,
		Members:    members,
	}
	g.MermaidGraph = collectionMermaid(root, members)
	return g, nil
}

func (h *Handler) membersOf(ctx context.Context, s store.Store, guid string, at *time.Time, depth int, processed map[string]bool) ([]*CollectionGraphNode, error) {
	related, err := h.base.AllRelated(ctx, s, guid, RelCollectionMembership, store.AtEnd1, at)
	if err != nil {
		return nil, err
	}
	nodes := make([]*CollectionGraphNode, 0, len(related))
	for _, r := range related {
		membership, err := store.FromProperties[CollectionMembershipProperties](r.Relationship.Properties)
		if err != nil {
			return nil, err
		}
		node := &CollectionGraphNode{
			Member:     handlers.SummarizeRelated(r),
			Membership: *membership,
		}
		if r.Element.TypeName == TypeCollection && !processed[r.Element.GUID] && depth < h.base.MaxDepth() {
			processed[r.Element.GUID] = true
			node.Members, err = h.membersOf(ctx, s, r.Element.GUID, at, depth+1, processed)
			if err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func collectionMermaid(root *store.Element, members []*CollectionGraphNode) string {
	g := mermaid.New(mermaid.Title(root.TypeName, handlers.DisplayName(root), root.GUID), mermaid.LeftRight)
	g.AddNode(root.GUID, root.TypeName, handlers.DisplayName(root), mermaid.Rect)
	addMemberNodes(g, root.GUID, members)
	return g.String()
}

func addMemberNodes(g *mermaid.Graph, parentGUID string, members []*CollectionGraphNode) {
	for _, m := range members {
		shape := mermaid.Rounded
		if m.Member.Header.TypeName == TypeCollection {
			shape = mermaid.Rect
		}
		g.AddNode(m.Member.Header.GUID, m.Member.Header.TypeName, m.Member.DisplayName, shape)
		label := "member"
		if m.Membership.MembershipRationale != "" {
			label = m.Membership.MembershipRationale
		}
		g.AddLine(parentGUID, m.Member.Header.GUID, label, mermaid.Solid)
		addMemberNodes(g, m.Member.Header.GUID, m.Members)
	}
}
