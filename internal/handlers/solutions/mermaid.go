package solutions

import (
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/mermaid"
	"github.com/emergent-company/omviews/internal/store"
)

// chainMermaid draws the segments of a supply chain inside one subgraph,
// the links between them, and dotted lines to implementing components.
// Link targets outside the chain are drawn outside the subgraph.
func chainMermaid(chain *store.Element, view *InformationSupplyChainElement, linkTargets []*store.RelatedElement) string {
	name := handlers.DisplayName(chain)
	g := mermaid.New(mermaid.Title(chain.TypeName, name, chain.GUID), mermaid.LeftRight)

	segmentIDs := make([]string, 0, len(view.Segments))
	for _, seg := range view.Segments {
		g.AddNode(seg.Header.GUID, seg.Header.TypeName, segmentLabel(seg), mermaid.Subprocess)
		segmentIDs = append(segmentIDs, seg.Header.GUID)
	}
	g.AddSubgraph(chain.GUID, name, segmentIDs...)

	for _, t := range linkTargets {
		g.AddNode(t.Element.GUID, t.Element.TypeName, handlers.DisplayName(t.Element), mermaid.Subprocess)
	}
	for _, seg := range view.Segments {
		for _, l := range seg.Links {
			g.AddLine(seg.Header.GUID, l.TargetGUID, l.Label, mermaid.Solid)
		}
		for _, impl := range seg.ImplementedBy {
			g.AddNode(impl.Header.GUID, impl.Header.TypeName, impl.DisplayName, mermaid.Rounded)
			g.AddLine(seg.Header.GUID, impl.Header.GUID, "implemented by", mermaid.Dotted)
		}
	}
	return g.String()
}

func segmentLabel(seg *InformationSupplyChainSegmentElement) string {
	switch {
	case seg.Properties.DisplayName != "":
		return seg.Properties.DisplayName
	case seg.Properties.QualifiedName != "":
		return seg.Properties.QualifiedName
	}
	return seg.Header.GUID
}

func blueprintMermaid(bp *store.Element, view *SolutionBlueprintElement) string {
	name := handlers.DisplayName(bp)
	g := mermaid.New(mermaid.Title(bp.TypeName, name, bp.GUID), mermaid.TopDown)
	g.AddNode(bp.GUID, bp.TypeName, name, mermaid.Document)
	for _, c := range view.Components {
		addComponentNodes(g, c)
		g.AddLine(bp.GUID, c.Header.GUID, "", mermaid.Solid)
	}
	return g.String()
}

func componentMermaid(el *store.Element, view *SolutionComponentElement) string {
	g := mermaid.New(mermaid.Title(el.TypeName, handlers.DisplayName(el), el.GUID), mermaid.TopDown)
	addComponentNodes(g, view)
	for _, bp := range view.Blueprints {
		g.AddNode(bp.Header.GUID, bp.Header.TypeName, bp.DisplayName, mermaid.Document)
		g.AddLine(bp.Header.GUID, view.Header.GUID, "", mermaid.Dotted)
	}
	return g.String()
}

// addComponentNodes draws a component, its sub-components, the components
// it is wired to and the roles acting on it.
func addComponentNodes(g *mermaid.Graph, c *SolutionComponentElement) {
	g.AddNode(c.Header.GUID, c.Header.TypeName, componentLabel(c), mermaid.Rect)
	for _, sub := range c.SubComponents {
		addComponentNodes(g, sub)
		g.AddLine(c.Header.GUID, sub.Header.GUID, "", mermaid.Solid)
	}
	for _, w := range c.WiredTo {
		g.AddNode(w.Component.Header.GUID, w.Component.Header.TypeName, w.Component.DisplayName, mermaid.Rect)
		if w.Outgoing {
			g.AddLine(c.Header.GUID, w.Component.Header.GUID, w.Wire.Label, mermaid.Solid)
		} else {
			g.AddLine(w.Component.Header.GUID, c.Header.GUID, w.Wire.Label, mermaid.Solid)
		}
	}
	for _, a := range c.Actors {
		g.AddNode(a.Actor.Header.GUID, a.Actor.Header.TypeName, a.Actor.DisplayName, mermaid.Stadium)
		g.AddLine(a.Actor.Header.GUID, c.Header.GUID, a.Role.Role, mermaid.Dotted)
	}
}

func componentLabel(c *SolutionComponentElement) string {
	switch {
	case c.Properties.DisplayName != "":
		return c.Properties.DisplayName
	case c.Properties.QualifiedName != "":
		return c.Properties.QualifiedName
	}
	return c.Header.GUID
}
