package solutions

import (
	"context"
	"fmt"
	"time"

	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/validation"
)

// CreateInformationSupplyChain creates a supply chain and returns its GUID.
func (h *Handler) CreateInformationSupplyChain(ctx context.Context, opts *handlers.NewElementOptions, props *InformationSupplyChainProperties) (string, error) {
	const method = "CreateInformationSupplyChain"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	p := *props
	if err := initialStatus(method, &p.ContentStatus); err != nil {
		return "", err
	}
	return h.create(ctx, method, TypeInformationSupplyChain, ownAnchor(opts), p.QualifiedName, &p)
}

// UpdateInformationSupplyChain merges or replaces a supply chain's properties.
func (h *Handler) UpdateInformationSupplyChain(ctx context.Context, guid string, replaceAll bool, props *InformationSupplyChainProperties) error {
	const method = "UpdateInformationSupplyChain"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	return h.update(ctx, method, TypeInformationSupplyChain, guid, replaceAll, props.ContentStatus, props)
}

// UpdateInformationSupplyChainStatus moves a supply chain to a new content status.
func (h *Handler) UpdateInformationSupplyChainStatus(ctx context.Context, guid, status string) error {
	_, err := h.base.UpdateStatus(ctx, "UpdateInformationSupplyChainStatus", TypeInformationSupplyChain, guid, status)
	return err
}

// DeleteInformationSupplyChain deletes a supply chain. Its segments are
// anchored to it, so a chain with segments needs cascade.
func (h *Handler) DeleteInformationSupplyChain(ctx context.Context, guid string, cascade bool) error {
	return h.base.Delete(ctx, "DeleteInformationSupplyChain", TypeInformationSupplyChain, guid, cascade)
}

// GetInformationSupplyChainByGUID returns the supply chain with its segments and Mermaid graph.
func (h *Handler) GetInformationSupplyChainByGUID(ctx context.Context, guid string, at *time.Time) (*InformationSupplyChainElement, error) {
	const method = "GetInformationSupplyChainByGUID"
	el, err := h.base.GetElement(ctx, method, TypeInformationSupplyChain, guid, at)
	if err != nil {
		return nil, err
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	return h.chainView(ctx, s, method, el, at)
}

// GetInformationSupplyChainsByName returns the supply chains whose qualified or display name equals name.
func (h *Handler) GetInformationSupplyChainsByName(ctx context.Context, name string, q handlers.QueryOptions) ([]*InformationSupplyChainElement, error) {
	const method = "GetInformationSupplyChainsByName"
	els, err := h.base.FindByName(ctx, method, TypeInformationSupplyChain, name, q)
	if err != nil {
		return nil, err
	}
	return h.chainViews(ctx, method, els, q.EffectiveTime)
}

// FindInformationSupplyChains returns the supply chains matching the regular expression.
func (h *Handler) FindInformationSupplyChains(ctx context.Context, searchString string, q handlers.QueryOptions) ([]*InformationSupplyChainElement, error) {
	const method = "FindInformationSupplyChains"
	els, err := h.base.Search(ctx, method, TypeInformationSupplyChain, searchString, q)
	if err != nil {
		return nil, err
	}
	return h.chainViews(ctx, method, els, q.EffectiveTime)
}

// CreateInformationSupplyChainSegment creates a segment in a supply chain.
// The segment is anchored to the chain.
func (h *Handler) CreateInformationSupplyChainSegment(ctx context.Context, chainGUID string, props *InformationSupplyChainSegmentProperties) (string, error) {
	const method = "CreateInformationSupplyChainSegment"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	if _, err := h.base.GetElement(ctx, method, TypeInformationSupplyChain, chainGUID, nil); err != nil {
		return "", err
	}
	return h.create(ctx, method, TypeInformationSupplyChainSegment, &handlers.NewElementOptions{
		AnchorGUID:                 chainGUID,
		ParentGUID:                 chainGUID,
		ParentRelationshipTypeName: RelInformationSupplyChainComposition,
		ParentAtEnd1:               true,
	}, props.QualifiedName, props)
}

// UpdateInformationSupplyChainSegment merges or replaces a segment's properties.
func (h *Handler) UpdateInformationSupplyChainSegment(ctx context.Context, guid string, replaceAll bool, props *InformationSupplyChainSegmentProperties) error {
	const method = "UpdateInformationSupplyChainSegment"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	return h.update(ctx, method, TypeInformationSupplyChainSegment, guid, replaceAll, "", props)
}

// DeleteInformationSupplyChainSegment deletes a segment and its links.
func (h *Handler) DeleteInformationSupplyChainSegment(ctx context.Context, guid string) error {
	return h.base.Delete(ctx, "DeleteInformationSupplyChainSegment", TypeInformationSupplyChainSegment, guid, false)
}

// LinkSegments records that information flows from segment1 to segment2.
func (h *Handler) LinkSegments(ctx context.Context, segment1GUID, segment2GUID string, props *InformationSupplyChainLinkProperties) (string, error) {
	const method = "LinkSegments"
	for _, guid := range []string{segment1GUID, segment2GUID} {
		if _, err := h.base.GetElement(ctx, method, TypeInformationSupplyChainSegment, guid, nil); err != nil {
			return "", err
		}
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelInformationSupplyChainLink, segment1GUID, segment2GUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// UnlinkSegments removes the link from segment1 to segment2.
func (h *Handler) UnlinkSegments(ctx context.Context, segment1GUID, segment2GUID string) error {
	return h.base.Unlink(ctx, "UnlinkSegments", RelInformationSupplyChainLink, segment1GUID, segment2GUID)
}

// LinkSegmentImplementation records that a solution component implements a segment.
func (h *Handler) LinkSegmentImplementation(ctx context.Context, segmentGUID, componentGUID string, props *ImplementedByProperties) (string, error) {
	const method = "LinkSegmentImplementation"
	if _, err := h.base.GetElement(ctx, method, TypeInformationSupplyChainSegment, segmentGUID, nil); err != nil {
		return "", err
	}
	if _, err := h.base.GetElement(ctx, method, TypeSolutionComponent, componentGUID, nil); err != nil {
		return "", err
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelImplementedBy, segmentGUID, componentGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

// UnlinkSegmentImplementation removes a component from a segment's implementation.
func (h *Handler) UnlinkSegmentImplementation(ctx context.Context, segmentGUID, componentGUID string) error {
	return h.base.Unlink(ctx, "UnlinkSegmentImplementation", RelImplementedBy, segmentGUID, componentGUID)
}

func (h *Handler) chainViews(ctx context.Context, method string, els []*store.Element, at *time.Time) ([]*InformationSupplyChainElement, error) {
	if len(els) == 0 {
		return []*InformationSupplyChainElement{}, nil
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*InformationSupplyChainElement, 0, len(els))
	for _, el := range els {
		view, err := h.chainView(ctx, s, method, el, at)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// chainView assembles a supply chain with every segment, each segment's
// outgoing links and implementing components.
func (h *Handler) chainView(ctx context.Context, s store.Store, method string, el *store.Element, at *time.Time) (*InformationSupplyChainElement, error) {
	props, err := convert[InformationSupplyChainProperties](method, el)
	if err != nil {
		return nil, err
	}
	view := &InformationSupplyChainElement{
		Header:     handlers.Header(el),
		Properties: *props,
	}

	segments, err := h.base.AllRelated(ctx, s, el.GUID, RelInformationSupplyChainComposition, store.AtEnd1, at)
	if err != nil {
		return nil, fmt.Errorf("%s: listing segments: %w", method, err)
	}
	processed := make(map[string]bool)
	var linkTargets []*store.RelatedElement
	for _, seg := range segments {
		if seg.Element.TypeName != TypeInformationSupplyChainSegment || processed[seg.Element.GUID] {
			continue
		}
		processed[seg.Element.GUID] = true

		segProps, err := convert[InformationSupplyChainSegmentProperties](method, seg.Element)
		if err != nil {
			return nil, err
		}
		segView := &InformationSupplyChainSegmentElement{
			Header:     handlers.Header(seg.Element),
			Properties: *segProps,
		}

		links, err := h.base.AllRelated(ctx, s, seg.Element.GUID, RelInformationSupplyChainLink, store.AtEnd1, at)
		if err != nil {
			return nil, fmt.Errorf("%s: listing links of %s: %w", method, seg.Element.GUID, err)
		}
		for _, l := range links {
			linkProps, err := store.FromProperties[InformationSupplyChainLinkProperties](l.Relationship.Properties)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", method, err)
			}
			segView.Links = append(segView.Links, &SegmentLink{
				RelationshipGUID: l.Relationship.GUID,
				TargetGUID:       l.Element.GUID,
				Label:            linkProps.Label,
				Description:      linkProps.Description,
			})
			linkTargets = append(linkTargets, l)
		}

		impl, err := h.base.AllRelated(ctx, s, seg.Element.GUID, RelImplementedBy, store.AtEnd1, at)
		if err != nil {
			return nil, fmt.Errorf("%s: listing implementations of %s: %w", method, seg.Element.GUID, err)
		}
		segView.ImplementedBy = summaries(impl, TypeSolutionComponent)

		view.Segments = append(view.Segments, segView)
	}

	view.MermaidGraph = chainMermaid(el, view, linkTargets)
	return view, nil
}
