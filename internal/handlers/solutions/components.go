package solutions

import (
	"context"
	"fmt"
	"time"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/validation"
)

// CreateSolutionBlueprint creates a blueprint and returns its GUID.
func (h *Handler) CreateSolutionBlueprint(ctx context.Context, opts *handlers.NewElementOptions, props *SolutionBlueprintProperties) (string, error) {
	const method = "CreateSolutionBlueprint"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	p := *props
	if err := initialStatus(method, &p.ContentStatus); err != nil {
		return "", err
	}
	return h.create(ctx, method, TypeSolutionBlueprint, ownAnchor(opts), p.QualifiedName, &p)
}

func (h *Handler) UpdateSolutionBlueprint(ctx context.Context, guid string, replaceAll bool, props *SolutionBlueprintProperties) error {
	const method = "UpdateSolutionBlueprint"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	return h.update(ctx, method, TypeSolutionBlueprint, guid, replaceAll, props.ContentStatus, props)
}

func (h *Handler) UpdateSolutionBlueprintStatus(ctx context.Context, guid, status string) error {
	_, err := h.base.UpdateStatus(ctx, "UpdateSolutionBlueprintStatus", TypeSolutionBlueprint, guid, status)
	return err
}

// DeleteSolutionBlueprint deletes a blueprint. Its components are not
// anchored to it and survive.
func (h *Handler) DeleteSolutionBlueprint(ctx context.Context, guid string, cascade bool) error {
	return h.base.Delete(ctx, "DeleteSolutionBlueprint", TypeSolutionBlueprint, guid, cascade)
}

// GetSolutionBlueprintByGUID returns the blueprint with its component trees.
func (h *Handler) GetSolutionBlueprintByGUID(ctx context.Context, guid string, at *time.Time) (*SolutionBlueprintElement, error) {
	const method = "GetSolutionBlueprintByGUID"
	el, err := h.base.GetElement(ctx, method, TypeSolutionBlueprint, guid, at)
	if err != nil {
		return nil, err
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	return h.blueprintView(ctx, s, method, el, at)
}

func (h *Handler) GetSolutionBlueprintsByName(ctx context.Context, name string, q handlers.QueryOptions) ([]*SolutionBlueprintElement, error) {
	const method = "GetSolutionBlueprintsByName"
	els, err := h.base.FindByName(ctx, method, TypeSolutionBlueprint, name, q)
	if err != nil {
		return nil, err
	}
	return h.blueprintViews(ctx, method, els, q.EffectiveTime)
}

func (h *Handler) FindSolutionBlueprints(ctx context.Context, searchString string, q handlers.QueryOptions) ([]*SolutionBlueprintElement, error) {
	const method = "FindSolutionBlueprints"
	els, err := h.base.Search(ctx, method, TypeSolutionBlueprint, searchString, q)
	if err != nil {
		return nil, err
	}
	return h.blueprintViews(ctx, method, els, q.EffectiveTime)
}

// AddComponentToBlueprint adds a component to a blueprint. Adding it twice
// returns the existing relationship.
func (h *Handler) AddComponentToBlueprint(ctx context.Context, blueprintGUID, componentGUID string) (string, error) {
	const method = "AddComponentToBlueprint"
	if _, err := h.base.GetElement(ctx, method, TypeSolutionBlueprint, blueprintGUID, nil); err != nil {
		return "", err
	}
	if _, err := h.base.GetElement(ctx, method, TypeSolutionComponent, componentGUID, nil); err != nil {
		return "", err
	}
	rel, err := h.base.LinkOnce(ctx, method, RelSolutionBlueprintComposition, blueprintGUID, componentGUID, nil)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

func (h *Handler) RemoveComponentFromBlueprint(ctx context.Context, blueprintGUID, componentGUID string) error {
	return h.base.Unlink(ctx, "RemoveComponentFromBlueprint", RelSolutionBlueprintComposition, blueprintGUID, componentGUID)
}

// CreateSolutionComponent creates a component and returns its GUID. When
// opts names a parent, the usual parent relationship is SolutionComposition.
func (h *Handler) CreateSolutionComponent(ctx context.Context, opts *handlers.NewElementOptions, props *SolutionComponentProperties) (string, error) {
	const method = "CreateSolutionComponent"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	p := *props
	if err := initialStatus(method, &p.ContentStatus); err != nil {
		return "", err
	}
	return h.create(ctx, method, TypeSolutionComponent, ownAnchor(opts), p.QualifiedName, &p)
}

func (h *Handler) UpdateSolutionComponent(ctx context.Context, guid string, replaceAll bool, props *SolutionComponentProperties) error {
	const method = "UpdateSolutionComponent"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	return h.update(ctx, method, TypeSolutionComponent, guid, replaceAll, props.ContentStatus, props)
}

func (h *Handler) UpdateSolutionComponentStatus(ctx context.Context, guid, status string) error {
	_, err := h.base.UpdateStatus(ctx, "UpdateSolutionComponentStatus", TypeSolutionComponent, guid, status)
	return err
}

// DeleteSolutionComponent deletes a component and every relationship it takes part in.
func (h *Handler) DeleteSolutionComponent(ctx context.Context, guid string, cascade bool) error {
	return h.base.Delete(ctx, "DeleteSolutionComponent", TypeSolutionComponent, guid, cascade)
}

// GetSolutionComponentByGUID returns the component with its sub-component
// tree, wires, actors and owning blueprints.
func (h *Handler) GetSolutionComponentByGUID(ctx context.Context, guid string, at *time.Time) (*SolutionComponentElement, error) {
	const method = "GetSolutionComponentByGUID"
	el, err := h.base.GetElement(ctx, method, TypeSolutionComponent, guid, at)
	if err != nil {
		return nil, err
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	view, err := h.componentView(ctx, s, method, el, at)
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (h *Handler) GetSolutionComponentsByName(ctx context.Context, name string, q handlers.QueryOptions) ([]*SolutionComponentElement, error) {
	const method = "GetSolutionComponentsByName"
	els, err := h.base.FindByName(ctx, method, TypeSolutionComponent, name, q)
	if err != nil {
		return nil, err
	}
	return h.componentViews(ctx, method, els, q.EffectiveTime)
}

func (h *Handler) FindSolutionComponents(ctx context.Context, searchString string, q handlers.QueryOptions) ([]*SolutionComponentElement, error) {
	const method = "FindSolutionComponents"
	els, err := h.base.Search(ctx, method, TypeSolutionComponent, searchString, q)
	if err != nil {
		return nil, err
	}
	return h.componentViews(ctx, method, els, q.EffectiveTime)
}

// AddSubComponent makes child a sub-component of parent.
func (h *Handler) AddSubComponent(ctx context.Context, parentGUID, childGUID string) (string, error) {
	const method = "AddSubComponent"
	if parentGUID == childGUID {
		return "", faults.Invalidf("%s: a component cannot contain itself", method)
	}
	if err := h.requireComponents(ctx, method, parentGUID, childGUID); err != nil {
		return "", err
	}
	rel, err := h.base.LinkOnce(ctx, method, RelSolutionComposition, parentGUID, childGUID, nil)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

func (h *Handler) RemoveSubComponent(ctx context.Context, parentGUID, childGUID string) error {
	return h.base.Unlink(ctx, "RemoveSubComponent", RelSolutionComposition, parentGUID, childGUID)
}

// WireComponents connects two components with a SolutionLinkingWire.
func (h *Handler) WireComponents(ctx context.Context, component1GUID, component2GUID string, props *SolutionLinkingWireProperties) (string, error) {
	const method = "WireComponents"
	if err := h.requireComponents(ctx, method, component1GUID, component2GUID); err != nil {
		return "", err
	}
	if props != nil {
		for _, guid := range props.InformationSupplyChainGUIDs {
			if err := validation.GUID(guid, "informationSupplyChainGUIDs", method); err != nil {
				return "", err
			}
		}
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelSolutionLinkingWire, component1GUID, component2GUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

func (h *Handler) UnwireComponents(ctx context.Context, component1GUID, component2GUID string) error {
	return h.base.Unlink(ctx, "UnwireComponents", RelSolutionLinkingWire, component1GUID, component2GUID)
}

// LinkSolutionRole records that a role acts on a component.
func (h *Handler) LinkSolutionRole(ctx context.Context, roleGUID, componentGUID string, props *SolutionComponentActorProperties) (string, error) {
	const method = "LinkSolutionRole"
	if _, err := h.base.GetElement(ctx, method, TypeSolutionRole, roleGUID, nil); err != nil {
		return "", err
	}
	if _, err := h.base.GetElement(ctx, method, TypeSolutionComponent, componentGUID, nil); err != nil {
		return "", err
	}
	bag, err := handlers.OptionalProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	rel, err := h.base.LinkOnce(ctx, method, RelSolutionComponentActor, roleGUID, componentGUID, bag)
	if err != nil {
		return "", err
	}
	return rel.GUID, nil
}

func (h *Handler) UnlinkSolutionRole(ctx context.Context, roleGUID, componentGUID string) error {
	return h.base.Unlink(ctx, "UnlinkSolutionRole", RelSolutionComponentActor, roleGUID, componentGUID)
}

func (h *Handler) requireComponents(ctx context.Context, method string, guids ...string) error {
	for _, guid := range guids {
		if _, err := h.base.GetElement(ctx, method, TypeSolutionComponent, guid, nil); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) blueprintViews(ctx context.Context, method string, els []*store.Element, at *time.Time) ([]*SolutionBlueprintElement, error) {
	out := make([]*SolutionBlueprintElement, 0, len(els))
	if len(els) == 0 {
		return out, nil
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		view, err := h.blueprintView(ctx, s, method, el, at)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (h *Handler) blueprintView(ctx context.Context, s store.Store, method string, el *store.Element, at *time.Time) (*SolutionBlueprintElement, error) {
	props, err := convert[SolutionBlueprintProperties](method, el)
	if err != nil {
		return nil, err
	}
	view := &SolutionBlueprintElement{
		Header:     handlers.Header(el),
		Properties: *props,
	}
	related, err := h.base.AllRelated(ctx, s, el.GUID, RelSolutionBlueprintComposition, store.AtEnd1, at)
	if err != nil {
		return nil, fmt.Errorf("%s: listing components: %w", method, err)
	}
	processed := make(map[string]bool)
	for _, r := range related {
		if r.Element.TypeName != TypeSolutionComponent || processed[r.Element.GUID] {
			continue
		}
		processed[r.Element.GUID] = true
		c, err := h.buildComponent(ctx, s, method, r.Element, at, 1, processed)
		if err != nil {
			return nil, err
		}
		view.Components = append(view.Components, c)
	}
	view.MermaidGraph = blueprintMermaid(el, view)
	return view, nil
}

func (h *Handler) componentViews(ctx context.Context, method string, els []*store.Element, at *time.Time) ([]*SolutionComponentElement, error) {
	out := make([]*SolutionComponentElement, 0, len(els))
	if len(els) == 0 {
		return out, nil
	}
	s, err := h.base.Store(ctx)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		view, err := h.componentView(ctx, s, method, el, at)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

func (h *Handler) componentView(ctx context.Context, s store.Store, method string, el *store.Element, at *time.Time) (*SolutionComponentElement, error) {
	view, err := h.buildComponent(ctx, s, method, el, at, 1, map[string]bool{el.GUID: true})
	if err != nil {
		return nil, err
	}
	view.MermaidGraph = componentMermaid(el, view)
	return view, nil
}

// buildComponent assembles one component. The caller has already marked el
// as processed; sub-components already in processed are left out so each
// component appears once in the tree.
func (h *Handler) buildComponent(ctx context.Context, s store.Store, method string, el *store.Element, at *time.Time, depth int, processed map[string]bool) (*SolutionComponentElement, error) {
	props, err := convert[SolutionComponentProperties](method, el)
	if err != nil {
		return nil, err
	}
	view := &SolutionComponentElement{
		Header:     handlers.Header(el),
		Properties: *props,
	}

	for _, dir := range []store.Direction{store.AtEnd1, store.AtEnd2} {
		wires, err := h.base.AllRelated(ctx, s, el.GUID, RelSolutionLinkingWire, dir, at)
		if err != nil {
			return nil, fmt.Errorf("%s: listing wires of %s: %w", method, el.GUID, err)
		}
		for _, w := range wires {
			wire, err := store.FromProperties[SolutionLinkingWireProperties](w.Relationship.Properties)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", method, err)
			}
			view.WiredTo = append(view.WiredTo, &WiredComponent{
				Wire:      *wire,
				Outgoing:  dir == store.AtEnd1,
				Component: handlers.SummarizeRelated(w),
			})
		}
	}

	actors, err := h.base.AllRelated(ctx, s, el.GUID, RelSolutionComponentActor, store.AtEnd2, at)
	if err != nil {
		return nil, fmt.Errorf("%s: listing actors of %s: %w", method, el.GUID, err)
	}
	for _, a := range actors {
		role, err := store.FromProperties[SolutionComponentActorProperties](a.Relationship.Properties)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		view.Actors = append(view.Actors, &ComponentActor{Role: *role, Actor: handlers.SummarizeRelated(a)})
	}

	blueprints, err := h.base.AllRelated(ctx, s, el.GUID, RelSolutionBlueprintComposition, store.AtEnd2, at)
	if err != nil {
		return nil, fmt.Errorf("%s: listing blueprints of %s: %w", method, el.GUID, err)
	}
	view.Blueprints = summaries(blueprints, TypeSolutionBlueprint)

	if depth >= h.base.MaxDepth() {
		return view, nil
	}
	subs, err := h.base.AllRelated(ctx, s, el.GUID, RelSolutionComposition, store.AtEnd1, at)
	if err != nil {
		return nil, fmt.Errorf("%s: listing sub-components of %s: %w", method, el.GUID, err)
	}
	for _, sub := range subs {
		if sub.Element.TypeName != TypeSolutionComponent || processed[sub.Element.GUID] {
			continue
		}
		processed[sub.Element.GUID] = true
		child, err := h.buildComponent(ctx, s, method, sub.Element, at, depth+1, processed)
		if err != nil {
			return nil, err
		}
		view.SubComponents = append(view.SubComponents, child)
	}
	return view, nil
}
