// Package solutions manages information supply chains and their segments,
// solution blueprints, solution components and solution roles, and assembles
// the nested views that tie them together.
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

// Handler translates solution operations onto the store.
type Handler struct {
	base *handlers.Base
}

// New creates a solutions handler.
func New(base *handlers.Base) *Handler {
	return &Handler{base: base}
}

func (h *Handler) create(ctx context.Context, method, typeName string, opts *handlers.NewElementOptions, qualifiedName string, props any) (string, error) {
	bag, err := store.ToProperties(props)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	el, err := h.base.CreateElement(ctx, method, typeName, opts, qualifiedName, nil, bag)
	if err != nil {
		return "", err
	}
	return el.GUID, nil
}

func (h *Handler) update(ctx context.Context, method, typeName, guid string, replaceAll bool, contentStatus string, props any) error {
	if contentStatus != "" {
		return faults.Invalidf("%s: contentStatus is changed through the status operation", method)
	}
	bag, err := store.ToProperties(props)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	_, err = h.base.Update(ctx, method, typeName, guid, replaceAll, bag, nil)
	return err
}

// initialStatus fills in the default content status or rejects an unknown one.
func initialStatus(method string, status *string) error {
	if *status == "" {
		*status = validation.DefaultStatus
		return nil
	}
	if !validation.IsKnownStatus(*status) {
		return faults.Invalidf("%s: unknown contentStatus %q", method, *status)
	}
	return nil
}

// ownAnchor makes top-level solution elements their own anchors unless the
// caller says otherwise.
func ownAnchor(opts *handlers.NewElementOptions) *handlers.NewElementOptions {
	if opts == nil {
		return &handlers.NewElementOptions{IsOwnAnchor: true}
	}
	return opts
}

func convert[T any](method string, el *store.Element) (*T, error) {
	props, err := store.FromProperties[T](el.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: converting %s: %w", method, el.GUID, err)
	}
	return props, nil
}

func summaries(related []*store.RelatedElement, typeName string) []handlers.ElementSummary {
	var out []handlers.ElementSummary
	for _, r := range related {
		if typeName != "" && r.Element.TypeName != typeName {
			continue
		}
		out = append(out, handlers.SummarizeRelated(r))
	}
	return out
}

// CreateSolutionRole creates a solution role and returns its GUID.
func (h *Handler) CreateSolutionRole(ctx context.Context, opts *handlers.NewElementOptions, props *SolutionRoleProperties) (string, error) {
	const method = "CreateSolutionRole"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	if err := validation.Name(props.Name, "name", method); err != nil {
		return "", err
	}
	return h.create(ctx, method, TypeSolutionRole, ownAnchor(opts), props.QualifiedName, props)
}

// UpdateSolutionRole merges or replaces a role's properties.
func (h *Handler) UpdateSolutionRole(ctx context.Context, guid string, replaceAll bool, props *SolutionRoleProperties) error {
	const method = "UpdateSolutionRole"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	return h.update(ctx, method, TypeSolutionRole, guid, replaceAll, "", props)
}

// DeleteSolutionRole deletes a role and its links to components.
func (h *Handler) DeleteSolutionRole(ctx context.Context, guid string) error {
	return h.base.Delete(ctx, "DeleteSolutionRole", TypeSolutionRole, guid, false)
}

// GetSolutionRoleByGUID returns a role if it is effective at the given time.
func (h *Handler) GetSolutionRoleByGUID(ctx context.Context, guid string, at *time.Time) (*SolutionRoleElement, error) {
	const method = "GetSolutionRoleByGUID"
	el, err := h.base.GetElement(ctx, method, TypeSolutionRole, guid, at)
	if err != nil {
		return nil, err
	}
	return toRole(method, el)
}

// GetSolutionRolesByName returns roles whose qualified name or name equals name.
func (h *Handler) GetSolutionRolesByName(ctx context.Context, name string, q handlers.QueryOptions) ([]*SolutionRoleElement, error) {
	const method = "GetSolutionRolesByName"
	els, err := h.base.FindByName(ctx, method, TypeSolutionRole, name, q)
	if err != nil {
		return nil, err
	}
	return toRoles(method, els)
}

// FindSolutionRoles returns roles matching the regular expression.
func (h *Handler) FindSolutionRoles(ctx context.Context, searchString string, q handlers.QueryOptions) ([]*SolutionRoleElement, error) {
	const method = "FindSolutionRoles"
	els, err := h.base.Search(ctx, method, TypeSolutionRole, searchString, q)
	if err != nil {
		return nil, err
	}
	return toRoles(method, els)
}

func toRole(method string, el *store.Element) (*SolutionRoleElement, error) {
	props, err := convert[SolutionRoleProperties](method, el)
	if err != nil {
		return nil, err
	}
	return &SolutionRoleElement{Header: handlers.Header(el), Properties: *props}, nil
}

func toRoles(method string, els []*store.Element) ([]*SolutionRoleElement, error) {
	out := make([]*SolutionRoleElement, 0, len(els))
	for _, el := range els {
		r, err := toRole(method, el)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
