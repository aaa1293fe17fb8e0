// Package contacts exposes the contact details handler as om_contact_* MCP tools.
package contacts

import (
	"context"

	cd "github.com/emergent-company/omviews/internal/handlers/contactdetails"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/tools/params"
)

var methodTypes = []string{"Email", "Phone", "Chat", "Profile", "Account", "Other"}

type writeParams struct {
	ElementGUID string                      `json:"element_guid,omitempty"`
	GUID        string                      `json:"guid,omitempty"`
	ReplaceAll  bool                        `json:"replace_all,omitempty"`
	MethodType  string                      `json:"contact_method_type,omitempty"`
	Properties  *cd.ContactMethodProperties `json:"properties"`
}

// properties applies the named method type, which takes precedence over a
// numeric one in the properties.
func (p writeParams) properties() (*cd.ContactMethodProperties, error) {
	if p.MethodType == "" || p.Properties == nil {
		return p.Properties, nil
	}
	t, err := cd.ParseContactMethodType(p.MethodType)
	if err != nil {
		return nil, err
	}
	props := *p.Properties
	props.ContactMethodType = cd.MethodType(t)
	return &props, nil
}

type nameParams struct {
	params.Query
	Name string `json:"name"`
}

type searchParams struct {
	params.Query
	SearchString string `json:"search_string"`
}

type elementParams struct {
	params.Query
	ElementGUID string `json:"element_guid"`
}

var (
	propsField = params.Object("properties", "Contact properties: qualifiedName, name, contactType, contactMethodService, contactMethodValue, effectiveFrom, effectiveTo")
	typeField  = params.String("contact_method_type", "How the contact is reached").OneOf(methodTypes...)
)

// Register adds every contact details tool to reg.
func Register(reg *mcp.Registry, h *cd.Handler) {
	reg.Register(mcp.NewTool("om_contact_create",
		"Add a contact method to a profile or actor. The contact is anchored to that element. Returns the new GUID.",
		params.Schema(params.String("element_guid", "GUID of the profile or actor").Req(), typeField, propsField.Req()),
		func(ctx context.Context, p writeParams) (any, error) {
			props, err := p.properties()
			if err != nil {
				return nil, err
			}
			guid, err := h.CreateContactDetails(ctx, p.ElementGUID, props)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_contact_update",
		"Update a contact method. With replace_all the given properties replace the existing ones.",
		params.Schema(params.String("guid", "GUID of the contact details").Req(),
			params.Bool("replace_all", "Replace rather than merge"), typeField, propsField.Req()),
		func(ctx context.Context, p writeParams) (any, error) {
			props, err := p.properties()
			if err != nil {
				return nil, err
			}
			return params.OK, h.UpdateContactDetails(ctx, p.GUID, p.ReplaceAll, props)
		}))

	reg.Register(mcp.NewTool("om_contact_delete",
		"Delete a contact method.",
		params.Schema(params.String("guid", "GUID of the contact details").Req()),
		func(ctx context.Context, p params.GUID) (any, error) {
			return params.OK, h.DeleteContactDetails(ctx, p.GUID)
		}))

	reg.Register(mcp.NewTool("om_contact_get",
		"Get a contact method by GUID.",
		params.Schema(params.GUIDFields("contact details")...),
		func(ctx context.Context, p params.GUID) (any, error) {
			at, err := p.At()
			if err != nil {
				return nil, err
			}
			return h.GetContactDetailsByGUID(ctx, p.GUID, at)
		}))

	reg.Register(mcp.NewTool("om_contact_get_by_name",
		"Get the contact methods whose qualified name or name equals name.",
		params.Schema(params.With(params.QueryFields, params.String("name", "Name to match exactly").Req())...),
		func(ctx context.Context, p nameParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetContactDetailsByName(ctx, p.Name, q)
		}))

	reg.Register(mcp.NewTool("om_contact_find",
		"Find contact methods matching a case-insensitive regular expression.",
		params.Schema(params.With(params.QueryFields, params.String("search_string", "Regular expression").Req())...),
		func(ctx context.Context, p searchParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.FindContactDetails(ctx, p.SearchString, q)
		}))

	reg.Register(mcp.NewTool("om_contact_get_for_element",
		"List the contact methods of a profile or actor.",
		params.Schema(params.With(params.QueryFields, params.String("element_guid", "GUID of the profile or actor").Req())...),
		func(ctx context.Context, p elementParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetContactDetailsForElement(ctx, p.ElementGUID, q)
		}))
}
