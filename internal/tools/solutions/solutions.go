// Package solutions exposes the solution architect handler as MCP tools:
// om_supply_chain_*, om_solution_blueprint_*, om_solution_component_* and
// om_solution_role_*.
package solutions

import (
	"context"

	sol "github.com/emergent-company/omviews/internal/handlers/solutions"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/tools/params"
)

type chainWrite struct {
	params.Anchor
	GUID       string                                `json:"guid,omitempty"`
	ReplaceAll bool                                  `json:"replace_all,omitempty"`
	Properties *sol.InformationSupplyChainProperties `json:"properties"`
}

type segmentWrite struct {
	ChainGUID  string                                       `json:"chain_guid,omitempty"`
	GUID       string                                       `json:"guid,omitempty"`
	ReplaceAll bool                                         `json:"replace_all,omitempty"`
	Properties *sol.InformationSupplyChainSegmentProperties `json:"properties"`
}

type segmentLink struct {
	pairParams
	Properties *sol.InformationSupplyChainLinkProperties `json:"properties,omitempty"`
}

type implementation struct {
	pairParams
	Properties *sol.ImplementedByProperties `json:"properties,omitempty"`
}

type blueprintWrite struct {
	params.Anchor
	GUID       string                           `json:"guid,omitempty"`
	ReplaceAll bool                             `json:"replace_all,omitempty"`
	Properties *sol.SolutionBlueprintProperties `json:"properties"`
}

type componentWrite struct {
	params.Anchor
	GUID       string                           `json:"guid,omitempty"`
	ReplaceAll bool                             `json:"replace_all,omitempty"`
	Properties *sol.SolutionComponentProperties `json:"properties"`
}

type wire struct {
	pairParams
	Properties *sol.SolutionLinkingWireProperties `json:"properties,omitempty"`
}

type roleLink struct {
	pairParams
	Properties *sol.SolutionComponentActorProperties `json:"properties,omitempty"`
}

type roleWrite struct {
	params.Anchor
	GUID       string                      `json:"guid,omitempty"`
	ReplaceAll bool                        `json:"replace_all,omitempty"`
	Properties *sol.SolutionRoleProperties `json:"properties"`
}

var replaceAll = params.Bool("replace_all", "Replace rather than merge")

func guidField(what string) params.Field {
	return params.String("guid", "GUID of the "+what).Req()
}

// Register adds every solution tool to reg.
func Register(reg *mcp.Registry, h *sol.Handler) {
	registerChains(reg, h)
	registerComponents(reg, h)
	registerRoles(reg, h)
}

func registerChains(reg *mcp.Registry, h *sol.Handler) {
	props := params.Object("properties", "Supply chain properties: qualifiedName, displayName, description, scope, purposes, version, additionalProperties, effectiveFrom, effectiveTo").Req()
	segProps := params.Object("properties", "Segment properties: qualifiedName, displayName, description, scope, integrationStyle, estimatedVolumetrics, additionalProperties, effectiveFrom, effectiveTo").Req()

	reg.Register(mcp.NewTool("om_supply_chain_create",
		"Create an information supply chain. Returns the new GUID.",
		params.Schema(params.With(params.AnchorFields, props)...),
		func(ctx context.Context, p chainWrite) (any, error) {
			guid, err := h.CreateInformationSupplyChain(ctx, p.Anchor.Options(), p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(mcp.NewTool("om_supply_chain_update",
		"Update an information supply chain's properties.",
		params.Schema(guidField("supply chain"), replaceAll, props),
		func(ctx context.Context, p chainWrite) (any, error) {
			return params.OK, h.UpdateInformationSupplyChain(ctx, p.GUID, p.ReplaceAll, p.Properties)
		}))
	reg.Register(statusTool("om_supply_chain", "supply chain", h.UpdateInformationSupplyChainStatus))
	reg.Register(deleteTool("om_supply_chain", "supply chain", h.DeleteInformationSupplyChain))
	reg.Register(getTool("om_supply_chain", "supply chain", h.GetInformationSupplyChainByGUID))
	reg.Register(nameTool("om_supply_chain", "supply chain", h.GetInformationSupplyChainsByName))
	reg.Register(findTool("om_supply_chain", "supply chain", h.FindInformationSupplyChains))

	reg.Register(mcp.NewTool("om_supply_chain_segment_create",
		"Add a segment to an information supply chain. The segment is anchored to the chain. Returns the new GUID.",
		params.Schema(params.String("chain_guid", "GUID of the supply chain").Req(), segProps),
		func(ctx context.Context, p segmentWrite) (any, error) {
			guid, err := h.CreateInformationSupplyChainSegment(ctx, p.ChainGUID, p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(mcp.NewTool("om_supply_chain_segment_update",
		"Update a supply chain segment's properties.",
		params.Schema(guidField("segment"), replaceAll, segProps),
		func(ctx context.Context, p segmentWrite) (any, error) {
			return params.OK, h.UpdateInformationSupplyChainSegment(ctx, p.GUID, p.ReplaceAll, p.Properties)
		}))
	reg.Register(mcp.NewTool("om_supply_chain_segment_delete",
		"Delete a supply chain segment.",
		params.Schema(guidField("segment")),
		func(ctx context.Context, p params.GUID) (any, error) {
			return params.OK, h.DeleteInformationSupplyChainSegment(ctx, p.GUID)
		}))
	reg.Register(mcp.NewTool("om_supply_chain_segment_link",
		"Record that information flows from one segment to another.",
		params.Schema(append(pairFields("source segment", "target segment"),
			params.Object("properties", "Link properties: label, description"))...),
		func(ctx context.Context, p segmentLink) (any, error) {
			guid, err := h.LinkSegments(ctx, p.From, p.To, p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(unlinkTool("om_supply_chain_segment_unlink", "Remove the flow between two segments.",
		"source segment", "target segment", h.UnlinkSegments))
	reg.Register(mcp.NewTool("om_supply_chain_segment_link_implementation",
		"Record that a solution component implements a segment.",
		params.Schema(append(pairFields("segment", "solution component"),
			params.Object("properties", "Implementation properties: designStep, role, transformation, description"))...),
		func(ctx context.Context, p implementation) (any, error) {
			guid, err := h.LinkSegmentImplementation(ctx, p.From, p.To, p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(unlinkTool("om_supply_chain_segment_unlink_implementation", "Remove a segment's implementing component.",
		"segment", "solution component", h.UnlinkSegmentImplementation))
}

func registerComponents(reg *mcp.Registry, h *sol.Handler) {
	bpProps := params.Object("properties", "Blueprint properties: qualifiedName, displayName, description, version, additionalProperties, effectiveFrom, effectiveTo").Req()
	compProps := params.Object("properties", "Component properties: qualifiedName, displayName, description, solutionComponentType, plannedDeployedImplementationType, version, additionalProperties, effectiveFrom, effectiveTo").Req()

	reg.Register(mcp.NewTool("om_solution_blueprint_create",
		"Create a solution blueprint. Returns the new GUID.",
		params.Schema(params.With(params.AnchorFields, bpProps)...),
		func(ctx context.Context, p blueprintWrite) (any, error) {
			guid, err := h.CreateSolutionBlueprint(ctx, p.Anchor.Options(), p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(mcp.NewTool("om_solution_blueprint_update",
		"Update a solution blueprint's properties.",
		params.Schema(guidField("blueprint"), replaceAll, bpProps),
		func(ctx context.Context, p blueprintWrite) (any, error) {
			return params.OK, h.UpdateSolutionBlueprint(ctx, p.GUID, p.ReplaceAll, p.Properties)
		}))
	reg.Register(statusTool("om_solution_blueprint", "blueprint", h.UpdateSolutionBlueprintStatus))
	reg.Register(deleteTool("om_solution_blueprint", "blueprint", h.DeleteSolutionBlueprint))
	reg.Register(getTool("om_solution_blueprint", "blueprint", h.GetSolutionBlueprintByGUID))
	reg.Register(nameTool("om_solution_blueprint", "blueprint", h.GetSolutionBlueprintsByName))
	reg.Register(findTool("om_solution_blueprint", "blueprint", h.FindSolutionBlueprints))
	reg.Register(mcp.NewTool("om_solution_blueprint_add_component",
		"Add a solution component to a blueprint.",
		params.Schema(pairFields("blueprint", "solution component")...),
		func(ctx context.Context, p pairParams) (any, error) {
			guid, err := h.AddComponentToBlueprint(ctx, p.From, p.To)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(unlinkTool("om_solution_blueprint_remove_component", "Remove a solution component from a blueprint.",
		"blueprint", "solution component", h.RemoveComponentFromBlueprint))

	reg.Register(mcp.NewTool("om_solution_component_create",
		"Create a solution component. Returns the new GUID.",
		params.Schema(params.With(params.AnchorFields, compProps)...),
		func(ctx context.Context, p componentWrite) (any, error) {
			guid, err := h.CreateSolutionComponent(ctx, p.Anchor.Options(), p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(mcp.NewTool("om_solution_component_update",
		"Update a solution component's properties.",
		params.Schema(guidField("solution component"), replaceAll, compProps),
		func(ctx context.Context, p componentWrite) (any, error) {
			return params.OK, h.UpdateSolutionComponent(ctx, p.GUID, p.ReplaceAll, p.Properties)
		}))
	reg.Register(statusTool("om_solution_component", "solution component", h.UpdateSolutionComponentStatus))
	reg.Register(deleteTool("om_solution_component", "solution component", h.DeleteSolutionComponent))
	reg.Register(getTool("om_solution_component", "solution component", h.GetSolutionComponentByGUID))
	reg.Register(nameTool("om_solution_component", "solution component", h.GetSolutionComponentsByName))
	reg.Register(findTool("om_solution_component", "solution component", h.FindSolutionComponents))
	reg.Register(mcp.NewTool("om_solution_component_add_subcomponent",
		"Nest one solution component inside another.",
		params.Schema(pairFields("parent component", "child component")...),
		func(ctx context.Context, p pairParams) (any, error) {
			guid, err := h.AddSubComponent(ctx, p.From, p.To)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(unlinkTool("om_solution_component_remove_subcomponent", "Remove a nested solution component from its parent.",
		"parent component", "child component", h.RemoveSubComponent))
	reg.Register(mcp.NewTool("om_solution_component_wire",
		"Wire two solution components together, optionally naming the supply chains the wire serves.",
		params.Schema(append(pairFields("first component", "second component"),
			params.Object("properties", "Wire properties: label, description, informationSupplyChainGUIDs"))...),
		func(ctx context.Context, p wire) (any, error) {
			guid, err := h.WireComponents(ctx, p.From, p.To, p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(unlinkTool("om_solution_component_unwire", "Remove the wire between two solution components.",
		"first component", "second component", h.UnwireComponents))
}

func registerRoles(reg *mcp.Registry, h *sol.Handler) {
	props := params.Object("properties", "Role properties: qualifiedName, name, identifier, description, scope, domainIdentifier, additionalProperties, effectiveFrom, effectiveTo").Req()

	reg.Register(mcp.NewTool("om_solution_role_create",
		"Create a solution role. Returns the new GUID.",
		params.Schema(params.With(params.AnchorFields, props)...),
		func(ctx context.Context, p roleWrite) (any, error) {
			guid, err := h.CreateSolutionRole(ctx, p.Anchor.Options(), p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(mcp.NewTool("om_solution_role_update",
		"Update a solution role's properties.",
		params.Schema(guidField("solution role"), replaceAll, props),
		func(ctx context.Context, p roleWrite) (any, error) {
			return params.OK, h.UpdateSolutionRole(ctx, p.GUID, p.ReplaceAll, p.Properties)
		}))
	reg.Register(mcp.NewTool("om_solution_role_delete",
		"Delete a solution role.",
		params.Schema(guidField("solution role")),
		func(ctx context.Context, p params.GUID) (any, error) {
			return params.OK, h.DeleteSolutionRole(ctx, p.GUID)
		}))
	reg.Register(getTool("om_solution_role", "solution role", h.GetSolutionRoleByGUID))
	reg.Register(nameTool("om_solution_role", "solution role", h.GetSolutionRolesByName))
	reg.Register(findTool("om_solution_role", "solution role", h.FindSolutionRoles))
	reg.Register(mcp.NewTool("om_solution_role_link",
		"Record that a solution role acts on a solution component.",
		params.Schema(append(pairFields("solution role", "solution component"),
			params.Object("properties", "Actor properties: role, description"))...),
		func(ctx context.Context, p roleLink) (any, error) {
			guid, err := h.LinkSolutionRole(ctx, p.From, p.To, p.Properties)
			return params.Created{GUID: guid}, err
		}))
	reg.Register(unlinkTool("om_solution_role_unlink", "Remove a solution role from a solution component.",
		"solution role", "solution component", h.UnlinkSolutionRole))
}
