package solutions

import (
	"time"

	"github.com/emergent-company/omviews/internal/handlers"
)

// Element type names.
const (
	TypeInformationSupplyChain        = "InformationSupplyChain"
	TypeInformationSupplyChainSegment = "InformationSupplyChainSegment"
	TypeSolutionBlueprint             = "SolutionBlueprint"
	TypeSolutionComponent             = "SolutionComponent"
	TypeSolutionRole                  = "SolutionRole"
)

// Relationship type names.
const (
	RelInformationSupplyChainComposition = "InformationSupplyChainComposition"
	RelInformationSupplyChainLink        = "InformationSupplyChainLink"
	RelImplementedBy                     = "ImplementedBy"
	RelSolutionBlueprintComposition      = "SolutionBlueprintComposition"
	RelSolutionComposition               = "SolutionComposition"
	RelSolutionLinkingWire               = "SolutionLinkingWire"
	RelSolutionComponentActor            = "SolutionComponentActor"
)

// InformationSupplyChainProperties describe the flow of information between systems.
type InformationSupplyChainProperties struct {
	QualifiedName        string            `json:"qualifiedName,omitempty"`
	DisplayName          string            `json:"displayName,omitempty"`
	Description          string            `json:"description,omitempty"`
	Scope                string            `json:"scope,omitempty"`
	Purposes             []string          `json:"purposes,omitempty"`
	Version              string            `json:"version,omitempty"`
	ContentStatus        string            `json:"contentStatus,omitempty"`
	AdditionalProperties map[string]string `json:"additionalProperties,omitempty"`
	EffectiveFrom        *time.Time        `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time        `json:"effectiveTo,omitempty"`
}

// InformationSupplyChainSegmentProperties describe one hop of a supply chain.
type InformationSupplyChainSegmentProperties struct {
	QualifiedName        string            `json:"qualifiedName,omitempty"`
	DisplayName          string            `json:"displayName,omitempty"`
	Description          string            `json:"description,omitempty"`
	Scope                string            `json:"scope,omitempty"`
	IntegrationStyle     string            `json:"integrationStyle,omitempty"`
	EstimatedVolumetrics map[string]string `json:"estimatedVolumetrics,omitempty"`
	AdditionalProperties map[string]string `json:"additionalProperties,omitempty"`
	EffectiveFrom        *time.Time        `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time        `json:"effectiveTo,omitempty"`
}

// InformationSupplyChainLinkProperties label the flow between two segments.
type InformationSupplyChainLinkProperties struct {
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// ImplementedByProperties describe how a component implements a segment.
type ImplementedByProperties struct {
	DesignStep     string `json:"designStep,omitempty"`
	Role           string `json:"role,omitempty"`
	Transformation string `json:"transformation,omitempty"`
	Description    string `json:"description,omitempty"`
}

// SolutionBlueprintProperties describe a solution design.
type SolutionBlueprintProperties struct {
	QualifiedName        string            `json:"qualifiedName,omitempty"`
	DisplayName          string            `json:"displayName,omitempty"`
	Description          string            `json:"description,omitempty"`
	Version              string            `json:"version,omitempty"`
	ContentStatus        string            `json:"contentStatus,omitempty"`
	AdditionalProperties map[string]string `json:"additionalProperties,omitempty"`
	EffectiveFrom        *time.Time        `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time        `json:"effectiveTo,omitempty"`
}

// SolutionComponentProperties describe a building block of a solution.
type SolutionComponentProperties struct {
	QualifiedName                     string            `json:"qualifiedName,omitempty"`
	DisplayName                       string            `json:"displayName,omitempty"`
	Description                       string            `json:"description,omitempty"`
	SolutionComponentType             string            `json:"solutionComponentType,omitempty"`
	PlannedDeployedImplementationType string            `json:"plannedDeployedImplementationType,omitempty"`
	Version                           string            `json:"version,omitempty"`
	ContentStatus                     string            `json:"contentStatus,omitempty"`
	AdditionalProperties              map[string]string `json:"additionalProperties,omitempty"`
	EffectiveFrom                     *time.Time        `json:"effectiveFrom,omitempty"`
	EffectiveTo                       *time.Time        `json:"effectiveTo,omitempty"`
}

// SolutionRoleProperties describe a role that interacts with solution components.
type SolutionRoleProperties struct {
	QualifiedName        string            `json:"qualifiedName,omitempty"`
	Name                 string            `json:"name,omitempty"`
	Identifier           string            `json:"identifier,omitempty"`
	Description          string            `json:"description,omitempty"`
	Scope                string            `json:"scope,omitempty"`
	DomainIdentifier     int               `json:"domainIdentifier,omitempty"`
	AdditionalProperties map[string]string `json:"additionalProperties,omitempty"`
	EffectiveFrom        *time.Time        `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time        `json:"effectiveTo,omitempty"`
}

// SolutionLinkingWireProperties describe a connection between two components.
type SolutionLinkingWireProperties struct {
	Label                       string   `json:"label,omitempty"`
	Description                 string   `json:"description,omitempty"`
	InformationSupplyChainGUIDs []string `json:"informationSupplyChainGUIDs,omitempty"`
}

// SolutionComponentActorProperties describe what a role does with a component.
type SolutionComponentActorProperties struct {
	Role        string `json:"role,omitempty"`
	Description string `json:"description,omitempty"`
}

// SegmentLink is an outgoing link from a segment.
type SegmentLink struct {
	RelationshipGUID string `json:"relationshipGUID"`
	TargetGUID       string `json:"targetGUID"`
	Label            string `json:"label,omitempty"`
	Description      string `json:"description,omitempty"`
}

// InformationSupplyChainSegmentElement is a segment with its links and implementing components.
type InformationSupplyChainSegmentElement struct {
	Header        handlers.ElementHeader                  `json:"elementHeader"`
	Properties    InformationSupplyChainSegmentProperties `json:"properties"`
	Links         []*SegmentLink                          `json:"links,omitempty"`
	ImplementedBy []handlers.ElementSummary               `json:"implementedBy,omitempty"`
}

// InformationSupplyChainElement is a supply chain with its segments.
type InformationSupplyChainElement struct {
	Header       handlers.ElementHeader                  `json:"elementHeader"`
	Properties   InformationSupplyChainProperties        `json:"properties"`
	Segments     []*InformationSupplyChainSegmentElement `json:"segments,omitempty"`
	MermaidGraph string                                  `json:"mermaidGraph,omitempty"`
}

// WiredComponent is a component at the other end of a linking wire.
// Outgoing is set when the wire starts at the viewed component.
type WiredComponent struct {
	Wire      SolutionLinkingWireProperties `json:"wire"`
	Outgoing  bool                          `json:"outgoing"`
	Component handlers.ElementSummary       `json:"component"`
}

// ComponentActor is a role that acts on a component.
type ComponentActor struct {
	Role  SolutionComponentActorProperties `json:"role"`
	Actor handlers.ElementSummary          `json:"actor"`
}

// SolutionComponentElement is a component with its sub-components, wires, actors and blueprints.
type SolutionComponentElement struct {
	Header        handlers.ElementHeader      `json:"elementHeader"`
	Properties    SolutionComponentProperties `json:"properties"`
	SubComponents []*SolutionComponentElement `json:"subComponents,omitempty"`
	WiredTo       []*WiredComponent           `json:"wiredTo,omitempty"`
	Actors        []*ComponentActor           `json:"actors,omitempty"`
	Blueprints    []handlers.ElementSummary   `json:"blueprints,omitempty"`
	MermaidGraph  string                      `json:"mermaidGraph,omitempty"`
}

// SolutionBlueprintElement is a blueprint with its component trees.
type SolutionBlueprintElement struct {
	Header       handlers.ElementHeader      `json:"elementHeader"`
	Properties   SolutionBlueprintProperties `json:"properties"`
	Components   []*SolutionComponentElement `json:"components,omitempty"`
	MermaidGraph string                      `json:"mermaidGraph,omitempty"`
}

// SolutionRoleElement is a solution role.
type SolutionRoleElement struct {
	Header     handlers.ElementHeader `json:"elementHeader"`
	Properties SolutionRoleProperties `json:"properties"`
}
