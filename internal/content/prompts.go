// Package content provides MCP prompts and resources for the omviews server.
package content

import (
	"fmt"

	"github.com/emergent-company/omviews/internal/mcp"
)

// --- omviews-guide prompt ---

// GuidePrompt explains the view tools and the element model behind them.
type GuidePrompt struct{}

func (p *GuidePrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "omviews-guide",
		Description: "Guide to the omviews tools: collections, contact details, supply chains and solution components",
		Arguments: []mcp.PromptArgument{
			{
				Name:        "focus",
				Description: "Optional focus area: 'collections', 'contacts', 'solutions' or 'lifecycle'. Defaults to the full guide.",
				Required:    false,
			},
		},
	}
}

func (p *GuidePrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	focus := arguments["focus"]

	var text string
	switch focus {
	case "collections":
		text = guideCollections
	case "contacts":
		text = guideContacts
	case "solutions":
		text = guideSolutions
	case "lifecycle":
		text = guideLifecycle
	case "":
		text = guideFull
	default:
		return nil, fmt.Errorf("unknown focus %q", focus)
	}

	return mcp.UserMessage("omviews guide"+focusSuffix(focus), text), nil
}

func focusSuffix(focus string) string {
	if focus == "" {
		return ""
	}
	return " (" + focus + ")"
}

// --- omviews-model-supply-chain prompt ---

// SupplyChainPrompt walks an LLM through modelling an information supply
// chain and the components that implement it.
type SupplyChainPrompt struct{}

func (p *SupplyChainPrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "omviews-model-supply-chain",
		Description: "Step-by-step guide for modelling an information supply chain and its implementing components",
		Arguments: []mcp.PromptArgument{
			{
				Name:        "chain_name",
				Description: "Display name of the supply chain to model",
				Required:    false,
			},
		},
	}
}

func (p *SupplyChainPrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	name := arguments["chain_name"]
	if name == "" {
		name = "<chain name>"
	}
	return mcp.UserMessage("Modelling supply chain "+name, fmt.Sprintf(supplyChainSteps, name)), nil
}

const supplyChainSteps = `# Modelling the "%[1]s" information supply chain

1. Look for an existing chain first: **om_supply_chain_get_by_name** with name "%[1]s".
   If none exists, create it with **om_supply_chain_create**. Give it a
   qualifiedName such as "InformationSupplyChain::%[1]s" and a displayName.
2. Add one segment per hop with **om_supply_chain_segment_create** (chain_guid = the chain).
   Segments are anchored to the chain and are deleted with it.
3. Connect segments in flow order with **om_supply_chain_segment_link**
   (from_guid = upstream segment, to_guid = downstream segment). Label each link.
4. Create or find the solution components that do the work
   (**om_solution_component_find**, **om_solution_component_create**). Nest
   components with **om_solution_component_add_subcomponent**.
5. Record which component implements each segment with
   **om_supply_chain_segment_link_implementation**.
6. Wire components that exchange data with **om_solution_component_wire**.
   Put the chain GUID in properties.informationSupplyChainGUIDs.
7. Check the result with **om_supply_chain_get**. The mermaidGraph field
   renders the segments, the flow between them and the implementing components.
`

const guideCollections = `## Collections

A collection groups elements. A classification gives it a purpose:
Folder, Set, DigitalProduct, HomeCollection, RecentAccess, WorkItemList,
Namespace or ResultsSet.

- **om_collection_create**: create a collection (optionally classified).
- **om_digital_product_create**: a DigitalProduct carries product properties
  (productName, maturity, serviceLife, ...).
- **om_collection_create_from_template**: copy a template; {{name}} tokens are
  replaced from placeholders and the template's members are copied.
- **om_collection_add_member** / **om_collection_remove_member** /
  **om_collection_get_members**: manage membership. Adding twice is harmless.
- **om_collection_attach** / **om_collection_detach** /
  **om_collection_get_attached**: attach a collection to any element as a resource.
- **om_collection_graph**: the nested membership tree as JSON and Mermaid.
- **om_digital_product_link_dependency**, **om_agreement_link_actor**,
  **om_agreement_link_item**: the product and agreement relationships.
`

const guideContacts = `## Contact details

Contact details hang off a profile or actor and are anchored to it.

- **om_contact_create**: element_guid is the owner; contact_method_type is
  Email, Phone, Chat, Profile, Account or Other.
- **om_contact_get_for_element**: every contact method of an owner.
- **om_contact_update**, **om_contact_delete**, **om_contact_get**,
  **om_contact_get_by_name**, **om_contact_find**.
`

const guideSolutions = `## Solutions

- **Information supply chains** describe how information flows. They hold
  segments, linked in flow order, each implemented by solution components.
- **Solution blueprints** group the components of a solution.
- **Solution components** nest inside each other, are wired together, and
  have solution roles acting on them.

Every get or find on these returns a mermaidGraph you can render directly.
Component trees are walked depth first, each component appears once, and the
walk stops at the server's maximum depth.
`

const guideLifecycle = `## Content status

Collections, supply chains, blueprints and components carry a content status.
New elements start ACTIVE unless a status is given. Change status only through
the *_update_status tools; updates that set contentStatus are rejected.
Read omviews://content-status for the allowed transitions.

## Deleting

Deleting an element that others are anchored to fails unless cascade is set;
with cascade the anchored elements are deleted too. **om_anchor_sweep** finds
elements whose anchor was removed outside omviews.
`

const guideFull = `# omviews

omviews exposes open metadata views over the Emergent graph. Every tool takes
JSON parameters and returns indented JSON. Lists accept start_from, page_size
and effective_time (RFC3339); elements outside their effective window at that
instant are left out.

` + guideCollections + "\n" + guideContacts + "\n" + guideSolutions + "\n" + guideLifecycle
