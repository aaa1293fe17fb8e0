package content

import (
	"fmt"
	"strings"

	"github.com/emergent-company/omviews/internal/handlers/collections"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/validation"
)

func markdown(uri, text string) *mcp.ResourcesReadResult {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      uri,
				MimeType: "text/markdown",
				Text:     text,
			},
		},
	}
}

// --- omviews://type-model resource ---

// TypeModelResource lists the element and relationship types the views use.
type TypeModelResource struct{}

const typeModelURI = "omviews://type-model"

func (r *TypeModelResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         typeModelURI,
		Name:        "omviews type model",
		Description: "Element types, relationship types and relationship ends used by the omviews tools",
		MimeType:    "text/markdown",
	}
}

func (r *TypeModelResource) Read() (*mcp.ResourcesReadResult, error) {
	return markdown(typeModelURI, typeModel()), nil
}

func typeModel() string {
	var b strings.Builder
	b.WriteString("# omviews type model\n\n## Element types\n\n")
	for _, t := range objectTypes {
		fmt.Fprintf(&b, "- %s\n", t.name)
	}

	b.WriteString("\n## Relationship types\n\n| Type | End 1 | End 2 |\n|------|-------|-------|\n")
	for _, r := range relationshipTypes {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.name, r.end1, r.end2)
	}

	b.WriteString("\n## Collection classifications\n\n")
	for _, c := range []string{
		collections.ClassFolder, collections.ClassSet, collections.ClassDigitalProduct,
		collections.ClassHomeCollection, collections.ClassRecentAccess, collections.ClassWorkItemList,
		collections.ClassNamespace, collections.ClassResultsSet,
	} {
		fmt.Fprintf(&b, "- %s\n", c)
	}
	return b.String()
}

// --- omviews://content-status resource ---

// StatusResource documents the content status lifecycle.
type StatusResource struct{}

const statusURI = "omviews://content-status"

func (r *StatusResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         statusURI,
		Name:        "omviews content status",
		Description: "Content status values and the transitions the *_update_status tools allow",
		MimeType:    "text/markdown",
	}
}

func (r *StatusResource) Read() (*mcp.ResourcesReadResult, error) {
	var b strings.Builder
	b.WriteString("# Content status\n\n")
	fmt.Fprintf(&b, "New elements start %s.\n\n| From | Allowed next |\n|------|--------------|\n", validation.DefaultStatus)
	for _, s := range validation.KnownStatuses() {
		fmt.Fprintf(&b, "| %s | %s |\n", s, strings.Join(validation.AllowedTransitions(s), ", "))
	}
	return markdown(statusURI, b.String()), nil
}

// --- omviews://tool-reference resource ---

// ToolReferenceResource renders the registered tools as a quick reference.
type ToolReferenceResource struct {
	Registry *mcp.Registry
}

const toolReferenceURI = "omviews://tool-reference"

func (r *ToolReferenceResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         toolReferenceURI,
		Name:        "omviews tool reference",
		Description: "Every registered tool with its description",
		MimeType:    "text/markdown",
	}
}

func (r *ToolReferenceResource) Read() (*mcp.ResourcesReadResult, error) {
	var b strings.Builder
	b.WriteString("# omviews tools\n\n")
	for _, t := range r.Registry.List() {
		desc, _, _ := strings.Cut(t.Description, "\n")
		fmt.Fprintf(&b, "- **%s**: %s\n", t.Name, desc)
	}
	return markdown(toolReferenceURI, b.String()), nil
}

// Register adds the prompts and resources to reg. The tool reference lists
// whatever tools reg holds when it is read.
func Register(reg *mcp.Registry) {
	reg.RegisterPrompt(&GuidePrompt{})
	reg.RegisterPrompt(&SupplyChainPrompt{})
	reg.RegisterResource(&TypeModelResource{})
	reg.RegisterResource(&StatusResource{})
	reg.RegisterResource(&ToolReferenceResource{Registry: reg})
}
