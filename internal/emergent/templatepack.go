package emergent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emergent-company/emergent/apps/server-go/pkg/sdk/templatepacks"
)

// PropertySchema describes one property of an object type.
type PropertySchema struct {
	Type  string          `json:"type"`
	Items *PropertySchema `json:"items,omitempty"`
}

// ObjectTypeSchema is one object type in a template pack.
type ObjectTypeSchema struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	Properties  map[string]PropertySchema `json:"properties"`
}

// RelationshipTypeSchema is one relationship type in a template pack.
// Empty source or target types accept any object type.
type RelationshipTypeSchema struct {
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	SourceTypes []string                  `json:"source_types,omitempty"`
	TargetTypes []string                  `json:"target_types,omitempty"`
	Properties  map[string]PropertySchema `json:"properties,omitempty"`
}

// Pack is a template pack: the object and relationship types a project
// needs before omviews can write to it.
type Pack struct {
	Name              string                   `json:"name"`
	Version           string                   `json:"version"`
	Description       string                   `json:"description,omitempty"`
	Author            string                   `json:"author,omitempty"`
	ObjectTypes       []ObjectTypeSchema       `json:"object_type_schemas"`
	RelationshipTypes []RelationshipTypeSchema `json:"relationship_type_schemas"`
}

// PackInstall reports what InstallPack did.
type PackInstall struct {
	PackID            string   `json:"packID"`
	AssignmentID      string   `json:"assignmentID,omitempty"`
	AlreadyInstalled  bool     `json:"alreadyInstalled"`
	ObjectTypes       []string `json:"objectTypes"`
	RelationshipTypes []string `json:"relationshipTypes"`
}

func (p *Pack) request() (*templatepacks.CreatePackRequest, error) {
	objects, err := json.Marshal(p.ObjectTypes)
	if err != nil {
		return nil, fmt.Errorf("encoding object type schemas: %w", err)
	}
	rels, err := json.Marshal(p.RelationshipTypes)
	if err != nil {
		return nil, fmt.Errorf("encoding relationship type schemas: %w", err)
	}
	return &templatepacks.CreatePackRequest{
		Name:                    p.Name,
		Version:                 p.Version,
		Description:             strPtr(p.Description),
		Author:                  strPtr(p.Author),
		ObjectTypeSchemas:       objects,
		RelationshipTypeSchemas: rels,
	}, nil
}

// InstallPack creates the pack and assigns it to the client's project.
// A pack with the same name and version that is already installed is left alone.
func (c *Client) InstallPack(ctx context.Context, p *Pack) (*PackInstall, error) {
	req, err := p.request()
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	out := &PackInstall{}
	installed, err := c.sdk.TemplatePacks.GetInstalledPacks(ctx)
	if err != nil {
		// Listing is best effort; creation reports real failures.
		c.logger.Warn("could not list installed template packs", "error", err)
	}
	for _, ip := range installed {
		if ip.Name == p.Name && ip.Version == p.Version {
			out.PackID = ip.ID
			out.AlreadyInstalled = true
			break
		}
	}

	if !out.AlreadyInstalled {
		created, err := c.sdk.TemplatePacks.CreatePack(ctx, req)
		if err != nil {
			return nil, classify("creating template pack", err)
		}
		out.PackID = created.ID
		c.logger.Info("template pack created", "name", p.Name, "version", p.Version, "id", created.ID)

		assignment, err := c.sdk.TemplatePacks.AssignPack(ctx, &templatepacks.AssignPackRequest{
			TemplatePackID: created.ID,
		})
		if err != nil {
			return nil, classify("assigning template pack", err)
		}
		out.AssignmentID = assignment.ID
	}

	compiled, err := c.sdk.TemplatePacks.GetCompiledTypes(ctx)
	if err != nil {
		return nil, classify("verifying compiled types", err)
	}
	for _, ot := range compiled.ObjectTypes {
		if ot.PackID == out.PackID {
			out.ObjectTypes = append(out.ObjectTypes, ot.Name)
		}
	}
	for _, rt := range compiled.RelationshipTypes {
		if rt.PackID == out.PackID {
			out.RelationshipTypes = append(out.RelationshipTypes, rt.Name)
		}
	}
	return out, nil
}
