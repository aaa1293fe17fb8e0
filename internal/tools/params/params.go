// Package params holds the parameter shapes and JSON schema helpers shared
// by the om_* MCP tools.
package params

import (
	"encoding/json"
	"time"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/handlers"
)

// Field is one property of a tool's input schema.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Enum        []string
	// Items is the element type of an array field.
	Items string
}

// String declares a string field.
func String(name, description string) Field {
	return Field{Name: name, Type: "string", Description: description}
}

// Bool declares a boolean field.
func Bool(name, description string) Field {
	return Field{Name: name, Type: "boolean", Description: description}
}

// Int declares an integer field.
func Int(name, description string) Field {
	return Field{Name: name, Type: "integer", Description: description}
}

// Strings declares an array of strings.
func Strings(name, description string) Field {
	return Field{Name: name, Type: "array", Description: description, Items: "string"}
}

// Object declares a free-form object field.
func Object(name, description string) Field {
	return Field{Name: name, Type: "object", Description: description}
}

// Req marks the field as required.
func (f Field) Req() Field {
	f.Required = true
	return f
}

// OneOf restricts a string field to the given values.
func (f Field) OneOf(values ...string) Field {
	f.Enum = values
	return f
}

// Schema builds an object schema from fields, keeping their order in the
// required list.
func Schema(fields ...Field) json.RawMessage {
	props := make(map[string]any, len(fields))
	var required []string
	for _, f := range fields {
		p := map[string]any{"type": f.Type}
		if f.Description != "" {
			p["description"] = f.Description
		}
		if len(f.Enum) > 0 {
			p["enum"] = f.Enum
		}
		if f.Items != "" {
			p["items"] = map[string]any{"type": f.Items}
		}
		props[f.Name] = p
		if f.Required {
			required = append(required, f.Name)
		}
	}
	schema := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	b, err := json.Marshal(schema)
	if err != nil {
		panic(err)
	}
	return b
}

// GUID is the common single-element parameter.
type GUID struct {
	GUID          string `json:"guid"`
	EffectiveTime string `json:"effective_time,omitempty"`
}

// GUIDFields describes GUID.
func GUIDFields(what string) []Field {
	return []Field{
		String("guid", "GUID of the "+what).Req(),
		EffectiveTimeField,
	}
}

// Query is the paging window and effective time of a list operation.
type Query struct {
	StartFrom     int    `json:"start_from,omitempty"`
	PageSize      int    `json:"page_size,omitempty"`
	EffectiveTime string `json:"effective_time,omitempty"`
}

// EffectiveTimeField describes the effective_time parameter.
var EffectiveTimeField = String("effective_time", "RFC3339 instant; only elements effective then are returned")

// QueryFields describes Query.
var QueryFields = []Field{
	Int("start_from", "Index of the first result"),
	Int("page_size", "Maximum number of results (0 = server maximum)"),
	EffectiveTimeField,
}

// With returns extra followed by base, without aliasing base.
func With(base []Field, extra ...Field) []Field {
	out := make([]Field, 0, len(base)+len(extra))
	out = append(out, extra...)
	return append(out, base...)
}

// Options converts the query to handler options.
func (q Query) Options() (handlers.QueryOptions, error) {
	at, err := Time(q.EffectiveTime, "effective_time")
	if err != nil {
		return handlers.QueryOptions{}, err
	}
	return handlers.QueryOptions{StartFrom: q.StartFrom, PageSize: q.PageSize, EffectiveTime: at}, nil
}

// At parses the GUID parameter's effective time.
func (g GUID) At() (*time.Time, error) {
	return Time(g.EffectiveTime, "effective_time")
}

// Time parses an optional RFC3339 parameter.
func Time(value, name string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, faults.Invalidf("%s must be an RFC3339 time: %v", name, err)
	}
	return &t, nil
}

// Created is the result of a create or link operation.
type Created struct {
	GUID string `json:"guid"`
}

// Done is the result of an operation with nothing to return.
type Done struct {
	Status string `json:"status"`
}

// OK is the standard Done result.
var OK = Done{Status: "ok"}

// Anchor carries the anchoring options accepted by create operations.
type Anchor struct {
	AnchorGUID  string `json:"anchor_guid,omitempty"`
	IsOwnAnchor bool   `json:"is_own_anchor,omitempty"`
	ParentGUID  string `json:"parent_guid,omitempty"`
	ParentRel   string `json:"parent_relationship_type,omitempty"`
	ParentEnd1  bool   `json:"parent_at_end1,omitempty"`
}

// AnchorFields describes Anchor.
var AnchorFields = []Field{
	String("anchor_guid", "Element whose deletion removes the new element"),
	Bool("is_own_anchor", "Make the new element its own anchor"),
	String("parent_guid", "Element to link the new element to"),
	String("parent_relationship_type", "Relationship type used for parent_guid"),
	Bool("parent_at_end1", "Put the parent at end 1 of the relationship"),
}

// Options converts the anchor parameters, returning nil when none were given.
func (a Anchor) Options() *handlers.NewElementOptions {
	if a == (Anchor{}) {
		return nil
	}
	return &handlers.NewElementOptions{
		AnchorGUID:                 a.AnchorGUID,
		IsOwnAnchor:                a.IsOwnAnchor,
		ParentGUID:                 a.ParentGUID,
		ParentRelationshipTypeName: a.ParentRel,
		ParentAtEnd1:               a.ParentEnd1,
	}
}
