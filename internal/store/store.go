// Package store defines the generic metadata store the handlers translate onto.
// Elements and relationships are typed property bags; everything domain specific
// lives above this package.
package store

import (
	"context"
)

// Property names the handlers rely on across element types.
const (
	PropQualifiedName = "qualifiedName"
	PropDisplayName   = "displayName"
	PropName          = "name"
	PropAnchorGUID    = "anchorGUID"
	PropEffectiveFrom = "effectiveFrom"
	PropEffectiveTo   = "effectiveTo"
)

// Element is a typed metadata element as held by the store.
type Element struct {
	GUID            string         `json:"guid"`
	TypeName        string         `json:"typeName"`
	QualifiedName   string         `json:"qualifiedName,omitempty"`
	Classifications []string       `json:"classifications,omitempty"`
	Properties      map[string]any `json:"properties,omitempty"`
}

// StringProperty returns a string-valued property or "".
func (e *Element) StringProperty(name string) string {
	if e == nil || e.Properties == nil {
		return ""
	}
	s, _ := e.Properties[name].(string)
	return s
}

// AnchorGUID returns the GUID of the element this one is anchored to, if any.
func (e *Element) AnchorGUID() string {
	return e.StringProperty(PropAnchorGUID)
}

// HasClassification reports whether the element carries the named classification.
func (e *Element) HasClassification(name string) bool {
	if e == nil {
		return false
	}
	for _, c := range e.Classifications {
		if c == name {
			return true
		}
	}
	return false
}

// Relationship is a typed, directed link from End1 to End2.
type Relationship struct {
	GUID       string         `json:"guid"`
	TypeName   string         `json:"typeName"`
	End1GUID   string         `json:"end1GUID"`
	End2GUID   string         `json:"end2GUID"`
	Properties map[string]any `json:"properties,omitempty"`
}

// RelatedElement pairs a relationship with the element at its far end.
type RelatedElement struct {
	Relationship *Relationship `json:"relationship"`
	Element      *Element      `json:"element"`
}

// Direction says which end of a relationship the starting element occupies.
type Direction int

const (
	// AtEnd1 means the starting element is end 1; the far end is end 2.
	AtEnd1 Direction = iota
	// AtEnd2 means the starting element is end 2; the far end is end 1.
	AtEnd2
)

// Paging selects a window of results. PageSize 0 means "store default".
type Paging struct {
	StartFrom int
	PageSize  int
}

// NewElement describes an element to create.
type NewElement struct {
	TypeName        string
	QualifiedName   string
	Classifications []string
	Properties      map[string]any
}

// Query selects elements by type, qualified name, property equality and classification.
type Query struct {
	TypeName        string
	QualifiedName   string
	Properties      map[string]any
	Classifications []string
	Paging          Paging
}

// RelationshipQuery selects relationships by type and either end.
type RelationshipQuery struct {
	TypeName string
	End1GUID string
	End2GUID string
	Paging   Paging
}

// Store is the generic metadata store client. Implementations return
// faults.NotFound for missing elements and faults.PropertyServer for
// remote failures.
type Store interface {
	CreateElement(ctx context.Context, el *NewElement) (*Element, error)
	GetElement(ctx context.Context, guid string) (*Element, error)
	// UpdateElement merges props into the element, or replaces them when
	// replaceProperties is set. A non-nil classifications slice replaces the
	// element's classifications.
	UpdateElement(ctx context.Context, guid string, props map[string]any, classifications []string, replaceProperties bool) (*Element, error)
	DeleteElement(ctx context.Context, guid string) error
	FindElements(ctx context.Context, q *Query) ([]*Element, error)
	// SearchElements matches searchString as a case-insensitive regular
	// expression against the qualified name and string properties.
	SearchElements(ctx context.Context, typeName, searchString string, paging Paging) ([]*Element, error)

	CreateRelationship(ctx context.Context, typeName, end1GUID, end2GUID string, props map[string]any) (*Relationship, error)
	DeleteRelationship(ctx context.Context, guid string) error
	ListRelationships(ctx context.Context, q *RelationshipQuery) ([]*Relationship, error)
}

// Provider yields the Store to use for a request.
type Provider interface {
	StoreFor(ctx context.Context) (Store, error)
}

// Static is a Provider that always returns the same Store.
type Static struct {
	Store Store
}

func (p Static) StoreFor(context.Context) (Store, error) {
	return p.Store, nil
}
