// Package handlers holds the plumbing shared by the collections, contact
// details and solutions handlers: parameter checks, anchor and parent wiring,
// effective-time filtering and relationship paging over a store.Store.
package handlers

import (
	"time"

	"github.com/emergent-company/omviews/internal/store"
)

// PropContentStatus is the property carrying an element's content status.
const PropContentStatus = "contentStatus"

// ElementHeader identifies an element in every bean the handlers return.
type ElementHeader struct {
	GUID            string   `json:"guid"`
	TypeName        string   `json:"typeName"`
	Classifications []string `json:"classifications,omitempty"`
	AnchorGUID      string   `json:"anchorGUID,omitempty"`
}

// ElementSummary is the short form used for far ends of relationships.
type ElementSummary struct {
	Header           ElementHeader  `json:"elementHeader"`
	QualifiedName    string         `json:"qualifiedName,omitempty"`
	DisplayName      string         `json:"displayName,omitempty"`
	RelationshipGUID string         `json:"relationshipGUID,omitempty"`
	RelationshipType string         `json:"relationshipType,omitempty"`
	RelationshipInfo map[string]any `json:"relationshipProperties,omitempty"`
}

// QueryOptions is the paging window and effective time of a retrieval.
// PageSize 0 means the configured maximum.
type QueryOptions struct {
	StartFrom     int        `json:"startFrom,omitempty"`
	PageSize      int        `json:"pageSize,omitempty"`
	EffectiveTime *time.Time `json:"effectiveTime,omitempty"`
}

// NewElementOptions controls how a new element is anchored and attached.
type NewElementOptions struct {
	// AnchorGUID ties the new element's lifecycle to an existing element.
	AnchorGUID string `json:"anchorGUID,omitempty"`
	// IsOwnAnchor stamps the new element as its own anchor. It cannot be
	// combined with AnchorGUID.
	IsOwnAnchor bool `json:"isOwnAnchor,omitempty"`
	// ParentGUID, when set, is linked to the new element with a
	// ParentRelationshipTypeName relationship.
	ParentGUID                   string         `json:"parentGUID,omitempty"`
	ParentRelationshipTypeName   string         `json:"parentRelationshipTypeName,omitempty"`
	ParentRelationshipProperties map[string]any `json:"parentRelationshipProperties,omitempty"`
	// ParentAtEnd1 puts the parent at end 1 of the relationship.
	ParentAtEnd1 bool `json:"parentAtEnd1,omitempty"`
}

// OptionalProperties converts an optional properties bean to a bag. A nil
// bean yields a nil bag.
func OptionalProperties[T any](props *T) (map[string]any, error) {
	if props == nil {
		return nil, nil
	}
	return store.ToProperties(props)
}

// Header builds the element header for a stored element.
func Header(el *store.Element) ElementHeader {
	return ElementHeader{
		GUID:            el.GUID,
		TypeName:        el.TypeName,
		Classifications: el.Classifications,
		AnchorGUID:      el.AnchorGUID(),
	}
}

// Summarize builds a summary, naming the element by display name, then name.
func Summarize(el *store.Element) ElementSummary {
	return ElementSummary{
		Header:        Header(el),
		QualifiedName: el.QualifiedName,
		DisplayName:   DisplayName(el),
	}
}

// SummarizeRelated builds a summary of a relationship's far end.
func SummarizeRelated(r *store.RelatedElement) ElementSummary {
	s := Summarize(r.Element)
	s.RelationshipGUID = r.Relationship.GUID
	s.RelationshipType = r.Relationship.TypeName
	if len(r.Relationship.Properties) > 0 {
		s.RelationshipInfo = r.Relationship.Properties
	}
	return s
}

// DisplayName picks the most readable label an element carries.
func DisplayName(el *store.Element) string {
	for _, name := range []string{store.PropDisplayName, store.PropName} {
		if v := el.StringProperty(name); v != "" {
			return v
		}
	}
	return el.QualifiedName
}
