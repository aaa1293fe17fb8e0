package collections

import (
	"time"

	"github.com/emergent-company/omviews/internal/handlers"
)

// Element and relationship type names.
const (
	TypeCollection = "Collection"

	RelCollectionMembership     = "CollectionMembership"
	RelResourceList             = "ResourceList"
	RelDigitalProductDependency = "DigitalProductDependency"
	RelAgreementActor           = "AgreementActor"
	RelAgreementItem            = "AgreementItem"
	RelSourcedFrom              = "SourcedFrom"
)

// Collection classifications.
const (
	ClassFolder         = "Folder"
	ClassSet            = "Set"
	ClassDigitalProduct = "DigitalProduct"
	ClassHomeCollection = "HomeCollection"
	ClassRecentAccess   = "RecentAccess"
	ClassWorkItemList   = "WorkItemList"
	ClassNamespace      = "Namespace"
	ClassResultsSet     = "ResultsSet"
)

var knownClassifications = map[string]bool{
	ClassFolder:         true,
	ClassSet:            true,
	ClassDigitalProduct: true,
	ClassHomeCollection: true,
	ClassRecentAccess:   true,
	ClassWorkItemList:   true,
	ClassNamespace:      true,
	ClassResultsSet:     true,
}

// IsKnownClassification reports whether name is a collection classification.
func IsKnownClassification(name string) bool {
	return knownClassifications[name]
}

// Membership status values.
const (
	MemberUnknown    = "UNKNOWN"
	MemberDiscovered = "DISCOVERED"
	MemberProposed   = "PROPOSED"
	MemberImported   = "IMPORTED"
	MemberValidated  = "VALIDATED"
	MemberDeprecated = "DEPRECATED"
	MemberObsolete   = "OBSOLETE"
	MemberOther      = "OTHER"
)

var knownMemberStatus = map[string]bool{
	MemberUnknown: true, MemberDiscovered: true, MemberProposed: true, MemberImported: true,
	MemberValidated: true, MemberDeprecated: true, MemberObsolete: true, MemberOther: true,
}

// CollectionProperties are the properties of a Collection element.
type CollectionProperties struct {
	QualifiedName        string            `json:"qualifiedName,omitempty"`
	DisplayName          string            `json:"displayName,omitempty"`
	Description          string            `json:"description,omitempty"`
	Category             string            `json:"category,omitempty"`
	ContentStatus        string            `json:"contentStatus,omitempty"`
	AdditionalProperties map[string]string `json:"additionalProperties,omitempty"`
	EffectiveFrom        *time.Time        `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time        `json:"effectiveTo,omitempty"`
}

// DigitalProductProperties are carried by collections classified as DigitalProduct.
type DigitalProductProperties struct {
	ProductName      string     `json:"productName,omitempty"`
	ProductType      string     `json:"productType,omitempty"`
	Identifier       string     `json:"identifier,omitempty"`
	Maturity         string     `json:"maturity,omitempty"`
	ServiceLife      string     `json:"serviceLife,omitempty"`
	IntroductionDate *time.Time `json:"introductionDate,omitempty"`
	NextVersionDate  *time.Time `json:"nextVersionDate,omitempty"`
	WithdrawDate     *time.Time `json:"withdrawDate,omitempty"`
}

// CollectionMembershipProperties describe why an element is in a collection.
type CollectionMembershipProperties struct {
	MembershipRationale string `json:"membershipRationale,omitempty"`
	Expression          string `json:"expression,omitempty"`
	Confidence          int    `json:"confidence,omitempty"`
	Status              string `json:"membershipStatus,omitempty"`
	Steward             string `json:"steward,omitempty"`
	Source              string `json:"source,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// ResourceListProperties describe a collection attached to a parent element.
type ResourceListProperties struct {
	ResourceUse string `json:"resourceUse,omitempty"`
	Description string `json:"resourceUseDescription,omitempty"`
	Watch       bool   `json:"watchResource,omitempty"`
}

// DependencyProperties label a dependency between digital products.
type DependencyProperties struct {
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// AgreementActorProperties name the part an actor plays in an agreement.
type AgreementActorProperties struct {
	ActorName string `json:"actorName,omitempty"`
}

// AgreementItemProperties describe an element covered by an agreement.
type AgreementItemProperties struct {
	AgreementItemID string            `json:"agreementItemId,omitempty"`
	AgreementStart  *time.Time        `json:"agreementStart,omitempty"`
	AgreementEnd    *time.Time        `json:"agreementEnd,omitempty"`
	Restrictions    map[string]string `json:"restrictions,omitempty"`
	Obligations     map[string]string `json:"obligations,omitempty"`
}

// CollectionElement is a collection as returned to callers.
type CollectionElement struct {
	Header         handlers.ElementHeader    `json:"elementHeader"`
	Properties     CollectionProperties      `json:"properties"`
	DigitalProduct *DigitalProductProperties `json:"digitalProduct,omitempty"`
}

// CollectionMember is one element in a collection with its membership.
type CollectionMember struct {
	RelationshipGUID string                         `json:"relationshipGUID"`
	Membership       CollectionMembershipProperties `json:"membership"`
	Member           handlers.ElementSummary        `json:"member"`
}

// AttachedCollection is a collection attached to a parent element.
type AttachedCollection struct {
	RelationshipGUID string                 `json:"relationshipGUID"`
	ResourceList     ResourceListProperties `json:"resourceList"`
	Collection       CollectionElement      `json:"collection"`
}

// CollectionGraphNode is a member in a collection graph. Members that are
// collections carry their own members.
type CollectionGraphNode struct {
	Member     handlers.ElementSummary        `json:"member"`
	Membership CollectionMembershipProperties `json:"membership"`
	Members    []*CollectionGraphNode         `json:"members,omitempty"`
}

// CollectionGraph is the nested membership tree below a collection.
type CollectionGraph struct {
	Collection   CollectionElement      `json:"collection"`
	Members      []*CollectionGraphNode `json:"members,omitempty"`
	MermaidGraph string                 `json:"mermaidGraph"`
}
