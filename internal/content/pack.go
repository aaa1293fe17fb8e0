package content

import (
	"reflect"
	"strings"
	"time"

	"github.com/emergent-company/omviews/internal/emergent"
	"github.com/emergent-company/omviews/internal/handlers/collections"
	"github.com/emergent-company/omviews/internal/handlers/contactdetails"
	"github.com/emergent-company/omviews/internal/handlers/solutions"
)

// PackName names the omviews template pack in Emergent.
const PackName = "omviews"

type objectType struct {
	name, description string
	// props are property structs whose json fields the type carries.
	props []any
}

var objectTypes = []objectType{
	{collections.TypeCollection, "Grouping of elements; digital products and agreements are classified collections",
		[]any{collections.CollectionProperties{}, collections.DigitalProductProperties{}}},
	{contactdetails.TypeContactDetails, "One way of reaching a profile or actor",
		[]any{contactdetails.ContactMethodProperties{}}},
	{solutions.TypeInformationSupplyChain, "End-to-end flow of information",
		[]any{solutions.InformationSupplyChainProperties{}}},
	{solutions.TypeInformationSupplyChainSegment, "One step of an information supply chain",
		[]any{solutions.InformationSupplyChainSegmentProperties{}}},
	{solutions.TypeSolutionBlueprint, "Design of a solution as a set of components",
		[]any{solutions.SolutionBlueprintProperties{}}},
	{solutions.TypeSolutionComponent, "Part of a solution; may nest",
		[]any{solutions.SolutionComponentProperties{}}},
	{solutions.TypeSolutionRole, "Role played by people or systems in a solution",
		[]any{solutions.SolutionRoleProperties{}}},
}

type relationshipType struct {
	name       string
	end1, end2 string
	// from and to restrict the end types; nil accepts any element.
	from, to []string
	props    any
}

var (
	collEnd      = []string{collections.TypeCollection}
	segmentEnd   = []string{solutions.TypeInformationSupplyChainSegment}
	componentEnd = []string{solutions.TypeSolutionComponent}
)

var relationshipTypes = []relationshipType{
	{collections.RelCollectionMembership, "Collection", "member", collEnd, nil, collections.CollectionMembershipProperties{}},
	{collections.RelResourceList, "parent element", "Collection", nil, collEnd, collections.ResourceListProperties{}},
	{collections.RelDigitalProductDependency, "consumer product", "supplier product", collEnd, collEnd, collections.DependencyProperties{}},
	{collections.RelAgreementActor, "agreement", "actor", collEnd, nil, collections.AgreementActorProperties{}},
	{collections.RelAgreementItem, "agreement", "item", collEnd, nil, collections.AgreementItemProperties{}},
	{collections.RelSourcedFrom, "copy", "template", collEnd, collEnd, nil},
	{contactdetails.RelContactThrough, "profile or actor", "ContactDetails", nil, []string{contactdetails.TypeContactDetails}, nil},
	{solutions.RelInformationSupplyChainComposition, "InformationSupplyChain", "segment",
		[]string{solutions.TypeInformationSupplyChain}, segmentEnd, nil},
	{solutions.RelInformationSupplyChainLink, "upstream segment", "downstream segment", segmentEnd, segmentEnd,
		solutions.InformationSupplyChainLinkProperties{}},
	{solutions.RelImplementedBy, "segment", "SolutionComponent", segmentEnd, componentEnd, solutions.ImplementedByProperties{}},
	{solutions.RelSolutionBlueprintComposition, "SolutionBlueprint", "SolutionComponent",
		[]string{solutions.TypeSolutionBlueprint}, componentEnd, nil},
	{solutions.RelSolutionComposition, "parent component", "child component", componentEnd, componentEnd, nil},
	{solutions.RelSolutionLinkingWire, "component", "component", componentEnd, componentEnd, solutions.SolutionLinkingWireProperties{}},
	{solutions.RelSolutionComponentActor, "SolutionRole", "SolutionComponent",
		[]string{solutions.TypeSolutionRole}, componentEnd, solutions.SolutionComponentActorProperties{}},
}

// TemplatePack returns the Emergent template pack declaring every type omviews writes.
func TemplatePack(version string) *emergent.Pack {
	p := &emergent.Pack{
		Name:        PackName,
		Version:     version,
		Description: "Open metadata views: collections, contact details, information supply chains and solutions",
		Author:      "omviews",
	}
	for _, t := range objectTypes {
		props := map[string]emergent.PropertySchema{}
		for _, v := range t.props {
			addProperties(props, reflect.TypeOf(v))
		}
		p.ObjectTypes = append(p.ObjectTypes, emergent.ObjectTypeSchema{
			Name:        t.name,
			Description: t.description,
			Properties:  props,
		})
	}
	for _, r := range relationshipTypes {
		rs := emergent.RelationshipTypeSchema{
			Name:        r.name,
			Description: r.end1 + " to " + r.end2,
			SourceTypes: r.from,
			TargetTypes: r.to,
		}
		if r.props != nil {
			rs.Properties = map[string]emergent.PropertySchema{}
			addProperties(rs.Properties, reflect.TypeOf(r.props))
		}
		p.RelationshipTypes = append(p.RelationshipTypes, rs)
	}
	return p
}

// addProperties maps the json-tagged fields of struct type t to property schemas.
func addProperties(into map[string]emergent.PropertySchema, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}
		into[name] = propertySchema(f.Type)
	}
}

var timeType = reflect.TypeOf(time.Time{})

func propertySchema(t reflect.Type) emergent.PropertySchema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return emergent.PropertySchema{Type: "string"}
	}
	switch t.Kind() {
	case reflect.Bool:
		return emergent.PropertySchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return emergent.PropertySchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return emergent.PropertySchema{Type: "number"}
	case reflect.Slice, reflect.Array:
		items := propertySchema(t.Elem())
		return emergent.PropertySchema{Type: "array", Items: &items}
	case reflect.Map, reflect.Struct:
		return emergent.PropertySchema{Type: "object"}
	default:
		return emergent.PropertySchema{Type: "string"}
	}
}
