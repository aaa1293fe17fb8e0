// Package collections exposes the collections handler as om_collection_* MCP tools.
package collections

import (
	"context"

	coll "github.com/emergent-company/omviews/internal/handlers/collections"
	"github.com/emergent-company/omviews/internal/mcp"
	"github.com/emergent-company/omviews/internal/tools/params"
	"github.com/emergent-company/omviews/internal/validation"
)

var classifications = []string{
	coll.ClassFolder, coll.ClassSet, coll.ClassDigitalProduct, coll.ClassHomeCollection,
	coll.ClassRecentAccess, coll.ClassWorkItemList, coll.ClassNamespace, coll.ClassResultsSet,
}

type createParams struct {
	params.Anchor
	Classification string                     `json:"classification,omitempty"`
	Properties     *coll.CollectionProperties `json:"properties"`
}

type createProductParams struct {
	params.Anchor
	Properties *coll.CollectionProperties     `json:"properties"`
	Product    *coll.DigitalProductProperties `json:"product"`
}

type fromTemplateParams struct {
	params.Anchor
	TemplateGUID string                     `json:"template_guid"`
	Properties   *coll.CollectionProperties `json:"properties"`
	Placeholders map[string]string          `json:"placeholders,omitempty"`
}

type updateParams struct {
	GUID       string                     `json:"guid"`
	ReplaceAll bool                       `json:"replace_all,omitempty"`
	Properties *coll.CollectionProperties `json:"properties"`
}

type updateProductParams struct {
	GUID    string                         `json:"guid"`
	Product *coll.DigitalProductProperties `json:"product"`
}

type statusParams struct {
	GUID   string `json:"guid"`
	Status string `json:"status"`
}

type deleteParams struct {
	GUID    string `json:"guid"`
	Cascade bool   `json:"cascade,omitempty"`
}

type nameParams struct {
	params.Query
	Name string `json:"name"`
}

type categoryParams struct {
	params.Query
	Category string `json:"category"`
}

type classificationParams struct {
	params.Query
	Classification string `json:"classification"`
}

type searchParams struct {
	params.Query
	SearchString string `json:"search_string"`
}

type parentParams struct {
	params.Query
	ParentGUID string `json:"parent_guid"`
}

type attachParams struct {
	ParentGUID     string                       `json:"parent_guid"`
	CollectionGUID string                       `json:"collection_guid"`
	Properties     *coll.ResourceListProperties `json:"properties,omitempty"`
}

type memberParams struct {
	CollectionGUID string                               `json:"collection_guid"`
	ElementGUID    string                               `json:"element_guid"`
	ReplaceAll     bool                                 `json:"replace_all,omitempty"`
	Membership     *coll.CollectionMembershipProperties `json:"membership,omitempty"`
}

type membersParams struct {
	params.Query
	CollectionGUID string `json:"collection_guid"`
}

type dependencyParams struct {
	ConsumerGUID string                     `json:"consumer_guid"`
	SupplierGUID string                     `json:"supplier_guid"`
	Properties   *coll.DependencyProperties `json:"properties,omitempty"`
}

type actorParams struct {
	AgreementGUID string                         `json:"agreement_guid"`
	ActorGUID     string                         `json:"actor_guid"`
	Properties    *coll.AgreementActorProperties `json:"properties,omitempty"`
}

type itemParams struct {
	AgreementGUID string                        `json:"agreement_guid"`
	ItemGUID      string                        `json:"item_guid"`
	Properties    *coll.AgreementItemProperties `json:"properties,omitempty"`
}

var (
	propsField   = params.Object("properties", "Collection properties: qualifiedName, displayName, description, category, contentStatus, additionalProperties, effectiveFrom, effectiveTo")
	productField = params.Object("product", "Digital product properties: productName, productType, identifier, maturity, serviceLife, introductionDate, nextVersionDate, withdrawDate")
)

// Register adds every collection tool to reg.
func Register(reg *mcp.Registry, h *coll.Handler) {
	reg.Register(mcp.NewTool("om_collection_create",
		"Create a collection, optionally classified (Folder, Set, ...). Returns the new GUID.",
		params.Schema(params.With(params.AnchorFields,
			params.String("classification", "Collection classification").OneOf(classifications...),
			propsField.Req())...),
		func(ctx context.Context, p createParams) (any, error) {
			guid, err := h.CreateCollection(ctx, p.Anchor.Options(), p.Classification, p.Properties)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_digital_product_create",
		"Create a collection classified as a DigitalProduct. Returns the new GUID.",
		params.Schema(params.With(params.AnchorFields, propsField.Req(), productField.Req())...),
		func(ctx context.Context, p createProductParams) (any, error) {
			guid, err := h.CreateDigitalProduct(ctx, p.Anchor.Options(), p.Properties, p.Product)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_collection_create_from_template",
		"Create a collection by copying a template collection. {{name}} tokens in copied string properties are replaced from placeholders; the template's members are added to the copy.",
		params.Schema(params.With(params.AnchorFields,
			params.String("template_guid", "GUID of the template collection").Req(),
			propsField.Req(),
			params.Object("placeholders", "Placeholder name to value"))...),
		func(ctx context.Context, p fromTemplateParams) (any, error) {
			guid, err := h.CreateCollectionFromTemplate(ctx, p.Anchor.Options(), p.TemplateGUID, p.Properties, p.Placeholders)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_collection_update",
		"Update a collection's properties. With replace_all the given properties replace the existing ones.",
		params.Schema(params.String("guid", "GUID of the collection").Req(),
			params.Bool("replace_all", "Replace rather than merge"),
			propsField.Req()),
		func(ctx context.Context, p updateParams) (any, error) {
			return params.OK, h.UpdateCollection(ctx, p.GUID, p.ReplaceAll, p.Properties)
		}))

	reg.Register(mcp.NewTool("om_digital_product_update",
		"Merge digital product properties into a DigitalProduct collection.",
		params.Schema(params.String("guid", "GUID of the digital product").Req(), productField.Req()),
		func(ctx context.Context, p updateProductParams) (any, error) {
			return params.OK, h.UpdateDigitalProduct(ctx, p.GUID, p.Product)
		}))

	reg.Register(mcp.NewTool("om_collection_update_status",
		"Move a collection to a new content status.",
		params.Schema(params.String("guid", "GUID of the collection").Req(),
			params.String("status", "New content status").OneOf(validation.KnownStatuses()...).Req()),
		func(ctx context.Context, p statusParams) (any, error) {
			return params.OK, h.UpdateCollectionStatus(ctx, p.GUID, p.Status)
		}))

	reg.Register(mcp.NewTool("om_collection_delete",
		"Delete a collection. Elements anchored to it are deleted too when cascade is set; otherwise their presence is an error.",
		params.Schema(params.String("guid", "GUID of the collection").Req(), params.Bool("cascade", "Delete anchored elements")),
		func(ctx context.Context, p deleteParams) (any, error) {
			return params.OK, h.DeleteCollection(ctx, p.GUID, p.Cascade)
		}))

	reg.Register(mcp.NewTool("om_collection_get",
		"Get a collection by GUID.",
		params.Schema(params.GUIDFields("collection")...),
		func(ctx context.Context, p params.GUID) (any, error) {
			at, err := p.At()
			if err != nil {
				return nil, err
			}
			return h.GetCollectionByGUID(ctx, p.GUID, at)
		}))

	reg.Register(mcp.NewTool("om_collection_get_by_name",
		"Get the collections whose qualified name, display name or name equals name.",
		params.Schema(params.With(params.QueryFields, params.String("name", "Name to match exactly").Req())...),
		func(ctx context.Context, p nameParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetCollectionsByName(ctx, p.Name, q)
		}))

	reg.Register(mcp.NewTool("om_collection_get_by_category",
		"Get the collections in a category.",
		params.Schema(params.With(params.QueryFields, params.String("category", "Category to match exactly").Req())...),
		func(ctx context.Context, p categoryParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetCollectionsByCategory(ctx, p.Category, q)
		}))

	reg.Register(mcp.NewTool("om_collection_get_by_classification",
		"Get the collections carrying a classification.",
		params.Schema(params.With(params.QueryFields,
			params.String("classification", "Collection classification").OneOf(classifications...).Req())...),
		func(ctx context.Context, p classificationParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetCollectionsByClassification(ctx, p.Classification, q)
		}))

	reg.Register(mcp.NewTool("om_collection_find",
		"Find collections whose names or properties match a case-insensitive regular expression.",
		params.Schema(params.With(params.QueryFields, params.String("search_string", "Regular expression").Req())...),
		func(ctx context.Context, p searchParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.FindCollections(ctx, p.SearchString, q)
		}))

	reg.Register(mcp.NewTool("om_collection_graph",
		"Get the nested membership tree below a collection with a Mermaid flowchart.",
		params.Schema(params.GUIDFields("collection")...),
		func(ctx context.Context, p params.GUID) (any, error) {
			at, err := p.At()
			if err != nil {
				return nil, err
			}
			return h.GetCollectionGraph(ctx, p.GUID, at)
		}))

	reg.Register(mcp.NewTool("om_collection_attach",
		"Attach a collection to a parent element as a resource. Attaching twice returns the existing relationship.",
		params.Schema(params.String("parent_guid", "GUID of the parent element").Req(),
			params.String("collection_guid", "GUID of the collection").Req(),
			params.Object("properties", "Resource list properties: resourceUse, resourceUseDescription, watchResource")),
		func(ctx context.Context, p attachParams) (any, error) {
			guid, err := h.AttachCollection(ctx, p.ParentGUID, p.CollectionGUID, p.Properties)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_collection_detach",
		"Detach a collection from a parent element.",
		params.Schema(params.String("parent_guid", "GUID of the parent element").Req(),
			params.String("collection_guid", "GUID of the collection").Req()),
		func(ctx context.Context, p attachParams) (any, error) {
			return params.OK, h.DetachCollection(ctx, p.ParentGUID, p.CollectionGUID)
		}))

	reg.Register(mcp.NewTool("om_collection_get_attached",
		"List the collections attached to a parent element.",
		params.Schema(params.With(params.QueryFields, params.String("parent_guid", "GUID of the parent element").Req())...),
		func(ctx context.Context, p parentParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetAttachedCollections(ctx, p.ParentGUID, q)
		}))

	memberFields := []params.Field{
		params.String("collection_guid", "GUID of the collection").Req(),
		params.String("element_guid", "GUID of the member element").Req(),
	}
	membershipField := params.Object("membership", "Membership properties: membershipRationale, expression, confidence, membershipStatus, steward, source, notes")

	reg.Register(mcp.NewTool("om_collection_add_member",
		"Add an element to a collection. Adding it twice returns the existing membership.",
		params.Schema(append(memberFields, membershipField)...),
		func(ctx context.Context, p memberParams) (any, error) {
			guid, err := h.AddToCollection(ctx, p.CollectionGUID, p.ElementGUID, p.Membership)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_collection_update_member",
		"Update the properties of a collection membership.",
		params.Schema(append(memberFields, params.Bool("replace_all", "Replace rather than merge"), membershipField.Req())...),
		func(ctx context.Context, p memberParams) (any, error) {
			return params.OK, h.UpdateCollectionMembership(ctx, p.CollectionGUID, p.ElementGUID, p.ReplaceAll, p.Membership)
		}))

	reg.Register(mcp.NewTool("om_collection_remove_member",
		"Remove an element from a collection.",
		params.Schema(memberFields...),
		func(ctx context.Context, p memberParams) (any, error) {
			return params.OK, h.RemoveFromCollection(ctx, p.CollectionGUID, p.ElementGUID)
		}))

	reg.Register(mcp.NewTool("om_collection_get_members",
		"List the members of a collection with their membership properties.",
		params.Schema(params.With(params.QueryFields, params.String("collection_guid", "GUID of the collection").Req())...),
		func(ctx context.Context, p membersParams) (any, error) {
			q, err := p.Options()
			if err != nil {
				return nil, err
			}
			return h.GetCollectionMembers(ctx, p.CollectionGUID, q)
		}))

	dependencyFields := []params.Field{
		params.String("consumer_guid", "GUID of the consuming digital product").Req(),
		params.String("supplier_guid", "GUID of the supplying digital product").Req(),
	}
	reg.Register(mcp.NewTool("om_digital_product_link_dependency",
		"Record that one digital product depends on another.",
		params.Schema(append(dependencyFields, params.Object("properties", "Dependency properties: label, description"))...),
		func(ctx context.Context, p dependencyParams) (any, error) {
			guid, err := h.LinkDigitalProductDependency(ctx, p.ConsumerGUID, p.SupplierGUID, p.Properties)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_digital_product_detach_dependency",
		"Remove a dependency between digital products.",
		params.Schema(dependencyFields...),
		func(ctx context.Context, p dependencyParams) (any, error) {
			return params.OK, h.DetachDigitalProductDependency(ctx, p.ConsumerGUID, p.SupplierGUID)
		}))

	actorFields := []params.Field{
		params.String("agreement_guid", "GUID of the agreement").Req(),
		params.String("actor_guid", "GUID of the actor").Req(),
	}
	reg.Register(mcp.NewTool("om_agreement_link_actor",
		"Link an actor to an agreement.",
		params.Schema(append(actorFields, params.Object("properties", "Agreement actor properties: actorName"))...),
		func(ctx context.Context, p actorParams) (any, error) {
			guid, err := h.LinkAgreementActor(ctx, p.AgreementGUID, p.ActorGUID, p.Properties)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_agreement_detach_actor",
		"Remove an actor from an agreement.",
		params.Schema(actorFields...),
		func(ctx context.Context, p actorParams) (any, error) {
			return params.OK, h.DetachAgreementActor(ctx, p.AgreementGUID, p.ActorGUID)
		}))

	itemFields := []params.Field{
		params.String("agreement_guid", "GUID of the agreement").Req(),
		params.String("item_guid", "GUID of the agreement item").Req(),
	}
	reg.Register(mcp.NewTool("om_agreement_link_item",
		"Link an item to an agreement.",
		params.Schema(append(itemFields, params.Object("properties", "Agreement item properties: agreementItemId, agreementStart, agreementEnd, restrictions, obligations"))...),
		func(ctx context.Context, p itemParams) (any, error) {
			guid, err := h.LinkAgreementItem(ctx, p.AgreementGUID, p.ItemGUID, p.Properties)
			return params.Created{GUID: guid}, err
		}))

	reg.Register(mcp.NewTool("om_agreement_detach_item",
		"Remove an item from an agreement.",
		params.Schema(itemFields...),
		func(ctx context.Context, p itemParams) (any, error) {
			return params.OK, h.DetachAgreementItem(ctx, p.AgreementGUID, p.ItemGUID)
		}))
}
