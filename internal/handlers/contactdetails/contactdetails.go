// Package contactdetails manages the ContactDetails elements anchored to
// profiles and actors.
package contactdetails

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emergent-company/omviews/internal/faults"
	"github.com/emergent-company/omviews/internal/handlers"
	"github.com/emergent-company/omviews/internal/store"
	"github.com/emergent-company/omviews/internal/validation"
)

const (
	TypeContactDetails = "ContactDetails"
	RelContactThrough  = "ContactThrough"
)

// ContactMethodType is how a contact is reached.
type ContactMethodType int

const (
	Email   ContactMethodType = 0
	Phone   ContactMethodType = 1
	Chat    ContactMethodType = 2
	Profile ContactMethodType = 3
	Account ContactMethodType = 4
	Other   ContactMethodType = 99
)

var methodTypeNames = map[ContactMethodType]string{
	Email:   "Email",
	Phone:   "Phone",
	Chat:    "Chat",
	Profile: "Profile",
	Account: "Account",
	Other:   "Other",
}

func (t ContactMethodType) String() string {
	if name, ok := methodTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ContactMethodType(%d)", int(t))
}

// IsValid reports whether t is a defined contact method type.
func (t ContactMethodType) IsValid() bool {
	_, ok := methodTypeNames[t]
	return ok
}

// ParseContactMethodType accepts a type name in any case.
func ParseContactMethodType(name string) (ContactMethodType, error) {
	for t, n := range methodTypeNames {
		if strings.EqualFold(n, name) {
			return t, nil
		}
	}
	return 0, faults.Invalidf("unknown contact method type %q", name)
}

// MethodType returns a pointer for use in ContactMethodProperties.
func MethodType(t ContactMethodType) *ContactMethodType {
	return &t
}

func checkMethodType(method string, t *ContactMethodType) error {
	if t != nil && !t.IsValid() {
		return faults.Invalidf("%s: unknown contact method type %d", method, int(*t))
	}
	return nil
}

// ContactMethodProperties are the properties of a ContactDetails element.
type ContactMethodProperties struct {
	QualifiedName        string             `json:"qualifiedName,omitempty"`
	Name                 string             `json:"name,omitempty"`
	ContactType          string             `json:"contactType,omitempty"`
	ContactMethodType    *ContactMethodType `json:"contactMethodType,omitempty"`
	ContactMethodService string             `json:"contactMethodService,omitempty"`
	ContactMethodValue   string             `json:"contactMethodValue,omitempty"`
	EffectiveFrom        *time.Time         `json:"effectiveFrom,omitempty"`
	EffectiveTo          *time.Time         `json:"effectiveTo,omitempty"`
}

// ContactDetailsElement is a contact method as returned to callers. The
// header's anchor is the profile or actor it belongs to.
type ContactDetailsElement struct {
	Header     handlers.ElementHeader  `json:"elementHeader"`
	Properties ContactMethodProperties `json:"properties"`
}

// Handler translates contact details operations onto the store.
type Handler struct {
	base *handlers.Base
}

func New(base *handlers.Base) *Handler {
	return &Handler{base: base}
}

// CreateContactDetails creates a contact method for the element and links it
// with a ContactThrough relationship. The new element is anchored to the
// element, so it is removed when the element is deleted with cascade.
func (h *Handler) CreateContactDetails(ctx context.Context, elementGUID string, props *ContactMethodProperties) (string, error) {
	const method = "CreateContactDetails"
	if err := validation.GUID(elementGUID, "elementGUID", method); err != nil {
		return "", err
	}
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return "", err
	}
	if err := validation.Name(props.ContactMethodValue, "contactMethodValue", method); err != nil {
		return "", err
	}
	if err := checkMethodType(method, props.ContactMethodType); err != nil {
		return "", err
	}

	p := *props
	if p.QualifiedName == "" {
		p.QualifiedName = fmt.Sprintf("%s::%s::%s::%s", TypeContactDetails, elementGUID, p.Name, uuid.NewString())
	}
	bag, err := store.ToProperties(&p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", method, err)
	}
	el, err := h.base.CreateElement(ctx, method, TypeContactDetails, &handlers.NewElementOptions{
		AnchorGUID:                 elementGUID,
		ParentGUID:                 elementGUID,
		ParentRelationshipTypeName: RelContactThrough,
		ParentAtEnd1:               true,
	}, p.QualifiedName, nil, bag)
	if err != nil {
		return "", err
	}
	return el.GUID, nil
}

// UpdateContactDetails merges or replaces the contact method's properties.
func (h *Handler) UpdateContactDetails(ctx context.Context, guid string, replaceAll bool, props *ContactMethodProperties) error {
	const method = "UpdateContactDetails"
	if err := validation.Object(props != nil, "properties", method); err != nil {
		return err
	}
	if err := checkMethodType(method, props.ContactMethodType); err != nil {
		return err
	}
	if replaceAll {
		if err := validation.Name(props.ContactMethodValue, "contactMethodValue", method); err != nil {
			return err
		}
	}
	bag, err := store.ToProperties(props)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	_, err = h.base.Update(ctx, method, TypeContactDetails, guid, replaceAll, bag, nil)
	return err
}

// DeleteContactDetails deletes the contact method and its ContactThrough link.
func (h *Handler) DeleteContactDetails(ctx context.Context, guid string) error {
	return h.base.Delete(ctx, "DeleteContactDetails", TypeContactDetails, guid, false)
}

// GetContactDetailsByGUID returns a contact method if it is effective at the given time.
func (h *Handler) GetContactDetailsByGUID(ctx context.Context, guid string, at *time.Time) (*ContactDetailsElement, error) {
	const method = "GetContactDetailsByGUID"
	el, err := h.base.GetElement(ctx, method, TypeContactDetails, guid, at)
	if err != nil {
		return nil, err
	}
	return toContactDetails(method, el)
}

// GetContactDetailsByName returns contact methods whose qualified name or name equals name.
func (h *Handler) GetContactDetailsByName(ctx context.Context, name string, q handlers.QueryOptions) ([]*ContactDetailsElement, error) {
	const method = "GetContactDetailsByName"
	els, err := h.base.FindByName(ctx, method, TypeContactDetails, name, q)
	if err != nil {
		return nil, err
	}
	return toContactDetailsList(method, els)
}

// FindContactDetails returns contact methods matching the regular expression.
func (h *Handler) FindContactDetails(ctx context.Context, searchString string, q handlers.QueryOptions) ([]*ContactDetailsElement, error) {
	const method = "FindContactDetails"
	els, err := h.base.Search(ctx, method, TypeContactDetails, searchString, q)
	if err != nil {
		return nil, err
	}
	return toContactDetailsList(method, els)
}

// GetContactDetailsForElement returns the contact methods linked to a profile or actor.
func (h *Handler) GetContactDetailsForElement(ctx context.Context, elementGUID string, q handlers.QueryOptions) ([]*ContactDetailsElement, error) {
	const method = "GetContactDetailsForElement"
	related, err := h.base.Related(ctx, method, elementGUID, RelContactThrough, store.AtEnd1, q)
	if err != nil {
		return nil, err
	}
	out := make([]*ContactDetailsElement, 0, len(related))
	for _, r := range related {
		if r.Element.TypeName != TypeContactDetails {
			continue
		}
		cd, err := toContactDetails(method, r.Element)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}

func toContactDetails(method string, el *store.Element) (*ContactDetailsElement, error) {
	props, err := store.FromProperties[ContactMethodProperties](el.Properties)
	if err != nil {
		return nil, fmt.Errorf("%s: converting %s: %w", method, el.GUID, err)
	}
	return &ContactDetailsElement{Header: handlers.Header(el), Properties: *props}, nil
}

func toContactDetailsList(method string, els []*store.Element) ([]*ContactDetailsElement, error) {
	out := make([]*ContactDetailsElement, 0, len(els))
	for _, el := range els {
		cd, err := toContactDetails(method, el)
		if err != nil {
			return nil, err
		}
		out = append(out, cd)
	}
	return out, nil
}
