package schema

import (
	"fmt"
	"strings"
)

// Shape identifies one of the closed set of contact entity kinds.
//
// The set is closed: every lookup in this package switches exhaustively over
// the constants below. Adding a shape means adding a case to each switch.
type Shape int

const (
	// ShapeUnknown is the zero value and never resolves to a collection.
	ShapeUnknown Shape = iota
	ShapeContact
	ShapePhone
	ShapeEmail
	ShapeAddress
	ShapeRelationship
	ShapeInstantMessagingAccount
	ShapeWebsite
	ShapeOrganization
	ShapeNote
)

var shapeNames = map[Shape]string{
	ShapeContact:                 "Contact",
	ShapePhone:                   "Phone",
	ShapeEmail:                   "Email",
	ShapeAddress:                 "Address",
	ShapeRelationship:            "Relationship",
	ShapeInstantMessagingAccount: "InstantMessagingAccount",
	ShapeWebsite:                 "Website",
	ShapeOrganization:            "Organization",
	ShapeNote:                    "Note",
}

// Shapes lists every supported shape in declaration order.
func Shapes() []Shape {
	return []Shape{
		ShapeContact,
		ShapePhone,
		ShapeEmail,
		ShapeAddress,
		ShapeRelationship,
		ShapeInstantMessagingAccount,
		ShapeWebsite,
		ShapeOrganization,
		ShapeNote,
	}
}

// IsSupported reports whether s is one of the recognized contact shapes.
func IsSupported(s Shape) bool {
	_, ok := shapeNames[s]
	return ok
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Shape(%d)", int(s))
}

// ParseShape maps a shape name (case-insensitive) back to its Shape.
func ParseShape(name string) (Shape, bool) {
	for s, n := range shapeNames {
		if strings.EqualFold(n, name) {
			return s, true
		}
	}
	return ShapeUnknown, false
}

// Mode selects between the aggregated contact view and per-account raw contacts.
type Mode int

const (
	// Aggregated targets merged contact identities (the default).
	Aggregated Mode = iota
	// Raw targets per-account raw contact rows.
	Raw
)

func (m Mode) String() string {
	if m == Raw {
		return "raw"
	}
	return "aggregated"
}

// ModeFor converts the address book's "prefer aggregation" toggle to a Mode.
func ModeFor(preferAggregation bool) Mode {
	if preferAggregation {
		return Aggregated
	}
	return Raw
}

// Kind is the declared value kind of a field.
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindBool
	// KindCollection marks a one-to-many sub-collection; ValueType.Elem names the element shape.
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindCollection:
		return "collection"
	default:
		return "invalid"
	}
}

// ValueType is the declared type of a field.
type ValueType struct {
	Kind Kind
	Elem Shape // element shape, only for KindCollection
}

// IsCollection reports whether the type denotes a sub-collection of entities.
func (t ValueType) IsCollection() bool {
	return t.Kind == KindCollection && IsSupported(t.Elem)
}

func (t ValueType) String() string {
	if t.Kind == KindCollection {
		return "[]" + t.Elem.String()
	}
	return t.Kind.String()
}

var (
	stringType = ValueType{Kind: KindString}
	intType    = ValueType{Kind: KindInt}
	boolType   = ValueType{Kind: KindBool}
)

func collectionOf(s Shape) ValueType {
	return ValueType{Kind: KindCollection, Elem: s}
}
