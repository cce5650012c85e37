package schema

import (
	"slices"
	"sort"
)

// Native collection identifiers.
const (
	CollectionContacts    = "content://com.android.contacts/contacts"
	CollectionRawContacts = "content://com.android.contacts/raw_contacts"
	CollectionData        = "content://com.android.contacts/data"
	CollectionPhones      = "content://com.android.contacts/data/phones"
	CollectionEmails      = "content://com.android.contacts/data/emails"
	CollectionPostals     = "content://com.android.contacts/data/postals"
)

// DiscriminatorColumn holds the content item type of a data row.
const DiscriminatorColumn = "mimetype"

// Content item types stored in DiscriminatorColumn.
const (
	ItemName         = "vnd.android.cursor.item/name"
	ItemNickname     = "vnd.android.cursor.item/nickname"
	ItemPhone        = "vnd.android.cursor.item/phone_v2"
	ItemEmail        = "vnd.android.cursor.item/email_v2"
	ItemPostal       = "vnd.android.cursor.item/postal-address_v2"
	ItemOrganization = "vnd.android.cursor.item/organization"
	ItemNote         = "vnd.android.cursor.item/note"
	ItemRelation     = "vnd.android.cursor.item/relation"
	ItemWebsite      = "vnd.android.cursor.item/website"
	ItemIm           = "vnd.android.cursor.item/im"
)

// ColumnMapping describes how a field is stored natively.
type ColumnMapping struct {
	// Columns lists the native columns backing the field.
	// Empty for synthetic collection fields such as Contact.Phones.
	Columns []string

	// Type is the declared value type of the field.
	Type ValueType

	// ToQueryable converts a Go value to its stored form before binding.
	// Nil means the value is bound as-is.
	ToQueryable func(any) any
}

// IsSynthetic reports whether the field has no backing column.
func (m ColumnMapping) IsSynthetic() bool {
	return len(m.Columns) == 0
}

// fieldDef is one registry entry.
type fieldDef struct {
	columns    []string
	rawColumns []string // overrides columns in Raw mode when set
	typ        ValueType
	toQuery    func(any) any

	// primary fields live in the mode's default collection.
	primary       bool
	collection    string
	discriminator string
}

func (d fieldDef) columnsFor(mode Mode) []string {
	if mode == Raw && d.rawColumns != nil {
		return d.rawColumns
	}
	return d.columns
}

func nameField(col string) fieldDef {
	return fieldDef{columns: []string{col}, typ: stringType, collection: CollectionData, discriminator: ItemName}
}

func subCollection(elem Shape) fieldDef {
	collection, discriminator := elementCollection(elem)
	return fieldDef{typ: collectionOf(elem), collection: collection, discriminator: discriminator}
}

// elementCollection returns where the rows of a sub-entity shape live.
func elementCollection(s Shape) (string, string) {
	switch s {
	case ShapePhone:
		return CollectionPhones, ""
	case ShapeEmail:
		return CollectionEmails, ""
	case ShapeAddress:
		return CollectionPostals, ""
	case ShapeRelationship:
		return CollectionData, ItemRelation
	case ShapeInstantMessagingAccount:
		return CollectionData, ItemIm
	case ShapeWebsite:
		return CollectionData, ItemWebsite
	case ShapeOrganization:
		return CollectionData, ItemOrganization
	case ShapeNote:
		return CollectionData, ItemNote
	case ShapeContact, ShapeUnknown:
		return "", ""
	}
	return "", ""
}

func boolToInt(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

var contactFields = map[string]fieldDef{
	"Id": {
		columns:    []string{"lookup"},
		rawColumns: []string{"contact_id"},
		typ:        stringType,
		primary:    true,
	},
	"DisplayName": {columns: []string{"display_name"}, typ: stringType, primary: true},
	"Starred":     {columns: []string{"starred"}, typ: boolType, toQuery: boolToInt, primary: true},

	"Prefix":     nameField("data4"),
	"FirstName":  nameField("data2"),
	"MiddleName": nameField("data5"),
	"LastName":   nameField("data3"),
	"Suffix":     nameField("data6"),
	"Nickname": {
		columns:       []string{"data1"},
		typ:           stringType,
		collection:    CollectionData,
		discriminator: ItemNickname,
	},

	"Phones":                   subCollection(ShapePhone),
	"Emails":                   subCollection(ShapeEmail),
	"Addresses":                subCollection(ShapeAddress),
	"Notes":                    subCollection(ShapeNote),
	"Relationships":            subCollection(ShapeRelationship),
	"InstantMessagingAccounts": subCollection(ShapeInstantMessagingAccount),
	"Websites":                 subCollection(ShapeWebsite),
	"Organizations":            subCollection(ShapeOrganization),
}

// sub builds the field table of a sub-entity shape; every field lives in the
// shape's element collection.
func sub(s Shape, cols map[string]fieldDef) map[string]fieldDef {
	collection, discriminator := elementCollection(s)
	for name, def := range cols {
		def.collection = collection
		def.discriminator = discriminator
		cols[name] = def
	}
	return cols
}

func str(cols ...string) fieldDef {
	return fieldDef{columns: cols, typ: stringType}
}

var (
	phoneFields = sub(ShapePhone, map[string]fieldDef{
		"Number": str("data1"),
		"Label":  str("data2", "data3"),
	})
	emailFields = sub(ShapeEmail, map[string]fieldDef{
		"Address": str("data1"),
		"Label":   str("data2", "data3"),
	})
	addressFields = sub(ShapeAddress, map[string]fieldDef{
		"StreetAddress": str("data4"),
		"City":          str("data7"),
		"Region":        str("data8"),
		"PostalCode":    str("data9"),
		"Country":       str("data10"),
	})
	relationshipFields = sub(ShapeRelationship, map[string]fieldDef{
		"Name": str("data1"),
	})
	imFields = sub(ShapeInstantMessagingAccount, map[string]fieldDef{
		"Account": str("data1"),
		"Service": str("data5"),
	})
	websiteFields = sub(ShapeWebsite, map[string]fieldDef{
		"Address": str("data1"),
	})
	organizationFields = sub(ShapeOrganization, map[string]fieldDef{
		"Name":         str("data1"),
		"ContactTitle": str("data4"),
	})
	noteFields = sub(ShapeNote, map[string]fieldDef{
		"Contents": str("data1"),
	})
)

// Registry maps shapes and fields to native storage.
// A Registry is immutable and safe for concurrent use.
type Registry struct{}

// NewRegistry returns the contact schema registry.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) fields(s Shape) map[string]fieldDef {
	switch s {
	case ShapeContact:
		return contactFields
	case ShapePhone:
		return phoneFields
	case ShapeEmail:
		return emailFields
	case ShapeAddress:
		return addressFields
	case ShapeRelationship:
		return relationshipFields
	case ShapeInstantMessagingAccount:
		return imFields
	case ShapeWebsite:
		return websiteFields
	case ShapeOrganization:
		return organizationFields
	case ShapeNote:
		return noteFields
	case ShapeUnknown:
		return nil
	}
	return nil
}

// IsSupported reports whether shape belongs to the closed contact schema.
func (r *Registry) IsSupported(s Shape) bool {
	return r.fields(s) != nil
}

// Column returns the native column mapping of shape.field.
// The boolean is false when the shape or field is unknown.
func (r *Registry) Column(mode Mode, s Shape, field string) (ColumnMapping, bool) {
	def, ok := r.fields(s)[field]
	if !ok {
		return ColumnMapping{}, false
	}
	return ColumnMapping{
		Columns:     slices.Clone(def.columnsFor(mode)),
		Type:        def.typ,
		ToQueryable: def.toQuery,
	}, true
}

// Collection returns the collection (and discriminator, if the collection is
// shared) that shape.field is stored in. Synthetic collection fields resolve
// to the collection of their element shape.
func (r *Registry) Collection(mode Mode, s Shape, field string) (collection, discriminator string, ok bool) {
	def, found := r.fields(s)[field]
	if !found {
		return "", "", false
	}
	if def.primary {
		return r.DefaultCollection(mode), "", true
	}
	return def.collection, def.discriminator, true
}

// FieldType returns the declared type of shape.field.
func (r *Registry) FieldType(s Shape, field string) (ValueType, bool) {
	def, ok := r.fields(s)[field]
	if !ok {
		return ValueType{}, false
	}
	return def.typ, true
}

// Fields returns the field names of shape in sorted order.
func (r *Registry) Fields(s Shape) []string {
	defs := r.fields(s)
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultCollection is the collection queried when nothing in a query pins one.
func (r *Registry) DefaultCollection(mode Mode) string {
	if mode == Raw {
		return CollectionRawContacts
	}
	return CollectionContacts
}

// ElementCollection returns where rows of a shape live. Contacts live in the
// mode's default collection.
func (r *Registry) ElementCollection(mode Mode, s Shape) (collection, discriminator string, ok bool) {
	if s == ShapeContact {
		return r.DefaultCollection(mode), "", true
	}
	collection, discriminator = elementCollection(s)
	return collection, discriminator, collection != ""
}
