// Package model holds the in-memory contact entities a query returns.
//
// Entities expose their fields by name through Entity.Field so the in-memory
// evaluator can read them without reflection. Empty strings read as null,
// matching the NULL columns the native store leaves for absent values.
package model

import "github.com/roach88/contactq/internal/schema"

// Entity is a contact or contact sub-entity.
type Entity interface {
	Shape() schema.Shape
	// Field returns the value of the named field. Collection fields return
	// []any of entities. The boolean is false for unknown names.
	Field(name string) (any, bool)
}

// Contact is a contact identity with its structured data.
type Contact struct {
	// ID is the lookup key in the aggregated view and the contact id in the
	// raw view.
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName"`
	Starred     bool   `json:"starred,omitempty" yaml:"starred"`

	Prefix     string `json:"prefix,omitempty" yaml:"prefix"`
	FirstName  string `json:"firstName,omitempty" yaml:"firstName"`
	MiddleName string `json:"middleName,omitempty" yaml:"middleName"`
	LastName   string `json:"lastName,omitempty" yaml:"lastName"`
	Suffix     string `json:"suffix,omitempty" yaml:"suffix"`
	Nickname   string `json:"nickname,omitempty" yaml:"nickname"`

	Phones                   []*Phone                   `json:"phones,omitempty" yaml:"phones"`
	Emails                   []*Email                   `json:"emails,omitempty" yaml:"emails"`
	Addresses                []*Address                 `json:"addresses,omitempty" yaml:"addresses"`
	Notes                    []*Note                    `json:"notes,omitempty" yaml:"notes"`
	Relationships            []*Relationship            `json:"relationships,omitempty" yaml:"relationships"`
	InstantMessagingAccounts []*InstantMessagingAccount `json:"instantMessagingAccounts,omitempty" yaml:"instantMessagingAccounts"`
	Websites                 []*Website                 `json:"websites,omitempty" yaml:"websites"`
	Organizations            []*Organization            `json:"organizations,omitempty" yaml:"organizations"`
}

func (*Contact) Shape() schema.Shape { return schema.ShapeContact }

func (c *Contact) Field(name string) (any, bool) {
	switch name {
	case "Id":
		return str(c.ID), true
	case "DisplayName":
		return str(c.DisplayName), true
	case "Starred":
		return c.Starred, true
	case "Prefix":
		return str(c.Prefix), true
	case "FirstName":
		return str(c.FirstName), true
	case "MiddleName":
		return str(c.MiddleName), true
	case "LastName":
		return str(c.LastName), true
	case "Suffix":
		return str(c.Suffix), true
	case "Nickname":
		return str(c.Nickname), true
	case "Phones":
		return entities(c.Phones), true
	case "Emails":
		return entities(c.Emails), true
	case "Addresses":
		return entities(c.Addresses), true
	case "Notes":
		return entities(c.Notes), true
	case "Relationships":
		return entities(c.Relationships), true
	case "InstantMessagingAccounts":
		return entities(c.InstantMessagingAccounts), true
	case "Websites":
		return entities(c.Websites), true
	case "Organizations":
		return entities(c.Organizations), true
	default:
		return nil, false
	}
}

// Phone is a phone number.
type Phone struct {
	Number string `json:"number" yaml:"number"`
	Label  string `json:"label,omitempty" yaml:"label"`
}

func (*Phone) Shape() schema.Shape { return schema.ShapePhone }

func (p *Phone) Field(name string) (any, bool) {
	switch name {
	case "Number":
		return str(p.Number), true
	case "Label":
		return str(p.Label), true
	default:
		return nil, false
	}
}

// Email is an email address.
type Email struct {
	Address string `json:"address" yaml:"address"`
	Label   string `json:"label,omitempty" yaml:"label"`
}

func (*Email) Shape() schema.Shape { return schema.ShapeEmail }

func (e *Email) Field(name string) (any, bool) {
	switch name {
	case "Address":
		return str(e.Address), true
	case "Label":
		return str(e.Label), true
	default:
		return nil, false
	}
}

// Address is a postal address.
type Address struct {
	StreetAddress string `json:"streetAddress,omitempty" yaml:"streetAddress"`
	City          string `json:"city,omitempty" yaml:"city"`
	Region        string `json:"region,omitempty" yaml:"region"`
	PostalCode    string `json:"postalCode,omitempty" yaml:"postalCode"`
	Country       string `json:"country,omitempty" yaml:"country"`
}

func (*Address) Shape() schema.Shape { return schema.ShapeAddress }

func (a *Address) Field(name string) (any, bool) {
	switch name {
	case "StreetAddress":
		return str(a.StreetAddress), true
	case "City":
		return str(a.City), true
	case "Region":
		return str(a.Region), true
	case "PostalCode":
		return str(a.PostalCode), true
	case "Country":
		return str(a.Country), true
	default:
		return nil, false
	}
}

// Note is free-form text attached to a contact.
type Note struct {
	Contents string `json:"contents" yaml:"contents"`
}

func (*Note) Shape() schema.Shape { return schema.ShapeNote }

func (n *Note) Field(name string) (any, bool) {
	if name == "Contents" {
		return str(n.Contents), true
	}
	return nil, false
}

// Relationship names a related person.
type Relationship struct {
	Name string `json:"name" yaml:"name"`
}

func (*Relationship) Shape() schema.Shape { return schema.ShapeRelationship }

func (r *Relationship) Field(name string) (any, bool) {
	if name == "Name" {
		return str(r.Name), true
	}
	return nil, false
}

// InstantMessagingAccount is an account on a messaging service.
type InstantMessagingAccount struct {
	Account string `json:"account" yaml:"account"`
	Service string `json:"service,omitempty" yaml:"service"`
}

func (*InstantMessagingAccount) Shape() schema.Shape { return schema.ShapeInstantMessagingAccount }

func (a *InstantMessagingAccount) Field(name string) (any, bool) {
	switch name {
	case "Account":
		return str(a.Account), true
	case "Service":
		return str(a.Service), true
	default:
		return nil, false
	}
}

// Website is a URL.
type Website struct {
	Address string `json:"address" yaml:"address"`
}

func (*Website) Shape() schema.Shape { return schema.ShapeWebsite }

func (w *Website) Field(name string) (any, bool) {
	if name == "Address" {
		return str(w.Address), true
	}
	return nil, false
}

// Organization is an employer or affiliation.
type Organization struct {
	Name         string `json:"name" yaml:"name"`
	ContactTitle string `json:"contactTitle,omitempty" yaml:"contactTitle"`
}

func (*Organization) Shape() schema.Shape { return schema.ShapeOrganization }

func (o *Organization) Field(name string) (any, bool) {
	switch name {
	case "Name":
		return str(o.Name), true
	case "ContactTitle":
		return str(o.ContactTitle), true
	default:
		return nil, false
	}
}

// str maps the empty string to null.
func str(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func entities[T Entity](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// Items wraps entities as evaluator input.
func Items[T any](items []T) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}
