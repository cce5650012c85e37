package resolve

import (
	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/schema"
)

// Table is the native collection a field lives in. Discriminator is empty
// when the collection is not shared between shapes.
type Table struct {
	Collection    string
	Discriminator string
}

// Equal reports whether t and o name the same collection and discriminator.
func (t Table) Equal(o Table) bool {
	return t.Collection == o.Collection && t.Discriminator == o.Discriminator
}

// Finder resolves field accesses for one aggregation mode.
// A Finder is immutable and safe for concurrent use.
type Finder struct {
	registry *schema.Registry
	mode     schema.Mode
}

// NewFinder returns a Finder over registry for mode.
func NewFinder(registry *schema.Registry, mode schema.Mode) *Finder {
	return &Finder{registry: registry, mode: mode}
}

// Mode returns the aggregation mode the finder resolves for.
func (f *Finder) Mode() schema.Mode { return f.mode }

// Registry returns the underlying schema registry.
func (f *Finder) Registry() *schema.Registry { return f.registry }

// Find returns the table that field is stored in. Dispatch depends only on
// the declaring shape and member name, never on values. Synthetic collection
// fields resolve to the collection of their elements. The boolean is false for
// unknown shape/field combinations.
func (f *Finder) Find(field *expr.Field) (Table, bool) {
	if field == nil {
		return Table{}, false
	}
	collection, discriminator, ok := f.registry.Collection(f.mode, field.Shape, field.Name)
	if !ok {
		return Table{}, false
	}
	return Table{Collection: collection, Discriminator: discriminator}, true
}

// Column returns the column mapping of field in the finder's mode.
func (f *Finder) Column(field *expr.Field) (schema.ColumnMapping, bool) {
	if field == nil {
		return schema.ColumnMapping{}, false
	}
	return f.registry.Column(f.mode, field.Shape, field.Name)
}

// DefaultTable is the table queried when nothing pins a collection.
func (f *Finder) DefaultTable() Table {
	return Table{Collection: f.registry.DefaultCollection(f.mode)}
}

// IsSupported reports whether shape belongs to the contact schema.
func (f *Finder) IsSupported(shape schema.Shape) bool {
	return f.registry.IsSupported(shape)
}
