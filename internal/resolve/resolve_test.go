package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/schema"
)

func TestFind(t *testing.T) {
	reg := schema.NewRegistry()
	c := expr.NewParam("c", schema.ShapeContact)
	p := expr.NewParam("p", schema.ShapePhone)

	testCases := []struct {
		name  string
		mode  schema.Mode
		field *expr.Field
		want  Table
	}{
		{"primary aggregated", schema.Aggregated, c.Field("DisplayName"), Table{Collection: schema.CollectionContacts}},
		{"primary raw", schema.Raw, c.Field("DisplayName"), Table{Collection: schema.CollectionRawContacts}},
		{"structured name", schema.Aggregated, c.Field("LastName"), Table{schema.CollectionData, schema.ItemName}},
		{"synthetic phones", schema.Aggregated, c.Field("Phones"), Table{Collection: schema.CollectionPhones}},
		{"synthetic notes", schema.Raw, c.Field("Notes"), Table{schema.CollectionData, schema.ItemNote}},
		{"phone number", schema.Aggregated, p.Field("Number"), Table{Collection: schema.CollectionPhones}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NewFinder(reg, tc.mode).Find(tc.field)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFind_Unresolvable(t *testing.T) {
	f := NewFinder(schema.NewRegistry(), schema.Aggregated)
	c := expr.NewParam("c", schema.ShapeContact)

	_, ok := f.Find(c.Field("Nonexistent"))
	assert.False(t, ok)

	_, ok = f.Find(&expr.Field{Object: c, Shape: schema.ShapeUnknown, Name: "Number"})
	assert.False(t, ok)

	_, ok = f.Find(nil)
	assert.False(t, ok)
}

func TestFind_DispatchesOnDeclaringShape(t *testing.T) {
	f := NewFinder(schema.NewRegistry(), schema.Aggregated)

	// Same member name, different declaring shapes.
	email := &expr.Field{Object: expr.NewParam("e", schema.ShapeEmail), Shape: schema.ShapeEmail, Name: "Address"}
	site := &expr.Field{Object: expr.NewParam("w", schema.ShapeWebsite), Shape: schema.ShapeWebsite, Name: "Address"}

	a, ok := f.Find(email)
	require.True(t, ok)
	b, ok := f.Find(site)
	require.True(t, ok)

	assert.False(t, a.Equal(b))
	assert.Equal(t, schema.CollectionEmails, a.Collection)
	assert.Equal(t, schema.ItemWebsite, b.Discriminator)
}

func TestDefaultTable(t *testing.T) {
	reg := schema.NewRegistry()
	assert.Equal(t, schema.CollectionContacts, NewFinder(reg, schema.Aggregated).DefaultTable().Collection)
	assert.Equal(t, schema.CollectionRawContacts, NewFinder(reg, schema.Raw).DefaultTable().Collection)
}

func TestColumn_FollowsMode(t *testing.T) {
	reg := schema.NewRegistry()
	c := expr.NewParam("c", schema.ShapeContact)

	m, ok := NewFinder(reg, schema.Raw).Column(c.Field("Id"))
	require.True(t, ok)
	assert.Equal(t, []string{"contact_id"}, m.Columns)
}
