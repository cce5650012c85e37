package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapes_AllSupported(t *testing.T) {
	r := NewRegistry()
	for _, s := range Shapes() {
		assert.True(t, IsSupported(s), "%s should be supported", s)
		assert.True(t, r.IsSupported(s), "%s should have fields", s)
		assert.NotEmpty(t, r.Fields(s))
	}
	assert.False(t, IsSupported(ShapeUnknown))
	assert.False(t, r.IsSupported(Shape(99)))
}

func TestParseShape(t *testing.T) {
	s, ok := ParseShape("phone")
	require.True(t, ok)
	assert.Equal(t, ShapePhone, s)

	_, ok = ParseShape("Calendar")
	assert.False(t, ok)
}

func TestColumn_ContactScalar(t *testing.T) {
	r := NewRegistry()

	m, ok := r.Column(Aggregated, ShapeContact, "DisplayName")
	require.True(t, ok)
	assert.Equal(t, []string{"display_name"}, m.Columns)
	assert.Equal(t, KindString, m.Type.Kind)
	assert.Nil(t, m.ToQueryable)
}

func TestColumn_IdDependsOnMode(t *testing.T) {
	r := NewRegistry()

	agg, ok := r.Column(Aggregated, ShapeContact, "Id")
	require.True(t, ok)
	assert.Equal(t, []string{"lookup"}, agg.Columns)

	raw, ok := r.Column(Raw, ShapeContact, "Id")
	require.True(t, ok)
	assert.Equal(t, []string{"contact_id"}, raw.Columns)
}

func TestColumn_SyntheticCollection(t *testing.T) {
	r := NewRegistry()

	m, ok := r.Column(Aggregated, ShapeContact, "Phones")
	require.True(t, ok)
	assert.True(t, m.IsSynthetic())
	assert.True(t, m.Type.IsCollection())
	assert.Equal(t, ShapePhone, m.Type.Elem)
	assert.Equal(t, "[]Phone", m.Type.String())
}

func TestColumn_MultiColumn(t *testing.T) {
	r := NewRegistry()

	m, ok := r.Column(Aggregated, ShapePhone, "Label")
	require.True(t, ok)
	assert.Equal(t, []string{"data2", "data3"}, m.Columns)
}

func TestColumn_StarredTransform(t *testing.T) {
	r := NewRegistry()

	m, ok := r.Column(Aggregated, ShapeContact, "Starred")
	require.True(t, ok)
	require.NotNil(t, m.ToQueryable)
	assert.Equal(t, 1, m.ToQueryable(true))
	assert.Equal(t, 0, m.ToQueryable(false))
	assert.Equal(t, "x", m.ToQueryable("x"))
}

func TestColumn_Unknown(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Column(Aggregated, ShapeContact, "Birthday")
	assert.False(t, ok)

	_, ok = r.Column(Aggregated, ShapeUnknown, "Number")
	assert.False(t, ok)
}

func TestColumn_ReturnsCopy(t *testing.T) {
	r := NewRegistry()

	m, _ := r.Column(Aggregated, ShapeContact, "FirstName")
	m.Columns[0] = "mutated"

	again, _ := r.Column(Aggregated, ShapeContact, "FirstName")
	assert.Equal(t, []string{"data2"}, again.Columns)
}

func TestCollection(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name          string
		mode          Mode
		shape         Shape
		field         string
		collection    string
		discriminator string
	}{
		{"display name aggregated", Aggregated, ShapeContact, "DisplayName", CollectionContacts, ""},
		{"display name raw", Raw, ShapeContact, "DisplayName", CollectionRawContacts, ""},
		{"first name", Aggregated, ShapeContact, "FirstName", CollectionData, ItemName},
		{"nickname", Raw, ShapeContact, "Nickname", CollectionData, ItemNickname},
		{"phones", Aggregated, ShapeContact, "Phones", CollectionPhones, ""},
		{"emails", Aggregated, ShapeContact, "Emails", CollectionEmails, ""},
		{"addresses", Aggregated, ShapeContact, "Addresses", CollectionPostals, ""},
		{"organizations", Aggregated, ShapeContact, "Organizations", CollectionData, ItemOrganization},
		{"notes", Aggregated, ShapeContact, "Notes", CollectionData, ItemNote},
		{"websites", Aggregated, ShapeContact, "Websites", CollectionData, ItemWebsite},
		{"im accounts", Aggregated, ShapeContact, "InstantMessagingAccounts", CollectionData, ItemIm},
		{"relationships", Aggregated, ShapeContact, "Relationships", CollectionData, ItemRelation},
		{"phone number", Aggregated, ShapePhone, "Number", CollectionPhones, ""},
		{"email address", Raw, ShapeEmail, "Address", CollectionEmails, ""},
		{"city", Aggregated, ShapeAddress, "City", CollectionPostals, ""},
		{"company", Aggregated, ShapeOrganization, "Name", CollectionData, ItemOrganization},
		{"note contents", Aggregated, ShapeNote, "Contents", CollectionData, ItemNote},
		{"relation name", Aggregated, ShapeRelationship, "Name", CollectionData, ItemRelation},
		{"website", Aggregated, ShapeWebsite, "Address", CollectionData, ItemWebsite},
		{"im account", Aggregated, ShapeInstantMessagingAccount, "Account", CollectionData, ItemIm},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			collection, discriminator, ok := r.Collection(tc.mode, tc.shape, tc.field)
			require.True(t, ok)
			assert.Equal(t, tc.collection, collection)
			assert.Equal(t, tc.discriminator, discriminator)
		})
	}
}

func TestCollection_Unknown(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.Collection(Aggregated, ShapeEmail, "Number")
	assert.False(t, ok)
}

func TestDefaultCollection(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, CollectionContacts, r.DefaultCollection(Aggregated))
	assert.Equal(t, CollectionRawContacts, r.DefaultCollection(Raw))
	assert.Equal(t, Aggregated, ModeFor(true))
	assert.Equal(t, Raw, ModeFor(false))
}

func TestElementCollection(t *testing.T) {
	r := NewRegistry()

	c, d, ok := r.ElementCollection(Raw, ShapeContact)
	require.True(t, ok)
	assert.Equal(t, CollectionRawContacts, c)
	assert.Empty(t, d)

	c, d, ok = r.ElementCollection(Aggregated, ShapeOrganization)
	require.True(t, ok)
	assert.Equal(t, CollectionData, c)
	assert.Equal(t, ItemOrganization, d)

	_, _, ok = r.ElementCollection(Aggregated, ShapeUnknown)
	assert.False(t, ok)
}
