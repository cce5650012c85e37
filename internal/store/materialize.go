package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/contactq/internal/model"
	"github.com/roach88/contactq/internal/schema"
)

// Type codes stored in data2 for labeled items. Zero means custom, with the
// label text in data3.
var labelCodes = map[string]string{
	"0": "",
	"1": "home",
	"2": "mobile",
	"3": "work",
	"7": "other",
}

func labelCode(label string) (code, custom string) {
	for c, name := range labelCodes {
		if name != "" && name == label {
			return c, ""
		}
	}
	if label == "" {
		return "", ""
	}
	return "0", label
}

func labelOf(r Row) string {
	if custom := r.String("data3"); custom != "" {
		return custom
	}
	return labelCodes[r.String("data2")]
}

// Materialize turns rows from collection into entities of shape. Contact rows
// are deduplicated by owning contact (data rows of one contact collapse into
// one Contact) and loaded in full; sub-entity rows map one to one.
func (s *Store) Materialize(ctx context.Context, collection string, rows []Row, shape schema.Shape, mode schema.Mode) ([]any, error) {
	if shape != schema.ShapeContact {
		out := make([]any, 0, len(rows))
		for _, r := range rows {
			e, err := entityFromRow(shape, r)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	}

	key := ownerColumn(collection, mode)
	seen := make(map[int64]bool, len(rows))
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		id := r.Int64(key)
		if seen[id] {
			continue
		}
		seen[id] = true
		c, err := s.loadContact(ctx, mode, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ownerColumn names the column that identifies the contact a row belongs to.
func ownerColumn(collection string, mode schema.Mode) string {
	switch collection {
	case schema.CollectionContacts, schema.CollectionRawContacts:
		return "_id"
	}
	if mode == schema.Raw {
		return "raw_contact_id"
	}
	return "contact_id"
}

// LoadContact fetches one contact by its external id: the lookup key in the
// aggregated view, the contact id in the raw view (first raw entry wins).
func (s *Store) LoadContact(ctx context.Context, mode schema.Mode, id string) (*model.Contact, error) {
	var (
		query string
		arg   any = id
	)
	if mode == schema.Raw {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, ErrNotFound
		}
		query, arg = "SELECT _id FROM raw_contacts WHERE contact_id = ? ORDER BY _id ASC LIMIT 1", n
	} else {
		query = "SELECT _id FROM contacts WHERE lookup = ?"
	}

	var key int64
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact %q: %w", id, err)
	}
	return s.loadContact(ctx, mode, key)
}

// loadContact assembles a contact from its header row and data rows. key is
// contacts._id in the aggregated view and raw_contacts._id in the raw view.
func (s *Store) loadContact(ctx context.Context, mode schema.Mode, key int64) (*model.Contact, error) {
	var (
		header  string
		dataCol string
	)
	if mode == schema.Raw {
		header = "SELECT CAST(contact_id AS TEXT), display_name, starred FROM raw_contacts WHERE _id = ?"
		dataCol = "raw_contact_id"
	} else {
		header = "SELECT lookup, display_name, starred FROM contacts WHERE _id = ?"
		dataCol = "contact_id"
	}

	var (
		c       model.Contact
		display sql.NullString
	)
	err := s.db.QueryRowContext(ctx, header, key).Scan(&c.ID, &display, &c.Starred)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contact %d: %w", key, err)
	}
	c.DisplayName = display.String

	rows, err := s.Query(ctx, Query{
		Collection: schema.CollectionData,
		Where:      dataCol + " = ?",
		Params:     []string{strconv.FormatInt(key, 10)},
		Limit:      -1,
		Offset:     -1,
	})
	if err != nil {
		return nil, fmt.Errorf("load details of contact %d: %w", key, err)
	}
	for _, r := range rows {
		if err := addDetail(&c, r); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// addDetail folds one data row into c.
func addDetail(c *model.Contact, r Row) error {
	switch mimetype := r.String(schema.DiscriminatorColumn); mimetype {
	case schema.ItemName:
		if c.FirstName == "" && c.LastName == "" {
			c.Prefix = r.String("data4")
			c.FirstName = r.String("data2")
			c.MiddleName = r.String("data5")
			c.LastName = r.String("data3")
			c.Suffix = r.String("data6")
		}
	case schema.ItemNickname:
		if c.Nickname == "" {
			c.Nickname = r.String("data1")
		}
	case schema.ItemPhone:
		c.Phones = append(c.Phones, phoneFromRow(r))
	case schema.ItemEmail:
		c.Emails = append(c.Emails, emailFromRow(r))
	case schema.ItemPostal:
		c.Addresses = append(c.Addresses, addressFromRow(r))
	case schema.ItemNote:
		c.Notes = append(c.Notes, &model.Note{Contents: r.String("data1")})
	case schema.ItemRelation:
		c.Relationships = append(c.Relationships, &model.Relationship{Name: r.String("data1")})
	case schema.ItemIm:
		c.InstantMessagingAccounts = append(c.InstantMessagingAccounts, imFromRow(r))
	case schema.ItemWebsite:
		c.Websites = append(c.Websites, &model.Website{Address: r.String("data1")})
	case schema.ItemOrganization:
		c.Organizations = append(c.Organizations, organizationFromRow(r))
	default:
		return fmt.Errorf("unknown mimetype %q in data row %d", mimetype, r.Int64("_id"))
	}
	return nil
}

func entityFromRow(shape schema.Shape, r Row) (model.Entity, error) {
	switch shape {
	case schema.ShapePhone:
		return phoneFromRow(r), nil
	case schema.ShapeEmail:
		return emailFromRow(r), nil
	case schema.ShapeAddress:
		return addressFromRow(r), nil
	case schema.ShapeNote:
		return &model.Note{Contents: r.String("data1")}, nil
	case schema.ShapeRelationship:
		return &model.Relationship{Name: r.String("data1")}, nil
	case schema.ShapeInstantMessagingAccount:
		return imFromRow(r), nil
	case schema.ShapeWebsite:
		return &model.Website{Address: r.String("data1")}, nil
	case schema.ShapeOrganization:
		return organizationFromRow(r), nil
	case schema.ShapeContact, schema.ShapeUnknown:
		return nil, fmt.Errorf("cannot materialize %s from a detail row", shape)
	}
	return nil, fmt.Errorf("cannot materialize %s from a detail row", shape)
}

func phoneFromRow(r Row) *model.Phone {
	return &model.Phone{Number: r.String("data1"), Label: labelOf(r)}
}

func emailFromRow(r Row) *model.Email {
	return &model.Email{Address: r.String("data1"), Label: labelOf(r)}
}

func addressFromRow(r Row) *model.Address {
	return &model.Address{
		StreetAddress: r.String("data4"),
		City:          r.String("data7"),
		Region:        r.String("data8"),
		PostalCode:    r.String("data9"),
		Country:       r.String("data10"),
	}
}

func imFromRow(r Row) *model.InstantMessagingAccount {
	return &model.InstantMessagingAccount{Account: r.String("data1"), Service: r.String("data5")}
}

func organizationFromRow(r Row) *model.Organization {
	return &model.Organization{Name: r.String("data1"), ContactTitle: r.String("data4")}
}
