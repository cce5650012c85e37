package store

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/contactq/internal/model"
	"github.com/roach88/contactq/internal/schema"
)

//go:embed fixture.cue
var fixtureCUE string

// Fixture is a set of contacts to seed a store with.
type Fixture struct {
	Contacts []FixtureContact `yaml:"contacts"`
}

// FixtureContact is one contact plus the account its raw entry belongs to.
// A non-empty ID becomes the lookup key.
type FixtureContact struct {
	model.Contact `yaml:",inline"`
	Account       string `yaml:"account"`
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture decodes a YAML fixture, validates it against the fixture
// schema and NFC-normalizes every string in it.
func ParseFixture(data []byte) (*Fixture, error) {
	data = norm.NFC.Bytes(data)

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateFixture(doc); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	var f Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &f, nil
}

func validateFixture(doc any) error {
	ctx := cuecontext.New()
	defs := ctx.CompileString(fixtureCUE)
	if err := defs.Err(); err != nil {
		return fmt.Errorf("compile fixture schema: %w", err)
	}
	def := defs.LookupPath(cue.ParsePath("#Fixture"))

	value := def.Unify(ctx.Encode(doc))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}

// Seed inserts every contact of f in order and returns how many were added.
// The whole fixture is written in one transaction.
func (s *Store) Seed(ctx context.Context, f *Fixture) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for i := range f.Contacts {
		if err := s.seedContact(ctx, tx, &f.Contacts[i]); err != nil {
			return 0, fmt.Errorf("seed contact %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(f.Contacts), nil
}

// details collects data rows for one raw contact.
type details struct {
	rows []detailRow
}

type detailRow struct {
	mimetype string
	cols     map[int]string // data column number to value
}

func (d *details) add(mimetype string, cols map[int]string) {
	for _, v := range cols {
		if v != "" {
			d.rows = append(d.rows, detailRow{mimetype: mimetype, cols: cols})
			return
		}
	}
}

func displayName(c *model.Contact) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	var parts []string
	for _, p := range []string{c.Prefix, c.FirstName, c.MiddleName, c.LastName, c.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return c.Nickname
}

func (s *Store) seedContact(ctx context.Context, tx *sql.Tx, fc *FixtureContact) error {
	c := &fc.Contact
	lookup := c.ID
	if lookup == "" {
		lookup = s.newKey()
	}
	account := fc.Account
	if account == "" {
		account = "local"
	}
	name := nullable(displayName(c))

	res, err := tx.ExecContext(ctx,
		"INSERT INTO contacts (lookup, display_name, starred) VALUES (?, ?, ?)",
		lookup, name, c.Starred)
	if err != nil {
		return fmt.Errorf("insert contact %q: %w", lookup, err)
	}
	contactID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx,
		"INSERT INTO raw_contacts (contact_id, display_name, starred, account_name) VALUES (?, ?, ?, ?)",
		contactID, name, c.Starred, account)
	if err != nil {
		return fmt.Errorf("insert raw contact of %q: %w", lookup, err)
	}
	rawID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	var d details
	d.add(schema.ItemName, map[int]string{4: c.Prefix, 2: c.FirstName, 5: c.MiddleName, 3: c.LastName, 6: c.Suffix})
	d.add(schema.ItemNickname, map[int]string{1: c.Nickname})
	for _, p := range c.Phones {
		code, custom := labelCode(p.Label)
		d.add(schema.ItemPhone, map[int]string{1: p.Number, 2: code, 3: custom})
	}
	for _, e := range c.Emails {
		code, custom := labelCode(e.Label)
		d.add(schema.ItemEmail, map[int]string{1: e.Address, 2: code, 3: custom})
	}
	for _, a := range c.Addresses {
		d.add(schema.ItemPostal, map[int]string{4: a.StreetAddress, 7: a.City, 8: a.Region, 9: a.PostalCode, 10: a.Country})
	}
	for _, n := range c.Notes {
		d.add(schema.ItemNote, map[int]string{1: n.Contents})
	}
	for _, r := range c.Relationships {
		d.add(schema.ItemRelation, map[int]string{1: r.Name})
	}
	for _, im := range c.InstantMessagingAccounts {
		d.add(schema.ItemIm, map[int]string{1: im.Account, 5: im.Service})
	}
	for _, w := range c.Websites {
		d.add(schema.ItemWebsite, map[int]string{1: w.Address})
	}
	for _, o := range c.Organizations {
		d.add(schema.ItemOrganization, map[int]string{1: o.Name, 4: o.ContactTitle})
	}

	const insertData = `INSERT INTO data
		(raw_contact_id, contact_id, mimetype, data1, data2, data3, data4, data5, data6, data7, data8, data9, data10)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, row := range d.rows {
		args := []any{rawID, contactID, row.mimetype}
		for col := 1; col <= 10; col++ {
			args = append(args, nullable(row.cols[col]))
		}
		if _, err := tx.ExecContext(ctx, insertData, args...); err != nil {
			return fmt.Errorf("insert %s row: %w", row.mimetype, err)
		}
	}
	return nil
}

// nullable stores empty strings as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
