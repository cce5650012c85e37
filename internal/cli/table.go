package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/roach88/contactq/internal/model"
	"github.com/roach88/contactq/internal/schema"
)

// contactColumns are the contact fields shown in result tables.
var contactColumns = []string{"Id", "DisplayName", "FirstName", "LastName", "Nickname", "Starred", "Phones", "Emails"}

// TableFormatter renders query results as markdown tables.
type TableFormatter struct {
	Registry *schema.Registry
	// MaxWidth is the maximum width for a cell
	MaxWidth int
}

// NewTableFormatter creates a table formatter with default settings.
func NewTableFormatter(registry *schema.Registry) *TableFormatter {
	return &TableFormatter{Registry: registry, MaxWidth: 40}
}

// Columns returns the header for items of shape. Scalars get a single
// "value" column.
func (tf *TableFormatter) Columns(shape schema.Shape) []string {
	switch {
	case shape == schema.ShapeContact:
		return contactColumns
	case tf.Registry.IsSupported(shape):
		return tf.Registry.Fields(shape)
	default:
		return []string{"value"}
	}
}

// Render writes items as a table followed by a row count. Items are
// expected to share one element type, as query results do.
func (tf *TableFormatter) Render(w io.Writer, items []any) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "_No rows_")
		return err
	}

	shape := schema.ShapeUnknown
	if e, ok := items[0].(model.Entity); ok {
		shape = e.Shape()
	}
	columns := tf.Columns(shape)

	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(columns)

	for _, item := range items {
		if err := table.Append(tf.row(item, columns)); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n_%d rows_\n", len(items))
	return err
}

func (tf *TableFormatter) row(item any, columns []string) []string {
	e, ok := item.(model.Entity)
	if !ok {
		return []string{tf.cell(item)}
	}
	row := make([]string, len(columns))
	for i, col := range columns {
		v, _ := e.Field(col)
		row[i] = tf.cell(v)
	}
	return row
}

// cell formats one value. Collections list their elements' primary values.
func (tf *TableFormatter) cell(v any) string {
	var s string
	switch v := v.(type) {
	case nil:
		s = ""
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	case int:
		s = strconv.Itoa(v)
	case []any:
		parts := make([]string, 0, len(v))
		for _, el := range v {
			parts = append(parts, primaryValue(el))
		}
		s = strings.Join(parts, ", ")
	case model.Entity:
		s = primaryValue(v)
	default:
		s = fmt.Sprint(v)
	}
	return tf.truncate(s)
}

func (tf *TableFormatter) truncate(s string) string {
	r := []rune(s)
	if tf.MaxWidth <= 0 || len(r) <= tf.MaxWidth {
		return s
	}
	return string(r[:tf.MaxWidth-3]) + "..."
}

// primaryValue is the text that identifies an entity in a list.
func primaryValue(v any) string {
	switch e := v.(type) {
	case *model.Contact:
		return e.DisplayName
	case *model.Phone:
		return e.Number
	case *model.Email:
		return e.Address
	case *model.Address:
		return strings.Join(nonEmpty(e.StreetAddress, e.City, e.Country), ", ")
	case *model.Note:
		return e.Contents
	case *model.Relationship:
		return e.Name
	case *model.InstantMessagingAccount:
		return e.Account
	case *model.Website:
		return e.Address
	case *model.Organization:
		return e.Name
	default:
		return fmt.Sprint(v)
	}
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
