package translate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/schema"
)

// Unset marks an absent skip or take.
const Unset = -1

// Take sentinels recorded by First and Single.
const (
	TakeFirst  = 1
	TakeSingle = 2
)

// Descriptor is the flat native query a pipeline was folded into.
//
// When Fallback is set the descriptor is not usable for pushdown; the
// executor must fetch Collection unfiltered and evaluate Remaining (the
// original tree) in memory.
type Descriptor struct {
	Collection    string
	Discriminator string

	// Where uses "?" placeholders bound, in order, to Params.
	Where  string
	Params []string
	Sort   string

	Skip int
	Take int

	Projection *Projection
	Result     ResultType

	IsCount bool
	IsAny   bool

	Fallback bool
	Reason   string

	// Residual predicates did not compile and must filter the native rows in
	// memory, in order, before paging and the remaining pipeline.
	Residual []*expr.Lambda

	// Remaining is the pipeline left after pushed-down operators were
	// stripped. Its Source nodes stand for the rows the native query returns.
	Remaining expr.Expr
}

// Projection is a single-field selection. Extraction happens client-side;
// the native query still reads full rows.
type Projection struct {
	Shape   schema.Shape
	Field   string
	Mapping schema.ColumnMapping
}

// ResultType is the element type of the query result. Shape is the entity
// shape the native rows materialize to. Kind is KindInvalid for entity
// results and names the scalar kind otherwise.
type ResultType struct {
	Shape schema.Shape
	Kind  schema.Kind
}

// IsScalar reports whether the result is a scalar rather than an entity.
func (r ResultType) IsScalar() bool { return r.Kind != schema.KindInvalid }

func (r ResultType) String() string {
	if r.IsScalar() {
		return r.Kind.String()
	}
	return r.Shape.String()
}

// HasPaging reports whether skip or take is set.
func (d *Descriptor) HasPaging() bool {
	return d.Skip != Unset || d.Take != Unset
}

// String renders every field in a fixed order. The output is stable across
// runs and used for golden files and the CLI.
func (d *Descriptor) String() string {
	var b strings.Builder
	line := func(key, value string) {
		fmt.Fprintf(&b, "%-14s %s\n", key+":", value)
	}

	line("collection", d.Collection)
	line("discriminator", orDash(d.Discriminator))
	line("where", orDash(d.Where))
	line("params", formatParams(d.Params))
	line("sort", orDash(d.Sort))
	line("skip", strconv.Itoa(d.Skip))
	line("take", strconv.Itoa(d.Take))
	line("projection", d.projectionText())
	line("result", d.Result.String())
	line("count", strconv.FormatBool(d.IsCount))
	line("any", strconv.FormatBool(d.IsAny))
	line("fallback", strconv.FormatBool(d.Fallback))
	line("reason", orDash(d.Reason))
	if len(d.Residual) == 0 {
		line("residual", "-")
	}
	for _, r := range d.Residual {
		line("residual", expr.Format(r))
	}
	line("remaining", expr.Format(d.Remaining))
	return b.String()
}

func (d *Descriptor) projectionText() string {
	if d.Projection == nil {
		return "-"
	}
	p := d.Projection
	return fmt.Sprintf("%s.%s [%s]", p.Shape, p.Field, strings.Join(p.Mapping.Columns, ", "))
}

// View is the JSON form of a descriptor.
type View struct {
	Collection    string   `json:"collection"`
	Discriminator string   `json:"discriminator,omitempty"`
	Where         string   `json:"where,omitempty"`
	Params        []string `json:"params,omitempty"`
	Sort          string   `json:"sort,omitempty"`
	Skip          int      `json:"skip"`
	Take          int      `json:"take"`
	Projection    []string `json:"projection,omitempty"`
	Result        string   `json:"result"`
	IsCount       bool     `json:"isCount"`
	IsAny         bool     `json:"isAny"`
	Fallback      bool     `json:"fallback"`
	Reason        string   `json:"reason,omitempty"`
	Residual      []string `json:"residual,omitempty"`
	Remaining     string   `json:"remaining"`
}

// View returns the JSON form of d.
func (d *Descriptor) View() View {
	v := View{
		Collection:    d.Collection,
		Discriminator: d.Discriminator,
		Where:         d.Where,
		Params:        d.Params,
		Sort:          d.Sort,
		Skip:          d.Skip,
		Take:          d.Take,
		Result:        d.Result.String(),
		IsCount:       d.IsCount,
		IsAny:         d.IsAny,
		Fallback:      d.Fallback,
		Reason:        d.Reason,
		Remaining:     expr.Format(d.Remaining),
	}
	if d.Projection != nil {
		v.Projection = d.Projection.Mapping.Columns
	}
	for _, r := range d.Residual {
		v.Residual = append(v.Residual, expr.Format(r))
	}
	return v
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatParams(params []string) string {
	if len(params) == 0 {
		return "-"
	}
	quoted := make([]string, len(params))
	for i, p := range params {
		quoted[i] = strconv.Quote(p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
