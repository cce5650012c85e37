package addressbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/roach88/contactq/internal/eval"
	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/model"
	"github.com/roach88/contactq/internal/schema"
	"github.com/roach88/contactq/internal/store"
	"github.com/roach88/contactq/internal/translate"
)

var (
	// ErrInvalidID is returned by Load for an empty or blank id.
	ErrInvalidID = errors.New("invalid contact id")

	// ErrNotFound is returned by Load when no contact has the id.
	ErrNotFound = store.ErrNotFound
)

// Provider is the native contact store an AddressBook reads from.
type Provider interface {
	Query(ctx context.Context, q store.Query) ([]store.Row, error)
	Count(ctx context.Context, q store.Query) (int, error)
	Materialize(ctx context.Context, collection string, rows []store.Row, shape schema.Shape, mode schema.Mode) ([]any, error)
	LoadContact(ctx context.Context, mode schema.Mode, id string) (*model.Contact, error)
}

// Capabilities describes what an address book supports.
type Capabilities struct {
	Load      bool `json:"load"`
	Aggregate bool `json:"aggregate"`
	Single    bool `json:"single"`
	ReadOnly  bool `json:"readOnly"`
}

// AddressBook is a queryable view over a contact provider.
// Safe for concurrent use; the aggregation toggle applies to queries that
// start after it changes.
type AddressBook struct {
	provider    Provider
	registry    *schema.Registry
	translators [2]*translate.Translator // indexed by schema.Mode
	raw         atomic.Bool
	logger      *slog.Logger
}

// Option configures an AddressBook.
type Option func(*AddressBook)

// WithLogger sets the logger used for query tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(b *AddressBook) {
		b.logger = logger
	}
}

// WithPreferAggregation sets the initial aggregation mode.
func WithPreferAggregation(prefer bool) Option {
	return func(b *AddressBook) {
		b.raw.Store(!prefer)
	}
}

// New returns an AddressBook over provider. Aggregation is preferred unless
// configured otherwise.
func New(provider Provider, registry *schema.Registry, opts ...Option) *AddressBook {
	b := &AddressBook{
		provider: provider,
		registry: registry,
		translators: [2]*translate.Translator{
			schema.Aggregated: translate.New(registry, schema.Aggregated),
			schema.Raw:        translate.New(registry, schema.Raw),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetPreferAggregation switches between the aggregated and raw views.
func (b *AddressBook) SetPreferAggregation(prefer bool) {
	b.raw.Store(!prefer)
}

// PreferAggregation reports whether queries target the aggregated view.
func (b *AddressBook) PreferAggregation() bool {
	return !b.raw.Load()
}

// Mode returns the current aggregation mode.
func (b *AddressBook) Mode() schema.Mode {
	return schema.ModeFor(b.PreferAggregation())
}

// Capabilities reports what this address book supports.
func (b *AddressBook) Capabilities() Capabilities {
	return Capabilities{Load: true, Aggregate: true, Single: true, ReadOnly: true}
}

// Explain translates tree for the current mode without executing it.
func (b *AddressBook) Explain(tree expr.Expr) (*translate.Descriptor, error) {
	return b.translators[b.Mode()].Translate(tree)
}

// Load fetches one contact by id: the lookup key when aggregating, the
// contact id otherwise.
func (b *AddressBook) Load(ctx context.Context, id string) (*model.Contact, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}
	c, err := b.provider.LoadContact(ctx, b.Mode(), id)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", id, err)
	}
	return c, nil
}

// Query executes tree. Sequence results are []any of *model.Contact,
// sub-entities, or projected scalars; Count yields int, Any yields bool,
// First and Single yield one element or nil.
func (b *AddressBook) Query(ctx context.Context, tree expr.Expr) (any, error) {
	mode := b.Mode()
	d, err := b.translators[mode].Translate(tree)
	if err != nil {
		return nil, err
	}

	if d.Fallback {
		b.logger.Debug("query fallback",
			"mode", mode.String(),
			"reason", d.Reason,
		)
		return b.runFallback(ctx, mode, tree)
	}

	b.logger.Debug("query pushdown",
		"mode", mode.String(),
		"collection", d.Collection,
		"where", d.Where,
		"sort", d.Sort,
		"skip", d.Skip,
		"take", d.Take,
		"residual", len(d.Residual),
	)
	return b.runPushdown(ctx, mode, d)
}

func (b *AddressBook) runFallback(ctx context.Context, mode schema.Mode, tree expr.Expr) (any, error) {
	collection := b.registry.DefaultCollection(mode)
	rows, err := b.provider.Query(ctx, store.Query{Collection: collection, Limit: translate.Unset, Offset: translate.Unset})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	items, err := b.provider.Materialize(ctx, collection, rows, schema.ShapeContact, mode)
	if err != nil {
		return nil, err
	}
	return eval.Run(tree, items)
}

func (b *AddressBook) runPushdown(ctx context.Context, mode schema.Mode, d *translate.Descriptor) (any, error) {
	q := store.Query{
		Collection: d.Collection,
		Where:      d.Where,
		Params:     d.Params,
		OrderBy:    d.Sort,
		Limit:      translate.Unset,
		Offset:     translate.Unset,
	}

	// Rows map one to one onto results unless contacts are assembled from
	// detail rows, which may collapse.
	oneToOne := d.Result.Shape != schema.ShapeContact || d.Collection == b.registry.DefaultCollection(mode)
	nativePaging := len(d.Residual) == 0 && oneToOne
	if nativePaging {
		q.Limit, q.Offset = d.Take, d.Skip
	}

	if (d.IsCount || d.IsAny) && nativePaging {
		n, err := b.provider.Count(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", d.Collection, err)
		}
		if d.IsAny {
			return n > 0, nil
		}
		return n, nil
	}

	rows, err := b.provider.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", d.Collection, err)
	}
	items, err := b.provider.Materialize(ctx, d.Collection, rows, d.Result.Shape, mode)
	if err != nil {
		return nil, err
	}

	for _, r := range d.Residual {
		if items, err = eval.Filter(items, r); err != nil {
			return nil, err
		}
	}
	if !nativePaging {
		items = page(items, d.Skip, d.Take)
	}

	switch {
	case d.IsCount:
		return len(items), nil
	case d.IsAny:
		return len(items) > 0, nil
	}

	if d.Projection != nil {
		if items, err = eval.Project(items, d.Projection.Field); err != nil {
			return nil, err
		}
	}
	return eval.Run(d.Remaining, items)
}

// page applies skip then take; Unset disables either.
func page(items []any, skip, take int) []any {
	if skip > 0 {
		items = items[min(skip, len(items)):]
	}
	if take >= 0 {
		items = items[:min(take, len(items))]
	}
	return items
}
