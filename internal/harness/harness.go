package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/contactq/internal/addressbook"
	"github.com/roach88/contactq/internal/dsl"
	"github.com/roach88/contactq/internal/eval"
	"github.com/roach88/contactq/internal/expr"
	"github.com/roach88/contactq/internal/schema"
	"github.com/roach88/contactq/internal/store"
	"github.com/roach88/contactq/internal/testutil"
	"github.com/roach88/contactq/internal/translate"
)

// Harness is the scenario execution engine over one seeded store.
type Harness struct {
	book     *addressbook.AddressBook
	parser   *dsl.Parser
	registry *schema.Registry
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Contacts without an id get sequential lookup keys.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load and seed the fixture
// 3. Run each step through the pushdown path and through full in-memory evaluation
// 4. Check expectations and consistency
// 5. Return result with pass/fail, trace, and errors
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:", store.WithKeyGenerator(testutil.NewSequentialKeys(scenario.Name).Next))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	fixture, err := store.LoadFixture(scenario.Fixture)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}
	if _, err := st.Seed(ctx, fixture); err != nil {
		return nil, fmt.Errorf("failed to seed fixture: %w", err)
	}

	registry := schema.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in scenario runs
	h := &Harness{
		book:     addressbook.New(st, registry, addressbook.WithLogger(logger)),
		parser:   dsl.New(registry),
		registry: registry,
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i+1, step, result)
	}
	return result, nil
}

// executeStep runs one step and records its trace and any failed checks.
func (h *Harness) executeStep(ctx context.Context, seq int, step Step, result *Result) {
	h.book.SetPreferAggregation(!step.Raw)
	trace := StepTrace{Seq: seq, Query: step.Query, Mode: h.book.Mode().String()}
	fail := func(format string, args ...any) {
		result.AddError(fmt.Sprintf("step %d (%s): ", seq, step.Query) + fmt.Sprintf(format, args...))
	}

	tree, err := h.parser.Parse(step.Query)
	if err != nil {
		trace.Error = CodeParse
		result.AddTrace(trace)
		h.check(step.Expect, trace, nil, fail)
		return
	}

	d, err := h.book.Explain(tree)
	if err != nil {
		trace.Error = errorCode(err)
		result.AddTrace(trace)
		h.check(step.Expect, trace, nil, fail)
		return
	}
	view := d.View()
	trace.Descriptor = &view

	got, runErr := h.book.Query(ctx, tree)
	want, wantErr := h.evaluateAll(ctx, tree)

	if runErr != nil {
		trace.Error = errorCode(runErr)
	} else {
		trace.Result = normalize(h.registry, got)
	}
	result.AddTrace(trace)

	checkConsistent(trace, runErr, normalize(h.registry, want), wantErr, fail)
	h.check(step.Expect, trace, d, fail)
}

// evaluateAll runs tree in memory over every contact.
func (h *Harness) evaluateAll(ctx context.Context, tree expr.Expr) (any, error) {
	all, err := h.book.Query(ctx, expr.From(schema.ShapeContact).Expr())
	if err != nil {
		return nil, err
	}
	items, ok := all.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected contact list %T", all)
	}
	return eval.Run(tree, items)
}

// check evaluates step expectations against the trace.
func (h *Harness) check(e *Expect, trace StepTrace, d *translate.Descriptor, fail func(string, ...any)) {
	if e == nil {
		if trace.Error != "" {
			fail("unexpected error %s", trace.Error)
		}
		return
	}

	if e.Error != "" {
		if trace.Error != e.Error {
			fail("expected error %s, got %s", e.Error, orNone(trace.Error))
		}
		return
	}
	if trace.Error != "" {
		fail("unexpected error %s", trace.Error)
		return
	}

	if e.Fallback != nil && d != nil && d.Fallback != *e.Fallback {
		fail("expected fallback=%t, got %t (%s)", *e.Fallback, d.Fallback, d.Reason)
	}
	for _, err := range checkExpect(e, trace.Result) {
		fail("%v", err)
	}
}

// Codes for failures that carry no code of their own.
const (
	CodeParse   = "PARSE"
	CodeGeneric = "ERROR"
)

// errorCode is the code an execution error is reported under.
func errorCode(err error) string {
	var evalErr *eval.Error
	var unsupported *translate.UnsupportedError
	switch {
	case errors.As(err, &evalErr):
		return string(evalErr.Code)
	case errors.As(err, &unsupported):
		return string(unsupported.Code)
	default:
		return CodeGeneric
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
