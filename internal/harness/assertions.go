package harness

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/roach88/contactq/internal/model"
	"github.com/roach88/contactq/internal/schema"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // Expectation that failed: ids, values, result, count
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// normalize maps a query result onto plain values: contacts become their
// ids, other entities become maps of their non-null fields.
func normalize(r *schema.Registry, v any) any {
	switch v := v.(type) {
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = normalize(r, el)
		}
		return out
	case *model.Contact:
		return v.ID
	case model.Entity:
		m := make(map[string]any)
		for _, f := range r.Fields(v.Shape()) {
			if val, ok := v.Field(f); ok && val != nil {
				m[f] = val
			}
		}
		return m
	default:
		return v
	}
}

// checkExpect compares a normalized result with the expectation.
func checkExpect(e *Expect, got any) []error {
	var errs []error
	mismatch := func(typ string, want, got any) {
		errs = append(errs, &AssertionError{Type: typ, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)})
	}

	if e.IDs != nil {
		if ids, ok := contactIDs(got); !ok || !slices.Equal(ids, e.IDs) {
			mismatch("ids", e.IDs, got)
		}
	}
	if e.Values != nil && !valuesEqual(got, e.Values) {
		mismatch("values", e.Values, got)
	}
	if e.Result != nil && !valuesEqual(got, e.Result) {
		mismatch("result", e.Result, got)
	}
	if e.Count != nil {
		seq, ok := got.([]any)
		if !ok {
			mismatch("count", *e.Count, fmt.Sprintf("non-sequence %v", got))
		} else if len(seq) != *e.Count {
			mismatch("count", *e.Count, len(seq))
		}
	}
	return errs
}

// checkConsistent fails the step when the pushdown path and full in-memory
// evaluation disagree.
func checkConsistent(trace StepTrace, runErr error, want any, wantErr error, fail func(string, ...any)) {
	switch {
	case runErr != nil && wantErr != nil:
		if code := errorCode(wantErr); code != trace.Error {
			fail("pushdown failed with %s, in-memory with %s", trace.Error, code)
		}
	case runErr != nil:
		fail("pushdown failed with %s, in-memory returned %v", trace.Error, want)
	case wantErr != nil:
		fail("in-memory failed with %s, pushdown returned %v", errorCode(wantErr), trace.Result)
	case !valuesEqual(trace.Result, want):
		fail("pushdown returned %v, in-memory returned %v", trace.Result, want)
	}
}

// contactIDs reads a normalized contact result as a list of ids. A single
// contact reads as a one-element list.
func contactIDs(v any) ([]string, bool) {
	switch v := v.(type) {
	case string:
		return []string{v}, true
	case []any:
		ids := make([]string, len(v))
		for i, el := range v {
			s, ok := el.(string)
			if !ok {
				return nil, false
			}
			ids[i] = s
		}
		return ids, true
	default:
		return nil, false
	}
}

// valuesEqual compares two values for equality.
// Handles nested maps and slices.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return reflect.DeepEqual(actual, expected)
}
