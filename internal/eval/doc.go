// Package eval evaluates query pipelines over in-memory items.
//
// It completes whatever the native query could not: whole trees on fallback,
// residual predicates, and the operators left in Descriptor.Remaining.
// Comparison semantics follow the native store: null equals only null, an
// ordering comparison with null is false, and nulls sort first.
package eval
