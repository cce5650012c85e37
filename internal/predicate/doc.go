// Package predicate lowers boolean lambda bodies to native predicate strings
// with positional placeholders.
//
// Compilation is conservative. A sub-expression either compiles completely
// or fails, with one exception: a conjunction keeps whichever side compiles
// and hands the other side back as a residual for in-memory filtering.
// Disjunctions and comparisons are all-or-nothing.
//
// Values are never interpolated; every literal except null becomes a "?"
// placeholder and a text parameter.
package predicate
