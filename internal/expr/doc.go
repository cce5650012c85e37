// Package expr defines the query expression tree consumed by the translator
// and the in-memory evaluator.
//
// A tree describes a query pipeline. Operator calls (Where, Select, OrderBy,
// Take, ...) form a chain where each Call's first argument is its input; the
// innermost input is a Source standing for the contact collection:
//
//	Take(OrderBy(Where(Source{Contact}, c => c.FirstName == "Ann"), c => c.LastName), 5)
//
// SEALED INTERFACE:
//
// Expr is sealed with a marker method so that only node types in this package
// implement it. Consumers switch exhaustively over the node types.
//
// IMMUTABILITY:
//
// Nodes are never modified after construction. Rewrites (the translator
// stripping operators it pushed down) build new nodes and share untouched
// subtrees.
package expr
