// Package translate folds a query pipeline into a single native Descriptor.
//
// The translator walks the operator chain innermost first. Each operator it
// can push down is folded into the descriptor and stripped from the tree;
// what remains is handed back as Descriptor.Remaining for in-memory
// evaluation. Anything the translator cannot express exactly sets
// Descriptor.Fallback rather than producing a query that returns different
// rows.
//
// Rules that keep pushdown exact:
//   - once a collection is fixed it never changes; a later operator on
//     another collection or discriminator forces fallback
//   - filters and orderings applied after skip or take force fallback
//   - take followed by skip, or repeated skip/take, forces fallback; skip
//     and take still record the last literal call, also once fallback is set
//   - Select of a scalar field ends pushdown; later operators stay in
//     Remaining
package translate
