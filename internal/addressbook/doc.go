// Package addressbook executes contact queries end to end.
//
// An AddressBook translates a query pipeline into a native descriptor and
// then takes one of two paths:
//
// Pushdown: the descriptor's query runs natively, rows are materialized,
// residual predicates filter them in memory, and whatever the translator
// left in Descriptor.Remaining is evaluated over the result. Skip, take and
// count run natively only when nothing has to happen in memory first.
//
// Fallback: the mode's default collection is fetched unfiltered and the
// original tree is evaluated in memory.
//
// Both paths return the same result for the same query, with one exception:
// ordering by a detail field runs against that field's data rows, so pushdown
// only returns contacts that have such a row.
package addressbook
