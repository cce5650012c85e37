// Package store is the SQLite-backed reference contact provider.
//
// It plays the part of the native contact store behind the translator: it
// owns the tables, executes query descriptors against them, and rebuilds
// model entities from the rows that come back.
//
// # Tables
//
//   - contacts: aggregated identities, keyed externally by lookup
//   - raw_contacts: per-account entries, each pointing at one contact
//   - data: typed detail rows discriminated by mimetype, data1..data10
//   - phones, emails, postals: views over data for one mimetype each
//
// Collection identifiers (content URIs) map onto these tables in
// TableFor.
//
// # Deterministic Results
//
// Every query is ordered by its requested sort followed by _id ASC, so equal
// sort keys come back in insertion order. The in-memory evaluator relies on
// the same order for its stable sort.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
