// Package harness runs contact query scenarios as executable conformance
// tests.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: lee_family
//	description: "Filtering on a name detail is pushed down"
//	fixture: contacts.yaml        # relative to the scenario file
//	steps:
//	  - query: contacts.where(c => c.LastName == "Lee").orderBy(c => c.FirstName)
//	    expect:
//	      fallback: false
//	      ids: [lookup-ann, lookup-cal]
//	  - query: contacts.count(c => c.Starred == true)
//	    expect:
//	      result: 1
//	  - query: contacts.single(c => c.LastName == "Lee")
//	    expect:
//	      error: MULTIPLE_ELEMENTS
//	  - query: contacts.where(c => c.Id == "2")
//	    raw: true
//	    expect:
//	      count: 1
//
// # Expectations
//
//   - ids: the result is a contact, or a sequence of contacts, with these ids in order
//   - values: the result sequence equals these values in order
//   - result: the result is this scalar (count, any, projected value)
//   - count: the result sequence has this many elements
//   - error: execution fails with this error code
//   - fallback: whether the translator falls back to in-memory evaluation
//
// Every step is additionally checked for consistency: the result of the
// pushdown path must equal evaluating the whole query in memory over every
// contact.
//
// # Determinism
//
// Each scenario runs in a fresh in-memory SQLite database. Contacts without
// an id get sequential lookup keys, so traces are identical across runs and
// can be compared against golden files.
package harness
