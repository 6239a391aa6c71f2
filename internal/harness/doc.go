// Package harness runs tuple-store scenarios written in YAML.
//
// A scenario is a list of steps executed in order against a fresh
// in-memory graph. Each step performs one store operation and may state
// what it expects.
//
// # Scenario Format
//
//	name: get_by_author
//	description: "A DI tuple attributes an assignment to its author"
//	steps:
//	  - save:
//	      - type: AN
//	        rui: 00000000-0000-7000-8000-000000000001
//	        ruin: 00000000-0000-7000-8000-000000000002
//	  - commit: true
//	  - by_author: 00000000-0000-7000-8000-000000000002
//	    expect:
//	      ruis: [00000000-0000-7000-8000-000000000001]
//	  - get: 00000000-0000-7000-8000-000000000009
//	    expect:
//	      error: NOT_FOUND
//
// # Operations
//
//   - save: tuple documents, saved in order (see package tuplefile)
//   - commit, rollback: end the active transaction
//   - get: decode one tuple
//   - by_author, by_referent, by_type: store lookups
//   - ruis: every identifier in the graph
//   - query: a filter mapping, as accepted by mapper.FilterFromFields
//
// # Expectations
//
//   - error: the mapper error code the step must fail with
//   - ruis: the exact identifiers a lookup must return, in order
//   - tuple: the document the get step must decode to
//
// A step without expect must succeed.
//
// # Deterministic Traces
//
// Every step is recorded in the trace with a sequence number from
// testutil.DeterministicClock. The trace is serialized as canonical JSON
// for golden file comparison.
package harness
