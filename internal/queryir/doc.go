// Package queryir provides a graph-pattern query intermediate representation
// for rt2n4j.
//
// QueryIR is the boundary between the tuple mapper and the graph backends.
// The mapper builds statements; backends either compile them to Cypher text
// or execute them directly:
//
//	[mapper] → [Query IR] → [querycypher] → Neo4j
//	                      → [sqlgraph executor]
//
// FRAGMENT:
//
// The IR covers what the tuple mapping needs and no more:
//   - Node patterns (name, labels, properties) and paths of typed relationships
//   - Atomic operations: MATCH, OPTIONAL MATCH, MERGE, CREATE
//   - WHERE with Equals, NotNull and And
//   - MERGE ... ON CREATE SET for content-addressed nodes
//   - RETURN with DISTINCT and ORDER BY, and UNION of queries
//
// Data values are always Params. Labels, relationship types, property keys
// and variable names are schema vocabulary and are rendered into query text,
// so Validate restricts them to plain identifiers.
//
// SEALED INTERFACES:
//
// Statement, Clause, Pattern, Expr, Projectable and Predicate are sealed with
// marker methods, so backends can switch over them exhaustively:
//
//	switch c := clause.(type) {
//	case Atomic:
//	    // MATCH / OPTIONAL MATCH / MERGE / CREATE
//	case Return:
//	    // projection
//	}
package queryir
