// Package store is the tuple store: save and retrieve referent-tracking
// tuples through one graph transaction at a time.
//
// # Transaction Model
//
//   - A Store holds at most one active graph.Tx
//   - Begin is idempotent: it returns the active transaction if one exists
//   - Every operation begins lazily through the same path
//   - Commit and Rollback end the transaction and release its session
//   - The store never commits implicitly
//
// # Failure Model
//
// A failed Save leaves the transaction active. Nodes written earlier in
// the same transaction are still visible to it, so callers roll back after
// any save error. Get on an unknown identifier returns a NOT_FOUND
// mapper.MappingError and a nil tuple.
//
// Backends are graph.Driver implementations: neo4jgraph for a Neo4j
// server, sqlgraph for an embedded SQLite file.
package store
