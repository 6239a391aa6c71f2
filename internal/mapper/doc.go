// Package mapper translates between tuples and the property graph.
//
// Encode turns one tuple into a single write statement: every referenced
// node is matched first, then the tuple node, its placeholders and its
// links are created, and shared leaves (relations, calendar values, code
// and data nodes) are merged. Decode reads a tuple back by resolving its
// variant from the node labels and following one optional match per link.
// BuildFilter turns a Filter into a read statement over tuple nodes.
//
// Graph layout:
//
//	(:V:tuple {rui, ...scalar components})      tuple of variant V
//	(:N {rui}), (:R {rui})                      referent placeholders
//	(:temp {rui})                               calendar temporal value
//	(:rel {uri})                                relation
//	(:code {code, digest})-[:ruics]->(system)   shared code leaf
//	(:data {data, digest})-[:ruidt]->(type)     shared data leaf
//
// Edges are named after the component they carry. List components fan out
// to one edge per element with the zero-based position stored on the edge
// under the component name.
//
// The mapper never opens, commits or rolls back a transaction.
package mapper
