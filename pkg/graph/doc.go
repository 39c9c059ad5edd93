// Package graph provides the directed dependency graph shared by the
// resolver, the level classifier and the renderers.
//
// # Overview
//
// A [Graph] holds package nodes and "depends on" edges. Unlike a DAG it
// tolerates cycles: Python packages occasionally declare each other as
// dependencies, and the graph records what registries report. Code that
// walks the graph tracks visited nodes itself.
//
// # Basic Usage
//
//	g := graph.New(nil)
//	g.EnsureNode("requests")
//	g.EnsureNode("urllib3")
//	g.AddEdge(graph.Edge{From: "requests", To: "urllib3"})
//
// Parallel edges are never stored, and nodes and edges keep their insertion
// order, so the same sequence of calls always yields the same output.
//
// # Node Kinds
//
// Nodes are a tagged variant:
//
//   - [NodeKindPackage]: a real distribution package
//   - [NodeKindCluster]: a placeholder standing in for the dependencies a
//     root shares with other roots at one level; the [Cluster] payload holds
//     the root, the level and the member names
//
// Every node has an explicit Level field filled in by classification, so
// renderers never need to derive a level from a node's name.
//
// # Concurrency
//
// Graph is not safe for concurrent mutation. Build it from one goroutine;
// after that, concurrent readers are fine.
package graph
