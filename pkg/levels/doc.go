// Package levels classifies the nodes of a multi-root dependency graph by
// level and ownership, and derives filtered views from the classification.
//
// # Levels and Ownership
//
// Given a graph and an ordered list of roots (the packages named in a
// requirements file), [Classify] runs a bounded breadth-first traversal from
// each root. Every node reached within the level cap gets:
//
//   - a level: its shortest distance from any root, with roots at level 1
//   - owners: the roots that reach it at exactly that level
//
// A node with one owner is unique to that root; a node with several owners
// is shared. A node reached by A at level 2 and by B at level 3 belongs to A
// alone.
//
// # Views
//
// Four views turn a [Classification] into a filtered [graph.Graph]:
//
//   - [ViewDepth]: the subgraph induced by every node within the cap
//   - [ViewUnique]: roots plus nodes unique to one root, with a sole-owner map
//   - [ViewClusters]: each root linked to its unique nodes, with the nodes it
//     shares at each level collapsed into one cluster node
//   - [ViewShared]: each root linked to every node it owns; shared nodes are
//     linked from all their owners and flagged
//
// Use [Build] to pick a view by value, or call the view functions directly:
//
//	res := levels.SharedNodes(g, []string{"fastapi", "httpx"}, 3)
//	for id := range res.Shared {
//	    fmt.Println("shared:", id, "level", res.Levels[id])
//	}
//
// # Failure Semantics
//
// Nothing in this package returns an error. Empty root lists, caps below 1,
// and roots that are missing from the graph produce empty results.
//
// # Concurrency
//
// Classification is pure and deterministic for a given graph and root
// order. The graph is only read.
package levels
