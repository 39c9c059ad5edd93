package levels

import (
	"slices"

	"github.com/matzehuels/reqgraph/pkg/graph"
)

// LevelMap maps a node to its minimal distance from any root. Roots are at
// level 1; nodes not reachable within the level cap are absent.
type LevelMap map[string]int

// Ownership maps a node to the roots that reach it at its minimal level,
// in root order. One owner means the node is unique to that root; more than
// one means it is shared.
type Ownership map[string][]string

// RootLevel keys the per-root per-level index.
type RootLevel struct {
	Root  string
	Level int
}

// Classification is the result of the bounded per-root traversal.
//
// A Classification is derived from a read-only graph and is itself
// immutable once returned; it is safe for concurrent reads.
type Classification struct {
	// Roots are the roots that were found in the graph, deduplicated, in
	// the caller's order.
	Roots []string
	// MaxLevel is the level cap used for the traversal.
	MaxLevel int
	// Levels holds each reachable node's minimal level.
	Levels LevelMap
	// Owners holds the roots that reach each node at its minimal level.
	Owners Ownership

	// byRootLevel lists, per (root, level), the sorted nodes owned by root
	// whose minimal level is level.
	byRootLevel map[RootLevel][]string
	graph       *graph.Graph
}

// Classify runs one breadth-first traversal per root over g, bounded by
// maxLevel, and records for every reached node its minimal level and the
// roots that reach it at that level.
//
// The traversal is repeated per root rather than run once from all roots:
// the per-root distances are what the views group nodes by.
//
// Classify never fails. An empty root list, a maxLevel below 1, or roots
// that are missing from g produce an empty classification (missing roots
// are skipped).
func Classify(g *graph.Graph, roots []string, maxLevel int) *Classification {
	c := &Classification{
		MaxLevel:    maxLevel,
		Levels:      make(LevelMap),
		Owners:      make(Ownership),
		byRootLevel: make(map[RootLevel][]string),
		graph:       g,
	}
	if g == nil || maxLevel < 1 {
		return c
	}
	c.Roots = presentRoots(g, roots)

	dists := make([]map[string]int, len(c.Roots))
	for i, root := range c.Roots {
		dists[i] = distances(g, root, maxLevel)
		for node, lvl := range dists[i] {
			if cur, ok := c.Levels[node]; !ok || lvl < cur {
				c.Levels[node] = lvl
			}
		}
	}

	for i, root := range c.Roots {
		for node, lvl := range dists[i] {
			if lvl != c.Levels[node] {
				continue
			}
			c.Owners[node] = append(c.Owners[node], root)
			key := RootLevel{Root: root, Level: lvl}
			c.byRootLevel[key] = append(c.byRootLevel[key], node)
		}
	}
	for key := range c.byRootLevel {
		slices.Sort(c.byRootLevel[key])
	}
	return c
}

// distances runs a BFS from root and returns each reached node's level,
// with the root at level 1 and no node beyond maxLevel.
func distances(g *graph.Graph, root string, maxLevel int) map[string]int {
	dist := map[string]int{root: 1}
	queue := []string{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		lvl := dist[node]
		if lvl >= maxLevel {
			continue
		}
		for _, child := range g.Children(node) {
			if _, seen := dist[child]; seen {
				continue
			}
			dist[child] = lvl + 1
			queue = append(queue, child)
		}
	}
	return dist
}

func presentRoots(g *graph.Graph, roots []string) []string {
	seen := make(map[string]bool, len(roots))
	var out []string
	for _, r := range roots {
		if seen[r] || !g.HasNode(r) {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}

// NodesAt returns the sorted nodes owned by root whose minimal level is
// level. The returned slice must not be modified.
func (c *Classification) NodesAt(root string, level int) []string {
	return c.byRootLevel[RootLevel{Root: root, Level: level}]
}

// IsShared reports whether more than one root reaches node at its minimal
// level.
func (c *Classification) IsShared(node string) bool { return len(c.Owners[node]) > 1 }

// IsRoot reports whether node is one of the classified roots.
func (c *Classification) IsRoot(node string) bool { return slices.Contains(c.Roots, node) }

// SoleOwner returns the single root owning node, or "" when the node is
// shared or unreached.
func (c *Classification) SoleOwner(node string) string {
	if owners := c.Owners[node]; len(owners) == 1 {
		return owners[0]
	}
	return ""
}

// SharedFor returns the sorted shared nodes that root owns at levels
// 2..MaxLevel.
func (c *Classification) SharedFor(root string) []string {
	var out []string
	for lvl := 2; lvl <= c.MaxLevel; lvl++ {
		for _, n := range c.NodesAt(root, lvl) {
			if c.IsShared(n) {
				out = append(out, n)
			}
		}
	}
	slices.Sort(out)
	return out
}

// Reached returns every classified node in the source graph's insertion
// order.
func (c *Classification) Reached() []string {
	if c.graph == nil {
		return nil
	}
	var out []string
	for _, id := range c.graph.NodeIDs() {
		if _, ok := c.Levels[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
