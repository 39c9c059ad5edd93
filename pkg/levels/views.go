package levels

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/reqgraph/pkg/graph"
)

// View selects how a classification is turned into a filtered graph.
type View int

const (
	// ViewDepth keeps every node within the level cap.
	ViewDepth View = iota
	// ViewUnique keeps roots and nodes unique to a single root.
	ViewUnique
	// ViewClusters collapses each root's shared dependencies per level into
	// one cluster node.
	ViewClusters
	// ViewShared keeps shared dependencies as real nodes linked from every
	// owning root.
	ViewShared
)

var viewNames = map[View]string{
	ViewDepth:    "depth",
	ViewUnique:   "unique",
	ViewClusters: "clusters",
	ViewShared:   "shared",
}

// String returns the view's command-line name.
func (v View) String() string {
	if s, ok := viewNames[v]; ok {
		return s
	}
	return fmt.Sprintf("View(%d)", int(v))
}

// ViewNames returns the accepted view names in declaration order.
func ViewNames() []string {
	return []string{"depth", "unique", "clusters", "shared"}
}

// ParseView converts a name ("depth", "unique", "clusters", "shared") to a
// View. Matching is case-insensitive.
func ParseView(s string) (View, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for v, n := range viewNames {
		if n == name {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown view %q (available: %s)", s, strings.Join(ViewNames(), ", "))
}

// Result is a filtered view of a dependency graph, ready for rendering.
//
// Which ownership artifact is populated depends on the view: Owners for
// ViewUnique, Shared for ViewShared, Clusters for ViewClusters.
type Result struct {
	View     View
	MaxLevel int
	Roots    []string

	Graph  *graph.Graph
	Levels LevelMap

	// Owners maps each node to its sole owning root ("" when none).
	Owners map[string]string
	// Shared marks nodes owned by more than one root.
	Shared map[string]bool
	// Clusters maps cluster node IDs to their sorted members.
	Clusters map[string][]string
}

// Build classifies g and produces the requested view. Ownership is
// recomputed on every call.
func Build(view View, g *graph.Graph, roots []string, maxLevel int) *Result {
	c := Classify(g, roots, maxLevel)
	switch view {
	case ViewUnique:
		return c.UniqueOnly()
	case ViewClusters:
		return c.SharedClusters()
	case ViewShared:
		return c.SharedNodes()
	default:
		return c.DepthOnly()
	}
}

// DepthOnly classifies g and returns the depth-only view.
func DepthOnly(g *graph.Graph, roots []string, maxLevel int) *Result {
	return Classify(g, roots, maxLevel).DepthOnly()
}

// UniqueOnly classifies g and returns the unique-colored view.
func UniqueOnly(g *graph.Graph, roots []string, maxLevel int) *Result {
	return Classify(g, roots, maxLevel).UniqueOnly()
}

// SharedClusters classifies g and returns the shared-clustered view.
func SharedClusters(g *graph.Graph, roots []string, maxLevel int) *Result {
	return Classify(g, roots, maxLevel).SharedClusters()
}

// SharedNodes classifies g and returns the shared-as-nodes view.
func SharedNodes(g *graph.Graph, roots []string, maxLevel int) *Result {
	return Classify(g, roots, maxLevel).SharedNodes()
}

// DepthOnly returns the subgraph induced by every node within the level
// cap. With a cap of 1 the result holds the roots alone, without edges,
// even when one root depends on another.
func (c *Classification) DepthOnly() *Result {
	r := c.newResult(ViewDepth)
	if c.graph == nil {
		return r
	}
	if c.MaxLevel == 1 {
		for _, root := range c.Roots {
			r.addNode(c.graph, root, 1)
		}
		return r
	}
	r.Graph = c.induced(c.Reached())
	return r
}

// UniqueOnly keeps every root and every node owned by exactly one root,
// dropping nodes shared between roots. Edges are those of the source graph
// between kept nodes.
func (c *Classification) UniqueOnly() *Result {
	r := c.newResult(ViewUnique)
	if c.graph == nil {
		return r
	}
	var keep []string
	for _, id := range c.Reached() {
		if c.Levels[id] == 1 || len(c.Owners[id]) == 1 {
			keep = append(keep, id)
		}
	}
	r.Graph = c.induced(keep)
	r.Owners = make(map[string]string, len(keep))
	for _, id := range keep {
		r.Owners[id] = c.SoleOwner(id)
	}
	return r
}

// SharedClusters links each root to the nodes it owns alone at levels
// 2..MaxLevel, and replaces the nodes it shares with other roots at each
// level by a single cluster node.
func (c *Classification) SharedClusters() *Result {
	r := c.newResult(ViewClusters)
	r.Clusters = make(map[string][]string)
	if c.graph == nil {
		return r
	}
	for _, root := range c.Roots {
		r.addNode(c.graph, root, 1)
	}
	for _, root := range c.Roots {
		for lvl := 2; lvl <= c.MaxLevel; lvl++ {
			var shared []string
			for _, n := range c.NodesAt(root, lvl) {
				if c.IsShared(n) {
					shared = append(shared, n)
					continue
				}
				r.addNode(c.graph, n, lvl)
				_ = r.Graph.AddEdge(graph.Edge{From: root, To: n})
			}
			if len(shared) == 0 {
				continue
			}
			id := c.clusterID(r, root, lvl)
			err := r.Graph.AddNode(graph.Node{
				ID:      id,
				Label:   ClusterLabel(root, lvl),
				Kind:    graph.NodeKindCluster,
				Level:   lvl,
				Cluster: &graph.Cluster{Root: root, Level: lvl, Members: shared},
			})
			if err != nil {
				continue
			}
			_ = r.Graph.AddEdge(graph.Edge{From: root, To: id})
			r.Levels[id] = lvl
			r.Clusters[id] = shared
		}
	}
	return r
}

// SharedNodes links every root to each node it owns at levels 2..MaxLevel.
// A node shared by several roots gets an edge from each of them and is
// marked in Result.Shared.
func (c *Classification) SharedNodes() *Result {
	r := c.newResult(ViewShared)
	r.Shared = make(map[string]bool)
	if c.graph == nil {
		return r
	}
	for _, root := range c.Roots {
		r.addNode(c.graph, root, 1)
	}
	for _, root := range c.Roots {
		for lvl := 2; lvl <= c.MaxLevel; lvl++ {
			for _, n := range c.NodesAt(root, lvl) {
				r.addNode(c.graph, n, lvl)
				_ = r.Graph.AddEdge(graph.Edge{From: root, To: n})
				if c.IsShared(n) {
					r.Shared[n] = true
				}
			}
		}
	}
	return r
}

// ClusterID returns the node ID of the cluster grouping root's shared
// dependencies at level. SharedClusters appends a "~N" suffix when a
// package already carries that ID.
func ClusterID(root string, level int) string {
	return fmt.Sprintf("%s#shared-%d", root, level)
}

// clusterID returns ClusterID(root, level), suffixed with "~2", "~3", ...
// when a package node of the source graph or the view already uses it.
func (c *Classification) clusterID(r *Result, root string, level int) string {
	base := ClusterID(root, level)
	id := base
	for i := 2; c.graph.HasNode(id) || r.Graph.HasNode(id); i++ {
		id = fmt.Sprintf("%s~%d", base, i)
	}
	return id
}

// ClusterLabel returns the display label of a cluster node.
func ClusterLabel(root string, level int) string {
	return fmt.Sprintf("Shared for %s (level %d)", root, level)
}

func (c *Classification) newResult(view View) *Result {
	return &Result{
		View:     view,
		MaxLevel: c.MaxLevel,
		Roots:    slices.Clone(c.Roots),
		Graph:    graph.New(nil),
		Levels:   maps.Clone(c.Levels),
	}
}

// induced copies the subgraph on ids and stamps each node with its level.
func (c *Classification) induced(ids []string) *graph.Graph {
	sub := c.graph.Subgraph(ids)
	for _, n := range sub.Nodes() {
		n.Level = c.Levels[n.ID]
	}
	return sub
}

// addNode copies a source node into the result graph once, at level.
func (r *Result) addNode(src *graph.Graph, id string, level int) {
	if r.Graph.HasNode(id) {
		return
	}
	n := graph.Node{ID: id, Level: level}
	if orig, ok := src.Node(id); ok {
		n.Label = orig.Label
		n.Meta = maps.Clone(orig.Meta)
	}
	_ = r.Graph.AddNode(n)
}
