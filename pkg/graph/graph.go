package graph

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrMissingCluster is returned by [Graph.Validate] when a cluster node
	// carries no [Cluster] payload.
	ErrMissingCluster = errors.New("cluster node without cluster data")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph.
// It is commonly used to store package metadata (version, summary, license).
// Metadata maps are never nil after a node is added.
type Metadata map[string]any

// NodeKind distinguishes real packages from synthetic placeholder nodes.
type NodeKind int

const (
	// NodeKindPackage is a real distribution package.
	NodeKindPackage NodeKind = iota
	// NodeKindCluster is a synthetic node standing in for the shared
	// dependencies one root reaches at one level. Cluster nodes carry a
	// [Cluster] payload and are never traversed.
	NodeKindCluster
)

// String returns the lowercase name of the kind.
func (k NodeKind) String() string {
	if k == NodeKindCluster {
		return "cluster"
	}
	return "package"
}

// Cluster describes the members of a cluster placeholder node.
type Cluster struct {
	Root    string   // Root whose shared dependencies this cluster groups
	Level   int      // Level of the grouped dependencies
	Members []string // Sorted member package names
}

// Node is a vertex in the dependency graph.
//
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID    string   // Unique identifier (normalized package name for packages)
	Label string   // Display label; the ID is used when empty
	Kind  NodeKind // Package or cluster placeholder
	Level int      // Level assigned by classification (1 = root, 0 = unclassified)
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddNode)

	// Cluster is set for NodeKindCluster nodes only.
	Cluster *Cluster
}

// IsCluster reports whether the node is a synthetic cluster placeholder.
func (n Node) IsCluster() bool { return n.Kind == NodeKindCluster }

// DisplayLabel returns Label if set, otherwise the node ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed "depends on" relation: From directly depends on To.
type Edge struct {
	From string
	To   string
}

// Graph is a directed dependency graph. Unlike a DAG it tolerates cycles;
// traversals built on top of it must track visited nodes themselves.
//
// Parallel edges are never stored: adding an existing edge is a no-op.
// Nodes and edges are kept in insertion order so every traversal and every
// serialization of the same graph is deterministic.
//
// The zero value is not usable - use New to create a Graph.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	edgeSet  map[Edge]struct{}
	outgoing map[string][]string
	incoming map[string][]string
	meta     Metadata
}

// New creates an empty Graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the node ID
// is empty, or ErrDuplicateNodeID if a node with the same ID already exists.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	node := &n
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// EnsureNode returns the package node with the given ID, adding it first if
// it is missing. Returns nil for an empty ID.
func (g *Graph) EnsureNode(id string) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	if err := g.AddNode(Node{ID: id}); err != nil {
		return nil
	}
	return g.nodes[id]
}

// AddEdge adds a directed edge between two existing nodes. Returns
// ErrUnknownSourceNode or ErrUnknownTargetNode when an endpoint is missing.
// Adding an edge that already exists does nothing and returns nil.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if _, dup := g.edgeSet[e]; dup {
		return nil
	}
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edgeSet[Edge{From: from, To: to}]
	return ok
}

// RemoveEdge removes the edge from→to if it exists.
func (g *Graph) RemoveEdge(from, to string) {
	e := Edge{From: from, To: to}
	if _, ok := g.edgeSet[e]; !ok {
		return
	}
	delete(g.edgeSet, e)
	g.edges = slices.DeleteFunc(g.edges, func(x Edge) bool { return x == e })
	g.outgoing[from] = slices.DeleteFunc(g.outgoing[from], func(s string) bool { return s == to })
	g.incoming[to] = slices.DeleteFunc(g.incoming[to], func(s string) bool { return s == from })
}

// Node returns the node with the given ID and true, or nil and false.
// The returned pointer refers to the node stored in the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// nodes stored in the graph.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs of the node's direct dependencies in insertion
// order. The returned slice must not be modified.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs of nodes that directly depend on this node.
// The returned slice must not be modified.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }

// OutDegree returns the number of outgoing edges from the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// InDegree returns the number of incoming edges to the node.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// Sources returns nodes with no incoming edges, in insertion order.
func (g *Graph) Sources() []*Node {
	var sources []*Node
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			sources = append(sources, g.nodes[id])
		}
	}
	return sources
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (g *Graph) Sinks() []*Node {
	var sinks []*Node
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			sinks = append(sinks, g.nodes[id])
		}
	}
	return sinks
}

// Merge copies every node and edge of other into g. Nodes already present
// in g keep their existing data.
func (g *Graph) Merge(other *Graph) {
	for _, n := range other.Nodes() {
		if !g.HasNode(n.ID) {
			_ = g.AddNode(n.copy())
		}
	}
	for _, e := range other.edges {
		_ = g.AddEdge(e)
	}
}

// Subgraph returns a new graph induced by the given node IDs: it contains
// those nodes (in g's insertion order) and every edge of g whose endpoints
// are both kept. IDs that are not in g are ignored.
func (g *Graph) Subgraph(ids []string) *Graph {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	sub := New(nil)
	for _, id := range g.order {
		if keep[id] {
			_ = sub.AddNode(g.nodes[id].copy())
		}
	}
	for _, e := range g.edges {
		if keep[e.From] && keep[e.To] {
			_ = sub.AddEdge(e)
		}
	}
	return sub
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New(cloneMeta(g.meta))
	c.Merge(g)
	return c
}

// Validate checks graph integrity: every edge must reference existing nodes
// and every cluster node must carry its cluster payload.
func (g *Graph) Validate() error {
	for _, e := range g.edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			return ErrInvalidEdgeEndpoint
		}
	}
	for _, n := range g.nodes {
		if n.IsCluster() && n.Cluster == nil {
			return ErrMissingCluster
		}
	}
	return nil
}

func (n *Node) copy() Node {
	c := *n
	c.Meta = cloneMeta(n.Meta)
	if n.Cluster != nil {
		cl := *n.Cluster
		cl.Members = slices.Clone(n.Cluster.Members)
		c.Cluster = &cl
	}
	return c
}

func cloneMeta(m Metadata) Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
