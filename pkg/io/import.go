package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/reqgraph/pkg/graph"
	"github.com/matzehuels/reqgraph/pkg/levels"
)

// ReadJSON decodes a JSON graph from r.
//
// The input must be a JSON object with "nodes" and "edges" arrays:
//
//	{
//	  "nodes": [{"id": "a"}, {"id": "b"}],
//	  "edges": [{"from": "a", "to": "b"}]
//	}
//
// Each node must have an "id". Optional node fields are label, kind
// ("package" or "cluster"), level, meta and cluster ({root, level,
// members}). Edges must reference existing node IDs.
//
// Errors name the node or edge at fault and wrap the graph sentinel errors
// (e.g. [graph.ErrDuplicateNodeID]).
func ReadJSON(r io.Reader) (*graph.Graph, error) {
	var doc graphDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fromDoc(doc)
}

// ImportJSON reads a JSON graph file at path.
func ImportJSON(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// ReadResult decodes a view result written by [WriteResult].
//
// A plain graph document (no "view" field) is accepted too and returned as
// a depth view whose level map is taken from the node levels, so either
// kind of file can be rendered.
func ReadResult(r io.Reader) (*levels.Result, error) {
	var doc resultDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	g, err := fromDoc(doc.graphDoc)
	if err != nil {
		return nil, err
	}

	res := &levels.Result{
		MaxLevel: doc.MaxLevel,
		Roots:    doc.Roots,
		Graph:    g,
		Levels:   doc.Levels,
		Owners:   doc.Owners,
		Clusters: doc.Clusters,
	}
	if doc.View != "" {
		v, err := levels.ParseView(doc.View)
		if err != nil {
			return nil, err
		}
		res.View = v
	}
	if res.Levels == nil {
		res.Levels = make(levels.LevelMap)
		for _, n := range g.Nodes() {
			if n.Level > 0 {
				res.Levels[n.ID] = n.Level
			}
		}
	}
	if len(doc.Shared) > 0 {
		res.Shared = make(map[string]bool, len(doc.Shared))
		for _, id := range doc.Shared {
			res.Shared[id] = true
		}
	}
	return res, nil
}

// ImportResult reads a view result (or plain graph) file at path.
func ImportResult(path string) (*levels.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadResult(f)
}

func fromDoc(doc graphDoc) (*graph.Graph, error) {
	g := graph.New(doc.Meta)
	for _, n := range doc.Nodes {
		nd := graph.Node{ID: n.ID, Label: n.Label, Level: n.Level, Meta: n.Meta}
		switch n.Kind {
		case "", "package":
		case "cluster":
			nd.Kind = graph.NodeKindCluster
			if n.Cluster == nil {
				return nil, fmt.Errorf("node %s: %w", n.ID, graph.ErrMissingCluster)
			}
			nd.Cluster = &graph.Cluster{Root: n.Cluster.Root, Level: n.Cluster.Level, Members: n.Cluster.Members}
		default:
			return nil, fmt.Errorf("node %s: unknown kind %q", n.ID, n.Kind)
		}
		if err := g.AddNode(nd); err != nil {
			return nil, fmt.Errorf("node %s: %w", n.ID, err)
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(graph.Edge{From: e.From, To: e.To}); err != nil {
			return nil, fmt.Errorf("edge %s->%s: %w", e.From, e.To, err)
		}
	}
	return g, nil
}
