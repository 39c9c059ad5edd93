package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/matzehuels/reqgraph/pkg/graph"
	"github.com/matzehuels/reqgraph/pkg/levels"
)

type graphDoc struct {
	Meta  graph.Metadata `json:"meta,omitempty"`
	Nodes []node         `json:"nodes"`
	Edges []edge         `json:"edges"`
}

type node struct {
	ID      string         `json:"id"`
	Label   string         `json:"label,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Level   int            `json:"level,omitempty"`
	Meta    graph.Metadata `json:"meta,omitempty"`
	Cluster *cluster       `json:"cluster,omitempty"`
}

type cluster struct {
	Root    string   `json:"root"`
	Level   int      `json:"level"`
	Members []string `json:"members"`
}

type edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// resultDoc is a graph document plus the view's classification.
type resultDoc struct {
	View     string   `json:"view,omitempty"`
	MaxLevel int      `json:"max_level,omitempty"`
	Roots    []string `json:"roots,omitempty"`
	graphDoc
	Levels   levels.LevelMap     `json:"levels,omitempty"`
	Owners   map[string]string   `json:"owners,omitempty"`
	Shared   []string            `json:"shared,omitempty"`
	Clusters map[string][]string `json:"clusters,omitempty"`
}

// WriteJSON encodes a graph as indented JSON and writes it to w.
// The output can be re-imported with [ReadJSON].
func WriteJSON(g *graph.Graph, w io.Writer) error {
	return encode(w, toDoc(g))
}

// ExportJSON writes a graph to a JSON file at path.
func ExportJSON(g *graph.Graph, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(g, w) })
}

// WriteResult encodes a view result: the filtered graph plus its view name,
// level cap, roots, level map and whichever ownership artifact the view
// produced. Shared node IDs are written sorted.
func WriteResult(res *levels.Result, w io.Writer) error {
	doc := resultDoc{
		View:     res.View.String(),
		MaxLevel: res.MaxLevel,
		Roots:    res.Roots,
		graphDoc: toDoc(res.Graph),
		Levels:   res.Levels,
		Owners:   res.Owners,
		Clusters: res.Clusters,
	}
	for id, ok := range res.Shared {
		if ok {
			doc.Shared = append(doc.Shared, id)
		}
	}
	slices.Sort(doc.Shared)
	return encode(w, doc)
}

// ExportResult writes a view result to a JSON file at path.
func ExportResult(res *levels.Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return WriteResult(res, w) })
}

func toDoc(g *graph.Graph) graphDoc {
	doc := graphDoc{
		Meta:  g.Meta(),
		Nodes: make([]node, 0, g.NodeCount()),
		Edges: make([]edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		nd := node{ID: n.ID, Label: n.Label, Level: n.Level}
		if len(n.Meta) > 0 {
			nd.Meta = n.Meta
		}
		if n.IsCluster() {
			nd.Kind = n.Kind.String()
			if n.Cluster != nil {
				nd.Cluster = &cluster{Root: n.Cluster.Root, Level: n.Cluster.Level, Members: n.Cluster.Members}
			}
		}
		doc.Nodes = append(doc.Nodes, nd)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, edge{From: e.From, To: e.To})
	}
	return doc
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
