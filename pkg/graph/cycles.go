package graph

// BackEdges returns the edges that close a cycle in a depth-first walk
// started from the sources (then from any node not yet reached), in
// insertion order. The graph is acyclic exactly when the result is empty.
// The graph is not modified.
func (g *Graph) BackEdges() []Edge {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.nodes))
	var back []Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				back = append(back, Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, id := range g.order {
		if color[id] == white {
			dfs(id)
		}
	}
	return back
}

// HasCycle reports whether the graph contains a directed cycle, including a
// self-loop.
func (g *Graph) HasCycle() bool { return len(g.BackEdges()) > 0 }
