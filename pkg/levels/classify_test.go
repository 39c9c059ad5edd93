package levels

import (
	"maps"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/reqgraph/pkg/graph"
)

// build creates a graph from "from->to" pairs; isolated nodes can be given
// as a bare name.
func build(specs ...string) *graph.Graph {
	g := graph.New(nil)
	for _, s := range specs {
		from, to, ok := strings.Cut(s, "->")
		g.EnsureNode(from)
		if ok {
			g.EnsureNode(to)
			_ = g.AddEdge(graph.Edge{From: from, To: to})
		}
	}
	return g
}

func sharedExample() *graph.Graph {
	return build("pkgA->x", "pkgB->x", "x->y")
}

func TestClassify_Levels(t *testing.T) {
	c := Classify(sharedExample(), []string{"pkgA", "pkgB"}, 3)

	want := LevelMap{"pkgA": 1, "pkgB": 1, "x": 2, "y": 3}
	if !maps.Equal(c.Levels, want) {
		t.Errorf("Levels = %v, want %v", c.Levels, want)
	}
	if got := c.Owners["x"]; !slices.Equal(got, []string{"pkgA", "pkgB"}) {
		t.Errorf("Owners[x] = %v, want [pkgA pkgB]", got)
	}
	if got := c.Owners["pkgA"]; !slices.Equal(got, []string{"pkgA"}) {
		t.Errorf("Owners[pkgA] = %v, want [pkgA]", got)
	}
	if !c.IsShared("y") {
		t.Error("y should be shared: both roots reach it at level 3")
	}
}

func TestClassify_MinimalLevelWins(t *testing.T) {
	// A reaches z at level 2, B only at level 3.
	g := build("A->z", "B->m", "m->z")
	c := Classify(g, []string{"A", "B"}, 3)

	if c.Levels["z"] != 2 {
		t.Errorf("Levels[z] = %d, want 2", c.Levels["z"])
	}
	if got := c.Owners["z"]; !slices.Equal(got, []string{"A"}) {
		t.Errorf("Owners[z] = %v, want [A]", got)
	}
	if got := c.NodesAt("B", 3); len(got) != 0 {
		t.Errorf("NodesAt(B, 3) = %v, want empty", got)
	}
	if got := c.NodesAt("A", 2); !slices.Equal(got, []string{"z"}) {
		t.Errorf("NodesAt(A, 2) = %v, want [z]", got)
	}
}

func TestClassify_RootReachableFromOtherRoot(t *testing.T) {
	g := build("A->B", "B->c")
	c := Classify(g, []string{"A", "B"}, 3)

	if c.Levels["B"] != 1 {
		t.Errorf("Levels[B] = %d, want 1", c.Levels["B"])
	}
	if got := c.Owners["B"]; !slices.Equal(got, []string{"B"}) {
		t.Errorf("Owners[B] = %v, want [B]", got)
	}
	if got := c.Owners["c"]; !slices.Equal(got, []string{"B"}) {
		t.Errorf("Owners[c] = %v, want [B]", got)
	}
}

func TestClassify_CycleSafety(t *testing.T) {
	g := build("A->B", "B->A")
	c := Classify(g, []string{"A"}, 10)

	if c.Levels["A"] != 1 || c.Levels["B"] != 2 {
		t.Errorf("Levels = %v, want A:1 B:2", c.Levels)
	}
	if len(c.Levels) != 2 {
		t.Errorf("len(Levels) = %d, want 2", len(c.Levels))
	}

	res := c.DepthOnly()
	count := 0
	for _, id := range res.Graph.NodeIDs() {
		if id == "A" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("A appears %d times, want 1", count)
	}
}

func TestClassify_MalformedInput(t *testing.T) {
	g := sharedExample()
	tests := []struct {
		name     string
		roots    []string
		maxLevel int
	}{
		{"no roots", nil, 2},
		{"unknown roots", []string{"nope"}, 2},
		{"zero level", []string{"pkgA"}, 0},
		{"negative level", []string{"pkgA"}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(g, tt.roots, tt.maxLevel)
			if len(c.Levels) != 0 || len(c.Owners) != 0 {
				t.Errorf("expected empty classification, got %v %v", c.Levels, c.Owners)
			}
			for _, v := range []View{ViewDepth, ViewUnique, ViewClusters, ViewShared} {
				if n := Build(v, g, tt.roots, tt.maxLevel).Graph.NodeCount(); n != 0 {
					t.Errorf("%s view has %d nodes, want 0", v, n)
				}
			}
		})
	}

	if c := Classify(nil, []string{"a"}, 2); c.DepthOnly().Graph.NodeCount() != 0 {
		t.Error("nil graph should yield an empty view")
	}
}

func TestClassify_SkipsMissingAndDuplicateRoots(t *testing.T) {
	c := Classify(sharedExample(), []string{"pkgB", "ghost", "pkgB", "pkgA"}, 2)
	if !slices.Equal(c.Roots, []string{"pkgB", "pkgA"}) {
		t.Errorf("Roots = %v, want [pkgB pkgA]", c.Roots)
	}
	if got := c.Owners["x"]; !slices.Equal(got, []string{"pkgB", "pkgA"}) {
		t.Errorf("Owners[x] = %v, want root order [pkgB pkgA]", got)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	g := build("a->c", "b->c", "c->d", "a->e", "e->d", "b->f")
	roots := []string{"a", "b"}

	first := Classify(g, roots, 4)
	second := Classify(g, roots, 4)

	if !maps.Equal(first.Levels, second.Levels) {
		t.Errorf("Levels differ: %v vs %v", first.Levels, second.Levels)
	}
	if !maps.EqualFunc(first.Owners, second.Owners, slices.Equal[[]string]) {
		t.Errorf("Owners differ: %v vs %v", first.Owners, second.Owners)
	}
}

func TestClassify_SharedFor(t *testing.T) {
	g := build("a->s1", "b->s1", "a->u", "u->s2", "b->v", "v->s2")
	c := Classify(g, []string{"a", "b"}, 3)

	if got := c.SharedFor("a"); !slices.Equal(got, []string{"s1", "s2"}) {
		t.Errorf("SharedFor(a) = %v, want [s1 s2]", got)
	}
	if c.SoleOwner("u") != "a" || c.SoleOwner("s1") != "" {
		t.Errorf("SoleOwner(u)=%q SoleOwner(s1)=%q", c.SoleOwner("u"), c.SoleOwner("s1"))
	}
}
