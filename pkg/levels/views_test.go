package levels

import (
	"slices"
	"testing"

	"github.com/matzehuels/reqgraph/pkg/graph"
)

func edgeSet(g *graph.Graph) map[graph.Edge]bool {
	out := make(map[graph.Edge]bool)
	for _, e := range g.Edges() {
		out[e] = true
	}
	return out
}

func TestDepthOnly_Example(t *testing.T) {
	res := DepthOnly(sharedExample(), []string{"pkgA", "pkgB"}, 2)

	if got := res.Graph.NodeIDs(); !slices.Equal(got, []string{"pkgA", "x", "pkgB"}) {
		t.Errorf("nodes = %v, want [pkgA x pkgB]", got)
	}
	want := map[graph.Edge]bool{{From: "pkgA", To: "x"}: true, {From: "pkgB", To: "x"}: true}
	if got := edgeSet(res.Graph); len(got) != len(want) || !got[graph.Edge{From: "pkgA", To: "x"}] || !got[graph.Edge{From: "pkgB", To: "x"}] {
		t.Errorf("edges = %v, want %v", res.Graph.Edges(), want)
	}
	if res.Graph.HasNode("y") {
		t.Error("y is at level 3 and must be excluded with N=2")
	}
}

func TestDepthOnly_LevelOneIsRootsOnly(t *testing.T) {
	// pkgA depends on pkgB, yet with N=1 no edges are kept.
	g := build("pkgA->x", "pkgB->x", "x->y", "pkgA->pkgB")
	res := DepthOnly(g, []string{"pkgA", "pkgB"}, 1)

	if got := res.Graph.NodeIDs(); !slices.Equal(got, []string{"pkgA", "pkgB"}) {
		t.Errorf("nodes = %v, want [pkgA pkgB]", got)
	}
	if res.Graph.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", res.Graph.EdgeCount())
	}
}

func TestDepthOnly_LevelsWithinCap(t *testing.T) {
	g := build("r1->a", "a->b", "b->c", "c->d", "r2->b", "d->r1")
	roots := []string{"r1", "r2"}
	for n := 1; n <= 5; n++ {
		res := DepthOnly(g, roots, n)
		for _, node := range res.Graph.Nodes() {
			if node.Level < 1 || node.Level > n {
				t.Errorf("N=%d: node %s has level %d", n, node.ID, node.Level)
			}
		}
		for _, r := range roots {
			if lvl := res.Levels[r]; lvl != 1 {
				t.Errorf("N=%d: root %s has level %d, want 1", n, r, lvl)
			}
		}
	}
}

func TestUniqueOnly(t *testing.T) {
	g := build("a->s", "b->s", "a->u", "u->s2", "b->v", "s->deep")
	res := UniqueOnly(g, []string{"a", "b"}, 3)

	for _, id := range []string{"a", "b", "u", "v"} {
		if !res.Graph.HasNode(id) {
			t.Errorf("missing unique node %s", id)
		}
	}
	for _, id := range []string{"s", "deep"} {
		if res.Graph.HasNode(id) {
			t.Errorf("shared node %s should be dropped", id)
		}
	}
	if res.Owners["u"] != "a" || res.Owners["v"] != "b" || res.Owners["a"] != "a" {
		t.Errorf("Owners = %v", res.Owners)
	}
	if !res.Graph.HasEdge("a", "u") || !res.Graph.HasEdge("u", "s2") {
		t.Errorf("edges = %v, want a->u and u->s2", res.Graph.Edges())
	}
}

func TestUniqueOnly_SubsetOfDepthOnly(t *testing.T) {
	g := build("a->c", "b->c", "c->d", "a->e", "e->d", "b->f", "f->g", "g->a")
	roots := []string{"a", "b"}
	for n := 1; n <= 4; n++ {
		c := Classify(g, roots, n)
		depth := c.DepthOnly()
		unique := c.UniqueOnly()
		for _, id := range unique.Graph.NodeIDs() {
			if !depth.Graph.HasNode(id) {
				t.Errorf("N=%d: %s in unique view but not in depth view", n, id)
			}
			if len(c.Owners[id]) > 1 {
				t.Errorf("N=%d: %s in unique view has owners %v", n, id, c.Owners[id])
			}
		}
	}
}

func TestSharedNodes_Example(t *testing.T) {
	res := SharedNodes(sharedExample(), []string{"pkgA", "pkgB"}, 2)

	if !res.Shared["x"] || len(res.Shared) != 1 {
		t.Errorf("Shared = %v, want {x}", res.Shared)
	}
	if !res.Graph.HasEdge("pkgA", "x") || !res.Graph.HasEdge("pkgB", "x") {
		t.Errorf("edges = %v, want pkgA->x and pkgB->x", res.Graph.Edges())
	}
	if n, _ := res.Graph.Node("x"); n.Level != 2 {
		t.Errorf("x level = %d, want 2", n.Level)
	}
}

func TestSharedNodes_IncomingEdgesMatchOwners(t *testing.T) {
	g := build("a->s", "b->s", "c->t", "a->t", "b->m", "m->t", "s->deep", "c->deep2", "deep2->deep")
	roots := []string{"a", "b", "c"}
	c := Classify(g, roots, 4)
	res := c.SharedNodes()

	for id := range res.Shared {
		parents := slices.Clone(res.Graph.Parents(id))
		slices.Sort(parents)
		owners := slices.Clone(c.Owners[id])
		slices.Sort(owners)
		if !slices.Equal(parents, owners) {
			t.Errorf("%s: parents %v, owners %v", id, parents, owners)
		}
	}
	if !res.Shared["t"] {
		t.Error("t should be shared by a and c")
	}
	if res.Graph.HasEdge("b", "t") {
		t.Error("b reaches t only at level 3 and must not link to it")
	}
}

func TestSharedClusters(t *testing.T) {
	g := build("a->s1", "b->s1", "a->s2", "b->s2", "a->u", "u->s3", "b->v", "v->s3")
	res := SharedClusters(g, []string{"a", "b"}, 3)

	id := ClusterID("a", 2)
	n, ok := res.Graph.Node(id)
	if !ok {
		t.Fatalf("missing cluster node %s; nodes = %v", id, res.Graph.NodeIDs())
	}
	if !n.IsCluster() || n.Level != 2 || n.Cluster.Root != "a" || n.Cluster.Level != 2 {
		t.Errorf("cluster node = %+v", n)
	}
	if !slices.Equal(n.Cluster.Members, []string{"s1", "s2"}) {
		t.Errorf("members = %v, want [s1 s2]", n.Cluster.Members)
	}
	if n.DisplayLabel() != "Shared for a (level 2)" {
		t.Errorf("label = %q", n.DisplayLabel())
	}
	if res.Levels[id] != 2 {
		t.Errorf("Levels[%s] = %d, want 2", id, res.Levels[id])
	}
	if !res.Graph.HasEdge("a", id) || !res.Graph.HasEdge("a", "u") {
		t.Errorf("edges = %v", res.Graph.Edges())
	}
	for _, shared := range []string{"s1", "s2", "s3"} {
		if res.Graph.HasNode(shared) {
			t.Errorf("shared node %s must only appear inside clusters", shared)
		}
	}
	if got := res.Clusters[ClusterID("b", 3)]; !slices.Equal(got, []string{"s3"}) {
		t.Errorf("Clusters[b level 3] = %v, want [s3]", got)
	}
}

// bfsLevels walks g from root, with the root at level 1, and stops at
// maxLevel.
func bfsLevels(g *graph.Graph, root string, maxLevel int) map[string]int {
	level := map[string]int{root: 1}
	frontier := []string{root}
	for lvl := 2; lvl <= maxLevel && len(frontier) > 0; lvl++ {
		var next []string
		for _, n := range frontier {
			for _, child := range g.Children(n) {
				if _, ok := level[child]; !ok {
					level[child] = lvl
					next = append(next, child)
				}
			}
		}
		frontier = next
	}
	return level
}

func TestSharedClusters_MemberCountMatchesSharedReach(t *testing.T) {
	g := build("a->s1", "b->s1", "c->s1", "a->x", "x->s2", "c->y", "y->s2", "b->s3", "c->s3", "s1->z", "a->w")
	roots := []string{"a", "b", "c"}
	const maxLevel = 4

	perRoot := make(map[string]map[string]int, len(roots))
	minLevel := make(map[string]int)
	for _, root := range roots {
		perRoot[root] = bfsLevels(g, root, maxLevel)
		for n, lvl := range perRoot[root] {
			if cur, ok := minLevel[n]; !ok || lvl < cur {
				minLevel[n] = lvl
			}
		}
	}
	wantCount := make(map[string]int)
	for n, lvl := range minLevel {
		var owners []string
		for _, root := range roots {
			if d, ok := perRoot[root][n]; ok && d == lvl {
				owners = append(owners, root)
			}
		}
		if lvl < 2 || len(owners) < 2 {
			continue
		}
		for _, root := range owners {
			wantCount[root]++
		}
	}
	// a: s1 s2 z, b: s1 s3 z, c: s1 s2 s3 z
	if wantCount["a"] != 3 || wantCount["b"] != 3 || wantCount["c"] != 4 {
		t.Fatalf("reference counts = %v, want a:3 b:3 c:4", wantCount)
	}

	res := SharedClusters(g, roots, maxLevel)
	for _, root := range roots {
		total := 0
		for _, n := range res.Graph.Nodes() {
			if n.IsCluster() && n.Cluster.Root == root {
				total += len(n.Cluster.Members)
			}
		}
		if total != wantCount[root] {
			t.Errorf("root %s: cluster members %d, shared reachable %d", root, total, wantCount[root])
		}
	}
}

func TestSharedClusters_IDCollidesWithPackage(t *testing.T) {
	// A package literally named like a's level-2 cluster.
	taken := ClusterID("a", 2)
	g := build("a->s", "b->s", "a->"+taken)
	res := SharedClusters(g, []string{"a", "b"}, 2)

	pkg, ok := res.Graph.Node(taken)
	if !ok || pkg.IsCluster() {
		t.Fatalf("package node %s = %+v, %v; want a plain package", taken, pkg, ok)
	}
	if _, ok := res.Clusters[taken]; ok {
		t.Errorf("Clusters has an entry for package %s", taken)
	}

	id := taken + "~2"
	n, ok := res.Graph.Node(id)
	if !ok || !n.IsCluster() {
		t.Fatalf("missing cluster node %s; nodes = %v", id, res.Graph.NodeIDs())
	}
	if got := res.Clusters[id]; !slices.Equal(got, []string{"s"}) {
		t.Errorf("Clusters[%s] = %v, want [s]", id, got)
	}
	if !res.Graph.HasEdge("a", id) || !res.Graph.HasEdge("a", taken) {
		t.Errorf("edges = %v", res.Graph.Edges())
	}
	if got := res.Clusters[ClusterID("b", 2)]; !slices.Equal(got, []string{"s"}) {
		t.Errorf("Clusters[b level 2] = %v, want [s]", got)
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		in      string
		want    View
		wantErr bool
	}{
		{"depth", ViewDepth, false},
		{"Unique", ViewUnique, false},
		{" clusters ", ViewClusters, false},
		{"shared", ViewShared, false},
		{"graph", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseView(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseView(%q) error = %v", tt.in, err)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseView(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if ViewShared.String() != "shared" || View(42).String() != "View(42)" {
		t.Error("unexpected View.String output")
	}
}

func TestBuild_PreservesMetadata(t *testing.T) {
	g := sharedExample()
	n, _ := g.Node("x")
	n.Meta["version"] = "1.0"

	for _, v := range []View{ViewDepth, ViewShared} {
		res := Build(v, g, []string{"pkgA", "pkgB"}, 2)
		got, _ := res.Graph.Node("x")
		if got.Meta["version"] != "1.0" {
			t.Errorf("%s view lost metadata: %v", v, got.Meta)
		}
	}
}
