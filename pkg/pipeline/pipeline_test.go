package pipeline

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/reqgraph/pkg/cache"
	"github.com/matzehuels/reqgraph/pkg/deps"
	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	"github.com/matzehuels/reqgraph/pkg/integrations"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"html", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !rgerrors.Is(err, rgerrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, rgerrors.GetCode(err))
		}
	}

	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestValidateForResolve(t *testing.T) {
	opts := Options{Roots: []string{" Flask ", "flask", "Zope.Interface", ""}, MaxDepth: -1}
	if err := opts.ValidateForResolve(); err != nil {
		t.Fatalf("ValidateForResolve() error = %v", err)
	}
	if !slices.Equal(opts.Roots, []string{"flask", "zope-interface"}) {
		t.Errorf("Roots = %v, want [flask zope-interface]", opts.Roots)
	}
	if opts.MaxDepth != deps.DefaultMaxDepth || opts.Workers != deps.DefaultWorkers || opts.Logger == nil {
		t.Errorf("defaults not applied: %+v", opts)
	}

	empty := Options{Roots: []string{" "}}
	if err := empty.ValidateForResolve(); !rgerrors.Is(err, rgerrors.ErrCodeEmptyRoots) {
		t.Errorf("empty roots error = %v", err)
	}
	bad := Options{Roots: []string{"not valid!"}}
	if err := bad.ValidateForResolve(); !rgerrors.Is(err, rgerrors.ErrCodeInvalidPackage) {
		t.Errorf("bad root error = %v", err)
	}
}

func TestValidateForClassify(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForClassify(); err != nil || opts.View != DefaultView {
		t.Errorf("ValidateForClassify() = %v, view %q", err, opts.View)
	}
	badView := Options{View: "graph"}
	if err := badView.ValidateForClassify(); !rgerrors.Is(err, rgerrors.ErrCodeInvalidView) {
		t.Errorf("bad view error = %v", err)
	}
	for _, n := range []int{-1, rgerrors.MaxLevels + 1} {
		o := Options{Levels: n}
		if err := o.ValidateForClassify(); !rgerrors.Is(err, rgerrors.ErrCodeInvalidInput) {
			t.Errorf("levels %d error = %v", n, err)
		}
	}
}

// registry serves pkga -> x, pkgb -> x, x -> y.
func registry(calls *atomic.Int32) *deps.Resolver {
	data := map[string][]string{
		"pkga": {"x"},
		"pkgb": {"x"},
		"x":    {"y"},
		"y":    nil,
	}
	return deps.NewResolver("test", deps.FetcherFunc(func(_ context.Context, name string, _ bool) (*deps.Package, error) {
		calls.Add(1)
		d, ok := data[name]
		if !ok {
			return nil, integrations.ErrNotFound
		}
		return &deps.Package{Name: name, Dependencies: d}, nil
	}))
}

func newTestRunner(t *testing.T, calls *atomic.Int32) *Runner {
	t.Helper()
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(registry(calls), mem, nil, log.New(io.Discard))
}

func TestExecute_SharedView(t *testing.T) {
	var calls atomic.Int32
	r := newTestRunner(t, &calls)
	opts := Options{
		Roots:    []string{"pkgA", "pkgB"},
		MaxDepth: 2,
		Levels:   2,
		View:     "shared",
		Formats:  []string{"dot", "json"},
	}

	res, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.CacheInfo.GraphHit {
		t.Error("first run reported a cache hit")
	}
	if res.Stats.NodeCount != 4 || res.Stats.EdgeCount != 3 {
		t.Errorf("Stats = %+v, want 4 nodes 3 edges", res.Stats)
	}
	if res.View == nil || !res.View.Shared["x"] {
		t.Fatalf("View = %+v, want x shared", res.View)
	}
	if res.View.Graph.HasNode("y") {
		t.Error("y is at level 3 and must not be in a 2-level view")
	}
	dot := string(res.Artifacts["dot"])
	if !strings.Contains(dot, `"pkgb" -> "x"`) {
		t.Errorf("dot artifact missing edge:\n%s", dot)
	}
	if js := string(res.Artifacts["json"]); !strings.Contains(js, `"view": "shared"`) || !strings.Contains(js, `"shared": [`) {
		t.Errorf("json artifact = %s", js)
	}
	if res.GraphHash == "" {
		t.Error("GraphHash is empty")
	}

	before := calls.Load()
	again, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !again.CacheInfo.GraphHit || calls.Load() != before {
		t.Errorf("second run: hit=%v, extra fetches=%d", again.CacheInfo.GraphHit, calls.Load()-before)
	}
	if again.GraphHash != res.GraphHash {
		t.Error("cached graph hashes differently")
	}

	opts.Refresh = true
	if fresh, _ := r.Execute(context.Background(), opts); fresh.CacheInfo.GraphHit || calls.Load() == before {
		t.Error("refresh did not bypass the graph cache")
	}
}

func TestExecute_Unclassified(t *testing.T) {
	var calls atomic.Int32
	r := newTestRunner(t, &calls)

	res, err := r.Execute(context.Background(), Options{Roots: []string{"pkga"}, Formats: []string{"json", "dot"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.View != nil {
		t.Errorf("View = %+v, want nil without levels", res.View)
	}
	if js := string(res.Artifacts["json"]); strings.Contains(js, `"view"`) {
		t.Errorf("raw graph json contains a view: %s", js)
	}
	if dot := string(res.Artifacts["dot"]); !strings.Contains(dot, "peripheries=2") {
		t.Errorf("root styling missing from raw graph:\n%s", dot)
	}
}

func TestExecute_InvalidOptions(t *testing.T) {
	var calls atomic.Int32
	r := newTestRunner(t, &calls)

	_, err := r.Execute(context.Background(), Options{Roots: []string{"pkga"}, Formats: []string{"gif"}})
	if !rgerrors.Is(err, rgerrors.ErrCodeInvalidFormat) {
		t.Errorf("Execute() error = %v, want %s", err, rgerrors.ErrCodeInvalidFormat)
	}
	if calls.Load() != 0 {
		t.Errorf("fetched %d packages for invalid options", calls.Load())
	}
}

func TestResolve_CancelledNotCached(t *testing.T) {
	var calls atomic.Int32
	r := newTestRunner(t, &calls)
	opts := Options{Roots: []string{"pkga"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx, opts); err == nil {
		t.Fatal("Resolve() with cancelled context returned nil error")
	}

	_, hit, err := r.ResolveWithCacheInfo(context.Background(), opts)
	if err != nil || hit {
		t.Errorf("after cancelled run: hit=%v err=%v, want fresh resolve", hit, err)
	}
}

func TestClassify_DefaultLevels(t *testing.T) {
	var calls atomic.Int32
	r := newTestRunner(t, &calls)
	opts := Options{Roots: []string{"pkga", "pkgb"}, MaxDepth: 2}
	g, err := r.Resolve(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	opts.View = "depth"
	res, err := r.Classify(context.Background(), g, opts)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if res.MaxLevel != 3 || !res.Graph.HasNode("y") {
		t.Errorf("MaxLevel = %d nodes = %v, want every resolved node", res.MaxLevel, res.Graph.NodeIDs())
	}
}

func TestOptions_Describe(t *testing.T) {
	o := Options{Roots: []string{"a", "b"}, MaxDepth: 2}
	if got := o.Describe(); got != "2 root(s), depth 2" {
		t.Errorf("Describe() = %q", got)
	}
	o.Levels, o.View = 3, "clusters"
	if got := o.Describe(); got != "2 root(s), depth 2, clusters view over 3 level(s)" {
		t.Errorf("Describe() = %q", got)
	}
}

func TestExecute_CountsCycles(t *testing.T) {
	data := map[string][]string{
		"a": {"b"},
		"b": {"a"},
	}
	resolver := deps.NewResolver("test", deps.FetcherFunc(func(_ context.Context, name string, _ bool) (*deps.Package, error) {
		return &deps.Package{Name: name, Dependencies: data[name]}, nil
	}))
	r := NewRunner(resolver, nil, nil, log.New(io.Discard))

	res, err := r.Execute(context.Background(), Options{Roots: []string{"a"}, MaxDepth: 2, Formats: []string{"dot"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Stats.Cycles != 1 {
		t.Errorf("Stats.Cycles = %d, want 1", res.Stats.Cycles)
	}
	if res.Stats.EdgeCount != 2 {
		t.Errorf("Stats.EdgeCount = %d, want 2", res.Stats.EdgeCount)
	}
}

func TestResolve_FailedLookupsNotCached(t *testing.T) {
	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	var offline atomic.Bool
	offline.Store(true)
	resolver := deps.NewResolver("test", deps.FetcherFunc(func(_ context.Context, name string, _ bool) (*deps.Package, error) {
		if name == "werkzeug" && offline.Load() {
			return nil, integrations.ErrNetwork
		}
		if name == "flask" {
			return &deps.Package{Name: name, Dependencies: []string{"werkzeug"}}, nil
		}
		return &deps.Package{Name: name, Dependencies: []string{"markupsafe"}}, nil
	}))
	r := NewRunner(resolver, mem, nil, log.New(io.Discard))
	opts := Options{Roots: []string{"flask"}, MaxDepth: 1}

	g, hit, err := r.ResolveWithCacheInfo(context.Background(), opts)
	if err != nil || hit {
		t.Fatalf("first run: hit=%v err=%v", hit, err)
	}
	if g.FailedLookups() != 1 || g.HasNode("markupsafe") {
		t.Fatalf("first run: failed=%d nodes=%v", g.FailedLookups(), g.NodeIDs())
	}

	offline.Store(false)
	g, hit, err = r.ResolveWithCacheInfo(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if hit || !g.HasEdge("werkzeug", "markupsafe") {
		t.Errorf("second run: hit=%v nodes=%v, want a fresh complete graph", hit, g.NodeIDs())
	}

	if _, hit, _ := r.ResolveWithCacheInfo(context.Background(), opts); !hit {
		t.Error("complete graph was not cached")
	}
}
