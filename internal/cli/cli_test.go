package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqgraph/internal/config"
	"github.com/matzehuels/reqgraph/pkg/cache"
	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	graphio "github.com/matzehuels/reqgraph/pkg/io"
	"github.com/matzehuels/reqgraph/pkg/levels"
	"github.com/matzehuels/reqgraph/pkg/observability"
)

// registry maps package names to their requires_dist entries.
var registry = map[string][]string{
	"flask":      {"click>=8.1", "Jinja2>=3.1.2", "asgiref>=3.2; extra == 'async'"},
	"httpx":      {"click", "anyio"},
	"jinja2":     {"MarkupSafe>=2.0"},
	"click":      nil,
	"anyio":      nil,
	"markupsafe": nil,
	"asgiref":    nil,
}

func fakePyPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, ok := strings.CutSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/json")
		requires, known := registry[name]
		if !ok || !known {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"info": map[string]any{"name": name, "version": "1.0", "requires_dist": requires},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testEnv is a temp directory with a config file pointing at a fake index.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv := fakePyPI(t)
	dir := t.TempDir()
	cfg := fmt.Sprintf(`
[pypi]
base_url = %q

[cache]
backend = "memory"
dir = %q
`, srv.URL, filepath.Join(dir, "cache"))
	path := filepath.Join(dir, "reqgraph.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	prev := stdout
	stdout = io.Discard
	t.Cleanup(func() { stdout = prev })

	return &testEnv{dir: dir, config: path}
}

func (e *testEnv) path(name string) string { return filepath.Join(e.dir, name) }

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	p := e.path(name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// run executes the CLI with the test config and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGraphCommand_RawGraph(t *testing.T) {
	env := newTestEnv(t)
	req := env.write(t, "requirements.txt", "Flask>=3.0\n# tooling\nhttpx\n")
	out := env.path("graph.json")

	if _, err := env.run(t, "graph", "-f", req, "-o", out); err != nil {
		t.Fatalf("graph: %v", err)
	}

	g, err := graphio.ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"flask", "httpx", "click", "jinja2", "asgiref", "anyio", "markupsafe"} {
		if !g.HasNode(id) {
			t.Errorf("missing node %s; nodes = %v", id, g.NodeIDs())
		}
	}
	if !g.HasEdge("jinja2", "markupsafe") {
		t.Error("depth 1 should still record the edges of depth-1 packages")
	}
	if n, _ := g.Node("flask"); n.Meta["version"] != "1.0" {
		t.Errorf("flask meta = %v", n.Meta)
	}
}

func TestGraphCommand_DepthZero(t *testing.T) {
	env := newTestEnv(t)
	req := env.write(t, "requirements.txt", "flask\n")
	out := env.path("graph.json")

	if _, err := env.run(t, "graph", "-f", req, "-o", out, "--depth", "0"); err != nil {
		t.Fatalf("graph: %v", err)
	}
	g, err := graphio.ImportJSON(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.NodeIDs(); !slices.Equal(got, []string{"flask", "click", "jinja2", "asgiref"}) {
		t.Errorf("nodes = %v, want flask and its direct dependencies", got)
	}
	if g.OutDegree("jinja2") != 0 {
		t.Error("direct dependencies must stay childless at depth 0")
	}
}

func TestGraphCommand_SharedView(t *testing.T) {
	env := newTestEnv(t)
	req := env.write(t, "requirements.txt", "flask\nhttpx\n")
	out := env.path("view.json")

	if _, err := env.run(t, "graph", "-f", req, "-o", out, "--levels", "2", "--view", "shared", "--runtime-only"); err != nil {
		t.Fatalf("graph: %v", err)
	}

	res, err := graphio.ImportResult(out)
	if err != nil {
		t.Fatal(err)
	}
	if res.View != levels.ViewShared || res.MaxLevel != 2 {
		t.Errorf("view = %s over %d levels", res.View, res.MaxLevel)
	}
	if !res.Shared["click"] || len(res.Shared) != 1 {
		t.Errorf("Shared = %v, want {click}", res.Shared)
	}
	if res.Graph.HasNode("asgiref") {
		t.Error("--runtime-only should drop extras-gated requirements")
	}
	if !res.Graph.HasEdge("flask", "click") || !res.Graph.HasEdge("httpx", "click") {
		t.Errorf("edges = %v", res.Graph.Edges())
	}
}

func TestGraphCommand_Errors(t *testing.T) {
	env := newTestEnv(t)
	empty := env.write(t, "requirements.txt", "# nothing\n-r base.txt\n")
	good := env.write(t, "good.txt", "flask\n")

	tests := []struct {
		name string
		args []string
		want rgerrors.Code
	}{
		{"missing file", []string{"-f", env.path("nope.txt")}, rgerrors.ErrCodeFileNotFound},
		{"no packages", []string{"-f", empty}, rgerrors.ErrCodeEmptyRoots},
		{"bad output", []string{"-f", good, "-o", env.path("out.gif")}, rgerrors.ErrCodeInvalidFormat},
		{"bad view", []string{"-f", good, "--view", "radial"}, rgerrors.ErrCodeInvalidInput},
		{"bad depth", []string{"-f", good, "--depth", "-1"}, rgerrors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, append([]string{"graph"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := rgerrors.GetCode(err); got != tt.want {
				t.Errorf("code = %s, want %s (%v)", got, tt.want, err)
			}
		})
	}
}

func TestClassifyAndRender(t *testing.T) {
	env := newTestEnv(t)
	req := env.write(t, "requirements.txt", "flask\nhttpx\n")
	raw := env.path("graph.json")
	view := env.path("view.json")
	dot := env.path("view.dot")

	if _, err := env.run(t, "graph", "-f", req, "-o", raw, "--depth", "2"); err != nil {
		t.Fatalf("graph: %v", err)
	}
	if _, err := env.run(t, "classify", raw, "--roots", "Flask,httpx", "--levels", "3", "--view", "clusters", "-o", view); err != nil {
		t.Fatalf("classify: %v", err)
	}

	res, err := graphio.ImportResult(view)
	if err != nil {
		t.Fatal(err)
	}
	if res.View != levels.ViewClusters {
		t.Errorf("view = %s, want clusters", res.View)
	}
	if got := res.Clusters[levels.ClusterID("flask", 2)]; !slices.Equal(got, []string{"click"}) {
		t.Errorf("flask level-2 cluster = %v, want [click]", got)
	}
	if !res.Graph.HasEdge("flask", "jinja2") {
		t.Errorf("edges = %v, want flask->jinja2", res.Graph.Edges())
	}

	if _, err := env.run(t, "render", view, "-o", dot); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(dot)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") || !strings.Contains(string(data), "shape=note") {
		t.Errorf("unexpected DOT output:\n%s", data)
	}
}

func TestClassifyCommand_DefaultRootsAndErrors(t *testing.T) {
	env := newTestEnv(t)
	req := env.write(t, "requirements.txt", "flask\n")
	raw := env.path("graph.json")
	if _, err := env.run(t, "graph", "-f", req, "-o", raw); err != nil {
		t.Fatalf("graph: %v", err)
	}

	if _, err := env.run(t, "classify", raw, "--levels", "2", "--view", "depth"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	res, err := graphio.ImportResult(env.path("graph.depth.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Roots, []string{"flask"}) {
		t.Errorf("Roots = %v, want recorded roots [flask]", res.Roots)
	}

	if _, err := env.run(t, "classify", raw, "--levels", "0"); rgerrors.GetCode(err) != rgerrors.ErrCodeInvalidInput {
		t.Errorf("levels 0: err = %v", err)
	}
	if _, err := env.run(t, "classify", raw, "--view", "radial"); rgerrors.GetCode(err) != rgerrors.ErrCodeInvalidView {
		t.Errorf("bad view: err = %v", err)
	}
}

func TestClassifyCommand_RootDependedOnByRoot(t *testing.T) {
	env := newTestEnv(t)
	req := env.write(t, "requirements.txt", "flask\nclick\n")
	raw := env.path("graph.json")
	if _, err := env.run(t, "graph", "-f", req, "-o", raw); err != nil {
		t.Fatalf("graph: %v", err)
	}

	if _, err := env.run(t, "classify", raw, "--view", "shared"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	res, err := graphio.ImportResult(env.path("graph.shared.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Roots, []string{"flask", "click"}) {
		t.Errorf("Roots = %v, want [flask click]", res.Roots)
	}
	if res.Levels["click"] != 1 {
		t.Errorf("click level = %d, want 1", res.Levels["click"])
	}
}

func TestApplyGraphFlags_OnlyChanged(t *testing.T) {
	c := New(io.Discard, LogInfo)
	cmd := c.graphCommand()
	if err := cmd.ParseFlags([]string{"--levels", "3", "--runtime-only"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Depth = 4
	cfg.View = "unique"
	applyGraphFlags(cmd, cfg, flagsOf(t, cmd))

	if cfg.Depth != 4 || cfg.View != "unique" {
		t.Errorf("unset flags overrode config: depth=%d view=%s", cfg.Depth, cfg.View)
	}
	if cfg.Levels != 3 || !cfg.PyPI.RuntimeOnly {
		t.Errorf("set flags not applied: levels=%d runtime-only=%v", cfg.Levels, cfg.PyPI.RuntimeOnly)
	}
}

// flagsOf reads the parsed graph flags back from cmd.
func flagsOf(t *testing.T, cmd *cobra.Command) *graphFlags {
	t.Helper()
	f := cmd.Flags()
	var g graphFlags
	g.levels, _ = f.GetInt("levels")
	g.runtimeOnly, _ = f.GetBool("runtime-only")
	g.depth, _ = f.GetInt("depth")
	g.view, _ = f.GetString("view")
	return &g
}

func TestGraphOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Output = "deps.PNG"
	cfg.PDF = "deps.pdf"
	cfg.Levels = 2

	opts, err := graphOptions(cfg, []string{"flask"}, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(opts.Formats, []string{"png", "pdf"}) {
		t.Errorf("Formats = %v, want [png pdf]", opts.Formats)
	}
	if !opts.Refresh || opts.Levels != 2 || opts.View != "shared" || opts.MaxDepth != 1 {
		t.Errorf("opts = %+v", opts)
	}

	cfg.Output = "deps.pdf"
	opts, _ = graphOptions(cfg, []string{"flask"}, false, false)
	if !slices.Equal(opts.Formats, []string{"pdf"}) {
		t.Errorf("Formats = %v, want [pdf]", opts.Formats)
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t)
	dir := env.path("cache")

	out, err := env.run(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", out, dir)
	}

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := fc.Set(ctx, "pypi:flask", []byte("{}"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := env.run(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := fc.Get(ctx, "pypi:flask"); ok {
		t.Error("entry survived cache clear")
	}
}

func TestCompletionCommand(t *testing.T) {
	env := newTestEnv(t)
	out, err := env.run(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "reqgraph") {
		t.Error("bash completion should mention the command name")
	}
	if _, err := env.run(t, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestNewServer(t *testing.T) {
	t.Cleanup(observability.Reset)
	cfg := config.Default()
	cfg.Cache.Backend = cache.BackendMemory

	c := New(io.Discard, LogInfo)
	srv, runner, err := c.newServer(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer runner.Close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /healthz = %d", rec.Code)
	}

	cfg.Cache.Backend = "etcd"
	if _, _, err := c.newServer(context.Background(), cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}
