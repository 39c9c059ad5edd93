package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/reqgraph/internal/config"
	"github.com/matzehuels/reqgraph/pkg/deps/python"
	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	"github.com/matzehuels/reqgraph/pkg/levels"
	"github.com/matzehuels/reqgraph/pkg/pipeline"
)

// graphFlags holds the command-line flags of the graph command. Only flags
// the user actually set override the loaded configuration.
type graphFlags struct {
	file         string
	output       string
	pdf          string
	depth        int
	maxNodes     int
	workers      int
	levels       int
	view         string
	shareVisited bool
	runtimeOnly  bool
	refresh      bool
	detailed     bool
	watch        bool
}

// graphCommand creates the graph command: parse roots, resolve, classify,
// render.
func (c *CLI) graphCommand() *cobra.Command {
	def := config.Default()
	var flags graphFlags

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Resolve a requirements file and render its dependency graph",
		Long: `Resolve the packages of a requirements file (or pyproject.toml) through PyPI
and render the dependency graph.

Without --levels the full resolved graph is drawn. With --levels N a level
view over the first N levels is drawn instead:

  depth     every node within N levels
  unique    roots and dependencies unique to one root
  clusters  shared dependencies collapsed per root and level
  shared    shared dependencies linked from every root that owns them

The output format follows the --output extension (.svg, .png, .pdf, .dot, .json).`,
		Example: `  reqgraph graph
  reqgraph graph -f requirements-dev.txt --depth 3 -o deps.png
  reqgraph graph --levels 3 --view clusters --pdf deps.pdf
  reqgraph graph --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			applyGraphFlags(cmd, cfg, &flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			if !flags.watch {
				_, err := c.runGraph(ctx, cfg, flags.refresh, flags.detailed)
				return err
			}
			if _, err := c.runGraph(ctx, cfg, flags.refresh, flags.detailed); err != nil {
				printError("%v", err)
			}
			printInfo("Watching %s for changes (Ctrl+C to stop)", StyleHighlight.Render(cfg.File))
			return watchFile(ctx, cfg.File, defaultDebounce, loggerFromContext(ctx), func() error {
				_, err := c.runGraph(ctx, cfg, false, flags.detailed)
				return err
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.file, "file", "f", def.File, "requirements file or pyproject.toml")
	f.StringVarP(&flags.output, "output", "o", def.Output, "output file (.svg, .png, .pdf, .dot or .json)")
	f.StringVar(&flags.pdf, "pdf", "", "also export a PDF to this path")
	f.IntVarP(&flags.depth, "depth", "d", def.Depth, "maximum resolution depth (roots are depth 0)")
	f.IntVar(&flags.maxNodes, "max-nodes", def.MaxNodes, "maximum packages to resolve")
	f.IntVar(&flags.workers, "workers", def.Workers, "concurrent PyPI lookups (1 = sequential)")
	f.IntVarP(&flags.levels, "levels", "n", 0, "build a level view over N levels (0 = draw the full graph)")
	f.StringVar(&flags.view, "view", def.View, "level view: "+strings.Join(levels.ViewNames(), ", "))
	f.BoolVar(&flags.shareVisited, "share-visited", false, "expand each package once across all roots")
	f.BoolVar(&flags.runtimeOnly, "runtime-only", false, "skip requirements gated on extras")
	f.BoolVar(&flags.refresh, "refresh", false, "bypass cached registry responses and graphs")
	f.BoolVar(&flags.detailed, "detailed", false, "show level and metadata in node labels")
	f.BoolVarP(&flags.watch, "watch", "w", false, "rebuild when the requirements file changes")

	return cmd
}

// applyGraphFlags copies explicitly set flags over cfg.
func applyGraphFlags(cmd *cobra.Command, cfg *config.Config, flags *graphFlags) {
	set := cmd.Flags().Changed
	if set("file") {
		cfg.File = flags.file
	}
	if set("output") {
		cfg.Output = flags.output
	}
	if set("pdf") {
		cfg.PDF = flags.pdf
	}
	if set("depth") {
		cfg.Depth = flags.depth
	}
	if set("max-nodes") {
		cfg.MaxNodes = flags.maxNodes
	}
	if set("workers") {
		cfg.Workers = flags.workers
	}
	if set("levels") {
		cfg.Levels = flags.levels
	}
	if set("view") {
		cfg.View = flags.view
	}
	if set("share-visited") {
		cfg.ShareVisited = flags.shareVisited
	}
	if set("runtime-only") {
		cfg.PyPI.RuntimeOnly = flags.runtimeOnly
	}
}

// readRoots parses the root packages of a requirements file, classifying
// failures for the command line.
func readRoots(path string) ([]string, error) {
	if err := rgerrors.ValidateManifestFilename(filepath.Base(path)); err != nil {
		return nil, err
	}
	roots, err := python.ParseRoots(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, rgerrors.Wrap(rgerrors.ErrCodeFileNotFound, err, "input file %s not found", path)
	case errors.Is(err, python.ErrNoPackages):
		return nil, rgerrors.Wrap(rgerrors.ErrCodeEmptyRoots, err, "no packages found in %s", path)
	case err != nil:
		return nil, rgerrors.Wrap(rgerrors.ErrCodeInvalidManifest, err, "read %s", path)
	}
	return roots, nil
}

// graphOptions builds pipeline options for a graph run.
func graphOptions(cfg *config.Config, roots []string, refresh, detailed bool) (pipeline.Options, error) {
	format, err := rgerrors.ValidateOutputPath(cfg.Output)
	if err != nil {
		return pipeline.Options{}, err
	}
	formats := []string{format}
	if cfg.PDF != "" && format != pipeline.FormatPDF {
		formats = append(formats, pipeline.FormatPDF)
	}
	return pipeline.Options{
		Roots:        roots,
		MaxDepth:     cfg.Depth,
		MaxNodes:     cfg.MaxNodes,
		Workers:      cfg.Workers,
		ShareVisited: cfg.ShareVisited,
		RuntimeOnly:  cfg.PyPI.RuntimeOnly,
		Refresh:      refresh,
		CacheTTL:     cfg.Cache.TTL,
		Levels:       cfg.Levels,
		View:         cfg.View,
		Formats:      formats,
		Detailed:     detailed,
	}, nil
}

// runGraph executes one graph run and writes its outputs.
func (c *CLI) runGraph(ctx context.Context, cfg *config.Config, refresh, detailed bool) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)

	roots, err := readRoots(cfg.File)
	if err != nil {
		return nil, err
	}
	logger.Infof("Found %d packages in %s", len(roots), cfg.File)

	opts, err := graphOptions(cfg, roots, refresh, detailed)
	if err != nil {
		return nil, err
	}
	opts.Logger = logger

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger, "resolve")
	spinner := newSpinnerWithContext(ctx, "Resolving dependencies...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("Built graph for "+opts.Describe(),
		"nodes", result.Stats.NodeCount,
		"cached", result.CacheInfo.GraphHit)

	printSuccess("Dependency graph generated")
	if err := writeArtifacts(cfg, opts.Formats, result.Artifacts); err != nil {
		return nil, err
	}

	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.GraphHit)
	if result.Stats.Cycles > 0 {
		printWarning("Dependency graph contains %d cycle(s)", result.Stats.Cycles)
	}
	if result.View != nil {
		printDetail("%s view: %d nodes within %d levels", result.View.View, result.View.Graph.NodeCount(), result.View.MaxLevel)
	}
	return result, nil
}

// writeArtifacts writes the primary output and, when requested, the extra
// PDF export.
func writeArtifacts(cfg *config.Config, formats []string, artifacts map[string][]byte) error {
	primary := formats[0]
	if err := writeOutput(cfg.Output, artifacts[primary]); err != nil {
		return err
	}
	if cfg.PDF != "" {
		if err := writeOutput(cfg.PDF, artifacts[pipeline.FormatPDF]); err != nil {
			return err
		}
	}
	return nil
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}
