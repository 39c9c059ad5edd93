package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	"github.com/matzehuels/reqgraph/pkg/graph"
	graphio "github.com/matzehuels/reqgraph/pkg/io"
	"github.com/matzehuels/reqgraph/pkg/levels"
	"github.com/matzehuels/reqgraph/pkg/pipeline"
)

// classifyOpts holds the command-line flags for the classify command.
type classifyOpts struct {
	roots  []string
	levels int
	view   string
	output string
}

// classifyCommand creates the classify command, which builds a level view
// from a raw graph exported with "graph -o graph.json".
func (c *CLI) classifyCommand() *cobra.Command {
	opts := classifyOpts{levels: 2, view: pipeline.DefaultView}

	cmd := &cobra.Command{
		Use:   "classify <graph.json>",
		Short: "Build a level view from an exported dependency graph",
		Long: `Classify every node of an exported raw graph by its level (distance from the
nearest root, roots are level 1) and by the roots that reach it first, then
write the chosen view as result JSON. The result can be drawn with "render".`,
		Example: `  reqgraph graph -o graph.json --depth 3
  reqgraph classify graph.json --roots fastapi,httpx --levels 3 --view clusters -o view.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runClassify(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.roots, "roots", "r", nil, "root packages (default: the roots the graph was resolved from)")
	cmd.Flags().IntVarP(&opts.levels, "levels", "n", opts.levels, "number of levels to classify")
	cmd.Flags().StringVar(&opts.view, "view", opts.view, "level view: "+strings.Join(levels.ViewNames(), ", "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<view>.json)")

	return cmd
}

// runClassify loads the raw graph, derives the view and writes it.
func (c *CLI) runClassify(ctx context.Context, input string, opts *classifyOpts) error {
	logger := loggerFromContext(ctx)

	g, err := graphio.ImportJSON(input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded graph: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	roots := opts.roots
	if len(roots) == 0 {
		roots = defaultRoots(g)
		logger.Debug("using recorded roots", "roots", roots)
	}

	if err := rgerrors.ValidateLevels(opts.levels); err != nil {
		return err
	}
	popts := pipeline.Options{Roots: roots, Levels: opts.levels, View: opts.view}
	if err := popts.ValidateForResolve(); err != nil {
		return err
	}

	prog := newProgress(logger, "classify")
	runner := pipeline.NewRunner(nil, nil, nil, logger)
	view, err := runner.Classify(ctx, g, popts)
	if err != nil {
		return err
	}
	prog.done("Built "+view.View.String()+" view", "levels", view.MaxLevel, "nodes", view.Graph.NodeCount())

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, ".json") + "." + view.View.String() + ".json"
	}
	if err := graphio.ExportResult(view, output); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	printSuccess("Built %s view over %d levels", view.View, view.MaxLevel)
	printFile(output)
	printDetail("%d nodes · %d edges · %d roots", view.Graph.NodeCount(), view.Graph.EdgeCount(), len(view.Roots))
	printNewline()
	printNextStep("Render", "reqgraph render "+output)
	return nil
}

// defaultRoots returns the roots recorded when g was resolved. Graphs
// without recorded roots fall back to their nodes without parents.
func defaultRoots(g *graph.Graph) []string {
	if roots := g.Roots(); len(roots) > 0 {
		return roots
	}
	var roots []string
	for _, n := range g.Sources() {
		roots = append(roots, n.ID)
	}
	return roots
}
