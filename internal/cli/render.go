package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	graphio "github.com/matzehuels/reqgraph/pkg/io"
	"github.com/matzehuels/reqgraph/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string  // output file; format follows the extension
	detailed bool    // show level and metadata in node labels
	scale    float64 // PNG resolution multiplier
}

// renderCommand creates the render command for drawing exported graphs and
// view results.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{scale: pipeline.DefaultPNGScale}

	cmd := &cobra.Command{
		Use:   "render <result.json|graph.json>",
		Short: "Render an exported graph or level view",
		Long: `Render a raw graph (from "graph -o graph.json") or a level view result (from
"classify") as DOT, SVG, PNG or PDF. The format follows the --output extension.`,
		Example: `  reqgraph render view.json -o view.svg
  reqgraph render graph.json -o graph.png --scale 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.svg)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show level and metadata in node labels")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG resolution multiplier")

	return cmd
}

// runRender loads the input and renders it to the requested format.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".svg"
	}
	format, err := rgerrors.ValidateOutputPath(output)
	if err != nil {
		return err
	}

	res, err := graphio.ImportResult(input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded %s: %d nodes, %d edges", res.View, res.Graph.NodeCount(), res.Graph.EdgeCount())

	prog := newProgress(logger, "render")
	artifacts, err := pipeline.Render(ctx, res.Graph, res, pipeline.Options{
		Roots:    res.Roots,
		View:     res.View.String(),
		Formats:  []string{format},
		Detailed: opts.detailed,
		PNGScale: opts.scale,
	})
	if err != nil {
		return err
	}
	prog.done("Rendered "+input, "format", format)

	printSuccess("Rendered %s", input)
	return writeOutput(output, artifacts[format])
}
