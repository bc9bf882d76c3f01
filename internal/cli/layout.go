package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gpuviz/pkg/graph"
	gvio "github.com/matzehuels/gpuviz/pkg/io"
	"github.com/matzehuels/gpuviz/pkg/pipeline"
)

// layoutCommand creates the layout command for computing diagrams.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags runFlags
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [hierarchy.json|hierarchy.toml]",
		Short: "Compute the diagram for a GPU allocation hierarchy",
		Long: `Compute the diagram for a GPU allocation hierarchy.

The layout command reads a hierarchy file and writes the positioned nodes and
edges as JSON (same format as 'render -f json'). Organizations and business
units listed with --collapse are replaced by aggregate group nodes; collapse
flags stored in the file apply as well.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.diagram.json)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when the hierarchy produces diagnostics")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().StringSliceVarP(&flags.collapse, "collapse", "c", nil, "organization or business unit ids to collapse")
	addGeometryFlags(cmd, &opts)

	return cmd
}

// runLayout loads the hierarchy, computes the diagram, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, flags runFlags) error {
	cluster, err := gvio.ImportFile(input)
	if err != nil {
		return fmt.Errorf("load hierarchy %s: %w", input, err)
	}
	opts.Collapsed = mergeCollapse(cluster, flags.collapse)
	opts.Logger = c.Logger

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	d, cacheHit, err := runner.DiagramWithCacheInfo(ctx, cluster, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if flags.strict {
		if err := d.Diagnostics.Err(); err != nil {
			return err
		}
	}

	path := outputPath(input, flags.output, ".diagram.json")
	if err := graph.WriteDiagramFile(d, path); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}

	printSuccess("Layout complete")
	printFile(path)
	printStats(len(d.Nodes), len(d.Edges), cacheHit)
	printDiagnostics(d.Diagnostics)
	printNewline()
	printNextStep("Render", appName+" render -f svg "+input)

	return nil
}

// runFlags holds the flags shared by layout and render.
type runFlags struct {
	output   string
	noCache  bool
	strict   bool
	collapse []string
}

// addGeometryFlags registers the layout geometry overrides shared by
// layout and render. Zero values keep the defaults.
func addGeometryFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Geometry.CardWidth, "card-width", 0, "card width in px (default 200)")
	cmd.Flags().Float64Var(&opts.Geometry.SpacingX, "spacing-x", 0, "horizontal card pitch in px (default 220)")
	cmd.Flags().Float64Var(&opts.Geometry.ViewportWidth, "viewport-width", 0, "viewport width used to center the root (default 1200)")
}
