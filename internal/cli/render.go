package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	gvio "github.com/matzehuels/gpuviz/pkg/io"
	"github.com/matzehuels/gpuviz/pkg/pipeline"
)

// renderCommand creates the render command, which runs the full
// hierarchy → diagram → artifact pipeline in one step.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags   runFlags
		formats string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [hierarchy.json|hierarchy.toml]",
		Short: "Render a GPU allocation hierarchy to JSON, DOT, SVG, PNG or PDF",
		Long: `Render a GPU allocation hierarchy.

The diagram is computed as in 'layout' and then written in each requested
format. DOT output pins every card at its computed position; SVG and PNG are
produced by Graphviz (neato), PDF additionally requires rsvg-convert.

Files are named <output>.<format>; --output defaults to the input name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = pipeline.ParseFormats(formats)
			return c.runRender(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output base path (default: input without extension)")
	cmd.Flags().StringVarP(&formats, "format", "f", pipeline.FormatSVG, "comma-separated formats: "+strings.Join(pipeline.FormatNames, ", "))
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "fail when the hierarchy produces diagnostics")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "add usage and borrowing lines to drawn cards")
	cmd.Flags().StringSliceVarP(&flags.collapse, "collapse", "c", nil, "organization or business unit ids to collapse")
	addGeometryFlags(cmd, &opts)

	return cmd
}

// runRender loads the hierarchy, runs the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, flags runFlags) error {
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}

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

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Compute(ctx, cluster, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if flags.strict {
		if err := result.Diagram.Diagnostics.Err(); err != nil {
			return err
		}
	}

	base := basePath(flags.output, input)
	var written []string
	for _, format := range opts.Formats {
		path := base + "." + format
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Rendered %d file(s)", len(written))
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.DiagramHit && result.CacheInfo.RenderHit)
	printDiagnostics(result.Diagram.Diagnostics)

	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
