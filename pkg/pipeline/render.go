package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/gpuviz/pkg/graph"
	"github.com/matzehuels/gpuviz/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
// The DOT source is generated once and shared by the drawn formats.
func Render(ctx context.Context, d *graph.Diagram, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	var dot string
	dotSource := func() string {
		if dot == "" {
			dot = nodelink.ToDOT(d, nodelink.Options{
				CardWidth: opts.Geometry.CardWidth,
				Detailed:  opts.Detailed,
			})
		}
		return dot
	}

	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = graph.MarshalDiagram(d)
		case FormatDOT:
			data = []byte(dotSource())
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dotSource())
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dotSource())
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dotSource())
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
