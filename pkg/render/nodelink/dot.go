package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gpuviz/pkg/core/layout"
	"github.com/matzehuels/gpuviz/pkg/graph"
	"github.com/matzehuels/gpuviz/pkg/render"
)

// Options configures DOT generation.
type Options struct {
	// CardWidth is the width of every non-band node in pixels. Zero means
	// the default layout card width.
	CardWidth float64

	// Detailed adds usage and borrowing lines to card labels.
	// When false, cards show the name and allocation only.
	Detailed bool

	// HideBands omits the four background row bands.
	HideBands bool
}

func (o Options) cardWidth() float64 {
	if o.CardWidth > 0 {
		return o.CardWidth
	}
	return layout.DefaultConfig().CardWidth
}

// Node fill colors by type.
var fillColors = map[string]string{
	graph.NodeTypeRoot:         "#dbeafe",
	graph.NodeTypeOrganization: "#dcfce7",
	graph.NodeTypeBusinessUnit: "#fef9c3",
	graph.NodeTypeProject:      "#ffffff",
	graph.NodeTypeGroup:        "#f3f4f6",
	graph.NodeTypeBackground:   "#f8fafc",
}

// ToDOT converts a positioned diagram to Graphviz DOT source.
//
// Every node is pinned at its diagram coordinates (pos="x,y!"), so the
// result must be rendered with the neato engine, as [RenderSVG] does.
// Graphviz's y axis points up; y is inverted against the diagram bottom.
// Borrowing edges are dashed and labeled with the lent percentage.
func ToDOT(d *graph.Diagram, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fixedsize=true, fontsize=14, fontname=\"Helvetica\"];\n")
	buf.WriteString("  edge [arrowsize=0.6, color=\"#64748b\"];\n")
	buf.WriteString("\n")

	if d == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	f := newFrame(d, opts)
	for _, n := range d.Nodes {
		if n.IsBackground() && opts.HideBands {
			continue
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(f.attrs(n, fmtLabel(n, opts.Detailed)), ", "))
	}

	buf.WriteString("\n")
	for _, e := range d.Edges {
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// frame maps diagram pixels to Graphviz points.
type frame struct {
	card   float64
	minX   float64
	bottom float64
}

func newFrame(d *graph.Diagram, opts Options) frame {
	f := frame{card: opts.cardWidth(), minX: math.Inf(1)}
	for _, n := range d.Nodes {
		if n.IsBackground() && opts.HideBands {
			continue
		}
		_, h := f.size(n)
		f.minX = math.Min(f.minX, n.Position.X)
		f.bottom = math.Max(f.bottom, n.Position.Y+h)
	}
	if math.IsInf(f.minX, 1) {
		f.minX = 0
	}
	return f
}

func (f frame) size(n graph.Node) (w, h float64) {
	w, h = f.card, n.Data.Height
	if n.IsBackground() {
		w = n.Data.Width
	}
	if h == 0 {
		h = layout.DefaultConfig().NodeHeight
	}
	return w, h
}

func (f frame) attrs(n graph.Node, label string) []string {
	w, h := f.size(n)
	cx := n.Position.X - f.minX + w/2
	cy := f.bottom - (n.Position.Y + h/2)
	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%s,%s!\"", fmtFloat(cx), fmtFloat(cy)),
		fmt.Sprintf("width=%s", fmtFloat(w/72)),
		fmt.Sprintf("height=%s", fmtFloat(h/72)),
	}
	if c, ok := fillColors[n.Type]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	switch n.Type {
	case graph.NodeTypeBackground:
		attrs = append(attrs, "style=filled", "color=\"#e2e8f0\"", "labelloc=t", "labeljust=l", "fontcolor=\"#64748b\"")
	case graph.NodeTypeGroup:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

func edgeAttrs(e graph.Edge) []string {
	if !e.IsBorrowing() {
		return nil
	}
	attrs := []string{"style=dashed", "color=\"#ea580c\"", "fontcolor=\"#ea580c\""}
	if e.Data != nil {
		attrs = append(attrs, fmt.Sprintf("label=\"%s%%\"", fmtFloat(e.Data.BorrowedAmount)))
	}
	return attrs
}

func fmtLabel(n graph.Node, detailed bool) string {
	d := n.Data
	lines := []string{n.DisplayLabel()}
	switch n.Type {
	case graph.NodeTypeBackground:
		if d.Stats != nil {
			lines = append(lines, d.Stats.Description)
		}
		return strings.Join(lines, "\n")
	case graph.NodeTypeRoot:
		if d.UsedGPU != nil && d.TotalGPU != nil {
			lines = append(lines, fmt.Sprintf("%s / %s GPU", fmtFloat(*d.UsedGPU), fmtFloat(*d.TotalGPU)))
		}
		return strings.Join(lines, "\n")
	}

	if d.AllocatedGPU != nil {
		alloc := fmt.Sprintf("%s GPU", fmtFloat(*d.AllocatedGPU))
		if d.Percentage != "" {
			alloc += " (" + d.Percentage + ")"
		}
		lines = append(lines, alloc)
	}
	if !detailed {
		return strings.Join(lines, "\n")
	}
	if d.CurrentUsage != nil {
		lines = append(lines, fmt.Sprintf("in use: %s", fmtFloat(*d.CurrentUsage)))
	}
	if d.BorrowedGPU != nil {
		lines = append(lines, fmt.Sprintf("borrowed: %s (%s)", fmtFloat(*d.BorrowedGPU), d.BorrowedPercentage))
	}
	if n.IsGroup() && d.ExpandID != "" {
		lines = append(lines, "expand: "+d.ExpandID)
	}
	return strings.Join(lines, "\n")
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// =============================================================================
// Rendering
// =============================================================================

// RenderSVG renders DOT source to SVG with the neato engine, which keeps
// pinned node positions.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	data, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(data), nil
}

// RenderPNG rasterizes DOT source inside Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

// RenderPDF renders DOT source as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the SVG scales from the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
