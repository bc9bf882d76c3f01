// Package render turns positioned diagrams into images.
//
// # Overview
//
// The engine in pkg/core produces a [graph.Diagram] with final coordinates.
// Renderers only draw it; they never move a node.
//
//   - Node-link drawing through Graphviz (in [nodelink] subpackage)
//   - SVG to PDF conversion
//
// # Format Conversion
//
// [ToPDF] converts any SVG to PDF using the external rsvg-convert tool
// (from librsvg). PNG comes straight from Graphviz.
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(d, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//
// [graph.Diagram]: github.com/matzehuels/gpuviz/pkg/graph.Diagram
package render
