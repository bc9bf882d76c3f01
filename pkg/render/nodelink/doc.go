// Package nodelink draws a positioned GPU allocation diagram with Graphviz.
//
// # Overview
//
// The layout engine has already placed every card, so Graphviz is used only
// as a drawing backend: [ToDOT] pins each node with pos="x,y!" and the
// neato engine keeps those positions while routing edges.
//
//	d := assemble.Build(cluster, state)
//	dot := nodelink.ToDOT(d, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Styling
//
//   - Background bands are drawn first so cards sit on top of them
//   - Group nodes (collapsed subtrees) have dashed outlines
//   - Borrowing edges are dashed orange and labeled with the lent percentage
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and PNG
// rendering. PDF conversion requires librsvg (rsvg-convert).
package nodelink
