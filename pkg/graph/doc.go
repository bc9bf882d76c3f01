// Package graph provides the serialization types for positioned diagrams.
//
// This package defines the canonical wire format for gpuviz output, used
// for JSON files, API responses, caching and the DOT/SVG renderers.
//
// # Architecture
//
// The package sits at the boundary between the layout engine and its
// consumers:
//
//   - [Diagram], [Node], [Edge]: serialization types (this package)
//   - pkg/core/assemble: builds a Diagram from a hierarchy and collapse state
//   - pkg/render/nodelink: turns a Diagram into DOT, SVG or PNG
//
// # Node Types
//
// Every node carries a type discriminant:
//
//	graph.NodeTypeRoot          // "root"
//	graph.NodeTypeOrganization  // "organization"
//	graph.NodeTypeBusinessUnit  // "businessUnit"
//	graph.NodeTypeProject       // "project"
//	graph.NodeTypeGroup         // "group", a collapsed subtree
//	graph.NodeTypeBackground    // "background", a row band
//
// Edges are either [EdgeTypeHierarchical] (parent to child) or
// [EdgeTypeBorrowing] (business unit to business unit).
//
// # Serialization
//
//	{
//	  "nodes": [{"id": "root-1", "type": "root", "position": {"x": 380, "y": 40}, "data": {...}}],
//	  "edges": [{"id": "root-1-org-dev", "source": "root-1", "target": "org-dev", "type": "hierarchical"}],
//	  "width": 1480,
//	  "height": 870
//	}
//
// Common operations:
//
//	d, _ := graph.ReadDiagramFile("diagram.json")
//	graph.WriteDiagramFile(d, "output.json")
//	data, _ := graph.MarshalDiagram(d)
//	parsed, _ := graph.UnmarshalDiagram(data)
package graph
