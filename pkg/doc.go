// Package pkg provides the libraries behind gpuviz, a diagram engine for GPU
// allocation hierarchies.
//
// # Overview
//
// gpuviz turns a fixed-depth hierarchy (cluster → organization → business
// unit → project) into a positioned node and edge list. Any organization or
// business unit can be collapsed into aggregate group nodes, and capacity
// lent between sibling business units is drawn as lateral borrowing edges.
// The pkg directory is organized into three areas:
//
//  1. [core] - Pure engine (hierarchy model, collapse, borrowing, aggregates, layout)
//  2. [pipeline] - Orchestration with caching and observability hooks
//  3. [graph], [io], [render] - Wire formats, hierarchy files and drawing
//
// # Architecture
//
// The data flow through gpuviz:
//
//	hierarchy file / HTTP body ([io])
//	         ↓
//	[core/hierarchy] Derive (visible forest for a collapse state)
//	         ↓
//	[core/borrow] Resolve  +  [core/aggregate] Summarize
//	         ↓
//	[core/layout] Compute (rows, x positions, bands)
//	         ↓
//	[core/assemble] Build → [graph.Diagram]
//	         ↓
//	JSON / DOT / SVG / PNG / PDF ([render/nodelink])
//
// # Quick Start
//
//	c := hierarchy.Sample()
//	d := assemble.Build(c, hierarchy.CollapseOf("org-prod"))
//	data, _ := graph.MarshalDiagram(d)
//
// With caching and rendering:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Compute(ctx, c, pipeline.Options{Formats: []string{"svg"}})
//
// # Main Packages
//
// [core/hierarchy] - Cluster, Organization, BusinessUnit and Project types,
// the [hierarchy.Collapse] state and the visible forest it induces.
//
// [core/borrow] - Borrowing resolution between sibling business units.
//
// [core/aggregate] - Roll-ups for group nodes and background bands.
//
// [core/layout] - Row placement and centering geometry.
//
// [core/assemble] - Builds the renderable diagram and its diagnostics.
//
// [session] - Collapse sessions with memory, file, Redis and MongoDB stores.
//
// [cache] - Null, file and Redis caches shared by CLI and server.
//
// [observability] - Hook registry for pipeline, cache, session and HTTP events.
//
// [errors] - Error codes and non-fatal diagnostics.
//
// # Testing
//
//	go test ./pkg/...
//	go test -run Example ./pkg/...
//	GPUVIZ_TEST_REDIS_ADDR=localhost:6379 go test ./pkg/session/...
//
// [core]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core
// [core/hierarchy]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core/hierarchy
// [core/borrow]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core/borrow
// [core/aggregate]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core/aggregate
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core/layout
// [core/assemble]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core/assemble
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/pipeline
// [graph]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/graph
// [graph.Diagram]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/graph#Diagram
// [hierarchy.Collapse]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/core/hierarchy#Collapse
// [io]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/render/nodelink
// [session]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/session
// [cache]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/gpuviz/pkg/errors
package pkg
