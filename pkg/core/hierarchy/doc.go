// Package hierarchy defines the GPU allocation tree that gpuviz lays out.
//
// # Overview
//
// A hierarchy has a fixed depth of four levels:
//
//	Cluster
//	└── Organization
//	    ├── BusinessUnit
//	    │   └── Project
//	    └── Project (direct, no business unit)
//
// Every node carries a GPU allocation. Projects additionally carry the GPU
// they currently use. Business units inside one organization may lend part
// of their allocation to a sibling through a [BorrowingRelation].
//
// # Immutability
//
// The tree is treated as an immutable value. Collapse state lives outside
// the tree in a [Collapse] map, and [Derive] computes a [Forest] that lists
// only what is currently visible. Nothing in this package mutates a
// [Cluster]; callers that edit a hierarchy do so before handing it over.
//
// # Identifiers
//
// Ids are assumed unique across the whole tree since they double as graph
// node keys. [Validate] enforces that for hierarchies read from files or
// HTTP bodies; the layout engine itself never rejects a hierarchy.
package hierarchy
