package graph

import (
	"github.com/matzehuels/gpuviz/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node types.
const (
	NodeTypeRoot         = "root"
	NodeTypeOrganization = "organization"
	NodeTypeBusinessUnit = "businessUnit"
	NodeTypeProject      = "project"
	NodeTypeGroup        = "group"
	NodeTypeBackground   = "background"
)

// Edge types.
const (
	EdgeTypeHierarchical = "hierarchical"
	EdgeTypeBorrowing    = "borrowing"
)

// Group kinds, stored in NodeData.GroupType.
const (
	GroupTypeProjects      = "projects"
	GroupTypeBusinessUnits = "businessUnits"
)

// Connector handles.
const (
	HandleLeft        = "left"
	HandleRight       = "right"
	HandleLeftTarget  = "left-target"
	HandleRightTarget = "right-target"
	HandleBottom      = "bottom"
)

// PercentUndefined is shown in place of a percentage whose parent has no
// allocation.
const PercentUndefined = "—"

// =============================================================================
// Diagram - Renderable Output
// =============================================================================

// Diagram is the positioned node and edge list handed to renderers.
// Nodes are ordered bands first, then root, organizations, the
// business-unit row and the project row.
type Diagram struct {
	Nodes       []Node             `json:"nodes" bson:"nodes"`
	Edges       []Edge             `json:"edges" bson:"edges"`
	Diagnostics errors.Diagnostics `json:"diagnostics,omitempty" bson:"diagnostics,omitempty"`
	Width       float64            `json:"width" bson:"width"`
	Height      float64            `json:"height" bson:"height"`
}

// Node returns the node with id.
func (d *Diagram) Node(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// Edge returns the edge with id.
func (d *Diagram) Edge(id string) (*Edge, bool) {
	for i := range d.Edges {
		if d.Edges[i].ID == id {
			return &d.Edges[i], true
		}
	}
	return nil, false
}

// NodesOfType returns the nodes of type t in diagram order.
func (d *Diagram) NodesOfType(t string) []Node {
	var out []Node
	for _, n := range d.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// EdgesOfType returns the edges of type t in diagram order.
func (d *Diagram) EdgesOfType(t string) []Edge {
	var out []Edge
	for _, e := range d.Edges {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Node
// =============================================================================

// Position is a node's top-left anchor.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is one positioned card or band.
type Node struct {
	ID       string   `json:"id" bson:"id"`
	Type     string   `json:"type" bson:"type"`
	Position Position `json:"position" bson:"position"`
	Data     NodeData `json:"data" bson:"data"`
	ZIndex   int      `json:"zIndex,omitempty" bson:"zIndex,omitempty"`
}

// IsGroup returns true if the node stands in for a collapsed subtree.
func (n *Node) IsGroup() bool { return n.Type == NodeTypeGroup }

// IsBackground returns true if the node is a row band.
func (n *Node) IsBackground() bool { return n.Type == NodeTypeBackground }

// DisplayLabel returns the name, the band label, or the id.
func (n *Node) DisplayLabel() string {
	switch {
	case n.Data.Name != "":
		return n.Data.Name
	case n.Data.Label != "":
		return n.Data.Label
	default:
		return n.ID
	}
}

// NodeData is the payload of a node. Which fields are set depends on the
// node type; numeric pointers are nil when the figure does not apply.
type NodeData struct {
	Name   string  `json:"name,omitempty" bson:"name,omitempty"`
	Height float64 `json:"height,omitempty" bson:"height,omitempty"`

	// Root and group totals.
	TotalGPU *float64 `json:"totalGPU,omitempty" bson:"totalGPU,omitempty"`
	UsedGPU  *float64 `json:"usedGPU,omitempty" bson:"usedGPU,omitempty"`

	// Organization, business unit and project figures.
	AllocatedGPU    *float64 `json:"allocatedGPU,omitempty" bson:"allocatedGPU,omitempty"`
	CurrentUsage    *float64 `json:"currentUsage,omitempty" bson:"currentUsage,omitempty"`
	Percentage      string   `json:"percentage,omitempty" bson:"percentage,omitempty"`
	PercentageValue *float64 `json:"percentageValue,omitempty" bson:"percentageValue,omitempty"`

	// Set only when the borrowed amount is material.
	BorrowedGPU        *float64 `json:"borrowedGPU,omitempty" bson:"borrowedGPU,omitempty"`
	BorrowedPercentage string   `json:"borrowedPercentage,omitempty" bson:"borrowedPercentage,omitempty"`

	// Collapse toggle, present on organizations and business units with
	// visible children.
	HasChildren bool `json:"hasChildren,omitempty" bson:"hasChildren,omitempty"`
	Collapsed   bool `json:"collapsed,omitempty" bson:"collapsed,omitempty"`

	// Group nodes.
	GroupType string `json:"groupType,omitempty" bson:"groupType,omitempty"`
	Count     int    `json:"count,omitempty" bson:"count,omitempty"`
	ExpandID  string `json:"expandId,omitempty" bson:"expandId,omitempty"`

	// Background bands.
	Label string     `json:"label,omitempty" bson:"label,omitempty"`
	Width float64    `json:"width,omitempty" bson:"width,omitempty"`
	Stats *BandStats `json:"stats,omitempty" bson:"stats,omitempty"`
}

// BandStats describes a whole row, independent of collapse state.
type BandStats struct {
	Count       int     `json:"count" bson:"count"`
	TotalGPU    float64 `json:"totalGPU" bson:"totalGPU"`
	UsedGPU     float64 `json:"usedGPU" bson:"usedGPU"`
	Description string  `json:"description" bson:"description"`
}

// =============================================================================
// Edge
// =============================================================================

// Edge connects two visible nodes.
type Edge struct {
	ID           string    `json:"id" bson:"id"`
	Source       string    `json:"source" bson:"source"`
	Target       string    `json:"target" bson:"target"`
	Type         string    `json:"type" bson:"type"`
	SourceHandle string    `json:"sourceHandle,omitempty" bson:"sourceHandle,omitempty"`
	TargetHandle string    `json:"targetHandle,omitempty" bson:"targetHandle,omitempty"`
	Data         *EdgeData `json:"data,omitempty" bson:"data,omitempty"`
}

// IsBorrowing returns true for lateral borrowing edges.
func (e *Edge) IsBorrowing() bool { return e.Type == EdgeTypeBorrowing }

// EdgeData is the payload of a borrowing edge.
type EdgeData struct {
	BorrowedAmount float64 `json:"borrowedAmount" bson:"borrowedAmount"`
}

// Float returns a pointer to v, for optional NodeData fields.
func Float(v float64) *float64 { return &v }
