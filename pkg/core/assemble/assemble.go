// Package assemble turns a hierarchy and a collapse state into the
// positioned node and edge lists consumed by renderers.
//
// Build runs the whole engine in one pass:
//
//	borrow.Resolve -> hierarchy.Derive -> layout.Compute -> nodes and edges
//
// It holds no state between calls. Toggling a node and calling Build again
// recomputes everything from scratch, so collapsing and then expanding the
// same id reproduces the original diagram exactly.
//
// Inconsistent hierarchies never fail: unresolved borrowing endpoints and
// zero-allocation denominators are reported in Diagram.Diagnostics while
// the affected figures render as zero or as [graph.PercentUndefined].
package assemble

import (
	"fmt"

	"github.com/matzehuels/gpuviz/pkg/core/aggregate"
	"github.com/matzehuels/gpuviz/pkg/core/borrow"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/core/layout"
	"github.com/matzehuels/gpuviz/pkg/errors"
	"github.com/matzehuels/gpuviz/pkg/graph"
)

// Build computes the diagram of c under state.
func Build(c *hierarchy.Cluster, state hierarchy.Collapse, opts ...layout.Option) *graph.Diagram {
	if c == nil {
		return &graph.Diagram{}
	}

	loans, diags := borrow.Resolve(c)
	forest := hierarchy.Derive(c, state)
	b := &builder{
		cluster: c,
		forest:  forest,
		layout:  layout.Compute(forest, opts...),
		loans:   loans,
		rows:    aggregate.Summarize(c, loans),
		diags:   diags,
	}

	b.addBands()
	b.addRoot()
	b.addOrganizations()
	b.addBusinessUnitRow()
	b.addBorrowingEdges()
	b.addProjectRow()

	return &graph.Diagram{
		Nodes:       b.nodes,
		Edges:       b.edges,
		Diagnostics: b.diags,
		Width:       b.layout.Width(),
		Height:      b.layout.Height(),
	}
}

type builder struct {
	cluster *hierarchy.Cluster
	forest  *hierarchy.Forest
	layout  *layout.Layout
	loans   *borrow.Result
	rows    aggregate.Rows
	diags   errors.Diagnostics

	nodes []graph.Node
	edges []graph.Edge
}

// =============================================================================
// Rows
// =============================================================================

func (b *builder) addBands() {
	stats := map[layout.Row]*graph.BandStats{
		layout.RowRoot:          bandStats(b.rows.Root, "cluster", "clusters"),
		layout.RowOrganizations: bandStats(b.rows.Organizations, "organization", "organizations"),
		layout.RowBusinessUnits: bandStats(b.rows.BusinessUnits, "business unit", "business units"),
		layout.RowProjects:      bandStats(b.rows.Projects, "project", "projects"),
	}
	for i, band := range b.layout.Bands {
		b.nodes = append(b.nodes, graph.Node{
			ID:       band.Row.BandID(),
			Type:     graph.NodeTypeBackground,
			Position: graph.Position{X: band.X, Y: band.Y},
			ZIndex:   i - len(b.layout.Bands),
			Data: graph.NodeData{
				Label:  band.Row.Label(),
				Width:  band.Width,
				Height: band.Height,
				Stats:  stats[band.Row],
			},
		})
	}
}

func (b *builder) addRoot() {
	c := b.cluster
	used := c.Usage()
	b.addNode(c.ID, graph.NodeTypeRoot, graph.NodeData{
		Name:         c.Name,
		TotalGPU:     graph.Float(c.TotalGPU),
		UsedGPU:      graph.Float(used),
		CurrentUsage: graph.Float(used),
	})
}

func (b *builder) addOrganizations() {
	c := b.cluster
	for _, vo := range b.forest.Organizations {
		org := vo.Org
		data := graph.NodeData{
			Name:         org.Name,
			AllocatedGPU: graph.Float(org.AllocatedGPU),
			HasChildren:  org.HasChildren(),
			Collapsed:    vo.Collapsed && org.HasChildren(),
		}
		data.Percentage, data.PercentageValue = b.percentOf(org.AllocatedGPU, c.TotalGPU, c.ID,
			"cluster has no GPUs; organization percentages are undefined")

		b.addNode(org.ID, graph.NodeTypeOrganization, data)
		b.addEdge(c.ID, org.ID, "")
	}
}

func (b *builder) addBusinessUnitRow() {
	for _, vo := range b.forest.Organizations {
		org := vo.Org
		if g := vo.BusinessUnitGroup; g != nil {
			b.addGroup(g, org.AllocatedGPU, org.ID)
			b.addEdge(org.ID, g.ID, "")
			continue
		}
		for _, vb := range vo.BusinessUnits {
			b.addBusinessUnit(org, vb)
			b.addEdge(org.ID, vb.Unit.ID, "")
		}
	}
}

func (b *builder) addBusinessUnit(org *hierarchy.Organization, vb *hierarchy.VisibleBusinessUnit) {
	bu := vb.Unit
	data := graph.NodeData{
		Name:         bu.Name,
		AllocatedGPU: graph.Float(bu.AllocatedGPU),
		CurrentUsage: graph.Float(bu.Usage()),
		HasChildren:  true,
		Collapsed:    vb.Collapsed,
	}
	data.Percentage, data.PercentageValue = b.percentOf(bu.AllocatedGPU, org.AllocatedGPU, org.ID, undefinedChildren)

	if borrowed := b.loans.Unit(bu.ID); borrow.Material(borrowed) {
		data.BorrowedGPU = graph.Float(borrowed)
		data.BorrowedPercentage, _ = b.percentOf(borrowed, org.AllocatedGPU, org.ID, undefinedChildren)
	}
	b.addNode(bu.ID, graph.NodeTypeBusinessUnit, data)
}

func (b *builder) addProjectRow() {
	for _, vo := range b.forest.Organizations {
		org := vo.Org
		if g := vo.ProjectGroup; g != nil {
			b.addGroup(g, org.AllocatedGPU, org.ID)
			parent := org.ID
			if vo.BusinessUnitGroup != nil {
				parent = vo.BusinessUnitGroup.ID
			}
			b.addEdge(parent, g.ID, "")
			continue
		}

		for _, p := range vo.Projects {
			data := projectData(p)
			data.Percentage, data.PercentageValue = b.percentOf(p.AllocatedGPU, org.AllocatedGPU, org.ID, undefinedChildren)
			b.addNode(p.ID, graph.NodeTypeProject, data)
			b.addEdge(org.ID, p.ID, "")
		}

		for _, vb := range vo.BusinessUnits {
			bu := vb.Unit
			if vb.Group != nil {
				b.addGroup(vb.Group, bu.AllocatedGPU, bu.ID)
				b.addEdge(bu.ID, vb.Group.ID, graph.HandleBottom)
				continue
			}
			for _, p := range vb.Projects {
				b.addUnitProject(bu, p)
				b.addEdge(bu.ID, p.ID, graph.HandleBottom)
			}
		}
	}
}

func (b *builder) addUnitProject(bu *hierarchy.BusinessUnit, p *hierarchy.Project) {
	data := projectData(p)
	data.Percentage, data.PercentageValue = b.percentOf(p.AllocatedGPU, bu.AllocatedGPU, bu.ID, undefinedChildren)

	if share := b.loans.Project(p.ID); borrow.Material(share) {
		data.BorrowedGPU = graph.Float(share)
		data.BorrowedPercentage = graph.PercentUndefined
		if pct, ok := b.loans.ProjectPercentOfCapacity(bu, p.ID); ok {
			data.BorrowedPercentage = formatPercent(pct)
		}
	}
	b.addNode(p.ID, graph.NodeTypeProject, data)
}

func (b *builder) addGroup(g *hierarchy.Group, parentAlloc float64, parentID string) {
	sum := aggregate.Group(g, b.loans)
	data := graph.NodeData{
		Name:         groupName(g),
		GroupType:    g.Kind.String(),
		Count:        sum.Count,
		TotalGPU:     graph.Float(sum.TotalGPU),
		CurrentUsage: graph.Float(sum.UsedGPU),
		ExpandID:     g.OwnerID,
	}
	data.Percentage, data.PercentageValue = b.percentOf(sum.TotalGPU, parentAlloc, parentID, undefinedChildren)
	if borrow.Material(sum.BorrowedGPU) {
		data.BorrowedGPU = graph.Float(sum.BorrowedGPU)
	}
	b.addNode(g.ID, graph.NodeTypeGroup, data)
}

// =============================================================================
// Borrowing Overlay
// =============================================================================

// addBorrowingEdges draws one edge per relation whose endpoints are both
// visible business units. Repeated (from, to) pairs collapse into one edge
// carrying the last relation's amount.
func (b *builder) addBorrowingEdges() {
	visible := b.forest.VisibleBusinessUnits()
	index := make(map[string]int)
	for _, vo := range b.forest.Organizations {
		if vo.Collapsed {
			continue
		}
		for _, rel := range vo.Org.BorrowingRelations {
			if !visible[rel.FromID] || !visible[rel.ToID] {
				continue
			}
			fromX, toX := b.layout.X(rel.FromID), b.layout.X(rel.ToID)
			e := graph.Edge{
				ID:           "borrowing-" + rel.FromID + "-" + rel.ToID,
				Source:       rel.FromID,
				Target:       rel.ToID,
				Type:         graph.EdgeTypeBorrowing,
				SourceHandle: graph.HandleLeft,
				TargetHandle: graph.HandleRightTarget,
				Data:         &graph.EdgeData{BorrowedAmount: rel.BorrowedAmount},
			}
			if fromX < toX {
				e.SourceHandle = graph.HandleRight
				e.TargetHandle = graph.HandleLeftTarget
			}
			if i, dup := index[e.ID]; dup {
				b.edges[i] = e
				continue
			}
			index[e.ID] = len(b.edges)
			b.edges = append(b.edges, e)
		}
	}
}

// =============================================================================
// Helpers
// =============================================================================

const undefinedChildren = "allocated GPU is 0; percentages of its children are undefined"

func (b *builder) addNode(id, typ string, data graph.NodeData) {
	pos, _ := b.layout.Position(id)
	data.Height = b.layout.Config.NodeHeight
	b.nodes = append(b.nodes, graph.Node{
		ID:       id,
		Type:     typ,
		Position: graph.Position{X: pos.X, Y: pos.Y},
		Data:     data,
	})
}

func (b *builder) addEdge(source, target, sourceHandle string) {
	b.edges = append(b.edges, graph.Edge{
		ID:           source + "-" + target,
		Source:       source,
		Target:       target,
		Type:         graph.EdgeTypeHierarchical,
		SourceHandle: sourceHandle,
	})
}

// percentOf formats part/whole as a percentage of the parent. A zero
// parent yields PercentUndefined and records a diagnostic on parentID.
func (b *builder) percentOf(part, whole float64, parentID, reason string) (string, *float64) {
	if whole == 0 {
		b.diags.Add(errors.Degenerate(parentID, "%s", reason))
		return graph.PercentUndefined, nil
	}
	v := part / whole * 100
	return formatPercent(v), graph.Float(v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func projectData(p *hierarchy.Project) graph.NodeData {
	return graph.NodeData{
		Name:         p.Name,
		AllocatedGPU: graph.Float(p.AllocatedGPU),
		CurrentUsage: graph.Float(p.CurrentUsage),
	}
}

func groupName(g *hierarchy.Group) string {
	n := g.Count()
	switch {
	case g.Kind == hierarchy.GroupBusinessUnits && n == 1:
		return "1 business unit"
	case g.Kind == hierarchy.GroupBusinessUnits:
		return fmt.Sprintf("%d business units", n)
	case n == 1:
		return "1 project"
	default:
		return fmt.Sprintf("%d projects", n)
	}
}

func bandStats(s aggregate.Summary, singular, plural string) *graph.BandStats {
	noun := plural
	if s.Count == 1 {
		noun = singular
	}
	return &graph.BandStats{
		Count:       s.Count,
		TotalGPU:    s.TotalGPU,
		UsedGPU:     s.UsedGPU,
		Description: fmt.Sprintf("%d %s, %.1f GPU allocated, %.1f GPU in use", s.Count, noun, s.TotalGPU, s.UsedGPU),
	}
}
