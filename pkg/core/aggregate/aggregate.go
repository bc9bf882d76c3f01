// Package aggregate rolls up GPU figures for collapsed subtrees and for
// the per-row background summaries.
//
// Aggregates are always expressed through leaf projects: usage comes only
// from projects, and a project group's total is the sum of its projects'
// allocations. A business-unit group reports the units' own allocations so
// that its total matches the hidden business-unit nodes one for one.
package aggregate

import (
	"github.com/matzehuels/gpuviz/pkg/core/borrow"
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
)

// Summary is the rolled-up view of a set of nodes.
type Summary struct {
	Count       int
	TotalGPU    float64
	UsedGPU     float64
	BorrowedGPU float64 // sum of material amounts only
}

// Projects aggregates a list of projects. Borrowed shares come from b and
// may be nil.
func Projects(projects []*hierarchy.Project, b *borrow.Result) Summary {
	var s Summary
	for _, p := range projects {
		s.Count++
		s.TotalGPU += p.AllocatedGPU
		s.UsedGPU += p.CurrentUsage
		if share := b.Project(p.ID); borrow.Material(share) {
			s.BorrowedGPU += share
		}
	}
	return s
}

// BusinessUnits aggregates business units by their own allocation and
// their projects' usage.
func BusinessUnits(units []*hierarchy.BusinessUnit, b *borrow.Result) Summary {
	var s Summary
	for _, bu := range units {
		s.Count++
		s.TotalGPU += bu.AllocatedGPU
		s.UsedGPU += bu.Usage()
		if amount := b.Unit(bu.ID); borrow.Material(amount) {
			s.BorrowedGPU += amount
		}
	}
	return s
}

// Group aggregates the members of a synthetic group node.
func Group(g *hierarchy.Group, b *borrow.Result) Summary {
	if g == nil {
		return Summary{}
	}
	if g.Kind == hierarchy.GroupBusinessUnits {
		return BusinessUnits(g.BusinessUnits, b)
	}
	return Projects(g.Projects, b)
}

// Subtree aggregates every leaf project below the organization or business
// unit id, provided that node is collapsed in state. ok is false when the
// node is expanded or unknown.
func Subtree(c *hierarchy.Cluster, id string, state hierarchy.Collapse, b *borrow.Result) (s Summary, ok bool) {
	if c == nil || !state.IsCollapsed(id) {
		return Summary{}, false
	}
	for _, org := range c.Organizations {
		if org.ID == id {
			return Projects(org.AllProjects(), b), true
		}
		if bu := org.BusinessUnit(id); bu != nil {
			return Projects(bu.Projects, b), true
		}
	}
	return Summary{}, false
}

// Rows holds the per-row totals of a cluster, independent of collapse.
type Rows struct {
	Root          Summary
	Organizations Summary
	BusinessUnits Summary
	Projects      Summary
}

// Summarize computes the per-row totals shown on background bands. Usage
// of every row is the usage of the projects beneath it.
func Summarize(c *hierarchy.Cluster, b *borrow.Result) Rows {
	var rows Rows
	if c == nil {
		return rows
	}
	used := c.Usage()
	rows.Root = Summary{Count: 1, TotalGPU: c.TotalGPU, UsedGPU: used}
	rows.Organizations.UsedGPU = used
	for _, org := range c.Organizations {
		rows.Organizations.Count++
		rows.Organizations.TotalGPU += org.AllocatedGPU

		bus := BusinessUnits(org.BusinessUnits, b)
		rows.BusinessUnits.Count += bus.Count
		rows.BusinessUnits.TotalGPU += bus.TotalGPU
		rows.BusinessUnits.UsedGPU += bus.UsedGPU
		rows.BusinessUnits.BorrowedGPU += bus.BorrowedGPU

		ps := Projects(org.AllProjects(), b)
		rows.Projects.Count += ps.Count
		rows.Projects.TotalGPU += ps.TotalGPU
		rows.Projects.UsedGPU += ps.UsedGPU
		rows.Projects.BorrowedGPU += ps.BorrowedGPU
	}
	return rows
}
