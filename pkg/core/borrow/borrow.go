// Package borrow resolves GPU borrowing between sibling business units.
//
// A [hierarchy.BorrowingRelation] lends a percentage of one business unit's
// allocation to a sibling. The borrower gains
//
//	borrowed = borrowedAmount / 100 * lender.allocatedGPU
//
// and each of its projects receives a share proportional to its own
// allocation within the unit. The lender's figures are left untouched:
// lending is recorded as the borrower's gain only.
//
// When several relations target the same business unit the last one in
// the organization's list whose lender exists wins, and a
// MALFORMED_HIERARCHY diagnostic is reported. Relations whose lender or
// borrower cannot be found contribute nothing.
package borrow

import (
	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/errors"
)

// MaterialityThreshold is the borrowed GPU amount at or below which a
// value is not surfaced in labels and percentages.
const MaterialityThreshold = 0.1

// Material reports whether amount is large enough to display.
func Material(amount float64) bool {
	return amount > MaterialityThreshold
}

// Loan is the relation that ended up feeding a borrower.
type Loan struct {
	LenderID   string
	BorrowerID string
	Percent    float64 // raw borrowedAmount of the relation
	Amount     float64 // GPU gained by the borrower
}

// Result holds borrowed amounts per business unit and per project.
// Ids without an entry borrowed nothing.
type Result struct {
	units    map[string]float64
	projects map[string]float64
	loans    map[string]Loan
}

// Unit returns the GPU borrowed by business unit id.
func (r *Result) Unit(id string) float64 {
	if r == nil {
		return 0
	}
	return r.units[id]
}

// Project returns the borrowed GPU share of project id.
func (r *Result) Project(id string) float64 {
	if r == nil {
		return 0
	}
	return r.projects[id]
}

// Loan returns the relation resolved for borrower id.
func (r *Result) Loan(id string) (Loan, bool) {
	if r == nil {
		return Loan{}, false
	}
	l, ok := r.loans[id]
	return l, ok
}

// UnitPercentOfOrganization is the borrowed amount of business unit id
// relative to its organization's allocation, in percent. ok is false when
// the organization has no allocation.
func (r *Result) UnitPercentOfOrganization(org *hierarchy.Organization, id string) (pct float64, ok bool) {
	if org.AllocatedGPU == 0 {
		return 0, false
	}
	return r.Unit(id) / org.AllocatedGPU * 100, true
}

// ProjectPercentOfCapacity is a project's borrowed share relative to the
// unit's effective capacity (its allocation plus what it borrowed).
func (r *Result) ProjectPercentOfCapacity(bu *hierarchy.BusinessUnit, projectID string) (pct float64, ok bool) {
	capacity := bu.AllocatedGPU + r.Unit(bu.ID)
	if capacity == 0 {
		return 0, false
	}
	return r.Project(projectID) / capacity * 100, true
}

// Resolve computes borrowing for every organization of c.
func Resolve(c *hierarchy.Cluster) (*Result, errors.Diagnostics) {
	r := newResult()
	var diags errors.Diagnostics
	if c == nil {
		return r, diags
	}
	for _, org := range c.Organizations {
		resolveOrganization(r, org, &diags)
	}
	return r, diags
}

// ResolveOrganization computes borrowing inside a single organization.
func ResolveOrganization(org *hierarchy.Organization) (*Result, errors.Diagnostics) {
	r := newResult()
	var diags errors.Diagnostics
	resolveOrganization(r, org, &diags)
	return r, diags
}

func newResult() *Result {
	return &Result{
		units:    make(map[string]float64),
		projects: make(map[string]float64),
		loans:    make(map[string]Loan),
	}
}

func resolveOrganization(r *Result, org *hierarchy.Organization, diags *errors.Diagnostics) {
	if org == nil || len(org.BorrowingRelations) == 0 {
		return
	}

	chosen := make(map[string]hierarchy.BorrowingRelation)
	targets := make(map[string]int)
	var order []string
	for _, rel := range org.BorrowingRelations {
		checkRelation(org, rel, diags)
		if targets[rel.ToID] == 0 {
			order = append(order, rel.ToID)
		}
		targets[rel.ToID]++
		if org.BusinessUnit(rel.FromID) != nil {
			chosen[rel.ToID] = rel
		}
	}

	for _, toID := range order {
		rel, ok := chosen[toID]
		if targets[toID] > 1 {
			lender := "none"
			if ok {
				lender = rel.FromID
			}
			diags.Add(errors.Malformed(toID,
				"%d borrowing relations target this business unit; the last resolvable one (from %s) is used", targets[toID], lender))
		}
		if !ok {
			continue
		}
		borrower := org.BusinessUnit(rel.ToID)
		lender := org.BusinessUnit(rel.FromID)
		if borrower == nil || lender == nil {
			continue
		}
		amount := rel.BorrowedAmount / 100 * lender.AllocatedGPU
		r.units[borrower.ID] = amount
		r.loans[borrower.ID] = Loan{
			LenderID:   lender.ID,
			BorrowerID: borrower.ID,
			Percent:    rel.BorrowedAmount,
			Amount:     amount,
		}
		distribute(r, borrower, amount, diags)
	}
}

// distribute splits amount across bu's projects by allocation share.
func distribute(r *Result, bu *hierarchy.BusinessUnit, amount float64, diags *errors.Diagnostics) {
	if amount == 0 || len(bu.Projects) == 0 {
		return
	}
	if bu.AllocatedGPU == 0 {
		diags.Add(errors.Degenerate(bu.ID,
			"borrows %.1f GPU but has no allocation to split it by; project shares are 0", amount))
		return
	}
	for _, p := range bu.Projects {
		r.projects[p.ID] = p.AllocatedGPU / bu.AllocatedGPU * amount
	}
}

func checkRelation(org *hierarchy.Organization, rel hierarchy.BorrowingRelation, diags *errors.Diagnostics) {
	if org.BusinessUnit(rel.FromID) == nil {
		diags.Add(errors.Malformed(org.ID,
			"borrowing relation %s -> %s: lender %q is not a business unit of this organization", rel.FromID, rel.ToID, rel.FromID))
	}
	if org.BusinessUnit(rel.ToID) == nil {
		diags.Add(errors.Malformed(org.ID,
			"borrowing relation %s -> %s: borrower %q is not a business unit of this organization", rel.FromID, rel.ToID, rel.ToID))
	}
	if rel.FromID == rel.ToID {
		diags.Add(errors.Malformed(rel.ToID, "business unit borrows from itself"))
	}
	if rel.BorrowedAmount < 0 || rel.BorrowedAmount > 100 {
		diags.Add(errors.Malformed(rel.ToID,
			"borrowed amount %g%% from %q is outside 0-100", rel.BorrowedAmount, rel.FromID))
	}
}

