package borrow

import (
	"math"
	"testing"

	"github.com/matzehuels/gpuviz/pkg/core/hierarchy"
	"github.com/matzehuels/gpuviz/pkg/errors"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func TestResolveSample(t *testing.T) {
	r, diags := Resolve(hierarchy.Sample())
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if got := r.Unit("bu-ml"); !approx(got, 10.5) {
		t.Errorf("Unit(bu-ml) = %v, want 10.5", got)
	}
	if got := r.Unit("bu-analytics"); got != 0 {
		t.Errorf("lender should show no borrowed amount, got %v", got)
	}
	if got := r.Project("proj-e"); !approx(got, 25.0/45*10.5) {
		t.Errorf("Project(proj-e) = %v", got)
	}
	if got := r.Project("proj-f"); !approx(got, 20.0/45*10.5) {
		t.Errorf("Project(proj-f) = %v", got)
	}
	for _, id := range []string{"proj-e", "proj-f"} {
		if !Material(r.Project(id)) {
			t.Errorf("%s share %v should be material", id, r.Project(id))
		}
	}
	for _, id := range []string{"proj-a", "proj-c"} {
		if r.Project(id) != 0 {
			t.Errorf("%s should not receive a share", id)
		}
	}

	loan, ok := r.Loan("bu-ml")
	if !ok || loan.LenderID != "bu-analytics" || loan.Percent != 30 {
		t.Errorf("Loan(bu-ml) = %+v, %v", loan, ok)
	}
}

func TestSharesConserveBorrowedAmount(t *testing.T) {
	tests := []struct {
		name   string
		allocs []float64
		lender float64
		pct    float64
	}{
		{"two projects", []float64{25, 20}, 35, 30},
		{"single project", []float64{7}, 10, 50},
		{"uneven", []float64{1, 2, 3, 4, 5}, 33, 17.5},
		{"allocations do not partition the unit", []float64{3, 3}, 40, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			borrower := &hierarchy.BusinessUnit{ID: "to", AllocatedGPU: 15}
			for i, a := range tt.allocs {
				borrower.Projects = append(borrower.Projects, &hierarchy.Project{
					ID: string(rune('a' + i)), AllocatedGPU: a,
				})
			}
			org := &hierarchy.Organization{
				ID:           "org",
				AllocatedGPU: 100,
				BusinessUnits: []*hierarchy.BusinessUnit{
					{ID: "from", AllocatedGPU: tt.lender},
					borrower,
				},
				BorrowingRelations: []hierarchy.BorrowingRelation{
					{FromID: "from", ToID: "to", BorrowedAmount: tt.pct},
				},
			}

			r, _ := ResolveOrganization(org)
			want := tt.pct / 100 * tt.lender
			if !approx(r.Unit("to"), want) {
				t.Fatalf("Unit(to) = %v, want %v", r.Unit("to"), want)
			}
			var sum, allocSum float64
			for _, p := range borrower.Projects {
				sum += r.Project(p.ID)
				allocSum += p.AllocatedGPU
			}
			// Shares are proportional to allocation within the unit, so they
			// add up to the borrowed amount scaled by how much of the unit
			// the projects account for.
			if !approx(sum, want*allocSum/borrower.AllocatedGPU) {
				t.Errorf("sum of shares = %v, want %v", sum, want*allocSum/borrower.AllocatedGPU)
			}
		})
	}
}

func TestSharesSumToBorrowedWhenProjectsPartitionUnit(t *testing.T) {
	r, _ := Resolve(hierarchy.Sample())
	sum := r.Project("proj-e") + r.Project("proj-f")
	if !approx(sum, r.Unit("bu-ml")) {
		t.Errorf("sum of shares = %v, want %v", sum, r.Unit("bu-ml"))
	}
}

func TestUnresolvedLender(t *testing.T) {
	c := hierarchy.Sample()
	c.Organizations[1].BorrowingRelations[0].FromID = "bu-gone"

	r, diags := Resolve(c)
	if r.Unit("bu-ml") != 0 || r.Project("proj-e") != 0 {
		t.Error("unresolved lender should contribute nothing")
	}
	if diags.Count(errors.ErrCodeMalformedHierarchy) != 1 {
		t.Errorf("diagnostics = %v, want one MALFORMED_HIERARCHY", diags)
	}
	if _, ok := r.Loan("bu-ml"); ok {
		t.Error("no loan should be recorded")
	}
}

func TestUnresolvedBorrower(t *testing.T) {
	c := hierarchy.Sample()
	c.Organizations[1].BorrowingRelations[0].ToID = "bu-gone"

	r, diags := Resolve(c)
	if r.Unit("bu-gone") != 0 {
		t.Error("unknown borrower should get nothing")
	}
	if diags.Count(errors.ErrCodeMalformedHierarchy) != 1 {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestLastRelationWins(t *testing.T) {
	org := &hierarchy.Organization{
		ID:           "org",
		AllocatedGPU: 100,
		BusinessUnits: []*hierarchy.BusinessUnit{
			{ID: "a", AllocatedGPU: 10},
			{ID: "b", AllocatedGPU: 20},
			{ID: "c", AllocatedGPU: 30, Projects: []*hierarchy.Project{{ID: "p", AllocatedGPU: 30}}},
		},
		BorrowingRelations: []hierarchy.BorrowingRelation{
			{FromID: "a", ToID: "c", BorrowedAmount: 50},
			{FromID: "b", ToID: "c", BorrowedAmount: 50},
		},
	}

	r, diags := ResolveOrganization(org)
	if !approx(r.Unit("c"), 10) {
		t.Errorf("Unit(c) = %v, want 10 (from b)", r.Unit("c"))
	}
	if loan, _ := r.Loan("c"); loan.LenderID != "b" {
		t.Errorf("lender = %q, want b", loan.LenderID)
	}
	if got := diags.ForNode("c").Count(errors.ErrCodeMalformedHierarchy); got != 1 {
		t.Errorf("duplicate borrower diagnostics = %d, want 1", got)
	}
}

func TestLastResolvableRelationWins(t *testing.T) {
	org := &hierarchy.Organization{
		ID:           "org",
		AllocatedGPU: 100,
		BusinessUnits: []*hierarchy.BusinessUnit{
			{ID: "a", AllocatedGPU: 20},
			{ID: "b", AllocatedGPU: 40, Projects: []*hierarchy.Project{{ID: "p", AllocatedGPU: 40}}},
		},
		BorrowingRelations: []hierarchy.BorrowingRelation{
			{FromID: "a", ToID: "b", BorrowedAmount: 50},
			{FromID: "gone", ToID: "b", BorrowedAmount: 50},
		},
	}

	r, diags := ResolveOrganization(org)
	if !approx(r.Unit("b"), 10) {
		t.Errorf("Unit(b) = %v, want 10 from the resolvable lender", r.Unit("b"))
	}
	if loan, _ := r.Loan("b"); loan.LenderID != "a" {
		t.Errorf("lender = %q, want a", loan.LenderID)
	}
	if !approx(r.Project("p"), 10) {
		t.Errorf("Project(p) = %v, want 10", r.Project("p"))
	}
	// One for the unknown lender, one for the duplicate target.
	if got := diags.Count(errors.ErrCodeMalformedHierarchy); got != 2 {
		t.Errorf("diagnostics = %v, want 2 MALFORMED_HIERARCHY", diags)
	}
}

func TestZeroAllocationBorrower(t *testing.T) {
	org := &hierarchy.Organization{
		ID:           "org",
		AllocatedGPU: 10,
		BusinessUnits: []*hierarchy.BusinessUnit{
			{ID: "a", AllocatedGPU: 10},
			{ID: "b", AllocatedGPU: 0, Projects: []*hierarchy.Project{{ID: "p", AllocatedGPU: 0}}},
		},
		BorrowingRelations: []hierarchy.BorrowingRelation{{FromID: "a", ToID: "b", BorrowedAmount: 20}},
	}

	r, diags := ResolveOrganization(org)
	if !approx(r.Unit("b"), 2) {
		t.Errorf("Unit(b) = %v, want 2", r.Unit("b"))
	}
	if r.Project("p") != 0 {
		t.Errorf("Project(p) = %v, want 0", r.Project("p"))
	}
	if diags.Count(errors.ErrCodeDegenerateAllocation) != 1 {
		t.Errorf("diagnostics = %v, want DEGENERATE_ALLOCATION", diags)
	}
}

func TestOutOfRangeAndSelfLoan(t *testing.T) {
	org := &hierarchy.Organization{
		ID: "org",
		BusinessUnits: []*hierarchy.BusinessUnit{
			{ID: "a", AllocatedGPU: 10},
		},
		BorrowingRelations: []hierarchy.BorrowingRelation{{FromID: "a", ToID: "a", BorrowedAmount: 150}},
	}
	_, diags := ResolveOrganization(org)
	if diags.Count(errors.ErrCodeMalformedHierarchy) != 2 {
		t.Errorf("diagnostics = %v, want self-loan and range findings", diags)
	}
}

func TestMaterial(t *testing.T) {
	tests := []struct {
		amount float64
		want   bool
	}{
		{0, false},
		{0.05, false},
		{0.1, false},
		{0.1000001, true},
		{10.5, true},
	}
	for _, tt := range tests {
		if got := Material(tt.amount); got != tt.want {
			t.Errorf("Material(%v) = %v, want %v", tt.amount, got, tt.want)
		}
	}
}

func TestPercentages(t *testing.T) {
	c := hierarchy.Sample()
	r, _ := Resolve(c)
	prod := c.Organizations[1]
	ml := prod.BusinessUnit("bu-ml")

	pct, ok := r.UnitPercentOfOrganization(prod, "bu-ml")
	if !ok || !approx(pct, 10.5/80*100) {
		t.Errorf("UnitPercentOfOrganization = %v, %v", pct, ok)
	}

	pct, ok = r.ProjectPercentOfCapacity(ml, "proj-e")
	want := (25.0 / 45 * 10.5) / (45 + 10.5) * 100
	if !ok || !approx(pct, want) {
		t.Errorf("ProjectPercentOfCapacity = %v, want %v", pct, want)
	}

	if _, ok := r.UnitPercentOfOrganization(&hierarchy.Organization{}, "bu-ml"); ok {
		t.Error("zero organization allocation should not yield a percentage")
	}
}

func TestNilResult(t *testing.T) {
	var r *Result
	if r.Unit("x") != 0 || r.Project("x") != 0 {
		t.Error("nil Result should report zero")
	}
	if _, ok := r.Loan("x"); ok {
		t.Error("nil Result should have no loans")
	}
}
