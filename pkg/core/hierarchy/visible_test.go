package hierarchy

import (
	"slices"
	"testing"
)

func TestDeriveExpanded(t *testing.T) {
	f := Derive(Sample(), nil)

	want := []string{"proj-a", "proj-b", "proj-c", "proj-d", "proj-e", "proj-f"}
	if got := f.ProjectRow(); !slices.Equal(got, want) {
		t.Errorf("ProjectRow() = %v, want %v", got, want)
	}
	if !f.IsVisible("bu-ml") || !f.IsVisible("root-1") {
		t.Error("expanded units should be visible")
	}
}

func TestDeriveCollapsedOrganization(t *testing.T) {
	f := Derive(Sample(), CollapseOf("org-prod"))

	prod := f.Organizations[1]
	if !prod.Collapsed || len(prod.BusinessUnits) != 0 || len(prod.Projects) != 0 {
		t.Fatalf("collapsed org should hide children: %+v", prod)
	}
	if prod.BusinessUnitGroup == nil || prod.BusinessUnitGroup.ID != "org-prod-bu-group" {
		t.Fatalf("BusinessUnitGroup = %+v", prod.BusinessUnitGroup)
	}
	if prod.ProjectGroup == nil || prod.ProjectGroup.ID != "org-prod-project-group" {
		t.Fatalf("ProjectGroup = %+v", prod.ProjectGroup)
	}
	if prod.BusinessUnitGroup.Count() != 2 || prod.ProjectGroup.Count() != 4 {
		t.Errorf("counts = %d, %d; want 2, 4", prod.BusinessUnitGroup.Count(), prod.ProjectGroup.Count())
	}

	want := []string{"proj-a", "proj-b", "org-prod-project-group"}
	if got := f.ProjectRow(); !slices.Equal(got, want) {
		t.Errorf("ProjectRow() = %v, want %v", got, want)
	}
	for _, id := range []string{"bu-ml", "bu-analytics", "proj-c"} {
		if f.IsVisible(id) {
			t.Errorf("%s should be hidden", id)
		}
	}
}

func TestDeriveCollapsedOrganizationWithoutUnits(t *testing.T) {
	f := Derive(Sample(), CollapseOf("org-dev"))
	dev := f.Organizations[0]
	if dev.BusinessUnitGroup != nil {
		t.Error("org without business units should not get a business-unit group")
	}
	if dev.ProjectGroup == nil || dev.ProjectGroup.Count() != 2 {
		t.Errorf("ProjectGroup = %+v", dev.ProjectGroup)
	}
}

func TestDeriveCollapsedBusinessUnit(t *testing.T) {
	f := Derive(Sample(), CollapseOf("bu-analytics"))

	want := []string{"proj-a", "proj-b", "bu-analytics-project-group", "proj-e", "proj-f"}
	if got := f.ProjectRow(); !slices.Equal(got, want) {
		t.Errorf("ProjectRow() = %v, want %v", got, want)
	}
	if !f.IsVisible("bu-analytics") {
		t.Error("collapsed business unit itself stays visible")
	}
}

func TestDeriveUnitCollapseShadowedByOrganization(t *testing.T) {
	withUnit := Derive(Sample(), CollapseOf("org-prod", "bu-ml"))
	without := Derive(Sample(), CollapseOf("org-prod"))
	if !slices.Equal(withUnit.ProjectRow(), without.ProjectRow()) {
		t.Errorf("unit collapse should be unobservable under a collapsed org: %v vs %v",
			withUnit.ProjectRow(), without.ProjectRow())
	}
}

func TestDeriveSkipsEmptyUnits(t *testing.T) {
	c := Sample()
	c.Organizations[1].BusinessUnits = append(c.Organizations[1].BusinessUnits,
		&BusinessUnit{ID: "bu-empty", Name: "Empty"})
	f := Derive(c, nil)
	if f.IsVisible("bu-empty") {
		t.Error("business unit without projects should not be visible")
	}
	if got := len(f.VisibleBusinessUnits()); got != 2 {
		t.Errorf("VisibleBusinessUnits() has %d entries, want 2", got)
	}
}

func TestDeriveCollapsedGroupSkipsEmptyUnits(t *testing.T) {
	c := Sample()
	prod := c.Organizations[1]
	prod.BusinessUnits = append(prod.BusinessUnits, &BusinessUnit{ID: "bu-empty", Name: "Empty", AllocatedGPU: 5})

	g := Derive(c, CollapseOf("org-prod")).Organizations[1].BusinessUnitGroup
	if g == nil || g.Count() != 2 {
		t.Fatalf("BusinessUnitGroup = %+v, want 2 populated units", g)
	}
	for _, bu := range g.BusinessUnits {
		if bu.ID == "bu-empty" {
			t.Error("empty business unit included in group")
		}
	}
}

func TestDeriveNil(t *testing.T) {
	f := Derive(nil, nil)
	if len(f.ProjectRow()) != 0 || len(f.Organizations) != 0 {
		t.Error("nil cluster should derive an empty forest")
	}
}
