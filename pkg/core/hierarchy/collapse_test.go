package hierarchy

import (
	"slices"
	"testing"
)

func TestCollapseNilExpandsAll(t *testing.T) {
	var c Collapse
	if c.IsCollapsed("org-prod") {
		t.Error("nil Collapse should expand everything")
	}
	if len(c.IDs()) != 0 {
		t.Errorf("IDs() = %v, want empty", c.IDs())
	}
}

func TestCollapseToggleReturnsCopy(t *testing.T) {
	base := CollapseOf("org-dev")
	next := base.Toggle("org-prod")

	if base.IsCollapsed("org-prod") {
		t.Error("Toggle mutated the receiver")
	}
	if !next.IsCollapsed("org-prod") || !next.IsCollapsed("org-dev") {
		t.Errorf("Toggle() = %v", next.IDs())
	}

	back := next.Toggle("org-prod")
	if !back.Equal(base) {
		t.Errorf("double toggle = %v, want %v", back.IDs(), base.IDs())
	}
}

func TestCollapseIDsSortedAndFiltered(t *testing.T) {
	c := Collapse{"b": true, "a": true, "z": false}
	if got := c.IDs(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("IDs() = %v", got)
	}
	if !c.Equal(CollapseOf("b", "a")) {
		t.Error("false entries should not affect equality")
	}
}

func TestCollapseOfTrims(t *testing.T) {
	c := CollapseOf(" org-dev ", "", "bu-ml")
	if got := c.IDs(); !slices.Equal(got, []string{"bu-ml", "org-dev"}) {
		t.Errorf("IDs() = %v", got)
	}
}

func TestInitialCollapse(t *testing.T) {
	c := Sample()
	c.Organizations[0].Collapsed = true
	c.Organizations[1].BusinessUnits[1].Collapsed = true

	got := InitialCollapse(c)
	if !slices.Equal(got.IDs(), []string{"bu-ml", "org-dev"}) {
		t.Errorf("InitialCollapse() = %v", got.IDs())
	}
	if len(InitialCollapse(nil)) != 0 {
		t.Error("nil cluster should have no collapsed ids")
	}
}
