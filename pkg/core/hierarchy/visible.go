package hierarchy

// GroupKind says which row a collapsed group stands in for.
type GroupKind int

const (
	// GroupProjects replaces hidden projects on the project row.
	GroupProjects GroupKind = iota
	// GroupBusinessUnits replaces hidden business units on the business-unit row.
	GroupBusinessUnits
)

func (k GroupKind) String() string {
	if k == GroupBusinessUnits {
		return "businessUnits"
	}
	return "projects"
}

// Id suffixes of synthetic group nodes.
const (
	BusinessUnitGroupSuffix = "-bu-group"
	ProjectGroupSuffix      = "-project-group"
)

// Group is a synthetic node standing in for a collapsed subtree's members
// on one row. OwnerID is the collapsed node; toggling it expands the group.
type Group struct {
	ID            string
	Kind          GroupKind
	OwnerID       string
	BusinessUnits []*BusinessUnit
	Projects      []*Project
}

// Count is the number of hidden members the group represents.
func (g *Group) Count() int {
	if g.Kind == GroupBusinessUnits {
		return len(g.BusinessUnits)
	}
	return len(g.Projects)
}

// VisibleBusinessUnit is a business unit that appears on the
// business-unit row, together with what is visible beneath it.
type VisibleBusinessUnit struct {
	Unit      *BusinessUnit
	Collapsed bool
	Projects  []*Project // nil when collapsed
	Group     *Group     // set when collapsed
}

// ChildIDs returns the ids on the project row owned by this business unit.
func (v *VisibleBusinessUnit) ChildIDs() []string {
	if v.Group != nil {
		return []string{v.Group.ID}
	}
	ids := make([]string, len(v.Projects))
	for i, p := range v.Projects {
		ids[i] = p.ID
	}
	return ids
}

// VisibleOrganization is an organization with its visible descendants.
//
// When the organization is collapsed, Projects and BusinessUnits are empty
// and up to two groups stand in for them. Business units without projects
// never appear since there is nothing to center them over.
type VisibleOrganization struct {
	Org           *Organization
	Collapsed     bool
	Projects      []*Project
	BusinessUnits []*VisibleBusinessUnit

	BusinessUnitGroup *Group
	ProjectGroup      *Group
}

// Forest is the visible view of a cluster under one collapse state. It is
// derived per call and shares the underlying tree without copying it.
type Forest struct {
	Cluster       *Cluster
	Organizations []*VisibleOrganization
}

// Derive computes the visible forest of c under state. A business unit's
// own collapse flag is ignored while its organization is collapsed.
func Derive(c *Cluster, state Collapse) *Forest {
	f := &Forest{Cluster: c}
	if c == nil {
		return f
	}
	for _, org := range c.Organizations {
		f.Organizations = append(f.Organizations, deriveOrg(org, state))
	}
	return f
}

func deriveOrg(org *Organization, state Collapse) *VisibleOrganization {
	vo := &VisibleOrganization{Org: org, Collapsed: state.IsCollapsed(org.ID)}
	if vo.Collapsed {
		if projects := org.AllProjects(); len(projects) > 0 {
			vo.ProjectGroup = &Group{
				ID:       org.ID + ProjectGroupSuffix,
				Kind:     GroupProjects,
				OwnerID:  org.ID,
				Projects: projects,
			}
			if units := populatedUnits(org); len(units) > 0 {
				vo.BusinessUnitGroup = &Group{
					ID:            org.ID + BusinessUnitGroupSuffix,
					Kind:          GroupBusinessUnits,
					OwnerID:       org.ID,
					BusinessUnits: units,
					Projects:      projects,
				}
			}
		}
		return vo
	}

	vo.Projects = org.Projects
	for _, bu := range org.BusinessUnits {
		if len(bu.Projects) == 0 {
			continue
		}
		vb := &VisibleBusinessUnit{Unit: bu, Collapsed: state.IsCollapsed(bu.ID)}
		if vb.Collapsed {
			vb.Group = &Group{
				ID:       bu.ID + ProjectGroupSuffix,
				Kind:     GroupProjects,
				OwnerID:  bu.ID,
				Projects: bu.Projects,
			}
		} else {
			vb.Projects = bu.Projects
		}
		vo.BusinessUnits = append(vo.BusinessUnits, vb)
	}
	return vo
}

// populatedUnits returns the business units of org that have projects,
// which are the only ones ever shown.
func populatedUnits(org *Organization) []*BusinessUnit {
	var units []*BusinessUnit
	for _, bu := range org.BusinessUnits {
		if len(bu.Projects) > 0 {
			units = append(units, bu)
		}
	}
	return units
}

// ProjectRow returns the ids occupying the project row, left to right:
// per organization its direct projects, then each business unit's projects
// or group.
func (f *Forest) ProjectRow() []string {
	var ids []string
	for _, vo := range f.Organizations {
		if vo.Collapsed {
			if vo.ProjectGroup != nil {
				ids = append(ids, vo.ProjectGroup.ID)
			}
			continue
		}
		for _, p := range vo.Projects {
			ids = append(ids, p.ID)
		}
		for _, vb := range vo.BusinessUnits {
			ids = append(ids, vb.ChildIDs()...)
		}
	}
	return ids
}

// IsVisible reports whether id is rendered as its own node.
func (f *Forest) IsVisible(id string) bool {
	if f.Cluster != nil && f.Cluster.ID == id {
		return true
	}
	for _, vo := range f.Organizations {
		if vo.Org.ID == id {
			return true
		}
		if vo.BusinessUnitGroup != nil && vo.BusinessUnitGroup.ID == id {
			return true
		}
		if vo.ProjectGroup != nil && vo.ProjectGroup.ID == id {
			return true
		}
		for _, p := range vo.Projects {
			if p.ID == id {
				return true
			}
		}
		for _, vb := range vo.BusinessUnits {
			if vb.Unit.ID == id {
				return true
			}
			for _, cid := range vb.ChildIDs() {
				if cid == id {
					return true
				}
			}
		}
	}
	return false
}

// VisibleBusinessUnits returns the ids of business units rendered as their
// own node, keyed for lookup.
func (f *Forest) VisibleBusinessUnits() map[string]bool {
	out := make(map[string]bool)
	for _, vo := range f.Organizations {
		for _, vb := range vo.BusinessUnits {
			out[vb.Unit.ID] = true
		}
	}
	return out
}
