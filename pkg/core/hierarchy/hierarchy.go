package hierarchy

// Cluster is the root of the hierarchy.
type Cluster struct {
	ID            string          `json:"id" toml:"id" bson:"id"`
	Name          string          `json:"name" toml:"name" bson:"name"`
	TotalGPU      float64         `json:"totalGPU" toml:"totalGPU" bson:"totalGPU"`
	Organizations []*Organization `json:"organizations" toml:"organizations" bson:"organizations"`
}

// Organization owns business units, direct projects and the borrowing
// relations between its business units.
type Organization struct {
	ID                 string              `json:"id" toml:"id" bson:"id"`
	Name               string              `json:"name" toml:"name" bson:"name"`
	AllocatedGPU       float64             `json:"allocatedGPU" toml:"allocatedGPU" bson:"allocatedGPU"`
	BusinessUnits      []*BusinessUnit     `json:"businessUnits" toml:"businessUnits" bson:"businessUnits"`
	Projects           []*Project          `json:"projects" toml:"projects" bson:"projects"`
	BorrowingRelations []BorrowingRelation `json:"borrowingRelations,omitempty" toml:"borrowingRelations,omitempty" bson:"borrowingRelations,omitempty"`

	// Collapsed is the initial collapse flag stored with the data; see
	// [InitialCollapse]. The engine itself only reads a [Collapse].
	Collapsed bool `json:"collapsed,omitempty" toml:"collapsed,omitempty" bson:"collapsed,omitempty"`
}

// BusinessUnit groups projects inside an organization.
type BusinessUnit struct {
	ID           string     `json:"id" toml:"id" bson:"id"`
	Name         string     `json:"name" toml:"name" bson:"name"`
	AllocatedGPU float64    `json:"allocatedGPU" toml:"allocatedGPU" bson:"allocatedGPU"`
	Projects     []*Project `json:"projects" toml:"projects" bson:"projects"`
	Collapsed    bool       `json:"collapsed,omitempty" toml:"collapsed,omitempty" bson:"collapsed,omitempty"`
}

// Project is a leaf. CurrentUsage may exceed AllocatedGPU when the owning
// business unit borrows capacity.
type Project struct {
	ID           string  `json:"id" toml:"id" bson:"id"`
	Name         string  `json:"name" toml:"name" bson:"name"`
	AllocatedGPU float64 `json:"allocatedGPU" toml:"allocatedGPU" bson:"allocatedGPU"`
	CurrentUsage float64 `json:"currentUsage" toml:"currentUsage" bson:"currentUsage"`
}

// BorrowingRelation lends BorrowedAmount percent (0-100) of the lender's
// allocation from business unit FromID to its sibling ToID.
type BorrowingRelation struct {
	FromID         string  `json:"fromId" toml:"fromId" bson:"fromId"`
	ToID           string  `json:"toId" toml:"toId" bson:"toId"`
	BorrowedAmount float64 `json:"borrowedAmount" toml:"borrowedAmount" bson:"borrowedAmount"`
}

// HasChildren reports whether anything renders below the organization.
// Business units without projects never render, so only projects count.
func (o *Organization) HasChildren() bool {
	return o.ProjectCount() > 0
}

// ProjectCount returns the number of projects under the organization,
// counting direct projects and those of every business unit.
func (o *Organization) ProjectCount() int {
	n := len(o.Projects)
	for _, bu := range o.BusinessUnits {
		n += len(bu.Projects)
	}
	return n
}

// AllProjects returns the organization's projects in traversal order:
// direct projects first, then each business unit's projects.
func (o *Organization) AllProjects() []*Project {
	out := make([]*Project, 0, o.ProjectCount())
	out = append(out, o.Projects...)
	for _, bu := range o.BusinessUnits {
		out = append(out, bu.Projects...)
	}
	return out
}

// BusinessUnit returns the business unit with the given id, or nil.
func (o *Organization) BusinessUnit(id string) *BusinessUnit {
	for _, bu := range o.BusinessUnits {
		if bu.ID == id {
			return bu
		}
	}
	return nil
}

// Usage sums CurrentUsage over the business unit's projects.
func (b *BusinessUnit) Usage() float64 {
	var sum float64
	for _, p := range b.Projects {
		sum += p.CurrentUsage
	}
	return sum
}

// Organization returns the organization with the given id, or nil.
func (c *Cluster) Organization(id string) *Organization {
	for _, o := range c.Organizations {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// ProjectCount returns the number of projects in the whole cluster.
func (c *Cluster) ProjectCount() int {
	n := 0
	for _, o := range c.Organizations {
		n += o.ProjectCount()
	}
	return n
}

// Usage sums CurrentUsage over every project of the cluster.
func (c *Cluster) Usage() float64 {
	var sum float64
	for _, o := range c.Organizations {
		for _, p := range o.AllProjects() {
			sum += p.CurrentUsage
		}
	}
	return sum
}

// Kind identifies the level a node id refers to.
type Kind int

const (
	KindUnknown Kind = iota
	KindCluster
	KindOrganization
	KindBusinessUnit
	KindProject
)

func (k Kind) String() string {
	switch k {
	case KindCluster:
		return "cluster"
	case KindOrganization:
		return "organization"
	case KindBusinessUnit:
		return "businessUnit"
	case KindProject:
		return "project"
	default:
		return "unknown"
	}
}

// KindOf reports which level id belongs to. Collapse toggles are only
// meaningful for organizations and business units.
func (c *Cluster) KindOf(id string) Kind {
	if c.ID == id {
		return KindCluster
	}
	for _, o := range c.Organizations {
		if o.ID == id {
			return KindOrganization
		}
		for _, p := range o.Projects {
			if p.ID == id {
				return KindProject
			}
		}
		for _, bu := range o.BusinessUnits {
			if bu.ID == id {
				return KindBusinessUnit
			}
			for _, p := range bu.Projects {
				if p.ID == id {
					return KindProject
				}
			}
		}
	}
	return KindUnknown
}

// Collapsible reports whether id names an organization or business unit
// that has children, i.e. one that would carry a collapse toggle.
func (c *Cluster) Collapsible(id string) bool {
	for _, o := range c.Organizations {
		if o.ID == id {
			return o.HasChildren()
		}
		if bu := o.BusinessUnit(id); bu != nil {
			return len(bu.Projects) > 0
		}
	}
	return false
}
