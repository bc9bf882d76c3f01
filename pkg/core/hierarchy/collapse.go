package hierarchy

import (
	"slices"
	"strings"
)

// Collapse maps an organization or business unit id to its collapsed flag.
// Missing keys are expanded. A Collapse value is never mutated by the
// engine; [Collapse.With] and [Collapse.Toggle] return modified copies.
type Collapse map[string]bool

// CollapseOf builds a Collapse with every id in ids collapsed.
func CollapseOf(ids ...string) Collapse {
	c := make(Collapse, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			c[id] = true
		}
	}
	return c
}

// IsCollapsed reports whether id is collapsed. A nil Collapse expands all.
func (c Collapse) IsCollapsed(id string) bool {
	return c[id]
}

// With returns a copy of c with id set to collapsed.
func (c Collapse) With(id string, collapsed bool) Collapse {
	out := c.Clone()
	if collapsed {
		out[id] = true
	} else {
		delete(out, id)
	}
	return out
}

// Toggle returns a copy of c with id flipped.
func (c Collapse) Toggle(id string) Collapse {
	return c.With(id, !c.IsCollapsed(id))
}

// Clone returns an independent copy holding only collapsed entries.
func (c Collapse) Clone() Collapse {
	out := make(Collapse, len(c))
	for id, v := range c {
		if v {
			out[id] = true
		}
	}
	return out
}

// IDs returns the collapsed ids sorted, which makes them usable in cache
// keys and stable output.
func (c Collapse) IDs() []string {
	ids := make([]string, 0, len(c))
	for id, v := range c {
		if v {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Equal reports whether both maps collapse exactly the same ids.
func (c Collapse) Equal(other Collapse) bool {
	return slices.Equal(c.IDs(), other.IDs())
}

// InitialCollapse collects the collapsed flags stored in the hierarchy
// itself. Loaders use it to seed a session's state.
func InitialCollapse(c *Cluster) Collapse {
	state := Collapse{}
	if c == nil {
		return state
	}
	for _, o := range c.Organizations {
		if o.Collapsed {
			state[o.ID] = true
		}
		for _, bu := range o.BusinessUnits {
			if bu.Collapsed {
				state[bu.ID] = true
			}
		}
	}
	return state
}
