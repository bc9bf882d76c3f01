package hierarchy

import (
	"github.com/matzehuels/gpuviz/pkg/errors"
)

// Validate rejects hierarchies that cannot be keyed as a graph: empty or
// duplicate ids, and a cluster without GPUs. Inconsistent allocations and
// dangling borrowing relations are not rejected here; they surface as
// diagnostics when the diagram is computed.
func Validate(c *Cluster) error {
	if c == nil {
		return errors.New(errors.ErrCodeInvalidHierarchy, "hierarchy is empty")
	}
	if c.TotalGPU <= 0 {
		return errors.New(errors.ErrCodeInvalidHierarchy, "cluster %q: totalGPU must be positive, got %g", c.ID, c.TotalGPU)
	}

	seen := make(map[string]string)
	check := func(kind, id string) error {
		if err := errors.ValidateNodeID(id); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidHierarchy, err, "%s id", kind)
		}
		if prev, dup := seen[id]; dup {
			return errors.New(errors.ErrCodeInvalidHierarchy, "duplicate id %q (%s and %s)", id, prev, kind)
		}
		seen[id] = kind
		return nil
	}

	if err := check("cluster", c.ID); err != nil {
		return err
	}
	for _, o := range c.Organizations {
		if o == nil {
			return errors.New(errors.ErrCodeInvalidHierarchy, "null organization")
		}
		if err := check("organization", o.ID); err != nil {
			return err
		}
		for _, p := range o.Projects {
			if p == nil {
				return errors.New(errors.ErrCodeInvalidHierarchy, "organization %q: null project", o.ID)
			}
			if err := check("project", p.ID); err != nil {
				return err
			}
		}
		for _, bu := range o.BusinessUnits {
			if bu == nil {
				return errors.New(errors.ErrCodeInvalidHierarchy, "organization %q: null business unit", o.ID)
			}
			if err := check("business unit", bu.ID); err != nil {
				return err
			}
			for _, p := range bu.Projects {
				if p == nil {
					return errors.New(errors.ErrCodeInvalidHierarchy, "business unit %q: null project", bu.ID)
				}
				if err := check("project", p.ID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
