package graph

import "fmt"

// Graph is the append-only set of migration units plus their dependency
// edges, forming a DAG. Acyclicity holds by construction: Add only accepts
// dependencies on units already present, so edges always point backwards in
// creation order.
type Graph struct {
	units []*Unit
	byID  map[string]*Unit
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{byID: make(map[string]*Unit)}
}

// Add appends a unit. The unit's Order is assigned here. Fails with
// ErrDuplicateUnit on id reuse and ErrUnknownDependency when a dependency
// does not name a previously added unit.
func (g *Graph) Add(u *Unit) error {
	if u.ID == "" {
		return fmt.Errorf("%w: empty id", ErrUnknownDependency)
	}
	if _, ok := g.byID[u.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUnit, u.ID)
	}
	for _, dep := range u.DependsOn {
		if _, ok := g.byID[dep]; !ok {
			return fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, u.ID, dep)
		}
	}
	u.Order = len(g.units)
	g.units = append(g.units, u)
	g.byID[u.ID] = u
	return nil
}

// Get returns the unit with the given id.
func (g *Graph) Get(id string) (*Unit, bool) {
	u, ok := g.byID[id]
	return u, ok
}

// Has reports whether a unit with the given id exists.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// Units returns all units in creation order. The returned slice is a copy;
// the units themselves are shared and must not be mutated.
func (g *Graph) Units() []*Unit {
	out := make([]*Unit, len(g.units))
	copy(out, g.units)
	return out
}

// Len returns the number of units.
func (g *Graph) Len() int { return len(g.units) }

// latestFor returns the most recently created unit touching target for which
// keep returns true, or nil.
func (g *Graph) latestFor(target string, keep func(*Unit) bool) *Unit {
	for i := len(g.units) - 1; i >= 0; i-- {
		u := g.units[i]
		if keep != nil && !keep(u) {
			continue
		}
		for _, t := range u.Targets() {
			if t == target {
				return u
			}
		}
	}
	return nil
}
