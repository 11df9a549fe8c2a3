package graph

import "fmt"

// Mode restricts which phases one selector invocation may include.
// Modes are supplied per invocation and never persisted.
type Mode string

const (
	// ModeBlue selects blue and vanilla units.
	ModeBlue Mode = "blue"

	// ModeGreen selects green and vanilla units.
	ModeGreen Mode = "green"

	// ModeUnrestricted selects every pending unit.
	ModeUnrestricted Mode = "unrestricted"
)

// ParseMode maps the two mutually exclusive CLI flags onto a Mode. Both set
// fails with ErrConflictingModes; neither set means unrestricted.
func ParseMode(blue, green bool) (Mode, error) {
	switch {
	case blue && green:
		return "", ErrConflictingModes
	case blue:
		return ModeBlue, nil
	case green:
		return ModeGreen, nil
	default:
		return ModeUnrestricted, nil
	}
}

// Includes reports whether units of phase p run under this mode.
func (m Mode) Includes(p Phase) bool {
	switch m {
	case ModeBlue:
		return p != PhaseGreen
	case ModeGreen:
		return p != PhaseBlue
	default:
		return true
	}
}

// Select computes the ordered subset of pending units to apply for one run.
//
// The graph is restricted to units absent from applied and passing the mode
// predicate, then ordered topologically over the dependency edges within the
// surviving set. A dependency on a mode-excluded blue unit is treated as an
// already-satisfied precondition: the sibling blue-phase run applies it, and
// by convention runs first. A direct dependency on a pending green unit in
// blue mode can never be satisfied that way - green runs last - and fails
// with ErrUnresolvableDependency before anything is applied.
//
// Among units whose dependencies are all satisfied, ascending creation order
// decides, so repeated calls with identical inputs return identical
// sequences. A cycle in the restricted graph (impossible for graphs built
// through Tag, but checked defensively) fails with ErrCorruptGraph.
//
// Select never touches the target store; callers use the same computation
// for dry-run plan inspection.
func Select(g *Graph, applied map[string]bool, mode Mode) ([]*Unit, error) {
	var pending []*Unit
	for _, u := range g.Units() {
		if applied[u.ID] || !mode.Includes(u.Phase) {
			continue
		}
		pending = append(pending, u)
	}

	// Static checks before any ordering work: every edge must resolve, and
	// no included unit may directly require a pending green unit that this
	// mode excludes.
	for _, u := range pending {
		for _, dep := range u.DependsOn {
			d, ok := g.Get(dep)
			if !ok {
				return nil, fmt.Errorf("%w: %s depends on missing unit %s", ErrCorruptGraph, u.ID, dep)
			}
			if applied[d.ID] || mode.Includes(d.Phase) {
				continue
			}
			if d.Phase == PhaseGreen {
				return nil, fmt.Errorf("%w: %s requires green unit %s under %s mode", ErrUnresolvableDependency, u.ID, d.ID, mode)
			}
			// Pending blue dependency under green mode: satisfied by the
			// sibling blue run.
		}
	}

	satisfied := func(u *Unit, selected map[string]bool) bool {
		for _, dep := range u.DependsOn {
			d, _ := g.Get(dep)
			if applied[d.ID] || selected[d.ID] || !mode.Includes(d.Phase) {
				continue
			}
			return false
		}
		return true
	}

	// Kahn's algorithm over the restricted set. pending is already in
	// ascending creation order, so scanning it front to back for the first
	// ready unit yields the deterministic tie-break for free.
	selected := make(map[string]bool, len(pending))
	out := make([]*Unit, 0, len(pending))
	for len(out) < len(pending) {
		progressed := false
		for _, u := range pending {
			if selected[u.ID] || !satisfied(u, selected) {
				continue
			}
			selected[u.ID] = true
			out = append(out, u)
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("%w: dependency cycle among pending units", ErrCorruptGraph)
		}
	}
	return out, nil
}

// IDs returns the unit ids of a selection in order.
func IDs(units []*Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}
