package graph

import (
	"fmt"

	"github.com/pthm/duotone/pkg/schemaop"
)

// Tag turns a split changeset into tagged units with dependency edges and
// appends them to g. name is the changeset's base name; emitted ids are
// name+"_blue", name+"_green", and name itself for the vanilla unit. At most
// one unit per non-empty bucket is emitted, in blue, green, vanilla order.
//
// Dependency rules:
//
//  1. The green unit depends on the blue unit from the same changeset: the
//     copied data must exist before cleanup removes its source.
//  2. Each emitted unit depends on the latest previously created unit
//     touching any of its targets, preserving per-object operation order.
//     For blue and vanilla units only non-green predecessors qualify; a
//     later additive or shared change can only touch objects that survive
//     the destructive phase, and this keeps blue-mode selection free of
//     direct green dependencies. The vanilla unit picks up an edge to its
//     own changeset's blue unit the same way when their targets overlap.
//  3. Units over disjoint targets carry no induced dependency beyond
//     creation order.
//
// Tag fails with ErrIncoherentPhasePair rather than emit an orphan green
// unit when the split pairs green operations with a blue half that is
// missing. On any error g is left unchanged and no units are returned.
func Tag(g *Graph, name string, res schemaop.SplitResult) ([]*Unit, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty changeset name", ErrDuplicateUnit)
	}
	if res.Paired && !res.HasBlue() {
		return nil, fmt.Errorf("%w: green half of %s has no blue counterpart", ErrIncoherentPhasePair, name)
	}

	var units []*Unit

	if res.HasBlue() {
		units = append(units, &Unit{
			ID:         name + BlueSuffix,
			Phase:      PhaseBlue,
			Operations: res.Blue,
		})
	}
	if res.HasGreen() {
		units = append(units, &Unit{
			ID:         name + GreenSuffix,
			Phase:      PhaseGreen,
			Operations: res.Green,
		})
	}
	if res.HasVanilla() {
		units = append(units, &Unit{
			ID:         name,
			Phase:      PhaseVanilla,
			Operations: res.Vanilla,
		})
	}

	// Pre-check id collisions so a failure cannot leave g partially grown.
	for _, u := range units {
		if g.Has(u.ID) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUnit, u.ID)
		}
	}

	for _, u := range units {
		u.DependsOn = targetDeps(g, u)
		if u.Phase == PhaseGreen && res.HasBlue() && !u.dependsOn(name+BlueSuffix) {
			u.DependsOn = append(u.DependsOn, name+BlueSuffix)
		}
		if err := g.Add(u); err != nil {
			return nil, err
		}
	}
	return units, nil
}

// targetDeps computes per-target dependency edges for u against the units
// already in g: one edge to the latest predecessor touching each of u's
// targets. Green units may follow green predecessors; blue and vanilla units
// only follow non-green ones.
func targetDeps(g *Graph, u *Unit) []string {
	keep := func(p *Unit) bool {
		if u.Phase == PhaseGreen {
			return true
		}
		return p.Phase != PhaseGreen
	}

	seen := make(map[string]bool)
	var deps []string
	for _, target := range u.Targets() {
		p := g.latestFor(target, keep)
		if p == nil || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		deps = append(deps, p.ID)
	}
	return deps
}
