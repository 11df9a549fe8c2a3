// Package graph holds the durable migration-unit graph and the two run-time
// decision pieces of duotone: tagging (turning a split changeset into units
// with dependency edges) and phase-filtered selection (computing the ordered
// subset of pending units for a given run mode).
//
// The graph is an append-only arena of immutable units indexed by stable
// string ids, with dependency edges as id sets. New units may be added in
// later generation passes; existing units and edges are never edited or
// removed, matching migration-file semantics.
package graph

import "github.com/pthm/duotone/pkg/schemaop"

// Phase tags a unit with the deployment environment that runs it.
type Phase string

const (
	// PhaseBlue units carry additive, backward-compatible changes and run
	// while old application code is still serving.
	PhaseBlue Phase = "blue"

	// PhaseGreen units carry deferred destructive cleanup and run once the
	// new application code has fully cut over.
	PhaseGreen Phase = "green"

	// PhaseVanilla units carry inseparable changes and run in either
	// environment.
	PhaseVanilla Phase = "vanilla"
)

// Id suffixes for phase units derived from one changeset; a vanilla unit
// keeps the bare changeset name.
const (
	BlueSuffix  = "_blue"
	GreenSuffix = "_green"
)

// Unit is a named, ordered batch of operations sharing one phase tag.
// Units are immutable after creation.
type Unit struct {
	// ID is the unique, stable unit identifier.
	ID string

	// Phase is the deployment phase this unit belongs to.
	Phase Phase

	// Operations is the ordered operation batch applied as one unit.
	Operations []schemaop.Operation

	// DependsOn lists unit ids that must be applied (in this run or a
	// sibling phase run) before this unit.
	DependsOn []string

	// Order is the creation index within the graph, assigned by Graph.Add.
	// Selection uses it as the deterministic tie-break.
	Order int
}

// Targets returns the schema objects this unit's operations touch.
func (u *Unit) Targets() []string {
	return schemaop.Targets(u.Operations)
}

// dependsOn reports whether id is a direct dependency of u.
func (u *Unit) dependsOn(id string) bool {
	for _, d := range u.DependsOn {
		if d == id {
			return true
		}
	}
	return false
}
