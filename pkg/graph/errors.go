package graph

import "errors"

var (
	// ErrDuplicateUnit is returned when a unit id already exists in the
	// graph. Units are append-only; history is never rewritten.
	ErrDuplicateUnit = errors.New("duotone/graph: duplicate unit")

	// ErrUnknownDependency is returned when a unit depends on an id the
	// graph has never seen. Dependencies must point at previously created
	// units (temporal ordering).
	ErrUnknownDependency = errors.New("duotone/graph: unknown dependency")

	// ErrIncoherentPhasePair is returned by tagging when a green unit would
	// be emitted without the blue half it pairs with, e.g. after a prior
	// partial generation run. Emitting an orphan green unit would let
	// cleanup run before the data it removes has been copied.
	ErrIncoherentPhasePair = errors.New("duotone/graph: incoherent phase pair")

	// ErrCorruptGraph is returned by selection when the restricted graph
	// contains a cycle or a dangling edge. Structurally impossible for
	// graphs built through Tag, so it signals a manually edited or corrupt
	// migration store.
	ErrCorruptGraph = errors.New("duotone/graph: corrupt migration graph")

	// ErrUnresolvableDependency is returned by selection when the run mode
	// excludes a unit that an included unit directly requires and no sibling
	// phase run can satisfy it first. Signals a tagger bug or a manually
	// edited graph, not an operator error.
	ErrUnresolvableDependency = errors.New("duotone/graph: unresolvable dependency")

	// ErrConflictingModes is returned when both the blue and green run modes
	// are requested for one invocation.
	ErrConflictingModes = errors.New("duotone/graph: conflicting mode flags")
)
