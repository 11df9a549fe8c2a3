// Package record tracks which migration units have been applied to a target
// store.
//
// The store only records membership; it never interprets unit contents. Both
// operations are assumed atomic and durable from the caller's viewpoint.
// Callers must serialize runs against one store with an advisory lock (see
// pkg/lock): concurrent unprotected writers lose updates.
package record

import "context"

// Store is the applied-unit bookkeeping interface.
type Store interface {
	// IsApplied reports whether the unit has been durably applied.
	IsApplied(ctx context.Context, unitID string) (bool, error)

	// MarkApplied records the unit as applied. Idempotent.
	MarkApplied(ctx context.Context, unitID string) error

	// Applied returns the full applied set, keyed by unit id.
	Applied(ctx context.Context) (map[string]bool, error)
}
