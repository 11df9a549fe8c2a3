// Package main provides a CLI for blue/green schema migrations.
//
// The CLI supports:
//   - split: Decompose a changeset into phase-tagged migration units
//   - migrate: Apply pending units to a database, optionally phase-filtered
//   - status: Show applied and pending units per phase
//
// A blue/green rollout runs migrate twice around the application deploy:
// once with --blue before the new version starts (additive changes only),
// and once with --green after the old version stops (destructive changes).
//
// Usage:
//
//	duotone [flags] <command>
//
// Commands that require database access (migrate, status) need --db or a
// configured database. split only works with files.
package main

func main() {
	Execute()
}
