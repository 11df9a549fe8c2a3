package schemaop

// SplitResult groups a changeset's operations by deployment phase.
//
// Relative order within each bucket matches the changeset's original
// operation order. Empty buckets mean no unit of that phase is emitted.
type SplitResult struct {
	Blue    []Operation
	Green   []Operation
	Vanilla []Operation

	// Paired reports whether any single operation contributed both an
	// additive and a destructive half. When true, the green unit is only
	// coherent together with its blue counterpart; the tagger refuses to
	// emit an orphan green unit.
	Paired bool
}

// HasBlue reports whether the blue bucket is non-empty.
func (r SplitResult) HasBlue() bool { return len(r.Blue) > 0 }

// HasGreen reports whether the green bucket is non-empty.
func (r SplitResult) HasGreen() bool { return len(r.Green) > 0 }

// HasVanilla reports whether the vanilla bucket is non-empty.
func (r SplitResult) HasVanilla() bool { return len(r.Vanilla) > 0 }

// Split classifies each operation of a changeset in order and buckets the
// resulting halves.
//
// Separable operations contribute their additive half to Blue and their
// destructive half to Green; inseparable operations land in Vanilla
// unchanged. A changeset with no separable operations yields only Vanilla; a
// fully separable changeset yields no Vanilla. Ordering across buckets is
// expressed later as dependency edges between the emitted units, not by
// interleaving here.
func Split(c Classifier, ops []Operation) SplitResult {
	var res SplitResult
	for _, op := range ops {
		d := c.Classify(op)
		if !d.Separable {
			res.Vanilla = append(res.Vanilla, op)
			continue
		}
		res.Blue = append(res.Blue, d.Additive...)
		res.Green = append(res.Green, d.Destructive...)
		if len(d.Additive) > 0 && len(d.Destructive) > 0 {
			res.Paired = true
		}
	}
	return res
}

// Targets returns the union of targets touched by the given operations,
// in first-seen order.
func Targets(ops []Operation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, op := range ops {
		for _, t := range op.Targets() {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
