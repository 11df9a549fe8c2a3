package schemaop

// Decomposition is the result of classifying one operation.
//
// Separable operations carry an additive half (backward compatible, runs in
// the blue phase) and a destructive half (deferrable cleanup, runs in the
// green phase). Either half may be empty: a plain add_column is all additive,
// a plain drop_table is all destructive. Inseparable operations carry
// neither; they run as-is in a vanilla unit shared by both environments.
type Decomposition struct {
	Separable   bool
	Additive    []Operation
	Destructive []Operation
}

// Inseparable is the zero Decomposition, returned for operations with no
// safe blue/green staging.
var Inseparable = Decomposition{}

// Classifier decides how operations decompose into deployment phases.
//
// The decomposition rules form a fixed table keyed by Kind. Classification is
// deterministic and total: every kind maps to exactly one rule, and kinds
// without a rule - including kinds added to the vocabulary later - fall
// through to Inseparable. The default is fail-safe, never fail-open: an
// unrecognized operation is never given a fabricated decomposition.
type Classifier struct {
	// DeferrableConstraints enables the two-step constraint split (create
	// unenforced, validate later). Postgres supports this via NOT VALID;
	// MySQL and SQLite do not, so constraint additions stay inseparable
	// there.
	DeferrableConstraints bool
}

// Classify decomposes a single operation. Pure function: no side effects,
// and op is never mutated.
func (c Classifier) Classify(op Operation) Decomposition {
	switch op.Kind {
	case KindCreateTable, KindAddColumn, KindAddIndex, KindCopyTable, KindCopyColumn:
		// Purely additive: old code ignores the new object entirely.
		return Decomposition{Separable: true, Additive: []Operation{op}}

	case KindDropTable, KindDropIndex, KindDropConstraint, KindDropColumn:
		// Purely destructive: nothing to stage, the drop itself defers to
		// the green phase. Until then both old and new code see the object.
		return Decomposition{Separable: true, Destructive: []Operation{op}}

	case KindRenameColumn:
		// Add the new column, copy values across, drop the old one later.
		// The new column is forced nullable so rows written by old code
		// (which only knows the old column) remain valid during the window.
		add := Operation{
			Kind:     KindAddColumn,
			Table:    op.Table,
			Name:     op.NewName,
			Type:     op.Type,
			Nullable: true,
		}
		cp := Operation{
			Kind:    KindCopyColumn,
			Table:   op.Table,
			Name:    op.Name,
			NewName: op.NewName,
		}
		drop := Operation{Kind: KindDropColumn, Table: op.Table, Name: op.Name}
		return Decomposition{
			Separable:   true,
			Additive:    []Operation{add, cp},
			Destructive: []Operation{drop},
		}

	case KindRenameTable:
		// Create the new table with the same definition, copy rows, drop
		// the old table once the green environment has cut over.
		create := Operation{Kind: KindCreateTable, Table: op.NewName, Columns: op.Columns}
		cp := Operation{Kind: KindCopyTable, Table: op.NewName, Name: op.Table, Columns: op.Columns}
		drop := Operation{Kind: KindDropTable, Table: op.Table}
		return Decomposition{
			Separable:   true,
			Additive:    []Operation{create, cp},
			Destructive: []Operation{drop},
		}

	case KindRenameIndex:
		add := Operation{Kind: KindAddIndex, Table: op.Table, Name: op.NewName, Columns: op.Columns}
		drop := Operation{Kind: KindDropIndex, Table: op.Table, Name: op.Name}
		return Decomposition{
			Separable:   true,
			Additive:    []Operation{add},
			Destructive: []Operation{drop},
		}

	case KindAddConstraint:
		if !c.DeferrableConstraints {
			return Inseparable
		}
		// Create the constraint unenforced so existing rows written by old
		// code are not rejected; enforcement is the deferred half.
		deferred := op
		deferred.Deferred = true
		validate := Operation{Kind: KindValidateConstraint, Table: op.Table, Name: op.Name}
		return Decomposition{
			Separable:   true,
			Additive:    []Operation{deferred},
			Destructive: []Operation{validate},
		}

	case KindAlterColumnType, KindAlterConstraint:
		// In-place rewrites: the old and new representations cannot both be
		// valid concurrently, so no decomposition exists.
		return Inseparable

	case KindValidateConstraint, KindRawSQL:
		return Inseparable

	default:
		// Fail-safe default for kinds outside the table.
		return Inseparable
	}
}

// InseparableOps returns the operations in ops that classify as inseparable,
// preserving order. Used to report why a changeset cannot be fully staged.
func (c Classifier) InseparableOps(ops []Operation) []Operation {
	var out []Operation
	for _, op := range ops {
		if !c.Classify(op).Separable {
			out = append(out, op)
		}
	}
	return out
}
