// Package schemaop models atomic schema-change operations and decides how
// they decompose into blue/green deployment phases.
//
// This package contains the two build-time decision pieces of duotone:
//
//  1. Classification (Classifier.Classify) - for a single operation, decide
//     whether it is separable into an additive half and a deferrable
//     destructive half, and if so produce the decomposition.
//  2. Splitting (Split) - for an ordered changeset, bucket the classified
//     halves into blue, green, and vanilla operation sequences.
//
// The additive half of a separable operation must be backward compatible from
// the perspective of application code that has not seen the destructive half;
// the destructive half must be safe to defer indefinitely. Operations that
// rewrite existing objects in place (type alterations, constraint
// alterations) have no such decomposition and stay inseparable.
//
// Everything here is pure computation over immutable Operation values; the
// graph package turns split results into persisted units, and the engine
// package applies operations to a live database.
package schemaop

import (
	"fmt"
	"strings"
)

// Kind identifies one atomic schema-change operation type.
type Kind string

const (
	KindCreateTable Kind = "create_table"
	KindDropTable   Kind = "drop_table"
	KindRenameTable Kind = "rename_table"

	KindAddColumn    Kind = "add_column"
	KindDropColumn   Kind = "drop_column"
	KindRenameColumn Kind = "rename_column"

	KindAddIndex    Kind = "add_index"
	KindDropIndex   Kind = "drop_index"
	KindRenameIndex Kind = "rename_index"

	KindAddConstraint      Kind = "add_constraint"
	KindValidateConstraint Kind = "validate_constraint"
	KindDropConstraint     Kind = "drop_constraint"
	KindAlterConstraint    Kind = "alter_constraint"

	KindAlterColumnType Kind = "alter_column_type"

	// KindCopyTable and KindCopyColumn are data-copy steps emitted by the
	// classifier when decomposing renames. They can also appear directly in a
	// changeset (e.g. a manual backfill).
	KindCopyTable  Kind = "copy_table"
	KindCopyColumn Kind = "copy_column"

	KindRawSQL Kind = "raw_sql"
)

// Column describes one column of a table definition.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable,omitempty"`
}

// Operation is one atomic schema change. Operations are immutable once
// created; the classifier derives new operations rather than editing inputs.
//
// Field usage is kind-specific:
//   - Table is the table acted on. For copy_table it is the target table and
//     Name is the source table.
//   - Name is the column, index, or constraint name.
//   - NewName is the rename target (rename_* kinds) or the destination
//     column for copy_column.
//   - Type and Nullable describe the column for add_column and
//     alter_column_type.
//   - Columns holds the table definition for create_table and rename_table,
//     the indexed columns for add_index, and the copied columns for
//     copy_table.
//   - Expr holds the constraint expression for add_constraint, or the raw
//     statement for raw_sql.
//   - Deferred marks an add_constraint created in unenforced (NOT VALID)
//     form, later enforced by validate_constraint.
type Operation struct {
	Kind     Kind     `json:"kind"`
	Table    string   `json:"table,omitempty"`
	Name     string   `json:"name,omitempty"`
	NewName  string   `json:"new_name,omitempty"`
	Type     string   `json:"type,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	Columns  []Column `json:"columns,omitempty"`
	Expr     string   `json:"expr,omitempty"`
	Deferred bool     `json:"deferred,omitempty"`
}

// Targets returns the schema objects this operation touches, as stable
// identifiers ("table" or "table.object"). The tagger uses target overlap to
// induce dependency edges between units; unrelated targets induce none.
func (o Operation) Targets() []string {
	switch o.Kind {
	case KindCreateTable, KindDropTable:
		return []string{o.Table}
	case KindRenameTable:
		return []string{o.Table, o.NewName}
	case KindCopyTable:
		// Name is the source table.
		return []string{o.Table, o.Name}
	case KindRenameColumn, KindRenameIndex, KindCopyColumn:
		return []string{o.Table, o.Table + "." + o.Name, o.Table + "." + o.NewName}
	case KindRawSQL:
		if o.Table == "" {
			return nil
		}
		return []string{o.Table}
	default:
		if o.Name == "" {
			return []string{o.Table}
		}
		return []string{o.Table, o.Table + "." + o.Name}
	}
}

// Describe returns a short human-readable form, e.g. "add_column: users.email".
func (o Operation) Describe() string {
	switch {
	case o.Kind == KindRawSQL:
		return string(o.Kind)
	case o.NewName != "" && o.Name != "":
		return fmt.Sprintf("%s: %s.%s -> %s", o.Kind, o.Table, o.Name, o.NewName)
	case o.NewName != "":
		return fmt.Sprintf("%s: %s -> %s", o.Kind, o.Table, o.NewName)
	case o.Name != "":
		return fmt.Sprintf("%s: %s.%s", o.Kind, o.Table, o.Name)
	default:
		return fmt.Sprintf("%s: %s", o.Kind, o.Table)
	}
}

// ColumnNames returns the names of the operation's Columns in order.
func (o Operation) ColumnNames() []string {
	if len(o.Columns) == 0 {
		return nil
	}
	names := make([]string, len(o.Columns))
	for i, c := range o.Columns {
		names[i] = c.Name
	}
	return names
}

// String implements fmt.Stringer for log and error output.
func (o Operation) String() string { return o.Describe() }

// knownKinds is the closed set of kinds the classifier understands. Anything
// outside it classifies as inseparable (fail-safe default).
var knownKinds = map[Kind]bool{
	KindCreateTable: true, KindDropTable: true, KindRenameTable: true,
	KindAddColumn: true, KindDropColumn: true, KindRenameColumn: true,
	KindAddIndex: true, KindDropIndex: true, KindRenameIndex: true,
	KindAddConstraint: true, KindValidateConstraint: true,
	KindDropConstraint: true, KindAlterConstraint: true,
	KindAlterColumnType: true,
	KindCopyTable:       true, KindCopyColumn: true,
	KindRawSQL: true,
}

// KnownKind reports whether k is part of the closed operation vocabulary.
func KnownKind(k Kind) bool { return knownKinds[k] }

// ParseKind normalizes and validates a kind string from external input.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !KnownKind(k) {
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, s)
	}
	return k, nil
}
