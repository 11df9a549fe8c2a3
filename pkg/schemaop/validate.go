package schemaop

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation is returned when an operation is structurally invalid
// for its kind (missing table, missing rename target, and so on).
var ErrInvalidOperation = errors.New("duotone/schemaop: invalid operation")

// Validate checks kind-specific required fields. It does not consult the
// database; existence of tables and columns is the engine's concern.
func (o Operation) Validate() error {
	if !KnownKind(o.Kind) {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOperation, o.Kind)
	}
	if o.Kind != KindRawSQL && o.Table == "" {
		return fmt.Errorf("%w: %s requires a table", ErrInvalidOperation, o.Kind)
	}

	switch o.Kind {
	case KindCreateTable:
		if len(o.Columns) == 0 {
			return fmt.Errorf("%w: create_table %s has no columns", ErrInvalidOperation, o.Table)
		}
	case KindRenameTable:
		if o.NewName == "" {
			return fmt.Errorf("%w: rename_table %s requires new_name", ErrInvalidOperation, o.Table)
		}
	case KindAddColumn, KindAlterColumnType:
		if o.Name == "" || o.Type == "" {
			return fmt.Errorf("%w: %s on %s requires name and type", ErrInvalidOperation, o.Kind, o.Table)
		}
	case KindDropColumn, KindDropIndex, KindDropConstraint, KindValidateConstraint, KindAlterConstraint:
		if o.Name == "" {
			return fmt.Errorf("%w: %s on %s requires name", ErrInvalidOperation, o.Kind, o.Table)
		}
	case KindRenameColumn, KindRenameIndex:
		if o.Name == "" || o.NewName == "" {
			return fmt.Errorf("%w: %s on %s requires name and new_name", ErrInvalidOperation, o.Kind, o.Table)
		}
		if o.Kind == KindRenameColumn && o.Type == "" {
			// The additive half re-creates the column, so the changeset must
			// state its type.
			return fmt.Errorf("%w: rename_column %s.%s requires type", ErrInvalidOperation, o.Table, o.Name)
		}
	case KindAddIndex:
		if o.Name == "" || len(o.Columns) == 0 {
			return fmt.Errorf("%w: add_index on %s requires name and columns", ErrInvalidOperation, o.Table)
		}
	case KindAddConstraint:
		if o.Name == "" || o.Expr == "" {
			return fmt.Errorf("%w: add_constraint on %s requires name and expr", ErrInvalidOperation, o.Table)
		}
	case KindCopyColumn:
		if o.Name == "" || o.NewName == "" {
			return fmt.Errorf("%w: copy_column on %s requires name and new_name", ErrInvalidOperation, o.Table)
		}
	case KindCopyTable:
		if o.Name == "" || len(o.Columns) == 0 {
			return fmt.Errorf("%w: copy_table into %s requires source name and columns", ErrInvalidOperation, o.Table)
		}
	case KindRawSQL:
		if o.Expr == "" {
			return fmt.Errorf("%w: raw_sql requires expr", ErrInvalidOperation)
		}
	}
	return nil
}
