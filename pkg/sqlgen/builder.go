package sqlgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm/duotone/pkg/schemaop"
)

var (
	// ErrUnsupported is returned when an operation has no rendering for the
	// target dialect (e.g. altering a column type on SQLite).
	ErrUnsupported = errors.New("duotone/sqlgen: unsupported for dialect")

	// ErrInvalidIdentifier is returned when an identifier fails validation.
	ErrInvalidIdentifier = errors.New("duotone/sqlgen: invalid identifier")
)

// Builder renders operations into SQL statements for one dialect.
type Builder struct {
	Dialect Dialect
}

// Statements renders op into the ordered SQL statements that apply it.
// Most operations render to a single statement; alter_constraint renders to
// a drop followed by a re-add.
func (b Builder) Statements(op schemaop.Operation) ([]string, error) {
	if err := b.validateIdentifiers(op); err != nil {
		return nil, err
	}
	q := b.Dialect.Quote

	switch op.Kind {
	case schemaop.KindCreateTable:
		return []string{b.createTable(op)}, nil

	case schemaop.KindDropTable:
		return []string{fmt.Sprintf("DROP TABLE %s", q(op.Table))}, nil

	case schemaop.KindRenameTable:
		return []string{fmt.Sprintf("ALTER TABLE %s RENAME TO %s", q(op.Table), q(op.NewName))}, nil

	case schemaop.KindAddColumn:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", q(op.Table), q(op.Name), op.Type)
		if !op.Nullable {
			stmt += " NOT NULL"
		}
		return []string{stmt}, nil

	case schemaop.KindDropColumn:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", q(op.Table), q(op.Name))}, nil

	case schemaop.KindRenameColumn:
		return []string{fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", q(op.Table), q(op.Name), q(op.NewName))}, nil

	case schemaop.KindAlterColumnType:
		switch b.Dialect {
		case DialectPostgres:
			return []string{fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", q(op.Table), q(op.Name), op.Type)}, nil
		case DialectMySQL:
			return []string{fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", q(op.Table), q(op.Name), op.Type)}, nil
		default:
			return nil, fmt.Errorf("%w: %s cannot alter column types in place", ErrUnsupported, b.Dialect)
		}

	case schemaop.KindAddIndex:
		cols := b.quotedList(op.ColumnNames())
		return []string{fmt.Sprintf("CREATE INDEX %s ON %s (%s)", q(op.Name), q(op.Table), cols)}, nil

	case schemaop.KindDropIndex:
		if b.Dialect == DialectMySQL {
			return []string{fmt.Sprintf("DROP INDEX %s ON %s", q(op.Name), q(op.Table))}, nil
		}
		return []string{fmt.Sprintf("DROP INDEX %s", q(op.Name))}, nil

	case schemaop.KindRenameIndex:
		switch b.Dialect {
		case DialectPostgres:
			return []string{fmt.Sprintf("ALTER INDEX %s RENAME TO %s", q(op.Name), q(op.NewName))}, nil
		case DialectMySQL:
			return []string{fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s", q(op.Table), q(op.Name), q(op.NewName))}, nil
		default:
			return nil, fmt.Errorf("%w: %s cannot rename indexes in place", ErrUnsupported, b.Dialect)
		}

	case schemaop.KindAddConstraint:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", q(op.Table), q(op.Name), op.Expr)
		if op.Deferred {
			if !b.Dialect.DeferrableConstraints() {
				return nil, fmt.Errorf("%w: %s cannot defer constraint enforcement", ErrUnsupported, b.Dialect)
			}
			stmt += " NOT VALID"
		}
		return []string{stmt}, nil

	case schemaop.KindValidateConstraint:
		if !b.Dialect.DeferrableConstraints() {
			return nil, fmt.Errorf("%w: %s cannot validate constraints separately", ErrUnsupported, b.Dialect)
		}
		return []string{fmt.Sprintf("ALTER TABLE %s VALIDATE CONSTRAINT %s", q(op.Table), q(op.Name))}, nil

	case schemaop.KindDropConstraint:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", q(op.Table), q(op.Name))}, nil

	case schemaop.KindAlterConstraint:
		if op.Expr == "" {
			return nil, fmt.Errorf("%w: alter_constraint on %s requires the new definition", ErrUnsupported, op.Table)
		}
		return []string{
			fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", q(op.Table), q(op.Name)),
			fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", q(op.Table), q(op.Name), op.Expr),
		}, nil

	case schemaop.KindCopyTable:
		cols := b.quotedList(op.ColumnNames())
		// op.Name is the source table.
		return []string{fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", q(op.Table), cols, cols, q(op.Name))}, nil

	case schemaop.KindCopyColumn:
		return []string{fmt.Sprintf("UPDATE %s SET %s = %s", q(op.Table), q(op.NewName), q(op.Name))}, nil

	case schemaop.KindRawSQL:
		return []string{op.Expr}, nil

	default:
		return nil, fmt.Errorf("%w: no rendering for kind %q", ErrUnsupported, op.Kind)
	}
}

func (b Builder) createTable(op schemaop.Operation) string {
	defs := make([]string, len(op.Columns))
	for i, c := range op.Columns {
		def := fmt.Sprintf("%s %s", b.Dialect.Quote(c.Name), c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		defs[i] = def
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", b.Dialect.Quote(op.Table), strings.Join(defs, ", "))
}

func (b Builder) quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = b.Dialect.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

// validateIdentifiers rejects any identifier-bearing field that fails
// validation before it reaches a statement. Type and Expr are not
// identifiers and are rendered as given; changesets are trusted to the same
// degree migration files are.
func (b Builder) validateIdentifiers(op schemaop.Operation) error {
	if op.Kind == schemaop.KindRawSQL {
		return nil
	}
	if err := ValidateIdentifier(op.Table, "table"); err != nil {
		return err
	}
	if op.Name != "" {
		if err := ValidateIdentifier(op.Name, "name"); err != nil {
			return err
		}
	}
	if op.NewName != "" {
		if err := ValidateIdentifier(op.NewName, "new_name"); err != nil {
			return err
		}
	}
	for _, c := range op.Columns {
		if err := ValidateIdentifier(c.Name, "column"); err != nil {
			return err
		}
	}
	return nil
}
