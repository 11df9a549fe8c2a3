// Package engine applies individual schema operations to a live database.
//
// The engine is the one piece of duotone that touches the target store's
// schema. It is deliberately thin: rendering is sqlgen's job, sequencing and
// bookkeeping are the runner's. Callers that need different execution
// semantics (tests, other backends) implement Engine themselves.
package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pthm/duotone/pkg/schemaop"
	"github.com/pthm/duotone/pkg/sqlgen"
)

// Engine applies one atomic schema operation to the target store.
type Engine interface {
	Apply(ctx context.Context, op schemaop.Operation) error
}

// Execer is the minimal interface needed to execute schema statements.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ExecutionError wraps a database failure while applying one operation. The
// underlying error is opaque to duotone and propagated unchanged; it is
// fatal to the current run.
type ExecutionError struct {
	Op        schemaop.Operation
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Op.Describe(), e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// SQL is the database-backed engine. It renders each operation for its
// dialect and executes the resulting statements in order.
type SQL struct {
	db      Execer
	builder sqlgen.Builder
}

// NewSQL returns an engine applying operations through db.
func NewSQL(db Execer, dialect sqlgen.Dialect) *SQL {
	return &SQL{db: db, builder: sqlgen.Builder{Dialect: dialect}}
}

// Apply renders and executes op, aborting on the first failed statement.
func (e *SQL) Apply(ctx context.Context, op schemaop.Operation) error {
	stmts, err := e.builder.Statements(op)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := e.db.ExecContext(ctx, stmt); err != nil {
			return &ExecutionError{Op: op, Statement: stmt, Err: err}
		}
	}
	return nil
}
