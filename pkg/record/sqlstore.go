package record

import (
	"context"
	"fmt"

	"github.com/pthm/duotone/pkg/engine"
	"github.com/pthm/duotone/pkg/sqlgen"
)

// DefaultTable is the applied-units table name unless overridden.
const DefaultTable = "duotone_applied"

// SQLStore keeps the applied set in a table alongside the migrated schema,
// so bookkeeping shares the target store's durability.
type SQLStore struct {
	db      engine.Execer
	dialect sqlgen.Dialect
	table   string
}

// NewSQL returns a store over db. table may be empty for DefaultTable; it is
// validated as an identifier since it is interpolated into statements.
func NewSQL(db engine.Execer, dialect sqlgen.Dialect, table string) (*SQLStore, error) {
	if table == "" {
		table = DefaultTable
	}
	if err := sqlgen.ValidateIdentifier(table, "record table"); err != nil {
		return nil, err
	}
	return &SQLStore{db: db, dialect: dialect, table: table}, nil
}

// EnsureTable creates the bookkeeping table if it does not exist.
// Idempotent; safe to call on every invocation.
func (s *SQLStore) EnsureTable(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case sqlgen.DialectMySQL:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    unit_id VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
)`, s.quoted())
	case sqlgen.DialectSQLite:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    unit_id TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`, s.quoted())
	default:
		ddl = fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    unit_id TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, s.quoted())
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating %s: %w", s.table, err)
	}
	return nil
}

func (s *SQLStore) IsApplied(ctx context.Context, unitID string) (bool, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE unit_id = %s", s.quoted(), s.dialect.Placeholder(1))
	var n int
	if err := s.db.QueryRowContext(ctx, query, unitID).Scan(&n); err != nil {
		return false, fmt.Errorf("checking %s: %w", unitID, err)
	}
	return n > 0, nil
}

func (s *SQLStore) MarkApplied(ctx context.Context, unitID string) error {
	var query string
	switch s.dialect {
	case sqlgen.DialectMySQL:
		query = fmt.Sprintf("INSERT IGNORE INTO %s (unit_id) VALUES (%s)", s.quoted(), s.dialect.Placeholder(1))
	case sqlgen.DialectSQLite:
		query = fmt.Sprintf("INSERT OR IGNORE INTO %s (unit_id) VALUES (%s)", s.quoted(), s.dialect.Placeholder(1))
	default:
		query = fmt.Sprintf("INSERT INTO %s (unit_id) VALUES (%s) ON CONFLICT (unit_id) DO NOTHING", s.quoted(), s.dialect.Placeholder(1))
	}
	if _, err := s.db.ExecContext(ctx, query, unitID); err != nil {
		return fmt.Errorf("recording %s: %w", unitID, err)
	}
	return nil
}

func (s *SQLStore) Applied(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT unit_id FROM %s", s.quoted()))
	if err != nil {
		return nil, fmt.Errorf("listing applied units: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning unit id: %w", err)
		}
		applied[id] = true
	}
	return applied, rows.Err()
}

func (s *SQLStore) quoted() string {
	return s.dialect.Quote(s.table)
}
