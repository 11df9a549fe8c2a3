// Package sqlgen renders schema operations into dialect-exact SQL.
//
// Rendering is deliberately plain string templating over validated, quoted
// identifiers: the emitted DDL is part of the operator-facing contract and
// must be auditable as text. All identifiers pass through Quote after
// ValidateIdentifier, so changeset input can never smuggle SQL fragments
// into a statement.
package sqlgen

import (
	"fmt"
	"strings"
)

// Dialect selects the SQL flavor statements are rendered for.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect normalizes a dialect string from flags or config.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case DialectPostgres:
		return DialectPostgres, nil
	case DialectMySQL:
		return DialectMySQL, nil
	case DialectSQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("%w: unknown dialect %q", ErrUnsupported, s)
	}
}

// Quote quotes a single identifier for the dialect. Callers must validate
// the identifier first; Quote does not reject bad input.
func (d Dialect) Quote(ident string) string {
	if d == DialectMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// Placeholder returns the i-th (1-based) bind placeholder for the dialect.
func (d Dialect) Placeholder(i int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// DeferrableConstraints reports whether the dialect can create a constraint
// in unenforced form and validate it later (Postgres NOT VALID).
func (d Dialect) DeferrableConstraints() bool {
	return d == DialectPostgres
}

// DriverName returns the database/sql driver name for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite3"
	default:
		return "postgres"
	}
}
