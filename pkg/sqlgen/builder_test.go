package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/duotone/pkg/schemaop"
)

func stmts(t *testing.T, d Dialect, op schemaop.Operation) []string {
	t.Helper()
	out, err := Builder{Dialect: d}.Statements(op)
	require.NoError(t, err)
	return out
}

func TestBuilder_CreateTable(t *testing.T) {
	op := schemaop.Operation{
		Kind:  schemaop.KindCreateTable,
		Table: "users",
		Columns: []schemaop.Column{
			{Name: "id", Type: "bigint"},
			{Name: "email", Type: "text", Nullable: true},
		},
	}

	assert.Equal(t,
		[]string{`CREATE TABLE "users" ("id" bigint NOT NULL, "email" text)`},
		stmts(t, DialectPostgres, op))
	assert.Equal(t,
		[]string{"CREATE TABLE `users` (`id` bigint NOT NULL, `email` text)"},
		stmts(t, DialectMySQL, op))
}

func TestBuilder_AddColumn(t *testing.T) {
	op := schemaop.Operation{Kind: schemaop.KindAddColumn, Table: "users", Name: "email", Type: "text", Nullable: true}
	assert.Equal(t, []string{`ALTER TABLE "users" ADD COLUMN "email" text`}, stmts(t, DialectPostgres, op))

	op.Nullable = false
	assert.Equal(t, []string{`ALTER TABLE "users" ADD COLUMN "email" text NOT NULL`}, stmts(t, DialectPostgres, op))
}

func TestBuilder_AlterColumnType(t *testing.T) {
	op := schemaop.Operation{Kind: schemaop.KindAlterColumnType, Table: "users", Name: "id", Type: "bigint"}

	assert.Equal(t, []string{`ALTER TABLE "users" ALTER COLUMN "id" TYPE bigint`}, stmts(t, DialectPostgres, op))
	assert.Equal(t, []string{"ALTER TABLE `users` MODIFY COLUMN `id` bigint"}, stmts(t, DialectMySQL, op))

	_, err := Builder{Dialect: DialectSQLite}.Statements(op)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBuilder_DropIndex(t *testing.T) {
	op := schemaop.Operation{Kind: schemaop.KindDropIndex, Table: "users", Name: "idx_users_email"}

	assert.Equal(t, []string{`DROP INDEX "idx_users_email"`}, stmts(t, DialectPostgres, op))
	// MySQL has no global index namespace.
	assert.Equal(t, []string{"DROP INDEX `idx_users_email` ON `users`"}, stmts(t, DialectMySQL, op))
}

func TestBuilder_DeferredConstraint(t *testing.T) {
	op := schemaop.Operation{
		Kind:     schemaop.KindAddConstraint,
		Table:    "users",
		Name:     "users_email_check",
		Expr:     "CHECK (email <> '')",
		Deferred: true,
	}

	assert.Equal(t,
		[]string{`ALTER TABLE "users" ADD CONSTRAINT "users_email_check" CHECK (email <> '') NOT VALID`},
		stmts(t, DialectPostgres, op))

	_, err := Builder{Dialect: DialectMySQL}.Statements(op)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBuilder_ValidateConstraint(t *testing.T) {
	op := schemaop.Operation{Kind: schemaop.KindValidateConstraint, Table: "users", Name: "users_email_check"}

	assert.Equal(t,
		[]string{`ALTER TABLE "users" VALIDATE CONSTRAINT "users_email_check"`},
		stmts(t, DialectPostgres, op))

	_, err := Builder{Dialect: DialectSQLite}.Statements(op)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestBuilder_AlterConstraintIsDropThenAdd(t *testing.T) {
	op := schemaop.Operation{
		Kind:  schemaop.KindAlterConstraint,
		Table: "users",
		Name:  "users_email_check",
		Expr:  "CHECK (length(email) > 3)",
	}

	assert.Equal(t, []string{
		`ALTER TABLE "users" DROP CONSTRAINT "users_email_check"`,
		`ALTER TABLE "users" ADD CONSTRAINT "users_email_check" CHECK (length(email) > 3)`,
	}, stmts(t, DialectPostgres, op))
}

func TestBuilder_CopyTable(t *testing.T) {
	op := schemaop.Operation{
		Kind:    schemaop.KindCopyTable,
		Table:   "accounts",
		Name:    "users",
		Columns: []schemaop.Column{{Name: "id"}, {Name: "email"}},
	}

	assert.Equal(t,
		[]string{`INSERT INTO "accounts" ("id", "email") SELECT "id", "email" FROM "users"`},
		stmts(t, DialectPostgres, op))
}

func TestBuilder_CopyColumn(t *testing.T) {
	op := schemaop.Operation{Kind: schemaop.KindCopyColumn, Table: "users", Name: "email", NewName: "contact_email"}

	assert.Equal(t,
		[]string{`UPDATE "users" SET "contact_email" = "email"`},
		stmts(t, DialectPostgres, op))
}

func TestBuilder_RawSQLPassesThrough(t *testing.T) {
	op := schemaop.Operation{Kind: schemaop.KindRawSQL, Expr: "VACUUM"}
	assert.Equal(t, []string{"VACUUM"}, stmts(t, DialectPostgres, op))
}

func TestBuilder_RejectsInvalidIdentifiers(t *testing.T) {
	tests := []schemaop.Operation{
		{Kind: schemaop.KindDropTable, Table: "users; DROP TABLE accounts"},
		{Kind: schemaop.KindAddColumn, Table: "users", Name: `email"`, Type: "text"},
		{Kind: schemaop.KindRenameColumn, Table: "users", Name: "email", NewName: "contact email"},
		{Kind: schemaop.KindCreateTable, Table: "users", Columns: []schemaop.Column{{Name: "1bad", Type: "text"}}},
	}

	for _, op := range tests {
		_, err := Builder{Dialect: DialectPostgres}.Statements(op)
		require.Error(t, err, "%v", op)
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect(" Postgres ")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)

	_, err = ParseDialect("oracle")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestDialectHelpers(t *testing.T) {
	assert.Equal(t, "$2", DialectPostgres.Placeholder(2))
	assert.Equal(t, "?", DialectMySQL.Placeholder(2))
	assert.True(t, DialectPostgres.DeferrableConstraints())
	assert.False(t, DialectSQLite.DeferrableConstraints())
	assert.Equal(t, "sqlite3", DialectSQLite.DriverName())
}
