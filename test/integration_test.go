package test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/duotone/pkg/changeset"
	"github.com/pthm/duotone/pkg/engine"
	"github.com/pthm/duotone/pkg/graph"
	"github.com/pthm/duotone/pkg/lock"
	"github.com/pthm/duotone/pkg/manifest"
	"github.com/pthm/duotone/pkg/record"
	"github.com/pthm/duotone/pkg/runner"
	"github.com/pthm/duotone/pkg/schemaop"
	"github.com/pthm/duotone/pkg/sqlgen"
	"github.com/pthm/duotone/test/testutil"
)

// migrate selects and applies pending units for one mode, as the CLI would.
func migrate(t *testing.T, ctx context.Context, db engine.Execer, g *graph.Graph, store record.Store, mode graph.Mode) *runner.Result {
	t.Helper()

	applied, err := store.Applied(ctx)
	require.NoError(t, err)

	units, err := graph.Select(g, applied, mode)
	require.NoError(t, err)

	r := &runner.Runner{
		Engine:  engine.NewSQL(db, sqlgen.DialectPostgres),
		Records: store,
	}
	res, err := r.Run(ctx, units)
	require.NoError(t, err)
	return res
}

func TestBlueGreenRollout_RenameColumn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)

	_, err := db.ExecContext(ctx, `CREATE TABLE users (id bigint PRIMARY KEY, email text)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (1, 'a@example.com'), (2, 'b@example.com')`)
	require.NoError(t, err)

	cs, err := changeset.Parse([]byte(`
name: rename_email
operations:
  - kind: rename_column
    table: users
    name: email
    new_name: contact_email
    type: text
`))
	require.NoError(t, err)

	// Generate units and round-trip them through the migrations directory,
	// as split followed by migrate would.
	dir := t.TempDir()
	empty, err := manifest.Load(dir)
	require.NoError(t, err)

	classifier := schemaop.Classifier{DeferrableConstraints: sqlgen.DialectPostgres.DeferrableConstraints()}
	res := schemaop.Split(classifier, cs.Operations)
	name := manifest.NextName(empty, cs.Name)
	units, err := graph.Tag(empty, name, res)
	require.NoError(t, err)
	_, err = manifest.Write(dir, units)
	require.NoError(t, err)

	loaded, err := manifest.Load(dir)
	require.NoError(t, err)

	store, err := record.NewSQL(db, sqlgen.DialectPostgres, "")
	require.NoError(t, err)
	require.NoError(t, store.EnsureTable(ctx))

	// Blue phase: the new column exists with copied data, the old one is
	// untouched, so old application code keeps working.
	blueRes := migrate(t, ctx, db, loaded, store, graph.ModeBlue)
	assert.Equal(t, []string{"0001_rename_email_blue"}, blueRes.Applied)

	var email, contact string
	err = db.QueryRowContext(ctx, `SELECT email, contact_email FROM users WHERE id = 1`).Scan(&email, &contact)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
	assert.Equal(t, "a@example.com", contact)

	// Old code can still insert rows that only know the old column.
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (3, 'c@example.com')`)
	require.NoError(t, err)

	// Green phase: cleanup drops the old column.
	greenRes := migrate(t, ctx, db, loaded, store, graph.ModeGreen)
	assert.Equal(t, []string{"0001_rename_email_green"}, greenRes.Applied)

	err = db.QueryRowContext(ctx, `SELECT email FROM users WHERE id = 1`).Scan(&email)
	require.Error(t, err, "old column should be gone")

	err = db.QueryRowContext(ctx, `SELECT contact_email FROM users WHERE id = 2`).Scan(&contact)
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", contact)

	// Both phases are idempotent once recorded.
	again := migrate(t, ctx, db, loaded, store, graph.ModeGreen)
	assert.Empty(t, again.Applied)
}

func TestBlueGreenRollout_DeferredConstraint(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)

	_, err := db.ExecContext(ctx, `CREATE TABLE users (id bigint PRIMARY KEY, email text)`)
	require.NoError(t, err)
	// A row that violates the constraint being introduced.
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (1, '')`)
	require.NoError(t, err)

	classifier := schemaop.Classifier{DeferrableConstraints: true}
	res := schemaop.Split(classifier, []schemaop.Operation{
		{Kind: schemaop.KindAddConstraint, Table: "users", Name: "users_email_check", Expr: "CHECK (email <> '')"},
	})

	g := graph.New()
	_, err = graph.Tag(g, "0001_email_check", res)
	require.NoError(t, err)

	store, err := record.NewSQL(db, sqlgen.DialectPostgres, "")
	require.NoError(t, err)
	require.NoError(t, store.EnsureTable(ctx))

	// Blue creates the constraint NOT VALID: the violating legacy row does
	// not block it, but new violations are rejected immediately.
	migrate(t, ctx, db, g, store, graph.ModeBlue)

	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email) VALUES (2, '')`)
	require.Error(t, err, "new rows must satisfy the unenforced constraint")

	// Backfill, then green validates the constraint over existing rows.
	_, err = db.ExecContext(ctx, `UPDATE users SET email = 'fixed@example.com' WHERE email = ''`)
	require.NoError(t, err)

	greenRes := migrate(t, ctx, db, g, store, graph.ModeGreen)
	assert.Equal(t, []string{"0001_email_check_green"}, greenRes.Applied)
}

func TestSQLStore_Postgres(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutil.DB(t)

	store, err := record.NewSQL(db, sqlgen.DialectPostgres, "duotone_applied")
	require.NoError(t, err)
	require.NoError(t, store.EnsureTable(ctx))
	require.NoError(t, store.EnsureTable(ctx))

	require.NoError(t, store.MarkApplied(ctx, "0001_a_blue"))
	require.NoError(t, store.MarkApplied(ctx, "0001_a_blue"))

	applied, err := store.Applied(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"0001_a_blue": true}, applied)
}

func TestAdvisoryLock_MutualExclusion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, dsn := testutil.DBWithDSN(t)

	first, err := lock.NewPostgres(ctx, dsn, "duotone")
	require.NoError(t, err)
	defer func() { _ = first.Close(ctx) }()

	second, err := lock.NewPostgres(ctx, dsn, "duotone")
	require.NoError(t, err)
	defer func() { _ = second.Close(ctx) }()

	release, err := first.Acquire(ctx)
	require.NoError(t, err)

	// While the first holds the lock, a second acquire must block.
	blockedCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_, err = second.Acquire(blockedCtx)
	require.Error(t, err)

	require.NoError(t, release())

	// Cancellation mid-acquire may cost the session its connection, so the
	// post-release acquire uses a fresh locker.
	third, err := lock.NewPostgres(ctx, dsn, "duotone")
	require.NoError(t, err)
	defer func() { _ = third.Close(ctx) }()

	release3, err := third.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, release3())
}

func TestAdvisoryLock_DistinctNamesAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, dsn := testutil.DBWithDSN(t)

	first, err := lock.NewPostgres(ctx, dsn, "store_a")
	require.NoError(t, err)
	defer func() { _ = first.Close(ctx) }()

	second, err := lock.NewPostgres(ctx, dsn, "store_b")
	require.NoError(t, err)
	defer func() { _ = second.Close(ctx) }()

	release1, err := first.Acquire(ctx)
	require.NoError(t, err)
	defer func() { _ = release1() }()

	acquireCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	release2, err := second.Acquire(acquireCtx)
	require.NoError(t, err)
	require.NoError(t, release2())
}
