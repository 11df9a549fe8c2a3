package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pthm/duotone/internal/cli"
	"github.com/pthm/duotone/pkg/engine"
	"github.com/pthm/duotone/pkg/graph"
	"github.com/pthm/duotone/pkg/lock"
	"github.com/pthm/duotone/pkg/manifest"
	"github.com/pthm/duotone/pkg/record"
	"github.com/pthm/duotone/pkg/runner"
	"github.com/pthm/duotone/pkg/sqlgen"
)

var (
	migrateDB      string
	migrateDir     string
	migrateDialect string
	migrateBlue    bool
	migrateGreen   bool
	migratePlan    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending migration units to a database",
	Long: `Apply pending migration units in dependency order.

Without a phase flag every pending unit is applied (an unrestricted run,
suitable for downtime windows and development databases). With --blue only
additive units run; with --green only destructive cleanup units run. Vanilla
units run in both phase modes.`,
	Example: `  # Apply every pending unit
  duotone migrate --db postgres://localhost/mydb

  # Blue phase: additive units, before deploying the new version
  duotone migrate --db postgres://localhost/mydb --blue

  # Green phase: destructive units, after the old version has stopped
  duotone migrate --db postgres://localhost/mydb --green

  # Show the plan without applying anything
  duotone migrate --db postgres://localhost/mydb --blue --plan`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveString(migrateDir, cfg.Migrate.MigrationsDir, cfg.MigrationsDir)

		mode, err := graph.ParseMode(migrateBlue, migrateGreen)
		if err != nil {
			return cli.GeneralError("selecting phase", err)
		}

		dialect, err := sqlgen.ParseDialect(resolveString(migrateDialect, cfg.Dialect))
		if err != nil {
			return cli.ConfigError("dialect", err)
		}

		dsn, err := resolveDSN(migrateDB)
		if err != nil {
			return err
		}

		return runMigrate(dsn, dir, dialect, mode, migratePlan)
	},
}

func init() {
	f := migrateCmd.Flags()
	f.StringVar(&migrateDB, "db", "", "database URL")
	f.StringVar(&migrateDir, "dir", "", "migrations directory")
	f.StringVar(&migrateDialect, "dialect", "", "target SQL dialect (postgres, mysql, sqlite)")
	f.BoolVar(&migrateBlue, "blue", false, "apply only blue (additive) and vanilla units")
	f.BoolVar(&migrateGreen, "green", false, "apply only green (destructive) and vanilla units")
	f.BoolVar(&migratePlan, "plan", false, "print the selected units without applying them")
	migrateCmd.MarkFlagsMutuallyExclusive("blue", "green")
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	if dsn == "" {
		return "", cli.ConfigError("database URL is required (use --db or set in config)", nil)
	}
	return dsn, nil
}

func runMigrate(dsn, dir string, dialect sqlgen.Dialect, mode graph.Mode, plan bool) error {
	g, err := manifest.Load(dir)
	if err != nil {
		return cli.GeneralError("loading migrations", err)
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return cli.DBConnectError("connecting to database", err)
	}

	locker, closeLock, err := newLocker(ctx, dialect, dsn)
	if err != nil {
		return cli.DBConnectError("preparing migration lock", err)
	}
	defer closeLock()

	release, err := locker.Acquire(ctx)
	if err != nil {
		return cli.GeneralError("acquiring migration lock", err)
	}
	defer func() { _ = release() }()

	store, err := record.NewSQL(db, dialect, cfg.Migrate.RecordTable)
	if err != nil {
		return cli.ConfigError("record table", err)
	}
	if err := store.EnsureTable(ctx); err != nil {
		return cli.GeneralError("preparing record table", err)
	}

	applied, err := store.Applied(ctx)
	if err != nil {
		return cli.GeneralError("reading applied units", err)
	}

	units, err := graph.Select(g, applied, mode)
	if err != nil {
		return cli.GeneralError("selecting units", err)
	}

	if plan {
		if len(units) == 0 {
			fmt.Printf("Nothing to apply (%s mode, %d units already applied).\n", mode, len(applied))
			return nil
		}
		fmt.Printf("Plan (%s mode):\n", mode)
		for i, u := range units {
			fmt.Printf("  %d. %s (%s, %d operations)\n", i+1, u.ID, u.Phase, len(u.Operations))
		}
		return nil
	}

	if len(units) == 0 {
		if !quiet {
			fmt.Printf("Nothing to apply (%s mode).\n", mode)
		}
		return nil
	}

	r := &runner.Runner{
		Engine:  engine.NewSQL(db, dialect),
		Records: store,
	}
	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions(len(units),
			progressbar.OptionSetDescription("applying"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		r.Progress = func(u *graph.Unit, index, total int) {
			bar.Describe(fmt.Sprintf("applying %s", u.ID))
			_ = bar.Set(index)
		}
	}

	res, runErr := r.Run(ctx, units)
	if bar != nil {
		_ = bar.Finish()
	}

	if runErr != nil {
		if len(res.Applied) > 0 && !quiet {
			fmt.Printf("Applied %d of %d units before failure.\n", len(res.Applied), len(units))
			fmt.Println("Re-run migrate to resume from the failed unit.")
		}
		return cli.GeneralError(fmt.Sprintf("run %s failed at unit %s", res.RunID, res.Failed), runErr)
	}

	if !quiet {
		fmt.Printf("Applied %d unit(s) (%s mode).\n", len(res.Applied), mode)
	}
	return nil
}

// newLocker picks the store-scoped lock for the dialect. Postgres gets a
// cross-process advisory lock; other dialects fall back to a process-local
// lock.
func newLocker(ctx context.Context, dialect sqlgen.Dialect, dsn string) (lock.Locker, func(), error) {
	if dialect == sqlgen.DialectPostgres {
		pg, err := lock.NewPostgres(ctx, dsn, cfg.Migrate.LockName)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close(context.Background()) }, nil
	}
	return lock.NewMemory(), func() {}, nil
}
