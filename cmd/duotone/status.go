package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/pthm/duotone/internal/cli"
	"github.com/pthm/duotone/pkg/graph"
	"github.com/pthm/duotone/pkg/manifest"
	"github.com/pthm/duotone/pkg/record"
	"github.com/pthm/duotone/pkg/sqlgen"
)

var (
	statusDB      string
	statusDir     string
	statusDialect string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending units per phase",
	Long:  `Show how many migration units are applied and pending, broken down by phase.`,
	Example: `  # Check status
  duotone status --db postgres://localhost/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveString(statusDir, cfg.Status.MigrationsDir, cfg.MigrationsDir)

		dialect, err := sqlgen.ParseDialect(resolveString(statusDialect, cfg.Dialect))
		if err != nil {
			return cli.ConfigError("dialect", err)
		}

		dsn, err := resolveDSN(statusDB)
		if err != nil {
			return err
		}

		return runStatus(dsn, dir, dialect)
	},
}

func init() {
	f := statusCmd.Flags()
	f.StringVar(&statusDB, "db", "", "database URL")
	f.StringVar(&statusDir, "dir", "", "migrations directory")
	f.StringVar(&statusDialect, "dialect", "", "target SQL dialect (postgres, mysql, sqlite)")
}

func runStatus(dsn, dir string, dialect sqlgen.Dialect) error {
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

	phases := []graph.Phase{graph.PhaseBlue, graph.PhaseGreen, graph.PhaseVanilla}
	counts := make(map[graph.Phase][2]int, len(phases))
	var pending []*graph.Unit
	for _, u := range g.Units() {
		c := counts[u.Phase]
		if applied[u.ID] {
			c[0]++
		} else {
			c[1]++
			pending = append(pending, u)
		}
		counts[u.Phase] = c
	}

	fmt.Printf("Migrations:  %d unit(s) in %s\n", g.Len(), dir)
	for _, p := range phases {
		c := counts[p]
		fmt.Printf("  %-9s %d applied, %d pending\n", string(p)+":", c[0], c[1])
	}

	if len(pending) == 0 {
		fmt.Println("\nUp to date.")
		return nil
	}

	fmt.Println("\nPending units:")
	for _, u := range pending {
		fmt.Printf("  %s (%s)\n", u.ID, u.Phase)
	}
	return nil
}
