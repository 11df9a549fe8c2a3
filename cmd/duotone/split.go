package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pthm/duotone/internal/cli"
	"github.com/pthm/duotone/pkg/changeset"
	"github.com/pthm/duotone/pkg/graph"
	"github.com/pthm/duotone/pkg/manifest"
	"github.com/pthm/duotone/pkg/schemaop"
	"github.com/pthm/duotone/pkg/sqlgen"
)

var (
	splitDir               string
	splitDialect           string
	splitDryRun            bool
	splitFailOnInseparable bool
)

var splitCmd = &cobra.Command{
	Use:   "split <changeset.yaml>",
	Short: "Split a changeset into phase-tagged migration units",
	Long: `Split a changeset into migration units tagged blue, green, or vanilla.

Additive operations go into the blue unit, destructive operations into the
green unit. Operations that cannot be separated stay together in a vanilla
unit that requires an unrestricted (downtime) run.`,
	Example: `  # Generate units from a changeset
  duotone split changesets/add_email.yaml

  # Preview generated units without writing files
  duotone split changesets/add_email.yaml --dry-run

  # Reject changesets that need a downtime window
  duotone split changesets/add_email.yaml --fail-on-inseparable`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := resolveString(splitDir, cfg.Split.MigrationsDir, cfg.MigrationsDir)
		failOnInseparable := resolveBool(splitFailOnInseparable, cfg.Split.FailOnInseparable)

		dialect, err := sqlgen.ParseDialect(resolveString(splitDialect, cfg.Dialect))
		if err != nil {
			return cli.ConfigError("dialect", err)
		}

		return runSplit(args[0], dir, dialect, splitDryRun, failOnInseparable)
	},
}

func init() {
	f := splitCmd.Flags()
	f.StringVar(&splitDir, "dir", "", "migrations directory")
	f.StringVar(&splitDialect, "dialect", "", "target SQL dialect (postgres, mysql, sqlite)")
	f.BoolVar(&splitDryRun, "dry-run", false, "print generated units without writing files")
	f.BoolVar(&splitFailOnInseparable, "fail-on-inseparable", false, "fail if any operation cannot be split into blue/green")
}

func runSplit(path, dir string, dialect sqlgen.Dialect, dryRun, failOnInseparable bool) error {
	cs, err := changeset.Load(path)
	if err != nil {
		return cli.ChangesetError("loading changeset", err)
	}

	g, err := manifest.Load(dir)
	if err != nil {
		return cli.GeneralError("loading migrations", err)
	}

	classifier := schemaop.Classifier{
		DeferrableConstraints: dialect.DeferrableConstraints(),
	}
	result := schemaop.Split(classifier, cs.Operations)

	if failOnInseparable && result.HasVanilla() {
		ops := classifier.InseparableOps(cs.Operations)
		for _, op := range ops {
			fmt.Printf("inseparable: %s\n", op.Describe())
		}
		return cli.GeneralError(fmt.Sprintf("changeset %s has %d inseparable operation(s)", cs.Name, len(ops)), nil)
	}

	name := manifest.NextName(g, cs.Name)
	units, err := graph.Tag(g, name, result)
	if err != nil {
		return cli.GeneralError("tagging units", err)
	}

	if dryRun {
		return printUnits(units)
	}

	paths, err := manifest.Write(dir, units)
	if err != nil {
		return cli.GeneralError("writing units", err)
	}

	if !quiet {
		for i, p := range paths {
			fmt.Printf("wrote %s (%s, %d operations)\n", p, units[i].Phase, len(units[i].Operations))
		}
		if result.HasVanilla() {
			fmt.Println()
			fmt.Println("WARNING: changeset contains inseparable operations.")
			fmt.Println("         The vanilla unit requires an unrestricted run with downtime.")
		}
	}

	return nil
}

func printUnits(units []*graph.Unit) error {
	for i, u := range units {
		if i > 0 {
			fmt.Println("---")
		}
		out, err := manifest.Encode(u)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	}
	return nil
}
