package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/pkg/repo"
)

func newSeedCmd(a *app) *cobra.Command {
	var validateShape bool

	cmd := &cobra.Command{
		Use:   "seed <records.json> <table> [output.sql]",
		Short: "Compile a JSON array of records into one bulk INSERT statement",
		Args:  rangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("validate-shape") {
				a.cfg.SeedValidate = validateShape
			}
			f, err := os.Open(args[0])
			if err != nil {
				return withCode(exitIO, err)
			}
			defer func() { _ = f.Close() }()

			records, err := repo.DecodeRecords(f)
			if err != nil {
				return classify(fmt.Errorf("%s: %w", args[0], err))
			}
			sql, err := repo.CompileSeed(args[1], records, repo.SeedOptions{ValidateShape: a.cfg.SeedValidate})
			if err != nil {
				return classify(fmt.Errorf("%s: %w", args[0], err))
			}
			if err := writeText(cmd, outputArg(args, 2), sql); err != nil {
				return err
			}

			a.run.RowsRead("seed", len(records))
			a.run.RecordsWritten("sql", len(records))
			printSummary(cmd, len(records), "rows", 0)
			return nil
		},
	}
	cmd.Flags().BoolVar(&validateShape, "validate-shape", false, "Fail when records do not share the first record's keys")
	return cmd
}
