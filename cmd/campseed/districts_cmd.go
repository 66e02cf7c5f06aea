package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/modules/registration/services"
)

func newDistrictsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "districts <input.csv|input.xlsx> [output.json]",
		Short: "Deduplicate a districts export into districts.json",
		Args:  rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.profileOrDefault()
			if err != nil {
				return err
			}
			tbl, err := a.readTable(args[0])
			if err != nil {
				return err
			}
			districts, err := services.BuildDistricts(tbl, profile, time.Now())
			if err != nil {
				return classify(err)
			}
			if err := writeJSON(cmd, outputArg(args, 1), districts); err != nil {
				return err
			}

			skipped := len(tbl.Rows) - len(districts)
			a.run.RowsRead("districts", len(tbl.Rows))
			a.run.RecordsWritten("districts", len(districts))
			a.log.WithField("input", args[0]).Infof("%d districts from %d rows", len(districts), len(tbl.Rows))
			printSummary(cmd, len(districts), "districts", skipped)
			return nil
		},
	}
}

func outputArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
