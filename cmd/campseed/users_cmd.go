package main

import (
	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/modules/registration/services"
)

func newUsersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "users <input.csv|input.xlsx> [output.json]",
		Short: "Build users.json from a users export, one user per email",
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
			users, err := services.SynthesizeUsers(tbl, profile)
			if err != nil {
				return classify(err)
			}
			if err := writeJSON(cmd, outputArg(args, 1), users); err != nil {
				return err
			}

			a.run.RowsRead("users", len(tbl.Rows))
			a.run.RecordsWritten("users", len(users))
			printSummary(cmd, len(users), "users", len(tbl.Rows)-len(users))
			return nil
		},
	}
}
