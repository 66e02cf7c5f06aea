package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/modules/registration/infrastructure/fixtures"
	"github.com/campsite-dev/campseed/modules/registration/services"
)

type campitesOptions struct {
	campJoin     string
	campMiss     string
	rewriteUsers bool
}

func newCampitesCmd(a *app) *cobra.Command {
	var opts campitesOptions

	cmd := &cobra.Command{
		Use:   "campites <registrations.csv> <users.json> <camps.json> <districts.json> [campites.json] [new-users.json]",
		Short: "Resolve registrations against users, camps and districts",
		Long: "Resolve registrations against users, camps and districts.\n\n" +
			"Writes campites to the fifth argument (stdout when omitted) and newly created users to the\n" +
			"sixth argument, which defaults to new-users.json next to the campites file.",
		Args: rangeArgs(4, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCampites(cmd, a, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.campJoin, "camp-join", "", "Camp reference join: ordinal (1-based position) or id")
	cmd.Flags().StringVar(&opts.campMiss, "camp-miss", "", "Unresolved camp policy: null (keep row) or skip")
	cmd.Flags().BoolVar(&opts.rewriteUsers, "rewrite-users", false, "Rewrite users.json with consumed legacy ids cleared")
	return cmd
}

func runCampites(cmd *cobra.Command, a *app, opts campitesOptions, args []string) error {
	if cmd.Flags().Changed("camp-join") {
		a.cfg.CampJoin = opts.campJoin
	}
	if cmd.Flags().Changed("camp-miss") {
		a.cfg.CampMiss = opts.campMiss
	}
	join, err := services.ParseCampJoin(a.cfg.CampJoin)
	if err != nil {
		return withCode(exitUsage, err)
	}
	miss, err := services.ParseCampMissPolicy(a.cfg.CampMiss)
	if err != nil {
		return withCode(exitUsage, err)
	}
	profile, err := a.profileOrDefault()
	if err != nil {
		return err
	}

	regPath, usersPath, campsPath, districtsPath := args[0], args[1], args[2], args[3]
	users, err := fixtures.LoadUsers(usersPath)
	if err != nil {
		return withCode(exitIO, err)
	}
	camps, err := fixtures.LoadCamps(campsPath)
	if err != nil {
		return withCode(exitIO, err)
	}
	districts, err := fixtures.LoadDistricts(districtsPath)
	if err != nil {
		return withCode(exitIO, err)
	}
	tbl, err := a.readTable(regPath)
	if err != nil {
		return err
	}

	resolver, err := services.NewResolver(services.ResolverOptions{
		CampJoin: join,
		CampMiss: miss,
		Profile:  profile,
		Logger:   a.log,
	})
	if err != nil {
		return withCode(exitUsage, err)
	}
	rc := services.NewResolutionContext(users, camps, districts)
	res, err := resolver.Resolve(rc, tbl)
	if err != nil {
		return classify(err)
	}

	campitesPath := outputArg(args, 4)
	newUsersPath := outputArg(args, 5)
	if newUsersPath == "" && !toStdout(campitesPath) {
		newUsersPath = filepath.Join(filepath.Dir(campitesPath), "new-users.json")
	}

	if err := writeJSON(cmd, campitesPath, res.Campites); err != nil {
		return err
	}
	switch {
	case newUsersPath != "":
		if err := writeJSON(cmd, newUsersPath, res.NewUsers); err != nil {
			return err
		}
	case len(res.NewUsers) > 0:
		a.log.Warnf("%d new users not written; pass a new-users.json path", len(res.NewUsers))
	}
	if opts.rewriteUsers && len(res.ClearedLegacyIDs) > 0 {
		if err := fixtures.WriteFile(usersPath, rc.Users()[:len(users)]); err != nil {
			return withCode(exitIO, fmt.Errorf("rewrite users: %w", err))
		}
	}

	a.run.RowsRead("registrations", len(tbl.Rows))
	a.run.UsersSynthesized(len(res.NewUsers))
	a.run.RecordsWritten("campites", len(res.Campites))
	a.run.RecordsWritten("new_users", len(res.NewUsers))
	for _, s := range res.Skips {
		a.run.Skipped(string(s.Reason), 1)
	}

	printSummary(cmd, len(res.Campites), "campites", len(res.Skips))
	printSummary(cmd, len(res.NewUsers), "new users", 0)
	if len(res.Skips) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d registration rows skipped\n", len(res.Skips))
	}
	return nil
}
