package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/modules/registration/infrastructure/persistence"
	"github.com/campsite-dev/campseed/pkg/repo"
)

type queryOptions struct {
	dsn     string
	limit   int
	after   string
	before  string
	strict  bool
	count   bool
	explain bool
}

type listResponse struct {
	Data []domain.Campite `json:"data"`
	Meta *repo.PageMeta   `json:"meta,omitempty"`
}

func newQueryCmd(a *app) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   `query [filter...]`,
		Short: "List campites from the database",
		Long: "List campites from the database.\n\n" +
			`Each filter is a JSON tuple, e.g. '["lastname","startsWith","O"]' or '["amount","between",0,2000]'.` + "\n" +
			"Values are sent as bound parameters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, a, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.dsn, "dsn", "", "Postgres connection string (default $DATABASE_URL)")
	cmd.Flags().IntVar(&opts.limit, "limit", -1, "Page size; 0 returns every row (default $CAMPSEED_DEFAULT_LIMIT)")
	cmd.Flags().StringVar(&opts.after, "after", "", "Cursor from a previous page's meta.after")
	cmd.Flags().StringVar(&opts.before, "before", "", "Cursor from a previous page's meta.before")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject unknown filter operators instead of ignoring them")
	cmd.Flags().BoolVar(&opts.count, "count", false, "Print the number of matching campites only")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print the filter predicate with values inlined; no database is used")
	return cmd
}

func runQuery(cmd *cobra.Command, a *app, opts queryOptions, filters []string) error {
	mode, err := repo.ParseFilterMode(a.cfg.FilterMode)
	if err != nil {
		return withCode(exitUsage, err)
	}
	if opts.strict {
		mode = repo.FilterStrict
	}
	if opts.explain {
		return explainFilters(cmd, repo.FilterCompiler{Mode: mode}, filters)
	}

	dsn := strings.TrimSpace(opts.dsn)
	if dsn == "" {
		dsn = a.cfg.DatabaseURL
	}
	if dsn == "" {
		return withCode(exitUsage, fmt.Errorf("--dsn or DATABASE_URL is required"))
	}

	req := repo.NewPageRequest(filters...)
	req.Limit = a.cfg.DefaultLimit
	if opts.limit >= 0 {
		req.Limit = opts.limit
	}
	if opts.after != "" {
		req.After = &opts.after
	}
	if opts.before != "" {
		req.Before = &opts.before
	}
	if err := req.Validate(); err != nil {
		return withCode(exitUsage, err)
	}

	db, err := persistence.Open(cmd.Context(), dsn)
	if err != nil {
		return withCode(exitDB, err)
	}
	defer func() { _ = db.Close() }()
	r := persistence.NewCampiteQueryRepository(db, mode)

	if opts.count {
		n, err := r.Count(cmd.Context(), filters)
		if err != nil {
			return withCode(exitDB, err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
		return withCode(exitIO, err)
	}

	rows, meta, err := r.List(cmd.Context(), req)
	if err != nil {
		return withCode(exitDB, err)
	}
	a.run.RecordsWritten("query_rows", len(rows))
	return writeJSON(cmd, "", listResponse{Data: rows, Meta: meta})
}

func explainFilters(cmd *cobra.Command, c repo.FilterCompiler, exprs []string) error {
	req := repo.NewPageRequest(exprs...)
	filters, err := req.ParseFilters()
	if err != nil {
		return withCode(exitUsage, err)
	}
	where, err := c.CompileAll(filters)
	if err != nil {
		return withCode(exitUsage, err)
	}
	return writeText(cmd, "", where+"\n")
}
