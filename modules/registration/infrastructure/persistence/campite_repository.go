// Package persistence reads campites from the database. All values reach the
// driver as bound parameters.
package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/pkg/repo"
)

var ErrUnknownField = errors.New("unknown filter field")

const (
	campiteFindQuery = `
        SELECT
            c.id,
            c.firstname,
            c.lastname,
            c.email,
            c.phone,
            c.age_group,
            c.gender,
            c.camp_id,
            c.user_id,
            c.district_id,
            c.payment_ref,
            c.type,
            c.amount,
            c.allocated_items,
            c.checkin_at,
            c.created_at,
            c.updated_at,
            c.deleted_at
        FROM campites c`

	campiteCountQuery = `SELECT COUNT(c.id) FROM campites c`

	notDeleted = "c.deleted_at IS NULL"
)

// Open connects through the pgx database/sql driver.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	return db, nil
}

type CampiteQueryRepository struct {
	db       *sqlx.DB
	compiler repo.FilterCompiler
	fieldMap map[string]string
}

func NewCampiteQueryRepository(db *sqlx.DB, mode repo.FilterMode) *CampiteQueryRepository {
	return &CampiteQueryRepository{
		db:       db,
		compiler: repo.FilterCompiler{Mode: mode},
		fieldMap: map[string]string{
			"id":              "c.id",
			"firstname":       "c.firstname",
			"lastname":        "c.lastname",
			"email":           "c.email",
			"phone":           "c.phone",
			"age_group":       "c.age_group",
			"gender":          "c.gender",
			"camp_id":         "c.camp_id",
			"user_id":         "c.user_id",
			"district_id":     "c.district_id",
			"payment_ref":     "c.payment_ref",
			"type":            "c.type",
			"amount":          "c.amount",
			"allocated_items": "c.allocated_items",
			"checkin_at":      "c.checkin_at",
			"created_at":      "c.created_at",
			"updated_at":      "c.updated_at",
		},
	}
}

func (r *CampiteQueryRepository) buildFilters(exprs []string) ([]string, []interface{}, error) {
	where := []string{notDeleted}
	var args []interface{}

	filters, err := repo.PageRequest{Filters: exprs}.ParseFilters()
	if err != nil {
		return nil, nil, errors.Wrap(err, "invalid filter")
	}
	for _, f := range filters {
		column, ok := r.fieldMap[f.Column]
		if !ok {
			return nil, nil, errors.Wrap(fmt.Errorf("%w: %s", ErrUnknownField, f.Column), "invalid filter")
		}
		f.Column = column
		clause, values, err := r.compiler.Bind(f, len(args)+1)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid filter")
		}
		if clause == "" {
			continue
		}
		where = append(where, clause)
		args = append(args, values...)
	}
	return where, args, nil
}

// List returns one page of campites ordered by id. Limit 0 returns every
// matching row and no PageMeta.
func (r *CampiteQueryRepository) List(ctx context.Context, req repo.PageRequest) ([]domain.Campite, *repo.PageMeta, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	where, args, err := r.buildFilters(req.Filters)
	if err != nil {
		return nil, nil, err
	}

	order := "ORDER BY c.id ASC"
	switch {
	case req.After != nil:
		key, _ := repo.DecodeCursor(*req.After)
		args = append(args, key)
		where = append(where, fmt.Sprintf("c.id > $%d", len(args)))
	case req.Before != nil:
		key, _ := repo.DecodeCursor(*req.Before)
		args = append(args, key)
		where = append(where, fmt.Sprintf("c.id < $%d", len(args)))
		order = "ORDER BY c.id DESC"
	}

	// One extra row tells whether another page follows.
	fetch := req.Pagination
	if !fetch.All() {
		fetch.Limit++
	}

	var rows []domain.Campite
	query := repo.Join(campiteFindQuery, repo.JoinWhere(where...), order, repo.FormatLimit(fetch))
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, errors.Wrap(err, "failed to list campites")
	}

	hasMore := !req.All() && len(rows) > req.Limit
	if hasMore {
		rows = rows[:req.Limit]
	}
	if req.Before != nil {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	var first, last string
	if len(rows) > 0 {
		first, last = rows[0].ID.String(), rows[len(rows)-1].ID.String()
	}
	return rows, repo.BuildMeta(req.Pagination, first, last, hasMore), nil
}

func (r *CampiteQueryRepository) Count(ctx context.Context, filters []string) (int64, error) {
	where, args, err := r.buildFilters(filters)
	if err != nil {
		return 0, err
	}
	var n int64
	query := repo.Join(campiteCountQuery, repo.JoinWhere(where...))
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, errors.Wrap(err, "failed to count campites")
	}
	return n, nil
}
