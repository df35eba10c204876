package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/rank"
)

const rankTable = "rank"

var (
	rankColumns = []string{
		"id", "name", "color", `"order"`, "kind", "description", "created_at", "updated_at",
	}
	rankOrderingColumns = map[string]string{
		"order":      `"order"`,
		"name":       "lower(name)",
		"kind":       "kind",
		"created_at": "created_at",
	}
)

type rankRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Color       string    `db:"color"`
	Order       int       `db:"order"`
	Kind        string    `db:"kind"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row rankRow) toRank() rank.Rank {
	return rank.Rank{
		ID:          row.ID,
		Name:        row.Name,
		Color:       row.Color,
		Order:       row.Order,
		Kind:        row.Kind,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type rankRepository struct {
	db *sqlx.DB
}

var _ rank.Repository = (*rankRepository)(nil) // interface compliance check

func NewRankRepository(db *sqlx.DB) rank.Repository {
	return &rankRepository{db: db}
}

func (repo *rankRepository) CheckRankUniqueness(ctx context.Context, name string, order int, excludedRanks []rank.Rank) error {
	where := sq.And{sq.Or{sq.Expr("lower(name) = lower(?)", name), sq.Eq{`"order"`: order}}}
	if len(excludedRanks) > 0 {
		ids := make([]string, 0, len(excludedRanks))
		for _, r := range excludedRanks {
			ids = append(ids, r.ID)
		}
		if ids = validIDs(ids); len(ids) > 0 {
			where = append(where, sq.NotEq{"id": ids})
		}
	}

	var rows []rankRow
	q := psql.Select(rankColumns...).From(rankTable).Where(where).Limit(2)
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return errors.Wrap(err, "checking rank uniqueness")
	}
	for _, row := range rows {
		if core.CleanString(row.Name, true) == core.CleanString(name, true) {
			return rank.ErrNameExists
		}
	}
	if len(rows) > 0 {
		return rank.ErrOrderExists
	}
	return nil
}

func (repo *rankRepository) CreateRank(ctx context.Context, r rank.Rank) (rank.Rank, error) {
	r.ID = uuid.New().String()
	r.CreatedAt, r.UpdatedAt = r.CreatedAt.UTC(), r.UpdatedAt.UTC()
	q := psql.Insert(rankTable).Columns(rankColumns...).Values(
		r.ID, r.Name, r.Color, r.Order, r.Kind, r.Description, r.CreatedAt, r.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, q); err != nil {
		return rank.Rank{}, repo.trapUnique(err, "inserting rank")
	}
	return r, nil
}

func (repo *rankRepository) QueryRanks(ctx context.Context, ordering []core.DBOrdering) ([]rank.Rank, error) {
	q := psql.Select(rankColumns...).
		From(rankTable).
		OrderBy(orderBy(ordering, rankOrderingColumns, `"order" ASC`)...)

	var rows []rankRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying ranks")
	}
	ranks := make([]rank.Rank, 0, len(rows))
	for _, row := range rows {
		ranks = append(ranks, row.toRank())
	}
	return ranks, nil
}

func (repo *rankRepository) getRank(ctx context.Context, where sq.Sqlizer) (rank.Rank, error) {
	var row rankRow
	q := psql.Select(rankColumns...).From(rankTable).Where(where)
	if err := get(ctx, repo.db, &row, q); err != nil {
		return rank.Rank{}, trapNoRows(err, rank.ErrNotFound, "finding rank")
	}
	return row.toRank(), nil
}

func (repo *rankRepository) GetRank(ctx context.Context, id string) (rank.Rank, error) {
	if !validID(id) {
		return rank.Rank{}, rank.ErrNotFound
	}
	return repo.getRank(ctx, sq.Eq{"id": id})
}

func (repo *rankRepository) GetRankByOrder(ctx context.Context, order int) (rank.Rank, error) {
	return repo.getRank(ctx, sq.Eq{`"order"`: order})
}

func (repo *rankRepository) UpdateRank(ctx context.Context, r rank.Rank) (rank.Rank, error) {
	if !validID(r.ID) {
		return rank.Rank{}, rank.ErrNotFound
	}
	r.UpdatedAt = r.UpdatedAt.UTC()
	q := psql.Update(rankTable).SetMap(map[string]interface{}{
		"name":        r.Name,
		"color":       r.Color,
		`"order"`:     r.Order,
		"kind":        r.Kind,
		"description": r.Description,
		"updated_at":  r.UpdatedAt,
	}).Where(sq.Eq{"id": r.ID})
	if err := execOne(ctx, repo.db, q, rank.ErrNotFound); err != nil {
		if errors.Cause(err) == rank.ErrNotFound {
			return rank.Rank{}, rank.ErrNotFound
		}
		return rank.Rank{}, repo.trapUnique(err, "updating rank")
	}
	return r, nil
}

func (repo *rankRepository) RankInUse(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	var inUse bool
	query := `SELECT EXISTS (SELECT 1 FROM student WHERE rank_id = $1)
		OR EXISTS (SELECT 1 FROM coach WHERE rank_id = $1)
		OR EXISTS (SELECT 1 FROM promotion WHERE from_rank_id = $1 OR to_rank_id = $1)`
	if err := repo.db.GetContext(ctx, &inUse, query, id); err != nil {
		return false, errors.Wrap(err, "checking rank usage")
	}
	return inUse, nil
}

func (repo *rankRepository) DeleteRank(ctx context.Context, id string) error {
	if !validID(id) {
		return rank.ErrNotFound
	}
	err := execOne(ctx, repo.db, psql.Delete(rankTable).Where(sq.Eq{"id": id}), rank.ErrNotFound)
	if err != nil {
		return trapNoRows(err, rank.ErrNotFound, "deleting rank")
	}
	return nil
}

func (repo *rankRepository) trapUnique(err error, msg string) error {
	switch {
	case isUniqueViolation(err, "rank_name_key"):
		return rank.ErrNameExists
	case isUniqueViolation(err, "rank_order_key"):
		return rank.ErrOrderExists
	}
	return errors.Wrap(err, msg)
}
