package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/coach"
)

const coachTable = "coach"

var (
	coachColumns = []string{
		"id", "user_id", "dojang_id", "rank_id", "first_name", "last_name", "email", "phone",
		"bio", "is_active", "created_at", "updated_at",
	}
	coachOrderingColumns = map[string]string{
		"first_name": "lower(first_name)",
		"last_name":  "lower(last_name)",
		"email":      "email",
		"is_active":  "is_active",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

type coachRow struct {
	ID        string      `db:"id"`
	UserID    null.String `db:"user_id"`
	DojangID  string      `db:"dojang_id"`
	RankID    null.String `db:"rank_id"`
	FirstName string      `db:"first_name"`
	LastName  string      `db:"last_name"`
	Email     string      `db:"email"`
	Phone     string      `db:"phone"`
	Bio       string      `db:"bio"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (row coachRow) toCoach() coach.Coach {
	c := coach.Coach{
		ID:        row.ID,
		UserID:    row.UserID.String,
		DojangID:  row.DojangID,
		RankID:    row.RankID.String,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Phone:     row.Phone,
		Bio:       row.Bio,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	c.SetActive(row.IsActive)
	return c
}

type coachRepository struct {
	db *sqlx.DB
}

var _ coach.Repository = (*coachRepository)(nil) // interface compliance check

func NewCoachRepository(db *sqlx.DB) coach.Repository {
	return &coachRepository{db: db}
}

func (repo *coachRepository) CreateCoach(ctx context.Context, c coach.Coach) (coach.Coach, error) {
	c.ID = uuid.New().String()
	q := psql.Insert(coachTable).Columns(coachColumns...).Values(
		c.ID, nullID(c.UserID), c.DojangID, nullID(c.RankID), c.FirstName, c.LastName, c.Email, c.Phone,
		c.Bio, c.Active(), c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err, "coach_user_id_key") {
			return coach.Coach{}, coach.ErrUserTaken
		}
		return coach.Coach{}, errors.Wrap(err, "inserting coach")
	}
	return c, nil
}

func (repo *coachRepository) QueryCoaches(ctx context.Context, filter *coach.QueryFilter, ordering []core.DBOrdering) ([]coach.Coach, error) {
	q := psql.Select(coachColumns...).From(coachTable)
	if filter != nil {
		if !validFilterIDs(filter.DojangID) {
			return []coach.Coach{}, nil
		}
		if filter.IDs != nil {
			q = q.Where(sq.Eq{"id": validIDs(filter.IDs)})
		}
		if filter.DojangID != "" {
			q = q.Where(sq.Eq{"dojang_id": filter.DojangID})
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "first_name", "last_name", "email"))
		}
	}
	q = q.OrderBy(orderBy(ordering, coachOrderingColumns, "lower(last_name) ASC", "lower(first_name) ASC")...)

	var rows []coachRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying coaches")
	}
	coaches := make([]coach.Coach, 0, len(rows))
	for _, row := range rows {
		coaches = append(coaches, row.toCoach())
	}
	return coaches, nil
}

func (repo *coachRepository) getCoach(ctx context.Context, where sq.Eq) (coach.Coach, error) {
	var row coachRow
	q := psql.Select(coachColumns...).From(coachTable).Where(where)
	if err := get(ctx, repo.db, &row, q); err != nil {
		return coach.Coach{}, trapNoRows(err, coach.ErrNotFound, "finding coach")
	}
	return row.toCoach(), nil
}

func (repo *coachRepository) GetCoach(ctx context.Context, id string) (coach.Coach, error) {
	if !validID(id) {
		return coach.Coach{}, coach.ErrNotFound
	}
	return repo.getCoach(ctx, sq.Eq{"id": id})
}

func (repo *coachRepository) GetCoachByUserID(ctx context.Context, userID string) (coach.Coach, error) {
	if !validID(userID) {
		return coach.Coach{}, coach.ErrNotFound
	}
	return repo.getCoach(ctx, sq.Eq{"user_id": userID})
}

func (repo *coachRepository) UpdateCoach(ctx context.Context, c coach.Coach) (coach.Coach, error) {
	if !validID(c.ID) {
		return coach.Coach{}, coach.ErrNotFound
	}
	q := psql.Update(coachTable).SetMap(map[string]interface{}{
		"user_id":    nullID(c.UserID),
		"dojang_id":  c.DojangID,
		"rank_id":    nullID(c.RankID),
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
		"phone":      c.Phone,
		"bio":        c.Bio,
		"is_active":  c.Active(),
		"updated_at": c.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": c.ID})
	if err := execOne(ctx, repo.db, q, coach.ErrNotFound); err != nil {
		if isUniqueViolation(err, "coach_user_id_key") {
			return coach.Coach{}, coach.ErrUserTaken
		}
		return coach.Coach{}, trapNoRows(err, coach.ErrNotFound, "updating coach")
	}
	return c, nil
}

func (repo *coachRepository) CountCoachClasses(ctx context.Context, id string) (int, error) {
	if !validID(id) {
		return 0, nil
	}
	var cnt int
	q := psql.Select("COUNT(*)").From(classTable).Where(sq.Eq{"coach_id": id})
	if err := get(ctx, repo.db, &cnt, q); err != nil {
		return 0, errors.Wrap(err, "counting coach classes")
	}
	return cnt, nil
}

// DeleteCoach unsets the coach from dojangs and promotions (FK ON DELETE SET NULL).
func (repo *coachRepository) DeleteCoach(ctx context.Context, id string) error {
	if !validID(id) {
		return coach.ErrNotFound
	}
	err := execOne(ctx, repo.db, psql.Delete(coachTable).Where(sq.Eq{"id": id}), coach.ErrNotFound)
	if err != nil {
		return trapNoRows(err, coach.ErrNotFound, "deleting coach")
	}
	return nil
}
