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
	"github.com/trezcool/dojang/core/dojang"
)

const dojangTable = "dojang"

var (
	dojangColumns = []string{
		"id", "name", "address", "city", "phone", "email", "head_coach_id", "created_at", "updated_at",
	}
	dojangOrderingColumns = map[string]string{
		"name":       "lower(name)",
		"city":       "lower(city)",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

type dojangRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Address     string      `db:"address"`
	City        string      `db:"city"`
	Phone       string      `db:"phone"`
	Email       string      `db:"email"`
	HeadCoachID null.String `db:"head_coach_id"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (row dojangRow) toDojang() dojang.Dojang {
	return dojang.Dojang{
		ID:          row.ID,
		Name:        row.Name,
		Address:     row.Address,
		City:        row.City,
		Phone:       row.Phone,
		Email:       row.Email,
		HeadCoachID: row.HeadCoachID.String,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type dojangRepository struct {
	db *sqlx.DB
}

var _ dojang.Repository = (*dojangRepository)(nil) // interface compliance check

func NewDojangRepository(db *sqlx.DB) dojang.Repository {
	return &dojangRepository{db: db}
}

func (repo *dojangRepository) CheckDojangUniqueness(ctx context.Context, name string, excludedDojangs []dojang.Dojang) error {
	where := sq.And{sq.Expr("lower(name) = lower(?)", name)}
	if len(excludedDojangs) > 0 {
		ids := make([]string, 0, len(excludedDojangs))
		for _, d := range excludedDojangs {
			ids = append(ids, d.ID)
		}
		if ids = validIDs(ids); len(ids) > 0 {
			where = append(where, sq.NotEq{"id": ids})
		}
	}

	var cnt int
	q := psql.Select("COUNT(*)").From(dojangTable).Where(where)
	if err := get(ctx, repo.db, &cnt, q); err != nil {
		return errors.Wrap(err, "checking dojang uniqueness")
	}
	if cnt > 0 {
		return dojang.ErrNameExists
	}
	return nil
}

func (repo *dojangRepository) CreateDojang(ctx context.Context, d dojang.Dojang) (dojang.Dojang, error) {
	d.ID = uuid.New().String()
	d.CreatedAt, d.UpdatedAt = d.CreatedAt.UTC(), d.UpdatedAt.UTC()
	q := psql.Insert(dojangTable).Columns(dojangColumns...).Values(
		d.ID, d.Name, d.Address, d.City, d.Phone, d.Email, nullID(d.HeadCoachID), d.CreatedAt, d.UpdatedAt,
	)
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err, "dojang_name_key") {
			return dojang.Dojang{}, dojang.ErrNameExists
		}
		return dojang.Dojang{}, errors.Wrap(err, "inserting dojang")
	}
	return d, nil
}

func (repo *dojangRepository) QueryDojangs(ctx context.Context, filter *dojang.QueryFilter, ordering []core.DBOrdering) ([]dojang.Dojang, error) {
	q := psql.Select(dojangColumns...).From(dojangTable)
	if filter != nil {
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "name", "city", "address"))
		}
		if filter.City != "" {
			q = q.Where(sq.Expr("lower(city) = lower(?)", filter.City))
		}
	}
	q = q.OrderBy(orderBy(ordering, dojangOrderingColumns, "lower(name) ASC")...)

	var rows []dojangRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying dojangs")
	}
	dojangs := make([]dojang.Dojang, 0, len(rows))
	for _, row := range rows {
		dojangs = append(dojangs, row.toDojang())
	}
	return dojangs, nil
}

func (repo *dojangRepository) GetDojang(ctx context.Context, id string) (dojang.Dojang, error) {
	if !validID(id) {
		return dojang.Dojang{}, dojang.ErrNotFound
	}
	var row dojangRow
	q := psql.Select(dojangColumns...).From(dojangTable).Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &row, q); err != nil {
		return dojang.Dojang{}, trapNoRows(err, dojang.ErrNotFound, "finding dojang")
	}
	return row.toDojang(), nil
}

func (repo *dojangRepository) UpdateDojang(ctx context.Context, d dojang.Dojang) (dojang.Dojang, error) {
	if !validID(d.ID) {
		return dojang.Dojang{}, dojang.ErrNotFound
	}
	d.UpdatedAt = d.UpdatedAt.UTC()
	q := psql.Update(dojangTable).SetMap(map[string]interface{}{
		"name":          d.Name,
		"address":       d.Address,
		"city":          d.City,
		"phone":         d.Phone,
		"email":         d.Email,
		"head_coach_id": nullID(d.HeadCoachID),
		"updated_at":    d.UpdatedAt,
	}).Where(sq.Eq{"id": d.ID})
	if err := execOne(ctx, repo.db, q, dojang.ErrNotFound); err != nil {
		if isUniqueViolation(err, "dojang_name_key") {
			return dojang.Dojang{}, dojang.ErrNameExists
		}
		return dojang.Dojang{}, trapNoRows(err, dojang.ErrNotFound, "updating dojang")
	}
	return d, nil
}

func (repo *dojangRepository) DeleteDojang(ctx context.Context, id string) error {
	if !validID(id) {
		return dojang.ErrNotFound
	}
	err := execOne(ctx, repo.db, psql.Delete(dojangTable).Where(sq.Eq{"id": id}), dojang.ErrNotFound)
	if err != nil {
		return trapNoRows(err, dojang.ErrNotFound, "deleting dojang")
	}
	return nil
}

func (repo *dojangRepository) IsDojangCoach(ctx context.Context, dojangID, coachID string) (bool, error) {
	if !validID(dojangID) || !validID(coachID) {
		return false, nil
	}
	var cnt int
	q := psql.Select("COUNT(*)").From(coachTable).Where(sq.Eq{"id": coachID, "dojang_id": dojangID, "is_active": true})
	if err := get(ctx, repo.db, &cnt, q); err != nil {
		return false, errors.Wrap(err, "checking dojang coach")
	}
	return cnt > 0, nil
}

func (repo *dojangRepository) CountDojangStudents(ctx context.Context, dojangID string) (total int, active int, err error) {
	if !validID(dojangID) {
		return 0, 0, nil
	}
	var counts struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	q := psql.Select("COUNT(*) AS total", "COUNT(*) FILTER (WHERE is_active) AS active").
		From(studentTable).
		Where(sq.Eq{"dojang_id": dojangID})
	if err = get(ctx, repo.db, &counts, q); err != nil {
		return 0, 0, errors.Wrap(err, "counting dojang students")
	}
	return counts.Total, counts.Active, nil
}

func (repo *dojangRepository) count(ctx context.Context, table, dojangID string) (int, error) {
	if !validID(dojangID) {
		return 0, nil
	}
	var cnt int
	q := psql.Select("COUNT(*)").From(table).Where(sq.Eq{"dojang_id": dojangID})
	if err := get(ctx, repo.db, &cnt, q); err != nil {
		return 0, errors.Wrapf(err, "counting dojang %s", table)
	}
	return cnt, nil
}

func (repo *dojangRepository) CountDojangCoaches(ctx context.Context, dojangID string) (int, error) {
	return repo.count(ctx, coachTable, dojangID)
}

func (repo *dojangRepository) CountDojangClasses(ctx context.Context, dojangID string) (int, error) {
	return repo.count(ctx, classTable, dojangID)
}

func (repo *dojangRepository) SumDojangPayments(ctx context.Context, dojangID string) (map[string]int64, error) {
	totals := make(map[string]int64)
	if !validID(dojangID) {
		return totals, nil
	}

	var rows []struct {
		Status string `db:"status"`
		Total  int64  `db:"total"`
	}
	q := psql.Select("p.status", "COALESCE(SUM(p.amount), 0) AS total").
		From(paymentTable + " p").
		Join(studentTable + " s ON s.id = p.student_id").
		Where(sq.Eq{"s.dojang_id": dojangID}).
		GroupBy("p.status")
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "summing dojang payments")
	}
	for _, row := range rows {
		totals[row.Status] = row.Total
	}
	return totals, nil
}
