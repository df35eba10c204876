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
	"github.com/trezcool/dojang/core/student"
)

const studentTable = "student"

var (
	studentColumns = []string{
		"id", "user_id", "dojang_id", "rank_id", "first_name", "last_name", "email", "phone",
		"birth_date", "joined_at", "is_active", "created_at", "updated_at",
	}
	studentOrderingColumns = map[string]string{
		"first_name": "lower(first_name)",
		"last_name":  "lower(last_name)",
		"email":      "email",
		"joined_at":  "joined_at",
		"is_active":  "is_active",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

type studentRow struct {
	ID        string      `db:"id"`
	UserID    null.String `db:"user_id"`
	DojangID  string      `db:"dojang_id"`
	RankID    null.String `db:"rank_id"`
	FirstName string      `db:"first_name"`
	LastName  string      `db:"last_name"`
	Email     string      `db:"email"`
	Phone     string      `db:"phone"`
	BirthDate null.Time   `db:"birth_date"`
	JoinedAt  time.Time   `db:"joined_at"`
	IsActive  bool        `db:"is_active"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (row studentRow) toStudent() student.Student {
	s := student.Student{
		ID:        row.ID,
		UserID:    row.UserID.String,
		DojangID:  row.DojangID,
		RankID:    row.RankID.String,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		Email:     row.Email,
		Phone:     row.Phone,
		JoinedAt:  row.JoinedAt.UTC(),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.BirthDate.Valid {
		s.BirthDate = row.BirthDate.Time.UTC()
	}
	s.SetActive(row.IsActive)
	return s
}

func nullDate(t time.Time) null.Time {
	return null.NewTime(t.UTC(), !t.IsZero())
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	q := psql.Insert(studentTable).Columns(studentColumns...).Values(
		s.ID, nullID(s.UserID), s.DojangID, nullID(s.RankID), s.FirstName, s.LastName, s.Email, s.Phone,
		nullDate(s.BirthDate), s.JoinedAt.UTC(), s.Active(), s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err, "student_user_id_key") {
			return student.Student{}, student.ErrUserTaken
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	q := psql.Select(studentColumns...).From(studentTable)
	if filter != nil {
		if !validFilterIDs(filter.DojangID, filter.RankID) {
			return []student.Student{}, nil
		}
		if filter.IDs != nil {
			q = q.Where(sq.Eq{"id": validIDs(filter.IDs)})
		}
		if filter.DojangID != "" {
			q = q.Where(sq.Eq{"dojang_id": filter.DojangID})
		}
		if filter.RankID != "" {
			q = q.Where(sq.Eq{"rank_id": filter.RankID})
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "first_name", "last_name", "email"))
		}
	}
	q = q.OrderBy(orderBy(ordering, studentOrderingColumns, "lower(last_name) ASC", "lower(first_name) ASC")...)

	var rows []studentRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo *studentRepository) getStudent(ctx context.Context, where sq.Eq) (student.Student, error) {
	var row studentRow
	q := psql.Select(studentColumns...).From(studentTable).Where(where)
	if err := get(ctx, repo.db, &row, q); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound, "finding student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	return repo.getStudent(ctx, sq.Eq{"id": id})
}

func (repo *studentRepository) GetStudentByUserID(ctx context.Context, userID string) (student.Student, error) {
	if !validID(userID) {
		return student.Student{}, student.ErrNotFound
	}
	return repo.getStudent(ctx, sq.Eq{"user_id": userID})
}

// UpdateStudent leaves rank_id untouched: the rank only moves through promotions.
func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if !validID(s.ID) {
		return student.Student{}, student.ErrNotFound
	}
	q := psql.Update(studentTable).SetMap(map[string]interface{}{
		"user_id":    nullID(s.UserID),
		"dojang_id":  s.DojangID,
		"first_name": s.FirstName,
		"last_name":  s.LastName,
		"email":      s.Email,
		"phone":      s.Phone,
		"birth_date": nullDate(s.BirthDate),
		"joined_at":  s.JoinedAt.UTC(),
		"is_active":  s.Active(),
		"updated_at": s.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": s.ID}).Suffix("RETURNING rank_id")

	var rankID null.String
	if err := get(ctx, repo.db, &rankID, q); err != nil {
		if isUniqueViolation(err, "student_user_id_key") {
			return student.Student{}, student.ErrUserTaken
		}
		return student.Student{}, trapNoRows(err, student.ErrNotFound, "updating student")
	}
	s.RankID = rankID.String
	return s, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	err := execOne(ctx, repo.db, psql.Delete(studentTable).Where(sq.Eq{"id": id}), student.ErrNotFound)
	if err != nil {
		return trapNoRows(err, student.ErrNotFound, "deleting student")
	}
	return nil
}
