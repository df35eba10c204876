package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/training"
)

const (
	classTable      = "training_class"
	scheduleTable   = "class_schedule"
	enrollmentTable = "enrollment"
)

var (
	classColumns = []string{
		"id", "dojang_id", "coach_id", "name", "description", "capacity", "created_at", "updated_at",
	}
	classOrderingColumns = map[string]string{
		"name":       "lower(name)",
		"capacity":   "capacity",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
)

type classRow struct {
	ID          string    `db:"id"`
	DojangID    string    `db:"dojang_id"`
	CoachID     string    `db:"coach_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Capacity    int       `db:"capacity"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row classRow) toClass() training.TrainingClass {
	return training.TrainingClass{
		ID:          row.ID,
		DojangID:    row.DojangID,
		CoachID:     row.CoachID,
		Name:        row.Name,
		Description: row.Description,
		Capacity:    row.Capacity,
		Schedules:   []training.Schedule{},
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type scheduleRow struct {
	ClassID     string `db:"class_id"`
	Day         int    `db:"day"`
	StartMinute int    `db:"start_minute"`
	EndMinute   int    `db:"end_minute"`
}

type enrollmentRow struct {
	ClassID    string    `db:"class_id"`
	StudentID  string    `db:"student_id"`
	EnrolledAt time.Time `db:"enrolled_at"`
}

type trainingRepository struct {
	db *sqlx.DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *sqlx.DB) training.Repository {
	return &trainingRepository{db: db}
}

func insertSchedules(ctx context.Context, tx *sqlx.Tx, classID string, schedules []training.Schedule) error {
	if _, err := exec(ctx, tx, psql.Delete(scheduleTable).Where(sq.Eq{"class_id": classID})); err != nil {
		return errors.Wrap(err, "deleting class schedules")
	}
	if len(schedules) == 0 {
		return nil
	}
	q := psql.Insert(scheduleTable).Columns("class_id", "position", "day", "start_minute", "end_minute")
	for pos, sched := range schedules {
		q = q.Values(classID, pos, int(sched.Day), int(sched.Start), int(sched.End))
	}
	if _, err := exec(ctx, tx, q); err != nil {
		return errors.Wrap(err, "inserting class schedules")
	}
	return nil
}

// loadSchedules fills in the schedules of classes.
func loadSchedules(ctx context.Context, ex Executor, classes []training.TrainingClass) error {
	if len(classes) == 0 {
		return nil
	}
	ids := make([]string, 0, len(classes))
	idx := make(map[string]int, len(classes))
	for i, tc := range classes {
		ids = append(ids, tc.ID)
		idx[tc.ID] = i
	}

	var rows []scheduleRow
	q := psql.Select("class_id", "day", "start_minute", "end_minute").
		From(scheduleTable).
		Where(sq.Eq{"class_id": ids}).
		OrderBy("class_id", "position")
	if err := selectAll(ctx, ex, &rows, q); err != nil {
		return errors.Wrap(err, "querying class schedules")
	}
	for _, row := range rows {
		i := idx[row.ClassID]
		classes[i].Schedules = append(classes[i].Schedules, training.Schedule{
			Day:   time.Weekday(row.Day),
			Start: training.TimeOfDay(row.StartMinute),
			End:   training.TimeOfDay(row.EndMinute),
		})
	}
	return nil
}

// checkCoachClasses locks the coach row until the end of tx, then runs check on the coach's classes.
func checkCoachClasses(ctx context.Context, tx *sqlx.Tx, coachID string, check func([]training.TrainingClass) error) error {
	if check == nil {
		return nil
	}
	if !validID(coachID) {
		return coach.ErrNotFound
	}
	var id string
	lock := psql.Select("id").From(coachTable).Where(sq.Eq{"id": coachID}).Suffix("FOR UPDATE")
	if err := get(ctx, tx, &id, lock); err != nil {
		return trapNoRows(err, coach.ErrNotFound, "locking coach")
	}

	var rows []classRow
	q := psql.Select(classColumns...).From(classTable).Where(sq.Eq{"coach_id": coachID})
	if err := selectAll(ctx, tx, &rows, q); err != nil {
		return errors.Wrap(err, "querying coach classes")
	}
	classes := make([]training.TrainingClass, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	if err := loadSchedules(ctx, tx, classes); err != nil {
		return err
	}
	return check(classes)
}

func (repo *trainingRepository) CreateClass(
	ctx context.Context,
	tc training.TrainingClass,
	check func([]training.TrainingClass) error,
) (training.TrainingClass, error) {
	tc.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := checkCoachClasses(ctx, tx, tc.CoachID, check); err != nil {
			return err
		}
		q := psql.Insert(classTable).Columns(classColumns...).Values(
			tc.ID, tc.DojangID, tc.CoachID, tc.Name, tc.Description, tc.Capacity, tc.CreatedAt.UTC(), tc.UpdatedAt.UTC(),
		)
		if _, err := exec(ctx, tx, q); err != nil {
			return errors.Wrap(err, "inserting training class")
		}
		return insertSchedules(ctx, tx, tc.ID, tc.Schedules)
	})
	if err != nil {
		return training.TrainingClass{}, err
	}
	return tc, nil
}

func (repo *trainingRepository) QueryClasses(ctx context.Context, filter *training.QueryFilter, ordering []core.DBOrdering) ([]training.TrainingClass, error) {
	q := psql.Select(classColumns...).From(classTable)
	if filter != nil {
		if !validFilterIDs(filter.DojangID, filter.CoachID, filter.StudentID) {
			return []training.TrainingClass{}, nil
		}
		if filter.DojangID != "" {
			q = q.Where(sq.Eq{"dojang_id": filter.DojangID})
		}
		if filter.CoachID != "" {
			q = q.Where(sq.Eq{"coach_id": filter.CoachID})
		}
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "name", "description"))
		}
		if filter.Day != nil {
			q = q.Where("EXISTS (SELECT 1 FROM class_schedule s WHERE s.class_id = training_class.id AND s.day = ?)", int(*filter.Day))
		}
		if filter.StudentID != "" {
			q = q.Where("EXISTS (SELECT 1 FROM enrollment e WHERE e.class_id = training_class.id AND e.student_id = ?)", filter.StudentID)
		}
	}
	q = q.OrderBy(orderBy(ordering, classOrderingColumns, "lower(name) ASC")...)

	var rows []classRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying training classes")
	}
	classes := make([]training.TrainingClass, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	if err := loadSchedules(ctx, repo.db, classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (repo *trainingRepository) GetClass(ctx context.Context, id string) (training.TrainingClass, error) {
	if !validID(id) {
		return training.TrainingClass{}, training.ErrNotFound
	}
	var row classRow
	q := psql.Select(classColumns...).From(classTable).Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &row, q); err != nil {
		return training.TrainingClass{}, trapNoRows(err, training.ErrNotFound, "finding training class")
	}
	classes := []training.TrainingClass{row.toClass()}
	if err := loadSchedules(ctx, repo.db, classes); err != nil {
		return training.TrainingClass{}, err
	}
	return classes[0], nil
}

func (repo *trainingRepository) UpdateClass(
	ctx context.Context,
	tc training.TrainingClass,
	check func([]training.TrainingClass) error,
) (training.TrainingClass, error) {
	if !validID(tc.ID) {
		return training.TrainingClass{}, training.ErrNotFound
	}
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := checkCoachClasses(ctx, tx, tc.CoachID, check); err != nil {
			return err
		}
		q := psql.Update(classTable).SetMap(map[string]interface{}{
			"coach_id":    tc.CoachID,
			"name":        tc.Name,
			"description": tc.Description,
			"capacity":    tc.Capacity,
			"updated_at":  tc.UpdatedAt.UTC(),
		}).Where(sq.Eq{"id": tc.ID})
		if err := execOne(ctx, tx, q, training.ErrNotFound); err != nil {
			return trapNoRows(err, training.ErrNotFound, "updating training class")
		}
		return insertSchedules(ctx, tx, tc.ID, tc.Schedules)
	})
	if err != nil {
		return training.TrainingClass{}, err
	}
	return tc, nil
}

// DeleteClass relies on ON DELETE CASCADE for schedules and enrollments.
func (repo *trainingRepository) DeleteClass(ctx context.Context, id string) error {
	if !validID(id) {
		return training.ErrNotFound
	}
	err := execOne(ctx, repo.db, psql.Delete(classTable).Where(sq.Eq{"id": id}), training.ErrNotFound)
	if err != nil {
		return trapNoRows(err, training.ErrNotFound, "deleting training class")
	}
	return nil
}

func (repo *trainingRepository) CreateEnrollment(ctx context.Context, e training.Enrollment) (training.Enrollment, error) {
	if !validID(e.ClassID) || !validID(e.StudentID) {
		return training.Enrollment{}, training.ErrNotFound
	}
	e.EnrolledAt = e.EnrolledAt.UTC()
	q := psql.Insert(enrollmentTable).
		Columns("class_id", "student_id", "enrolled_at").
		Values(e.ClassID, e.StudentID, e.EnrolledAt)
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err, "enrollment_pkey") {
			return training.Enrollment{}, training.ErrEnrollmentExists
		}
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == foreignKeyViolation {
			return training.Enrollment{}, training.ErrNotFound
		}
		return training.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *trainingRepository) QueryEnrollments(ctx context.Context, classID string) ([]training.Enrollment, error) {
	enrollments := make([]training.Enrollment, 0)
	if !validID(classID) {
		return enrollments, nil
	}
	var rows []enrollmentRow
	q := psql.Select("class_id", "student_id", "enrolled_at").
		From(enrollmentTable).
		Where(sq.Eq{"class_id": classID}).
		OrderBy("enrolled_at ASC")
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	for _, row := range rows {
		enrollments = append(enrollments, training.Enrollment{
			ClassID:    row.ClassID,
			StudentID:  row.StudentID,
			EnrolledAt: row.EnrolledAt.UTC(),
		})
	}
	return enrollments, nil
}

func (repo *trainingRepository) DeleteEnrollment(ctx context.Context, classID, studentID string) error {
	if !validID(classID) || !validID(studentID) {
		return training.ErrNotEnrolled
	}
	q := psql.Delete(enrollmentTable).Where(sq.Eq{"class_id": classID, "student_id": studentID})
	if err := execOne(ctx, repo.db, q, training.ErrNotEnrolled); err != nil {
		return trapNoRows(err, training.ErrNotEnrolled, "deleting enrollment")
	}
	return nil
}
