package inmemdb

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/training"
)

type trainingRepository struct {
	db *DB
}

var _ training.Repository = (*trainingRepository)(nil) // interface compliance check

func NewTrainingRepository(db *DB) training.Repository {
	return &trainingRepository{db: db}
}

func copyClass(tc training.TrainingClass) *training.TrainingClass {
	if tc.Schedules != nil {
		tc.Schedules = append(make([]training.Schedule, 0, len(tc.Schedules)), tc.Schedules...)
	}
	return &tc
}

func compareClasses(a, b training.TrainingClass, field string) int {
	switch field {
	case "name":
		return cmpString(a.Name, b.Name)
	case "capacity":
		return cmpInt(int64(a.Capacity), int64(b.Capacity))
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

// runCheck expects the DB to be locked.
func (repo *trainingRepository) runCheck(coachID string, check func([]training.TrainingClass) error) error {
	if check == nil {
		return nil
	}
	classes := make([]training.TrainingClass, 0)
	for _, tc := range repo.db.classes {
		if tc.CoachID == coachID {
			classes = append(classes, *copyClass(*tc))
		}
	}
	return check(classes)
}

func (repo *trainingRepository) CreateClass(
	_ context.Context,
	tc training.TrainingClass,
	check func([]training.TrainingClass) error,
) (training.TrainingClass, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if err := repo.runCheck(tc.CoachID, check); err != nil {
		return training.TrainingClass{}, err
	}
	tc.ID = newID()
	repo.db.classes[tc.ID] = copyClass(tc)
	return *copyClass(tc), nil
}

func (repo *trainingRepository) QueryClasses(_ context.Context, filter *training.QueryFilter, ordering []core.DBOrdering) ([]training.TrainingClass, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]training.TrainingClass, 0, len(repo.db.classes))
	for _, tc := range repo.db.classes {
		if filter != nil && !repo.matchClass(*tc, filter) {
			continue
		}
		classes = append(classes, *copyClass(*tc))
	}
	orderBy(classes, ordering, compareClasses, core.DBOrdering{Field: "name", Ascending: true})
	return classes, nil
}

// matchClass expects the DB to be locked.
func (repo *trainingRepository) matchClass(tc training.TrainingClass, filter *training.QueryFilter) bool {
	if filter.DojangID != "" && tc.DojangID != filter.DojangID {
		return false
	}
	if filter.CoachID != "" && tc.CoachID != filter.CoachID {
		return false
	}
	if filter.Search != "" && !contains(filter.Search, tc.Name, tc.Description) {
		return false
	}
	if filter.Day != nil {
		found := false
		for _, sched := range tc.Schedules {
			if sched.Day == *filter.Day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.StudentID != "" {
		found := false
		for _, e := range repo.db.enrollments[tc.ID] {
			if e.StudentID == filter.StudentID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (repo *trainingRepository) GetClass(_ context.Context, id string) (training.TrainingClass, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if tc, ok := repo.db.classes[id]; ok {
		return *copyClass(*tc), nil
	}
	return training.TrainingClass{}, training.ErrNotFound
}

func (repo *trainingRepository) UpdateClass(
	_ context.Context,
	tc training.TrainingClass,
	check func([]training.TrainingClass) error,
) (training.TrainingClass, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[tc.ID]; !ok {
		return training.TrainingClass{}, training.ErrNotFound
	}
	if err := repo.runCheck(tc.CoachID, check); err != nil {
		return training.TrainingClass{}, err
	}
	repo.db.classes[tc.ID] = copyClass(tc)
	return *copyClass(tc), nil
}

func (repo *trainingRepository) DeleteClass(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return training.ErrNotFound
	}
	delete(repo.db.classes, id)
	delete(repo.db.enrollments, id)
	return nil
}

func (repo *trainingRepository) CreateEnrollment(_ context.Context, e training.Enrollment) (training.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.classes[e.ClassID]; !ok {
		return training.Enrollment{}, training.ErrNotFound
	}
	for _, existing := range repo.db.enrollments[e.ClassID] {
		if existing.StudentID == e.StudentID {
			return training.Enrollment{}, training.ErrEnrollmentExists
		}
	}
	repo.db.enrollments[e.ClassID] = append(repo.db.enrollments[e.ClassID], e)
	return e, nil
}

func (repo *trainingRepository) QueryEnrollments(_ context.Context, classID string) ([]training.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return append(make([]training.Enrollment, 0, len(repo.db.enrollments[classID])), repo.db.enrollments[classID]...), nil
}

func (repo *trainingRepository) DeleteEnrollment(_ context.Context, classID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enrollments := repo.db.enrollments[classID]
	for i, e := range enrollments {
		if e.StudentID == studentID {
			repo.db.enrollments[classID] = append(enrollments[:i:i], enrollments[i+1:]...)
			return nil
		}
	}
	return training.ErrNotEnrolled
}
