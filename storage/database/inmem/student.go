package inmemdb

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func copyStudent(s student.Student) *student.Student {
	if s.IsActive != nil {
		s.SetActive(*s.IsActive)
	}
	return &s
}

func compareStudents(a, b student.Student, field string) int {
	switch field {
	case "first_name":
		return cmpString(a.FirstName, b.FirstName)
	case "last_name":
		return cmpString(a.LastName, b.LastName)
	case "email":
		return cmpString(a.Email, b.Email)
	case "joined_at":
		return cmpTime(a.JoinedAt, b.JoinedAt)
	case "is_active":
		return cmpBool(a.Active(), b.Active())
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.ID = newID()
	repo.db.students[s.ID] = copyStudent(s)
	return *copyStudent(s), nil
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter *student.QueryFilter, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ids map[string]bool
	if filter != nil && filter.IDs != nil {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	students := make([]student.Student, 0, len(repo.db.students))
	for _, s := range repo.db.students {
		if filter != nil {
			if ids != nil && !ids[s.ID] {
				continue
			}
			if filter.DojangID != "" && s.DojangID != filter.DojangID {
				continue
			}
			if filter.RankID != "" && s.RankID != filter.RankID {
				continue
			}
			if filter.IsActive != nil && s.Active() != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !contains(filter.Search, s.FirstName, s.LastName, s.Email) {
				continue
			}
		}
		students = append(students, *copyStudent(*s))
	}
	orderBy(students, ordering, compareStudents,
		core.DBOrdering{Field: "last_name", Ascending: true},
		core.DBOrdering{Field: "first_name", Ascending: true})
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *copyStudent(*s), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByUserID(_ context.Context, userID string) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if userID != "" {
		for _, s := range repo.db.students {
			if s.UserID == userID {
				return *copyStudent(*s), nil
			}
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	// the rank only changes through promotions
	s.RankID = orig.RankID
	repo.db.students[s.ID] = copyStudent(s)
	return *copyStudent(s), nil
}

// DeleteStudent deletes the student along with their enrollments, promotions and payments.
func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)

	for classID, enrollments := range repo.db.enrollments {
		kept := enrollments[:0]
		for _, e := range enrollments {
			if e.StudentID != id {
				kept = append(kept, e)
			}
		}
		repo.db.enrollments[classID] = kept
	}
	for pid, p := range repo.db.promotions {
		if p.StudentID == id {
			delete(repo.db.promotions, pid)
		}
	}
	for pid, p := range repo.db.payments {
		if p.StudentID == id {
			delete(repo.db.payments, pid)
		}
	}
	return nil
}
