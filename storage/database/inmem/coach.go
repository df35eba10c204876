package inmemdb

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/coach"
)

type coachRepository struct {
	db *DB
}

var _ coach.Repository = (*coachRepository)(nil) // interface compliance check

func NewCoachRepository(db *DB) coach.Repository {
	return &coachRepository{db: db}
}

func copyCoach(c coach.Coach) *coach.Coach {
	if c.IsActive != nil {
		c.SetActive(*c.IsActive)
	}
	return &c
}

func compareCoaches(a, b coach.Coach, field string) int {
	switch field {
	case "first_name":
		return cmpString(a.FirstName, b.FirstName)
	case "last_name":
		return cmpString(a.LastName, b.LastName)
	case "email":
		return cmpString(a.Email, b.Email)
	case "is_active":
		return cmpBool(a.Active(), b.Active())
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func (repo *coachRepository) CreateCoach(_ context.Context, c coach.Coach) (coach.Coach, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	c.ID = newID()
	repo.db.coaches[c.ID] = copyCoach(c)
	return *copyCoach(c), nil
}

func (repo *coachRepository) QueryCoaches(_ context.Context, filter *coach.QueryFilter, ordering []core.DBOrdering) ([]coach.Coach, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ids map[string]bool
	if filter != nil && filter.IDs != nil {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	coaches := make([]coach.Coach, 0, len(repo.db.coaches))
	for _, c := range repo.db.coaches {
		if filter != nil {
			if ids != nil && !ids[c.ID] {
				continue
			}
			if filter.DojangID != "" && c.DojangID != filter.DojangID {
				continue
			}
			if filter.IsActive != nil && c.Active() != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !contains(filter.Search, c.FirstName, c.LastName, c.Email) {
				continue
			}
		}
		coaches = append(coaches, *copyCoach(*c))
	}
	orderBy(coaches, ordering, compareCoaches,
		core.DBOrdering{Field: "last_name", Ascending: true},
		core.DBOrdering{Field: "first_name", Ascending: true})
	return coaches, nil
}

func (repo *coachRepository) GetCoach(_ context.Context, id string) (coach.Coach, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.coaches[id]; ok {
		return *copyCoach(*c), nil
	}
	return coach.Coach{}, coach.ErrNotFound
}

func (repo *coachRepository) GetCoachByUserID(_ context.Context, userID string) (coach.Coach, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if userID != "" {
		for _, c := range repo.db.coaches {
			if c.UserID == userID {
				return *copyCoach(*c), nil
			}
		}
	}
	return coach.Coach{}, coach.ErrNotFound
}

func (repo *coachRepository) UpdateCoach(_ context.Context, c coach.Coach) (coach.Coach, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.coaches[c.ID]; !ok {
		return coach.Coach{}, coach.ErrNotFound
	}
	repo.db.coaches[c.ID] = copyCoach(c)
	return *copyCoach(c), nil
}

func (repo *coachRepository) CountCoachClasses(_ context.Context, id string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cnt int
	for _, tc := range repo.db.classes {
		if tc.CoachID == id {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *coachRepository) DeleteCoach(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.coaches[id]; !ok {
		return coach.ErrNotFound
	}
	delete(repo.db.coaches, id)

	for _, d := range repo.db.dojangs {
		if d.HeadCoachID == id {
			d.HeadCoachID = ""
		}
	}
	for _, p := range repo.db.promotions {
		if p.CoachID == id {
			p.CoachID = ""
		}
	}
	return nil
}
