package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/dojang"
)

type dojangRepository struct {
	db *DB
}

var _ dojang.Repository = (*dojangRepository)(nil) // interface compliance check

func NewDojangRepository(db *DB) dojang.Repository {
	return &dojangRepository{db: db}
}

func compareDojangs(a, b dojang.Dojang, field string) int {
	switch field {
	case "name":
		return cmpString(a.Name, b.Name)
	case "city":
		return cmpString(a.City, b.City)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func (repo *dojangRepository) CheckDojangUniqueness(_ context.Context, name string, excludedDojangs []dojang.Dojang) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedDojangs))
	for _, d := range excludedDojangs {
		excluded[d.ID] = true
	}
	for _, d := range repo.db.dojangs {
		if !excluded[d.ID] && strings.EqualFold(d.Name, name) {
			return dojang.ErrNameExists
		}
	}
	return nil
}

func (repo *dojangRepository) CreateDojang(_ context.Context, d dojang.Dojang) (dojang.Dojang, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	d.ID = newID()
	stored := d
	repo.db.dojangs[d.ID] = &stored
	return d, nil
}

func (repo *dojangRepository) QueryDojangs(_ context.Context, filter *dojang.QueryFilter, ordering []core.DBOrdering) ([]dojang.Dojang, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	dojangs := make([]dojang.Dojang, 0, len(repo.db.dojangs))
	for _, d := range repo.db.dojangs {
		if filter != nil {
			if filter.Search != "" && !contains(filter.Search, d.Name, d.City, d.Address) {
				continue
			}
			if filter.City != "" && !strings.EqualFold(filter.City, d.City) {
				continue
			}
		}
		dojangs = append(dojangs, *d)
	}
	orderBy(dojangs, ordering, compareDojangs, core.DBOrdering{Field: "name", Ascending: true})
	return dojangs, nil
}

func (repo *dojangRepository) GetDojang(_ context.Context, id string) (dojang.Dojang, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if d, ok := repo.db.dojangs[id]; ok {
		return *d, nil
	}
	return dojang.Dojang{}, dojang.ErrNotFound
}

func (repo *dojangRepository) UpdateDojang(_ context.Context, d dojang.Dojang) (dojang.Dojang, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.dojangs[d.ID]; !ok {
		return dojang.Dojang{}, dojang.ErrNotFound
	}
	stored := d
	repo.db.dojangs[d.ID] = &stored
	return d, nil
}

func (repo *dojangRepository) DeleteDojang(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.dojangs[id]; !ok {
		return dojang.ErrNotFound
	}
	delete(repo.db.dojangs, id)
	return nil
}

func (repo *dojangRepository) IsDojangCoach(_ context.Context, dojangID, coachID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	c, ok := repo.db.coaches[coachID]
	return ok && c.DojangID == dojangID && c.Active(), nil
}

func (repo *dojangRepository) CountDojangStudents(_ context.Context, dojangID string) (total int, active int, err error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.students {
		if s.DojangID == dojangID {
			total++
			if s.Active() {
				active++
			}
		}
	}
	return total, active, nil
}

func (repo *dojangRepository) CountDojangCoaches(_ context.Context, dojangID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cnt int
	for _, c := range repo.db.coaches {
		if c.DojangID == dojangID {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *dojangRepository) CountDojangClasses(_ context.Context, dojangID string) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var cnt int
	for _, tc := range repo.db.classes {
		if tc.DojangID == dojangID {
			cnt++
		}
	}
	return cnt, nil
}

func (repo *dojangRepository) SumDojangPayments(_ context.Context, dojangID string) (map[string]int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	totals := make(map[string]int64)
	for _, p := range repo.db.payments {
		if s, ok := repo.db.students[p.StudentID]; ok && s.DojangID == dojangID {
			totals[p.Status] += p.Amount
		}
	}
	return totals, nil
}
