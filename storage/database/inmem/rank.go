package inmemdb

import (
	"context"
	"strings"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/rank"
)

type rankRepository struct {
	db *DB
}

var _ rank.Repository = (*rankRepository)(nil) // interface compliance check

func NewRankRepository(db *DB) rank.Repository {
	return &rankRepository{db: db}
}

func compareRanks(a, b rank.Rank, field string) int {
	switch field {
	case "order":
		return cmpInt(int64(a.Order), int64(b.Order))
	case "name":
		return cmpString(a.Name, b.Name)
	case "kind":
		return cmpString(a.Kind, b.Kind)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	}
	return 0
}

func (repo *rankRepository) CheckRankUniqueness(_ context.Context, name string, order int, excludedRanks []rank.Rank) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedRanks))
	for _, r := range excludedRanks {
		excluded[r.ID] = true
	}
	for _, r := range repo.db.ranks {
		if excluded[r.ID] {
			continue
		}
		if strings.EqualFold(r.Name, name) {
			return rank.ErrNameExists
		}
		if r.Order == order {
			return rank.ErrOrderExists
		}
	}
	return nil
}

func (repo *rankRepository) CreateRank(_ context.Context, r rank.Rank) (rank.Rank, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	r.ID = newID()
	stored := r
	repo.db.ranks[r.ID] = &stored
	return r, nil
}

func (repo *rankRepository) QueryRanks(_ context.Context, ordering []core.DBOrdering) ([]rank.Rank, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ranks := make([]rank.Rank, 0, len(repo.db.ranks))
	for _, r := range repo.db.ranks {
		ranks = append(ranks, *r)
	}
	orderBy(ranks, ordering, compareRanks, core.DBOrdering{Field: "order", Ascending: true})
	return ranks, nil
}

func (repo *rankRepository) GetRank(_ context.Context, id string) (rank.Rank, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if r, ok := repo.db.ranks[id]; ok {
		return *r, nil
	}
	return rank.Rank{}, rank.ErrNotFound
}

func (repo *rankRepository) GetRankByOrder(_ context.Context, order int) (rank.Rank, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, r := range repo.db.ranks {
		if r.Order == order {
			return *r, nil
		}
	}
	return rank.Rank{}, rank.ErrNotFound
}

func (repo *rankRepository) UpdateRank(_ context.Context, r rank.Rank) (rank.Rank, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.ranks[r.ID]; !ok {
		return rank.Rank{}, rank.ErrNotFound
	}
	stored := r
	repo.db.ranks[r.ID] = &stored
	return r, nil
}

func (repo *rankRepository) RankInUse(_ context.Context, id string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.students {
		if s.RankID == id {
			return true, nil
		}
	}
	for _, c := range repo.db.coaches {
		if c.RankID == id {
			return true, nil
		}
	}
	for _, p := range repo.db.promotions {
		if p.FromRankID == id || p.ToRankID == id {
			return true, nil
		}
	}
	return false, nil
}

func (repo *rankRepository) DeleteRank(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.ranks[id]; !ok {
		return rank.ErrNotFound
	}
	delete(repo.db.ranks, id)
	return nil
}
