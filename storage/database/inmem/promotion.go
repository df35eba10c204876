package inmemdb

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/promotion"
	"github.com/trezcool/dojang/core/student"
)

type promotionRepository struct {
	db *DB
}

var _ promotion.Repository = (*promotionRepository)(nil) // interface compliance check

func NewPromotionRepository(db *DB) promotion.Repository {
	return &promotionRepository{db: db}
}

func comparePromotions(a, b promotion.Promotion, field string) int {
	switch field {
	case "promoted_at":
		return cmpTime(a.PromotedAt, b.PromotedAt)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	}
	return 0
}

func (repo *promotionRepository) ApplyPromotion(_ context.Context, p promotion.Promotion) (promotion.Promotion, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.students[p.StudentID]
	if !ok {
		return promotion.Promotion{}, student.ErrNotFound
	}
	if s.RankID != p.FromRankID {
		return promotion.Promotion{}, promotion.ErrRankChanged
	}

	p.ID = newID()
	stored := p
	repo.db.promotions[p.ID] = &stored
	s.RankID = p.ToRankID
	s.UpdatedAt = p.CreatedAt
	return p, nil
}

func (repo *promotionRepository) RevertPromotion(_ context.Context, p promotion.Promotion) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.promotions[p.ID]; !ok {
		return promotion.ErrNotFound
	}
	s, ok := repo.db.students[p.StudentID]
	if !ok {
		return student.ErrNotFound
	}
	if s.RankID != p.ToRankID {
		return promotion.ErrRankChanged
	}

	delete(repo.db.promotions, p.ID)
	s.RankID = p.FromRankID
	s.UpdatedAt = core.NowFunc()
	return nil
}

func (repo *promotionRepository) QueryPromotions(_ context.Context, filter *promotion.QueryFilter, ordering []core.DBOrdering) ([]promotion.Promotion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	promotions := make([]promotion.Promotion, 0)
	for _, p := range repo.db.promotions {
		if filter != nil {
			if filter.StudentID != "" && p.StudentID != filter.StudentID {
				continue
			}
			if filter.CoachID != "" && p.CoachID != filter.CoachID {
				continue
			}
			if filter.RankID != "" && p.ToRankID != filter.RankID {
				continue
			}
			if !filter.From.IsZero() && p.PromotedAt.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && p.PromotedAt.After(filter.To) {
				continue
			}
		}
		promotions = append(promotions, *p)
	}
	orderBy(promotions, ordering, comparePromotions,
		core.DBOrdering{Field: "promoted_at"},
		core.DBOrdering{Field: "created_at"})
	return promotions, nil
}

func (repo *promotionRepository) GetPromotion(_ context.Context, id string) (promotion.Promotion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.promotions[id]; ok {
		return *p, nil
	}
	return promotion.Promotion{}, promotion.ErrNotFound
}
