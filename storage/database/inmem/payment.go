package inmemdb

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

func comparePayments(a, b payment.Payment, field string) int {
	switch field {
	case "amount":
		return cmpInt(a.Amount, b.Amount)
	case "status":
		return cmpString(a.Status, b.Status)
	case "period_month":
		return cmpString(a.PeriodMonth, b.PeriodMonth)
	case "paid_at":
		return cmpTime(a.PaidAt, b.PaidAt)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = newID()
	stored := p
	repo.db.payments[p.ID] = &stored
	return p, nil
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter *payment.QueryFilter, ordering []core.DBOrdering) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.payments {
		if filter != nil {
			if filter.StudentID != "" && p.StudentID != filter.StudentID {
				continue
			}
			if len(filter.Statuses) > 0 && !core.StringInSlice(p.Status, filter.Statuses) {
				continue
			}
			if filter.Concept != "" && p.Concept != filter.Concept {
				continue
			}
			if filter.Method != "" && p.Method != filter.Method {
				continue
			}
			if filter.PeriodMonth != "" && p.PeriodMonth != filter.PeriodMonth {
				continue
			}
			if !filter.CreatedFrom.IsZero() && p.CreatedAt.Before(filter.CreatedFrom) {
				continue
			}
			if !filter.CreatedTo.IsZero() && p.CreatedAt.After(filter.CreatedTo) {
				continue
			}
		}
		payments = append(payments, *p)
	}
	orderBy(payments, ordering, comparePayments, core.DBOrdering{Field: "created_at"})
	return payments, nil
}

func (repo *paymentRepository) GetPayment(_ context.Context, id string) (payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.payments[id]; ok {
		return *p, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.payments[p.ID]; !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	stored := p
	repo.db.payments[p.ID] = &stored
	return p, nil
}
