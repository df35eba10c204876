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
	"github.com/trezcool/dojang/core/payment"
)

const paymentTable = "payment"

var (
	paymentColumns = []string{
		"id", "student_id", "concept", "description", "amount", "currency", "status", "method",
		"provider_payment_id", "preference_id", "checkout_url", "period_month", "paid_at", "created_at", "updated_at",
	}
	paymentOrderingColumns = map[string]string{
		"amount":       "amount",
		"status":       "status",
		"period_month": "period_month",
		"paid_at":      "paid_at",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	}
)

type paymentRow struct {
	ID                string    `db:"id"`
	StudentID         string    `db:"student_id"`
	Concept           string    `db:"concept"`
	Description       string    `db:"description"`
	Amount            int64     `db:"amount"`
	Currency          string    `db:"currency"`
	Status            string    `db:"status"`
	Method            string    `db:"method"`
	ProviderPaymentID string    `db:"provider_payment_id"`
	PreferenceID      string    `db:"preference_id"`
	CheckoutURL       string    `db:"checkout_url"`
	PeriodMonth       string    `db:"period_month"`
	PaidAt            null.Time `db:"paid_at"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row paymentRow) toPayment() payment.Payment {
	p := payment.Payment{
		ID:                row.ID,
		StudentID:         row.StudentID,
		Concept:           row.Concept,
		Description:       row.Description,
		Amount:            row.Amount,
		Currency:          row.Currency,
		Status:            row.Status,
		Method:            row.Method,
		ProviderPaymentID: row.ProviderPaymentID,
		PreferenceID:      row.PreferenceID,
		CheckoutURL:       row.CheckoutURL,
		PeriodMonth:       row.PeriodMonth,
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
	if row.PaidAt.Valid {
		p.PaidAt = row.PaidAt.Time.UTC()
	}
	return p
}

type paymentRepository struct {
	db *sqlx.DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) payment.Repository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	p.ID = uuid.New().String()
	q := psql.Insert(paymentTable).Columns(paymentColumns...).Values(
		p.ID, p.StudentID, p.Concept, p.Description, p.Amount, p.Currency, p.Status, p.Method,
		p.ProviderPaymentID, p.PreferenceID, p.CheckoutURL, p.PeriodMonth, nullDate(p.PaidAt),
		p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if _, err := exec(ctx, repo.db, q); err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, filter *payment.QueryFilter, ordering []core.DBOrdering) ([]payment.Payment, error) {
	q := psql.Select(paymentColumns...).From(paymentTable)
	if filter != nil {
		if !validFilterIDs(filter.StudentID) {
			return []payment.Payment{}, nil
		}
		eq := sq.Eq{}
		if filter.StudentID != "" {
			eq["student_id"] = filter.StudentID
		}
		if len(filter.Statuses) > 0 {
			eq["status"] = filter.Statuses
		}
		if filter.Concept != "" {
			eq["concept"] = filter.Concept
		}
		if filter.Method != "" {
			eq["method"] = filter.Method
		}
		if filter.PeriodMonth != "" {
			eq["period_month"] = filter.PeriodMonth
		}
		if len(eq) > 0 {
			q = q.Where(eq)
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}
	q = q.OrderBy(orderBy(ordering, paymentOrderingColumns, "created_at DESC")...)

	var rows []paymentRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	payments := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.toPayment())
	}
	return payments, nil
}

func (repo *paymentRepository) GetPayment(ctx context.Context, id string) (payment.Payment, error) {
	if !validID(id) {
		return payment.Payment{}, payment.ErrNotFound
	}
	var row paymentRow
	q := psql.Select(paymentColumns...).From(paymentTable).Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &row, q); err != nil {
		return payment.Payment{}, trapNoRows(err, payment.ErrNotFound, "finding payment")
	}
	return row.toPayment(), nil
}

func (repo *paymentRepository) UpdatePayment(ctx context.Context, p payment.Payment) (payment.Payment, error) {
	if !validID(p.ID) {
		return payment.Payment{}, payment.ErrNotFound
	}
	q := psql.Update(paymentTable).SetMap(map[string]interface{}{
		"description":         p.Description,
		"status":              p.Status,
		"provider_payment_id": p.ProviderPaymentID,
		"preference_id":       p.PreferenceID,
		"checkout_url":        p.CheckoutURL,
		"paid_at":             nullDate(p.PaidAt),
		"updated_at":          p.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": p.ID})
	if err := execOne(ctx, repo.db, q, payment.ErrNotFound); err != nil {
		return payment.Payment{}, trapNoRows(err, payment.ErrNotFound, "updating payment")
	}
	return p, nil
}
