package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusInProcess = "in_process"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusRefunded  = "refunded"
)

// Concepts
const (
	ConceptMonthlyFee = "monthly_fee"
	ConceptExamFee    = "exam_fee"
	ConceptEnrollment = "enrollment"
	ConceptEquipment  = "equipment"
	ConceptOther      = "other"
)

// Methods
const (
	MethodCash        = "cash"
	MethodTransfer    = "transfer"
	MethodMercadoPago = "mercadopago"
)

var (
	Statuses = []string{StatusPending, StatusInProcess, StatusApproved, StatusRejected, StatusCancelled, StatusRefunded}
	Concepts = []string{ConceptMonthlyFee, ConceptExamFee, ConceptEnrollment, ConceptEquipment, ConceptOther}
	Methods  = []string{MethodCash, MethodTransfer, MethodMercadoPago}

	// QueryOrderingFields are the fields payments can be ordered by.
	QueryOrderingFields = []string{"amount", "status", "period_month", "paid_at", "created_at", "updated_at"}
)

type Payment struct {
	ID                string    `json:"id"`
	StudentID         string    `json:"student_id"`
	Concept           string    `json:"concept"`
	Description       string    `json:"description"`
	Amount            int64     `json:"amount"` // cents
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	Method            string    `json:"method"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	PreferenceID      string    `json:"preference_id"`
	CheckoutURL       string    `json:"checkout_url"`
	PeriodMonth       string    `json:"period_month"` // YYYY-MM
	PaidAt            time.Time `json:"paid_at"`      // UTC
	CreatedAt         time.Time `json:"created_at"`   // UTC
	UpdatedAt         time.Time `json:"updated_at"`   // UTC
}

// FormatAmount formats cents as a decimal amount, e.g. 150050 -> "1500.50".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// NewPayment contains information needed to record a manual (cash or transfer) payment.
type NewPayment struct {
	StudentID   string     `json:"student_id" validate:"required"`
	Concept     string     `json:"concept" validate:"required,oneof=monthly_fee exam_fee enrollment equipment other"`
	Description string     `json:"description" validate:"max=255"`
	Amount      int64      `json:"amount" validate:"required,min=1"`
	Currency    string     `json:"currency" validate:"omitempty,currency"`
	Method      string     `json:"method" validate:"required,oneof=cash transfer"`
	PeriodMonth string     `json:"period_month" validate:"omitempty,datetime=2006-01"`
	PaidAt      *time.Time `json:"paid_at"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.Concept = core.CleanString(np.Concept, true /* lower */)
	np.Description = core.CleanString(np.Description)
	np.Currency = strings.ToUpper(core.CleanString(np.Currency))
	np.Method = core.CleanString(np.Method, true /* lower */)
	np.PeriodMonth = core.CleanString(np.PeriodMonth)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.PaidAt != nil && np.PaidAt.After(core.NowFunc()) {
		return core.NewFieldValidationError("paid_at", ErrPaidInFuture)
	}
	return nil
}

// NewCheckout contains information needed to start an online (MercadoPago) payment.
type NewCheckout struct {
	StudentID   string `json:"student_id" validate:"required"`
	Concept     string `json:"concept" validate:"required,oneof=monthly_fee exam_fee enrollment equipment other"`
	Description string `json:"description" validate:"max=255"`
	Amount      int64  `json:"amount" validate:"required,min=1"`
	Currency    string `json:"currency" validate:"omitempty,currency"`
	PeriodMonth string `json:"period_month" validate:"omitempty,datetime=2006-01"`
}

func (nc *NewCheckout) Validate(validate *validator.Validate) error {
	nc.StudentID = core.CleanString(nc.StudentID)
	nc.Concept = core.CleanString(nc.Concept, true /* lower */)
	nc.Description = core.CleanString(nc.Description)
	nc.Currency = strings.ToUpper(core.CleanString(nc.Currency))
	nc.PeriodMonth = core.CleanString(nc.PeriodMonth)
	return validate.Struct(nc)
}

type QueryFilter struct {
	StudentID   string
	Statuses    []string
	Concept     string
	Method      string
	PeriodMonth string
	CreatedFrom time.Time
	CreatedTo   time.Time
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Concept = core.CleanString(qf.Concept, true /* lower */)
	qf.Method = core.CleanString(qf.Method, true /* lower */)
	qf.PeriodMonth = core.CleanString(qf.PeriodMonth)
	statuses := qf.Statuses[:0]
	for _, s := range qf.Statuses {
		if s = core.CleanString(s, true /* lower */); core.StringInSlice(s, Statuses) {
			statuses = append(statuses, s)
		}
	}
	qf.Statuses = statuses
}
