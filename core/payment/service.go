package payment

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/student"
)

var (
	// errors
	ErrNotFound         = errors.New("payment not found")
	ErrNotCancellable   = errors.New("only pending payments can be cancelled")
	ErrPaidInFuture     = errors.New("payment date cannot be in the future")
	ErrGatewayDisabled  = errors.New("online payments are not configured")
	ErrAmountMismatch   = errors.New("provider payment amount does not match")
	ErrUnknownReference = errors.New("provider payment does not reference a known payment")
	ErrStudentInactive  = errors.New("student is not active")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		// QueryPayments applies AND operation on available QueryFilter fields.
		// it orders by created_at DESC when no ordering is provided.
		QueryPayments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)
	}

	Service interface {
		// Record saves an approved manual payment.
		Record(ctx context.Context, np NewPayment) (Payment, error)
		// Checkout saves a pending payment and creates its gateway preference.
		Checkout(ctx context.Context, nc NewCheckout) (Payment, error)
		// HandleNotification verifies a gateway notification and syncs the local payment with the provider's state.
		// ignored notifications (other topics) return a zero Payment and a nil error.
		HandleNotification(ctx context.Context, n Notification) (Payment, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Payment, error)
		GetByID(ctx context.Context, id string) (Payment, error)
		Cancel(ctx context.Context, id string) (Payment, error)
	}

	service struct {
		repo       Repository
		gateway    Gateway // optional
		studentSvc student.Service
		mailSvc    core.EmailService
		logger     core.Logger
		conf       *core.Config
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(
	repo Repository,
	gateway Gateway,
	studentSvc student.Service,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		repo:       repo,
		gateway:    gateway,
		studentSvc: studentSvc,
		mailSvc:    mailSvc,
		logger:     logger,
		conf:       conf,
	}
}

func (svc *service) getStudent(ctx context.Context, id string) (student.Student, error) {
	stud, err := svc.studentSvc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Student{}, core.NewFieldValidationError("student_id", student.ErrNotFound)
		}
		return student.Student{}, errors.Wrap(err, "finding student")
	}
	return stud, nil
}

func (svc *service) currency(c string) string {
	if c != "" {
		return strings.ToUpper(c)
	}
	return svc.conf.MercadoPago.Currency
}

func (svc *service) Record(ctx context.Context, np NewPayment) (Payment, error) {
	stud, err := svc.getStudent(ctx, np.StudentID)
	if err != nil {
		return Payment{}, err
	}

	now := core.NowFunc()
	paidAt := now
	if np.PaidAt != nil {
		paidAt = np.PaidAt.UTC()
	}
	p, err := svc.repo.CreatePayment(ctx, Payment{
		StudentID:   stud.ID,
		Concept:     np.Concept,
		Description: np.Description,
		Amount:      np.Amount,
		Currency:    svc.currency(np.Currency),
		Status:      StatusApproved,
		Method:      np.Method,
		PeriodMonth: np.PeriodMonth,
		PaidAt:      paidAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}
	svc.sendReceipt(p, stud)
	return p, nil
}

func (svc *service) Checkout(ctx context.Context, nc NewCheckout) (Payment, error) {
	if svc.gateway == nil {
		return Payment{}, ErrGatewayDisabled
	}
	stud, err := svc.getStudent(ctx, nc.StudentID)
	if err != nil {
		return Payment{}, err
	}
	if !stud.Active() {
		return Payment{}, core.NewFieldValidationError("student_id", ErrStudentInactive)
	}

	now := core.NowFunc()
	p, err := svc.repo.CreatePayment(ctx, Payment{
		StudentID:   stud.ID,
		Concept:     nc.Concept,
		Description: nc.Description,
		Amount:      nc.Amount,
		Currency:    svc.currency(nc.Currency),
		Status:      StatusPending,
		Method:      MethodMercadoPago,
		PeriodMonth: nc.PeriodMonth,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating payment")
	}

	title := conceptTitle(p)
	pref, err := svc.gateway.CreatePreference(ctx, Preference{
		ExternalReference: p.ID,
		Title:             title,
		Description:       p.Description,
		Amount:            p.Amount,
		Currency:          p.Currency,
		PayerEmail:        stud.Email,
		PayerName:         stud.FullName(),
	})
	if err != nil {
		p.Status, p.UpdatedAt = StatusCancelled, core.NowFunc()
		if _, uErr := svc.repo.UpdatePayment(ctx, p); uErr != nil {
			svc.logger.Error("payment.Checkout: cancelling payment: "+uErr.Error(), uErr)
		}
		return Payment{}, errors.Wrap(err, "creating payment preference")
	}

	p.PreferenceID = pref.ID
	p.CheckoutURL = pref.CheckoutURL
	p.UpdatedAt = core.NowFunc()
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *service) HandleNotification(ctx context.Context, n Notification) (Payment, error) {
	if err := VerifySignature(n, svc.conf.MercadoPago.WebhookSecret); err != nil {
		return Payment{}, err
	}
	if n.Topic != TopicPayment || n.DataID == "" {
		return Payment{}, nil
	}
	if svc.gateway == nil {
		return Payment{}, ErrGatewayDisabled
	}

	// never trust the notification body: the state comes from the provider
	pp, err := svc.gateway.GetPayment(ctx, n.DataID)
	if err != nil {
		return Payment{}, errors.Wrap(err, "fetching provider payment")
	}
	if pp.ExternalReference == "" {
		return Payment{}, ErrUnknownReference
	}
	p, err := svc.repo.GetPayment(ctx, pp.ExternalReference)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Payment{}, ErrUnknownReference
		}
		return Payment{}, errors.Wrap(err, "finding payment")
	}
	return svc.sync(ctx, p, pp)
}

// sync applies the provider state to the payment. repeated notifications are no-ops.
func (svc *service) sync(ctx context.Context, p Payment, pp ProviderPayment) (Payment, error) {
	status, ok := MapProviderStatus(pp.Status)
	if !ok {
		svc.logger.Warn("payment.sync: unknown provider status "+pp.Status, map[string]interface{}{"payment_id": p.ID})
		return p, nil
	}
	if status == StatusApproved && pp.Amount != 0 && pp.Amount != p.Amount {
		svc.logger.Error("payment.sync: amount mismatch", ErrAmountMismatch, map[string]interface{}{
			"payment_id":      p.ID,
			"amount":          p.Amount,
			"provider_amount": pp.Amount,
		})
		return p, ErrAmountMismatch
	}

	changed := false
	if p.ProviderPaymentID != pp.ID {
		p.ProviderPaymentID = pp.ID
		changed = true
	}
	becameApproved := false
	if status != p.Status {
		if !CanTransition(p.Status, status) {
			svc.logger.Warn("payment.sync: ignoring transition", map[string]interface{}{
				"payment_id": p.ID,
				"from":       p.Status,
				"to":         status,
			})
		} else {
			p.Status = status
			changed = true
			if status == StatusApproved {
				becameApproved = true
				p.PaidAt = pp.ApprovedAt.UTC()
				if pp.ApprovedAt.IsZero() {
					p.PaidAt = core.NowFunc()
				}
			}
		}
	}
	if !changed {
		return p, nil
	}

	p.UpdatedAt = core.NowFunc()
	p, err := svc.repo.UpdatePayment(ctx, p)
	if err != nil {
		return Payment{}, errors.Wrap(err, "updating payment")
	}
	if becameApproved {
		if stud, err := svc.studentSvc.GetByID(ctx, p.StudentID); err == nil {
			svc.sendReceipt(p, stud)
		} else {
			svc.logger.Error("payment.sync: finding student: "+err.Error(), err)
		}
	}
	return p, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Payment, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryPayments(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPayment(ctx, id)
}

func (svc *service) Cancel(ctx context.Context, id string) (Payment, error) {
	p, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	if p.Status != StatusPending {
		return Payment{}, ErrNotCancellable
	}
	p.Status = StatusCancelled
	p.UpdatedAt = core.NowFunc()
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *service) sendReceipt(p Payment, stud student.Student) {
	if stud.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stud.FullName(), Address: stud.Email}},
		Subject:      "Payment Receipt",
		TemplateName: "payment_receipt",
		TemplateData: map[string]interface{}{
			"Name":        stud.FullName(),
			"Concept":     conceptTitle(p),
			"Description": p.Description,
			"Amount":      FormatAmount(p.Amount),
			"Currency":    p.Currency,
			"Reference":   p.ID,
			"PaidAt":      p.PaidAt.Format(time.RFC1123),
		},
	})
}

var conceptTitles = map[string]string{
	ConceptMonthlyFee: "Monthly Fee",
	ConceptExamFee:    "Exam Fee",
	ConceptEnrollment: "Enrollment",
	ConceptEquipment:  "Equipment",
	ConceptOther:      "Other",
}

func conceptTitle(p Payment) string {
	title := conceptTitles[p.Concept]
	if p.PeriodMonth != "" {
		title += " " + p.PeriodMonth
	}
	return title
}
