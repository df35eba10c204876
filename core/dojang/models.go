package dojang

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// QueryOrderingFields are the fields dojangs can be ordered by.
var QueryOrderingFields = []string{"name", "city", "created_at", "updated_at"}

type Dojang struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	HeadCoachID string    `json:"head_coach_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Summary aggregates the figures of a Dojang.
// payment totals are in cents.
type Summary struct {
	DojangID         string `json:"dojang_id"`
	Students         int    `json:"students"`
	ActiveStudents   int    `json:"active_students"`
	Coaches          int    `json:"coaches"`
	Classes          int    `json:"classes"`
	PendingPayments  int64  `json:"pending_payments"`
	ApprovedPayments int64  `json:"approved_payments"`
}

// NewDojang contains information needed to create a new Dojang.
type NewDojang struct {
	Name    string `json:"name" validate:"required,notblank"`
	Address string `json:"address"`
	City    string `json:"city"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (nd *NewDojang) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nd.Name = core.CleanString(nd.Name)
	nd.Address = core.CleanString(nd.Address)
	nd.City = core.CleanString(nd.City)
	nd.Phone = core.CleanString(nd.Phone)
	nd.Email = core.CleanString(nd.Email, true /* lower */)

	if err := validate.Struct(nd); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nd.Name)
}

// UpdateDojang defines what information may be provided to modify an existing Dojang.
// nil fields keep the current values.
type UpdateDojang struct {
	Name        *string `json:"name" validate:"omitempty,notblank"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Email       *string `json:"email" validate:"omitempty,email"`
	HeadCoachID *string `json:"head_coach_id"`
}

func (ud *UpdateDojang) Validate(ctx context.Context, orig Dojang, validate *validator.Validate, svc Service) error {
	for _, fld := range []*string{ud.Name, ud.Address, ud.City, ud.Phone, ud.HeadCoachID} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if ud.Email != nil {
		*ud.Email = core.CleanString(*ud.Email, true /* lower */)
	}
	if err := validate.Struct(ud); err != nil {
		return err
	}

	if ud.Name != nil {
		if err := svc.CheckUniqueness(ctx, *ud.Name, orig); err != nil {
			return err
		}
	}
	if ud.HeadCoachID != nil && *ud.HeadCoachID != "" && *ud.HeadCoachID != orig.HeadCoachID {
		return svc.CheckHeadCoach(ctx, orig.ID, *ud.HeadCoachID)
	}
	return nil
}

type QueryFilter struct {
	Search string
	City   string
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.City = core.CleanString(qf.City)
}
