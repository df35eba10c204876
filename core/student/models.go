package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// QueryOrderingFields are the fields students can be ordered by.
var QueryOrderingFields = []string{"first_name", "last_name", "email", "joined_at", "is_active", "created_at", "updated_at"}

type Student struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DojangID  string    `json:"dojang_id"`
	RankID    string    `json:"rank_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	BirthDate time.Time `json:"birth_date"`
	JoinedAt  time.Time `json:"joined_at"` // UTC
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (s *Student) SetActive(active bool) {
	s.IsActive = &active
}

func (s *Student) Active() bool {
	return s.IsActive == nil || *s.IsActive
}

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	UserID    string     `json:"user_id"`
	DojangID  string     `json:"dojang_id" validate:"required"`
	RankID    string     `json:"rank_id"`
	FirstName string     `json:"first_name" validate:"required,notblank"`
	LastName  string     `json:"last_name" validate:"required,notblank"`
	Email     string     `json:"email" validate:"omitempty,email"`
	Phone     string     `json:"phone" validate:"omitempty,max=32"`
	BirthDate *time.Time `json:"birth_date"`
	JoinedAt  *time.Time `json:"joined_at"`
}

func (ns *NewStudent) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ns.UserID = core.CleanString(ns.UserID)
	ns.DojangID = core.CleanString(ns.DojangID)
	ns.RankID = core.CleanString(ns.RankID)
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Phone = core.CleanString(ns.Phone)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.BirthDate != nil && ns.BirthDate.After(core.NowFunc()) {
		return core.NewFieldValidationError("birth_date", ErrBirthDateInFuture)
	}
	return svc.CheckReferences(ctx, ns.DojangID, ns.RankID, ns.UserID)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// nil fields keep the current values. the rank only changes through promotions.
type UpdateStudent struct {
	DojangID  *string    `json:"dojang_id" validate:"omitempty,notblank"`
	FirstName *string    `json:"first_name" validate:"omitempty,notblank"`
	LastName  *string    `json:"last_name" validate:"omitempty,notblank"`
	Email     *string    `json:"email" validate:"omitempty,email"`
	Phone     *string    `json:"phone" validate:"omitempty,max=32"`
	BirthDate *time.Time `json:"birth_date"`
	IsActive  *bool      `json:"is_active"`
}

func (us *UpdateStudent) Validate(ctx context.Context, orig Student, validate *validator.Validate, svc Service) error {
	for _, fld := range []*string{us.DojangID, us.FirstName, us.LastName, us.Phone} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if us.Email != nil {
		*us.Email = core.CleanString(*us.Email, true /* lower */)
	}
	if err := validate.Struct(us); err != nil {
		return err
	}
	if us.BirthDate != nil && us.BirthDate.After(core.NowFunc()) {
		return core.NewFieldValidationError("birth_date", ErrBirthDateInFuture)
	}
	if us.DojangID != nil && *us.DojangID != orig.DojangID {
		return svc.CheckReferences(ctx, *us.DojangID, "", "")
	}
	return nil
}

type QueryFilter struct {
	IDs      []string
	DojangID string
	RankID   string
	IsActive *bool
	Search   string
}

func (qf *QueryFilter) Clean() {
	qf.DojangID = core.CleanString(qf.DojangID)
	qf.RankID = core.CleanString(qf.RankID)
	qf.Search = core.CleanString(qf.Search)
}
