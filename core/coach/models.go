package coach

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// QueryOrderingFields are the fields coaches can be ordered by.
var QueryOrderingFields = []string{"first_name", "last_name", "email", "is_active", "created_at", "updated_at"}

type Coach struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	DojangID  string    `json:"dojang_id"`
	RankID    string    `json:"rank_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	IsActive  *bool     `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (c *Coach) SetActive(active bool) {
	c.IsActive = &active
}

func (c *Coach) Active() bool {
	return c.IsActive == nil || *c.IsActive
}

func (c Coach) FullName() string {
	return core.CleanString(c.FirstName + " " + c.LastName)
}

// NewCoach contains information needed to create a new Coach.
type NewCoach struct {
	UserID    string `json:"user_id"`
	DojangID  string `json:"dojang_id" validate:"required"`
	RankID    string `json:"rank_id"`
	FirstName string `json:"first_name" validate:"required,notblank"`
	LastName  string `json:"last_name" validate:"required,notblank"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Bio       string `json:"bio"`
}

func (nc *NewCoach) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.UserID = core.CleanString(nc.UserID)
	nc.DojangID = core.CleanString(nc.DojangID)
	nc.RankID = core.CleanString(nc.RankID)
	nc.FirstName = core.CleanString(nc.FirstName)
	nc.LastName = core.CleanString(nc.LastName)
	nc.Email = core.CleanString(nc.Email, true /* lower */)
	nc.Phone = core.CleanString(nc.Phone)
	nc.Bio = core.CleanString(nc.Bio)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckReferences(ctx, nc.DojangID, nc.RankID, nc.UserID)
}

// UpdateCoach defines what information may be provided to modify an existing Coach.
// nil fields keep the current values.
type UpdateCoach struct {
	DojangID  *string `json:"dojang_id" validate:"omitempty,notblank"`
	RankID    *string `json:"rank_id"`
	FirstName *string `json:"first_name" validate:"omitempty,notblank"`
	LastName  *string `json:"last_name" validate:"omitempty,notblank"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Bio       *string `json:"bio"`
	IsActive  *bool   `json:"is_active"`
}

func (uc *UpdateCoach) Validate(ctx context.Context, orig Coach, validate *validator.Validate, svc Service) error {
	for _, fld := range []*string{uc.DojangID, uc.RankID, uc.FirstName, uc.LastName, uc.Phone, uc.Bio} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if uc.Email != nil {
		*uc.Email = core.CleanString(*uc.Email, true /* lower */)
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}

	var dojangID, rankID string
	if uc.DojangID != nil && *uc.DojangID != orig.DojangID {
		dojangID = *uc.DojangID
	}
	if uc.RankID != nil && *uc.RankID != orig.RankID {
		rankID = *uc.RankID
	}
	return svc.CheckReferences(ctx, dojangID, rankID, "")
}

type QueryFilter struct {
	IDs      []string
	DojangID string
	IsActive *bool
	Search   string
}

func (qf *QueryFilter) Clean() {
	qf.DojangID = core.CleanString(qf.DojangID)
	qf.Search = core.CleanString(qf.Search)
}
