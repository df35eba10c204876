package rank

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// Kinds
const (
	KindGup  = "gup"
	KindDan  = "dan"
	KindPoom = "poom"
)

var (
	Kinds = []string{KindGup, KindDan, KindPoom}

	// QueryOrderingFields are the fields ranks can be ordered by.
	QueryOrderingFields = []string{"order", "name", "kind", "created_at"}
)

type Rank struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Order       int       `json:"order"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewRank contains information needed to create a new Rank.
type NewRank struct {
	Name        string `json:"name" yaml:"name" validate:"required,notblank"`
	Color       string `json:"color" yaml:"color"`
	Order       int    `json:"order" yaml:"order" validate:"required,min=1"`
	Kind        string `json:"kind" yaml:"kind" validate:"required,oneof=gup dan poom"`
	Description string `json:"description" yaml:"description"`
}

func (nr *NewRank) clean() {
	nr.Name = core.CleanString(nr.Name)
	nr.Color = core.CleanString(nr.Color, true /* lower */)
	nr.Kind = core.CleanString(nr.Kind, true /* lower */)
	nr.Description = core.CleanString(nr.Description)
}

func (nr *NewRank) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nr.clean()
	if err := validate.Struct(nr); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nr.Name, nr.Order)
}

// UpdateRank defines what information may be provided to modify an existing Rank.
// zero values keep the current ones.
type UpdateRank struct {
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Order       int     `json:"order" validate:"omitempty,min=1"`
	Kind        string  `json:"kind" validate:"omitempty,oneof=gup dan poom"`
	Description *string `json:"description"`
}

func (ur *UpdateRank) Validate(ctx context.Context, orig Rank, validate *validator.Validate, svc Service) error {
	if ur.Name = core.CleanString(ur.Name); ur.Name == "" {
		ur.Name = orig.Name
	}
	if ur.Color = core.CleanString(ur.Color, true /* lower */); ur.Color == "" {
		ur.Color = orig.Color
	}
	if ur.Order == 0 {
		ur.Order = orig.Order
	}
	if ur.Kind = core.CleanString(ur.Kind, true /* lower */); ur.Kind == "" {
		ur.Kind = orig.Kind
	}
	if err := validate.Struct(ur); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ur.Name, ur.Order, orig)
}

// NextRank returns the rank with the smallest Order greater than the Order of the rank identified by currentID.
// An empty currentID (no rank yet) yields the lowest rank.
func NextRank(ranks []Rank, currentID string) (Rank, error) {
	var (
		current Rank
		found   bool
	)
	if currentID != "" {
		for _, r := range ranks {
			if r.ID == currentID {
				current, found = r, true
				break
			}
		}
		if !found {
			return Rank{}, ErrNotFound
		}
	}

	var (
		next    Rank
		hasNext bool
	)
	for _, r := range ranks {
		if found && r.Order <= current.Order {
			continue
		}
		if !hasNext || r.Order < next.Order {
			next, hasNext = r, true
		}
	}
	if !hasNext {
		return Rank{}, ErrHighestRank
	}
	return next, nil
}
