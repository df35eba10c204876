package rank

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
)

var (
	// errors
	ErrNotFound    = errors.New("rank not found")
	ErrNameExists  = errors.New("a rank with this name already exists")
	ErrOrderExists = errors.New("a rank with this order already exists")
	ErrHighestRank = errors.New("already at the highest rank")
	ErrRankInUse   = errors.New("rank is held by students or referenced by promotions")
)

type (
	Repository interface {
		// CheckRankUniqueness returns ErrNameExists or ErrOrderExists if another Rank
		// (not in excludedRanks) already uses the name (case-insensitive) or order.
		CheckRankUniqueness(ctx context.Context, name string, order int, excludedRanks []Rank) error
		CreateRank(ctx context.Context, r Rank) (Rank, error)
		// QueryRanks returns all ranks, ordered by Order when no ordering is provided.
		QueryRanks(ctx context.Context, ordering []core.DBOrdering) ([]Rank, error)
		GetRank(ctx context.Context, id string) (Rank, error)
		GetRankByOrder(ctx context.Context, order int) (Rank, error)
		UpdateRank(ctx context.Context, r Rank) (Rank, error)
		// RankInUse reports whether a student or coach holds the rank, or a promotion references it.
		RankInUse(ctx context.Context, id string) (bool, error)
		DeleteRank(ctx context.Context, id string) error
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, order int, exclRanks ...Rank) error
		Create(ctx context.Context, nr NewRank) (Rank, error)
		Query(ctx context.Context, ordering []core.DBOrdering) ([]Rank, error)
		GetByID(ctx context.Context, id string) (Rank, error)
		Update(ctx context.Context, r Rank, ur UpdateRank) (Rank, error)
		Delete(ctx context.Context, id string) error
		// NextRank returns the rank following currentID on the ladder.
		NextRank(ctx context.Context, currentID string) (Rank, error)
		// Seed creates or updates ranks matched by Order.
		// nothing is saved unless every rank is valid.
		Seed(ctx context.Context, validate *validator.Validate, ranks []NewRank) (created, updated int, err error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, name string, order int, exclRanks ...Rank) error {
	if err := svc.repo.CheckRankUniqueness(ctx, name, order, exclRanks); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrNameExists:
			field = "name"
		case ErrOrderExists:
			field = "order"
		default:
			return errors.Wrap(err, "checking uniqueness")
		}
		return core.NewFieldValidationError(field, errors.Cause(err))
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nr NewRank) (Rank, error) {
	now := core.NowFunc()
	return svc.repo.CreateRank(ctx, Rank{
		Name:        nr.Name,
		Color:       nr.Color,
		Order:       nr.Order,
		Kind:        nr.Kind,
		Description: nr.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) Query(ctx context.Context, ordering []core.DBOrdering) ([]Rank, error) {
	return svc.repo.QueryRanks(ctx, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Rank, error) {
	return svc.repo.GetRank(ctx, id)
}

func (svc *service) Update(ctx context.Context, r Rank, ur UpdateRank) (Rank, error) {
	r.Name = ur.Name
	r.Color = ur.Color
	r.Order = ur.Order
	r.Kind = ur.Kind
	if ur.Description != nil {
		r.Description = core.CleanString(*ur.Description)
	}
	r.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateRank(ctx, r)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	inUse, err := svc.repo.RankInUse(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking rank usage")
	}
	if inUse {
		return ErrRankInUse
	}
	return svc.repo.DeleteRank(ctx, id)
}

func (svc *service) NextRank(ctx context.Context, currentID string) (Rank, error) {
	ranks, err := svc.repo.QueryRanks(ctx, nil)
	if err != nil {
		return Rank{}, errors.Wrap(err, "querying ranks")
	}
	return NextRank(ranks, currentID)
}

func (svc *service) Seed(ctx context.Context, validate *validator.Validate, ranks []NewRank) (created, updated int, err error) {
	for i := range ranks {
		ranks[i].clean()
		if err = validate.Struct(&ranks[i]); err != nil {
			return 0, 0, errors.Wrapf(err, "invalid rank #%d", i+1)
		}
	}

	now := core.NowFunc()
	for _, nr := range ranks {
		r, err := svc.repo.GetRankByOrder(ctx, nr.Order)
		switch errors.Cause(err) {
		case nil:
			if r.Name == nr.Name && r.Color == nr.Color && r.Kind == nr.Kind && r.Description == nr.Description {
				continue
			}
			r.Name, r.Color, r.Kind, r.Description, r.UpdatedAt = nr.Name, nr.Color, nr.Kind, nr.Description, now
			if _, err = svc.repo.UpdateRank(ctx, r); err != nil {
				return created, updated, errors.Wrapf(err, "updating rank %d", nr.Order)
			}
			updated++
		case ErrNotFound:
			r = Rank{
				Name:        nr.Name,
				Color:       nr.Color,
				Order:       nr.Order,
				Kind:        nr.Kind,
				Description: nr.Description,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if _, err = svc.repo.CreateRank(ctx, r); err != nil {
				return created, updated, errors.Wrapf(err, "creating rank %d", nr.Order)
			}
			created++
		default:
			return created, updated, errors.Wrapf(err, "finding rank %d", nr.Order)
		}
	}
	return created, updated, nil
}
