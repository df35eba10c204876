package coach

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/dojang"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/user"
)

var (
	// errors
	ErrNotFound        = errors.New("coach not found")
	ErrUserTaken       = errors.New("this user is already linked to a coach")
	ErrCoachHasClasses = errors.New("coach still teaches classes")
)

type (
	Repository interface {
		CreateCoach(ctx context.Context, c Coach) (Coach, error)
		// QueryCoaches applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of first name, last name or email.
		QueryCoaches(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Coach, error)
		GetCoach(ctx context.Context, id string) (Coach, error)
		GetCoachByUserID(ctx context.Context, userID string) (Coach, error)
		UpdateCoach(ctx context.Context, c Coach) (Coach, error)
		CountCoachClasses(ctx context.Context, id string) (int, error)
		DeleteCoach(ctx context.Context, id string) error
	}

	Service interface {
		// CheckReferences checks that the dojang, the rank and the user exist (empty IDs are skipped).
		CheckReferences(ctx context.Context, dojangID, rankID, userID string) error
		Create(ctx context.Context, nc NewCoach) (Coach, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Coach, error)
		GetByID(ctx context.Context, id string) (Coach, error)
		GetByUserID(ctx context.Context, userID string) (Coach, error)
		Update(ctx context.Context, c Coach, uc UpdateCoach) (Coach, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo      Repository
		dojangSvc dojang.Service
		rankSvc   rank.Service
		userSvc   user.Service
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, dojangSvc dojang.Service, rankSvc rank.Service, userSvc user.Service) Service {
	return &service{repo: repo, dojangSvc: dojangSvc, rankSvc: rankSvc, userSvc: userSvc}
}

func (svc *service) CheckReferences(ctx context.Context, dojangID, rankID, userID string) error {
	if dojangID != "" {
		if _, err := svc.dojangSvc.GetByID(ctx, dojangID); err != nil {
			if errors.Cause(err) == dojang.ErrNotFound {
				return core.NewFieldValidationError("dojang_id", dojang.ErrNotFound)
			}
			return errors.Wrap(err, "finding dojang")
		}
	}
	if rankID != "" {
		if _, err := svc.rankSvc.GetByID(ctx, rankID); err != nil {
			if errors.Cause(err) == rank.ErrNotFound {
				return core.NewFieldValidationError("rank_id", rank.ErrNotFound)
			}
			return errors.Wrap(err, "finding rank")
		}
	}
	if userID != "" {
		if _, err := svc.userSvc.GetByID(ctx, userID); err != nil {
			if errors.Cause(err) == user.ErrNotFound {
				return core.NewFieldValidationError("user_id", user.ErrNotFound)
			}
			return errors.Wrap(err, "finding user")
		}
		if _, err := svc.repo.GetCoachByUserID(ctx, userID); err == nil {
			return core.NewFieldValidationError("user_id", ErrUserTaken)
		} else if errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "finding coach by user")
		}
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewCoach) (Coach, error) {
	now := core.NowFunc()
	c := Coach{
		UserID:    nc.UserID,
		DojangID:  nc.DojangID,
		RankID:    nc.RankID,
		FirstName: nc.FirstName,
		LastName:  nc.LastName,
		Email:     nc.Email,
		Phone:     nc.Phone,
		Bio:       nc.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetActive(true)
	return svc.repo.CreateCoach(ctx, c)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Coach, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCoaches(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Coach, error) {
	return svc.repo.GetCoach(ctx, id)
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Coach, error) {
	return svc.repo.GetCoachByUserID(ctx, userID)
}

func (svc *service) Update(ctx context.Context, c Coach, uc UpdateCoach) (Coach, error) {
	if uc.DojangID != nil {
		c.DojangID = *uc.DojangID
	}
	if uc.RankID != nil {
		c.RankID = *uc.RankID
	}
	if uc.FirstName != nil {
		c.FirstName = *uc.FirstName
	}
	if uc.LastName != nil {
		c.LastName = *uc.LastName
	}
	if uc.Email != nil {
		c.Email = *uc.Email
	}
	if uc.Phone != nil {
		c.Phone = *uc.Phone
	}
	if uc.Bio != nil {
		c.Bio = *uc.Bio
	}
	if uc.IsActive != nil {
		c.SetActive(*uc.IsActive)
	}
	c.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCoach(ctx, c)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	cnt, err := svc.repo.CountCoachClasses(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting coach classes")
	}
	if cnt > 0 {
		return ErrCoachHasClasses
	}
	return svc.repo.DeleteCoach(ctx, id)
}
