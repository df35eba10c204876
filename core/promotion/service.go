package promotion

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/student"
)

var (
	// errors
	ErrNotFound         = errors.New("promotion not found")
	ErrNotNextRank      = errors.New("students can only be promoted to their next rank")
	ErrNotLatest        = errors.New("only the latest promotion of a student can be reverted")
	ErrStudentInactive  = errors.New("inactive students cannot be promoted")
	ErrPromotedInFuture = errors.New("promotion date cannot be in the future")
	ErrRankChanged      = errors.New("student rank changed, please retry")
)

type (
	Repository interface {
		// ApplyPromotion saves the promotion and sets the student's rank to ToRankID, atomically.
		// it fails with ErrRankChanged when the student's rank is no longer FromRankID.
		ApplyPromotion(ctx context.Context, p Promotion) (Promotion, error)
		// RevertPromotion deletes the promotion and sets the student's rank back to FromRankID, atomically.
		// it fails with ErrRankChanged when the student's rank is no longer ToRankID.
		RevertPromotion(ctx context.Context, p Promotion) error
		// QueryPromotions orders by promoted_at DESC, created_at DESC when no ordering is provided.
		QueryPromotions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Promotion, error)
		GetPromotion(ctx context.Context, id string) (Promotion, error)
	}

	Service interface {
		Promote(ctx context.Context, np NewPromotion) (Promotion, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Promotion, error)
		GetByID(ctx context.Context, id string) (Promotion, error)
		Revert(ctx context.Context, id string) error
	}

	service struct {
		repo       Repository
		studentSvc student.Service
		rankSvc    rank.Service
		coachSvc   coach.Service
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, studentSvc student.Service, rankSvc rank.Service, coachSvc coach.Service) Service {
	return &service{repo: repo, studentSvc: studentSvc, rankSvc: rankSvc, coachSvc: coachSvc}
}

func (svc *service) Promote(ctx context.Context, np NewPromotion) (Promotion, error) {
	stud, err := svc.studentSvc.GetByID(ctx, np.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Promotion{}, core.NewFieldValidationError("student_id", student.ErrNotFound)
		}
		return Promotion{}, errors.Wrap(err, "finding student")
	}
	if !stud.Active() {
		return Promotion{}, core.NewFieldValidationError("student_id", ErrStudentInactive)
	}

	if np.CoachID != "" {
		if _, err = svc.coachSvc.GetByID(ctx, np.CoachID); err != nil {
			if errors.Cause(err) == coach.ErrNotFound {
				return Promotion{}, core.NewFieldValidationError("coach_id", coach.ErrNotFound)
			}
			return Promotion{}, errors.Wrap(err, "finding coach")
		}
	}

	next, err := svc.rankSvc.NextRank(ctx, stud.RankID)
	if err != nil {
		switch errors.Cause(err) {
		case rank.ErrHighestRank:
			return Promotion{}, core.NewFieldValidationError("student_id", rank.ErrHighestRank)
		case rank.ErrNotFound:
			return Promotion{}, core.NewFieldValidationError("student_id", rank.ErrNotFound)
		}
		return Promotion{}, errors.Wrap(err, "finding next rank")
	}
	if np.ToRankID != "" && np.ToRankID != next.ID {
		return Promotion{}, core.NewFieldValidationError("to_rank_id", ErrNotNextRank)
	}

	now := core.NowFunc()
	promotedAt := now
	if np.PromotedAt != nil {
		promotedAt = np.PromotedAt.UTC()
	}
	return svc.repo.ApplyPromotion(ctx, Promotion{
		StudentID:  stud.ID,
		CoachID:    np.CoachID,
		FromRankID: stud.RankID,
		ToRankID:   next.ID,
		PromotedAt: promotedAt,
		Notes:      np.Notes,
		CreatedAt:  now,
	})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Promotion, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryPromotions(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Promotion, error) {
	return svc.repo.GetPromotion(ctx, id)
}

func (svc *service) Revert(ctx context.Context, id string) error {
	p, err := svc.repo.GetPromotion(ctx, id)
	if err != nil {
		return err
	}

	// latest applied first
	history, err := svc.repo.QueryPromotions(ctx, &QueryFilter{StudentID: p.StudentID}, []core.DBOrdering{{Field: "created_at"}})
	if err != nil {
		return errors.Wrap(err, "querying student promotions")
	}
	if len(history) == 0 || history[0].ID != p.ID {
		return ErrNotLatest
	}
	return svc.repo.RevertPromotion(ctx, p)
}
