package student

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
	ErrNotFound          = errors.New("student not found")
	ErrUserTaken         = errors.New("this user is already linked to a student")
	ErrBirthDateInFuture = errors.New("birth date cannot be in the future")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of first name, last name or email.
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		GetStudentByUserID(ctx context.Context, userID string) (Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
	}

	Service interface {
		// CheckReferences checks that the dojang, the rank and the user exist (empty IDs are skipped).
		CheckReferences(ctx context.Context, dojangID, rankID, userID string) error
		Create(ctx context.Context, ns NewStudent) (Student, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		GetByID(ctx context.Context, id string) (Student, error)
		GetByUserID(ctx context.Context, userID string) (Student, error)
		Update(ctx context.Context, s Student, us UpdateStudent) (Student, error)
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
		if _, err := svc.repo.GetStudentByUserID(ctx, userID); err == nil {
			return core.NewFieldValidationError("user_id", ErrUserTaken)
		} else if errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "finding student by user")
		}
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := core.NowFunc()
	s := Student{
		UserID:    ns.UserID,
		DojangID:  ns.DojangID,
		RankID:    ns.RankID,
		FirstName: ns.FirstName,
		LastName:  ns.LastName,
		Email:     ns.Email,
		Phone:     ns.Phone,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.BirthDate != nil {
		s.BirthDate = ns.BirthDate.UTC()
	}
	if ns.JoinedAt != nil {
		s.JoinedAt = ns.JoinedAt.UTC()
	}
	s.SetActive(true)
	return svc.repo.CreateStudent(ctx, s)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryStudents(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *service) GetByUserID(ctx context.Context, userID string) (Student, error) {
	return svc.repo.GetStudentByUserID(ctx, userID)
}

func (svc *service) Update(ctx context.Context, s Student, us UpdateStudent) (Student, error) {
	if us.DojangID != nil {
		s.DojangID = *us.DojangID
	}
	if us.FirstName != nil {
		s.FirstName = *us.FirstName
	}
	if us.LastName != nil {
		s.LastName = *us.LastName
	}
	if us.Email != nil {
		s.Email = *us.Email
	}
	if us.Phone != nil {
		s.Phone = *us.Phone
	}
	if us.BirthDate != nil {
		s.BirthDate = us.BirthDate.UTC()
	}
	if us.IsActive != nil {
		s.SetActive(*us.IsActive)
	}
	s.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteStudent(ctx, id)
}
