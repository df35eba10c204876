package dojang

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/dojang/core"
)

var (
	// errors
	ErrNotFound             = errors.New("dojang not found")
	ErrNameExists           = errors.New("a dojang with this name already exists")
	ErrHeadCoachNotInDojang = errors.New("the head coach must be an active coach of this dojang")
	ErrDojangNotEmpty       = errors.New("dojang still has students, coaches or classes")
)

type (
	Repository interface {
		// CheckDojangUniqueness returns ErrNameExists if another Dojang (not in excludedDojangs)
		// already uses the name (case-insensitive).
		CheckDojangUniqueness(ctx context.Context, name string, excludedDojangs []Dojang) error
		CreateDojang(ctx context.Context, d Dojang) (Dojang, error)
		QueryDojangs(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Dojang, error)
		GetDojang(ctx context.Context, id string) (Dojang, error)
		UpdateDojang(ctx context.Context, d Dojang) (Dojang, error)
		DeleteDojang(ctx context.Context, id string) error

		// IsDojangCoach reports whether coachID is an active coach of the dojang.
		IsDojangCoach(ctx context.Context, dojangID, coachID string) (bool, error)
		// CountDojangStudents returns the number of students of the dojang, and how many of them are active.
		CountDojangStudents(ctx context.Context, dojangID string) (total int, active int, err error)
		CountDojangCoaches(ctx context.Context, dojangID string) (int, error)
		CountDojangClasses(ctx context.Context, dojangID string) (int, error)
		// SumDojangPayments returns the total amount (cents) of the dojang's student payments, per status.
		SumDojangPayments(ctx context.Context, dojangID string) (map[string]int64, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, exclDojangs ...Dojang) error
		CheckHeadCoach(ctx context.Context, dojangID, coachID string) error
		Create(ctx context.Context, nd NewDojang) (Dojang, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Dojang, error)
		GetByID(ctx context.Context, id string) (Dojang, error)
		Update(ctx context.Context, d Dojang, ud UpdateDojang) (Dojang, error)
		Delete(ctx context.Context, id string) error
		Summary(ctx context.Context, id string) (Summary, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckUniqueness(ctx context.Context, name string, exclDojangs ...Dojang) error {
	if err := svc.repo.CheckDojangUniqueness(ctx, name, exclDojangs); err != nil {
		if errors.Cause(err) == ErrNameExists {
			return core.NewFieldValidationError("name", ErrNameExists)
		}
		return errors.Wrap(err, "checking uniqueness")
	}
	return nil
}

func (svc *service) CheckHeadCoach(ctx context.Context, dojangID, coachID string) error {
	ok, err := svc.repo.IsDojangCoach(ctx, dojangID, coachID)
	if err != nil {
		return errors.Wrap(err, "checking head coach")
	}
	if !ok {
		return core.NewFieldValidationError("head_coach_id", ErrHeadCoachNotInDojang)
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nd NewDojang) (Dojang, error) {
	now := core.NowFunc()
	return svc.repo.CreateDojang(ctx, Dojang{
		Name:      nd.Name,
		Address:   nd.Address,
		City:      nd.City,
		Phone:     nd.Phone,
		Email:     nd.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Dojang, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryDojangs(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Dojang, error) {
	return svc.repo.GetDojang(ctx, id)
}

func (svc *service) Update(ctx context.Context, d Dojang, ud UpdateDojang) (Dojang, error) {
	if ud.Name != nil {
		d.Name = *ud.Name
	}
	if ud.Address != nil {
		d.Address = *ud.Address
	}
	if ud.City != nil {
		d.City = *ud.City
	}
	if ud.Phone != nil {
		d.Phone = *ud.Phone
	}
	if ud.Email != nil {
		d.Email = *ud.Email
	}
	if ud.HeadCoachID != nil {
		d.HeadCoachID = *ud.HeadCoachID
	}
	d.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateDojang(ctx, d)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	sum, err := svc.Summary(ctx, id)
	if err != nil {
		return err
	}
	if sum.Students > 0 || sum.Coaches > 0 || sum.Classes > 0 {
		return ErrDojangNotEmpty
	}
	return svc.repo.DeleteDojang(ctx, id)
}

// Summary gathers the dojang figures concurrently.
func (svc *service) Summary(ctx context.Context, id string) (Summary, error) {
	if _, err := svc.repo.GetDojang(ctx, id); err != nil {
		return Summary{}, err
	}

	sum := Summary{DojangID: id}
	var totals map[string]int64
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		sum.Students, sum.ActiveStudents, err = svc.repo.CountDojangStudents(gctx, id)
		return errors.Wrap(err, "counting students")
	})
	g.Go(func() (err error) {
		sum.Coaches, err = svc.repo.CountDojangCoaches(gctx, id)
		return errors.Wrap(err, "counting coaches")
	})
	g.Go(func() (err error) {
		sum.Classes, err = svc.repo.CountDojangClasses(gctx, id)
		return errors.Wrap(err, "counting classes")
	})
	g.Go(func() (err error) {
		totals, err = svc.repo.SumDojangPayments(gctx, id)
		return errors.Wrap(err, "summing payments")
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sum.PendingPayments = totals["pending"] + totals["in_process"]
	sum.ApprovedPayments = totals["approved"]
	return sum, nil
}
