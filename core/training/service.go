package training

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/dojang"
	"github.com/trezcool/dojang/core/student"
)

var (
	// errors
	ErrNotFound           = errors.New("class not found")
	ErrEnrollmentExists   = errors.New("student is already enrolled in this class")
	ErrNotEnrolled        = errors.New("student is not enrolled in this class")
	ErrClassFull          = errors.New("class is full")
	ErrCoachNotInDojang   = errors.New("coach must be an active coach of the class dojang")
	ErrStudentInactive    = errors.New("student is not active")
	ErrStudentNotInDojang = errors.New("student does not belong to the class dojang")
	ErrNoSchedules        = errors.New("a class needs at least one schedule")
)

type (
	Repository interface {
		// CreateClass and UpdateClass lock the coach of tc and, when check is not nil, run it on the
		// coach's classes before saving. nothing is saved when check fails; its error is returned as is.
		CreateClass(ctx context.Context, tc TrainingClass, check func(coachClasses []TrainingClass) error) (TrainingClass, error)
		// QueryClasses applies AND operation on available QueryFilter fields.
		// QueryFilter.Day matches classes with at least one schedule on that day.
		QueryClasses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]TrainingClass, error)
		GetClass(ctx context.Context, id string) (TrainingClass, error)
		// UpdateClass replaces the class fields and schedules.
		UpdateClass(ctx context.Context, tc TrainingClass, check func(coachClasses []TrainingClass) error) (TrainingClass, error)
		// DeleteClass deletes the class along with its schedules and enrollments.
		DeleteClass(ctx context.Context, id string) error

		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		QueryEnrollments(ctx context.Context, classID string) ([]Enrollment, error)
		// DeleteEnrollment returns ErrNotEnrolled when there is no such enrollment.
		DeleteEnrollment(ctx context.Context, classID, studentID string) error
	}

	Service interface {
		Create(ctx context.Context, nc NewClass) (TrainingClass, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]TrainingClass, error)
		GetByID(ctx context.Context, id string) (TrainingClass, error)
		Update(ctx context.Context, tc TrainingClass, uc UpdateClass) (TrainingClass, error)
		Delete(ctx context.Context, id string) error
		// Conflicts returns the overlaps between the class and the other classes of its coach.
		Conflicts(ctx context.Context, tc TrainingClass) ([]Conflict, error)

		Enroll(ctx context.Context, classID, studentID string) (Enrollment, error)
		Unenroll(ctx context.Context, classID, studentID string) error
		Students(ctx context.Context, classID string) ([]student.Student, error)
	}

	service struct {
		repo       Repository
		dojangSvc  dojang.Service
		coachSvc   coach.Service
		studentSvc student.Service
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, dojangSvc dojang.Service, coachSvc coach.Service, studentSvc student.Service) Service {
	return &service{repo: repo, dojangSvc: dojangSvc, coachSvc: coachSvc, studentSvc: studentSvc}
}

func (svc *service) checkCoach(ctx context.Context, dojangID, coachID string) error {
	c, err := svc.coachSvc.GetByID(ctx, coachID)
	if err != nil {
		if errors.Cause(err) == coach.ErrNotFound {
			return core.NewFieldValidationError("coach_id", coach.ErrNotFound)
		}
		return errors.Wrap(err, "finding coach")
	}
	if c.DojangID != dojangID || !c.Active() {
		return core.NewFieldValidationError("coach_id", ErrCoachNotInDojang)
	}
	return nil
}

// noConflicts returns the repository check rejecting tc when it overlaps another class of its coach.
func noConflicts(tc TrainingClass) func([]TrainingClass) error {
	return func(coachClasses []TrainingClass) error {
		if conflicts := FindConflicts(tc, coachClasses); len(conflicts) > 0 {
			return &ConflictError{Conflicts: conflicts}
		}
		return nil
	}
}

// trapConflicts turns a *ConflictError into a validation error on "schedules".
func trapConflicts(err error) error {
	if cErr, ok := errors.Cause(err).(*ConflictError); ok {
		return core.NewValidationError(cErr, core.FieldError{Field: "schedules", Error: cErr.Error()})
	}
	return err
}

func (svc *service) Conflicts(ctx context.Context, tc TrainingClass) ([]Conflict, error) {
	existing, err := svc.repo.QueryClasses(ctx, &QueryFilter{CoachID: tc.CoachID}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying coach classes")
	}
	return FindConflicts(tc, existing), nil
}

func (svc *service) Create(ctx context.Context, nc NewClass) (TrainingClass, error) {
	if _, err := svc.dojangSvc.GetByID(ctx, nc.DojangID); err != nil {
		if errors.Cause(err) == dojang.ErrNotFound {
			return TrainingClass{}, core.NewFieldValidationError("dojang_id", dojang.ErrNotFound)
		}
		return TrainingClass{}, errors.Wrap(err, "finding dojang")
	}
	if err := svc.checkCoach(ctx, nc.DojangID, nc.CoachID); err != nil {
		return TrainingClass{}, err
	}

	now := core.NowFunc()
	tc := TrainingClass{
		DojangID:    nc.DojangID,
		CoachID:     nc.CoachID,
		Name:        nc.Name,
		Description: nc.Description,
		Capacity:    nc.Capacity,
		Schedules:   nc.Schedules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	tc, err := svc.repo.CreateClass(ctx, tc, noConflicts(tc))
	if err != nil {
		return TrainingClass{}, trapConflicts(err)
	}
	return tc, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]TrainingClass, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryClasses(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (TrainingClass, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *service) Update(ctx context.Context, tc TrainingClass, uc UpdateClass) (TrainingClass, error) {
	recheck := false
	if uc.CoachID != nil && *uc.CoachID != tc.CoachID {
		if err := svc.checkCoach(ctx, tc.DojangID, *uc.CoachID); err != nil {
			return TrainingClass{}, err
		}
		tc.CoachID = *uc.CoachID
		recheck = true
	}
	if uc.Name != nil {
		tc.Name = *uc.Name
	}
	if uc.Description != nil {
		tc.Description = *uc.Description
	}
	if uc.Capacity != nil {
		tc.Capacity = *uc.Capacity
	}
	if uc.Schedules != nil {
		tc.Schedules = uc.Schedules
		recheck = true
	}

	var check func([]TrainingClass) error
	if recheck {
		check = noConflicts(tc)
	}
	tc.UpdatedAt = core.NowFunc()
	tc, err := svc.repo.UpdateClass(ctx, tc, check)
	if err != nil {
		return TrainingClass{}, trapConflicts(err)
	}
	return tc, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *service) Enroll(ctx context.Context, classID, studentID string) (Enrollment, error) {
	tc, err := svc.repo.GetClass(ctx, classID)
	if err != nil {
		return Enrollment{}, err
	}
	stud, err := svc.studentSvc.GetByID(ctx, studentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Enrollment{}, core.NewFieldValidationError("student_id", student.ErrNotFound)
		}
		return Enrollment{}, errors.Wrap(err, "finding student")
	}
	if !stud.Active() {
		return Enrollment{}, core.NewFieldValidationError("student_id", ErrStudentInactive)
	}
	if stud.DojangID != tc.DojangID {
		return Enrollment{}, core.NewFieldValidationError("student_id", ErrStudentNotInDojang)
	}

	enrollments, err := svc.repo.QueryEnrollments(ctx, classID)
	if err != nil {
		return Enrollment{}, errors.Wrap(err, "querying enrollments")
	}
	for _, e := range enrollments {
		if e.StudentID == studentID {
			return Enrollment{}, core.NewFieldValidationError("student_id", ErrEnrollmentExists)
		}
	}
	if tc.Capacity > 0 && len(enrollments) >= tc.Capacity {
		return Enrollment{}, core.NewFieldValidationError("class_id", ErrClassFull)
	}

	return svc.repo.CreateEnrollment(ctx, Enrollment{
		ClassID:    classID,
		StudentID:  studentID,
		EnrolledAt: core.NowFunc(),
	})
}

func (svc *service) Unenroll(ctx context.Context, classID, studentID string) error {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return err
	}
	return svc.repo.DeleteEnrollment(ctx, classID, studentID)
}

func (svc *service) Students(ctx context.Context, classID string) ([]student.Student, error) {
	if _, err := svc.repo.GetClass(ctx, classID); err != nil {
		return nil, err
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, classID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	if len(enrollments) == 0 {
		return []student.Student{}, nil
	}
	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.StudentID)
	}
	return svc.studentSvc.Query(ctx, &student.QueryFilter{IDs: ids}, []core.DBOrdering{{Field: "last_name", Ascending: true}})
}
