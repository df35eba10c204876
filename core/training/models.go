package training

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// QueryOrderingFields are the fields classes can be ordered by.
var QueryOrderingFields = []string{"name", "capacity", "created_at", "updated_at"}

type TrainingClass struct {
	ID          string     `json:"id"`
	DojangID    string     `json:"dojang_id"`
	CoachID     string     `json:"coach_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Capacity    int        `json:"capacity"` // 0: unlimited
	Schedules   []Schedule `json:"schedules"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

type Enrollment struct {
	ClassID    string    `json:"class_id"`
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// NewClass contains information needed to create a new TrainingClass.
type NewClass struct {
	DojangID    string     `json:"dojang_id" validate:"required"`
	CoachID     string     `json:"coach_id" validate:"required"`
	Name        string     `json:"name" validate:"required,notblank"`
	Description string     `json:"description"`
	Capacity    int        `json:"capacity" validate:"min=0"`
	Schedules   []Schedule `json:"schedules" validate:"required,min=1,dive"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.DojangID = core.CleanString(nc.DojangID)
	nc.CoachID = core.CleanString(nc.CoachID)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if err := checkSchedules(nc.Schedules); err != nil {
		return core.NewFieldValidationError("schedules", err)
	}
	return nil
}

// UpdateClass defines what information may be provided to modify an existing TrainingClass.
// nil fields keep the current values. the dojang of a class cannot change.
type UpdateClass struct {
	CoachID     *string    `json:"coach_id" validate:"omitempty,notblank"`
	Name        *string    `json:"name" validate:"omitempty,notblank"`
	Description *string    `json:"description"`
	Capacity    *int       `json:"capacity" validate:"omitempty,min=0"`
	Schedules   []Schedule `json:"schedules" validate:"omitempty,dive"` // nil keeps the current schedules
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	for _, fld := range []*string{uc.CoachID, uc.Name, uc.Description} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.Schedules != nil && len(uc.Schedules) == 0 {
		return core.NewFieldValidationError("schedules", ErrNoSchedules)
	}
	if err := checkSchedules(uc.Schedules); err != nil {
		return core.NewFieldValidationError("schedules", err)
	}
	return nil
}

type QueryFilter struct {
	DojangID  string
	CoachID   string
	StudentID string // classes the student is enrolled in
	Day       *time.Weekday
	Search    string
}

func (qf *QueryFilter) Clean() {
	qf.DojangID = core.CleanString(qf.DojangID)
	qf.CoachID = core.CleanString(qf.CoachID)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Search = core.CleanString(qf.Search)
}
