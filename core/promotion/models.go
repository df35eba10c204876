package promotion

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// QueryOrderingFields are the fields promotions can be ordered by.
var QueryOrderingFields = []string{"promoted_at", "created_at"}

type Promotion struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CoachID    string    `json:"coach_id"`
	FromRankID string    `json:"from_rank_id"` // empty for a first rank
	ToRankID   string    `json:"to_rank_id"`
	PromotedAt time.Time `json:"promoted_at"` // UTC
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// NewPromotion contains information needed to promote a student.
// ToRankID is optional: when provided it must be the student's next rank.
type NewPromotion struct {
	StudentID  string     `json:"student_id" validate:"required"`
	CoachID    string     `json:"coach_id"`
	ToRankID   string     `json:"to_rank_id"`
	PromotedAt *time.Time `json:"promoted_at"`
	Notes      string     `json:"notes" validate:"max=2000"`
}

func (np *NewPromotion) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID)
	np.CoachID = core.CleanString(np.CoachID)
	np.ToRankID = core.CleanString(np.ToRankID)
	np.Notes = core.CleanString(np.Notes)

	if err := validate.Struct(np); err != nil {
		return err
	}
	if np.PromotedAt != nil && np.PromotedAt.After(core.NowFunc()) {
		return core.NewFieldValidationError("promoted_at", ErrPromotedInFuture)
	}
	return nil
}

type QueryFilter struct {
	StudentID string
	CoachID   string
	RankID    string // promotions to this rank
	From      time.Time
	To        time.Time
}

func (qf *QueryFilter) Clean() {
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.CoachID = core.CleanString(qf.CoachID)
	qf.RankID = core.CleanString(qf.RankID)
}
