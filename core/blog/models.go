package blog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/dojang/core"
)

// QueryOrderingFields are the fields entries can be ordered by.
var QueryOrderingFields = []string{"title", "published_at", "created_at", "updated_at"}

type Entry struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	Tags        []string  `json:"tags"`
	Published   bool      `json:"published"`
	PublishedAt time.Time `json:"published_at"` // UTC, set on first publication
	CreatedAt   time.Time `json:"created_at"`   // UTC
	UpdatedAt   time.Time `json:"updated_at"`   // UTC
}

// NewEntry contains information needed to create a new Entry.
type NewEntry struct {
	Title     string   `json:"title" validate:"required,notblank,max=200"`
	Summary   string   `json:"summary" validate:"max=500"`
	Content   string   `json:"content" validate:"required,notblank"`
	Tags      []string `json:"tags" validate:"omitempty,max=10,dive,notblank,max=32"`
	Published bool     `json:"published"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Summary = core.CleanString(ne.Summary)
	ne.Tags = cleanTags(ne.Tags)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if Slugify(ne.Title) == "" {
		return core.NewFieldValidationError("title", ErrEmptySlug)
	}
	return nil
}

// UpdateEntry defines what information may be provided to modify an existing Entry.
// nil fields keep the current values. the slug follows the title while the entry was never published.
type UpdateEntry struct {
	Title     *string  `json:"title" validate:"omitempty,notblank,max=200"`
	Summary   *string  `json:"summary" validate:"omitempty,max=500"`
	Content   *string  `json:"content" validate:"omitempty,notblank"`
	Tags      []string `json:"tags" validate:"omitempty,max=10,dive,notblank,max=32"`
	Published *bool    `json:"published"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	if ue.Title != nil {
		*ue.Title = core.CleanString(*ue.Title)
	}
	if ue.Summary != nil {
		*ue.Summary = core.CleanString(*ue.Summary)
	}
	if ue.Tags != nil {
		ue.Tags = cleanTags(ue.Tags)
	}
	if err := validate.Struct(ue); err != nil {
		return err
	}
	if ue.Title != nil && Slugify(*ue.Title) == "" {
		return core.NewFieldValidationError("title", ErrEmptySlug)
	}
	return nil
}

type QueryFilter struct {
	PublishedOnly bool
	AuthorID      string
	Tag           string
	Search        string
}

func (qf *QueryFilter) Clean() {
	qf.AuthorID = core.CleanString(qf.AuthorID)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}

// cleanTags lowers, trims and dedupes tags.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = core.CleanString(tag, true /* lower */); tag != "" && !core.StringInSlice(tag, cleaned) {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}
