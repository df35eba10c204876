package blog

import (
	"context"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
)

var (
	// errors
	ErrNotFound  = errors.New("entry not found")
	ErrEmptySlug = errors.New("title must contain letters or digits")
)

type (
	Repository interface {
		// SlugExists reports whether an entry other than excludedID uses slug.
		SlugExists(ctx context.Context, slug, excludedID string) (bool, error)
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryEntries applies AND operation on available QueryFilter fields.
		// it orders by published_at DESC, created_at DESC when no ordering is provided.
		QueryEntries(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		GetEntryBySlug(ctx context.Context, slug string) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, authorID string, ne NewEntry) (Entry, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error)
		GetByID(ctx context.Context, id string) (Entry, error)
		GetBySlug(ctx context.Context, slug string) (Entry, error)
		Update(ctx context.Context, e Entry, ue UpdateEntry) (Entry, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// uniqueSlug returns the slug of title, suffixed with "-2", "-3"... when already in use.
func (svc *service) uniqueSlug(ctx context.Context, title, excludedID string) (string, error) {
	base := Slugify(title)
	slug := base
	for i := 2; ; i++ {
		exists, err := svc.repo.SlugExists(ctx, slug, excludedID)
		if err != nil {
			return "", errors.Wrap(err, "checking slug")
		}
		if !exists {
			return slug, nil
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}

func (svc *service) Create(ctx context.Context, authorID string, ne NewEntry) (Entry, error) {
	slug, err := svc.uniqueSlug(ctx, ne.Title, "")
	if err != nil {
		return Entry{}, err
	}

	now := core.NowFunc()
	e := Entry{
		AuthorID:  authorID,
		Title:     ne.Title,
		Slug:      slug,
		Summary:   ne.Summary,
		Content:   ne.Content,
		Tags:      ne.Tags,
		Published: ne.Published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.Published {
		e.PublishedAt = now
	}
	return svc.repo.CreateEntry(ctx, e)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Entry, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryEntries(ctx, filter, core.CleanOrdering(ordering, QueryOrderingFields...))
}

func (svc *service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

func (svc *service) GetBySlug(ctx context.Context, slug string) (Entry, error) {
	return svc.repo.GetEntryBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *service) Update(ctx context.Context, e Entry, ue UpdateEntry) (Entry, error) {
	if ue.Title != nil && *ue.Title != e.Title {
		e.Title = *ue.Title
		// published slugs are permalinks
		if e.PublishedAt.IsZero() {
			slug, err := svc.uniqueSlug(ctx, e.Title, e.ID)
			if err != nil {
				return Entry{}, err
			}
			e.Slug = slug
		}
	}
	if ue.Summary != nil {
		e.Summary = *ue.Summary
	}
	if ue.Content != nil {
		e.Content = *ue.Content
	}
	if ue.Tags != nil {
		e.Tags = ue.Tags
	}

	now := core.NowFunc()
	if ue.Published != nil {
		e.Published = *ue.Published
		if e.Published && e.PublishedAt.IsZero() {
			e.PublishedAt = now
		}
	}
	e.UpdatedAt = now
	return svc.repo.UpdateEntry(ctx, e)
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEntry(ctx, id)
}
