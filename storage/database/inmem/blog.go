package inmemdb

import (
	"context"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/blog"
)

type blogRepository struct {
	db *DB
}

var _ blog.Repository = (*blogRepository)(nil) // interface compliance check

func NewBlogRepository(db *DB) blog.Repository {
	return &blogRepository{db: db}
}

func copyEntry(e blog.Entry) *blog.Entry {
	e.Tags = copyStrings(e.Tags)
	return &e
}

func compareEntries(a, b blog.Entry, field string) int {
	switch field {
	case "title":
		return cmpString(a.Title, b.Title)
	case "published_at":
		return cmpTime(a.PublishedAt, b.PublishedAt)
	case "created_at":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	case "updated_at":
		return cmpTime(a.UpdatedAt, b.UpdatedAt)
	}
	return 0
}

func (repo *blogRepository) SlugExists(_ context.Context, slug, excludedID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, e := range repo.db.entries {
		if e.Slug == slug && e.ID != excludedID {
			return true, nil
		}
	}
	return false, nil
}

func (repo *blogRepository) CreateEntry(_ context.Context, e blog.Entry) (blog.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e.ID = newID()
	repo.db.entries[e.ID] = copyEntry(e)
	return *copyEntry(e), nil
}

func (repo *blogRepository) QueryEntries(_ context.Context, filter *blog.QueryFilter, ordering []core.DBOrdering) ([]blog.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]blog.Entry, 0, len(repo.db.entries))
	for _, e := range repo.db.entries {
		if filter != nil {
			if filter.PublishedOnly && !e.Published {
				continue
			}
			if filter.AuthorID != "" && e.AuthorID != filter.AuthorID {
				continue
			}
			if filter.Tag != "" && !core.StringInSlice(filter.Tag, e.Tags) {
				continue
			}
			if filter.Search != "" && !contains(filter.Search, e.Title, e.Summary, e.Content) {
				continue
			}
		}
		entries = append(entries, *copyEntry(*e))
	}
	orderBy(entries, ordering, compareEntries,
		core.DBOrdering{Field: "published_at"},
		core.DBOrdering{Field: "created_at"})
	return entries, nil
}

func (repo *blogRepository) GetEntry(_ context.Context, id string) (blog.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.entries[id]; ok {
		return *copyEntry(*e), nil
	}
	return blog.Entry{}, blog.ErrNotFound
}

func (repo *blogRepository) GetEntryBySlug(_ context.Context, slug string) (blog.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, e := range repo.db.entries {
		if e.Slug == slug {
			return *copyEntry(*e), nil
		}
	}
	return blog.Entry{}, blog.ErrNotFound
}

func (repo *blogRepository) UpdateEntry(_ context.Context, e blog.Entry) (blog.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.entries[e.ID]; !ok {
		return blog.Entry{}, blog.ErrNotFound
	}
	repo.db.entries[e.ID] = copyEntry(e)
	return *copyEntry(e), nil
}

func (repo *blogRepository) DeleteEntry(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.entries[id]; !ok {
		return blog.ErrNotFound
	}
	delete(repo.db.entries, id)
	return nil
}
