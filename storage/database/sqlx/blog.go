package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/blog"
)

const entryTable = "blog_entry"

var (
	entryColumns = []string{
		"id", "author_id", "title", "slug", "summary", "content", "tags", "published", "published_at",
		"created_at", "updated_at",
	}
	entryOrderingColumns = map[string]string{
		"title":        "lower(title)",
		"published_at": "published_at",
		"created_at":   "created_at",
		"updated_at":   "updated_at",
	}
)

type entryRow struct {
	ID          string         `db:"id"`
	AuthorID    null.String    `db:"author_id"`
	Title       string         `db:"title"`
	Slug        string         `db:"slug"`
	Summary     string         `db:"summary"`
	Content     string         `db:"content"`
	Tags        pq.StringArray `db:"tags"`
	Published   bool           `db:"published"`
	PublishedAt null.Time      `db:"published_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (row entryRow) toEntry() blog.Entry {
	e := blog.Entry{
		ID:        row.ID,
		AuthorID:  row.AuthorID.String,
		Title:     row.Title,
		Slug:      row.Slug,
		Summary:   row.Summary,
		Content:   row.Content,
		Tags:      row.Tags,
		Published: row.Published,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if row.PublishedAt.Valid {
		e.PublishedAt = row.PublishedAt.Time.UTC()
	}
	return e
}

func entryTags(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return tags
}

type blogRepository struct {
	db *sqlx.DB
}

var _ blog.Repository = (*blogRepository)(nil) // interface compliance check

func NewBlogRepository(db *sqlx.DB) blog.Repository {
	return &blogRepository{db: db}
}

func (repo *blogRepository) SlugExists(ctx context.Context, slug, excludedID string) (bool, error) {
	q := psql.Select("COUNT(*)").From(entryTable).Where(sq.Eq{"slug": slug})
	if validID(excludedID) {
		q = q.Where(sq.NotEq{"id": excludedID})
	}
	var cnt int
	if err := get(ctx, repo.db, &cnt, q); err != nil {
		return false, errors.Wrap(err, "checking slug")
	}
	return cnt > 0, nil
}

func (repo *blogRepository) CreateEntry(ctx context.Context, e blog.Entry) (blog.Entry, error) {
	e.ID = uuid.New().String()
	q := psql.Insert(entryTable).Columns(entryColumns...).Values(
		e.ID, nullID(e.AuthorID), e.Title, e.Slug, e.Summary, e.Content, entryTags(e.Tags), e.Published,
		nullDate(e.PublishedAt), e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	if _, err := exec(ctx, repo.db, q); err != nil {
		return blog.Entry{}, errors.Wrap(err, "inserting blog entry")
	}
	return e, nil
}

func (repo *blogRepository) QueryEntries(ctx context.Context, filter *blog.QueryFilter, ordering []core.DBOrdering) ([]blog.Entry, error) {
	q := psql.Select(entryColumns...).From(entryTable)
	if filter != nil {
		if !validFilterIDs(filter.AuthorID) {
			return []blog.Entry{}, nil
		}
		if filter.PublishedOnly {
			q = q.Where(sq.Eq{"published": true})
		}
		if filter.AuthorID != "" {
			q = q.Where(sq.Eq{"author_id": filter.AuthorID})
		}
		if filter.Tag != "" {
			q = q.Where("? = ANY(tags)", filter.Tag)
		}
		if filter.Search != "" {
			q = q.Where(ilike(filter.Search, "title", "summary", "content"))
		}
	}
	q = q.OrderBy(orderBy(ordering, entryOrderingColumns, "published_at DESC NULLS LAST", "created_at DESC")...)

	var rows []entryRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying blog entries")
	}
	entries := make([]blog.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

func (repo *blogRepository) getEntry(ctx context.Context, where sq.Eq) (blog.Entry, error) {
	var row entryRow
	q := psql.Select(entryColumns...).From(entryTable).Where(where)
	if err := get(ctx, repo.db, &row, q); err != nil {
		return blog.Entry{}, trapNoRows(err, blog.ErrNotFound, "finding blog entry")
	}
	return row.toEntry(), nil
}

func (repo *blogRepository) GetEntry(ctx context.Context, id string) (blog.Entry, error) {
	if !validID(id) {
		return blog.Entry{}, blog.ErrNotFound
	}
	return repo.getEntry(ctx, sq.Eq{"id": id})
}

func (repo *blogRepository) GetEntryBySlug(ctx context.Context, slug string) (blog.Entry, error) {
	return repo.getEntry(ctx, sq.Eq{"slug": slug})
}

func (repo *blogRepository) UpdateEntry(ctx context.Context, e blog.Entry) (blog.Entry, error) {
	if !validID(e.ID) {
		return blog.Entry{}, blog.ErrNotFound
	}
	q := psql.Update(entryTable).SetMap(map[string]interface{}{
		"title":        e.Title,
		"slug":         e.Slug,
		"summary":      e.Summary,
		"content":      e.Content,
		"tags":         entryTags(e.Tags),
		"published":    e.Published,
		"published_at": nullDate(e.PublishedAt),
		"updated_at":   e.UpdatedAt.UTC(),
	}).Where(sq.Eq{"id": e.ID})
	if err := execOne(ctx, repo.db, q, blog.ErrNotFound); err != nil {
		return blog.Entry{}, trapNoRows(err, blog.ErrNotFound, "updating blog entry")
	}
	return e, nil
}

func (repo *blogRepository) DeleteEntry(ctx context.Context, id string) error {
	if !validID(id) {
		return blog.ErrNotFound
	}
	err := execOne(ctx, repo.db, psql.Delete(entryTable).Where(sq.Eq{"id": id}), blog.ErrNotFound)
	if err != nil {
		return trapNoRows(err, blog.ErrNotFound, "deleting blog entry")
	}
	return nil
}
