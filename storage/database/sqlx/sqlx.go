package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
)

// psql builds Postgres ($n placeholders) statements.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Executor is implemented by both *sqlx.DB and *sqlx.Tx.
type Executor interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

var (
	_ Executor = (*sqlx.DB)(nil)
	_ Executor = (*sqlx.Tx)(nil)
)

func get(ctx context.Context, exec Executor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return exec.GetContext(ctx, dest, query, args...)
}

func selectAll(ctx context.Context, exec Executor, dest interface{}, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return exec.SelectContext(ctx, dest, query, args...)
}

func exec(ctx context.Context, ex Executor, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// execOne executes b and returns notFound when no row was affected.
func execOne(ctx context.Context, ex Executor, b sq.Sqlizer, notFound error) error {
	cnt, err := exec(ctx, ex, b)
	if err != nil {
		return err
	}
	if cnt == 0 {
		return notFound
	}
	return nil
}

// inTx runs fn in a transaction, rolled back when fn fails.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// trapNoRows maps the "no rows" error to notFound.
func trapNoRows(err error, notFound error, msg string) error {
	if cause := errors.Cause(err); cause == sql.ErrNoRows || cause == notFound {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

// validID reports whether id can be compared to a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// validFilterIDs reports whether every non-empty filter ID is a valid UUID.
// a filter on an invalid ID matches nothing.
func validFilterIDs(ids ...string) bool {
	for _, id := range ids {
		if id != "" && !validID(id) {
			return false
		}
	}
	return true
}

// nullID maps empty IDs to NULL.
func nullID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// orderBy returns the ORDER BY clauses of ordering, whose fields are mapped to SQL columns.
// unknown fields are skipped; defaults are used when nothing is left.
func orderBy(ordering []core.DBOrdering, columns map[string]string, defaults ...string) []string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		col, ok := columns[ord.Field]
		if !ok {
			continue
		}
		clauses = append(clauses, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(clauses) == 0 {
		return defaults
	}
	return clauses
}

// ilike matches keyword (case-insensitive substring) on any of columns.
func ilike(keyword string, columns ...string) sq.Or {
	val := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(keyword) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: val})
	}
	return or
}
