package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/promotion"
	"github.com/trezcool/dojang/core/student"
)

const promotionTable = "promotion"

var (
	promotionColumns = []string{
		"id", "student_id", "coach_id", "from_rank_id", "to_rank_id", "promoted_at", "notes", "created_at",
	}
	promotionOrderingColumns = map[string]string{
		"promoted_at": "promoted_at",
		"created_at":  "created_at",
	}
)

type promotionRow struct {
	ID         string      `db:"id"`
	StudentID  string      `db:"student_id"`
	CoachID    null.String `db:"coach_id"`
	FromRankID null.String `db:"from_rank_id"`
	ToRankID   string      `db:"to_rank_id"`
	PromotedAt time.Time   `db:"promoted_at"`
	Notes      string      `db:"notes"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (row promotionRow) toPromotion() promotion.Promotion {
	return promotion.Promotion{
		ID:         row.ID,
		StudentID:  row.StudentID,
		CoachID:    row.CoachID.String,
		FromRankID: row.FromRankID.String,
		ToRankID:   row.ToRankID,
		PromotedAt: row.PromotedAt.UTC(),
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt.UTC(),
	}
}

type promotionRepository struct {
	db *sqlx.DB
}

var _ promotion.Repository = (*promotionRepository)(nil) // interface compliance check

func NewPromotionRepository(db *sqlx.DB) promotion.Repository {
	return &promotionRepository{db: db}
}

// lockStudentRank locks the student row until the end of tx and returns its rank.
func lockStudentRank(ctx context.Context, tx *sqlx.Tx, studentID string) (string, error) {
	var rankID null.String
	q := psql.Select("rank_id").From(studentTable).Where(sq.Eq{"id": studentID}).Suffix("FOR UPDATE")
	if err := get(ctx, tx, &rankID, q); err != nil {
		return "", trapNoRows(err, student.ErrNotFound, "locking student")
	}
	return rankID.String, nil
}

func setStudentRank(ctx context.Context, tx *sqlx.Tx, studentID, rankID string) error {
	q := psql.Update(studentTable).
		Set("rank_id", nullID(rankID)).
		Set("updated_at", core.NowFunc().UTC()).
		Where(sq.Eq{"id": studentID})
	return errors.Wrap(execOne(ctx, tx, q, student.ErrNotFound), "updating student rank")
}

func (repo *promotionRepository) ApplyPromotion(ctx context.Context, p promotion.Promotion) (promotion.Promotion, error) {
	if !validID(p.StudentID) {
		return promotion.Promotion{}, student.ErrNotFound
	}
	p.ID = uuid.New().String()
	p.PromotedAt, p.CreatedAt = p.PromotedAt.UTC(), p.CreatedAt.UTC()

	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		current, err := lockStudentRank(ctx, tx, p.StudentID)
		if err != nil {
			return err
		}
		if current != p.FromRankID {
			return promotion.ErrRankChanged
		}
		q := psql.Insert(promotionTable).Columns(promotionColumns...).Values(
			p.ID, p.StudentID, nullID(p.CoachID), nullID(p.FromRankID), p.ToRankID, p.PromotedAt, p.Notes, p.CreatedAt,
		)
		if _, err = exec(ctx, tx, q); err != nil {
			return errors.Wrap(err, "inserting promotion")
		}
		return setStudentRank(ctx, tx, p.StudentID, p.ToRankID)
	})
	if err != nil {
		return promotion.Promotion{}, err
	}
	return p, nil
}

func (repo *promotionRepository) RevertPromotion(ctx context.Context, p promotion.Promotion) error {
	if !validID(p.ID) {
		return promotion.ErrNotFound
	}
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		current, err := lockStudentRank(ctx, tx, p.StudentID)
		if err != nil {
			return err
		}
		q := psql.Delete(promotionTable).Where(sq.Eq{"id": p.ID})
		if err = execOne(ctx, tx, q, promotion.ErrNotFound); err != nil {
			return trapNoRows(err, promotion.ErrNotFound, "deleting promotion")
		}
		if current != p.ToRankID {
			return promotion.ErrRankChanged
		}
		return setStudentRank(ctx, tx, p.StudentID, p.FromRankID)
	})
}

func (repo *promotionRepository) QueryPromotions(ctx context.Context, filter *promotion.QueryFilter, ordering []core.DBOrdering) ([]promotion.Promotion, error) {
	q := psql.Select(promotionColumns...).From(promotionTable)
	if filter != nil {
		if !validFilterIDs(filter.StudentID, filter.CoachID, filter.RankID) {
			return []promotion.Promotion{}, nil
		}
		if filter.StudentID != "" {
			q = q.Where(sq.Eq{"student_id": filter.StudentID})
		}
		if filter.CoachID != "" {
			q = q.Where(sq.Eq{"coach_id": filter.CoachID})
		}
		if filter.RankID != "" {
			q = q.Where(sq.Eq{"to_rank_id": filter.RankID})
		}
		if !filter.From.IsZero() {
			q = q.Where(sq.GtOrEq{"promoted_at": filter.From.UTC()})
		}
		if !filter.To.IsZero() {
			q = q.Where(sq.LtOrEq{"promoted_at": filter.To.UTC()})
		}
	}
	q = q.OrderBy(orderBy(ordering, promotionOrderingColumns, "promoted_at DESC", "created_at DESC")...)

	var rows []promotionRow
	if err := selectAll(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying promotions")
	}
	promotions := make([]promotion.Promotion, 0, len(rows))
	for _, row := range rows {
		promotions = append(promotions, row.toPromotion())
	}
	return promotions, nil
}

func (repo *promotionRepository) GetPromotion(ctx context.Context, id string) (promotion.Promotion, error) {
	if !validID(id) {
		return promotion.Promotion{}, promotion.ErrNotFound
	}
	var row promotionRow
	q := psql.Select(promotionColumns...).From(promotionTable).Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &row, q); err != nil {
		return promotion.Promotion{}, trapNoRows(err, promotion.ErrNotFound, "finding promotion")
	}
	return row.toPromotion(), nil
}
