// Package storage selects the repositories of the configured database engine.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/blog"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/dojang"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/promotion"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/student"
	"github.com/trezcool/dojang/core/training"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/storage/database"
	inmemdb "github.com/trezcool/dojang/storage/database/inmem"
	sqlxrepos "github.com/trezcool/dojang/storage/database/sqlx"
)

type Repositories struct {
	User      user.Repository
	Dojang    dojang.Repository
	Rank      rank.Repository
	Student   student.Repository
	Coach     coach.Repository
	Training  training.Repository
	Promotion promotion.Repository
	Payment   payment.Repository
	Blog      blog.Repository

	// DB is nil for the inmem engine.
	DB *sqlx.DB
}

func NewInMem() *Repositories {
	db := inmemdb.Open()
	return &Repositories{
		User:      inmemdb.NewUserRepository(db),
		Dojang:    inmemdb.NewDojangRepository(db),
		Rank:      inmemdb.NewRankRepository(db),
		Student:   inmemdb.NewStudentRepository(db),
		Coach:     inmemdb.NewCoachRepository(db),
		Training:  inmemdb.NewTrainingRepository(db),
		Promotion: inmemdb.NewPromotionRepository(db),
		Payment:   inmemdb.NewPaymentRepository(db),
		Blog:      inmemdb.NewBlogRepository(db),
	}
}

func NewSQL(db *sqlx.DB) *Repositories {
	return &Repositories{
		User:      sqlxrepos.NewUserRepository(db),
		Dojang:    sqlxrepos.NewDojangRepository(db),
		Rank:      sqlxrepos.NewRankRepository(db),
		Student:   sqlxrepos.NewStudentRepository(db),
		Coach:     sqlxrepos.NewCoachRepository(db),
		Training:  sqlxrepos.NewTrainingRepository(db),
		Promotion: sqlxrepos.NewPromotionRepository(db),
		Payment:   sqlxrepos.NewPaymentRepository(db),
		Blog:      sqlxrepos.NewBlogRepository(db),
		DB:        db,
	}
}

// Open returns the repositories of the configured engine.
// the postgres engine creates the database when missing and applies pending migrations.
func Open(conf *core.Config) (*Repositories, error) {
	if conf.Database.Engine == core.DBEngineInMem {
		return NewInMem(), nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return NewSQL(db), nil
}

// StatusCheck returns nil if the storage is reachable.
func (r *Repositories) StatusCheck(ctx context.Context) error {
	if r.DB == nil {
		return nil
	}
	return database.StatusCheck(ctx, r.DB)
}

func (r *Repositories) Close() error {
	if r.DB == nil {
		return nil
	}
	return r.DB.Close()
}
