package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/dojang/core/blog"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/dojang"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/promotion"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/student"
	"github.com/trezcool/dojang/core/training"
	"github.com/trezcool/dojang/core/user"
)

// DB is an in-memory store. a single lock guards every table so that
// operations spanning several tables (promotions, cascades) are atomic.
type DB struct {
	mutex sync.RWMutex

	users       map[string]*user.User
	dojangs     map[string]*dojang.Dojang
	ranks       map[string]*rank.Rank
	students    map[string]*student.Student
	coaches     map[string]*coach.Coach
	classes     map[string]*training.TrainingClass
	enrollments map[string][]training.Enrollment // {class ID: enrollments}
	promotions  map[string]*promotion.Promotion
	payments    map[string]*payment.Payment
	entries     map[string]*blog.Entry
}

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		dojangs:     make(map[string]*dojang.Dojang),
		ranks:       make(map[string]*rank.Rank),
		students:    make(map[string]*student.Student),
		coaches:     make(map[string]*coach.Coach),
		classes:     make(map[string]*training.TrainingClass),
		enrollments: make(map[string][]training.Enrollment),
		promotions:  make(map[string]*promotion.Promotion),
		payments:    make(map[string]*payment.Payment),
		entries:     make(map[string]*blog.Entry),
	}
}

func newID() string { return uuid.New().String() }

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
