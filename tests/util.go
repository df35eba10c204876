package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/blog"
	"github.com/trezcool/dojang/core/coach"
	"github.com/trezcool/dojang/core/dojang"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/rank"
	"github.com/trezcool/dojang/core/student"
	"github.com/trezcool/dojang/core/training"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/storage/database"
)

const WebhookSecret = "test-webhook-secret"

// NewConfig returns a TEST configuration on the inmem engine, independent of the environment.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:                   "Dojang",
		Env:                       core.EnvTest,
		Build:                     "test",
		TestMode:                  true,
		SecretKey:                 "test-secret-key",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			DisableRequestLogs:        true,
		},
		Database: core.DatabaseConfig{Engine: core.DBEngineInMem},
		MercadoPago: core.MercadoPagoConfig{
			WebhookSecret: WebhookSecret,
			Currency:      "ARS",
		},
	}
}

// PrepareDB returns a freshly migrated Postgres database.
// the test is skipped unless ENV=TEST and TEST_DATABASE_HOST are set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv("ENV") != core.EnvTest || os.Getenv("TEST_DATABASE_HOST") == "" {
		t.Skip("no test database configured (ENV=TEST, TEST_DATABASE_HOST)")
	}

	conf := core.NewConfig()
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.RunMigrations(db.DB, "reset"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateDojang(t *testing.T, repo dojang.Repository, name, city string) dojang.Dojang {
	now := time.Now().UTC()
	d, err := repo.CreateDojang(context.Background(), dojang.Dojang{
		Name:      name,
		City:      city,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createDojang() failed: %v", err)
	}
	return d
}

func CreateRank(t *testing.T, repo rank.Repository, name string, order int, kind string) rank.Rank {
	now := time.Now().UTC()
	r, err := repo.CreateRank(context.Background(), rank.Rank{
		Name:      name,
		Order:     order,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createRank() failed: %v", err)
	}
	return r
}

// CreateLadder creates n gup ranks ordered 1..n.
func CreateLadder(t *testing.T, repo rank.Repository, n int) []rank.Rank {
	names := []string{"10th Gup", "9th Gup", "8th Gup", "7th Gup", "6th Gup", "5th Gup", "4th Gup", "3rd Gup", "2nd Gup", "1st Gup"}
	ranks := make([]rank.Rank, 0, n)
	for i := 0; i < n && i < len(names); i++ {
		ranks = append(ranks, CreateRank(t, repo, names[i], i+1, rank.KindGup))
	}
	return ranks
}

func CreateStudent(
	t *testing.T,
	repo student.Repository,
	dojangID, rankID, userID, firstName, lastName string,
	isActive bool,
	joinedAt ...time.Time,
) student.Student {
	now := time.Now().UTC()
	joined := now
	if len(joinedAt) > 0 {
		joined = joinedAt[0].UTC()
	}
	s := student.Student{
		UserID:    userID,
		DojangID:  dojangID,
		RankID:    rankID,
		FirstName: firstName,
		LastName:  lastName,
		JoinedAt:  joined,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.SetActive(isActive)
	s, err := repo.CreateStudent(context.Background(), s)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

func CreateCoach(t *testing.T, repo coach.Repository, dojangID, userID, firstName, lastName string) coach.Coach {
	now := time.Now().UTC()
	c := coach.Coach{
		UserID:    userID,
		DojangID:  dojangID,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.SetActive(true)
	c, err := repo.CreateCoach(context.Background(), c)
	if err != nil {
		t.Fatalf("createCoach() failed: %v", err)
	}
	return c
}

// Schedule builds a training.Schedule from "HH:MM" times.
func Schedule(t *testing.T, day time.Weekday, start, end string) training.Schedule {
	s, err := training.ParseTimeOfDay(start)
	if err != nil {
		t.Fatalf("schedule() failed: %v", err)
	}
	e, err := training.ParseTimeOfDay(end)
	if err != nil {
		t.Fatalf("schedule() failed: %v", err)
	}
	return training.Schedule{Day: day, Start: s, End: e}
}

// CreateClass saves a class as is, without checking the coach's other classes.
func CreateClass(
	t *testing.T,
	repo training.Repository,
	dojangID, coachID, name string,
	capacity int,
	schedules ...training.Schedule,
) training.TrainingClass {
	now := time.Now().UTC()
	tc, err := repo.CreateClass(context.Background(), training.TrainingClass{
		DojangID:  dojangID,
		CoachID:   coachID,
		Name:      name,
		Capacity:  capacity,
		Schedules: schedules,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil)
	if err != nil {
		t.Fatalf("createClass() failed: %v", err)
	}
	return tc
}

func CreatePayment(
	t *testing.T,
	repo payment.Repository,
	studentID, concept, method, status string,
	amount int64,
	createdAt ...time.Time,
) payment.Payment {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := payment.Payment{
		StudentID: studentID,
		Concept:   concept,
		Amount:    amount,
		Currency:  "ARS",
		Status:    status,
		Method:    method,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if status == payment.StatusApproved {
		p.PaidAt = tstamp
	}
	p, err := repo.CreatePayment(context.Background(), p)
	if err != nil {
		t.Fatalf("createPayment() failed: %v", err)
	}
	return p
}

func CreateEntry(
	t *testing.T,
	repo blog.Repository,
	authorID, title, slug string,
	published bool,
	tags ...string,
) blog.Entry {
	now := time.Now().UTC()
	e := blog.Entry{
		AuthorID:  authorID,
		Title:     title,
		Slug:      slug,
		Content:   title + " content",
		Tags:      tags,
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if published {
		e.PublishedAt = now
	}
	e, err := repo.CreateEntry(context.Background(), e)
	if err != nil {
		t.Fatalf("createEntry() failed: %v", err)
	}
	return e
}
