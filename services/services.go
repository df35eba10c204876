// Package services builds the domain services on top of the storage repositories.
package services

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	"github.com/trezcool/dojang/storage"
)

type (
	Deps struct {
		Conf    *core.Config
		Logger  core.Logger
		MailSvc core.EmailService
		Gateway payment.Gateway // nil disables online payments
	}

	Services struct {
		User      user.Service
		Dojang    dojang.Service
		Rank      rank.Service
		Student   student.Service
		Coach     coach.Service
		Training  training.Service
		Promotion promotion.Service
		Payment   payment.Service
		Blog      blog.Service
	}
)

func New(repos *storage.Repositories, deps Deps) *Services {
	usrSvc := user.NewService(repos.User, deps.MailSvc, deps.Conf)
	dojangSvc := dojang.NewService(repos.Dojang)
	rankSvc := rank.NewService(repos.Rank)
	studentSvc := student.NewService(repos.Student, dojangSvc, rankSvc, usrSvc)
	coachSvc := coach.NewService(repos.Coach, dojangSvc, rankSvc, usrSvc)

	return &Services{
		User:      usrSvc,
		Dojang:    dojangSvc,
		Rank:      rankSvc,
		Student:   studentSvc,
		Coach:     coachSvc,
		Training:  training.NewService(repos.Training, dojangSvc, coachSvc, studentSvc),
		Promotion: promotion.NewService(repos.Promotion, studentSvc, rankSvc, coachSvc),
		Payment:   payment.NewService(repos.Payment, deps.Gateway, studentSvc, deps.MailSvc, deps.Logger, deps.Conf),
		Blog:      blog.NewService(repos.Blog),
	}
}

// NewValidator returns a validator with every domain validation registered, and its translator.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	training.InitValidators(validate, translator)
	return validate, translator
}
