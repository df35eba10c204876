package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		// HealthCheck reports whether the storage is reachable (optional).
		HealthCheck func(ctx context.Context) error

		UserSvc      user.Service
		DojangSvc    dojang.Service
		RankSvc      rank.Service
		StudentSvc   student.Service
		CoachSvc     coach.Service
		TrainingSvc  training.Service
		PromotionSvc promotion.Service
		PaymentSvc   payment.Service
		BlogSvc      blog.Service
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(ctx context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *auth
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil) // interface compliance check

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuth(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableRequestLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	g := s.app.Group("/api")
	jwt := s.auth.middleware()

	registerUserAPI(g, jwt, s.auth, s.deps.UserSvc, s.deps.Validate)
	registerDojangAPI(g, jwt, s.deps.DojangSvc, s.deps.Validate)
	registerRankAPI(g, jwt, s.deps.RankSvc, s.deps.Validate)
	registerStudentAPI(g, jwt, s.deps)
	registerCoachAPI(g, jwt, s.deps.CoachSvc, s.deps.Validate)
	registerTrainingAPI(g, jwt, s.deps)
	registerPromotionAPI(g, jwt, s.deps)
	registerPaymentAPI(g, jwt, s.deps)
	registerBlogAPI(g, jwt, s.deps.BlogSvc, s.deps.Validate)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown asks the application to shut down gracefully.
func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

func (s *server) health(ctx echo.Context) error {
	status := echo.Map{"status": "ok", "build": s.deps.Conf.Build}
	if s.deps.HealthCheck != nil {
		if err := s.deps.HealthCheck(ctx.Request().Context()); err != nil {
			s.deps.Logger.Error("health check failed", err)
			status["status"] = "db not ready"
			return ctx.JSON(http.StatusInternalServerError, status)
		}
	}
	return ctx.JSON(http.StatusOK, status)
}
