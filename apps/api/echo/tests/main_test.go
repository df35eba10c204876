package tests

import (
	"os"
	"testing"

	"go.uber.org/zap"

	. "github.com/trezcool/dojang/apps/api/echo"
	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/services"
	"github.com/trezcool/dojang/services/email"
	"github.com/trezcool/dojang/services/logger"
	"github.com/trezcool/dojang/storage"
	"github.com/trezcool/dojang/tests"
)

var (
	conf    *core.Config
	logger  *logsvc.RollbarLogger
	app     Server
	repos   *storage.Repositories
	gateway *testutil.FakeGateway

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
	errNotFound     = httpErr{Error: "not found"}
)

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	logger = logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)

	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	os.Exit(m.Run())
}

// setup wires a fresh server on empty inmem repositories.
func setup(t *testing.T) {
	t.Helper()

	repos = storage.NewInMem()
	gateway = testutil.NewFakeGateway()
	emailsvc.ClearOutbox()
	serve(gateway)
}

// serve wires app on the current repositories. a nil gw disables online payments.
func serve(gw payment.Gateway) {
	svcs := services.New(repos, services.Deps{
		Conf:    conf,
		Logger:  logger,
		MailSvc: emailsvc.NewConsoleServiceMock(conf, logger),
		Gateway: gw,
	})
	validate, translator := services.NewValidator()

	app = NewServer(ServerDeps{
		Conf:         conf,
		Logger:       logger,
		Validate:     validate,
		Translator:   translator,
		HealthCheck:  repos.StatusCheck,
		UserSvc:      svcs.User,
		DojangSvc:    svcs.Dojang,
		RankSvc:      svcs.Rank,
		StudentSvc:   svcs.Student,
		CoachSvc:     svcs.Coach,
		TrainingSvc:  svcs.Training,
		PromotionSvc: svcs.Promotion,
		PaymentSvc:   svcs.Payment,
		BlogSvc:      svcs.Blog,
	})
}
