package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	echoapi "github.com/trezcool/dojang/apps/api/echo"
	"github.com/trezcool/dojang/core"
	"github.com/trezcool/dojang/core/payment"
	"github.com/trezcool/dojang/core/user"
	"github.com/trezcool/dojang/services"
	emailsvc "github.com/trezcool/dojang/services/email"
	logsvc "github.com/trezcool/dojang/services/logger"
	"github.com/trezcool/dojang/services/payment/mercadopago"
	"github.com/trezcool/dojang/storage"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger("API", conf), conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(logsvc.NewZapLogger("DB", conf), conf)
	dbLogger.Enable(!conf.Debug)
	defer dbLogger.Sync()

	// set up storage
	repos, err := storage.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = repos.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()
	dbLogger.Info(fmt.Sprintf("storage ready : engine %q", conf.Database.Engine))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		consoleSvc := emailsvc.NewConsoleService(conf, logger)
		defer consoleSvc.Wait()
		mailSvc = consoleSvc
	} else {
		sendgridSvc := emailsvc.NewSendgridService(conf, logger)
		defer sendgridSvc.Wait()
		mailSvc = sendgridSvc
	}

	var gateway payment.Gateway
	if conf.MercadoPago.AccessToken != "" {
		gateway = mercadopago.NewClient(conf)
	} else {
		logger.Warn("MercadoPago access token not set: online payments disabled")
	}

	svcs := services.New(repos, services.Deps{Conf: conf, Logger: logger, MailSvc: mailSvc, Gateway: gateway})

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := services.NewValidator()
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("db_engine").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
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

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
