package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

const (
	EnvDev  = "DEV"
	EnvTest = "TEST"
	EnvQA   = "QA"
	EnvProd = "PROD"

	DBEnginePostgres = "postgres"
	DBEngineInMem    = "inmem"

	devSecretKey = "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy"
)

type (
	Config struct {
		AppName                   string
		Env                       string
		Build                     string
		Debug                     bool
		TestMode                  bool
		SecretKey                 string
		FrontendBaseURL           string
		RollbarToken              string
		SendgridAPIKey            string
		PasswordResetTimeoutDelta time.Duration

		Server      ServerConfig
		Database    DatabaseConfig
		MercadoPago MercadoPagoConfig

		defaultFromEmail string
	}

	ServerConfig struct {
		Host                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableRequestLogs        bool
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Name          string
		DisableTLS    bool
	}

	MercadoPagoConfig struct {
		BaseURL         string
		AccessToken     string
		WebhookSecret   string
		NotificationURL string
		SuccessURL      string
		FailureURL      string
		Currency        string
	}
)

// NewConfig loads the configuration of the current environment (`ENV`: DEV (default), TEST, QA, PROD).
// Values are read from `<ENV>_<KEY>` environment variables, optionally loaded from `config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = EnvDev
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Dojang")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", env == EnvDev)
	v.SetDefault("testMode", env == EnvTest)
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Dojang <noreply@localhost>")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)
	if env == EnvDev || env == EnvTest {
		v.SetDefault("secretKey", devSecretKey)
	} else {
		v.SetDefault("secretKey", "")
	}

	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("server.disableRequestLogs", env == EnvTest)

	v.SetDefault("database.engine", DBEnginePostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "dojang")
	v.SetDefault("database.password", "dojang")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.name", "dojang")
	v.SetDefault("database.disableTLS", env == EnvDev || env == EnvTest)

	v.SetDefault("mercadopago.baseURL", "https://api.mercadopago.com")
	v.SetDefault("mercadopago.accessToken", "")
	v.SetDefault("mercadopago.webhookSecret", "")
	v.SetDefault("mercadopago.notificationURL", "")
	v.SetDefault("mercadopago.successURL", "")
	v.SetDefault("mercadopago.failureURL", "")
	v.SetDefault("mercadopago.currency", "ARS")

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(ProjectRoot(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := &Config{
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		SecretKey:                 v.GetString("secretKey"),
		FrontendBaseURL:           strings.TrimSuffix(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:              v.GetString("rollbarToken"),
		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
			DisableRequestLogs:        v.GetBool("server.disableRequestLogs"),
		},
		Database: DatabaseConfig{
			Engine:        strings.ToLower(v.GetString("database.engine")),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Name:          v.GetString("database.name"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		MercadoPago: MercadoPagoConfig{
			BaseURL:         strings.TrimSuffix(v.GetString("mercadopago.baseURL"), "/"),
			AccessToken:     v.GetString("mercadopago.accessToken"),
			WebhookSecret:   v.GetString("mercadopago.webhookSecret"),
			NotificationURL: v.GetString("mercadopago.notificationURL"),
			SuccessURL:      v.GetString("mercadopago.successURL"),
			FailureURL:      v.GetString("mercadopago.failureURL"),
			Currency:        strings.ToUpper(v.GetString("mercadopago.currency")),
		},
		defaultFromEmail: v.GetString("defaultFromEmail"),
	}

	if env != EnvDev && env != EnvTest {
		if err := conf.Validate(); err != nil {
			log.Fatalf("config.Validate(): %v", err)
		}
	}
	return conf
}

// Validate checks that the settings required outside of development are provided.
func (conf *Config) Validate() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	checks := []vala.Checker{
		vala.StringNotEmpty(conf.SecretKey, "secretKey"),
		vala.StringNotEmpty(conf.Database.Engine, "database.engine"),
	}
	if conf.Database.Engine == DBEnginePostgres {
		checks = append(checks,
			vala.StringNotEmpty(conf.Database.Name, "database.name"),
			vala.StringNotEmpty(conf.Database.User, "database.user"),
		)
	}
	vala.BeginValidation().Validate(checks...).CheckAndPanic()
	return nil
}

// DefaultFromEmail returns the address transactional emails are sent from.
func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: conf.defaultFromEmail}
	}
	return *addr
}

// Address returns the "host:port" of the database server.
func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, strconv.Itoa(db.Port))
}
