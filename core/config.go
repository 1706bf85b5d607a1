package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Path        string
		BusyTimeout time.Duration
	}

	StripeConfig struct {
		SecretKey     string
		WebhookSecret string
		SuccessURL    string
		CancelURL     string
	}

	Config struct {
		Env   string // DEV (local; default), TEST, QA, PROD
		Build string

		Debug    bool
		TestMode bool

		AppName                   string
		SecretKey                 string
		FrontendBaseURL           string
		DefaultFromEmail          mail.Address
		PasswordResetTimeoutDelta time.Duration

		// generated files (PDF exports) are written under MediaDir and served under MediaURL
		MediaDir string
		MediaURL string

		RollbarToken   string
		SendgridApiKey string
		GoogleClientID string

		Server   ServerConfig
		Database DatabaseConfig
		Stripe   StripeConfig
	}
)

// NewConfig loads the configuration of the current environment.
// Values come from environment variables prefixed with the environment name (eg. DEV_SECRET_KEY),
// optionally loaded from `config/.env.<env>`.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("test_mode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "StartUpLab")
	v.SetDefault("secret_key", "u8#r2!kq-startuplab-(n0t)-s3cr3t-z^d7w$x1p0c=")
	v.SetDefault("frontend_base_url", "http://localhost:3000")
	v.SetDefault("default_from_email", "StartUpLab <noreply@localhost>")
	v.SetDefault("password_reset_timeout_delta", 3*24*time.Hour)
	v.SetDefault("media_dir", "media")
	v.SetDefault("media_url", "/files")
	v.SetDefault("rollbar_token", "")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("google_client_id", "")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debug_host", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.jwt_expiration_delta", 7*24*time.Hour)
	v.SetDefault("server.jwt_refresh_expiration_delta", 30*24*time.Hour)
	v.SetDefault("database.path", "startuplab.db")
	v.SetDefault("database.busy_timeout", 5*time.Second)
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.success_url", "")
	v.SetDefault("stripe.cancel_url", "")

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
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

	from, err := mail.ParseAddress(v.GetString("default_from_email"))
	if err != nil {
		log.Fatalf("config.default_from_email: %v", err)
	}

	frontendBaseURL := strings.TrimRight(v.GetString("frontend_base_url"), "/")
	stripeSuccessURL := v.GetString("stripe.success_url")
	if stripeSuccessURL == "" {
		stripeSuccessURL = frontendBaseURL + "/subscription?checkout=success"
	}
	stripeCancelURL := v.GetString("stripe.cancel_url")
	if stripeCancelURL == "" {
		stripeCancelURL = frontendBaseURL + "/subscription?checkout=cancelled"
	}

	return &Config{
		Env:                       env,
		Build:                     v.GetString("build"),
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("test_mode"),
		AppName:                   v.GetString("app_name"),
		SecretKey:                 v.GetString("secret_key"),
		FrontendBaseURL:           frontendBaseURL,
		DefaultFromEmail:          *from,
		PasswordResetTimeoutDelta: v.GetDuration("password_reset_timeout_delta"),
		MediaDir:                  v.GetString("media_dir"),
		MediaURL:                  strings.TrimRight(v.GetString("media_url"), "/"),
		RollbarToken:              v.GetString("rollbar_token"),
		SendgridApiKey:            v.GetString("sendgrid_api_key"),
		GoogleClientID:            v.GetString("google_client_id"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debug_host"),
			ShutdownTimeout:           v.GetDuration("server.shutdown_timeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwt_expiration_delta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwt_refresh_expiration_delta"),
		},
		Database: DatabaseConfig{
			Path:        v.GetString("database.path"),
			BusyTimeout: v.GetDuration("database.busy_timeout"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("stripe.secret_key"),
			WebhookSecret: v.GetString("stripe.webhook_secret"),
			SuccessURL:    stripeSuccessURL,
			CancelURL:     stripeCancelURL,
		},
	}
}
