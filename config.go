package accounts

import (
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// EnvPrefix namespaces every environment variable read by LoadConfig
const EnvPrefix = "ACCOUNTS_"

// Options is the env driven configuration of the accounts service
type Options struct {
	DatabaseDriver     string        `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseDSN        string        `env:"DATABASE_DSN" envDefault:"file:accounts.db?cache=shared"`
	LockoutThreshold   int           `env:"LOCKOUT_THRESHOLD" envDefault:"3"`
	LockoutDuration    time.Duration `env:"LOCKOUT_DURATION" envDefault:"2h"`
	TokenSigningKey    string        `env:"TOKEN_SIGNING_KEY"`
	TokenIssuer        string        `env:"TOKEN_ISSUER" envDefault:"go-accounts"`
	TokenTTL           time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	StoreTimeout       time.Duration `env:"STORE_TIMEOUT" envDefault:"10s"`
	NotifyTimeout      time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"30s"`
	RevealUnregistered bool          `env:"REVEAL_UNREGISTERED" envDefault:"false"`
	UseHashid          bool          `env:"USE_HASHID" envDefault:"false"`
	HTTPAddr           string        `env:"HTTP_ADDR" envDefault:":8080"`
	Debug              bool          `env:"DEBUG" envDefault:"false"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	ConfirmationURL    string        `env:"CONFIRMATION_URL"`
	SMTP               SMTPOptions   `envPrefix:"SMTP_"`
}

// SMTPOptions configures the confirmation mailer. An empty host disables it.
type SMTPOptions struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
}

// Enabled reports whether a mailer should be built
func (s SMTPOptions) Enabled() bool {
	return s.Host != ""
}

var _ Config = Options{}

// LoadConfig reads Options from the process environment
func LoadConfig() (Options, error) {
	return LoadConfigFrom(nil)
}

// LoadConfigFrom reads Options from environ. A nil map uses the process
// environment.
func LoadConfigFrom(environ map[string]string) (Options, error) {
	opts, err := env.ParseAsWithOptions[Options](env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return Options{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse accounts configuration")
	}

	if err := opts.Validate(); err != nil {
		return Options{}, err
	}

	return opts, nil
}

// Validate will run validation rules
func (o Options) Validate() error {
	err := validation.ValidateStruct(&o,
		validation.Field(&o.DatabaseDriver, validation.Required, validation.In(DriverSQLite, DriverPostgres)),
		validation.Field(&o.DatabaseDSN, validation.Required),
		validation.Field(&o.LockoutThreshold, validation.Required, validation.Min(1)),
		validation.Field(&o.LockoutDuration, validation.Required, validation.Min(time.Second)),
		validation.Field(&o.TokenSigningKey, validation.Required),
		validation.Field(&o.TokenTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&o.StoreTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&o.NotifyTimeout, validation.Required, validation.Min(time.Millisecond)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid accounts configuration")
	}
	return nil
}

func (o Options) GetLockoutThreshold() int {
	return o.LockoutThreshold
}

func (o Options) GetLockoutDuration() time.Duration {
	return o.LockoutDuration
}

func (o Options) GetTokenSigningKey() string {
	return o.TokenSigningKey
}

func (o Options) GetTokenIssuer() string {
	return o.TokenIssuer
}

func (o Options) GetTokenTTL() time.Duration {
	return o.TokenTTL
}

func (o Options) GetStoreTimeout() time.Duration {
	return o.StoreTimeout
}

func (o Options) GetNotifyTimeout() time.Duration {
	return o.NotifyTimeout
}

func (o Options) GetRevealUnregistered() bool {
	return o.RevealUnregistered
}
