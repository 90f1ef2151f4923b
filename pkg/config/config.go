package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	Admin        AdminConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAISSE_APP_ENV" required:"true"`
	Port         string `envconfig:"CAISSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAISSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAISSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAISSE_DB_DSN"`
	Driver string `envconfig:"CAISSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAISSE_DB_HOST"`
	LegacyPort     int    `envconfig:"CAISSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAISSE_DB_USER"`
	LegacyPassword string `envconfig:"CAISSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAISSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAISSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAISSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAISSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAISSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAISSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAISSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAISSE_REDIS_ADDR"`
	Password     string        `envconfig:"CAISSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAISSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAISSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAISSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAISSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAISSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAISSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries the tuning knobs of the sale engine.
type CheckoutConfig struct {
	// PaymentTolerance absorbs decimal rounding from multiple small cash
	// tenders when checking payment sufficiency.
	PaymentTolerance string `envconfig:"CAISSE_CHECKOUT_PAYMENT_TOLERANCE" default:"0.01"`
	// DonationCeiling caps the buyer-declared amount of free-amount products.
	DonationCeiling string `envconfig:"CAISSE_CHECKOUT_DONATION_CEILING" default:"500.00"`
}

// PaymentToleranceAmount parses the configured tolerance, falling back to one cent.
func (c CheckoutConfig) PaymentToleranceAmount() decimal.Decimal {
	if amount, err := decimal.NewFromString(c.PaymentTolerance); err == nil && !amount.IsNegative() {
		return amount
	}
	return decimal.New(1, -2)
}

// DonationCeilingAmount parses the configured donation ceiling.
func (c CheckoutConfig) DonationCeilingAmount() decimal.Decimal {
	if amount, err := decimal.NewFromString(c.DonationCeiling); err == nil && amount.IsPositive() {
		return amount
	}
	return decimal.New(500, 0)
}

// AdminConfig guards the privileged endpoints (undo, till close).
type AdminConfig struct {
	Code string `envconfig:"CAISSE_ADMIN_CODE" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAISSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAISSE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
