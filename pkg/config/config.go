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
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	CartAuth CartAuthConfig
	Checkout CheckoutConfig
	Orders   OrdersConfig
	Flags    FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.VATRateDecimal(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHADERSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"SHADERSTORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHADERSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHADERSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHADERSTORE_DB_DSN"`
	Driver string `envconfig:"SHADERSTORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHADERSTORE_DB_HOST"`
	LegacyPort     int    `envconfig:"SHADERSTORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHADERSTORE_DB_USER"`
	LegacyPassword string `envconfig:"SHADERSTORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHADERSTORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHADERSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHADERSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHADERSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHADERSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHADERSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected (dev/test convenience).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, "sqlite")
}

type RedisConfig struct {
	URL          string        `envconfig:"SHADERSTORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHADERSTORE_REDIS_ADDR"`
	Password     string        `envconfig:"SHADERSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHADERSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHADERSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHADERSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHADERSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHADERSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHADERSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartAuthConfig signs the anonymous cart tokens that scope a cart to a browser.
type CartAuthConfig struct {
	Secret            string `envconfig:"SHADERSTORE_CART_TOKEN_SECRET" required:"true"`
	Issuer            string `envconfig:"SHADERSTORE_CART_TOKEN_ISSUER" default:"shaderstore"`
	ExpirationMinutes int    `envconfig:"SHADERSTORE_CART_TOKEN_EXPIRATION_MINUTES" default:"43200"`
}

// TokenTTL returns the cart token TTL configured in minutes.
func (c CartAuthConfig) TokenTTL() time.Duration {
	if c.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(c.ExpirationMinutes) * time.Minute
}

type CheckoutConfig struct {
	VATRate        string        `envconfig:"SHADERSTORE_CHECKOUT_VAT_RATE" default:"0.20"`
	Currency       string        `envconfig:"SHADERSTORE_CHECKOUT_CURRENCY" default:"EUR"`
	IdempotencyTTL time.Duration `envconfig:"SHADERSTORE_CHECKOUT_IDEMPOTENCY_TTL" default:"168h"`
}

// VATRateDecimal parses the configured VAT rate as an exact decimal fraction.
func (c CheckoutConfig) VATRateDecimal() (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(c.VATRate))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid VAT rate %q: %w", c.VATRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("VAT rate %q out of range [0,1]", c.VATRate)
	}
	return rate, nil
}

type OrdersConfig struct {
	ServiceURL string        `envconfig:"SHADERSTORE_ORDER_SERVICE_URL" required:"true"`
	Timeout    time.Duration `envconfig:"SHADERSTORE_ORDER_SERVICE_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHADERSTORE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" || db.IsSQLite() {
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
