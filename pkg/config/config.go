package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "SOKOLETU"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Checkout     CheckoutConfig
	Gateways     GatewaysConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOKOLETU_APP_ENV" default:"dev"`
	Port         string `envconfig:"SOKOLETU_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SOKOLETU_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOKOLETU_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"SOKOLETU_DB_DSN"`

	Host     string `envconfig:"SOKOLETU_DB_HOST"`
	Port     int    `envconfig:"SOKOLETU_DB_PORT" default:"5432"`
	User     string `envconfig:"SOKOLETU_DB_USER"`
	Password string `envconfig:"SOKOLETU_DB_PASSWORD"`
	Name     string `envconfig:"SOKOLETU_DB_NAME"`
	SSLMode  string `envconfig:"SOKOLETU_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOKOLETU_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOKOLETU_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOKOLETU_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOKOLETU_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOKOLETU_REDIS_URL"`
	Address      string        `envconfig:"SOKOLETU_REDIS_ADDR"`
	Password     string        `envconfig:"SOKOLETU_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOKOLETU_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOKOLETU_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOKOLETU_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOKOLETU_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOKOLETU_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOKOLETU_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CheckoutConfig carries the cart pricing policy. Amounts are Tanzanian
// shillings with two decimal places.
type CheckoutConfig struct {
	TaxRate               decimal.Decimal `envconfig:"SOKOLETU_CHECKOUT_TAX_RATE" default:"0.18"`
	FreeShippingThreshold decimal.Decimal `envconfig:"SOKOLETU_CHECKOUT_FREE_SHIPPING_THRESHOLD" default:"50000"`
	ShippingFlatFee       decimal.Decimal `envconfig:"SOKOLETU_CHECKOUT_SHIPPING_FLAT_FEE" default:"5000"`
}

// GatewaysConfig tunes the simulated settlement providers. Success rates are
// probabilities in [0,1]; latencies model provider round-trip time.
type GatewaysConfig struct {
	CallTimeout time.Duration `envconfig:"SOKOLETU_GATEWAY_TIMEOUT" default:"10s"`

	MpesaSuccessRate       float64       `envconfig:"SOKOLETU_GATEWAY_MPESA_SUCCESS_RATE" default:"0.80"`
	MpesaLatency           time.Duration `envconfig:"SOKOLETU_GATEWAY_MPESA_LATENCY" default:"2s"`
	TigoPesaSuccessRate    float64       `envconfig:"SOKOLETU_GATEWAY_TIGOPESA_SUCCESS_RATE" default:"0.85"`
	TigoPesaLatency        time.Duration `envconfig:"SOKOLETU_GATEWAY_TIGOPESA_LATENCY" default:"2s"`
	AirtelMoneySuccessRate float64       `envconfig:"SOKOLETU_GATEWAY_AIRTELMONEY_SUCCESS_RATE" default:"0.90"`
	AirtelMoneyLatency     time.Duration `envconfig:"SOKOLETU_GATEWAY_AIRTELMONEY_LATENCY" default:"2s"`
	SelcomSuccessRate      float64       `envconfig:"SOKOLETU_GATEWAY_SELCOM_SUCCESS_RATE" default:"0.75"`
	SelcomLatency          time.Duration `envconfig:"SOKOLETU_GATEWAY_SELCOM_LATENCY" default:"3s"`
	CardSuccessRate        float64       `envconfig:"SOKOLETU_GATEWAY_CARD_SUCCESS_RATE" default:"0.95"`
	CardLatency            time.Duration `envconfig:"SOKOLETU_GATEWAY_CARD_LATENCY" default:"1s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOKOLETU_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := []struct {
		envVar string
		value  string
	}{
		{"SOKOLETU_DB_HOST", db.Host},
		{"SOKOLETU_DB_USER", db.User},
		{"SOKOLETU_DB_NAME", db.Name},
	}
	for _, req := range required {
		if req.value == "" {
			missing = append(missing, req.envVar)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either SOKOLETU_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
