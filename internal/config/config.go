package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/CameronXie/order-service/internal/infoprovider"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AuthModeRSA        = "rsa"
	AuthModeHMAC       = "hmac"
	AuthModeUnverified = "unverified"

	EngineNone   = "none"
	EngineCasbin = "casbin"
	EngineOPA    = "opa"
)

// Config is the service configuration, read from the environment. Every field
// carries its full variable name.
type Config struct {
	AppName               string   `envconfig:"APP_NAME" default:"Orders Service"`
	AppVersion            string   `envconfig:"APP_VERSION" default:"1.0.0"`
	Port                  int      `envconfig:"PORT" default:"8001"`
	LoggerName            string   `envconfig:"LOGGER_NAME" default:"orders-service"`
	LoggerPath            string   `envconfig:"LOGGER_PATH" default:"logs/app.log"`
	LogLevel              string   `envconfig:"LOG_LEVEL" default:"info"`
	MetricsUpdateInterval int      `envconfig:"METRICS_UPDATE_INTERVAL" default:"30"`
	CORSAllowedOrigins    []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	DatabaseURL          string        `envconfig:"DATABASE_URL" required:"true"`
	DatabaseDriver       string        `envconfig:"DATABASE_DRIVER" default:"postgres"`
	DatabaseQueryTimeout time.Duration `envconfig:"DATABASE_QUERY_TIMEOUT" default:"5s"`

	UsersServiceURL     string        `envconfig:"USERS_SERVICE_URL" required:"true"`
	UsersServiceTimeout time.Duration `envconfig:"USERS_SERVICE_TIMEOUT" default:"10s"`

	AuthMode            string        `envconfig:"AUTH_MODE" default:"rsa"`
	AuthPublicKeyBase64 string        `envconfig:"AUTH_PUBLIC_KEY_BASE64"`
	AuthPublicKeyFile   string        `envconfig:"AUTH_PUBLIC_KEY_FILE"`
	AuthHMACSecret      string        `envconfig:"AUTH_HMAC_SECRET"`
	AuthIssuer          string        `envconfig:"AUTH_ISSUER"`
	AuthAudience        string        `envconfig:"AUTH_AUDIENCE"`
	AuthClockSkew       time.Duration `envconfig:"AUTH_CLOCK_SKEW" default:"5m"`

	// A zero TTL disables the identity cache, an empty address keeps it in memory.
	IdentityCacheTTL       time.Duration `envconfig:"IDENTITY_CACHE_TTL" default:"0s"`
	IdentityCacheRedisAddr string        `envconfig:"IDENTITY_CACHE_REDIS_ADDR"`

	AuthzEngine               string        `envconfig:"AUTHZ_ENGINE" default:"none"`
	AuthzCasbinModelFile      string        `envconfig:"AUTHZ_CASBIN_MODEL_FILE"`
	AuthzCasbinPolicyFile     string        `envconfig:"AUTHZ_CASBIN_POLICY_FILE"`
	AuthzCasbinMySQLHost      string        `envconfig:"AUTHZ_CASBIN_MYSQL_HOST"`
	AuthzCasbinMySQLPort      int           `envconfig:"AUTHZ_CASBIN_MYSQL_PORT" default:"3306"`
	AuthzCasbinMySQLUser      string        `envconfig:"AUTHZ_CASBIN_MYSQL_USER"`
	AuthzCasbinMySQLPassword  string        `envconfig:"AUTHZ_CASBIN_MYSQL_PASSWORD"`
	AuthzCasbinMySQLDatabase  string        `envconfig:"AUTHZ_CASBIN_MYSQL_DATABASE" default:"casbin"`
	AuthzOPAPolicyFile        string        `envconfig:"AUTHZ_OPA_POLICY_FILE"`
	AuthzRoles                string        `envconfig:"AUTHZ_ROLES"`
	AuthzPolicyReloadInterval time.Duration `envconfig:"AUTHZ_POLICY_RELOAD_INTERVAL" default:"0s"`
}

// Load reads the optional env files (".env" when none are given) and then the
// process environment. Values already present in the environment win.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	if c.MetricsUpdateInterval <= 0 {
		errs = append(errs, fmt.Errorf("METRICS_UPDATE_INTERVAL must be positive, got %d", c.MetricsUpdateInterval))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be one of postgres, sqlite, got %q", c.DatabaseDriver))
	}

	switch c.AuthMode {
	case AuthModeRSA:
		if c.AuthPublicKeyBase64 == "" && c.AuthPublicKeyFile == "" {
			errs = append(errs, errors.New("AUTH_PUBLIC_KEY_BASE64 or AUTH_PUBLIC_KEY_FILE is required when AUTH_MODE is rsa"))
		}
	case AuthModeHMAC:
		if c.AuthHMACSecret == "" {
			errs = append(errs, errors.New("AUTH_HMAC_SECRET is required when AUTH_MODE is hmac"))
		}
	case AuthModeUnverified:
	default:
		errs = append(errs, fmt.Errorf("AUTH_MODE must be one of rsa, hmac, unverified, got %q", c.AuthMode))
	}

	if c.IdentityCacheTTL < 0 {
		errs = append(errs, errors.New("IDENTITY_CACHE_TTL must not be negative"))
	}

	switch c.AuthzEngine {
	case EngineNone, EngineCasbin:
	case EngineOPA:
		if _, err := infoprovider.ParseRoles(c.AuthzRoles); err != nil {
			errs = append(errs, fmt.Errorf("AUTHZ_ROLES: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTHZ_ENGINE must be one of none, casbin, opa, got %q", c.AuthzEngine))
	}

	if c.AuthzPolicyReloadInterval < 0 {
		errs = append(errs, errors.New("AUTHZ_POLICY_RELOAD_INTERVAL must not be negative"))
	}

	return errors.Join(errs...)
}

// Level returns the slog level named by LOG_LEVEL.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("LOG_LEVEL %q is not a valid level", c.LogLevel)
	}

	return level, nil
}

// SampleInterval is METRICS_UPDATE_INTERVAL as a duration.
func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.MetricsUpdateInterval) * time.Second
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
