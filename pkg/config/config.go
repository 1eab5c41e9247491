package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "GROCERDASH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Config aggregates every tunable the binaries need.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Dispatch DispatchConfig
	CORS     CORSConfig
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	// envconfig's required only fires on absent variables; an exported empty
	// value would otherwise slip through to db.New.
	if strings.TrimSpace(cfg.DB.DSN) == "" {
		return nil, fmt.Errorf("GROCERDASH_DB_DSN must not be empty")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, fmt.Errorf("GROCERDASH_JWT_SECRET must not be empty")
	}
	return &cfg, nil
}

type AppConfig struct {
	Env      string `envconfig:"GROCERDASH_APP_ENV" default:"dev"`
	Port     string `envconfig:"GROCERDASH_APP_PORT" default:"3000"`
	LogLevel string `envconfig:"GROCERDASH_LOG_LEVEL" default:"info"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN             string        `envconfig:"GROCERDASH_DB_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"GROCERDASH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GROCERDASH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GROCERDASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GROCERDASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GROCERDASH_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"GROCERDASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GROCERDASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GROCERDASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GROCERDASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GROCERDASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret string `envconfig:"GROCERDASH_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"GROCERDASH_JWT_ISSUER" default:"grocerdash"`
}

// DispatchConfig tunes assignment housekeeping.
type DispatchConfig struct {
	// Orders stuck in assigned longer than this revert to available.
	StaleAssignedAfter time.Duration `envconfig:"GROCERDASH_DISPATCH_STALE_ASSIGNED_AFTER" default:"5m"`
	SweepInterval      time.Duration `envconfig:"GROCERDASH_DISPATCH_SWEEP_INTERVAL" default:"1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GROCERDASH_CORS_ALLOWED_ORIGINS" default:"*"`
}
