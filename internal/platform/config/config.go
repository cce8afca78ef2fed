package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the agent's runtime configuration, read from ROSTERLINK_* env vars.
type Config struct {
	Backend   BackendConfig   `envPrefix:"BACKEND_"`
	Storage   StorageConfig   `envPrefix:"STORAGE_"`
	Cache     CacheConfig     `envPrefix:"CACHE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Reconcile ReconcileConfig `envPrefix:"RECONCILE_"`
	Club      ClubConfig      `envPrefix:"CLUB_"`
	Status    StatusConfig    `envPrefix:"STATUS_"`
	Enroll    EnrollConfig    `envPrefix:"ENROLL_"`
	LogLevel  string          `env:"LOG_LEVEL" envDefault:"info"`
}

// BackendConfig points at the tenant backend.
type BackendConfig struct {
	BaseURL        string        `env:"URL" envDefault:"http://localhost:8080"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
}

// StorageConfig locates the on-device database file.
type StorageConfig struct {
	Path        string        `env:"PATH" envDefault:"rosterlink.db"`
	OpenTimeout time.Duration `env:"OPEN_TIMEOUT" envDefault:"1s"`
}

// CacheConfig sizes the tiered cache.
type CacheConfig struct {
	MemoryBytes   int           `env:"MEMORY_BYTES" envDefault:"4194304"`
	QueueSize     int           `env:"QUEUE_SIZE" envDefault:"256"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"15m"`
	// Tier selects the persistent tier: "bolt" or "redis".
	Tier string `env:"TIER" envDefault:"bolt"`
}

// RedisConfig configures the optional Redis cache tier.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"4"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"1"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"1s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"1s"`
}

// ReconcileConfig throttles reconciliation.
type ReconcileConfig struct {
	MinInterval  time.Duration `env:"MIN_INTERVAL" envDefault:"1h"`
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"15m"`
	HistorySize  int           `env:"HISTORY_SIZE" envDefault:"32"`
}

// ClubConfig controls club metadata caching.
type ClubConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"24h"`
	WaitCeiling     time.Duration `env:"WAIT_CEILING" envDefault:"3s"`
	BreakerFailures int           `env:"BREAKER_FAILURES" envDefault:"3"`
	BreakerCooldown time.Duration `env:"BREAKER_COOLDOWN" envDefault:"1m"`
}

// StatusConfig configures the local status API.
type StatusConfig struct {
	Addr       string `env:"ADDR" envDefault:"127.0.0.1:7878"`
	AdminToken string `env:"ADMIN_TOKEN"`
}

// EnrollConfig controls the enrollment follow-up work.
type EnrollConfig struct {
	PushRetryDelay time.Duration `env:"PUSH_RETRY_DELAY" envDefault:"30s"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "ROSTERLINK_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the agent cannot run with.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.Backend.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("backend url %q is not absolute", c.Backend.BaseURL))
	}
	if c.Backend.RequestTimeout <= 0 {
		errs = append(errs, errors.New("backend request timeout must be positive"))
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage path is required"))
	}
	if c.Cache.MemoryBytes <= 0 {
		errs = append(errs, errors.New("cache memory budget must be positive"))
	}
	if c.Cache.QueueSize <= 0 {
		errs = append(errs, errors.New("cache queue size must be positive"))
	}
	switch c.Cache.Tier {
	case "bolt":
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis url is required for the redis cache tier"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache tier %q", c.Cache.Tier))
	}
	if c.Reconcile.MinInterval < 0 {
		errs = append(errs, errors.New("reconcile min interval must not be negative"))
	}
	if c.Reconcile.TickInterval <= 0 {
		errs = append(errs, errors.New("reconcile tick interval must be positive"))
	}
	if c.Club.TTL <= 0 {
		errs = append(errs, errors.New("club ttl must be positive"))
	}
	if c.Club.WaitCeiling <= 0 {
		errs = append(errs, errors.New("club wait ceiling must be positive"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
