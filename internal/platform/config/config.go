package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"

	pstrings "faraid/pkg/platform/strings"
)

// History backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Addr      string          `env:"FARAID_ADDR" envDefault:":8080"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Engine    EngineConfig    `envPrefix:"ENGINE_"`
	History   HistoryConfig   `envPrefix:"HISTORY_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	Postgres  PostgresConfig  `envPrefix:"POSTGRES_"`
	Kafka     KafkaConfig     `envPrefix:"KAFKA_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// EngineConfig tunes the distribution engine.
type EngineConfig struct {
	// CacheSize bounds the result cache; 0 disables it.
	CacheSize      int    `env:"CACHE_SIZE" envDefault:"100"`
	SpouseConflict string `env:"SPOUSE_CONFLICT" envDefault:"abort"`
}

type HistoryConfig struct {
	Backend   string `env:"BACKEND" envDefault:"memory"`
	ListLimit int    `env:"LIST_LIMIT" envDefault:"50"`
}

// RedisConfig configures the redis history backend.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	KeyPrefix    string        `env:"KEY_PREFIX" envDefault:"faraid:"`
}

// PostgresConfig configures the postgres history backend.
type PostgresConfig struct {
	DSN             string        `env:"DSN"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"30m"`
}

// KafkaConfig configures calculation events. No brokers means no events.
type KafkaConfig struct {
	Brokers           []string `env:"BROKERS" envSeparator:","`
	Topic             string   `env:"TOPIC" envDefault:"faraid.calculations"`
	ClientID          string   `env:"CLIENT_ID" envDefault:"faraid"`
	Partitions        int32    `env:"PARTITIONS" envDefault:"3"`
	ReplicationFactor int16    `env:"REPLICATION_FACTOR" envDefault:"1"`
	// Publishing pauses for BreakerCooldown after BreakerThreshold
	// consecutive failures.
	BreakerThreshold int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"30s"`
}

// RateLimitConfig bounds calculation traffic per caller. A comparison costs
// one unit per school. Requests 0 disables limiting.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS" envDefault:"120"`
	Window   time.Duration `env:"WINDOW" envDefault:"1m"`
	Backend  string        `env:"BACKEND" envDefault:"memory"`
}

// AuthConfig configures bearer tokens for history endpoints.
type AuthConfig struct {
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	Issuer        string        `env:"ISSUER" envDefault:"faraid"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Kafka.Brokers = pstrings.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("LOG_LEVEL: unknown level %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LOG_FORMAT: must be json or text, got %q", c.Log.Format)
	}
	if c.Engine.CacheSize < 0 {
		return fmt.Errorf("ENGINE_CACHE_SIZE: must not be negative")
	}
	if c.Engine.SpouseConflict != "abort" && c.Engine.SpouseConflict != "correct" {
		return fmt.Errorf("ENGINE_SPOUSE_CONFLICT: must be abort or correct, got %q", c.Engine.SpouseConflict)
	}
	switch c.History.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required for the postgres history backend")
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the redis history backend")
		}
	default:
		return fmt.Errorf("HISTORY_BACKEND: unknown backend %q", c.History.Backend)
	}
	if c.History.ListLimit < 1 {
		return fmt.Errorf("HISTORY_LIST_LIMIT: must be at least 1")
	}
	if c.RateLimit.Requests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS: must not be negative")
	}
	if c.RateLimit.Requests > 0 {
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW: must be positive")
		}
		switch c.RateLimit.Backend {
		case BackendMemory:
		case BackendRedis:
			if c.Redis.URL == "" {
				return fmt.Errorf("REDIS_URL is required for the redis rate limit backend")
			}
		default:
			return fmt.Errorf("RATE_LIMIT_BACKEND: must be memory or redis, got %q", c.RateLimit.Backend)
		}
	}
	if c.Kafka.BreakerThreshold < 1 {
		return fmt.Errorf("KAFKA_BREAKER_THRESHOLD: must be at least 1")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}
