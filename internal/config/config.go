package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Stats    StatsConfig
	Scorer   ScorerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines bearer-token validation parameters. Tokens are issued by
// the external identity provider; this service only verifies them.
type AuthConfig struct {
	JWTSecret string
}

// StatsConfig tunes the statistics cache.
type StatsConfig struct {
	MaxAgeMinutes          int
	RegenTimeoutSeconds    int
	RefreshIntervalMinutes int
}

// ScorerConfig points at the external compatibility scorer.
type ScorerConfig struct {
	BaseURL        string
	TimeoutSeconds int
	DefaultScore   int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "skill-match-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Stats: StatsConfig{
			MaxAgeMinutes:          getEnvAsInt("STATS_MAX_AGE_MINUTES", 60),
			RegenTimeoutSeconds:    getEnvAsInt("STATS_REGEN_TIMEOUT_SECONDS", 10),
			RefreshIntervalMinutes: getEnvAsInt("STATS_REFRESH_INTERVAL_MINUTES", 0),
		},
		Scorer: ScorerConfig{
			BaseURL:        os.Getenv("SCORER_BASE_URL"),
			TimeoutSeconds: getEnvAsInt("SCORER_TIMEOUT_SECONDS", 5),
			DefaultScore:   getEnvAsInt("SCORER_DEFAULT_SCORE", 50),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// MaxAge returns the snapshot max age.
func (s StatsConfig) MaxAge() time.Duration {
	if s.MaxAgeMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.MaxAgeMinutes) * time.Minute
}

// RegenTimeout bounds a single snapshot recomputation.
func (s StatsConfig) RegenTimeout() time.Duration {
	if s.RegenTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.RegenTimeoutSeconds) * time.Second
}

// RefreshInterval returns the background refresh cadence; zero disables the
// refresher and leaves regeneration fully lazy.
func (s StatsConfig) RefreshInterval() time.Duration {
	if s.RefreshIntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.RefreshIntervalMinutes) * time.Minute
}

// Timeout bounds one scorer call.
func (s ScorerConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
