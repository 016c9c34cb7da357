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
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Realtime   RealtimeConfig
	Escalation EscalationConfig
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
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// BridgeChannel is the pub/sub channel used to relay broadcasts across
	// hub instances. Empty disables the bridge.
	BridgeChannel string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token verification parameters. This service only
// verifies tokens; issuance belongs to the identity collaborator.
type AuthConfig struct {
	JWTSecret string
}

// RealtimeConfig tunes the connection hub.
type RealtimeConfig struct {
	// RateLimitPerMinute caps inbound events per connection per wall-clock
	// minute.
	RateLimitPerMinute int
	// SendBufferSize is the per-connection outbound channel depth. Frames
	// beyond a full buffer are dropped for that recipient only.
	SendBufferSize int
}

// EscalationConfig tunes the ticket escalation sweep.
type EscalationConfig struct {
	TickInterval    time.Duration
	LedgerRetention time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	tickInterval, err := time.ParseDuration(getEnv("HUB_TICK_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid HUB_TICK_INTERVAL: %w", err)
	}
	retention, err := time.ParseDuration(getEnv("HUB_LEDGER_RETENTION", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid HUB_LEDGER_RETENTION: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "crm-realtime-hub"),
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
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:      os.Getenv("REDIS_PASSWORD"),
			DB:            redisDB,
			BridgeChannel: getEnv("HUB_BRIDGE_CHANNEL", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", "dev-secret"),
		},
		Realtime: RealtimeConfig{
			RateLimitPerMinute: getEnvAsInt("HUB_RATE_LIMIT_PER_MINUTE", 60),
			SendBufferSize:     getEnvAsInt("HUB_SEND_BUFFER_SIZE", 64),
		},
		Escalation: EscalationConfig{
			TickInterval:    tickInterval,
			LedgerRetention: retention,
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
