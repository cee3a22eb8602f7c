package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	AI           AIConfig
	Queue        QueueConfig
	SLA          SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	TicketNumberPrefix    string
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

// RedisConfig holds Redis connection values. The job queue and the sweep lock
// share the same instance.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Format is "json" (default) or "console" for local development.
	Format string
}

// AuthConfig defines bearer token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// NotificationConfig configures delivery of email/sms/push notifications.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// AIConfig configures the AI gateway client.
type AIConfig struct {
	BaseURL        string
	APIKey         string
	AuthScheme     string // "bearer" or "api_key"
	Model          string
	TimeoutSeconds int
	RatePerSecond  float64
	Burst          int
}

// QueueConfig holds per-queue worker pool tuning.
type QueueConfig struct {
	AIConcurrency           int
	OCRConcurrency          int
	NotificationConcurrency int
	MaxRetry                int
	BackoffBase             time.Duration
	BackoffMax              time.Duration
	TaskTimeout             time.Duration
}

// SLAConfig controls the SLA sweeper.
type SLAConfig struct {
	Enabled       bool
	SweepInterval time.Duration
	BatchSize     int
	LockTTL       time.Duration
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	ratePerSecond, err := strconv.ParseFloat(getEnv("AI_RATE_PER_SECOND", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid AI_RATE_PER_SECOND: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "campus-ticket-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			TicketNumberPrefix:    getEnv("TICKET_NUMBER_PREFIX", "CMP"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@campus.example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		AI: AIConfig{
			BaseURL:        strings.TrimRight(getEnv("AI_BASE_URL", "http://127.0.0.1:8000/api/ai"), "/"),
			APIKey:         os.Getenv("AI_API_KEY"),
			AuthScheme:     strings.ToLower(getEnv("AI_AUTH_SCHEME", "bearer")),
			Model:          getEnv("AI_MODEL", "gemini-1.5-flash"),
			TimeoutSeconds: getEnvAsInt("AI_TIMEOUT_SECONDS", 30),
			RatePerSecond:  ratePerSecond,
			Burst:          getEnvAsInt("AI_BURST", 5),
		},
		Queue: QueueConfig{
			AIConcurrency:           getEnvAsInt("QUEUE_AI_CONCURRENCY", 5),
			OCRConcurrency:          getEnvAsInt("QUEUE_OCR_CONCURRENCY", 3),
			NotificationConcurrency: getEnvAsInt("QUEUE_NOTIFICATION_CONCURRENCY", 10),
			MaxRetry:                getEnvAsInt("QUEUE_MAX_RETRY", 5),
			BackoffBase:             getEnvAsDuration("QUEUE_BACKOFF_BASE", 10*time.Second),
			BackoffMax:              getEnvAsDuration("QUEUE_BACKOFF_MAX", 10*time.Minute),
			TaskTimeout:             getEnvAsDuration("QUEUE_TASK_TIMEOUT", 2*time.Minute),
		},
		SLA: SLAConfig{
			Enabled:       getEnvAsBool("SLA_SWEEP_ENABLED", true),
			SweepInterval: getEnvAsDuration("SLA_SWEEP_INTERVAL", 5*time.Minute),
			BatchSize:     getEnvAsInt("SLA_SWEEP_BATCH_SIZE", 500),
			LockTTL:       getEnvAsDuration("SLA_SWEEP_LOCK_TTL", 4*time.Minute),
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

// Timeout returns the per-call AI gateway timeout.
func (a AIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
