package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	devJWTSecret  = "dev-secret"
	bcryptMinCost = 4
	bcryptMaxCost = 31
)

// Config is the process configuration, grouped by concern.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	ProcessFlow  ProcessFlowConfig
	Worker       WorkerConfig
}

// AppConfig covers the HTTP listener.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values. An empty DSN disables the history archive.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig locates the event fan-out server. With neither URL nor Addr
// set, fan-out is disabled.
type RedisConfig struct {
	URL           string
	Addr          string
	Password      string
	DB            int
	EventsChannel string
}

// LoggerConfig selects zap level and encoding.
type LoggerConfig struct {
	Level   string
	Format  string
	Service string
}

// AuthConfig covers tokens, hashing and login throttling.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	LoginRatePerMinute    int
	LoginBurst            int
}

// NotificationConfig holds the outbound channels for finalization notices.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// ProcessFlowConfig tunes the order pipeline.
type ProcessFlowConfig struct {
	SeedDemoData      bool
	FictitiousOrders  int
	StageTarget       int
	AverageCycleDays  float64
	LeadConversionPct float64
	ActivityLogSize   int
}

// WorkerConfig controls background jobs.
type WorkerConfig struct {
	DemoMoverEnabled         bool
	DemoMoverIntervalSeconds int
	DemoMoverActorEmail      string
	ScannerIntervalSeconds   int
}

// Load reads the environment (and a .env file when present). Malformed
// numeric or boolean values are reported together instead of being replaced
// by defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var e env
	cfg := &Config{
		App: AppConfig{
			Name:                  e.Str("APP_NAME", "processflow"),
			Env:                   e.Str("APP_ENV", "development"),
			Host:                  e.Str("APP_HOST", "0.0.0.0"),
			Port:                  e.Str("APP_PORT", "8080"),
			Version:               e.Str("APP_VERSION", "dev"),
			RequestTimeoutSeconds: e.Int("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            e.Str("POSTGRES_DSN", ""),
			MaxConns:       int32(e.Int("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(e.Int("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  e.Bool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(e.Int("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(e.Int("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			URL:           e.Str("REDIS_URL", ""),
			Addr:          e.Str("REDIS_ADDR", ""),
			Password:      e.Str("REDIS_PASSWORD", ""),
			DB:            e.Int("REDIS_DB", 0),
			EventsChannel: e.Str("REDIS_EVENTS_CHANNEL", "processflow.events"),
		},
		Logger: LoggerConfig{
			Level:   e.Str("LOG_LEVEL", "info"),
			Format:  e.Str("LOG_FORMAT", "json"),
			Service: e.Str("APP_NAME", "processflow"),
		},
		Auth: AuthConfig{
			JWTSecret:             e.Str("AUTH_JWT_SECRET", devJWTSecret),
			AccessTokenTTLMinutes: e.Int("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            e.Int("AUTH_BCRYPT_COST", 12),
			LoginRatePerMinute:    e.Int("AUTH_LOGIN_RATE_PER_MINUTE", 10),
			LoginBurst:            e.Int("AUTH_LOGIN_BURST", 5),
		},
		Notification: NotificationConfig{
			EmailFrom:  e.Str("NOTIFY_EMAIL_FROM", "noreply@processflow.com"),
			WebhookURL: e.Str("NOTIFY_WEBHOOK_URL", ""),
		},
		ProcessFlow: ProcessFlowConfig{
			SeedDemoData:      e.Bool("PROCESSFLOW_SEED_DEMO_DATA", true),
			FictitiousOrders:  e.Int("PROCESSFLOW_FICTITIOUS_ORDERS", 0),
			StageTarget:       e.Int("PROCESSFLOW_STAGE_TARGET", 50),
			AverageCycleDays:  e.Float("PROCESSFLOW_AVERAGE_CYCLE_DAYS", 7),
			LeadConversionPct: e.Float("PROCESSFLOW_LEAD_CONVERSION_PCT", 85),
			ActivityLogSize:   e.Int("PROCESSFLOW_ACTIVITY_LOG_SIZE", 500),
		},
		Worker: WorkerConfig{
			DemoMoverEnabled:         e.Bool("WORKER_DEMO_MOVER_ENABLED", false),
			DemoMoverIntervalSeconds: e.Int("WORKER_DEMO_MOVER_INTERVAL_SECONDS", 3),
			DemoMoverActorEmail:      e.Str("WORKER_DEMO_MOVER_ACTOR_EMAIL", "admin@processflow.com"),
			ScannerIntervalSeconds:   e.Int("WORKER_SCANNER_INTERVAL_SECONDS", 300),
		},
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if strings.EqualFold(c.App.Env, "production") && c.Auth.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set in production"))
	}
	if c.Auth.BcryptCost < bcryptMinCost || c.Auth.BcryptCost > bcryptMaxCost {
		errs = append(errs, fmt.Errorf("AUTH_BCRYPT_COST must be between %d and %d", bcryptMinCost, bcryptMaxCost))
	}
	if c.ProcessFlow.StageTarget <= 0 {
		errs = append(errs, errors.New("PROCESSFLOW_STAGE_TARGET must be positive"))
	}
	return errors.Join(errs...)
}

// Addr returns host:port for the listener.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// RequestTimeout is zero when handlers run unbounded.
func (a AppConfig) RequestTimeout() time.Duration {
	return time.Duration(max(a.RequestTimeoutSeconds, 0)) * time.Second
}

// DemoMoverInterval returns the auto-mover tick.
func (w WorkerConfig) DemoMoverInterval() time.Duration {
	return secondsOr(w.DemoMoverIntervalSeconds, 3)
}

// ScannerInterval returns the stalled/overdue scan tick.
func (w WorkerConfig) ScannerInterval() time.Duration {
	return secondsOr(w.ScannerIntervalSeconds, 300)
}

func secondsOr(val, fallback int) time.Duration {
	if val <= 0 {
		val = fallback
	}
	return time.Duration(val) * time.Second
}

// env reads typed variables and remembers every parse failure.
type env struct {
	errs []error
}

func (e *env) Str(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func (e *env) Int(key string, fallback int) int {
	return lookup(e, key, fallback, strconv.Atoi)
}

func (e *env) Float(key string, fallback float64) float64 {
	return lookup(e, key, fallback, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func (e *env) Bool(key string, fallback bool) bool {
	return lookup(e, key, fallback, strconv.ParseBool)
}

func (e *env) err() error {
	return errors.Join(e.errs...)
}

func lookup[T any](e *env, key string, fallback T, parse func(string) (T, error)) T {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	val, err := parse(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return val
}
