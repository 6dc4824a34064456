// Package config holds the runtime configuration for the survey server and bot.
// Values come from defaults, then an optional YAML file, then the environment.
// Command flags are applied on top by the cmd packages.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Response store backends
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config is the root configuration
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Store    string         `yaml:"store"` // memory | mongo | postgres
	Survey   SurveyConfig   `yaml:"survey"`
	Auth     AuthConfig     `yaml:"auth"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type HTTPConfig struct {
	Port        string `yaml:"port"`
	CORSOrigins string `yaml:"cors_origins"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RedisConfig. An empty Addr disables the snapshot and stats caches.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// SurveyConfig controls the questionnaire and controller timing
type SurveyConfig struct {
	QuestionsFile     string `yaml:"questions_file"`
	Questionnaire     string `yaml:"questionnaire"` // name of the stored questionnaire in Mongo
	ResetDelayMS      int    `yaml:"reset_delay_ms"`
	ToastAutoCloseMS  int    `yaml:"toast_auto_close_ms"`
	ToastPosition     string `yaml:"toast_position"`
	ConfirmTimeoutSec int    `yaml:"confirm_timeout_sec"`
	SessionIdleTTLMin int    `yaml:"session_idle_ttl_min"`
}

type AuthConfig struct {
	JWTSecret    string `yaml:"jwt_secret"`
	HostUsername string `yaml:"host_username"`
	HostPassword string `yaml:"host_password"`
}

type TelegramConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json | console
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:        "8080",
			CORSOrigins: "*",
		},
		Mongo: MongoConfig{
			Database: "surveydb",
		},
		Store: StoreMemory,
		Survey: SurveyConfig{
			Questionnaire:     "default",
			ResetDelayMS:      2000,
			ToastAutoCloseMS:  1000,
			ToastPosition:     "top-center",
			ConfirmTimeoutSec: 60,
			SessionIdleTTLMin: 30,
		},
		Auth: AuthConfig{
			JWTSecret:    "super-secret-key-change-in-production",
			HostUsername: "admin",
			HostPassword: "password123",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads path (if non-empty and present) over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.HTTP.Port, "PORT")
	setString(&c.HTTP.CORSOrigins, "CORS_ALLOWED_ORIGINS")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DB")
	setString(&c.Redis.Addr, "REDIS_URI")
	setString(&c.Postgres.DSN, "POSTGRES_DSN")
	setString(&c.Store, "RESPONSE_STORE")
	setString(&c.Survey.QuestionsFile, "QUESTIONS_FILE")
	setString(&c.Survey.Questionnaire, "QUESTIONNAIRE")
	setInt(&c.Survey.ResetDelayMS, "RESET_DELAY_MS")
	setInt(&c.Survey.ToastAutoCloseMS, "TOAST_AUTO_CLOSE_MS")
	setString(&c.Survey.ToastPosition, "TOAST_POSITION")
	setInt(&c.Survey.ConfirmTimeoutSec, "CONFIRM_TIMEOUT_SEC")
	setInt(&c.Survey.SessionIdleTTLMin, "SESSION_IDLE_TTL_MIN")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.HostUsername, "HOST_USERNAME")
	setString(&c.Auth.HostPassword, "HOST_PASSWORD")
	setString(&c.Telegram.Token, "TELEGRAM_TOKEN")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	// Remove redis:// prefix if present
	c.Redis.Addr = strings.TrimPrefix(c.Redis.Addr, "redis://")
}

// Validate checks values that would otherwise fail late
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreMongo:
		if c.Mongo.URI == "" {
			return fmt.Errorf("store %q requires mongo.uri", c.Store)
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("store %q requires postgres.dsn", c.Store)
		}
	default:
		return fmt.Errorf("unknown response store %q", c.Store)
	}
	if c.Survey.ResetDelayMS <= 0 || c.Survey.ToastAutoCloseMS <= 0 {
		return fmt.Errorf("survey delays must be positive")
	}
	if c.Survey.ConfirmTimeoutSec <= 0 || c.Survey.SessionIdleTTLMin <= 0 {
		return fmt.Errorf("survey timeouts must be positive")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	return nil
}

func (s SurveyConfig) ResetDelay() time.Duration {
	return time.Duration(s.ResetDelayMS) * time.Millisecond
}

func (s SurveyConfig) ToastAutoClose() time.Duration {
	return time.Duration(s.ToastAutoCloseMS) * time.Millisecond
}

func (s SurveyConfig) ConfirmTimeout() time.Duration {
	return time.Duration(s.ConfirmTimeoutSec) * time.Second
}

func (s SurveyConfig) SessionIdleTTL() time.Duration {
	return time.Duration(s.SessionIdleTTLMin) * time.Minute
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
