package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr              string        `env:"APP_ADDR" envDefault:":8080"`
	Environment       string        `env:"APP_ENV" envDefault:"development"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	JWTSecret         string        `env:"JWT_SECRET"`
	TokenTTL          time.Duration `env:"TOKEN_TTL" envDefault:"8h"`
	DataEncryptionKey string        `env:"DATA_ENCRYPTION_KEY"`
	SessionDir        string        `env:"SESSION_DIR"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"8h"`
	PolicyFile        string        `env:"POLICY_FILE"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`

	Seed SeedConfig

	RunMigrations      bool     `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed            bool     `env:"RUN_SEED" envDefault:"true"`
	MaxBodyBytes       int64    `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	CORSOrigins        []string `env:"CORS_ORIGINS" envSeparator:","`
	MetricsEnabled     bool     `env:"METRICS_ENABLED" envDefault:"true"`

	KafkaBrokers        []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaUserEventTopic string   `env:"KAFKA_USER_EVENTS_TOPIC" envDefault:"hrmgate.user-events"`
}

// SeedConfig names the demo accounts created at startup. Every account gets
// its own bcrypt hash of DemoPassword.
type SeedConfig struct {
	AdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	HREmail       string `env:"SEED_HR_EMAIL"`
	ManagerEmail  string `env:"SEED_MANAGER_EMAIL"`
	EmployeeEmail string `env:"SEED_EMPLOYEE_EMAIL"`
	DemoPassword  string `env:"DEMO_PASSWORD"`
}

// Load reads an optional .env file at envPath and then the environment.
func Load(envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if c.IsProduction() {
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if c.RunSeed && strings.TrimSpace(c.Seed.DemoPassword) != "" {
			return fmt.Errorf("RUN_SEED with DEMO_PASSWORD is not allowed in production")
		}
	}
	if c.RunSeed && c.Seed.hasEmails() && strings.TrimSpace(c.Seed.DemoPassword) == "" {
		return fmt.Errorf("DEMO_PASSWORD is required when seed emails are set")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaUserEventTopic) == "" {
		return fmt.Errorf("KAFKA_USER_EVENTS_TOPIC must be set when KAFKA_BROKERS is set")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func (s SeedConfig) hasEmails() bool {
	return s.AdminEmail != "" || s.HREmail != "" || s.ManagerEmail != "" || s.EmployeeEmail != ""
}
