package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.RateLimitPerMinute != 60 || cfg.SessionTTL != 8*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SEED_HR_EMAIL=hr@example\nDEMO_PASSWORD=demo123\nKAFKA_BROKERS=k1:9092,k2:9092\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("SEED_HR_EMAIL")
		os.Unsetenv("DEMO_PASSWORD")
		os.Unsetenv("KAFKA_BROKERS")
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Seed.HREmail != "hr@example" || cfg.Seed.DemoPassword != "demo123" {
		t.Fatalf("seed config not loaded: %+v", cfg.Seed)
	}
	if len(cfg.KafkaBrokers) != 2 {
		t.Fatalf("expected two brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"production without database", func(c *Config) { c.Environment = "production" }, true},
		{"seed emails without password", func(c *Config) { c.Seed.AdminEmail = "a@example" }, true},
		{"small body limit", func(c *Config) { c.MaxBodyBytes = 10 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"production ok", func(c *Config) {
			c.Environment = "production"
			c.DatabaseURL = "postgres://localhost/hrmgate"
			c.JWTSecret = "0123456789abcdef0123456789abcdef"
			c.DataEncryptionKey = "key"
			c.RunSeed = false
		}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
