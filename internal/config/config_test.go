package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("database host = %q, want localhost", cfg.Database.Host)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Rules.Temperature.MaxCelsius != 35.0 {
		t.Errorf("temperature max = %v, want 35.0", cfg.Rules.Temperature.MaxCelsius)
	}
	if cfg.Rules.Classifier.StallWindow != 72*time.Hour {
		t.Errorf("stall window = %v, want 72h", cfg.Rules.Classifier.StallWindow)
	}
	if cfg.Rules.Classifier.WindowSize != 10 {
		t.Errorf("window size = %d, want 10", cfg.Rules.Classifier.WindowSize)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RULES_SUGAR_TOLERANCE", "0.35")
	t.Setenv("RULES_STALL_WINDOW", "96h")
	t.Setenv("RULES_MIN_SAMPLES", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database host = %q", cfg.Database.Host)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Rules.Trend.SugarTolerance != 0.35 {
		t.Errorf("sugar tolerance = %v, want 0.35", cfg.Rules.Trend.SugarTolerance)
	}
	if cfg.Rules.Classifier.StallWindow != 96*time.Hour {
		t.Errorf("stall window = %v, want 96h", cfg.Rules.Classifier.StallWindow)
	}
	if cfg.Rules.Classifier.MinSamples != 3 {
		t.Errorf("min samples = %d, want 3", cfg.Rules.Classifier.MinSamples)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
server:
  port: 8443
rules:
  temperature:
    max_celsius: 32.0
  classifier:
    target_sugar_brix: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FERMENT_CONFIG_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 8443 {
		t.Errorf("server port = %d, want 8443 from file", cfg.Server.Port)
	}
	if cfg.Rules.Temperature.MaxCelsius != 32.0 {
		t.Errorf("temperature max = %v, want 32.0 from file", cfg.Rules.Temperature.MaxCelsius)
	}
	if cfg.Rules.Classifier.TargetSugarBrix != 1.0 {
		t.Errorf("target sugar = %v, want 1.0 from file", cfg.Rules.Classifier.TargetSugarBrix)
	}
	// Untouched values keep their defaults.
	if cfg.Database.Port != 5432 {
		t.Errorf("database port = %d, want default 5432", cfg.Database.Port)
	}
}

// Environment variables win over the file.
func TestLoadConfigEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8443\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FERMENT_CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("server port = %d, want env override 7000", cfg.Server.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("FERMENT_CONFIG_FILE", "/nonexistent/config.yaml")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("missing config file should be an error, not silently ignored")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "missing database name",
			mutate:  func(c *Config) { c.Database.Database = "" },
			wantErr: "database.database",
		},
		{
			name: "inverted temperature bounds",
			mutate: func(c *Config) {
				c.Rules.Temperature.MinCelsius = 40.0
			},
			wantErr: "min_celsius",
		},
		{
			name:    "negative tolerance",
			mutate:  func(c *Config) { c.Rules.Trend.SugarTolerance = -0.1 },
			wantErr: "tolerances",
		},
		{
			name:    "zero slow rate",
			mutate:  func(c *Config) { c.Rules.Classifier.SlowRatePerDay = 0 },
			wantErr: "slow_rate_per_day",
		},
		{
			name:    "zero stall window",
			mutate:  func(c *Config) { c.Rules.Classifier.StallWindow = 0 },
			wantErr: "stall_window",
		},
		{
			name:    "window size below minimum",
			mutate:  func(c *Config) { c.Rules.Classifier.WindowSize = 1 },
			wantErr: "window_size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
