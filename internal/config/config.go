package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration. Values are resolved in
// three layers: built-in defaults, then an optional YAML file named by
// FERMENT_CONFIG_FILE, then individual environment variable overrides.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Rules    RulesConfig    `yaml:"rules"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RulesConfig holds the domain thresholds for validation and classification.
// These are cellar policy, deliberately configuration rather than constants.
type RulesConfig struct {
	Temperature TemperatureRules `yaml:"temperature"`
	Trend       TrendRules       `yaml:"trend"`
	Classifier  ClassifierRules  `yaml:"classifier"`
}

// TemperatureRules bounds plausible cellar temperatures.
type TemperatureRules struct {
	MinCelsius float64 `yaml:"min_celsius"`
	MaxCelsius float64 `yaml:"max_celsius"`
	// WarnBandCelsius is how close to MaxCelsius a reading may get before an
	// accepted sample carries a warning.
	WarnBandCelsius float64 `yaml:"warn_band_celsius"`
}

// TrendRules holds the per-metric noise tolerances for trend checks.
type TrendRules struct {
	SugarTolerance   float64 `yaml:"sugar_tolerance"`
	DensityTolerance float64 `yaml:"density_tolerance"`
	EthanolTolerance float64 `yaml:"ethanol_tolerance"`
}

// ClassifierRules holds the status classification thresholds.
type ClassifierRules struct {
	TargetSugarBrix float64       `yaml:"target_sugar_brix"`
	SlowRatePerDay  float64       `yaml:"slow_rate_per_day"`
	StallTolerance  float64       `yaml:"stall_tolerance"`
	StallWindow     time.Duration `yaml:"stall_window"`
	MinSamples      int           `yaml:"min_samples"`
	WindowSize      int           `yaml:"window_size"`
}

// LoadConfig resolves the configuration from defaults, an optional YAML file
// and environment variables, in that order.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("FERMENT_CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "ferment",
			Password:        "ferment",
			Database:        "fermentation",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnMaxIdleTime: 1 * time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Rules: RulesConfig{
			Temperature: TemperatureRules{
				MinCelsius:      4.0,
				MaxCelsius:      35.0,
				WarnBandCelsius: 2.0,
			},
			Trend: TrendRules{
				SugarTolerance:   0.2,
				DensityTolerance: 0.002,
				EthanolTolerance: 0.1,
			},
			Classifier: ClassifierRules{
				TargetSugarBrix: 0.5,
				SlowRatePerDay:  0.5,
				StallTolerance:  0.2,
				StallWindow:     72 * time.Hour,
				MinSamples:      2,
				WindowSize:      10,
			},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSL_MODE")
	setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")

	setString(&cfg.Logging.Level, "LOG_LEVEL")

	setFloat(&cfg.Rules.Temperature.MinCelsius, "RULES_TEMP_MIN_C")
	setFloat(&cfg.Rules.Temperature.MaxCelsius, "RULES_TEMP_MAX_C")
	setFloat(&cfg.Rules.Temperature.WarnBandCelsius, "RULES_TEMP_WARN_BAND_C")
	setFloat(&cfg.Rules.Trend.SugarTolerance, "RULES_SUGAR_TOLERANCE")
	setFloat(&cfg.Rules.Trend.DensityTolerance, "RULES_DENSITY_TOLERANCE")
	setFloat(&cfg.Rules.Trend.EthanolTolerance, "RULES_ETHANOL_TOLERANCE")
	setFloat(&cfg.Rules.Classifier.TargetSugarBrix, "RULES_TARGET_SUGAR_BRIX")
	setFloat(&cfg.Rules.Classifier.SlowRatePerDay, "RULES_SLOW_RATE_PER_DAY")
	setFloat(&cfg.Rules.Classifier.StallTolerance, "RULES_STALL_TOLERANCE")
	setDuration(&cfg.Rules.Classifier.StallWindow, "RULES_STALL_WINDOW")
	setInt(&cfg.Rules.Classifier.MinSamples, "RULES_MIN_SAMPLES")
	setInt(&cfg.Rules.Classifier.WindowSize, "RULES_WINDOW_SIZE")
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

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

// Validate checks the configuration for values the services cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if c.Rules.Temperature.MinCelsius >= c.Rules.Temperature.MaxCelsius {
		return fmt.Errorf("rules.temperature: min_celsius must be below max_celsius")
	}
	if c.Rules.Trend.SugarTolerance < 0 || c.Rules.Trend.DensityTolerance < 0 || c.Rules.Trend.EthanolTolerance < 0 {
		return fmt.Errorf("rules.trend: tolerances must not be negative")
	}
	if c.Rules.Classifier.SlowRatePerDay <= 0 {
		return fmt.Errorf("rules.classifier: slow_rate_per_day must be positive")
	}
	if c.Rules.Classifier.StallWindow <= 0 {
		return fmt.Errorf("rules.classifier: stall_window must be positive")
	}
	if c.Rules.Classifier.WindowSize < 2 {
		return fmt.Errorf("rules.classifier: window_size must be at least 2")
	}
	return nil
}
