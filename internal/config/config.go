// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines the structure for all application configuration.
type Config struct {
	LogLevel      string              `yaml:"log_level"`
	Server        ServerConfig        `yaml:"server"`
	Bundle        BundleConfig        `yaml:"bundle"`
	Training      TrainingConfig      `yaml:"training"`
	Database      DatabaseConfig      `yaml:"database"`
	PredictionLog PredictionLogConfig `yaml:"prediction_log"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr             string   `yaml:"addr"`
	ValidateRequests FlexBool `yaml:"validate_requests"`
}

// BundleConfig locates the persisted model bundle.
type BundleConfig struct {
	Path string `yaml:"path"`
	// Cache loads the bundle once instead of re-reading it on every request.
	Cache FlexBool `yaml:"cache"`
}

// TrainingConfig holds the training workflow settings.
type TrainingConfig struct {
	InputPath    string        `yaml:"input_path"`
	OutputPath   string        `yaml:"output_path"`
	YearsForTest int           `yaml:"years_for_test"`
	CVSplits     int           `yaml:"cv_splits"`
	Huber        HuberConfig   `yaml:"huber"`
	Imputer      ImputerConfig `yaml:"imputer"`
}

// HuberConfig holds the robust regressor hyperparameters.
type HuberConfig struct {
	Alpha   float64 `yaml:"alpha"`
	Epsilon float64 `yaml:"epsilon"`
	MaxIter int     `yaml:"max_iter"`
}

// ImputerConfig holds the iterative imputer settings.
type ImputerConfig struct {
	MaxIter     int     `yaml:"max_iter"`
	Tol         float64 `yaml:"tol"`
	RandomState int64   `yaml:"random_state"`
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// PredictionLogConfig controls the prediction audit log writer.
type PredictionLogConfig struct {
	Enabled              FlexBool `yaml:"enabled"`
	BatchSize            int      `yaml:"batch_size"`
	WriteIntervalSeconds int      `yaml:"write_interval_seconds"`
}

// URL returns the pgx connection string.
func (d DatabaseConfig) URL() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslMode)
}

// Configured reports whether enough settings are present to connect.
func (d DatabaseConfig) Configured() bool {
	return d.Host != "" && d.Name != ""
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Addr: ":9696",
		},
		Bundle: BundleConfig{
			Path: "app/life_expectancy_prediction_models.bin",
		},
		Training: TrainingConfig{
			InputPath:    "data/raw/life_expectancy_data.csv",
			OutputPath:   "app/life_expectancy_prediction_models.bin",
			YearsForTest: 3,
			CVSplits:     4,
			Huber: HuberConfig{
				Alpha:   0.001,
				Epsilon: 1.35,
				MaxIter: 1000,
			},
			Imputer: ImputerConfig{
				MaxIter:     10,
				Tol:         1e-3,
				RandomState: 4,
			},
		},
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		PredictionLog: PredictionLogConfig{
			BatchSize:            100,
			WriteIntervalSeconds: 5,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file path
// and environment variables. Values absent from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", configPath, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault behaves like LoadConfig but falls back to Default when
// the file does not exist. An empty path also selects the defaults.
func LoadConfigOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		cfg := Default()
		return cfg, applyEnv(cfg)
	}
	cfg, err := LoadConfig(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = Default()
		return cfg, applyEnv(cfg)
	}
	return cfg, err
}

// applyEnv loads sensitive data and overrides from environment variables.
func applyEnv(cfg *Config) error {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("BUNDLE_PATH"); path != "" {
		cfg.Bundle.Path = path
	}
	if dbHost := os.Getenv("DB_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DB_PORT"); dbPort != "" {
		port, err := strconv.Atoi(dbPort)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", dbPort, err)
		}
		cfg.Database.Port = port
	}
	if dbUser := os.Getenv("DB_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword := os.Getenv("DB_PASSWORD"); dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if dbName := os.Getenv("DB_NAME"); dbName != "" {
		cfg.Database.Name = dbName
	}
	return nil
}
