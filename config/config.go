// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Model    ModelConfig    `yaml:"model"`
	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	GzipMinSize    int           `yaml:"gzip_min_size"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Console    bool   `yaml:"console"`
}

// ModelConfig says where the artifacts live and how predictions are served.
type ModelConfig struct {
	Dir         string   `yaml:"dir"`
	ModelFile   string   `yaml:"model_file"`
	ScalerFile  string   `yaml:"scaler_file"`
	EncoderFile string   `yaml:"encoder_file"`
	Source      string   `yaml:"source"`
	S3          S3Config `yaml:"s3"`
	CacheSize   int      `yaml:"cache_size"`
	Watch       bool     `yaml:"watch"`
}

type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

type DatabaseConfig struct {
	// Path of the SQLite audit database. Empty disables the audit log.
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           5000,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			AllowedOrigins: []string{"*"},
			MaxBodyBytes:   1 << 20,
			GzipMinSize:    1024,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Console:    true,
		},
		Model: ModelConfig{
			Dir:         DefaultModelDir(),
			ModelFile:   "model.pkl",
			ScalerFile:  "scaler.pkl",
			EncoderFile: "encoder.pkl",
			Source:      "local",
			CacheSize:   1024,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// DefaultModelDir is the "model" directory next to the running executable,
// falling back to the working directory when the executable can't be found.
func DefaultModelDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "model"
	}
	return filepath.Join(filepath.Dir(exe), "model")
}

// Load reads path on top of Default. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return fmt.Errorf("http.max_body_bytes must be positive")
	}
	if c.HTTP.GzipMinSize < 0 {
		return fmt.Errorf("http.gzip_min_size must not be negative")
	}
	if c.Model.CacheSize < 0 {
		return fmt.Errorf("model.cache_size must not be negative")
	}
	if c.Model.ModelFile == "" || c.Model.ScalerFile == "" || c.Model.EncoderFile == "" {
		return fmt.Errorf("model.model_file, model.scaler_file and model.encoder_file are required")
	}
	switch strings.ToLower(c.Model.Source) {
	case "", "local":
		if c.Model.Dir == "" {
			return fmt.Errorf("model.dir is required for local source")
		}
	case "s3":
		if c.Model.S3.Bucket == "" {
			return fmt.Errorf("model.s3.bucket is required for s3 source")
		}
	default:
		return fmt.Errorf("model.source must be local or s3")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}
	return nil
}
