// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	DedupTTL time.Duration `yaml:"dedup_ttl"` // webhook dedup window
}

type AcquirerConfig struct {
	BaseURL       string        `yaml:"base_url"`
	ShopID        string        `yaml:"shop_id"`
	SecretKey     string        `yaml:"secret_key"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Timeout       time.Duration `yaml:"timeout"` // bound on every gateway call
}

type APIConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
}

type EventsConfig struct {
	Brokers      []string      `yaml:"brokers"` // empty disables publishing
	Topic        string        `yaml:"topic"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Acquirer   AcquirerConfig   `yaml:"acquirer"`
	API        APIConfig        `yaml:"api"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Events     EventsConfig     `yaml:"events"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.DedupTTL <= 0 {
		cfg.Redis.DedupTTL = 24 * time.Hour
	}
	if cfg.Acquirer.Timeout <= 0 {
		cfg.Acquirer.Timeout = 10 * time.Second
	}
	if cfg.API.TokenTTL <= 0 {
		cfg.API.TokenTTL = 30 * time.Minute
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}
	if cfg.Reconciler.BatchSize <= 0 {
		cfg.Reconciler.BatchSize = 200
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = "payment-status-events"
	}
	if cfg.Events.PollInterval <= 0 {
		cfg.Events.PollInterval = 5 * time.Second
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Acquirer.BaseURL == "" {
		return nil, errors.New("acquirer.base_url is required")
	}
	if cfg.Acquirer.ShopID == "" || cfg.Acquirer.SecretKey == "" {
		return nil, errors.New("acquirer.shop_id and acquirer.secret_key are required")
	}
	if cfg.Acquirer.WebhookSecret == "" {
		return nil, errors.New("acquirer.webhook_secret is required")
	}
	if cfg.API.JWTSecret == "" {
		return nil, errors.New("api.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
