package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Webhook WebhookConfig `yaml:"webhook"`
	Session SessionConfig `yaml:"session"`
	Probe   ProbeConfig   `yaml:"probe"`
	CORS    CORSConfig    `yaml:"cors"`
	Rules   RulesConfig   `yaml:"rules"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"base_path"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type RedisConfig struct {
	// URL takes precedence over the individual fields when set.
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// WebhookConfig points at the workflow engine.
type WebhookConfig struct {
	URL      string        `yaml:"url"`
	TestURL  string        `yaml:"test_url"`
	TestMode bool          `yaml:"test_mode"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ActiveURL returns the test workflow's URL in test mode.
func (w WebhookConfig) ActiveURL() string {
	if w.TestMode && w.TestURL != "" {
		return w.TestURL
	}
	return w.URL
}

type SessionConfig struct {
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	CacheEnabled       bool          `yaml:"cache_enabled"`
	ChatEmailFallback  string        `yaml:"chat_email_fallback"`
	FormEmailFallback  string        `yaml:"form_email_fallback"`
	ContextValueMaxLen int           `yaml:"context_value_max_len"`
}

// ProbeConfig schedules the workflow engine reachability check.
type ProbeConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins"`
}

// RulesConfig optionally replaces the built-in rule table.
type RulesConfig struct {
	TablePath string `yaml:"table_path"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     8010,
			BasePath: "/api/intake",
			Env:      "dev",
			LogLevel: "debug",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			DB:   0,
		},
		Webhook: WebhookConfig{
			URL:     "http://localhost:5678/webhook/change-chat",
			TestURL: "http://localhost:5678/webhook/change-chat-test",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			CacheTTL:           2 * time.Minute,
			CacheEnabled:       true,
			ChatEmailFallback:  "anonymous@chat.local",
			FormEmailFallback:  "noreply@example.com",
			ContextValueMaxLen: 100,
		},
		Probe: ProbeConfig{
			Enabled:  true,
			Schedule: "@every 1m",
		},
		CORS: CORSConfig{
			AllowedOrigins: "*",
		},
	}

	// Load from yaml file if exists
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if basePath := os.Getenv("SERVER_BASE_PATH"); basePath != "" {
		cfg.Server.BasePath = basePath
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Server.Env = env
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.Redis.URL = redisURL
	}
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		cfg.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		if p, err := strconv.Atoi(redisPort); err == nil {
			cfg.Redis.Port = p
		}
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.DB = db
		}
	}

	// Workflow engine
	if url := os.Getenv("N8N_WEBHOOK_URL"); url != "" {
		cfg.Webhook.URL = url
	}
	if url := os.Getenv("N8N_TEST_WEBHOOK_URL"); url != "" {
		cfg.Webhook.TestURL = url
	}
	if testMode := os.Getenv("N8N_TEST_MODE"); testMode != "" {
		cfg.Webhook.TestMode = strings.EqualFold(testMode, "true")
	}
	if timeout := os.Getenv("N8N_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Webhook.Timeout = d
		}
	}

	if ttl := os.Getenv("SESSION_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Session.CacheTTL = d
		}
	}
	if enabled := os.Getenv("SESSION_CACHE_ENABLED"); enabled != "" {
		cfg.Session.CacheEnabled = strings.EqualFold(enabled, "true")
	}
	if schedule := os.Getenv("PROBE_SCHEDULE"); schedule != "" {
		cfg.Probe.Schedule = schedule
	}
	if enabled := os.Getenv("PROBE_ENABLED"); enabled != "" {
		cfg.Probe.Enabled = strings.EqualFold(enabled, "true")
	}
	if tablePath := os.Getenv("RULES_TABLE_PATH"); tablePath != "" {
		cfg.Rules.TablePath = tablePath
	}

	// CORS configuration
	if corsOrigins := os.Getenv("CORS_ORIGINS"); corsOrigins != "" {
		cfg.CORS.AllowedOrigins = corsOrigins
	}

	return cfg, nil
}
