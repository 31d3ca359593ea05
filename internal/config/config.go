package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// PortMapping is one row of the static port identity table.
type PortMapping struct {
	Number     int    `yaml:"number"`
	DeviceID   string `yaml:"deviceId" env:"-"`
	DevicePort int    `yaml:"devicePort" env:"-"`
	Label      string `yaml:"label" env:"-"`
}

// Config defines the agent configuration.
type Config struct {
	Station struct {
		ID    string        `yaml:"id" env:"PORTWATCH_STATION_ID"`
		Ports []PortMapping `yaml:"ports" env:"-"`
	} `yaml:"station"`
	Backend struct {
		BaseURL        string `yaml:"baseUrl" env:"PORTWATCH_BACKEND_URL"`
		Token          string `yaml:"token" env:"PORTWATCH_BACKEND_TOKEN"`
		TimeoutSeconds int    `yaml:"timeoutSeconds" env:"PORTWATCH_BACKEND_TIMEOUT"`
	} `yaml:"backend"`
	Poll struct {
		StatusMs      int `yaml:"statusMs" env:"PORTWATCH_POLL_STATUS_MS"`
		ConsumptionMs int `yaml:"consumptionMs" env:"PORTWATCH_POLL_CONSUMPTION_MS"`
		SessionsMs    int `yaml:"sessionsMs" env:"PORTWATCH_POLL_SESSIONS_MS"`
	} `yaml:"poll"`
	HTTP struct {
		Port string `yaml:"port" env:"PORTWATCH_HTTP_PORT"`
	} `yaml:"http"`
	Redis struct {
		Addr       string `yaml:"addr" env:"PORTWATCH_REDIS_ADDR"`
		Password   string `yaml:"password" env:"PORTWATCH_REDIS_PASSWORD"`
		TTLSeconds int    `yaml:"ttlSeconds" env:"PORTWATCH_REDIS_TTL"`
	} `yaml:"redis"`
	LogLevel string `yaml:"logLevel" env:"LOG_LEVEL"`
}

// Load reads the YAML config (path in CONFIG_FILE), applies env overrides,
// and validates required fields.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.Poll.StatusMs = 5000
	cfg.Poll.ConsumptionMs = 10000
	cfg.Poll.SessionsMs = 10000
	cfg.Backend.TimeoutSeconds = 5
	cfg.HTTP.Port = "8090"
	cfg.Redis.TTLSeconds = 30

	if err := loadInto(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Station.ID) == "" {
		return nil, errors.New("config: station id required")
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		return nil, errors.New("config: backend baseUrl required")
	}
	if len(cfg.Station.Ports) == 0 {
		return nil, errors.New("config: station ports required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style listen address.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8090"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// BackendTimeout returns the backend HTTP timeout.
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

// StatusInterval returns the status poll cadence.
func (c *Config) StatusInterval() time.Duration {
	return millis(c.Poll.StatusMs, 5000)
}

// ConsumptionInterval returns the consumption poll cadence.
func (c *Config) ConsumptionInterval() time.Duration {
	return millis(c.Poll.ConsumptionMs, 10000)
}

// SessionsInterval returns the active-session poll cadence.
func (c *Config) SessionsInterval() time.Duration {
	return millis(c.Poll.SessionsMs, 10000)
}

// SnapshotTTL returns how long mirrored snapshots live in redis.
func (c *Config) SnapshotTTL() time.Duration {
	if c.Redis.TTLSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

func millis(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}
