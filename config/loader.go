package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := LoadWithDefaults(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a config from environment variables and defaults.
func FromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvInt("PORT", DefaultPort),
			CORSOrigins: getEnv("CORS_ORIGINS", DefaultCORSOrigins),
		},
		Rooms: getEnvList("ROOMS"),
		Fanout: FanoutConfig{
			Driver:    getEnv("FANOUT_DRIVER", DefaultFanoutDriver),
			RedisAddr: getEnv("REDIS_ADDR", DefaultRedisAddr),
			NATSURL:   getEnv("NATS_URL", DefaultNATSURL),
			Topic:     getEnv("FANOUT_TOPIC", DefaultTopic),
		},
	}
	cfg.Fanout.PublishTimeout = getEnvDuration("FANOUT_PUBLISH_TIMEOUT", DefaultPublishTimeout)
	cfg.applyDefaults()
	return cfg
}

// Resolve loads the file named by CONFIG_PATH, or falls back to FromEnv.
func Resolve() (*Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return LoadAndValidate(path)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// getEnv returns environment variable or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvList splits a comma-separated environment variable.
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
