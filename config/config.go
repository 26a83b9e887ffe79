package config

import "time"

// Config is the root configuration of a presence router instance.
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Rooms   []string     `yaml:"rooms"`
	Palette []string     `yaml:"palette"` // empty selects the built-in palette
	Limits  LimitsConfig `yaml:"limits"`
	Fanout  FanoutConfig `yaml:"fanout"`
}

// ServerConfig holds HTTP and WebSocket server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	CORSOrigins     string        `yaml:"cors_origins"`
	SendQueueSize   int           `yaml:"send_queue_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LimitsConfig holds validation and throttling limits.
type LimitsConfig struct {
	MaxUsernameLength int           `yaml:"max_username_length"`
	MaxMessageLength  int           `yaml:"max_message_length"`
	MaxDocumentLength int           `yaml:"max_document_length"`
	EventsPerSecond   float64       `yaml:"events_per_second"`
	EditorPerSecond   float64       `yaml:"editor_per_second"`
	CursorPerSecond   float64       `yaml:"cursor_per_second"`
	AbuseThreshold    int           `yaml:"abuse_threshold"`
	AbuseWindow       time.Duration `yaml:"abuse_window"`
}

// FanoutConfig holds cross-instance bus settings.
type FanoutConfig struct {
	Driver         string        `yaml:"driver"` // redis, nats or none
	RedisAddr      string        `yaml:"redis_addr"`
	NATSURL        string        `yaml:"nats_url"`
	Topic          string        `yaml:"topic"`
	QueueSize      int           `yaml:"queue_size"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}
