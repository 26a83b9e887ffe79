package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPort            = 3000
	DefaultCORSOrigins     = "*"
	DefaultSendQueueSize   = 256
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMaxUsernameLength = 20
	DefaultMaxMessageLength  = 1000
	DefaultMaxDocumentLength = 50000
	DefaultEventsPerSecond   = 10
	DefaultEditorPerSecond   = 5
	DefaultCursorPerSecond   = 20
	DefaultAbuseThreshold    = 50
	DefaultAbuseWindow       = 10 * time.Second

	DefaultFanoutDriver   = "redis"
	DefaultRedisAddr      = "localhost:6379"
	DefaultNATSURL        = "nats://localhost:4222"
	DefaultTopic          = "chat_messages"
	DefaultQueueSize      = 1024
	DefaultPublishTimeout = 2 * time.Second
)

// DefaultRooms is the room allow-list used when none is configured.
var DefaultRooms = []string{"general", "tech"}

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.CORSOrigins == "" {
		c.Server.CORSOrigins = DefaultCORSOrigins
	}
	if c.Server.SendQueueSize == 0 {
		c.Server.SendQueueSize = DefaultSendQueueSize
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if len(c.Rooms) == 0 {
		c.Rooms = append([]string(nil), DefaultRooms...)
	}

	// Limits defaults
	if c.Limits.MaxUsernameLength == 0 {
		c.Limits.MaxUsernameLength = DefaultMaxUsernameLength
	}
	if c.Limits.MaxMessageLength == 0 {
		c.Limits.MaxMessageLength = DefaultMaxMessageLength
	}
	if c.Limits.MaxDocumentLength == 0 {
		c.Limits.MaxDocumentLength = DefaultMaxDocumentLength
	}
	if c.Limits.EventsPerSecond == 0 {
		c.Limits.EventsPerSecond = DefaultEventsPerSecond
	}
	if c.Limits.EditorPerSecond == 0 {
		c.Limits.EditorPerSecond = DefaultEditorPerSecond
	}
	if c.Limits.CursorPerSecond == 0 {
		c.Limits.CursorPerSecond = DefaultCursorPerSecond
	}
	if c.Limits.AbuseThreshold == 0 {
		c.Limits.AbuseThreshold = DefaultAbuseThreshold
	}
	if c.Limits.AbuseWindow == 0 {
		c.Limits.AbuseWindow = DefaultAbuseWindow
	}

	// Fanout defaults
	if c.Fanout.Driver == "" {
		c.Fanout.Driver = DefaultFanoutDriver
	}
	if c.Fanout.RedisAddr == "" {
		c.Fanout.RedisAddr = DefaultRedisAddr
	}
	if c.Fanout.NATSURL == "" {
		c.Fanout.NATSURL = DefaultNATSURL
	}
	if c.Fanout.Topic == "" {
		c.Fanout.Topic = DefaultTopic
	}
	if c.Fanout.QueueSize == 0 {
		c.Fanout.QueueSize = DefaultQueueSize
	}
	if c.Fanout.PublishTimeout == 0 {
		c.Fanout.PublishTimeout = DefaultPublishTimeout
	}
}
