package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.SendQueueSize < 1 {
		return errors.New("server.send_queue_size must be >= 1")
	}

	if len(c.Rooms) == 0 {
		return errors.New("rooms must list at least one room")
	}
	seen := make(map[string]bool, len(c.Rooms))
	for _, room := range c.Rooms {
		if room == "" {
			return errors.New("rooms must not contain empty names")
		}
		if seen[room] {
			return fmt.Errorf("rooms contains %q more than once", room)
		}
		seen[room] = true
	}

	if c.Limits.MaxUsernameLength < 1 {
		return errors.New("limits.max_username_length must be >= 1")
	}
	if c.Limits.MaxMessageLength < 1 {
		return errors.New("limits.max_message_length must be >= 1")
	}
	if c.Limits.MaxDocumentLength < 1 {
		return errors.New("limits.max_document_length must be >= 1")
	}
	if c.Limits.EventsPerSecond <= 0 || c.Limits.EditorPerSecond <= 0 || c.Limits.CursorPerSecond <= 0 {
		return errors.New("limits per-second rates must be > 0")
	}
	if c.Limits.AbuseThreshold < 1 {
		return errors.New("limits.abuse_threshold must be >= 1")
	}

	switch c.Fanout.Driver {
	case "redis":
		if c.Fanout.RedisAddr == "" {
			return errors.New("fanout.redis_addr is required for the redis driver")
		}
	case "nats":
		if c.Fanout.NATSURL == "" {
			return errors.New("fanout.nats_url is required for the nats driver")
		}
	case "none":
	default:
		return fmt.Errorf("fanout.driver must be redis, nats or none, got %q", c.Fanout.Driver)
	}
	if c.Fanout.Topic == "" {
		return errors.New("fanout.topic is required")
	}
	if c.Fanout.QueueSize < 1 {
		return errors.New("fanout.queue_size must be >= 1")
	}

	return nil
}
