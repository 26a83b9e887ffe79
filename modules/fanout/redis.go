package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTransport relays envelopes over Redis pub/sub.
type RedisTransport struct {
	addr   string
	client *redis.Client

	mu      sync.Mutex
	pubsubs []*redis.PubSub
	wg      sync.WaitGroup
}

var _ Transport = (*RedisTransport)(nil)

// NewRedisTransport creates a transport for the Redis server at addr.
func NewRedisTransport(addr string) *RedisTransport {
	return &RedisTransport{addr: addr}
}

// Name returns the transport name.
func (t *RedisTransport) Name() string {
	return "redis"
}

// Connect creates the client and verifies the server answers.
func (t *RedisTransport) Connect(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         t.addr,
		PoolSize:     10,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", t.addr, err)
	}

	t.client = client
	return nil
}

// Publish sends data on the Redis channel named topic.
func (t *RedisTransport) Publish(ctx context.Context, topic string, data []byte) error {
	if t.client == nil {
		return ErrTransportClosed
	}
	if err := t.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Subscribe listens on the Redis channel named topic until Close.
func (t *RedisTransport) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	if t.client == nil {
		return ErrTransportClosed
	}

	pubsub := t.client.Subscribe(ctx, topic)
	// Wait for the subscription confirmation so no message published after
	// Subscribe returns is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	t.mu.Lock()
	t.pubsubs = append(t.pubsubs, pubsub)
	t.mu.Unlock()

	ch := pubsub.Channel()
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for msg := range ch {
			handler([]byte(msg.Payload))
		}
	}()
	return nil
}

// Close unsubscribes and closes the client.
func (t *RedisTransport) Close() error {
	t.mu.Lock()
	pubsubs := t.pubsubs
	t.pubsubs = nil
	t.mu.Unlock()

	for _, ps := range pubsubs {
		_ = ps.Close()
	}
	t.wg.Wait()

	if t.client == nil {
		return nil
	}
	if err := t.client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	t.client = nil
	return nil
}
