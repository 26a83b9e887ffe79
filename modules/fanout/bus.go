package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// DefaultTopic is the single channel all instances share.
const DefaultTopic = "chat_messages"

// degradeAfter consecutive publish failures mark the bus degraded.
const degradeAfter = 3

// connectionReporter is implemented by transports that know whether their
// broker connection is still up.
type connectionReporter interface {
	Connected() bool
}

// Config holds bus configuration.
type Config struct {
	Topic          string
	QueueSize      int
	PublishTimeout time.Duration
}

// DefaultConfig returns the default bus configuration.
func DefaultConfig() Config {
	return Config{
		Topic:          DefaultTopic,
		QueueSize:      1024,
		PublishTimeout: 2 * time.Second,
	}
}

// Handler receives envelopes that originated on another instance.
type Handler func(Envelope)

// Stats tracks bus statistics.
type Stats struct {
	Published    uint64 `json:"published"`
	Received     uint64 `json:"received"`
	DiscardedOwn uint64 `json:"discarded_own"`
	Dropped      uint64 `json:"dropped"`
	Failed       uint64 `json:"failed"`
	Invalid      uint64 `json:"invalid"`
}

// Bus relays router events to other instances through a Transport. Publish
// never blocks; envelopes are queued and sent by a background goroutine.
// Without a working transport the bus runs local-only and Publish is a no-op.
type Bus struct {
	cfg        Config
	instanceID string
	logger     types.Logger

	seq        atomic.Uint64
	active     atomic.Bool
	failStreak atomic.Uint64
	stats      Stats

	mu        sync.RWMutex
	handler   Handler
	transport Transport

	queue  chan []byte
	cancel context.CancelFunc
	done   chan struct{}
}

// NewBus creates a bus with a fresh origin instance id.
func NewBus(cfg Config, logger types.Logger) *Bus {
	defaults := DefaultConfig()
	if cfg.Topic == "" {
		cfg.Topic = defaults.Topic
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}

	return &Bus{
		cfg:        cfg,
		instanceID: uuid.New().String(),
		logger:     logger,
		queue:      make(chan []byte, cfg.QueueSize),
	}
}

// InstanceID returns the origin id stamped on every published envelope.
func (b *Bus) InstanceID() string {
	return b.instanceID
}

// Topic returns the shared topic name.
func (b *Bus) Topic() string {
	return b.cfg.Topic
}

// SetHandler sets the receiver for envelopes from other instances.
func (b *Bus) SetHandler(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Start connects t and subscribes to the topic. A nil transport keeps the
// bus local-only. When the transport cannot be used the bus also stays
// local-only and the returned error wraps domain.ErrChannelUnavailable.
func (b *Bus) Start(ctx context.Context, t Transport) error {
	if t == nil {
		b.logger.Info("Fanout disabled, delivering locally only")
		return nil
	}
	if b.active.Load() {
		return fmt.Errorf("fanout bus already started")
	}

	if err := t.Connect(ctx); err != nil {
		return b.degrade(t, err)
	}
	if err := t.Subscribe(ctx, b.cfg.Topic, b.receive); err != nil {
		_ = t.Close()
		return b.degrade(t, err)
	}

	b.mu.Lock()
	b.transport = t
	b.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.active.Store(true)
	go b.run(runCtx, t)

	b.logger.Info("Fanout bus started",
		"transport", t.Name(),
		"topic", b.cfg.Topic,
		"instanceID", b.instanceID)
	return nil
}

func (b *Bus) degrade(t Transport, err error) error {
	b.logger.Warn("Fanout channel unavailable, delivering locally only",
		"transport", t.Name(),
		"error", err)
	return fmt.Errorf("%w: %w", domain.ErrChannelUnavailable, err)
}

// Stop stops the publisher goroutine, flushes what is queued and closes the transport.
func (b *Bus) Stop(_ context.Context) error {
	if !b.active.Swap(false) {
		return nil
	}
	b.cancel()
	<-b.done

	b.mu.Lock()
	t := b.transport
	b.transport = nil
	b.mu.Unlock()

	if err := t.Close(); err != nil {
		return fmt.Errorf("close %s transport: %w", t.Name(), err)
	}
	b.logger.Info("Fanout bus stopped", "published", atomic.LoadUint64(&b.stats.Published))
	return nil
}

// Connected reports whether envelopes are being relayed to other instances.
func (b *Bus) Connected() bool {
	return b.active.Load()
}

// Degraded reports whether a started bus has lost its broker: either the
// transport says so or the last publishes all failed. Publishing continues
// so the bus recovers on its own.
func (b *Bus) Degraded() bool {
	if !b.active.Load() {
		return false
	}
	if b.failStreak.Load() >= degradeAfter {
		return true
	}

	b.mu.RLock()
	t := b.transport
	b.mu.RUnlock()
	if r, ok := t.(connectionReporter); ok {
		return !r.Connected()
	}
	return false
}

// Mode returns the transport name, or "local-only".
func (b *Bus) Mode() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.transport == nil {
		return "local-only"
	}
	return b.transport.Name()
}

// Publish stamps and queues an envelope for the other instances.
func (b *Bus) Publish(kind EnvelopeType, room string, payload any) {
	if !b.active.Load() {
		return
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		atomic.AddUint64(&b.stats.Failed, 1)
		b.logger.Error("Failed to encode fanout payload", "type", kind, "error", err)
		return
	}

	data, err := json.Marshal(Envelope{
		Type:             kind,
		Room:             room,
		Payload:          raw,
		OriginInstanceID: b.instanceID,
		SequenceNumber:   b.seq.Add(1),
	})
	if err != nil {
		atomic.AddUint64(&b.stats.Failed, 1)
		b.logger.Error("Failed to encode fanout envelope", "type", kind, "error", err)
		return
	}

	select {
	case b.queue <- data:
	default:
		atomic.AddUint64(&b.stats.Dropped, 1)
		b.logger.Warn("Fanout queue full, dropping envelope", "type", kind, "room", room)
	}
}

func (b *Bus) run(ctx context.Context, t Transport) {
	defer close(b.done)
	for {
		select {
		case <-ctx.Done():
			b.flush(t)
			return
		case data := <-b.queue:
			b.send(t, data)
		}
	}
}

func (b *Bus) flush(t Transport) {
	for {
		select {
		case data := <-b.queue:
			b.send(t, data)
		default:
			return
		}
	}
}

func (b *Bus) send(t Transport, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.PublishTimeout)
	defer cancel()

	if err := t.Publish(ctx, b.cfg.Topic, data); err != nil {
		atomic.AddUint64(&b.stats.Failed, 1)
		b.logger.Warn("Fanout publish failed", "transport", t.Name(), "error", err)
		if b.failStreak.Add(1) == degradeAfter {
			b.logger.Error("Fanout channel degraded, other instances are not receiving events",
				"transport", t.Name(),
				"consecutive_failures", degradeAfter)
		}
		return
	}
	atomic.AddUint64(&b.stats.Published, 1)
	if b.failStreak.Swap(0) >= degradeAfter {
		b.logger.Info("Fanout channel recovered", "transport", t.Name())
	}
}

func (b *Bus) receive(data []byte) {
	env, err := decodeEnvelope(data)
	if err != nil {
		atomic.AddUint64(&b.stats.Invalid, 1)
		b.logger.Warn("Discarding malformed fanout message", "error", err)
		return
	}

	if env.OriginInstanceID == b.instanceID {
		atomic.AddUint64(&b.stats.DiscardedOwn, 1)
		return
	}
	atomic.AddUint64(&b.stats.Received, 1)

	b.mu.RLock()
	handler := b.handler
	b.mu.RUnlock()
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Fanout handler panic", "type", env.Type, "panic", r)
		}
	}()
	handler(env)
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Published:    atomic.LoadUint64(&b.stats.Published),
		Received:     atomic.LoadUint64(&b.stats.Received),
		DiscardedOwn: atomic.LoadUint64(&b.stats.DiscardedOwn),
		Dropped:      atomic.LoadUint64(&b.stats.Dropped),
		Failed:       atomic.LoadUint64(&b.stats.Failed),
		Invalid:      atomic.LoadUint64(&b.stats.Invalid),
	}
}
