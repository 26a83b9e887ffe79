package fanout

import (
	"context"
	"errors"
	"sync"
)

// Transport is a publish/subscribe channel shared by every instance.
type Transport interface {
	// Name identifies the transport in logs and health output.
	Name() string
	// Connect establishes the connection to the broker.
	Connect(ctx context.Context) error
	// Publish sends data to topic without waiting for any consumer.
	Publish(ctx context.Context, topic string, data []byte) error
	// Subscribe delivers every message published on topic to handler,
	// including the ones this transport published itself.
	Subscribe(ctx context.Context, topic string, handler func([]byte)) error
	// Close releases the subscription and the connection.
	Close() error
}

// ErrTransportClosed is returned when a closed transport is used.
var ErrTransportClosed = errors.New("transport closed")

// MemoryBroker connects in-process transports to each other. It stands in
// for Redis or NATS when several buses run inside one process.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string][]*memorySubscription
}

type memorySubscription struct {
	owner   *MemoryTransport
	handler func([]byte)
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{
		subscribers: make(map[string][]*memorySubscription),
	}
}

// Transport returns a new transport attached to the broker.
func (b *MemoryBroker) Transport() *MemoryTransport {
	return &MemoryTransport{broker: b}
}

func (b *MemoryBroker) publish(topic string, data []byte) {
	b.mu.RLock()
	subs := make([]*memorySubscription, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])
	b.mu.RUnlock()

	for _, sub := range subs {
		msg := make([]byte, len(data))
		copy(msg, data)
		sub.handler(msg)
	}
}

func (b *MemoryBroker) subscribe(topic string, sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[topic] = append(b.subscribers[topic], sub)
}

func (b *MemoryBroker) unsubscribe(owner *MemoryTransport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for topic, subs := range b.subscribers {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.owner != owner {
				kept = append(kept, sub)
			}
		}
		b.subscribers[topic] = kept
	}
}

// MemoryTransport is a Transport backed by a MemoryBroker.
// Publish delivers synchronously to every subscriber.
type MemoryTransport struct {
	broker *MemoryBroker
	mu     sync.Mutex
	closed bool
}

var _ Transport = (*MemoryTransport)(nil)

// Name returns the transport name.
func (t *MemoryTransport) Name() string {
	return "memory"
}

// Connect is a no-op for the in-memory transport.
func (t *MemoryTransport) Connect(_ context.Context) error {
	if t.isClosed() {
		return ErrTransportClosed
	}
	return nil
}

// Publish hands data to every subscriber of topic.
func (t *MemoryTransport) Publish(_ context.Context, topic string, data []byte) error {
	if t.isClosed() {
		return ErrTransportClosed
	}
	t.broker.publish(topic, data)
	return nil
}

// Subscribe registers handler for topic.
func (t *MemoryTransport) Subscribe(_ context.Context, topic string, handler func([]byte)) error {
	if t.isClosed() {
		return ErrTransportClosed
	}
	t.broker.subscribe(topic, &memorySubscription{owner: t, handler: handler})
	return nil
}

// Close detaches the transport from the broker.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.broker.unsubscribe(t)
	return nil
}

func (t *MemoryTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
