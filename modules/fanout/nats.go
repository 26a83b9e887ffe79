package fanout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSTransport relays envelopes over NATS core subjects.
type NATSTransport struct {
	url string
	nc  *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
}

var _ Transport = (*NATSTransport)(nil)

// NewNATSTransport creates a transport for the NATS server at url.
func NewNATSTransport(url string) *NATSTransport {
	return &NATSTransport{url: url}
}

// Name returns the transport name.
func (t *NATSTransport) Name() string {
	return "nats"
}

// Connect dials the server. The first dial must succeed; later drops are
// handled by the client's reconnect loop.
func (t *NATSTransport) Connect(ctx context.Context) error {
	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	nc, err := nats.Connect(t.url,
		nats.Name("presence-router"),
		nats.Timeout(timeout),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", t.url, err)
	}

	t.nc = nc
	return nil
}

// Publish sends data on the subject named topic.
func (t *NATSTransport) Publish(_ context.Context, topic string, data []byte) error {
	if t.nc == nil {
		return ErrTransportClosed
	}
	if err := t.nc.Publish(topic, data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

// Subscribe registers handler on the subject named topic.
func (t *NATSTransport) Subscribe(_ context.Context, topic string, handler func([]byte)) error {
	if t.nc == nil {
		return ErrTransportClosed
	}

	sub, err := t.nc.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", topic, err)
	}
	if err := t.nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return fmt.Errorf("nats subscribe %s: %w", topic, err)
	}

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	t.mu.Unlock()
	return nil
}

// Connected reports whether the client currently holds a server connection.
func (t *NATSTransport) Connected() bool {
	return t.nc != nil && t.nc.IsConnected()
}

// Close unsubscribes and closes the connection.
func (t *NATSTransport) Close() error {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Unsubscribe()
	}
	if t.nc != nil {
		t.nc.Close()
		t.nc = nil
	}
	return nil
}
