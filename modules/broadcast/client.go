package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	domain "github.com/example/presence-router-demo/domain/presence"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
)

// DefaultSendQueueSize is the per-client outbound buffer.
const DefaultSendQueueSize = 256

// Client errors
var (
	ErrClientClosed  = errors.New("client closed")
	ErrSendQueueFull = errors.New("client send queue full")
)

// FrameWriter is the write side of a WebSocket connection.
type FrameWriter interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Frame is the wire format of every outbound event.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client is one WebSocket connection. Send only queues; WritePump owns the
// socket's write side.
type Client struct {
	id     domain.ConnectionID
	conn   FrameWriter
	send   chan []byte
	done   chan struct{}
	pumped chan struct{}
	once   sync.Once
	logger types.Logger

	dropped atomic.Uint64
}

// NewClient creates a client with a send queue of queueSize frames.
func NewClient(id domain.ConnectionID, conn FrameWriter, queueSize int, logger types.Logger) *Client {
	if queueSize <= 0 {
		queueSize = DefaultSendQueueSize
	}
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, queueSize),
		done:   make(chan struct{}),
		pumped: make(chan struct{}),
		logger: logger,
	}
}

// ID returns the connection id.
func (c *Client) ID() domain.ConnectionID {
	return c.id
}

// Send encodes the event and queues it without blocking.
func (c *Client) Send(event string, payload any) error {
	data, err := json.Marshal(Frame{Type: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode %s frame: %w", event, err)
	}

	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		c.dropped.Add(1)
		return fmt.Errorf("%w: %s", ErrSendQueueFull, c.id)
	}
}

// Dropped returns how many frames were rejected because the queue was full.
func (c *Client) Dropped() uint64 {
	return c.dropped.Load()
}

// WritePump writes queued frames until the client is closed or a write
// fails. Frames queued before Close are still written. The connection is
// closed on return.
func (c *Client) WritePump() {
	defer close(c.pumped)
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			c.drain()
			return
		}
	}
}

func (c *Client) drain() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(data []byte) error {
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("Failed to write frame", "clientID", c.id, "error", err)
		return err
	}
	return nil
}

// Close stops the write pump. It is safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until WritePump has returned.
func (c *Client) Wait() {
	<-c.pumped
}
