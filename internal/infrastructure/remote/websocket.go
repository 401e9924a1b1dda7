// Package remote implements the duplex channel to a terminal server.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/ports"
)

// ParseErrorMessage replaces inbound payloads that are not valid JSON.
const ParseErrorMessage = "Failed to parse server response"

const (
	eventBuffer  = 64
	writeTimeout = 10 * time.Second
)

// WebSocketChannel is a ports.RemoteChannel over a single WebSocket
// connection. One reader goroutine per connection publishes inbound messages
// and status changes on Events.
type WebSocketChannel struct {
	url    string
	dialer *websocket.Dialer
	logger ports.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	status domain.ConnectionStatus
	closed bool

	events chan domain.ChannelEvent
	done   chan struct{}
	wg     sync.WaitGroup
}

var _ ports.RemoteChannel = (*WebSocketChannel)(nil)

// NewWebSocketChannel creates a disconnected channel for url.
func NewWebSocketChannel(url string, handshakeTimeout time.Duration, logger ports.Logger) *WebSocketChannel {
	if handshakeTimeout <= 0 {
		handshakeTimeout = domain.DefaultHandshakeTimeout
	}
	return &WebSocketChannel{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		logger: logger,
		status: domain.StatusDisconnected,
		events: make(chan domain.ChannelEvent, eventBuffer),
		done:   make(chan struct{}),
	}
}

// URL returns the terminal server address.
func (c *WebSocketChannel) URL() string {
	return c.url
}

// Events implements ports.RemoteChannel. The channel is closed by Close.
func (c *WebSocketChannel) Events() <-chan domain.ChannelEvent {
	return c.events
}

// Status implements ports.RemoteChannel.
func (c *WebSocketChannel) Status() domain.ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect implements ports.RemoteChannel. It is a no-op while connected.
func (c *WebSocketChannel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("connect %s: %w", c.url, domain.ErrChannelUnavailable)
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	c.status = domain.StatusConnecting
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	c.emit(domain.ChannelEvent{Status: domain.StatusConnecting})

	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setStatus(domain.StatusFailed)
		c.debug("terminal server dial failed", map[string]interface{}{"url": c.url, "error": err.Error()})
		c.emit(domain.ChannelEvent{Status: domain.StatusFailed, Err: err})
		return fmt.Errorf("failed to connect to %s: %w", c.url, errors.Join(domain.ErrChannelUnavailable, err))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("connect %s: %w", c.url, domain.ErrChannelUnavailable)
	}
	c.conn = conn
	c.status = domain.StatusConnected
	c.wg.Add(1)
	c.mu.Unlock()

	c.emit(domain.ChannelEvent{Status: domain.StatusConnected})
	go c.readLoop(conn)
	return nil
}

// Send implements ports.RemoteChannel. Writes are serialized by the mutex.
func (c *WebSocketChannel) Send(ctx context.Context, msg domain.OutboundMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("send: %w", domain.ErrChannelUnavailable)
	}
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}
	return nil
}

// Close implements ports.RemoteChannel. It waits for the reader goroutine and
// then closes the events channel.
func (c *WebSocketChannel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.status = domain.StatusDisconnected
	c.mu.Unlock()

	close(c.done)
	var err error
	if conn != nil {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = conn.Close()
	}
	c.wg.Wait()
	close(c.events)
	return err
}

func (c *WebSocketChannel) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			closing := c.closed
			if c.conn == conn {
				c.conn = nil
				c.status = domain.StatusDisconnected
			}
			c.mu.Unlock()
			if closing {
				return
			}
			event := domain.ChannelEvent{Status: domain.StatusDisconnected}
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				event.Err = err
			}
			c.debug("terminal server connection lost", map[string]interface{}{"error": err.Error()})
			c.emit(event)
			return
		}
		c.emit(domain.ChannelEvent{Message: Decode(data)})
	}
}

// Decode parses either inbound envelope. Undecodable payloads become an error
// message.
func Decode(data []byte) domain.InboundMessage {
	var msg domain.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.InboundMessage{Error: ParseErrorMessage}
	}
	return msg
}

func (c *WebSocketChannel) emit(event domain.ChannelEvent) {
	select {
	case c.events <- event:
	case <-c.done:
	}
}

func (c *WebSocketChannel) setStatus(status domain.ConnectionStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.status = status
	}
}

func (c *WebSocketChannel) debug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}
