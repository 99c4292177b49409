package endpoint

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("endpoint")

var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrClosed         = errors.New("endpoint closed")
)

const (
	// Time allowed to write a message to the peer.
	defaultWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	defaultPongWait = 60 * time.Second

	// Maximum message size allowed from peer.
	defaultMaxMessageSize = 4096

	defaultSendBuffer = 32
)

// Config tunes the pumps of an endpoint.
type Config struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration // must be less than PongWait
	MaxMessageSize int64
}

// DefaultConfig returns the settings used in production.
func DefaultConfig() Config {
	return Config{
		SendBuffer:     defaultSendBuffer,
		WriteWait:      defaultWriteWait,
		PongWait:       defaultPongWait,
		PingPeriod:     (defaultPongWait * 9) / 10,
		MaxMessageSize: defaultMaxMessageSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.PingPeriod <= 0 || c.PingPeriod >= c.PongWait {
		c.PingPeriod = (c.PongWait * 9) / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// Sink receives what an endpoint reads from its peer.
type Sink interface {
	Inbound(ctx context.Context, sessionID, connID string, payload []byte) error
	Disconnect(ctx context.Context, sessionID, connID string)
}

// Endpoint relays frames between one WebSocket connection and the hub.
type Endpoint struct {
	ID        string
	SessionID string

	conn *websocket.Conn
	cfg  Config

	mu     sync.Mutex
	send   chan []byte
	closed bool

	done chan struct{}
}

// New wraps conn. Start WritePump before pushing anything.
func New(id, sessionID string, conn *websocket.Conn, cfg Config) *Endpoint {
	cfg = cfg.withDefaults()
	return &Endpoint{
		ID:        id,
		SessionID: sessionID,
		conn:      conn,
		cfg:       cfg,
		send:      make(chan []byte, cfg.SendBuffer),
		done:      make(chan struct{}),
	}
}

// Push queues data for the peer without blocking.
func (e *Endpoint) Push(data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	select {
	case e.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops accepting pushes. WritePump flushes what is queued, then sends a close frame.
func (e *Endpoint) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.closed {
		e.closed = true
		close(e.send)
	}
}

// Done is closed when WritePump has returned and the connection is closed.
func (e *Endpoint) Done() <-chan struct{} {
	return e.done
}

// WritePump pumps queued packets to the WebSocket connection, one text frame each.
func (e *Endpoint) WritePump() {
	ticker := time.NewTicker(e.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		e.conn.Close()
		close(e.done)
	}()

	for {
		select {
		case message, ok := <-e.send:
			e.conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteWait))
			if !ok {
				e.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := e.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("Failed to write to connection", "session.id", e.SessionID, "connection.id", e.ID, "error", err)
				return
			}

		case <-ticker.C:
			e.conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteWait))
			if err := e.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump pumps text frames from the connection to sink until the connection fails,
// then reports the disconnect exactly once and closes the endpoint.
func (e *Endpoint) ReadPump(ctx context.Context, sink Sink) {
	ctx, span := tracer.Start(ctx, "endpoint.ReadPump", trace.WithAttributes(
		attribute.String("session.id", e.SessionID),
		attribute.String("connection.id", e.ID),
	))
	defer span.End()

	defer func() {
		sink.Disconnect(ctx, e.SessionID, e.ID)
		e.Close()
		slog.InfoContext(ctx, "Connection closed", "session.id", e.SessionID, "connection.id", e.ID)
	}()

	e.conn.SetReadLimit(e.cfg.MaxMessageSize)
	e.conn.SetReadDeadline(time.Now().Add(e.cfg.PongWait))
	e.conn.SetPongHandler(func(string) error {
		e.conn.SetReadDeadline(time.Now().Add(e.cfg.PongWait))
		return nil
	})

	for {
		mt, msg, err := e.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				slog.WarnContext(ctx, "Connection error", "session.id", e.SessionID, "connection.id", e.ID, "error", err)
				span.RecordError(err)
				span.SetStatus(codes.Error, "Connection error")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		if err := sink.Inbound(ctx, e.SessionID, e.ID, msg); err != nil {
			slog.WarnContext(ctx, "Hub refused payload", "session.id", e.SessionID, "connection.id", e.ID, "error", err)
			return
		}
	}
}
