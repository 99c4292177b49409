package hub

import (
	"context"
	"ctchen222/tictactoe-hub/internal/events"
	"ctchen222/tictactoe-hub/internal/player"
	"ctchen222/tictactoe-hub/pkg/proto"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

const (
	msgUserLeft       = "User has left the room"
	msgGameStarted    = "Game has already started"
	msgInvalidRequest = "Invalid request"
)

// emit sends p to a single pusher. Failures are logged and counted only.
func (h *Hub) emit(ctx context.Context, sessionID, connID string, pusher player.Pusher, p proto.Packet) {
	data, err := proto.Encode(p)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode packet", "packet.type", p.PacketType(), "error", err)
		return
	}
	h.push(ctx, sessionID, connID, pusher, data)
}

// broadcast encodes p once and sends it to every connection of s.
func (h *Hub) broadcast(ctx context.Context, s *Session, p proto.Packet) {
	data, err := proto.Encode(p)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to encode packet", "packet.type", p.PacketType(), "error", err)
		return
	}
	s.registry.Each(func(c *player.Connection) {
		h.push(ctx, s.ID, c.ID, c.Pusher, data)
	})
}

func (h *Hub) push(ctx context.Context, sessionID, connID string, pusher player.Pusher, data []byte) {
	if err := pusher.Push(data); err != nil {
		slog.WarnContext(ctx, "Failed to push to connection", "session.id", sessionID, "connection.id", connID, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
		h.metrics.add(ctx, h.metrics.pushesFailed, sessionID)
	}
}

// errorCode maps a code to what is sent on the wire.
func (h *Hub) errorCode(code uint64) uint64 {
	if h.legacyErrorCodes {
		return proto.CodeLegacy
	}
	return code
}

func (h *Hub) sendError(ctx context.Context, sessionID, connID string, pusher player.Pusher, code uint64, msg string) {
	h.emit(ctx, sessionID, connID, pusher, proto.Error{Code: h.errorCode(code), Message: msg})
}

// publish hands a lifecycle event to the publisher.
func (h *Hub) publish(ctx context.Context, typ, sessionID string, payload any) {
	ev, err := events.NewEvent(typ, sessionID, payload)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build event", "event.type", typ, "session.id", sessionID, "error", err)
		return
	}
	h.publisher.Publish(ctx, ev)
}
