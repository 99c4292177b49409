package hub

import (
	"ctchen222/tictactoe-hub/internal/events"
	"ctchen222/tictactoe-hub/internal/game"
	"ctchen222/tictactoe-hub/internal/hub/types"
	"ctchen222/tictactoe-hub/internal/player"
	"ctchen222/tictactoe-hub/pkg/proto"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (h *Hub) handleConnect(req *types.ConnectRequest) {
	ctx, span := tracer.Start(req.Ctx, "hub.handleConnect", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("connection.id", req.ConnID),
	))
	defer span.End()

	s := h.getOrCreateSession(req.SessionID)

	if s.board.Active {
		slog.InfoContext(ctx, "Rejecting connection, game already started", "session.id", s.ID, "connection.id", req.ConnID)
		h.sendError(ctx, s.ID, req.ConnID, req.Pusher, proto.CodeGameStarted, msgGameStarted)
		h.metrics.add(ctx, h.metrics.connectionsRejected, s.ID)
		h.publish(ctx, events.TypeConnectionRejected, s.ID, events.ConnectionRejectedPayload{
			ConnID: req.ConnID,
			Reason: msgGameStarted,
		})
		span.SetStatus(codes.Error, "Game has already started")
		req.Result <- fmt.Errorf("%w: session %s", ErrGameStarted, s.ID)
		return
	}

	role := game.TurnO
	if s.registry.Len() == 0 {
		role = game.TurnX
	}
	s.registry.Register(player.NewConnection(req.ConnID, role, req.Pusher))
	span.SetAttributes(attribute.String("connection.role", role.String()))
	slog.InfoContext(ctx, "Connection registered", "session.id", s.ID, "connection.id", req.ConnID, "connection.role", role, "session.connections", s.registry.Len())

	h.metrics.add(ctx, h.metrics.connectionsAccepted, s.ID)
	h.metrics.activeDelta(ctx, s.ID, 1)
	h.publish(ctx, events.TypePlayerJoined, s.ID, events.PlayerJoinedPayload{ConnID: req.ConnID, Role: role})

	if s.registry.Len() == 2 {
		s.board.Start()
		turn := s.board.CurrentTurn()
		slog.InfoContext(ctx, "Session started", "session.id", s.ID, "turn", turn)
		h.broadcast(ctx, s, proto.TurnUpdate{Turn: turn})
		h.broadcast(ctx, s, proto.BoardUpdate{Board: s.board})
		h.publish(ctx, events.TypeSessionStarted, s.ID, events.SessionStartedPayload{Turn: turn})
	}

	h.emit(ctx, s.ID, req.ConnID, req.Pusher, proto.RoleUpdate{Role: role})
	req.Result <- nil
}

func (h *Hub) handleDisconnect(req *types.DisconnectRequest) {
	ctx, span := tracer.Start(req.Ctx, "hub.handleDisconnect", trace.WithAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("connection.id", req.ConnID),
	))
	defer span.End()

	s, ok := h.sessions[req.SessionID]
	if !ok {
		slog.DebugContext(ctx, "Disconnect for unknown session", "session.id", req.SessionID, "connection.id", req.ConnID)
		return
	}
	// The departing connection, if still registered, receives the notice too.
	h.broadcast(ctx, s, proto.Message{Text: msgUserLeft})

	if _, ok := s.registry.Lookup(req.ConnID); !ok {
		slog.DebugContext(ctx, "Disconnect for unknown connection", "session.id", s.ID, "connection.id", req.ConnID)
		return
	}
	s.registry.Unregister(req.ConnID)

	remaining := s.registry.Len()
	slog.InfoContext(ctx, "Connection removed", "session.id", s.ID, "connection.id", req.ConnID, "session.connections", remaining)
	h.metrics.activeDelta(ctx, s.ID, -1)
	h.publish(ctx, events.TypePlayerLeft, s.ID, events.PlayerLeftPayload{ConnID: req.ConnID, Remaining: remaining})

	if h.dropSessionIfEmpty(s) {
		slog.InfoContext(ctx, "Session closed due to no connections", "session.id", s.ID)
	}
}

func (h *Hub) handleSnapshot(req *types.SnapshotRequest) {
	s, ok := h.sessions[req.SessionID]
	if !ok {
		req.Result <- types.SnapshotResult{Err: fmt.Errorf("%w: %s", ErrSessionNotFound, req.SessionID)}
		return
	}
	req.Result <- types.SnapshotResult{Snapshot: types.Snapshot{
		SessionID:   s.ID,
		Board:       s.board,
		Turn:        s.board.CurrentTurn(),
		Connections: s.registry.Len(),
	}}
}
