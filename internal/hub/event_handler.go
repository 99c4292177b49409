package hub

import (
	"context"
	"ctchen222/tictactoe-hub/internal/events"
	"ctchen222/tictactoe-hub/internal/hub/types"
	"ctchen222/tictactoe-hub/internal/player"
	"ctchen222/tictactoe-hub/internal/validator"
	"ctchen222/tictactoe-hub/pkg/proto"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (h *Hub) handleInbound(pkt *types.InboundPacket) {
	ctx, span := tracer.Start(pkt.Ctx, "hub.handleInbound", trace.WithAttributes(
		attribute.String("session.id", pkt.SessionID),
		attribute.String("connection.id", pkt.ConnID),
	))
	defer span.End()

	s, ok := h.sessions[pkt.SessionID]
	if !ok {
		slog.DebugContext(ctx, "Dropping payload for unknown session", "session.id", pkt.SessionID, "connection.id", pkt.ConnID)
		return
	}
	conn, ok := s.registry.Lookup(pkt.ConnID)
	if !ok {
		slog.DebugContext(ctx, "Dropping payload from unknown connection", "session.id", s.ID, "connection.id", pkt.ConnID)
		return
	}

	packet, err := proto.Decode(pkt.Payload)
	if err != nil {
		slog.WarnContext(ctx, "Invalid packet", "session.id", s.ID, "connection.id", conn.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid packet")
		h.metrics.add(ctx, h.metrics.packetsInvalid, s.ID)
		h.sendError(ctx, s.ID, conn.ID, conn.Pusher, proto.CodeInvalidRequest, msgInvalidRequest)
		return
	}
	span.SetAttributes(attribute.String("packet.type", string(packet.PacketType())))

	switch p := packet.(type) {
	case proto.Message:
		h.broadcast(ctx, s, p)
	case proto.GetBoard:
		h.emit(ctx, s.ID, conn.ID, conn.Pusher, proto.BoardUpdate{Board: s.board})
	case proto.SetSquare:
		h.handleSetSquare(ctx, s, conn, p)
	default:
		slog.DebugContext(ctx, "Ignoring server-to-client packet", "session.id", s.ID, "connection.id", conn.ID, "packet.type", packet.PacketType())
	}
}

func (h *Hub) handleSetSquare(ctx context.Context, s *Session, conn *player.Connection, move proto.SetSquare) {
	span := trace.SpanFromContext(ctx)

	if err := h.checkMove(s, conn, move); err != nil {
		slog.InfoContext(ctx, "Move rejected", "session.id", s.ID, "connection.id", conn.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Move rejected")
		h.metrics.add(ctx, h.metrics.movesRejected, s.ID)
		h.sendError(ctx, s.ID, conn.ID, conn.Pusher, proto.CodeIllegalMove, err.Error())
		return
	}
	// Coordinates are within 0..2 from here on.
	span.SetAttributes(
		attribute.Int("move.row", int(move.Row)),
		attribute.Int("move.col", int(move.Col)),
		attribute.String("move.value", move.Value.String()),
	)

	if err := s.board.SetSquare(int(move.Row), int(move.Col), move.Value); err != nil {
		// checkMove already enforced bounds.
		slog.ErrorContext(ctx, "Failed to set square", "session.id", s.ID, "error", err)
		span.RecordError(err)
		return
	}
	h.metrics.add(ctx, h.metrics.movesApplied, s.ID)

	turn := s.board.CurrentTurn()
	h.broadcast(ctx, s, proto.BoardUpdate{Board: s.board})
	h.broadcast(ctx, s, proto.TurnUpdate{Turn: turn})
	h.publish(ctx, events.TypeBoardUpdated, s.ID, events.BoardUpdatedPayload{
		ConnID: conn.ID,
		Board:  s.board,
		Turn:   turn,
	})
}

// checkMove validates a move. Bounds and a non-empty mark are always required;
// the rest is skipped in permissive mode.
func (h *Hub) checkMove(s *Session, conn *player.Connection, move proto.SetSquare) error {
	if err := validator.GetValidator().Struct(move); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}
	if h.permissiveMoves {
		return nil
	}
	if conn.Role.Square() != move.Value {
		return fmt.Errorf("%w: %s plays %s", ErrRoleMismatch, conn.ID, conn.Role)
	}
	return s.board.ValidateMove(int(move.Row), int(move.Col), move.Value)
}
