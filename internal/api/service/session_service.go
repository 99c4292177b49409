package service

import (
	"context"
	"ctchen222/tictactoe-hub/internal/api/models"
	"ctchen222/tictactoe-hub/internal/api/response"
	"ctchen222/tictactoe-hub/internal/hub"
	"ctchen222/tictactoe-hub/internal/hub/types"
	"ctchen222/tictactoe-hub/internal/validator"
	"errors"
	"fmt"
	"net/http"
)

// SessionReader reads a point-in-time copy of a session.
type SessionReader interface {
	Snapshot(ctx context.Context, sessionID string) (types.Snapshot, error)
}

// SessionService defines the interface for session queries.
type SessionService interface {
	Get(ctx context.Context, sessionID string) (*models.SessionResponse, error)
}

type sessionService struct {
	reader SessionReader
}

// NewSessionService creates a new SessionService.
func NewSessionService(reader SessionReader) SessionService {
	return &sessionService{reader: reader}
}

// Get returns the current state of a session. Client mistakes come back as response.Error.
func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.SessionResponse, error) {
	if err := validator.SessionID(sessionID); err != nil {
		return nil, response.NewError(false, http.StatusBadRequest, "invalid session id")
	}

	snap, err := s.reader.Snapshot(ctx, sessionID)
	if errors.Is(err, hub.ErrSessionNotFound) {
		return nil, response.NewError(false, http.StatusNotFound, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	return &models.SessionResponse{
		SessionID:   snap.SessionID,
		Active:      snap.Board.Active,
		Turn:        snap.Turn,
		Board:       snap.Board.Rows,
		Connections: snap.Connections,
	}, nil
}
