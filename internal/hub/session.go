package hub

import (
	"ctchen222/tictactoe-hub/internal/game"
	"ctchen222/tictactoe-hub/internal/player"
)

// Session is one game: its connections and its board.
type Session struct {
	ID       string
	registry *player.Registry
	board    game.Board
}

func newSession(id string) *Session {
	return &Session{
		ID:       id,
		registry: player.NewRegistry(),
	}
}

// getOrCreateSession returns the session for id, creating it on first use.
func (h *Hub) getOrCreateSession(id string) *Session {
	s, ok := h.sessions[id]
	if !ok {
		s = newSession(id)
		h.sessions[id] = s
	}
	return s
}

// dropSessionIfEmpty removes s once its last connection is gone.
func (h *Hub) dropSessionIfEmpty(s *Session) bool {
	if s.registry.Len() > 0 {
		return false
	}
	delete(h.sessions, s.ID)
	return true
}
