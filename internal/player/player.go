package player

import "ctchen222/tictactoe-hub/internal/game"

//go:generate mockgen -source=player.go -destination=mock_player/mock_player.go -package=mock_player

// Pusher delivers a text payload to one remote endpoint.
// Push must not block; the returned error is only used for logging.
type Pusher interface {
	Push(data []byte) error
}

// Connection is a registered participant of a session.
type Connection struct {
	ID     string
	Role   game.Turn
	Pusher Pusher
}

// NewConnection creates a connection entry.
func NewConnection(id string, role game.Turn, pusher Pusher) *Connection {
	return &Connection{
		ID:     id,
		Role:   role,
		Pusher: pusher,
	}
}
