package events

import (
	"context"
	"ctchen222/tictactoe-hub/internal/game"
	"encoding/json"
	"fmt"
)

// Pub/Sub channel prefix; one channel per session.
const (
	SessionChannelPrefix = "channel:session:"
)

// Event types.
const (
	TypePlayerJoined       = "player_joined"
	TypeConnectionRejected = "connection_rejected"
	TypeSessionStarted     = "session_started"
	TypeBoardUpdated       = "board_updated"
	TypePlayerLeft         = "player_left"
)

// SessionChannel returns the Pub/Sub channel carrying events of one session.
func SessionChannel(sessionID string) string {
	return SessionChannelPrefix + sessionID
}

// Event represents a session lifecycle message published via Pub/Sub.
type Event struct {
	Type      string          `json:"event"`
	SessionID string          `json:"session_id"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent builds an Event with payload marshalled to JSON.
func NewEvent(typ, sessionID string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return Event{Type: typ, SessionID: sessionID, Payload: data}, nil
}

// PlayerJoinedPayload is the payload for the "player_joined" event.
type PlayerJoinedPayload struct {
	ConnID string    `json:"conn_id"`
	Role   game.Turn `json:"role"`
}

// ConnectionRejectedPayload is the payload for the "connection_rejected" event.
type ConnectionRejectedPayload struct {
	ConnID string `json:"conn_id"`
	Reason string `json:"reason"`
}

// SessionStartedPayload is the payload for the "session_started" event.
type SessionStartedPayload struct {
	Turn game.Turn `json:"turn"`
}

// BoardUpdatedPayload is the payload for the "board_updated" event.
type BoardUpdatedPayload struct {
	ConnID string     `json:"conn_id"`
	Board  game.Board `json:"board"`
	Turn   game.Turn  `json:"turn"`
}

// PlayerLeftPayload is the payload for the "player_left" event.
type PlayerLeftPayload struct {
	ConnID    string `json:"conn_id"`
	Remaining int    `json:"remaining"`
}

// Publisher hands events to an external bus. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
