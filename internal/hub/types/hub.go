package types

import (
	"context"
	"ctchen222/tictactoe-hub/internal/game"
	"ctchen222/tictactoe-hub/internal/player"
)

// ConnectRequest asks the hub to register a connection in a session.
// The hub answers on Result exactly once; Result must be buffered.
type ConnectRequest struct {
	SessionID string
	ConnID    string
	Pusher    player.Pusher
	Result    chan error
	Ctx       context.Context
}

// DisconnectRequest tells the hub that a connection is gone.
type DisconnectRequest struct {
	SessionID string
	ConnID    string
	Ctx       context.Context
}

// InboundPacket is a raw text payload received from a registered connection.
type InboundPacket struct {
	SessionID string
	ConnID    string
	Payload   []byte
	Ctx       context.Context
}

// SnapshotRequest asks for a copy of a session's state.
type SnapshotRequest struct {
	SessionID string
	Result    chan SnapshotResult
}

// SnapshotResult is the answer to a SnapshotRequest.
type SnapshotResult struct {
	Snapshot Snapshot
	Err      error
}

// Snapshot is a point-in-time copy of one session.
type Snapshot struct {
	SessionID   string     `json:"session_id"`
	Board       game.Board `json:"board"`
	Turn        game.Turn  `json:"turn"`
	Connections int        `json:"connections"`
}
