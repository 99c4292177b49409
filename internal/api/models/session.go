package models

import "ctchen222/tictactoe-hub/internal/game"

// ConnectQuery defines the optional query of a session connection.
type ConnectQuery struct {
	Opponent   string `form:"opponent" binding:"omitempty,oneof=bot"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// SessionResponse describes one session for the REST API.
type SessionResponse struct {
	SessionID   string            `json:"session_id"`
	Active      bool              `json:"active"`
	Turn        game.Turn         `json:"turn"`
	Board       [3][3]game.Square `json:"board"`
	Connections int               `json:"connections"`
}
