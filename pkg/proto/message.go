package proto

import "ctchen222/tictactoe-hub/internal/game"

// Type is the tag carried in the "type" field of every packet.
type Type string

const (
	TypeMessage     Type = "Message"
	TypeGetBoard    Type = "GetBoard"
	TypeSetSquare   Type = "SetSquare"
	TypeBoardUpdate Type = "BoardUpdate"
	TypeTurnUpdate  Type = "TurnUpdate"
	TypeRoleUpdate  Type = "RoleUpdate"
	TypeError       Type = "Error"
)

// Error codes sent in Error packets.
const (
	CodeInvalidRequest uint64 = 400
	CodeGameStarted    uint64 = 409
	CodeIllegalMove    uint64 = 422

	// CodeLegacy is sent for every failure when legacy error codes are enabled.
	CodeLegacy uint64 = 401
)

// Packet is one message exchanged between the hub and a connection.
type Packet interface {
	PacketType() Type
}

// Message is chat text, sent in both directions.
type Message struct {
	Text string
}

// GetBoard asks the hub for the current board. Data is ignored.
type GetBoard struct {
	Data string
}

// SetSquare proposes a move.
type SetSquare struct {
	Row   uint        `validate:"max=2"`
	Col   uint        `validate:"max=2"`
	Value game.Square `validate:"ne=0"`
}

// BoardUpdate carries a full board snapshot.
type BoardUpdate struct {
	Board game.Board
}

// TurnUpdate tells every player whose move is next.
type TurnUpdate struct {
	Turn game.Turn
}

// RoleUpdate tells a connection which mark it plays.
type RoleUpdate struct {
	Role game.Turn
}

// Error is a failure notice sent to a single connection.
type Error struct {
	Code    uint64
	Message string
}

func (Message) PacketType() Type     { return TypeMessage }
func (GetBoard) PacketType() Type    { return TypeGetBoard }
func (SetSquare) PacketType() Type   { return TypeSetSquare }
func (BoardUpdate) PacketType() Type { return TypeBoardUpdate }
func (TurnUpdate) PacketType() Type  { return TypeTurnUpdate }
func (RoleUpdate) PacketType() Type  { return TypeRoleUpdate }
func (Error) PacketType() Type       { return TypeError }
