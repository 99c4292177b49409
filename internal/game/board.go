package game

import (
	"errors"
	"fmt"
)

// Square is the content of one cell on the board.
type Square uint8

// Turn identifies whose move is next. A connection's role uses the same type.
type Turn uint8

const (
	// Square values
	Empty Square = iota
	MarkX
	MarkO
)

const (
	// Turn values
	TurnX Turn = iota + 1
	TurnO
)

const (
	// Board boundaries
	BorderMin = 0
	BorderMax = 2

	boardSize = BorderMax + 1
)

var (
	ErrOutOfBounds = errors.New("square is out of bounds")
	ErrSquareTaken = errors.New("square already occupied")
	ErrNotYourTurn = errors.New("not this mark's turn")
	ErrNotActive   = errors.New("game has not started")
	ErrInvalidMark = errors.New("invalid mark")
)

func (s Square) String() string {
	switch s {
	case Empty:
		return "Empty"
	case MarkX:
		return "X"
	case MarkO:
		return "O"
	}
	return fmt.Sprintf("Square(%d)", uint8(s))
}

// MarshalText encodes the square as "Empty", "X" or "O".
func (s Square) MarshalText() ([]byte, error) {
	switch s {
	case Empty, MarkX, MarkO:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrInvalidMark, uint8(s))
}

// UnmarshalText decodes "Empty", "X" or "O".
func (s *Square) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Empty":
		*s = Empty
	case "X":
		*s = MarkX
	case "O":
		*s = MarkO
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMark, text)
	}
	return nil
}

func (t Turn) String() string {
	switch t {
	case TurnX:
		return "X"
	case TurnO:
		return "O"
	}
	return fmt.Sprintf("Turn(%d)", uint8(t))
}

// Square returns the mark placed by the player holding this turn.
func (t Turn) Square() Square {
	switch t {
	case TurnX:
		return MarkX
	case TurnO:
		return MarkO
	}
	return Empty
}

func (t Turn) MarshalText() ([]byte, error) {
	switch t {
	case TurnX, TurnO:
		return []byte(t.String()), nil
	}
	return nil, fmt.Errorf("invalid turn: %d", uint8(t))
}

func (t *Turn) UnmarshalText(text []byte) error {
	switch string(text) {
	case "X":
		*t = TurnX
	case "O":
		*t = TurnO
	default:
		return fmt.Errorf("invalid turn: %q", text)
	}
	return nil
}

// Board is the shared 3x3 grid plus the flag telling whether both players have joined.
// The zero value is an inactive, empty board.
type Board struct {
	Rows   [boardSize][boardSize]Square `json:"rows"`
	Active bool                         `json:"active"`
}

// Start marks the game as active. Calling it again has no effect.
func (b *Board) Start() {
	b.Active = true
}

// CurrentTurn derives whose move is next from the number of empty squares:
// O when the count is even, X otherwise. A fresh board therefore starts with X.
// This only holds while every accepted move fills exactly one empty square.
func (b *Board) CurrentTurn() Turn {
	if b.EmptyCount()%2 == 0 {
		return TurnO
	}
	return TurnX
}

// EmptyCount returns the number of Empty squares.
func (b *Board) EmptyCount() int {
	count := 0
	for r := range b.Rows {
		for c := range b.Rows[r] {
			if b.Rows[r][c] == Empty {
				count++
			}
		}
	}
	return count
}

// GetSquare returns the square at (row, col), or Empty when out of bounds.
func (b *Board) GetSquare(row, col int) Square {
	if !InBounds(row, col) {
		return Empty
	}
	return b.Rows[row][col]
}

// SetSquare writes value at (row, col) without checking occupancy, turn or mark.
// Use ValidateMove first when the move comes from a player.
func (b *Board) SetSquare(row, col int, value Square) error {
	if !InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}
	b.Rows[row][col] = value
	return nil
}

// ValidateMove reports whether placing value at (row, col) is a legal move right now.
func (b *Board) ValidateMove(row, col int, value Square) error {
	if !b.Active {
		return ErrNotActive
	}
	if !InBounds(row, col) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, row, col)
	}
	if value != MarkX && value != MarkO {
		return fmt.Errorf("%w: %s", ErrInvalidMark, value)
	}
	if b.Rows[row][col] != Empty {
		return fmt.Errorf("%w: (%d, %d)", ErrSquareTaken, row, col)
	}
	if b.CurrentTurn().Square() != value {
		return fmt.Errorf("%w: %s", ErrNotYourTurn, value)
	}
	return nil
}

// InBounds reports whether (row, col) addresses a square on the board.
func InBounds(row, col int) bool {
	return row >= BorderMin && row <= BorderMax && col >= BorderMin && col <= BorderMax
}
