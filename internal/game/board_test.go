package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestCurrentTurn(t *testing.T) {
	tests := []struct {
		name  string
		board [3][3]Square
		want  Turn
	}{
		{
			name:  "Fresh board - X moves first",
			board: [3][3]Square{},
			want:  TurnX,
		},
		{
			name: "One move played - O to move",
			board: [3][3]Square{
				{MarkX, Empty, Empty},
				{Empty, Empty, Empty},
				{Empty, Empty, Empty},
			},
			want: TurnO,
		},
		{
			name: "Two moves played - X to move",
			board: [3][3]Square{
				{MarkX, MarkO, Empty},
				{Empty, Empty, Empty},
				{Empty, Empty, Empty},
			},
			want: TurnX,
		},
		{
			name: "Full board - even count of zero",
			board: [3][3]Square{
				{MarkX, MarkO, MarkX},
				{MarkX, MarkO, MarkO},
				{MarkO, MarkX, MarkX},
			},
			want: TurnO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Board{Rows: tt.board}
			if got := b.CurrentTurn(); got != tt.want {
				t.Errorf("CurrentTurn() got = %v, want %v", got, tt.want)
			}
			if even := b.EmptyCount()%2 == 0; even != (b.CurrentTurn() == TurnO) {
				t.Errorf("CurrentTurn() = %v does not match parity of %d empty squares", b.CurrentTurn(), b.EmptyCount())
			}
		})
	}
}

func TestEmptyCount(t *testing.T) {
	var b Board
	if got := b.EmptyCount(); got != 9 {
		t.Fatalf("EmptyCount() on fresh board got = %d, want 9", got)
	}

	for i := 0; i < 9; i++ {
		if err := b.SetSquare(i/3, i%3, MarkX); err != nil {
			t.Fatalf("SetSquare(%d, %d) returned error: %v", i/3, i%3, err)
		}
		if got, want := b.EmptyCount(), 8-i; got != want {
			t.Errorf("EmptyCount() after %d moves got = %d, want %d", i+1, got, want)
		}
	}
}

func TestStartIsIdempotent(t *testing.T) {
	var b Board
	_ = b.SetSquare(1, 1, MarkO)
	b.Start()
	first := b
	b.Start()

	if !b.Active {
		t.Fatal("board should be active after Start()")
	}
	if b != first {
		t.Errorf("second Start() changed the board: got %+v, want %+v", b, first)
	}
}

func TestSetSquare(t *testing.T) {
	var b Board

	if err := b.SetSquare(2, 1, MarkO); err != nil {
		t.Fatalf("SetSquare returned error: %v", err)
	}
	if got := b.GetSquare(2, 1); got != MarkO {
		t.Errorf("GetSquare(2, 1) got = %v, want %v", got, MarkO)
	}

	// Unconditional: overwriting an occupied square is allowed.
	if err := b.SetSquare(2, 1, MarkX); err != nil {
		t.Fatalf("SetSquare overwrite returned error: %v", err)
	}
	if got := b.GetSquare(2, 1); got != MarkX {
		t.Errorf("GetSquare(2, 1) after overwrite got = %v, want %v", got, MarkX)
	}

	for _, pos := range [][2]int{{-1, 0}, {0, 3}, {3, 3}, {0, -1}} {
		if err := b.SetSquare(pos[0], pos[1], MarkX); !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("SetSquare(%d, %d) got err = %v, want ErrOutOfBounds", pos[0], pos[1], err)
		}
		if got := b.GetSquare(pos[0], pos[1]); got != Empty {
			t.Errorf("GetSquare(%d, %d) got = %v, want Empty", pos[0], pos[1], got)
		}
	}
}

func TestValidateMove(t *testing.T) {
	active := Board{Active: true}
	played := Board{Active: true}
	played.Rows[0][0] = MarkX

	tests := []struct {
		name     string
		board    Board
		row, col int
		value    Square
		wantErr  error
	}{
		{name: "X opens on fresh board", board: active, row: 1, col: 1, value: MarkX},
		{name: "O answers", board: played, row: 1, col: 1, value: MarkO},
		{name: "Inactive board", board: Board{}, row: 0, col: 0, value: MarkX, wantErr: ErrNotActive},
		{name: "Out of bounds", board: active, row: 3, col: 0, value: MarkX, wantErr: ErrOutOfBounds},
		{name: "Empty mark", board: active, row: 0, col: 0, value: Empty, wantErr: ErrInvalidMark},
		{name: "Occupied square", board: played, row: 0, col: 0, value: MarkO, wantErr: ErrSquareTaken},
		{name: "O cannot open", board: active, row: 0, col: 0, value: MarkO, wantErr: ErrNotYourTurn},
		{name: "X cannot move twice", board: played, row: 2, col: 2, value: MarkX, wantErr: ErrNotYourTurn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.board.ValidateMove(tt.row, tt.col, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Errorf("ValidateMove() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMove() got err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoardJSON(t *testing.T) {
	var b Board
	b.Start()
	_ = b.SetSquare(0, 0, MarkX)
	_ = b.SetSquare(2, 1, MarkO)

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}
	want := `{"rows":[["X","Empty","Empty"],["Empty","Empty","Empty"],["Empty","O","Empty"]],"active":true}`
	if string(data) != want {
		t.Errorf("json.Marshal got = %s, want %s", data, want)
	}

	var decoded Board
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal returned error: %v", err)
	}
	if decoded != b {
		t.Errorf("decoded board got = %+v, want %+v", decoded, b)
	}

	if err := json.Unmarshal([]byte(`{"rows":[["Z"]],"active":false}`), &decoded); err == nil {
		t.Error("expected error decoding unknown square")
	}
}

func TestTurnSquare(t *testing.T) {
	if TurnX.Square() != MarkX || TurnO.Square() != MarkO {
		t.Errorf("Turn.Square() mapping is wrong: X->%v, O->%v", TurnX.Square(), TurnO.Square())
	}
	if Turn(0).Square() != Empty {
		t.Errorf("zero Turn should map to Empty, got %v", Turn(0).Square())
	}
}
