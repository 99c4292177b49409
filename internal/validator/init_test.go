package validator

import (
	"testing"

	"ctchen222/tictactoe-hub/internal/game"
	"ctchen222/tictactoe-hub/pkg/proto"
)

func TestSessionID(t *testing.T) {
	valid := []string{"lobby", "3f2c1f9e-6a51-4f0e-9a0b-8f1f7c1c2d3e", "room_42"}
	for _, id := range valid {
		if err := SessionID(id); err != nil {
			t.Errorf("SessionID(%q) returned error: %v", id, err)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "a/b", string(make([]byte, 65))}
	for _, id := range invalid {
		if err := SessionID(id); err == nil {
			t.Errorf("SessionID(%q) should fail", id)
		}
	}
}

func TestSetSquareRules(t *testing.T) {
	tests := []struct {
		name    string
		move    proto.SetSquare
		wantErr bool
	}{
		{"Corner", proto.SetSquare{Row: 2, Col: 2, Value: game.MarkX}, false},
		{"Row out of range", proto.SetSquare{Row: 3, Col: 0, Value: game.MarkX}, true},
		{"Col out of range", proto.SetSquare{Row: 0, Col: 9, Value: game.MarkO}, true},
		{"Empty mark", proto.SetSquare{Row: 0, Col: 0, Value: game.Empty}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GetValidator().Struct(tt.move)
			if (err != nil) != tt.wantErr {
				t.Errorf("Struct(%+v) error = %v, wantErr %v", tt.move, err, tt.wantErr)
			}
		})
	}
}
