package bot

import (
	"ctchen222/tictactoe-hub/internal/game"
	"fmt"
	"math/rand/v2"
)

// Difficulty selects how the bot picks its moves.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty maps a query value to a Difficulty. Empty means Easy.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case "", Easy:
		return Easy, nil
	case Medium, Hard:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown bot difficulty %q", s)
}

// CalculateNextMove determines the bot's next move based on the specified difficulty.
// It returns (-1, -1) when the board is full.
func CalculateNextMove(board game.Board, botMark game.Square, difficulty Difficulty) (row, col int) {
	switch difficulty {
	case Easy:
		return easyMove(board)
	case Medium:
		return mediumMove(board, botMark)
	default:
		return hardMove(board, botMark)
	}
}

func opponentOf(mark game.Square) game.Square {
	if mark == game.MarkX {
		return game.MarkO
	}
	return game.MarkX
}

// easyMove makes a completely random move.
func easyMove(board game.Board) (row, col int) {
	var availableMoves [][2]int
	for r, rowData := range board.Rows {
		for c, cell := range rowData {
			if cell == game.Empty {
				availableMoves = append(availableMoves, [2]int{r, c})
			}
		}
	}

	if len(availableMoves) == 0 {
		return -1, -1
	}

	randomMove := availableMoves[rand.IntN(len(availableMoves))]
	return randomMove[0], randomMove[1]
}

// mediumMove will win if it can, block if it must, otherwise move randomly.
func mediumMove(board game.Board, botMark game.Square) (row, col int) {
	if r, c, ok := findWinningMove(board, botMark); ok {
		return r, c
	}
	if r, c, ok := findWinningMove(board, opponentOf(botMark)); ok {
		return r, c
	}
	return easyMove(board)
}

// hardMove: win, block, center, corner, side.
func hardMove(board game.Board, botMark game.Square) (row, col int) {
	if r, c, ok := findWinningMove(board, botMark); ok {
		return r, c
	}
	if r, c, ok := findWinningMove(board, opponentOf(botMark)); ok {
		return r, c
	}

	if board.Rows[1][1] == game.Empty {
		return 1, 1
	}

	corners := [][2]int{{0, 0}, {0, 2}, {2, 0}, {2, 2}}
	if r, c, ok := randomEmpty(board, corners); ok {
		return r, c
	}

	sides := [][2]int{{0, 1}, {1, 0}, {1, 2}, {2, 1}}
	if r, c, ok := randomEmpty(board, sides); ok {
		return r, c
	}

	return -1, -1
}

func randomEmpty(board game.Board, candidates [][2]int) (row, col int, found bool) {
	var available [][2]int
	for _, pos := range candidates {
		if board.Rows[pos[0]][pos[1]] == game.Empty {
			available = append(available, pos)
		}
	}
	if len(available) == 0 {
		return -1, -1, false
	}
	pick := available[rand.IntN(len(available))]
	return pick[0], pick[1], true
}

// lines lists every row, column and diagonal of the board.
var lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// findWinningMove checks if mark has two in a line with the third square empty.
func findWinningMove(board game.Board, mark game.Square) (row, col int, found bool) {
	for _, line := range lines {
		count, empty := 0, -1
		for i, pos := range line {
			switch board.Rows[pos[0]][pos[1]] {
			case mark:
				count++
			case game.Empty:
				empty = i
			}
		}
		if count == 2 && empty >= 0 {
			return line[empty][0], line[empty][1], true
		}
	}
	return -1, -1, false
}
