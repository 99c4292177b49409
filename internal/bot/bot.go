package bot

import (
	"context"
	"ctchen222/tictactoe-hub/internal/game"
	"ctchen222/tictactoe-hub/pkg/proto"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrInboxFull = errors.New("bot inbox full")
	ErrStopped   = errors.New("bot stopped")
)

const inboxSize = 16

// Sink is where the bot sends its moves and its departure.
type Sink interface {
	Inbound(ctx context.Context, sessionID, connID string, payload []byte) error
	Disconnect(ctx context.Context, sessionID, connID string)
}

// Bot is an in-process opponent. It receives packets through Push like any
// other connection and answers with SetSquare when its turn comes.
type Bot struct {
	ID         string
	SessionID  string
	difficulty Difficulty
	thinkTime  time.Duration

	mu      sync.Mutex
	inbox   chan []byte
	stopped bool
	stop    chan struct{}

	// Owned by Run.
	role    game.Turn
	turn    game.Turn
	board   game.Board
	hasRole bool
	hasTurn bool
}

// New creates a bot. Call Run to start it.
func New(id, sessionID string, difficulty Difficulty, thinkTime time.Duration) *Bot {
	return &Bot{
		ID:         id,
		SessionID:  sessionID,
		difficulty: difficulty,
		thinkTime:  thinkTime,
		inbox:      make(chan []byte, inboxSize),
		stop:       make(chan struct{}),
	}
}

// Push hands a packet to the bot without blocking.
func (b *Bot) Push(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return ErrStopped
	}
	select {
	case b.inbox <- data:
		return nil
	default:
		return ErrInboxFull
	}
}

// Stop makes Run leave the session. Safe to call more than once.
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.stopped {
		b.stopped = true
		close(b.stop)
	}
}

// Run plays until Stop is called or ctx is cancelled, then disconnects from sink.
func (b *Bot) Run(ctx context.Context, sink Sink) {
	defer func() {
		sink.Disconnect(ctx, b.SessionID, b.ID)
		slog.InfoContext(ctx, "Bot left the session", "session.id", b.SessionID, "bot.id", b.ID)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stop:
			return
		case data := <-b.inbox:
			if !b.handle(ctx, data) {
				continue
			}
			if !b.play(ctx, sink) {
				return
			}
		}
	}
}

// handle updates what the bot knows and reports whether it should move now.
func (b *Bot) handle(ctx context.Context, data []byte) bool {
	packet, err := proto.Decode(data)
	if err != nil {
		slog.WarnContext(ctx, "Bot received an undecodable packet", "bot.id", b.ID, "error", err)
		return false
	}

	switch p := packet.(type) {
	case proto.RoleUpdate:
		b.role, b.hasRole = p.Role, true
		slog.InfoContext(ctx, "Bot assigned role", "session.id", b.SessionID, "bot.id", b.ID, "bot.role", p.Role)
	case proto.TurnUpdate:
		b.turn, b.hasTurn = p.Turn, true
	case proto.BoardUpdate:
		b.board = p.Board
	case proto.Error:
		slog.WarnContext(ctx, "Bot received an error", "bot.id", b.ID, "error.code", p.Code, "error.message", p.Message)
	}

	return b.hasRole && b.hasTurn && b.turn == b.role && b.board.Active
}

// play thinks, then submits a move. It returns false if the bot was stopped meanwhile.
func (b *Bot) play(ctx context.Context, sink Sink) bool {
	slog.DebugContext(ctx, "Bot is thinking", "bot.id", b.ID, "bot.difficulty", b.difficulty)

	timer := time.NewTimer(b.thinkTime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-b.stop:
		return false
	case <-timer.C:
	}

	mark := b.role.Square()
	row, col := CalculateNextMove(b.board, mark, b.difficulty)
	if row == -1 {
		return true
	}
	b.hasTurn = false

	move := proto.SetSquare{Row: uint(row), Col: uint(col), Value: mark}
	data, err := proto.Encode(move)
	if err != nil {
		slog.ErrorContext(ctx, "Bot failed to encode its move", "bot.id", b.ID, "error", err)
		return true
	}
	if err := sink.Inbound(ctx, b.SessionID, b.ID, data); err != nil {
		slog.WarnContext(ctx, "Bot move not delivered", "bot.id", b.ID, "error", err)
		return false
	}
	return true
}
