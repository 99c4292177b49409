package hub

import (
	"context"
	"ctchen222/tictactoe-hub/internal/events"
	"ctchen222/tictactoe-hub/internal/hub/types"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hub")

var (
	ErrGameStarted     = errors.New("game has already started")
	ErrHubClosed       = errors.New("hub is closed")
	ErrSessionNotFound = errors.New("session not found")
	ErrRoleMismatch    = errors.New("mark does not match the connection's role")
)

// Options configure a Hub.
type Options struct {
	// PermissiveMoves accepts any in-bounds move without checking turn, role or occupancy.
	PermissiveMoves bool
	// LegacyErrorCodes sends proto.CodeLegacy for every Error packet.
	LegacyErrorCodes bool
	// Publisher receives session lifecycle events. Nil means events.NopPublisher.
	Publisher events.Publisher
}

// Hub owns every session. All session state is touched only by the Run goroutine.
type Hub struct {
	sessions map[string]*Session

	connect    chan *types.ConnectRequest
	disconnect chan *types.DisconnectRequest
	inbound    chan *types.InboundPacket
	snapshot   chan *types.SnapshotRequest
	done       chan struct{}

	permissiveMoves  bool
	legacyErrorCodes bool
	publisher        events.Publisher
	metrics          *hubMetrics
}

// NewHub creates a new hub.
func NewHub(opts Options) *Hub {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Hub{
		sessions:         make(map[string]*Session),
		connect:          make(chan *types.ConnectRequest),
		disconnect:       make(chan *types.DisconnectRequest),
		inbound:          make(chan *types.InboundPacket),
		snapshot:         make(chan *types.SnapshotRequest),
		done:             make(chan struct{}),
		permissiveMoves:  opts.PermissiveMoves,
		legacyErrorCodes: opts.LegacyErrorCodes,
		publisher:        publisher,
		metrics:          newHubMetrics(),
	}
}

// Run processes hub events one at a time until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	slog.InfoContext(ctx, "Hub started", "moves.permissive", h.permissiveMoves, "errors.legacy", h.legacyErrorCodes)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Hub stopped", "sessions.count", len(h.sessions))
			return
		case req := <-h.connect:
			h.handleConnect(req)
		case req := <-h.disconnect:
			h.handleDisconnect(req)
		case pkt := <-h.inbound:
			h.handleInbound(pkt)
		case req := <-h.snapshot:
			h.handleSnapshot(req)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Connect registers a connection and waits for the hub's answer.
// It returns ErrGameStarted when the session is already playing.
func (h *Hub) Connect(ctx context.Context, req *types.ConnectRequest) error {
	if req.Result == nil {
		req.Result = make(chan error, 1)
	}
	if req.Ctx == nil {
		req.Ctx = ctx
	}

	select {
	case h.connect <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubClosed
	}

	// Once the hub holds the request it always answers; the caller must learn
	// whether the connection was registered.
	select {
	case err := <-req.Result:
		return err
	case <-h.done:
		return ErrHubClosed
	}
}

// Disconnect removes a connection. It is delivered even if ctx is already cancelled,
// so a closing transport never leaves a stale registry entry.
func (h *Hub) Disconnect(ctx context.Context, sessionID, connID string) {
	req := &types.DisconnectRequest{
		SessionID: sessionID,
		ConnID:    connID,
		Ctx:       context.WithoutCancel(ctx),
	}
	select {
	case h.disconnect <- req:
	case <-h.done:
	}
}

// Inbound hands a raw payload received from connID to the hub.
func (h *Hub) Inbound(ctx context.Context, sessionID, connID string, payload []byte) error {
	pkt := &types.InboundPacket{
		SessionID: sessionID,
		ConnID:    connID,
		Payload:   payload,
		Ctx:       ctx,
	}
	select {
	case h.inbound <- pkt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return ErrHubClosed
	}
}

// Snapshot returns a copy of a session's board, turn and connection count.
func (h *Hub) Snapshot(ctx context.Context, sessionID string) (types.Snapshot, error) {
	req := &types.SnapshotRequest{
		SessionID: sessionID,
		Result:    make(chan types.SnapshotResult, 1),
	}

	select {
	case h.snapshot <- req:
	case <-ctx.Done():
		return types.Snapshot{}, ctx.Err()
	case <-h.done:
		return types.Snapshot{}, ErrHubClosed
	}

	select {
	case res := <-req.Result:
		return res.Snapshot, res.Err
	case <-ctx.Done():
		return types.Snapshot{}, ctx.Err()
	case <-h.done:
		return types.Snapshot{}, ErrHubClosed
	}
}
