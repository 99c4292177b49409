package server

import (
	"context"
	"ctchen222/tictactoe-hub/internal/api/controller"
	"ctchen222/tictactoe-hub/internal/api/models"
	"ctchen222/tictactoe-hub/internal/api/response"
	"ctchen222/tictactoe-hub/internal/bot"
	"ctchen222/tictactoe-hub/internal/endpoint"
	"ctchen222/tictactoe-hub/internal/hub"
	"ctchen222/tictactoe-hub/internal/hub/types"
	"ctchen222/tictactoe-hub/internal/validator"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Options configure a Server.
type Options struct {
	Endpoint     endpoint.Config
	BotThinkTime time.Duration
}

type Server struct {
	hub          *hub.Hub
	sessions     *controller.SessionController
	upgrader     websocket.Upgrader
	endpointCfg  endpoint.Config
	botThinkTime time.Duration

	mu        sync.Mutex
	endpoints map[*endpoint.Endpoint]struct{}
}

func NewServer(h *hub.Hub, sessions *controller.SessionController, opts Options) *Server {
	return &Server{
		hub:      h,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		endpointCfg:  opts.Endpoint,
		botThinkTime: opts.BotThinkTime,
		endpoints:    make(map[*endpoint.Endpoint]struct{}),
	}
}

// Engine builds the HTTP router.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.sessions.Health)

	api := r.Group("/api")
	{
		api.GET("/sessions/:session_id", s.sessions.Get)
	}

	r.GET("/:session_id", s.handleSession)
	return r
}

// handleSession upgrades the request and serves the connection until it closes.
// The path segment names the session to join.
func (s *Server) handleSession(c *gin.Context) {
	sessionID := c.Param("session_id")
	ctx, span := tracer.Start(c.Request.Context(), "server.handleSession", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("http.method", c.Request.Method),
	))
	defer span.End()

	if err := validator.SessionID(sessionID); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid session id")
		return
	}
	var query models.ConnectQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.WarnContext(ctx, "Failed to upgrade connection", "session.id", sessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	connID := uuid.New().String()
	span.SetAttributes(attribute.String("connection.id", connID))

	ep := endpoint.New(connID, sessionID, conn, s.endpointCfg)
	go ep.WritePump()
	s.track(ep)
	defer s.untrack(ep)

	if err := s.hub.Connect(ctx, &types.ConnectRequest{
		SessionID: sessionID,
		ConnID:    connID,
		Pusher:    ep,
	}); err != nil {
		slog.InfoContext(ctx, "Connection refused", "session.id", sessionID, "connection.id", connID, "error", err)
		span.SetStatus(codes.Error, err.Error())
		ep.Close()
		<-ep.Done()
		return
	}

	if query.Opponent == "bot" {
		stop := s.startBot(ctx, sessionID, query.Difficulty)
		defer stop()
	}

	ep.ReadPump(ctx, s.hub)
}

// startBot joins a bot to the session. The returned func makes it leave.
func (s *Server) startBot(ctx context.Context, sessionID, difficulty string) func() {
	d, err := bot.ParseDifficulty(difficulty)
	if err != nil {
		d = bot.Easy
	}

	b := bot.New("bot-"+uuid.New().String()[:8], sessionID, d, s.botThinkTime)
	if err := s.hub.Connect(ctx, &types.ConnectRequest{
		SessionID: sessionID,
		ConnID:    b.ID,
		Pusher:    b,
	}); err != nil {
		slog.WarnContext(ctx, "Bot could not join", "session.id", sessionID, "bot.id", b.ID, "error", err)
		return func() {}
	}

	slog.InfoContext(ctx, "Bot joined", "session.id", sessionID, "bot.id", b.ID, "bot.difficulty", d)
	go b.Run(context.WithoutCancel(ctx), s.hub)
	return b.Stop
}

func (s *Server) track(ep *endpoint.Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[ep] = struct{}{}
}

func (s *Server) untrack(ep *endpoint.Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.endpoints, ep)
}

// CloseConnections sends a close frame on every open WebSocket and waits until the
// writers have finished or ctx expires. http.Server.Shutdown does not see hijacked
// connections, so call this after it and before stopping the hub.
func (s *Server) CloseConnections(ctx context.Context) error {
	s.mu.Lock()
	open := make([]*endpoint.Endpoint, 0, len(s.endpoints))
	for ep := range s.endpoints {
		open = append(open, ep)
	}
	s.mu.Unlock()

	slog.InfoContext(ctx, "Closing WebSocket connections", "connections", len(open))
	for _, ep := range open {
		ep.Close()
	}
	for _, ep := range open {
		select {
		case <-ep.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.InfoContext(c.Request.Context(), "HTTP request",
			"http.method", c.Request.Method,
			"http.path", c.Request.URL.Path,
			"http.status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
