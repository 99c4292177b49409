package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ctchen222/tictactoe-hub/internal/api/controller"
	"ctchen222/tictactoe-hub/internal/api/models"
	"ctchen222/tictactoe-hub/internal/api/service"
	"ctchen222/tictactoe-hub/internal/game"
	"ctchen222/tictactoe-hub/internal/hub"
	"ctchen222/tictactoe-hub/pkg/proto"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	_, srv := newServer(t)
	return srv
}

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	h := hub.NewHub(hub.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	sessions := controller.NewSessionController(service.NewSessionService(h))
	s := NewServer(h, sessions, Options{})
	srv := httptest.NewServer(s.Engine())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-h.Done()
	})
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) proto.Packet {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	p, err := proto.Decode(data)
	require.NoError(t, err)
	return p
}

func write(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func getSession(t *testing.T, srv *httptest.Server, id string) (int, models.SessionResponse) {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/sessions/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool                   `json:"success"`
		Extras  models.SessionResponse `json:"extras"`
	}
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body.Extras
}

// startGame connects two clients to path and drains the opening packets.
func startGame(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	x := dial(t, srv, path)
	assert.Equal(t, proto.RoleUpdate{Role: game.TurnX}, read(t, x))

	o := dial(t, srv, path)
	started := []proto.Packet{
		proto.TurnUpdate{Turn: game.TurnX},
		proto.BoardUpdate{Board: game.Board{Active: true}},
	}
	assert.Equal(t, started, []proto.Packet{read(t, x), read(t, x)})
	assert.Equal(t, append(started, proto.RoleUpdate{Role: game.TurnO}), []proto.Packet{read(t, o), read(t, o), read(t, o)})
	return x, o
}

func TestServer_TwoPlayersAndAMove(t *testing.T) {
	srv := newTestServer(t)
	x, o := startGame(t, srv, "/lobby")

	write(t, x, `{"type":"SetSquare","data":[1,1,"X"]}`)

	var board game.Board
	board.Active = true
	board.Rows[1][1] = game.MarkX
	want := []proto.Packet{proto.BoardUpdate{Board: board}, proto.TurnUpdate{Turn: game.TurnO}}
	assert.Equal(t, want, []proto.Packet{read(t, x), read(t, x)})
	assert.Equal(t, want, []proto.Packet{read(t, o), read(t, o)})

	write(t, o, `{"type":"Message","data":"gg"}`)
	assert.Equal(t, proto.Message{Text: "gg"}, read(t, x))
	assert.Equal(t, proto.Message{Text: "gg"}, read(t, o))
}

func TestServer_OutOfTurnMoveIsRejected(t *testing.T) {
	srv := newTestServer(t)
	_, o := startGame(t, srv, "/lobby")

	write(t, o, `{"type":"SetSquare","data":[0,0,"O"]}`)

	p := read(t, o)
	require.IsType(t, proto.Error{}, p)
	assert.Equal(t, proto.CodeIllegalMove, p.(proto.Error).Code)
}

func TestServer_ThirdClientIsRejectedAndClosed(t *testing.T) {
	srv := newTestServer(t)
	startGame(t, srv, "/lobby")

	late := dial(t, srv, "/lobby")
	assert.Equal(t, proto.Error{Code: proto.CodeGameStarted, Message: "Game has already started"}, read(t, late))

	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := late.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected a normal close, got %v", err)
}

func TestServer_MalformedPayload(t *testing.T) {
	srv := newTestServer(t)
	x, _ := startGame(t, srv, "/lobby")

	write(t, x, `{"type":"SetSquare"}`)

	assert.Equal(t, proto.Error{Code: proto.CodeInvalidRequest, Message: "Invalid request"}, read(t, x))
}

func TestServer_LeavingIsAnnounced(t *testing.T) {
	srv := newTestServer(t)
	x, o := startGame(t, srv, "/lobby")

	require.NoError(t, x.Close())

	assert.Equal(t, proto.Message{Text: "User has left the room"}, read(t, o))
	assert.Eventually(t, func() bool {
		code, snap := getSession(t, srv, "lobby")
		return code == http.StatusOK && snap.Connections == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_SessionSnapshot(t *testing.T) {
	srv := newTestServer(t)
	startGame(t, srv, "/lobby")

	code, snap := getSession(t, srv, "lobby")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "lobby", snap.SessionID)
	assert.True(t, snap.Active)
	assert.Equal(t, game.TurnX, snap.Turn)
	assert.Equal(t, 2, snap.Connections)

	code, _ = getSession(t, srv, "nobody-here")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = getSession(t, srv, "bad%20id")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RejectsBadQueryBeforeUpgrade(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/lobby?opponent=cat"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_BotOpponent(t *testing.T) {
	srv := newTestServer(t)

	human := dial(t, srv, "/solo?opponent=bot&difficulty=hard")
	assert.Equal(t, proto.RoleUpdate{Role: game.TurnX}, read(t, human))
	assert.Equal(t, proto.TurnUpdate{Turn: game.TurnX}, read(t, human))
	assert.Equal(t, proto.BoardUpdate{Board: game.Board{Active: true}}, read(t, human))

	write(t, human, `{"type":"SetSquare","data":[0,0,"X"]}`)
	assert.IsType(t, proto.BoardUpdate{}, read(t, human))
	assert.Equal(t, proto.TurnUpdate{Turn: game.TurnO}, read(t, human))

	// A hard bot answers a corner opening in the center.
	var board game.Board
	board.Active = true
	board.Rows[0][0] = game.MarkX
	board.Rows[1][1] = game.MarkO
	assert.Equal(t, proto.BoardUpdate{Board: board}, read(t, human))
	assert.Equal(t, proto.TurnUpdate{Turn: game.TurnX}, read(t, human))

	require.NoError(t, human.Close())
	assert.Eventually(t, func() bool {
		code, _ := getSession(t, srv, "solo")
		return code == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_CloseConnectionsSendsCloseFrames(t *testing.T) {
	s, srv := newServer(t)
	x, o := startGame(t, srv, "/lobby")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.CloseConnections(ctx))

	for _, conn := range []*websocket.Conn{x, o} {
		// A departure notice may be queued ahead of the close frame.
		var err error
		for err == nil {
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err = conn.ReadMessage()
		}
		assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected a normal close, got %v", err)
	}

	assert.Eventually(t, func() bool {
		code, _ := getSession(t, srv, "lobby")
		return code == http.StatusNotFound
	}, 2*time.Second, 20*time.Millisecond)
}
