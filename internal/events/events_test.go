package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ctchen222/tictactoe-hub/internal/db"
	"ctchen222/tictactoe-hub/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(TypePlayerJoined, "lobby", PlayerJoinedPayload{ConnID: "c1", Role: game.TurnX})
	require.NoError(t, err)

	assert.Equal(t, TypePlayerJoined, ev.Type)
	assert.Equal(t, "lobby", ev.SessionID)
	assert.JSONEq(t, `{"conn_id":"c1","role":"X"}`, string(ev.Payload))

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"player_joined","session_id":"lobby","payload":{"conn_id":"c1","role":"X"}}`, string(data))
}

func TestSessionChannel(t *testing.T) {
	assert.Equal(t, "channel:session:abc", SessionChannel("abc"))
}

func TestRedisPublisher_DropsWhenQueueFull(t *testing.T) {
	p := NewRedisPublisher(nil, 1)

	p.Publish(context.Background(), Event{Type: TypePlayerLeft, SessionID: "s"})
	p.Publish(context.Background(), Event{Type: TypeBoardUpdated, SessionID: "s"})

	require.Len(t, p.queue, 1)
	assert.Equal(t, TypePlayerLeft, (<-p.queue).Type)
}

func TestRedisPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	connString, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)

	rdb, err := db.NewRedisClient(ctx, connString)
	require.NoError(t, err)
	defer rdb.Close()

	sub := rdb.Subscribe(ctx, SessionChannel("lobby"))
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := NewRedisPublisher(rdb, 0)
	go p.Run(runCtx)

	ev, err := NewEvent(TypeSessionStarted, "lobby", SessionStartedPayload{Turn: game.TurnX})
	require.NoError(t, err)
	p.Publish(ctx, ev)

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, TypeSessionStarted, got.Type)
		assert.Equal(t, "lobby", got.SessionID)
		assert.JSONEq(t, `{"turn":"X"}`, string(got.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}
