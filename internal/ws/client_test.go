package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"animehub-client/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoServer relays sendMessage frames back as receiveMessage and records
// every frame it reads.
func echoServer(t *testing.T) (string, <-chan Frame, <-chan string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	frames := make(chan Frame, 16)
	cookies := make(chan string, 1)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		cookies <- c.GetHeader("Cookie")
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_ = conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		_ = conn.WriteJSON(Frame{Event: "typing", Data: json.RawMessage(`{}`)})

		for {
			var frame Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			frames <- frame
			if frame.Event == EventSendMessage {
				_ = conn.WriteJSON(Frame{Event: EventReceiveMessage, Data: frame.Data})
			}
		}
	})
	r.GET("/hangup", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
		conn.Close()
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL, frames, cookies
}

func TestEndpoint(t *testing.T) {
	got, err := Endpoint("http://localhost:3000", "/ws")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:3000/ws", got)

	got, err = Endpoint("https://animehub.example/api/", "push")
	require.NoError(t, err)
	assert.Equal(t, "wss://animehub.example/api/push", got)

	_, err = Endpoint("ftp://example.com", "/ws")
	require.Error(t, err)
}

func TestClientJoinEmitReceive(t *testing.T) {
	base, frames, cookies := echoServer(t)
	endpoint, err := Endpoint(base, "/ws")
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Cookie", "connect.sid=s1")
	client, err := Dial(context.Background(), endpoint, header, nil)
	require.NoError(t, err)
	assert.Equal(t, "connect.sid=s1", <-cookies)

	ctx := context.Background()
	require.NoError(t, client.Join(ctx, "C1"))
	join := <-frames
	assert.Equal(t, EventJoinChat, join.Event)
	assert.JSONEq(t, `"C1"`, string(join.Data))

	sent := models.PushMessage{ChatID: "C1", Content: "hi", SenderID: "U2", SenderName: "bob"}
	require.NoError(t, client.Emit(ctx, sent))
	assert.Equal(t, EventSendMessage, (<-frames).Event)

	select {
	case got := <-client.Events():
		assert.Equal(t, sent, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no receiveMessage delivered")
	}

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())
	_, open := <-client.Events()
	assert.False(t, open)
	assert.ErrorIs(t, client.Join(ctx, "C1"), ErrClosed)
}

func TestClientEventsCloseWhenServerHangsUp(t *testing.T) {
	base, _, _ := echoServer(t)
	endpoint, err := Endpoint(base, "/hangup")
	require.NoError(t, err)

	client, err := Dial(context.Background(), endpoint, nil, nil)
	require.NoError(t, err)

	select {
	case _, open := <-client.Events():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after server hangup")
	}
	require.NoError(t, client.Close())
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", nil, nil)
	require.Error(t, err)
}
