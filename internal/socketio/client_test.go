package socketio

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sio "github.com/zishang520/socket.io/v2/socket"

	"animehub-client/internal/models"
)

type relay struct {
	url     string
	joined  chan string
	cookies chan string
}

// newRelay starts a socket.io server that joins rooms on joinChat and
// echoes sendMessage back as receiveMessage.
func newRelay(t *testing.T) *relay {
	t.Helper()
	r := &relay{joined: make(chan string, 4), cookies: make(chan string, 4)}

	server := sio.NewServer(nil, nil)
	_ = server.On("connection", func(clients ...any) {
		client := clients[0].(*sio.Socket)
		r.cookies <- headerValue(client.Handshake().Headers, "Cookie")

		_ = client.On(EventJoinChat, func(args ...any) {
			room := fmt.Sprint(args[0])
			client.Join(sio.Room(room))
			r.joined <- room
		})
		_ = client.On(EventSendMessage, func(args ...any) {
			_ = client.Emit(EventReceiveMessage, args[0])
		})
	})

	srv := httptest.NewServer(server.ServeHandler(nil))
	t.Cleanup(func() {
		server.Close(nil)
		srv.Close()
	})
	r.url = srv.URL
	return r
}

func headerValue(headers map[string][]string, key string) string {
	if v := http.Header(headers).Get(key); v != "" {
		return v
	}
	for k, vs := range headers {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func TestClientJoinEmitReceive(t *testing.T) {
	relay := newRelay(t)

	header := http.Header{}
	header.Set("Cookie", "connect.sid=s1")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, relay.url, header, nil)
	require.NoError(t, err)
	defer client.Close()

	select {
	case cookie := <-relay.cookies:
		assert.Contains(t, cookie, "connect.sid=s1")
	case <-time.After(5 * time.Second):
		t.Fatal("server saw no connection")
	}

	require.NoError(t, client.Join(ctx, "C1"))
	select {
	case room := <-relay.joined:
		assert.Equal(t, "C1", room)
	case <-time.After(5 * time.Second):
		t.Fatal("joinChat not received")
	}

	sent := models.PushMessage{ChatID: "C1", Content: "hi", SenderID: "U2", SenderName: "bob"}
	require.NoError(t, client.Emit(ctx, sent))

	select {
	case got := <-client.Events():
		assert.Equal(t, sent, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no receiveMessage delivered")
	}

	require.NoError(t, client.Close())
	_, open := <-client.Events()
	assert.False(t, open)
	assert.ErrorIs(t, client.Join(ctx, "C1"), ErrClosed)
}

func TestDialHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := Dial(ctx, "http://127.0.0.1:1", nil, nil)
	require.Error(t, err)
}

func TestDecodePush(t *testing.T) {
	msg, err := decodePush(map[string]any{
		"chatId":   "C1",
		"content":  "hello",
		"senderId": map[string]any{"_id": "U2"},
		"username": "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("C1"), msg.ChatID)
	assert.Equal(t, models.ID("U2"), msg.SenderID)
	assert.Equal(t, "bob", msg.ToMessage().SenderName)

	msg, err = decodePush(`{"chatId":"C2","imageUrl":"/uploads/a.png"}`)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", msg.ImageURL)

	_, err = decodePush(42)
	require.Error(t, err)
}

func TestToMapRoundTripsWireNames(t *testing.T) {
	m, err := toMap(models.PushMessage{ChatID: "C1", Content: "x", SenderID: "U1"})
	require.NoError(t, err)
	assert.Equal(t, "C1", m["chatId"])
	assert.Equal(t, "U1", m["senderId"])
	_, hasImage := m["imageUrl"]
	assert.False(t, hasImage)
	_, hasCreated := m["createdAt"]
	assert.False(t, hasCreated)

	m, err = toMap(models.PushMessage{ChatID: "C1", Content: "x", SenderID: "U1", MessageID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "m1", m["messageId"])
}
