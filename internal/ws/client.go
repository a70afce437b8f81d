package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"animehub-client/internal/models"
	"animehub-client/internal/observability"
)

// Transport is the label used in metrics and push events.
const Transport = "websocket"

const (
	EventJoinChat       = "joinChat"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
)

const writeWait = 10 * time.Second

var ErrClosed = errors.New("websocket push channel closed")

// Frame is the JSON envelope exchanged over the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client is a push channel over a plain JSON websocket.
type Client struct {
	conn   *websocket.Conn
	info   observability.PushConn
	logger *zap.Logger

	events   chan models.PushMessage
	writeMu  sync.Mutex
	done     chan struct{}
	readDone chan struct{}
	once     sync.Once
}

// Endpoint derives the websocket URL from the REST base URL.
func Endpoint(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("parse base url: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String(), nil
}

// Dial connects to endpoint presenting header (the session cookie) and
// starts the read loop.
func Dial(ctx context.Context, endpoint string, header http.Header, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, span := observability.Tracer("ws").Start(ctx, "push.dial")
	defer span.End()

	info := observability.NewPushConn(Transport, endpoint)
	info.TraceID = span.SpanContext().TraceID().String()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		observability.PublishPushEvent(ctx, info, "push_error", err)
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}

	c := &Client{
		conn:     conn,
		info:     info,
		logger:   logger.With(zap.String("transport", Transport), zap.String("conn_id", info.ConnID)),
		events:   make(chan models.PushMessage, 32),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}

	observability.SetPushConnected(Transport, true)
	observability.PublishPushEvent(ctx, info, "push_connect", nil)
	c.logger.Info("push channel connected", zap.String("endpoint", endpoint))

	go c.readLoop()
	return c, nil
}

// Join subscribes the connection to a chat room.
func (c *Client) Join(ctx context.Context, chatID models.ID) error {
	return c.send(ctx, EventJoinChat, chatID)
}

// Emit announces a sent message to the other participants.
func (c *Client) Emit(ctx context.Context, msg models.PushMessage) error {
	return c.send(ctx, EventSendMessage, msg)
}

// Events yields inbound receiveMessage payloads. The channel is closed when
// the connection ends.
func (c *Client) Events() <-chan models.PushMessage {
	return c.events
}

// Close shuts the connection down and waits for the read loop to exit.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)

		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.conn.Close()
		<-c.readDone
	})
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Client) send(ctx context.Context, event string, data any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	payload, err := json.Marshal(Frame{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		observability.PublishPushEvent(context.Background(), c.info, "push_error", err)
		return fmt.Errorf("write %s: %w", event, err)
	}
	observability.IncPushEvent(Transport, event)
	return nil
}

func (c *Client) readLoop() {
	var reason error
	defer func() {
		close(c.events)
		observability.SetPushConnected(Transport, false)
		observability.PublishPushEvent(context.Background(), c.info, "push_disconnect", reason)
		close(c.readDone)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					reason = err
					c.logger.Warn("push channel read failed", zap.Error(err))
				}
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Debug("ignoring malformed frame", zap.Error(err))
			continue
		}
		if frame.Event != EventReceiveMessage {
			c.logger.Debug("ignoring frame", zap.String("event", frame.Event))
			continue
		}

		var msg models.PushMessage
		if err := json.Unmarshal(frame.Data, &msg); err != nil {
			c.logger.Debug("ignoring malformed receiveMessage", zap.Error(err))
			continue
		}
		observability.IncPushEvent(Transport, EventReceiveMessage)

		select {
		case c.events <- msg:
		case <-c.done:
			return
		}
	}
}
