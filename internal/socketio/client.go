package socketio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
	"go.uber.org/zap"

	"animehub-client/internal/models"
	"animehub-client/internal/observability"
)

// Transport is the label used in metrics and push events.
const Transport = "socketio"

const (
	EventJoinChat       = "joinChat"
	EventSendMessage    = "sendMessage"
	EventReceiveMessage = "receiveMessage"
)

var ErrClosed = errors.New("socket.io push channel closed")

// Client is a push channel over socket.io. The underlying manager reconnects
// on its own, so Events stays open until Close.
type Client struct {
	sock   *socket.Socket
	info   observability.PushConn
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	events chan models.PushMessage
	done   chan struct{}
	once   sync.Once
}

type Option func(*socket.Options)

// WithPath overrides the engine.io path (default /socket.io/).
func WithPath(path string) Option {
	return func(o *socket.Options) {
		if path != "" {
			o.SetPath(path)
		}
	}
}

// Dial connects to the socket.io server at baseURL presenting header (the
// session cookie) and waits for the namespace handshake.
func Dial(ctx context.Context, baseURL string, header http.Header, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, span := observability.Tracer("socketio").Start(ctx, "push.dial")
	defer span.End()

	o := socket.DefaultOptions()
	o.SetTransports(types.NewSet(transports.Polling, transports.WebSocket))
	o.SetForceNew(true)
	o.SetAutoConnect(false)
	if header != nil {
		o.SetExtraHeaders(header)
	}
	for _, opt := range opts {
		opt(o)
	}

	sock, err := socket.Io(baseURL, o)
	if err != nil {
		return nil, fmt.Errorf("socket.io %s: %w", baseURL, err)
	}

	info := observability.NewPushConn(Transport, baseURL)
	info.TraceID = span.SpanContext().TraceID().String()

	c := &Client{
		sock:   sock,
		info:   info,
		logger: logger.With(zap.String("transport", Transport), zap.String("conn_id", info.ConnID)),
		events: make(chan models.PushMessage, 32),
		done:   make(chan struct{}),
	}

	ready := make(chan error, 1)
	signal := func(err error) {
		select {
		case ready <- err:
		default:
		}
	}

	_ = sock.On("connect", func(...any) {
		observability.SetPushConnected(Transport, true)
		observability.PublishPushEvent(context.Background(), c.info, "push_connect", nil)
		c.logger.Info("push channel connected", zap.String("id", sock.Id()))
		signal(nil)
	})
	_ = sock.On("connect_error", func(args ...any) {
		err := argError(args)
		observability.PublishPushEvent(context.Background(), c.info, "push_error", err)
		c.logger.Warn("push channel connect failed", zap.Error(err))
		signal(err)
	})
	_ = sock.On("disconnect", func(args ...any) {
		observability.SetPushConnected(Transport, false)
		observability.PublishPushEvent(context.Background(), c.info, "push_disconnect", argError(args))
		c.logger.Info("push channel disconnected")
	})
	_ = sock.On(EventReceiveMessage, func(args ...any) {
		c.receive(args)
	})

	sock.Connect()

	select {
	case err := <-ready:
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("socket.io %s: %w", baseURL, err)
		}
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
	return c, nil
}

// Join subscribes the connection to a chat room.
func (c *Client) Join(ctx context.Context, chatID models.ID) error {
	return c.emit(ctx, EventJoinChat, chatID.String())
}

// Emit announces a sent message to the other participants.
func (c *Client) Emit(ctx context.Context, msg models.PushMessage) error {
	payload, err := toMap(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", EventSendMessage, err)
	}
	return c.emit(ctx, EventSendMessage, payload)
}

func (c *Client) Events() <-chan models.PushMessage {
	return c.events
}

// Close disconnects and closes the Events channel.
func (c *Client) Close() error {
	c.once.Do(func() {
		close(c.done)
		c.sock.Disconnect()

		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()

		observability.SetPushConnected(Transport, false)
	})
	return nil
}

func (c *Client) emit(ctx context.Context, event string, data any) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Emits made while reconnecting are buffered by the socket.
	if err := c.sock.Emit(event, data); err != nil {
		observability.PublishPushEvent(context.Background(), c.info, "push_error", err)
		return fmt.Errorf("emit %s: %w", event, err)
	}
	observability.IncPushEvent(Transport, event)
	return nil
}

func (c *Client) receive(args []any) {
	if len(args) == 0 {
		return
	}
	msg, err := decodePush(args[0])
	if err != nil {
		c.logger.Debug("ignoring malformed receiveMessage", zap.Error(err))
		return
	}
	observability.IncPushEvent(Transport, EventReceiveMessage)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- msg:
	case <-c.done:
	}
}

// decodePush accepts the decoded JSON value the parser hands to listeners.
func decodePush(v any) (models.PushMessage, error) {
	var raw []byte
	switch t := v.(type) {
	case string:
		raw = []byte(t)
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return models.PushMessage{}, err
		}
		raw = b
	}

	var msg models.PushMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return models.PushMessage{}, err
	}
	return msg, nil
}

func toMap(msg models.PushMessage) (map[string]any, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func argError(args []any) error {
	if len(args) == 0 {
		return nil
	}
	switch v := args[0].(type) {
	case nil:
		return nil
	case error:
		return v
	case string:
		return errors.New(v)
	default:
		return fmt.Errorf("%v", v)
	}
}
