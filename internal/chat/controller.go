package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"animehub-client/internal/api"
	"animehub-client/internal/models"
	"animehub-client/internal/observability"
	"animehub-client/internal/render"
	"animehub-client/internal/telemetry"
)

// API is the slice of the REST client the controller needs.
type API interface {
	Messages(ctx context.Context, chatID models.ID) ([]models.Message, error)
	CreateMessage(ctx context.Context, draft models.MessageDraft) (models.Message, error)
}

// PushChannel is a live message transport. Events is closed when the
// channel shuts down.
type PushChannel interface {
	Join(ctx context.Context, chatID models.ID) error
	Emit(ctx context.Context, msg models.PushMessage) error
	Events() <-chan models.PushMessage
	Close() error
}

type PendingStore interface {
	Load(ctx context.Context) (models.PendingChat, bool, error)
	Save(ctx context.Context, pending models.PendingChat) error
	Clear(ctx context.Context) error
}

type Activity interface {
	Emit(ctx context.Context, eventType string, userID models.ID, payload telemetry.ActivityPayload)
}

// View receives the message pane whenever it changes. It must not call
// Open, Send or Reset.
type View func(render.Pane)

type phase int

const (
	phaseNoChat phase = iota
	phaseLoading
	phaseOpen
)

func (p phase) String() string {
	switch p {
	case phaseLoading:
		return "history_loading"
	case phaseOpen:
		return "open"
	default:
		return "no_chat_open"
	}
}

// Controller owns one conversation view: the active chat, its message
// buffer and the pending chat pointer. It is safe for concurrent use.
type Controller struct {
	api      API
	push     PushChannel
	pending  PendingStore
	activity Activity
	logger   *zap.Logger
	tracer   trace.Tracer
	origin   string

	viewMu sync.Mutex
	view   View

	mu          sync.Mutex
	session     models.User
	phase       phase
	chatID      models.ID
	counterpart models.User
	generation  uint64
	buf         []models.Message
	held        []models.Message
	sending     bool
	errText     string
}

type Option func(*Controller)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOrigin sets the API origin used to resolve relative media paths.
func WithOrigin(origin string) Option {
	return func(c *Controller) {
		c.origin = origin
	}
}

func WithActivity(activity Activity) Option {
	return func(c *Controller) {
		c.activity = activity
	}
}

func WithView(view View) Option {
	return func(c *Controller) {
		c.view = view
	}
}

// NewController builds a controller for session. A zero session is allowed;
// Send then fails with ErrNoSession.
func NewController(client API, push PushChannel, pending PendingStore, session models.User, opts ...Option) *Controller {
	c := &Controller{
		api:     client,
		push:    push,
		pending: pending,
		session: session,
		logger:  zap.NewNop(),
		tracer:  observability.Tracer("chat"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) SetView(view View) {
	c.viewMu.Lock()
	c.view = view
	c.viewMu.Unlock()
}

func (c *Controller) Session() models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// ActiveChat returns the open chat id, empty when none.
func (c *Controller) ActiveChat() models.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chatID
}

// Buffer returns a copy of the local message buffer.
func (c *Controller) Buffer() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Message(nil), c.buf...)
}

// Open makes chat the active conversation and loads its history. The buffer
// is cleared first; on success it holds exactly the server history followed
// by any live messages that arrived while loading.
func (c *Controller) Open(ctx context.Context, chat models.Chat, counterpart models.User) error {
	ctx, span := c.tracer.Start(ctx, "chat.Open", trace.WithAttributes(attribute.String("chat_id", chat.ID.String())))
	defer span.End()

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.phase = phaseLoading
	c.chatID = chat.ID
	c.counterpart = counterpart
	c.buf = nil
	c.held = nil
	c.errText = ""
	session := c.session
	c.mu.Unlock()
	c.notify()

	log := c.logger.With(zap.String("chat_id", chat.ID.String()))

	if err := c.push.Join(ctx, chat.ID); err != nil {
		log.Warn("join push room failed", zap.Error(err))
	}
	if err := c.pending.Save(ctx, models.PendingChat{
		ChatID:           chat.ID,
		ReceiverID:       counterpart.ID,
		ReceiverUsername: counterpart.Username,
		ReceiverProfile:  counterpart.Picture(),
	}); err != nil {
		log.Warn("persist pending chat failed", zap.Error(err))
	}
	c.emit(ctx, telemetry.EventChatOpened, session.ID, telemetry.ActivityPayload{ChatID: chat.ID.String()})

	history, err := c.api.Messages(ctx, chat.ID)

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		log.Debug("discarding stale history")
		return ErrSuperseded
	}
	c.phase = phaseOpen
	if err != nil {
		c.held = nil
		c.errText = describe("load messages", err)
		c.mu.Unlock()
		c.notify()
		span.RecordError(err)
		log.Warn("load history failed", zap.Error(err))
		return fmt.Errorf("load history: %w", err)
	}

	buf := make([]models.Message, 0, len(history)+len(c.held))
	for _, msg := range history {
		if !msg.Valid() {
			log.Debug("skipping message without content or image", zap.String("message_id", msg.ID.String()))
			continue
		}
		buf = append(buf, msg)
	}
	c.buf = mergeHeld(buf, c.held)
	c.held = nil
	c.mu.Unlock()

	c.notify()
	return nil
}

// mergeHeld appends live messages received during loading, skipping those the
// tail of history already contains.
func mergeHeld(history, held []models.Message) []models.Message {
	if len(held) == 0 {
		return history
	}
	start := len(history) - len(held)
	if start < 0 {
		start = 0
	}
	consumed := make([]bool, len(history)-start)

	for _, msg := range held {
		dup := false
		for i, tail := range history[start:] {
			if !consumed[i] && sameMessage(tail, msg) {
				consumed[i] = true
				dup = true
				break
			}
		}
		if !dup {
			history = append(history, msg)
		}
	}
	return history
}

// sameMessage prefers the message id, then the creation time. Payloads from
// peers that send neither fall back to sender and content, so a repeated
// identical message during loading collapses into the history copy.
func sameMessage(a, b models.Message) bool {
	if !a.ID.IsZero() && !b.ID.IsZero() {
		return a.ID == b.ID
	}
	if !a.CreatedAt.IsZero() && !b.CreatedAt.IsZero() && !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	return models.SameID(a.SenderID, b.SenderID) && a.Content == b.Content && a.ImageURL == b.ImageURL
}

// Send validates and submits a message to the active chat. On success the
// server's stored version is appended and broadcast to the counterpart.
func (c *Controller) Send(ctx context.Context, text string, image *models.Attachment) error {
	text = strings.TrimSpace(text)
	if image != nil && image.Size() == 0 {
		image = nil
	}
	if text == "" && image == nil {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	switch {
	case c.phase == phaseNoChat:
		c.mu.Unlock()
		return ErrNoChatOpen
	case c.session.ID.IsZero():
		c.mu.Unlock()
		return ErrNoSession
	}
	if err := image.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.sending {
		c.mu.Unlock()
		return ErrSendInProgress
	}
	c.sending = true
	gen := c.generation
	chatID := c.chatID
	counterpart := c.counterpart
	session := c.session
	c.mu.Unlock()
	c.notify()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
		c.notify()
	}()

	ctx, span := c.tracer.Start(ctx, "chat.Send", trace.WithAttributes(attribute.String("chat_id", chatID.String())))
	defer span.End()
	log := c.logger.With(zap.String("chat_id", chatID.String()))

	saved, err := c.api.CreateMessage(ctx, models.MessageDraft{
		ChatID:    chatID,
		ChatModel: models.ChatModelDirect,
		Content:   text,
		Image:     image,
	})
	if err != nil {
		c.mu.Lock()
		if c.generation == gen {
			c.errText = describe("send message", err)
		}
		c.mu.Unlock()
		span.RecordError(err)
		log.Warn("send message failed", zap.Error(err))
		return fmt.Errorf("send message: %w", err)
	}

	confirmed := models.Message{
		ID:            saved.ID,
		ChatID:        chatID,
		SenderID:      session.ID,
		SenderName:    session.Username,
		SenderPicture: session.ProfilePicture,
		SenderAvatar:  session.Avatar,
		Content:       saved.Content,
		ImageURL:      saved.ImageURL,
		CreatedAt:     saved.CreatedAt,
	}
	if !confirmed.Valid() {
		log.Warn("server returned message without content or image", zap.String("message_id", saved.ID.String()))
		return nil
	}

	c.mu.Lock()
	switch {
	case c.generation != gen:
		log.Debug("chat changed during send, not appending")
	case c.phase == phaseLoading:
		c.held = append(c.held, confirmed)
	default:
		c.errText = ""
		c.buf = append(c.buf, confirmed)
	}
	c.mu.Unlock()

	if err := c.push.Emit(ctx, models.PushMessage{
		ChatID:         chatID,
		Content:        confirmed.Content,
		ImageURL:       confirmed.ImageURL,
		SenderID:       session.ID,
		SenderName:     session.Username,
		Username:       session.Username,
		ProfilePicture: session.ProfilePicture,
		Avatar:         session.Avatar,
		ReceiverID:     counterpart.ID,
		MessageID:      confirmed.ID,
		CreatedAt:      confirmed.CreatedAt,
	}); err != nil {
		log.Warn("broadcast message failed", zap.Error(err))
	}
	c.emit(ctx, telemetry.EventMessageSent, session.ID, telemetry.ActivityPayload{ChatID: chatID.String()})
	return nil
}

// ReceivePush applies a live message. It reports whether the buffer changed.
// Messages for other chats and echoes of the caller's own messages are
// ignored; messages arriving while history loads are held until it lands.
func (c *Controller) ReceivePush(msg models.PushMessage) bool {
	c.mu.Lock()
	outcome := c.classify(msg)
	switch outcome {
	case "held":
		c.held = append(c.held, msg.ToMessage())
	case "accepted":
		c.buf = append(c.buf, msg.ToMessage())
	}
	chatID := c.chatID
	session := c.session.ID
	ph := c.phase
	c.mu.Unlock()

	observability.IncPushMessage(outcome)
	c.logger.Debug("push message",
		zap.String("outcome", outcome),
		zap.Stringer("phase", ph),
		zap.String("chat_id", msg.ChatID.String()),
		zap.String("sender_id", msg.SenderID.String()),
	)
	if outcome != "accepted" {
		return false
	}

	c.emit(context.Background(), telemetry.EventMessageReceived, session, telemetry.ActivityPayload{ChatID: chatID.String()})
	c.notify()
	return true
}

func (c *Controller) classify(msg models.PushMessage) string {
	switch {
	case c.phase == phaseNoChat:
		return "no_chat_open"
	case !models.SameID(msg.ChatID, c.chatID):
		return "other_chat"
	case models.SameID(msg.SenderID, c.session.ID):
		return "self_echo"
	case !msg.ToMessage().Valid():
		return "invalid"
	case c.phase == phaseLoading:
		return "held"
	default:
		return "accepted"
	}
}

// Run feeds push events into ReceivePush until ctx ends or the channel
// closes.
func (c *Controller) Run(ctx context.Context) error {
	events := c.push.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			c.ReceivePush(msg)
		}
	}
}

// Render builds the current message pane.
func (c *Controller) Render() render.Pane {
	c.mu.Lock()
	defer c.mu.Unlock()
	return render.Messages(c.buf, c.session, c.origin, render.State{
		Active:  c.phase != phaseNoChat,
		Title:   c.title(),
		Loading: c.phase == phaseLoading,
		Sending: c.sending,
		Err:     c.errText,
	})
}

func (c *Controller) title() string {
	if c.phase == phaseNoChat {
		return ""
	}
	return c.counterpart.DisplayName()
}

// RestorePendingChat reopens the last open chat from the pending pointer,
// trusting the cached counterpart. A pointer with a malformed chat id is
// discarded. It reports whether a chat was opened.
func (c *Controller) RestorePendingChat(ctx context.Context) (bool, error) {
	pending, ok, err := c.pending.Load(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if !pending.Valid() {
		c.logger.Debug("discarding pending chat with malformed id", zap.String("chat_id", pending.ChatID.String()))
		return false, c.pending.Clear(ctx)
	}

	counterpart := pending.Counterpart()
	chat := models.Chat{ID: pending.ChatID, Members: []models.User{c.Session(), counterpart}}
	return true, c.Open(ctx, chat, counterpart)
}

// Reset closes the active chat. In-flight history and sends for it are
// dropped when they complete.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.generation++
	c.phase = phaseNoChat
	c.chatID = ""
	c.counterpart = models.User{}
	c.buf = nil
	c.held = nil
	c.errText = ""
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.viewMu.Lock()
	defer c.viewMu.Unlock()
	if c.view == nil {
		return
	}
	c.view(c.Render())
}

func (c *Controller) emit(ctx context.Context, eventType string, userID models.ID, payload telemetry.ActivityPayload) {
	if c.activity == nil {
		return
	}
	c.activity.Emit(ctx, eventType, userID, payload)
}

// describe turns an error into the banner text shown in the pane.
func describe(action string, err error) string {
	var statusErr *api.StatusError
	var apiErr *api.Error
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		return "Your session has expired. Please log in again."
	case errors.As(err, &apiErr):
		return "Failed to " + action + ": " + apiErr.Error()
	case errors.As(err, &statusErr):
		return "Failed to " + action + ": " + statusErr.Error()
	default:
		return "Failed to " + action + ". Please try again."
	}
}
