package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"animehub-client/internal/models"
)

// APIMock stands in for the REST client.
type APIMock struct {
	mock.Mock
}

func (m *APIMock) Messages(ctx context.Context, chatID models.ID) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *APIMock) CreateMessage(ctx context.Context, draft models.MessageDraft) (models.Message, error) {
	args := m.Called(ctx, draft)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *APIMock) ChatList(ctx context.Context) ([]models.Chat, error) {
	args := m.Called(ctx)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *APIMock) StartChat(ctx context.Context, otherUserID models.ID) (models.Chat, error) {
	args := m.Called(ctx, otherUserID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *APIMock) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	args := m.Called(ctx, query)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *APIMock) Reviews(ctx context.Context) ([]models.Review, error) {
	args := m.Called(ctx)
	return reviews(args.Get(0)), args.Error(1)
}

func (m *APIMock) MyReviews(ctx context.Context) ([]models.Review, error) {
	args := m.Called(ctx)
	return reviews(args.Get(0)), args.Error(1)
}

func (m *APIMock) CreateReview(ctx context.Context, draft models.ReviewDraft) (models.Review, error) {
	args := m.Called(ctx, draft)
	var review models.Review
	if val := args.Get(0); val != nil {
		review = val.(models.Review)
	}
	return review, args.Error(1)
}

func (m *APIMock) UpdateReview(ctx context.Context, id models.ID, draft models.ReviewDraft) (models.Review, error) {
	args := m.Called(ctx, id, draft)
	var review models.Review
	if val := args.Get(0); val != nil {
		review = val.(models.Review)
	}
	return review, args.Error(1)
}

func (m *APIMock) DeleteReview(ctx context.Context, id models.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *APIMock) Me(ctx context.Context) (models.User, error) {
	args := m.Called(ctx)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *APIMock) Profile(ctx context.Context) (models.Profile, error) {
	args := m.Called(ctx)
	var profile models.Profile
	if val := args.Get(0); val != nil {
		profile = val.(models.Profile)
	}
	return profile, args.Error(1)
}

func (m *APIMock) UpdateProfile(ctx context.Context, username, email string) (models.User, error) {
	args := m.Called(ctx, username, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *APIMock) UploadProfilePicture(ctx context.Context, file models.Attachment) (string, error) {
	args := m.Called(ctx, file)
	return args.String(0), args.Error(1)
}

func (m *APIMock) DeleteProfilePicture(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func reviews(val any) []models.Review {
	if val == nil {
		return nil
	}
	return val.([]models.Review)
}

// PushChannelMock stands in for a push transport. Events returns Stream.
type PushChannelMock struct {
	mock.Mock
	Stream chan models.PushMessage
}

func NewPushChannelMock() *PushChannelMock {
	return &PushChannelMock{Stream: make(chan models.PushMessage, 16)}
}

func (m *PushChannelMock) Join(ctx context.Context, chatID models.ID) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *PushChannelMock) Emit(ctx context.Context, msg models.PushMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *PushChannelMock) Events() <-chan models.PushMessage {
	return m.Stream
}

func (m *PushChannelMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

type PendingStoreMock struct {
	mock.Mock
}

func (m *PendingStoreMock) Load(ctx context.Context) (models.PendingChat, bool, error) {
	args := m.Called(ctx)
	var pending models.PendingChat
	if val := args.Get(0); val != nil {
		pending = val.(models.PendingChat)
	}
	return pending, args.Bool(1), args.Error(2)
}

func (m *PendingStoreMock) Save(ctx context.Context, pending models.PendingChat) error {
	args := m.Called(ctx, pending)
	return args.Error(0)
}

func (m *PendingStoreMock) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ interface {
	Messages(context.Context, models.ID) ([]models.Message, error)
	CreateMessage(context.Context, models.MessageDraft) (models.Message, error)
	ChatList(context.Context) ([]models.Chat, error)
	StartChat(context.Context, models.ID) (models.Chat, error)
	SearchUsers(context.Context, string) ([]models.User, error)
} = (*APIMock)(nil)
var _ interface {
	Join(context.Context, models.ID) error
	Emit(context.Context, models.PushMessage) error
	Events() <-chan models.PushMessage
	Close() error
} = (*PushChannelMock)(nil)

// PublisherMock stands in for the activity publisher.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Published returns the events handed to Publish under routingKey, in call
// order.
func (m *PublisherMock) Published(routingKey string) []any {
	var events []any
	for _, call := range m.Calls {
		if call.Method == "Publish" && call.Arguments.String(1) == routingKey {
			events = append(events, call.Arguments.Get(2))
		}
	}
	return events
}
