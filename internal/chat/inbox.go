package chat

import (
	"context"
	"fmt"

	"animehub-client/internal/models"
	"animehub-client/internal/render"
)

type InboxAPI interface {
	ChatList(ctx context.Context) ([]models.Chat, error)
	StartChat(ctx context.Context, otherUserID models.ID) (models.Chat, error)
}

// Inbox lists the caller's chats and starts new ones.
type Inbox struct {
	api        InboxAPI
	controller *Controller
	origin     string
}

func NewInbox(client InboxAPI, controller *Controller, origin string) *Inbox {
	return &Inbox{api: client, controller: controller, origin: origin}
}

// Load returns one entry per chat that has a counterpart.
func (i *Inbox) Load(ctx context.Context) ([]render.ChatEntry, error) {
	chats, err := i.api.ChatList(ctx)
	if err != nil {
		return nil, fmt.Errorf("load chats: %w", err)
	}
	return render.ChatList(chats, i.controller.Session().ID, i.origin), nil
}

// Start creates or fetches the chat with user and opens it. A populated
// member in the response replaces a bare user reference.
func (i *Inbox) Start(ctx context.Context, user models.User) error {
	chat, err := i.api.StartChat(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("start chat: %w", err)
	}
	if user.Username == "" {
		if other, ok := chat.Counterpart(i.controller.Session().ID); ok && models.SameID(other.ID, user.ID) {
			user = other
		}
	}
	return i.controller.Open(ctx, chat, user)
}

// OpenEntry opens a chat picked from the list.
func (i *Inbox) OpenEntry(ctx context.Context, entry render.ChatEntry) error {
	return i.controller.Open(ctx, entry.Chat, entry.User)
}
