package api

import (
	"context"
	"net/http"

	"animehub-client/internal/models"
)

func (c *Client) ChatList(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/one-on-one/chatlist", path: "/api/one-on-one/chatlist"}, &chats)
	return chats, err
}

// StartChat returns the chat with otherUserID, creating it when needed.
func (c *Client) StartChat(ctx context.Context, otherUserID models.ID) (models.Chat, error) {
	var chat models.Chat
	req, err := jsonRequest(http.MethodPost, "/api/one-on-one/", "/api/one-on-one/", map[string]string{
		"otherUserId": otherUserID.String(),
	})
	if err != nil {
		return chat, err
	}
	err = c.do(ctx, req, &chat)
	return chat, err
}
