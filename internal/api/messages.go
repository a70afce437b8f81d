package api

import (
	"context"
	"fmt"
	"net/http"

	"animehub-client/internal/models"
)

// Messages returns the chat history in server order.
func (c *Client) Messages(ctx context.Context, chatID models.ID) ([]models.Message, error) {
	var msgs []models.Message
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/api/messages/chat/:chatId",
		path:   "/api/messages/chat/" + chatID.String(),
	}, &msgs)
	return msgs, err
}

// CreateMessage submits a message as multipart form data and returns the
// stored message.
func (c *Client) CreateMessage(ctx context.Context, draft models.MessageDraft) (models.Message, error) {
	chatModel := draft.ChatModel
	if chatModel == "" {
		chatModel = models.ChatModelDirect
	}
	fields := []formField{
		{name: "chat", value: draft.ChatID.String()},
		{name: "chatModel", value: chatModel},
	}
	if draft.Content != "" {
		fields = append(fields, formField{name: "content", value: draft.Content})
	}

	body, contentType, err := buildMultipart(fields, "image", draft.Image)
	if err != nil {
		return models.Message{}, fmt.Errorf("encode message: %w", err)
	}

	var msg models.Message
	err = c.do(ctx, request{
		method:      http.MethodPost,
		route:       "/api/messages",
		path:        "/api/messages",
		body:        body,
		contentType: contentType,
	}, &msg)
	return msg, err
}
