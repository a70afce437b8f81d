package models

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// MaxImageBytes caps message, review and profile picture uploads.
const MaxImageBytes = 5 << 20

var (
	ErrImageTooLarge = errors.New("image must be 5 MB or smaller")
	ErrNotImage      = errors.New("attachment must be an image")
)

// ChatModelDirect is the chat model name the backend expects for one-on-one chats.
const ChatModelDirect = "DirectMessage"

// Message represents a chat message in its canonical client shape.
type Message struct {
	ID            ID        `json:"id,omitempty"`
	ChatID        ID        `json:"chatId,omitempty"`
	SenderID      ID        `json:"senderId"`
	SenderName    string    `json:"senderName,omitempty"`
	SenderPicture string    `json:"senderPicture,omitempty"`
	SenderAvatar  string    `json:"senderAvatar,omitempty"`
	Content       string    `json:"content,omitempty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// Valid reports whether the message has text, an image, or both.
func (m Message) Valid() bool {
	return m.Content != "" || m.ImageURL != ""
}

// UnmarshalJSON decodes the backend message document, whose sender is either
// a populated user or a bare id.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        ID        `json:"_id"`
		Chat      ID        `json:"chat"`
		Sender    User      `json:"sender"`
		Content   *string   `json:"content"`
		ImageURL  *string   `json:"imageUrl"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = Message{
		ID:            wire.ID,
		ChatID:        wire.Chat,
		SenderID:      wire.Sender.ID,
		SenderName:    wire.Sender.Username,
		SenderPicture: wire.Sender.ProfilePicture,
		SenderAvatar:  wire.Sender.Avatar,
		CreatedAt:     wire.CreatedAt,
	}
	if wire.Content != nil {
		m.Content = *wire.Content
	}
	if wire.ImageURL != nil {
		m.ImageURL = *wire.ImageURL
	}
	return nil
}

// Attachment is an image attached to an outgoing message, review or profile.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Size returns the attachment size in bytes.
func (a *Attachment) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// MediaType returns the declared content type, sniffing the data when none
// was declared.
func (a *Attachment) MediaType() string {
	if a == nil {
		return ""
	}
	if a.ContentType != "" {
		return a.ContentType
	}
	return http.DetectContentType(a.Data)
}

// Validate enforces the upload limits shared by every image field.
func (a *Attachment) Validate() error {
	if a == nil {
		return nil
	}
	if a.Size() > MaxImageBytes {
		return ErrImageTooLarge
	}
	if !strings.HasPrefix(a.MediaType(), "image/") {
		return ErrNotImage
	}
	return nil
}

// MessageDraft is the multipart submission for a new message.
type MessageDraft struct {
	ChatID    ID
	ChatModel string
	Content   string
	Image     *Attachment
}

// PushMessage is the payload carried by sendMessage and receiveMessage events.
type PushMessage struct {
	ChatID         ID     `json:"chatId"`
	Content        string `json:"content,omitempty"`
	ImageURL       string `json:"imageUrl,omitempty"`
	SenderID       ID     `json:"senderId"`
	SenderName     string `json:"senderName,omitempty"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	ReceiverID     ID     `json:"receiverId,omitempty"`

	// Set by senders that know the stored message; older peers omit them.
	MessageID ID        `json:"messageId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ToMessage converts the push payload into a buffer entry.
func (p PushMessage) ToMessage() Message {
	name := p.SenderName
	if name == "" {
		name = p.Username
	}
	return Message{
		ID:            p.MessageID,
		ChatID:        p.ChatID,
		SenderID:      p.SenderID,
		SenderName:    name,
		SenderPicture: p.ProfilePicture,
		SenderAvatar:  p.Avatar,
		Content:       p.Content,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
	}
}
