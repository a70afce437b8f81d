package render

import (
	"strings"
	"unicode/utf8"

	"animehub-client/internal/models"
)

const (
	EmptyText      = "No messages yet. Start the conversation!"
	NoChatText     = "Select a chat to start messaging"
	NoChatsText    = "No chats yet"
	NoPreviewText  = "No messages yet"
	previewLimit   = 30
	selfAuthorName = "You"
)

// State is the non-buffer part of the message pane.
type State struct {
	Active  bool
	Title   string
	Loading bool
	Sending bool
	Err     string
}

// Pane is the display tree of the message pane.
type Pane struct {
	Title   string
	Bubbles []Bubble
	Empty   string
	Error   string
	Loading bool
	Sending bool
}

// Bubble is one rendered message.
type Bubble struct {
	Self     bool
	Author   string
	Avatar   string
	Text     string
	ImageURL string
}

// Messages builds the pane for buf. It has no side effects.
func Messages(buf []models.Message, session models.User, origin string, st State) Pane {
	pane := Pane{
		Title:   st.Title,
		Error:   st.Err,
		Loading: st.Loading,
		Sending: st.Sending,
	}

	if !st.Active {
		pane.Empty = NoChatText
		return pane
	}

	pane.Bubbles = make([]Bubble, 0, len(buf))
	for _, msg := range buf {
		pane.Bubbles = append(pane.Bubbles, bubble(msg, session, origin))
	}
	if len(pane.Bubbles) == 0 && !st.Loading && st.Err == "" {
		pane.Empty = EmptyText
	}
	return pane
}

func bubble(msg models.Message, session models.User, origin string) Bubble {
	b := Bubble{
		Text:     msg.Content,
		ImageURL: ImageURL(origin, msg.ImageURL),
	}
	if models.SameID(msg.SenderID, session.ID) {
		b.Self = true
		b.Author = selfAuthorName
		b.Avatar = AvatarURL(origin, session.ProfilePicture, session.Avatar, session.DisplayName())
		return b
	}

	b.Author = msg.SenderName
	if b.Author == "" {
		b.Author = "User"
	}
	b.Avatar = AvatarURL(origin, msg.SenderPicture, msg.SenderAvatar, b.Author)
	return b
}

// ChatEntry is one row of the chat list.
type ChatEntry struct {
	Chat    models.Chat
	User    models.User
	Name    string
	Avatar  string
	Preview string
}

// ChatList resolves each chat's counterpart. Chats without one are skipped.
func ChatList(chats []models.Chat, self models.ID, origin string) []ChatEntry {
	entries := make([]ChatEntry, 0, len(chats))
	for _, chat := range chats {
		other, ok := chat.Counterpart(self)
		if !ok {
			continue
		}
		entries = append(entries, ChatEntry{
			Chat:    chat,
			User:    other,
			Name:    other.DisplayName(),
			Avatar:  AvatarURL(origin, other.ProfilePicture, other.Avatar, other.DisplayName()),
			Preview: Preview(chat.LastMessage),
		})
	}
	return entries
}

// Preview shortens the last message for the chat list.
func Preview(last *models.LastMessage) string {
	if last == nil {
		return NoPreviewText
	}
	text := strings.TrimSpace(last.Content)
	if text == "" && last.ImageURL != "" {
		return "[image]"
	}
	if utf8.RuneCountInString(text) > previewLimit {
		return string([]rune(text)[:previewLimit]) + "..."
	}
	return text
}
