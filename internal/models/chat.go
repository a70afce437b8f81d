package models

// Chat represents a private chat between exactly two users.
type Chat struct {
	ID          ID           `json:"_id"`
	Members     []User       `json:"members"`
	LastMessage *LastMessage `json:"lastMessage,omitempty"`
}

// LastMessage is the summary the chat list shows under each counterpart.
type LastMessage struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Counterpart returns the member that is not the caller.
func (c Chat) Counterpart(self ID) (User, bool) {
	for _, m := range c.Members {
		if !SameID(m.ID, self) {
			return m, true
		}
	}
	return User{}, false
}

// PendingChat is the persisted pointer to the last open chat.
type PendingChat struct {
	ChatID           ID     `json:"chatId"`
	ReceiverID       ID     `json:"receiverId"`
	ReceiverUsername string `json:"receiverUsername"`
	ReceiverProfile  string `json:"receiverProfile,omitempty"`
}

// Valid reports whether the stored chat id has the backend's id shape.
func (p PendingChat) Valid() bool {
	return p.ChatID.IsObjectID()
}

// Counterpart rebuilds the cached counterpart without asking the backend.
func (p PendingChat) Counterpart() User {
	return User{ID: p.ReceiverID, Username: p.ReceiverUsername, ProfilePicture: p.ReceiverProfile}
}
