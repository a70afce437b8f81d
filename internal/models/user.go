package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// User is a backend user as returned by the auth and search endpoints.
// The authenticated caller is represented by the same type.
type User struct {
	ID             ID        `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Avatar         string    `json:"avatar,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// UnmarshalJSON accepts a populated user object or a bare id reference.
func (u *User) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var id ID
		if err := id.UnmarshalJSON(data); err != nil {
			return err
		}
		*u = User{ID: id}
		return nil
	}

	type plain User
	var wire struct {
		plain
		AltID ID `json:"id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*u = User(wire.plain)
	if u.ID.IsZero() {
		u.ID = wire.AltID
	}
	return nil
}

// DisplayName falls back to "User" when the backend sent no username.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return "User"
}

// Picture returns the profile picture, or the avatar when no picture is set.
func (u User) Picture() string {
	if u.ProfilePicture != "" {
		return u.ProfilePicture
	}
	return u.Avatar
}

// Profile is the extended view returned by the profile endpoint.
type Profile struct {
	ID             ID        `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	JoinedAt       time.Time `json:"joinedAt"`
	ReviewsPosted  int       `json:"reviewsPosted"`
}
