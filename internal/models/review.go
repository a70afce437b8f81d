package models

import "time"

// Review is an anime review posted by a user.
type Review struct {
	ID            ID        `json:"_id"`
	AnimeTitle    string    `json:"animeTitle"`
	ReviewText    string    `json:"reviewText"`
	Rating        int       `json:"rating"`
	AnimeImageURL string    `json:"animeImageUrl,omitempty"`
	User          *User     `json:"user,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Author returns the reviewer's name, "Anonymous" when unknown.
func (r Review) Author() string {
	if r.User != nil && r.User.Username != "" {
		return r.User.Username
	}
	return "Anonymous"
}

// ReviewDraft is the multipart submission for creating or editing a review.
type ReviewDraft struct {
	AnimeTitle string
	ReviewText string
	Rating     int
	Image      *Attachment
}
