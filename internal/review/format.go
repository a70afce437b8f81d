package review

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"animehub-client/internal/models"
	"animehub-client/internal/render"
)

// TruncateAt is the preview length of a collapsed review.
const TruncateAt = 120

type Sort string

const (
	SortNewest     Sort = "newest"
	SortOldest     Sort = "oldest"
	SortRatingHigh Sort = "rating-high"
	SortRatingLow  Sort = "rating-low"
)

// ParseSort maps a flag value to a Sort, defaulting to newest.
func ParseSort(s string) Sort {
	switch Sort(s) {
	case SortOldest, SortRatingHigh, SortRatingLow:
		return Sort(s)
	default:
		return SortNewest
	}
}

type Query struct {
	Text      string
	MinRating int
	Sort      Sort
}

// Filter matches Text case-insensitively against title, text and author,
// drops reviews under MinRating and sorts the rest. The input is not
// modified.
func Filter(reviews []models.Review, q Query) []models.Review {
	needle := strings.ToLower(strings.TrimSpace(q.Text))

	out := make([]models.Review, 0, len(reviews))
	for _, r := range reviews {
		if q.MinRating > 0 && r.Rating < q.MinRating {
			continue
		}
		if needle != "" && !matches(r, needle) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case SortOldest:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortRatingHigh:
			return a.Rating > b.Rating
		case SortRatingLow:
			return a.Rating < b.Rating
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})
	return out
}

func matches(r models.Review, needle string) bool {
	author := ""
	if r.User != nil {
		author = r.User.Username
	}
	return strings.Contains(strings.ToLower(r.AnimeTitle), needle) ||
		strings.Contains(strings.ToLower(r.ReviewText), needle) ||
		strings.Contains(strings.ToLower(author), needle)
}

// Truncate cuts text to n runes and marks the cut with "...".
func Truncate(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n]) + "..."
}

// Stars renders a rating as five filled or empty stars.
func Stars(rating int) string {
	var b strings.Builder
	for i := 1; i <= 5; i++ {
		if i <= rating {
			b.WriteString("★")
		} else {
			b.WriteString("☆")
		}
	}
	return b.String()
}

// Card is the display form of one review.
type Card struct {
	ID          models.ID
	Title       string
	Author      string
	Date        string
	Stars       string
	Rating      string
	Text        string
	ImageURL    string
	CanToggle   bool
	ToggleLabel string
}

func NewCard(r models.Review, expanded bool, origin string) Card {
	card := Card{
		ID:        r.ID,
		Title:     r.AnimeTitle,
		Author:    r.Author(),
		Stars:     Stars(r.Rating),
		Rating:    "(" + strconv.Itoa(r.Rating) + "/5)",
		Text:      r.ReviewText,
		ImageURL:  render.ImageURL(origin, strings.TrimSpace(r.AnimeImageURL)),
		CanToggle: utf8.RuneCountInString(r.ReviewText) > TruncateAt,
	}
	if !r.CreatedAt.IsZero() {
		card.Date = r.CreatedAt.Format("Jan 2, 2006")
	}
	if card.CanToggle {
		card.ToggleLabel = "Read More"
		if expanded {
			card.ToggleLabel = "Read Less"
		} else {
			card.Text = Truncate(r.ReviewText, TruncateAt)
		}
	}
	return card
}
