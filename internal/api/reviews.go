package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"animehub-client/internal/models"
)

// reviewResult accepts a bare review or one wrapped as {review: {...}}.
type reviewResult struct {
	models.Review
}

func (r *reviewResult) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Review json.RawMessage `json:"review"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Review) > 0 && !bytes.Equal(wrapped.Review, []byte("null")) {
		data = wrapped.Review
	}
	return json.Unmarshal(data, &r.Review)
}

func (c *Client) Reviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/reviews", path: "/api/reviews"}, &reviews)
	return reviews, err
}

// MyReviews lists the caller's own reviews.
func (c *Client) MyReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/reviews/my", path: "/api/reviews/my"}, &reviews)
	return reviews, err
}

func (c *Client) CreateReview(ctx context.Context, draft models.ReviewDraft) (models.Review, error) {
	return c.sendReview(ctx, http.MethodPost, "/api/reviews", "/api/reviews", draft)
}

// UpdateReview replaces a review and returns the stored version.
func (c *Client) UpdateReview(ctx context.Context, id models.ID, draft models.ReviewDraft) (models.Review, error) {
	return c.sendReview(ctx, http.MethodPut, "/api/reviews/:id", "/api/reviews/"+id.String(), draft)
}

func (c *Client) DeleteReview(ctx context.Context, id models.ID) error {
	return c.do(ctx, request{method: http.MethodDelete, route: "/api/reviews/:id", path: "/api/reviews/" + id.String()}, nil)
}

func (c *Client) sendReview(ctx context.Context, method, route, path string, draft models.ReviewDraft) (models.Review, error) {
	body, contentType, err := buildMultipart([]formField{
		{name: "animeTitle", value: draft.AnimeTitle},
		{name: "reviewText", value: draft.ReviewText},
		{name: "rating", value: strconv.Itoa(draft.Rating)},
	}, "animeImage", draft.Image)
	if err != nil {
		return models.Review{}, fmt.Errorf("encode review: %w", err)
	}

	var res reviewResult
	err = c.do(ctx, request{method: method, route: route, path: path, body: body, contentType: contentType}, &res)
	return res.Review, err
}
