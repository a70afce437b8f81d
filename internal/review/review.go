package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"animehub-client/internal/models"
	"animehub-client/internal/telemetry"
)

const DefaultRefresh = 5 * time.Minute

var ErrInvalidReview = errors.New("invalid review")

type API interface {
	Reviews(ctx context.Context) ([]models.Review, error)
	MyReviews(ctx context.Context) ([]models.Review, error)
	CreateReview(ctx context.Context, draft models.ReviewDraft) (models.Review, error)
	UpdateReview(ctx context.Context, id models.ID, draft models.ReviewDraft) (models.Review, error)
	DeleteReview(ctx context.Context, id models.ID) error
}

type Activity interface {
	Emit(ctx context.Context, eventType string, userID models.ID, payload telemetry.ActivityPayload)
}

// Feed holds the last loaded review list and the per-review expanded state.
type Feed struct {
	api      API
	activity Activity
	self     models.ID
	logger   *zap.Logger

	mu       sync.Mutex
	reviews  []models.Review
	expanded map[models.ID]bool
}

type Option func(*Feed)

func WithLogger(logger *zap.Logger) Option {
	return func(f *Feed) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithActivity reports posted and deleted reviews on behalf of self.
func WithActivity(activity Activity, self models.ID) Option {
	return func(f *Feed) {
		f.activity = activity
		f.self = self
	}
}

func NewFeed(client API, opts ...Option) *Feed {
	f := &Feed{
		api:      client,
		logger:   zap.NewNop(),
		expanded: make(map[models.ID]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// All loads every review.
func (f *Feed) All(ctx context.Context) ([]models.Review, error) {
	reviews, err := f.api.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	f.replace(reviews)
	return reviews, nil
}

// Mine loads the caller's reviews.
func (f *Feed) Mine(ctx context.Context) ([]models.Review, error) {
	reviews, err := f.api.MyReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load my reviews: %w", err)
	}
	f.replace(reviews)
	return reviews, nil
}

func (f *Feed) Create(ctx context.Context, draft models.ReviewDraft) (models.Review, error) {
	draft, err := Validate(draft)
	if err != nil {
		return models.Review{}, err
	}
	created, err := f.api.CreateReview(ctx, draft)
	if err != nil {
		return models.Review{}, fmt.Errorf("create review: %w", err)
	}

	f.mu.Lock()
	f.reviews = append([]models.Review{created}, f.reviews...)
	f.mu.Unlock()
	f.emit(ctx, telemetry.EventReviewPosted, created.ID)
	return created, nil
}

// Update replaces review id and swaps the stored version into the list.
func (f *Feed) Update(ctx context.Context, id models.ID, draft models.ReviewDraft) (models.Review, error) {
	draft, err := Validate(draft)
	if err != nil {
		return models.Review{}, err
	}
	updated, err := f.api.UpdateReview(ctx, id, draft)
	if err != nil {
		return models.Review{}, fmt.Errorf("update review: %w", err)
	}

	f.mu.Lock()
	for i := range f.reviews {
		if models.SameID(f.reviews[i].ID, id) {
			f.reviews[i] = updated
			break
		}
	}
	f.mu.Unlock()
	return updated, nil
}

func (f *Feed) Delete(ctx context.Context, id models.ID) error {
	if err := f.api.DeleteReview(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	f.mu.Lock()
	kept := f.reviews[:0]
	for _, r := range f.reviews {
		if !models.SameID(r.ID, id) {
			kept = append(kept, r)
		}
	}
	f.reviews = kept
	delete(f.expanded, id)
	f.mu.Unlock()

	f.emit(ctx, telemetry.EventReviewDeleted, id)
	return nil
}

// Reviews returns a copy of the loaded list.
func (f *Feed) Reviews() []models.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Review(nil), f.reviews...)
}

// Toggle flips the expanded state of a review and returns the new state.
func (f *Feed) Toggle(id models.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expanded[id] = !f.expanded[id]
	if !f.expanded[id] {
		delete(f.expanded, id)
		return false
	}
	return true
}

func (f *Feed) Expanded(id models.ID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expanded[id]
}

// Watch loads all reviews now and then every interval, handing each outcome
// to fn, until ctx ends.
func (f *Feed) Watch(ctx context.Context, every time.Duration, fn func([]models.Review, error)) error {
	if every <= 0 {
		every = DefaultRefresh
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		reviews, err := f.All(ctx)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			f.logger.Warn("refresh reviews failed", zap.Error(err))
		}
		fn(reviews, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *Feed) replace(reviews []models.Review) {
	f.mu.Lock()
	f.reviews = append([]models.Review(nil), reviews...)
	f.mu.Unlock()
}

func (f *Feed) emit(ctx context.Context, eventType string, id models.ID) {
	if f.activity == nil {
		return
	}
	f.activity.Emit(ctx, eventType, f.self, telemetry.ActivityPayload{ReviewID: id.String()})
}

// Validate trims the draft and checks it before any network call.
func Validate(draft models.ReviewDraft) (models.ReviewDraft, error) {
	draft.AnimeTitle = strings.TrimSpace(draft.AnimeTitle)
	draft.ReviewText = strings.TrimSpace(draft.ReviewText)

	switch {
	case draft.AnimeTitle == "":
		return draft, fmt.Errorf("%w: anime title is required", ErrInvalidReview)
	case draft.ReviewText == "":
		return draft, fmt.Errorf("%w: review text is required", ErrInvalidReview)
	case draft.Rating < 1 || draft.Rating > 5:
		return draft, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidReview)
	}
	if draft.Image != nil && draft.Image.Size() == 0 {
		draft.Image = nil
	}
	if err := draft.Image.Validate(); err != nil {
		return draft, err
	}
	return draft, nil
}
