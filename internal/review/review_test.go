package review

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"animehub-client/internal/mocks"
	"animehub-client/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

var sample = []models.Review{
	{ID: "R1", AnimeTitle: "Mushishi", ReviewText: "Quiet and strange", Rating: 5, CreatedAt: day(1), User: &models.User{Username: "ginko"}},
	{ID: "R2", AnimeTitle: "Monster", ReviewText: "Tense thriller", Rating: 3, CreatedAt: day(3), User: &models.User{Username: "tenma"}},
	{ID: "R3", AnimeTitle: "K-On!", ReviewText: "Tea time", Rating: 4, CreatedAt: day(2)},
}

func ids(reviews []models.Review) []models.ID {
	out := make([]models.ID, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterAndSort(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []models.ID
	}{
		{name: "default newest", q: Query{}, want: []models.ID{"R2", "R3", "R1"}},
		{name: "oldest", q: Query{Sort: SortOldest}, want: []models.ID{"R1", "R3", "R2"}},
		{name: "rating high", q: Query{Sort: SortRatingHigh}, want: []models.ID{"R1", "R3", "R2"}},
		{name: "rating low", q: Query{Sort: SortRatingLow}, want: []models.ID{"R2", "R3", "R1"}},
		{name: "min rating", q: Query{MinRating: 4}, want: []models.ID{"R3", "R1"}},
		{name: "text matches title", q: Query{Text: "MONSTER"}, want: []models.ID{"R2"}},
		{name: "text matches author", q: Query{Text: "ginko"}, want: []models.ID{"R1"}},
		{name: "text matches body", q: Query{Text: "tea"}, want: []models.ID{"R3"}},
		{name: "no match", q: Query{Text: "naruto"}, want: []models.ID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sample, tt.q)))
		})
	}
	assert.Equal(t, models.ID("R1"), sample[0].ID, "input must not be reordered")
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, SortRatingLow, ParseSort("rating-low"))
	assert.Equal(t, SortNewest, ParseSort("bogus"))
}

func TestTruncateAndStars(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 120))
	long := strings.Repeat("a", 130)
	assert.Equal(t, strings.Repeat("a", 120)+"...", Truncate(long, 120))
	assert.Equal(t, "★★★☆☆", Stars(3))
	assert.Equal(t, "☆☆☆☆☆", Stars(0))
	assert.Equal(t, "★★★★★", Stars(9))
}

func TestNewCard(t *testing.T) {
	long := strings.Repeat("word ", 30)
	r := models.Review{ID: "R9", AnimeTitle: "Frieren", ReviewText: long, Rating: 4, AnimeImageURL: "/uploads/f.png", CreatedAt: day(5)}

	collapsed := NewCard(r, false, "http://localhost:3000")
	assert.True(t, collapsed.CanToggle)
	assert.Equal(t, "Read More", collapsed.ToggleLabel)
	assert.Equal(t, Truncate(long, TruncateAt), collapsed.Text)
	assert.Equal(t, "Anonymous", collapsed.Author)
	assert.Equal(t, "Jan 5, 2024", collapsed.Date)
	assert.Equal(t, "(4/5)", collapsed.Rating)
	assert.Equal(t, "http://localhost:3000/uploads/f.png", collapsed.ImageURL)

	expanded := NewCard(r, true, "http://localhost:3000")
	assert.Equal(t, long, expanded.Text)
	assert.Equal(t, "Read Less", expanded.ToggleLabel)

	short := NewCard(models.Review{ReviewText: "ok"}, false, "")
	assert.False(t, short.CanToggle)
	assert.Empty(t, short.ToggleLabel)
}

func TestValidate(t *testing.T) {
	_, err := Validate(models.ReviewDraft{ReviewText: "x", Rating: 3})
	require.ErrorIs(t, err, ErrInvalidReview)
	_, err = Validate(models.ReviewDraft{AnimeTitle: "x", ReviewText: "  ", Rating: 3})
	require.ErrorIs(t, err, ErrInvalidReview)
	_, err = Validate(models.ReviewDraft{AnimeTitle: "x", ReviewText: "y", Rating: 6})
	require.ErrorIs(t, err, ErrInvalidReview)
	_, err = Validate(models.ReviewDraft{AnimeTitle: "x", ReviewText: "y", Rating: 2, Image: &models.Attachment{ContentType: "text/plain", Data: []byte("hi")}})
	require.ErrorIs(t, err, models.ErrNotImage)

	draft, err := Validate(models.ReviewDraft{AnimeTitle: " x ", ReviewText: " y ", Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, "x", draft.AnimeTitle)
	assert.Equal(t, "y", draft.ReviewText)
}

func TestFeedCRUD(t *testing.T) {
	api := new(mocks.APIMock)
	feed := NewFeed(api)
	ctx := context.Background()

	api.On("MyReviews", mock.Anything).Return([]models.Review{sample[0], sample[1]}, nil).Once()
	_, err := feed.Mine(ctx)
	require.NoError(t, err)

	draft := models.ReviewDraft{AnimeTitle: "Frieren", ReviewText: "Lovely", Rating: 5}
	api.On("CreateReview", mock.Anything, draft).Return(models.Review{ID: "R4", AnimeTitle: "Frieren", Rating: 5}, nil).Once()
	_, err = feed.Create(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, []models.ID{"R4", "R1", "R2"}, ids(feed.Reviews()))

	edit := models.ReviewDraft{AnimeTitle: "Monster", ReviewText: "Even better", Rating: 5}
	api.On("UpdateReview", mock.Anything, models.ID("R2"), edit).Return(models.Review{ID: "R2", AnimeTitle: "Monster", ReviewText: "Even better", Rating: 5}, nil).Once()
	_, err = feed.Update(ctx, "R2", edit)
	require.NoError(t, err)
	assert.Equal(t, "Even better", feed.Reviews()[2].ReviewText)

	api.On("DeleteReview", mock.Anything, models.ID("R1")).Return(nil).Once()
	require.NoError(t, feed.Delete(ctx, "R1"))
	assert.Equal(t, []models.ID{"R4", "R2"}, ids(feed.Reviews()))

	api.AssertExpectations(t)
}

func TestFeedRejectsInvalidDraftWithoutCalling(t *testing.T) {
	api := new(mocks.APIMock)
	feed := NewFeed(api)

	_, err := feed.Create(context.Background(), models.ReviewDraft{AnimeTitle: "x", ReviewText: "y"})
	require.ErrorIs(t, err, ErrInvalidReview)
	api.AssertNotCalled(t, "CreateReview", mock.Anything, mock.Anything)
}

func TestFeedDeleteFailureKeepsList(t *testing.T) {
	api := new(mocks.APIMock)
	feed := NewFeed(api)
	api.On("Reviews", mock.Anything).Return(sample, nil).Once()
	_, err := feed.All(context.Background())
	require.NoError(t, err)

	api.On("DeleteReview", mock.Anything, models.ID("R1")).Return(assert.AnError).Once()
	require.ErrorIs(t, feed.Delete(context.Background(), "R1"), assert.AnError)
	assert.Len(t, feed.Reviews(), 3)
}

func TestToggle(t *testing.T) {
	feed := NewFeed(new(mocks.APIMock))
	assert.False(t, feed.Expanded("R1"))
	assert.True(t, feed.Toggle("R1"))
	assert.True(t, feed.Expanded("R1"))
	assert.False(t, feed.Toggle("R1"))
	assert.False(t, feed.Expanded("R1"))
}

func TestWatchRefreshesUntilCancelled(t *testing.T) {
	api := new(mocks.APIMock)
	api.On("Reviews", mock.Anything).Return(sample, nil)
	feed := NewFeed(api)

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- feed.Watch(ctx, 10*time.Millisecond, func(reviews []models.Review, err error) {
			assert.NoError(t, err)
			assert.Len(t, reviews, 3)
			calls.Add(1)
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
