package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animehub-client/internal/models"
)

func TestPendingChatRoundTrip(t *testing.T) {
	ctx := context.Background()
	state := NewMemoryStateRepo()
	repo := NewPendingChatRepo(state, nil)

	_, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	want := models.PendingChat{ChatID: "507f1f77bcf86cd799439011", ReceiverID: "U2", ReceiverUsername: "bob"}
	require.NoError(t, repo.Save(ctx, want))

	raw, _ := state.Get(ctx, PendingChatKey)
	assert.JSONEq(t, `{"chatId":"507f1f77bcf86cd799439011","receiverId":"U2","receiverUsername":"bob"}`, string(raw))

	got, ok, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	require.NoError(t, repo.Clear(ctx))
	_, ok, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingChatMalformedIsDiscarded(t *testing.T) {
	ctx := context.Background()
	state := NewMemoryStateRepo()
	require.NoError(t, state.Set(ctx, PendingChatKey, []byte("not-json")))

	_, ok, err := NewPendingChatRepo(state, nil).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := state.Get(ctx, PendingChatKey)
	require.NoError(t, err)
	assert.Nil(t, raw)
}
