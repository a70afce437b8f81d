package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"animehub-client/internal/models"
)

// PendingChatKey is the state key of the last open chat pointer.
const PendingChatKey = "selectedChat"

// PendingChatRepo persists the pointer to the last open chat.
type PendingChatRepo struct {
	state  StateRepository
	logger *zap.Logger
}

func NewPendingChatRepo(state StateRepository, logger *zap.Logger) *PendingChatRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PendingChatRepo{state: state, logger: logger}
}

// Load returns the stored pointer. ok is false when nothing usable is stored;
// an unparsable entry is removed.
func (r *PendingChatRepo) Load(ctx context.Context) (models.PendingChat, bool, error) {
	raw, err := r.state.Get(ctx, PendingChatKey)
	if err != nil {
		return models.PendingChat{}, false, fmt.Errorf("load pending chat: %w", err)
	}
	if raw == nil {
		return models.PendingChat{}, false, nil
	}

	var pending models.PendingChat
	if err := json.Unmarshal(raw, &pending); err != nil {
		r.logger.Debug("discarding malformed pending chat", zap.Error(err))
		return models.PendingChat{}, false, r.Clear(ctx)
	}
	return pending, true, nil
}

func (r *PendingChatRepo) Save(ctx context.Context, pending models.PendingChat) error {
	raw, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	if err := r.state.Set(ctx, PendingChatKey, raw); err != nil {
		return fmt.Errorf("save pending chat: %w", err)
	}
	return nil
}

func (r *PendingChatRepo) Clear(ctx context.Context) error {
	if err := r.state.Delete(ctx, PendingChatKey); err != nil {
		return fmt.Errorf("clear pending chat: %w", err)
	}
	return nil
}
