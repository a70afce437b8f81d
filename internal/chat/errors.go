package chat

import (
	"errors"

	"animehub-client/internal/models"
)

var (
	ErrEmptyMessage   = errors.New("message needs text or an image")
	ErrNoChatOpen     = errors.New("no chat is open")
	ErrNoSession      = errors.New("no authenticated session")
	ErrSendInProgress = errors.New("a message is already being sent")
	ErrImageTooLarge  = models.ErrImageTooLarge
	ErrNotImage       = models.ErrNotImage

	// ErrSuperseded is returned by Open when a later Open replaced it before
	// its history arrived. The history is dropped.
	ErrSuperseded = errors.New("chat open superseded")
)
