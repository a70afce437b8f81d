package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// StateRepository is a small key/value store for client state that must
// survive restarts. Get returns a nil value when the key is absent.
type StateRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// StateRepo is a sqlx implementation of StateRepository.
type StateRepo struct {
	db *sqlx.DB
}

// NewStateRepo constructs a StateRepo.
func NewStateRepo(db *sqlx.DB) *StateRepo {
	return &StateRepo{db: db}
}

func (r *StateRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.GetContext(ctx, &value, r.db.Rebind(`SELECT value FROM client_state WHERE state_key=?`), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (r *StateRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO client_state (state_key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (state_key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`),
		key, string(value), time.Now().UnixNano())
	return err
}

func (r *StateRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM client_state WHERE state_key=?`), key)
	return err
}
