package repositories

import (
	"context"
	"sync"
)

// MemoryStateRepo forgets everything when the process exits.
type MemoryStateRepo struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemoryStateRepo() *MemoryStateRepo {
	return &MemoryStateRepo{values: make(map[string][]byte)}
}

func (r *MemoryStateRepo) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.values[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (r *MemoryStateRepo) Set(_ context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = append([]byte(nil), value...)
	return nil
}

func (r *MemoryStateRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
	return nil
}
