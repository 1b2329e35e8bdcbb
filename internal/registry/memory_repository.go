package registry

import (
	"context"
	"errors"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	byKey  map[string]Party
	byName map[string]string
}

// NewMemoryRepository constructs an in-memory repository for tests and dev mode.
func NewMemoryRepository() Repository {
	return &memoryRepository{byKey: make(map[string]Party), byName: make(map[string]string)}
}

func (r *memoryRepository) Create(_ context.Context, party Party) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[party.Name]; exists {
		return errors.New("party name taken")
	}
	r.byKey[party.Key] = party
	r.byName[party.Name] = party.Key
	return nil
}

func (r *memoryRepository) FindByKey(_ context.Context, key string) (Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	party, ok := r.byKey[key]
	if !ok {
		return Party{}, ErrPartyNotFound
	}
	return party, nil
}

func (r *memoryRepository) FindByName(_ context.Context, name string) (Party, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.byName[name]
	if !ok {
		return Party{}, ErrPartyNotFound
	}
	return r.byKey[key], nil
}
