// Package store persists the wallet's append-only event history in
// chronological order.
package store

import (
	"context"
	"sync"

	"walletcore/internal/wallet/models"
)

type InMemoryHistoryStore struct {
	mu     sync.RWMutex
	events []models.WalletEvent
}

func NewInMemory() *InMemoryHistoryStore {
	return &InMemoryHistoryStore{}
}

func (s *InMemoryHistoryStore) Append(_ context.Context, events ...models.WalletEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// List returns every event, oldest first.
func (s *InMemoryHistoryStore) List(_ context.Context) ([]models.WalletEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.WalletEvent{}, s.events...), nil
}

func (s *InMemoryHistoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	return nil
}
