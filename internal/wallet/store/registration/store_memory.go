// Package registration persists the wallet's registration with the account
// server: wallet id, PIN salt, provider key, instruction sequence number,
// biometric setting and an interrupted PIN change.
package registration

import (
	"context"
	"sync"

	"walletcore/internal/wallet/models"
	"walletcore/pkg/platform/sentinel"
)

type InMemoryRegistrationStore struct {
	mu           sync.RWMutex
	registration *models.Registration
}

func NewInMemory() *InMemoryRegistrationStore {
	return &InMemoryRegistrationStore{}
}

func (s *InMemoryRegistrationStore) Get(_ context.Context) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.registration == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.registration.Clone(), nil
}

func (s *InMemoryRegistrationStore) Save(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registration = reg.Clone()
	return nil
}

func (s *InMemoryRegistrationStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registration = nil
	return nil
}
