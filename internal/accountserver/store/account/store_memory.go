package account

import (
	"context"
	"fmt"
	"sync"

	"walletcore/internal/accountserver/models"
	"walletcore/pkg/platform/sentinel"
	"walletcore/pkg/requestcontext"
)

type InMemoryAccountStore struct {
	mu         sync.RWMutex
	accounts   map[string]*models.Account
	signingKey []byte
}

func NewInMemory() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		accounts: make(map[string]*models.Account),
	}
}

func (s *InMemoryAccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.WalletID]; exists {
		return fmt.Errorf("account %s: %w", account.WalletID, sentinel.ErrAlreadyUsed)
	}
	s.accounts[account.WalletID] = account.Clone()
	return nil
}

func (s *InMemoryAccountStore) Get(_ context.Context, walletID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if account, exists := s.accounts[walletID]; exists {
		return account.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryAccountStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.WalletID]; !exists {
		return sentinel.ErrNotFound
	}
	s.accounts[account.WalletID] = account.Clone()
	return nil
}

// RecordFailure counts one failed proof and, when blocked is set, blocks the account.
func (s *InMemoryAccountStore) RecordFailure(ctx context.Context, walletID string, blocked bool) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[walletID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	now := requestcontext.Now(ctx)
	account.FailedAttempts++
	account.LastFailureAt = &now
	account.Blocked = account.Blocked || blocked
	return account.Clone(), nil
}

func (s *InMemoryAccountStore) ClearFailures(_ context.Context, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, exists := s.accounts[walletID]
	if !exists {
		return sentinel.ErrNotFound
	}
	account.FailedAttempts = 0
	account.LastFailureAt = nil
	return nil
}

func (s *InMemoryAccountStore) SigningKey(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.signingKey == nil {
		return nil, sentinel.ErrNotFound
	}
	return s.signingKey, nil
}

func (s *InMemoryAccountStore) SaveSigningKey(_ context.Context, der []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signingKey = der
	return nil
}
