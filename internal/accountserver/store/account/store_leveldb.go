package account

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"walletcore/internal/accountserver/models"
	"walletcore/internal/platform/leveldb"
	"walletcore/pkg/platform/sentinel"
	"walletcore/pkg/requestcontext"
)

const signingKeyKey = "provider_signing_key"

// LevelDBAccountStore keeps accounts in the "accounts" bucket. Writes are
// serialized so read-modify-write updates of the failure counter are atomic.
type LevelDBAccountStore struct {
	mu       sync.Mutex
	accounts *leveldb.Bucket
	keys     *leveldb.Bucket
}

func NewLevelDB(db *leveldb.DB) (*LevelDBAccountStore, error) {
	accounts, err := db.Bucket("accounts")
	if err != nil {
		return nil, err
	}
	keys, err := db.Bucket("provider")
	if err != nil {
		return nil, err
	}
	return &LevelDBAccountStore{accounts: accounts, keys: keys}, nil
}

func (s *LevelDBAccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.accounts.Get(account.WalletID); err == nil {
		return fmt.Errorf("account %s: %w", account.WalletID, sentinel.ErrAlreadyUsed)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	return s.accounts.PutJSON(account.WalletID, account)
}

func (s *LevelDBAccountStore) Get(_ context.Context, walletID string) (*models.Account, error) {
	var account models.Account
	if err := s.accounts.GetJSON(walletID, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *LevelDBAccountStore) Update(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, account.WalletID); err != nil {
		return err
	}
	return s.accounts.PutJSON(account.WalletID, account)
}

func (s *LevelDBAccountStore) RecordFailure(ctx context.Context, walletID string, blocked bool) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.Get(ctx, walletID)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	account.FailedAttempts++
	account.LastFailureAt = &now
	account.Blocked = account.Blocked || blocked
	if err := s.accounts.PutJSON(walletID, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (s *LevelDBAccountStore) ClearFailures(ctx context.Context, walletID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, err := s.Get(ctx, walletID)
	if err != nil {
		return err
	}
	account.FailedAttempts = 0
	account.LastFailureAt = nil
	return s.accounts.PutJSON(walletID, account)
}

func (s *LevelDBAccountStore) SigningKey(_ context.Context) ([]byte, error) {
	return s.keys.Get(signingKeyKey)
}

func (s *LevelDBAccountStore) SaveSigningKey(_ context.Context, der []byte) error {
	return s.keys.Put(signingKeyKey, der)
}
