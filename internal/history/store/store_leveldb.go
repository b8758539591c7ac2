package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"walletcore/internal/platform/leveldb"
	"walletcore/internal/wallet/models"
)

// LevelDBHistoryStore keys events by a zero padded position so iteration
// order is append order.
type LevelDBHistoryStore struct {
	bucket *leveldb.Bucket

	mu   sync.Mutex
	next uint64
}

func NewLevelDB(db *leveldb.DB) (*LevelDBHistoryStore, error) {
	bucket, err := db.Bucket("history")
	if err != nil {
		return nil, err
	}
	s := &LevelDBHistoryStore{bucket: bucket}
	err = bucket.ForEach(func(key string, _ []byte) error {
		pos, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return fmt.Errorf("history key %q: %w", key, err)
		}
		s.next = pos + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func positionKey(pos uint64) string {
	return fmt.Sprintf("%020d", pos)
}

func (s *LevelDBHistoryStore) Append(_ context.Context, events ...models.WalletEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.bucket.Batch()
	for i, ev := range events {
		if err := batch.PutJSON(positionKey(s.next+uint64(i)), ev); err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		return err
	}
	s.next += uint64(len(events))
	return nil
}

func (s *LevelDBHistoryStore) List(_ context.Context) ([]models.WalletEvent, error) {
	events := []models.WalletEvent{}
	err := s.bucket.ForEach(func(key string, value []byte) error {
		var ev models.WalletEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			return fmt.Errorf("decode history event %s: %w", key, err)
		}
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (s *LevelDBHistoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bucket.Clear(); err != nil {
		return err
	}
	s.next = 0
	return nil
}
