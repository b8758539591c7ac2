package store

import (
	"context"
	"encoding/json"
	"fmt"

	"walletcore/internal/platform/leveldb"
	"walletcore/internal/wallet/models"
)

type LevelDBAttestationStore struct {
	bucket *leveldb.Bucket
}

func NewLevelDB(db *leveldb.DB) (*LevelDBAttestationStore, error) {
	bucket, err := db.Bucket("attestations")
	if err != nil {
		return nil, err
	}
	return &LevelDBAttestationStore{bucket: bucket}, nil
}

// Put writes all attestations in one batch.
func (s *LevelDBAttestationStore) Put(_ context.Context, attestations ...models.Attestation) error {
	batch := s.bucket.Batch()
	for _, a := range attestations {
		key, err := keyOf(a)
		if err != nil {
			return err
		}
		if err := batch.PutJSON(key, a); err != nil {
			return err
		}
	}
	return batch.Commit()
}

func (s *LevelDBAttestationStore) List(_ context.Context) ([]models.Attestation, error) {
	var list []models.Attestation
	err := s.bucket.ForEach(func(key string, value []byte) error {
		var a models.Attestation
		if err := json.Unmarshal(value, &a); err != nil {
			return fmt.Errorf("decode attestation %s: %w", key, err)
		}
		list = append(list, a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortAttestations(list)
	return list, nil
}

func (s *LevelDBAttestationStore) Types(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return typesOf(list), nil
}

func (s *LevelDBAttestationStore) Clear(_ context.Context) error {
	return s.bucket.Clear()
}
