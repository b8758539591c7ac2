package registration

import (
	"context"

	"walletcore/internal/platform/leveldb"
	"walletcore/internal/wallet/models"
)

const registrationKey = "registration"

type LevelDBRegistrationStore struct {
	bucket *leveldb.Bucket
}

func NewLevelDB(db *leveldb.DB) (*LevelDBRegistrationStore, error) {
	bucket, err := db.Bucket("wallet")
	if err != nil {
		return nil, err
	}
	return &LevelDBRegistrationStore{bucket: bucket}, nil
}

func (s *LevelDBRegistrationStore) Get(_ context.Context) (*models.Registration, error) {
	var reg models.Registration
	if err := s.bucket.GetJSON(registrationKey, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (s *LevelDBRegistrationStore) Save(_ context.Context, reg *models.Registration) error {
	return s.bucket.PutJSON(registrationKey, reg)
}

func (s *LevelDBRegistrationStore) Clear(_ context.Context) error {
	return s.bucket.Delete(registrationKey)
}
