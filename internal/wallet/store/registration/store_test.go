package registration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"walletcore/internal/platform/leveldb"
	"walletcore/internal/wallet/models"
	"walletcore/pkg/platform/sentinel"
)

type registrationStore interface {
	Get(ctx context.Context) (*models.Registration, error)
	Save(ctx context.Context, reg *models.Registration) error
	Clear(ctx context.Context) error
}

type RegistrationStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) registrationStore
	store    registrationStore
}

func TestInMemoryRegistrationStore(t *testing.T) {
	suite.Run(t, &RegistrationStoreSuite{newStore: func(*testing.T) registrationStore { return NewInMemory() }})
}

func TestLevelDBRegistrationStore(t *testing.T) {
	suite.Run(t, &RegistrationStoreSuite{newStore: func(t *testing.T) registrationStore {
		db, err := leveldb.Open(t.TempDir(), "wallet")
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = db.Close() })
		store, err := NewLevelDB(db)
		if err != nil {
			t.Fatal(err)
		}
		return store
	}})
}

func (s *RegistrationStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
}

func (s *RegistrationStoreSuite) TestLifecycle() {
	ctx := context.Background()

	_, err := s.store.Get(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	reg := &models.Registration{
		WalletID:         "w1",
		Salt:             []byte{1, 2, 3},
		Sequence:         5,
		PendingChangePin: &models.PendingChangePin{NewSalt: []byte{9}},
	}
	s.Require().NoError(s.store.Save(ctx, reg))

	got, err := s.store.Get(ctx)
	s.Require().NoError(err)
	s.Equal("w1", got.WalletID)
	s.Equal(uint64(5), got.Sequence)
	s.Require().NotNil(got.PendingChangePin)
	s.Equal([]byte{9}, got.PendingChangePin.NewSalt)

	s.Require().NoError(s.store.Clear(ctx))
	_, err = s.store.Get(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
