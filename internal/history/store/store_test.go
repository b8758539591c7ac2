package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"walletcore/internal/platform/leveldb"
	"walletcore/internal/wallet/models"
)

type historyStore interface {
	Append(ctx context.Context, events ...models.WalletEvent) error
	List(ctx context.Context) ([]models.WalletEvent, error)
	Clear(ctx context.Context) error
}

type HistoryStoreSuite struct {
	suite.Suite
	newStore func(t *testing.T) historyStore
	store    historyStore
	ctx      context.Context
}

func TestInMemoryHistoryStore(t *testing.T) {
	suite.Run(t, &HistoryStoreSuite{newStore: func(*testing.T) historyStore { return NewInMemory() }})
}

func TestLevelDBHistoryStore(t *testing.T) {
	suite.Run(t, &HistoryStoreSuite{newStore: func(t *testing.T) historyStore {
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

func (s *HistoryStoreSuite) SetupTest() {
	s.store = s.newStore(s.T())
	s.ctx = context.Background()
}

func issued(attestationType string, at time.Time) models.WalletEvent {
	return models.NewIssuanceEvent(at, models.Attestation{
		Identity:        models.FixedIdentity(attestationType),
		AttestationType: attestationType,
	})
}

func (s *HistoryStoreSuite) TestAppendKeepsOrder() {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first := issued("pid", t0)
	second := issued("address", t0.Add(time.Hour))
	third := issued("diploma", t0.Add(2*time.Hour))

	s.Require().NoError(s.store.Append(s.ctx, first, second))
	s.Require().NoError(s.store.Append(s.ctx, third))

	events, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(first.ID, events[0].ID)
	s.Equal(second.ID, events[1].ID)
	s.Equal(third.ID, events[2].ID)
	s.True(events[2].DateTime.Equal(third.DateTime))
}

func (s *HistoryStoreSuite) TestClear() {
	s.Require().NoError(s.store.Append(s.ctx, issued("pid", time.Now())))
	s.Require().NoError(s.store.Clear(s.ctx))

	events, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)

	s.Require().NoError(s.store.Append(s.ctx, issued("address", time.Now())))
	events, err = s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func TestLevelDBHistoryStoreReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := leveldb.Open(dir, "wallet")
	if err != nil {
		t.Fatal(err)
	}
	store, err := NewLevelDB(db)
	if err != nil {
		t.Fatal(err)
	}
	first := issued("pid", time.Now())
	if err := store.Append(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = leveldb.Open(dir, "wallet")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store, err = NewLevelDB(db)
	if err != nil {
		t.Fatal(err)
	}
	second := issued("address", time.Now())
	if err := store.Append(ctx, second); err != nil {
		t.Fatal(err)
	}

	events, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != first.ID || events[1].ID != second.ID {
		t.Fatalf("unexpected history after reopen: %+v", events)
	}
}
