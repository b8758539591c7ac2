package store

import (
	"context"
	"maps"
	"slices"
	"sync"

	"walletcore/internal/wallet/models"
)

type InMemoryAttestationStore struct {
	mu           sync.RWMutex
	attestations map[string]models.Attestation
}

func NewInMemory() *InMemoryAttestationStore {
	return &InMemoryAttestationStore{attestations: make(map[string]models.Attestation)}
}

// Put stores all attestations or none of them. An attestation with a known
// identity replaces the stored one.
func (s *InMemoryAttestationStore) Put(_ context.Context, attestations ...models.Attestation) error {
	keys := make([]string, len(attestations))
	for i, a := range attestations {
		key, err := keyOf(a)
		if err != nil {
			return err
		}
		keys[i] = key
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range attestations {
		s.attestations[keys[i]] = a
	}
	return nil
}

func (s *InMemoryAttestationStore) List(_ context.Context) ([]models.Attestation, error) {
	s.mu.RLock()
	list := slices.Collect(maps.Values(s.attestations))
	s.mu.RUnlock()

	sortAttestations(list)
	return list, nil
}

// Types returns the distinct attestation types held, sorted.
func (s *InMemoryAttestationStore) Types(ctx context.Context) ([]string, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return typesOf(list), nil
}

func (s *InMemoryAttestationStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.attestations)
	return nil
}
