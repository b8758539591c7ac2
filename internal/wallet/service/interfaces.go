package service

import (
	"context"

	"walletcore/internal/wallet/models"
)

// RegistrationStore persists the wallet's registration.
// Error Contract: Get returns sentinel.ErrNotFound for an unregistered wallet.
type RegistrationStore interface {
	Get(ctx context.Context) (*models.Registration, error)
	Save(ctx context.Context, reg *models.Registration) error
	Clear(ctx context.Context) error
}

type AttestationStore interface {
	Put(ctx context.Context, attestations ...models.Attestation) error
	List(ctx context.Context) ([]models.Attestation, error)
	Clear(ctx context.Context) error
}

type HistoryStore interface {
	Append(ctx context.Context, events ...models.WalletEvent) error
	List(ctx context.Context) ([]models.WalletEvent, error)
	Clear(ctx context.Context) error
}
