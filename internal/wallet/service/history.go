package service

import (
	"context"

	"walletcore/internal/wallet/models"
)

// GetHistory returns every event, most recent first.
func (s *Service) GetHistory(ctx context.Context) ([]models.WalletEvent, error) {
	if err := s.check(ctx, gateUnlocked, false); err != nil {
		return nil, err
	}
	return s.history.List(ctx)
}

// GetHistoryForCard returns the events referencing attestationType in the
// order of GetHistory.
func (s *Service) GetHistoryForCard(ctx context.Context, attestationType string) ([]models.WalletEvent, error) {
	if err := s.check(ctx, gateUnlocked, false); err != nil {
		return nil, err
	}
	return s.history.ListForType(ctx, attestationType)
}
