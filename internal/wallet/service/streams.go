package service

import (
	"context"

	"walletcore/internal/notify"
	"walletcore/internal/wallet/models"
	"walletcore/pkg/requestcontext"
)

// Registering a stream replaces the previous subscriber of the same kind.

func (s *Service) SubscribeLock() *notify.Subscription[bool] {
	return s.hub.SubscribeLock()
}

func (s *Service) SubscribeConfiguration() *notify.Subscription[models.Configuration] {
	return s.hub.SubscribeConfiguration()
}

func (s *Service) SubscribeAttestations() *notify.Subscription[[]models.Attestation] {
	return s.hub.SubscribeAttestations()
}

func (s *Service) SubscribeVersionState() *notify.Subscription[models.VersionState] {
	return s.hub.SubscribeVersionState()
}

// SubscribeRecentHistory replays the events of the recent history window,
// oldest first, then delivers every appended event.
func (s *Service) SubscribeRecentHistory(ctx context.Context) (*notify.Subscription[models.WalletEvent], error) {
	return s.hub.SubscribeRecentHistory(func() ([]models.WalletEvent, error) {
		return s.history.Recent(ctx, requestcontext.Now(ctx))
	})
}

func (s *Service) ClearStream(stream notify.Stream) {
	s.hub.Clear(stream)
}
