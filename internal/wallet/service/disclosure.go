package service

import (
	"context"

	"walletcore/internal/instruction"
	"walletcore/internal/wallet/models"
)

// IdentifyURI classifies an inbound URI. It is a pure query.
func (s *Service) IdentifyURI(ctx context.Context, uri string) (models.IdentifyURIResult, error) {
	if err := s.check(ctx, gateNone, false); err != nil {
		return "", err
	}
	return s.disclosure.IdentifyURI(uri)
}

func (s *Service) StartDisclosure(ctx context.Context, uri string, isQRCode bool) (models.StartDisclosureResult, error) {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return models.StartDisclosureResult{}, err
	}
	defer release()
	return s.disclosure.Start(ctx, uri, isQRCode)
}

func (s *Service) AcceptDisclosure(ctx context.Context, p string) (models.AcceptDisclosureResult, error) {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return models.AcceptDisclosureResult{}, err
	}
	defer release()

	if err := s.requireNoPendingPinChange(ctx); err != nil {
		return models.AcceptDisclosureResult{}, err
	}
	return s.disclosure.Accept(ctx, instruction.PinProof(p))
}

// CancelDisclosure cancels the active disclosure session and returns the
// relying party's return URL, if it gave one. It bypasses the operation
// guard to interrupt an accept in flight.
func (s *Service) CancelDisclosure(ctx context.Context) (string, error) {
	if err := s.check(ctx, gateNone, false); err != nil {
		return "", err
	}
	return s.disclosure.Cancel(ctx)
}

func (s *Service) HasActiveDisclosureSession() bool {
	return s.disclosure.HasActive()
}
