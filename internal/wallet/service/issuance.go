package service

import (
	"context"

	"walletcore/internal/instruction"
	"walletcore/internal/issuance"
	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
)

// CreatePidIssuanceRedirectURI starts PID issuance and returns the URL of
// the authorization step.
func (s *Service) CreatePidIssuanceRedirectURI(ctx context.Context) (string, error) {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return "", err
	}
	defer release()
	return s.issuance.CreatePidRedirectURI(ctx)
}

// ContinuePidIssuance consumes the authorization callback and returns the
// previews of the offered attestations.
func (s *Service) ContinuePidIssuance(ctx context.Context, uri string) ([]models.Attestation, error) {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return nil, err
	}
	defer release()
	return s.issuance.ContinuePid(ctx, uri)
}

func (s *Service) AcceptPidIssuance(ctx context.Context, p string) ([]models.Attestation, error) {
	return s.acceptIssuance(ctx, p, issuance.KindPid)
}

// ContinueDisclosureBasedIssuance accepts the offer a relying party made
// after the last disclosure.
func (s *Service) ContinueDisclosureBasedIssuance(ctx context.Context, p string) ([]models.Attestation, error) {
	return s.acceptIssuance(ctx, p, issuance.KindDisclosureBased)
}

func (s *Service) acceptIssuance(ctx context.Context, p string, kind issuance.Kind) ([]models.Attestation, error) {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.requireNoPendingPinChange(ctx); err != nil {
		return nil, err
	}
	return s.issuance.Accept(ctx, instruction.PinProof(p), kind)
}

// CancelIssuance cancels the active issuance session of either kind. It
// bypasses the operation guard to interrupt an accept in flight.
func (s *Service) CancelIssuance(ctx context.Context) error {
	if err := s.check(ctx, gateNone, false); err != nil {
		return err
	}
	return s.issuance.Cancel(ctx)
}

func (s *Service) CancelPidIssuance(ctx context.Context) error {
	if err := s.check(ctx, gateNone, false); err != nil {
		return err
	}
	if !s.issuance.HasActivePid() {
		return dErrors.New(dErrors.CodeSessionState, "no active pid issuance session")
	}
	return s.issuance.Cancel(ctx)
}

func (s *Service) HasActiveIssuanceSession() bool {
	return s.issuance.HasActive()
}

func (s *Service) HasActivePidIssuanceSession() bool {
	return s.issuance.HasActivePid()
}
