package service

import (
	"context"
	"errors"

	"walletcore/internal/lock"
	"walletcore/internal/pin"
	"walletcore/internal/session"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/sentinel"
	"walletcore/pkg/requestcontext"
)

// Init restores the wallet from its stores and publishes the initial stream
// values. Calling it again is a no-op.
func (s *Service) Init(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()
	if s.initialized.Load() {
		return nil
	}

	reg, err := s.registrations.Get(ctx)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	list, err := s.attestations.List(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attestations")
	}

	s.lock.Restore(ctx, reg != nil, reg != nil && reg.Blocked)
	s.config.Publish()
	s.hub.PublishAttestations(list)
	s.initialized.Store(true)
	s.logger.InfoContext(ctx, "wallet initialized",
		"registered", reg != nil,
		"lock_state", string(s.lock.State()),
		"attestations", len(list),
	)
	return nil
}

func (s *Service) IsInitialized() bool {
	return s.initialized.Load()
}

func (s *Service) HasRegistration(ctx context.Context) (bool, error) {
	if err := s.check(ctx, gateNone, false); err != nil {
		return false, err
	}
	return s.lock.State() != lock.StateUninitialized, nil
}

// IsValidPin reports the format and strength of pin. It never contacts the
// account server.
func (s *Service) IsValidPin(p string) models.PinValidationResult {
	return pin.Validate(p)
}

// Register creates the wallet's account with a key derived from p. The
// wallet starts locked.
func (s *Service) Register(ctx context.Context, p string) error {
	release, err := s.begin(ctx, gateNone)
	if err != nil {
		return err
	}
	defer release()

	if s.lock.State() != lock.StateUninitialized {
		return dErrors.New(dErrors.CodeSessionState, "wallet is already registered")
	}
	if err := pin.CheckFormat(p); err != nil {
		return err
	}

	salt, err := pin.NewSalt()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate pin salt")
	}
	req := ports.RegisterRequest{PinPublicKey: pin.DeriveKey(p, salt).PublicKey()}
	if s.biometric != nil {
		key, err := s.biometric.PublicKey(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read biometric key")
		}
		req.BiometricPublicKey = key
	}

	resp, err := s.server.Register(ctx, req)
	if err != nil {
		return session.PartyError(err, "account server")
	}
	reg := &models.Registration{
		WalletID:     resp.WalletID,
		Salt:         salt,
		ProviderKey:  resp.ProviderKey,
		RegisteredAt: requestcontext.Now(ctx),
	}
	if err := s.registrations.Save(ctx, reg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}
	if err := s.lock.Registered(ctx); err != nil {
		return err
	}
	s.logAudit(ctx, "wallet_registered", "wallet_id", reg.WalletID)
	return nil
}

// ResetWallet cancels the active session and wipes attestations, history,
// registration and retry state. It works for blocked wallets and blocked
// app versions.
func (s *Service) ResetWallet(ctx context.Context) error {
	if err := s.check(ctx, gateNone, false); err != nil {
		return err
	}
	release, err := s.claim()
	if err != nil {
		return err
	}
	defer release()

	if s.issuance.HasActive() {
		if err := s.issuance.Cancel(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to cancel issuance during reset", "error", err)
		}
	}
	if s.disclosure.HasActive() {
		if _, err := s.disclosure.Cancel(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to cancel disclosure during reset", "error", err)
		}
	}
	s.slot.Clear()

	if err := s.attestations.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear attestations")
	}
	if err := s.history.Clear(ctx); err != nil {
		return err
	}
	if err := s.registrations.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear registration")
	}
	s.executor.Reset()
	s.lock.Reset(ctx)
	s.hub.PublishAttestations([]models.Attestation{})
	s.logAudit(ctx, "wallet_reset")
	return nil
}
