package service

import (
	"context"
	"errors"

	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/sentinel"
)

// gate is the lock state an operation requires.
type gate int

const (
	gateNone gate = iota
	gateRegistered
	gateUnlocked
)

// begin checks the preconditions of a mutating operation and claims the
// operation guard. The returned func releases it.
func (s *Service) begin(ctx context.Context, g gate) (func(), error) {
	if err := s.check(ctx, g, true); err != nil {
		return nil, err
	}
	return s.claim()
}

func (s *Service) claim() (func(), error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, dErrors.New(dErrors.CodeSessionState, "another wallet operation is in progress")
	}
	return func() { s.busy.Store(false) }, nil
}

// check verifies initialization, the version state and the lock state, and
// counts the call as user activity. Queries skip the version check.
func (s *Service) check(ctx context.Context, g gate, versionGated bool) error {
	if !s.initialized.Load() {
		return dErrors.New(dErrors.CodeSessionState, "wallet is not initialized")
	}
	if versionGated && s.config.VersionState().IsBlocked() {
		return dErrors.New(dErrors.CodeVersionBlocked, "this app version is blocked")
	}
	switch g {
	case gateRegistered:
		if err := s.lock.RequireRegistered(); err != nil {
			return err
		}
	case gateUnlocked:
		if err := s.lock.RequireUnlocked(); err != nil {
			return err
		}
	}
	s.lock.Touch(ctx)
	return nil
}

func (s *Service) registration(ctx context.Context) (*models.Registration, error) {
	reg, err := s.registrations.Get(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotRegistered, "wallet is not registered")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

// updateRegistration loads the registration, applies fn and saves it. The
// executor writes the sequence number, so the registration is always
// reloaded rather than kept across instructions.
func (s *Service) updateRegistration(ctx context.Context, fn func(reg *models.Registration)) error {
	reg, err := s.registration(ctx)
	if err != nil {
		return err
	}
	fn(reg)
	if err := s.registrations.Save(ctx, reg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registration")
	}
	return nil
}

// requireNoPendingPinChange fails while an interrupted PIN change waits for
// continue_change_pin.
func (s *Service) requireNoPendingPinChange(ctx context.Context) error {
	reg, err := s.registration(ctx)
	if err != nil {
		return err
	}
	if reg.PendingChangePin != nil {
		return dErrors.New(dErrors.CodeSessionState, "a pin change must be completed first")
	}
	return nil
}
