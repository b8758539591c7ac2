package service

import (
	"context"

	"walletcore/internal/instruction"
	"walletcore/internal/pin"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
)

// ChangePin replaces the PIN in two phases. The account server stages the key
// of newPin, proven with oldPin; the wallet records the pending change and
// commits it proven with newPin. A commit that did not finish is completed
// with ContinueChangePin, which every other gated operation waits for.
func (s *Service) ChangePin(ctx context.Context, oldPin, newPin string) error {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return err
	}
	defer release()

	if err := s.requireNoPendingPinChange(ctx); err != nil {
		return err
	}
	if err := pin.CheckFormat(newPin); err != nil {
		return err
	}
	salt, err := pin.NewSalt()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate pin salt")
	}

	start := instruction.Instruction{
		Name:            ports.InstructionChangePinStart,
		NewPinPublicKey: pin.DeriveKey(newPin, salt).PublicKey(),
	}
	if _, err := s.executor.Execute(ctx, instruction.PinProof(oldPin), start); err != nil {
		// The account server may have staged the key before the call failed.
		if dErrors.HasCode(err, dErrors.CodeNetwork) {
			s.rollbackPinChange(ctx, oldPin)
		}
		return err
	}

	err = s.updateRegistration(ctx, func(reg *models.Registration) {
		reg.PendingChangePin = &models.PendingChangePin{NewSalt: salt}
	})
	if err != nil {
		s.rollbackPinChange(ctx, oldPin)
		return err
	}
	return s.commitPinChange(ctx, newPin, salt)
}

// ContinueChangePin finishes an interrupted PIN change, proven with the new PIN.
func (s *Service) ContinueChangePin(ctx context.Context, newPin string) error {
	release, err := s.begin(ctx, gateRegistered)
	if err != nil {
		return err
	}
	defer release()

	reg, err := s.registration(ctx)
	if err != nil {
		return err
	}
	if reg.PendingChangePin == nil {
		return dErrors.New(dErrors.CodeSessionState, "no pin change to continue")
	}
	return s.commitPinChange(ctx, newPin, reg.PendingChangePin.NewSalt)
}

func (s *Service) commitPinChange(ctx context.Context, newPin string, salt []byte) error {
	proof := instruction.PinProof(newPin)
	proof.Salt = salt
	if _, err := s.executor.Execute(ctx, proof, instruction.Instruction{Name: ports.InstructionChangePinCommit}); err != nil {
		return err
	}
	err := s.updateRegistration(ctx, func(reg *models.Registration) {
		reg.Salt = salt
		reg.PendingChangePin = nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, "pin_changed")
	return nil
}

func (s *Service) rollbackPinChange(ctx context.Context, oldPin string) {
	_, err := s.executor.Execute(ctx, instruction.PinProof(oldPin), instruction.Instruction{Name: ports.InstructionChangePinRollback})
	if err != nil {
		s.logger.WarnContext(ctx, "pin change rollback failed", "error", err)
	}
}
