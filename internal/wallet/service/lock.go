package service

import (
	"context"

	"walletcore/internal/instruction"
	"walletcore/internal/lock"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
)

// UnlockWallet proves p to the account server and unlocks the wallet. A
// wrong PIN keeps the wallet locked and returns an instruction error.
func (s *Service) UnlockWallet(ctx context.Context, p string) error {
	release, err := s.begin(ctx, gateRegistered)
	if err != nil {
		return err
	}
	defer release()
	return s.unlock(ctx, instruction.PinProof(p))
}

func (s *Service) UnlockWalletWithBiometrics(ctx context.Context) error {
	release, err := s.begin(ctx, gateRegistered)
	if err != nil {
		return err
	}
	defer release()

	reg, err := s.registration(ctx)
	if err != nil {
		return err
	}
	if !reg.BiometricUnlock {
		return dErrors.New(dErrors.CodeSessionState, "biometric unlock is not enabled")
	}
	return s.unlock(ctx, instruction.BiometricProof())
}

func (s *Service) unlock(ctx context.Context, proof instruction.Proof) error {
	if err := s.requireNoPendingPinChange(ctx); err != nil {
		return err
	}
	if _, err := s.executor.Execute(ctx, proof, instruction.Instruction{Name: ports.InstructionUnlock}); err != nil {
		return err
	}
	return s.lock.Unlocked(ctx)
}

// LockWallet locks an unlocked wallet. It is not guarded so the UI can lock
// while an operation is in flight.
func (s *Service) LockWallet(ctx context.Context) error {
	if err := s.check(ctx, gateNone, false); err != nil {
		return err
	}
	s.lock.Lock(ctx, lock.ReasonExplicit)
	return nil
}

// CheckPin verifies p without changing the lock state. It spends an attempt
// like an unlock does.
func (s *Service) CheckPin(ctx context.Context, p string) error {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return err
	}
	defer release()

	if err := s.requireNoPendingPinChange(ctx); err != nil {
		return err
	}
	_, err = s.executor.Execute(ctx, instruction.PinProof(p), instruction.Instruction{Name: ports.InstructionCheckPin})
	return err
}

func (s *Service) IsBiometricUnlockEnabled(ctx context.Context) (bool, error) {
	if err := s.check(ctx, gateRegistered, false); err != nil {
		return false, err
	}
	reg, err := s.registration(ctx)
	if err != nil {
		return false, err
	}
	return reg.BiometricUnlock, nil
}

func (s *Service) SetBiometricUnlock(ctx context.Context, enable bool) error {
	release, err := s.begin(ctx, gateUnlocked)
	if err != nil {
		return err
	}
	defer release()

	if enable && s.biometric == nil {
		return dErrors.New(dErrors.CodeSessionState, "no biometric key available")
	}
	return s.updateRegistration(ctx, func(reg *models.Registration) {
		reg.BiometricUnlock = enable
	})
}

// AppBackgrounded starts the background lock timer.
func (s *Service) AppBackgrounded(ctx context.Context) {
	s.lock.Background(ctx)
}

// AppForegrounded locks the wallet when it spent longer than the background
// lock timeout in the background, and reports whether it did.
func (s *Service) AppForegrounded(ctx context.Context) bool {
	return s.lock.Foreground(ctx)
}
