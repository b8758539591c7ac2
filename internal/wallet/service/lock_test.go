package service

import (
	"time"

	"walletcore/internal/lock"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/testutil"
)

func (s *WalletSuite) TestCheckPinKeepsTheLockState() {
	s.Require().NoError(s.wallet.Register(s.ctx(), walletPin))
	s.requireCode(s.wallet.CheckPin(s.ctx(), walletPin), dErrors.CodeLocked)

	s.Require().NoError(s.wallet.UnlockWallet(s.ctx(), walletPin))
	s.Require().NoError(s.wallet.CheckPin(s.ctx(), walletPin))
	s.Equal(lock.StateUnlocked, s.wallet.LockState())

	s.Run("a wrong pin spends an attempt", func() {
		detail := s.requireInstruction(s.wallet.CheckPin(s.ctx(), wrongPin), "incorrect_pin")
		s.Equal(2, detail.AttemptsLeftInRound)
		detail = s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), wrongPin), "incorrect_pin")
		s.Equal(1, detail.AttemptsLeftInRound)
		s.Equal(lock.StateUnlocked, s.wallet.LockState())
	})
}

func (s *WalletSuite) TestChangePin() {
	s.registerAndUnlock()

	s.Run("malformed new pin", func() {
		s.requireCode(s.wallet.ChangePin(s.ctx(), walletPin, "12"), dErrors.CodeValidation)
	})
	s.Run("wrong old pin", func() {
		s.requireInstruction(s.wallet.ChangePin(s.ctx(), wrongPin, newPin), "incorrect_pin")
	})

	s.Require().NoError(s.wallet.ChangePin(s.ctx(), walletPin, newPin))
	s.Require().NoError(s.wallet.LockWallet(s.ctx()))
	s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), walletPin), "incorrect_pin")
	s.Require().NoError(s.wallet.UnlockWallet(s.ctx(), newPin))
}

func (s *WalletSuite) TestInterruptedPinChangeIsContinued() {
	s.registerAndUnlock()

	s.server.dropNext(ports.InstructionChangePinCommit)
	err := s.wallet.ChangePin(s.ctx(), walletPin, newPin)
	s.requireCode(err, dErrors.CodeNetwork)

	reg, err := s.registrations.Get(s.ctx())
	s.Require().NoError(err)
	s.Require().NotNil(reg.PendingChangePin)

	s.Run("gated operations wait for the change", func() {
		s.requireCode(s.wallet.ChangePin(s.ctx(), walletPin, newPin), dErrors.CodeSessionState)
		s.Require().NoError(s.wallet.LockWallet(s.ctx()))
		s.requireCode(s.wallet.UnlockWallet(s.ctx(), newPin), dErrors.CodeSessionState)
	})

	s.Run("the new pin finishes the change after a restart", func() {
		restarted := s.newWallet()
		s.Require().NoError(restarted.Init(s.ctx()))
		s.requireInstruction(restarted.ContinueChangePin(s.ctx(), walletPin), "incorrect_pin")
		s.Require().NoError(restarted.ContinueChangePin(s.ctx(), newPin))
		s.Require().NoError(restarted.UnlockWallet(s.ctx(), newPin))
	})

	s.requireCode(s.wallet.ContinueChangePin(s.ctx(), newPin), dErrors.CodeSessionState)
}

func (s *WalletSuite) TestInterruptedPinChangeStartIsRolledBack() {
	s.registerAndUnlock()

	s.server.dropNext(ports.InstructionChangePinStart)
	s.requireCode(s.wallet.ChangePin(s.ctx(), walletPin, newPin), dErrors.CodeNetwork)

	reg, err := s.registrations.Get(s.ctx())
	s.Require().NoError(err)
	s.Nil(reg.PendingChangePin)
	s.Require().NoError(s.wallet.CheckPin(s.ctx(), walletPin))
}

func (s *WalletSuite) TestBiometricUnlock() {
	s.wallet = s.newWallet(WithBiometricKey(newSoftwareKey(s.T())))
	s.Require().NoError(s.wallet.Init(s.ctx()))
	s.registerAndUnlock()

	enabled, err := s.wallet.IsBiometricUnlockEnabled(s.ctx())
	s.Require().NoError(err)
	s.False(enabled)

	s.Require().NoError(s.wallet.LockWallet(s.ctx()))
	s.requireCode(s.wallet.UnlockWalletWithBiometrics(s.ctx()), dErrors.CodeSessionState)
	s.Require().NoError(s.wallet.UnlockWallet(s.ctx(), walletPin))

	s.Require().NoError(s.wallet.SetBiometricUnlock(s.ctx(), true))
	enabled, err = s.wallet.IsBiometricUnlockEnabled(s.ctx())
	s.Require().NoError(err)
	s.True(enabled)

	s.Require().NoError(s.wallet.LockWallet(s.ctx()))
	s.Require().NoError(s.wallet.UnlockWalletWithBiometrics(s.ctx()))
	s.Equal(lock.StateUnlocked, s.wallet.LockState())
}

func (s *WalletSuite) TestBiometricUnlockNeedsAKey() {
	s.registerAndUnlock()
	s.requireCode(s.wallet.SetBiometricUnlock(s.ctx(), true), dErrors.CodeSessionState)
	s.Require().NoError(s.wallet.SetBiometricUnlock(s.ctx(), false))
}

func (s *WalletSuite) TestOverlappingOperationsAreRejected() {
	s.Require().NoError(s.wallet.Register(s.ctx(), walletPin))
	entered, release := s.server.holdNext(ports.InstructionUnlock)

	done := make(chan error, 1)
	go func() { done <- s.wallet.UnlockWallet(s.ctx(), walletPin) }()
	<-entered

	result := testutil.RunConcurrent(4, func(int) error {
		return s.wallet.UnlockWallet(s.ctx(), walletPin)
	})
	s.Equal(int32(4), result.Total())
	s.Equal(int32(4), result.Rejected)
	s.Zero(result.Successes)

	close(release)
	s.Require().NoError(<-done)
	s.Equal(lock.StateUnlocked, s.wallet.LockState())
}

func (s *WalletSuite) TestAppLifecycle() {
	s.registerAndUnlock()
	locks := s.wallet.SubscribeLock()
	awaitValue(s.T(), locks, func(locked bool) bool { return !locked })

	s.wallet.AppBackgrounded(s.ctx())
	s.advance(time.Minute)
	s.False(s.wallet.AppForegrounded(s.ctx()))
	s.Equal(lock.StateUnlocked, s.wallet.LockState())

	s.wallet.AppBackgrounded(s.ctx())
	s.advance(6 * time.Minute)
	s.True(s.wallet.AppForegrounded(s.ctx()))
	s.Equal(lock.StateLocked, s.wallet.LockState())
	awaitValue(s.T(), locks, func(locked bool) bool { return locked })
}

func (s *WalletSuite) TestInactivityLock() {
	s.registerAndUnlock()
	locker := s.wallet.Locker()

	s.advance(4 * time.Minute)
	s.False(locker.LockIfInactive(s.ctx(), s.now))
	s.NoError(s.wallet.CheckPin(s.ctx(), walletPin), "operations count as activity")

	s.advance(4 * time.Minute)
	s.False(locker.LockIfInactive(s.ctx(), s.now))
	s.advance(2 * time.Minute)
	s.True(locker.LockIfInactive(s.ctx(), s.now))
	s.Equal(lock.StateLocked, s.wallet.LockState())
}
