package service

import (
	"context"
	"time"

	"walletcore/internal/lock"
	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
)

func (s *WalletSuite) TestOperationsRequireInit() {
	fresh := s.newWallet()
	s.False(fresh.IsInitialized())
	s.requireCode(fresh.Register(s.ctx(), walletPin), dErrors.CodeSessionState)

	s.Require().NoError(fresh.Init(s.ctx()))
	s.Require().NoError(fresh.Init(s.ctx()), "init is idempotent")
	s.True(fresh.IsInitialized())
}

func (s *WalletSuite) TestRegisterAndUnlock() {
	registered, err := s.wallet.HasRegistration(s.ctx())
	s.Require().NoError(err)
	s.False(registered)

	s.Require().NoError(s.wallet.Register(s.ctx(), "123456"), "weak pins are only advisory")
	registered, err = s.wallet.HasRegistration(s.ctx())
	s.Require().NoError(err)
	s.True(registered)
	s.Equal(lock.StateLocked, s.wallet.LockState())

	s.Require().NoError(s.wallet.UnlockWallet(s.ctx(), "123456"))
	s.Equal(lock.StateUnlocked, s.wallet.LockState())

	s.Require().NoError(s.wallet.LockWallet(s.ctx()))
	err = s.wallet.UnlockWallet(s.ctx(), wrongPin)
	detail := s.requireInstruction(err, "incorrect_pin")
	s.Equal(2, detail.AttemptsLeftInRound)
	s.False(detail.IsFinalRound)
	s.Equal(lock.StateLocked, s.wallet.LockState())
	s.Equal(models.PinRetryState{AttemptsLeftInRound: 2}, s.wallet.PinRetryState())
}

func (s *WalletSuite) TestRegister() {
	s.Run("malformed pin costs nothing", func() {
		s.requireCode(s.wallet.Register(s.ctx(), "12345"), dErrors.CodeValidation)
		s.requireCode(s.wallet.Register(s.ctx(), "12a456"), dErrors.CodeValidation)
		s.Equal(lock.StateUninitialized, s.wallet.LockState())
	})

	s.Require().NoError(s.wallet.Register(s.ctx(), walletPin))

	s.Run("a second registration is rejected", func() {
		s.requireCode(s.wallet.Register(s.ctx(), walletPin), dErrors.CodeSessionState)
	})

	s.Run("registration survives a restart", func() {
		restarted := s.newWallet()
		s.Require().NoError(restarted.Init(s.ctx()))
		s.Equal(lock.StateLocked, restarted.LockState())
		s.Require().NoError(restarted.UnlockWallet(s.ctx(), walletPin))
	})
}

func (s *WalletSuite) TestIsValidPin() {
	s.Equal(models.PinOk, s.wallet.IsValidPin(walletPin))
	s.Equal(models.PinAscendingDigits, s.wallet.IsValidPin("123456"))
	s.Equal(models.PinTooFewUniqueDigits, s.wallet.IsValidPin("111111"))
	s.Equal(models.PinInvalidLength, s.wallet.IsValidPin("1234"))
}

func (s *WalletSuite) TestBlockedAfterFinalRound() {
	s.Require().NoError(s.wallet.Register(s.ctx(), walletPin))

	s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), wrongPin), "incorrect_pin")
	s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), wrongPin), "incorrect_pin")
	timeout := s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), wrongPin), "timeout")
	s.Equal(time.Minute.Milliseconds(), timeout.TimeoutMillis)

	s.Run("the timeout holds for a correct pin and a restarted wallet", func() {
		s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), walletPin), "timeout")
		restarted := s.newWallet()
		s.Require().NoError(restarted.Init(s.ctx()))
		s.requireInstruction(restarted.UnlockWallet(s.ctx(), walletPin), "timeout")
	})

	s.advance(2 * time.Minute)
	detail := s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), wrongPin), "incorrect_pin")
	s.True(detail.IsFinalRound)
	s.Equal(2, detail.AttemptsLeftInRound)
	s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), wrongPin), "incorrect_pin")

	err := s.wallet.UnlockWallet(s.ctx(), wrongPin)
	s.requireCode(err, dErrors.CodeBlocked)
	s.Equal(lock.StateBlocked, s.wallet.LockState())
	s.True(s.wallet.PinRetryState().Blocked)

	s.Run("every gated operation fails until reset", func() {
		s.requireCode(s.wallet.UnlockWallet(s.ctx(), walletPin), dErrors.CodeBlocked)
		s.requireCode(s.wallet.CheckPin(s.ctx(), walletPin), dErrors.CodeBlocked)
		_, err := s.wallet.AcceptDisclosure(s.ctx(), walletPin)
		s.requireCode(err, dErrors.CodeBlocked)
		_, err = s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
		s.requireCode(err, dErrors.CodeBlocked)
	})

	s.Run("the guard and the executor report blocked with the same detail", func() {
		s.requireInstruction(s.wallet.UnlockWallet(s.ctx(), walletPin), "blocked")
		s.requireInstruction(s.wallet.CheckPin(s.ctx(), walletPin), "blocked")
		_, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
		s.requireInstruction(err, "blocked")

		restarted := s.newWallet()
		s.Require().NoError(restarted.Init(s.ctx()))
		s.Equal(lock.StateBlocked, restarted.LockState())
	})

	s.Require().NoError(s.wallet.ResetWallet(s.ctx()))
	s.Equal(lock.StateUninitialized, s.wallet.LockState())
	s.Equal(models.PinRetryState{}, s.wallet.PinRetryState())
	s.registerAndUnlock()
}

func (s *WalletSuite) TestResetWallet() {
	s.registerAndUnlock()
	s.issuePid()
	_, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.Require().NoError(err)
	cards := s.wallet.SubscribeAttestations()

	s.Require().NoError(s.wallet.ResetWallet(s.ctx()))

	s.False(s.wallet.HasActiveIssuanceSession())
	registered, err := s.wallet.HasRegistration(s.ctx())
	s.Require().NoError(err)
	s.False(registered)
	held, err := s.attestations.List(s.ctx())
	s.Require().NoError(err)
	s.Empty(held)
	events, err := s.events.List(s.ctx())
	s.Require().NoError(err)
	s.Empty(events)
	awaitValue(s.T(), cards, func(list []models.Attestation) bool { return len(list) == 0 })
}

func (s *WalletSuite) TestVersionBlocked() {
	s.registerAndUnlock()
	versions := s.wallet.SubscribeVersionState()

	blocked := models.DefaultConfiguration()
	blocked.Version = 7
	blocked.VersionState = models.VersionState{Kind: models.VersionBlock}
	s.Require().NoError(s.wallet.Configuration().Update(context.Background(), blocked))
	awaitValue(s.T(), versions, func(v models.VersionState) bool { return v.IsBlocked() })

	s.requireCode(s.wallet.UnlockWallet(s.ctx(), walletPin), dErrors.CodeVersionBlocked)
	_, err := s.wallet.StartDisclosure(s.ctx(), "openid4vp://authorize", false)
	s.requireCode(err, dErrors.CodeVersionBlocked)

	s.Run("queries and reset still work", func() {
		_, err := s.wallet.GetHistory(s.ctx())
		s.NoError(err)
		_, err = s.wallet.HasRegistration(s.ctx())
		s.NoError(err)
		s.NoError(s.wallet.ResetWallet(s.ctx()))
	})
}

func (s *WalletSuite) TestNewRequiresDependencies() {
	_, err := New(Dependencies{AccountServer: s.server})
	s.Error(err)
}
