package service

import (
	"net/url"

	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
)

func (s *WalletSuite) TestPidIssuance() {
	s.Require().NoError(s.wallet.Register(s.ctx(), walletPin))
	_, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.requireCode(err, dErrors.CodeLocked)
	s.Require().NoError(s.wallet.UnlockWallet(s.ctx(), walletPin))
	cards := s.wallet.SubscribeAttestations()

	redirect, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.Require().NoError(err)
	s.True(s.wallet.HasActiveIssuanceSession())
	s.True(s.wallet.HasActivePidIssuanceSession())
	u, err := url.Parse(redirect)
	s.Require().NoError(err)

	previews, err := s.wallet.ContinuePidIssuance(s.ctx(), s.issuer.CallbackURI(u.Query().Get("state")))
	s.Require().NoError(err)
	s.Require().Len(previews, 1)
	s.Equal(models.PidAttestationType, previews[0].AttestationType)

	s.Run("a wrong pin keeps the offer", func() {
		_, err := s.wallet.AcceptPidIssuance(s.ctx(), wrongPin)
		s.requireInstruction(err, "incorrect_pin")
		s.True(s.wallet.HasActivePidIssuanceSession())
	})

	issued, err := s.wallet.AcceptPidIssuance(s.ctx(), walletPin)
	s.Require().NoError(err)
	s.Require().Len(issued, 1)
	s.NotEmpty(issued[0].Identity.Key())
	s.False(s.wallet.HasActiveIssuanceSession())

	awaitValue(s.T(), cards, func(list []models.Attestation) bool { return len(list) == 1 })
	events := s.history()
	s.Require().Len(events, 1)
	s.Equal(models.EventTypeIssuance, events[0].Type)
	s.Equal(issued[0], events[0].Issuance.Attestation)
}

func (s *WalletSuite) TestCancelPidIssuance() {
	s.registerAndUnlock()
	s.requireCode(s.wallet.CancelPidIssuance(s.ctx()), dErrors.CodeSessionState)

	redirect, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.Require().NoError(err)
	u, err := url.Parse(redirect)
	s.Require().NoError(err)
	_, err = s.wallet.ContinuePidIssuance(s.ctx(), s.issuer.CallbackURI(u.Query().Get("state")))
	s.Require().NoError(err)
	s.Equal(1, s.issuer.PendingOffers())

	s.Require().NoError(s.wallet.CancelPidIssuance(s.ctx()))
	s.False(s.wallet.HasActiveIssuanceSession())
	s.Zero(s.issuer.PendingOffers(), "the offer is rejected at the issuer")

	_, err = s.wallet.AcceptPidIssuance(s.ctx(), walletPin)
	s.requireCode(err, dErrors.CodeSessionState)
	s.Empty(s.history())
}

func (s *WalletSuite) TestIssuerFailureEndsOnlyTheSession() {
	s.registerAndUnlock()
	s.issuer.FailNext(errConnectionReset)

	_, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.requireCode(err, dErrors.CodeNetwork)
	s.False(s.wallet.HasActiveIssuanceSession())
	s.Equal(models.PinRetryState{}, s.wallet.PinRetryState())
	s.Require().NoError(s.wallet.CheckPin(s.ctx(), walletPin))
}

func (s *WalletSuite) TestOnlyOneSession() {
	s.registerAndUnlock()
	s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType))

	_, err := s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.Require().NoError(err)

	_, err = s.wallet.StartDisclosure(s.ctx(), uri, false)
	s.requireCode(err, dErrors.CodeSessionState)
	s.False(s.wallet.HasActiveDisclosureSession())
	s.True(s.wallet.HasActivePidIssuanceSession())

	s.Require().NoError(s.wallet.CancelIssuance(s.ctx()))
	_, err = s.wallet.StartDisclosure(s.ctx(), uri, false)
	s.Require().NoError(err)

	_, err = s.wallet.CreatePidIssuanceRedirectURI(s.ctx())
	s.requireCode(err, dErrors.CodeSessionState)
	s.False(s.wallet.HasActiveIssuanceSession())
}
