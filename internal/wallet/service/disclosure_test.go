package service

import (
	"context"
	"slices"

	"walletcore/internal/mockparty"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
)

func (s *WalletSuite) TestIdentifyURI() {
	kind, err := s.wallet.IdentifyURI(s.ctx(), "openid4vp://authorize?session=1")
	s.Require().NoError(err)
	s.Equal(models.URIDisclosure, kind)

	kind, err = s.wallet.IdentifyURI(s.ctx(), models.DefaultUniversalLinkBase+"return-from-digid?state=1")
	s.Require().NoError(err)
	s.Equal(models.URIPidIssuance, kind)

	_, err = s.wallet.IdentifyURI(s.ctx(), "https://elsewhere.example")
	s.requireCode(err, dErrors.CodeValidation)
}

func (s *WalletSuite) TestAcceptDisclosure() {
	s.registerAndUnlock()
	pid := s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType), mockparty.WithReturnURL("https://marktplaats.example/done"))

	result, err := s.wallet.StartDisclosure(s.ctx(), uri, true)
	s.Require().NoError(err)
	s.Equal(models.StartDisclosureRequest, result.Kind)
	s.Equal(models.SessionTypeCrossDevice, result.SessionType)
	s.Equal(models.DisclosureTypeRegular, result.RequestType)
	s.False(result.SharedDataWithRelyingPartyBefore)
	s.Require().Len(result.RequestedAttestations, 1)
	s.Equal(models.PidAttestationType, result.RequestedAttestations[0].AttestationType)
	s.True(s.wallet.HasActiveDisclosureSession())

	s.Run("a wrong pin keeps the request", func() {
		_, err := s.wallet.AcceptDisclosure(s.ctx(), wrongPin)
		s.requireInstruction(err, "incorrect_pin")
		s.True(s.wallet.HasActiveDisclosureSession())
	})

	accepted, err := s.wallet.AcceptDisclosure(s.ctx(), walletPin)
	s.Require().NoError(err)
	s.Equal("https://marktplaats.example/done", accepted.ReturnURL)
	s.False(accepted.HasIssuanceOffer)
	s.False(s.wallet.HasActiveDisclosureSession())
	s.Equal(mockparty.SessionDisclosed, s.verifier.Status(mockparty.SessionToken(uri)))

	events := s.history()
	s.Require().Len(events, 2)
	s.Equal(models.EventTypeDisclosure, events[0].Type, "most recent first")
	s.Equal(models.DisclosureStatusSuccess, events[0].Disclosure.Status)
	held, err := s.attestations.List(s.ctx())
	s.Require().NoError(err)
	s.Equal(pid, held, "disclosure leaves the attestations untouched")

	s.Run("the relying party is recognized next time", func() {
		again, err := s.wallet.StartDisclosure(s.ctx(), s.verifier.NewSession(s.request(models.PidAttestationType)), false)
		s.Require().NoError(err)
		s.True(again.SharedDataWithRelyingPartyBefore)
		_, err = s.wallet.CancelDisclosure(s.ctx())
		s.Require().NoError(err)
	})
}

func (s *WalletSuite) TestDisclosureWithMissingAttestation() {
	s.registerAndUnlock()
	s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType, "com.example.diploma"))

	result, err := s.wallet.StartDisclosure(s.ctx(), uri, false)
	s.Require().NoError(err)
	s.Equal(models.StartDisclosureAttributesMissing, result.Kind)
	s.Equal([]string{"com.example.diploma"}, result.MissingAttributes)
	s.Empty(result.RequestedAttestations)

	_, err = s.wallet.AcceptDisclosure(s.ctx(), walletPin)
	s.requireCode(err, dErrors.CodeSessionState)
	s.Equal(models.PinRetryState{}, s.wallet.PinRetryState())

	_, err = s.wallet.CancelDisclosure(s.ctx())
	s.Require().NoError(err)
	s.False(s.wallet.HasActiveDisclosureSession())
}

func (s *WalletSuite) TestCancelDisclosure() {
	s.registerAndUnlock()
	s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType), mockparty.WithReturnURL("https://marktplaats.example/cancelled"))
	_, err := s.wallet.StartDisclosure(s.ctx(), uri, false)
	s.Require().NoError(err)

	returnURL, err := s.wallet.CancelDisclosure(s.ctx())
	s.Require().NoError(err)
	s.Equal("https://marktplaats.example/cancelled", returnURL)
	s.False(s.wallet.HasActiveDisclosureSession())
	s.Equal(mockparty.SessionTerminated, s.verifier.Status(mockparty.SessionToken(uri)))

	cancelled := slices.DeleteFunc(s.history(), func(ev models.WalletEvent) bool {
		return ev.Disclosure == nil || ev.Disclosure.Status != models.DisclosureStatusCancelled
	})
	s.Len(cancelled, 1)

	_, err = s.wallet.CancelDisclosure(s.ctx())
	s.requireCode(err, dErrors.CodeSessionState)
}

func (s *WalletSuite) TestCancelDuringAcceptNeverCompletes() {
	s.registerAndUnlock()
	s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType))
	_, err := s.wallet.StartDisclosure(s.ctx(), uri, false)
	s.Require().NoError(err)

	entered, _ := s.server.holdNext(ports.InstructionDisclose)
	done := make(chan error, 1)
	go func() {
		_, err := s.wallet.AcceptDisclosure(s.ctx(), walletPin)
		done <- err
	}()
	<-entered

	_, err = s.wallet.CancelDisclosure(s.ctx())
	s.Require().NoError(err)
	s.requireCode(<-done, dErrors.CodeSessionState)

	s.Empty(s.verifier.Disclosed(mockparty.SessionToken(uri)))
	for _, ev := range s.history() {
		if ev.Disclosure != nil {
			s.Equal(models.DisclosureStatusCancelled, ev.Disclosure.Status)
		}
	}
}

func (s *WalletSuite) TestCancelWhileIdentifying() {
	s.registerAndUnlock()
	s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType), mockparty.WithReturnURL("https://marktplaats.example/cancelled"))

	entered, release := s.starts.holdNextStart()
	done := make(chan error, 1)
	go func() {
		_, err := s.wallet.StartDisclosure(s.ctx(), uri, false)
		done <- err
	}()
	<-entered

	_, err := s.wallet.CancelDisclosure(s.ctx())
	s.Require().NoError(err)
	s.False(s.wallet.HasActiveDisclosureSession())

	close(release)
	s.requireCode(<-done, dErrors.CodeSessionState)

	s.Equal(mockparty.SessionTerminated, s.verifier.Status(mockparty.SessionToken(uri)), "the contacted relying party is told")
	cancelled := slices.DeleteFunc(s.history(), func(ev models.WalletEvent) bool {
		return ev.Disclosure == nil || ev.Disclosure.Status != models.DisclosureStatusCancelled
	})
	s.Require().Len(cancelled, 1)
	s.Equal(s.rp, cancelled[0].Disclosure.RelyingParty)
	s.False(s.wallet.HasActiveDisclosureSession())
}

func (s *WalletSuite) TestLoginDisclosure() {
	s.registerAndUnlock()
	s.issuePid()
	req := s.request()
	req.Requested = []models.RequestedAttestation{{AttestationType: models.PidAttestationType, AttributeKeys: []string{models.PidIdentifierAttribute}}}

	result, err := s.wallet.StartDisclosure(s.ctx(), s.verifier.NewSession(req), false)
	s.Require().NoError(err)
	s.Equal(models.DisclosureTypeLogin, result.RequestType)
	_, err = s.wallet.AcceptDisclosure(s.ctx(), walletPin)
	s.Require().NoError(err)
	s.Equal(models.DisclosureTypeLogin, s.history()[0].Disclosure.DisclosureType)
}

func (s *WalletSuite) TestDisclosureBasedIssuance() {
	s.registerAndUnlock()
	s.issuePid()
	uri := s.verifier.NewSession(s.request(models.PidAttestationType), mockparty.WithIssuanceOffer(diploma()))
	_, err := s.wallet.ContinueDisclosureBasedIssuance(s.ctx(), walletPin)
	s.requireCode(err, dErrors.CodeSessionState)

	_, err = s.wallet.StartDisclosure(s.ctx(), uri, false)
	s.Require().NoError(err)
	accepted, err := s.wallet.AcceptDisclosure(s.ctx(), walletPin)
	s.Require().NoError(err)
	s.True(accepted.HasIssuanceOffer)
	s.Require().Len(accepted.OfferedPreviews, 1)
	s.True(s.wallet.HasActiveIssuanceSession())
	s.False(s.wallet.HasActivePidIssuanceSession())
	s.False(s.wallet.HasActiveDisclosureSession())

	issued, err := s.wallet.ContinueDisclosureBasedIssuance(s.ctx(), walletPin)
	s.Require().NoError(err)
	s.Require().Len(issued, 1)
	s.False(s.wallet.HasActiveIssuanceSession())

	s.Run("history for a card is the matching subsequence", func() {
		all := s.history()
		s.Require().Len(all, 3)
		for _, attestationType := range []string{models.PidAttestationType, "com.example.diploma", "unknown"} {
			forCard, err := s.wallet.GetHistoryForCard(s.ctx(), attestationType)
			s.Require().NoError(err)
			expected := slices.DeleteFunc(slices.Clone(all), func(ev models.WalletEvent) bool {
				return !ev.References(attestationType)
			})
			s.Equal(expected, forCard, attestationType)
		}
	})
}

func (s *WalletSuite) TestHistoryRequiresUnlock() {
	s.registerAndUnlock()
	s.Require().NoError(s.wallet.LockWallet(context.Background()))
	_, err := s.wallet.GetHistory(s.ctx())
	s.requireCode(err, dErrors.CodeLocked)
	_, err = s.wallet.GetHistoryForCard(s.ctx(), models.PidAttestationType)
	s.requireCode(err, dErrors.CodeLocked)
}
