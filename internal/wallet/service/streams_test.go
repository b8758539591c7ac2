package service

import (
	"errors"

	"walletcore/internal/mockparty"
	"walletcore/internal/notify"
	"walletcore/internal/wallet/models"
)

func (s *WalletSuite) TestRecentHistoryStream() {
	s.registerAndUnlock()
	s.issuePid()

	history, err := s.wallet.SubscribeRecentHistory(s.ctx())
	s.Require().NoError(err)
	seeded := awaitValue(s.T(), history, func(models.WalletEvent) bool { return true })
	s.Equal(models.EventTypeIssuance, seeded.Type)

	_, err = s.wallet.StartDisclosure(s.ctx(), s.verifier.NewSession(s.request(models.PidAttestationType)), false)
	s.Require().NoError(err)
	_, err = s.wallet.AcceptDisclosure(s.ctx(), walletPin)
	s.Require().NoError(err)

	appended := awaitValue(s.T(), history, func(models.WalletEvent) bool { return true })
	s.Equal(models.EventTypeDisclosure, appended.Type)

	s.Run("clearing ends the subscription", func() {
		s.wallet.ClearStream(notify.StreamRecentHistory)
		_, open := <-history.Updates()
		s.False(open)
		s.True(errors.Is(history.Err(), notify.ErrCleared))
	})
}

func (s *WalletSuite) TestStreamsReplayTheCurrentValue() {
	configurations := s.wallet.SubscribeConfiguration()
	c := awaitValue(s.T(), configurations, func(models.Configuration) bool { return true })
	s.Equal(models.DefaultConfiguration(), c)

	locks := s.wallet.SubscribeLock()
	s.True(awaitValue(s.T(), locks, func(bool) bool { return true }))

	replacement := s.wallet.SubscribeLock()
	s.True(awaitValue(s.T(), replacement, func(bool) bool { return true }))
	for range locks.Updates() {
	}
	s.True(errors.Is(locks.Err(), notify.ErrReplaced))
}

func (s *WalletSuite) TestHistoryStreamBackpressure() {
	s.wallet = s.newWallet(WithHistoryBuffer(1))
	s.Require().NoError(s.wallet.Init(s.ctx()))
	s.registerAndUnlock()

	history, err := s.wallet.SubscribeRecentHistory(s.ctx())
	s.Require().NoError(err)
	s.issuePid()
	_, err = s.wallet.StartDisclosure(s.ctx(), s.verifier.NewSession(s.request(models.PidAttestationType), mockparty.WithReturnURL("https://rp.example")), false)
	s.Require().NoError(err)
	_, err = s.wallet.AcceptDisclosure(s.ctx(), walletPin)
	s.Require().NoError(err, "a lagging consumer never fails the wallet operation")

	received := 0
	for range history.Updates() {
		received++
	}
	s.Equal(1, received)
	s.True(errors.Is(history.Err(), notify.ErrBackpressure))
}
