package instruction

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"walletcore/internal/accountserver"
	"walletcore/internal/accountserver/pinpolicy"
	"walletcore/internal/accountserver/store/account"
	"walletcore/internal/instruction/resulttoken"
	"walletcore/internal/pin"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	"walletcore/internal/wallet/ports/mocks"
	"walletcore/internal/wallet/store/registration"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/sentinel"
	"walletcore/pkg/requestcontext"
)

//go:generate mockgen -source=../wallet/ports/ports.go -destination=../wallet/ports/mocks/mocks.go -package=mocks

type ExecutorSuite struct {
	suite.Suite
	ctrl          *gomock.Controller
	server        *mocks.MockAccountServer
	biometric     *mocks.MockBiometricKey
	registrations *registration.InMemoryRegistrationStore
	metrics       *metrics.Metrics
	providerKey   *ecdsa.PrivateKey
	salt          []byte
	blockedCalls  atomic.Int32
	executor      *Executor
}

func TestExecutorSuite(t *testing.T) {
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.server = mocks.NewMockAccountServer(s.ctrl)
	s.biometric = mocks.NewMockBiometricKey(s.ctrl)
	s.registrations = registration.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.blockedCalls.Store(0)

	var err error
	s.providerKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	s.Require().NoError(err)
	providerPEM, err := resulttoken.EncodePublicKey(&s.providerKey.PublicKey)
	s.Require().NoError(err)
	s.salt, err = pin.NewSalt()
	s.Require().NoError(err)

	s.Require().NoError(s.registrations.Save(context.Background(), &models.Registration{
		WalletID:    "wallet-1",
		Salt:        s.salt,
		ProviderKey: providerPEM,
	}))

	s.executor = New(s.server, s.registrations,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithBiometricKey(s.biometric),
		WithOnBlocked(func(context.Context) { s.blockedCalls.Add(1) }),
	)
}

func (s *ExecutorSuite) expectChallenge(seq uint64) {
	s.server.EXPECT().
		Challenge(gomock.Any(), ports.ChallengeRequest{WalletID: "wallet-1", Instruction: ports.InstructionUnlock, Sequence: seq}).
		Return([]byte("challenge"), nil)
}

func (s *ExecutorSuite) signedResult(req ports.InstructionRequest) string {
	token, err := resulttoken.Sign(s.providerKey, req.WalletID, req.Instruction, req.Sequence, time.Now())
	s.Require().NoError(err)
	return token
}

func (s *ExecutorSuite) unlock(p string) (*Result, error) {
	return s.executor.Execute(context.Background(), PinProof(p), Instruction{Name: ports.InstructionUnlock})
}

func (s *ExecutorSuite) TestSuccess() {
	s.expectChallenge(1)
	s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.InstructionRequest) (string, error) {
			pub := pin.DeriveKey("112233", s.salt).PublicKey()
			s.True(ed25519.Verify(pub, req.Challenge, req.Signature))
			s.Equal(ports.ProofPin, req.ProofKind)
			return s.signedResult(req), nil
		})

	result, err := s.unlock("112233")
	s.Require().NoError(err)
	s.Equal(uint64(1), result.Sequence)

	reg, err := s.registrations.Get(context.Background())
	s.Require().NoError(err)
	s.Equal(uint64(1), reg.Sequence)
	s.Equal(models.PinRetryState{}, s.executor.RetryState())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.InstructionOutcomes.WithLabelValues(ports.InstructionUnlock, "success")))
}

func (s *ExecutorSuite) TestResultIsVerifiedAtTheRequestTime() {
	requestTime := time.Now().AddDate(-1, 0, 0)
	ctx := requestcontext.WithTime(context.Background(), requestTime)

	s.Run("given a result signed at the request time, it verifies", func() {
		s.expectChallenge(1)
		s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req ports.InstructionRequest) (string, error) {
				token, err := resulttoken.Sign(s.providerKey, req.WalletID, req.Instruction, req.Sequence, requestTime)
				s.Require().NoError(err)
				return token, nil
			})

		result, err := s.executor.Execute(ctx, PinProof("112233"), Instruction{Name: ports.InstructionUnlock})
		s.Require().NoError(err)
		s.Equal(uint64(1), result.Sequence)
	})

	s.Run("given a result that expired before the request time, it is a protocol error", func() {
		s.expectChallenge(2)
		s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req ports.InstructionRequest) (string, error) {
				token, err := resulttoken.Sign(s.providerKey, req.WalletID, req.Instruction, req.Sequence, requestTime.Add(-2*resulttoken.TTL))
				s.Require().NoError(err)
				return token, nil
			})

		_, err := s.executor.Execute(ctx, PinProof("112233"), Instruction{Name: ports.InstructionUnlock})
		s.True(dErrors.HasCode(err, dErrors.CodeProtocol))
	})
}

func (s *ExecutorSuite) TestAccountServerErrors() {
	s.Run("incorrect pin carries the attempts left", func() {
		s.expectChallenge(1)
		s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
			Return("", &ports.IncorrectPinError{AttemptsLeftInRound: 3, IsFinalRound: false})

		_, err := s.unlock("000000")
		s.True(dErrors.HasCode(err, dErrors.CodeInstruction))
		detail, ok := AsError(err)
		s.Require().True(ok)
		s.Equal(&Error{Kind: KindIncorrectPin, AttemptsLeftInRound: 3}, detail)
		s.Equal(models.PinRetryState{AttemptsLeftInRound: 3}, s.executor.RetryState())
	})

	s.Run("a failed call still spends its sequence number", func() {
		s.expectChallenge(2)
		s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
			Return("", &ports.PinTimeoutError{Timeout: 90 * time.Second})

		_, err := s.unlock("000000")
		detail, ok := AsError(err)
		s.Require().True(ok)
		s.Equal(KindTimeout, detail.Kind)
		s.Equal(int64(90000), detail.TimeoutMillis)
	})

	s.Run("unreachable account server is a network error", func() {
		s.server.EXPECT().Challenge(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrUnavailable)

		_, err := s.unlock("000000")
		s.True(dErrors.HasCode(err, dErrors.CodeNetwork))
		_, ok := AsError(err)
		s.False(ok)
	})

	s.Run("rejected challenge is a protocol error", func() {
		s.server.EXPECT().Challenge(gomock.Any(), gomock.Any()).Return([]byte("c"), nil)
		s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).Return("", ports.ErrInvalidChallenge)

		_, err := s.unlock("112233")
		s.True(dErrors.HasCode(err, dErrors.CodeProtocol))
	})

	s.Run("result signed by another key is a protocol error", func() {
		other, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		s.Require().NoError(err)
		s.server.EXPECT().Challenge(gomock.Any(), gomock.Any()).Return([]byte("c"), nil)
		s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req ports.InstructionRequest) (string, error) {
				return resulttoken.Sign(other, req.WalletID, req.Instruction, req.Sequence, time.Now())
			})

		_, err = s.unlock("112233")
		s.True(dErrors.HasCode(err, dErrors.CodeProtocol))
	})
}

func (s *ExecutorSuite) TestBlocked() {
	s.expectChallenge(1)
	s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).Return("", ports.ErrAccountBlocked)

	_, err := s.unlock("000000")
	s.True(dErrors.HasCode(err, dErrors.CodeBlocked))
	s.Equal(int32(1), s.blockedCalls.Load())
	s.True(s.executor.RetryState().Blocked)

	s.Run("later instructions fail without contacting the account server", func() {
		_, err := s.unlock("112233")
		s.True(dErrors.HasCode(err, dErrors.CodeBlocked))
		detail, ok := AsError(err)
		s.Require().True(ok)
		s.Equal(KindBlocked, detail.Kind)
	})

	s.Run("blocked state survives a new executor", func() {
		executor := New(s.server, s.registrations)
		_, err := executor.Execute(context.Background(), PinProof("112233"), Instruction{Name: ports.InstructionCheckPin})
		s.True(dErrors.HasCode(err, dErrors.CodeBlocked))
	})
}

func (s *ExecutorSuite) TestLocalRejections() {
	s.Run("malformed pin costs no attempt", func() {
		_, err := s.unlock("12a456")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		reg, err := s.registrations.Get(context.Background())
		s.Require().NoError(err)
		s.Equal(uint64(0), reg.Sequence)
	})

	s.Run("unregistered wallet", func() {
		_, err := New(s.server, registration.NewInMemory()).
			Execute(context.Background(), PinProof("112233"), Instruction{Name: ports.InstructionUnlock})
		s.True(dErrors.HasCode(err, dErrors.CodeNotRegistered))
	})

	s.Run("biometric proof without a key", func() {
		_, err := New(s.server, s.registrations).
			Execute(context.Background(), BiometricProof(), Instruction{Name: ports.InstructionUnlock})
		s.True(dErrors.HasCode(err, dErrors.CodeSessionState))
	})
}

func (s *ExecutorSuite) TestBiometricProof() {
	s.expectChallenge(1)
	s.biometric.EXPECT().SignChallenge(gomock.Any(), []byte("challenge")).Return([]byte("bio-signature"), nil)
	s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.InstructionRequest) (string, error) {
			s.Equal(ports.ProofBiometric, req.ProofKind)
			s.Equal([]byte("bio-signature"), req.Signature)
			return s.signedResult(req), nil
		})

	_, err := s.executor.Execute(context.Background(), BiometricProof(), Instruction{Name: ports.InstructionUnlock})
	s.NoError(err)
}

func (s *ExecutorSuite) TestOverlappingInstructionIsRejected() {
	entered := make(chan struct{})
	release := make(chan struct{})
	s.expectChallenge(1)
	s.server.EXPECT().Execute(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req ports.InstructionRequest) (string, error) {
			close(entered)
			<-release
			return s.signedResult(req), nil
		})

	done := make(chan error, 1)
	go func() {
		_, err := s.unlock("112233")
		done <- err
	}()
	<-entered

	_, err := s.unlock("112233")
	s.True(dErrors.HasCode(err, dErrors.CodeSessionState))

	close(release)
	s.NoError(<-done)
}

// The retry counter lives at the account server, so a restarted wallet
// cannot skip a running timeout.
func TestTimeoutSurvivesExecutorRestart(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	server, err := accountserver.New(account.NewInMemory(),
		accountserver.WithPolicy(pinpolicy.Policy{Rounds: 2, AttemptsPerRound: 2, Timeouts: []time.Duration{time.Minute}}),
	)
	if err != nil {
		t.Fatal(err)
	}
	salt, err := pin.NewSalt()
	if err != nil {
		t.Fatal(err)
	}
	resp, err := server.Register(ctx, ports.RegisterRequest{PinPublicKey: pin.DeriveKey("112233", salt).PublicKey()})
	if err != nil {
		t.Fatal(err)
	}
	registrations := registration.NewInMemory()
	if err := registrations.Save(ctx, &models.Registration{WalletID: resp.WalletID, Salt: salt, ProviderKey: resp.ProviderKey}); err != nil {
		t.Fatal(err)
	}

	check := func(e *Executor, p string) error {
		_, err := e.Execute(ctx, PinProof(p), Instruction{Name: ports.InstructionCheckPin})
		return err
	}

	first := New(server, registrations)
	if err := check(first, "000000"); err == nil {
		t.Fatal("expected incorrect pin")
	}
	err = check(first, "000000")
	if detail, ok := AsError(err); !ok || detail.Kind != KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}

	restarted := New(server, registrations)
	err = check(restarted, "112233")
	detail, ok := AsError(err)
	if !ok || detail.Kind != KindTimeout {
		t.Fatalf("expected timeout after restart, got %v", err)
	}
	if detail.TimeoutMillis != time.Minute.Milliseconds() {
		t.Fatalf("unexpected timeout %d", detail.TimeoutMillis)
	}
	if !errors.Is(err, &dErrors.Error{Code: dErrors.CodeInstruction}) {
		t.Fatalf("expected instruction code, got %v", err)
	}
}
