// Package accountserver is an in-process wallet provider. It registers wallets,
// hands out instruction challenges, verifies PIN and biometric proofs under the
// PIN retry policy, and signs instruction results.
package accountserver

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"walletcore/internal/accountserver/models"
	"walletcore/internal/accountserver/pinpolicy"
	"walletcore/internal/instruction/resulttoken"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/wallet/ports"
	"walletcore/pkg/platform/sentinel"
	platformsync "walletcore/pkg/platform/sync"
	"walletcore/pkg/requestcontext"
)

const (
	DefaultChallengeTTL = time.Minute
	challengeSize       = 32
)

type Store interface {
	Create(ctx context.Context, account *models.Account) error
	Get(ctx context.Context, walletID string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	RecordFailure(ctx context.Context, walletID string, blocked bool) (*models.Account, error)
	ClearFailures(ctx context.Context, walletID string) error
	SigningKey(ctx context.Context) ([]byte, error)
	SaveSigningKey(ctx context.Context, der []byte) error
}

type Server struct {
	store        Store
	policy       pinpolicy.Policy
	challengeTTL time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	signingKey  *ecdsa.PrivateKey
	providerKey []byte

	// One instruction at a time per wallet keeps its failure counter exact.
	wallets *platformsync.ShardedMutex
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

func WithPolicy(p pinpolicy.Policy) Option {
	return func(s *Server) {
		s.policy = p
	}
}

func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.challengeTTL = ttl
	}
}

// New loads the provider signing key from store, creating one on first use.
func New(store Store, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	s := &Server{
		store:        store,
		policy:       pinpolicy.Default(),
		challengeTTL: DefaultChallengeTTL,
		wallets:      platformsync.NewShardedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	if err := s.loadSigningKey(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) loadSigningKey(ctx context.Context) error {
	der, err := s.store.SigningKey(ctx)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		key, genErr := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if genErr != nil {
			return fmt.Errorf("generate provider key: %w", genErr)
		}
		if der, err = x509.MarshalECPrivateKey(key); err != nil {
			return fmt.Errorf("marshal provider key: %w", err)
		}
		if err = s.store.SaveSigningKey(ctx, der); err != nil {
			return fmt.Errorf("save provider key: %w", err)
		}
		s.signingKey = key
	case err != nil:
		return fmt.Errorf("load provider key: %w", err)
	default:
		if s.signingKey, err = x509.ParseECPrivateKey(der); err != nil {
			return fmt.Errorf("parse provider key: %w", err)
		}
	}
	s.providerKey, err = resulttoken.EncodePublicKey(&s.signingKey.PublicKey)
	return err
}

// Register creates an account for a new wallet.
func (s *Server) Register(ctx context.Context, req ports.RegisterRequest) (ports.RegisterResponse, error) {
	if len(req.PinPublicKey) != ed25519.PublicKeySize {
		return ports.RegisterResponse{}, fmt.Errorf("pin public key: %w", sentinel.ErrInvalidInput)
	}
	account := &models.Account{
		WalletID:     uuid.NewString(),
		PinPublicKey: req.PinPublicKey,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if req.BiometricPublicKey != nil {
		der, err := x509.MarshalPKIXPublicKey(req.BiometricPublicKey)
		if err != nil {
			return ports.RegisterResponse{}, fmt.Errorf("biometric public key: %w", sentinel.ErrInvalidInput)
		}
		account.BiometricPublicKey = der
	}
	if err := s.store.Create(ctx, account); err != nil {
		return ports.RegisterResponse{}, fmt.Errorf("create account: %w", err)
	}
	s.logAudit(ctx, "provider_wallet_registered", "wallet_id", account.WalletID)
	return ports.RegisterResponse{WalletID: account.WalletID, ProviderKey: s.providerKey}, nil
}

// Challenge issues a one-time nonce for the given instruction.
func (s *Server) Challenge(ctx context.Context, req ports.ChallengeRequest) ([]byte, error) {
	defer s.wallets.Lock(req.WalletID)()

	account, err := s.account(ctx, req.WalletID)
	if err != nil {
		return nil, err
	}
	if account.Blocked {
		return nil, ports.ErrAccountBlocked
	}

	value := make([]byte, challengeSize)
	if _, err := rand.Read(value); err != nil {
		return nil, fmt.Errorf("generate challenge: %w", err)
	}
	account.Challenge = &models.Challenge{
		Value:       value,
		Instruction: req.Instruction,
		Sequence:    req.Sequence,
		ExpiresAt:   requestcontext.Now(ctx).Add(s.challengeTTL),
	}
	if err := s.store.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("store challenge: %w", err)
	}
	return value, nil
}

// Execute verifies the proof over the challenge and, on success, performs the
// instruction and returns a signed result.
func (s *Server) Execute(ctx context.Context, req ports.InstructionRequest) (string, error) {
	defer s.wallets.Lock(req.WalletID)()

	now := requestcontext.Now(ctx)
	account, err := s.account(ctx, req.WalletID)
	if err != nil {
		return "", err
	}
	if account.Blocked {
		return "", ports.ErrAccountBlocked
	}

	// A challenge is single use whatever the outcome.
	challenge := account.Challenge
	account.Challenge = nil
	if err := s.store.Update(ctx, account); err != nil {
		return "", fmt.Errorf("clear challenge: %w", err)
	}
	if !challenge.Matches(req.Challenge, req.Instruction, req.Sequence, now) {
		return "", ports.ErrInvalidChallenge
	}
	if req.Sequence <= account.LastSequence {
		return "", ports.ErrInvalidSequence
	}

	eval := s.policy.Evaluate(account.FailedAttempts+1, account.LastFailureAt, now)
	if eval.Kind == pinpolicy.InTimeout {
		return "", &ports.PinTimeoutError{Timeout: eval.Timeout}
	}

	if !s.verifyProof(account, req) {
		return "", s.recordFailure(ctx, account.WalletID, eval)
	}

	if err := s.store.ClearFailures(ctx, account.WalletID); err != nil {
		return "", fmt.Errorf("clear failures: %w", err)
	}
	account.FailedAttempts = 0
	account.LastFailureAt = nil
	account.LastSequence = req.Sequence
	if err := s.apply(ctx, account, req); err != nil {
		return "", err
	}
	if err := s.store.Update(ctx, account); err != nil {
		return "", fmt.Errorf("update account: %w", err)
	}
	return resulttoken.Sign(s.signingKey, account.WalletID, req.Instruction, req.Sequence, now)
}

func (s *Server) account(ctx context.Context, walletID string) (*models.Account, error) {
	account, err := s.store.Get(ctx, walletID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, ports.ErrUnknownWallet
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// verifyProof checks the signature against the key the instruction requires.
// A PIN change is committed with the new PIN; everything else uses the current one.
func (s *Server) verifyProof(account *models.Account, req ports.InstructionRequest) bool {
	switch req.ProofKind {
	case ports.ProofPin:
		key := account.PinPublicKey
		if req.Instruction == ports.InstructionChangePinCommit && account.PendingPinPublicKey != nil {
			key = account.PendingPinPublicKey
		}
		return ed25519.Verify(key, req.Challenge, req.Signature)
	case ports.ProofBiometric:
		if account.BiometricPublicKey == nil || req.Instruction != ports.InstructionUnlock {
			return false
		}
		pub, err := x509.ParsePKIXPublicKey(account.BiometricPublicKey)
		if err != nil {
			return false
		}
		ecKey, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return false
		}
		digest := sha256.Sum256(req.Challenge)
		return ecdsa.VerifyASN1(ecKey, digest[:], req.Signature)
	default:
		return false
	}
}

func (s *Server) recordFailure(ctx context.Context, walletID string, eval pinpolicy.Evaluation) error {
	blocked := eval.Kind == pinpolicy.BlockedPermanently
	if _, err := s.store.RecordFailure(ctx, walletID, blocked); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}
	s.metrics.IncrementProviderPinFailure()

	switch eval.Kind {
	case pinpolicy.BlockedPermanently:
		s.logAudit(ctx, "provider_wallet_blocked", "wallet_id", walletID)
		return ports.ErrAccountBlocked
	case pinpolicy.Timeout:
		return &ports.PinTimeoutError{Timeout: eval.Timeout}
	default:
		return &ports.IncorrectPinError{
			AttemptsLeftInRound: eval.AttemptsLeftInRound,
			IsFinalRound:        eval.IsFinalRound,
		}
	}
}

func (s *Server) apply(ctx context.Context, account *models.Account, req ports.InstructionRequest) error {
	switch req.Instruction {
	case ports.InstructionChangePinStart:
		if len(req.NewPinPublicKey) != ed25519.PublicKeySize {
			return fmt.Errorf("new pin public key: %w", sentinel.ErrInvalidInput)
		}
		account.PendingPinPublicKey = req.NewPinPublicKey
	case ports.InstructionChangePinCommit:
		// Committing twice is harmless: the second commit is proven with the
		// key that is already current.
		if account.PendingPinPublicKey != nil {
			account.PinPublicKey = account.PendingPinPublicKey
			account.PendingPinPublicKey = nil
			s.logAudit(ctx, "provider_pin_changed", "wallet_id", account.WalletID)
		}
	case ports.InstructionChangePinRollback:
		if account.PendingPinPublicKey == nil {
			return ports.ErrNoPendingPin
		}
		account.PendingPinPublicKey = nil
	}
	return nil
}

// ProviderKey returns the PEM encoded key that verifies instruction results.
func (s *Server) ProviderKey() []byte {
	return s.providerKey
}

func (s *Server) logAudit(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	if correlationID := requestcontext.CorrelationID(ctx); correlationID != "" {
		attrs = append(attrs, "correlation_id", correlationID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

var _ ports.AccountServer = (*Server)(nil)
