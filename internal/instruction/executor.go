// Package instruction runs PIN and biometric gated instructions against the
// account server: challenge, proof, signed result.
package instruction

import (
	"context"
	"crypto/ed25519"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"walletcore/internal/instruction/resulttoken"
	"walletcore/internal/pin"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/platform/tracer"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/sentinel"
	"walletcore/pkg/requestcontext"
)

// RegistrationStore persists the wallet's registration. The executor writes
// the sequence number back before every account server call.
type RegistrationStore interface {
	Get(ctx context.Context) (*models.Registration, error)
	Save(ctx context.Context, reg *models.Registration) error
}

// Proof is what the user presents for an instruction.
type Proof struct {
	Kind ports.ProofKind
	Pin  string
	// Salt overrides the registration salt. A pending PIN change is
	// committed with a key derived from the new salt.
	Salt []byte
}

func PinProof(pin string) Proof {
	return Proof{Kind: ports.ProofPin, Pin: pin}
}

func BiometricProof() Proof {
	return Proof{Kind: ports.ProofBiometric}
}

type Instruction struct {
	Name string
	// NewPinPublicKey is sent with change_pin_start.
	NewPinPublicKey ed25519.PublicKey
}

// Result is a verified instruction result.
type Result struct {
	Token    string
	Sequence uint64
}

type Executor struct {
	server        ports.AccountServer
	registrations RegistrationStore
	biometric     ports.BiometricKey
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        tracer.Tracer
	onBlocked     func(ctx context.Context)

	inFlight atomic.Bool

	mu    sync.RWMutex
	retry models.PinRetryState
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(e *Executor) {
		e.tracer = t
	}
}

func WithBiometricKey(key ports.BiometricKey) Option {
	return func(e *Executor) {
		e.biometric = key
	}
}

// WithOnBlocked registers a hook run once when the account server reports the
// wallet as blocked.
func WithOnBlocked(fn func(ctx context.Context)) Option {
	return func(e *Executor) {
		e.onBlocked = fn
	}
}

func New(server ports.AccountServer, registrations RegistrationStore, opts ...Option) *Executor {
	e := &Executor{
		server:        server,
		registrations: registrations,
		tracer:        tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one gated instruction. A second call while one is in flight is
// rejected, never queued. Retry state always comes from the account server;
// only the terminal blocked state is answered locally.
func (e *Executor) Execute(ctx context.Context, proof Proof, ins Instruction) (*Result, error) {
	if !e.inFlight.CompareAndSwap(false, true) {
		return nil, dErrors.New(dErrors.CodeSessionState, "another instruction is in progress")
	}
	defer e.inFlight.Store(false)

	ctx, span := e.tracer.Start(ctx, tracer.SpanInstruction,
		tracer.String(tracer.AttrInstruction, ins.Name),
		tracer.String(tracer.AttrProofKind, string(proof.Kind)),
	)
	result, err := e.execute(ctx, span, proof, ins)

	outcome := outcomeOf(err)
	span.SetAttributes(tracer.String(tracer.AttrOutcome, outcome))
	if detail, ok := AsError(err); ok && detail.Kind == KindIncorrectPin {
		span.SetAttributes(
			tracer.Int64(tracer.AttrAttemptsLeft, int64(detail.AttemptsLeftInRound)),
			tracer.Bool(tracer.AttrFinalRound, detail.IsFinalRound),
		)
	}
	span.End(err)
	e.metrics.IncrementInstruction(ins.Name, outcome)
	return result, err
}

func (e *Executor) execute(ctx context.Context, span tracer.Span, proof Proof, ins Instruction) (*Result, error) {
	reg, err := e.registrations.Get(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotRegistered, "wallet is not registered")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	if reg.Blocked {
		return nil, BlockedError()
	}

	switch proof.Kind {
	case ports.ProofPin:
		if err := pin.CheckFormat(proof.Pin); err != nil {
			return nil, err
		}
	case ports.ProofBiometric:
		if e.biometric == nil {
			return nil, dErrors.New(dErrors.CodeSessionState, "no biometric key available")
		}
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "unknown proof kind")
	}

	// A sequence number is spent even when the call fails.
	reg.Sequence++
	if err := e.registrations.Save(ctx, reg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist instruction sequence")
	}

	challenge, err := e.challenge(ctx, reg, ins.Name)
	if err != nil {
		return nil, e.translate(ctx, span, reg, err)
	}

	var signature []byte
	switch proof.Kind {
	case ports.ProofPin:
		salt := reg.Salt
		if proof.Salt != nil {
			salt = proof.Salt
		}
		signature = pin.DeriveKey(proof.Pin, salt).Sign(challenge)
	case ports.ProofBiometric:
		signature, err = e.biometric.SignChallenge(ctx, challenge)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "biometric key refused to sign")
		}
	}

	token, err := e.send(ctx, ports.InstructionRequest{
		WalletID:        reg.WalletID,
		Instruction:     ins.Name,
		Sequence:        reg.Sequence,
		Challenge:       challenge,
		ProofKind:       proof.Kind,
		Signature:       signature,
		NewPinPublicKey: ins.NewPinPublicKey,
	})
	if err != nil {
		return nil, e.translate(ctx, span, reg, err)
	}

	if _, err := resulttoken.Verify(token, reg.ProviderKey, reg.WalletID, ins.Name, reg.Sequence, requestcontext.Now(ctx)); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeProtocol, "instruction result did not verify")
	}

	e.setRetry(models.PinRetryState{})
	return &Result{Token: token, Sequence: reg.Sequence}, nil
}

func (e *Executor) challenge(ctx context.Context, reg *models.Registration, name string) ([]byte, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanAccountServerCall, tracer.String(tracer.AttrInstruction, "challenge"))
	challenge, err := e.server.Challenge(ctx, ports.ChallengeRequest{
		WalletID:    reg.WalletID,
		Instruction: name,
		Sequence:    reg.Sequence,
	})
	span.End(err)
	return challenge, err
}

func (e *Executor) send(ctx context.Context, req ports.InstructionRequest) (string, error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanAccountServerCall, tracer.String(tracer.AttrInstruction, req.Instruction))
	token, err := e.server.Execute(ctx, req)
	span.End(err)
	return token, err
}

// translate maps account server errors onto the wallet error taxonomy.
func (e *Executor) translate(ctx context.Context, span tracer.Span, reg *models.Registration, err error) error {
	var incorrect *ports.IncorrectPinError
	var timeout *ports.PinTimeoutError
	switch {
	case errors.As(err, &incorrect):
		e.setRetry(models.PinRetryState{
			AttemptsLeftInRound: incorrect.AttemptsLeftInRound,
			IsFinalRound:        incorrect.IsFinalRound,
		})
		return incorrectPin(incorrect.AttemptsLeftInRound, incorrect.IsFinalRound)
	case errors.As(err, &timeout):
		e.setRetry(models.PinRetryState{})
		return pinTimeout(timeout.Timeout.Milliseconds())
	case errors.Is(err, ports.ErrAccountBlocked):
		span.AddEvent(tracer.EventWalletBlocked)
		return e.block(ctx, reg)
	case errors.Is(err, ports.ErrUnknownWallet):
		return dErrors.Wrap(err, dErrors.CodeNotRegistered, "account server does not know this wallet")
	case errors.Is(err, ports.ErrInvalidChallenge),
		errors.Is(err, ports.ErrInvalidSequence),
		errors.Is(err, ports.ErrNoPendingPin):
		return dErrors.Wrap(err, dErrors.CodeProtocol, "account server rejected the instruction")
	}
	return dErrors.Wrap(err, dErrors.CodeNetwork, "account server call failed")
}

func (e *Executor) block(ctx context.Context, reg *models.Registration) error {
	reg.Blocked = true
	if err := e.registrations.Save(ctx, reg); err != nil && e.logger != nil {
		e.logger.ErrorContext(ctx, "failed to persist blocked state", "error", err)
	}
	e.setRetry(models.PinRetryState{Blocked: true})
	e.logAudit(ctx, "wallet_blocked", "wallet_id", reg.WalletID)
	if e.onBlocked != nil {
		e.onBlocked(ctx)
	}
	return BlockedError()
}

// RetryState is the last retry state reported by the account server. The zero
// value means no failure is known.
func (e *Executor) RetryState() models.PinRetryState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.retry
}

// Reset forgets the retry state. Called when the wallet is reset.
func (e *Executor) Reset() {
	e.setRetry(models.PinRetryState{})
}

func (e *Executor) setRetry(state models.PinRetryState) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retry = state
}

func (e *Executor) logAudit(ctx context.Context, event string, attrs ...any) {
	if e.logger == nil {
		return
	}
	if correlationID := requestcontext.CorrelationID(ctx); correlationID != "" {
		attrs = append(attrs, "correlation_id", correlationID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	e.logger.InfoContext(ctx, event, args...)
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	if detail, ok := AsError(err); ok {
		return string(detail.Kind)
	}
	return string(dErrors.CodeOf(err))
}
