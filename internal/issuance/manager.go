// Package issuance drives attestation issuance: PID issuance through an
// external authorization step, and issuance offered after a disclosure.
package issuance

import (
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"walletcore/internal/instruction"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/platform/tracer"
	"walletcore/internal/session"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/requestcontext"
)

type Executor interface {
	Execute(ctx context.Context, proof instruction.Proof, ins instruction.Instruction) (*instruction.Result, error)
}

type AttestationStore interface {
	Put(ctx context.Context, attestations ...models.Attestation) error
	List(ctx context.Context) ([]models.Attestation, error)
}

type HistoryEmitter interface {
	Emit(ctx context.Context, events ...models.WalletEvent) error
}

type AttestationPublisher interface {
	PublishAttestations(list []models.Attestation)
}

type Manager struct {
	issuer       ports.IssuerClient
	executor     Executor
	attestations AttestationStore
	history      HistoryEmitter
	publisher    AttestationPublisher
	slot         *session.Slot
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(m *Manager) {
		m.tracer = t
	}
}

func WithPublisher(p AttestationPublisher) Option {
	return func(m *Manager) {
		m.publisher = p
	}
}

func New(
	issuer ports.IssuerClient,
	executor Executor,
	attestations AttestationStore,
	history HistoryEmitter,
	slot *session.Slot,
	opts ...Option,
) *Manager {
	m := &Manager{
		issuer:       issuer,
		executor:     executor,
		attestations: attestations,
		history:      history,
		slot:         slot,
		tracer:       tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreatePidRedirectURI starts PID issuance and returns the authorization URL.
func (m *Manager) CreatePidRedirectURI(ctx context.Context) (string, error) {
	s := newSession(KindPid, StateCreated, m.metrics)
	if err := m.slot.Claim(s); err != nil {
		return "", err
	}

	bound, stop := s.lifetime.Bind(ctx)
	defer stop()
	redirect, err := m.issuer.StartAuthorization(bound)
	if err != nil {
		return "", m.fail(ctx, s, bound, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCreated {
		return "", session.CancelledError()
	}
	s.redirect = redirect
	m.logAudit(ctx, "issuance_started", "session_id", s.ID.String(), "kind", string(s.Kind))
	return redirect.URL, nil
}

// ContinuePid consumes the authorization callback and returns the previews
// of the offered attestations.
func (m *Manager) ContinuePid(ctx context.Context, redirectURI string) (previews []models.Attestation, err error) {
	s, err := m.active(KindPid)
	if err != nil {
		return nil, err
	}
	if state := s.State(); state != StateCreated {
		return nil, dErrors.New(dErrors.CodeSessionState, "issuance session is not awaiting authorization")
	}

	ctx, span := m.tracer.Start(ctx, tracer.SpanIssuanceContinue, tracer.String(tracer.AttrSessionKind, string(s.Kind)))
	defer func() { span.End(err) }()

	bound, stop := s.lifetime.Bind(ctx)
	defer stop()
	offer, err := m.issuer.ContinueAuthorization(bound, redirectURI)
	if err != nil {
		return nil, m.fail(ctx, s, bound, err)
	}
	span.SetAttributes(tracer.Int64(tracer.AttrOfferCount, int64(len(offer.Previews))))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCreated {
		return nil, session.CancelledError()
	}
	s.offer = &offer
	s.setState(StateAwaitingUserPin)
	return offer.Previews, nil
}

// BeginDisclosureBased replaces the finished disclosure session from with an
// issuance session holding offer.
func (m *Manager) BeginDisclosureBased(from session.Active, offer models.IssuanceOffer) bool {
	s := newSession(KindDisclosureBased, StateAwaitingUserPin, m.metrics)
	s.offer = &offer
	return m.slot.Replace(from, s)
}

// Accept proves the PIN for the pending offer, fetches the attestations and
// stores them. A PIN failure leaves the session awaiting the PIN.
func (m *Manager) Accept(ctx context.Context, proof instruction.Proof, kind Kind) (issued []models.Attestation, err error) {
	s, err := m.active(kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.state != StateAwaitingUserPin {
		s.mu.Unlock()
		return nil, dErrors.New(dErrors.CodeSessionState, "issuance session is not awaiting the pin")
	}
	offer := *s.offer
	s.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, tracer.SpanIssuanceAccept,
		tracer.String(tracer.AttrSessionKind, string(kind)),
		tracer.Int64(tracer.AttrOfferCount, int64(len(offer.Previews))),
	)
	defer func() { span.End(err) }()

	bound, stop := s.lifetime.Bind(ctx)
	defer stop()

	result, err := m.executor.Execute(bound, proof, instruction.Instruction{Name: ports.InstructionIssue})
	if err != nil {
		if session.Cancelled(bound) {
			return nil, session.CancelledError()
		}
		return nil, err
	}

	attestations, err := m.issuer.AcceptOffer(bound, offer, result.Token)
	if err != nil {
		return nil, m.fail(ctx, s, bound, err)
	}
	return m.commit(ctx, s, attestations)
}

// commit stores the attestations unless the session was cancelled first.
func (m *Manager) commit(ctx context.Context, s *Session, attestations []models.Attestation) ([]models.Attestation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingUserPin {
		return nil, session.CancelledError()
	}

	attestations = slices.Clone(attestations)
	now := requestcontext.Now(ctx)
	events := make([]models.WalletEvent, 0, len(attestations))
	for i := range attestations {
		if attestations[i].Identity.Key() == "" {
			attestations[i].Identity = models.FixedIdentity(uuid.NewString())
		}
		events = append(events, models.NewIssuanceEvent(now, attestations[i]))
	}
	if err := m.attestations.Put(ctx, attestations...); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store attestations")
	}
	if err := m.history.Emit(ctx, events...); err != nil {
		return nil, err
	}

	s.setState(StateCompleted)
	s.lifetime.End()
	m.slot.Release(s)
	m.logAudit(ctx, "issuance_completed",
		"session_id", s.ID.String(),
		"kind", string(s.Kind),
		"attestations", len(attestations),
	)
	m.republish(ctx)
	return attestations, nil
}

// Cancel ends the active issuance session from any non-terminal state. An
// accept in flight observes the cancellation and never commits.
func (m *Manager) Cancel(ctx context.Context) error {
	s, ok := m.slot.Current().(*Session)
	if !ok {
		return dErrors.New(dErrors.CodeSessionState, "no active issuance session")
	}

	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return dErrors.New(dErrors.CodeSessionState, "issuance session already finished")
	}
	s.setState(StateCancelled)
	offer := s.offer
	s.mu.Unlock()

	s.lifetime.End()
	m.slot.Release(s)
	m.logAudit(ctx, "issuance_cancelled", "session_id", s.ID.String(), "kind", string(s.Kind))

	if offer != nil {
		if err := m.issuer.RejectOffer(ctx, *offer); err != nil && m.logger != nil {
			m.logger.WarnContext(ctx, "failed to reject issuance offer", "error", err)
		}
	}
	return nil
}

// HasActive reports whether an issuance session of any kind is active.
func (m *Manager) HasActive() bool {
	_, ok := m.slot.Current().(*Session)
	return ok
}

func (m *Manager) HasActivePid() bool {
	s, ok := m.slot.Current().(*Session)
	return ok && s.Kind == KindPid
}

func (m *Manager) active(kind Kind) (*Session, error) {
	s, ok := m.slot.Current().(*Session)
	if !ok {
		return nil, dErrors.New(dErrors.CodeSessionState, "no active issuance session")
	}
	if s.Kind != kind {
		return nil, dErrors.New(dErrors.CodeSessionState, "active issuance session is of another kind")
	}
	return s, nil
}

// fail ends the session after an issuer error. Network and protocol errors
// never touch the lock or retry state.
func (m *Manager) fail(ctx context.Context, s *Session, bound context.Context, cause error) error {
	if session.Cancelled(bound) {
		return session.CancelledError()
	}
	s.mu.Lock()
	if !s.state.Terminal() {
		s.setState(StateFailed)
	}
	s.mu.Unlock()
	s.lifetime.End()
	m.slot.Release(s)
	if m.logger != nil {
		m.logger.WarnContext(ctx, "issuance session failed", "session_id", s.ID.String(), "error", cause)
	}
	return session.PartyError(cause, "issuer")
}

func (m *Manager) republish(ctx context.Context) {
	if m.publisher == nil {
		return
	}
	list, err := m.attestations.List(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.ErrorContext(ctx, "failed to list attestations", "error", err)
		}
		return
	}
	m.publisher.PublishAttestations(list)
}

func (m *Manager) logAudit(ctx context.Context, event string, attrs ...any) {
	if m.logger == nil {
		return
	}
	if correlationID := requestcontext.CorrelationID(ctx); correlationID != "" {
		attrs = append(attrs, "correlation_id", correlationID)
	}
	args := append(attrs, "event", event, "log_type", "audit")
	m.logger.InfoContext(ctx, event, args...)
}
