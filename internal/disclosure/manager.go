// Package disclosure drives disclosure of attestations to relying parties.
package disclosure

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"walletcore/internal/instruction"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/platform/tracer"
	"walletcore/internal/session"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/requestcontext"
)

const defaultTerminateRetries = 3

type Executor interface {
	Execute(ctx context.Context, proof instruction.Proof, ins instruction.Instruction) (*instruction.Result, error)
}

type AttestationStore interface {
	List(ctx context.Context) ([]models.Attestation, error)
}

type History interface {
	Emit(ctx context.Context, events ...models.WalletEvent) error
	HasSuccessfulDisclosureTo(ctx context.Context, rp models.Organization) (bool, error)
}

// IssuanceHandoff takes over the slot when a disclosure ends with an issuance offer.
type IssuanceHandoff interface {
	BeginDisclosureBased(from session.Active, offer models.IssuanceOffer) bool
}

type ConfigurationSource interface {
	Configuration() models.Configuration
}

type Manager struct {
	verifier     ports.VerifierClient
	executor     Executor
	attestations AttestationStore
	history      History
	issuance     IssuanceHandoff
	config       ConfigurationSource
	slot         *session.Slot
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer

	terminateRetries  uint64
	terminateInterval time.Duration
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

// WithTerminateRetry bounds the attempts to notify a relying party of a cancellation.
func WithTerminateRetry(retries uint64, initialInterval time.Duration) Option {
	return func(m *Manager) {
		m.terminateRetries = retries
		if initialInterval > 0 {
			m.terminateInterval = initialInterval
		}
	}
}

func New(
	verifier ports.VerifierClient,
	executor Executor,
	attestations AttestationStore,
	history History,
	issuance IssuanceHandoff,
	config ConfigurationSource,
	slot *session.Slot,
	opts ...Option,
) *Manager {
	m := &Manager{
		verifier:          verifier,
		executor:          executor,
		attestations:      attestations,
		history:           history,
		issuance:          issuance,
		config:            config,
		slot:              slot,
		tracer:            tracer.NewNoop(),
		terminateRetries:  defaultTerminateRetries,
		terminateInterval: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IdentifyURI classifies uri against the configured universal link base.
func (m *Manager) IdentifyURI(uri string) (models.IdentifyURIResult, error) {
	return IdentifyURI(uri, m.config.Configuration().UniversalLinkBase)
}

// Start resolves the relying party's request and matches it against the
// attestations held. A request that cannot be satisfied ends in a terminal
// state where only cancel is possible.
func (m *Manager) Start(ctx context.Context, uri string, isQRCode bool) (result models.StartDisclosureResult, err error) {
	kind, err := m.IdentifyURI(uri)
	if err != nil {
		return models.StartDisclosureResult{}, err
	}
	if kind == models.URIPidIssuance {
		return models.StartDisclosureResult{}, dErrors.New(dErrors.CodeValidation, "uri is not a disclosure uri")
	}

	s := newSession(m.metrics)
	if err := m.slot.Claim(s); err != nil {
		return models.StartDisclosureResult{}, err
	}

	ctx, span := m.tracer.Start(ctx, tracer.SpanDisclosureStart, tracer.Bool(tracer.AttrIsQRCode, isQRCode))
	defer func() { span.End(err) }()

	bound, stop := s.lifetime.Bind(ctx)
	defer stop()
	req, err := m.verifier.StartSession(bound, uri, isQRCode)
	if err != nil {
		return models.StartDisclosureResult{}, m.fail(ctx, s, bound, err)
	}

	held, err := m.attestations.List(ctx)
	if err != nil {
		m.abandon(s)
		return models.StartDisclosureResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attestations")
	}
	sharedBefore, err := m.history.HasSuccessfulDisclosureTo(ctx, req.RelyingParty)
	if err != nil {
		m.abandon(s)
		return models.StartDisclosureResult{}, err
	}

	candidates, missing := match(req, held)
	result = models.StartDisclosureResult{
		Kind:                             models.StartDisclosureRequest,
		RelyingParty:                     req.RelyingParty,
		Policy:                           req.Policy,
		RequestedAttestations:            candidates,
		SharedDataWithRelyingPartyBefore: sharedBefore,
		SessionType:                      models.SessionTypeFor(isQRCode),
		RequestPurpose:                   req.Purpose,
		RequestOriginBaseURL:             req.RequestOriginBaseURL,
		RequestType:                      requestType(req),
	}
	next := StateRequestReceived
	if len(missing) > 0 {
		result.Kind = models.StartDisclosureAttributesMissing
		result.RequestedAttestations = nil
		result.MissingAttributes = missing
		next = StateMissingAttributes
		candidates = nil
	}
	span.SetAttributes(tracer.Int64(tracer.AttrMissingCount, int64(len(missing))))

	s.mu.Lock()
	if s.state != StateIdentifying {
		s.mu.Unlock()
		m.cancelResolved(ctx, s, req, result)
		return models.StartDisclosureResult{}, session.CancelledError()
	}
	s.request = &req
	s.result = result
	s.candidates = candidates
	s.setState(next)
	s.mu.Unlock()
	m.logAudit(ctx, "disclosure_started", "session_id", s.ID.String(), "state", string(next))
	return result, nil
}

// cancelResolved finishes a cancel that arrived while the request was being
// resolved: the relying party was already contacted, so the cancellation is
// recorded against its request and the relying party is told.
func (m *Manager) cancelResolved(ctx context.Context, s *Session, req models.DisclosureRequest, result models.StartDisclosureResult) {
	if err := m.record(ctx, result, nil, models.DisclosureStatusCancelled); err != nil && m.logger != nil {
		m.logger.ErrorContext(ctx, "failed to record cancelled disclosure", "session_id", s.ID.String(), "error", err)
	}
	m.terminate(ctx, req)
}

// Accept proves the PIN and discloses the matched attestations. A PIN
// failure leaves the request open for another attempt.
func (m *Manager) Accept(ctx context.Context, proof instruction.Proof) (out models.AcceptDisclosureResult, err error) {
	s, ok := m.slot.Current().(*Session)
	if !ok {
		return out, dErrors.New(dErrors.CodeSessionState, "no active disclosure session")
	}
	s.mu.Lock()
	if s.state != StateRequestReceived {
		s.mu.Unlock()
		return out, dErrors.New(dErrors.CodeSessionState, "disclosure session has no request to accept")
	}
	req, candidates, result := *s.request, s.candidates, s.result
	s.mu.Unlock()

	ctx, span := m.tracer.Start(ctx, tracer.SpanDisclosureAccept)
	defer func() { span.End(err) }()

	bound, stop := s.lifetime.Bind(ctx)
	defer stop()

	signed, err := m.executor.Execute(bound, proof, instruction.Instruction{Name: ports.InstructionDisclose})
	if err != nil {
		if session.Cancelled(bound) {
			return out, session.CancelledError()
		}
		return out, err
	}

	outcome, err := m.verifier.Disclose(bound, req, candidates, signed.Token)
	if err != nil {
		if !session.Cancelled(bound) {
			m.record(ctx, result, nil, models.DisclosureStatusError)
		}
		return out, m.fail(ctx, s, bound, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRequestReceived {
		return out, session.CancelledError()
	}
	if err := m.record(ctx, result, candidates, models.DisclosureStatusSuccess); err != nil {
		return out, err
	}
	s.setState(StateCompleted)
	s.lifetime.End()

	out.ReturnURL = outcome.ReturnURL
	if outcome.IssuanceOffer != nil && m.issuance != nil && m.issuance.BeginDisclosureBased(s, *outcome.IssuanceOffer) {
		out.HasIssuanceOffer = true
		out.OfferedPreviews = outcome.IssuanceOffer.Previews
	} else {
		m.slot.Release(s)
	}
	m.logAudit(ctx, "disclosure_completed",
		"session_id", s.ID.String(),
		"shared", len(candidates),
		"issuance_offer", out.HasIssuanceOffer,
	)
	return out, nil
}

// Cancel ends the active disclosure session, records the cancellation and
// tells the relying party when it was already contacted. Failing to reach
// the relying party is logged, not returned.
func (m *Manager) Cancel(ctx context.Context) (returnURL string, err error) {
	s, ok := m.slot.Current().(*Session)
	if !ok {
		return "", dErrors.New(dErrors.CodeSessionState, "no active disclosure session")
	}

	s.mu.Lock()
	if !s.state.Cancellable() {
		s.mu.Unlock()
		return "", dErrors.New(dErrors.CodeSessionState, "disclosure session cannot be cancelled")
	}
	s.setState(StateCancelled)
	req, result := s.request, s.result
	s.mu.Unlock()

	s.lifetime.End()
	m.slot.Release(s)

	ctx, span := m.tracer.Start(ctx, tracer.SpanDisclosureCancel)
	defer func() { span.End(err) }()
	span.AddEvent(tracer.EventSessionCancelled)
	m.logAudit(ctx, "disclosure_cancelled", "session_id", s.ID.String())

	if req == nil {
		// Start records the cancellation once the request resolves.
		return "", nil
	}
	if err := m.record(ctx, result, nil, models.DisclosureStatusCancelled); err != nil {
		return "", err
	}
	return m.terminate(ctx, *req), nil
}

func (m *Manager) terminate(ctx context.Context, req models.DisclosureRequest) string {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.terminateInterval

	var returnURL string
	err := backoff.Retry(func() error {
		var err error
		returnURL, err = m.verifier.Terminate(ctx, req)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, m.terminateRetries), ctx))
	if err != nil && m.logger != nil {
		m.logger.WarnContext(ctx, "failed to notify relying party of cancellation", "error", err)
	}
	return returnURL
}

// HasActive reports whether a disclosure session occupies the slot.
func (m *Manager) HasActive() bool {
	_, ok := m.slot.Current().(*Session)
	return ok
}

func (m *Manager) record(ctx context.Context, result models.StartDisclosureResult, shared []models.Attestation, status models.DisclosureStatus) error {
	ev := models.NewDisclosureEvent(requestcontext.Now(ctx), models.DisclosureEvent{
		RelyingParty:       result.RelyingParty,
		Purpose:            result.RequestPurpose,
		SharedAttestations: shared,
		RequestPolicy:      result.Policy,
		Status:             status,
		DisclosureType:     result.RequestType,
	})
	return m.history.Emit(ctx, ev)
}

func (m *Manager) fail(ctx context.Context, s *Session, bound context.Context, cause error) error {
	if session.Cancelled(bound) {
		return session.CancelledError()
	}
	m.abandon(s)
	if m.logger != nil {
		m.logger.WarnContext(ctx, "disclosure session failed", "session_id", s.ID.String(), "error", cause)
	}
	return session.PartyError(cause, "verifier")
}

func (m *Manager) abandon(s *Session) {
	s.mu.Lock()
	if !s.state.Cancellable() {
		s.mu.Unlock()
		return
	}
	s.setState(StateFailed)
	s.mu.Unlock()
	s.lifetime.End()
	m.slot.Release(s)
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

// match picks one held attestation per requested type, reduced to the
// requested attributes, and lists the requested types not held.
func match(req models.DisclosureRequest, held []models.Attestation) (candidates []models.Attestation, missing []string) {
	for _, requested := range req.Requested {
		i := slices.IndexFunc(held, func(a models.Attestation) bool {
			return a.AttestationType == requested.AttestationType
		})
		if i < 0 {
			if !slices.Contains(missing, requested.AttestationType) {
				missing = append(missing, requested.AttestationType)
			}
			continue
		}
		candidate := held[i]
		if len(requested.AttributeKeys) > 0 {
			candidate.Attributes = slices.DeleteFunc(slices.Clone(candidate.Attributes), func(attr models.AttestationAttribute) bool {
				return !slices.Contains(requested.AttributeKeys, attr.Key)
			})
		}
		candidates = append(candidates, candidate)
	}
	return candidates, missing
}

func requestType(req models.DisclosureRequest) models.DisclosureType {
	if len(req.Requested) == 1 &&
		req.Requested[0].AttestationType == models.PidAttestationType &&
		slices.Equal(req.Requested[0].AttributeKeys, []string{models.PidIdentifierAttribute}) {
		return models.DisclosureTypeLogin
	}
	return models.DisclosureTypeRegular
}
