package mockparty

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"

	"github.com/google/uuid"

	"walletcore/internal/wallet/models"
	"walletcore/pkg/platform/sentinel"
)

type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionDisclosed  SessionStatus = "disclosed"
	SessionTerminated SessionStatus = "terminated"
)

// Verifier is a relying party endpoint holding disclosure sessions.
type Verifier struct {
	issuer *Issuer

	mu       sync.Mutex
	sessions map[string]*verifierSession
	failure  error
}

type verifierSession struct {
	request   models.DisclosureRequest
	returnURL string
	offer     []models.Attestation
	status    SessionStatus
	disclosed []models.Attestation
}

type SessionOption func(*verifierSession)

func WithReturnURL(u string) SessionOption {
	return func(s *verifierSession) {
		s.returnURL = u
	}
}

// WithIssuanceOffer makes a successful disclosure end with an offer of previews.
func WithIssuanceOffer(previews ...models.Attestation) SessionOption {
	return func(s *verifierSession) {
		s.offer = previews
	}
}

// NewVerifier returns a verifier. issuer signs offers made after a
// disclosure and may be nil when no session carries one.
func NewVerifier(issuer *Issuer) *Verifier {
	return &Verifier{issuer: issuer, sessions: make(map[string]*verifierSession)}
}

// NewSession registers req and returns the URI a wallet starts the disclosure with.
func (v *Verifier) NewSession(req models.DisclosureRequest, opts ...SessionOption) string {
	token := uuid.NewString()
	req.SessionToken = token
	s := &verifierSession{request: req, status: SessionPending}
	for _, opt := range opts {
		opt(s)
	}

	v.mu.Lock()
	v.sessions[token] = s
	v.mu.Unlock()
	return "openid4vp://authorize?" + url.Values{"session": {token}}.Encode()
}

func (v *Verifier) StartSession(_ context.Context, uri string, _ bool) (models.DisclosureRequest, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.takeFailure(); err != nil {
		return models.DisclosureRequest{}, err
	}

	u, err := url.Parse(uri)
	if err != nil {
		return models.DisclosureRequest{}, fmt.Errorf("disclosure uri: %w", sentinel.ErrInvalidInput)
	}
	s, err := v.session(u.Query().Get("session"))
	if err != nil {
		return models.DisclosureRequest{}, err
	}
	return s.request, nil
}

func (v *Verifier) Disclose(_ context.Context, req models.DisclosureRequest, attestations []models.Attestation, resultToken string) (models.DisclosureOutcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.takeFailure(); err != nil {
		return models.DisclosureOutcome{}, err
	}
	if resultToken == "" {
		return models.DisclosureOutcome{}, fmt.Errorf("missing instruction result: %w", sentinel.ErrInvalidInput)
	}
	s, err := v.session(req.SessionToken)
	if err != nil {
		return models.DisclosureOutcome{}, err
	}
	for _, t := range s.request.RequestedTypes() {
		if !slices.ContainsFunc(attestations, func(a models.Attestation) bool { return a.AttestationType == t }) {
			return models.DisclosureOutcome{}, fmt.Errorf("attestation %s not disclosed: %w", t, sentinel.ErrInvalidInput)
		}
	}

	s.status = SessionDisclosed
	s.disclosed = slices.Clone(attestations)
	out := models.DisclosureOutcome{ReturnURL: s.returnURL}
	if len(s.offer) > 0 && v.issuer != nil {
		offer := v.issuer.Offer(s.offer...)
		out.IssuanceOffer = &offer
	}
	return out, nil
}

func (v *Verifier) Terminate(_ context.Context, req models.DisclosureRequest) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.takeFailure(); err != nil {
		return "", err
	}
	s, err := v.session(req.SessionToken)
	if err != nil {
		return "", err
	}
	s.status = SessionTerminated
	return s.returnURL, nil
}

// Status reports the state of the session behind token.
func (v *Verifier) Status(token string) SessionStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.sessions[token]; ok {
		return s.status
	}
	return ""
}

// Disclosed returns what the wallet disclosed in the session behind token.
func (v *Verifier) Disclosed(token string) []models.Attestation {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.sessions[token]; ok {
		return slices.Clone(s.disclosed)
	}
	return nil
}

// FailNext makes the next protocol call return err.
func (v *Verifier) FailNext(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.failure = err
}

// session is called with mu held. Only pending sessions are usable.
func (v *Verifier) session(token string) (*verifierSession, error) {
	s, ok := v.sessions[token]
	if !ok {
		return nil, fmt.Errorf("disclosure session: %w", sentinel.ErrNotFound)
	}
	if s.status != SessionPending {
		return nil, fmt.Errorf("disclosure session is %s: %w", s.status, sentinel.ErrInvalidState)
	}
	return s, nil
}

func (v *Verifier) takeFailure() error {
	err := v.failure
	v.failure = nil
	return err
}

// SessionToken extracts the session token from a URI returned by NewSession.
func SessionToken(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Query().Get("session")
}
