package issuance

import (
	"sync"

	"walletcore/internal/platform/metrics"
	"walletcore/internal/session"
	"walletcore/internal/wallet/models"
	id "walletcore/pkg/domain"
)

// Kind separates PID issuance from issuance offered after a disclosure.
type Kind string

const (
	KindPid             Kind = "pid"
	KindDisclosureBased Kind = "disclosure_based"
)

type State string

const (
	StateCreated         State = "created"
	StateAwaitingUserPin State = "awaiting_user_pin"
	StateCompleted       State = "completed"
	StateCancelled       State = "cancelled"
	StateFailed          State = "failed"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Session is one issuance in the active session slot.
type Session struct {
	session.Sealed

	ID       id.SessionID
	Kind     Kind
	lifetime session.Lifetime
	metrics  *metrics.Metrics

	mu       sync.Mutex
	state    State
	redirect models.AuthorizationRedirect
	offer    *models.IssuanceOffer
}

func newSession(kind Kind, state State, m *metrics.Metrics) *Session {
	s := &Session{
		ID:       id.NewSessionID(),
		Kind:     kind,
		lifetime: session.NewLifetime(),
		metrics:  m,
	}
	s.setState(state)
	return s
}

func (s *Session) SessionKind() session.Kind { return session.KindIssuance }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// setState is called with mu held, or before the session is shared.
func (s *Session) setState(state State) {
	s.state = state
	s.metrics.IncrementSessionTransition(string(session.KindIssuance), string(state))
}
