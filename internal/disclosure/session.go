package disclosure

import (
	"sync"

	"walletcore/internal/platform/metrics"
	"walletcore/internal/session"
	"walletcore/internal/wallet/models"
	id "walletcore/pkg/domain"
)

type State string

const (
	StateIdentifying       State = "identifying"
	StateRequestReceived   State = "request_received"
	StateMissingAttributes State = "missing_attributes"
	StateCompleted         State = "completed"
	StateCancelled         State = "cancelled"
	StateFailed            State = "failed"
)

// Cancellable reports whether cancel_disclosure may end a session in s.
func (s State) Cancellable() bool {
	return s == StateIdentifying || s == StateRequestReceived || s == StateMissingAttributes
}

// Session is one disclosure in the active session slot.
type Session struct {
	session.Sealed

	ID       id.SessionID
	lifetime session.Lifetime
	metrics  *metrics.Metrics

	mu         sync.Mutex
	state      State
	request    *models.DisclosureRequest
	result     models.StartDisclosureResult
	candidates []models.Attestation
}

func newSession(m *metrics.Metrics) *Session {
	s := &Session{
		ID:       id.NewSessionID(),
		lifetime: session.NewLifetime(),
		metrics:  m,
	}
	s.setState(StateIdentifying)
	return s
}

func (s *Session) SessionKind() session.Kind { return session.KindDisclosure }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.state = state
	s.metrics.IncrementSessionTransition(string(session.KindDisclosure), string(state))
}
