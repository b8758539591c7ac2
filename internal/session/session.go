// Package session holds the wallet's single active session slot. The slot
// holds one Active value at a time: an issuance or a disclosure session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"walletcore/internal/platform/metrics"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/platform/sentinel"
)

type Kind string

const (
	KindIssuance   Kind = "issuance"
	KindDisclosure Kind = "disclosure"
)

// ErrCancelled is the cancellation cause of a session's lifetime.
var ErrCancelled = errors.New("session cancelled")

// Active is a session that can occupy the slot. Implementations embed Sealed.
type Active interface {
	SessionKind() Kind
	activeSession()
}

// Sealed marks the issuance and disclosure session types.
type Sealed struct{}

func (Sealed) activeSession() {}

// Slot is the wallet's active_session. Claiming an occupied slot fails.
type Slot struct {
	metrics *metrics.Metrics

	mu      sync.Mutex
	current Active
}

func NewSlot(m *metrics.Metrics) *Slot {
	return &Slot{metrics: m}
}

// Claim occupies the empty slot with a.
func (s *Slot) Claim(a Active) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return dErrors.New(dErrors.CodeSessionState, fmt.Sprintf("a %s session is already active", s.current.SessionKind()))
	}
	s.current = a
	s.metrics.SetSessionActive(string(a.SessionKind()), true)
	return nil
}

// Release empties the slot if a still occupies it.
func (s *Slot) Release(a Active) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != a {
		return false
	}
	s.current = nil
	s.metrics.SetSessionActive(string(a.SessionKind()), false)
	return true
}

// Replace swaps old for next in one step.
func (s *Slot) Replace(old, next Active) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != old {
		return false
	}
	s.metrics.SetSessionActive(string(old.SessionKind()), false)
	s.current = next
	s.metrics.SetSessionActive(string(next.SessionKind()), true)
	return true
}

func (s *Slot) Current() Active {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Clear empties the slot and returns what occupied it.
func (s *Slot) Clear() Active {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.current
	if prev != nil {
		s.metrics.SetSessionActive(string(prev.SessionKind()), false)
	}
	s.current = nil
	return prev
}

// Lifetime is the cancellable context of one session. Network calls made on
// behalf of the session are bound to it so cancelling the session aborts them.
type Lifetime struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

func NewLifetime() Lifetime {
	ctx, cancel := context.WithCancelCause(context.Background())
	return Lifetime{ctx: ctx, cancel: cancel}
}

// Bind derives a context from ctx that is also cancelled when the session ends.
func (l Lifetime) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(l.ctx, func() { cancel(ErrCancelled) })
	return bound, func() {
		stop()
		cancel(nil)
	}
}

func (l Lifetime) End() {
	l.cancel(ErrCancelled)
}

func (l Lifetime) Ended() bool {
	return l.ctx.Err() != nil
}

// Cancelled reports whether ctx was aborted because the session ended.
func Cancelled(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrCancelled)
}

// CancelledError is returned by an operation that lost the race against a
// cancellation of its session.
func CancelledError() error {
	return dErrors.New(dErrors.CodeSessionState, "session was cancelled")
}

// PartyError classifies an issuer or verifier failure as a protocol or a
// network error. Domain errors pass through.
func PartyError(err error, party string) error {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, sentinel.ErrMalformed) || errors.Is(err, sentinel.ErrInvalidInput) || errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.Wrap(err, dErrors.CodeProtocol, party+" returned an invalid response")
	}
	return dErrors.Wrap(err, dErrors.CodeNetwork, party+" is unreachable")
}
