// Package lock is the wallet's lock state machine.
//
//	Uninitialized -> Locked (register)
//	Locked -> Unlocked (unlock instruction succeeded)
//	Unlocked -> Locked (explicit lock, inactivity, background timeout)
//	any -> Blocked (account server blocked the wallet; terminal)
//	any -> Uninitialized (reset)
package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"walletcore/internal/instruction"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/requestcontext"
)

type State string

const (
	StateUninitialized State = "uninitialized"
	StateLocked        State = "locked"
	StateUnlocked      State = "unlocked"
	StateBlocked       State = "blocked"
)

// Reasons recorded with lock transitions.
const (
	ReasonRegistered = "registered"
	ReasonUnlocked   = "unlocked"
	ReasonExplicit   = "explicit"
	ReasonInactive   = "inactivity"
	ReasonBackground = "background"
	ReasonBlocked    = "blocked"
	ReasonReset      = "reset"
	ReasonRestored   = "restored"
)

// Publisher receives the locked flag whenever it changes.
type Publisher interface {
	PublishLock(locked bool)
}

// TimeoutSource supplies the current lock timeouts.
type TimeoutSource interface {
	Configuration() models.Configuration
}

type Machine struct {
	publisher Publisher
	timeouts  TimeoutSource
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu             sync.Mutex
	state          State
	published      *bool
	lastActivity   time.Time
	backgroundedAt time.Time
}

type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = mt
	}
}

func WithPublisher(p Publisher) Option {
	return func(m *Machine) {
		m.publisher = p
	}
}

func New(timeouts TimeoutSource, opts ...Option) *Machine {
	m := &Machine{timeouts: timeouts, state: StateUninitialized}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore sets the state found at startup and publishes it.
func (m *Machine) Restore(ctx context.Context, registered, blocked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case blocked:
		m.transition(ctx, StateBlocked, ReasonRestored)
	case registered:
		m.transition(ctx, StateLocked, ReasonRestored)
	default:
		m.transition(ctx, StateUninitialized, ReasonRestored)
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) IsLocked() bool {
	return m.State() != StateUnlocked
}

// Registered moves a fresh wallet to Locked.
func (m *Machine) Registered(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUninitialized {
		return dErrors.New(dErrors.CodeSessionState, "wallet is already registered")
	}
	m.transition(ctx, StateLocked, ReasonRegistered)
	return nil
}

// Unlocked records a successful unlock instruction.
func (m *Machine) Unlocked(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateUninitialized:
		return dErrors.New(dErrors.CodeNotRegistered, "wallet is not registered")
	case StateBlocked:
		return instruction.BlockedError()
	}
	m.lastActivity = requestcontext.Now(ctx)
	m.transition(ctx, StateUnlocked, ReasonUnlocked)
	return nil
}

// Lock moves an unlocked wallet to Locked. Other states are left alone.
func (m *Machine) Lock(ctx context.Context, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lock(ctx, reason)
}

func (m *Machine) lock(ctx context.Context, reason string) bool {
	if m.state != StateUnlocked {
		return false
	}
	m.transition(ctx, StateLocked, reason)
	return true
}

func (m *Machine) Block(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transition(ctx, StateBlocked, ReasonBlocked)
}

func (m *Machine) Reset(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backgroundedAt = time.Time{}
	m.transition(ctx, StateUninitialized, ReasonReset)
}

// Touch records user activity at the request time of ctx.
func (m *Machine) Touch(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = requestcontext.Now(ctx)
}

func (m *Machine) Background(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backgroundedAt = requestcontext.Now(ctx)
}

// Foreground locks the wallet when it spent longer than the background lock
// timeout in the background.
func (m *Machine) Foreground(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backgroundedAt.IsZero() {
		return false
	}
	away := requestcontext.Now(ctx).Sub(m.backgroundedAt)
	m.backgroundedAt = time.Time{}
	if away < m.timeouts.Configuration().BackgroundLockTimeout {
		return false
	}
	return m.lock(ctx, ReasonBackground)
}

// Idle reports how long an unlocked wallet has been inactive at now.
func (m *Machine) Idle(now time.Time) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnlocked {
		return 0, false
	}
	return now.Sub(m.lastActivity), true
}

// LockIfInactive locks an unlocked wallet idle for at least the inactive lock timeout.
func (m *Machine) LockIfInactive(ctx context.Context, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUnlocked || now.Sub(m.lastActivity) < m.timeouts.Configuration().InactiveLockTimeout {
		return false
	}
	return m.lock(ctx, ReasonInactive)
}

// RequireRegistered fails for a wallet without registration and for a blocked wallet.
func (m *Machine) RequireRegistered() error {
	switch m.State() {
	case StateUninitialized:
		return dErrors.New(dErrors.CodeNotRegistered, "wallet is not registered")
	case StateBlocked:
		return instruction.BlockedError()
	}
	return nil
}

// RequireUnlocked additionally fails for a locked wallet.
func (m *Machine) RequireUnlocked() error {
	if err := m.RequireRegistered(); err != nil {
		return err
	}
	if m.State() == StateLocked {
		return dErrors.New(dErrors.CodeLocked, "wallet is locked")
	}
	return nil
}

// transition is called with mu held.
func (m *Machine) transition(ctx context.Context, to State, reason string) {
	from := m.state
	m.state = to
	if from != to {
		m.metrics.IncrementLockTransition(string(to), reason)
		if m.logger != nil {
			attrs := []any{"from", string(from), "to", string(to), "reason", reason, "log_type", "audit"}
			if correlationID := requestcontext.CorrelationID(ctx); correlationID != "" {
				attrs = append(attrs, "correlation_id", correlationID)
			}
			m.logger.InfoContext(ctx, "wallet_lock_"+string(to), attrs...)
		}
	}

	locked := to != StateUnlocked
	if m.publisher != nil && (m.published == nil || *m.published != locked) {
		m.published = &locked
		m.publisher.PublishLock(locked)
	}
}
