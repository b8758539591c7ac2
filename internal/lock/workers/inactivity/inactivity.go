package inactivity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"walletcore/internal/lock"
	"walletcore/internal/wallet/models"
)

// Locker is the part of the lock machine the worker drives.
type Locker interface {
	Idle(now time.Time) (time.Duration, bool)
	LockIfInactive(ctx context.Context, now time.Time) bool
}

type ConfigurationSource interface {
	Configuration() models.Configuration
}

// Result summarizes one inactivity check.
type Result struct {
	Idle time.Duration
	// Warn is set once the idle time passes the inactive warning timeout.
	Warn   bool
	Locked bool
}

// Service periodically locks a wallet left unlocked and idle.
type Service struct {
	locker   Locker
	config   ConfigurationSource
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithInterval overrides the check interval when greater than zero.
func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(locker Locker, config ConfigurationSource, opts ...Option) (*Service, error) {
	if locker == nil || config == nil {
		return nil, fmt.Errorf("locker and configuration source are required")
	}
	svc := &Service{
		locker:   locker,
		config:   config,
		interval: 5 * time.Second,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Start checks inactivity periodically until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single inactivity check.
func (s *Service) RunOnce(ctx context.Context) Result {
	now := s.now()
	idle, unlocked := s.locker.Idle(now)
	if !unlocked {
		return Result{}
	}

	res := Result{Idle: idle, Warn: idle >= s.config.Configuration().InactiveWarningTimeout}
	if s.locker.LockIfInactive(ctx, now) {
		res.Locked = true
		s.logger.InfoContext(ctx, "wallet locked after inactivity", "idle", idle.String(), "reason", lock.ReasonInactive)
	}
	return res
}
