// Package service is the wallet aggregate. It owns registration, the lock
// state machine, the active session slot and the notification hub, and
// exposes every wallet operation. Mutating operations are linearized: one
// that overlaps another fails with a session state error. Cancels bypass the
// guard so they can interrupt an accept in flight.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"walletcore/internal/configuration"
	"walletcore/internal/disclosure"
	"walletcore/internal/history"
	"walletcore/internal/instruction"
	"walletcore/internal/issuance"
	"walletcore/internal/lock"
	"walletcore/internal/notify"
	"walletcore/internal/platform/metrics"
	"walletcore/internal/platform/tracer"
	"walletcore/internal/session"
	"walletcore/internal/wallet/models"
	"walletcore/internal/wallet/ports"
)

// Dependencies are the collaborators and stores a wallet runs on.
type Dependencies struct {
	AccountServer ports.AccountServer
	Issuer        ports.IssuerClient
	Verifier      ports.VerifierClient
	Registrations RegistrationStore
	Attestations  AttestationStore
	History       HistoryStore
}

func (d Dependencies) validate() error {
	switch {
	case d.AccountServer == nil:
		return errors.New("account server is required")
	case d.Issuer == nil:
		return errors.New("issuer client is required")
	case d.Verifier == nil:
		return errors.New("verifier client is required")
	case d.Registrations == nil:
		return errors.New("registration store is required")
	case d.Attestations == nil:
		return errors.New("attestation store is required")
	case d.History == nil:
		return errors.New("history store is required")
	}
	return nil
}

type Service struct {
	server        ports.AccountServer
	registrations RegistrationStore
	attestations  AttestationStore
	biometric     ports.BiometricKey
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        tracer.Tracer

	hub        *notify.Hub
	config     *configuration.Repository
	history    *history.Publisher
	executor   *instruction.Executor
	lock       *lock.Machine
	slot       *session.Slot
	issuance   *issuance.Manager
	disclosure *disclosure.Manager

	initMu      sync.Mutex
	initialized atomic.Bool
	busy        atomic.Bool
}

type settings struct {
	logger            *slog.Logger
	metrics           *metrics.Metrics
	tracer            tracer.Tracer
	biometric         ports.BiometricKey
	historyBuffer     int
	configuration     *models.Configuration
	terminateRetries  uint64
	terminateInterval time.Duration
}

type Option func(*settings)

func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *settings) {
		s.tracer = t
	}
}

// WithBiometricKey enables biometric unlock with a hardware-bound key.
func WithBiometricKey(key ports.BiometricKey) Option {
	return func(s *settings) {
		s.biometric = key
	}
}

// WithHistoryBuffer sizes the recent history stream.
func WithHistoryBuffer(n int) Option {
	return func(s *settings) {
		s.historyBuffer = n
	}
}

// WithConfiguration replaces the default wallet configuration until a
// configuration source delivers one.
func WithConfiguration(c models.Configuration) Option {
	return func(s *settings) {
		s.configuration = &c
	}
}

// WithTerminateRetry bounds the attempts to tell a relying party the user declined.
func WithTerminateRetry(retries uint64, initialInterval time.Duration) Option {
	return func(s *settings) {
		s.terminateRetries = retries
		s.terminateInterval = initialInterval
	}
}

// New wires a wallet. It must be initialized with Init before use.
func New(deps Dependencies, opts ...Option) (*Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	cfg := settings{tracer: tracer.NewNoop(), historyBuffer: notify.DefaultHistoryBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	svc := &Service{
		server:        deps.AccountServer,
		registrations: deps.Registrations,
		attestations:  deps.Attestations,
		biometric:     cfg.biometric,
		logger:        cfg.logger,
		metrics:       cfg.metrics,
		tracer:        cfg.tracer,
	}

	svc.hub = notify.NewHub(
		notify.WithLogger(cfg.logger),
		notify.WithMetrics(cfg.metrics),
		notify.WithHistoryBuffer(cfg.historyBuffer),
	)
	repoOpts := []configuration.Option{
		configuration.WithLogger(cfg.logger),
		configuration.WithPublisher(svc.hub),
	}
	if cfg.configuration != nil {
		repoOpts = append(repoOpts, configuration.WithInitial(*cfg.configuration))
	}
	svc.config = configuration.NewRepository(repoOpts...)

	svc.history = history.NewPublisher(deps.History,
		history.WithPublisherLogger(cfg.logger),
		history.WithSink(func(ctx context.Context, events []models.WalletEvent) {
			// The hub ends a lagging subscription and logs it.
			_ = svc.hub.PublishHistory(ctx, events)
		}),
	)
	svc.lock = lock.New(svc.config,
		lock.WithLogger(cfg.logger),
		lock.WithMetrics(cfg.metrics),
		lock.WithPublisher(svc.hub),
	)
	executorOpts := []instruction.Option{
		instruction.WithLogger(cfg.logger),
		instruction.WithMetrics(cfg.metrics),
		instruction.WithTracer(cfg.tracer),
		instruction.WithOnBlocked(svc.lock.Block),
	}
	if cfg.biometric != nil {
		executorOpts = append(executorOpts, instruction.WithBiometricKey(cfg.biometric))
	}
	svc.executor = instruction.New(deps.AccountServer, deps.Registrations, executorOpts...)

	svc.slot = session.NewSlot(cfg.metrics)
	svc.issuance = issuance.New(deps.Issuer, svc.executor, deps.Attestations, svc.history, svc.slot,
		issuance.WithLogger(cfg.logger),
		issuance.WithMetrics(cfg.metrics),
		issuance.WithTracer(cfg.tracer),
		issuance.WithPublisher(svc.hub),
	)
	disclosureOpts := []disclosure.Option{
		disclosure.WithLogger(cfg.logger),
		disclosure.WithMetrics(cfg.metrics),
		disclosure.WithTracer(cfg.tracer),
	}
	if cfg.terminateInterval > 0 {
		disclosureOpts = append(disclosureOpts, disclosure.WithTerminateRetry(cfg.terminateRetries, cfg.terminateInterval))
	}
	svc.disclosure = disclosure.New(deps.Verifier, svc.executor, deps.Attestations, svc.history, svc.issuance, svc.config, svc.slot,
		disclosureOpts...,
	)
	return svc, nil
}

// Configuration is the repository configuration sources push updates to.
func (s *Service) Configuration() *configuration.Repository {
	return s.config
}

// Locker is the lock state machine the inactivity worker drives.
func (s *Service) Locker() *lock.Machine {
	return s.lock
}

// LockState returns the current lock state.
func (s *Service) LockState() lock.State {
	return s.lock.State()
}

// PinRetryState is the last retry state the account server reported.
func (s *Service) PinRetryState() models.PinRetryState {
	return s.executor.RetryState()
}

// Close ends every stream subscription.
func (s *Service) Close() {
	s.hub.Close()
}
