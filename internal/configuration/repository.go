// Package configuration holds the active wallet configuration and version
// state. Updates are validated before they replace the active values and are
// pushed to the configuration and version state streams.
package configuration

import (
	"context"
	"log/slog"
	"sync"

	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
	"walletcore/pkg/validation"
)

type Publisher interface {
	PublishConfiguration(c models.Configuration)
	PublishVersionState(v models.VersionState)
}

type Repository struct {
	publisher Publisher
	logger    *slog.Logger

	mu      sync.RWMutex
	current models.Configuration
}

type Option func(*Repository)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

func WithPublisher(p Publisher) Option {
	return func(r *Repository) {
		r.publisher = p
	}
}

// WithInitial replaces the default configuration. It is not validated.
func WithInitial(c models.Configuration) Option {
	return func(r *Repository) {
		r.current = c
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{current: models.DefaultConfiguration()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Configuration() models.Configuration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Repository) VersionState() models.VersionState {
	return r.Configuration().VersionState
}

// Update validates c and makes it active. A configuration with an older
// version than the active one is rejected.
func (r *Repository) Update(ctx context.Context, c models.Configuration) error {
	if c.VersionState.Kind == "" {
		c.VersionState.Kind = models.VersionOk
	}
	if err := validation.Validate(c); err != nil {
		r.reject(ctx, c, err)
		return err
	}

	r.mu.Lock()
	prev := r.current
	if c.Version < prev.Version {
		r.mu.Unlock()
		err := dErrors.New(dErrors.CodeValidation, "configuration version is older than the active one")
		r.reject(ctx, c, err)
		return err
	}
	r.current = c
	r.mu.Unlock()

	if r.logger != nil {
		r.logger.InfoContext(ctx, "wallet configuration updated",
			"version", c.Version,
			"version_state", string(c.VersionState.Kind),
		)
	}
	if r.publisher != nil {
		r.publisher.PublishConfiguration(c)
		if c.VersionState != prev.VersionState {
			r.publisher.PublishVersionState(c.VersionState)
		}
	}
	return nil
}

// Publish pushes the active values to both streams.
func (r *Repository) Publish() {
	if r.publisher == nil {
		return
	}
	c := r.Configuration()
	r.publisher.PublishConfiguration(c)
	r.publisher.PublishVersionState(c.VersionState)
}

func (r *Repository) reject(ctx context.Context, c models.Configuration, err error) {
	if r.logger != nil {
		r.logger.WarnContext(ctx, "wallet configuration rejected", "version", c.Version, "error", err)
	}
}
