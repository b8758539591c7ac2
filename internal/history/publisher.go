// Package history is the wallet's append-only event log. The publisher
// persists events and forwards them to the recent history stream.
package history

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"walletcore/internal/wallet/models"
	dErrors "walletcore/pkg/domain-errors"
)

// RecentWindow bounds the events replayed to a new recent history subscriber.
const RecentWindow = 31 * 24 * time.Hour

type Store interface {
	Append(ctx context.Context, events ...models.WalletEvent) error
	List(ctx context.Context) ([]models.WalletEvent, error)
	Clear(ctx context.Context) error
}

// Sink receives appended events after they are persisted.
type Sink func(ctx context.Context, events []models.WalletEvent)

type Publisher struct {
	store  Store
	sink   Sink
	logger *slog.Logger
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) {
		p.sink = sink
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit appends events synchronously. History is never dropped, so a storage
// failure is returned to the caller.
func (p *Publisher) Emit(ctx context.Context, events ...models.WalletEvent) error {
	if len(events) == 0 {
		return nil
	}
	if err := p.store.Append(ctx, events...); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history")
	}
	if p.logger != nil {
		for _, ev := range events {
			p.logger.DebugContext(ctx, "history event appended",
				"event_id", ev.ID.String(),
				"type", string(ev.Type),
			)
		}
	}
	if p.sink != nil {
		p.sink(ctx, events)
	}
	return nil
}

// List returns the full history, most recent first.
func (p *Publisher) List(ctx context.Context) ([]models.WalletEvent, error) {
	events, err := p.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history")
	}
	slices.Reverse(events)
	return events, nil
}

// ListForType returns the events referencing attestationType, in the order of List.
func (p *Publisher) ListForType(ctx context.Context, attestationType string) ([]models.WalletEvent, error) {
	events, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(events, func(ev models.WalletEvent) bool {
		return !ev.References(attestationType)
	}), nil
}

// Recent returns the events of the last RecentWindow before now, oldest first.
func (p *Publisher) Recent(ctx context.Context, now time.Time) ([]models.WalletEvent, error) {
	events, err := p.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history")
	}
	since := now.Add(-RecentWindow)
	return slices.DeleteFunc(events, func(ev models.WalletEvent) bool {
		return ev.DateTime.Before(since)
	}), nil
}

// HasSuccessfulDisclosureTo reports whether rp received a disclosure before.
func (p *Publisher) HasSuccessfulDisclosureTo(ctx context.Context, rp models.Organization) (bool, error) {
	events, err := p.store.List(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history")
	}
	return slices.ContainsFunc(events, func(ev models.WalletEvent) bool {
		return ev.IsSuccessfulDisclosureTo(rp)
	}), nil
}

func (p *Publisher) Clear(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear history")
	}
	return nil
}
