// Package notify is the notification hub: one replaceable sink per stream
// kind. Lock, configuration, attestation and version streams are latest value
// wins; the recent history stream is incremental and never drops an event
// silently.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"walletcore/internal/platform/metrics"
	"walletcore/internal/wallet/models"
	id "walletcore/pkg/domain"
)

type Stream string

const (
	StreamLock          Stream = "lock"
	StreamConfiguration Stream = "configuration"
	StreamAttestations  Stream = "attestations"
	StreamRecentHistory Stream = "recent_history"
	StreamVersionState  Stream = "version_state"
)

// Streams lists every stream kind.
var Streams = []Stream{StreamLock, StreamConfiguration, StreamAttestations, StreamRecentHistory, StreamVersionState}

const DefaultHistoryBuffer = 256

type Hub struct {
	logger        *slog.Logger
	metrics       *metrics.Metrics
	historyBuffer int

	lock          *latestTopic[bool]
	configuration *latestTopic[models.Configuration]
	attestations  *latestTopic[[]models.Attestation]
	version       *latestTopic[models.VersionState]

	historyMu sync.Mutex
	history   *historySubscription
	closed    bool
}

type historySubscription struct {
	*Subscription[models.WalletEvent]
	seeded map[id.EventID]struct{}
}

type Option func(*Hub)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithHistoryBuffer sets how many history events may queue for a slow sink.
func WithHistoryBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.historyBuffer = n
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{historyBuffer: DefaultHistoryBuffer}
	for _, opt := range opts {
		opt(h)
	}
	h.lock = newLatestTopic[bool](StreamLock, h.metrics)
	h.configuration = newLatestTopic[models.Configuration](StreamConfiguration, h.metrics)
	h.attestations = newLatestTopic[[]models.Attestation](StreamAttestations, h.metrics)
	h.version = newLatestTopic[models.VersionState](StreamVersionState, h.metrics)
	return h
}

// SubscribeLock registers the lock sink. It receives true while locked.
func (h *Hub) SubscribeLock() *Subscription[bool] { return h.lock.subscribe() }

func (h *Hub) PublishLock(locked bool) { h.lock.publish(locked) }

func (h *Hub) SubscribeConfiguration() *Subscription[models.Configuration] {
	return h.configuration.subscribe()
}

func (h *Hub) PublishConfiguration(c models.Configuration) { h.configuration.publish(c) }

func (h *Hub) SubscribeAttestations() *Subscription[[]models.Attestation] {
	return h.attestations.subscribe()
}

func (h *Hub) PublishAttestations(list []models.Attestation) {
	h.attestations.publish(append([]models.Attestation{}, list...))
}

func (h *Hub) SubscribeVersionState() *Subscription[models.VersionState] {
	return h.version.subscribe()
}

func (h *Hub) PublishVersionState(v models.VersionState) { h.version.publish(v) }

// VersionState returns the last published version state.
func (h *Hub) VersionState() (models.VersionState, bool) { return h.version.value() }

// SubscribeRecentHistory registers the history sink. seed runs while the
// stream is held, so an event appended concurrently is delivered exactly once.
func (h *Hub) SubscribeRecentHistory(seed func() ([]models.WalletEvent, error)) (*Subscription[models.WalletEvent], error) {
	h.historyMu.Lock()
	defer h.historyMu.Unlock()

	events, err := seed()
	if err != nil {
		return nil, err
	}
	sub := &historySubscription{
		Subscription: newSubscription[models.WalletEvent](h.historyBuffer + len(events)),
		seeded:       make(map[id.EventID]struct{}, len(events)),
	}
	if h.closed {
		sub.end(ErrClosed)
		return sub.Subscription, nil
	}
	for _, ev := range events {
		sub.ch <- ev
		sub.seeded[ev.ID] = struct{}{}
	}
	if h.history != nil {
		h.history.end(ErrReplaced)
	}
	h.history = sub
	return sub.Subscription, nil
}

// PublishHistory pushes appended events to the history sink. When the sink's
// buffer is full the subscription ends with ErrBackpressure, which is also
// returned.
func (h *Hub) PublishHistory(ctx context.Context, events []models.WalletEvent) error {
	h.historyMu.Lock()
	defer h.historyMu.Unlock()

	sub := h.history
	if sub == nil {
		return nil
	}
	for _, ev := range events {
		if _, ok := sub.seeded[ev.ID]; ok {
			continue
		}
		select {
		case sub.ch <- ev:
			h.metrics.IncrementStreamPublished(string(StreamRecentHistory))
		default:
			h.metrics.IncrementStreamBackpressure(string(StreamRecentHistory))
			if h.logger != nil {
				h.logger.WarnContext(ctx, "recent history sink is full, ending subscription",
					"buffer", cap(sub.ch),
				)
			}
			sub.end(ErrBackpressure)
			h.history = nil
			return ErrBackpressure
		}
	}
	return nil
}

// Clear deregisters the sink of stream.
func (h *Hub) Clear(stream Stream) {
	switch stream {
	case StreamLock:
		h.lock.clear(ErrCleared)
	case StreamConfiguration:
		h.configuration.clear(ErrCleared)
	case StreamAttestations:
		h.attestations.clear(ErrCleared)
	case StreamVersionState:
		h.version.clear(ErrCleared)
	case StreamRecentHistory:
		h.historyMu.Lock()
		if h.history != nil {
			h.history.end(ErrCleared)
			h.history = nil
		}
		h.historyMu.Unlock()
	}
}

// Close ends every subscription. Later subscriptions end immediately.
func (h *Hub) Close() {
	h.lock.clear(ErrClosed)
	h.configuration.clear(ErrClosed)
	h.attestations.clear(ErrClosed)
	h.version.clear(ErrClosed)

	h.historyMu.Lock()
	defer h.historyMu.Unlock()
	if h.history != nil {
		h.history.end(ErrClosed)
		h.history = nil
	}
	h.closed = true
}
