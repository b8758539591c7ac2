package notify

import (
	"errors"
	"sync"

	"walletcore/internal/platform/metrics"
)

// latestTopic holds one sink and the current value. A slow sink only ever
// sees the newest value.
type latestTopic[T any] struct {
	stream  Stream
	metrics *metrics.Metrics

	mu      sync.Mutex
	sub     *Subscription[T]
	current T
	set     bool
	closed  bool
}

func newLatestTopic[T any](stream Stream, m *metrics.Metrics) *latestTopic[T] {
	return &latestTopic[T]{stream: stream, metrics: m}
}

func (t *latestTopic[T]) subscribe() *Subscription[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	sub := newSubscription[T](1)
	if t.closed {
		sub.end(ErrClosed)
		return sub
	}
	if t.sub != nil {
		t.sub.end(ErrReplaced)
	}
	t.sub = sub
	if t.set {
		sub.ch <- t.current
	}
	return sub
}

func (t *latestTopic[T]) publish(value T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.current, t.set = value, true
	if t.sub == nil {
		return
	}
	select {
	case <-t.sub.ch:
	default:
	}
	t.sub.ch <- value
	t.metrics.IncrementStreamPublished(string(t.stream))
}

func (t *latestTopic[T]) value() (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.set
}

func (t *latestTopic[T]) clear(reason error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sub != nil {
		t.sub.end(reason)
		t.sub = nil
	}
	if errors.Is(reason, ErrClosed) {
		t.closed = true
	}
}
