package notify

import (
	"errors"
	"sync"
)

var (
	// ErrReplaced ends a subscription when a new sink registers for the same stream.
	ErrReplaced = errors.New("subscription replaced by a newer sink")
	// ErrCleared ends a subscription that was explicitly deregistered.
	ErrCleared = errors.New("subscription cleared")
	// ErrBackpressure ends a history subscription whose buffer overflowed.
	// The consumer must register again to be seeded with recent history.
	ErrBackpressure = errors.New("subscriber buffer full")
	ErrClosed       = errors.New("hub closed")
)

// Subscription is one sink's view of a stream. Updates is closed when the
// subscription ends; Err then reports why.
type Subscription[T any] struct {
	ch chan T

	mu  sync.Mutex
	err error
}

func newSubscription[T any](capacity int) *Subscription[T] {
	return &Subscription[T]{ch: make(chan T, capacity)}
}

func (s *Subscription[T]) Updates() <-chan T {
	return s.ch
}

func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// end is called with the owning topic locked.
func (s *Subscription[T]) end(reason error) {
	s.mu.Lock()
	s.err = reason
	s.mu.Unlock()
	close(s.ch)
}
