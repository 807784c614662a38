// Package onceshot implements the take-once rendezvous primitive used by
// the transfer core for the receiver's file-list promise, the sender's
// selected-files promise, and the receiver's data-channel handoff: each is
// filled once and consumed at most once.
package onceshot

import (
	"errors"
	"sync"
)

// ErrAlreadyConsumed is returned by Take when the slot has already been
// taken by an earlier call. It is a programmer error surfaced to the
// offending call, never to the session.
var ErrAlreadyConsumed = errors.New("already received")

// Slot is a single-producer, single-consumer take-once box. Fill may be
// called at most once; Take may succeed at most once, regardless of how
// many times it is called or from how many goroutines.
type Slot[T any] struct {
	mu      sync.Mutex
	value   T
	filled  bool
	taken   bool
	waiters chan struct{}
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{waiters: make(chan struct{})}
}

// Fill sets the slot's value. Calling Fill more than once is a programmer
// error in the producer and panics, since the core never produces a value
// twice for these rendezvous points.
func (s *Slot[T]) Fill(v T) {
	s.mu.Lock()
	if s.filled {
		s.mu.Unlock()
		panic("onceshot: slot filled twice")
	}
	s.value = v
	s.filled = true
	close(s.waiters)
	s.mu.Unlock()
}

// Take blocks until the slot is filled, then returns the value. A second
// call (from any goroutine) returns ErrAlreadyConsumed immediately instead
// of blocking or re-delivering the value.
func (s *Slot[T]) Take() (T, error) {
	<-s.waiters

	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.taken {
		return zero, ErrAlreadyConsumed
	}
	s.taken = true
	return s.value, nil
}

// TryTake is like Take but never blocks: it reports false if the slot
// has not yet been filled.
func (s *Slot[T]) TryTake() (T, bool) {
	select {
	case <-s.waiters:
	default:
		var zero T
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.taken {
		return zero, false
	}
	s.taken = true
	return s.value, true
}
