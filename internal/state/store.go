package state

import (
	"context"
	"sync"
)

// Store holds a current value and broadcasts updates to subscribers. Delivery
// is conflating: each subscriber channel buffers one value and a newer value
// replaces an undelivered one, so slow consumers observe the latest state
// rather than a backlog.
type Store[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[int]chan T
	next  int
}

// NewStore creates a Store seeded with the given value.
func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subs: make(map[int]chan T)}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current value and notifies all subscribers.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Drop the stale buffered value, keep the latest.
			select {
			case <-ch:
			default:
			}
			ch <- v
		}
	}
}

// Subscribe returns a channel that immediately yields the current value and
// then every subsequent update. The channel is closed when ctx is cancelled;
// cancelling is required to release the subscription.
func (s *Store[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	ch <- s.value
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}
