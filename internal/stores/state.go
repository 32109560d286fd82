// Package stores holds the per-user feature state of the Mini App: each
// store wraps one backend resource with loading/error/data fields and
// persists the part worth keeping to the user's kv scope.
package stores

import (
	"sort"
	"sync"
)

// State is what a screen renders. Error is a human-readable message.
type State[T any] struct {
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
	Data    T      `json:"data"`
}

type store[T any] struct {
	mu        sync.RWMutex
	state     State[T]
	nextID    int
	listeners map[int]func(State[T])
}

func newStore[T any](initial T) *store[T] {
	return &store[T]{
		state:     State[T]{Data: initial},
		listeners: make(map[int]func(State[T])),
	}
}

// Snapshot returns the current state.
func (s *store[T]) Snapshot() State[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every state transition and returns a function
// that removes it.
func (s *store[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn under the lock, then notifies listeners in
// subscription order outside of it.
func (s *store[T]) update(fn func(st *State[T])) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State[T]), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	for _, f := range fns {
		f(snap)
	}
}

func (s *store[T]) startLoading() {
	s.update(func(st *State[T]) {
		st.Loading = true
		st.Error = ""
	})
}

func (s *store[T]) fail(msg string) {
	s.update(func(st *State[T]) {
		st.Loading = false
		st.Error = msg
	})
}
