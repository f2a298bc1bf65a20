package state

import (
	"github.com/go-drift/weave/pkg/observable"
)

// Store is a component's observable state.
//
// A Store is owned by exactly one component. It starts empty and is
// replaced, never mutated, on every SetState call.
type Store struct {
	subject *observable.Subject[Snapshot]
}

// NewStore creates a store holding the empty snapshot.
func NewStore() *Store {
	return &Store{subject: observable.NewSubject(Empty())}
}

// SetState merges patch into the current snapshot and publishes the result.
// It may be called at any time, including before any subscriber exists and
// from inside a subscriber callback.
func (s *Store) SetState(patch Patch) {
	s.subject.Update(func(current Snapshot) Snapshot {
		return current.Merge(patch)
	})
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	return s.subject.Get()
}

// Get implements observable.Observable.
func (s *Store) Get() Snapshot {
	return s.subject.Get()
}

// Subscribe registers fn for the current snapshot and every later one.
func (s *Store) Subscribe(fn func(Snapshot)) *observable.Subscription {
	return s.subject.Subscribe(fn)
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	return s.subject.Len()
}

// Close releases every subscription. SetState calls made afterwards are
// dropped.
func (s *Store) Close() {
	s.subject.Close()
}
