// Package observable provides the replaying subject that every weave store
// and the router state are built on.
//
// A Subject holds a current value and broadcasts every new value to its
// subscribers:
//
//	count := observable.NewSubject(0)
//	sub := count.Subscribe(func(v int) { fmt.Println("count:", v) }) // prints 0
//	count.Set(1)                                                   // prints 1
//	sub.Unsubscribe()
//
// # Delivery guarantees
//
// Delivery is synchronous on the goroutine that calls Set. Values are never
// coalesced or dropped: every Set reaches every subscriber that was
// registered when Set was called, in Set order. A Set issued from inside a
// subscriber callback is queued and delivered after the current value has
// reached the remaining subscribers, but before the outermost Set returns.
// A callback is therefore never re-entered while it is running.
//
// A panicking callback is recovered and reported through pkg/errors; it
// does not affect delivery to other subscribers or of later values.
package observable

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/go-drift/weave/pkg/errors"
)

// Observable is the read side of a Subject.
type Observable[T any] interface {
	// Get returns the current value.
	Get() T
	// Subscribe registers fn, calls it with the current value, then with
	// every subsequent value until the subscription is cancelled.
	Subscribe(fn func(T)) *Subscription
}

type subscriber[T any] struct {
	fn  func(T)
	sub *Subscription
}

type delivery[T any] struct {
	value   T
	targets []*subscriber[T]
}

// Subject is a current-value-holding broadcast primitive.
// The zero value is not usable; create subjects with NewSubject.
type Subject[T any] struct {
	mu       sync.Mutex
	value    T
	subs     []*subscriber[T]
	queue    []delivery[T]
	emitting bool
	closed   bool
	nextID   uint64
}

// NewSubject creates a subject holding initial.
func NewSubject[T any](initial T) *Subject[T] {
	return &Subject[T]{value: initial}
}

// Get returns the current value.
func (s *Subject[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set publishes value to every current subscriber.
// Set on a closed subject is a no-op.
func (s *Subject[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update publishes transform(current) as one atomic read-modify-write.
// transform runs with the subject locked and must not call back into it.
func (s *Subject[T]) Update(transform func(T) T) {
	if s.enqueue(transform) {
		s.drain()
	}
}

func (s *Subject[T]) enqueue(transform func(T) T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.value = transform(s.value)
	if len(s.subs) == 0 {
		return false
	}
	s.queue = append(s.queue, delivery[T]{value: s.value, targets: slices.Clone(s.subs)})
	return true
}

// Subscribe registers fn and replays the current value to it before
// returning, unless the subject is already delivering, in which case the
// replay is queued behind the values already in flight.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription {
	s.mu.Lock()
	if s.closed || fn == nil {
		s.mu.Unlock()
		return &Subscription{}
	}
	s.nextID++
	sub := &Subscription{id: s.nextID, owner: s}
	sub.active.Store(true)
	entry := &subscriber[T]{fn: fn, sub: sub}
	s.subs = append(s.subs, entry)
	s.queue = append(s.queue, delivery[T]{value: s.value, targets: []*subscriber[T]{entry}})
	s.mu.Unlock()
	s.drain()
	return sub
}

// Len returns the number of active subscribers.
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close cancels every subscription and discards pending deliveries.
// Later Set and Subscribe calls are no-ops.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.queue = nil
	s.closed = true
	s.mu.Unlock()
	for _, entry := range subs {
		entry.sub.active.Store(false)
	}
}

// Closed reports whether Close has been called.
func (s *Subject[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// View returns a read-only handle on the subject.
func (s *Subject[T]) View() Observable[T] {
	return view[T]{s: s}
}

// drain delivers queued values until the queue is empty. Only one caller
// drains at a time; others enqueue and return.
func (s *Subject[T]) drain() {
	s.mu.Lock()
	if s.emitting {
		s.mu.Unlock()
		return
	}
	s.emitting = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.emitting = false
			s.mu.Unlock()
			return
		}
		d := s.queue[0]
		s.queue[0] = delivery[T]{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		for _, entry := range d.targets {
			if !entry.sub.Active() {
				continue
			}
			deliver(entry.fn, d.value)
		}
	}
}

func deliver[T any](fn func(T), value T) {
	defer errors.Recover("observable.deliver")
	fn(value)
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = slices.DeleteFunc(s.subs, func(e *subscriber[T]) bool {
		return e.sub.id == id
	})
}

type unsubscriber interface {
	remove(id uint64)
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id     uint64
	owner  unsubscriber
	active atomic.Bool
}

// Unsubscribe stops delivery to the subscriber, including values that were
// queued but not yet delivered. It is safe to call more than once and from
// inside the subscriber's own callback.
func (s *Subscription) Unsubscribe() {
	if s == nil || !s.active.Swap(false) {
		return
	}
	if s.owner != nil {
		s.owner.remove(s.id)
	}
}

// Active reports whether the subscription still receives values.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

type view[T any] struct {
	s *Subject[T]
}

func (v view[T]) Get() T { return v.s.Get() }

func (v view[T]) Subscribe(fn func(T)) *Subscription { return v.s.Subscribe(fn) }
