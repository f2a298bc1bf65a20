// Package events keeps a component's DOM event listeners in step with its
// rendered subtree.
//
// Rendering replaces DOM nodes wholesale, so listeners attached to the old
// nodes would either leak or silently stop firing. A Binder therefore
// tears down every listener it attached and rebinds the declared
// handlings against the current subtree on every state snapshot.
package events

import (
	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/state"
)

// Invocation is what a handler receives when its event fires.
type Invocation[C any] struct {
	// Event is the DOM event being dispatched.
	Event *dom.Event
	// State is the snapshot that was current when the listener was bound,
	// not a fresh read at dispatch time.
	State state.Snapshot
	// Component is the component that declared the handling.
	Component C
}

// Handling declares that Handler runs when EventName fires on the first
// element in the component's subtree matching Selector.
type Handling[C any] struct {
	Selector  string
	EventName string
	Handler   func(Invocation[C])
}

// On is shorthand for building a Handling.
func On[C any](selector, eventName string, handler func(Invocation[C])) Handling[C] {
	return Handling[C]{Selector: selector, EventName: eventName, Handler: handler}
}

// Binder owns the registered listener index for one component.
// It is not safe for concurrent use.
type Binder[C any] struct {
	root      dom.Element
	component C
	handlings []Handling[C]
	label     string
	index     map[dom.Element]map[string]*dom.Listener
	passes    int
}

// NewBinder creates a binder resolving selectors under root. The handlings
// slice is copied; the set is fixed from here on. label names the
// component in fault reports.
func NewBinder[C any](root dom.Element, component C, handlings []Handling[C], label string) *Binder[C] {
	return &Binder[C]{
		root:      root,
		component: component,
		handlings: append([]Handling[C](nil), handlings...),
		label:     label,
		index:     make(map[dom.Element]map[string]*dom.Listener),
	}
}

// Bind detaches every listener from the previous pass and attaches fresh
// listeners, closing over snap, for each handling whose selector matches.
// Handlings with an empty selector or no matching element are skipped.
// When several handlings share an (element, event) pair the last one in
// declaration order stays attached.
func (b *Binder[C]) Bind(snap state.Snapshot) {
	b.Release()
	b.passes++

	for _, h := range b.handlings {
		if h.Selector == "" || h.Handler == nil {
			continue
		}
		el := b.root.QuerySelector(h.Selector)
		if el == nil {
			continue
		}
		byName := b.index[el]
		if byName == nil {
			byName = make(map[string]*dom.Listener)
			b.index[el] = byName
		}
		if prev := byName[h.EventName]; prev != nil {
			el.RemoveEventListener(h.EventName, prev)
		}
		l := b.listener(h, snap)
		el.AddEventListener(h.EventName, l)
		byName[h.EventName] = l
	}
}

func (b *Binder[C]) listener(h Handling[C], snap state.Snapshot) *dom.Listener {
	handler := h.Handler
	component := b.component
	return dom.NewListener(func(e *dom.Event) {
		errors.Guard("events.handle", errors.KindEvent, b.label, func() {
			handler(Invocation[C]{Event: e, State: snap, Component: component})
		})
	})
}

// Release detaches every registered listener and clears the index.
func (b *Binder[C]) Release() {
	for el, byName := range b.index {
		for name, l := range byName {
			el.RemoveEventListener(name, l)
		}
	}
	clear(b.index)
}

// Len returns the number of attached (element, event) listeners.
func (b *Binder[C]) Len() int {
	n := 0
	for _, byName := range b.index {
		n += len(byName)
	}
	return n
}

// Bound reports whether a listener is attached for eventName on el.
func (b *Binder[C]) Bound(el dom.Element, eventName string) bool {
	return b.index[el][eventName] != nil
}

// Passes returns how many bind passes have run.
func (b *Binder[C]) Passes() int { return b.passes }
