package component

import (
	"github.com/go-drift/weave/pkg/events"
	"github.com/go-drift/weave/pkg/state"
)

// RenderFunc projects a snapshot into the component's DOM subtree.
type RenderFunc func(snap state.Snapshot, c *Component)

// EffectFunc runs a side effect for a snapshot. It may call c.SetState.
type EffectFunc func(snap state.Snapshot, c *Component)

// EventHandling declares one (selector, event) binding.
type EventHandling = events.Handling[*Component]

// Invocation is passed to an event handler.
type Invocation = events.Invocation[*Component]

// On builds an EventHandling.
func On(selector, eventName string, handler func(Invocation)) EventHandling {
	return events.On(selector, eventName, handler)
}

// Spec describes a component's behaviour. Every field is optional.
type Spec struct {
	// Render runs on every snapshot while connected.
	Render RenderFunc
	// Effect runs on every snapshot while connected, after Render.
	Effect EffectFunc
	// Events are rebound against the rendered subtree on every snapshot.
	Events []EventHandling
	// Initial is merged into the state at construction.
	Initial state.Patch
	// OnRouterState runs on every router state while connected, when the
	// component was mounted by a router.
	OnRouterState func(rs state.RouterState, c *Component)
}

// Constructor produces the Spec for each new instance of a component.
type Constructor func() Spec

// Functional returns a constructor whose instances use render, initial,
// handlings and effect exactly as a hand-written Spec with those fields
// would. Any of the four may be nil.
func Functional(render RenderFunc, initial state.Patch, handlings []EventHandling, effect EffectFunc) Constructor {
	handlings = append([]EventHandling(nil), handlings...)
	return func() Spec {
		return Spec{
			Render:  render,
			Effect:  effect,
			Events:  handlings,
			Initial: initial,
		}
	}
}

// Template returns a RenderFunc that replaces the component's children
// with the markup fn produces for each snapshot.
func Template(fn func(state.Snapshot) string) RenderFunc {
	return func(snap state.Snapshot, c *Component) {
		c.SetInnerHTML(fn(snap))
	}
}
