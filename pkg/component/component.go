// Package component turns a render function, an effect, a set of event
// handlings and an initial state into a custom element whose DOM follows
// its state.
//
// A Component moves through three phases. After construction it owns a
// state store but has no subscriptions; SetState only updates the snapshot.
// When the host connects it, the component subscribes its render, its
// effect and its event binder to the store, in that order, and each of
// them runs once immediately with the current snapshot. When the host
// disconnects it, every subscription and listener is released and later
// SetState calls are dropped. A disconnected component stays disconnected.
//
//	counter := component.Functional(
//		component.Template(func(s state.Snapshot) string {
//			return fmt.Sprintf(`<button id="inc">%d</button>`, state.ValueOr(s, "count", 0))
//		}),
//		state.Patch{"count": 0},
//		[]component.EventHandling{
//			component.On("#inc", "click", func(in component.Invocation) {
//				in.Component.SetState(state.Patch{"count": state.ValueOr(in.State, "count", 0) + 1})
//			}),
//		},
//		nil,
//	)
//	def, err := component.Register(doc, "x-counter", counter, "")
package component

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/go-drift/weave/pkg/diagnostics"
	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/events"
	"github.com/go-drift/weave/pkg/state"
)

var (
	logMu  sync.RWMutex
	logger = zerolog.Nop()
)

// SetLogger installs the logger used for lifecycle debug output.
func SetLogger(l zerolog.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = l
}

func log() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := logger
	return &l
}

// Phase is the lifecycle phase of a component.
type Phase int

const (
	// PhaseConstructed means the host element exists but is not connected.
	PhaseConstructed Phase = iota
	// PhaseConnected means render, effect and bindings are live.
	PhaseConnected
	// PhaseDisconnected means everything has been released. It is terminal.
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseConstructed:
		return "constructed"
	case PhaseConnected:
		return "connected"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Component is a custom element driven by a state store.
//
// Component is not safe for concurrent use; like the DOM it lives on, it
// belongs to a single goroutine.
type Component struct {
	host   dom.Element
	name   string
	spec   Spec
	store  *state.Store
	binder *events.Binder[*Component]
	router RouterHandle

	phase     Phase
	disposers []func()
}

var _ dom.CustomElement = (*Component)(nil)

// New creates the component for host. name is the registered element name
// and labels logs, metrics and fault reports. spec.Initial, when set, is
// applied with SetState before New returns.
func New(host dom.Element, name string, spec Spec) *Component {
	c := &Component{
		host:  host,
		name:  name,
		spec:  spec,
		store: state.NewStore(),
	}
	if len(spec.Initial) > 0 {
		c.SetState(spec.Initial)
	}
	return c
}

// Host returns the element the component is attached to.
func (c *Component) Host() dom.Element { return c.host }

// Name returns the registered element name.
func (c *Component) Name() string { return c.name }

// Phase returns the current lifecycle phase.
func (c *Component) Phase() Phase { return c.phase }

// Retired reports whether the component has been torn down.
func (c *Component) Retired() bool { return c.phase == PhaseDisconnected }

// State returns the current snapshot.
func (c *Component) State() state.Snapshot { return c.store.Snapshot() }

// Store returns the component's state store.
func (c *Component) Store() *state.Store { return c.store }

// SetState merges patch into the component state and notifies render,
// effect and bindings before returning. Calls made after the component
// has been disconnected are dropped.
func (c *Component) SetState(patch state.Patch) {
	c.store.SetState(patch)
}

// QuerySelector resolves selector inside the component's subtree.
func (c *Component) QuerySelector(selector string) dom.Element {
	return c.host.QuerySelector(selector)
}

// SetInnerHTML replaces the component's children with markup. A parse
// failure is reported and leaves the children unchanged.
func (c *Component) SetInnerHTML(markup string) {
	if err := c.host.SetInnerHTML(markup); err != nil {
		errors.Report(&errors.WeaveError{
			Op:        "component.SetInnerHTML",
			Kind:      errors.KindRender,
			Component: c.name,
			Err:       err,
		})
	}
}

// Listeners returns the number of listeners the component's binder has
// attached.
func (c *Component) Listeners() int {
	if c.binder == nil {
		return 0
	}
	return c.binder.Len()
}

// Inspect describes the component for the diagnostics tree.
func (c *Component) Inspect() diagnostics.ComponentInfo {
	return diagnostics.ComponentInfo{
		Name:      c.name,
		Phase:     c.phase.String(),
		Listeners: c.Listeners(),
		State:     c.State().Map(),
	}
}

// OnDispose registers cleanup to run when the component disconnects.
// Disposers run in reverse registration order. If the component is
// already disconnected, cleanup runs immediately. The returned function
// unregisters cleanup.
func (c *Component) OnDispose(cleanup func()) func() {
	if cleanup == nil {
		return func() {}
	}
	if c.phase == PhaseDisconnected {
		cleanup()
		return func() {}
	}
	index := len(c.disposers)
	c.disposers = append(c.disposers, cleanup)
	return func() {
		if index < len(c.disposers) {
			c.disposers[index] = nil
		}
	}
}

// ConnectedCallback mounts the component. It is called by the host when
// the element enters the document; a second call, or a call after
// disconnection, does nothing.
func (c *Component) ConnectedCallback() {
	if c.phase != PhaseConstructed {
		log().Debug().Str("component", c.name).Stringer("phase", c.phase).Msg("ignoring reconnect")
		return
	}
	c.phase = PhaseConnected

	if c.spec.Render != nil {
		sub := c.store.Subscribe(c.render)
		c.OnDispose(sub.Unsubscribe)
	}
	if c.spec.Effect != nil {
		sub := c.store.Subscribe(c.effect)
		c.OnDispose(sub.Unsubscribe)
	}
	if len(c.spec.Events) > 0 {
		c.binder = events.NewBinder(c.host, c, c.spec.Events, c.name)
		c.OnDispose(c.releaseListeners)
		sub := c.store.Subscribe(c.bind)
		c.OnDispose(sub.Unsubscribe)
	}
	if c.router != nil && c.spec.OnRouterState != nil {
		sub := c.router.State().Subscribe(func(rs state.RouterState) {
			errors.Guard("component.routerState", errors.KindRoute, c.name, func() {
				c.spec.OnRouterState(rs, c)
			})
		})
		c.OnDispose(sub.Unsubscribe)
	}

	log().Debug().Str("component", c.name).Msg("connected")
}

// DisconnectedCallback tears the component down: subscriptions are
// cancelled, listeners detached and the store closed.
func (c *Component) DisconnectedCallback() {
	if c.phase == PhaseDisconnected {
		return
	}
	c.phase = PhaseDisconnected
	for i := len(c.disposers) - 1; i >= 0; i-- {
		if c.disposers[i] != nil {
			c.disposers[i]()
		}
	}
	c.disposers = nil
	c.store.Close()

	log().Debug().Str("component", c.name).Msg("disconnected")
}

func (c *Component) render(snap state.Snapshot) {
	diagnostics.ObserveRender(c.name)
	errors.Guard("component.render", errors.KindRender, c.name, func() {
		c.spec.Render(snap, c)
	})
}

func (c *Component) effect(snap state.Snapshot) {
	diagnostics.ObserveEffect(c.name)
	errors.Guard("component.effect", errors.KindEffect, c.name, func() {
		c.spec.Effect(snap, c)
	})
}

func (c *Component) bind(snap state.Snapshot) {
	diagnostics.ObserveBind(c.name)
	before := c.binder.Len()
	c.binder.Bind(snap)
	diagnostics.AddListeners(c.name, c.binder.Len()-before)
}

func (c *Component) releaseListeners() {
	diagnostics.AddListeners(c.name, -c.binder.Len())
	c.binder.Release()
}
