// Package router maps location paths to components and swaps them in and
// out of an outlet element.
//
// A Router owns a route table, a session history and the router state, a
// {Path, Data} pair shared with whichever component is currently mounted.
// Matching is by exact path. A path with no route, or a document without
// an outlet, leaves the mounted component in place.
//
//	home, _ := component.Register(doc, "x-home", homeCtor, "")
//	about, _ := component.Register(doc, "x-about", aboutCtor, "")
//	r, err := router.New(doc, hist, []router.Route{
//		{Path: "/", Component: home},
//		{Path: "/about", Component: about},
//	})
//	r.NavigateTo("/about")
package router

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/diagnostics"
	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/observable"
	"github.com/go-drift/weave/pkg/state"
)

// DefaultOutlet is the outlet element name used when none is configured.
const DefaultOutlet = "router-outlet"

var (
	logMu  sync.RWMutex
	logger = zerolog.Nop()
)

// SetLogger installs the logger used for navigation debug output.
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

// Route binds an exact path to a registered component.
type Route struct {
	Path      string
	Component *component.Definition
}

type options struct {
	outlet string
}

// Option configures a Router.
type Option func(*options)

// WithOutlet sets the outlet element name. An empty name keeps the default.
func WithOutlet(name string) Option {
	return func(o *options) {
		if name != "" {
			o.outlet = name
		}
	}
}

// Router resolves location paths against a fixed route table.
type Router struct {
	doc     dom.Document
	hist    dom.History
	routes  []Route
	outlet  string
	state   *observable.Subject[state.RouterState]
	current *component.Component
	stopPop func()

	// seq increments on every resolve that mounts. A resolve that finds it
	// changed after the append was superseded by a nested navigation.
	seq uint64
}

var _ component.RouterHandle = (*Router)(nil)

// New creates a router over doc and hist. It registers the outlet element
// if the document does not define it yet, starts listening for popstate
// and resolves the current location before returning.
func New(doc dom.Document, hist dom.History, routes []Route, opts ...Option) (*Router, error) {
	o := options{outlet: DefaultOutlet}
	for _, opt := range opts {
		opt(&o)
	}

	if !doc.Defined(o.outlet) {
		if _, err := component.Register(doc, o.outlet, component.Functional(nil, nil, nil, nil), ""); err != nil {
			return nil, fmt.Errorf("router: outlet: %w", err)
		}
	}

	r := &Router{
		doc:    doc,
		hist:   hist,
		routes: slices.Clone(routes),
		outlet: o.outlet,
		state:  observable.NewSubject(state.InitialRouterState()),
	}
	r.stopPop = hist.OnPopState(r.resolve)
	r.resolve(hist.Path())
	return r, nil
}

// NavigateTo records path in the history without reloading and resolves it.
func (r *Router) NavigateTo(path string) {
	r.hist.PushState(nil, path)
	r.resolve(path)
}

// SetData replaces the router data and keeps the current path. The
// previous data is discarded, not merged.
func (r *Router) SetData(data any) {
	r.state.Update(func(rs state.RouterState) state.RouterState {
		return rs.WithData(data)
	})
}

// State returns the router state as a read-only observable.
func (r *Router) State() observable.Observable[state.RouterState] {
	return r.state.View()
}

// Current returns the mounted component, or nil before the first match.
func (r *Router) Current() *component.Component { return r.current }

// Outlet returns the outlet element name.
func (r *Router) Outlet() string { return r.outlet }

// Routes returns a copy of the route table.
func (r *Router) Routes() []Route { return slices.Clone(r.routes) }

// Close stops listening for popstate. The mounted component stays mounted.
func (r *Router) Close() {
	if r.stopPop != nil {
		r.stopPop()
		r.stopPop = nil
	}
}

// match returns the first route whose path equals path.
func (r *Router) match(path string) (Route, bool) {
	for _, rt := range r.routes {
		if rt.Path == path {
			return rt, true
		}
	}
	return Route{}, false
}

func (r *Router) resolve(path string) {
	rt, ok := r.match(path)
	if !ok {
		diagnostics.ObserveNavigation(diagnostics.NavigationNoMatch)
		log().Debug().Str("path", path).Err(errors.ErrNoRouteMatch).Msg("navigation ignored")
		return
	}
	outlet := r.doc.QuerySelector(r.outlet)
	if outlet == nil {
		diagnostics.ObserveNavigation(diagnostics.NavigationNoOutlet)
		log().Debug().Str("path", path).Str("outlet", r.outlet).Msg("outlet not in document")
		return
	}
	if rt.Component == nil {
		r.fail(path, fmt.Errorf("route %q has no component", path))
		return
	}

	r.seq++
	seq := r.seq

	outlet.RemoveChildren()
	r.current = nil
	if r.seq != seq {
		return
	}
	el, c, err := rt.Component.Create(r.doc)
	if err != nil {
		r.fail(path, err)
		return
	}
	c.InjectRouter(r)

	if err := outlet.AppendChild(el); err != nil {
		r.fail(path, err)
		return
	}
	if r.seq != seq {
		log().Debug().Str("path", path).Msg("navigation superseded during mount")
		return
	}
	r.current = c
	r.state.Update(func(rs state.RouterState) state.RouterState {
		return rs.WithPath(path)
	})

	diagnostics.ObserveNavigation(diagnostics.NavigationMounted)
	log().Debug().Str("path", path).Str("component", rt.Component.Name).Msg("route mounted")
}

func (r *Router) fail(path string, err error) {
	diagnostics.ObserveNavigation(diagnostics.NavigationFailed)
	errors.Report(&errors.WeaveError{
		Op:   "router.resolve",
		Kind: errors.KindRoute,
		Err:  fmt.Errorf("path %s: %w", path, err),
	})
}
