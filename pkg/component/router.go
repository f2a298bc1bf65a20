package component

import (
	"github.com/go-drift/weave/pkg/observable"
	"github.com/go-drift/weave/pkg/state"
)

// RouterHandle is the capability a router grants the component it mounts.
type RouterHandle interface {
	// State returns the read-only router state.
	State() observable.Observable[state.RouterState]
	// SetData replaces the router data, keeping the path.
	SetData(data any)
	// NavigateTo pushes path onto the history and resolves it.
	NavigateTo(path string)
}

// InjectRouter grants the component access to r. Routers call it before
// inserting the component, so the first render can read router state.
func (c *Component) InjectRouter(r RouterHandle) {
	c.router = r
}

// HasRouter reports whether a router handle was injected.
func (c *Component) HasRouter() bool { return c.router != nil }

// Navigate asks the injected router to navigate to path.
// Without a router it does nothing.
func (c *Component) Navigate(path string) {
	if c.router != nil {
		c.router.NavigateTo(path)
	}
}

// SetRouterState replaces the router data. Unlike SetState, the previous
// data is discarded rather than merged. Without a router it does nothing.
func (c *Component) SetRouterState(data any) {
	if c.router != nil {
		c.router.SetData(data)
	}
}

// RouterState returns the current router state, or the zero value when no
// router was injected.
func (c *Component) RouterState() state.RouterState {
	if c.router == nil {
		return state.RouterState{}
	}
	return c.router.State().Get()
}
