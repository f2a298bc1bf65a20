// Package app builds a running weave document from a manifest.
package app

import (
	"bytes"
	"fmt"
	"html/template"
	"maps"

	"github.com/microcosm-cc/bluemonday"

	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/config"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/history"
	"github.com/go-drift/weave/pkg/htmldom"
	"github.com/go-drift/weave/pkg/router"
	"github.com/go-drift/weave/pkg/state"
)

// RouteKey is the state key pages receive the router state under.
const RouteKey = "route"

// App is a document with every manifest page registered and routed.
type App struct {
	Config  *config.Config
	Doc     *htmldom.Document
	History *history.Memory
	Router  *router.Router
	Pages   map[string]*component.Definition
}

// Build registers the pages of cfg on a fresh document, places the outlet
// in the body and starts the router at cfg.Router.InitialPath.
func Build(cfg *config.Config) (*App, error) {
	doc := htmldom.NewDocument()
	outlet := cfg.Router.Outlet
	if err := doc.Body().SetInnerHTML(fmt.Sprintf("<%s></%s>", outlet, outlet)); err != nil {
		return nil, fmt.Errorf("outlet: %w", err)
	}

	a := &App{
		Config:  cfg,
		Doc:     doc,
		History: history.NewMemory(cfg.Router.InitialPath),
		Pages:   make(map[string]*component.Definition, len(cfg.Pages)),
	}

	var routes []router.Route
	for _, page := range cfg.Pages {
		ctor, err := Page(page)
		if err != nil {
			return nil, err
		}
		def, err := component.Register(doc, page.Tag, ctor, page.Extends)
		if err != nil {
			return nil, err
		}
		a.Pages[def.Name] = def
		if page.Path != "" {
			routes = append(routes, router.Route{Path: page.Path, Component: def})
		}
	}

	rt, err := router.New(doc, a.History, routes, router.WithOutlet(outlet))
	if err != nil {
		return nil, err
	}
	a.Router = rt
	return a, nil
}

// Navigate resolves each path in order.
func (a *App) Navigate(paths ...string) {
	for _, p := range paths {
		a.Router.NavigateTo(p)
	}
}

// Close stops the router.
func (a *App) Close() { a.Router.Close() }

// Page turns a manifest page into a component constructor. The template
// is parsed once; every instance renders it against its own state.
func Page(page config.Page) (component.Constructor, error) {
	tmpl, err := template.New(page.Tag).Parse(page.Template)
	if err != nil {
		return nil, fmt.Errorf("page %s: template: %w", page.Tag, err)
	}
	var policy *bluemonday.Policy
	if page.Sanitize {
		policy = bluemonday.UGCPolicy()
	}

	handlings := make([]component.EventHandling, 0, len(page.Events))
	for _, b := range page.Events {
		handlings = append(handlings, component.On(b.Selector, b.Event, bindingHandler(b)))
	}

	return func() component.Spec {
		return component.Spec{
			Render:  renderer(tmpl, policy),
			Events:  handlings,
			Initial: state.Patch(maps.Clone(page.State)),
			OnRouterState: func(rs state.RouterState, c *component.Component) {
				c.SetState(state.Patch{RouteKey: map[string]any{"path": rs.Path, "data": rs.Data}})
			},
		}
	}, nil
}

func renderer(tmpl *template.Template, policy *bluemonday.Policy) component.RenderFunc {
	return func(snap state.Snapshot, c *component.Component) {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, snap.Map()); err != nil {
			errors.Report(&errors.WeaveError{
				Op:        "app.render",
				Kind:      errors.KindRender,
				Component: c.Name(),
				Err:       err,
			})
			return
		}
		markup := buf.String()
		if policy != nil {
			markup = policy.Sanitize(markup)
		}
		c.SetInnerHTML(markup)
	}
}

// bindingHandler applies b in a fixed order: the state patch, then the
// router data, then navigation.
func bindingHandler(b config.Binding) func(component.Invocation) {
	return func(in component.Invocation) {
		patch := state.Patch(maps.Clone(b.Set))
		for _, key := range b.Increment {
			if patch == nil {
				patch = state.Patch{}
			}
			patch[key] = increment(in.State.Value(key))
		}
		if len(patch) > 0 {
			in.Component.SetState(patch)
		}
		if b.RouterData != nil {
			in.Component.SetRouterState(b.RouterData)
		}
		if b.Navigate != "" {
			in.Component.Navigate(b.Navigate)
		}
	}
}

// increment adds one to the numeric types manifests decode to: int from
// YAML, int64 from TOML and float64 from JSON. Anything else restarts at 1.
func increment(v any) any {
	switch n := v.(type) {
	case int:
		return n + 1
	case int64:
		return n + 1
	case uint64:
		return n + 1
	case float64:
		return n + 1
	}
	return 1
}
