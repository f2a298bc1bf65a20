package router

import (
	"reflect"
	"testing"

	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/history"
	"github.com/go-drift/weave/pkg/htmldom"
	"github.com/go-drift/weave/pkg/state"
)

type fixture struct {
	doc  *htmldom.Document
	hist *history.Memory
	home *component.Definition
	page *component.Definition
}

func newFixture(t *testing.T, initialPath string) *fixture {
	t.Helper()
	doc := htmldom.NewDocument()
	if err := doc.Body().SetInnerHTML(`<nav></nav><router-outlet></router-outlet>`); err != nil {
		t.Fatalf("SetInnerHTML: %v", err)
	}
	home, err := component.Register(doc, "x-home", component.Functional(
		component.Template(func(state.Snapshot) string { return `<a id="go">home</a>` }),
		nil,
		[]component.EventHandling{component.On("#go", "click", func(in component.Invocation) {
			in.Component.Navigate("/x")
		})},
		nil,
	), "")
	if err != nil {
		t.Fatalf("Register x-home: %v", err)
	}
	page, err := component.Register(doc, "x-page", component.Functional(
		component.Template(func(state.Snapshot) string { return `page` }), nil, nil, nil,
	), "")
	if err != nil {
		t.Fatalf("Register x-page: %v", err)
	}
	return &fixture{doc: doc, hist: history.NewMemory(initialPath), home: home, page: page}
}

func (f *fixture) routes() []Route {
	return []Route{{Path: "/", Component: f.home}, {Path: "/x", Component: f.page}}
}

func (f *fixture) mounted() []string {
	var tags []string
	for _, child := range f.doc.QuerySelector(DefaultOutlet).Children() {
		if c := component.Of(child); c != nil {
			tags = append(tags, c.Name())
		}
	}
	return tags
}

func TestRouter_MountsInitialLocation(t *testing.T) {
	f := newFixture(t, "/x")
	r, err := New(f.doc, f.hist, f.routes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := f.mounted(); !reflect.DeepEqual(got, []string{"x-page"}) {
		t.Errorf("Expected exactly one x-page, got %v", got)
	}
	if r.Current() == nil || r.Current().Name() != "x-page" {
		t.Error("Expected Current to be the mounted x-page")
	}
	if got := r.State().Get().Path; got != "/x" {
		t.Errorf("Expected router path /x, got %q", got)
	}
}

func TestRouter_UnmatchedPathKeepsComponent(t *testing.T) {
	f := newFixture(t, "/x")
	r, _ := New(f.doc, f.hist, f.routes())
	before := r.Current()

	r.NavigateTo("/y")

	if got := f.mounted(); !reflect.DeepEqual(got, []string{"x-page"}) {
		t.Errorf("Expected x-page to stay mounted, got %v", got)
	}
	if r.Current() != before || before.Phase() != component.PhaseConnected {
		t.Error("Expected the same component to remain connected")
	}
	if f.hist.Path() != "/y" {
		t.Errorf("Expected history to record /y, got %q", f.hist.Path())
	}
	if got := r.State().Get().Path; got != "/x" {
		t.Errorf("Expected router path to stay /x, got %q", got)
	}
}

func TestRouter_NavigateSwapsComponents(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())
	home := r.Current()

	r.NavigateTo("/x")

	if got := f.mounted(); !reflect.DeepEqual(got, []string{"x-page"}) {
		t.Errorf("Expected x-page, got %v", got)
	}
	if home.Phase() != component.PhaseDisconnected {
		t.Errorf("Expected previous component disconnected, got %v", home.Phase())
	}
	if f.doc.ListenerCount() != 0 {
		t.Errorf("Expected home's listeners released, got %d", f.doc.ListenerCount())
	}
}

func TestRouter_NavigateFromEventHandler(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())

	f.doc.QuerySelector("#go").Dispatch(dom.NewEvent("click"))

	if r.Current().Name() != "x-page" {
		t.Errorf("Expected x-page after click, got %s", r.Current().Name())
	}
	if f.hist.Path() != "/x" {
		t.Errorf("Expected history at /x, got %q", f.hist.Path())
	}
}

func TestRouter_BackAndForward(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())
	r.NavigateTo("/x")

	f.hist.Back()
	if got := f.mounted(); !reflect.DeepEqual(got, []string{"x-home"}) {
		t.Errorf("Expected x-home after back, got %v", got)
	}
	f.hist.Forward()
	if got := f.mounted(); !reflect.DeepEqual(got, []string{"x-page"}) {
		t.Errorf("Expected x-page after forward, got %v", got)
	}
}

func TestRouter_SetDataReplaces(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())

	r.SetData(map[string]any{"a": 1})
	r.SetData(map[string]any{"b": 2})

	got := r.State().Get()
	if got.Path != "/" {
		t.Errorf("Expected path to be kept, got %q", got.Path)
	}
	if !reflect.DeepEqual(got.Data, map[string]any{"b": 2}) {
		t.Errorf("Expected data {b:2}, got %v", got.Data)
	}

	c := r.Current()
	c.SetState(state.Patch{"a": 1})
	c.SetState(state.Patch{"b": 2})
	if want := map[string]any{"a": 1, "b": 2}; !reflect.DeepEqual(c.State().Map(), want) {
		t.Errorf("Expected component state to merge to %v, got %v", want, c.State().Map())
	}
}

func TestRouter_DataSurvivesNavigation(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())
	r.SetData("payload")

	r.NavigateTo("/x")

	if got := r.State().Get(); got.Path != "/x" || got.Data != "payload" {
		t.Errorf("Expected {/x payload}, got %+v", got)
	}
}

func TestRouter_InjectsBeforeMount(t *testing.T) {
	doc := htmldom.NewDocument()
	_ = doc.Body().SetInnerHTML(`<router-outlet></router-outlet>`)
	var firstRender state.RouterState
	var hadRouter bool
	def, _ := component.Register(doc, "x-reader", func() component.Spec {
		rendered := false
		return component.Spec{Render: func(_ state.Snapshot, c *component.Component) {
			if !rendered {
				rendered = true
				hadRouter = c.HasRouter()
				firstRender = c.RouterState()
			}
		}}
	}, "")
	hist := history.NewMemory("/")
	r, _ := New(doc, hist, []Route{{Path: "/", Component: def}})
	r.SetData(42)

	if !hadRouter {
		t.Error("Expected the router handle to be injected before the first render")
	}
	if firstRender.Path != "/" {
		t.Errorf("Expected first render to see path /, got %q", firstRender.Path)
	}
	if r.Current().RouterState().Data != 42 {
		t.Errorf("Expected component to read router data 42, got %v", r.Current().RouterState().Data)
	}
}

func TestRouter_OnRouterState(t *testing.T) {
	doc := htmldom.NewDocument()
	_ = doc.Body().SetInnerHTML(`<router-outlet></router-outlet>`)
	var seen []any
	def, _ := component.Register(doc, "x-watch", func() component.Spec {
		return component.Spec{OnRouterState: func(rs state.RouterState, _ *component.Component) {
			seen = append(seen, rs.Data)
		}}
	}, "")
	r, _ := New(doc, history.NewMemory("/"), []Route{{Path: "/", Component: def}})

	r.SetData("one")

	// replay of the pre-mount state, the path publish, then the data update
	if want := []any{nil, nil, "one"}; !reflect.DeepEqual(seen, want) {
		t.Errorf("Expected %v, got %v", want, seen)
	}
}

func TestRouter_WithoutOutletDoesNothing(t *testing.T) {
	f := newFixture(t, "/")
	_ = f.doc.Body().SetInnerHTML(`<main></main>`)
	r, err := New(f.doc, f.hist, f.routes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if r.Current() != nil {
		t.Error("Expected nothing mounted without an outlet")
	}
	if got := r.State().Get(); got != state.InitialRouterState() {
		t.Errorf("Expected initial router state, got %+v", got)
	}
}

func TestRouter_CustomOutlet(t *testing.T) {
	f := newFixture(t, "/")
	_ = f.doc.Body().SetInnerHTML(`<app-view></app-view>`)
	r, err := New(f.doc, f.hist, f.routes(), WithOutlet("app-view"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.doc.Defined("app-view") {
		t.Error("Expected the outlet to be registered")
	}
	if r.Outlet() != "app-view" || r.Current() == nil {
		t.Errorf("Expected x-home mounted in app-view, got outlet %q", r.Outlet())
	}
}

func TestRouter_ReusesDefinedOutlet(t *testing.T) {
	f := newFixture(t, "/")
	if _, err := New(f.doc, f.hist, f.routes()); err != nil {
		t.Fatalf("first New: %v", err)
	}
	if _, err := New(f.doc, history.NewMemory("/"), f.routes()); err != nil {
		t.Errorf("Expected a second router to reuse the outlet definition, got %v", err)
	}
}

func TestRouter_Close(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())
	r.NavigateTo("/x")
	r.Close()

	f.hist.Back()

	if r.Current().Name() != "x-page" {
		t.Error("Expected closed router to ignore popstate")
	}
	if f.hist.Listeners() != 0 {
		t.Errorf("Expected popstate listener removed, got %d", f.hist.Listeners())
	}
}

func TestRouter_RedirectDuringFirstRender(t *testing.T) {
	doc := htmldom.NewDocument()
	_ = doc.Body().SetInnerHTML(`<router-outlet></router-outlet>`)
	old, _ := component.Register(doc, "x-old", func() component.Spec {
		redirected := false
		return component.Spec{Render: func(_ state.Snapshot, c *component.Component) {
			if !redirected {
				redirected = true
				c.Navigate("/x")
			}
		}}
	}, "")
	var paths []string
	page, _ := component.Register(doc, "x-page", func() component.Spec {
		return component.Spec{OnRouterState: func(rs state.RouterState, _ *component.Component) {
			paths = append(paths, rs.Path)
		}}
	}, "")
	hist := history.NewMemory("/old")
	r, _ := New(doc, hist, []Route{{Path: "/old", Component: old}, {Path: "/x", Component: page}})

	f := &fixture{doc: doc}
	if got := f.mounted(); !reflect.DeepEqual(got, []string{"x-page"}) {
		t.Fatalf("Expected only x-page mounted, got %v", got)
	}
	cur := r.Current()
	if cur == nil || cur.Name() != "x-page" || cur.Phase() != component.PhaseConnected {
		t.Fatalf("Expected Current to be the connected x-page, got %v", cur)
	}
	if got := r.State().Get().Path; got != "/x" {
		t.Errorf("Expected router path /x, got %q", got)
	}
	if hist.Path() != "/x" {
		t.Errorf("Expected history at /x, got %q", hist.Path())
	}
	if len(paths) == 0 || paths[len(paths)-1] != "/x" {
		t.Errorf("Expected x-page to last see path /x, got %v", paths)
	}
}

func TestRouter_ClearsOutletBeforeConstructing(t *testing.T) {
	f := newFixture(t, "/")
	var childrenAtConstruction []int
	fresh, _ := component.Register(f.doc, "x-fresh", func() component.Spec {
		childrenAtConstruction = append(childrenAtConstruction, len(f.doc.QuerySelector(DefaultOutlet).Children()))
		return component.Spec{}
	}, "")
	r, _ := New(f.doc, f.hist, []Route{{Path: "/", Component: f.home}, {Path: "/fresh", Component: fresh}})

	r.NavigateTo("/fresh")

	if !reflect.DeepEqual(childrenAtConstruction, []int{0}) {
		t.Errorf("Expected an empty outlet when x-fresh is constructed, got %v", childrenAtConstruction)
	}
}

func TestRouter_RepeatedNavigationDoesNotAccumulate(t *testing.T) {
	f := newFixture(t, "/")
	r, _ := New(f.doc, f.hist, f.routes())
	baseline := f.doc.CustomCount()

	for range 20 {
		r.NavigateTo("/x")
		r.NavigateTo("/")
	}

	if got := f.doc.CustomCount(); got != baseline {
		t.Errorf("Expected %d tracked custom elements after navigating, got %d", baseline, got)
	}
}
