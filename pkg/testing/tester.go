package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-drift/weave/pkg/component"
	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/history"
	"github.com/go-drift/weave/pkg/htmldom"
	"github.com/go-drift/weave/pkg/router"
)

// Tester hosts components in an in-memory document and session history.
// While a tester is active it captures every fault reported through
// pkg/errors instead of logging it.
type Tester struct {
	doc    *htmldom.Document
	hist   *history.Memory
	router *router.Router
	faults *faultRecorder
	prev   errors.Handler
}

// NewTester creates a tester with an empty document at path "/".
// Call Cleanup() when done, or use NewTesterWithT() instead.
func NewTester() *Tester {
	t := &Tester{
		doc:    htmldom.NewDocument(),
		hist:   history.NewMemory("/"),
		faults: &faultRecorder{},
	}
	t.prev = errors.SetHandler(t.faults)
	return t
}

// NewTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewTesterWithT(t *testing.T) *Tester {
	tester := NewTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup disconnects everything mounted and restores the error handler.
func (t *Tester) Cleanup() {
	if t.router != nil {
		t.router.Close()
		t.router = nil
	}
	if body := t.doc.Body(); body != nil {
		body.RemoveChildren()
	}
	errors.SetHandler(t.prev)
}

// Document returns the tester's document.
func (t *Tester) Document() *htmldom.Document { return t.doc }

// History returns the tester's session history.
func (t *Tester) History() *history.Memory { return t.hist }

// Router returns the router created by Route, or nil.
func (t *Tester) Router() *router.Router { return t.router }

// Register defines a component on the tester's document.
func (t *Tester) Register(name string, ctor component.Constructor) (*component.Definition, error) {
	return component.Register(t.doc, name, ctor, "")
}

// Mount creates an instance of def and appends it to the body, which
// connects it.
func (t *Tester) Mount(def *component.Definition) (*component.Component, error) {
	el, c, err := def.Create(t.doc)
	if err != nil {
		return nil, err
	}
	if err := t.doc.Body().AppendChild(el); err != nil {
		return nil, fmt.Errorf("mount %s: %w", def.Name, err)
	}
	return c, nil
}

// MountFunc registers ctor under name and mounts one instance.
func (t *Tester) MountFunc(name string, ctor component.Constructor) (*component.Component, error) {
	def, err := t.Register(name, ctor)
	if err != nil {
		return nil, err
	}
	return t.Mount(def)
}

// Route places an outlet named outlet (the default outlet when empty) in
// the body and starts a router over it.
func (t *Tester) Route(outlet string, routes []router.Route) (*router.Router, error) {
	if outlet == "" {
		outlet = router.DefaultOutlet
	}
	if t.doc.QuerySelector(outlet) == nil {
		el, err := t.doc.CreateElement(outlet)
		if err != nil {
			return nil, err
		}
		if err := t.doc.Body().AppendChild(el); err != nil {
			return nil, err
		}
	}
	rt, err := router.New(t.doc, t.hist, routes, router.WithOutlet(outlet))
	if err != nil {
		return nil, err
	}
	t.router = rt
	return rt, nil
}

// Find evaluates finder against the body.
func (t *Tester) Find(finder Finder) FinderResult {
	body := t.doc.Body()
	if body == nil {
		return FinderResult{finder: finder}
	}
	return FinderResult{elements: finder.Evaluate(body), finder: finder}
}

// Dispatch fires an event of eventType on the first element finder
// matches.
func (t *Tester) Dispatch(finder Finder, eventType string, detail any) error {
	el := t.Find(finder).FirstOrNil()
	if el == nil {
		return fmt.Errorf("dispatch %s: no element for %s", eventType, finder.Description())
	}
	ev := dom.NewEvent(eventType)
	ev.Detail = detail
	el.Dispatch(ev)
	return nil
}

// Click dispatches a click on the first element finder matches.
func (t *Tester) Click(finder Finder) error {
	return t.Dispatch(finder, "click", nil)
}

// Back moves the history back one entry.
func (t *Tester) Back() bool { return t.hist.Back() }

// Forward moves the history forward one entry.
func (t *Tester) Forward() bool { return t.hist.Forward() }

// HTML returns the body's inner HTML.
func (t *Tester) HTML() string { return t.doc.Body().InnerHTML() }

// Faults returns the panics reported since the tester was created.
func (t *Tester) Faults() []*errors.PanicError { return t.faults.panicList() }

// Errors returns the errors reported since the tester was created.
func (t *Tester) Errors() []*errors.WeaveError { return t.faults.errorList() }

type faultRecorder struct {
	mu     sync.Mutex
	errs   []*errors.WeaveError
	panics []*errors.PanicError
}

func (r *faultRecorder) HandleError(err *errors.WeaveError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *faultRecorder) HandlePanic(err *errors.PanicError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics = append(r.panics, err)
}

func (r *faultRecorder) errorList() []*errors.WeaveError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*errors.WeaveError(nil), r.errs...)
}

func (r *faultRecorder) panicList() []*errors.PanicError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*errors.PanicError(nil), r.panics...)
}
