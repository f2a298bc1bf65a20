package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/errors"
	"github.com/go-drift/weave/pkg/htmldom"
	"github.com/go-drift/weave/pkg/observable"
	"github.com/go-drift/weave/pkg/state"
)

type stubElement struct{ name string }

func (s *stubElement) ConnectedCallback()    {}
func (s *stubElement) DisconnectedCallback() {}

func (s *stubElement) Inspect() ComponentInfo {
	return ComponentInfo{Name: s.name, Phase: "connected", State: map[string]any{"fn": func() {}, "n": 1}}
}

type stubRouter struct {
	subject *observable.Subject[state.RouterState]
}

func (r stubRouter) State() observable.Observable[state.RouterState] { return r.subject.View() }

func newTestServer(t *testing.T) (*httptest.Server, *htmldom.Document) {
	t.Helper()
	doc := htmldom.NewDocument()
	err := doc.Define("x-stub", func(dom.Element) dom.CustomElement { return &stubElement{name: "x-stub"} }, "")
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := doc.Body().SetInnerHTML(`<x-stub id="s"><button>b</button></x-stub>`); err != nil {
		t.Fatalf("SetInnerHTML: %v", err)
	}
	doc.QuerySelector("button").AddEventListener("click", dom.NewListener(func(*dom.Event) {}))

	rs := observable.NewSubject(state.RouterState{Path: "/x", Data: map[string]any{"k": "v"}})
	srv := NewServer(doc, stubRouter{subject: rs}, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, doc
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func TestServer_Health(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/health")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	var health map[string]string
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", health["status"])
	}
}

func TestServer_Tree(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/tree")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", code, body)
	}
	var root TreeNode
	if err := json.Unmarshal(body, &root); err != nil {
		t.Fatalf("failed to decode tree: %v", err)
	}
	if root.Tag != "html" || len(root.Children) != 2 {
		t.Fatalf("expected html with head and body, got %s with %d children", root.Tag, len(root.Children))
	}
	stub := root.Children[1].Children[0]
	if stub.Tag != "x-stub" || stub.Attrs["id"] != "s" {
		t.Errorf("unexpected node %+v", stub)
	}
	if stub.Component == nil || stub.Component.Name != "x-stub" {
		t.Fatalf("expected component info, got %+v", stub.Component)
	}
	if _, ok := stub.Component.State["fn"].(string); !ok {
		t.Errorf("expected unencodable state to be stringified, got %T", stub.Component.State["fn"])
	}
	if stub.Children[0].Listeners != 1 {
		t.Errorf("expected 1 listener on button, got %d", stub.Children[0].Listeners)
	}
}

func TestServer_HTML(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/html")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	if !strings.Contains(string(body), `<x-stub id="s"><button>b</button></x-stub>`) {
		t.Errorf("expected document markup, got %s", body)
	}
}

func TestServer_CORS(t *testing.T) {
	ts, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}

func TestServer_Router(t *testing.T) {
	ts, _ := newTestServer(t)
	code, body := get(t, ts.URL+"/router")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	var info RouterInfo
	if err := json.Unmarshal(body, &info); err != nil {
		t.Fatalf("failed to decode router: %v", err)
	}
	if info.Path != "/x" {
		t.Errorf("expected path /x, got %q", info.Path)
	}
}

func TestServer_RouterMissing(t *testing.T) {
	srv := NewServer(htmldom.NewDocument(), nil, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if code, _ := get(t, ts.URL+"/router"); code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without router, got %d", code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)
	for _, path := range []string{"/health", "/tree", "/html", "/router", "/metrics"} {
		resp, err := http.Post(ts.URL+path, "text/plain", strings.NewReader(""))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: expected 405, got %d", path, resp.StatusCode)
		}
	}
}

func TestServer_Metrics(t *testing.T) {
	ts, _ := newTestServer(t)
	ObserveRender("x-metrics")
	ObserveNavigation(NavigationMounted)

	code, body := get(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", code)
	}
	for _, name := range []string{"weave_component_renders_total", "weave_router_navigations_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in metrics output", name)
		}
	}
}

func TestServer_StartShutdown(t *testing.T) {
	srv := NewServer(htmldom.NewDocument(), nil, zerolog.Nop())
	addr, err := srv.Start("127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	again, err := srv.Start("127.0.0.1:0")
	if err != nil || again != addr {
		t.Errorf("expected second Start to return %s, got %s (%v)", addr, again, err)
	}

	if code, _ := get(t, fmt.Sprintf("http://%s/health", addr)); code != http.StatusOK {
		t.Errorf("expected status 200, got %d", code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestMetrics_Counters(t *testing.T) {
	before := testutil.ToFloat64(componentEffects.WithLabelValues("x-count"))
	ObserveEffect("x-count")
	ObserveEffect("x-count")
	if got := testutil.ToFloat64(componentEffects.WithLabelValues("x-count")) - before; got != 2 {
		t.Errorf("expected 2 effects, got %v", got)
	}

	AddListeners("x-count", 3)
	AddListeners("x-count", -1)
	AddListeners("x-count", 0)
	if got := testutil.ToFloat64(listeners.WithLabelValues("x-count")); got != 2 {
		t.Errorf("expected gauge 2, got %v", got)
	}

	ObserveBind("")
	if got := testutil.ToFloat64(bindPasses.WithLabelValues("unknown")); got < 1 {
		t.Errorf("expected empty tag to be labelled unknown, got %v", got)
	}
}

type nopHandler struct{ errs, panics int }

func (h *nopHandler) HandleError(*errors.WeaveError) { h.errs++ }
func (h *nopHandler) HandlePanic(*errors.PanicError) { h.panics++ }

func TestCountingHandler(t *testing.T) {
	next := &nopHandler{}
	h := NewCountingHandler(next)
	before := testutil.ToFloat64(subscriberFaults.WithLabelValues("event"))

	h.HandlePanic(&errors.PanicError{Kind: errors.KindEvent})
	h.HandleError(&errors.WeaveError{Kind: errors.KindEvent})

	if got := testutil.ToFloat64(subscriberFaults.WithLabelValues("event")) - before; got != 2 {
		t.Errorf("expected 2 counted faults, got %v", got)
	}
	if next.errs != 1 || next.panics != 1 {
		t.Errorf("expected faults forwarded, got errs=%d panics=%d", next.errs, next.panics)
	}
	if NewCountingHandler(nil).Next == nil {
		t.Error("expected a default next handler")
	}
}
