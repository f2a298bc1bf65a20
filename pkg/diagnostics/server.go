// Package diagnostics exposes a running weave app for inspection: an HTTP
// server serving the document tree, the router state and prometheus
// metrics, and the collectors the runtime reports into.
package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-drift/weave/pkg/dom"
	"github.com/go-drift/weave/pkg/htmldom"
	"github.com/go-drift/weave/pkg/observable"
	"github.com/go-drift/weave/pkg/state"
)

// maxTreeDepth limits recursion when serializing the document.
const maxTreeDepth = 500

// ComponentInfo describes a mounted component.
type ComponentInfo struct {
	Name      string         `json:"name"`
	Phase     string         `json:"phase"`
	Listeners int            `json:"listeners"`
	State     map[string]any `json:"state,omitempty"`
}

// Inspectable is implemented by custom elements that can describe
// themselves in the tree dump.
type Inspectable interface {
	Inspect() ComponentInfo
}

// RouterSource provides the router state.
type RouterSource interface {
	State() observable.Observable[state.RouterState]
}

// TreeNode is one element in the serialized document.
type TreeNode struct {
	Tag       string            `json:"tag"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Listeners int               `json:"listeners,omitempty"`
	Component *ComponentInfo    `json:"component,omitempty"`
	Children  []TreeNode        `json:"children,omitempty"`
}

// RouterInfo is the serialized router state.
type RouterInfo struct {
	Path string `json:"path"`
	Data any    `json:"data"`
}

// Server serves diagnostics for one document.
//
// The document is not safe for concurrent use, so handlers that read it
// take Lock. Callers that mutate the document while the server runs must
// hold the same lock.
type Server struct {
	doc    *htmldom.Document
	router RouterSource
	log    zerolog.Logger

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener

	docMu sync.Mutex
}

// NewServer creates a server for doc. router may be nil.
func NewServer(doc *htmldom.Document, router RouterSource, log zerolog.Logger) *Server {
	return &Server{doc: doc, router: router, log: log}
}

// Lock serializes access to the document with the HTTP handlers.
func (s *Server) Lock() { s.docMu.Lock() }

// Unlock releases Lock.
func (s *Server) Unlock() { s.docMu.Unlock() }

// Handler returns the routes. Methods other than GET get 405. Any origin
// may read them, so browser tooling served elsewhere can poll the app.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		MaxAge:         300,
	}))
	r.Get("/health", s.handleHealth)
	r.Get("/tree", s.handleTree)
	r.Get("/html", s.handleHTML)
	r.Get("/router", s.handleRouter)
	r.Get("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}).ServeHTTP)
	return r
}

// Start listens on addr and serves in the background. It returns the
// bound address, which differs from addr when addr uses port 0.
func (s *Server) Start(addr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return s.listener.Addr().String(), nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("diagnostics listen: %w", err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.srv = srv
	s.listener = listener

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.mu.Lock()
			s.srv = nil
			s.listener = nil
			s.mu.Unlock()
			s.log.Error().Err(err).Msg("diagnostics server stopped")
		}
	}()

	s.log.Info().Str("addr", listener.Addr().String()).Msg("diagnostics server listening")
	return listener.Addr().String(), nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	var tree TreeNode
	s.withDocument(func() { tree = Tree(s.doc.DocumentElement()) })
	writeJSON(w, tree)
}

func (s *Server) handleHTML(w http.ResponseWriter, r *http.Request) {
	var page string
	s.withDocument(func() { page = s.doc.HTML() })
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) withDocument(fn func()) {
	s.Lock()
	defer s.Unlock()
	fn()
}

func (s *Server) handleRouter(w http.ResponseWriter, r *http.Request) {
	if s.router == nil {
		http.Error(w, "no router", http.StatusServiceUnavailable)
		return
	}
	var rs state.RouterState
	s.withDocument(func() { rs = s.router.State().Get() })

	writeJSON(w, RouterInfo{Path: rs.Path, Data: safeValue(rs.Data)})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// Tree serializes el and its descendants.
func Tree(el htmldom.Element) TreeNode {
	return serializeTree(el, 0)
}

func serializeTree(el htmldom.Element, depth int) TreeNode {
	node := TreeNode{
		Tag:       el.TagName(),
		Listeners: el.ListenerCount(""),
	}
	if attrs := el.Attrs(); len(attrs) > 0 {
		node.Attrs = make(map[string]string, len(attrs))
		for _, a := range attrs {
			node.Attrs[a.Key] = a.Val
		}
	}
	if in, ok := el.Custom().(Inspectable); ok {
		info := in.Inspect()
		for k, v := range info.State {
			info.State[k] = safeValue(v)
		}
		node.Component = &info
	}
	if depth < maxTreeDepth {
		for _, child := range el.Children() {
			if c, ok := child.(htmldom.Element); ok {
				node.Children = append(node.Children, serializeTree(c, depth+1))
			}
		}
	}
	return node
}

// safeValue converts values encoding/json cannot encode to their string
// form.
func safeValue(v any) any {
	switch v := v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case dom.Element:
		return "<" + v.TagName() + ">"
	}
	if _, err := json.Marshal(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return v
}
