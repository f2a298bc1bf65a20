// Package history provides an in-memory session history for hosting a
// weave router outside a browser.
package history

import (
	"slices"
	"sync"

	"github.com/go-drift/weave/pkg/dom"
)

// Entry is one session history entry.
type Entry struct {
	Path string
	Data any
}

// Memory is a session history held in memory. PushState behaves like the
// browser's pushState: it records an entry without notifying listeners.
// Back, Forward and Go notify popstate listeners with the new path.
type Memory struct {
	mu        sync.Mutex
	entries   []Entry
	index     int
	listeners []*popListener
}

type popListener struct {
	fn func(path string)
}

var _ dom.History = (*Memory)(nil)

// NewMemory creates a history whose current location is initialPath.
func NewMemory(initialPath string) *Memory {
	if initialPath == "" {
		initialPath = "/"
	}
	return &Memory{entries: []Entry{{Path: initialPath}}}
}

// Path returns the current location path.
func (m *Memory) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index].Path
}

// Current returns the current entry.
func (m *Memory) Current() Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// PushState records a new entry after the current one, discarding any
// forward entries.
func (m *Memory) PushState(data any, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], Entry{Path: path, Data: data})
	m.index = len(m.entries) - 1
}

// ReplaceState overwrites the current entry.
func (m *Memory) ReplaceState(data any, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = Entry{Path: path, Data: data}
}

// Back moves one entry back. It reports false at the first entry.
func (m *Memory) Back() bool { return m.Go(-1) }

// Forward moves one entry forward. It reports false at the last entry.
func (m *Memory) Forward() bool { return m.Go(1) }

// Go moves delta entries and notifies popstate listeners. Out-of-range
// moves and delta 0 do nothing.
func (m *Memory) Go(delta int) bool {
	m.mu.Lock()
	target := m.index + delta
	if delta == 0 || target < 0 || target >= len(m.entries) {
		m.mu.Unlock()
		return false
	}
	m.index = target
	path := m.entries[target].Path
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	for _, l := range listeners {
		l.fn(path)
	}
	return true
}

// OnPopState registers fn for back/forward navigation.
func (m *Memory) OnPopState(fn func(path string)) (remove func()) {
	l := &popListener{fn: fn}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.listeners = slices.DeleteFunc(m.listeners, func(x *popListener) bool { return x == l })
	}
}

// Listeners returns the number of registered popstate listeners.
func (m *Memory) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}
