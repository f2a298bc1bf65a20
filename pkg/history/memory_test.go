package history

import (
	"reflect"
	"testing"
)

func TestMemory_PushStateDoesNotNotify(t *testing.T) {
	h := NewMemory("/")
	notified := 0
	h.OnPopState(func(string) { notified++ })

	h.PushState(nil, "/a")

	if h.Path() != "/a" {
		t.Errorf("Expected /a, got %q", h.Path())
	}
	if notified != 0 {
		t.Errorf("PushState must not notify popstate listeners, got %d", notified)
	}
}

func TestMemory_BackForward(t *testing.T) {
	h := NewMemory("/")
	var paths []string
	h.OnPopState(func(p string) { paths = append(paths, p) })

	h.PushState(nil, "/a")
	h.PushState(nil, "/b")

	if !h.Back() || !h.Back() {
		t.Fatal("Expected two successful Back calls")
	}
	if h.Back() {
		t.Error("Expected Back at the first entry to fail")
	}
	if !h.Forward() {
		t.Error("Expected Forward to succeed")
	}

	if want := []string{"/a", "/", "/a"}; !reflect.DeepEqual(paths, want) {
		t.Errorf("Expected %v, got %v", want, paths)
	}
}

func TestMemory_PushTruncatesForwardEntries(t *testing.T) {
	h := NewMemory("/")
	h.PushState(nil, "/a")
	h.PushState(nil, "/b")
	h.Back()
	h.PushState("payload", "/c")

	if h.Len() != 3 {
		t.Errorf("Expected 3 entries, got %d", h.Len())
	}
	if h.Forward() {
		t.Error("Expected no forward entry after push")
	}
	if got := h.Current(); got.Path != "/c" || got.Data != "payload" {
		t.Errorf("Unexpected current entry %+v", got)
	}
}

func TestMemory_ReplaceState(t *testing.T) {
	h := NewMemory("")
	if h.Path() != "/" {
		t.Errorf("Expected default path /, got %q", h.Path())
	}
	h.ReplaceState(nil, "/home")
	if h.Path() != "/home" || h.Len() != 1 {
		t.Errorf("Expected single entry /home, got %q (%d entries)", h.Path(), h.Len())
	}
}

func TestMemory_RemoveListener(t *testing.T) {
	h := NewMemory("/")
	h.PushState(nil, "/a")
	calls := 0
	remove := h.OnPopState(func(string) { calls++ })

	remove()
	h.Back()

	if calls != 0 {
		t.Errorf("Expected removed listener not to fire, got %d calls", calls)
	}
	if h.Listeners() != 0 {
		t.Errorf("Expected 0 listeners, got %d", h.Listeners())
	}
}
