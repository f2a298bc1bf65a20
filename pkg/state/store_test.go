package state

import (
	"reflect"
	"testing"
)

func TestSnapshot_MergeIsLeftToRight(t *testing.T) {
	patches := []Patch{
		{"a": 1, "b": "x"},
		{"b": "y", "c": true},
		{"a": 3},
	}
	store := NewStore()
	for _, p := range patches {
		store.SetState(p)
	}

	want := map[string]any{"a": 3, "b": "y", "c": true}
	if got := store.Snapshot().Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if store.Snapshot().Has("d") {
		t.Error("keys absent from all patches must not appear")
	}
}

func TestSnapshot_MergeDoesNotMutate(t *testing.T) {
	base := From(map[string]any{"a": 1})
	next := base.Merge(Patch{"a": 2, "b": 3})

	if v, _ := Lookup[int](base, "a"); v != 1 {
		t.Errorf("Expected original snapshot to keep a=1, got %d", v)
	}
	if base.Len() != 1 {
		t.Errorf("Expected original snapshot to keep 1 key, got %d", base.Len())
	}
	if v, _ := Lookup[int](next, "a"); v != 2 {
		t.Errorf("Expected merged a=2, got %d", v)
	}
}

func TestSnapshot_MapReturnsCopy(t *testing.T) {
	s := From(map[string]any{"a": 1})
	m := s.Map()
	m["a"] = 99
	m["z"] = 1
	if s.Value("a") != 1 || s.Has("z") {
		t.Error("mutating Map() result must not affect the snapshot")
	}
}

func TestSnapshot_FromCopiesInput(t *testing.T) {
	src := map[string]any{"a": 1}
	s := From(src)
	src["a"] = 2
	if s.Value("a") != 1 {
		t.Error("From must copy its input")
	}
}

func TestSnapshot_Keys(t *testing.T) {
	s := Empty().With("b", 1).With("a", 2)
	if got := s.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected sorted keys, got %v", got)
	}
}

func TestSnapshot_Equal(t *testing.T) {
	a := From(map[string]any{"items": []string{"x"}})
	b := From(map[string]any{"items": []string{"x"}})
	c := From(map[string]any{"items": []string{"y"}})
	if !a.Equal(b) {
		t.Error("Expected deeply equal snapshots to be Equal")
	}
	if a.Equal(c) {
		t.Error("Expected different snapshots to differ")
	}
}

func TestLookup(t *testing.T) {
	type user struct{ Name string }
	s := From(map[string]any{"user": &user{Name: "ada"}, "count": 3})

	u, ok := Lookup[*user](s, "user")
	if !ok || u.Name != "ada" {
		t.Errorf("Expected typed lookup of *user, got %v %v", u, ok)
	}
	if _, ok := Lookup[string](s, "count"); ok {
		t.Error("Expected lookup with wrong type to fail")
	}
	if _, ok := Lookup[int](s, "missing"); ok {
		t.Error("Expected lookup of missing key to fail")
	}
	if got := ValueOr(s, "missing", 7); got != 7 {
		t.Errorf("Expected fallback 7, got %d", got)
	}
}

func TestStore_SetStateBeforeSubscribe(t *testing.T) {
	store := NewStore()
	store.SetState(Patch{"ready": true})

	var got Snapshot
	store.Subscribe(func(s Snapshot) { got = s })

	if v, _ := Lookup[bool](got, "ready"); !v {
		t.Error("Expected late subscriber to receive the buffered snapshot")
	}
}

func TestStore_LateSubscriberGetsCurrent(t *testing.T) {
	store := NewStore()
	for i := 1; i <= 5; i++ {
		store.SetState(Patch{"n": i})
	}

	calls := 0
	var got int
	store.Subscribe(func(s Snapshot) {
		calls++
		got, _ = Lookup[int](s, "n")
	})

	if calls != 1 || got != 5 {
		t.Errorf("Expected one immediate delivery of n=5, got %d calls n=%d", calls, got)
	}
}

func TestStore_ReentrantSetState(t *testing.T) {
	store := NewStore()
	var seen []int
	store.Subscribe(func(s Snapshot) {
		n := ValueOr(s, "n", 0)
		seen = append(seen, n)
		if n == 1 {
			store.SetState(Patch{"n": 2})
		}
	})

	store.SetState(Patch{"n": 1})

	if !reflect.DeepEqual(seen, []int{0, 1, 2}) {
		t.Errorf("Expected [0 1 2], got %v", seen)
	}
}

func TestStore_Close(t *testing.T) {
	store := NewStore()
	calls := 0
	store.Subscribe(func(Snapshot) { calls++ })
	store.Close()
	store.SetState(Patch{"n": 1})

	if calls != 1 {
		t.Errorf("Expected no delivery after Close, got %d calls", calls)
	}
	if store.Subscribers() != 0 {
		t.Errorf("Expected 0 subscribers, got %d", store.Subscribers())
	}
}

func TestRouterState_WithDataReplaces(t *testing.T) {
	rs := InitialRouterState()
	rs = rs.WithPath("/x").WithData(map[string]any{"foo": 1})
	rs = rs.WithData(map[string]any{"bar": 2})

	if rs.Path != "/x" {
		t.Errorf("Expected path /x, got %q", rs.Path)
	}
	if !reflect.DeepEqual(rs.Data, map[string]any{"bar": 2}) {
		t.Errorf("Expected data to be replaced, got %v", rs.Data)
	}
}
