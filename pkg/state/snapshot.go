// Package state provides the per-component state store and the immutable
// snapshot values it publishes.
//
// A Store holds a Snapshot, a string-keyed mapping of arbitrary values.
// Every SetState call shallow-merges a Patch into the current snapshot and
// publishes the result as a new snapshot; published snapshots are never
// modified afterwards.
//
//	store := state.NewStore()
//	store.SetState(state.Patch{"count": 1, "label": "clicks"})
//	store.SetState(state.Patch{"count": 2})
//	n, _ := state.Lookup[int](store.Snapshot(), "count") // 2
package state

import (
	"maps"
	"reflect"
	"slices"
)

// Patch is a partial state update. Keys in a patch override the same keys
// in the current snapshot; all other keys are kept.
type Patch map[string]any

// Snapshot is an immutable point-in-time state value.
// The zero Snapshot is empty and ready to use.
type Snapshot struct {
	values map[string]any
}

// Empty returns the empty snapshot.
func Empty() Snapshot { return Snapshot{} }

// From builds a snapshot holding a copy of m.
func From(m map[string]any) Snapshot {
	if len(m) == 0 {
		return Snapshot{}
	}
	return Snapshot{values: maps.Clone(m)}
}

// Merge returns a new snapshot with patch applied on top of s.
// s itself is left untouched.
func (s Snapshot) Merge(patch Patch) Snapshot {
	if len(patch) == 0 {
		return s
	}
	merged := make(map[string]any, len(s.values)+len(patch))
	maps.Copy(merged, s.values)
	maps.Copy(merged, patch)
	return Snapshot{values: merged}
}

// With returns a new snapshot with key set to value.
func (s Snapshot) With(key string, value any) Snapshot {
	return s.Merge(Patch{key: value})
}

// Get returns the value stored under key.
func (s Snapshot) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil.
func (s Snapshot) Value(key string) any {
	return s.values[key]
}

// Has reports whether key is present.
func (s Snapshot) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

// Len returns the number of keys.
func (s Snapshot) Len() int { return len(s.values) }

// Keys returns the keys in sorted order.
func (s Snapshot) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// Map returns a copy of the snapshot's contents.
func (s Snapshot) Map() map[string]any {
	if s.values == nil {
		return map[string]any{}
	}
	return maps.Clone(s.values)
}

// Equal reports whether both snapshots hold deeply equal contents.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.values) != len(other.values) {
		return false
	}
	for k, v := range s.values {
		ov, ok := other.values[k]
		if !ok || !reflect.DeepEqual(v, ov) {
			return false
		}
	}
	return true
}

// Lookup returns the value under key converted to T. ok is false when the
// key is missing or holds a value of another type.
func Lookup[T any](s Snapshot, key string) (value T, ok bool) {
	raw, present := s.values[key]
	if !present {
		return value, false
	}
	value, ok = raw.(T)
	return value, ok
}

// ValueOr returns the value under key converted to T, or fallback.
func ValueOr[T any](s Snapshot, key string, fallback T) T {
	if v, ok := Lookup[T](s, key); ok {
		return v
	}
	return fallback
}
