// Package cache is the in-memory store of query results. One entry per
// key, holding either a single entity or a paged collection. Values are
// treated as immutable: writers build fresh values inside Update
// callbacks instead of mutating in place, which is what makes
// Snapshot/Restore safe without deep copies.
package cache

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
)

type entry struct {
	key   Key
	value any
	stale bool
}

type Store struct {
	mu      sync.Mutex
	entries *orderedmap.OrderedMap[string, *entry]

	// epochs outlive entries: cancelling a refetch for a key that has no
	// entry yet must still invalidate the in-flight delivery.
	epochs map[string]uint64

	log *zap.Logger
}

func New(log *zap.Logger) *Store {
	return &Store{
		entries: orderedmap.New[string, *entry](),
		epochs:  make(map[string]uint64),
		log:     log,
	}
}

// Lookup returns the cached value, whether it exists, and whether it
// has been marked stale.
func (s *Store) Lookup(key Key) (any, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key.String())
	if !ok {
		return nil, false, false
	}
	return e.value, true, e.stale
}

func (s *Store) Get(key Key) (any, bool) {
	v, ok, _ := s.Lookup(key)
	return v, ok
}

func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value, false)
}

func (s *Store) setLocked(key Key, value any, stale bool) {
	s.entries.Set(key.String(), &entry{key: key, value: value, stale: stale})
}

// Update applies fn to the current value under the store lock:
// read-modify-write, never a blind overwrite of a captured copy. fn
// receives (nil, false) when the entry is absent; returning ok=false
// leaves the store untouched.
func (s *Store) Update(key Key, fn func(cur any, exists bool) (any, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur any
	exists := false
	if e, ok := s.entries.Get(key.String()); ok {
		cur = e.value
		exists = true
	}

	next, ok := fn(cur, exists)
	if !ok {
		return
	}
	s.setLocked(key, next, false)
}

// Invalidate marks every entry under prefix stale. Stale entries still
// serve reads; the next query access refetches.
func (s *Store) Invalidate(prefix Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.key.HasPrefix(prefix) {
			pair.Value.stale = true
		}
	}
}

// Remove evicts every entry under prefix entirely, used when an entity
// is deleted.
func (s *Store) Remove(prefix Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []string
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.key.HasPrefix(prefix) {
			doomed = append(doomed, pair.Key)
		}
	}
	for _, k := range doomed {
		s.entries.Delete(k)
	}
}

// Keys returns every cached key under prefix, in insertion order.
func (s *Store) Keys(prefix Key) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Key
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.key.HasPrefix(prefix) {
			out = append(out, pair.Value.key)
		}
	}
	return out
}

// Snapshot is a rollback checkpoint for one key, including the case
// where no entry existed.
type Snapshot struct {
	Key    Key
	Value  any
	Exists bool
	Stale  bool
}

func (s *Store) Capture(keys ...Key) []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := make([]Snapshot, 0, len(keys))
	for _, key := range keys {
		snap := Snapshot{Key: key}
		if e, ok := s.entries.Get(key.String()); ok {
			snap.Value = e.value
			snap.Exists = true
			snap.Stale = e.stale
		}
		snaps = append(snaps, snap)
	}
	return snaps
}

// Restore puts captured snapshots back verbatim, recreating absence
// where an entry did not exist.
func (s *Store) Restore(snaps []Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snaps {
		if !snap.Exists {
			s.entries.Delete(snap.Key.String())
			continue
		}
		s.entries.Set(snap.Key.String(), &entry{
			key:   snap.Key,
			value: snap.Value,
			stale: snap.Stale,
		})
	}
}

// Cancel bumps the epoch for every key under prefix. An in-flight
// refetch that started before the bump will fail its SetIfCurrent and
// be discarded, so a stale response can never clobber fresher
// optimistic state.
func (s *Store) Cancel(prefixes ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, prefix := range prefixes {
		s.epochs[prefix.String()]++
		for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.key.HasPrefix(prefix) {
				s.epochs[pair.Key]++
			}
		}
	}
}

// Epoch reads the current epoch for key; pair it with SetIfCurrent
// around an await point.
func (s *Store) Epoch(key Key) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epochs[key.String()]
}

// SetIfCurrent writes value only if no Cancel happened for key since
// epoch was read. Returns whether the write was applied.
func (s *Store) SetIfCurrent(key Key, epoch uint64, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epochs[key.String()] != epoch {
		if s.log != nil {
			s.log.Debug("Discarding cancelled fetch result", zap.String("key", key.String()))
		}
		return false
	}

	s.setLocked(key, value, false)
	return true
}

// UpdateIfCurrent is Update guarded by the epoch protocol: fn's result
// is dropped when a Cancel happened for key since epoch was read.
func (s *Store) UpdateIfCurrent(key Key, epoch uint64, fn func(cur any, exists bool) (any, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epochs[key.String()] != epoch {
		return false
	}

	var cur any
	exists := false
	if e, ok := s.entries.Get(key.String()); ok {
		cur = e.value
		exists = true
	}

	next, ok := fn(cur, exists)
	if !ok {
		return false
	}
	s.setLocked(key, next, false)
	return true
}

// Value reads a typed entry; ok is false when the entry is absent or
// holds a different type.
func Value[T any](s *Store, key Key) (T, bool) {
	var zero T

	v, ok := s.Get(key)
	if !ok {
		return zero, false
	}

	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Patch is a typed Update for entries that may be absent: fn only runs
// when the entry exists and holds a T.
func Patch[T any](s *Store, key Key, fn func(T) T) {
	s.Update(key, func(cur any, exists bool) (any, bool) {
		if !exists {
			return nil, false
		}
		typed, ok := cur.(T)
		if !ok {
			return nil, false
		}
		return fn(typed), true
	})
}
