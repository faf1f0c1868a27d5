// Package memo provides the compute-once maps that back per-compilation caches.
//
// Local is a plain map for caches owned by a single compilation context.
// Shared is safe for concurrent use: each key is computed at most once, and callers
// racing on the same key wait for the first computation instead of repeating it.
package memo

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Map is a memoizing map. Entries are never evicted or replaced.
type Map[K comparable, V any] interface {
	// Get returns the cached value for k, if any.
	Get(k K) (V, bool)
	// GetOrCompute returns the cached value for k, computing and storing it on first use.
	GetOrCompute(k K, compute func() V) V
	// Len returns the number of cached entries.
	Len() int
}

// Local is a single-threaded Map.
type Local[K comparable, V any] struct {
	m map[K]V
}

// NewLocal creates an empty single-threaded map.
func NewLocal[K comparable, V any](capacity int) *Local[K, V] {
	return &Local[K, V]{m: make(map[K]V, capacity)}
}

func (l *Local[K, V]) Get(k K) (V, bool) {
	v, ok := l.m[k]
	return v, ok
}

// GetOrCompute stores the result of compute under k. compute may itself use the map
// for other keys; re-entering for the same key is a caller bug and computes twice.
func (l *Local[K, V]) GetOrCompute(k K, compute func() V) V {
	if v, ok := l.m[k]; ok {
		return v
	}
	v := compute()
	if prev, ok := l.m[k]; ok {
		return prev
	}
	l.m[k] = v
	return v
}

func (l *Local[K, V]) Len() int {
	return len(l.m)
}

// Shared is a concurrent compute-once Map.
type Shared[K comparable, V any] struct {
	mu    sync.RWMutex
	m     map[K]V
	group singleflight.Group
}

// NewShared creates an empty concurrent map.
func NewShared[K comparable, V any](capacity int) *Shared[K, V] {
	return &Shared[K, V]{m: make(map[K]V, capacity)}
}

func (s *Shared[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[k]
	return v, ok
}

// GetOrCompute computes the value for k once across all goroutines.
// compute must not wait on a computation of the same key. A panic in compute is
// re-raised unchanged in every waiting caller and nothing is stored.
func (s *Shared[K, V]) GetOrCompute(k K, compute func() V) V {
	if v, ok := s.Get(k); ok {
		return v
	}
	res, _, _ := s.group.Do(fmt.Sprint(k), func() (out any, _ error) {
		if v, ok := s.Get(k); ok {
			return v, nil
		}
		defer func() {
			if r := recover(); r != nil {
				out = panicked{r}
			}
		}()
		v := compute()
		s.mu.Lock()
		s.m[k] = v
		s.mu.Unlock()
		return v, nil
	})
	if p, ok := res.(panicked); ok {
		panic(p.value)
	}
	v, _ := res.(V) // nil interface values come back untyped
	return v
}

// panicked carries a recovered value past singleflight, which would otherwise wrap it.
type panicked struct{ value any }

func (s *Shared[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
