// Package query is the engine under the per-domain accessors: point
// queries, paginated queries, and the optimistic mutation state
// machine. It knows nothing about posts or profiles, only about cache
// keys, fetch functions and rollback.
package query

import (
	"context"
	"errors"

	"vistagram/cache"
	"vistagram/types"
)

// Query is a cached point read: one key, one fetch function.
type Query[T any] struct {
	store *cache.Store
	key   cache.Key
	fetch func(context.Context) (T, error)
}

func New[T any](store *cache.Store, key cache.Key, fetch func(context.Context) (T, error)) *Query[T] {
	return &Query[T]{store: store, key: key, fetch: fetch}
}

func (q *Query[T]) Key() cache.Key { return q.key }

// Peek returns the cached value without fetching.
func (q *Query[T]) Peek() (T, bool) {
	return cache.Value[T](q.store, q.key)
}

// Get serves the cached value unless it is missing or stale, fetching
// otherwise. A fetch error leaves any cached snapshot untouched and is
// returned alongside it, so stale-but-valid data can still render.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	v, exists, stale := q.store.Lookup(q.key)
	if exists && !stale {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	return q.Refresh(ctx)
}

// Refresh always fetches. The result is dropped if a mutation cancelled
// this key while the fetch was in flight; whatever the mutation wrote
// takes precedence until it settles.
func (q *Query[T]) Refresh(ctx context.Context) (T, error) {
	epoch := q.store.Epoch(q.key)

	fetched, err := q.fetch(ctx)
	if err != nil {
		if cached, ok := q.Peek(); ok {
			return cached, err
		}
		var zero T
		return zero, err
	}

	q.store.SetIfCurrent(q.key, epoch, fetched)

	// Serve whatever the cache holds now; if our write lost to a newer
	// epoch, that value is the fresher one.
	if cur, ok := q.Peek(); ok {
		return cur, nil
	}
	return fetched, nil
}

// friendly extracts a user-presentable message from a mutation error.
func friendly(err error) string {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}
