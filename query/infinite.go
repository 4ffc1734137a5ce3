package query

import (
	"context"

	"vistagram/cache"
	"vistagram/types"
)

// Infinite is a paginated query: pages accumulate under one key and a
// "load more" advances strictly by page+1 until page >= totalPages.
type Infinite[T any] struct {
	store     *cache.Store
	key       cache.Key
	fetchPage func(ctx context.Context, page int) (types.Page[T], error)
	id        func(T) string
}

func NewInfinite[T any](
	store *cache.Store,
	key cache.Key,
	id func(T) string,
	fetchPage func(ctx context.Context, page int) (types.Page[T], error),
) *Infinite[T] {
	return &Infinite[T]{store: store, key: key, fetchPage: fetchPage, id: id}
}

func (q *Infinite[T]) Key() cache.Key { return q.key }

func (q *Infinite[T]) Peek() (types.Paged[T], bool) {
	return cache.Value[types.Paged[T]](q.store, q.key)
}

// Get returns the collection, fetching the first page when the entry is
// absent and refetching every held page when it is stale.
func (q *Infinite[T]) Get(ctx context.Context) (types.Paged[T], error) {
	v, exists, stale := q.store.Lookup(q.key)
	if exists && !stale {
		if typed, ok := v.(types.Paged[T]); ok {
			return typed, nil
		}
	}

	held := 1
	if exists {
		if typed, ok := v.(types.Paged[T]); ok && len(typed.Pages) > 0 {
			held = len(typed.Pages)
		}
	}

	return q.refetch(ctx, held)
}

// refetch re-delivers pages 1..n in order, replacing the entry
// wholesale. An error leaves the cached pages untouched.
func (q *Infinite[T]) refetch(ctx context.Context, n int) (types.Paged[T], error) {
	epoch := q.store.Epoch(q.key)

	var fresh types.Paged[T]
	for page := 1; page <= n; page++ {
		fetched, err := q.fetchPage(ctx, page)
		if err != nil {
			if cached, ok := q.Peek(); ok {
				return cached, err
			}
			return types.Paged[T]{}, err
		}

		fresh.Pages = append(fresh.Pages, fetched)

		// Stop early when the collection shrank server-side.
		if fetched.Pagination.Page >= fetched.Pagination.TotalPages {
			break
		}
	}

	q.store.SetIfCurrent(q.key, epoch, fresh)

	if cur, ok := q.Peek(); ok {
		return cur, nil
	}
	return fresh, nil
}

// LoadMore fetches the next page and appends it to the pages held at
// completion time, not to the copy captured before the fetch. Returns
// false when the collection is exhausted.
func (q *Infinite[T]) LoadMore(ctx context.Context) (types.Paged[T], bool, error) {
	cur, err := q.Get(ctx)
	if err != nil {
		return cur, false, err
	}

	next, ok := cur.NextPage()
	if !ok {
		return cur, false, nil
	}

	epoch := q.store.Epoch(q.key)

	fetched, err := q.fetchPage(ctx, next)
	if err != nil {
		return cur, false, err
	}

	q.store.UpdateIfCurrent(q.key, epoch, func(latest any, exists bool) (any, bool) {
		paged, _ := latest.(types.Paged[T])
		if !exists {
			paged = types.Paged[T]{}
		}
		pages := make([]types.Page[T], len(paged.Pages), len(paged.Pages)+1)
		copy(pages, paged.Pages)
		return types.Paged[T]{Pages: append(pages, fetched)}, true
	})

	if latest, ok := q.Peek(); ok {
		return latest, true, nil
	}
	return types.Paged[T]{Pages: []types.Page[T]{fetched}}, true, nil
}

// Items flattens the held pages into the display list, deduplicated by
// id with first-seen order preserved.
func (q *Infinite[T]) Items() []T {
	paged, ok := q.Peek()
	if !ok {
		return nil
	}
	return types.Flatten(paged, q.id)
}
