package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/query"
	"vistagram/types"
)

// Post is the detail view for one post. The previously cached entry and
// the persisted saved-ids set both feed normalization, so savedByMe
// survives servers that omit it.
func (c *Client) Post(postID string) *query.Query[types.Post] {
	return query.New(c.store, cache.PostDetail(postID),
		func(ctx context.Context) (types.Post, error) {
			var data map[string]any
			if err := c.api.Get(ctx, constants.EndpointPostDetail(postID), nil, &data); err != nil {
				return types.Post{}, err
			}

			pctx := normalize.PostContext{SavedIDs: c.saved.Snapshot(ctx)}
			if prior, ok := cache.Value[types.Post](c.store, cache.PostDetail(postID)); ok {
				pctx.Prior = &prior
			}

			return normalize.Post(normalize.PostEnvelope(data), pctx)
		})
}

// PostCreate publishes a new post. Nothing is applied optimistically;
// the listings that should show the post are invalidated and refetched
// once the server has it.
type PostCreate struct {
	m *query.Mutation[types.CreatePostRequest, types.Post]
}

func (c *Client) PostCreate() *PostCreate {
	return &PostCreate{m: &query.Mutation[types.CreatePostRequest, types.Post]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(types.CreatePostRequest) []cache.Key {
			return []cache.Key{cache.Feed(), cache.MePosts()}
		},
		Run: func(ctx context.Context, req types.CreatePostRequest) (types.Post, error) {
			if err := c.validate.Struct(req); err != nil {
				return types.Post{}, err
			}

			var data map[string]any
			if err := c.api.Post(ctx, constants.EndpointPosts, req, &data); err != nil {
				return types.Post{}, err
			}

			return normalize.Post(normalize.PostEnvelope(data), normalize.PostContext{})
		},
		Confirm: func(_ types.CreatePostRequest, created types.Post) {
			c.store.Set(cache.PostDetail(created.ID), created)
		},
		Reconcile: func(_ context.Context, _ types.CreatePostRequest) {
			c.store.Invalidate(cache.Feed())
			c.store.Invalidate(cache.MePosts())
			c.store.Invalidate(cache.MeProfile())

			c.background("feed", func(ctx context.Context) error {
				_, err := c.Feed().Get(ctx)
				return err
			})
		},
	}}
}

func (pc *PostCreate) Invoke(ctx context.Context, req types.CreatePostRequest) (types.Post, error) {
	return pc.m.Invoke(ctx, req)
}

func (pc *PostCreate) State() query.State { return pc.m.State() }

// PostDelete removes a post. On success the detail entry is dropped and
// the post is purged from every cached collection immediately, instead
// of waiting for the refetches to catch up.
type PostDelete struct {
	m *query.Mutation[string, struct{}]
}

func (c *Client) PostDelete() *PostDelete {
	return &PostDelete{m: &query.Mutation[string, struct{}]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(string) []cache.Key {
			return nil
		},
		Run: func(ctx context.Context, postID string) (struct{}, error) {
			return struct{}{}, c.api.Delete(ctx, constants.EndpointPostDetail(postID), nil)
		},
		Confirm: func(postID string, _ struct{}) {
			c.store.Remove(cache.PostDetail(postID))
			c.store.Remove(cache.PostComments(postID))
			c.store.Remove(cache.PostLikes(postID))
			c.purgePost(postID)
		},
		Reconcile: func(_ context.Context, _ string) {
			c.store.Invalidate(cache.Feed())
			c.store.Invalidate(cache.MePosts())
			c.store.Invalidate(cache.MeProfile())
		},
	}}
}

func (pd *PostDelete) Invoke(ctx context.Context, postID string) error {
	_, err := pd.m.Invoke(ctx, postID)
	return err
}

func (pd *PostDelete) State() query.State { return pd.m.State() }

// purgePost drops the post from every cached post collection, each
// touched page's total down by one.
func (c *Client) purgePost(postID string) {
	for _, key := range c.store.Keys(cache.All()) {
		cache.Patch[types.Paged[types.Post]](c.store, key,
			func(paged types.Paged[types.Post]) types.Paged[types.Post] {
				pages := make([]types.Page[types.Post], len(paged.Pages))
				for i, page := range paged.Pages {
					kept := make([]types.Post, 0, len(page.Items))
					for _, item := range page.Items {
						if item.ID == postID {
							continue
						}
						kept = append(kept, item)
					}

					pagination := page.Pagination
					if len(kept) != len(page.Items) {
						pagination.Total = max(0, pagination.Total-1)
					}
					pages[i] = types.Page[types.Post]{Items: kept, Pagination: pagination}
				}
				return types.Paged[types.Post]{Pages: pages}
			})
	}
}
