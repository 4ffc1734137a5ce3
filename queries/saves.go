package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/query"
	"vistagram/types"
)

type saveToggleVars struct {
	savedByMe bool
}

// SaveToggle is the save/unsave mutation for one post. Besides the
// cache patch it records the choice in the persisted saved-ids set, so
// endpoints that omit savedByMe still normalize to the user's last
// known choice. Rollback reverts that record too.
type SaveToggle struct {
	m *query.Mutation[saveToggleVars, struct{}]
}

func (c *Client) SaveToggle(postID string) *SaveToggle {
	setSaved := func(next bool) func(types.Post) types.Post {
		return func(p types.Post) types.Post {
			p.SavedByMe = &next
			return p
		}
	}

	return &SaveToggle{m: &query.Mutation[saveToggleVars, struct{}]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(saveToggleVars) []cache.Key {
			return []cache.Key{cache.Feed(), cache.PostDetail(postID)}
		},
		Apply: func(ctx context.Context, v saveToggleVars) {
			next := !v.savedByMe
			c.saved.Persist(ctx, postID, next)
			c.patchPost(postID, setSaved(next))
		},
		Run: func(ctx context.Context, v saveToggleVars) (struct{}, error) {
			endpoint := constants.EndpointPostSave(postID)
			if v.savedByMe {
				return struct{}{}, c.api.Delete(ctx, endpoint, nil)
			}
			return struct{}{}, c.api.Post(ctx, endpoint, nil, nil)
		},
		OnRollback: func(ctx context.Context, v saveToggleVars) {
			c.saved.Persist(ctx, postID, v.savedByMe)
		},
		Reconcile: func(_ context.Context, _ saveToggleVars) {
			c.store.Invalidate(cache.PostDetail(postID))
			c.store.Invalidate(cache.MeSaved())

			c.background("post-detail", func(ctx context.Context) error {
				_, err := c.Post(postID).Refresh(ctx)
				return err
			})
		},
	}}
}

// Invoke toggles away from savedByMe, the state the caller currently
// sees.
func (t *SaveToggle) Invoke(ctx context.Context, savedByMe bool) error {
	_, err := t.m.Invoke(ctx, saveToggleVars{savedByMe: savedByMe})
	return err
}

func (t *SaveToggle) State() query.State { return t.m.State() }

// MySaved lists the posts the current user saved.
func (c *Client) MySaved() *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.MeSaved(), postID,
		func(ctx context.Context, page int) (types.Page[types.Post], error) {
			return c.fetchPostPage(ctx, c.api, constants.EndpointMeSaved, page, nil)
		})
}
