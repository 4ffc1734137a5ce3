package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/query"
	"vistagram/types"
)

// updateLikeState flips likedByMe and moves likeCount by exactly one,
// floored at zero. A post already in the requested state is returned
// untouched, which is what makes a re-applied toggle a no-op instead of
// a double count.
func updateLikeState(post types.Post, nextLikedByMe bool) types.Post {
	if post.LikedByMe == nextLikedByMe {
		return post
	}

	delta := -1
	if nextLikedByMe {
		delta = 1
	}

	post.LikedByMe = nextLikedByMe
	post.LikeCount = max(0, post.LikeCount+delta)
	return post
}

type likeToggleVars struct {
	likedByMe bool
}

// LikeToggle is the like/unlike mutation for one post. The optimistic
// pass patches the feed and the detail entry together; the server
// response only ever confirms or rolls back.
type LikeToggle struct {
	m *query.Mutation[likeToggleVars, struct{}]
}

func (c *Client) LikeToggle(postID string) *LikeToggle {
	return &LikeToggle{m: &query.Mutation[likeToggleVars, struct{}]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(likeToggleVars) []cache.Key {
			return []cache.Key{cache.Feed(), cache.PostDetail(postID)}
		},
		Apply: func(_ context.Context, v likeToggleVars) {
			next := !v.likedByMe
			c.patchPost(postID, func(p types.Post) types.Post {
				return updateLikeState(p, next)
			})
		},
		Run: func(ctx context.Context, v likeToggleVars) (struct{}, error) {
			endpoint := constants.EndpointPostLike(postID)
			if v.likedByMe {
				return struct{}{}, c.api.Delete(ctx, endpoint, nil)
			}
			return struct{}{}, c.api.Post(ctx, endpoint, nil, nil)
		},
		Reconcile: func(_ context.Context, _ likeToggleVars) {
			c.store.Invalidate(cache.Feed())
			c.store.Invalidate(cache.PostDetail(postID))
			c.store.Invalidate(cache.PostLikes(postID))
			c.store.Invalidate(cache.MeLikes())

			c.background("post-detail", func(ctx context.Context) error {
				_, err := c.Post(postID).Refresh(ctx)
				return err
			})
			c.background("feed", func(ctx context.Context) error {
				_, err := c.Feed().Get(ctx)
				return err
			})
		},
	}}
}

// Invoke toggles away from likedByMe, the state the caller currently
// sees.
func (t *LikeToggle) Invoke(ctx context.Context, likedByMe bool) error {
	_, err := t.m.Invoke(ctx, likeToggleVars{likedByMe: likedByMe})
	return err
}

func (t *LikeToggle) State() query.State { return t.m.State() }

// PostLikes lists the users who liked a post.
func (c *Client) PostLikes(postID string) *query.Infinite[types.LikeUser] {
	return query.NewInfinite(c.store, cache.PostLikes(postID), likeUserID,
		func(ctx context.Context, page int) (types.Page[types.LikeUser], error) {
			var data map[string]any
			if err := c.api.Get(ctx, constants.EndpointPostLikes(postID), pageParams(page), &data); err != nil {
				return types.Page[types.LikeUser]{}, err
			}

			items, pagRaw := normalize.PaginatedList(data)

			users := make([]types.LikeUser, 0, len(items))
			for _, raw := range items {
				user, err := normalize.LikeUser(raw)
				if err != nil {
					return types.Page[types.LikeUser]{}, err
				}
				users = append(users, user)
			}

			return types.Page[types.LikeUser]{
				Items:      users,
				Pagination: normalize.Pagination(pagRaw, page, constants.PaginationLimit),
			}, nil
		})
}

// MyLikes lists the posts the current user liked.
func (c *Client) MyLikes() *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.MeLikes(), postID,
		func(ctx context.Context, page int) (types.Page[types.Post], error) {
			return c.fetchPostPage(ctx, c.api, constants.EndpointMeLikes, page, nil)
		})
}
