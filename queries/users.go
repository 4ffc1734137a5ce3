package queries

import (
	"context"
	"net/url"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/query"
	"vistagram/types"
)

// User is another user's profile page.
func (c *Client) User(username string) *query.Query[types.Profile] {
	return query.New(c.store, cache.UserProfile(username),
		func(ctx context.Context) (types.Profile, error) {
			var data map[string]any
			if err := c.api.Get(ctx, constants.EndpointUserProfile(username), nil, &data); err != nil {
				return types.Profile{}, err
			}
			return normalize.Profile(data)
		})
}

// UserPosts lists a user's posts.
func (c *Client) UserPosts(username string) *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.UserPosts(username), postID,
		func(ctx context.Context, page int) (types.Page[types.Post], error) {
			return c.fetchPostPage(ctx, c.api, constants.EndpointUserPosts(username), page, nil)
		})
}

// UserLikes lists the posts a user liked.
func (c *Client) UserLikes(username string) *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.UserLikes(username), postID,
		func(ctx context.Context, page int) (types.Page[types.Post], error) {
			return c.fetchPostPage(ctx, c.api, constants.EndpointUserLikes(username), page, nil)
		})
}

// SearchUsers searches users by name or username. Each distinct query
// string is its own cache entry.
func (c *Client) SearchUsers(q string) *query.Infinite[types.ListUser] {
	return query.NewInfinite(c.store, cache.UserSearch(q), listUserID,
		func(ctx context.Context, page int) (types.Page[types.ListUser], error) {
			return c.fetchUserPage(ctx, constants.EndpointUsersSearch, page, url.Values{
				"q": []string{q},
			})
		})
}
