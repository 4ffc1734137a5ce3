package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/query"
	"vistagram/types"
)

// PublicPosts is the logged-out explore listing. It goes through the
// unauthenticated client, and any personalized flags the server happens
// to include are discarded: there is no "me" to be true for.
func (c *Client) PublicPosts() *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.PublicPosts(), postID,
		func(ctx context.Context, page int) (types.Page[types.Post], error) {
			fetched, err := c.fetchPostPage(ctx, c.public, constants.EndpointPosts, page, nil)
			if err != nil {
				return types.Page[types.Post]{}, err
			}

			for i := range fetched.Items {
				fetched.Items[i].LikedByMe = false
				saved := false
				fetched.Items[i].SavedByMe = &saved
			}

			return fetched, nil
		})
}
