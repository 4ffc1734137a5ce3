package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/query"
	"vistagram/types"
)

// Feed is the home timeline. Each page fetch re-reads the previously
// cached feed to carry savedByMe forward for posts the server returns
// without it.
func (c *Client) Feed() *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.Feed(), postID, c.fetchFeedPage)
}

func (c *Client) fetchFeedPage(ctx context.Context, page int) (types.Page[types.Post], error) {
	prior := c.feedSavedState()

	fetched, err := c.fetchPostPage(ctx, c.api, constants.EndpointFeed, page, func(id string) normalize.PostContext {
		return normalize.PostContext{Prior: prior[id]}
	})
	if err != nil {
		return types.Page[types.Post]{}, err
	}

	// Development convenience: a near-empty first page gets padded from
	// the public listing so the UI has something to render. Off unless
	// min_feed_items is configured.
	if page == 1 && c.minFeedItems > 0 && len(fetched.Items) < c.minFeedItems {
		fallback, err := c.fetchPostPage(ctx, c.api, constants.EndpointPosts, 1, func(id string) normalize.PostContext {
			return normalize.PostContext{Prior: prior[id]}
		})
		if err != nil {
			// The fallback is cosmetic; the real feed page stands.
			c.log.Debug("Feed fallback fetch failed")
			return fetched, nil
		}

		fetched.Items = mergeUniquePosts(fetched.Items, fallback.Items, c.minFeedItems)
	}

	return fetched, nil
}

// feedSavedState indexes the cached feed by post id, so normalization
// can fall back to the last known savedByMe per post.
func (c *Client) feedSavedState() map[string]*types.Post {
	index := make(map[string]*types.Post)

	paged, ok := cache.Value[types.Paged[types.Post]](c.store, cache.Feed())
	if !ok {
		return index
	}

	for _, page := range paged.Pages {
		for i := range page.Items {
			post := page.Items[i]
			if post.SavedByMe != nil {
				index[post.ID] = &post
			}
		}
	}

	return index
}

// mergeUniquePosts tops primary up to limit with items from secondary,
// skipping ids already present.
func mergeUniquePosts(primary, secondary []types.Post, limit int) []types.Post {
	if limit <= 0 || len(primary) >= limit {
		return primary
	}

	merged := make([]types.Post, len(primary), limit)
	copy(merged, primary)

	existing := make(map[string]struct{}, len(merged))
	for _, post := range merged {
		existing[post.ID] = struct{}{}
	}

	for _, post := range secondary {
		if _, ok := existing[post.ID]; ok {
			continue
		}

		merged = append(merged, post)
		existing[post.ID] = struct{}{}

		if len(merged) >= limit {
			break
		}
	}

	return merged
}
