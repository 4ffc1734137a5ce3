package queries

import (
	"context"
	"testing"

	"vistagram/cache"
	"vistagram/savedposts"
	"vistagram/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeedCarriesSavedStateAcrossRefetch(t *testing.T) {
	f := newFixture(t)

	withSaved := postPayload("p1", 3, 1, false)
	withSaved["savedByMe"] = true
	f.api.stub("GET", "/api/feed", feedPayload(withSaved))

	_, err := f.client.Feed().Get(context.Background())
	require.NoError(t, err)
	require.True(t, f.feedPost(t, "p1").Saved())

	// The next delivery omits savedByMe entirely.
	f.store.Invalidate(cache.Feed())
	f.api.stub("GET", "/api/feed", feedPayload(postPayload("p1", 4, 1, false)))

	_, err = f.client.Feed().Get(context.Background())
	require.NoError(t, err)

	post := f.feedPost(t, "p1")
	assert.Equal(t, 4, post.LikeCount, "fresh server data applied")
	require.NotNil(t, post.SavedByMe)
	assert.True(t, *post.SavedByMe, "savedByMe carried forward from the previous delivery")
}

func TestFeedFallbackPadsShortFirstPage(t *testing.T) {
	f := newFixture(t)

	padded := New(Deps{
		API:          f.api,
		Store:        f.store,
		Session:      f.sess,
		Saved:        savedposts.New(f.kv, f.sess, zap.NewNop()),
		Notify:       f.toasts,
		Validate:     testValidator(),
		Log:          zap.NewNop(),
		MinFeedItems: 3,
	})

	f.api.stub("GET", "/api/feed", feedPayload(postPayload("p1", 0, 0, false)))
	f.api.stub("GET", "/api/posts", feedPayload(
		postPayload("p1", 0, 0, false), // duplicate, must not repeat
		postPayload("p2", 0, 0, false),
		postPayload("p3", 0, 0, false),
		postPayload("p4", 0, 0, false),
	))

	paged, err := padded.Feed().Get(context.Background())
	require.NoError(t, err)
	require.Len(t, paged.Pages, 1)

	ids := []string{}
	for _, p := range paged.Pages[0].Items {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids, "padded up to the minimum, dedup'd, capped")
}

func TestFeedFallbackFailureIsCosmetic(t *testing.T) {
	f := newFixture(t)

	padded := New(Deps{
		API:          f.api,
		Store:        f.store,
		Session:      f.sess,
		Saved:        savedposts.New(f.kv, f.sess, zap.NewNop()),
		Notify:       f.toasts,
		Validate:     testValidator(),
		Log:          zap.NewNop(),
		MinFeedItems: 3,
	})

	f.api.stub("GET", "/api/feed", feedPayload(postPayload("p1", 0, 0, false)))
	// /api/posts left unstubbed: the fallback fetch fails.

	paged, err := padded.Feed().Get(context.Background())
	require.NoError(t, err, "the real feed page stands")
	require.Len(t, paged.Pages, 1)
	assert.Len(t, paged.Pages[0].Items, 1)
}

func TestMergeUniquePosts(t *testing.T) {
	a := types.Post{ID: "a"}
	b := types.Post{ID: "b"}
	c := types.Post{ID: "c"}

	merged := mergeUniquePosts([]types.Post{a}, []types.Post{a, b, c}, 2)
	assert.Equal(t, []types.Post{a, b}, merged)

	// Already at the limit: untouched.
	merged = mergeUniquePosts([]types.Post{a, b}, []types.Post{c}, 2)
	assert.Equal(t, []types.Post{a, b}, merged)

	assert.Equal(t, []types.Post{a}, mergeUniquePosts([]types.Post{a}, nil, 5))
}
