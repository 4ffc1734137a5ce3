package queries

import (
	"context"
	"testing"

	"vistagram/constants"
	"vistagram/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveTogglePatchesAndPersists(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, postPayload("p1", 0, 0, false))
	f.api.stub("POST", constants.EndpointPostSave("p1"), nil)

	err := f.client.SaveToggle("p1").Invoke(context.Background(), false)
	require.NoError(t, err)

	post := f.feedPost(t, "p1")
	require.NotNil(t, post.SavedByMe)
	assert.True(t, *post.SavedByMe)

	// The choice lands in the persisted per-user saved-ids set, which is
	// what backfills savedByMe on endpoints that omit it.
	saved, exists, err := f.kv.Get(context.Background(),
		constants.SavedPostIDsKeyPrefix+":u1")
	require.NoError(t, err)
	require.True(t, exists)
	assert.Contains(t, saved, "p1")
}

func TestSaveToggleUnsave(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, postPayload("p1", 0, 0, false))

	f.api.stub("POST", constants.EndpointPostSave("p1"), nil)
	require.NoError(t, f.client.SaveToggle("p1").Invoke(context.Background(), false))

	f.api.stub("DELETE", constants.EndpointPostSave("p1"), nil)
	require.NoError(t, f.client.SaveToggle("p1").Invoke(context.Background(), true))

	post := f.feedPost(t, "p1")
	require.NotNil(t, post.SavedByMe)
	assert.False(t, *post.SavedByMe)

	saved, _, err := f.kv.Get(context.Background(), constants.SavedPostIDsKeyPrefix+":u1")
	require.NoError(t, err)
	assert.NotContains(t, saved, "p1")
}

func TestSaveToggleRollbackRevertsCacheAndPersistence(t *testing.T) {
	f := newFixture(t)
	f.seedFeed(t, postPayload("p1", 0, 0, false))
	f.api.fail("POST", constants.EndpointPostSave("p1"),
		&types.APIError{Status: 500, Message: "Save failed"})

	before := f.feedPost(t, "p1")

	err := f.client.SaveToggle("p1").Invoke(context.Background(), false)
	require.Error(t, err)

	assert.Equal(t, before, f.feedPost(t, "p1"))

	saved, exists, err := f.kv.Get(context.Background(),
		constants.SavedPostIDsKeyPrefix+":u1")
	require.NoError(t, err)
	if exists {
		assert.NotContains(t, saved, "p1", "the persisted set reverts too")
	}
}
