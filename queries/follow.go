package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/query"
	"vistagram/types"
)

type followToggleVars struct {
	following bool
}

// FollowToggle follows or unfollows a user. There is no optimistic
// pass: follower counts live on two profiles at once and the server is
// the cheaper arbiter, so the toggle waits for confirmation and then
// refetches both sides.
type FollowToggle struct {
	m *query.Mutation[followToggleVars, struct{}]
}

func (c *Client) FollowToggle(username string) *FollowToggle {
	return &FollowToggle{m: &query.Mutation[followToggleVars, struct{}]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(followToggleVars) []cache.Key {
			return []cache.Key{cache.UserProfile(username), cache.MeProfile()}
		},
		Run: func(ctx context.Context, v followToggleVars) (struct{}, error) {
			endpoint := constants.EndpointFollowToggle(username)
			if v.following {
				return struct{}{}, c.api.Delete(ctx, endpoint, nil)
			}
			return struct{}{}, c.api.Post(ctx, endpoint, nil, nil)
		},
		Confirm: func(v followToggleVars, _ struct{}) {
			cache.Patch[types.Profile](c.store, cache.UserProfile(username),
				func(profile types.Profile) types.Profile {
					profile.IsFollowing = !v.following
					return profile
				})
		},
		Reconcile: func(_ context.Context, _ followToggleVars) {
			c.store.Invalidate(cache.UserProfile(username))
			c.store.Invalidate(cache.UserFollowers(username))
			c.store.Invalidate(cache.MeProfile())
			c.store.Invalidate(cache.MeFollowing())

			c.background("user-profile", func(ctx context.Context) error {
				_, err := c.User(username).Refresh(ctx)
				return err
			})
			c.background("me-profile", func(ctx context.Context) error {
				_, err := c.Me().Refresh(ctx)
				return err
			})
		},
	}}
}

// Invoke toggles away from following, the relationship the caller
// currently sees.
func (t *FollowToggle) Invoke(ctx context.Context, following bool) error {
	_, err := t.m.Invoke(ctx, followToggleVars{following: following})
	return err
}

func (t *FollowToggle) State() query.State { return t.m.State() }

// UserFollowers lists a user's followers.
func (c *Client) UserFollowers(username string) *query.Infinite[types.ListUser] {
	return query.NewInfinite(c.store, cache.UserFollowers(username), listUserID,
		func(ctx context.Context, page int) (types.Page[types.ListUser], error) {
			return c.fetchUserPage(ctx, constants.EndpointUserFollowers(username), page, nil)
		})
}

// UserFollowing lists who a user follows.
func (c *Client) UserFollowing(username string) *query.Infinite[types.ListUser] {
	return query.NewInfinite(c.store, cache.UserFollowing(username), listUserID,
		func(ctx context.Context, page int) (types.Page[types.ListUser], error) {
			return c.fetchUserPage(ctx, constants.EndpointUserFollowing(username), page, nil)
		})
}

// MyFollowers lists the current user's followers.
func (c *Client) MyFollowers() *query.Infinite[types.ListUser] {
	return query.NewInfinite(c.store, cache.MeFollowers(), listUserID,
		func(ctx context.Context, page int) (types.Page[types.ListUser], error) {
			return c.fetchUserPage(ctx, constants.EndpointMeFollowers, page, nil)
		})
}

// MyFollowing lists who the current user follows.
func (c *Client) MyFollowing() *query.Infinite[types.ListUser] {
	return query.NewInfinite(c.store, cache.MeFollowing(), listUserID,
		func(ctx context.Context, page int) (types.Page[types.ListUser], error) {
			return c.fetchUserPage(ctx, constants.EndpointMeFollowing, page, nil)
		})
}
