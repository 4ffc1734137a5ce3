package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/query"
	"vistagram/types"
)

// Me is the current user's profile. IsMe is forced on regardless of
// what the server says.
func (c *Client) Me() *query.Query[types.Profile] {
	return query.New(c.store, cache.MeProfile(),
		func(ctx context.Context) (types.Profile, error) {
			var data map[string]any
			if err := c.api.Get(ctx, constants.EndpointMeProfile, nil, &data); err != nil {
				return types.Profile{}, err
			}

			profile, err := normalize.Profile(data)
			if err != nil {
				return types.Profile{}, err
			}

			profile.IsMe = true
			return profile, nil
		})
}

// ProfileUpdate edits the current user's profile. The changed fields
// are merged into the cached profile immediately; the server's echo of
// the full profile replaces the merge on confirm.
type ProfileUpdate struct {
	m *query.Mutation[types.UpdateProfileRequest, types.Profile]
}

func (c *Client) ProfileUpdate() *ProfileUpdate {
	return &ProfileUpdate{m: &query.Mutation[types.UpdateProfileRequest, types.Profile]{
		Store:  c.store,
		Log:    c.log,
		Notify: c.notify,
		Keys: func(types.UpdateProfileRequest) []cache.Key {
			return []cache.Key{cache.MeProfile()}
		},
		Apply: func(_ context.Context, req types.UpdateProfileRequest) {
			cache.Patch[types.Profile](c.store, cache.MeProfile(),
				func(profile types.Profile) types.Profile {
					return mergeProfile(profile, req)
				})
		},
		Run: func(ctx context.Context, req types.UpdateProfileRequest) (types.Profile, error) {
			if err := c.validate.Struct(req); err != nil {
				return types.Profile{}, err
			}

			var data map[string]any
			if err := c.api.Patch(ctx, constants.EndpointMeProfile, req, &data); err != nil {
				return types.Profile{}, err
			}

			profile, err := normalize.Profile(data)
			if err != nil {
				return types.Profile{}, err
			}

			profile.IsMe = true
			return profile, nil
		},
		Confirm: func(_ types.UpdateProfileRequest, profile types.Profile) {
			c.store.Set(cache.MeProfile(), profile)
		},
		Reconcile: func(_ context.Context, _ types.UpdateProfileRequest) {
			// The whole me/ scope: a username change renames the
			// author shown on cached posts and comments too.
			c.store.Invalidate(cache.Me())

			c.background("me-profile", func(ctx context.Context) error {
				_, err := c.Me().Refresh(ctx)
				return err
			})
		},
	}}
}

func (pu *ProfileUpdate) Invoke(ctx context.Context, req types.UpdateProfileRequest) (types.Profile, error) {
	return pu.m.Invoke(ctx, req)
}

func (pu *ProfileUpdate) State() query.State { return pu.m.State() }

func mergeProfile(profile types.Profile, req types.UpdateProfileRequest) types.Profile {
	if req.Name != nil {
		profile.Name = *req.Name
	}
	if req.Username != nil {
		profile.Username = *req.Username
	}
	if req.Email != nil {
		profile.Email = *req.Email
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.Avatar != nil {
		profile.AvatarURL = *req.Avatar
	}
	return profile
}

// MyPosts lists the current user's own posts.
func (c *Client) MyPosts() *query.Infinite[types.Post] {
	return query.NewInfinite(c.store, cache.MePosts(), postID,
		func(ctx context.Context, page int) (types.Page[types.Post], error) {
			return c.fetchPostPage(ctx, c.api, constants.EndpointMePosts, page, nil)
		})
}
