package queries

import (
	"context"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/types"
)

// Login authenticates with email and password. The token is persisted
// through the session, which notifies its subscribers; the auth
// response itself is returned so the caller can greet the user.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (types.AuthResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return types.AuthResponse{}, err
	}

	var auth types.AuthResponse
	if err := c.public.Post(ctx, constants.EndpointLogin, req, &auth); err != nil {
		return types.AuthResponse{}, err
	}

	if err := c.session.SetToken(ctx, auth.Token); err != nil {
		return types.AuthResponse{}, err
	}

	c.notify.Success("Welcome back, " + auth.User.Name)
	return auth, nil
}

// Register creates an account and signs in with the returned token.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (types.AuthResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return types.AuthResponse{}, err
	}

	var auth types.AuthResponse
	if err := c.public.Post(ctx, constants.EndpointRegister, req, &auth); err != nil {
		return types.AuthResponse{}, err
	}

	if err := c.session.SetToken(ctx, auth.Token); err != nil {
		return types.AuthResponse{}, err
	}

	c.notify.Success("Welcome, " + auth.User.Name)
	return auth, nil
}

// Logout clears the session and drops every cached entry: nothing
// personalized may survive into the next session.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.session.Clear(ctx); err != nil {
		return err
	}

	c.store.Remove(cache.All())
	return nil
}
