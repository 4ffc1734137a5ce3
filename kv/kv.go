// Package kv is the client-persisted key-value store: small per-user
// state (auth token, saved post ids) that must survive restarts.
package kv

import "context"

type Store interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
