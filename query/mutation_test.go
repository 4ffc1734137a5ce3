package query

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vistagram/cache"
	"vistagram/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	errors []string
}

func (n *recordingNotifier) Success(string) {}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func TestMutationConfirms(t *testing.T) {
	store := cache.New(zap.NewNop())
	store.Set(cache.Feed(), "before")

	var order []string

	m := &Mutation[string, string]{
		Store: store,
		Log:   zap.NewNop(),
		Keys: func(string) []cache.Key {
			return []cache.Key{cache.Feed()}
		},
		Apply: func(_ context.Context, v string) {
			order = append(order, "apply")
			store.Set(cache.Feed(), "optimistic-"+v)
		},
		Run: func(_ context.Context, v string) (string, error) {
			order = append(order, "run")
			return v + "-result", nil
		},
		Confirm: func(_ string, r string) {
			order = append(order, "confirm")
			store.Set(cache.Feed(), r)
		},
		Reconcile: func(context.Context, string) {
			order = append(order, "reconcile")
		},
	}

	assert.Equal(t, Idle, m.State())

	result, err := m.Invoke(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x-result", result)
	assert.Equal(t, Confirmed, m.State())
	assert.Equal(t, []string{"apply", "run", "confirm", "reconcile"}, order)

	v, _ := store.Get(cache.Feed())
	assert.Equal(t, "x-result", v)
}

func TestMutationRollsBackVerbatim(t *testing.T) {
	store := cache.New(zap.NewNop())
	store.Set(cache.Feed(), "before")
	// PostDetail("1") absent: rollback must delete the optimistic entry.

	notifier := &recordingNotifier{}
	rolledBack := false

	m := &Mutation[struct{}, struct{}]{
		Store:  store,
		Log:    zap.NewNop(),
		Notify: notifier,
		Keys: func(struct{}) []cache.Key {
			return []cache.Key{cache.Feed(), cache.PostDetail("1")}
		},
		Apply: func(context.Context, struct{}) {
			store.Set(cache.Feed(), "optimistic")
			store.Set(cache.PostDetail("1"), "optimistic")
		},
		Run: func(context.Context, struct{}) (struct{}, error) {
			return struct{}{}, &types.APIError{Status: 422, Message: "Caption too long"}
		},
		OnRollback: func(context.Context, struct{}) {
			rolledBack = true
		},
	}

	_, err := m.Invoke(context.Background(), struct{}{})
	require.Error(t, err)
	assert.Equal(t, RolledBack, m.State())
	assert.True(t, rolledBack)

	v, _ := store.Get(cache.Feed())
	assert.Equal(t, "before", v)
	_, ok := store.Get(cache.PostDetail("1"))
	assert.False(t, ok)

	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Caption too long", notifier.errors[0])
}

func TestMutationNotifierFallbackMessage(t *testing.T) {
	store := cache.New(zap.NewNop())
	notifier := &recordingNotifier{}

	m := &Mutation[struct{}, struct{}]{
		Store:  store,
		Notify: notifier,
		Keys:   func(struct{}) []cache.Key { return nil },
		Run: func(context.Context, struct{}) (struct{}, error) {
			return struct{}{}, errors.New("connection refused")
		},
	}

	_, err := m.Invoke(context.Background(), struct{}{})
	require.Error(t, err)
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Something went wrong. Please try again.", notifier.errors[0])
}

func TestMutationCancelsInFlightRefetch(t *testing.T) {
	store := cache.New(zap.NewNop())
	store.Set(cache.Feed(), "cached")

	// A refetch reads its epoch, then a mutation runs before the
	// response lands. The late write must lose.
	epoch := store.Epoch(cache.Feed())

	m := &Mutation[struct{}, struct{}]{
		Store: store,
		Keys: func(struct{}) []cache.Key {
			return []cache.Key{cache.Feed()}
		},
		Apply: func(context.Context, struct{}) {
			store.Set(cache.Feed(), "optimistic")
		},
		Run: func(context.Context, struct{}) (struct{}, error) {
			return struct{}{}, nil
		},
	}

	_, err := m.Invoke(context.Background(), struct{}{})
	require.NoError(t, err)

	assert.False(t, store.SetIfCurrent(cache.Feed(), epoch, "stale response"))
	v, _ := store.Get(cache.Feed())
	assert.Equal(t, "optimistic", v)
}

func TestMutationReconcilesOnFailureToo(t *testing.T) {
	store := cache.New(zap.NewNop())
	reconciled := false

	m := &Mutation[struct{}, struct{}]{
		Store: store,
		Log:   zap.NewNop(),
		Keys:  func(struct{}) []cache.Key { return nil },
		Run: func(context.Context, struct{}) (struct{}, error) {
			return struct{}{}, errors.New("boom")
		},
		Reconcile: func(context.Context, struct{}) {
			reconciled = true
		},
	}

	_, err := m.Invoke(context.Background(), struct{}{})
	require.Error(t, err)
	assert.True(t, reconciled, "reconciliation runs whether confirmed or rolled back")
}
