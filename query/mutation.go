package query

import (
	"context"
	"sync"

	"vistagram/cache"
	"vistagram/notify"

	"go.uber.org/zap"
)

// State is the mutation lifecycle: Idle until invoked, OptimisticApplied
// while the request is in flight, then Confirmed or RolledBack.
type State int

const (
	Idle State = iota
	OptimisticApplied
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OptimisticApplied:
		return "optimistic-applied"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled-back"
	}
	return "unknown"
}

// Mutation runs one optimistic action: snapshot the affected entries,
// apply the expected effect synchronously, issue the request, then
// either confirm or restore the snapshots verbatim. Reconciliation runs
// on both outcomes.
type Mutation[V, R any] struct {
	Store  *cache.Store
	Log    *zap.Logger
	Notify notify.Notifier

	// Keys lists every cache entry the action could touch; they are
	// cancelled and snapshotted before the optimistic pass.
	Keys func(v V) []cache.Key

	// Apply is the synchronous optimistic pass. It must finish before any
	// suspension point so no repaint sees stale data.
	Apply func(ctx context.Context, v V)

	// Run performs the network request.
	Run func(ctx context.Context, v V) (R, error)

	// Confirm, if set, folds the server-confirmed result into the cache
	// (e.g. replacing a temp-id comment). Like/save leave the optimistic
	// state as final and set no Confirm.
	Confirm func(v V, r R)

	// OnRollback, if set, undoes side effects outside the cache store
	// (e.g. the persisted saved-ids set).
	OnRollback func(ctx context.Context, v V)

	// Reconcile schedules the background refetch of authoritative
	// sources. It runs whether the mutation confirmed or rolled back.
	Reconcile func(ctx context.Context, v V)

	mu    sync.Mutex
	state State
}

func (m *Mutation[V, R]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mutation[V, R]) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Invoke runs the full cycle. The returned error is never swallowed:
// callers get it even though the notifier was already told.
func (m *Mutation[V, R]) Invoke(ctx context.Context, v V) (R, error) {
	var zero R

	keys := m.Keys(v)

	// Cancel in-flight refetches first so a stale response arriving
	// mid-mutation cannot clobber the optimistic write.
	m.Store.Cancel(keys...)
	snaps := m.Store.Capture(keys...)

	if m.Apply != nil {
		m.Apply(ctx, v)
	}
	m.setState(OptimisticApplied)

	result, err := m.Run(ctx, v)
	if err != nil {
		m.Store.Restore(snaps)
		if m.OnRollback != nil {
			m.OnRollback(ctx, v)
		}
		m.setState(RolledBack)

		if m.Log != nil {
			m.Log.Warn("Mutation failed, rolled back optimistic state", zap.Error(err))
		}
		if m.Notify != nil {
			m.Notify.Error(friendly(err))
		}

		m.settle(ctx, v)
		return zero, err
	}

	if m.Confirm != nil {
		m.Confirm(v, result)
	}
	m.setState(Confirmed)

	m.settle(ctx, v)
	return result, nil
}

func (m *Mutation[V, R]) settle(ctx context.Context, v V) {
	if m.Reconcile != nil {
		m.Reconcile(ctx, v)
	}
}
