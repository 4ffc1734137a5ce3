// Package savedposts keeps a per-user set of saved post ids in the
// persisted store. The backend does not return savedByMe on every
// endpoint, so this set is the fallback the normalizer reads when the
// server is silent.
package savedposts

import (
	"context"
	"fmt"

	"vistagram/constants"
	"vistagram/kv"
	"vistagram/session"

	"github.com/infinitybotlist/eureka/jsonimpl"
	"go.uber.org/zap"
)

type Store struct {
	kv      kv.Store
	session *session.Session
	log     *zap.Logger
}

func New(store kv.Store, sess *session.Session, log *zap.Logger) *Store {
	return &Store{kv: store, session: sess, log: log}
}

func (s *Store) key() (string, bool) {
	userID := s.session.UserID()
	if userID == "" {
		return "", false
	}
	return fmt.Sprintf("%s:%s", constants.SavedPostIDsKeyPrefix, userID), true
}

// Snapshot returns the current saved-post-ids set for the logged-in
// user. Logged out, or on a store failure, it returns an empty set.
func (s *Store) Snapshot(ctx context.Context) map[string]struct{} {
	set := make(map[string]struct{})

	key, ok := s.key()
	if !ok {
		return set
	}

	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.log.Warn("Could not read saved post ids", zap.Error(err))
		return set
	}
	if !found {
		return set
	}

	var ids []string
	if err := jsonimpl.Unmarshal([]byte(raw), &ids); err != nil {
		s.log.Warn("Corrupt saved post ids entry, ignoring", zap.Error(err))
		return set
	}

	for _, id := range ids {
		set[id] = struct{}{}
	}

	return set
}

func (s *Store) Contains(ctx context.Context, postID string) bool {
	_, ok := s.Snapshot(ctx)[postID]
	return ok
}

// Persist records the user's latest save/unsave choice. Failures are
// logged, not returned: this store is a hint, the server state is the
// authority.
func (s *Store) Persist(ctx context.Context, postID string, saved bool) {
	key, ok := s.key()
	if !ok {
		return
	}

	set := s.Snapshot(ctx)
	if saved {
		set[postID] = struct{}{}
	} else {
		delete(set, postID)
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	encoded, err := jsonimpl.Marshal(ids)
	if err != nil {
		s.log.Warn("Could not encode saved post ids", zap.Error(err))
		return
	}

	if err := s.kv.Set(ctx, key, string(encoded)); err != nil {
		s.log.Warn("Could not persist saved post ids", zap.Error(err))
	}
}
