// Package session holds the process-wide auth state: the bearer token
// and the identity derived from it. State changes are published to
// subscribers so dependents (transport, saved posts) never read a stale
// snapshot.
package session

import (
	"context"
	"fmt"
	"sync"

	"vistagram/constants"
	"vistagram/kv"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type Session struct {
	store kv.Store
	log   *zap.Logger

	mu     sync.Mutex
	token  string
	userID string

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func New(store kv.Store, log *zap.Logger) *Session {
	return &Session{
		store: store,
		log:   log,
		subs:  make(map[int]func()),
	}
}

// Init loads the persisted token, if any. Call once on startup.
func (s *Session) Init(ctx context.Context) error {
	token, ok, err := s.store.Get(ctx, constants.AuthTokenKey)
	if err != nil {
		return fmt.Errorf("failed to read persisted token: %w", err)
	}

	if !ok {
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.userID = userIDFromToken(token, s.log)
	s.mu.Unlock()

	return nil
}

func (s *Session) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, constants.AuthTokenKey, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.userID = userIDFromToken(token, s.log)
	s.mu.Unlock()

	s.publish()
	return nil
}

// Clear drops the session, both in memory and in the persisted store.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, constants.AuthTokenKey); err != nil {
		return fmt.Errorf("failed to delete persisted token: %w", err)
	}

	s.mu.Lock()
	s.token = ""
	s.userID = ""
	s.mu.Unlock()

	s.publish()
	return nil
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// UserID returns the current user's id, or "" when logged out.
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Subscribe registers fn to run after every token change. The returned
// function unsubscribes.
func (s *Session) Subscribe(fn func()) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) publish() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// userIDFromToken pulls the user id claim out of the JWT without
// verifying the signature; the server is the authority, the client only
// needs the id for isMine derivation and storage scoping.
func userIDFromToken(token string, log *zap.Logger) string {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		log.Warn("Could not parse auth token claims", zap.Error(err))
		return ""
	}

	for _, key := range []string{"sub", "id", "userId"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}

	return ""
}
