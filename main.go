package main

import (
	"os"
	"os/signal"
	"syscall"

	"vistagram/cache"
	"vistagram/kv"
	"vistagram/notify"
	"vistagram/queries"
	"vistagram/savedposts"
	"vistagram/session"
	"vistagram/state"
	"vistagram/transport"

	"go.uber.org/zap"
)

func main() {
	state.Setup()

	store := kv.NewRedis(state.Redis)

	sess := session.New(store, state.Logger)
	if err := sess.Init(state.Context); err != nil {
		state.Logger.Fatal("Failed to restore session", zap.Error(err))
	}

	api := transport.New(state.Config.API, sess, state.Logger)
	public := transport.NewPublic(state.Config.API, state.Logger)

	client := queries.New(queries.Deps{
		API:          api,
		Public:       public,
		Store:        cache.New(state.Logger),
		Session:      sess,
		Saved:        savedposts.New(store, sess, state.Logger),
		Notify:       notify.LogNotifier{Log: state.Logger},
		Validate:     state.Validator,
		Log:          state.Logger,
		MinFeedItems: state.Config.API.MinFeedItems,
	})

	// A 401 means the token is dead: drop it so the next auth state
	// change wipes the cache below.
	api.OnUnauthorized(func() {
		if err := sess.Clear(state.Context); err != nil {
			state.Logger.Warn("Failed to clear session", zap.Error(err))
		}
	})

	// Cached data is personalized; none of it survives a login or
	// logout.
	sess.Subscribe(func() {
		client.Store().Remove(cache.All())
	})

	if sess.IsAuthenticated() {
		feed := client.Feed()
		if _, err := feed.Get(state.Context); err != nil {
			state.Logger.Warn("Initial feed fetch failed", zap.Error(err))
		}

		state.Logger.Info("Feed warmed",
			zap.String("userId", sess.UserID()),
			zap.Int("posts", len(feed.Items())),
		)
	} else {
		explore := client.PublicPosts()
		if _, err := explore.Get(state.Context); err != nil {
			state.Logger.Warn("Explore fetch failed", zap.Error(err))
		}

		state.Logger.Info("Explore warmed", zap.Int("posts", len(explore.Items())))
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	state.Logger.Info("Shutting down")
}
