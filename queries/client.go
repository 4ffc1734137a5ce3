// Package queries exposes one accessor per query and mutation: the only
// contract the UI layer depends on. Queries hand back cached data with
// staleness handled internally; mutations apply optimistically, roll
// back on failure and reconcile with server truth afterwards.
package queries

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"vistagram/cache"
	"vistagram/constants"
	"vistagram/normalize"
	"vistagram/notify"
	"vistagram/savedposts"
	"vistagram/session"
	"vistagram/types"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// API is the slice of the transport the queries need; tests plug in a
// fake.
type API interface {
	Get(ctx context.Context, path string, params url.Values, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Patch(ctx context.Context, path string, body any, out any) error
	Delete(ctx context.Context, path string, out any) error
}

type Deps struct {
	API      API
	Public   API // unauthenticated client for logged-out endpoints
	Store    *cache.Store
	Session  *session.Session
	Saved    *savedposts.Store
	Notify   notify.Notifier
	Validate *validator.Validate
	Log      *zap.Logger

	// MinFeedItems pads a short first feed page from the public posts
	// listing; 0 disables the fallback (production default).
	MinFeedItems int
}

type Client struct {
	api          API
	public       API
	store        *cache.Store
	session      *session.Session
	saved        *savedposts.Store
	notify       notify.Notifier
	validate     *validator.Validate
	log          *zap.Logger
	minFeedItems int
}

func New(d Deps) *Client {
	if d.Public == nil {
		d.Public = d.API
	}

	return &Client{
		api:          d.API,
		public:       d.Public,
		store:        d.Store,
		session:      d.Session,
		saved:        d.Saved,
		notify:       d.Notify,
		validate:     d.Validate,
		log:          d.Log,
		minFeedItems: d.MinFeedItems,
	}
}

// Store exposes the cache to the wiring layer (session change hooks
// clear it on logout).
func (c *Client) Store() *cache.Store { return c.store }

func pageParams(page int) url.Values {
	return url.Values{
		"page":  []string{strconv.Itoa(page)},
		"limit": []string{strconv.Itoa(constants.PaginationLimit)},
	}
}

func postID(p types.Post) string         { return p.ID }
func commentID(c types.Comment) string   { return c.ID }
func listUserID(u types.ListUser) string { return u.ID }
func likeUserID(u types.LikeUser) string { return u.ID }

// fetchPostPage pulls one page of a post list and normalizes every
// item. pctx is applied per item with the item's own prior state.
func (c *Client) fetchPostPage(ctx context.Context, api API, path string, page int, pctx func(id string) normalize.PostContext) (types.Page[types.Post], error) {
	var data map[string]any
	if err := api.Get(ctx, path, pageParams(page), &data); err != nil {
		return types.Page[types.Post]{}, err
	}

	items, pagRaw := normalize.PaginatedList(data)

	posts := make([]types.Post, 0, len(items))
	for _, raw := range items {
		var itemCtx normalize.PostContext
		if pctx != nil {
			id, _ := raw["id"].(string)
			if id == "" {
				id = fmt.Sprint(raw["id"])
			}
			itemCtx = pctx(id)
		}

		post, err := normalize.Post(raw, itemCtx)
		if err != nil {
			return types.Page[types.Post]{}, err
		}
		posts = append(posts, post)
	}

	return types.Page[types.Post]{
		Items:      posts,
		Pagination: normalize.Pagination(pagRaw, page, constants.PaginationLimit),
	}, nil
}

func (c *Client) fetchUserPage(ctx context.Context, path string, page int, extra url.Values) (types.Page[types.ListUser], error) {
	params := pageParams(page)
	for k, vs := range extra {
		params[k] = vs
	}

	var data map[string]any
	if err := c.api.Get(ctx, path, params, &data); err != nil {
		return types.Page[types.ListUser]{}, err
	}

	items, pagRaw := normalize.PaginatedList(data)

	users := make([]types.ListUser, 0, len(items))
	for _, raw := range items {
		user, err := normalize.ListUser(raw)
		if err != nil {
			return types.Page[types.ListUser]{}, err
		}
		users = append(users, user)
	}

	return types.Page[types.ListUser]{
		Items:      users,
		Pagination: normalize.Pagination(pagRaw, page, constants.PaginationLimit),
	}, nil
}

// background runs a reconciliation refetch detached from the mutation's
// context: the mutation has settled, truth-syncing continues regardless.
func (c *Client) background(source string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(context.Background()); err != nil {
			c.log.Debug("Background refetch failed",
				zap.String("source", source), zap.Error(err))
		}
	}()
}

// patchPost applies fn to the post wherever the feed and the standalone
// detail entry hold it, back to back in one synchronous pass, so no
// repaint sees the two views diverge.
func (c *Client) patchPost(id string, fn func(types.Post) types.Post) {
	guarded := func(p types.Post) types.Post {
		if p.ID != id {
			return p
		}
		return fn(p)
	}

	cache.Patch[types.Paged[types.Post]](c.store, cache.Feed(), func(paged types.Paged[types.Post]) types.Paged[types.Post] {
		return patchPages(paged, guarded)
	})

	cache.Patch[types.Post](c.store, cache.PostDetail(id), guarded)
}

// patchPages rebuilds a paged collection with fn applied to every item.
func patchPages[T any](paged types.Paged[T], fn func(T) T) types.Paged[T] {
	pages := make([]types.Page[T], len(paged.Pages))
	for i, page := range paged.Pages {
		items := make([]T, len(page.Items))
		for j, item := range page.Items {
			items[j] = fn(item)
		}
		pages[i] = types.Page[T]{Items: items, Pagination: page.Pagination}
	}
	return types.Paged[T]{Pages: pages}
}
