package queries

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"vistagram/cache"
	"vistagram/kv"
	"vistagram/savedposts"
	"vistagram/session"
	"vistagram/types"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/golang-jwt/jwt/v5"
	"github.com/infinitybotlist/eureka/jsonimpl"
	"github.com/infinitybotlist/eureka/snippets"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeAPI routes "METHOD path" to canned responses. Anything without a
// stub fails with a 404-shaped APIError, which conveniently makes
// background reconciliation refetches keep the cached state instead of
// clobbering the values under test.
type fakeAPI struct {
	mu       sync.Mutex
	handlers map[string]func(body any) (any, error)
	calls    []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{handlers: make(map[string]func(body any) (any, error))}
}

func (f *fakeAPI) stub(method, path string, resp any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = func(any) (any, error) { return resp, nil }
}

func (f *fakeAPI) stubFn(method, path string, fn func(body any) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = fn
}

func (f *fakeAPI) fail(method, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method+" "+path] = func(any) (any, error) { return nil, err }
}

func (f *fakeAPI) called(method, path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := method + " " + path
	for _, c := range f.calls {
		if c == want {
			return true
		}
	}
	return false
}

func (f *fakeAPI) respond(method, path string, out any) error {
	f.mu.Lock()
	h, ok := f.handlers[method+" "+path]
	f.calls = append(f.calls, method+" "+path)
	f.mu.Unlock()

	if !ok {
		return &types.APIError{Status: 404, Message: "Not found"}
	}

	resp, err := h(nil)
	if err != nil {
		return err
	}
	if out == nil || resp == nil {
		return nil
	}

	b, err := jsonimpl.Marshal(resp)
	if err != nil {
		return err
	}
	return jsonimpl.Unmarshal(b, out)
}

func (f *fakeAPI) Get(_ context.Context, path string, _ url.Values, out any) error {
	return f.respond("GET", path, out)
}

func (f *fakeAPI) Post(_ context.Context, path string, _ any, out any) error {
	return f.respond("POST", path, out)
}

func (f *fakeAPI) Patch(_ context.Context, path string, _ any, out any) error {
	return f.respond("PATCH", path, out)
}

func (f *fakeAPI) Delete(_ context.Context, path string, out any) error {
	return f.respond("DELETE", path, out)
}

type toastRecorder struct {
	mu     sync.Mutex
	errors []string
	oks    []string
}

func (r *toastRecorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oks = append(r.oks, msg)
}

func (r *toastRecorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *toastRecorder) lastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errors) == 0 {
		return ""
	}
	return r.errors[len(r.errors)-1]
}

func testValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("nospaces", snippets.ValidatorNoSpaces)
	v.RegisterValidation("https", snippets.ValidatorIsHttps)
	v.RegisterValidation("httporhttps", snippets.ValidatorIsHttpOrHttps)
	return v
}

func testToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fixture struct {
	client *Client
	api    *fakeAPI
	store  *cache.Store
	sess   *session.Session
	kv     *kv.Memory
	toasts *toastRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := zap.NewNop()
	mem := kv.NewMemory()

	sess := session.New(mem, log)
	require.NoError(t, sess.SetToken(context.Background(), testToken(t, "u1")))

	api := newFakeAPI()
	store := cache.New(log)
	toasts := &toastRecorder{}

	client := New(Deps{
		API:      api,
		Store:    store,
		Session:  sess,
		Saved:    savedposts.New(mem, sess, log),
		Notify:   toasts,
		Validate: testValidator(),
		Log:      log,
	})

	return &fixture{client: client, api: api, store: store, sess: sess, kv: mem, toasts: toasts}
}

func postPayload(id string, likeCount, commentCount int, likedByMe bool) map[string]any {
	return map[string]any{
		"id":           id,
		"imageUrl":     "https://cdn.example.com/" + id + ".jpg",
		"caption":      "caption " + id,
		"likeCount":    likeCount,
		"commentCount": commentCount,
		"likedByMe":    likedByMe,
		"author":       map[string]any{"id": "u2", "username": "ana", "name": "Ana"},
		"createdAt":    "2024-05-01T10:00:00Z",
	}
}

func feedPayload(posts ...map[string]any) map[string]any {
	items := make([]any, 0, len(posts))
	for _, p := range posts {
		items = append(items, p)
	}
	return map[string]any{
		"posts": items,
		"pagination": map[string]any{
			"page": 1, "limit": 20, "total": len(posts), "totalPages": 1,
		},
	}
}

func (f *fixture) seedFeed(t *testing.T, posts ...map[string]any) {
	t.Helper()
	f.api.stub("GET", "/api/feed", feedPayload(posts...))
	_, err := f.client.Feed().Get(context.Background())
	require.NoError(t, err)
	// Drop the stub again so background refetches cannot rewrite the
	// state mid-assertion.
	f.api.fail("GET", "/api/feed", &types.APIError{Status: 503, Message: "unavailable"})
}

func (f *fixture) feedPost(t *testing.T, id string) types.Post {
	t.Helper()
	paged, ok := cache.Value[types.Paged[types.Post]](f.store, cache.Feed())
	require.True(t, ok)
	for _, page := range paged.Pages {
		for _, post := range page.Items {
			if post.ID == id {
				return post
			}
		}
	}
	t.Fatalf("post %s not in cached feed", id)
	return types.Post{}
}
