package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"vistagram/config"
	"vistagram/kv"
	"vistagram/session"
	"vistagram/types"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) config.API {
	return config.API{
		BaseURL:           baseURL,
		Env:               "development",
		TimeoutSeconds:    5,
		RequestsPerSecond: 1000,
		Burst:             100,
	}
}

func authedSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New(kv.NewMemory(), zap.NewNop())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": "u1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	require.NoError(t, sess.SetToken(context.Background(), token))
	return sess
}

func TestGetDecodesEnvelopeData(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/feed", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Write([]byte(`{"success":true,"data":{"value":"hello"}}`))
	}))
	defer srv.Close()

	sess := authedSession(t)
	c := New(testConfig(srv.URL), sess, zap.NewNop())

	var out struct {
		Value string `json:"value"`
	}
	err := c.Get(context.Background(), "/api/feed", url.Values{"page": {"2"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello", out.Value)
	assert.Equal(t, "Bearer "+sess.Token(), gotAuth)
}

func TestPublicClientSendsNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewPublic(testConfig(srv.URL), zap.NewNop())
	require.NoError(t, c.Get(context.Background(), "/api/posts", nil, nil))
}

func TestEnvelopeFailureBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 with success=false still counts as a failure.
		w.Write([]byte(`{"success":false,"message":"Nope"}`))
	}))
	defer srv.Close()

	c := NewPublic(testConfig(srv.URL), zap.NewNop())
	err := c.Post(context.Background(), "/api/posts", map[string]string{"a": "b"}, nil)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Nope", apiErr.Message)
}

func TestValidationFieldsDecoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"message":"Validation failed","data":[{"field":"caption","message":"too long"},{"path":"imageUrl","msg":"not a url"}]}`))
	}))
	defer srv.Close()

	c := NewPublic(testConfig(srv.URL), zap.NewNop())
	err := c.Post(context.Background(), "/api/posts", nil, nil)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 422, apiErr.Status)
	require.Len(t, apiErr.Fields, 2)
	assert.Equal(t, "caption", apiErr.Fields[0].Name())
	assert.Equal(t, "too long", apiErr.Fields[0].Text())
	assert.Equal(t, "imageUrl", apiErr.Fields[1].Name())
	assert.Equal(t, "not a url", apiErr.Fields[1].Text())
}

func TestUnauthorizedFiresHookOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Session expired"}`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL), authedSession(t), zap.NewNop())

	fired := 0
	c.OnUnauthorized(func() { fired++ })

	err := c.Get(context.Background(), "/api/me", nil, nil)
	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.Equal(t, 1, fired)
}

func TestUnenvelopedErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`upstream exploded`))
	}))
	defer srv.Close()

	c := NewPublic(testConfig(srv.URL), zap.NewNop())
	err := c.Get(context.Background(), "/api/feed", nil, nil)

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.True(t, apiErr.IsServerError())
}
