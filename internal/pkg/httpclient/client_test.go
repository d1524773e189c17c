package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	path    string
	headers http.Header
	body    map[string]interface{}
}

func TestDoSendsTokenHeadersAndBody(t *testing.T) {
	seen := make(chan seenRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := seenRequest{path: r.URL.Path, headers: r.Header.Clone()}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &req.body)
		seen <- req
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New().WithBaseURL(srv.URL + "/").WithRetryCount(0).WithHeader("X-Client", "checkout")
	resp, err := c.Put(context.Background(), "/things", "tok", map[string]string{"a": "b"},
		WithRequestHeader("Idempotency-Key", "k1"))
	require.NoError(t, err)

	assert.True(t, resp.OK())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))

	got := <-seen
	assert.Equal(t, "/things", got.path)
	assert.Equal(t, "Bearer tok", got.headers.Get("Authorization"))
	assert.Equal(t, "k1", got.headers.Get("Idempotency-Key"))
	assert.Equal(t, "checkout", got.headers.Get("X-Client"))
	assert.Equal(t, "application/json", got.headers.Get("Accept"))
	assert.Equal(t, map[string]interface{}{"a": "b"}, got.body)
}

func TestDoReturnsNon2xxWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	resp, err := New().WithBaseURL(srv.URL).WithRetryCount(0).Get(context.Background(), "/x", "")
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestTokenIsPerRequest(t *testing.T) {
	auth := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := New().WithBaseURL(srv.URL).WithRetryCount(0)
	_, err := c.Delete(context.Background(), "/x", "")
	require.NoError(t, err)
	assert.Empty(t, <-auth)

	_, err = c.Get(context.Background(), "/x", "tok")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", <-auth)
}
