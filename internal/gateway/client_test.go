package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret", "")
}

func TestPublishPost(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/posts", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "title", body["title"])
		assert.Equal(t, "content", body["content"])
		assert.Equal(t, "tokenarena", body["submolt"])

		w.Write([]byte(`{"id":"p-1","submolt":"tokenarena"}`))
	})

	id, err := c.PublishPost(context.Background(), "title", "content", "tokenarena")
	require.NoError(t, err)
	assert.Equal(t, "p-1", id)
}

func TestPublishPostWrappedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"post":{"id":"p-2","submolt":"x"}}`))
	})
	id, err := c.PublishPost(context.Background(), "t", "c", "x")
	require.NoError(t, err)
	assert.Equal(t, "p-2", id)
}

func TestPublishPostMissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	_, err := c.PublishPost(context.Background(), "t", "c", "x")
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "publish post", gerr.Op)
}

func TestFetchComments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/posts/p-1/comments", r.URL.Path)
		assert.Equal(t, "top", r.URL.Query().Get("sort"))
		w.Write([]byte(`[
			{"id":"c1","content":"gm","score":5,"agent":{"id":"a1","name":"alpha"}},
			{"id":"c2","content":"hi","score":3,"agent":null}
		]`))
	})

	entries, err := c.FetchComments(context.Background(), "p-1", SortTop)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c1", entries[0].CommentID)
	assert.Equal(t, "alpha", entries[0].AuthorName)
	assert.Equal(t, "a1", entries[0].AuthorID)
	assert.Equal(t, 5, entries[0].Score)
	assert.Equal(t, "", entries[1].AuthorName)
	assert.Empty(t, entries[0].Wallet)
}

func TestFetchCommentsWrappedAndEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"comments":[]}`))
	})
	entries, err := c.FetchComments(context.Background(), "p-1", SortTop)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishComment(t *testing.T) {
	var got string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/p-9/comments", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		got = string(b)
		w.Write([]byte(`{"success":true}`))
	})
	require.NoError(t, c.PublishComment(context.Background(), "p-9", "hello"))
	assert.JSONEq(t, `{"content":"hello"}`, got)
}

func TestNonSuccessStatusCarriesStatusAndBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`slow down`))
	})

	err := c.PublishComment(context.Background(), "p", "x")
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, http.StatusTooManyRequests, gerr.StatusCode)
	assert.Equal(t, "slow down", gerr.Body)
	assert.Contains(t, err.Error(), "429")
}

func TestNoRetryOnFailure(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.FetchComments(context.Background(), "p", SortTop)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestTransportFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k", "")
	_, err := c.PublishPost(context.Background(), "t", "c", "x")
	var gerr *Error
	require.True(t, errors.As(err, &gerr))
	assert.Zero(t, gerr.StatusCode)
	assert.NotNil(t, gerr.Unwrap())
}

func TestRegisterAgentIsUnauthenticated(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/agents/register", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"agent":{"api_key":"k-1","claim_url":"https://claim","verification_code":"v"}}`))
	})
	reg, err := c.RegisterAgent(context.Background(), "arena", "runs battles")
	require.NoError(t, err)
	assert.Equal(t, "k-1", reg.APIKey)
	assert.Equal(t, "https://claim", reg.ClaimURL)
}

func TestCreateCategoryConflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submolts", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"exists"}`))
	})
	err := c.CreateCategory(context.Background(), ArenaCategory("tokenarena", "100"))
	assert.ErrorIs(t, err, ErrCategoryExists)
}
