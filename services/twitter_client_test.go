package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *TwitterClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTwitterClient(srv.URL, "client-id", "client-secret")
}

func TestResolveUserID(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/by/username/academy", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]string{"id": "42", "username": "academy"},
		})
	})

	id, err := client.ResolveUserID(context.Background(), "tok", "academy")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}

func TestResolveUserIDEmptyBody(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := client.ResolveUserID(context.Background(), "tok", "ghost")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestListFollowingPagination(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/42/following", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("max_results"))
		assert.Equal(t, "cursor-1", r.URL.Query().Get("pagination_token"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"id": "7", "username": "someone"}},
			"meta": map[string]string{"next_token": "cursor-2"},
		})
	})

	users, next, err := client.ListFollowing(context.Background(), "tok", "42", "cursor-1")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "7", users[0].ID)
	assert.Equal(t, "cursor-2", next)
}

func TestListFollowingFirstPageOmitsCursor(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["pagination_token"]
		assert.False(t, present, "first page must not send a pagination token")
		w.Write([]byte(`{"data":[]}`))
	})

	_, next, err := client.ListFollowing(context.Background(), "tok", "42", "")
	require.NoError(t, err)
	assert.Empty(t, next)
}

func TestListRecentPostsRequestsReferenceFields(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2/users/42/tweets", r.URL.Path)
		assert.Equal(t, "referenced_tweets,entities", r.URL.Query().Get("tweet.fields"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"id":   "t1",
				"text": "hello #world",
				"referenced_tweets": []map[string]string{
					{"type": "retweeted", "id": "t0"},
				},
				"entities": map[string]any{
					"hashtags": []map[string]string{{"tag": "world"}},
				},
			}},
		})
	})

	posts, err := client.ListRecentPosts(context.Background(), "tok", "42")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "retweeted", posts[0].ReferencedTweets[0].Type)
	assert.Equal(t, "world", posts[0].Entities.Hashtags[0].Tag)
}

func TestRefreshTokenForm(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/2/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		json.NewEncoder(w).Encode(TokenGrant{
			AccessToken:  "new-access",
			ExpiresIn:    7200,
			RefreshToken: "new-refresh",
		})
	})

	grant, err := client.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", grant.AccessToken)
	assert.Equal(t, 7200, grant.ExpiresIn)
	assert.Equal(t, "new-refresh", grant.RefreshToken)
}

func TestRefreshTokenMissingAccessToken(t *testing.T) {
	client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"expires_in":3600}`))
	})

	_, err := client.RefreshToken(context.Background(), "old-refresh")
	assert.Equal(t, KindExternalAuth, KindOf(err))
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindExternalAuth},
		{http.StatusForbidden, KindExternalAuth},
		{http.StatusTooManyRequests, KindExternalRateLimit},
		{http.StatusInternalServerError, KindExternalTransient},
		{http.StatusBadGateway, KindExternalTransient},
	}
	for _, tt := range tests {
		client := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(`{"title":"nope"}`))
		})

		_, err := client.ResolveUserID(context.Background(), "tok", "academy")
		assert.Equalf(t, tt.want, KindOf(err), "status %d", tt.status)
	}
}
