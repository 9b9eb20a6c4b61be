package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "tok",
			"refresh_token": "ref",
			"expires_in": 3600,
			"token_type": "bearer",
			"user": {"id": "user-1", "email": "mgr@example.com"}
		}`))
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "anon-key")
	session, err := client.Login(context.Background(), "mgr@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok", session.AccessToken)
	assert.Equal(t, "user-1", session.User.ID)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "anon-key")
	_, err := client.Login(context.Background(), "mgr@example.com", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestVerifyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "user-1", "email": "mgr@example.com"}`))
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "anon-key")
	user, err := client.VerifyAccessToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "mgr@example.com", user.Email)
}

func TestVerifyAccessTokenEmptyUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewSupabaseClient(srv.URL, "anon-key")
	_, err := client.VerifyAccessToken(context.Background(), "tok")
	require.Error(t, err)
}
