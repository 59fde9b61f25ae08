package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bankconv/internal/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUpstream(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(Config{
		BaseURL:      baseURL,
		Timeout:      time.Second,
		PollInterval: 3 * time.Second,
		PollDeadline: 90 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegister_SendsIdentityAndReturnsStatus(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	status, err := c.Register(context.Background(), identity.Identity{
		Email:     "x@example.test",
		Password:  "secret123456",
		FirstName: "jane",
		LastName:  "doe",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "x@example.test", got["email"])
	assert.Equal(t, "secret123456", got["password"])
	assert.Equal(t, "jane", got["firstName"])
	assert.Equal(t, "doe", got["lastName"])
	// referredBy is always present, even when empty
	_, ok := got["referredBy"]
	assert.True(t, ok)
}

func TestRegister_BusinessRejectionIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	status, err := c.Register(context.Background(), identity.Identity{Email: "dup@example.test"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, status)
}

func TestRegister_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused

	c := newTestUpstream(t, srv.URL)
	_, err := c.Register(context.Background(), identity.Identity{Email: "x@example.test"})
	assert.Error(t, err)
}

func TestActivate_FollowsRedirects(t *testing.T) {
	hits := []string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		switch r.URL.Path {
		case "/verify":
			http.Redirect(w, r, "/step2", http.StatusFound)
		case "/step2":
			http.Redirect(w, r, "/done", http.StatusFound)
		default:
			fmt.Fprint(w, "verified")
		}
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	err := c.Activate(context.Background(), srv.URL+"/verify")
	require.NoError(t, err)
	assert.Equal(t, []string{"/verify", "/step2", "/done"}, hits)
}

func TestActivate_NonErrorResponseCountsAsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	assert.NoError(t, c.Activate(context.Background(), srv.URL+"/verify"))
}

func TestActivate_RedirectCeiling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	assert.Error(t, c.Activate(context.Background(), srv.URL+"/loop"))
}

func TestLogin_ReturnsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login", r.URL.Path)
		fmt.Fprint(w, `{"token": "bearer-abc"}`)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	token, err := c.Login(context.Background(), "x@example.test", "pw")
	require.NoError(t, err)
	assert.Equal(t, "bearer-abc", token)
}

func TestLogin_MissingTokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message": "welcome"}`)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	_, err := c.Login(context.Background(), "x@example.test", "pw")
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestLogin_Non2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestUpstream(t, srv.URL)
	_, err := c.Login(context.Background(), "x@example.test", "pw")
	assert.Error(t, err)
}
