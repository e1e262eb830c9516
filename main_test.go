package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bloghub-go/auth"
	"github.com/user/bloghub-go/config"
	"github.com/user/bloghub-go/live"
	"github.com/user/bloghub-go/posts"
	"github.com/user/bloghub-go/users"
)

func newTestRouter(hub *live.Hub) http.Handler {
	cfg := &config.AppConfig{
		Auth:   &config.AuthConfig{JWTSecret: "test-secret", TokenDuration: time.Hour},
		Server: &config.ServerConfig{AllowedOrigins: []string{"*"}},
	}
	return newRouter(cfg, auth.NewHandlers(nil), users.NewHandlers(nil), posts.NewHandlers(nil), hub)
}

func TestHealthzReportsLiveClients(t *testing.T) {
	hub := live.NewHub(1)
	h := newTestRouter(hub)

	get := func() map[string]any {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	body := get()
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["live_clients"])

	id, _ := hub.Subscribe()
	assert.Equal(t, float64(1), get()["live_clients"])
	hub.Unsubscribe(id)
	assert.Equal(t, float64(0), get()["live_clients"])
}

func TestLiveStreamRequiresToken(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(live.NewHub(1)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/posts/live", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
