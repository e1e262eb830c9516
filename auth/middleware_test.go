package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/bloghub-go/config"
)

func TestJWTMiddleware(t *testing.T) {
	cfg := &config.AuthConfig{JWTSecret: testSecret}
	var seen string
	h := JWTMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ViewerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	access, err := signToken(testSecret, &User{ID: 1, Username: "alice"}, tokenTypeAccess, time.Hour, time.Now())
	require.NoError(t, err)
	reset, err := signToken(testSecret, &User{ID: 1, Username: "alice"}, tokenTypeReset, time.Hour, time.Now())
	require.NoError(t, err)
	anonymous, err := signToken(testSecret, &User{ID: 1}, tokenTypeAccess, time.Hour, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"reset token", "Bearer " + reset, http.StatusUnauthorized},
		{"no username claim", "Bearer " + anonymous, http.StatusUnauthorized},
		{"valid", "Bearer " + access, http.StatusNoContent},
		{"lowercase scheme", "bearer " + access, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "alice", seen)
			} else {
				assert.Empty(t, seen)
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}
