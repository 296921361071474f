package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestWebhookSecret(t *testing.T) {
	h := WebhookSecret("s3cret")(okHandler())

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"matching", "s3cret", http.StatusOK},
		{"wrong", "guess", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/telegram/webhook", nil)
			if tt.header != "" {
				r.Header.Set(SecretTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestWebhookSecretDisabled(t *testing.T) {
	h := WebhookSecret("")(okHandler())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Now()

	assert.True(t, rl.AllowAt("a", now))
	assert.True(t, rl.AllowAt("a", now))
	assert.False(t, rl.AllowAt("a", now), "burst exhausted")
	assert.True(t, rl.AllowAt("b", now), "other keys have their own bucket")

	assert.True(t, rl.AllowAt("a", now.Add(time.Second)), "bucket refills")
}
