// Package middleware provides HTTP middleware for the brief bot API.
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// SecretTokenHeader carries the secret Telegram echoes back on every webhook call.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecret returns middleware that rejects requests whose secret token
// header does not match secret. An empty secret disables the check.
func WebhookSecret(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(SecretTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				slog.Warn("Webhook call with bad secret token", "remote_addr", r.RemoteAddr)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
