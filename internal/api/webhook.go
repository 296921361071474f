package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/go-chi/chi/v5"

	"github.com/ashureev/briefbot/internal/intake"
	"github.com/ashureev/briefbot/internal/middleware"
	"github.com/ashureev/briefbot/internal/telegram"
)

// WebhookPath is where Telegram posts updates.
const WebhookPath = "/telegram/webhook"

// handleTimeout bounds one update. Handling is detached from the request so a
// Telegram disconnect does not abort a half-applied transition.
const handleTimeout = 30 * time.Second

// maxUpdateBytes caps webhook bodies.
const maxUpdateBytes = 1 << 20

// EventHandler applies one wizard event.
type EventHandler interface {
	Handle(ctx context.Context, ev intake.Event) error
}

// UpdateDecoder turns a Telegram update into a wizard event.
type UpdateDecoder interface {
	Event(u tgbotapi.Update) (intake.Event, bool)
}

// WebhookRegistrar registers the bot's webhook with Telegram.
type WebhookRegistrar interface {
	SetWebhook(url, secret string) error
}

// Limiter decides whether a user's update may be processed.
type Limiter interface {
	Allow(key string) bool
}

// WebhookObserver records webhook metrics.
type WebhookObserver interface {
	ObserveWebhook(d time.Duration)
	IncThrottle()
}

// WebhookConfig wires a WebhookHandler.
type WebhookConfig struct {
	Events    EventHandler
	Decoder   UpdateDecoder
	Registrar WebhookRegistrar
	Limiter   Limiter
	Observer  WebhookObserver
	URL       string
	Secret    string
}

// WebhookHandler receives Telegram updates and registers the webhook.
type WebhookHandler struct {
	cfg WebhookConfig
}

// NewWebhookHandler creates a webhook handler. Limiter and Observer are optional.
func NewWebhookHandler(cfg WebhookConfig) *WebhookHandler {
	return &WebhookHandler{cfg: cfg}
}

// RegisterRoutes registers the webhook routes. Only POST is guarded by the
// secret token; Telegram never sends GET.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.WebhookSecret(h.cfg.Secret)).Post(WebhookPath, h.Receive)
	r.Get(WebhookPath, h.Register)
}

// Receive handles one update. It always answers 200 so Telegram does not
// redeliver updates the bot has already dealt with or cannot use.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	defer func() {
		if h.cfg.Observer != nil {
			h.cfg.Observer.ObserveWebhook(time.Since(started))
		}
	}()

	u, err := telegram.DecodeUpdate(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	if err != nil {
		slog.Warn("Dropping undecodable update", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	userID := telegram.UserID(u)
	if userID != "" && h.cfg.Limiter != nil && !h.cfg.Limiter.Allow(userID) {
		slog.Debug("Update throttled", "user_id", userID, "update_id", u.UpdateID)
		if h.cfg.Observer != nil {
			h.cfg.Observer.IncThrottle()
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, ok := h.cfg.Decoder.Event(u)
	if !ok {
		slog.Debug("Ignoring update", "update_id", u.UpdateID)
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), handleTimeout)
	defer cancel()

	// Internal errors are logged by the controller.
	if err := h.cfg.Events.Handle(ctx, ev); err != nil && intake.IsUserError(err) {
		slog.Debug("Event rejected", "user_id", ev.UserID, "kind", ev.Kind, "reason", err)
	}
	w.WriteHeader(http.StatusOK)
}

// Register points the bot's webhook at the configured URL.
func (h *WebhookHandler) Register(w http.ResponseWriter, _ *http.Request) {
	if h.cfg.URL == "" {
		Error(w, http.StatusBadRequest, "TELEGRAM_WEBHOOK_URL is not configured")
		return
	}
	if err := h.cfg.Registrar.SetWebhook(h.cfg.URL, h.cfg.Secret); err != nil {
		slog.Error("Webhook registration failed", "url", h.cfg.URL, "error", err)
		Error(w, http.StatusBadGateway, "webhook registration failed")
		return
	}
	JSON(w, http.StatusOK, map[string]any{"ok": true, "url": h.cfg.URL})
}
