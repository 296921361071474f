package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/briefbot/internal/api"
	"github.com/ashureev/briefbot/internal/cleanup"
	"github.com/ashureev/briefbot/internal/config"
	"github.com/ashureev/briefbot/internal/intake"
	"github.com/ashureev/briefbot/internal/metrics"
	"github.com/ashureev/briefbot/internal/middleware"
	"github.com/ashureev/briefbot/internal/operator"
	"github.com/ashureev/briefbot/internal/store"
	"github.com/ashureev/briefbot/internal/telegram"
	"github.com/ashureev/briefbot/internal/wizard"
	"github.com/ashureev/briefbot/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Run the HTTP server that receives Telegram updates.

With --register the webhook is pointed at TELEGRAM_WEBHOOK_URL on startup.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("register", false, "register TELEGRAM_WEBHOOK_URL with Telegram on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	slog.Info("Starting server", "port", cfg.Port, "container", config.IsContainer(), "edit_window", cfg.EditWindow)

	graph, err := loadGraph(cfg.WizardFile)
	if err != nil {
		return err
	}

	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close store", "error", closeErr)
		}
	}()

	if err := repo.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	slog.Info("Database connected", "path", cfg.DBPath)

	bot, err := telegram.NewBot(cfg.Telegram.Token)
	if err != nil {
		return err
	}
	tg := telegram.NewMessenger(bot)
	slog.Info("Telegram bot connected", "username", bot.Self.UserName)

	if cfg.Telegram.OperatorChatID == "" {
		slog.Warn("OPERATOR_CHAT_ID not set, finished briefs will not be delivered")
	}

	rec := metrics.NewPrometheusRecorder()

	var messenger intake.Messenger = tg
	var feed, dashboard http.Handler
	if cfg.OperatorFeed {
		hub := operator.NewHub()
		defer hub.Close()
		messenger = operator.WithFeed(tg, hub)
		feed = operator.NewHandler(hub, cfg.OperatorFeedToken, nil)
		dashboard = web.DashboardHandler()
		slog.Info("Operator feed enabled", "feed", "/ws/operator", "dashboard", "/operator/")
	}

	ctrl := intake.NewController(graph, repo, messenger, intake.Options{
		ChannelID:  cfg.Telegram.OperatorChatID,
		EditWindow: cfg.EditWindow,
		Recorder:   rec,
	})

	router := api.NewRouter(api.RouterConfig{
		Webhook: api.NewWebhookHandler(api.WebhookConfig{
			Events:    ctrl,
			Decoder:   tg,
			Registrar: tg,
			Limiter:   middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
			Observer:  rec,
			URL:       cfg.Telegram.WebhookURL,
			Secret:    cfg.Telegram.WebhookSecret,
		}),
		Health:       api.NewHealthHandler(repo),
		Metrics:      rec.Handler(),
		OperatorFeed: feed,
		Dashboard:    dashboard,
	})

	if register, _ := cmd.Flags().GetBool("register"); register {
		if cfg.Telegram.WebhookURL == "" {
			return errors.New("--register needs TELEGRAM_WEBHOOK_URL")
		}
		if err := tg.SetWebhook(cfg.Telegram.WebhookURL, cfg.Telegram.WebhookSecret); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // operator feed websockets are long-lived
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reaperDone <-chan struct{}
	if cfg.EditWindow > 0 {
		reaperDone = cleanup.Start(ctx, repo, cfg.EditWindow, cfg.ReaperTick, rec.IncReaped)
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if reaperDone != nil {
		<-reaperDone
	}

	slog.Info("Server stopped successfully")
	return nil
}

func loadGraph(path string) (*wizard.Graph, error) {
	if path == "" {
		return wizard.Default(), nil
	}
	g, err := wizard.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load wizard %s: %w", path, err)
	}
	slog.Info("Wizard loaded", "path", path, "steps", len(g.Steps))
	return g, nil
}
