package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ashureev/briefbot/internal/config"
	"github.com/ashureev/briefbot/internal/telegram"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the Telegram webhook registration",
}

var webhookSetCmd = &cobra.Command{
	Use:   "set [url]",
	Short: "Point the bot's webhook at url (default TELEGRAM_WEBHOOK_URL)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, tg, err := connect()
		if err != nil {
			return err
		}
		url := cfg.Telegram.WebhookURL
		if len(args) == 1 {
			url = args[0]
		}
		if url == "" {
			return errors.New("no webhook url: pass one or set TELEGRAM_WEBHOOK_URL")
		}
		return tg.SetWebhook(url, cfg.Telegram.WebhookSecret)
	},
}

var webhookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the bot's webhook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, tg, err := connect()
		if err != nil {
			return err
		}
		drop, _ := cmd.Flags().GetBool("drop-pending")
		return tg.DeleteWebhook(drop)
	},
}

func init() {
	webhookDeleteCmd.Flags().Bool("drop-pending", false, "discard updates Telegram has queued")
	webhookCmd.AddCommand(webhookSetCmd, webhookDeleteCmd)
}

func connect() (*config.Config, *telegram.Messenger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireTelegram(); err != nil {
		return nil, nil, err
	}
	bot, err := telegram.NewBot(cfg.Telegram.Token)
	if err != nil {
		return nil, nil, err
	}
	return cfg, telegram.NewMessenger(bot), nil
}
