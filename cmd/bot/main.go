package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbacksurvey/internal/app"
	"feedbacksurvey/internal/cli"
	"feedbacksurvey/internal/transport/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts  cli.Options
		token string
		debug bool
	)

	cmd := &cobra.Command{
		Use:          "survey-bot",
		Short:        "Run the feedback survey as a Telegram bot",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if token != "" {
				cfg.Telegram.Token = token
			}
			if debug {
				cfg.Telegram.Debug = true
			}
			if cfg.Telegram.Token == "" {
				return errors.New("telegram token is required (--token, TELEGRAM_TOKEN or telegram.token)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
			if err != nil {
				log.Error("telegram authorization failed", zap.Error(err))
				return err
			}
			api.Debug = cfg.Telegram.Debug

			go a.Sessions.Run(ctx)
			telegram.New(api, a.Sessions, log).Poll(ctx, api)
			log.Info("bot stopped")
			return nil
		},
	}
	opts.Bind(cmd)
	cmd.Flags().StringVar(&token, "token", "", "Telegram bot token")
	cmd.Flags().BoolVar(&debug, "debug", false, "log Bot API traffic")
	return cmd
}
