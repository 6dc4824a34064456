package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedbacksurvey/internal/app"
	"feedbacksurvey/internal/cli"
	"feedbacksurvey/internal/config"
	"feedbacksurvey/internal/transport/telegram"
)

const shutdownTimeout = 30 * time.Second

// @title			Feedback Survey API
// @version		1.0
// @description	Hosted customer feedback survey sessions
// @host			localhost:8080
// @BasePath		/v1
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts         cli.Options
		port         string
		withTelegram bool
	)

	cmd := &cobra.Command{
		Use:   "survey-server",
		Short: "Serve the feedback survey REST and WebSocket API",
		Long: `Hosts survey sessions over HTTP. Respondents create a session, walk the
questionnaire and submit; hosts log in to read responses and statistics.

With --telegram the same sessions are also offered through the Telegram bot.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.Load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if port != "" {
				cfg.HTTP.Port = port
			}
			return serve(cmd.Context(), cfg, log, withTelegram)
		},
	}
	opts.Bind(cmd)
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (overrides config and PORT)")
	cmd.Flags().BoolVar(&withTelegram, "telegram", false, "also run the Telegram bot (needs a bot token)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, withTelegram bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", zap.Error(err))
		return err
	}

	go a.Sessions.Run(ctx)

	var bot *telegram.Bot
	if withTelegram {
		if cfg.Telegram.Token == "" {
			a.Close(context.Background())
			return errors.New("--telegram requires TELEGRAM_TOKEN or telegram.token")
		}
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			a.Close(context.Background())
			return err
		}
		api.Debug = cfg.Telegram.Debug
		bot = telegram.New(api, a.Sessions, log)
		go bot.Poll(ctx, api)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("host_username", cfg.Auth.HostUsername),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case serveErr = <-errCh:
		log.Error("server failed", zap.Error(serveErr))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if bot != nil {
		bot.Wait()
	}
	a.Close(shutdownCtx)

	log.Info("server exited")
	return serveErr
}
