package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/quailyquaily/slackmate/internal/bot"
	"github.com/quailyquaily/slackmate/internal/configutil"
	"github.com/quailyquaily/slackmate/internal/healthcheck"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Slack Events API webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			signingSecret := strings.TrimSpace(configutil.FlagOrViperString(cmd, "signing-secret", "slack.signing_secret"))
			if signingSecret == "" {
				return fmt.Errorf("missing slack.signing_secret (set via --signing-secret or SLACKMATE_SLACK_SIGNING_SECRET)")
			}

			rt, err := buildRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			startHealthServer(cmd, rt)

			listen := strings.TrimSpace(configutil.FlagOrViperString(cmd, "listen", "webhook.listen"))
			path := strings.TrimSpace(viper.GetString("webhook.path"))
			if path == "" {
				path = "/slack/events"
			}

			mux := http.NewServeMux()
			mux.Handle(path, bot.NewWebhookHandler(cmd.Context(), signingSecret, rt.router, rt.logger))

			server := &http.Server{
				Addr:              listen,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				<-cmd.Context().Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			rt.logger.Info("webhook_listening", "addr", listen, "path", path)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().String("listen", "", "Webhook listen address (host:port).")
	cmd.Flags().String("signing-secret", "", "Slack signing secret for request verification.")
	cmd.Flags().String("slack-bot-token", "", "Slack bot token (xoxb-...).")
	cmd.Flags().String("health-listen", "", "Health endpoint listen address (empty disables).")

	return cmd
}

func startHealthServer(cmd *cobra.Command, rt *runtime) {
	healthListen := healthcheck.NormalizeListen(configutil.FlagOrViperString(cmd, "health-listen", "health.listen"))
	if healthListen == "" {
		return
	}
	healthServer, err := healthcheck.StartServer(cmd.Context(), rt.logger, healthListen, cmd.Name())
	if err != nil {
		rt.logger.Warn("health_server_start_error", "addr", healthListen, "error", err.Error())
		return
	}
	rt.cleanup = append(rt.cleanup, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = healthServer.Shutdown(shutdownCtx)
	})
}
