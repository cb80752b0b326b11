package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quailyquaily/slackmate/internal/configutil"
	"github.com/quailyquaily/slackmate/internal/events"
	"github.com/spf13/cobra"
)

const socketReconnectDelay = 2 * time.Second

func newSocketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "socket",
		Short: "Run against Slack with Socket Mode (no public endpoint needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			appToken := strings.TrimSpace(configutil.FlagOrViperString(cmd, "slack-app-token", "slack.app_token"))
			if appToken == "" {
				return fmt.Errorf("missing slack.app_token (set via --slack-app-token or SLACKMATE_SLACK_APP_TOKEN)")
			}

			rt, err := buildRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			startHealthServer(cmd, rt)

			ctx := cmd.Context()
			for {
				if ctx.Err() != nil {
					return nil
				}
				conn, err := rt.slack.ConnectSocket(ctx)
				if err != nil {
					rt.logger.Warn("socket_connect_failed", "error", err.Error())
					if sleepErr := sleepCtx(ctx, socketReconnectDelay); sleepErr != nil {
						return nil
					}
					continue
				}
				rt.logger.Info("socket_connected")
				runSocketSession(ctx, rt, conn)
				_ = conn.Close()
				if sleepErr := sleepCtx(ctx, socketReconnectDelay); sleepErr != nil {
					return nil
				}
			}
		},
	}

	cmd.Flags().String("slack-bot-token", "", "Slack bot token (xoxb-...).")
	cmd.Flags().String("slack-app-token", "", "Slack app-level token (xapp-...).")
	cmd.Flags().String("health-listen", "", "Health endpoint listen address (empty disables).")

	return cmd
}

// runSocketSession reads frames until the connection dies. Envelopes carrying
// an envelope_id are acked before dispatch; Slack redelivers unacked frames.
func runSocketSession(ctx context.Context, rt *runtime, conn *websocket.Conn) {
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				rt.logger.Warn("socket_read_failed", "error", err.Error())
			}
			return
		}

		var envelope events.SocketEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			rt.logger.Warn("socket_frame_invalid", "error", err.Error())
			continue
		}
		if envelope.EnvelopeID != "" {
			ack, _ := json.Marshal(map[string]string{"envelope_id": envelope.EnvelopeID})
			if err := conn.WriteMessage(websocket.TextMessage, ack); err != nil {
				rt.logger.Warn("socket_ack_failed", "error", err.Error())
				return
			}
		}

		switch envelope.Type {
		case "events_api":
			parsed, err := events.ParseSocketPayload(envelope)
			if err != nil {
				rt.logger.Warn("socket_payload_invalid", "error", err.Error())
				continue
			}
			if parsed.HasEvent {
				ev := parsed.Event
				go rt.router.Dispatch(ctx, ev)
			}
		case "disconnect":
			rt.logger.Info("socket_disconnect_requested")
			return
		case "hello":
			rt.logger.Debug("socket_hello")
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
