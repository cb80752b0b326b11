package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/quailyquaily/slackmate/internal/admission"
	"github.com/quailyquaily/slackmate/internal/bot"
	"github.com/quailyquaily/slackmate/internal/configutil"
	"github.com/quailyquaily/slackmate/internal/convo"
	"github.com/quailyquaily/slackmate/internal/directory"
	"github.com/quailyquaily/slackmate/internal/history"
	"github.com/quailyquaily/slackmate/internal/names"
	"github.com/quailyquaily/slackmate/internal/slackclient"
	"github.com/quailyquaily/slackmate/internal/threadgate"
	"github.com/quailyquaily/slackmate/llm"
	"github.com/quailyquaily/slackmate/providers/uniai"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runtime bundles everything both transports (webhook and Socket Mode) share.
type runtime struct {
	logger    *slog.Logger
	slack     *slackclient.Client
	router    *bot.Router
	orch      *convo.Orchestrator
	botUserID string
	cleanup   []func()
}

func (rt *runtime) Close() {
	if rt.orch != nil {
		rt.orch.Close()
	}
	for i := len(rt.cleanup) - 1; i >= 0; i-- {
		rt.cleanup[i]()
	}
}

func buildRuntime(cmd *cobra.Command) (*runtime, error) {
	logger, err := loggerFromViper()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	botToken := strings.TrimSpace(configutil.FlagOrViperString(cmd, "slack-bot-token", "slack.bot_token"))
	if botToken == "" {
		return nil, fmt.Errorf("missing slack.bot_token (set via --slack-bot-token or SLACKMATE_SLACK_BOT_TOKEN)")
	}
	appToken := strings.TrimSpace(configutil.FlagOrViperString(cmd, "slack-app-token", "slack.app_token"))

	api := slackclient.New(slackclient.Options{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		BaseURL:    viper.GetString("slack.api_base"),
		BotToken:   botToken,
		AppToken:   appToken,
	})
	botUserID := strings.TrimSpace(viper.GetString("slack.bot_user_id"))
	if botUserID == "" {
		auth, err := api.AuthTest(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("slack auth.test: %w", err)
		}
		if auth.UserID == "" {
			return nil, fmt.Errorf("slack auth.test returned empty user_id")
		}
		botUserID = auth.UserID
		logger.Info("slack_identity_resolved", "user_id", auth.UserID, "team_id", auth.TeamID)
	}

	rt := &runtime{logger: logger, slack: api, botUserID: botUserID}

	dedupeCapacity := viper.GetInt("state.dedupe_capacity")
	filter := admission.New(admission.Options{
		BotUserID: botUserID,
		Capacity:  dedupeCapacity,
		Logger:    logger,
	})
	gate := threadgate.New(viper.GetInt("state.gate_capacity"))

	dir, err := directoryFromViper(cmd.Context())
	if err != nil {
		return nil, err
	}

	var cards *names.CardStore
	if contactsDir := strings.TrimSpace(viper.GetString("state.contacts_dir")); contactsDir != "" {
		cards = names.NewCardStore(contactsDir)
	}
	resolver := names.New(names.Options{
		Profiles:  api,
		Directory: dir,
		Cards:     cards,
		Capacity:  viper.GetInt("state.name_cache_capacity"),
		Logger:    logger,
	})

	store, cleanup, err := historyFromViper(cmd.Context())
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		rt.cleanup = append(rt.cleanup, cleanup)
	}

	orch, err := convo.New(convo.Options{
		LLM:           llmFromViper(),
		History:       store,
		Slack:         api,
		Names:         resolver,
		Admission:     filter,
		Gate:          gate,
		Model:         viper.GetString("llm.model"),
		SystemPrompt:  viper.GetString("llm.system_prompt"),
		MaxConcurrent: viper.GetInt("chat.max_concurrency"),
		TaskTimeout:   viper.GetDuration("chat.task_timeout"),
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	rt.orch = orch
	rt.router = bot.NewRouter(filter, gate, orch, logger)
	return rt, nil
}

func llmFromViper() llm.Client {
	return uniai.New(uniai.Config{
		Provider:       viper.GetString("llm.provider"),
		Endpoint:       viper.GetString("llm.endpoint"),
		APIKey:         viper.GetString("llm.api_key"),
		Model:          viper.GetString("llm.model"),
		RequestTimeout: viper.GetDuration("llm.request_timeout"),
	})
}

func directoryFromViper(ctx context.Context) (directory.Directory, error) {
	spreadsheetID := strings.TrimSpace(viper.GetString("directory.spreadsheet_id"))
	if spreadsheetID == "" {
		return nil, nil
	}
	var creds []byte
	if credsFile := strings.TrimSpace(viper.GetString("directory.credentials_file")); credsFile != "" {
		raw, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read directory credentials: %w", err)
		}
		creds = raw
	}
	return directory.NewSheets(ctx, directory.SheetsConfig{
		SpreadsheetID:   spreadsheetID,
		SheetName:       viper.GetString("directory.sheet"),
		CredentialsJSON: creds,
	})
}

func historyFromViper(ctx context.Context) (history.Store, func(), error) {
	backend := strings.ToLower(strings.TrimSpace(viper.GetString("history.backend")))
	switch backend {
	case "", "memory":
		return history.NewMemoryStore(), nil, nil
	case "file":
		dir := strings.TrimSpace(viper.GetString("history.dir"))
		if dir == "" {
			return nil, nil, fmt.Errorf("history.dir is required for the file backend")
		}
		store, err := history.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case "postgres":
		store, err := history.NewPostgresStore(ctx, viper.GetString("history.database_url"))
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ensure(ctx); err != nil {
			store.Close()
			return nil, nil, fmt.Errorf("history schema: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown history.backend: %s", backend)
	}
}
