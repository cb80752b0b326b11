package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.endpoint", "")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "gemini-2.5-flash")
	viper.SetDefault("llm.request_timeout", 90*time.Second)
	viper.SetDefault("llm.system_prompt", "")

	viper.SetDefault("slack.api_base", "https://slack.com/api")
	viper.SetDefault("slack.bot_token", "")
	viper.SetDefault("slack.app_token", "")
	viper.SetDefault("slack.signing_secret", "")
	viper.SetDefault("slack.bot_user_id", "")

	viper.SetDefault("chat.max_concurrency", 4)
	viper.SetDefault("chat.task_timeout", 2*time.Minute)

	// Dedup sets, gate map and name cache are bounded FIFO caches.
	viper.SetDefault("state.dedupe_capacity", 4096)
	viper.SetDefault("state.gate_capacity", 4096)
	viper.SetDefault("state.name_cache_capacity", 4096)
	viper.SetDefault("state.contacts_dir", "")

	viper.SetDefault("history.backend", "memory")
	viper.SetDefault("history.dir", "")
	viper.SetDefault("history.database_url", "")

	viper.SetDefault("directory.spreadsheet_id", "")
	viper.SetDefault("directory.sheet", "Sheet1")
	viper.SetDefault("directory.credentials_file", "")

	viper.SetDefault("webhook.listen", ":3000")
	viper.SetDefault("webhook.path", "/slack/events")

	viper.SetDefault("health.listen", "")

	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
}
