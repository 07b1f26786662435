package config

import (
	"os"
	"strings"
)

// loadFromEnv overrides config from SCHEDULR_* environment variables. If
// sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	track := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}
	setString := func(env, field string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
			track(field)
		}
	}
	setBool := func(env, field string, target *bool) {
		if v := os.Getenv(env); v != "" {
			*target = boolFromString(v)
			track(field)
		}
	}

	setString("SCHEDULR_TODO", "todo_file", &cfg.TodoFile)
	setString("SCHEDULR_SCHEMA", "schema_file", &cfg.SchemaFile)
	setString("SCHEDULR_STORE", "store", &cfg.Store)
	setString("SCHEDULR_DB", "db_file", &cfg.DBFile)
	setString("SCHEDULR_RULES", "rules_file", &cfg.RulesFile)
	setString("SCHEDULR_FILTER", "default_filter", &cfg.DefaultFilter)
	setString("SCHEDULR_COMPLETION", "completion_behavior", &cfg.CompletionBehavior)
	setBool("SCHEDULR_AUTO_SAVE", "auto_save", &cfg.AutoSave)

	// Logging configuration
	setString("SCHEDULR_LOG_LEVEL", "log_level", &cfg.LogLevel)
	setString("SCHEDULR_LOG_FORMAT", "log_format", &cfg.LogFormat)
	setBool("SCHEDULR_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	setBool("SCHEDULR_LOG_CALLER", "log_caller", &cfg.LogCaller)
}

func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
