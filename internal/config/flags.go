package config

import "flag"

// flagFields maps CLI flag names to config field names.
var flagFields = map[string]string{
	"todo":                "todo_file",
	"schema":              "schema_file",
	"store":               "store",
	"db":                  "db_file",
	"rules-file":          "rules_file",
	"filter":              "default_filter",
	"completion-behavior": "completion_behavior",
	"auto-save":           "auto_save",
	"log-level":           "log_level",
	"log-format":          "log_format",
	"log-timestamps":      "log_timestamps",
	"log-caller":          "log_caller",
}

// parseFlags defines the config flags on fs, parses args, and records a
// flag source for every flag that was set. A nil fs gets a fresh set.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("schedulr", flag.ContinueOnError)
	}

	// Paths
	fs.StringVar(&cfg.TodoFile, "todo", cfg.TodoFile, "Path to task file")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "Path to schema file")
	fs.StringVar(&cfg.DBFile, "db", cfg.DBFile, "Path to SQLite database")
	fs.StringVar(&cfg.RulesFile, "rules-file", cfg.RulesFile, "Path to user rules file")

	// Behavior
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Task store (json, sqlite)")
	fs.StringVar(&cfg.DefaultFilter, "filter", cfg.DefaultFilter, "Filter used when none is given")
	fs.StringVar(&cfg.CompletionBehavior, "completion-behavior", cfg.CompletionBehavior, "Completion behavior for tasks without one (default, verbose)")
	fs.BoolVar(&cfg.AutoSave, "auto-save", cfg.AutoSave, "Save TUI changes immediately")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}

	return nil
}
