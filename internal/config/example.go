package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# schedulr configuration file
# Values can be overridden by SCHEDULR_* environment variables or CLI flags

# Task file (relative to project root)
todo_file = "to-do.json"

# Schema file (written on first use if missing)
schema_file = "to-do.schema.json"

# Task store: json or sqlite
store = "json"

# SQLite database used when store = "sqlite"
db_file = "schedulr.db"

# User rules written by "schedulr rule add"
rules_file = "rules.toml"

# Filter for ls and the TUI when no expression is given
default_filter = "!completed"

# Completion behavior for tasks that do not name one: default or verbose
completion_behavior = "default"

# Save TUI changes immediately
auto_save = true

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false

# Inline rules, available in every filter expression
[rules]
urgent = "today - completed"
# school = "homework + exams"
`
}
