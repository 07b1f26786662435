package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest precedence first.
	Files []string
}

// Store backends.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

// Default values.
const (
	DefaultTodoFile   = "to-do.json"
	DefaultSchemaFile = "to-do.schema.json"
	DefaultStore      = StoreJSON
	DefaultDBFile     = "schedulr.db"
	DefaultRulesFile  = "rules.toml"
	DefaultFilter     = "!completed"
	DefaultCompletion = "default"
	DefaultAutoSave   = true
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds the full configuration for schedulr.
type Config struct {
	// Paths
	TodoFile   string `toml:"todo_file"`
	SchemaFile string `toml:"schema_file"`
	DBFile     string `toml:"db_file"`
	RulesFile  string `toml:"rules_file"`

	// Store selects the task backend: json or sqlite.
	Store string `toml:"store"`

	// DefaultFilter is the expression ls and the TUI use when none is given.
	DefaultFilter string `toml:"default_filter"`

	// CompletionBehavior applies to tasks that do not name their own.
	CompletionBehavior string `toml:"completion_behavior"`

	// AutoSave makes the TUI write every change immediately.
	AutoSave bool `toml:"auto_save"`

	// Rules holds inline user rules, name = expression.
	Rules map[string]string `toml:"rules"`

	// Logging configuration
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Computed
	ProjectRoot string `toml:"-"`
}
