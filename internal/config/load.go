package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.schedulr/schedulr.toml or OS-specific config dir)
// 3. Project config file (schedulr.toml or .schedulr.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
// Inline rules are tracked as "rules.<name>".
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	var files []string

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		files = append(files, userConfigFile)
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		files = append(files, projectConfigFile)
	}

	// 4. Override from environment
	loadFromEnv(cfg, sources)

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"todo_file",
		"schema_file",
		"store",
		"db_file",
		"rules_file",
		"default_filter",
		"completion_behavior",
		"auto_save",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// loadConfigFile decodes the TOML file at path and copies every key it
// defines into cfg, recording source for each.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	var file Config
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	set := func(key string, apply func()) {
		if !md.IsDefined(key) {
			return
		}
		apply()
		if sources != nil {
			sources[key] = source
		}
	}

	set("todo_file", func() { cfg.TodoFile = file.TodoFile })
	set("schema_file", func() { cfg.SchemaFile = file.SchemaFile })
	set("store", func() { cfg.Store = file.Store })
	set("db_file", func() { cfg.DBFile = file.DBFile })
	set("rules_file", func() { cfg.RulesFile = file.RulesFile })
	set("default_filter", func() { cfg.DefaultFilter = file.DefaultFilter })
	set("completion_behavior", func() { cfg.CompletionBehavior = file.CompletionBehavior })
	set("auto_save", func() { cfg.AutoSave = file.AutoSave })
	set("log_level", func() { cfg.LogLevel = file.LogLevel })
	set("log_format", func() { cfg.LogFormat = file.LogFormat })
	set("log_timestamps", func() { cfg.LogTimestamps = file.LogTimestamps })
	set("log_caller", func() { cfg.LogCaller = file.LogCaller })

	// Rules merge by name so a project file can add to the user's rules.
	if len(file.Rules) > 0 && cfg.Rules == nil {
		cfg.Rules = make(map[string]string, len(file.Rules))
	}
	for name, expr := range file.Rules {
		cfg.Rules[name] = expr
		if sources != nil {
			sources["rules."+name] = source
		}
	}

	return nil
}

// finalizeConfig computes derived values and validates the result.
func finalizeConfig(cfg *Config) error {
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case StoreJSON, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q, must be %s or %s", cfg.Store, StoreJSON, StoreSQLite)
	}

	// Determine project root
	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}

	// Make paths absolute if they're relative
	for _, p := range []*string{&cfg.TodoFile, &cfg.SchemaFile, &cfg.DBFile, &cfg.RulesFile} {
		*p = expandPath(*p)
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(cfg.ProjectRoot, *p)
		}
	}

	return nil
}
