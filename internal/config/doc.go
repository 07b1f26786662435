// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.schedulr/schedulr.toml or OS-specific config directory)
// 3. Project config file (schedulr.toml or .schedulr.toml in the working directory)
// 4. Environment variables (SCHEDULR_*)
// 5. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
// The [rules] table is merged by name across files instead of replaced.
//
// User-level config locations:
// - ~/.schedulr/schedulr.toml (preferred)
// - Windows: %APPDATA%\schedulr\schedulr.toml
// - macOS: ~/Library/Application Support/schedulr/schedulr.toml
// - Linux/BSD: $XDG_CONFIG_HOME/schedulr/schedulr.toml or ~/.config/schedulr/schedulr.toml
//
// Relative paths resolve against the working directory.
package config
