package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/nibzard/schedulr-go/internal/config"
	"github.com/nibzard/schedulr-go/internal/logging"
	"github.com/nibzard/schedulr-go/internal/rule"
	"github.com/nibzard/schedulr-go/internal/store"
	"github.com/nibzard/schedulr-go/internal/todo"
	"github.com/nibzard/schedulr-go/internal/userrules"
)

// doctorCommand checks config, the task store, and user rules.
func doctorCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	fs := flag.NewFlagSet("schedulr doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	cfg := cws.Config
	logger := logging.FromConfig(cfg, logOutput)

	fmt.Println("schedulr doctor")
	fmt.Println("===============")
	fmt.Println()

	allOK := true

	// Config
	fmt.Println("Config:")
	if file := cws.GetConfigFile(); file != "" {
		for _, f := range cws.Files {
			fmt.Printf("  File: %s\n", f)
		}
	} else {
		fmt.Println("  File: (none, using defaults)")
	}
	if logging.IsLevel(cfg.LogLevel) {
		fmt.Printf("  ✅ Log level: %s\n", cfg.LogLevel)
	} else {
		fmt.Printf("  ❌ Log level: %s (expected debug|info|warn|error|fatal)\n", cfg.LogLevel)
		allOK = false
	}
	if logging.IsFormat(cfg.LogFormat) {
		fmt.Printf("  ✅ Log format: %s\n", cfg.LogFormat)
	} else {
		fmt.Printf("  ❌ Log format: %s (expected text|json|logfmt)\n", cfg.LogFormat)
		allOK = false
	}
	if todo.IsCompletionName(cfg.CompletionBehavior) {
		fmt.Printf("  ✅ Completion behavior: %s\n", cfg.CompletionBehavior)
	} else {
		fmt.Printf("  ⚠️  Completion behavior: %s (unknown, tasks use %s)\n", cfg.CompletionBehavior, todo.CompletionDefault)
	}
	fmt.Printf("  Auto save: %t\n", cfg.AutoSave)
	if *verbose {
		fmt.Println("  Sources:")
		keys := make([]string, 0, len(cws.Sources))
		for key := range cws.Sources {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("    %-22s %s\n", key, cws.Sources[key])
		}
	}
	fmt.Println()

	// Store
	var tasks *todo.File
	st, err := store.Open(cfg, logger)
	if err != nil {
		fmt.Printf("Store: %s\n", cfg.Store)
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	} else {
		defer st.Close()
		fmt.Printf("Store: %s (%s)\n", cfg.Store, st.Location())
		tasks, err = st.Load(ctx)
		if err != nil {
			fmt.Printf("  ❌ Load error: %v\n", err)
			allOK = false
		} else {
			fmt.Printf("  ✅ OK (%d tasks)\n", len(tasks.Tasks))
		}
	}
	if cfg.Store == config.StoreJSON {
		if !checkFile("Schema file", cfg.SchemaFile, "written on next save") {
			allOK = false
		}
	}
	if tasks != nil {
		result := tasks.Validate(todo.ValidationOptions{SchemaPath: schemaPathFor(cfg)})
		if *verbose {
			for _, w := range result.Warnings {
				fmt.Printf("  ⚠️  %s\n", w)
			}
		}
		if result.Valid {
			fmt.Println("  ✅ Valid")
		} else {
			fmt.Println("  ❌ Validation failed:")
			for _, e := range result.Errors {
				fmt.Printf("     - %v\n", e)
			}
			allOK = false
		}
	}
	fmt.Println()

	// Rules
	if !checkFile("Rules file", cfg.RulesFile, "created by 'schedulr rule add'") {
		allOK = false
	}
	parser := rule.NewParser(rule.NewRegistry(nil), logger)
	defs, err := userrules.Load(parser, logger, ruleSources(cfg)...)
	fmt.Printf("  User rules loaded: %d\n", len(defs))
	if *verbose {
		for _, def := range defs {
			fmt.Printf("    %s = %s (%s)\n", def.Name, def.Expr, def.Origin)
		}
	}
	if err != nil {
		fmt.Println("  ❌ Rule errors:")
		for _, line := range strings.Split(err.Error(), "\n") {
			fmt.Printf("     - %s\n", line)
		}
		allOK = false
	}
	if r, err := parser.Parse(cfg.DefaultFilter); err != nil {
		fmt.Printf("  ❌ Default filter %q: %v\n", cfg.DefaultFilter, err)
		allOK = false
	} else {
		fmt.Printf("  ✅ Default filter: %s\n", r.Name())
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. schedulr may not work as expected.")
	return errors.New("doctor checks failed")
}

// schemaPathFor returns the schema used to validate tasks, or "" when the
// store keeps none.
func schemaPathFor(cfg *config.Config) string {
	if cfg.Store != config.StoreJSON {
		return ""
	}
	return cfg.SchemaFile
}

// checkFile reports on an optional file. A missing file is a warning.
func checkFile(label, path, missing string) bool {
	fmt.Printf("%s: %s\n", label, path)
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		fmt.Printf("  ⚠️  Not found (%s)\n", missing)
		return true
	case err != nil:
		fmt.Printf("  ❌ Error: %v\n", err)
		return false
	case info.IsDir():
		fmt.Println("  ❌ Error: path is a directory")
		return false
	}
	fmt.Println("  ✅ OK")
	return true
}
