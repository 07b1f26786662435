package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nibzard/schedulr-go/internal/config"
	"github.com/nibzard/schedulr-go/internal/todo"
)

// initCommand writes a starter config file and creates the task store.
func initCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr init", flag.ContinueOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	configPath := filepath.Join(s.cfg.ProjectRoot, "schedulr.toml")
	if _, err := os.Stat(configPath); err == nil && !*force {
		fmt.Printf("Config file exists: %s (skipped)\n", configPath)
	} else {
		if err := os.WriteFile(configPath, []byte(config.ExampleConfig()), 0644); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
		fmt.Printf("Wrote %s\n", configPath)
	}

	// Saving what was loaded creates a missing store without touching tasks.
	f, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := s.save(ctx, f); err != nil {
		return err
	}
	fmt.Printf("Task store: %s (%d tasks)\n", s.store.Location(), len(f.Tasks))
	return nil
}

// nextCommand prints the open task that should be done first, optionally
// among the tasks matching an expression.
func nextCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr next", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := s.load(ctx)
	if err != nil {
		return err
	}
	if expr := strings.Join(fs.Args(), " "); strings.TrimSpace(expr) != "" {
		r, err := s.compile(expr)
		if err != nil {
			return err
		}
		f = &todo.File{SchemaVersion: f.SchemaVersion, Tasks: f.Filter(r)}
	}

	next := f.NextTask()
	if next == nil {
		fmt.Println("Nothing to do.")
		return nil
	}
	printTask(next, true)
	return nil
}
