// Package cmd implements the CLI command structure for schedulr.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/schedulr-go/internal/config"
	"github.com/nibzard/schedulr-go/internal/logging"
	"github.com/nibzard/schedulr-go/internal/rule"
	"github.com/nibzard/schedulr-go/internal/store"
	"github.com/nibzard/schedulr-go/internal/todo"
	"github.com/nibzard/schedulr-go/internal/ui"
	"github.com/nibzard/schedulr-go/internal/userrules"
)

// Version is set via ldflags at build time.
var Version = "dev"

// logOutput receives log output. Tests replace it.
var logOutput io.Writer = os.Stderr

// Run executes the schedulr CLI.
func Run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("schedulr", flag.ContinueOnError)
	fs.Usage = func() {
		printUsage(fs, os.Stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")

	// Global flags
	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, os.Stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// No subcommand lists tasks with the default filter
	subcommand := "ls"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "version", "--version":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, os.Stdout)
		return nil
	case "doctor":
		return doctorCommand(ctx, cws, remainingArgs)
	}

	command, ok := sessionCommands[subcommand]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, os.Stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}

	s, err := openSession(cws.Config)
	if err != nil {
		return err
	}
	defer s.Close()
	return command(ctx, s, remainingArgs)
}

type sessionCommand func(ctx context.Context, s *session, args []string) error

var sessionCommands map[string]sessionCommand

func init() {
	sessionCommands = map[string]sessionCommand{
		"ls":     lsCommand,
		"list":   lsCommand,
		"add":    addCommand,
		"done":   doneCommand,
		"undo":   undoCommand,
		"rm":     rmCommand,
		"tag":    tagCommand,
		"untag":  untagCommand,
		"rules":  rulesCommand,
		"rule":   ruleCommand,
		"import": importCommand,
		"tui":    tuiCommand,
		"init":   initCommand,
		"next":   nextCommand,
	}
}

// session holds what every task command needs: config, logger, a parser
// with user rules registered, and an open store.
type session struct {
	cfg    *config.Config
	logger *log.Logger
	parser *rule.Parser
	store  store.Store

	// rules lists the user rules that loaded; ruleErr joins the failures.
	rules   []userrules.Definition
	ruleErr error
}

func openSession(cfg *config.Config) (*session, error) {
	logger := logging.FromConfig(cfg, logOutput)
	parser := rule.NewParser(rule.NewRegistry(nil), logger)

	s := &session{cfg: cfg, logger: logger, parser: parser}
	s.rules, s.ruleErr = userrules.Load(parser, logger, ruleSources(cfg)...)
	if s.ruleErr != nil {
		logger.Warn("some user rules did not load", "err", s.ruleErr)
	}

	st, err := store.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	s.store = st
	return s, nil
}

// ruleSources lists user rule sources, lowest precedence first. Rules added
// with "schedulr rule add" override inline config rules of the same name.
func ruleSources(cfg *config.Config) []userrules.Source {
	return []userrules.Source{
		userrules.MapSource{Label: "config", Rules: cfg.Rules},
		userrules.FileSource{Path: cfg.RulesFile},
	}
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

func (s *session) load(ctx context.Context) (*todo.File, error) {
	f, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return f, nil
}

func (s *session) save(ctx context.Context, f *todo.File) error {
	if err := s.store.Save(ctx, f); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

// update loads the tasks, applies fn, and saves the result.
func (s *session) update(ctx context.Context, fn func(f *todo.File) error) error {
	f, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		return err
	}
	return s.save(ctx, f)
}

// tuiCommand launches the TUI.
func tuiCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr tui", flag.ContinueOnError)
	filter := fs.String("filter", s.cfg.DefaultFilter, "Initial filter expression")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		*filter = strings.Join(fs.Args(), " ")
	}

	return ui.RunTUI(ctx, ui.Options{
		Store:      s.store,
		Parser:     s.parser,
		Logger:     s.logger,
		Filter:     *filter,
		AutoSave:   s.cfg.AutoSave,
		Completion: s.cfg.CompletionBehavior,
	})
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Printf("schedulr version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "schedulr - a to-do manager with rule-based filters")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  schedulr [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ls [expr]                  List tasks matching expr (default command)")
	fmt.Fprintln(w, "  next [expr]                Show the task to do first")
	fmt.Fprintln(w, "  add [options] <title>      Add a task")
	fmt.Fprintln(w, "  done <id>...               Mark tasks completed")
	fmt.Fprintln(w, "  undo <id>...               Reopen completed tasks")
	fmt.Fprintln(w, "  rm <id>...                 Delete tasks")
	fmt.Fprintln(w, "  tag <id> <tag>...          Add tags to a task")
	fmt.Fprintln(w, "  untag <id> <tag>...        Remove tags from a task")
	fmt.Fprintln(w, "  rules                      List rules and tags")
	fmt.Fprintln(w, "  rule add <name> <expr>     Save a user rule")
	fmt.Fprintln(w, "  rule rm <name>             Delete a user rule")
	fmt.Fprintln(w, "  import <file>              Import tasks from a legacy export")
	fmt.Fprintln(w, "  init                       Write schedulr.toml and create the task store")
	fmt.Fprintln(w, "  doctor                     Check config, store, and rules")
	fmt.Fprintln(w, "  tui [expr]                 Launch terminal UI")
	fmt.Fprintln(w, "  version                    Show version information")
	fmt.Fprintln(w, "  help                       Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Expressions:")
	fmt.Fprintln(w, "  Names are rules (today, week, completed, user rules) or tags.")
	fmt.Fprintf(w, "  Operators: %s. %sname negates.\n", operatorSummary(), rule.NegationPrefix)
	fmt.Fprintln(w, "  Operators group to the right; use parentheses otherwise.")
	fmt.Fprintln(w, "  Example: schedulr ls '(homework + chores) & week - completed'")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -all       List every task")
	fmt.Fprintln(w, "  -v         Show notes, tags, and completion details")
	fmt.Fprintln(w, "  -explain   Print the compiled filter")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add Options:")
	fmt.Fprintln(w, "  -due string         Due date (YYYY-MM-DD)")
	fmt.Fprintln(w, "  -tags string        Comma-separated tags")
	fmt.Fprintln(w, "  -notes string       Notes")
	fmt.Fprintln(w, "  -completion string  Completion behavior (default|verbose)")
}

// operatorSummary lists the expression operators as "& and, + or, ...".
func operatorSummary() string {
	ops := rule.Operators()
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = op.Symbol + " " + op.Name
	}
	return strings.Join(parts, ", ")
}

// splitAndTrim splits a string by sep and trims whitespace from each part.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// requireArgs returns an error naming usage when fewer than n args remain.
func requireArgs(fs *flag.FlagSet, n int, usage string) error {
	if fs.NArg() < n {
		return errors.New("usage: schedulr " + usage)
	}
	return nil
}
