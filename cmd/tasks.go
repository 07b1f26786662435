package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/nibzard/schedulr-go/internal/rule"
	"github.com/nibzard/schedulr-go/internal/todo"
)

// lsCommand lists tasks matching a filter expression.
func lsCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr ls", flag.ContinueOnError)
	all := fs.Bool("all", false, "List every task")
	verbose := fs.Bool("v", false, "Show more details")
	explain := fs.Bool("explain", false, "Print the compiled filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := s.load(ctx)
	if err != nil {
		return err
	}

	var tasks []todo.Task
	if *all {
		if fs.NArg() > 0 {
			return fmt.Errorf("-all takes no expression")
		}
		tasks = append(tasks, f.Tasks...)
		if *explain {
			fmt.Println("Filter: everything")
		}
	} else {
		expr := strings.Join(fs.Args(), " ")
		if strings.TrimSpace(expr) == "" {
			expr = s.cfg.DefaultFilter
		}
		r, err := s.compile(expr)
		if err != nil {
			return err
		}
		if *explain {
			fmt.Printf("Filter: %s\n", r.Name())
		}
		tasks = f.Filter(r)
	}

	todo.SortTasks(tasks)
	printTaskList(tasks, *verbose)
	return nil
}

// compile parses expr. An expression that resolves to nothing yields
// rule.Nothing.
func (s *session) compile(expr string) (*rule.Rule, error) {
	r, err := s.parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse filter %q: %w", expr, err)
	}
	if r == nil {
		return rule.Nothing, nil
	}
	return r, nil
}

// addCommand creates a task.
func addCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr add", flag.ContinueOnError)
	due := fs.String("due", "", "Due date (YYYY-MM-DD)")
	tags := fs.String("tags", "", "Comma-separated tags")
	notes := fs.String("notes", "", "Notes")
	completion := fs.String("completion", "", "Completion behavior (default|verbose)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, "add [options] <title>"); err != nil {
		return err
	}

	dueDate, err := todo.ParseDue(*due)
	if err != nil {
		return err
	}
	if *completion != "" && !todo.IsCompletionName(*completion) {
		return fmt.Errorf("unknown completion behavior %q, must be one of: %s",
			*completion, strings.Join(todo.CompletionNames(), ", "))
	}
	tagList := splitAndTrim(*tags, ",")
	if err := s.checkTags(tagList); err != nil {
		return err
	}

	task := todo.Task{
		Title:      strings.Join(fs.Args(), " "),
		Notes:      *notes,
		Due:        dueDate,
		Completion: strings.ToLower(*completion),
		Tags:       tagList,
	}
	var added todo.Task
	if err := s.update(ctx, func(f *todo.File) error {
		added = *f.AddTask(task)
		return nil
	}); err != nil {
		return err
	}
	fmt.Printf("Added %s: %s\n", added.ID, added.String())
	return nil
}

// checkTags rejects tags the task file cannot hold and warns about tags an
// expression cannot reach.
func (s *session) checkTags(tags []string) error {
	for _, tag := range tags {
		if strings.ContainsAny(tag, " \t") {
			return fmt.Errorf("tag %q must be a single word", tag)
		}
		if rule.IsReserved(tag) {
			s.logger.Warn("tag cannot be used in filter expressions", "tag", tag)
			continue
		}
		if _, ok := s.parser.Registry().Lookup(tag); ok {
			s.logger.Warn("tag is shadowed by a rule of the same name", "tag", tag)
		}
	}
	return nil
}

// doneCommand marks tasks completed.
func doneCommand(ctx context.Context, s *session, args []string) error {
	return setCompleted(ctx, s, "done", true, args)
}

// undoCommand reopens tasks.
func undoCommand(ctx context.Context, s *session, args []string) error {
	return setCompleted(ctx, s, "undo", false, args)
}

func setCompleted(ctx context.Context, s *session, name string, done bool, args []string) error {
	fs := flag.NewFlagSet("schedulr "+name, flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, name+" <id>..."); err != nil {
		return err
	}

	var changed []todo.Task
	if err := s.update(ctx, func(f *todo.File) error {
		for _, id := range fs.Args() {
			if err := f.SetCompleted(id, done, s.cfg.CompletionBehavior, s.logger); err != nil {
				return err
			}
			changed = append(changed, *f.GetTask(id))
		}
		return nil
	}); err != nil {
		return err
	}

	verb := "Completed"
	if !done {
		verb = "Reopened"
	}
	for _, t := range changed {
		fmt.Printf("%s %s: %s\n", verb, t.ID, t.String())
	}
	return nil
}

// rmCommand deletes tasks.
func rmCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr rm", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 1, "rm <id>..."); err != nil {
		return err
	}

	if err := s.update(ctx, func(f *todo.File) error {
		for _, id := range fs.Args() {
			if err := f.RemoveTask(id); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return err
	}
	for _, id := range fs.Args() {
		fmt.Printf("Removed %s\n", id)
	}
	return nil
}

// tagCommand adds tags to a task.
func tagCommand(ctx context.Context, s *session, args []string) error {
	return retag(ctx, s, "tag", args, func(t *todo.Task, tag string) bool { return t.AddTag(tag) })
}

// untagCommand removes tags from a task.
func untagCommand(ctx context.Context, s *session, args []string) error {
	return retag(ctx, s, "untag", args, func(t *todo.Task, tag string) bool { return t.RemoveTag(tag) })
}

func retag(ctx context.Context, s *session, name string, args []string, apply func(*todo.Task, string) bool) error {
	fs := flag.NewFlagSet("schedulr "+name, flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 2, name+" <id> <tag>..."); err != nil {
		return err
	}
	id, tags := fs.Arg(0), fs.Args()[1:]
	if name == "tag" {
		if err := s.checkTags(tags); err != nil {
			return err
		}
	}

	var result todo.Task
	if err := s.update(ctx, func(f *todo.File) error {
		return f.UpdateTask(id, func(t *todo.Task) {
			for _, tag := range tags {
				if !apply(t, tag) {
					s.logger.Debug("tag unchanged", "task", id, "tag", tag, "command", name)
				}
			}
			result = *t
		})
	}); err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", result.ID, formatTags(result.Tags))
	return nil
}

// importCommand merges tasks from a legacy export file.
func importCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr import", flag.ContinueOnError)
	dryRun := fs.Bool("dry-run", false, "Print the tasks without saving them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: schedulr import [-dry-run] <file>")
	}
	path := fs.Arg(0)

	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening legacy file: %w", err)
	}
	defer in.Close()
	imported, err := todo.ImportLegacy(in)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	if *dryRun {
		printTaskList(imported, true)
		return nil
	}
	if err := s.update(ctx, func(f *todo.File) error {
		for _, t := range imported {
			f.AddTask(t)
		}
		return nil
	}); err != nil {
		return err
	}
	fmt.Printf("Imported %d tasks from %s\n", len(imported), path)
	return nil
}

// printTaskList prints a list of tasks.
func printTaskList(tasks []todo.Task, verbose bool) {
	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}
	for i := range tasks {
		printTask(&tasks[i], verbose)
	}
}

// printTask prints a single task.
func printTask(t *todo.Task, verbose bool) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("  %s %-5s %-10s  %s", box, t.ID, t.DueString(), t.Title)
	if len(t.Tags) > 0 {
		line += "  " + formatTags(t.Tags)
	}
	fmt.Println(line)

	if !verbose {
		return
	}
	if t.Notes != "" {
		fmt.Printf("      Notes: %s\n", t.Notes)
	}
	if t.Completion != "" {
		fmt.Printf("      Completion: %s\n", t.Completion)
	}
	if t.CompletedAt != nil {
		fmt.Printf("      Completed at: %s\n", t.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "(no tags)"
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = "#" + tag
	}
	return strings.Join(out, " ")
}
