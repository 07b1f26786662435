package todo

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Completion behavior names.
const (
	CompletionDefault = "default"
	CompletionVerbose = "verbose"
)

// CompletionBehavior decides what happens when a task is marked done or
// reopened.
type CompletionBehavior interface {
	Name() string
	Mark(t *Task, done bool, now time.Time)
}

// DefaultCompletion flips the completed flag only when it changes.
type DefaultCompletion struct{}

// Name returns "default".
func (DefaultCompletion) Name() string { return CompletionDefault }

// Mark sets the completion state of t.
func (DefaultCompletion) Mark(t *Task, done bool, now time.Time) {
	setCompleted(t, done, now)
}

// VerboseCompletion behaves like DefaultCompletion and logs every call.
type VerboseCompletion struct {
	Logger *log.Logger
}

// Name returns "verbose".
func (VerboseCompletion) Name() string { return CompletionVerbose }

// Mark sets the completion state of t and reports whether it changed.
func (v VerboseCompletion) Mark(t *Task, done bool, now time.Time) {
	logger := v.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if setCompleted(t, done, now) {
		logger.Info("marked completion", "task", t.ID, "title", t.Title, "completed", done)
		return
	}
	logger.Info("completion unchanged", "task", t.ID, "title", t.Title, "completed", done)
}

func setCompleted(t *Task, done bool, now time.Time) bool {
	if t.Completed == done {
		return false
	}
	t.Completed = done
	if done {
		at := now.UTC()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
	return true
}

// CompletionNames returns the known completion behavior names, sorted.
func CompletionNames() []string {
	names := []string{CompletionDefault, CompletionVerbose}
	sort.Strings(names)
	return names
}

// IsCompletionName reports whether name identifies a known behavior.
func IsCompletionName(name string) bool {
	switch normalizeCompletion(name) {
	case CompletionDefault, CompletionVerbose:
		return true
	}
	return false
}

// LookupCompletion returns the behavior for name. Unknown names fall back
// to the default behavior with a warning. An empty name selects fallback.
func LookupCompletion(name, fallback string, logger *log.Logger) CompletionBehavior {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	switch normalizeCompletion(name) {
	case CompletionDefault, "":
		return DefaultCompletion{}
	case CompletionVerbose:
		return VerboseCompletion{Logger: logger}
	}
	logger.Warn("unknown completion behavior, using default", "name", name)
	return DefaultCompletion{}
}

func normalizeCompletion(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	switch s {
	case "simple", "simplecompleted":
		return CompletionDefault
	case "verbosecompleted":
		return CompletionVerbose
	}
	return s
}

// SetCompleted marks the task done or open through its completion
// behavior. fallback names the behavior used when the task has none.
func (f *File) SetCompleted(id string, done bool, fallback string, logger *log.Logger) error {
	task := f.GetTask(id)
	if task == nil {
		return fmt.Errorf("task %q not found", id)
	}
	now := time.Now()
	LookupCompletion(task.Completion, fallback, logger).Mark(task, done, now)
	updated := now.UTC()
	task.UpdatedAt = &updated
	return nil
}
