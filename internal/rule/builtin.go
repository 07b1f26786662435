package rule

import (
	"time"

	"github.com/nibzard/schedulr-go/internal/todo"
)

// Built-in rule names.
const (
	TodayName     = "today"
	WeekName      = "week"
	CompletedName = "completed"
)

// Clock returns the current time. Built-in date rules call it on every test
// so long-running sessions roll over at midnight.
type Clock func() time.Time

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// dueBefore reports whether the task has a due date strictly before limit.
func dueBefore(t *todo.Task, limit time.Time) bool {
	return t.Due != nil && t.Due.Before(limit)
}

// Today matches tasks due today or overdue.
func Today(now Clock) *Rule {
	return New(TodayName, func(t *todo.Task) bool {
		return dueBefore(t, startOfDay(now()).AddDate(0, 0, 1))
	})
}

// Week matches tasks due within the next seven days, overdue ones included.
func Week(now Clock) *Rule {
	return New(WeekName, func(t *todo.Task) bool {
		return dueBefore(t, startOfDay(now()).AddDate(0, 0, 8))
	})
}

// Completed matches tasks marked done.
func Completed() *Rule {
	return New(CompletedName, func(t *todo.Task) bool {
		return t.Completed
	})
}

// Builtins returns the rules every registry starts with.
func Builtins(now Clock) []*Rule {
	if now == nil {
		now = time.Now
	}
	return []*Rule{Today(now), Week(now), Completed()}
}

// newTag returns a rule matching tasks that carry the tag.
func newTag(name string) *Rule {
	return New(name, func(t *todo.Task) bool {
		return t.HasTag(name)
	})
}
