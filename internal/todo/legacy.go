package todo

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Legacy record types written by the desktop release.
const (
	legacySimpleTask   = "SimpleTask"
	legacyDatelessTask = "DatelessTask"
)

// ImportLegacy reads tasks from the pipe-delimited format used by the old
// desktop client:
//
//	SimpleTask|2016|05|21|false|school homework |SimpleCompleted| |Essay
//	DatelessTask|true|chores|VerboseCompleted| |Laundry
//
// Months are zero-based in that format. Tags are space separated. The
// returned tasks have no IDs; File.AddTask assigns them.
func ImportLegacy(r io.Reader) ([]Task, error) {
	var tasks []Task
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		task, err := parseLegacyLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read legacy file: %w", err)
	}
	return tasks, nil
}

func parseLegacyLine(line string) (Task, error) {
	kind, rest, ok := strings.Cut(line, "|")
	if !ok {
		return Task{}, fmt.Errorf("missing record type")
	}

	var task Task
	var fields []string
	switch kind {
	case legacySimpleTask:
		fields = strings.SplitN(rest, "|", 8)
		if len(fields) != 8 {
			return Task{}, fmt.Errorf("%s: expected 8 fields, got %d", kind, len(fields))
		}
		due, err := legacyDate(fields[0], fields[1], fields[2])
		if err != nil {
			return Task{}, err
		}
		task.Due = &due
		fields = fields[3:]
	case legacyDatelessTask:
		fields = strings.SplitN(rest, "|", 5)
		if len(fields) != 5 {
			return Task{}, fmt.Errorf("%s: expected 5 fields, got %d", kind, len(fields))
		}
	default:
		return Task{}, fmt.Errorf("unknown record type %q", kind)
	}

	// fields: completed, tags, behavior, behavior state, name
	completed, err := strconv.ParseBool(strings.TrimSpace(fields[0]))
	if err != nil {
		return Task{}, fmt.Errorf("completed flag: %w", err)
	}
	task.Completed = completed
	task.Tags = strings.Fields(fields[1])
	task.Completion = normalizeCompletion(fields[2])
	if !IsCompletionName(task.Completion) {
		task.Completion = CompletionDefault
	}
	task.Title = strings.TrimSpace(fields[4])
	if task.Title == "" {
		return Task{}, fmt.Errorf("empty task name")
	}
	return task, nil
}

func legacyDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, fmt.Errorf("year: %w", err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, fmt.Errorf("month: %w", err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, fmt.Errorf("day: %w", err)
	}
	if m < 0 || m > 11 {
		return time.Time{}, fmt.Errorf("month %d out of range", m)
	}
	return time.Date(y, time.Month(m+1), d, 0, 0, 0, 0, time.Local), nil
}
