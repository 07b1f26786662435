package todo

import (
	"strings"
	"testing"
	"time"
)

func TestImportLegacy(t *testing.T) {
	input := strings.Join([]string{
		"SimpleTask|2016|05|21|false|school homework |SimpleCompleted| |Essay",
		"",
		"DatelessTask|true|chores|VerboseCompleted| |Laundry",
		"DatelessTask|false||Unknown| |Call mom | later",
	}, "\n")

	tasks, err := ImportLegacy(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ImportLegacy error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("len(tasks) = %d, want 3", len(tasks))
	}

	essay := tasks[0]
	wantDue := time.Date(2016, time.June, 21, 0, 0, 0, 0, time.Local)
	if essay.Title != "Essay" || essay.Due == nil || !essay.Due.Equal(wantDue) {
		t.Errorf("essay = %+v", essay)
	}
	if strings.Join(essay.Tags, ",") != "school,homework" {
		t.Errorf("essay tags = %v", essay.Tags)
	}
	if essay.Completed || essay.Completion != CompletionDefault {
		t.Errorf("essay completion = %v %q", essay.Completed, essay.Completion)
	}

	laundry := tasks[1]
	if laundry.Due != nil || !laundry.Completed || laundry.Completion != CompletionVerbose {
		t.Errorf("laundry = %+v", laundry)
	}

	call := tasks[2]
	if call.Title != "Call mom | later" {
		t.Errorf("title = %q, want the rest of the line", call.Title)
	}
	if len(call.Tags) != 0 || call.Completion != CompletionDefault {
		t.Errorf("call = %+v", call)
	}
}

func TestImportLegacyErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no separator", "garbage", "line 1: missing record type"},
		{"unknown type", "WeeklyTask|x", "unknown record type"},
		{"short simple task", "SimpleTask|2016|05|21|false", "expected 8 fields"},
		{"bad month", "SimpleTask|2016|12|21|false||SimpleCompleted| |Essay", "month 12 out of range"},
		{"bad year", "SimpleTask|soon|05|21|false||SimpleCompleted| |Essay", "year"},
		{"bad completed flag", "DatelessTask|maybe||SimpleCompleted| |Laundry", "completed flag"},
		{"empty name", "DatelessTask|false||SimpleCompleted| |  ", "empty task name"},
		{"line number", "DatelessTask|false||SimpleCompleted| |ok\nbroken", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportLegacy(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
		})
	}
}
