package ui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/schedulr-go/internal/rule"
	"github.com/nibzard/schedulr-go/internal/store"
	"github.com/nibzard/schedulr-go/internal/todo"
)

var testNow = time.Date(2024, 3, 13, 10, 30, 0, 0, time.Local)

func date(offset int) *time.Time {
	d := time.Date(2024, 3, 13+offset, 0, 0, 0, 0, time.Local)
	return &d
}

func newTestModel(t *testing.T, autoSave bool) (*tuiModel, *store.FileStore) {
	t.Helper()
	s := store.NewFileStore(filepath.Join(t.TempDir(), "to-do.json"), "", nil)
	f := todo.NewFile()
	f.Tasks = []todo.Task{
		{ID: "T001", Title: "Essay", Due: date(-1), Tags: []string{"homework"}},
		{ID: "T002", Title: "Dishes", Due: date(0), Tags: []string{"chores"}},
		{ID: "T003", Title: "Reading", Due: date(4), Tags: []string{"homework"}},
		{ID: "T004", Title: "Call mom"},
	}
	if err := s.Save(context.Background(), f); err != nil {
		t.Fatal(err)
	}

	parser := rule.NewParser(rule.NewRegistry(func() time.Time { return testNow }), nil)
	m := newTUIModel(context.Background(), Options{
		Store:    s,
		Parser:   parser,
		Filter:   "!completed",
		AutoSave: autoSave,
	})
	m.Init()
	return m, s
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *tuiModel, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func typeFilter(m *tuiModel, expr string) {
	press(m, runes("/"))
	m.input = ""
	for _, r := range expr {
		if r == ' ' {
			press(m, tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		press(m, runes(string(r)))
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
}

func visibleIDs(m *tuiModel) string {
	ids := make([]string, len(m.tasks))
	for i, t := range m.tasks {
		ids[i] = t.ID
	}
	return strings.Join(ids, " ")
}

func TestInitialFilter(t *testing.T) {
	m, _ := newTestModel(t, true)
	if got := visibleIDs(m); got != "T001 T002 T003 T004" {
		t.Errorf("visible = %q", got)
	}
	view := m.View()
	if !strings.Contains(view, "Filter: !completed") || !strings.Contains(view, "> [ ] T001") {
		t.Errorf("view:\n%s", view)
	}
}

func TestFilterEditing(t *testing.T) {
	m, _ := newTestModel(t, true)

	tests := []struct {
		expr string
		want string
	}{
		{"today", "T001 T002"},
		{"homework - today", "T003"},
		{"week", "T001 T002 T003"},
		{"(chores + homework) & today", "T001 T002"},
		{"nosuch", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			typeFilter(m, tt.expr)
			if m.editing {
				t.Fatal("still editing after enter")
			}
			if m.filterErr != nil {
				t.Fatalf("filter error: %v", m.filterErr)
			}
			if got := visibleIDs(m); got != tt.want {
				t.Errorf("visible = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvalidFilterShowsError(t *testing.T) {
	m, _ := newTestModel(t, true)
	typeFilter(m, "(today")

	if m.filterErr == nil {
		t.Fatal("expected filter error")
	}
	if len(m.tasks) != 0 {
		t.Errorf("invalid filter shows tasks: %q", visibleIDs(m))
	}
	view := m.View()
	if !strings.Contains(view, "Invalid filter") {
		t.Errorf("view:\n%s", view)
	}

	typeFilter(m, "chores")
	if m.filterErr != nil || visibleIDs(m) != "T002" {
		t.Errorf("after fix: err %v visible %q", m.filterErr, visibleIDs(m))
	}
}

func TestFilterEditCancelAndBackspace(t *testing.T) {
	m, _ := newTestModel(t, true)

	press(m, runes("/"))
	if !m.editing || m.input != "!completed" {
		t.Fatalf("editing = %v input = %q", m.editing, m.input)
	}
	press(m, tea.KeyMsg{Type: tea.KeyBackspace}, runes("x"))
	if m.input != "!complete"+"x" {
		t.Errorf("input = %q", m.input)
	}
	if !strings.Contains(m.View(), "Filter: !completex_") {
		t.Errorf("view:\n%s", m.View())
	}
	// Keys that act in list mode are typed while editing.
	press(m, runes("q"))
	if !m.editing {
		t.Fatal("q left edit mode")
	}

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing || m.filter != "!completed" {
		t.Errorf("esc: editing = %v filter = %q", m.editing, m.filter)
	}
}

func TestCursorMovement(t *testing.T) {
	m, _ := newTestModel(t, true)

	press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top", m.cursor)
	}
	press(m, tea.KeyMsg{Type: tea.KeyDown}, runes("j"), tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.cursor != 3 {
		t.Errorf("cursor = %d, want 3", m.cursor)
	}
	press(m, runes("k"))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}
}

func TestToggleAutoSave(t *testing.T) {
	m, s := newTestModel(t, true)

	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeySpace})
	if got := visibleIDs(m); got != "T001 T003 T004" {
		t.Errorf("visible after completing T002 = %q", got)
	}
	if m.dirty {
		t.Error("auto-save left changes unsaved")
	}
	if !strings.Contains(m.status, "Completed T002") {
		t.Errorf("status = %q", m.status)
	}

	f, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !f.GetTask("T002").Completed {
		t.Error("T002 not saved as completed")
	}

	typeFilter(m, "completed")
	press(m, runes("x"))
	f, _ = s.Load(context.Background())
	if f.GetTask("T002").Completed {
		t.Error("T002 not reopened")
	}
}

func TestToggleWithoutAutoSave(t *testing.T) {
	m, s := newTestModel(t, false)

	press(m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.dirty {
		t.Fatal("change not marked dirty")
	}
	f, _ := s.Load(context.Background())
	if f.GetTask("T001").Completed {
		t.Fatal("saved without auto-save")
	}
	if !strings.Contains(m.View(), "unsaved changes") {
		t.Errorf("view:\n%s", m.View())
	}

	// The first q warns, the second quits.
	if cmd := press(m, runes("q")); cmd != nil {
		t.Error("q with unsaved changes quit immediately")
	}
	if !m.confirmQuit {
		t.Error("quit not pending")
	}

	press(m, runes("w"))
	if m.dirty || m.status != "Saved" {
		t.Errorf("after w: dirty = %v status = %q", m.dirty, m.status)
	}
	f, _ = s.Load(context.Background())
	if !f.GetTask("T001").Completed {
		t.Error("w did not save")
	}
	if cmd := press(m, runes("q")); cmd == nil {
		t.Error("q after saving did not quit")
	}
}

func TestReload(t *testing.T) {
	m, s := newTestModel(t, true)

	f, _ := s.Load(context.Background())
	f.AddTask(todo.Task{Title: "Groceries", Tags: []string{"chores"}})
	if err := s.Save(context.Background(), f); err != nil {
		t.Fatal(err)
	}

	press(m, runes("r"))
	if got := visibleIDs(m); got != "T001 T002 T003 T004 T005" {
		t.Errorf("visible after reload = %q", got)
	}
}

func TestCursorFollowsTaskAcrossRefilter(t *testing.T) {
	m, _ := newTestModel(t, true)
	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if m.tasks[m.cursor].ID != "T003" {
		t.Fatalf("selected %s", m.tasks[m.cursor].ID)
	}
	press(m, tickMsg(testNow))
	if m.tasks[m.cursor].ID != "T003" {
		t.Errorf("selection moved to %s after tick", m.tasks[m.cursor].ID)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, true)
	press(m, runes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not shown")
	}
	press(m, runes("h"))
	if strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help not hidden")
	}
}

func TestLoadErrorView(t *testing.T) {
	s := store.NewFileStore(t.TempDir(), "", nil)
	m := newTUIModel(context.Background(), Options{
		Store:  s,
		Parser: rule.NewParser(rule.NewRegistry(nil), nil),
		Filter: "today",
	})
	m.Init()
	if m.loadErr == nil {
		t.Fatal("expected load error for a directory")
	}
	if !strings.Contains(m.View(), "Error loading tasks") {
		t.Errorf("view:\n%s", m.View())
	}
	press(m, tea.KeyMsg{Type: tea.KeySpace})
}

func TestRunTUIRequiresStore(t *testing.T) {
	if err := RunTUI(context.Background(), Options{}); err == nil {
		t.Error("expected error without store")
	}
}
