// Package ui provides the terminal task browser.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/nibzard/schedulr-go/internal/rule"
	"github.com/nibzard/schedulr-go/internal/store"
	"github.com/nibzard/schedulr-go/internal/todo"
)

// Options configures the TUI.
type Options struct {
	Store  store.Store
	Parser *rule.Parser
	Logger *log.Logger
	// Filter is the initial filter expression.
	Filter string
	// AutoSave writes every change as it is made. Otherwise w saves.
	AutoSave bool
	// Completion names the behavior for tasks that do not name their own.
	Completion string
}

// RunTUI starts the TUI and blocks until it exits.
func RunTUI(ctx context.Context, opts Options) error {
	if opts.Store == nil || opts.Parser == nil {
		return fmt.Errorf("tui needs a store and a parser")
	}
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(ctx, opts)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := program.Run()
	if err != nil {
		return err
	}
	if m, ok := finalModel.(*tuiModel); ok && m.saveErr != nil {
		return m.saveErr
	}
	return nil
}

type tuiModel struct {
	ctx    context.Context
	opts   Options
	logger *log.Logger

	file    *todo.File
	loadErr error

	filter    string
	matcher   *rule.Rule
	filterErr error
	tasks     []todo.Task
	cursor    int

	editing bool
	input   string

	showHelp     bool
	dirty        bool
	confirmQuit  bool
	status       string
	saveErr      error
	tickInterval time.Duration
}

type tickMsg time.Time

func newTUIModel(ctx context.Context, opts Options) *tuiModel {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &tuiModel{
		ctx:          ctx,
		opts:         opts,
		logger:       logger,
		filter:       opts.Filter,
		tickInterval: time.Minute,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	m.refresh()
	m.setFilter(m.filter)
	return tickCmd(m.tickInterval)
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateFilterInput(msg)
		}
		key := msg.String()
		if key != "q" {
			m.confirmQuit = false
		}
		switch key {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.dirty && !m.confirmQuit {
				m.confirmQuit = true
				m.status = "Unsaved changes: w to save, q again to discard"
				return m, nil
			}
			return m, tea.Quit
		case "/":
			m.editing = true
			m.input = m.filter
			return m, nil
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
			return m, nil
		case " ", "x":
			m.toggleSelected()
			return m, nil
		case "w":
			m.save()
			return m, nil
		case "r", "f5":
			if m.dirty {
				m.status = "Unsaved changes: w to save before reloading"
				return m, nil
			}
			m.refresh()
			m.applyFilter()
			m.status = "Reloaded"
			return m, nil
		case "h", "?":
			m.showHelp = !m.showHelp
			return m, nil
		}
	case tickMsg:
		// Date rules read the clock on every test, so re-filtering picks up
		// a new day without reloading.
		m.applyFilter()
		return m, tickCmd(m.tickInterval)
	}

	return m, nil
}

func (m *tuiModel) updateFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEnter:
		m.editing = false
		m.setFilter(m.input)
	case tea.KeyEsc:
		m.editing = false
		m.input = ""
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m)
		return b.String()
	}

	writeFilter(&b, m)

	if m.loadErr != nil {
		b.WriteString("Error loading tasks:\n")
		b.WriteString("  " + m.loadErr.Error() + "\n\n")
		writeFooter(&b, m)
		return b.String()
	}

	writeTasks(&b, m)
	writeFooter(&b, m)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *tuiModel) refresh() {
	f, err := m.opts.Store.Load(m.ctx)
	if err != nil {
		m.loadErr = err
		m.file = nil
		return
	}
	m.loadErr = nil
	m.file = f
	m.dirty = false
}

// setFilter compiles expr and makes it the active filter. An invalid
// expression shows no tasks until it is fixed.
func (m *tuiModel) setFilter(expr string) {
	m.filter = expr
	m.cursor = 0
	r, err := m.opts.Parser.Parse(expr)
	switch {
	case err != nil:
		m.matcher = nil
		m.filterErr = err
		m.logger.Debug("invalid filter", "expr", expr, "err", err)
	case r == nil:
		m.matcher = rule.Nothing
		m.filterErr = nil
	default:
		m.matcher = r
		m.filterErr = nil
	}
	m.applyFilter()
}

// applyFilter recomputes the visible tasks, keeping the cursor on the same
// task when it is still visible.
func (m *tuiModel) applyFilter() {
	selected := ""
	if m.cursor < len(m.tasks) {
		selected = m.tasks[m.cursor].ID
	}

	m.tasks = nil
	if m.file == nil || m.matcher == nil {
		m.cursor = 0
		return
	}
	m.tasks = m.file.Filter(m.matcher)
	todo.SortTasks(m.tasks)

	for i := range m.tasks {
		if m.tasks[i].ID == selected {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.tasks) {
		m.cursor = max(len(m.tasks)-1, 0)
	}
}

func (m *tuiModel) toggleSelected() {
	if m.file == nil || len(m.tasks) == 0 {
		return
	}
	t := m.tasks[m.cursor]
	if err := m.file.SetCompleted(t.ID, !t.Completed, m.opts.Completion, m.logger); err != nil {
		m.status = err.Error()
		return
	}
	if t.Completed {
		m.status = "Reopened " + t.ID
	} else {
		m.status = "Completed " + t.ID
	}
	m.dirty = true
	if m.opts.AutoSave {
		m.save()
	}
	m.applyFilter()
}

func (m *tuiModel) save() {
	if m.file == nil || !m.dirty {
		return
	}
	if err := m.opts.Store.Save(m.ctx, m.file); err != nil {
		m.saveErr = fmt.Errorf("saving tasks: %w", err)
		m.status = m.saveErr.Error()
		return
	}
	m.saveErr = nil
	m.dirty = false
	m.confirmQuit = false
	if !m.opts.AutoSave {
		m.status = "Saved"
	}
}

func writeTitle(b *strings.Builder) {
	title := "schedulr"
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeFilter(b *strings.Builder, m *tuiModel) {
	if m.editing {
		b.WriteString(fmt.Sprintf("Filter: %s_\n", m.input))
		b.WriteString("  enter to apply, esc to cancel\n\n")
		return
	}
	b.WriteString(fmt.Sprintf("Filter: %s\n", m.filter))
	if m.filterErr != nil {
		b.WriteString("  Invalid filter: " + m.filterErr.Error() + "\n")
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, m *tuiModel) {
	if m.filterErr != nil {
		b.WriteString("  Fix the filter to see tasks (press /).\n\n")
		return
	}
	if len(m.tasks) == 0 {
		b.WriteString("  No tasks match.\n\n")
		return
	}
	for i := range m.tasks {
		b.WriteString(formatTask(&m.tasks[i], i == m.cursor))
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  %d of %d tasks\n\n", len(m.tasks), len(m.file.Tasks)))
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  q, ctrl+c    Quit\n")
	b.WriteString("  /            Edit the filter expression\n")
	b.WriteString("  up, k        Move up\n")
	b.WriteString("  down, j      Move down\n")
	b.WriteString("  space, x     Toggle completion\n")
	b.WriteString("  w            Save changes\n")
	b.WriteString("  r, F5        Reload tasks\n")
	b.WriteString("  h, ?         Toggle this help screen\n\n")
	b.WriteString("Filter expressions\n\n")
	b.WriteString("  today, week, completed, user rules, or any tag name\n")
	b.WriteString("  a & b  both    a + b  either    a - b  a but not b\n")
	b.WriteString("  a $ b  exactly one    !a  not a    (a + b) & c  grouping\n\n")
}

func writeFooter(b *strings.Builder, m *tuiModel) {
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	save := "auto-save on"
	if !m.opts.AutoSave {
		save = "w to save"
		if m.dirty {
			save += " (unsaved changes)"
		}
	}
	b.WriteString(fmt.Sprintf("Press h for help | / to filter | q to quit | %s\n", save))
}

func formatTask(t *todo.Task, selected bool) string {
	pointer := " "
	if selected {
		pointer = ">"
	}
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s %-5s %-10s  %s", pointer, box, t.ID, t.DueString(), t.Title)
	if len(t.Tags) > 0 {
		line += "  #" + strings.Join(t.Tags, " #")
	}
	return line
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
