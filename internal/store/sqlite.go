package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/nibzard/schedulr-go/internal/todo"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
	position INTEGER NOT NULL,
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	due TEXT,
	completed BOOLEAN NOT NULL DEFAULT 0,
	completed_at TEXT,
	completion TEXT NOT NULL DEFAULT '',
	created_at TEXT,
	updated_at TEXT
);
CREATE TABLE IF NOT EXISTS task_tags (
	task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (task_id, tag)
);
CREATE INDEX IF NOT EXISTS task_tags_tag ON task_tags(tag);
`

// SQLiteStore keeps tasks in a SQLite database.
type SQLiteStore struct {
	path   string
	db     *sql.DB
	logger *log.Logger
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection keeps transactions and pragmas on the same handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	logger.Debug("opened database", "path", path)
	return &SQLiteStore{path: path, db: db, logger: logger}, nil
}

// Load reads every task in stored order.
func (s *SQLiteStore) Load(ctx context.Context) (*todo.File, error) {
	f := todo.NewFile()

	var version string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("read schema version: %w", err)
	default:
		v, err := strconv.Atoi(version)
		if err != nil || v != todo.SchemaVersion {
			return nil, fmt.Errorf("unsupported schema version %q in %s", version, s.path)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, notes, due, completed, completed_at, completion, created_at, updated_at
		FROM tasks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	for rows.Next() {
		var t todo.Task
		var due, completedAt, createdAt, updatedAt sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Notes, &due, &t.Completed, &completedAt, &t.Completion, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		for _, field := range []struct {
			src *sql.NullString
			dst **time.Time
		}{
			{&due, &t.Due},
			{&completedAt, &t.CompletedAt},
			{&createdAt, &t.CreatedAt},
			{&updatedAt, &t.UpdatedAt},
		} {
			ts, err := parseTime(*field.src)
			if err != nil {
				return nil, fmt.Errorf("task %s: %w", t.ID, err)
			}
			*field.dst = ts
		}
		index[t.ID] = len(f.Tasks)
		f.Tasks = append(f.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}

	tagRows, err := s.db.QueryContext(ctx, "SELECT task_id, tag FROM task_tags ORDER BY task_id, position")
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var id, tag string
		if err := tagRows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		if i, ok := index[id]; ok {
			f.Tasks[i].Tags = append(f.Tasks[i].Tags, tag)
		}
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}

	s.logger.Debug("loaded tasks", "db", s.path, "count", len(f.Tasks))
	return f, nil
}

// Save replaces every stored task with the tasks in f in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, f *todo.File) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM task_tags", "DELETE FROM tasks"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear tasks: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO meta (key, value) VALUES ('schema_version', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		strconv.Itoa(todo.SchemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	insertTask, err := tx.PrepareContext(ctx, `INSERT INTO tasks
		(position, id, title, notes, due, completed, completed_at, completion, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare task insert: %w", err)
	}
	defer insertTask.Close()
	insertTag, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO task_tags (task_id, position, tag) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare tag insert: %w", err)
	}
	defer insertTag.Close()

	for i, t := range f.Tasks {
		if _, err := insertTask.ExecContext(ctx, i, t.ID, t.Title, t.Notes,
			formatTime(t.Due), t.Completed, formatTime(t.CompletedAt), t.Completion,
			formatTime(t.CreatedAt), formatTime(t.UpdatedAt)); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
		for j, tag := range t.Tags {
			if _, err := insertTag.ExecContext(ctx, t.ID, j, tag); err != nil {
				return fmt.Errorf("insert tag %s on %s: %w", tag, t.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("saved tasks", "db", s.path, "count", len(f.Tasks))
	return nil
}

// TaggedIDs returns the IDs of tasks carrying tag, using the tag index.
func (s *SQLiteStore) TaggedIDs(ctx context.Context, tag string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT t.id FROM task_tags g JOIN tasks t ON t.id = g.task_id
		WHERE g.tag = ? ORDER BY t.position`, tag)
	if err != nil {
		return nil, fmt.Errorf("query tag %s: %w", tag, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Location returns the database path.
func (s *SQLiteStore) Location() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", s.String, err)
	}
	return &t, nil
}
