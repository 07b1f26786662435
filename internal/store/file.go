package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/nibzard/schedulr-go/internal/todo"
)

// FileStore keeps tasks in a JSON file.
type FileStore struct {
	Path       string
	SchemaPath string
	logger     *log.Logger
}

// NewFileStore returns a store for the JSON file at path. When schemaPath
// is set, loads are validated against it and saves write it if missing.
func NewFileStore(path, schemaPath string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FileStore{Path: path, SchemaPath: schemaPath, logger: logger}
}

// Load reads and validates the task file. A missing file yields an empty
// task list.
func (s *FileStore) Load(ctx context.Context) (*todo.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := todo.Load(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Debug("task file missing, starting empty", "path", s.Path)
			return todo.NewFile(), nil
		}
		return nil, err
	}

	result := f.Validate(todo.ValidationOptions{SchemaPath: s.SchemaPath})
	for _, warning := range result.Warnings {
		s.logger.Debug("task file validation", "path", s.Path, "warning", warning)
	}
	if !result.Valid {
		return nil, fmt.Errorf("invalid task file %s: %w", s.Path, errors.Join(result.Errors...))
	}
	s.logger.Debug("loaded tasks", "path", s.Path, "count", len(f.Tasks), "schema", result.UsedSchema)
	return f, nil
}

// Save writes f to the task file, and the schema next to it if missing.
func (s *FileStore) Save(ctx context.Context, f *todo.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.SchemaPath != "" {
		written, err := todo.WriteSchema(s.SchemaPath)
		if err != nil {
			return err
		}
		if written {
			s.logger.Info("wrote schema", "path", s.SchemaPath)
		}
	}
	if err := f.Save(s.Path); err != nil {
		return err
	}
	s.logger.Debug("saved tasks", "path", s.Path, "count", len(f.Tasks))
	return nil
}

// Location returns the task file path.
func (s *FileStore) Location() string { return s.Path }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }
