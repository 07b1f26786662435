// Package store persists task files, either as a JSON document or in a
// SQLite database.
package store

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/schedulr-go/internal/config"
	"github.com/nibzard/schedulr-go/internal/todo"
)

// Store loads and saves the whole task list.
type Store interface {
	// Load returns the stored tasks. An empty store yields an empty file.
	Load(ctx context.Context) (*todo.File, error)
	// Save replaces the stored tasks with f.
	Save(ctx context.Context, f *todo.File) error
	// Location describes where tasks are kept.
	Location() string
	Close() error
}

// Open returns the backend selected by cfg.Store.
func Open(cfg *config.Config, logger *log.Logger) (Store, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	switch cfg.Store {
	case config.StoreSQLite:
		return OpenSQLite(cfg.DBFile, logger)
	default:
		return NewFileStore(cfg.TodoFile, cfg.SchemaFile, logger), nil
	}
}
