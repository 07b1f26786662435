package todo

import (
	"fmt"
	"os"
	"path/filepath"
)

// Schema is the JSON Schema for task files.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "schedulr task file",
  "type": "object",
  "required": ["schema_version", "tasks"],
  "additionalProperties": false,
  "properties": {
    "schema_version": { "const": 1 },
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "title", "completed"],
        "additionalProperties": false,
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "title": { "type": "string", "minLength": 1 },
          "notes": { "type": "string" },
          "due": { "type": "string", "format": "date-time" },
          "completed": { "type": "boolean" },
          "completed_at": { "type": "string", "format": "date-time" },
          "completion": { "enum": ["default", "verbose"] },
          "tags": {
            "type": "array",
            "items": { "type": "string", "pattern": "^\\S+$" }
          },
          "created_at": { "type": "string", "format": "date-time" },
          "updated_at": { "type": "string", "format": "date-time" }
        }
      }
    }
  }
}
`

// WriteSchema writes Schema to path unless a file already exists there.
// It reports whether the file was written.
func WriteSchema(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat schema file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("create schema dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Schema), 0644); err != nil {
		return false, fmt.Errorf("write schema file: %w", err)
	}
	return true, nil
}
