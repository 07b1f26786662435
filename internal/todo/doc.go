// Package todo parses, validates, and updates task files.
//
// The task file format (to-do.json):
//
//	{
//	  "schema_version": 1,
//	  "tasks": [
//	    {
//	      "id": "T001",
//	      "title": "Essay draft",
//	      "notes": "Optional notes",
//	      "due": "2024-01-01T00:00:00+01:00",
//	      "completed": false,
//	      "completion": "default",
//	      "tags": ["school", "homework"],
//	      "created_at": "2024-01-01T00:00:00Z",
//	      "updated_at": "2024-01-01T00:00:00Z"
//	    }
//	  ]
//	}
//
// # Validation
//
// The package supports two validation modes:
//
// 1. JSON Schema validation (when a schema file is provided):
//   - Full validation against JSON Schema draft-2020-12 (see Schema)
//
// 2. Minimal fallback validation (when no schema is available):
//   - schema_version and tasks presence
//   - Task field validation (id, title, completion behavior, tags)
//   - Duplicate IDs
//
// # Due Dates
//
// Tasks without a due date are "dateless" and render as "Eventually".
// They sort after every dated task.
//
// # Completion Behaviors
//
//   - "default": flips the completed flag
//   - "verbose": flips the flag and logs the change
//
// # Legacy Import
//
// ImportLegacy reads the pipe-delimited line format written by the older
// desktop client.
package todo
