// Package userrules loads user-defined filter rules and persists them to a
// TOML rules file.
//
// A rules file holds a single table:
//
//	[rules]
//	urgent = "today - completed"
//	school = "homework + exams"
//
// Rules may reference each other in any order; Load registers each one
// after the rules it mentions.
package userrules

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
)

// Definition is a named filter expression.
type Definition struct {
	Name string
	Expr string
	// Origin names the source the definition came from.
	Origin string
}

// Source yields rule definitions.
type Source interface {
	Name() string
	Definitions() ([]Definition, error)
}

// FileSource reads the [rules] table of a TOML file. A missing file has no
// definitions.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string { return s.Path }

// Definitions returns the rules in file order.
func (s FileSource) Definitions() ([]Definition, error) {
	defs, err := ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	for i := range defs {
		defs[i].Origin = s.Path
	}
	return defs, nil
}

// MapSource serves definitions from a map, such as the [rules] table of the
// config file.
type MapSource struct {
	Label string
	Rules map[string]string
}

// Name returns the label.
func (s MapSource) Name() string { return s.Label }

// Definitions returns the rules sorted by name.
func (s MapSource) Definitions() ([]Definition, error) {
	names := make([]string, 0, len(s.Rules))
	for name := range s.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Definition{Name: name, Expr: s.Rules[name], Origin: s.Label})
	}
	return defs, nil
}

type rulesFile struct {
	Rules map[string]string `toml:"rules"`
}

// ReadFile returns the definitions in path in the order they appear.
func ReadFile(path string) ([]Definition, error) {
	var f rulesFile
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var defs []Definition
	for _, key := range md.Keys() {
		if len(key) != 2 || key[0] != "rules" {
			continue
		}
		name := key[1]
		defs = append(defs, Definition{Name: name, Expr: f.Rules[name]})
	}
	return defs, nil
}
