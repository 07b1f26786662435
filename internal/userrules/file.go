package userrules

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/schedulr-go/internal/rule"
)

// WriteFile replaces path with defs. The encoder writes rules sorted by
// name.
func WriteFile(path string, defs []Definition) error {
	f := rulesFile{Rules: make(map[string]string, len(defs))}
	for _, def := range defs {
		f.Rules[def.Name] = def.Expr
	}

	var buf bytes.Buffer
	buf.WriteString("# schedulr user rules\n")
	if err := toml.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encode rules file: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create rules dir: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	return nil
}

// AddToFile adds def to the rules file at path, replacing a rule with the
// same name. It reports whether an existing rule was replaced.
func AddToFile(path string, def Definition) (bool, error) {
	defs, err := ReadFile(path)
	if err != nil {
		return false, err
	}
	replaced := false
	for i := range defs {
		if defs[i].Name == def.Name {
			defs[i].Expr = def.Expr
			replaced = true
		}
	}
	if !replaced {
		defs = append(defs, def)
	}
	return replaced, WriteFile(path, defs)
}

// RemoveFromFile deletes the named rule from the file at path and reports
// whether it was present. The file is left untouched when it was not.
func RemoveFromFile(path, name string) (bool, error) {
	defs, err := ReadFile(path)
	if err != nil {
		return false, err
	}
	kept := defs[:0]
	for _, def := range defs {
		if def.Name != name {
			kept = append(kept, def)
		}
	}
	if len(kept) == len(defs) {
		return false, nil
	}
	return true, WriteFile(path, kept)
}

// Add validates def against the rules already in path, registers it with
// the parser's registry, and saves it to path. Nothing is written when the
// definition is invalid or would create a reference cycle.
func Add(p *rule.Parser, path string, def Definition) error {
	reg := p.Registry()
	if err := CheckName(reg, def.Name); err != nil {
		return err
	}
	compiled, err := p.Parse(def.Expr)
	if err != nil {
		return fmt.Errorf("rule %q: %w", def.Name, err)
	}
	if compiled == nil {
		return fmt.Errorf("rule %q: %w", def.Name, ErrEmptyExpr)
	}

	existing, err := ReadFile(path)
	if err != nil {
		return err
	}
	defs := make(map[string]Definition, len(existing)+1)
	for _, d := range existing {
		defs[d.Name] = d
	}
	def.Origin = path
	defs[def.Name] = def
	if err := checkCycles(defs, def.Name); err != nil {
		return fmt.Errorf("rule %q: %w", def.Name, err)
	}

	if _, err := AddToFile(path, def); err != nil {
		return err
	}
	reg.Register(rule.Named(def.Name, compiled))
	return nil
}

// Remove deletes the named rule from path and unregisters it. It reports
// whether the rule was in the file.
func Remove(reg *rule.Registry, path, name string) (bool, error) {
	if reg.IsBuiltin(name) {
		return false, fmt.Errorf("%w: %q", ErrBuiltin, name)
	}
	removed, err := RemoveFromFile(path, name)
	if err != nil || !removed {
		return removed, err
	}
	reg.Unregister(name)
	return true, nil
}

// checkCycles reports a cycle reachable from start.
func checkCycles(defs map[string]Definition, start string) error {
	state := make(map[string]visitState)
	var walk func(name string, path []string) error
	walk = func(name string, path []string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: %s", ErrCycle, joinPath(append(path, name)))
		case visited:
			return nil
		}
		state[name] = visiting
		refs, err := rule.References(defs[name].Expr)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if _, ok := defs[ref]; !ok {
				continue
			}
			if err := walk(ref, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = visited
		return nil
	}
	return walk(start, nil)
}
