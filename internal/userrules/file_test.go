package userrules

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nibzard/schedulr-go/internal/rule"
)

func TestReadFileKeepsOrder(t *testing.T) {
	path := writeRules(t, `[rules]
zeta = "a"
alpha = "b"
mid = "zeta + alpha"
`)
	defs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	want := []Definition{
		{Name: "zeta", Expr: "a"},
		{Name: "alpha", Expr: "b"},
		{Name: "mid", Expr: "zeta + alpha"},
	}
	if !reflect.DeepEqual(defs, want) {
		t.Errorf("ReadFile = %v, want %v", defs, want)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rules.toml")
	defs := []Definition{{Name: "urgent", Expr: "today - completed"}, {Name: "chores", Expr: "home & !completed"}}
	if err := WriteFile(path, defs); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "# schedulr user rules\n") || !strings.Contains(string(data), "[rules]") {
		t.Errorf("file = %q", data)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	// The encoder sorts keys.
	want := []Definition{{Name: "chores", Expr: "home & !completed"}, {Name: "urgent", Expr: "today - completed"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadFile = %v, want %v", got, want)
	}
}

func TestAddToFileAndRemoveFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")

	replaced, err := AddToFile(path, Definition{Name: "urgent", Expr: "today"})
	if err != nil || replaced {
		t.Fatalf("AddToFile = %v, %v", replaced, err)
	}
	replaced, err = AddToFile(path, Definition{Name: "urgent", Expr: "today - completed"})
	if err != nil || !replaced {
		t.Fatalf("second AddToFile = %v, %v", replaced, err)
	}
	if _, err := AddToFile(path, Definition{Name: "school", Expr: "homework"}); err != nil {
		t.Fatal(err)
	}

	defs, _ := ReadFile(path)
	if len(defs) != 2 {
		t.Fatalf("defs = %v", defs)
	}

	removed, err := RemoveFromFile(path, "urgent")
	if err != nil || !removed {
		t.Fatalf("RemoveFromFile = %v, %v", removed, err)
	}
	removed, err = RemoveFromFile(path, "urgent")
	if err != nil || removed {
		t.Errorf("second RemoveFromFile = %v, %v", removed, err)
	}
	defs, _ = ReadFile(path)
	if !reflect.DeepEqual(names(defs), []string{"school"}) {
		t.Errorf("defs = %v", defs)
	}
}

func TestRemoveFromMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	removed, err := RemoveFromFile(path, "urgent")
	if err != nil || removed {
		t.Errorf("RemoveFromFile = %v, %v", removed, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("RemoveFromFile created a file")
	}
}

func TestAdd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	p := newParser()

	if err := Add(p, path, Definition{Name: "urgent", Expr: "today - completed"}); err != nil {
		t.Fatalf("Add error: %v", err)
	}
	if r, ok := p.Registry().Lookup("urgent"); !ok || r.Name() != "urgent" {
		t.Errorf("urgent not registered: %v %v", r, ok)
	}
	defs, _ := ReadFile(path)
	if len(defs) != 1 || defs[0].Expr != "today - completed" {
		t.Errorf("defs = %v", defs)
	}

	tests := []struct {
		name string
		def  Definition
		want error
	}{
		{"invalid expression", Definition{Name: "broken", Expr: "a & (b"}, rule.ErrUnbalanced},
		{"empty expression", Definition{Name: "blank", Expr: "  "}, ErrEmptyExpr},
		{"built-in", Definition{Name: "today", Expr: "x"}, ErrBuiltin},
		{"reserved", Definition{Name: "+", Expr: "x"}, ErrReservedName},
		{"self reference", Definition{Name: "loop", Expr: "loop + x"}, ErrCycle},
		{"indirect cycle", Definition{Name: "later", Expr: "urgent2 + x"}, ErrCycle},
	}

	if _, err := AddToFile(path, Definition{Name: "urgent2", Expr: "later & y"}); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(path)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Add(p, path, tt.def)
			if !errors.Is(err, tt.want) {
				t.Errorf("Add(%v) error = %v, want %v", tt.def, err, tt.want)
			}
			after, _ := os.ReadFile(path)
			if string(after) != string(before) {
				t.Error("rejected definition changed the rules file")
			}
		})
	}
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	p := newParser()
	reg := p.Registry()

	if err := Add(p, path, Definition{Name: "urgent", Expr: "today"}); err != nil {
		t.Fatal(err)
	}

	if _, err := Remove(reg, path, rule.WeekName); !errors.Is(err, ErrBuiltin) {
		t.Errorf("Remove(week) error = %v, want ErrBuiltin", err)
	}

	removed, err := Remove(reg, path, "urgent")
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	if _, ok := reg.Lookup("urgent"); ok {
		t.Error("urgent still registered")
	}

	removed, err = Remove(reg, path, "urgent")
	if err != nil || removed {
		t.Errorf("second Remove = %v, %v", removed, err)
	}
}
