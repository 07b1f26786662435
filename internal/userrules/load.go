package userrules

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/schedulr-go/internal/rule"
)

var (
	// ErrReservedName reports a name the parser would not read as a name.
	ErrReservedName = errors.New("reserved rule name")
	// ErrBuiltin reports an attempt to redefine a built-in rule.
	ErrBuiltin = errors.New("cannot redefine built-in rule")
	// ErrCycle reports rules that reference each other in a loop.
	ErrCycle = errors.New("rule cycle")
	// ErrEmptyExpr reports a definition whose expression matches nothing.
	ErrEmptyExpr = errors.New("empty rule expression")
)

// CheckName reports whether name may be used for a user rule.
func CheckName(reg *rule.Registry, name string) error {
	if rule.IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	if reg.IsBuiltin(name) {
		return fmt.Errorf("%w: %q", ErrBuiltin, name)
	}
	return nil
}

// Load reads every source, later sources overriding earlier ones by name,
// and registers each definition with the parser's registry. A rule is
// compiled after the user rules it references. Definitions that fail are
// skipped and reported in the joined error; the rest still load. It
// returns the definitions that loaded, in the order they were registered.
func Load(p *rule.Parser, logger *log.Logger, sources ...Source) ([]Definition, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	reg := p.Registry()

	var errs []error
	var names []string
	defs := make(map[string]Definition)
	for _, src := range sources {
		list, err := src.Definitions()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		for _, def := range list {
			if err := CheckName(reg, def.Name); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
				continue
			}
			if prev, ok := defs[def.Name]; ok {
				logger.Debug("rule overridden", "rule", def.Name, "from", prev.Origin, "by", def.Origin)
			} else {
				names = append(names, def.Name)
			}
			defs[def.Name] = def
		}
	}

	r := &resolver{
		parser: p,
		defs:   defs,
		state:  make(map[string]visitState),
		failed: make(map[string]error),
	}
	for _, name := range names {
		if err := r.visit(name, nil); err != nil {
			errs = append(errs, fmt.Errorf("rule %q: %w", name, err))
		}
	}
	for _, def := range r.loaded {
		logger.Debug("loaded rule", "rule", def.Name, "expr", def.Expr, "source", def.Origin)
	}

	return r.loaded, errors.Join(errs...)
}

type visitState int

const (
	unvisited visitState = iota
	visiting
	visited
)

type resolver struct {
	parser *rule.Parser
	defs   map[string]Definition
	state  map[string]visitState
	failed map[string]error
	loaded []Definition
}

// visit compiles and registers name after its dependencies. path holds the
// names currently being resolved, for cycle reports.
func (r *resolver) visit(name string, path []string) error {
	switch r.state[name] {
	case visiting:
		return fmt.Errorf("%w: %s", ErrCycle, joinPath(append(path, name)))
	case visited:
		return r.failed[name]
	}
	r.state[name] = visiting
	err := r.resolve(name, append(path, name))
	r.state[name] = visited
	if err != nil {
		r.failed[name] = err
	}
	return err
}

func (r *resolver) resolve(name string, path []string) error {
	def := r.defs[name]
	refs, err := rule.References(def.Expr)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		if _, ok := r.defs[ref]; !ok {
			continue
		}
		if err := r.visit(ref, path); err != nil {
			if errors.Is(err, ErrCycle) {
				return err
			}
			return fmt.Errorf("depends on %q: %w", ref, err)
		}
	}

	compiled, err := r.parser.Parse(def.Expr)
	if err != nil {
		return err
	}
	if compiled == nil {
		return ErrEmptyExpr
	}
	r.parser.Registry().Register(rule.Named(name, compiled))
	r.loaded = append(r.loaded, def)
	return nil
}

func joinPath(names []string) string {
	return strings.Join(names, " -> ")
}
