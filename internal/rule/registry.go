package rule

import (
	"sort"
	"sync"
)

// Registry maps names to rules. Names that are not registered resolve to
// tag rules, created on first use and cached so a tag name always yields
// the same *Rule.
type Registry struct {
	mu       sync.RWMutex
	rules    map[string]*Rule
	tags     map[string]*Rule
	builtins map[string]bool
}

// NewRegistry returns a registry holding the built-in rules. A nil clock
// uses time.Now.
func NewRegistry(now Clock) *Registry {
	r := &Registry{
		rules:    make(map[string]*Rule),
		tags:     make(map[string]*Rule),
		builtins: make(map[string]bool),
	}
	for _, b := range Builtins(now) {
		r.rules[b.Name()] = b
		r.builtins[b.Name()] = true
	}
	return r
}

// Resolve returns the rule registered under name, or the tag rule for name.
// It never fails.
func (r *Registry) Resolve(name string) *Rule {
	if rule, ok := r.Lookup(name); ok {
		return rule
	}
	return r.Tag(name)
}

// Lookup returns the registered rule without falling back to tags.
func (r *Registry) Lookup(name string) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Tag returns the cached tag rule for name, creating it if needed.
func (r *Registry) Tag(name string) *Rule {
	r.mu.RLock()
	tag, ok := r.tags[name]
	r.mu.RUnlock()
	if ok {
		return tag
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have created it between the two locks.
	if tag, ok := r.tags[name]; ok {
		return tag
	}
	tag = newTag(name)
	r.tags[name] = tag
	return tag
}

// Register inserts rule under its display name, replacing any previous
// rule with that name.
func (r *Registry) Register(rule *Rule) {
	if rule == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Name()] = rule
}

// Unregister removes the named rule and reports whether it was present.
// Cached tags are not affected.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[name]; !ok {
		return false
	}
	delete(r.rules, name)
	return true
}

// IsBuiltin reports whether name is one of the rules installed by
// NewRegistry.
func (r *Registry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.builtins[name]
}

// Names returns the registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.rules)
}

// Tags returns the names of every tag resolved so far, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.tags)
}

func sortedKeys(m map[string]*Rule) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
