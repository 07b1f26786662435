package rule

import (
	"fmt"

	"github.com/nibzard/schedulr-go/internal/todo"
)

// Rule is a named boolean test over a task. Rules are immutable; the
// combinators below build new rules that share their operands.
type Rule struct {
	name string
	test func(*todo.Task) bool
}

// New returns a rule with the given display name and test.
func New(name string, test func(*todo.Task) bool) *Rule {
	if test == nil {
		test = func(*todo.Task) bool { return false }
	}
	return &Rule{name: name, test: test}
}

// Nothing matches no task. Compile returns it for empty or invalid input.
var Nothing = New("nothing", func(*todo.Task) bool { return false })

// Name returns the display name.
func (r *Rule) Name() string {
	if r == nil {
		return ""
	}
	return r.name
}

// String returns the display name.
func (r *Rule) String() string {
	return r.Name()
}

// Test reports whether t satisfies the rule. A nil rule matches nothing.
func (r *Rule) Test(t *todo.Task) bool {
	if r == nil {
		return false
	}
	return r.test(t)
}

// Named returns a rule that tests like r under a different name. User rules
// are registered this way so listings show "urgent" rather than the
// expression it was compiled from.
func Named(name string, r *Rule) *Rule {
	return New(name, r.Test)
}

// And is true when both a and b are.
func And(a, b *Rule) *Rule {
	return &Rule{
		name: fmt.Sprintf("(%s & %s)", a.Name(), b.Name()),
		test: func(t *todo.Task) bool { return a.Test(t) && b.Test(t) },
	}
}

// Or is true when either a or b is.
func Or(a, b *Rule) *Rule {
	return &Rule{
		name: fmt.Sprintf("(%s + %s)", a.Name(), b.Name()),
		test: func(t *todo.Task) bool { return a.Test(t) || b.Test(t) },
	}
}

// Not inverts a.
func Not(a *Rule) *Rule {
	return &Rule{
		name: "!" + a.Name(),
		test: func(t *todo.Task) bool { return !a.Test(t) },
	}
}

// Difference is a AND NOT b.
func Difference(a, b *Rule) *Rule {
	return And(a, Not(b))
}

// Xor is (a OR b) AND NOT (a AND b).
func Xor(a, b *Rule) *Rule {
	return And(Or(a, b), Not(And(a, b)))
}
