// Package rule compiles filter expressions into task predicates.
//
// An expression combines names with infix operators and a negation prefix:
//
//	today & homework
//	(today + week) - completed
//	!completed $ urgent
//
// # Operators
//
//   - "&": and
//   - "+": or
//   - "-": difference (left and not right)
//   - "$": symmetric difference (exactly one side)
//   - "!" prefix: negation of the attached term
//
// Tokens are separated by spaces. There is no precedence: every operator
// takes the whole rest of the expression as its right operand, so
// "a - b - c" means "a - (b - c)". Parentheses group explicitly.
//
// # Names
//
// Names resolve through a Registry. The built-in rules are "today" (due
// today or overdue), "week" (due within seven days) and "completed". Any
// other name is a tag, matching tasks that carry it. User rules are
// registered on top of the built-ins by package userrules.
//
// # Evaluation
//
// Parsing happens in two steps. Flatten replaces every parenthesized group,
// innermost first, by its index in a side table, leaving a flat token
// string. The evaluator then scans tokens left to right, following numeric
// tokens back into the table.
//
// Parser.Compile never fails: empty, malformed or nothing-resolving input
// yields Nothing, so a broken filter shows no tasks.
package rule
