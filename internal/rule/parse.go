package rule

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnbalanced reports a ')' without a preceding '(' or a '(' that is
	// never closed.
	ErrUnbalanced = errors.New("unbalanced parentheses")
	// ErrBadReference reports a numeral that does not name an earlier
	// parenthesized group.
	ErrBadReference = errors.New("invalid group reference")
	// ErrEmptyOperand reports an operator or negation with nothing to act on.
	ErrEmptyOperand = errors.New("missing operand")
)

// Flatten rewrites input until it has no parentheses. Each pass takes the
// first ')' and the last '(' before it, appends the text between them to
// groups, and replaces the whole group, parentheses included, with its
// decimal index.
func Flatten(input string) (string, []string, error) {
	var groups []string
	for {
		end := strings.IndexByte(input, ')')
		if end < 0 {
			if open := strings.IndexByte(input, '('); open >= 0 {
				return "", nil, fmt.Errorf("%w: '(' is never closed in %q", ErrUnbalanced, input)
			}
			return input, groups, nil
		}
		begin := strings.LastIndexByte(input[:end], '(')
		if begin < 0 {
			return "", nil, fmt.Errorf("%w: ')' has no matching '(' in %q", ErrUnbalanced, input)
		}
		groups = append(groups, input[begin+1:end])
		input = input[:begin] + strconv.Itoa(len(groups)-1) + input[end+1:]
	}
}

type tokenKind int

const (
	tokenName tokenKind = iota
	tokenNegation
	tokenOperator
	tokenReference
)

func (k tokenKind) String() string {
	switch k {
	case tokenNegation:
		return "negation"
	case tokenOperator:
		return "operator"
	case tokenReference:
		return "reference"
	default:
		return "name"
	}
}

func classify(tok string) tokenKind {
	if strings.HasPrefix(tok, NegationPrefix) {
		return tokenNegation
	}
	if _, ok := LookupOperator(tok); ok {
		return tokenOperator
	}
	if isDigits(tok) {
		return tokenReference
	}
	return tokenName
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsReserved reports whether name cannot be looked up as a rule or tag
// because the parser reads it as something else.
func IsReserved(name string) bool {
	if name == "" || strings.ContainsAny(name, " \t\n()") {
		return true
	}
	return classify(name) != tokenName
}

// Parser compiles filter expressions against a registry.
type Parser struct {
	registry *Registry
	logger   *log.Logger
}

// NewParser returns a parser resolving names through reg. A nil logger
// discards output.
func NewParser(reg *Registry, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Parser{registry: reg, logger: logger}
}

// Registry returns the registry the parser resolves names through.
func (p *Parser) Registry() *Registry {
	return p.registry
}

// Parse compiles input. Operators are right-associative and bind
// everything to their right: "a - b - c" is "a - (b - c)". Parentheses are
// the only way to group otherwise. A nil rule with a nil error means the
// input resolves to nothing.
func (p *Parser) Parse(input string) (*Rule, error) {
	flat, groups, err := Flatten(input)
	if err != nil {
		return nil, err
	}
	e := &evaluator{resolve: p.registry.Resolve, groups: groups}
	return e.eval(flat, len(groups))
}

// Compile is Parse for display filters: errors are logged and, like input
// that resolves to nothing, produce Nothing.
func (p *Parser) Compile(input string) *Rule {
	r, err := p.Parse(input)
	if err != nil {
		p.logger.Warn("invalid filter expression", "expr", input, "err", err)
		return Nothing
	}
	if r == nil {
		return Nothing
	}
	p.logger.Debug("compiled filter", "expr", input, "rule", r.Name())
	return r
}

type evaluator struct {
	resolve func(string) *Rule
	groups  []string
}

// eval evaluates text, which may reference groups below limit. Group i
// only ever contains references to groups before it.
func (e *evaluator) eval(text string, limit int) (*Rule, error) {
	return e.evalTokens(strings.Fields(text), limit)
}

func (e *evaluator) evalTokens(tokens []string, limit int) (*Rule, error) {
	var current *Rule
	for i, tok := range tokens {
		switch classify(tok) {
		case tokenNegation:
			inner, err := e.eval(tok[len(NegationPrefix):], limit)
			if err != nil {
				return nil, err
			}
			if inner == nil {
				return nil, fmt.Errorf("%w: %q negates nothing", ErrEmptyOperand, tok)
			}
			current = Not(inner)
		case tokenOperator:
			op, _ := LookupOperator(tok)
			if current == nil {
				return nil, fmt.Errorf("%w: %q has no left operand", ErrEmptyOperand, tok)
			}
			right, err := e.evalTokens(tokens[i+1:], limit)
			if err != nil {
				return nil, err
			}
			if right == nil {
				return nil, fmt.Errorf("%w: %q has no right operand", ErrEmptyOperand, tok)
			}
			return op.Apply(current, right), nil
		case tokenReference:
			ref, err := e.reference(tok, limit)
			if err != nil {
				return nil, err
			}
			current = ref
		default:
			current = e.resolve(tok)
		}
	}
	return current, nil
}

func (e *evaluator) reference(tok string, limit int) (*Rule, error) {
	idx, err := strconv.Atoi(tok)
	if err != nil || idx >= limit {
		return nil, fmt.Errorf("%w: %s", ErrBadReference, tok)
	}
	return e.eval(e.groups[idx], idx)
}

// References returns the distinct rule and tag names input mentions,
// innermost groups first.
func References(input string) ([]string, error) {
	flat, groups, err := Flatten(input)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, text := range append(groups, flat) {
		for _, tok := range strings.Fields(text) {
			tok = strings.TrimLeft(tok, NegationPrefix)
			if tok == "" || classify(tok) != tokenName || seen[tok] {
				continue
			}
			seen[tok] = true
			names = append(names, tok)
		}
	}
	return names, nil
}
