package rule

import "sort"

// Operator is a binary infix combinator in filter expressions.
type Operator struct {
	Symbol string
	Name   string
	apply  func(a, b *Rule) *Rule
}

// Apply combines a and b.
func (o *Operator) Apply(a, b *Rule) *Rule {
	return o.apply(a, b)
}

// String returns the symbol.
func (o *Operator) String() string {
	return o.Symbol
}

// NegationPrefix inverts the term it is attached to, as in "!completed".
const NegationPrefix = "!"

var operators = map[string]*Operator{
	"&": {Symbol: "&", Name: "and", apply: And},
	"+": {Symbol: "+", Name: "or", apply: Or},
	"-": {Symbol: "-", Name: "difference", apply: Difference},
	"$": {Symbol: "$", Name: "xor", apply: Xor},
}

// LookupOperator returns the operator for an exact symbol match.
func LookupOperator(symbol string) (*Operator, bool) {
	op, ok := operators[symbol]
	return op, ok
}

// Operators returns every operator ordered by symbol.
func Operators() []*Operator {
	ops := make([]*Operator, 0, len(operators))
	for _, op := range operators {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Symbol < ops[j].Symbol })
	return ops
}
