package compiler

import "github.com/mna/lox/token"

// Precedence is the binding power of an operator in the Pratt expression
// parser, lowest to highest exactly as spec.md's precedence ladder.
type Precedence int

const (
	PrecNone       Precedence = iota
	PrecAssignment            // =
	PrecOr                    // or
	PrecAnd                   // and
	PrecEquality              // == !=
	PrecComparison            // < > <= >=
	PrecTerm                  // + -
	PrecFactor                // * /
	PrecUnary                 // ! -
	PrecCall                  // . ()
	PrecPrimary
)

type (
	prefixParseFn func(p *parser, canAssign bool)
	infixParseFn  func(p *parser, canAssign bool)
)

// parseRule is the {prefix, infix, precedence} triple the Pratt parser
// dispatches on, keyed by token kind, per spec.md §4.3/§9.
type parseRule struct {
	prefix     prefixParseFn
	infix      infixParseFn
	precedence Precedence
}

var rules map[token.Token]parseRule

func init() {
	rules = map[token.Token]parseRule{
		token.LPAREN:  {prefix: (*parser).grouping, infix: (*parser).call, precedence: PrecCall},
		token.DOT:     {infix: (*parser).dot, precedence: PrecCall},
		token.MINUS:   {prefix: (*parser).unary, infix: (*parser).binary, precedence: PrecTerm},
		token.PLUS:    {infix: (*parser).binary, precedence: PrecTerm},
		token.SLASH:   {infix: (*parser).binary, precedence: PrecFactor},
		token.STAR:    {infix: (*parser).binary, precedence: PrecFactor},
		token.BANG:    {prefix: (*parser).unary},
		token.BANG_EQ: {infix: (*parser).binary, precedence: PrecEquality},
		token.EQ_EQ:   {infix: (*parser).binary, precedence: PrecEquality},
		token.GT:      {infix: (*parser).binary, precedence: PrecComparison},
		token.GT_EQ:   {infix: (*parser).binary, precedence: PrecComparison},
		token.LT:      {infix: (*parser).binary, precedence: PrecComparison},
		token.LT_EQ:   {infix: (*parser).binary, precedence: PrecComparison},
		token.IDENT:   {prefix: (*parser).variable},
		token.STRING:  {prefix: (*parser).string},
		token.NUMBER:  {prefix: (*parser).number},
		token.AND:     {infix: (*parser).and, precedence: PrecAnd},
		token.OR:      {infix: (*parser).or, precedence: PrecOr},
		token.FALSE:   {prefix: (*parser).literal},
		token.NIL:     {prefix: (*parser).literal},
		token.TRUE:    {prefix: (*parser).literal},
		token.THIS:    {prefix: (*parser).this},
		token.SUPER:   {prefix: (*parser).super},
	}
}

func getRule(tok token.Token) parseRule {
	return rules[tok]
}
