package compiler

import (
	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/token"
	"github.com/mna/lox/value"
)

func (p *parser) expression() {
	p.parsePrecedence(PrecAssignment)
}

// parsePrecedence is the Pratt parser's core loop: parse a prefix
// expression, then keep consuming infix operators whose precedence is at
// least as high as the one driving this call.
func (p *parser) parsePrecedence(prec Precedence) {
	p.advance()
	rule := getRule(p.prev.Kind)
	if rule.prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := prec <= PrecAssignment
	rule.prefix(p, canAssign)

	for prec <= getRule(p.cur.Kind).precedence {
		p.advance()
		infix := getRule(p.prev.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) number(canAssign bool) {
	p.emitConstant(parseNumber(p.prev.Lexeme))
}

func (p *parser) string(canAssign bool) {
	p.emitConstant(value.String(p.prev.Lexeme))
}

func (p *parser) literal(canAssign bool) {
	switch p.prev.Kind {
	case token.FALSE:
		p.emit(bytecode.OpFalse)
	case token.TRUE:
		p.emit(bytecode.OpTrue)
	case token.NIL:
		p.emit(bytecode.OpNil)
	}
}

func (p *parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

func (p *parser) unary(canAssign bool) {
	opType := p.prev.Kind
	p.parsePrecedence(PrecUnary)
	switch opType {
	case token.MINUS:
		p.emit(bytecode.OpNegate)
	case token.BANG:
		p.emit(bytecode.OpNot)
	}
}

func (p *parser) binary(canAssign bool) {
	opType := p.prev.Kind
	rule := getRule(opType)
	p.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BANG_EQ:
		p.emitTwo(bytecode.OpEqual, bytecode.OpNot)
	case token.EQ_EQ:
		p.emit(bytecode.OpEqual)
	case token.GT:
		p.emit(bytecode.OpGreater)
	case token.GT_EQ:
		p.emitTwo(bytecode.OpLess, bytecode.OpNot)
	case token.LT:
		p.emit(bytecode.OpLess)
	case token.LT_EQ:
		p.emitTwo(bytecode.OpGreater, bytecode.OpNot)
	case token.PLUS:
		p.emit(bytecode.OpAdd)
	case token.MINUS:
		p.emit(bytecode.OpSubtract)
	case token.STAR:
		p.emit(bytecode.OpMultiply)
	case token.SLASH:
		p.emit(bytecode.OpDivide)
	}
}

// and implements short-circuiting: JumpIfFalse peeks (doesn't pop), so the
// condition itself remains on the stack as the result when short-circuited.
func (p *parser) and(canAssign bool) {
	endJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emit(bytecode.OpPop)
	p.parsePrecedence(PrecAnd)
	p.patchJump(endJump)
}

// or is the mirror image, using a peek-semantics trick: jump over the
// unconditional jump when false, fall through to it (skipping rhs) when true.
func (p *parser) or(canAssign bool) {
	elseJump := p.emitJump(bytecode.OpJumpIfFalse)
	endJump := p.emitJump(bytecode.OpJump)

	p.patchJump(elseJump)
	p.emit(bytecode.OpPop)

	p.parsePrecedence(PrecOr)
	p.patchJump(endJump)
}

func (p *parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitOperand(bytecode.OpCall, argCount)
}

func (p *parser) argumentList() int {
	count := 0
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if count == 255 {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return count
}

func (p *parser) dot(canAssign bool) {
	p.consume(token.IDENT, "Expect property name after '.'.")
	name := p.prev.Lexeme
	nameConst := p.makeConstant(value.String(name))

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitOperand(bytecode.OpSetProperty, nameConst)
	case p.match(token.LPAREN):
		argCount := p.argumentList()
		p.chunk().Code = append(p.chunk().Code, bytecodeInsn(bytecode.OpInvoke, nameConst, argCount, p.prev.Line))
	default:
		p.emitOperand(bytecode.OpGetProperty, nameConst)
	}
}

func bytecodeInsn(op bytecode.OpCode, operand, operand2, line int) bytecode.Instruction {
	return bytecode.Instruction{Op: op, Operand: operand, Operand2: operand2, Line: line}
}

func (p *parser) variable(canAssign bool) {
	p.namedVariable(p.prev.Lexeme, canAssign)
}

func (p *parser) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	var slot int

	if s, uninit := p.fn.resolveLocal(name); s != -1 {
		if uninit {
			p.error("Can't read local variable in its own initializer.")
		}
		slot, getOp, setOp = s, bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if u := p.fn.resolveUpvalue(name); u != -1 {
		if len(p.fn.upvalues) > maxUpvalues {
			p.error("Too many closure variables in function.")
		}
		slot, getOp, setOp = u, bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		slot, getOp, setOp = p.makeConstant(value.String(name)), bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitOperand(setOp, slot)
	} else {
		p.emitOperand(getOp, slot)
	}
}

func (p *parser) this(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variable(false)
}

func (p *parser) super(canAssign bool) {
	switch {
	case p.class == nil:
		p.error("Can't use 'super' outside of a class.")
	case !p.class.hasSuperclass:
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENT, "Expect superclass method name.")
	nameConst := p.makeConstant(value.String(p.prev.Lexeme))

	p.namedVariable("this", false)
	if p.match(token.LPAREN) {
		argCount := p.argumentList()
		p.namedVariable("super", false)
		p.chunk().Code = append(p.chunk().Code, bytecodeInsn(bytecode.OpSuperInvoke, nameConst, argCount, p.prev.Line))
	} else {
		p.namedVariable("super", false)
		p.emitOperand(bytecode.OpGetSuper, nameConst)
	}
}
