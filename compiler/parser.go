// Package compiler implements the single-pass Pratt expression parser and
// statement compiler: it resolves lexical scopes, upvalue captures, and
// class/method structure while emitting bytecode directly, with no
// intermediate AST — the same single pass the teacher's resolver+compiler
// split performs in two passes over an AST (see DESIGN.md for why this
// module fuses them instead).
package compiler

import (
	"strconv"

	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/loxerr"
	"github.com/mna/lox/scanner"
	"github.com/mna/lox/token"
	"github.com/mna/lox/value"
)

// Compile compiles source into the top-level script Function. The returned
// error, if non-nil, is a loxerr.ErrorList of every compile error found
// (panic-mode synchronization lets the parser keep diagnosing after the
// first one).
func Compile(source string) (*value.Function, error) {
	var p parser
	p.scan.Init([]byte(source))
	p.advance()

	p.fn = newFuncState(nil, &value.Function{Name: "", Kind: value.TypeScript, Chunk: &bytecode.Chunk{}}, value.TypeScript)

	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.endFunction()

	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	return fn, nil
}

type parser struct {
	scan scanner.Scanner

	prev scanner.Token
	cur  scanner.Token

	hadError  bool
	panicMode bool
	errors    loxerr.ErrorList

	fn    *funcState
	class *classState
}

func (p *parser) advance() {
	p.prev = p.cur
	for {
		p.cur = p.scan.Scan()
		if p.cur.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.cur.Lexeme)
	}
}

func (p *parser) check(kind token.Token) bool { return p.cur.Kind == kind }

func (p *parser) match(kind token.Token) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(kind token.Token, msg string) {
	if p.cur.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.cur, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.prev, msg) }

func (p *parser) errorAt(tok scanner.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	var where string
	switch tok.Kind {
	case token.EOF:
		where = "at end"
	case token.ILLEGAL:
		// the lexeme holds the scanner's message, not source text
	default:
		where = "at '" + tok.Lexeme + "'"
	}
	p.errors.Add(tok.Line, where, msg)
}

// synchronize discards tokens after a compile error until it reaches a
// likely statement boundary, to avoid cascaded errors, per spec.md §4.3.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.cur.Kind != token.EOF {
		if p.prev.Kind == token.SEMI {
			return
		}
		switch p.cur.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- bytecode emission helpers ---

func (p *parser) chunk() *bytecode.Chunk { return p.fn.function.Chunk }

func (p *parser) emit(op bytecode.OpCode) int {
	return p.chunk().Write(op, p.prev.Line)
}

func (p *parser) emitOperand(op bytecode.OpCode, operand int) int {
	return p.chunk().WriteOperand(op, operand, p.prev.Line)
}

func (p *parser) emitTwo(a, b bytecode.OpCode) {
	p.emit(a)
	p.emit(b)
}

func (p *parser) emitReturn() {
	if p.fn.fnType == value.TypeInitializer {
		p.emitOperand(bytecode.OpGetLocal, 0)
	} else {
		p.emit(bytecode.OpNil)
	}
	p.emit(bytecode.OpReturn)
}

func (p *parser) makeConstant(v bytecode.Value) int {
	return p.chunk().AddConstant(v)
}

func (p *parser) emitConstant(v bytecode.Value) {
	p.emitOperand(bytecode.OpConstant, p.makeConstant(v))
}

// emitJump emits a jump opcode with a placeholder operand and returns its
// instruction index, to be fixed up by patchJump once the jump target's
// instruction count is known.
func (p *parser) emitJump(op bytecode.OpCode) int {
	return p.emitOperand(op, 0)
}

// patchJump back-patches the jump at idx so it lands on the next instruction
// to be emitted, just after the last one emitted so far (instruction-count offset,
// relative to the instruction after the jump, per spec.md §4.4).
func (p *parser) patchJump(idx int) {
	offset := len(p.chunk().Code) - idx - 1
	p.chunk().Code[idx].Operand = offset
}

// emitLoop emits OpLoop with the instruction-count offset back to loopStart.
func (p *parser) emitLoop(loopStart int) {
	offset := len(p.chunk().Code) - loopStart + 1
	p.emitOperand(bytecode.OpLoop, offset)
}

// endFunction finalizes the function currently being compiled (emitting the
// implicit return if the body fell off the end) and pops back to its
// enclosing context.
func (p *parser) endFunction() *value.Function {
	p.emitReturn()
	fn := p.fn.function
	fn.Upvalues = make([]value.UpvalueDesc, len(p.fn.upvalues))
	for i, uv := range p.fn.upvalues {
		fn.Upvalues[i] = value.UpvalueDesc{Index: uv.index, IsLocal: uv.isLocal}
	}
	p.fn = p.fn.enclosing
	return fn
}

func parseNumber(lexeme string) value.Number {
	f, _ := strconv.ParseFloat(lexeme, 64)
	return value.Number(f)
}
