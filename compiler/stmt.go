package compiler

import (
	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/token"
	"github.com/mna/lox/value"
)

// declaration parses one top-level-or-block declaration, recovering to the
// next statement boundary on error so a single mistake doesn't cascade.
func (p *parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}

	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after value.")
	p.emit(bytecode.OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after expression.")
	p.emit(bytecode.OpPop)
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

func (p *parser) beginScope() { p.fn.scopeDepth++ }

// endScope pops every local declared at the scope being left, emitting
// CloseUpvalue instead of Pop for locals that were captured by a closure, so
// the runtime hoists the value into its own cell before the slot vanishes.
func (p *parser) endScope() {
	p.fn.scopeDepth--

	locals := p.fn.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.fn.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emit(bytecode.OpCloseUpvalue)
		} else {
			p.emit(bytecode.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.fn.locals = locals
}

func (p *parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emit(bytecode.OpNil)
	}
	p.consume(token.SEMI, "Expect ';' after variable declaration.")

	p.defineVariable(global)
}

// parseVariable consumes the identifier, declares it as a local if inside a
// scope, and returns the constant-pool index to use for DefineGlobal at
// global scope (ignored for locals).
func (p *parser) parseVariable(errMsg string) int {
	p.consume(token.IDENT, errMsg)
	name := p.prev.Lexeme

	if p.fn.scopeDepth > 0 {
		if !p.fn.addLocal(name) {
			p.error("Already a variable with this name in this scope.")
		}
		return -1
	}
	return p.makeConstant(value.String(name))
}

func (p *parser) defineVariable(global int) {
	if p.fn.scopeDepth > 0 {
		p.fn.markInitialized()
		return
	}
	p.emitOperand(bytecode.OpDefineGlobal, global)
}

func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emit(bytecode.OpPop)
	p.statement()

	elseJump := p.emitJump(bytecode.OpJump)
	p.patchJump(thenJump)
	p.emit(bytecode.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(bytecode.OpJumpIfFalse)
	p.emit(bytecode.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emit(bytecode.OpPop)
}

// forStatement desugars `for (init; cond; post) body` into the equivalent
// while-loop bytecode shape: init runs once, cond gates the loop exactly like
// whileStatement, and post is compiled ahead of the body: entry jumps over it
// to the body, the body loops back to post, and post loops back to the
// condition, exactly the desugaring clox uses.
//
// clox's own desugaring gives every closure formed in the body a shared
// capture of the single loop-control slot, so they all observe whatever
// value it holds once the loop finishes — per spec.md §9/§8 scenario 7, this
// implementation instead gives each pass through the body its own binding:
// when the initializer declares a local, the body runs against a fresh copy
// of it each iteration, and the copy is written back to the control slot
// (which the condition and increment read) before that copy's scope closes.
// See DESIGN.md.
func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")

	loopVarSlot := -1
	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
		loopVarSlot = len(p.fn.locals) - 1
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "Expect ';' after loop condition.")

		exitJump = p.emitJump(bytecode.OpJumpIfFalse)
		p.emit(bytecode.OpPop)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(bytecode.OpJump)

		incrementStart := len(p.chunk().Code)
		p.expression()
		p.emit(bytecode.OpPop)
		p.consume(token.RPAREN, "Expect ')' for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	if loopVarSlot == -1 {
		p.statement()
	} else {
		p.perIterationBody(loopVarSlot)
	}
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emit(bytecode.OpPop)
	}

	p.endScope()
}

// perIterationBody runs the loop body in a scope that shadows the loop
// control variable with a fresh local, initialized by copying the control
// slot's current value, so that any closure the body creates captures a
// binding distinct from every other iteration's. Once the body completes,
// the (possibly body-mutated) shadow is copied back into the control slot
// before its scope — and with it, its upvalue — closes; the loop's own
// condition and increment clauses, which were compiled against the control
// slot directly, see the updated value on the next pass.
func (p *parser) perIterationBody(controlSlot int) {
	name := p.fn.locals[controlSlot].name

	p.beginScope()
	p.fn.addLocal(name)
	p.emitOperand(bytecode.OpGetLocal, controlSlot)
	p.fn.markInitialized()
	shadowSlot := len(p.fn.locals) - 1

	p.statement()

	p.emitOperand(bytecode.OpGetLocal, shadowSlot)
	p.emitOperand(bytecode.OpSetLocal, controlSlot)
	p.emit(bytecode.OpPop)

	p.endScope()
}

func (p *parser) returnStatement() {
	if p.fn.fnType == value.TypeScript {
		p.error("Can't return from top-level code.")
	}

	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}

	if p.fn.fnType == value.TypeInitializer {
		p.error("Can't return a value from an initializer.")
	}

	p.expression()
	p.consume(token.SEMI, "Expect ';' after return value.")
	p.emit(bytecode.OpReturn)
}
