package compiler

import (
	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/token"
	"github.com/mna/lox/value"
)

func (p *parser) classDeclaration() {
	p.consume(token.IDENT, "Expect class name.")
	className := p.prev
	nameConst := p.makeConstant(value.String(className.Lexeme))
	p.declareClassName(className.Lexeme)

	p.emitOperand(bytecode.OpClass, nameConst)
	p.defineVariable(nameConst)

	cs := &classState{enclosing: p.class}
	p.class = cs

	if p.match(token.LT) {
		p.consume(token.IDENT, "Expect superclass name.")
		p.variable(false)

		if p.prev.Lexeme == className.Lexeme {
			p.error("A class can't inherit from itself.")
		}

		p.beginScope()
		p.fn.addLocal("super")
		p.fn.markInitialized()

		p.namedVariable(className.Lexeme, false)
		p.emit(bytecode.OpInherit)
		cs.hasSuperclass = true
	}

	p.namedVariable(className.Lexeme, false)
	p.consume(token.LBRACE, "Expect '{' before class body.")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")
	p.emit(bytecode.OpPop)

	if cs.hasSuperclass {
		p.endScope()
	}
	p.class = cs.enclosing
}

// declareClassName mirrors parseVariable for the class's own name, since the
// class name needs to be a local declared eagerly at statement position (the
// class token itself was already consumed by the caller).
func (p *parser) declareClassName(name string) {
	if p.fn.scopeDepth > 0 {
		if !p.fn.addLocal(name) {
			p.error("Already a variable with this name in this scope.")
		}
	}
}

func (p *parser) method() {
	p.consume(token.IDENT, "Expect method name.")
	name := p.prev.Lexeme
	nameConst := p.makeConstant(value.String(name))

	fnType := value.TypeMethod
	if name == "init" {
		fnType = value.TypeInitializer
	}
	p.function(fnType)
	p.emitOperand(bytecode.OpMethod, nameConst)
}
