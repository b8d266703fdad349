package compiler

import (
	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/token"
	"github.com/mna/lox/value"
)

func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.fn.markInitialized()
	p.function(value.TypeFunction)
	p.defineVariable(global)
}

// function compiles a function body into its own Chunk, pushing a fresh
// funcState for the duration, then emits OpClosure (plus one OpUpvalue
// pseudo-instruction per captured variable) into the *enclosing* chunk so the
// VM can build the runtime Closure when this instruction executes.
func (p *parser) function(fnType value.FunctionType) {
	name := p.prev.Lexeme
	fn := &value.Function{Name: name, Kind: fnType, Chunk: &bytecode.Chunk{}}
	enclosingClass := p.class
	p.fn = newFuncState(p.fn, fn, fnType)
	p.beginScope()

	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			p.fn.function.Arity++
			if p.fn.function.Arity > 255 {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := p.parseVariable("Expect parameter name.")
			p.defineVariable(paramConst)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	upvalues := p.fn.upvalues
	compiled := p.endFunction()
	p.class = enclosingClass

	enclosingChunk := p.chunk()
	idx := enclosingChunk.AddConstant(compiled)
	enclosingChunk.Code = append(enclosingChunk.Code, bytecode.Instruction{
		Op: bytecode.OpClosure, Operand: idx, Line: p.prev.Line,
	})
	for _, uv := range upvalues {
		enclosingChunk.Code = append(enclosingChunk.Code, bytecode.Instruction{
			Op: bytecode.OpUpvalue, Operand: uv.index, IsLocal: uv.isLocal, Line: p.prev.Line,
		})
	}
}
