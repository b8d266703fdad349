package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lox/bytecode"
)

type constant string

func (c constant) String() string { return string(c) }

func TestDisassembleAnnotatesOperands(t *testing.T) {
	var c bytecode.Chunk
	idx := c.AddConstant(constant("answer"))
	c.WriteOperand(bytecode.OpConstant, idx, 1)
	c.Write(bytecode.OpPop, 1)
	c.WriteOperand(bytecode.OpGetLocal, 0, 2)

	out := c.Disassemble("test")
	require.Contains(t, out, "== test ==")
	assert.Contains(t, out, "OP_CONSTANT")
	assert.Contains(t, out, "'answer'")
	assert.Contains(t, out, "OP_POP")
	assert.Contains(t, out, "OP_GET_LOCAL")
}

func TestDisassembleRendersJumpTargets(t *testing.T) {
	var c bytecode.Chunk
	jumpIdx := c.WriteOperand(bytecode.OpJumpIfFalse, 0, 1)
	c.Write(bytecode.OpPop, 1)
	c.Code[jumpIdx].Operand = len(c.Code) - jumpIdx - 1

	line := c.DisassembleInstruction(jumpIdx)
	assert.Contains(t, line, "-> 2")
}

func TestOpCodeStringOfUnknownValueIsReported(t *testing.T) {
	var unknown bytecode.OpCode = 200
	assert.Contains(t, unknown.String(), "illegal opcode")
}
