package vm

import (
	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/value"
)

// add implements `+`, overloaded for numbers (arithmetic) and strings
// (concatenation); any other combination is a runtime type error, per the
// type-strictness the reference implementation's test suite expects (no
// implicit stringification of numbers when one operand is a string).
func (vm *VM) add() error {
	b, a := vm.peek(0), vm.peek(1)

	switch av := a.(type) {
	case value.String:
		bv, ok := b.(value.String)
		if !ok {
			return vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.pop()
		vm.pop()
		vm.push(av + bv)
		return nil
	case value.Number:
		bv, ok := b.(value.Number)
		if !ok {
			return vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.pop()
		vm.pop()
		vm.push(av + bv)
		return nil
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
}

func (vm *VM) arithmetic(op bytecode.OpCode) error {
	b, bOk := vm.peek(0).(value.Number)
	a, aOk := vm.peek(1).(value.Number)
	if !aOk || !bOk {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.pop()
	vm.pop()

	switch op {
	case bytecode.OpSubtract:
		vm.push(a - b)
	case bytecode.OpMultiply:
		vm.push(a * b)
	case bytecode.OpDivide:
		if b == 0 {
			return vm.runtimeError("Division by zero.")
		}
		vm.push(a / b)
	}
	return nil
}

func (vm *VM) numericCompare(op bytecode.OpCode) error {
	b, bOk := vm.peek(0).(value.Number)
	a, aOk := vm.peek(1).(value.Number)
	if !aOk || !bOk {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.pop()
	vm.pop()

	switch op {
	case bytecode.OpGreater:
		vm.push(value.Bool(a > b))
	case bytecode.OpLess:
		vm.push(value.Bool(a < b))
	}
	return nil
}
