// Package vm implements the stack-based bytecode interpreter: it walks the
// Instruction slice produced by the compiler, maintaining a value stack, a
// call-frame stack, and an open-upvalue list, the same runtime shape as
// clox's VM rather than the teacher's tree-walking-over-compiled-opcodes
// Thread/Frame pair (see DESIGN.md).
package vm

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dolthub/swiss"

	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/loxerr"
	"github.com/mna/lox/value"
)

const (
	stackMax    = 1024
	framesMax   = 256
	initGlobals = 16
)

// frame is one active function call's execution context: which Closure is
// running, the instruction pointer into its Chunk, and where its locals
// start in the shared value stack.
type frame struct {
	closure   *value.Closure
	ip        int
	slotStart int
}

// VM is one bytecode interpreter instance. It is not safe for concurrent
// use; callers needing parallelism run one VM per goroutine, mirroring the
// teacher's one-Thread-per-goroutine model.
type VM struct {
	// Stdout is where the print statement writes; defaults to os.Stdout.
	Stdout io.Writer

	// MaxSteps bounds the number of executed instructions before the run is
	// cancelled, mirroring the teacher's Thread.MaxSteps. A value <= 0 means
	// no limit.
	MaxSteps int

	stack    []value.Value
	frames   []frame
	globals  *swiss.Map[string, value.Value]
	openUpvs []*value.Upvalue

	steps uint64
}

// New creates a VM with the native functions and globals map initialized.
func New() *VM {
	vm := &VM{
		stack:   make([]value.Value, 0, stackMax),
		frames:  make([]frame, 0, framesMax),
		globals: swiss.NewMap[string, value.Value](uint32(initGlobals)),
	}
	vm.defineNative("clock", nativeClock)
	return vm
}

func (vm *VM) defineNative(name string, fn func(args []value.Value) (value.Value, error)) {
	vm.globals.Put(name, &value.NativeFunction{Name: name, Fn: fn})
}

// Interpret compiles nothing itself — it runs an already-compiled script
// Function to completion, returning a RuntimeError (from loxerr) on failure.
func (vm *VM) Interpret(ctx context.Context, fn *value.Function) error {
	closure := value.NewClosure(fn)
	vm.push(closure)
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run(ctx)
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) stdout() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

// run is the main fetch-decode-execute loop, dispatching on the current
// frame's instruction until the outermost frame returns.
func (vm *VM) run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return vm.runtimeError("interrupted: %s", err)
		}
		vm.steps++
		if vm.MaxSteps > 0 && vm.steps >= uint64(vm.MaxSteps) {
			return vm.runtimeError("execution step limit exceeded")
		}

		fr := &vm.frames[len(vm.frames)-1]
		chunk := fr.closure.Function.Chunk
		if fr.ip >= len(chunk.Code) {
			return vm.runtimeError("instruction pointer ran off the end of the chunk")
		}
		insn := chunk.Code[fr.ip]
		fr.ip++

		switch insn.Op {
		case bytecode.OpConstant:
			vm.push(toValue(chunk.Constants[insn.Operand]))

		case bytecode.OpNil:
			vm.push(value.NilValue)
		case bytecode.OpTrue:
			vm.push(value.True)
		case bytecode.OpFalse:
			vm.push(value.False)
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			vm.push(vm.stack[fr.slotStart+insn.Operand])
		case bytecode.OpSetLocal:
			vm.stack[fr.slotStart+insn.Operand] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			vm.globals.Put(name, vm.peek(0))
			vm.pop()
		case bytecode.OpSetGlobal:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError("Undefined variable '%s'.", name)
			}
			vm.globals.Put(name, vm.peek(0))

		case bytecode.OpGetUpvalue:
			vm.push(fr.closure.Upvalues[insn.Operand].Get(vm.stack))
		case bytecode.OpSetUpvalue:
			fr.closure.Upvalues[insn.Operand].Set(vm.stack, vm.peek(0))

		case bytecode.OpGetProperty:
			if err := vm.getProperty(chunk, insn.Operand); err != nil {
				return err
			}
		case bytecode.OpSetProperty:
			if err := vm.setProperty(chunk, insn.Operand); err != nil {
				return err
			}
		case bytecode.OpGetSuper:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			super := vm.pop().(*value.Class)
			// the receiver stays on the stack; bindMethod replaces it with
			// the bound method.
			if err := vm.bindMethod(super, name, vm.peek(0)); err != nil {
				return err
			}

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpGreater, bytecode.OpLess:
			if err := vm.numericCompare(insn.Op); err != nil {
				return err
			}
		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return err
			}
		case bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide:
			if err := vm.arithmetic(insn.Op); err != nil {
				return err
			}
		case bytecode.OpNot:
			vm.push(value.Bool(!value.IsTruthy(vm.pop())))
		case bytecode.OpNegate:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout(), vm.pop().String())

		case bytecode.OpJump:
			fr.ip += insn.Operand
		case bytecode.OpJumpIfFalse:
			if !value.IsTruthy(vm.peek(0)) {
				fr.ip += insn.Operand
			}
		case bytecode.OpLoop:
			fr.ip -= insn.Operand

		case bytecode.OpCall:
			if err := vm.callValue(vm.peek(insn.Operand), insn.Operand); err != nil {
				return err
			}
		case bytecode.OpInvoke:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			if err := vm.invoke(name, insn.Operand2); err != nil {
				return err
			}
		case bytecode.OpSuperInvoke:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			super := vm.pop().(*value.Class)
			if err := vm.invokeFromClass(super, name, insn.Operand2); err != nil {
				return err
			}

		case bytecode.OpClosure:
			fn := toValue(chunk.Constants[insn.Operand]).(*value.Function)
			closure := value.NewClosure(fn)
			for i := range closure.Upvalues {
				fr.ip++
				uvInsn := chunk.Code[fr.ip-1]
				if uvInsn.IsLocal {
					closure.Upvalues[i] = vm.captureUpvalue(fr.slotStart + uvInsn.Operand)
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[uvInsn.Operand]
				}
			}
			vm.push(closure)
		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(fr.slotStart)
			returningFrame := fr
			vm.frames = vm.frames[:len(vm.frames)-1]
			vm.stack = vm.stack[:returningFrame.slotStart]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		case bytecode.OpClass:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			vm.push(value.NewClass(name, nil))
		case bytecode.OpInherit:
			super, ok := vm.peek(1).(*value.Class)
			if !ok {
				return vm.runtimeError("Superclass must be a class.")
			}
			sub := vm.peek(0).(*value.Class)
			// FindMethod walks the Superclass chain, so inheriting a method
			// table is just linking the chain rather than copying entries.
			sub.Superclass = super
			vm.pop()
		case bytecode.OpMethod:
			name := string(toValue(chunk.Constants[insn.Operand]).(value.String))
			method := vm.pop().(*value.Closure)
			class := vm.peek(0).(*value.Class)
			class.Methods.Put(name, method)

		default:
			return vm.runtimeError("unhandled opcode %s", insn.Op)
		}
	}
}

// toValue adapts a bytecode.Value constant back into a value.Value. Every
// constant the compiler places in a Chunk is, in practice, already a
// value.Value (value.String, value.Number, *value.Function); bytecode only
// stores the narrower interface to avoid importing value.
func toValue(v bytecode.Value) value.Value {
	return v.(value.Value)
}

func (vm *VM) runtimeError(format string, args ...interface{}) error {
	line := 0
	if len(vm.frames) > 0 {
		fr := &vm.frames[len(vm.frames)-1]
		if fr.ip > 0 && fr.ip-1 < len(fr.closure.Function.Chunk.Code) {
			line = fr.closure.Function.Chunk.Code[fr.ip-1].Line
		}
	}
	trace := vm.stackTrace()
	err := loxerr.NewRuntimeError(line, format, args...)
	err.Trace = trace
	vm.resetStack()
	return err
}

func (vm *VM) stackTrace() string {
	var out []byte
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fn.Chunk.Code) {
			line = fn.Chunk.Code[fr.ip-1].Line
		}
		name := "script"
		if fn.Name != "" {
			name = fn.Name + "()"
		}
		out = append(out, []byte(fmt.Sprintf("[line %d] in %s\n", line, name))...)
	}
	return string(out)
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvs = nil
}
