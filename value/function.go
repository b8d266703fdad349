package value

import (
	"fmt"

	"github.com/mna/lox/bytecode"
)

// FunctionType distinguishes the four shapes of compiled function the
// compiler can produce; it governs what slot 0 of the call frame means and
// what the implicit end-of-body return looks like.
type FunctionType int

const (
	TypeFunction FunctionType = iota
	TypeScript
	TypeMethod
	TypeInitializer
)

// UpvalueDesc records, for one entry in a Function's upvalue table, where the
// compiler resolved it: a slot in the immediately enclosing function's
// locals (IsLocal true) or an index into the enclosing function's own
// upvalue table (IsLocal false). NewClosure sizes a Closure's upvalue slice
// from this table; the VM's Closure opcode handler reads the same pairs from
// the OpUpvalue pseudo-instructions that follow OpClosure (see
// vm.captureUpvalue).
type UpvalueDesc struct {
	Index   int
	IsLocal bool
}

// Function is the immutable artifact the compiler produces for every `fun`
// declaration, method, and the implicit top-level script. It never changes
// after compilation completes.
type Function struct {
	Name     string
	Arity    int
	Kind     FunctionType
	Chunk    *bytecode.Chunk
	Upvalues []UpvalueDesc
}

func (fn *Function) String() string {
	if fn.Name == "" {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", fn.Name)
}

func (*Function) Type() string { return "function" }

// Closure pairs a compiled Function with the upvalues it captured at
// creation time. Every call in the VM goes through a Closure, even the
// implicit top-level script closure.
type Closure struct {
	Function *Function
	Upvalues []*Upvalue
}

func NewClosure(fn *Function) *Closure {
	return &Closure{Function: fn, Upvalues: make([]*Upvalue, len(fn.Upvalues))}
}

func (c *Closure) String() string { return c.Function.String() }
func (c *Closure) Type() string   { return "function" }

// Upvalue is a handle to a variable captured from an enclosing scope. While
// Open, it reads and writes through StackIndex into the VM's value stack;
// once Closed, the value has been hoisted into its own Value field and
// StackIndex is no longer meaningful. This is the clox model (an
// open-upvalue list keyed by stack index, so sibling closures capturing the
// same local converge on one cell), not the teacher's static cell-boxing —
// see DESIGN.md.
type Upvalue struct {
	StackIndex int
	Closed     bool
	Value      Value
}

func (u *Upvalue) String() string { return "upvalue" }
func (u *Upvalue) Type() string   { return "upvalue" }

// Get returns the upvalue's current value, reading through the stack when
// still open.
func (u *Upvalue) Get(stack []Value) Value {
	if u.Closed {
		return u.Value
	}
	return stack[u.StackIndex]
}

// Set writes through the upvalue, to the stack slot when still open or to
// its own cell once closed.
func (u *Upvalue) Set(stack []Value, v Value) {
	if u.Closed {
		u.Value = v
		return
	}
	stack[u.StackIndex] = v
}

// Close hoists the value out of the stack slot into the upvalue's own cell.
// Called when the slot it references is about to go out of scope.
func (u *Upvalue) Close(stack []Value) {
	u.Value = stack[u.StackIndex]
	u.Closed = true
}

// NativeFunction wraps a Go function exposed to Lox programs under a name,
// the narrow interface native extensions (clock, etc.) are invoked through.
type NativeFunction struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (n *NativeFunction) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (*NativeFunction) Type() string     { return "native function" }

// BoundMethod is a Closure bound to a specific receiver Instance, the value
// produced by `instance.method` (without calling it).
type BoundMethod struct {
	Receiver *Instance
	Method   *Closure
}

func (b *BoundMethod) String() string { return b.Method.String() }
func (*BoundMethod) Type() string     { return "bound method" }
