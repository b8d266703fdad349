// Package value implements the runtime representation of every value the
// virtual machine can manipulate: the tagged variant of spec Value types is
// expressed as a Go interface implemented by concrete wrapper types, the way
// the teacher's own machine.Value is a polymorphic interface rather than a
// closed sum type switched on a tag field.
package value

import "fmt"

// Value is implemented by every runtime value the VM can push on its stack.
type Value interface {
	// String returns the display form used by the print statement.
	String() string
	// Type returns a short name for the value's kind, used in error messages.
	Type() string
}

// Nil is the singleton value denoting the absence of a value.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the single instance of Nil; all nils compare equal by type.
var NilValue = Nil{}

// Bool is a boolean value.
type Bool bool

const (
	False Bool = false
	True  Bool = true
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is a double-precision floating point value; Lox has a single
// numeric type.
type Number float64

func (n Number) String() string {
	// Integral floats print without a trailing ".0", matching clox's printf
	// "%g"-like behavior for whole numbers typed by Lox programs.
	if n == Number(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", float64(n))
}
func (Number) Type() string { return "number" }

// String is an immutable, shared piece of text. Go strings are already
// immutable and compare by content, so no extra indirection is needed for
// cheap equality-by-content.
type String string

func (s String) String() string { return string(s) }
func (String) Type() string     { return "string" }

// IsTruthy reports the language's truthiness rule: only nil and false are
// falsey, everything else (including 0 and "") is truthy.
func IsTruthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal reports whether x and y are equal under Lox's equality rule: values
// of different concrete types are never equal (never an error), values of
// the same type compare by value (strings by content, since String is a Go
// string and compares by content natively).
func Equal(x, y Value) bool {
	switch x := x.(type) {
	case Nil:
		_, ok := y.(Nil)
		return ok
	case Bool:
		yb, ok := y.(Bool)
		return ok && x == yb
	case Number:
		yn, ok := y.(Number)
		return ok && x == yn
	case String:
		ys, ok := y.(String)
		return ok && x == ys
	default:
		// Shared-identity values (closures, classes, instances, bound methods,
		// native functions) compare by reference identity.
		return x == y
	}
}
