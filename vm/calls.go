package vm

import (
	"github.com/mna/lox/bytecode"
	"github.com/mna/lox/value"
)

// callValue dispatches a call to whatever kind of callable sits argCount
// slots below the top of the stack: a Closure pushes a new frame, a
// NativeFunction runs immediately, a Class constructs an Instance (and
// chains into its init method if it has one), and a BoundMethod rebinds its
// receiver into the call.
func (vm *VM) callValue(callee value.Value, argCount int) error {
	switch c := callee.(type) {
	case *value.Closure:
		return vm.call(c, argCount)
	case *value.NativeFunction:
		args := append([]value.Value(nil), vm.stack[len(vm.stack)-argCount:]...)
		result, err := c.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err)
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(result)
		return nil
	case *value.Class:
		instance := value.NewInstance(c)
		vm.stack[len(vm.stack)-argCount-1] = instance
		if init, ok := c.FindMethod("init"); ok {
			return vm.call(init, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case *value.BoundMethod:
		vm.stack[len(vm.stack)-argCount-1] = c.Receiver
		return vm.call(c.Method, argCount)
	default:
		return vm.runtimeError("Cannot call non-function value of type %s.", callee.Type())
	}
}

// call pushes a new frame for closure, after checking its arity and the call
// stack depth limit (the runtime analogue of the teacher's
// Thread.MaxCallStackDepth).
func (vm *VM) call(closure *value.Closure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) >= framesMax {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, frame{
		closure:   closure,
		slotStart: len(vm.stack) - argCount - 1,
	})
	return nil
}

// invoke fuses GetProperty+Call into one opcode for the common case of
// calling a method directly off an instance, skipping the intermediate
// BoundMethod allocation. Unlike GetProperty, the method table is consulted
// first; a field only serves the call when no method of that name exists,
// and then only if it holds a plain closure, which runs with the receiver
// left in slot 0 as the field's owner.
func (vm *VM) invoke(name string, argCount int) error {
	receiver, ok := vm.peek(argCount).(*value.Instance)
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}

	if method, ok := receiver.Class.FindMethod(name); ok {
		return vm.call(method, argCount)
	}
	if field, ok := receiver.Fields.Get(name); ok {
		if closure, ok := field.(*value.Closure); ok {
			return vm.call(closure, argCount)
		}
		return vm.runtimeError("'%s' is not a method or callable field.", name)
	}
	return vm.runtimeError("Undefined property '%s'.", name)
}

func (vm *VM) invokeFromClass(class *value.Class, name string, argCount int) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	return vm.call(method, argCount)
}

func (vm *VM) getProperty(chunk *bytecode.Chunk, constIdx int) error {
	instance, ok := vm.peek(0).(*value.Instance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}
	name := string(toValue(chunk.Constants[constIdx]).(value.String))

	if field, ok := instance.Fields.Get(name); ok {
		vm.pop()
		vm.push(field)
		return nil
	}
	return vm.bindMethod(instance.Class, name, instance)
}

func (vm *VM) bindMethod(class *value.Class, name string, receiver value.Value) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name)
	}
	inst, ok := receiver.(*value.Instance)
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}
	bound := &value.BoundMethod{Receiver: inst, Method: method}
	vm.pop()
	vm.push(bound)
	return nil
}

func (vm *VM) setProperty(chunk *bytecode.Chunk, constIdx int) error {
	instance, ok := vm.peek(1).(*value.Instance)
	if !ok {
		return vm.runtimeError("Only instances have fields.")
	}
	name := string(toValue(chunk.Constants[constIdx]).(value.String))
	instance.Fields.Put(name, vm.peek(0))

	v := vm.pop()
	vm.pop()
	vm.push(v)
	return nil
}

// captureUpvalue returns the existing open upvalue for the stack slot at
// absIndex if one is already shared by a sibling closure, else opens a new
// one and records it, implementing clox's identity-sharing guarantee for
// upvalues that close over the same local.
func (vm *VM) captureUpvalue(absIndex int) *value.Upvalue {
	for _, uv := range vm.openUpvs {
		if uv.StackIndex == absIndex {
			return uv
		}
	}
	uv := &value.Upvalue{StackIndex: absIndex}
	vm.openUpvs = append(vm.openUpvs, uv)
	return uv
}

// closeUpvalues hoists every open upvalue at or above stack index `from`
// into its own cell, called when the locals they reference are about to be
// popped off the stack (scope exit or function return).
func (vm *VM) closeUpvalues(from int) {
	kept := vm.openUpvs[:0]
	for _, uv := range vm.openUpvs {
		if uv.StackIndex >= from {
			uv.Close(vm.stack)
		} else {
			kept = append(kept, uv)
		}
	}
	vm.openUpvs = kept
}
