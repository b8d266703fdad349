package compiler

import "github.com/mna/lox/value"

// maxUpvalues caps how many distinct variables a single function can close
// over. Local slot indices have no such cap (Instruction.Operand is a plain
// int, not a byte), but the upvalue table is bounded to keep closure
// creation cheap.
const maxUpvalues = 256

// local records one declared local variable's position on the function's
// logical stack of slots. Depth is -1 between declaration and the point its
// initializer finishes evaluating, which is how resolveLocal rejects
// `var a = a;`.
type local struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef is one entry of a function's upvalue table: either a slot in
// the immediately enclosing function's locals (isLocal true) or an index
// into the enclosing function's own upvalue table (isLocal false).
type upvalueRef struct {
	index   int
	isLocal bool
}

// funcState is one CompilationContext: the per-function-being-compiled
// registry of locals, scope depth, and upvalues, chained to its lexically
// enclosing function's context via enclosing. The parser keeps a stack of
// these (one push per nested `fun`/method/script), mirroring the teacher's
// per-function fcomp chained off a shared pcomp, but — unlike the teacher,
// which resolves bindings in a separate resolver pass ahead of compilation —
// this context resolves locals/upvalues during the single compiler pass
// itself, per spec.md's single-pass mandate (see DESIGN.md).
type funcState struct {
	enclosing *funcState

	function *value.Function
	fnType   value.FunctionType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

func newFuncState(enclosing *funcState, fn *value.Function, fnType value.FunctionType) *funcState {
	fs := &funcState{enclosing: enclosing, function: fn, fnType: fnType}
	// Slot 0 is reserved: the empty name for plain functions/script, "this"
	// for methods and initializers, so that GetLocal(0) always yields the
	// receiver in method bodies without any special-casing at use sites.
	name := ""
	if fnType == value.TypeMethod || fnType == value.TypeInitializer {
		name = "this"
	}
	fs.locals = append(fs.locals, local{name: name, depth: 0})
	return fs
}

// addLocal declares name in the current scope without yet marking it
// initialized. Returns false if name is already declared at this depth (a
// duplicate local is a compile error the caller reports).
func (fs *funcState) addLocal(name string) bool {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			return false
		}
	}
	fs.locals = append(fs.locals, local{name: name, depth: -1})
	return true
}

// markInitialized sets the most recently declared local's depth to the
// current scope depth, once its initializer has finished compiling.
func (fs *funcState) markInitialized() {
	if fs.scopeDepth == 0 {
		return
	}
	fs.locals[len(fs.locals)-1].depth = fs.scopeDepth
}

// resolveLocal returns the slot index of name among this function's locals,
// scanning from the most recently declared, or -1 if not found. uninit is
// true if the match exists but hasn't finished initializing yet (var a = a;).
func (fs *funcState) resolveLocal(name string) (slot int, uninit bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				return i, true
			}
			return i, false
		}
	}
	return -1, false
}

// resolveUpvalue searches the enclosing function's locals, then its
// upvalues, recursively, adding a de-duplicated entry to fs.upvalues when
// found. Returns -1 if name isn't bound in any enclosing function (it must
// be a global).
func (fs *funcState) resolveUpvalue(name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if slot, uninit := fs.enclosing.resolveLocal(name); slot != -1 {
		if uninit {
			return -1
		}
		fs.enclosing.locals[slot].isCaptured = true
		return fs.addUpvalue(slot, true)
	}
	if idx := fs.enclosing.resolveUpvalue(name); idx != -1 {
		return fs.addUpvalue(idx, false)
	}
	return -1
}

func (fs *funcState) addUpvalue(index int, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// classState tracks the class currently being compiled (for `this`/`super`
// resolution and rejecting `return value;` in initializers), chained to an
// enclosing class for nested class declarations.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}
