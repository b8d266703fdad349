// Package loxerr centralizes the error types produced by every stage of the
// pipeline (scanner, compiler, VM), the way the teacher keeps a dedicated
// error type per producing package (scanner.Error, scanner.ErrorList)
// instead of scattering ad hoc fmt.Errorf calls through callers.
package loxerr

import "fmt"

// CompileError is returned when the scanner or compiler rejects a program.
// Message is already formatted as "[line L] Error at LEXEME: MESSAGE" per
// the language's diagnostic convention. An empty where omits the location
// part entirely (used for scan errors, where there is no lexeme to point
// at).
type CompileError struct {
	Message string
}

func NewCompileError(line int, where, msg string) *CompileError {
	var loc string
	if where != "" {
		loc = " " + where
	}
	return &CompileError{Message: fmt.Sprintf("[line %d] Error%s: %s", line, loc, msg)}
}

func (e *CompileError) Error() string { return e.Message }

// RuntimeError is returned when the VM aborts execution. Line is the source
// line of the instruction that raised it; Trace is a formatted call stack,
// innermost frame first.
type RuntimeError struct {
	Msg   string
	Line  int
	Trace string
}

func NewRuntimeError(line int, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Line: line}
}

func (e *RuntimeError) Error() string {
	if e.Trace == "" {
		return fmt.Sprintf("%s\n[line %d] in script", e.Msg, e.Line)
	}
	return fmt.Sprintf("%s\n%s", e.Msg, e.Trace)
}

// ErrorList accumulates CompileErrors across an entire compile invocation, so
// the parser can synchronize after an error and keep diagnosing instead of
// aborting at the first one, while still reporting every error found.
// Modeled on go/scanner.ErrorList as reused by the teacher's own
// scanner/resolver packages.
type ErrorList []*CompileError

func (el *ErrorList) Add(line int, where, msg string) {
	*el = append(*el, NewCompileError(line, where, msg))
}

func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}
