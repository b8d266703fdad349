package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lox/compiler"
)

func TestCompileValidPrograms(t *testing.T) {
	cases := []string{
		`print 1 + 2 * 3;`,
		`var a = 1; { var b = a + 1; print b; }`,
		`fun outer() { var x = "captured"; fun inner() { print x; } return inner; } outer()();`,
		`class Cake { taste() { print "delicious"; } } var c = Cake(); c.taste();`,
		`class A { greet() { print "A"; } } class B < A { greet() { super.greet(); print "B"; } } B().greet();`,
		`for (var i = 0; i < 3; i = i + 1) { print i; }`,
		`var i = 0; while (i < 3) { i = i + 1; }`,
		`fun f() { return; } fun g() { return 1; }`,
	}
	for _, src := range cases {
		_, err := compiler.Compile(src)
		assert.NoError(t, err, src)
	}
}

func TestCompileReportsInvalidAssignmentTarget(t *testing.T) {
	_, err := compiler.Compile(`1 + 2 = 3;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid assignment target")
}

func TestCompileReportsReturnOutsideFunction(t *testing.T) {
	_, err := compiler.Compile(`return 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't return from top-level code")
}

func TestCompileReportsReturnValueFromInitializer(t *testing.T) {
	_, err := compiler.Compile(`class C { init() { return 1; } }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't return a value from an initializer")
}

func TestCompileReportsSelfInheritance(t *testing.T) {
	_, err := compiler.Compile(`class C < C {}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A class can't inherit from itself")
}

func TestCompileReportsThisOutsideClass(t *testing.T) {
	_, err := compiler.Compile(`print this;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't use 'this' outside of a class")
}

func TestCompileReportsSuperOutsideClass(t *testing.T) {
	_, err := compiler.Compile(`print super.foo;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't use 'super' outside of a class")
}

func TestCompileReportsDuplicateLocal(t *testing.T) {
	_, err := compiler.Compile(`{ var a = 1; var a = 2; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Already a variable with this name in this scope")
}

func TestCompileReportsOwnInitializerReadError(t *testing.T) {
	_, err := compiler.Compile(`{ var a = a; }`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't read local variable in its own initializer")
}

func TestCompileAccumulatesMultipleErrors(t *testing.T) {
	_, err := compiler.Compile(`return 1; return 2;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "and 1 more errors")
}
