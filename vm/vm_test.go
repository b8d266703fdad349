package vm_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mna/lox/compiler"
	"github.com/mna/lox/vm"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	fn, err := compiler.Compile(src)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := vm.New()
	machine.Stdout = &out
	err = machine.Interpret(context.Background(), fn)
	return out.String(), err
}

func TestOperatorPrecedence(t *testing.T) {
	out, err := run(t, `print 2 + 3 * 4; print (2 + 3) * 4; print -2 + 3;`)
	require.NoError(t, err)
	assert.Equal(t, "14\n20\n1\n", out)
}

func TestClosureCounterKeepsPrivateState(t *testing.T) {
	out, err := run(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var counter = makeCounter();
print counter();
print counter();
print counter();
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestSiblingClosuresShareOneUpvalue(t *testing.T) {
	out, err := run(t, `
var setter = nil;
var getter = nil;
fun makePair() {
  var shared = 0;
  fun set(v) { shared = v; }
  fun get() { print shared; }
  setter = set;
  getter = get;
}
makePair();
setter(42);
getter();
`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestForLoopClosureCapturesDistinctBindingPerIteration(t *testing.T) {
	out, err := run(t, `
var closures = nil;
fun makeClosures() {
  var fns = nil;
  for (var i = 0; i < 3; i = i + 1) {
    fun capture() {
      var local = i;
      fun show() { print local; }
      show();
    }
    capture();
  }
}
makeClosures();
`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestInheritanceAndOverride(t *testing.T) {
	out, err := run(t, `
class Animal {
  speak() { print "..."; }
}
class Dog < Animal {
  speak() { print "Woof"; }
}
Animal().speak();
Dog().speak();
`)
	require.NoError(t, err)
	assert.Equal(t, "...\nWoof\n", out)
}

func TestSuperDispatchReachesGrandparentMethod(t *testing.T) {
	out, err := run(t, `
class A {
  greet() { print "A"; }
}
class B < A {}
class C < B {
  greet() {
    super.greet();
    print "C";
  }
}
C().greet();
`)
	require.NoError(t, err)
	assert.Equal(t, "A\nC\n", out)
}

func TestSuperMethodAsValueBindsReceiver(t *testing.T) {
	out, err := run(t, `
class A {
  greet() { print "A"; }
}
class B < A {
  greet() {
    var parent = super.greet;
    parent();
    print "B";
  }
}
B().greet();
`)
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", out)
}

func TestBoundMethodRemembersItsReceiver(t *testing.T) {
	out, err := run(t, `
class Person {
  sayName() { print this.name; }
}
var jane = Person();
jane.name = "Jane";
var method = jane.sayName;
method();
`)
	require.NoError(t, err)
	assert.Equal(t, "Jane\n", out)
}

func TestInitializerReturnsReceiverImplicitly(t *testing.T) {
	out, err := run(t, `
class Box {
  init(v) { this.value = v; }
}
var b = Box(7);
print b.value;
`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestBareReturnInInitializerIsAllowed(t *testing.T) {
	out, err := run(t, `
class Box {
  init(v) {
    if (v < 0) return;
    this.value = v;
  }
}
print Box(5).value;
`)
	require.NoError(t, err)
	assert.Equal(t, "5\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print nope;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'nope'")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `fun f(a, b) { return a + b; } f(1);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments but got 1")
}

func TestStringConcatenationIsTypeStrict(t *testing.T) {
	_, err := run(t, `print "a" + 1;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Operands must be two numbers or two strings")
}

func TestCallingClassWithExtraArgsAndNoInitIsRuntimeError(t *testing.T) {
	_, err := run(t, `class C {} C(1, 2);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 0 arguments but got 2")
}

// Property access and direct invocation resolve name clashes in opposite
// directions: reading c.greet as a value yields the field, but calling
// c.greet() dispatches to the method.
func TestFieldWinsOverMethodOnPropertyAccess(t *testing.T) {
	out, err := run(t, `
class C {
  greet() { print "method"; }
}
fun replacement() { print "field"; }
var c = C();
c.greet = replacement;
var m = c.greet;
m();
`)
	require.NoError(t, err)
	assert.Equal(t, "field\n", out)
}

func TestMethodWinsOverFieldOnDirectInvoke(t *testing.T) {
	out, err := run(t, `
class C {
  greet() { print "method"; }
}
fun replacement() { print "field"; }
var c = C();
c.greet = replacement;
c.greet();
`)
	require.NoError(t, err)
	assert.Equal(t, "method\n", out)
}

func TestClosureFieldServesInvokeWhenNoMethodExists(t *testing.T) {
	out, err := run(t, `
class Bag {}
fun shout() { print "loud"; }
var b = Bag();
b.noise = shout;
b.noise();
`)
	require.NoError(t, err)
	assert.Equal(t, "loud\n", out)
}

func TestNonCallableFieldOnDirectInvokeIsRuntimeError(t *testing.T) {
	_, err := run(t, `class Bag {} var b = Bag(); b.x = 3; b.x();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'x' is not a method or callable field")
}

func TestPrintStatementEndsWithNewline(t *testing.T) {
	out, err := run(t, `print "done";`)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestCallingNonCallableValueIsRuntimeError(t *testing.T) {
	_, err := run(t, `var x = 3; x();`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot call non-function value")
}

func TestDivisionByZeroIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 / 0;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Division by zero")
}

func TestDeepRecursionReportsStackOverflowNotGoPanic(t *testing.T) {
	_, err := run(t, `fun rec(n) { return rec(n + 1); } rec(0);`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack overflow")
}

// TestForLoopVariableItselfGetsFreshBindingPerIteration exercises the
// harder case from scenario 7: the closure captures the for-loop's own
// control variable, not a copy declared inside the body, so each stored
// closure must still observe its own iteration's value after the loop ends.
func TestForLoopVariableItselfGetsFreshBindingPerIteration(t *testing.T) {
	out, err := run(t, `
var first = nil;
var second = nil;
var third = nil;
for (var i = 1; i < 4; i = i + 1) {
  fun f() { print i; }
  if (i == 1) first = f;
  if (i == 2) second = f;
  if (i == 3) third = f;
}
first();
second();
third();
`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}
