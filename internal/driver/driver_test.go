package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMain(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("DEBUG", "")

	var outBuf, errBuf bytes.Buffer
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader(stdin),
		Stdout: &outBuf,
		Stderr: &errBuf,
	}
	var c Cmd
	ec := c.Main(append([]string{"lox"}, args...), stdio)
	return int(ec), outBuf.String(), errBuf.String()
}

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.lox")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))
	return path
}

func TestTwoArgumentsIsUsageError(t *testing.T) {
	code, _, stderr := runMain(t, "", "a.lox", "b.lox")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, "usage")
}

func TestMissingFileExitsWithNoInput(t *testing.T) {
	code, _, stderr := runMain(t, "", filepath.Join(t.TempDir(), "nope.lox"))
	assert.Equal(t, ExitNoInput, code)
	assert.NotEmpty(t, stderr)
}

func TestCompileErrorExitsWithDataErr(t *testing.T) {
	path := writeScript(t, `var;`)
	code, _, stderr := runMain(t, "", path)
	assert.Equal(t, ExitDataErr, code)
	assert.Contains(t, stderr, "Error")
}

func TestRuntimeErrorExitsWithSoftErr(t *testing.T) {
	path := writeScript(t, `print nope;`)
	code, _, stderr := runMain(t, "", path)
	assert.Equal(t, ExitSoftErr, code)
	assert.Contains(t, stderr, "Undefined variable 'nope'")
}

func TestRunFileWritesToStdout(t *testing.T) {
	path := writeScript(t, `print "hello";`)
	code, stdout, _ := runMain(t, "", path)
	assert.Equal(t, int(mainer.Success), code)
	assert.Equal(t, "hello\n", stdout)
}

func TestReplKeepsGlobalsAcrossLines(t *testing.T) {
	code, stdout, stderr := runMain(t, "var a = 40;\nprint a + 2;\n")
	assert.Equal(t, int(mainer.Success), code)
	assert.Contains(t, stdout, "42")
	assert.Empty(t, stderr)
}

func TestReplReportsErrorAndContinues(t *testing.T) {
	code, stdout, stderr := runMain(t, "print nope;\nprint 1;\n")
	assert.Equal(t, int(mainer.Success), code)
	assert.Contains(t, stderr, "Undefined variable 'nope'")
	assert.Contains(t, stdout, "1")
}
