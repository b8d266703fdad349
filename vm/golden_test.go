package vm_test

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"

	"github.com/mna/lox/compiler"
	"github.com/mna/lox/vm"
)

var update = flag.Bool("test.update-golden-tests", false, "update the golden .want files in testdata with the current output")

// TestGoldenScripts runs every .lox file in testdata against the compiler
// and VM, diffing its stdout against the matching .want fixture — the same
// golden-file shape the teacher's compiler and resolver fixtures use,
// retargeted at whole end-to-end Lox programs instead of disassembly or AST
// dumps.
func TestGoldenScripts(t *testing.T) {
	const dir = "testdata"
	dents, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, dent := range dents {
		if !dent.Type().IsRegular() || filepath.Ext(dent.Name()) != ".lox" {
			continue
		}
		name := dent.Name()
		t.Run(name, func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)

			fn, err := compiler.Compile(string(src))
			require.NoError(t, err)

			var out bytes.Buffer
			machine := vm.New()
			machine.Stdout = &out
			require.NoError(t, machine.Interpret(context.Background(), fn))

			diffGolden(t, filepath.Join(dir, name+".want"), out.String())
		})
	}
}

// diffGolden compares the script's stdout against its golden file, or
// rewrites the golden file when -test.update-golden-tests is set.
func diffGolden(t *testing.T, goldFile, output string) {
	t.Helper()

	if *update {
		require.NoError(t, os.WriteFile(goldFile, []byte(output), 0600))
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	if testing.Verbose() {
		t.Logf("got output:\n%s\n", output)
	}
	if patch := diff.Diff(string(wantb), output); patch != "" {
		t.Errorf("output differs from %s:\n%s\n", goldFile, patch)
	}
}
