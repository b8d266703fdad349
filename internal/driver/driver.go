// Package driver implements the lox command-line tool: a REPL when invoked
// with no arguments, or a script runner when given a single file path,
// wired through github.com/mna/mainer the same way the teacher's
// internal/maincmd drives its own multi-command CLI.
package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"

	"github.com/mna/lox/compiler"
	"github.com/mna/lox/vm"

	"github.com/mna/lox/internal/loxlog"
)

// Exit codes follow the BSD sysexits.h convention the reference
// implementation uses: 64 for a usage error, 1 for a file that couldn't be
// opened, 65 for a compile-time error, 70 for a runtime error.
const (
	ExitUsage   = 64
	ExitNoInput = 1
	ExitDataErr = 65
	ExitSoftErr = 70
)

// Config holds the environment-derived settings for a run, parsed with
// caarlos0/env the way the teacher's config-bearing commands would, keeping
// DEBUG out of the flag surface entirely.
type Config struct {
	Debug string `env:"DEBUG"`
}

// Cmd is the lox CLI entry point: BuildVersion/BuildDate are populated by
// the linker at build time, mirroring maincmd.Cmd.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return errors.New("usage: lox [script]")
	}
	return nil
}

const usage = `usage: lox [script]
       lox -h|--help
       lox -v|--version

With no script argument, lox starts an interactive REPL. Set DEBUG=info or
DEBUG=debug to enable compiler/VM tracing on stderr.
`

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, usage)
		return ExitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, usage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "lox %s %s\n", c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid environment: %s\n", err)
		return ExitUsage
	}
	level := loxlog.ParseLevel(cfg.Debug)

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 1 {
		return mainer.ExitCode(runFile(ctx, stdio, c.args[0], level))
	}
	return mainer.ExitCode(runPrompt(ctx, stdio, level))
}

// runFile compiles and executes a single script, returning the sysexits-style
// code the process should exit with.
func runFile(ctx context.Context, stdio mainer.Stdio, path string, level loxlog.Level) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitNoInput
	}

	fn, err := compiler.Compile(string(src))
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitDataErr
	}
	if level.IsDebug() {
		fmt.Fprint(stdio.Stderr, fn.Chunk.Disassemble(path))
	}

	machine := vm.New()
	machine.Stdout = stdio.Stdout
	if level.IsInfo() {
		fmt.Fprintf(stdio.Stderr, "running %s\n", path)
	}
	if err := machine.Interpret(ctx, fn); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitSoftErr
	}
	return int(mainer.Success)
}

// runPrompt runs an interactive read-eval-print loop: each line is compiled
// and run as its own script against one long-lived VM, so globals declared
// on one line remain visible on the next — the same behavior clox's own
// REPL gets from calling interpret() repeatedly against a single vm global.
func runPrompt(ctx context.Context, stdio mainer.Stdio, level loxlog.Level) int {
	machine := vm.New()
	machine.Stdout = stdio.Stdout

	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			break
		}
		line := scan.Text()
		if line == "" {
			continue
		}

		fn, err := compiler.Compile(line)
		if err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
			continue
		}
		if level.IsDebug() {
			fmt.Fprint(stdio.Stderr, fn.Chunk.Disassemble("repl"))
		}

		if err := machine.Interpret(ctx, fn); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s\n", err)
		}
	}
	return int(mainer.Success)
}
