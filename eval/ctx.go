// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"shx.dev/shx/ast"
	"shx.dev/shx/internal/shenv"
	"shx.dev/shx/internal/shjobs"
	"shx.dev/shx/internal/shredir"
	"shx.dev/shx/internal/shsearch"
	"shx.dev/shx/internal/shtrap"
	"shx.dev/shx/internal/shwords"
)

// ExitStatus is the single process-wide (here: per-EvalCtx) integer
// exit status, plus the documented encodings from SPEC_FULL.md §3:
// 128+signal for signal-terminated children, 127 not-found, 126 not-
// executable, 2 generic builtin error, 128+SIGINT for an interrupted
// builtin.
type ExitStatus uint8

// OK reports whether the status represents success.
func (s ExitStatus) OK() bool { return s == 0 }

// ExitStatus implements error so a caller driving EvalCtx.Run can use
// errors.As the way cmd/gosh does against interp.ExitStatus.
func (s ExitStatus) Error() string { return fmt.Sprintf("exit status %d", uint8(s)) }

// EvalFlags is the bitfield threaded down the tree, identical to
// eval.c's EV_* flags.
type EvalFlags uint8

const (
	// EvExit: this evaluation is the last thing this goroutine will
	// do; permits tail-call elision of the final fork/spawn.
	EvExit EvalFlags = 1 << iota
	// EvTested: the result is consumed by a conditional, so exit-on-
	// error must not trigger.
	EvTested
	// EvBackcmd: the result's stdout is being captured; reserved, see
	// SPEC_FULL.md §9's Open Question on in-process builtin capture.
	EvBackcmd
)

// ExecFunc runs an external program to completion, the Go shape of
// shellexec (which never returns on success in the C model; a Go
// process cannot replace its own image the way execve does, so here
// it returns the program's exit status, and a non-nil error when the
// program could not be run).
type ExecFunc func(ctx context.Context, argv, envp []string, dir string) (ExitStatus, error)

// BuiltinFunc implements one non-control builtin reached through
// CmdEntry's Builtin/SpecialBuiltin variants. Control builtins
// (§4.G) are implemented directly in builtin.go and do not go through
// this hook.
type BuiltinFunc func(ctx context.Context, e *EvalCtx, args []string) ExitStatus

// Parser turns source text into a tree, the out-of-scope collaborator
// EvalString calls through.
type Parser func(src io.Reader, name string) ([]ast.Node, error)

// EvalCtx is the evaluator context: every field spec.md calls a
// process-wide global (exitstatus, back_exitstatus, skip state,
// nesting counters, commandname, cmdenviron, shellparam, the
// redirection stack, the trap table) is a field here instead, per
// SPEC_FULL.md §9's "Global mutable state" design note.
type EvalCtx struct {
	Stdout, Stderr io.Writer
	Stdin          io.Reader
	Dir            string
	CommandName    string

	Env      *shenv.Overlay
	Params   shenv.Params
	Funcs    map[string]*ast.DefFun
	Builtins map[string]BuiltinFunc

	Expander shwords.Expander
	Jobs     *shjobs.Controller
	Redirs   *shredir.Stack
	Traps    *shtrap.Traps
	Search   shsearch.Finder
	Exec     ExecFunc
	Parse    Parser

	Logger *slog.Logger

	noExec      bool
	exitOnError bool
	xtrace      io.Writer
	interactive bool
	jobControl  bool

	skip SkipState
	nest Nesting

	exit           ExitStatus
	backExitStatus ExitStatus

	keepRedirs bool // "exec" with no arguments: leave redirections installed
	lastArg    string

	tr *tracer
}

// Option configures an EvalCtx at construction time, mirroring
// interp.RunnerOption's functional-options shape.
type Option func(*EvalCtx) error

// NoExec toggles "-n": no command executes, DefFun still registers.
func NoExec(v bool) Option { return func(e *EvalCtx) error { e.noExec = v; return nil } }

// ExitOnError toggles "-e": set -e / errexit.
func ExitOnError(v bool) Option { return func(e *EvalCtx) error { e.exitOnError = v; return nil } }

// XTrace toggles "-x" and sets the stream trace lines are written to.
func XTrace(w io.Writer) Option {
	return func(e *EvalCtx) error {
		e.xtrace = w
		return nil
	}
}

// Interactive toggles "-i".
func Interactive(v bool) Option { return func(e *EvalCtx) error { e.interactive = v; return nil } }

// JobControl toggles "-m".
func JobControl(v bool) Option { return func(e *EvalCtx) error { e.jobControl = v; return nil } }

// StdIO sets the three standard streams.
func StdIO(in io.Reader, out, err io.Writer) Option {
	return func(e *EvalCtx) error {
		e.Stdin, e.Stdout, e.Stderr = in, out, err
		return nil
	}
}

// New builds an EvalCtx with the default collaborator implementations
// from the internal/sh* packages, then applies opts, mirroring
// interp.New(opts ...RunnerOption).
func New(opts ...Option) (*EvalCtx, error) {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	e := &EvalCtx{
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Dir:      dir,
		Env:      shenv.NewOverlay(),
		Funcs:    map[string]*ast.DefFun{},
		Builtins: map[string]BuiltinFunc{},
		Expander: shwords.Literal{},
		Redirs:   shredir.NewStack(),
		Search:   shsearch.PathFinder{},
		Logger:   slog.Default(),
	}
	e.Traps = shtrap.NewTraps(func(ctx context.Context, body string) error {
		return e.runTrapBody(ctx, body)
	})
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.Jobs == nil {
		e.Jobs = shjobs.NewController(context.Background())
	}
	e.updateTracer()
	return e, nil
}

// Reset clears per-run state (skip latch, nesting, exit status) while
// keeping the environment and function table, mirroring
// interp.Runner.Reset()'s partial-reset contract.
func (e *EvalCtx) Reset() {
	e.skip = NoSkip
	e.nest = Nesting{}
	e.exit = 0
	e.backExitStatus = 0
	e.keepRedirs = false
}

func (e *EvalCtx) updateTracer() {
	if e.xtrace == nil {
		e.tr = nil
		return
	}
	e.tr = newTracer(e.xtrace)
}

// errf writes a diagnostic to stderr prefixed with CommandName,
// matching spec §7's user-visible-behavior rule and the teacher's own
// errf helper in runner.go.
func (e *EvalCtx) errf(format string, args ...any) {
	prefix := e.CommandName
	if prefix == "" {
		fmt.Fprintf(e.Stderr, format, args...)
		return
	}
	fmt.Fprintf(e.Stderr, prefix+": "+format, args...)
}

func (e *EvalCtx) outf(format string, args ...any) {
	fmt.Fprintf(e.Stdout, format, args...)
}

// pushRedirs installs targets on both the fd-indexed Redirs stack
// (what external programs and fd-duplication see) and the generic
// Stdin/Stdout/Stderr streams builtins write through, so a builtin's
// `>`-redirected output and an external command's redirected fd 1
// observe the same target. The returned pop restores both.
func (e *EvalCtx) pushRedirs(targets []shredir.Target) (pop func() error, err error) {
	popFds, err := e.Redirs.Push(targets)
	if err != nil {
		return nil, err
	}
	savedIn, savedOut, savedErr := e.Stdin, e.Stdout, e.Stderr
	if f := e.Redirs.Get(0); f != nil {
		e.Stdin = f
	}
	if f := e.Redirs.Get(1); f != nil {
		e.Stdout = f
	}
	if f := e.Redirs.Get(2); f != nil {
		e.Stderr = f
	}
	return func() error {
		e.Stdin, e.Stdout, e.Stderr = savedIn, savedOut, savedErr
		return popFds()
	}, nil
}
