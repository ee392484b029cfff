// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"bytes"
	"context"
	"io"

	"shx.dev/shx/ast"
	"shx.dev/shx/internal/shjobs"
)

// BackcmdFunc is the signature the Expander contract (out of scope)
// calls back through to run `cmd` / $(cmd) command substitution,
// letting a real expander trigger the evaluator without the ast/eval
// packages depending on the expander's own types.
type BackcmdFunc func(ctx context.Context, node ast.Node) (output string, status ExitStatus, err error)

// EvalBackcmd implements §4.F: run node as a subshell with its stdout
// captured to an in-memory pipe instead of the real stream, the Go
// shape of eval.c's evalbackcmd (which redirects fd 1 to a pipe around
// a forked child). Trailing newlines are trimmed, matching every shell's
// command-substitution convention and dash's cmdsubst in particular.
func (e *EvalCtx) EvalBackcmd(ctx context.Context, node ast.Node) (string, ExitStatus, error) {
	r, w, err := shPipe()
	if err != nil {
		return "", 2, err
	}

	child := e.subshell()
	// Point both the child's fd 1 table entry and its Stdout stream at
	// the pipe: pushRedirs re-derives Stdout from fd 1 on every install.
	child.Redirs.Fds[1] = w
	child.Stdout = w
	child.exitOnError = false

	captured := make(chan []byte, 1)
	go func() {
		defer close(captured)
		var buf bytes.Buffer
		io.Copy(&buf, r)
		captured <- buf.Bytes()
	}()

	job := e.Jobs.Spawn(func(ctx context.Context) shjobs.ExitStatus {
		defer w.Close()
		child.EvalTree(ctx, node, EvExit|EvBackcmd)
		return shjobs.ExitStatus{Code: uint8(child.exit)}
	})

	<-job.Done()
	res, jobErr := job.Result()
	out := <-captured
	r.Close()
	e.backExitStatus = ExitStatus(res.Code)

	return trimTrailingNewlines(string(out)), ExitStatus(res.Code), jobErr
}

func trimTrailingNewlines(s string) string {
	i := len(s)
	for i > 0 && s[i-1] == '\n' {
		i--
	}
	return s[:i]
}
