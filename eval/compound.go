// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"
	"io"

	"shx.dev/shx/ast"
	"shx.dev/shx/internal/shenv"
	"shx.dev/shx/internal/shjobs"
	"shx.dev/shx/internal/shwords"
)

// evalLoop implements while/until (§4.D "Loop").
func (e *EvalCtx) evalLoop(ctx context.Context, n *ast.While, flags EvalFlags) *Signal {
	e.nest.LoopNest++
	defer func() { e.nest.LoopNest-- }()

	var status ExitStatus
	for {
		if sig := e.EvalTree(ctx, n.Cond, EvTested); sig != nil {
			return sig
		}
		if e.noExec {
			break
		}
		if s, done := e.consumeLoopSkip(&status); done {
			if s != nil {
				return s
			}
			break
		}
		cond := e.exit == 0
		if n.Until {
			cond = e.exit != 0
		}
		if !cond {
			break
		}
		if sig := e.EvalTree(ctx, n.Body, flags&EvTested); sig != nil {
			return sig
		}
		status = e.exit
		if s, done := e.consumeLoopSkip(&status); done {
			if s != nil {
				return s
			}
			break
		}
	}
	e.exit = status
	return nil
}

// consumeLoopSkip applies the skip-handling rule shared by while/
// until/for: Continue decrements, and only stays in this loop once
// the count reaches zero — a wider count (`continue 2`) instead falls
// through to the same terminate-this-level handling as Break, so the
// decremented count propagates to the enclosing loop's own check, the
// way eval.c's evaltree handles SKIPCONT falling through toward
// SKIPBREAK once --skipcount is exhausted. Break decrements and
// clears, terminating the loop with the last recorded body status;
// FuncReturn/FileAbort propagate untouched and terminate immediately.
func (e *EvalCtx) consumeLoopSkip(status *ExitStatus) (sig *Signal, done bool) {
	switch e.skip.Kind {
	case SkipNone:
		return nil, false
	case SkipContinue:
		e.skip.Count--
		if e.skip.Count <= 0 {
			e.skip = NoSkip
			return nil, false
		}
		return nil, true
	case SkipBreak:
		if e.skip.Count--; e.skip.Count <= 0 {
			e.skip = NoSkip
		}
		return nil, true
	case SkipFuncReturn, SkipFileAbort:
		*status = e.exit
		return nil, true
	}
	return nil, false
}

// evalFor implements "for var in items; do body; done" (§4.D "For").
func (e *EvalCtx) evalFor(ctx context.Context, n *ast.For, flags EvalFlags) *Signal {
	var words []string
	for _, item := range n.Items {
		fields, err := e.Expander.Fields(ctx, item, shwords.Full|shwords.Tilde)
		if err != nil {
			return errorf("for: %v", err)
		}
		words = append(words, fields...)
		if e.skip != NoSkip {
			return nil
		}
	}

	e.nest.LoopNest++
	defer func() { e.nest.LoopNest-- }()

	status := e.exit
	for _, w := range words {
		if e.tr != nil {
			e.tr.assign(n.Var, w)
			e.tr.flush()
		}
		e.Env.Set(n.Var, shenv.Variable{Set: true, Kind: shenv.String, Str: w})
		if sig := e.EvalTree(ctx, n.Body, flags&EvTested); sig != nil {
			return sig
		}
		status = e.exit
		if s, done := e.consumeLoopSkip(&status); done {
			if s != nil {
				return s
			}
			break
		}
	}
	e.exit = status
	return nil
}

// evalCase implements "case expr in items esac" (§4.D "Case").
func (e *EvalCtx) evalCase(ctx context.Context, n *ast.Case, flags EvalFlags) *Signal {
	word, err := e.Expander.Literal(ctx, n.Expr, shwords.Tilde)
	if err != nil {
		return errorf("case: %v", err)
	}

	e.exit = 0
	for i := 0; i < len(n.Items); i++ {
		item := n.Items[i]
		matched := false
		for _, pat := range item.Patterns {
			patText, err := e.Expander.Literal(ctx, pat, 0)
			if err != nil {
				return errorf("case: %v", err)
			}
			ok, err := e.Expander.CaseMatch(ctx, patText, word)
			if err != nil {
				return errorf("case: %v", err)
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for {
			if sig := e.EvalTree(ctx, item.Body, flags); sig != nil {
				return sig
			}
			if !item.Fallthrough || i+1 >= len(n.Items) {
				return nil
			}
			i++
			item = n.Items[i]
		}
	}
	return nil
}

// evalSubshellOrBackground implements "( body )" and "body &" (§4.D
// "Subshell / Background"). bg selects Background's EvTested-clearing
// and always-status-0 rules.
func (e *EvalCtx) evalSubshellOrBackground(ctx context.Context, body ast.Node, redirs []*ast.Redir, bg bool, flags EvalFlags) *Signal {
	targets, err := e.expandRedirs(ctx, redirs)
	if err != nil {
		return errorf("subshell: %v", err)
	}

	childFlags := flags | EvExit
	if bg {
		childFlags &^= EvTested
	}

	// In-process tail-call optimization: foreground, EvExit already
	// set, and no traps registered — the Go analogue of dash's
	// "don't vfork/fork, just tail-call evaltree" fast path, since
	// nothing would observe the difference (no trap to misfire, no
	// sibling goroutine to race with).
	if !bg && flags&EvExit != 0 && !e.Traps.HaveTraps() {
		pop, err := e.pushRedirs(targets)
		if err != nil {
			e.exit = 2
			return nil
		}
		defer pop()
		return e.EvalTree(ctx, body, childFlags)
	}

	child := e.subshell()
	job := e.Jobs.Spawn(func(ctx context.Context) shjobs.ExitStatus {
		pop, err := child.pushRedirs(targets)
		if err != nil {
			return shjobs.ExitStatus{Code: 2}
		}
		defer pop()
		child.EvalTree(ctx, body, childFlags)
		return shjobs.ExitStatus{Code: uint8(child.exit)}
	})

	if bg {
		e.exit = 0
		return nil
	}
	<-job.Done()
	res, _ := job.Result()
	e.exit = ExitStatus(res.Code)
	return nil
}

// subshell returns a new EvalCtx sharing this one's collaborators but
// with its own redirection table and a snapshot of the environment,
// the Go shape of dash's fork-then-mutate-only-the-child's-copy model
// (no real address-space fork exists in Go; a goroutine with a
// shallow-copied context is the substitute, per SPEC_FULL.md §9).
func (e *EvalCtx) subshell() *EvalCtx {
	clone := *e
	clone.Redirs = e.Redirs.Clone()
	clone.Env = e.Env.Push(false)
	return &clone
}

// evalRedir implements compound redirection, "{ body } > file" (§4.D
// "Redir"). Its two-phase error rule is exact: an install-phase error
// becomes exit status 2 and returns; a body-phase error is popped and
// re-raised to the caller.
func (e *EvalCtx) evalRedir(ctx context.Context, n *ast.RedirNode, flags EvalFlags) *Signal {
	targets, err := e.expandRedirs(ctx, n.Redirs)
	if err != nil {
		e.exit = 2
		return nil
	}
	pop, err := e.pushRedirs(targets)
	if err != nil {
		e.exit = 2
		return nil
	}
	sig := e.EvalTree(ctx, n.Body, flags)
	pop()
	return sig
}

// evalPipe implements a pipeline (§4.D "Pipe"): one goroutine per
// stage connected by sh_pipe, the Go substitute for forkshell per
// adjacent pair. Stages are created and launched left to right, and
// each stage's stdout write-end is closed as soon as that stage
// finishes, so the next stage observes end-of-input the same way a
// closed pipe fd does after a child process exits.
func (e *EvalCtx) evalPipe(ctx context.Context, n *ast.Pipe, flags EvalFlags) *Signal {
	k := len(n.Stages)
	if k == 0 {
		e.exit = 0
		return nil
	}
	if k == 1 {
		return e.evalSubshellOrBackground(ctx, n.Stages[0], nil, n.Background, flags)
	}

	jobs := make([]*shjobs.Job, k)
	stdin := e.Redirs.Get(0)
	for i := 0; i < k; i++ {
		child := e.subshell()
		if stdin != nil {
			child.Redirs.Fds[0] = stdin
			child.Stdin = stdin
		}
		var stdoutW io.Closer
		if i < k-1 {
			r, w, err := shPipe()
			if err != nil {
				return errorf("pipe: %v", err)
			}
			child.Redirs.Fds[1] = w
			child.Stdout = w
			stdin = r
			stdoutW = w
		}
		stage := n.Stages[i]
		jobs[i] = e.Jobs.Spawn(func(ctx context.Context) shjobs.ExitStatus {
			child.EvalTree(ctx, stage, EvExit|(flags&EvTested))
			if stdoutW != nil {
				stdoutW.Close()
			}
			return shjobs.ExitStatus{Code: uint8(child.exit)}
		})
	}

	if n.Background {
		e.exit = 0
		return nil
	}
	var last shjobs.ExitStatus
	for _, j := range jobs {
		<-j.Done()
		last, _ = j.Result()
	}
	e.exit = ExitStatus(last.Code)
	return nil
}
