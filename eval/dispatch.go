// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"

	"shx.dev/shx/ast"
	"shx.dev/shx/internal/shenv"
	"shx.dev/shx/internal/shjobs"
	"shx.dev/shx/internal/shredir"
)

// callFunction invokes a shell function (§4.E phase 8, Function
// variant): a fresh parameter frame and a local variable scope, with
// FuncNest bumped so "return" is recognized and the nesting limit of
// 1000 function calls is enforced.
func (e *EvalCtx) callFunction(ctx context.Context, fn *ast.DefFun, args []string, flags EvalFlags) *Signal {
	if e.nest.FuncNest >= 1000 {
		return errorf("%s: function nesting too deep", fn.Name)
	}
	savedParams := e.Params
	savedSkip := e.SaveSkip()
	savedEnv := e.Env
	e.Params = shenv.Params{Name0: e.Params.Name0, List: args[1:]}
	e.Env = e.Env.Push(true)
	e.nest.FuncNest++

	defer func() {
		e.nest.FuncNest--
		e.Env = savedEnv
		e.Params = savedParams
	}()

	sig := e.EvalTree(ctx, fn.Body, flags&^EvExit)
	if sig != nil {
		e.RestoreSkip(savedSkip)
		return sig
	}
	if e.skip.Kind == SkipFuncReturn {
		if e.skip.Count--; e.skip.Count <= 0 {
			e.skip = NoSkip
		}
	}
	return nil
}

// runExternalInline runs an external program without spawning a
// goroutine, the Go analogue of eval.c's vfork/exec-in-parent fast
// path: valid only when the caller already established (via
// evalCommand's mustSpawn check) that EvExit is set and no trap could
// fire while it runs, so nothing else in this EvalCtx survives the
// call to observe a difference.
func (e *EvalCtx) runExternalInline(ctx context.Context, entry cmdEntry, args []string, assigns map[string]string, targets []shredir.Target) *Signal {
	pop, err := e.pushRedirs(targets)
	if err != nil {
		e.exit = 2
		return nil
	}
	defer pop()

	status, err := e.runExec(ctx, entry, args, assigns)
	if err != nil {
		return errorf("%s: %v", args[0], err)
	}
	e.exit = status
	e.CommandName = args[0]
	return nil
}

// runExternalSpawned runs an external program in its own goroutine via
// the Jobs contract, the Go substitute for fork() when either traps
// are installed (so a concurrently-running sibling must not see them
// mutated out from under it) or this isn't the evaluator's last word
// (§4.E phase 6/7).
func (e *EvalCtx) runExternalSpawned(ctx context.Context, entry cmdEntry, args []string, assigns map[string]string, targets []shredir.Target) *Signal {
	child := e.subshell()
	job := e.Jobs.Spawn(func(ctx context.Context) shjobs.ExitStatus {
		pop, err := child.pushRedirs(targets)
		if err != nil {
			return shjobs.ExitStatus{Code: 2}
		}
		defer pop()
		status, err := child.runExec(ctx, entry, args, assigns)
		if err != nil {
			return shjobs.ExitStatus{Code: 126}
		}
		return shjobs.ExitStatus{Code: uint8(status)}
	})
	<-job.Done()
	res, jobErr := job.Result()
	if jobErr != nil {
		return errorf("%s: %v", args[0], jobErr)
	}
	e.exit = ExitStatus(res.Code)
	e.CommandName = args[0]
	return nil
}

// runExec calls through to the Exec contract (§6), applying any
// per-command assignments as additional environment entries without
// disturbing the shell's own variable store, matching eval.c's
// shellexec building a fresh envp from cmdenviron plus localvars.
func (e *EvalCtx) runExec(ctx context.Context, entry cmdEntry, args []string, assigns map[string]string) (ExitStatus, error) {
	if e.Exec == nil {
		return 127, nil
	}
	var env []string
	e.Env.Each(func(name string, v shenv.Variable) bool {
		if v.Exported && v.Set {
			env = append(env, name+"="+v.String())
		}
		return true
	})
	for name, val := range assigns {
		env = append(env, name+"="+val)
	}
	argv := args
	if entry.path != "" {
		argv = append([]string{entry.path}, args[1:]...)
	}
	return e.Exec(ctx, argv, env, e.Dir)
}
