// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"

	"shx.dev/shx/ast"
)

// Run evaluates a whole program: a convenience wrapper around
// EvalTree that resets per-run state first and turns a SigExit signal
// into a plain ExitStatus return, the way interp.Runner.Run wraps
// its own internal evaltree-equivalent for callers like cmd/gosh.
func (e *EvalCtx) Run(ctx context.Context, node ast.Node) (ExitStatus, error) {
	e.Reset()
	sig := e.EvalTree(ctx, node, 0)
	if sig == nil {
		return e.exit, nil
	}
	if sig.Kind == SigExit {
		return ExitStatus(sig.Code), nil
	}
	return e.exit, sig
}

// EvalTree is the tree dispatcher (§4.C): it walks node, updating
// e.exit as it goes, and returns a non-nil *Signal only when
// evaluation must unwind (a builtin/collaborator error, an interrupt,
// or a shell-exit request). A nil return with e.skip != NoSkip means
// a break/continue/return/file-abort is still propagating and the
// caller (a compound evaluator, or Run at the top) must observe it.
func (e *EvalCtx) EvalTree(ctx context.Context, node ast.Node, flags EvalFlags) *Signal {
	if node == nil {
		return nil
	}
	if ctx.Err() != nil {
		return exitSignal(uint8(e.exit))
	}

	// A freshly spawned child that observes traps_invalid clears the
	// (inherited-by-copy, but not yet acknowledged) trap table before
	// running anything else. Non-Cmd nodes do it here; a Cmd node
	// leaves it to evalCommand's phase 5, which skips it for trap,
	// eval, command, . and source.
	if _, isCmd := node.(*ast.Cmd); !isCmd && e.Traps.Invalid() {
		e.Traps.FreeTraps()
	}

	if e.noExec {
		if fn, ok := node.(*ast.DefFun); ok {
			e.Funcs[fn.Name] = fn
		}
		// A Semi still evaluates its left side (so a definition there
		// registers) and then stops; see the Semi case below.
		if _, isSemi := node.(*ast.Semi); !isSemi {
			e.exit = 0
			return nil
		}
	}

	var doEtest bool
	var sig *Signal

	switch n := node.(type) {
	case *ast.Semi:
		if sig = e.EvalTree(ctx, n.Left, flags&^EvExit); sig != nil {
			return sig
		}
		if e.skip != NoSkip || e.noExec {
			return nil
		}
		return e.EvalTree(ctx, n.Right, flags)

	case *ast.And:
		if sig = e.EvalTree(ctx, n.Left, EvTested); sig != nil {
			return sig
		}
		if e.skip != NoSkip || e.exit != 0 {
			return nil
		}
		return e.EvalTree(ctx, n.Right, flags)

	case *ast.Or:
		if sig = e.EvalTree(ctx, n.Left, EvTested); sig != nil {
			return sig
		}
		if e.skip != NoSkip || e.exit == 0 {
			return nil
		}
		return e.EvalTree(ctx, n.Right, flags)

	case *ast.Not:
		if sig = e.EvalTree(ctx, n.X, EvTested); sig != nil {
			return sig
		}
		if e.exit == 0 {
			e.exit = 1
		} else {
			e.exit = 0
		}

	case *ast.DNot:
		if sig = e.EvalTree(ctx, n.X, flags); sig != nil {
			return sig
		}
		if e.exit != 0 {
			e.exit = 1
		}

	case *ast.If:
		if sig = e.EvalTree(ctx, n.Cond, EvTested); sig != nil {
			return sig
		}
		if e.skip != NoSkip {
			return nil
		}
		if e.exit == 0 {
			if n.Then != nil {
				sig = e.EvalTree(ctx, n.Then, flags)
			} else {
				e.exit = 0
			}
		} else if n.Else != nil {
			sig = e.EvalTree(ctx, n.Else, flags)
		} else {
			e.exit = 0
		}
		if sig != nil {
			return sig
		}

	case *ast.While:
		sig = e.evalLoop(ctx, n, flags)
		if sig != nil {
			return sig
		}

	case *ast.For:
		sig = e.evalFor(ctx, n, flags)
		if sig != nil {
			return sig
		}

	case *ast.Case:
		sig = e.evalCase(ctx, n, flags)
		if sig != nil {
			return sig
		}

	case *ast.DefFun:
		e.Funcs[n.Name] = n
		e.exit = 0

	case *ast.Pipe:
		sig = e.evalPipe(ctx, n, flags)
		doEtest = flags&EvTested == 0
		if sig != nil {
			return sig
		}

	case *ast.RedirNode:
		sig = e.evalRedir(ctx, n, flags)
		if sig != nil {
			return sig
		}

	case *ast.Subshell:
		sig = e.evalSubshellOrBackground(ctx, n.Body, n.Redirs, false, flags)
		doEtest = flags&EvTested == 0
		if sig != nil {
			return sig
		}

	case *ast.Background:
		sig = e.evalSubshellOrBackground(ctx, n.Body, n.Redirs, true, flags)
		if sig != nil {
			return sig
		}

	case *ast.Cmd:
		sig = e.evalCommand(ctx, n, flags)
		doEtest = flags&EvTested == 0
		if sig != nil {
			return sig
		}

	default:
		return errorf("eval: unsupported node type %T", node)
	}

	if e.exitOnError && e.exit != 0 && doEtest && e.skip == NoSkip {
		return exitSignal(uint8(e.exit))
	}
	if flags&EvExit != 0 {
		return exitSignal(uint8(e.exit))
	}
	return nil
}
