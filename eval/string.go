// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"
	"strings"

	"shx.dev/shx/ast"
)

// EvalString implements §4.H: parse src as a sequence of commands via
// the Parse contract and evaluate each in turn, the Go shape of
// eval.c's evalstring (used by the "eval" builtin, trap bodies, and
// any future "-c" driver).
func (e *EvalCtx) EvalString(ctx context.Context, src, name string, flags EvalFlags) *Signal {
	if e.Parse == nil {
		return errorf("%s: no parser configured", name)
	}
	nodes, err := e.Parse(strings.NewReader(src), name)
	if err != nil {
		return errorf("%s: %v", name, err)
	}
	return e.evalNodes(ctx, nodes, flags)
}

func (e *EvalCtx) evalNodes(ctx context.Context, nodes []ast.Node, flags EvalFlags) *Signal {
	for i, n := range nodes {
		last := i == len(nodes)-1
		nodeFlags := flags &^ EvExit
		if last {
			nodeFlags = flags
		}
		if sig := e.EvalTree(ctx, n, nodeFlags); sig != nil {
			return sig
		}
		if e.skip != NoSkip {
			return nil
		}
	}
	return nil
}

// runTrapBody runs a trap's stored body (§6 "Toward traps/signals"),
// saving and restoring $? and the skip latch around the call per
// eval.c's dotrap. A break/continue/return raised inside the body is
// discarded when the saved latch is restored; a Signal the body
// returns (such as the SigExit of "exit") is returned to the caller.
func (e *EvalCtx) runTrapBody(ctx context.Context, body string) error {
	saved := e.exit
	savedSkip := e.SaveSkip()
	defer func() {
		e.exit = saved
		e.RestoreSkip(savedSkip)
	}()
	e.StopSkip()
	if sig := e.EvalString(ctx, body, "trap", 0); sig != nil {
		return sig
	}
	return nil
}
