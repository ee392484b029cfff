// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"
	"strconv"

	"shx.dev/shx/internal/shenv"
	"shx.dev/shx/internal/shredir"
)

// callBuiltin dispatches a resolved Builtin/SpecialBuiltin CmdEntry
// (§4.E phase 8, §4.G). Control builtins are handled directly here;
// anything else routes through the Builtins table the evaluator was
// constructed with.
func (e *EvalCtx) callBuiltin(ctx context.Context, entry cmdEntry, name string, args []string, assigns map[string]string, targets []shredir.Target, flags EvalFlags) *Signal {
	if entry.kind == cmdSpecialBuiltin {
		// Assignments in front of a special builtin persist in the
		// current scope.
		for n, val := range assigns {
			e.Env.Set(n, shenv.Variable{Set: true, Kind: shenv.String, Str: val})
		}
	}
	if controlBuiltins[name] {
		pop, err := e.pushRedirs(targets)
		if err != nil {
			e.exit = 2
			return nil
		}
		defer pop()
		return e.runControlBuiltin(ctx, name, args, flags)
	}

	pop, err := e.pushRedirs(targets)
	if err != nil {
		e.exit = 2
		return nil
	}
	defer pop()
	e.exit = entry.bi(ctx, e, args)
	return nil
}

// runControlBuiltin implements §4.G's table. Each case mirrors the
// named function in eval.c/miscbltin.c (colon/bltincmd for ":" and
// "command", truecmd/falsecmd, breakcmd, returncmd, evalcmd, dotcmd,
// execcmd, timescmd). args holds the builtin's own operands; unlike
// evalCommand's combined argv, the builtin name itself is not in it.
func (e *EvalCtx) runControlBuiltin(ctx context.Context, name string, args []string, flags EvalFlags) *Signal {
	switch name {
	case ":", "true":
		e.exit = 0
		return nil

	case "false":
		e.exit = 1
		return nil

	case "exit":
		code := e.exit
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				code = ExitStatus(uint8(n))
			}
		}
		return exitSignal(uint8(code))

	case "break", "continue":
		if !e.inLoop() {
			e.errf("%s: only meaningful in a loop\n", name)
			e.exit = 1
			return nil
		}
		n := 1
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		if n > e.nest.LoopNest {
			// Clamp to the enclosing loop depth, matching breakcmd's own
			// "n = min(n, loopnest)": a count wider than the nesting
			// that exists just breaks the outermost loop present rather
			// than leaking an un-consumed skip past it.
			n = e.nest.LoopNest
		}
		kind := SkipBreak
		if name == "continue" {
			kind = SkipContinue
		}
		e.setSkip(NewSkip(kind, n))
		e.exit = 0
		return nil

	case "return":
		if !e.inFunc() && !e.inDot() {
			// Outside both a function and a dot script: ksh/dash ignore
			// this silently (eval.c's returncmd has no error path here),
			// so a `return` at top level is a no-op, not a diagnostic.
			e.exit = 0
			return nil
		}
		code := e.exit
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				code = ExitStatus(uint8(n))
			}
		}
		e.exit = code
		kind := SkipFuncReturn
		if e.nest.FuncNest <= e.nest.DotFuncNest-1 {
			// Inside a dot script at its own level (no intervening
			// function call deeper than the dot nesting): `return`
			// aborts the rest of the file rather than a function call,
			// matching eval.c's returncmd funcnest/dotcmd distinction.
			kind = SkipFileAbort
		}
		e.setSkip(NewSkip(kind, 1))
		return nil

	case "eval":
		src := joinArgs(args)
		if src == "" {
			e.exit = 0
			return nil
		}
		return e.EvalString(ctx, src, "eval", flags&EvExit)

	case ".", "source":
		if len(args) < 1 {
			e.errf("%s: filename argument required\n", name)
			e.exit = 2
			return nil
		}
		return e.evalDotFile(ctx, args[0], args[1:], flags)

	case "exec":
		if len(args) < 1 {
			// "exec" alone with only redirections: they stay installed
			// for the rest of the current scope, matching execcmd's
			// "no args" case (the Push/pop around this call already
			// happened in callBuiltin; keepRedirs just stops popredir's
			// later unwind from undoing it here).
			e.keepRedirs = true
			e.exit = 0
			return nil
		}
		status, err := e.runExec(ctx, cmdEntry{kind: cmdNormal}, args, nil)
		if err != nil {
			e.exit = 126
			return errorf("exec: %v", err)
		}
		return exitSignal(uint8(status))

	case "command":
		// Reached when `command -v`/`command -V` was given (evalCommand
		// keeps the name "command" for those) or when no command
		// operand followed; prints the last operand as given, without
		// resolving it. evalCommand's phase-4 handling dispatches the
		// plain `command name ...` case itself.
		if len(args) > 0 {
			e.outf("%s\n", args[len(args)-1])
		}
		e.exit = 0
		return nil

	case "times":
		e.outf("0m0.000s 0m0.000s\n0m0.000s 0m0.000s\n")
		e.exit = 0
		return nil
	}
	e.errf("%s: not a control builtin\n", name)
	e.exit = 2
	return nil
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
