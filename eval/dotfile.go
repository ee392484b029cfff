// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import (
	"context"
	"io"
	"os"

	"shx.dev/shx/internal/shenv"
	"shx.dev/shx/internal/shsearch"
)

// evalDotFile implements §4.J: resolve name against $PATH when it has
// no slash, read its contents, and evaluate them in the current scope
// (unlike a function call, a dot script shares its caller's variables
// and, per spec, its caller's positional parameters unless args are
// given). DotFuncNest is bumped so "return" inside a dot script is
// recognized as valid the same way it is inside a function body.
func (e *EvalCtx) evalDotFile(ctx context.Context, name string, args []string, flags EvalFlags) *Signal {
	path := name
	if !containsSlash(name) {
		found, err := e.Search.Find(ctx, name, e.Env.Get("PATH").Str)
		if err != nil {
			e.exit = 127
			return errorf(". %s: %v", name, err)
		}
		if found.Kind != shsearch.Normal {
			e.exit = 127
			return errorf(". %s: not found", name)
		}
		path = found.Path
	}

	info, err := os.Stat(path)
	if err != nil {
		e.exit = 127
		return errorf(". %s: %v", name, err)
	}
	if info.IsDir() {
		e.exit = 126
		return errorf(". %s: is a directory", name)
	}
	if info.Mode()&os.ModeDevice != 0 && info.Mode()&os.ModeCharDevice == 0 {
		e.exit = 126
		return errorf(". %s: is a block device", name)
	}

	f, err := os.Open(path)
	if err != nil {
		e.exit = 126
		return errorf(". %s: %v", name, err)
	}
	defer f.Close()
	src, err := io.ReadAll(f)
	if err != nil {
		e.exit = 126
		return errorf(". %s: %v", name, err)
	}

	savedParams := e.Params
	if len(args) > 0 {
		e.Params = shenv.Params{Name0: e.Params.Name0, List: args}
	}
	savedDotFuncNest := e.nest.DotFuncNest
	e.nest.DotFuncNest = e.nest.FuncNest + 1
	defer func() {
		e.nest.DotFuncNest = savedDotFuncNest
		e.Params = savedParams
	}()

	sig := e.EvalString(ctx, string(src), path, flags&EvExit)
	// A return at the dot script's own level raises FileAbort rather
	// than FuncReturn (builtin.go's "return" case); both are consumed
	// here, at the dot command's own boundary, the same way.
	if e.skip.Kind == SkipFuncReturn || e.skip.Kind == SkipFileAbort {
		if e.skip.Count--; e.skip.Count <= 0 {
			e.skip = NoSkip
		}
	}
	return sig
}

func containsSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}
