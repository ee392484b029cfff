// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package shsearch is the command-search cache contract the evaluator
// calls through (spec §6 "Toward jobs/exec": find_command/padvance/
// prehash). The default Finder walks $PATH with golang.org/x/sys/unix
// executable-bit checks, mirroring eval.c's goodname/prehash gate on
// pre-locating a command before forking.
package shsearch

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// Kind is the resolved command type, the Go shape of eval.c's
// cmdentry.cmdtype.
type Kind int

const (
	Unknown Kind = iota
	Normal
	NotFound
)

// Entry is the result of a search, the Go shape of CmdEntry's Normal
// and Unknown variants (Function/Builtin/SpecialBuiltin are resolved
// by the evaluator itself, against its own function table and the
// builtin dispatch table, before ever reaching this contract).
type Entry struct {
	Kind Kind
	Path string // absolute path, when Kind == Normal
}

// Finder resolves external command names against a search path.
type Finder interface {
	Find(ctx context.Context, name, path string) (Entry, error)
	// Advance returns the next candidate absolute path for name along
	// path, and whether any entries remain, mirroring padvance.
	Advance(path *string, name string) (string, bool)
}

// PathFinder is the default Finder, searching $PATH-style colon
// separated directory lists.
type PathFinder struct{}

func (PathFinder) Find(_ context.Context, name, path string) (Entry, error) {
	if strings.Contains(name, "/") {
		if isExecutable(name) {
			return Entry{Kind: Normal, Path: name}, nil
		}
		return Entry{Kind: NotFound}, nil
	}
	rest := path
	for {
		cand, ok := (PathFinder{}).Advance(&rest, name)
		if !ok {
			return Entry{Kind: NotFound}, nil
		}
		if isExecutable(cand) {
			return Entry{Kind: Normal, Path: cand}, nil
		}
	}
}

func (PathFinder) Advance(path *string, name string) (string, bool) {
	if *path == "" {
		return "", false
	}
	dir, rest, found := strings.Cut(*path, ":")
	if !found {
		rest = ""
		*path = ""
	} else {
		*path = rest
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, name), true
}

// isExecutable mirrors eval.c's prehash/goodname gate: the path must
// exist, be a regular file, and have at least one executable bit set
// for the current process, checked via the real access(2)-equivalent
// rather than a hand-rolled permission-bit comparison, since
// euid/egid/supplementary-group membership can make a file executable
// even when the owner-bit alone would say no.
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return unix.Access(path, unix.X_OK) == nil
}
