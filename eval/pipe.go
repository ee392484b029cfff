// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package eval

import "os"

// shPipe creates a pipe for shell-internal use between two pipeline
// stages or for a back-tick capture (§4.I "Pipe helper"); here-document
// pipes are created by internal/shredir itself. eval.c's sh_pipe additionally relocates any endpoint that
// lands below file descriptor 3, so a child's stdin/stdout/stderr
// dup2 calls never collide with the pipe itself; Go's os.Pipe never
// exposes descriptor numbers low enough for that collision to be
// observable (redirections here are installed against an in-memory
// *shredir.Stack, not real kernel descriptor 0/1/2), so that half of
// sh_pipe has no Go equivalent. The helper is kept as its own named
// function, matching the component boundary in SPEC_FULL.md §4.I,
// so the pipeline and backtick callers share one seam.
func shPipe() (r, w *os.File, err error) {
	return os.Pipe()
}
