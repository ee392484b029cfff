// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package shtrap is the trap subsystem contract the evaluator calls
// through (spec §6 "Toward traps/signals": have_traps/free_traps/
// dotrap/traps_invalid). The default implementation stores a trap
// body string per signal/pseudo-signal name and re-parses-and-runs it
// on demand, the same approach mvdan-sh's runner.go takes for its
// ERR/EXIT pseudo-traps (a fresh parser invocation per fire, since Go
// has no portable way to catch and resume from an async Unix signal
// mid-goroutine the way a real shell's trap handler does).
package shtrap

import (
	"context"
	"sync"
)

// Run executes a parsed trap body; callers (the eval package) own
// parsing, since the parser is out of scope here.
type Run func(ctx context.Context, body string) error

// Traps tracks pending trap bodies and an invalidation flag set after
// a subshell is spawned but before it has re-established its own
// traps (eval.c's traps_invalid).
type Traps struct {
	mu      sync.Mutex
	bodies  map[string]string
	invalid bool
	run     Run
}

// NewTraps returns a Traps whose bodies are executed via run.
func NewTraps(run Run) *Traps {
	return &Traps{bodies: map[string]string{}, run: run}
}

// Set installs (or clears, if body=="") the trap body for name (e.g.
// "EXIT", "ERR", or a signal name).
func (t *Traps) Set(name, body string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if body == "" {
		delete(t.bodies, name)
		return
	}
	t.bodies[name] = body
}

// Get returns the current trap body for name, if any.
func (t *Traps) Get(name string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bodies[name]
	return b, ok
}

// HaveTraps reports whether any trap is installed, gating the
// fork-vs-inline decision in evalsubshell/evalcommand exactly as
// eval.c's have_traps() does.
func (t *Traps) HaveTraps() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.bodies) > 0
}

// Invalidate marks traps invalid after a subshell spawn, matching
// eval.c's traps_invalid flag.
func (t *Traps) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.invalid = true
}

// Invalid reports whether Invalidate was called without a matching
// FreeTraps/clear since.
func (t *Traps) Invalid() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invalid
}

// FreeTraps clears every installed trap and the invalid flag,
// matching eval.c's free_traps(), called when evaltree discovers
// traps_invalid on a freshly forked child.
func (t *Traps) FreeTraps() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bodies = map[string]string{}
	t.invalid = false
}

// Fire runs the trap body for name, if any, matching eval.c's
// dotrap(). The caller is responsible for saving and restoring the
// exit status around the call, since a trap must not clobber $?.
func (t *Traps) Fire(ctx context.Context, name string) error {
	body, ok := t.Get(name)
	if !ok {
		return nil
	}
	return t.run(ctx, body)
}
