// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package shjobs is the job-controller contract the evaluator calls
// through (spec §6 "Toward jobs/exec": makejob/forkshell/waitforjob).
// Go cannot fork a running process, so the default Controller spawns
// a goroutine per job instead of a child process; golang.org/x/sync/
// errgroup supervises the pool and surfaces the first unexpected
// (non-exit-status) error, mirroring the teacher pack's own historical
// use of errgroup for background shells while keeping a channel-
// indexed slice for `wait $n`-style lookups.
package shjobs

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ExitStatus is duplicated here (rather than imported from eval) to
// keep this contract package free of a dependency on the evaluator;
// the eval package converts between eval.ExitStatus and this type
// through the Code field.
type ExitStatus struct {
	Code     uint8
	Signaled bool
	Signal   int
}

// Job is a handle to one spawned unit of work (a pipeline stage, a
// subshell, a background command, or a back-tick capture).
type Job struct {
	id   int
	done chan struct{}
	exit ExitStatus
	err  error
}

// Done returns a channel closed when the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Result returns the job's exit status and any unexpected error.
// Result must only be called after Done is closed.
func (j *Job) Result() (ExitStatus, error) { return j.exit, j.err }

// Controller runs jobs as goroutines and tracks them for `wait`.
type Controller struct {
	mu   sync.Mutex
	jobs []*Job
	g    *errgroup.Group
	ctx  context.Context
}

// NewController returns a Controller bound to ctx; the errgroup's
// derived context is not propagated back to callers, since a single
// job's unexpected error must not cancel sibling jobs the way
// errgroup.WithContext would (one pipeline stage dying does not abort
// its neighbors any more than one dash fork failing aborts the rest).
func NewController(ctx context.Context) *Controller {
	g := &errgroup.Group{}
	return &Controller{g: g, ctx: ctx}
}

// Spawn runs fn on a new goroutine and returns a Job tracking it.
// fn's returned ExitStatus becomes the job's shell exit status; a
// panic in fn is recovered and reported as the job's unexpected error
// (Result's error, and Wait's if it is the first one).
func (c *Controller) Spawn(fn func(ctx context.Context) ExitStatus) *Job {
	j := &Job{done: make(chan struct{})}
	c.mu.Lock()
	j.id = len(c.jobs) + 1
	c.jobs = append(c.jobs, j)
	c.mu.Unlock()

	c.g.Go(func() (err error) {
		defer close(j.done)
		defer func() {
			if r := recover(); r != nil {
				j.err = fmt.Errorf("shjobs: job panicked: %v", r)
				err = j.err
			}
		}()
		j.exit = fn(c.ctx)
		return nil
	})
	return j
}

// Wait blocks until all jobs spawned so far have finished, returning
// the first unexpected (non-exit-status) error, if any.
func (c *Controller) Wait() error {
	return c.g.Wait()
}

// ByIndex returns the job with the given 1-based index, as used by
// `wait %n`/`wait n`, matching eval.c's job-table indexing.
func (c *Controller) ByIndex(n int) (*Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.jobs) {
		return nil, false
	}
	return c.jobs[n-1], true
}
