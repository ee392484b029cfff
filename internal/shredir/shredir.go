// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package shredir is the redirection-stack contract the evaluator
// calls through (spec §6 "Toward redirection": redirect/popredir).
// The default Stack implementation installs real redirections on
// os.File-backed standard streams and returns a pop function that
// restores the previous ones, the Go shape of eval.c's REDIR_PUSH /
// popredir discipline. Clobbering targets (">" / ">|") are written via
// github.com/google/renameio/v2 so a cancelled or failing write never
// leaves the target file half-truncated.
package shredir

import (
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"

	"shx.dev/shx/ast"
)

// Flags mirrors eval.c's REDIR_* flag set. VFork is kept only as a
// documented no-op: this module never takes the vfork-style path, so
// nothing branches on it, but the constant is kept so the contract
// shape matches spec §6 for a future real collaborator.
type Flags uint8

const (
	Push Flags = 1 << iota
	Keep
	Backq
	VFork
)

// Target names one already-expanded redirection (fd + kind + the
// already-expanded file name or duplicate-fd operand).
type Target struct {
	Kind     ast.RedirKind
	Fd       int
	Name     string // expanded file name, for From/To/Clobber/Append/FromTo
	DupFd    int    // expanded target descriptor, for FromFd/ToFd
	DupClose bool   // "N<&-" / "N>&-" form
	HereDoc  string
}

// Frame holds the saved file descriptors a Push call replaced, so Pop
// can restore them in reverse order, mirroring popredir's stack.
type Frame struct {
	saved   []savedFd
	pending []*renameio.PendingFile
}

type savedFd struct {
	fd  int
	old *os.File // nil if the fd was previously unset
}

// Stack installs and restores redirections against a descriptor table
// addressed by small integers 0,1,2,... exactly like a POSIX process's
// fd table, but implemented as a slice of *os.File the evaluator
// consults instead of real kernel descriptors (so redirections inside
// one goroutine never perturb another goroutine's idea of stdio).
type Stack struct {
	Fds []*os.File // Fds[0], Fds[1], Fds[2] are stdin/stdout/stderr
}

// NewStack returns a Stack seeded with the process's real stdio.
func NewStack() *Stack {
	return &Stack{Fds: []*os.File{os.Stdin, os.Stdout, os.Stderr}}
}

// Clone returns a shallow copy sharing the same *os.File values,
// suitable for handing to a subshell/background goroutine so its own
// redirections don't mutate the parent's table.
func (s *Stack) Clone() *Stack {
	out := &Stack{Fds: make([]*os.File, len(s.Fds))}
	copy(out.Fds, s.Fds)
	return out
}

func (s *Stack) ensure(fd int) {
	for len(s.Fds) <= fd {
		s.Fds = append(s.Fds, nil)
	}
}

// Get returns the *os.File currently installed at fd, or nil.
func (s *Stack) Get(fd int) *os.File {
	if fd < 0 || fd >= len(s.Fds) {
		return nil
	}
	return s.Fds[fd]
}

// Push installs each target in order and returns a function restoring
// the previous table entries; it is the Go shape of redirect(list,
// REDIR_PUSH) + popredir(). Any error aborts and restores everything
// installed so far, matching evalredir's install-phase failure rule
// (status 2, no partial state left behind).
func (s *Stack) Push(targets []Target) (pop func() error, err error) {
	var frame Frame
	rollback := func() {
		for i := len(frame.saved) - 1; i >= 0; i-- {
			sv := frame.saved[i]
			s.Fds[sv.fd] = sv.old
		}
	}
	abort := func() {
		rollback()
		for _, p := range frame.pending {
			p.Cleanup()
		}
	}
	for _, t := range targets {
		fd := t.Fd
		if fd == 0 && isOutKind(t.Kind) {
			fd = 1
		}
		s.ensure(fd)

		if t.Kind == ast.FromFd || t.Kind == ast.ToFd {
			frame.saved = append(frame.saved, savedFd{fd: fd, old: s.Fds[fd]})
			if err := s.DupFd(fd, t.DupFd, t.DupClose); err != nil {
				abort()
				return nil, err
			}
			continue
		}

		f, pending, openErr := openTarget(t)
		if openErr != nil {
			abort()
			return nil, openErr
		}
		if pending != nil {
			frame.pending = append(frame.pending, pending)
		}
		frame.saved = append(frame.saved, savedFd{fd: fd, old: s.Fds[fd]})
		s.Fds[fd] = f
	}
	return func() error {
		rollback()
		// Commit clobbered targets atomically now that the redirected
		// command has finished; on pop failure the temp file is left
		// for the OS to garbage-collect rather than silently losing
		// the command's output.
		var firstErr error
		for _, p := range frame.pending {
			if err := p.CloseAtomicallyReplace(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}, nil
}

func isOutKind(k ast.RedirKind) bool {
	switch k {
	case ast.To, ast.Clobber, ast.Append, ast.ToFd:
		return true
	}
	return false
}

func openTarget(t Target) (*os.File, *renameio.PendingFile, error) {
	switch t.Kind {
	case ast.From, ast.FromTo:
		flag := os.O_RDONLY
		if t.Kind == ast.FromTo {
			flag = os.O_RDWR | os.O_CREATE
		}
		f, err := os.OpenFile(t.Name, flag, 0o644)
		return f, nil, err
	case ast.To, ast.Clobber:
		return openClobber(t.Name)
	case ast.Append:
		f, err := os.OpenFile(t.Name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		return f, nil, err
	case ast.FromFd, ast.ToFd:
		// Duplicate-fd targets don't open a new file; the caller
		// resolves t.DupFd against the existing table instead.
		return nil, nil, fmt.Errorf("shredir: FromFd/ToFd must be resolved by the caller, not openTarget")
	case ast.HereDoc:
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, err
		}
		go func() {
			defer w.Close()
			io.WriteString(w, t.HereDoc)
		}()
		return r, nil, nil
	}
	return nil, nil, fmt.Errorf("shredir: unknown redirection kind %d", t.Kind)
}

// openClobber truncates-and-replaces the target atomically via
// renameio, so a failing or cancelled write never leaves a partially
// truncated file in its place — the concern renameio exists to solve,
// applied here to `>`/`>|` instead of its usual config-file use case.
func openClobber(name string) (*os.File, *renameio.PendingFile, error) {
	p, err := renameio.TempFile("", name)
	if err != nil {
		// Fall back to a plain truncating open, e.g. for special
		// files renameio can't target (devices, /dev/stdout, pipes).
		f, oerr := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		return f, nil, oerr
	}
	return p.File, p, nil
}

// DupFd resolves an N<&M / N>&M redirection against the stack's
// current table, installing the same *os.File at the new descriptor.
func (s *Stack) DupFd(fd, dupFd int, close bool) error {
	s.ensure(fd)
	if close {
		s.Fds[fd] = nil
		return nil
	}
	src := s.Get(dupFd)
	if src == nil {
		return fmt.Errorf("shredir: fd %d not open for duplication", dupFd)
	}
	s.Fds[fd] = src
	return nil
}
