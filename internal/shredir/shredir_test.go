// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package shredir

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"shx.dev/shx/ast"
)

func TestPushToThenPop(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "out.txt")

	s := &Stack{Fds: []*os.File{nil, nil, nil}}
	pop, err := s.Push([]Target{{Kind: ast.To, Fd: 1, Name: name}})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if _, err := s.Get(1).WriteString("hello\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := pop(); err != nil {
		t.Fatalf("pop: %v", err)
	}

	got, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello\n" {
		t.Fatalf("got %q, want %q", got, "hello\n")
	}
	if s.Get(1) != nil {
		t.Fatalf("pop should restore the original (nil) fd 1, got %v", s.Get(1))
	}
}

func TestPushAppendAddsToExistingContent(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "log.txt")
	if err := os.WriteFile(name, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s := NewStack()
	pop, err := s.Push([]Target{{Kind: ast.Append, Fd: 1, Name: name}})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	s.Get(1).WriteString("second\n")
	pop()

	got, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "first\nsecond\n" {
		t.Fatalf("got %q", got)
	}
}

func TestPushRollsBackOnError(t *testing.T) {
	s := NewStack()
	orig := s.Get(1)

	_, err := s.Push([]Target{
		{Kind: ast.To, Fd: 1, Name: filepath.Join(t.TempDir(), "ok.txt")},
		{Kind: ast.FromFd, Fd: 9, DupFd: 99}, // fd 99 never opened: must fail
	})
	if err == nil {
		t.Fatalf("expected an error duplicating an unopened fd")
	}
	if s.Get(1) != orig {
		t.Fatalf("fd 1 should be rolled back after a later target fails")
	}
}

func TestDupFdCopiesExistingFile(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	s := &Stack{Fds: []*os.File{nil, w, nil}}
	if err := s.DupFd(2, 1, false); err != nil {
		t.Fatalf("DupFd: %v", err)
	}
	if s.Get(2) != w {
		t.Fatalf("fd 2 should now alias fd 1's file")
	}
}

func TestDupFdCloseForm(t *testing.T) {
	s := &Stack{Fds: []*os.File{os.Stdin, os.Stdout, os.Stderr}}
	if err := s.DupFd(0, 0, true); err != nil {
		t.Fatalf("DupFd close form: %v", err)
	}
	if s.Get(0) != nil {
		t.Fatalf("N<&- should clear the descriptor")
	}
}

func TestPushHereDocDeliversBody(t *testing.T) {
	s := NewStack()
	pop, err := s.Push([]Target{{Kind: ast.HereDoc, Fd: 0, HereDoc: "line one\nline two\n"}})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	defer pop()

	got, err := io.ReadAll(s.Get(0))
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "line one\nline two\n" {
		t.Fatalf("got %q", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewStack()
	clone := s.Clone()
	clone.Fds[1] = nil
	if s.Fds[1] == nil {
		t.Fatalf("mutating a clone's table should not affect the original")
	}
}
