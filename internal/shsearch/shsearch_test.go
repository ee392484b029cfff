// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package shsearch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFindLocatesExecutableOnPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "mytool")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e, err := (PathFinder{}).Find(context.Background(), "mytool", dir)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if e.Kind != Normal || e.Path != bin {
		t.Fatalf("got %+v, want Normal at %q", e, bin)
	}
}

func TestFindSkipsNonExecutableBeforeLaterDir(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	if err := os.WriteFile(filepath.Join(dirA, "tool"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile A: %v", err)
	}
	good := filepath.Join(dirB, "tool")
	if err := os.WriteFile(good, []byte("x"), 0o755); err != nil {
		t.Fatalf("WriteFile B: %v", err)
	}

	e, err := (PathFinder{}).Find(context.Background(), "tool", dirA+":"+dirB)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if e.Kind != Normal || e.Path != good {
		t.Fatalf("got %+v, want Normal at %q", e, good)
	}
}

func TestFindNotFound(t *testing.T) {
	e, err := (PathFinder{}).Find(context.Background(), "definitely-not-a-real-tool", t.TempDir())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if e.Kind != NotFound {
		t.Fatalf("got %+v, want NotFound", e)
	}
}

func TestFindWithSlashBypassesPath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "direct")
	if err := os.WriteFile(bin, []byte("x"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	e, err := (PathFinder{}).Find(context.Background(), bin, "/nonexistent-path-for-test")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if e.Kind != Normal || e.Path != bin {
		t.Fatalf("got %+v, want Normal at %q", e, bin)
	}
}

func TestAdvanceEmptyDirMeansCwd(t *testing.T) {
	path := ":bin"
	cand, ok := (PathFinder{}).Advance(&path, "tool")
	if !ok || cand != filepath.Join(".", "tool") {
		t.Fatalf("got (%q, %v), want (%q, true)", cand, ok, filepath.Join(".", "tool"))
	}
	if path != "bin" {
		t.Fatalf("Advance should consume the empty first segment, got remaining %q", path)
	}
}

func TestAdvanceExhaustsPath(t *testing.T) {
	path := ""
	if _, ok := (PathFinder{}).Advance(&path, "tool"); ok {
		t.Fatalf("Advance on an empty path should report no more candidates")
	}
}
