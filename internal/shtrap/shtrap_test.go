// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package shtrap

import (
	"context"
	"testing"
)

func TestSetGetAndClear(t *testing.T) {
	tr := NewTraps(func(ctx context.Context, body string) error { return nil })
	if _, ok := tr.Get("EXIT"); ok {
		t.Fatalf("no trap should be installed yet")
	}
	tr.Set("EXIT", "echo bye")
	if body, ok := tr.Get("EXIT"); !ok || body != "echo bye" {
		t.Fatalf("got (%q, %v), want (%q, true)", body, ok, "echo bye")
	}
	tr.Set("EXIT", "")
	if _, ok := tr.Get("EXIT"); ok {
		t.Fatalf("setting an empty body should clear the trap")
	}
}

func TestHaveTraps(t *testing.T) {
	tr := NewTraps(func(ctx context.Context, body string) error { return nil })
	if tr.HaveTraps() {
		t.Fatalf("fresh Traps should report none installed")
	}
	tr.Set("ERR", ":")
	if !tr.HaveTraps() {
		t.Fatalf("HaveTraps should report true once one is set")
	}
}

func TestInvalidateAndFreeTraps(t *testing.T) {
	tr := NewTraps(func(ctx context.Context, body string) error { return nil })
	tr.Set("ERR", ":")
	tr.Invalidate()
	if !tr.Invalid() {
		t.Fatalf("Invalidate should mark the table invalid")
	}
	tr.FreeTraps()
	if tr.Invalid() {
		t.Fatalf("FreeTraps should clear the invalid flag")
	}
	if tr.HaveTraps() {
		t.Fatalf("FreeTraps should remove every installed trap")
	}
}

func TestFireRunsInstalledBody(t *testing.T) {
	var ran string
	tr := NewTraps(func(ctx context.Context, body string) error {
		ran = body
		return nil
	})
	tr.Set("ERR", "log error")
	if err := tr.Fire(context.Background(), "ERR"); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if ran != "log error" {
		t.Fatalf("got %q, want %q", ran, "log error")
	}
}

func TestFireNoopWithoutTrap(t *testing.T) {
	called := false
	tr := NewTraps(func(ctx context.Context, body string) error {
		called = true
		return nil
	})
	if err := tr.Fire(context.Background(), "ERR"); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if called {
		t.Fatalf("Fire should not invoke run when no trap is installed")
	}
}
