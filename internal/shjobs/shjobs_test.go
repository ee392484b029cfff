// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package shjobs

import (
	"context"
	"testing"
)

func TestSpawnReportsExitStatus(t *testing.T) {
	c := NewController(context.Background())
	j := c.Spawn(func(ctx context.Context) ExitStatus {
		return ExitStatus{Code: 7}
	})
	<-j.Done()
	got, err := j.Result()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Code != 7 {
		t.Fatalf("got code %d, want 7", got.Code)
	}
}

func TestSpawnRecoversPanic(t *testing.T) {
	c := NewController(context.Background())
	j := c.Spawn(func(ctx context.Context) ExitStatus {
		panic("boom")
	})
	<-j.Done()
	_, err := j.Result()
	if err == nil {
		t.Fatalf("expected a panic to surface as an error")
	}
}

func TestByIndexIsOneBased(t *testing.T) {
	c := NewController(context.Background())
	first := c.Spawn(func(ctx context.Context) ExitStatus { return ExitStatus{} })
	second := c.Spawn(func(ctx context.Context) ExitStatus { return ExitStatus{} })
	<-first.Done()
	<-second.Done()

	if got, ok := c.ByIndex(1); !ok || got != first {
		t.Fatalf("ByIndex(1) should return the first spawned job")
	}
	if got, ok := c.ByIndex(2); !ok || got != second {
		t.Fatalf("ByIndex(2) should return the second spawned job")
	}
	if _, ok := c.ByIndex(0); ok {
		t.Fatalf("ByIndex(0) should report not found")
	}
	if _, ok := c.ByIndex(3); ok {
		t.Fatalf("ByIndex(3) should report not found when only 2 jobs exist")
	}
}

func TestWaitReturnsNilWithNoUnexpectedErrors(t *testing.T) {
	c := NewController(context.Background())
	j := c.Spawn(func(ctx context.Context) ExitStatus { return ExitStatus{Code: 1} })
	<-j.Done()
	if err := c.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}
