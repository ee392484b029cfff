// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

package shwords

import (
	"context"
	"testing"

	"shx.dev/shx/ast"
)

func TestIsAssignment(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"x=1", true},
		{"_foo=bar", true},
		{"FOO_2=", true},
		{"2x=1", false},
		{"", false},
		{"x", false},
		{"x y=1", false},
	}
	for _, tc := range tests {
		if got := IsAssignment(tc.in); got != tc.want {
			t.Errorf("IsAssignment(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestGoodName(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"x", true},
		{"_abc123", true},
		{"", false},
		{"2x", false},
		{"x-y", false},
	}
	for _, tc := range tests {
		if got := GoodName(tc.in); got != tc.want {
			t.Errorf("GoodName(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestLiteralFieldsSplitsOnSpace(t *testing.T) {
	l := Literal{}
	got, err := l.Fields(context.Background(), &ast.Arg{Text: "a  b\tc"}, Full)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLiteralLiteralReturnsTextVerbatim(t *testing.T) {
	l := Literal{}
	got, err := l.Literal(context.Background(), &ast.Arg{Text: "a b"}, 0)
	if err != nil {
		t.Fatalf("Literal: %v", err)
	}
	if got != "a b" {
		t.Fatalf("got %q, want %q", got, "a b")
	}
}

func TestLiteralCaseMatch(t *testing.T) {
	l := Literal{}
	ok, _ := l.CaseMatch(context.Background(), "*", "anything")
	if !ok {
		t.Fatalf("* should match anything")
	}
	ok, _ = l.CaseMatch(context.Background(), "foo", "bar")
	if ok {
		t.Fatalf("non-wildcard patterns should require an exact match")
	}
}
