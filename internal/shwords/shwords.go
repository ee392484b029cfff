// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package shwords is the expander contract the evaluator calls
// through (spec §6 "Toward the expander"). Word splitting, globbing,
// parameter and tilde expansion are out of scope for the evaluator
// itself; this package defines the contract shape (mirroring
// mvdan.cc/sh/v3/expand's Config/Fields/Literal/Pattern split) and
// ships a minimal literal-only default so the evaluator is runnable
// and testable without a real expander wired in.
package shwords

import (
	"context"

	"shx.dev/shx/ast"
)

// Flags mirrors eval.c's EXP_* flag set.
type Flags uint8

const (
	Full Flags = 1 << iota
	Tilde
	VarTilde
	Redir
)

// Expander is the out-of-scope collaborator the evaluator expands
// words through.
type Expander interface {
	// Fields expands one Arg into zero or more resulting words.
	Fields(ctx context.Context, a *ast.Arg, flags Flags) ([]string, error)
	// Literal expands one Arg into exactly one string, no field
	// splitting (used for case expressions and patterns, assignment
	// right-hand sides, and redirection targets).
	Literal(ctx context.Context, a *ast.Arg, flags Flags) (string, error)
	// CaseMatch reports whether word matches pattern, using the
	// expander's pattern-matching rules (eval.c's casematch).
	CaseMatch(ctx context.Context, pattern, word string) (bool, error)
}

// IsAssignment reports whether text has the shape NAME=..., the
// predicate eval.c calls isassignment. It is a property of raw
// argument text, not of expansion, so it lives here rather than
// behind the Expander interface.
func IsAssignment(text string) bool {
	if text == "" {
		return false
	}
	i := 0
	if !isNameStart(text[0]) {
		return false
	}
	i++
	for i < len(text) && isNameCont(text[i]) {
		i++
	}
	return i < len(text) && text[i] == '='
}

// GoodName reports whether text is a valid shell identifier, the
// predicate eval.c calls goodname (used to gate command-hash
// prelocation).
func GoodName(text string) bool {
	if text == "" {
		return false
	}
	if !isNameStart(text[0]) {
		return false
	}
	for i := 1; i < len(text); i++ {
		if !isNameCont(text[i]) {
			return false
		}
	}
	return true
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameCont(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9')
}

// Literal is a minimal Expander that performs no field splitting,
// globbing, or parameter substitution: Literal returns an Arg's Text
// verbatim, and Fields splits it on spaces and tabs only. It exists
// purely to drive the evaluator's own tests and examples; production
// use wires in a real expander.
type Literal struct{}

func (Literal) Fields(_ context.Context, a *ast.Arg, _ Flags) ([]string, error) {
	if a == nil || a.Text == "" {
		return nil, nil
	}
	return splitSpaces(a.Text), nil
}

func (Literal) Literal(_ context.Context, a *ast.Arg, _ Flags) (string, error) {
	if a == nil {
		return "", nil
	}
	return a.Text, nil
}

func (Literal) CaseMatch(_ context.Context, pattern, word string) (bool, error) {
	return pattern == word || pattern == "*", nil
}

func splitSpaces(s string) []string {
	var out []string
	start := -1
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != ' ' && s[i] != '\t' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, s[start:i])
			start = -1
		}
	}
	return out
}
