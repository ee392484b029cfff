// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package eval implements the command evaluator of a POSIX-style
// shell: given an already-parsed command tree (package ast), it walks
// the tree, expands words, arranges pipelines/subshells/background
// jobs, installs and restores redirections, dispatches to functions,
// builtins, and external programs, and propagates a single exit
// status together with non-local control flow (break, continue,
// return, file-level abort, shell exit).
//
// The parser, the expander's word-splitting and globbing rules, job
// control, the redirection stack, the variable store, the command
// search cache, and the trap subsystem are named collaborators
// reached through the contracts in the internal/sh* packages; this
// package implements only the walk and the control-flow rules around
// it.
//
// Glossary:
//
//   - AST / tree / node: ast.Node, produced by a collaborator outside
//     this package.
//   - Compound command: a command whose body is itself one or more
//     commands — loops, case, subshells, braces with redirections,
//     pipelines.
//   - Simple command: one word list possibly preceded by assignments
//     and followed by redirections; see evalCommand.
//   - Builtin: a command implemented inside the evaluator. Special
//     builtins make assignments persist and propagate exec/error
//     signals out of the command; regular builtins do not.
//   - Dot script: a file read by the "." builtin in the current
//     evaluator context.
//   - Back-tick command: command-substitution syntax whose stdout is
//     captured as a word.
//   - Skip: the non-local control-flow latch implementing break,
//     continue, return, and file-abort; see SkipState.
//   - PS4: the prompt prefix a shell uses when xtrace is active. This
//     package's tracer writes the fixed prefix "+ " and does not read
//     or expand PS4.
//   - EvExit: evaluation flag meaning "this is the last thing this
//     goroutine will do for this command," permitting the fork/spawn
//     elision described in evalCommand and evalSubshellOrBackground.
//   - EvTested: evaluation flag meaning "the result is consumed by a
//     conditional," suppressing the exit-on-error ("set -e") check.
package eval
