// Copyright (c) 2026, shx contributors
// See LICENSE for licensing information

// Package shenv is the variable-store contract the evaluator calls
// through (spec §6 "Toward variables"). It is shaped after
// mvdan.cc/sh/v3/expand's Environ/WriteEnviron pair so a real
// expander package can be dropped in without adapters; this package
// also ships a default parent/overlay implementation used for
// function-local scopes and `local`.
package shenv

// ValueKind describes which value field of Variable is meaningful.
type ValueKind uint8

const (
	Unknown ValueKind = iota
	String
	NameRef
	Indexed
	Associative
)

// Variable mirrors expand.Variable: a value plus shell attributes.
type Variable struct {
	Set      bool
	Local    bool
	Exported bool
	ReadOnly bool

	Kind ValueKind
	Str  string
	List []string
	Map  map[string]string
}

// IsSet reports whether the variable currently holds a value.
func (v Variable) IsSet() bool { return v.Set }

// Declared reports whether the variable has been declared at all,
// even if unset (e.g. `declare -a foo` or `export foo`).
func (v Variable) Declared() bool {
	return v.Set || v.Local || v.Exported || v.ReadOnly || v.Kind != Unknown
}

func (v Variable) String() string {
	switch v.Kind {
	case String, NameRef:
		return v.Str
	case Indexed:
		if len(v.List) > 0 {
			return v.List[0]
		}
	}
	return ""
}

// Environ is the read side of the variable store.
type Environ interface {
	Get(name string) Variable
	Each(func(name string, v Variable) bool)
}

// WriteEnviron extends Environ with mutation, matching the same
// overload spec.md's `setvar`/`setvareq` collapse into one call.
type WriteEnviron interface {
	Environ
	Set(name string, v Variable) error
}

// Params holds positional parameters ($1, $2, ... and $0), kept
// separate from named variables the way eval.c's shellparam is.
type Params struct {
	Name0 string
	List  []string
}

// Overlay implements WriteEnviron as a parent environment plus a local
// map, grounded on the parent/overlay scope pattern used throughout
// mvdan-sh's interp package for function scopes (funcScope: true).
// A nil Parent makes Overlay a root environment.
type Overlay struct {
	Parent     WriteEnviron
	Local      map[string]Variable
	FuncScope  bool // if true, Set without Local=true still writes locally
	deleted    map[string]bool
}

// NewOverlay returns a root overlay with no parent.
func NewOverlay() *Overlay {
	return &Overlay{Local: map[string]Variable{}, deleted: map[string]bool{}}
}

// Push returns a child overlay suitable for a function call scope.
func (o *Overlay) Push(funcScope bool) *Overlay {
	return &Overlay{Parent: o, Local: map[string]Variable{}, FuncScope: funcScope, deleted: map[string]bool{}}
}

func (o *Overlay) Get(name string) Variable {
	if o.deleted[name] {
		return Variable{}
	}
	if v, ok := o.Local[name]; ok {
		return v
	}
	if o.Parent != nil {
		return o.Parent.Get(name)
	}
	return Variable{}
}

func (o *Overlay) Set(name string, v Variable) error {
	if !v.IsSet() && v.Kind == Unknown && !v.Local && !v.Exported && !v.ReadOnly {
		// Unsetting: remove locally, and shadow the parent's value too.
		delete(o.Local, name)
		o.deleted[name] = true
		return nil
	}
	delete(o.deleted, name)
	o.Local[name] = v
	return nil
}

func (o *Overlay) Each(fn func(name string, v Variable) bool) {
	seen := map[string]bool{}
	for name, v := range o.Local {
		seen[name] = true
		if !fn(name, v) {
			return
		}
	}
	if o.Parent == nil {
		return
	}
	o.Parent.Each(func(name string, v Variable) bool {
		if seen[name] || o.deleted[name] {
			return true
		}
		return fn(name, v)
	})
}
