// Package eval implements the evaluation engine of spec.md §4.6: runtime
// expression evaluation over a stack of scopes mirroring analysis
// scopes, workflow control flow (scatter/conditional/call) driven by the
// scheduler, and the task-evaluation pipeline coordinating digests, the
// call cache, and pluggable backends.
package eval

import "github.com/viant/wdl/values"

// Env is one runtime scope: a name-to-value binding map with a parent
// pointer, mirroring scope.Scope's shape at analysis time (spec.md §4.6:
// "a runtime environment — a stack of scopes mirroring analysis
// scopes").
type Env struct {
	parent *Env
	vars   map[string]values.Value
}

// NewEnv creates a root environment with no parent.
func NewEnv() *Env {
	return &Env{vars: map[string]values.Value{}}
}

// Push creates a child environment nested inside e.
func (e *Env) Push() *Env {
	return &Env{parent: e, vars: map[string]values.Value{}}
}

// Bind assigns name within e's own frame, shadowing any outer binding.
func (e *Env) Bind(name string, v values.Value) {
	e.vars[name] = v
}

// Lookup searches e and its ancestors for name.
func (e *Env) Lookup(name string) (values.Value, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}
