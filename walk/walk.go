// Package walk implements the pre/post traversal visitor framework of
// spec.md §4.3/§9: a registry dispatching typed enter/exit callbacks per
// node kind, with multiple rule visitors composed by forwarding.
package walk

import "github.com/viant/wdl/syntax"

// Event carries the cursor being visited plus the traversal direction.
type Event struct {
	Node  *syntax.Cursor
	Enter bool // true on enter(node), false on exit(node)
}

// Visitor receives Enter before descending into a node's children and
// Exit after all children have been visited. Returning false from Enter
// short-circuits that subtree: Exit is still called for the node itself,
// but its children are skipped.
type Visitor interface {
	Enter(c *syntax.Cursor) bool
	Exit(c *syntax.Cursor)
}

// Func adapts two plain functions into a Visitor.
type Func struct {
	OnEnter func(c *syntax.Cursor) bool
	OnExit  func(c *syntax.Cursor)
}

func (f Func) Enter(c *syntax.Cursor) bool {
	if f.OnEnter == nil {
		return true
	}
	return f.OnEnter(c)
}

func (f Func) Exit(c *syntax.Cursor) {
	if f.OnExit != nil {
		f.OnExit(c)
	}
}

// Registry maps rule identifiers to Visitor instances and dispatches every
// traversal event to all enabled visitors, composing them by forwarding
// rather than by a fan of per-kind virtual calls — see spec.md §9.
type Registry struct {
	entries []entry
}

type entry struct {
	id      string
	visitor Visitor
}

// NewRegistry creates an empty visitor registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds a rule's visitor under the given rule identifier. The
// order of registration is the order callbacks fire in for a given node.
func (r *Registry) Register(ruleID string, v Visitor) {
	r.entries = append(r.entries, entry{id: ruleID, visitor: v})
}

// RuleIDs returns every registered rule identifier, in registration order.
func (r *Registry) RuleIDs() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.id
	}
	return out
}

// IsEnabled reports whether a predicate (typically the suppression stack)
// allows a rule to fire for the given node. Walk calls this for each
// (node, rule) pair before invoking Enter and again before invoking Exit.
type IsEnabled func(ruleID string, c *syntax.Cursor) bool

// AllEnabled is the default IsEnabled that never suppresses anything.
func AllEnabled(string, *syntax.Cursor) bool { return true }

// Walk performs a pre-order traversal of root, dispatching Enter before
// descending into children and Exit after, to every registered visitor
// for which enabled(ruleID, node) holds.
func Walk(root *syntax.Cursor, r *Registry, enabled IsEnabled) {
	if enabled == nil {
		enabled = AllEnabled
	}
	var rec func(c *syntax.Cursor)
	rec = func(c *syntax.Cursor) {
		descend := true
		for _, e := range r.entries {
			if !enabled(e.id, c) {
				continue
			}
			if !e.visitor.Enter(c) {
				descend = false
			}
		}
		if descend {
			for _, ch := range c.Children() {
				rec(ch)
			}
		}
		for _, e := range r.entries {
			if !enabled(e.id, c) {
				continue
			}
			e.visitor.Exit(c)
		}
	}
	rec(root)
}
