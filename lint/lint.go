// Package lint implements the suppressible diagnostic rules of spec.md
// §4.5/§9: a fixed registry of named rules, each a walk.Visitor, driven
// over a document's red tree with suppress.Stack honoring `#@ except:`
// pragmas. Grounded on crates/wdl-lint's rule shape (one file per rule,
// each producing Diagnostics tagged with its own rule identifier).
package lint

import (
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/suppress"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/walk"
)

// Rule is one lint rule: an identifier and a constructor returning a
// fresh walk.Visitor that reports findings through sink.
type Rule struct {
	ID   string
	New  func(sink func(diagnostics.Diagnostic)) walk.Visitor
}

// Registry is the fixed set of rules available to Run.
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty rule registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds rule to the registry.
func (r *Registry) Register(rule Rule) { r.rules = append(r.rules, rule) }

// RuleIDs returns every registered rule identifier, in registration order.
func (r *Registry) RuleIDs() []string {
	out := make([]string, len(r.rules))
	for i, rule := range r.rules {
		out[i] = rule.ID
	}
	return out
}

// Default builds the registry of built-in rules shipped with the
// toolchain.
func Default() *Registry {
	reg := NewRegistry()
	reg.Register(Rule{ID: parameterMetaMatchedID, New: newParameterMetaMatched})
	reg.Register(Rule{ID: trailingCommaID, New: newTrailingComma})
	return reg
}

// Run lints root, honoring `#@ except:` suppression pragmas, and returns
// every diagnostic raised by an enabled rule, sorted by severity and then
// by position (diagnostics.Sort).
//
// This mirrors walk.Walk's traversal shape but cannot reuse it directly:
// suppress.Stack's Enter/Exit must fire exactly once per node, before any
// rule's IsEnabled check, which walk.Walk's per-visitor enabled callback
// does not model.
func Run(root *syntax.Cursor, reg *Registry) []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic
	sink := func(d diagnostics.Diagnostic) { diags = append(diags, d) }
	stack := suppress.NewStack(reg.RuleIDs(), sink)

	visitors := make(map[string]walk.Visitor, len(reg.rules))
	for _, rule := range reg.rules {
		visitors[rule.ID] = rule.New(sink)
	}

	var visit func(c *syntax.Cursor)
	visit = func(c *syntax.Cursor) {
		stack.Enter(c)
		descend := true
		for _, rule := range reg.rules {
			if !stack.IsEnabled(rule.ID, c) {
				continue
			}
			if !visitors[rule.ID].Enter(c) {
				descend = false
			}
		}
		if descend {
			for _, ch := range c.Children() {
				visit(ch)
			}
		}
		for _, rule := range reg.rules {
			if !stack.IsEnabled(rule.ID, c) {
				continue
			}
			visitors[rule.ID].Exit(c)
		}
		stack.Exit(c)
	}
	visit(root)

	diagnostics.Sort(diags)
	return diags
}
