// Package suppress implements the in-source suppression pragma of
// spec.md §4.3: `#@ except: a, b, c` disables the listed rule
// identifiers for the node it precedes (and that node's descendants), or
// for the whole document when it precedes the version statement.
//
// Supplemented from the original implementation (crates/wdl-lint/src/except.rs,
// see SPEC_FULL.md §3): a bare `#@ except: all` (or `#@ except: *`)
// disables every rule for the scope it is attached to.
package suppress

import (
	"regexp"
	"strings"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/syntax"
)

// All is the sentinel rule identifier meaning "every rule", produced by
// parsing the `all`/`*` short-hand.
const All = "*"

var pragmaRe = regexp.MustCompile(`^#@\s*except:\s*(.+)$`)

// Pragma is a parsed `#@ except: ...` comment.
type Pragma struct {
	// RuleIDs lists the disabled rule identifiers, or [All] for the
	// all/* short-hand.
	RuleIDs []string
	// Offset is the comment token's byte offset, used to report unknown
	// rule identifiers at a stable location.
	Offset int
}

// Parse recognizes a single comment token's text as a suppression pragma.
// It returns ok=false for ordinary comments.
func Parse(commentText string, offset int) (Pragma, bool) {
	m := pragmaRe.FindStringSubmatch(strings.TrimSpace(commentText))
	if m == nil {
		return Pragma{}, false
	}
	raw := strings.Split(m[1], ",")
	ids := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if r == "all" || r == "*" {
			return Pragma{RuleIDs: []string{All}, Offset: offset}, true
		}
		ids = append(ids, r)
	}
	return Pragma{RuleIDs: ids, Offset: offset}, true
}

// PrecedingPragmas scans the comment/whitespace trivia immediately before
// node (separated only by whitespace/other comments, per spec.md §4.3)
// and returns every suppression pragma found, innermost-applicable last.
func PrecedingPragmas(node *syntax.Cursor) []Pragma {
	parent := node.Parent()
	if parent == nil {
		return nil
	}
	siblings := parent.Children()
	idx := node.Slot()
	var out []Pragma
	for i := idx - 1; i >= 0; i-- {
		s := siblings[i]
		switch s.Kind() {
		case syntax.KindWhitespace:
			continue
		case syntax.KindComment:
			if p, ok := Parse(s.Text(), s.Offset()); ok {
				out = append([]Pragma{p}, out...)
			}
			continue
		}
		break
	}
	return out
}

// Frame is one entry in the suppression stack: the set of rule
// identifiers disabled from the offset that introduced them until that
// node's Exit.
type Frame struct {
	NodeOffset int
	NodeEnd    int
	RuleIDs    map[string]bool
}

func (f Frame) disables(ruleID string) bool {
	return f.RuleIDs[All] || f.RuleIDs[ruleID]
}

// Stack tracks active suppressions during a traversal: frames are pushed
// on Enter when a node carries a preceding pragma and popped on Exit of
// the node that introduced them (spec.md §4.3).
type Stack struct {
	frames        []Frame
	documentWide  map[string]bool
	knownRules    map[string]bool
	unknownNoted  map[string]bool
	noteSink      func(diagnostics.Diagnostic)
}

// NewStack creates an empty suppression stack. knownRuleIDs is the set of
// registered rule identifiers (walk.Registry.RuleIDs()); unknown rule
// identifiers named in a pragma produce a note-severity diagnostic via
// noteSink (which may be nil to discard them).
func NewStack(knownRuleIDs []string, noteSink func(diagnostics.Diagnostic)) *Stack {
	known := make(map[string]bool, len(knownRuleIDs))
	for _, id := range knownRuleIDs {
		known[id] = true
	}
	return &Stack{
		documentWide: map[string]bool{},
		knownRules:   known,
		unknownNoted: map[string]bool{},
		noteSink:     noteSink,
	}
}

// SuppressDocument applies a pragma preceding the version statement,
// disabling the listed rules for the entire document.
func (s *Stack) SuppressDocument(p Pragma) {
	for _, id := range p.RuleIDs {
		s.documentWide[id] = true
		s.checkKnown(id, p.Offset)
	}
}

func (s *Stack) checkKnown(ruleID string, offset int) {
	if ruleID == All || s.knownRules[ruleID] || s.unknownNoted[ruleID] {
		return
	}
	s.unknownNoted[ruleID] = true
	if s.noteSink != nil {
		s.noteSink(diagnostics.New(diagnostics.Note,
			"unknown lint rule identifier in suppression pragma: "+ruleID,
			diagnostics.Span{Start: offset, End: offset}))
	}
}

// Enter pushes a frame for node if it carries one or more preceding
// pragmas. Call this on every walk.Visitor.Enter, before checking
// IsEnabled for any rule.
func (s *Stack) Enter(node *syntax.Cursor) {
	pragmas := PrecedingPragmas(node)
	if len(pragmas) == 0 {
		return
	}
	ids := map[string]bool{}
	for _, p := range pragmas {
		for _, id := range p.RuleIDs {
			ids[id] = true
			s.checkKnown(id, p.Offset)
		}
	}
	s.frames = append(s.frames, Frame{NodeOffset: node.Offset(), NodeEnd: node.End(), RuleIDs: ids})
}

// Exit pops the frame(s) introduced at node, if any.
func (s *Stack) Exit(node *syntax.Cursor) {
	for len(s.frames) > 0 && s.frames[len(s.frames)-1].NodeOffset == node.Offset() && s.frames[len(s.frames)-1].NodeEnd == node.End() {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// IsEnabled reports whether ruleID should fire for node, given every
// active document-wide and stack-frame suppression. It is used directly
// as a walk.IsEnabled predicate.
func (s *Stack) IsEnabled(ruleID string, node *syntax.Cursor) bool {
	if s.documentWide[All] || s.documentWide[ruleID] {
		return false
	}
	for _, f := range s.frames {
		if f.disables(ruleID) {
			return false
		}
	}
	return true
}
