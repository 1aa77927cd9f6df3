// Package diagnostics implements the Diagnostic record of spec.md §3 and
// the text/machine-readable renderers of §6.
package diagnostics

import (
	"fmt"
	"sort"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Span is a labeled byte range within a document's source.
type Span struct {
	Label string
	Start int
	End   int
}

// Diagnostic is a severity-tagged, source-annotated, rule-keyed message.
type Diagnostic struct {
	Severity    Severity
	Message     string
	RuleID      string // empty for structural/syntax diagnostics not tied to a lint rule
	Primary     Span
	Secondary   []Span
	FixMessage  string
}

// New creates a Diagnostic with only a primary span.
func New(sev Severity, message string, primary Span) Diagnostic {
	return Diagnostic{Severity: sev, Message: message, Primary: primary}
}

// WithRule returns a copy of d tagged with ruleID.
func (d Diagnostic) WithRule(ruleID string) Diagnostic {
	d.RuleID = ruleID
	return d
}

// WithFix returns a copy of d carrying a fix hint message.
func (d Diagnostic) WithFix(msg string) Diagnostic {
	d.FixMessage = msg
	return d
}

// WithSecondary returns a copy of d with an additional labeled auxiliary
// span appended.
func (d Diagnostic) WithSecondary(s Span) Diagnostic {
	d.Secondary = append(append([]Span{}, d.Secondary...), s)
	return d
}

// Sort orders diagnostics by (severity, primary span start), the ordering
// spec.md §3 mandates.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Severity != diags[j].Severity {
			return diags[i].Severity < diags[j].Severity
		}
		return diags[i].Primary.Start < diags[j].Primary.Start
	})
}

// RenderLine formats a single-line diagnostic message (severity, message,
// span) for terminal/log output.
func RenderLine(d Diagnostic) string {
	rule := ""
	if d.RuleID != "" {
		rule = fmt.Sprintf(" [%s]", d.RuleID)
	}
	return fmt.Sprintf("%s: %s%s (at %d..%d)", d.Severity, d.Message, rule, d.Primary.Start, d.Primary.End)
}

// RenderFull formats a multi-line diagnostic including secondary spans and
// a fix hint, if present.
func RenderFull(d Diagnostic) string {
	out := RenderLine(d)
	for _, s := range d.Secondary {
		out += fmt.Sprintf("\n  %s: %d..%d", s.Label, s.Start, s.End)
	}
	if d.FixMessage != "" {
		out += "\n  fix: " + d.FixMessage
	}
	return out
}

// Object is the machine-readable (JSON/LSP-friendly) form of a Diagnostic,
// with explicit offset/length rather than start/end, matching spec.md §6.
type Object struct {
	Severity   string        `json:"severity" yaml:"severity"`
	Message    string        `json:"message" yaml:"message"`
	RuleID     string        `json:"ruleId,omitempty" yaml:"ruleId,omitempty"`
	Offset     int           `json:"offset" yaml:"offset"`
	Length     int           `json:"length" yaml:"length"`
	Secondary  []ObjectSpan  `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	FixMessage string        `json:"fix,omitempty" yaml:"fix,omitempty"`
}

// ObjectSpan is the machine-readable form of a Span.
type ObjectSpan struct {
	Label  string `json:"label" yaml:"label"`
	Offset int    `json:"offset" yaml:"offset"`
	Length int    `json:"length" yaml:"length"`
}

// ToObject converts a Diagnostic to its machine-readable form.
func ToObject(d Diagnostic) Object {
	obj := Object{
		Severity:   d.Severity.String(),
		Message:    d.Message,
		RuleID:     d.RuleID,
		Offset:     d.Primary.Start,
		Length:     d.Primary.End - d.Primary.Start,
		FixMessage: d.FixMessage,
	}
	for _, s := range d.Secondary {
		obj.Secondary = append(obj.Secondary, ObjectSpan{Label: s.Label, Offset: s.Start, Length: s.End - s.Start})
	}
	return obj
}
