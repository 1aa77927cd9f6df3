package lint

import (
	"strings"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/walk"
)

const trailingCommaID = "TrailingComma"

// multilineListKinds are the bracketed/braced node kinds this rule
// inspects: array and object literals, and the metadata key/value
// sections, which spec.md requires a trailing comma in when they span
// more than one line. Grounded on
// crates/wdl-lint/src/rules/trailing_comma.rs.
var multilineListKinds = map[syntax.Kind]bool{
	syntax.KindExprArrayNode:            true,
	syntax.KindExprObjectNode:           true,
	syntax.KindExprMapNode:              true,
	syntax.KindMetaSectionNode:          true,
	syntax.KindParameterMetaSectionNode: true,
	syntax.KindRuntimeSectionNode:       true,
}

type trailingComma struct {
	sink func(diagnostics.Diagnostic)
}

func newTrailingComma(sink func(diagnostics.Diagnostic)) walk.Visitor {
	return &trailingComma{sink: sink}
}

func (t *trailingComma) Enter(c *syntax.Cursor) bool {
	if !multilineListKinds[c.Kind()] {
		return true
	}
	if !strings.Contains(c.Text(), "\n") {
		return true
	}
	children := c.Children()
	var lastContent *syntax.Cursor
	for i := len(children) - 1; i >= 0; i-- {
		k := children[i].Kind()
		if k.IsTrivia() || k == syntax.KindCloseBrace || k == syntax.KindCloseBracket {
			continue
		}
		lastContent = children[i]
		break
	}
	if lastContent == nil || lastContent.Kind() == syntax.KindComma {
		return true
	}
	span := diagnostics.Span{Start: lastContent.End(), End: lastContent.End()}
	t.sink(diagnostics.New(diagnostics.Note, "item missing trailing comma", span).
		WithRule(trailingCommaID).
		WithFix("add a comma after this element"))
	return true
}

func (t *trailingComma) Exit(*syntax.Cursor) {}
