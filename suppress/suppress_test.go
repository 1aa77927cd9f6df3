package suppress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/suppress"
	"github.com/viant/wdl/syntax"
)

func TestParseRecognizesExceptPragma(t *testing.T) {
	p, ok := suppress.Parse("#@ except: a, b", 10)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, p.RuleIDs)
	assert.Equal(t, 10, p.Offset)
}

func TestParseRecognizesAllShorthand(t *testing.T) {
	p, ok := suppress.Parse("#@ except: all", 0)
	require.True(t, ok)
	assert.Equal(t, []string{suppress.All}, p.RuleIDs)

	p, ok = suppress.Parse("#@ except: *", 0)
	require.True(t, ok)
	assert.Equal(t, []string{suppress.All}, p.RuleIDs)
}

func TestParseRejectsOrdinaryComment(t *testing.T) {
	_, ok := suppress.Parse("# just a comment", 0)
	assert.False(t, ok)
}

// taskNodeWithPreceding builds a composite node with a comment+whitespace
// pair followed by a target child, wrapped in a root, and returns a cursor
// over the target child — mimicking a pragma comment immediately preceding
// a task declaration.
func taskNodeWithPreceding(commentText string) *syntax.Cursor {
	comment := syntax.NewToken(syntax.KindComment, commentText)
	ws := syntax.NewToken(syntax.KindWhitespace, "\n")
	target := syntax.NewNode(syntax.KindTaskNode, []*syntax.Green{
		syntax.NewToken(syntax.KindIdentifier, "t"),
	})
	root := syntax.NewNode(syntax.KindRoot, []*syntax.Green{comment, ws, target})
	cursor := syntax.NewRoot(root)
	return cursor.Child(2)
}

func TestPrecedingPragmasFindsCommentAcrossWhitespace(t *testing.T) {
	target := taskNodeWithPreceding("#@ except: my-rule")
	pragmas := suppress.PrecedingPragmas(target)
	require.Len(t, pragmas, 1)
	assert.Equal(t, []string{"my-rule"}, pragmas[0].RuleIDs)
}

func TestPrecedingPragmasReturnsNoneWithoutPragma(t *testing.T) {
	target := taskNodeWithPreceding("# plain comment")
	assert.Empty(t, suppress.PrecedingPragmas(target))
}

func TestPrecedingPragmasReturnsNoneAtRoot(t *testing.T) {
	root := syntax.NewRoot(syntax.NewNode(syntax.KindRoot, nil))
	assert.Empty(t, suppress.PrecedingPragmas(root))
}

func TestStackSuppressesRuleWithinFrameAndClearsOnExit(t *testing.T) {
	target := taskNodeWithPreceding("#@ except: no-magic")
	stack := suppress.NewStack([]string{"no-magic"}, nil)

	assert.True(t, stack.IsEnabled("no-magic", target))

	stack.Enter(target)
	assert.False(t, stack.IsEnabled("no-magic", target))
	assert.True(t, stack.IsEnabled("other-rule", target))

	stack.Exit(target)
	assert.True(t, stack.IsEnabled("no-magic", target))
}

func TestStackAllShorthandSuppressesEveryRule(t *testing.T) {
	target := taskNodeWithPreceding("#@ except: all")
	stack := suppress.NewStack([]string{"rule-a", "rule-b"}, nil)

	stack.Enter(target)
	assert.False(t, stack.IsEnabled("rule-a", target))
	assert.False(t, stack.IsEnabled("rule-b", target))
	assert.False(t, stack.IsEnabled("totally-unknown", target))
}

func TestStackSuppressDocumentAppliesGlobally(t *testing.T) {
	target := taskNodeWithPreceding("# plain comment")
	stack := suppress.NewStack([]string{"doc-rule"}, nil)

	stack.SuppressDocument(suppress.Pragma{RuleIDs: []string{"doc-rule"}, Offset: 0})
	assert.False(t, stack.IsEnabled("doc-rule", target))
	assert.True(t, stack.IsEnabled("other-rule", target))
}

func TestStackReportsUnknownRuleIdentifierOnce(t *testing.T) {
	var notes []diagnostics.Diagnostic
	target := taskNodeWithPreceding("#@ except: bogus-rule")
	stack := suppress.NewStack([]string{"known-rule"}, func(d diagnostics.Diagnostic) {
		notes = append(notes, d)
	})

	stack.Enter(target)
	stack.Enter(target)

	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "bogus-rule")
	assert.Equal(t, diagnostics.Note, notes[0].Severity)
}
