package lspshape_test

import (
	"testing"

	lsp "github.com/sourcegraph/go-lsp"

	"github.com/stretchr/testify/assert"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/document"
	"github.com/viant/wdl/lspshape"
	"github.com/viant/wdl/scope"
	"github.com/viant/wdl/types"
	"github.com/viant/wdl/versions"
)

func docOf(src string) *document.Document {
	return document.Parse("t.wdl", []byte(src), versions.Config{})
}

func TestRangeOfConvertsByteOffsetsToLineCol(t *testing.T) {
	doc := docOf("line one\nline two\n")
	r := lspshape.RangeOf(doc, 0, 4)
	assert.Equal(t, 0, r.Start.Line)
	assert.Equal(t, 0, r.Start.Character)
	assert.Equal(t, 4, r.End.Character)

	r2 := lspshape.RangeOf(doc, 9, 13)
	assert.Equal(t, 1, r2.Start.Line, "offset past the first newline must land on line 2 (0-based index 1)")
}

func TestHoverIncludesTypeWhenKnown(t *testing.T) {
	doc := docOf("Int x = 1\n")
	b := scope.Binding{Name: "x", Offset: 0, End: 1}
	h := lspshape.Hover(doc, b, types.Int)
	require := h.Contents
	assert.Len(t, require, 1)
	assert.Equal(t, "x: Int", require[0].Value)
	assert.NotNil(t, h.Range)
}

func TestHoverOmitsTypeWhenNil(t *testing.T) {
	doc := docOf("Int x = 1\n")
	b := scope.Binding{Name: "x", Offset: 0, End: 1}
	h := lspshape.Hover(doc, b, nil)
	assert.Equal(t, "x", h.Contents[0].Value)
}

func TestDefinitionPointsAtDeclarationSpan(t *testing.T) {
	doc := docOf("Int x = 1\n")
	b := scope.Binding{Name: "x", Offset: 4, End: 5}
	loc := lspshape.Definition("file:///t.wdl", doc, b)
	assert.Equal(t, lsp.DocumentURI("file:///t.wdl"), loc.URI)
}

func TestReferencesBuildsOneLocationPerSpan(t *testing.T) {
	doc := docOf("Int x = 1\nInt y = x\n")
	spans := [][2]int{{4, 5}, {18, 19}}
	locs := lspshape.References("file:///t.wdl", doc, spans)
	assert.Len(t, locs, 2)
}

func TestSymbolKindOfMapsOwnerKinds(t *testing.T) {
	assert.Equal(t, lsp.SKFunction, lspshape.SymbolKindOf(scope.OwnerTask))
	assert.Equal(t, lsp.SKNamespace, lspshape.SymbolKindOf(scope.OwnerWorkflow))
	assert.Equal(t, lsp.SKMethod, lspshape.SymbolKindOf(scope.OwnerCall))
	assert.Equal(t, lsp.SKVariable, lspshape.SymbolKindOf(scope.OwnerInput))
}

func TestDiagnosticMapsSeverityAndFields(t *testing.T) {
	doc := docOf("Int x = 1\n")
	d := diagnostics.Diagnostic{
		Severity: diagnostics.Error,
		Message:  "bad thing",
		RuleID:   "some-rule",
		Primary:  diagnostics.Span{Start: 0, End: 3},
	}
	out := lspshape.Diagnostic(doc, d)
	assert.Equal(t, lsp.Error, out.Severity)
	assert.Equal(t, "bad thing", out.Message)
	assert.Equal(t, "some-rule", out.Code)
	assert.Equal(t, "wdl", out.Source)
}

func TestDiagnosticMapsWarningSeverity(t *testing.T) {
	doc := docOf("Int x = 1\n")
	d := diagnostics.Diagnostic{Severity: diagnostics.Warning, Message: "heads up", Primary: diagnostics.Span{Start: 0, End: 1}}
	out := lspshape.Diagnostic(doc, d)
	assert.Equal(t, lsp.Warning, out.Severity)
}

func TestCompletionItemBuildsLabelDetailKind(t *testing.T) {
	item := lspshape.CompletionItem("length", "(Array[X]) -> Int", lsp.CIKFunction)
	assert.Equal(t, "length", item.Label)
	assert.Equal(t, "(Array[X]) -> Int", item.Detail)
	assert.Equal(t, lsp.CIKFunction, item.Kind)
}

func TestDocumentSymbolUsesMappedKind(t *testing.T) {
	doc := docOf("task t { command {} }\n")
	sym := lspshape.DocumentSymbol("file:///t.wdl", doc, "t", scope.OwnerTask, 0, 5)
	assert.Equal(t, "t", sym.Name)
	assert.Equal(t, lsp.SKFunction, sym.Kind)
}
