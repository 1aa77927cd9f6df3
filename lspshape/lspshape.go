// Package lspshape builds the LSP-facing payload shapes of spec.md §6:
// hover, definition, references, documentSymbol, and completion,
// expressed as github.com/sourcegraph/go-lsp types so a language-server
// collaborator (outside this module's scope, per spec.md's framing of
// the LSP surface as "consumed from the language-server collaborator")
// can marshal them directly onto the wire.
//
// Grounded on upbound-up's internal/xpls/handler.go, the pack's one
// concrete sourcegraph/go-lsp consumer: its Handle method builds
// lsp.InitializeResult/lsp.PublishDiagnosticsParams from internal state
// the same way this package builds Hover/Location/DocumentSymbol from
// this module's diagnostics/scope/types.
package lspshape

import (
	"github.com/sourcegraph/go-lsp"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/document"
	"github.com/viant/wdl/scope"
	"github.com/viant/wdl/types"
)

// RangeOf converts a byte-offset span into an lsp.Range using doc's line
// index.
func RangeOf(doc *document.Document, start, end int) lsp.Range {
	sl, sc := doc.LineCol(start)
	el, ec := doc.LineCol(end)
	return lsp.Range{
		Start: lsp.Position{Line: sl - 1, Character: sc},
		End:   lsp.Position{Line: el - 1, Character: ec},
	}
}

// Hover builds a textDocument/hover response describing a binding's
// declared or inferred type.
func Hover(doc *document.Document, b scope.Binding, t *types.Type) lsp.Hover {
	content := b.Name
	if t != nil {
		content = b.Name + ": " + t.String()
	}
	r := RangeOf(doc, b.Offset, b.End)
	return lsp.Hover{
		Contents: []lsp.MarkedString{{Language: "wdl", Value: content}},
		Range:    &r,
	}
}

// Definition builds a textDocument/definition response pointing at a
// binding's declaration span.
func Definition(uri string, doc *document.Document, b scope.Binding) lsp.Location {
	return lsp.Location{
		URI:   lsp.DocumentURI(uri),
		Range: RangeOf(doc, b.Offset, b.End),
	}
}

// References builds a textDocument/references response from every
// matching span (the declaration itself plus every name-reference
// resolving to it — callers assemble that list via resolve's ExprTypes
// offsets cross-referenced against scope.Lookup).
func References(uri string, doc *document.Document, spans [][2]int) []lsp.Location {
	out := make([]lsp.Location, len(spans))
	for i, s := range spans {
		out[i] = lsp.Location{URI: lsp.DocumentURI(uri), Range: RangeOf(doc, s[0], s[1])}
	}
	return out
}

// SymbolKindOf maps a scope.OwnerKind to the closest lsp.SymbolKind for
// textDocument/documentSymbol.
func SymbolKindOf(owner scope.OwnerKind) lsp.SymbolKind {
	switch owner {
	case scope.OwnerTask:
		return lsp.SKFunction
	case scope.OwnerWorkflow:
		return lsp.SKNamespace
	case scope.OwnerCall:
		return lsp.SKMethod
	default:
		return lsp.SKVariable
	}
}

// DocumentSymbol builds one textDocument/documentSymbol entry.
func DocumentSymbol(uri string, doc *document.Document, name string, owner scope.OwnerKind, offset, end int) lsp.SymbolInformation {
	return lsp.SymbolInformation{
		Name: name,
		Kind: SymbolKindOf(owner),
		Location: lsp.Location{
			URI:   lsp.DocumentURI(uri),
			Range: RangeOf(doc, offset, end),
		},
	}
}

// CompletionItem builds one textDocument/completion entry for a stdlib
// function or an in-scope binding.
func CompletionItem(label, detail string, kind lsp.CompletionItemKind) lsp.CompletionItem {
	return lsp.CompletionItem{Label: label, Detail: detail, Kind: kind}
}

// severityOf maps this module's diagnostics.Severity to go-lsp's
// DiagnosticSeverity.
func severityOf(s diagnostics.Severity) lsp.DiagnosticSeverity {
	switch s {
	case diagnostics.Error:
		return lsp.Error
	case diagnostics.Warning:
		return lsp.Warning
	default:
		return lsp.Information
	}
}

// Diagnostic builds one textDocument/publishDiagnostics entry.
func Diagnostic(doc *document.Document, d diagnostics.Diagnostic) lsp.Diagnostic {
	return lsp.Diagnostic{
		Range:    RangeOf(doc, d.Primary.Start, d.Primary.End),
		Severity: severityOf(d.Severity),
		Code:     d.RuleID,
		Source:   "wdl",
		Message:  d.Message,
	}
}
