// Package analysis implements the analyzer driver of spec.md §4.5: given
// a set of root URIs, it runs discovery, parse, validation, binding,
// type, and lint passes, exposes per-document and workspace diagnostics,
// and supports incremental re-analysis after an edit — re-typing
// transitively dependent documents only when the edited document's
// exported surface changed.
//
// Grounded on the teacher's analyzer/package.go driver shape (functional
// options, a single entry point over a resolved document set) and on
// ternarybob-iter's index/watcher.go for the fsnotify-driven incremental
// feed (SPEC_FULL.md's domain-stack wiring of github.com/fsnotify/fsnotify).
package analysis

import (
	"fmt"
	"sync"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/docgraph"
	"github.com/viant/wdl/document"
	"github.com/viant/wdl/lint"
	"github.com/viant/wdl/resolve"
	"github.com/viant/wdl/suppress"
	"github.com/viant/wdl/types"
	"github.com/viant/wdl/versions"
)

// Option configures an Analyzer, following the teacher's
// analyzer/option.go functional-options pattern.
type Option func(*Analyzer)

// WithLintRegistry overrides the default lint rule registry.
func WithLintRegistry(reg *lint.Registry) Option {
	return func(a *Analyzer) { a.lint = reg }
}

// WithVersionConfig overrides how an unrecognized version statement is
// handled (versions.Config's fallback version).
func WithVersionConfig(cfg versions.Config) Option {
	return func(a *Analyzer) { a.versionCfg = cfg }
}

// Analyzer drives the full analysis pipeline over a docgraph.Graph.
type Analyzer struct {
	lint       *lint.Registry
	versionCfg versions.Config

	mu      sync.Mutex
	graph   *docgraph.Graph
	loader  docgraph.Loader
	results map[string]resolve.Result
}

// New creates an Analyzer backed by loader for import resolution.
func New(loader docgraph.Loader, opts ...Option) *Analyzer {
	a := &Analyzer{
		lint:       lint.Default(),
		versionCfg: versions.Config{},
		loader:     loader,
		results:    map[string]resolve.Result{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AnalyzeRoots runs discovery + every pass over rootURIs and everything
// they transitively import, replacing any prior graph.
func (a *Analyzer) AnalyzeRoots(rootURIs ...string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.graph = docgraph.New(a.versionCfg)
	for _, root := range rootURIs {
		for _, d := range a.graph.Load(a.loader, root) {
			// Cycle/load diagnostics have no owning document; attach them to
			// the root so they are not silently dropped from workspace
			// diagnostics.
			a.attachGraphDiagnostic(root, d)
		}
	}
	a.analyzeAll()
	return nil
}

func (a *Analyzer) attachGraphDiagnostic(uri string, d diagnostics.Diagnostic) {
	if node, ok := a.graph.Nodes[uri]; ok {
		node.Doc.AddDiagnostics(d)
		return
	}
	// No document exists yet for uri (the load itself failed); rather than
	// synthesize a placeholder node, keep the diagnostic in results, where
	// only DocumentDiagnostics' fallback sees it (WorkspaceDiagnostics
	// lists graph nodes only).
	a.results[uri] = resolve.Result{Diagnostics: []diagnostics.Diagnostic{d}}
}

// analyzeAll runs validation, binding, type, and lint passes over every
// node currently in the graph. Passes are idempotent and order-
// independent across unrelated documents (spec.md §4.5), so this simply
// iterates the node map.
func (a *Analyzer) analyzeAll() {
	structs := a.buildStructRegistry()
	for uri, node := range a.graph.Nodes {
		a.analyzeOne(uri, node, structs)
	}
}

// buildStructRegistry merges every document's own struct/enum
// declarations into one flat registry keyed by name. Cross-document
// struct resolution via import aliases is a further step layered on top
// by a caller that needs alias-qualified names; this registry serves the
// common case of a struct referenced by its own declared name.
func (a *Analyzer) buildStructRegistry() resolve.StructRegistry {
	reg := resolve.StructRegistry{}
	for _, node := range a.graph.Nodes {
		root, ok := node.Doc.Root()
		if !ok {
			continue
		}
		for _, s := range root.Structs() {
			members := map[string]*types.Type{}
			var order []string
			for _, m := range s.Members() {
				order = append(order, m.Name())
				if te, ok := m.TypeNode(); ok {
					members[m.Name()] = primitiveTypeOf(te.Name())
				}
			}
			reg[s.Name()] = types.Struct(s.Name(), order, members)
		}
		for _, e := range root.Enums() {
			reg[e.Name()] = types.Enum(e.Name(), e.Variants())
		}
	}
	return reg
}

func primitiveTypeOf(name string) *types.Type {
	switch name {
	case "Int":
		return types.Int
	case "Float":
		return types.Float
	case "Boolean":
		return types.Boolean
	case "String":
		return types.String
	case "File":
		return types.File
	case "Directory":
		return types.Directory
	default:
		return types.Any
	}
}

func (a *Analyzer) analyzeOne(uri string, node *docgraph.Node, structs resolve.StructRegistry) {
	root, ok := node.Doc.Root()
	if !ok {
		return
	}
	// Binding + type pass (spec.md §4.5 steps 4-5).
	result := resolve.Document(root, structs, node.Doc.Version)

	// Lint pass (step 6), with in-source suppression applied.
	docCursor := root.Cursor()
	ids := a.lint.RuleIDs()
	var suppressedNote []diagnostics.Diagnostic
	stack := suppress.NewStack(ids, func(d diagnostics.Diagnostic) {
		suppressedNote = append(suppressedNote, d)
	})
	lintDiags := lint.Run(docCursor, a.lint)
	filtered := make([]diagnostics.Diagnostic, 0, len(lintDiags))
	for _, d := range lintDiags {
		if d.RuleID == "" {
			filtered = append(filtered, d)
			continue
		}
		if stack.IsEnabled(d.RuleID, docCursor) {
			filtered = append(filtered, d)
		}
	}

	node.Doc.AddDiagnostics(result.Diagnostics...)
	node.Doc.AddDiagnostics(filtered...)
	node.Doc.AddDiagnostics(suppressedNote...)

	a.results[uri] = result
}

// DocumentDiagnostics returns uri's accumulated diagnostics, sorted.
func (a *Analyzer) DocumentDiagnostics(uri string) []diagnostics.Diagnostic {
	a.mu.Lock()
	defer a.mu.Unlock()
	node, ok := a.graph.Nodes[uri]
	if !ok {
		return a.results[uri].Diagnostics
	}
	return node.Doc.SortedDiagnostics()
}

// WorkspaceDiagnostics flattens every document's diagnostics, per
// spec.md §6 ("workspace diagnostics (flattened)").
func (a *Analyzer) WorkspaceDiagnostics() map[string][]diagnostics.Diagnostic {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string][]diagnostics.Diagnostic, len(a.graph.Nodes))
	for uri, node := range a.graph.Nodes {
		out[uri] = node.Doc.SortedDiagnostics()
	}
	return out
}

// Result returns the binding/type-inference result for uri, if analyzed.
func (a *Analyzer) Result(uri string) (resolve.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.results[uri]
	return r, ok
}

// ReanalyzeDocument re-parses and re-analyzes uri in place (the document's
// content in the loader has changed), then propagates a re-type to every
// transitive importer only if uri's exported surface changed — spec.md
// §4.5's incremental re-analysis rule: "Documents that only differ in
// body — no exported surface change — do not trigger dependent re-type."
func (a *Analyzer) ReanalyzeDocument(uri string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	node, ok := a.graph.Nodes[uri]
	if !ok {
		return fmt.Errorf("analysis: unknown document %q", uri)
	}
	before := node.Doc.Surface()

	src, err := a.loader.Load(uri)
	if err != nil {
		return fmt.Errorf("analysis: reload %q: %w", uri, err)
	}
	node.Doc = document.Parse(uri, src, a.versionCfg)

	structs := a.buildStructRegistry()
	a.analyzeOne(uri, node, structs)

	after := node.Doc.Surface()
	if before.Equal(after) {
		return nil
	}
	for _, importer := range a.graph.TransitiveImporters(uri) {
		if n, ok := a.graph.Nodes[importer]; ok {
			a.analyzeOne(importer, n, structs)
		}
	}
	return nil
}
