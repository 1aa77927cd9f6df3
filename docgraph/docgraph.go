// Package docgraph implements the multi-document import graph of spec.md
// §4.5: a URI-keyed map of analysis nodes, import edges resolved against a
// pluggable loader, and cycle detection that reports a single diagnostic
// naming the whole cycle rather than one per edge.
package docgraph

import (
	"fmt"
	"path"
	"strings"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/document"
	"github.com/viant/wdl/versions"
)

// Loader resolves an import URI (relative to the importing document's URI)
// to source bytes. Production callers back this with github.com/viant/afs;
// tests can use an in-memory map.
type Loader interface {
	Load(uri string) ([]byte, error)
}

// Node is one document's place in the import graph: its Document plus the
// resolved URIs of the documents it imports.
type Node struct {
	Doc     *document.Document
	Imports []string // resolved URIs, in source order
}

// Graph is the full multi-document workspace: every Document discovered by
// following import edges from a set of root URIs, keyed by canonical URI.
type Graph struct {
	Nodes map[string]*Node
	cfg   versions.Config
}

// New creates an empty Graph.
func New(cfg versions.Config) *Graph {
	return &Graph{Nodes: map[string]*Node{}, cfg: cfg}
}

// resolveURI joins a relative import path against the importing document's
// own URI, mirroring standard relative-path resolution.
func resolveURI(fromURI, importURI string) string {
	if strings.Contains(importURI, "://") || strings.HasPrefix(importURI, "/") {
		return importURI
	}
	dir := path.Dir(fromURI)
	return path.Clean(path.Join(dir, importURI))
}

// Load parses rootURI and every document it transitively imports,
// populating Graph.Nodes. It returns diagnostics for load failures (e.g. a
// missing import file) and a single diagnostic per detected import cycle;
// parse/analysis diagnostics stay attached to their own Document.
func (g *Graph) Load(loader Loader, rootURI string) []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic
	var visit func(uri string, stack []string)
	visit = func(uri string, stack []string) {
		for _, s := range stack {
			if s == uri {
				diags = append(diags, diagnostics.New(diagnostics.Error,
					"import cycle: "+strings.Join(append(append([]string{}, stack...), uri), " -> "),
					diagnostics.Span{}))
				return
			}
		}
		if _, ok := g.Nodes[uri]; ok {
			return
		}
		src, err := loader.Load(uri)
		if err != nil {
			diags = append(diags, diagnostics.New(diagnostics.Error,
				fmt.Sprintf("failed to load import %q: %s", uri, err.Error()),
				diagnostics.Span{}))
			return
		}
		doc := document.Parse(uri, src, g.cfg)
		node := &Node{Doc: doc}
		g.Nodes[uri] = node

		root, ok := doc.Root()
		if !ok {
			return
		}
		nextStack := append(append([]string{}, stack...), uri)
		for _, imp := range root.Imports() {
			resolved := resolveURI(uri, imp.URI())
			node.Imports = append(node.Imports, resolved)
			visit(resolved, nextStack)
		}
	}
	visit(rootURI, nil)
	return diags
}

// Importers returns the URIs of every document that directly imports uri,
// the set that must be re-analyzed when uri's exported surface changes
// (spec.md §4.5 incremental re-analysis).
func (g *Graph) Importers(uri string) []string {
	var out []string
	for candidate, node := range g.Nodes {
		for _, imp := range node.Imports {
			if imp == uri {
				out = append(out, candidate)
				break
			}
		}
	}
	return out
}

// TransitiveImporters returns every document that depends on uri directly
// or indirectly, used to decide the full re-analysis set after an edit.
func (g *Graph) TransitiveImporters(uri string) []string {
	seen := map[string]bool{}
	var out []string
	var visit func(string)
	visit = func(u string) {
		for _, importer := range g.Importers(u) {
			if seen[importer] {
				continue
			}
			seen[importer] = true
			out = append(out, importer)
			visit(importer)
		}
	}
	visit(uri)
	return out
}
