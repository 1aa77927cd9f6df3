// Package document implements the per-source Document record of spec.md
// §4.5: a parsed tree plus the declared version, namespace-scoped
// declaration tables, and the diagnostics accumulated for it so far.
package document

import (
	"strings"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/parser"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/versions"
)

// Document is one parsed WDL source file, addressed by its canonical URI
// (a local path or a resolved import URI).
type Document struct {
	URI         string
	Source      []byte
	Tree        *syntax.Green
	Version     versions.SupportedVersion
	Diagnostics []diagnostics.Diagnostic

	lineStarts []int
}

// Parse parses src under cfg and builds a Document for uri. Parser
// diagnostics are carried through unchanged; the caller adds analysis-phase
// diagnostics (binding, typing, lint) on top via AddDiagnostics.
func Parse(uri string, src []byte, cfg versions.Config) *Document {
	res := parser.Parse(src, cfg)
	return &Document{
		URI:         uri,
		Source:      src,
		Tree:        res.Tree,
		Version:     res.Version,
		Diagnostics: res.Diagnostics,
		lineStarts:  computeLineStarts(src),
	}
}

// Root returns the typed Document AST view over the parsed tree.
func (d *Document) Root() (ast.Document, bool) {
	return ast.WrapDocument(syntax.NewRoot(d.Tree))
}

// AddDiagnostics appends diagnostics produced by a later analysis phase
// (binding, type checking, lint).
func (d *Document) AddDiagnostics(diags ...diagnostics.Diagnostic) {
	d.Diagnostics = append(d.Diagnostics, diags...)
}

// SortedDiagnostics returns a severity/position-sorted copy of Diagnostics.
func (d *Document) SortedDiagnostics() []diagnostics.Diagnostic {
	out := append([]diagnostics.Diagnostic{}, d.Diagnostics...)
	diagnostics.Sort(out)
	return out
}

func computeLineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// LineCol converts a byte offset to a 1-based line and 0-based column,
// for diagnostic rendering and LSP position conversion.
func (d *Document) LineCol(offset int) (line, col int) {
	// binary search over lineStarts for the last start <= offset
	lo, hi := 0, len(d.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1, offset - d.lineStarts[lo]
}

// Namespace returns the default import namespace derived from uri: the
// file's base name without its .wdl extension, per spec.md §4.5.
func Namespace(uri string) string {
	base := uri
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, ".wdl")
}

// ExportedSurface is the subset of a Document's content compared to decide
// whether dependents need re-analysis: the declared version and the
// task/workflow/struct/enum names, in declaration order. It does not hold
// input/output signatures, struct members or enum variants.
// analysis.ReanalyzeDocument uses an equality check over this to decide
// whether a re-analysis needs to propagate to importers (spec.md §4.5
// incremental re-analysis).
type ExportedSurface struct {
	Version   versions.SupportedVersion
	Tasks     []string
	Workflows []string
	Structs   []string
	Enums     []string
}

// Surface extracts the Document's ExportedSurface, or the zero value if the
// tree has no root/version statement.
func (d *Document) Surface() ExportedSurface {
	root, ok := d.Root()
	if !ok {
		return ExportedSurface{}
	}
	s := ExportedSurface{Version: d.Version}
	for _, t := range root.Tasks() {
		s.Tasks = append(s.Tasks, t.Name())
	}
	for _, w := range root.Workflows() {
		s.Workflows = append(s.Workflows, w.Name())
	}
	for _, st := range root.Structs() {
		s.Structs = append(s.Structs, st.Name())
	}
	for _, e := range root.Enums() {
		s.Enums = append(s.Enums, e.Name())
	}
	return s
}

// Equal reports whether two ExportedSurfaces are identical (same version,
// same declaration names in the same order). An edit that changes only a
// task's or workflow's inputs/outputs, a struct's members or an enum's
// variants leaves the two surfaces Equal.
func (s ExportedSurface) Equal(o ExportedSurface) bool {
	return s.Version == o.Version &&
		stringsEqual(s.Tasks, o.Tasks) &&
		stringsEqual(s.Workflows, o.Workflows) &&
		stringsEqual(s.Structs, o.Structs) &&
		stringsEqual(s.Enums, o.Enums)
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
