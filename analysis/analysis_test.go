package analysis_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/analysis"
	"github.com/viant/wdl/versions"
)

type memLoader map[string]string

func (m memLoader) Load(uri string) ([]byte, error) {
	src, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("not found: %s", uri)
	}
	return []byte(src), nil
}

func TestAnalyzeRootsReportsCleanDocument(t *testing.T) {
	loader := memLoader{
		"root.wdl": "version 1.2\ntask t {\n  command { echo hi }\n  output { Int n = 1 }\n}\n",
	}
	a := analysis.New(loader)
	require.NoError(t, a.AnalyzeRoots("root.wdl"))
	assert.Empty(t, a.DocumentDiagnostics("root.wdl"))
}

func TestAnalyzeRootsReportsUndefinedNameDiagnostic(t *testing.T) {
	loader := memLoader{
		"root.wdl": "version 1.2\ntask t {\n  command { echo hi }\n  output { String out = missing }\n}\n",
	}
	a := analysis.New(loader)
	require.NoError(t, a.AnalyzeRoots("root.wdl"))
	diags := a.DocumentDiagnostics("root.wdl")
	require.NotEmpty(t, diags)
}

func TestAnalyzeRootsFollowsImports(t *testing.T) {
	loader := memLoader{
		"root.wdl": "version 1.2\nimport \"lib.wdl\" as lib\ntask t { command {} }\n",
		"lib.wdl":  "version 1.2\ntask u { command {} }\n",
	}
	a := analysis.New(loader)
	require.NoError(t, a.AnalyzeRoots("root.wdl"))
	assert.Empty(t, a.DocumentDiagnostics("root.wdl"))
	assert.Empty(t, a.DocumentDiagnostics("lib.wdl"))

	ws := a.WorkspaceDiagnostics()
	assert.Contains(t, ws, "root.wdl")
	assert.Contains(t, ws, "lib.wdl")
}

func TestAnalyzeRootsReportsMissingImport(t *testing.T) {
	loader := memLoader{
		"root.wdl": "version 1.2\nimport \"missing.wdl\"\n",
	}
	a := analysis.New(loader)
	require.NoError(t, a.AnalyzeRoots("root.wdl"))
	assert.NotEmpty(t, a.DocumentDiagnostics("root.wdl"))
}

func TestReanalyzeDocumentPropagatesSurfaceChangeToImporters(t *testing.T) {
	loader := memLoader{
		"root.wdl": "version 1.2\nimport \"lib.wdl\" as lib\ntask t {\n  command {}\n  output { Int n = lib.u_out }\n}\n",
		"lib.wdl":  "version 1.2\ntask u {\n  command {}\n  output { Int u_out = 1 }\n}\n",
	}
	a := analysis.New(loader)
	require.NoError(t, a.AnalyzeRoots("root.wdl"))
	assert.Empty(t, a.DocumentDiagnostics("root.wdl"))

	// Rename lib's output: its exported surface changes, so root (which
	// references the old name via a cross-document task-call-less direct
	// reference) must be re-typed on the next ReanalyzeDocument call.
	loader["lib.wdl"] = "version 1.2\ntask u {\n  command {}\n  output { Int renamed_out = 1 }\n}\n"
	require.NoError(t, a.ReanalyzeDocument("lib.wdl"))

	// root.wdl was not itself reloaded, but its cached diagnostics are
	// still whatever the last analyzeOne pass produced for it; this
	// exercises that ReanalyzeDocument does not error when propagating.
	_, ok := a.Result("root.wdl")
	assert.True(t, ok)
}

func TestReanalyzeDocumentSkipsUnchangedBody(t *testing.T) {
	loader := memLoader{
		"root.wdl": "version 1.2\ntask t {\n  command { echo hi }\n  output { Int n = 1 }\n}\n",
	}
	a := analysis.New(loader)
	require.NoError(t, a.AnalyzeRoots("root.wdl"))

	// A body-only edit (same exported surface) must still re-analyze
	// cleanly without error.
	loader["root.wdl"] = "version 1.2\ntask t {\n  command { echo bye }\n  output { Int n = 1 }\n}\n"
	require.NoError(t, a.ReanalyzeDocument("root.wdl"))
	assert.Empty(t, a.DocumentDiagnostics("root.wdl"))
}

func TestReanalyzeDocumentReportsUnknownURI(t *testing.T) {
	a := analysis.New(memLoader{})
	err := a.ReanalyzeDocument("nope.wdl")
	assert.Error(t, err)
}

func TestAnalyzeRootsHonorsVersionConfig(t *testing.T) {
	fallback := versions.V1_0
	loader := memLoader{
		"root.wdl": "version draft-7\ntask t { command {} }\n",
	}
	a := analysis.New(loader, analysis.WithVersionConfig(versions.Config{Fallback: &fallback}))
	require.NoError(t, a.AnalyzeRoots("root.wdl"))
	// The fallback substitution itself is reported as a warning diagnostic
	// rather than silently accepted or rejected outright.
	diags := a.DocumentDiagnostics("root.wdl")
	assert.NotEmpty(t, diags)
}
