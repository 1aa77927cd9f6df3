package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/versions"
)

func TestParseAndSurface(t *testing.T) {
	src := "version 1.2\n\ntask t {\n  command {}\n}\n"
	d := Parse("file:///a.wdl", []byte(src), versions.Config{})
	require.Empty(t, d.Diagnostics)
	assert.Equal(t, versions.V1_2, d.Version)

	s := d.Surface()
	assert.Equal(t, []string{"t"}, s.Tasks)
}

func TestNamespaceFromURI(t *testing.T) {
	assert.Equal(t, "tasks", Namespace("/a/b/tasks.wdl"))
	assert.Equal(t, "tasks", Namespace("tasks.wdl"))
}

func TestLineCol(t *testing.T) {
	src := "abc\ndef\nghi"
	d := Parse("x.wdl", []byte(src), versions.Config{})
	line, col := d.LineCol(0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 0, col)
	line, col = d.LineCol(4)
	assert.Equal(t, 2, line)
	assert.Equal(t, 0, col)
	line, col = d.LineCol(9)
	assert.Equal(t, 3, line)
	assert.Equal(t, 1, col)
}

func TestExportedSurfaceEqual(t *testing.T) {
	a := ExportedSurface{Version: versions.V1_2, Tasks: []string{"a", "b"}}
	b := ExportedSurface{Version: versions.V1_2, Tasks: []string{"a", "b"}}
	c := ExportedSurface{Version: versions.V1_2, Tasks: []string{"a"}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}
