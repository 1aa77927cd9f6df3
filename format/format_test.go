package format_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/format"
	"github.com/viant/wdl/parser"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/versions"
)

func cursor(t *testing.T, src string) *syntax.Cursor {
	t.Helper()
	res := parser.Parse([]byte(src), versions.Config{})
	return syntax.NewRoot(res.Tree)
}

func TestPrintRoundTripsSourceExactly(t *testing.T) {
	src := "version 1.2\n\ntask  greet {\n  command {\n    echo hi\n  }\n}\n"
	c := cursor(t, src)
	assert.Equal(t, src, format.Print(c))
}

func TestCanonicalStripsTriviaAndNormalizesWhitespace(t *testing.T) {
	loose := cursor(t, "version 1.2\n\ntask   greet   {\n\n\n  command {\n    echo hi\n  }\n}\n")
	tight := cursor(t, "version 1.2\ntask greet {\ncommand {\necho hi\n}\n}\n")

	got := format.Canonical(loose, format.Default)
	want := format.Canonical(tight, format.Default)
	require.NotEmpty(t, got)
	assert.Equal(t, want, got, "canonical form must be insensitive to source whitespace differences")
}

func TestCanonicalIsDeterministic(t *testing.T) {
	c := cursor(t, "version 1.2\ntask greet {\ncommand {\necho hi\n}\n}\n")
	a := format.Canonical(c, format.Default)
	b := format.Canonical(c, format.Default)
	assert.Equal(t, a, b)
}

func TestCanonicalIndentsNestedBraces(t *testing.T) {
	c := cursor(t, "version 1.2\ntask greet {\ninput {\nString name\n}\ncommand {\necho hi\n}\n}\n")
	got := format.Canonical(c, format.Config{IndentWidth: 2, MaxLineWidth: 80, TrailingCommas: true})
	assert.Contains(t, got, "  input")
}
