package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/versions"
)

func mustRoot(t *testing.T, src string) (ast.Document, Result) {
	t.Helper()
	res := Parse([]byte(src), versions.Config{})
	require.Equal(t, src, res.Tree.FullText(), "tree must losslessly round-trip the source")
	doc, ok := ast.WrapDocument(syntax.NewRoot(res.Tree))
	require.True(t, ok)
	return doc, res
}

func TestParseMinimalTask(t *testing.T) {
	src := `version 1.2

task greet {
  input {
    String name
  }
  command {
    echo "hello ~{name}"
  }
  output {
    String out = "hi"
  }
  runtime {
    container: "ubuntu:latest"
  }
}
`
	doc, res := mustRoot(t, src)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, versions.V1_2, res.Version)

	tasks := doc.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "greet", tasks[0].Name())

	input, ok := tasks[0].Input()
	require.True(t, ok)
	decls := input.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "name", decls[0].Name())

	cmd, ok := tasks[0].Command()
	require.True(t, ok)
	parts := cmd.Parts()
	require.Len(t, parts, 2)

	rt, ok := tasks[0].Runtime()
	require.True(t, ok)
	entries := rt.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "container", entries[0].Key())
}

func TestParseWorkflowWithCallScatterConditional(t *testing.T) {
	src := `version 1.2

workflow w {
  input {
    Array[Int] xs
  }
  scatter (x in xs) {
    if (x > 0) {
      call greet { input: name = "a" }
    }
  }
}
`
	doc, res := mustRoot(t, src)
	assert.Empty(t, res.Diagnostics)

	workflows := doc.Workflows()
	require.Len(t, workflows, 1)
	body := workflows[0].Body()
	require.Len(t, body, 1)
	scatter, ok := body[0].(ast.Scatter)
	require.True(t, ok)
	assert.Equal(t, "x", scatter.Variable())

	inner := scatter.Body()
	require.Len(t, inner, 1)
	cond, ok := inner[0].(ast.Conditional)
	require.True(t, ok)
	guard, ok := cond.Guard()
	require.True(t, ok)
	assert.Equal(t, syntax.KindExprBinaryNode, guard.Kind())
}

func TestParseUnrecognizedVersionWithoutFallbackIsError(t *testing.T) {
	src := "version 9.9\n"
	res := Parse([]byte(src), versions.Config{})
	require.Equal(t, src, res.Tree.FullText())
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, versions.Unrecognized, res.Version)
}

func TestParseUnrecognizedVersionWithFallback(t *testing.T) {
	fallback := versions.V1_0
	src := "version draft-7\n\ntask t { command {} }\n"
	res := Parse([]byte(src), versions.Config{Fallback: &fallback})
	require.Equal(t, src, res.Tree.FullText())
	assert.Equal(t, versions.V1_0, res.Version)
	// one warning for the fallback substitution
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diagnostics.Warning, res.Diagnostics[0].Severity)
}

func TestParseStructAndEnum(t *testing.T) {
	src := `version 1.2

struct Person {
  String name
  Int age
}

enum Color { Red, Green, Blue }
`
	doc, res := mustRoot(t, src)
	assert.Empty(t, res.Diagnostics)

	structs := doc.Structs()
	require.Len(t, structs, 1)
	assert.Equal(t, "Person", structs[0].Name())
	members := structs[0].Members()
	require.Len(t, members, 2)
	assert.Equal(t, "name", members[0].Name())

	enums := doc.Enums()
	require.Len(t, enums, 1)
	assert.Equal(t, []string{"Red", "Green", "Blue"}, enums[0].Variants())
}

func TestParseImportWithAliasAndAs(t *testing.T) {
	src := `version 1.2

import "other.wdl" as lib
  alias Foo as Bar
`
	doc, res := mustRoot(t, src)
	assert.Empty(t, res.Diagnostics)
	imports := doc.Imports()
	require.Len(t, imports, 1)
	assert.Equal(t, "other.wdl", imports[0].URI())
	assert.Equal(t, "lib", imports[0].Namespace())
	aliases := imports[0].Aliases()
	require.Len(t, aliases, 1)
	assert.Equal(t, "Foo", aliases[0].From())
	assert.Equal(t, "Bar", aliases[0].To())
}

func TestParseCommandHeredoc(t *testing.T) {
	src := "version 1.2\n\ntask t {\n  command <<<\n    echo ~{\"x\"}\n  >>>\n}\n"
	_, res := mustRoot(t, src)
	assert.Empty(t, res.Diagnostics)
}

func TestParseExpressionPrecedence(t *testing.T) {
	src := `version 1.2

workflow w {
  output {
    Boolean b = 1 + 2 * 3 == 7 && true
  }
}
`
	doc, res := mustRoot(t, src)
	assert.Empty(t, res.Diagnostics)
	out, ok := doc.Workflows()[0].Output()
	require.True(t, ok)
	decls := out.Declarations()
	require.Len(t, decls, 1)
	expr, ok := decls[0].Expr()
	require.True(t, ok)
	assert.Equal(t, syntax.KindExprBinaryNode, expr.Kind())
	assert.Equal(t, "&&", expr.Operator())
}

func TestParseRecoversFromGarbageTopLevelItem(t *testing.T) {
	src := "version 1.2\n\n!!!\n\ntask t { command {} }\n"
	_, res := mustRoot(t, src)
	require.NotEmpty(t, res.Diagnostics)
	tasksFound := false
	doc, ok := ast.WrapDocument(syntax.NewRoot(res.Tree))
	require.True(t, ok)
	if len(doc.Tasks()) == 1 {
		tasksFound = true
	}
	assert.True(t, tasksFound, "parser should recover and still find the trailing task")
}
