package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/parser"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/types"
	"github.com/viant/wdl/versions"
)

func mustDoc(t *testing.T, src string) ast.Document {
	t.Helper()
	res := parser.Parse([]byte(src), versions.Config{})
	require.Empty(t, res.Diagnostics)
	doc, ok := ast.WrapDocument(syntax.NewRoot(res.Tree))
	require.True(t, ok)
	return doc
}

func TestResolveTaskBindsInputsAndOutputs(t *testing.T) {
	src := `version 1.2

task greet {
  input {
    String name
  }
  command {
    echo "hello ~{name}"
  }
  output {
    String out = name
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	assert.Empty(t, result.Diagnostics)
}

func TestResolveUndefinedNameInOutput(t *testing.T) {
	src := `version 1.2

task greet {
  command {
    echo "hi"
  }
  output {
    String out = missing
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	require.Len(t, result.Diagnostics, 1)
	assert.Contains(t, result.Diagnostics[0].Message, "undefined name")
}

func TestResolveDuplicateDeclarationInSameScope(t *testing.T) {
	src := `version 1.2

task t {
  input {
    Int x
  }
  command {
    echo "~{x}"
  }
  output {
    Int x = x
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	// x is declared once in input and once in output: input and output are
	// the same task scope, so the second declaration is rejected.
	var found bool
	for _, d := range result.Diagnostics {
		if d.Message == `"x" is already declared in this scope` {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveScatterVariableScopedToBody(t *testing.T) {
	src := `version 1.2

workflow w {
  input {
    Array[Int] xs
  }
  scatter (x in xs) {
    Int y = x
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	assert.Empty(t, result.Diagnostics)
}

func TestResolveIfExprUnifiesIntAndFloat(t *testing.T) {
	src := `version 1.2

workflow w {
  input {
    Boolean flag
  }
  Float picked = if flag then 1 else 2.0
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	assert.Empty(t, result.Diagnostics)
}

func TestResolveStructMemberAccess(t *testing.T) {
	src := `version 1.2

struct Person {
  String name
}

workflow w {
  input {
    Person p
  }
  String n = p.name
}
`
	doc := mustDoc(t, src)
	structs := StructRegistry{}
	for _, s := range doc.Structs() {
		var order []string
		members := map[string]*types.Type{}
		for _, m := range s.Members() {
			order = append(order, m.Name())
			te, _ := m.TypeNode()
			members[m.Name()] = types.String.WithOptional(te.Optional())
		}
		structs[s.Name()] = types.Struct(s.Name(), order, members)
	}
	result := Document(doc, structs, versions.V1_2)
	assert.Empty(t, result.Diagnostics)
}

func TestResolveRejectsEmptyArrayLiteralAgainstNonEmptyArrayType(t *testing.T) {
	src := `version 1.2

task t {
  input {
    Array[String]+ xs = []
  }
  command {
    echo "hi"
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	assert.NotEmpty(t, result.Diagnostics, "an empty array literal must not satisfy an Array[T]+ declaration")
}

func TestResolveAcceptsNonEmptyArrayLiteralAgainstNonEmptyArrayType(t *testing.T) {
	src := `version 1.2

task t {
  input {
    Array[String]+ xs = ["a"]
  }
  command {
    echo "hi"
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	assert.Empty(t, result.Diagnostics)
}

func TestResolveRejectsPlainArrayAssignedToNonEmptyArrayDeclaration(t *testing.T) {
	src := `version 1.2

task t {
  input {
    Array[String] xs
  }
  Array[String]+ ys = xs
  command {
    echo "hi"
  }
}
`
	doc := mustDoc(t, src)
	result := Document(doc, StructRegistry{}, versions.V1_2)
	assert.NotEmpty(t, result.Diagnostics, "a plain Array[T] value isn't known to be non-empty, so it must not satisfy Array[T]+")
}
