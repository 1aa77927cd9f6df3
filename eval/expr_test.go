package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/eval"
	"github.com/viant/wdl/parser"
	"github.com/viant/wdl/stdlib"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/values"
	"github.com/viant/wdl/versions"
)

// exprOf parses src (a full task document whose output section declares
// exactly the expressions under test, one per named output) and returns
// the ast.Expr for the output named name.
func exprOf(t *testing.T, src, name string) ast.Expr {
	t.Helper()
	res := parser.Parse([]byte(src), versions.Config{})
	require.Empty(t, res.Diagnostics, "fixture must parse cleanly: %v", res.Diagnostics)
	doc, ok := ast.WrapDocument(syntax.NewRoot(res.Tree))
	require.True(t, ok)
	tasks := doc.Tasks()
	require.Len(t, tasks, 1)
	out, ok := tasks[0].Output()
	require.True(t, ok)
	for _, d := range out.Declarations() {
		if d.Name() == name {
			e, ok := d.Expr()
			require.True(t, ok)
			return e
		}
	}
	t.Fatalf("no output named %q", name)
	return nil
}

func newEvaluator() *eval.Evaluator {
	return eval.New(stdlib.New(), versions.V1_2)
}

const arithFixture = `version 1.2

task t {
  command {}
  output {
    Int sum = 1 + 2
    Int diff = 10 - 3
    Float quot = 7.0 / 2.0
    Int intquot = 7 / 2
    Int rem = 7 % 2
    Boolean cmp = 3 < 5
    Boolean eq = 1 == 1
    Boolean andExpr = true && false
    Boolean orExpr = false || true
    String concat = "a" + "b"
    Int neg = -5
    Boolean notExpr = !true
  }
}
`

func TestArithmeticAndLogicalExpressions(t *testing.T) {
	ev := newEvaluator()
	env := eval.NewEnv()

	cases := []struct {
		name string
		want values.Value
	}{
		{"sum", values.Int(3)},
		{"diff", values.Int(7)},
		{"quot", values.Float(3.5)},
		{"intquot", values.Int(3)},
		{"rem", values.Int(1)},
		{"cmp", values.Bool(true)},
		{"eq", values.Bool(true)},
		{"andExpr", values.Bool(false)},
		{"orExpr", values.Bool(true)},
		{"concat", values.Str("ab")},
		{"neg", values.Int(-5)},
		{"notExpr", values.Bool(false)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ev.Expr(env, exprOf(t, arithFixture, c.name))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestDivisionByZeroIsARuntimeError(t *testing.T) {
	src := `version 1.2

task t {
  command {}
  output {
    Int bad = 1 / 0
  }
}
`
	ev := newEvaluator()
	_, err := ev.Expr(eval.NewEnv(), exprOf(t, src, "bad"))
	require.Error(t, err)
	var evalErr *eval.Error
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "division-by-zero", evalErr.Kind)
}

func TestIfExpression(t *testing.T) {
	src := `version 1.2

task t {
  command {}
  output {
    Int picked = if true then 1 else 2
  }
}
`
	ev := newEvaluator()
	got, err := ev.Expr(eval.NewEnv(), exprOf(t, src, "picked"))
	require.NoError(t, err)
	assert.Equal(t, values.Int(1), got)
}

func TestArrayIndexOutOfRange(t *testing.T) {
	src := `version 1.2

task t {
  command {}
  output {
    Int bad = [1, 2, 3][10]
  }
}
`
	ev := newEvaluator()
	_, err := ev.Expr(eval.NewEnv(), exprOf(t, src, "bad"))
	require.Error(t, err)
	var evalErr *eval.Error
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "index-out-of-range", evalErr.Kind)
}

func TestNameRefResolvesFromEnv(t *testing.T) {
	src := `version 1.2

task t {
  command {}
  output {
    String greeting = name
  }
}
`
	ev := newEvaluator()
	env := eval.NewEnv()
	env.Bind("name", values.Str("alice"))
	got, err := ev.Expr(env, exprOf(t, src, "greeting"))
	require.NoError(t, err)
	assert.Equal(t, values.Str("alice"), got)
}

func TestUndefinedNameRefIsANameError(t *testing.T) {
	src := `version 1.2

task t {
  command {}
  output {
    String greeting = missing
  }
}
`
	ev := newEvaluator()
	_, err := ev.Expr(eval.NewEnv(), exprOf(t, src, "greeting"))
	require.Error(t, err)
	var evalErr *eval.Error
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "name-error", evalErr.Kind)
}

func TestStdlibCallDispatches(t *testing.T) {
	src := `version 1.2

task t {
  command {}
  output {
    Int n = length([1, 2, 3])
  }
}
`
	ev := newEvaluator()
	got, err := ev.Expr(eval.NewEnv(), exprOf(t, src, "n"))
	require.NoError(t, err)
	assert.Equal(t, values.Int(3), got)
}

func TestEnvPushShadowsOuterBinding(t *testing.T) {
	env := eval.NewEnv()
	env.Bind("x", values.Int(1))
	child := env.Push()
	child.Bind("x", values.Int(2))

	v, ok := child.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, values.Int(2), v)

	v, ok = env.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, values.Int(1), v, "shadowing in a child scope must not mutate the parent")
}
