// Package resolve implements the name-resolution and type-inference pass
// of spec.md §4.4/§4.5: it walks a document's tasks and workflows, builds
// the scope.Scope tree describing where each name is visible, and infers
// the static type.Type of every expression it can determine locally.
//
// Resolving a call's output type requires the callee task/workflow's own
// signature, which may live in a different document; that cross-document
// step is layered on top in the analysis package, which has access to the
// full docgraph.Graph. This package's Call handling is therefore limited
// to binding the call's own alias name and checking its input expressions.
package resolve

import (
	"fmt"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/scope"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/types"
	"github.com/viant/wdl/versions"
)

// StructRegistry maps a struct/enum name to its resolved type, built by the
// caller from ast.Document.Structs()/Enums() (possibly merged across an
// import graph with aliasing applied).
type StructRegistry map[string]*types.Type

// Result is the outcome of resolving one document: its root scope plus
// every diagnostic raised during binding and type inference.
type Result struct {
	Root        *scope.Scope
	Diagnostics []diagnostics.Diagnostic
	// ExprTypes maps an expression node's byte offset to its inferred type,
	// for hover/completion and for the evaluator's coercion checks.
	ExprTypes map[int]*types.Type
}

type resolver struct {
	structs StructRegistry
	version versions.SupportedVersion
	diags   []diagnostics.Diagnostic
	exprs   map[int]*types.Type
}

// Document resolves every task and workflow in doc.
func Document(doc ast.Document, structs StructRegistry, v versions.SupportedVersion) Result {
	r := &resolver{structs: structs, version: v, exprs: map[int]*types.Type{}}
	root := scope.New(scope.OwnerDocument, doc.Cursor().Offset(), doc.Cursor().End())
	for _, t := range doc.Tasks() {
		r.task(root, t)
	}
	for _, w := range doc.Workflows() {
		r.workflow(root, w)
	}
	return Result{Root: root, Diagnostics: r.diags, ExprTypes: r.exprs}
}

func (r *resolver) errorf(span diagnostics.Span, format string, args ...interface{}) {
	r.diags = append(r.diags, diagnostics.New(diagnostics.Error, fmt.Sprintf(format, args...), span))
}

func (r *resolver) typeOf(te ast.TypeExpr) *types.Type {
	name := te.Name()
	var base *types.Type
	switch name {
	case "Boolean":
		base = types.Boolean
	case "Int":
		base = types.Int
	case "Float":
		base = types.Float
	case "String":
		base = types.String
	case "File":
		base = types.File
	case "Directory":
		base = types.Directory
	case "Object":
		base = types.Object()
	case "Array":
		args := te.TypeArgs()
		if len(args) == 1 {
			base = types.Array(r.typeOf(args[0]))
		} else {
			base = types.Array(types.Any)
		}
		base = base.WithNonEmpty(te.NonEmpty())
	case "Map":
		args := te.TypeArgs()
		if len(args) == 2 {
			base = types.Map(r.typeOf(args[0]), r.typeOf(args[1]))
		} else {
			base = types.Map(types.Any, types.Any)
		}
	case "Pair":
		args := te.TypeArgs()
		if len(args) == 2 {
			base = types.Pair(r.typeOf(args[0]), r.typeOf(args[1]))
		} else {
			base = types.Pair(types.Any, types.Any)
		}
	default:
		if t, ok := r.structs[name]; ok {
			base = t
		} else {
			span := diagnostics.Span{Start: te.Cursor().Offset(), End: te.Cursor().End()}
			r.errorf(span, "unknown type %q", name)
			base = types.Any
		}
	}
	return base.WithOptional(te.Optional())
}

func (r *resolver) declare(sc *scope.Scope, d ast.Declaration) {
	name := d.Name()
	var t *types.Type = types.Any
	if te, ok := d.TypeNode(); ok {
		t = r.typeOf(te)
	}
	span := d.Cursor()
	if !sc.Declare(scope.Binding{Name: name, Offset: span.Offset(), End: span.End(), TypeInfo: t}) {
		r.errorf(diagnostics.Span{Start: span.Offset(), End: span.End()}, "%q is already declared in this scope", name)
	}
	if expr, ok := d.Expr(); ok {
		exprType := r.expr(sc, expr)
		if !types.Coercible(exprType, t, r.version) && t.Kind != types.KindAny {
			r.errorf(diagnostics.Span{Start: expr.Cursor().Offset(), End: expr.Cursor().End()},
				"cannot assign %s to %s %s", exprType, t, name)
		}
	}
}

func (r *resolver) task(parent *scope.Scope, t ast.Task) {
	sc := parent.Push(scope.OwnerTask, t.Cursor().Offset(), t.Cursor().End())
	if in, ok := t.Input(); ok {
		for _, d := range in.Declarations() {
			r.declare(sc, d)
		}
	}
	for _, d := range t.Declarations() {
		r.declare(sc, d)
	}
	if cmd, ok := t.Command(); ok {
		for _, part := range cmd.Parts() {
			if ph, ok := part.(ast.Placeholder); ok {
				if e, ok := ph.Expr(); ok {
					r.expr(sc, e)
				}
			}
		}
	}
	if out, ok := t.Output(); ok {
		for _, d := range out.Declarations() {
			r.declare(sc, d)
		}
	}
}

func (r *resolver) workflow(parent *scope.Scope, w ast.Workflow) {
	sc := parent.Push(scope.OwnerWorkflow, w.Cursor().Offset(), w.Cursor().End())
	if in, ok := w.Input(); ok {
		for _, d := range in.Declarations() {
			r.declare(sc, d)
		}
	}
	for _, node := range w.Body() {
		r.statement(sc, node)
	}
	if out, ok := w.Output(); ok {
		for _, d := range out.Declarations() {
			r.declare(sc, d)
		}
	}
}

func (r *resolver) statement(sc *scope.Scope, n ast.Node) {
	switch v := n.(type) {
	case ast.Declaration:
		r.declare(sc, v)
	case ast.Call:
		r.call(sc, v)
	case ast.Scatter:
		r.scatter(sc, v)
	case ast.Conditional:
		r.conditional(sc, v)
	}
}

func (r *resolver) call(sc *scope.Scope, c ast.Call) {
	for _, in := range c.Inputs() {
		if e, ok := in.Expr(); ok {
			r.expr(sc, e)
		}
	}
	cur := c.Cursor()
	name := c.Target()
	if i := lastDotIndex(name); i >= 0 {
		name = name[i+1:]
	}
	sawAs := false
	for _, ch := range cur.Children() {
		if ch.Kind() == syntax.KindKeywordAs {
			sawAs = true
		} else if sawAs && ch.Kind() == syntax.KindIdentifier {
			name = ch.Text()
			break
		}
	}
	sc.Declare(scope.Binding{Name: name, Offset: cur.Offset(), End: cur.End(), TypeInfo: types.Any})
}

func lastDotIndex(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

func (r *resolver) scatter(sc *scope.Scope, s ast.Scatter) {
	child := sc.Push(scope.OwnerScatter, s.Cursor().Offset(), s.Cursor().End())
	elemType := types.Any
	if coll, ok := s.Collection(); ok {
		ct := r.expr(sc, coll)
		if ct.Kind == types.KindArray {
			elemType = ct.Elem
		}
	}
	child.Declare(scope.Binding{Name: s.Variable(), Offset: s.Cursor().Offset(), End: s.Cursor().End(), TypeInfo: elemType})
	for _, node := range s.Body() {
		r.statement(child, node)
	}
}

func (r *resolver) conditional(sc *scope.Scope, c ast.Conditional) {
	child := sc.Push(scope.OwnerConditional, c.Cursor().Offset(), c.Cursor().End())
	if g, ok := c.Guard(); ok {
		r.expr(sc, g)
	}
	for _, node := range c.Body() {
		r.statement(child, node)
	}
}

// expr infers e's type, recording it in r.exprs and diagnosing undefined
// names; it never panics on a malformed tree, falling back to Any.
func (r *resolver) expr(sc *scope.Scope, e ast.Expr) *types.Type {
	var t *types.Type
	switch e.Kind() {
	case syntax.KindExprLiteralNode:
		t = r.literalType(e)
	case syntax.KindExprStringNode:
		for _, part := range e.StringParts() {
			if ph, ok := part.(ast.Placeholder); ok {
				if sub, ok := ph.Expr(); ok {
					r.expr(sc, sub)
				}
			}
		}
		t = types.String
	case syntax.KindExprNameRefNode:
		name := e.NameRef()
		if b, ok := sc.Lookup(name); ok {
			if bt, ok := b.TypeInfo.(*types.Type); ok {
				t = bt
			} else {
				t = types.Any
			}
		} else {
			cur := e.Cursor()
			r.errorf(diagnostics.Span{Start: cur.Offset(), End: cur.End()}, "undefined name %q", name)
			t = types.Any
		}
	case syntax.KindExprUnaryNode:
		operands := e.Operands()
		if len(operands) == 1 {
			t = r.expr(sc, operands[0])
		} else {
			t = types.Any
		}
		if e.Operator() == "!" {
			t = types.Boolean
		}
	case syntax.KindExprBinaryNode:
		t = r.binaryType(sc, e)
	case syntax.KindExprIfNode:
		ops := e.Operands()
		if len(ops) == 3 {
			r.expr(sc, ops[0])
			thenT := r.expr(sc, ops[1])
			elseT := r.expr(sc, ops[2])
			if lub, ok := types.LeastUpperBound(thenT, elseT, r.version); ok {
				t = lub
			} else {
				cur := e.Cursor()
				r.errorf(diagnostics.Span{Start: cur.Offset(), End: cur.End()}, "if branches have incompatible types %s and %s", thenT, elseT)
				t = types.Any
			}
		} else {
			t = types.Any
		}
	case syntax.KindExprArrayNode:
		elems := e.Operands()
		elemType := types.Any
		for i, el := range elems {
			et := r.expr(sc, el)
			if i == 0 {
				elemType = et
			} else if lub, ok := types.LeastUpperBound(elemType, et, r.version); ok {
				elemType = lub
			}
		}
		t = types.Array(elemType).WithNonEmpty(len(elems) > 0)
	case syntax.KindExprPairNode:
		ops := e.Operands()
		if len(ops) == 2 {
			t = types.Pair(r.expr(sc, ops[0]), r.expr(sc, ops[1]))
		} else {
			t = types.Pair(types.Any, types.Any)
		}
	case syntax.KindExprMapNode, syntax.KindExprObjectNode:
		for _, op := range e.Operands() {
			r.expr(sc, op)
		}
		t = types.Object()
	case syntax.KindExprAccessNode:
		base, ok := e.Base()
		var baseType *types.Type = types.Any
		if ok {
			baseType = r.expr(sc, base)
		}
		member := e.Member()
		if baseType.Kind == types.KindStruct || baseType.Kind == types.KindObject {
			if baseType.Members != nil {
				if mt, ok := baseType.Members[member]; ok {
					t = mt
					break
				}
			}
		}
		t = types.Any
	case syntax.KindExprIndexNode:
		base, ok := e.Base()
		if ok {
			baseType := r.expr(sc, base)
			switch baseType.Kind {
			case types.KindArray:
				t = baseType.Elem
			case types.KindMap:
				t = baseType.Elem
			default:
				t = types.Any
			}
		} else {
			t = types.Any
		}
	case syntax.KindExprCallNode:
		for _, arg := range e.Args() {
			r.expr(sc, arg)
		}
		// Stdlib calls are not overload-checked here or in the analysis
		// pass (only the evaluator consults the stdlib table); the argument
		// sub-expressions are resolved and the call is typed Any.
		t = types.Any
	default:
		t = types.Any
	}
	r.exprs[e.Cursor().Offset()] = t
	return t
}

func (r *resolver) literalType(e ast.Expr) *types.Type {
	text := e.LiteralText()
	if text == "" {
		return types.Any
	}
	switch text {
	case "true", "false":
		return types.Boolean
	case "None":
		return types.NoneType
	}
	if isFloatLiteral(text) {
		return types.Float
	}
	return types.Int
}

func isFloatLiteral(s string) bool {
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}

var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var compareOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}
var logicalOps = map[string]bool{"&&": true, "||": true}

func (r *resolver) binaryType(sc *scope.Scope, e ast.Expr) *types.Type {
	ops := e.Operands()
	var left, right *types.Type = types.Any, types.Any
	if len(ops) == 2 {
		left = r.expr(sc, ops[0])
		right = r.expr(sc, ops[1])
	}
	op := e.Operator()
	switch {
	case compareOps[op] || logicalOps[op]:
		return types.Boolean
	case op == "+" && (left.Kind == types.KindString || right.Kind == types.KindString):
		return types.String
	case arithOps[op]:
		if left.Kind == types.KindFloat || right.Kind == types.KindFloat {
			return types.Float
		}
		return types.Int
	default:
		return types.Any
	}
}
