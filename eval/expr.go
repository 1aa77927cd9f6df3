package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/wdl/ast"
	"github.com/viant/wdl/stdlib"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/types"
	"github.com/viant/wdl/values"
	"github.com/viant/wdl/versions"
)

// Error is a typed runtime evaluation error (spec.md §7: "evaluation
// runtime error (division by zero, integer overflow, invalid coercion,
// missing optional, index out of range)").
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func runtimeErr(kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Evaluator evaluates expressions against a fixed stdlib table and WDL
// version; both are immutable for the lifetime of one document
// evaluation.
type Evaluator struct {
	Stdlib  *stdlib.Table
	Version versions.SupportedVersion
}

// New creates an Evaluator.
func New(st *stdlib.Table, v versions.SupportedVersion) *Evaluator {
	return &Evaluator{Stdlib: st, Version: v}
}

// Expr evaluates e against env, returning a typed runtime error (spec.md
// §7) for any operator/coercion/index failure.
func (ev *Evaluator) Expr(env *Env, e ast.Expr) (values.Value, error) {
	switch e.Kind() {
	case syntax.KindExprLiteralNode:
		return ev.literal(e)
	case syntax.KindExprNameRefNode:
		name := e.NameRef()
		v, ok := env.Lookup(name)
		if !ok {
			return nil, runtimeErr("name-error", "undefined identifier %q", name)
		}
		return v, nil
	case syntax.KindExprStringNode:
		return ev.interpString(env, e)
	case syntax.KindExprUnaryNode:
		return ev.unary(env, e)
	case syntax.KindExprBinaryNode:
		return ev.binary(env, e)
	case syntax.KindExprCallNode:
		return ev.call(env, e)
	case syntax.KindExprAccessNode:
		return ev.access(env, e)
	case syntax.KindExprIndexNode:
		return ev.index(env, e)
	case syntax.KindExprIfNode:
		return ev.ifExpr(env, e)
	case syntax.KindExprPairNode:
		return ev.pair(env, e)
	case syntax.KindExprArrayNode:
		return ev.array(env, e)
	case syntax.KindExprMapNode:
		return ev.mapLit(env, e)
	case syntax.KindExprObjectNode:
		return ev.object(env, e)
	default:
		return nil, runtimeErr("evaluation-error", "unhandled expression kind %v", e.Kind())
	}
}

func (ev *Evaluator) literal(e ast.Expr) (values.Value, error) {
	text := e.LiteralText()
	switch {
	case text == "true":
		return values.Bool(true), nil
	case text == "false":
		return values.Bool(false), nil
	case text == "None":
		return values.None{Of: types.Any}, nil
	case strings.ContainsAny(text, ".eE") && !strings.HasPrefix(text, "0x"):
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, runtimeErr("evaluation-error", "invalid float literal %q", text)
		}
		return values.Float(f), nil
	default:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, runtimeErr("evaluation-error", "invalid int literal %q", text)
		}
		return values.Int(n), nil
	}
}

func (ev *Evaluator) interpString(env *Env, e ast.Expr) (values.Value, error) {
	var sb strings.Builder
	for _, part := range e.StringParts() {
		switch p := part.(type) {
		case ast.Placeholder:
			inner, ok := p.Expr()
			if !ok {
				continue
			}
			v, err := ev.Expr(env, inner)
			if err != nil {
				return nil, err
			}
			if _, isNone := v.(values.None); isNone {
				return nil, runtimeErr("missing-optional", "string interpolation placeholder evaluated to None")
			}
			sb.WriteString(v.String())
		default:
			sb.WriteString(textOf(part))
		}
	}
	return values.Str(sb.String()), nil
}

func textOf(n ast.Node) string {
	type texter interface{ Text() string }
	if t, ok := n.(texter); ok {
		return t.Text()
	}
	return ""
}

func (ev *Evaluator) unary(env *Env, e ast.Expr) (values.Value, error) {
	operands := e.Operands()
	if len(operands) != 1 {
		return nil, runtimeErr("evaluation-error", "malformed unary expression")
	}
	v, err := ev.Expr(env, operands[0])
	if err != nil {
		return nil, err
	}
	switch e.Operator() {
	case "-":
		switch n := v.(type) {
		case values.Int:
			return -n, nil
		case values.Float:
			return -n, nil
		}
	case "!":
		if b, ok := v.(values.Bool); ok {
			return !b, nil
		}
	}
	return nil, runtimeErr("invalid-coercion", "operator %s not applicable to %s", e.Operator(), v.Type())
}

// binary evaluates a binary expression with short-circuit evaluation for
// `&&`/`||` (spec.md §4.6: "short-circuit evaluation applies to logical
// operators").
func (ev *Evaluator) binary(env *Env, e ast.Expr) (values.Value, error) {
	operands := e.Operands()
	if len(operands) != 2 {
		return nil, runtimeErr("evaluation-error", "malformed binary expression")
	}
	op := e.Operator()

	left, err := ev.Expr(env, operands[0])
	if err != nil {
		return nil, err
	}

	if op == "&&" || op == "and" {
		lb, ok := left.(values.Bool)
		if !ok {
			return nil, runtimeErr("invalid-coercion", "left operand of && is not Boolean")
		}
		if !bool(lb) {
			return values.Bool(false), nil
		}
		right, err := ev.Expr(env, operands[1])
		if err != nil {
			return nil, err
		}
		rb, ok := right.(values.Bool)
		if !ok {
			return nil, runtimeErr("invalid-coercion", "right operand of && is not Boolean")
		}
		return rb, nil
	}
	if op == "||" || op == "or" {
		lb, ok := left.(values.Bool)
		if !ok {
			return nil, runtimeErr("invalid-coercion", "left operand of || is not Boolean")
		}
		if bool(lb) {
			return values.Bool(true), nil
		}
		right, err := ev.Expr(env, operands[1])
		if err != nil {
			return nil, err
		}
		rb, ok := right.(values.Bool)
		if !ok {
			return nil, runtimeErr("invalid-coercion", "right operand of || is not Boolean")
		}
		return rb, nil
	}

	right, err := ev.Expr(env, operands[1])
	if err != nil {
		return nil, err
	}
	return applyArith(op, left, right)
}

func applyArith(op string, left, right values.Value) (values.Value, error) {
	if op == "+" {
		if ls, ok := left.(values.Str); ok {
			return ls + values.Str(right.String()), nil
		}
		if rs, ok := right.(values.Str); ok {
			return values.Str(left.String()) + rs, nil
		}
	}
	switch op {
	case "==":
		return values.Bool(left.String() == right.String() && left.Type().Kind == right.Type().Kind), nil
	case "!=":
		return values.Bool(!(left.String() == right.String() && left.Type().Kind == right.Type().Kind)), nil
	}

	lf, lok := numeric(left)
	rf, rok := numeric(right)
	if !lok || !rok {
		return nil, runtimeErr("invalid-coercion", "operator %s requires numeric operands, got %s and %s", op, left.Type(), right.Type())
	}
	bothInt := isInt(left) && isInt(right)

	switch op {
	case "+":
		return numResult(lf+rf, bothInt), nil
	case "-":
		return numResult(lf-rf, bothInt), nil
	case "*":
		return numResult(lf*rf, bothInt), nil
	case "/":
		if rf == 0 {
			return nil, runtimeErr("division-by-zero", "division by zero")
		}
		if bothInt {
			li, ri := int64(lf), int64(rf)
			return values.Int(li / ri), nil
		}
		return values.Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return nil, runtimeErr("division-by-zero", "modulo by zero")
		}
		if bothInt {
			return values.Int(int64(lf) % int64(rf)), nil
		}
		return values.Float(float64(int64(lf)) - float64(int64(lf/rf))*rf), nil
	case "<":
		return values.Bool(lf < rf), nil
	case "<=":
		return values.Bool(lf <= rf), nil
	case ">":
		return values.Bool(lf > rf), nil
	case ">=":
		return values.Bool(lf >= rf), nil
	}
	return nil, runtimeErr("evaluation-error", "unsupported operator %q", op)
}

func numResult(f float64, asInt bool) values.Value {
	if asInt {
		return values.Int(int64(f))
	}
	return values.Float(f)
}

func isInt(v values.Value) bool { _, ok := v.(values.Int); return ok }

func numeric(v values.Value) (float64, bool) {
	switch n := v.(type) {
	case values.Int:
		return float64(n), true
	case values.Float:
		return float64(n), true
	default:
		return 0, false
	}
}

func (ev *Evaluator) call(env *Env, e ast.Expr) (values.Value, error) {
	name := e.Callee()
	fn, ok := ev.Stdlib.Lookup(name)
	if !ok {
		return nil, runtimeErr("name-error", "undefined function %q", name)
	}
	args := e.Args()
	argVals := make([]values.Value, len(args))
	argTypes := make([]*types.Type, len(args))
	for i, a := range args {
		v, err := ev.Expr(env, a)
		if err != nil {
			return nil, err
		}
		argVals[i] = v
		argTypes[i] = v.Type()
	}
	ov, _, ok := stdlib.Resolve(fn, argTypes, ev.Version)
	if !ok {
		return nil, runtimeErr("type-error", "no applicable overload of %q for given argument types", name)
	}
	return ov.Eval(stdlib.Call{Args: argVals, Version: ev.Version})
}

func (ev *Evaluator) access(env *Env, e ast.Expr) (values.Value, error) {
	base, ok := e.Base()
	if !ok {
		return nil, runtimeErr("evaluation-error", "malformed access expression")
	}
	v, err := ev.Expr(env, base)
	if err != nil {
		return nil, err
	}
	member := e.Member()
	switch o := v.(type) {
	case values.None:
		return values.None{Of: o.Of}, nil
	case values.Object:
		mv, ok := o.Members[member]
		if !ok {
			return nil, runtimeErr("name-error", "no member %q", member)
		}
		return mv, nil
	case values.TaskResult:
		mv, ok := o.Outputs[member]
		if !ok {
			return nil, runtimeErr("name-error", "no output %q on call result", member)
		}
		return mv, nil
	case values.Pair:
		switch member {
		case "left":
			return o.Left, nil
		case "right":
			return o.Right, nil
		}
	}
	return nil, runtimeErr("type-error", "cannot access member %q of %s", member, v.Type())
}

func (ev *Evaluator) index(env *Env, e ast.Expr) (values.Value, error) {
	base, ok := e.Base()
	if !ok {
		return nil, runtimeErr("evaluation-error", "malformed index expression")
	}
	baseVal, err := ev.Expr(env, base)
	if err != nil {
		return nil, err
	}
	operands := e.Operands()
	if len(operands) < 2 {
		return nil, runtimeErr("evaluation-error", "malformed index expression")
	}
	idxVal, err := ev.Expr(env, operands[1])
	if err != nil {
		return nil, err
	}
	switch arr := baseVal.(type) {
	case values.Array:
		i, ok := idxVal.(values.Int)
		if !ok {
			return nil, runtimeErr("invalid-coercion", "array index must be Int")
		}
		if int(i) < 0 || int(i) >= len(arr.Vals) {
			return nil, runtimeErr("index-out-of-range", "index %d out of range for array of length %d", i, len(arr.Vals))
		}
		return arr.Vals[i], nil
	case values.Map:
		v, ok := arr.Get(idxVal)
		if !ok {
			return nil, runtimeErr("index-out-of-range", "key %s not found in map", idxVal.String())
		}
		return v, nil
	}
	return nil, runtimeErr("type-error", "cannot index %s", baseVal.Type())
}

func (ev *Evaluator) ifExpr(env *Env, e ast.Expr) (values.Value, error) {
	operands := e.Operands()
	if len(operands) != 3 {
		return nil, runtimeErr("evaluation-error", "malformed if-then-else expression")
	}
	cond, err := ev.Expr(env, operands[0])
	if err != nil {
		return nil, err
	}
	b, ok := cond.(values.Bool)
	if !ok {
		return nil, runtimeErr("invalid-coercion", "if-expression guard is not Boolean")
	}
	if bool(b) {
		return ev.Expr(env, operands[1])
	}
	return ev.Expr(env, operands[2])
}

func (ev *Evaluator) pair(env *Env, e ast.Expr) (values.Value, error) {
	operands := e.Operands()
	if len(operands) != 2 {
		return nil, runtimeErr("evaluation-error", "malformed pair literal")
	}
	l, err := ev.Expr(env, operands[0])
	if err != nil {
		return nil, err
	}
	r, err := ev.Expr(env, operands[1])
	if err != nil {
		return nil, err
	}
	return values.Pair{Left: l, Right: r}, nil
}

func (ev *Evaluator) array(env *Env, e ast.Expr) (values.Value, error) {
	operands := e.Operands()
	vals := make([]values.Value, len(operands))
	var elem *types.Type = types.Any
	for i, o := range operands {
		v, err := ev.Expr(env, o)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		if i == 0 {
			elem = v.Type()
		}
	}
	return values.Array{Elem: elem, Vals: vals}, nil
}

func (ev *Evaluator) mapLit(env *Env, e ast.Expr) (values.Value, error) {
	operands := e.Operands()
	if len(operands)%2 != 0 {
		return nil, runtimeErr("evaluation-error", "malformed map literal")
	}
	var keys, vals []values.Value
	var kt, vt *types.Type = types.Any, types.Any
	for i := 0; i < len(operands); i += 2 {
		k, err := ev.Expr(env, operands[i])
		if err != nil {
			return nil, err
		}
		v, err := ev.Expr(env, operands[i+1])
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
		vals = append(vals, v)
		if i == 0 {
			kt, vt = k.Type(), v.Type()
		}
	}
	return values.Map{KeyType: kt, ValType: vt, Keys: keys, Vals: vals}, nil
}

func (ev *Evaluator) object(env *Env, e ast.Expr) (values.Value, error) {
	obj := values.Object{Members: map[string]values.Value{}}
	for _, kv := range objectEntries(e) {
		v, err := ev.Expr(env, kv.value)
		if err != nil {
			return nil, err
		}
		obj.Order = append(obj.Order, kv.key)
		obj.Members[kv.key] = v
	}
	return obj, nil
}

type objectEntry struct {
	key   string
	value ast.Expr
}

func objectEntries(e ast.Expr) []objectEntry {
	c := e.Cursor()
	var out []objectEntry
	for _, ch := range c.ChildrenOfKind(syntax.KindMetaKeyValueNode) {
		out = append(out, metaKV(ch))
	}
	return out
}

func metaKV(c *syntax.Cursor) objectEntry {
	var key string
	if t := c.FirstChildOfKind(syntax.KindIdentifier); t != nil {
		key = t.Text()
	}
	var val ast.Expr
	for _, ch := range c.Children() {
		if v, ok := ast.WrapExpr(ch); ok {
			val = v
			break
		}
	}
	return objectEntry{key: key, value: val}
}
