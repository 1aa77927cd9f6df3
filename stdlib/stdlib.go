// Package stdlib implements the WDL standard-library overload table of
// spec.md §4.6. The evaluator dispatches calls through this table; the
// type checker (package resolve) does not consult it and types every
// call expression as Any, so an argument-type mismatch surfaces only at
// evaluation time. Grounded on crates/wdl-engine/src/stdlib/contains_key.rs's
// shape: one function name maps to several signatures, dispatch picks
// the first whose parameter types accept the call's argument types.
package stdlib

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/viant/wdl/types"
	"github.com/viant/wdl/values"
	"github.com/viant/wdl/versions"
)

// Call is the evaluated argument list and effective WDL version passed to
// an Overload's Eval function.
type Call struct {
	Args    []values.Value
	Version versions.SupportedVersion
}

// Overload is one applicable signature of a stdlib function.
type Overload struct {
	Params   []*types.Type
	Variadic bool // last Params entry repeats zero or more times
	Return   func(argTypes []*types.Type) *types.Type
	Eval     func(c Call) (values.Value, error)
}

// Function is a named stdlib entry with one or more overloads, resolved
// by argument-type applicability (spec.md §4.6: "dispatch through the
// same overload table used by the type checker").
type Function struct {
	Name      string
	Overloads []Overload
}

// Table is the registry of every stdlib function, keyed by name.
type Table struct {
	fns map[string]Function
}

// New builds the default stdlib table.
func New() *Table {
	t := &Table{fns: map[string]Function{}}
	for _, fn := range builtins() {
		t.fns[fn.Name] = fn
	}
	return t
}

// Lookup returns the named function, if registered.
func (t *Table) Lookup(name string) (Function, bool) {
	fn, ok := t.fns[name]
	return fn, ok
}

// Names returns every registered function name, sorted, for completion.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.fns))
	for name := range t.fns {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve picks the first overload of fn whose parameters accept argTypes
// under v's coercion rules, returning its static return type. Used by the
// evaluator (package eval) when it dispatches a call.
func Resolve(fn Function, argTypes []*types.Type, v versions.SupportedVersion) (*Overload, *types.Type, bool) {
	for i := range fn.Overloads {
		ov := &fn.Overloads[i]
		if !applicable(*ov, argTypes, v) {
			continue
		}
		return ov, ov.Return(argTypes), true
	}
	return nil, nil, false
}

func applicable(ov Overload, argTypes []*types.Type, v versions.SupportedVersion) bool {
	if ov.Variadic {
		if len(argTypes) < len(ov.Params)-1 {
			return false
		}
	} else if len(argTypes) != len(ov.Params) {
		return false
	}
	for i, at := range argTypes {
		pt := ov.Params[minInt(i, len(ov.Params)-1)]
		if !types.Coercible(at, pt, v) {
			return false
		}
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Dispatch resolves and evaluates name(args...) against the default
// table under version v.
func (t *Table) Dispatch(name string, call Call) (values.Value, error) {
	fn, ok := t.fns[name]
	if !ok {
		return nil, fmt.Errorf("undefined function %q", name)
	}
	argTypes := make([]*types.Type, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = a.Type()
	}
	ov, _, ok := Resolve(fn, argTypes, call.Version)
	if !ok {
		return nil, fmt.Errorf("no applicable overload of %q for argument types %v", name, renderTypes(argTypes))
	}
	return ov.Eval(call)
}

func renderTypes(ts []*types.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func ret(t *types.Type) func([]*types.Type) *types.Type {
	return func([]*types.Type) *types.Type { return t }
}

func builtins() []Function {
	return []Function{
		lengthFn(),
		definedFn(),
		selectFirstFn(),
		selectAllFn(),
		basenameFn(),
		subFn(),
		sepFn(),
		rangeFn(),
		containsKeyFn(),
		keysFn(),
		flattenFn(),
		floorFn(),
		ceilFn(),
		roundFn(),
		minFn(),
		maxFn(),
	}
}

func lengthFn() Function {
	return Function{Name: "length", Overloads: []Overload{{
		Params: []*types.Type{types.Array(types.Any)},
		Return: ret(types.Int),
		Eval: func(c Call) (values.Value, error) {
			arr := c.Args[0].(values.Array)
			return values.Int(len(arr.Vals)), nil
		},
	}}}
}

func definedFn() Function {
	return Function{Name: "defined", Overloads: []Overload{{
		Params: []*types.Type{types.Any},
		Return: ret(types.Boolean),
		Eval: func(c Call) (values.Value, error) {
			_, isNone := c.Args[0].(values.None)
			return values.Bool(!isNone), nil
		},
	}}}
}

func selectFirstFn() Function {
	return Function{Name: "select_first", Overloads: []Overload{{
		Params: []*types.Type{types.Array(types.Any)},
		Return: func(argTypes []*types.Type) *types.Type { return argTypes[0].Elem.WithOptional(false) },
		Eval: func(c Call) (values.Value, error) {
			arr := c.Args[0].(values.Array)
			for _, v := range arr.Vals {
				if _, isNone := v.(values.None); !isNone {
					return v, nil
				}
			}
			return nil, fmt.Errorf("select_first: every element was None")
		},
	}}}
}

func selectAllFn() Function {
	return Function{Name: "select_all", Overloads: []Overload{{
		Params: []*types.Type{types.Array(types.Any)},
		Return: func(argTypes []*types.Type) *types.Type {
			return types.Array(argTypes[0].Elem.WithOptional(false))
		},
		Eval: func(c Call) (values.Value, error) {
			arr := c.Args[0].(values.Array)
			out := values.Array{Elem: arr.Elem.WithOptional(false)}
			for _, v := range arr.Vals {
				if _, isNone := v.(values.None); !isNone {
					out.Vals = append(out.Vals, v)
				}
			}
			return out, nil
		},
	}}}
}

func basenameFn() Function {
	strip := func(c Call) (values.Value, error) {
		p := c.Args[0].(values.Path)
		path := p.Resolved()
		idx := strings.LastIndexByte(path, '/')
		name := path[idx+1:]
		if len(c.Args) == 2 {
			suffix := string(c.Args[1].(values.Str))
			name = strings.TrimSuffix(name, suffix)
		}
		return values.Str(name), nil
	}
	return Function{Name: "basename", Overloads: []Overload{
		{Params: []*types.Type{types.File}, Return: ret(types.String), Eval: strip},
		{Params: []*types.Type{types.File, types.String}, Return: ret(types.String), Eval: strip},
	}}
}

func subFn() Function {
	return Function{Name: "sub", Overloads: []Overload{{
		Params: []*types.Type{types.String, types.String, types.String},
		Return: ret(types.String),
		Eval: func(c Call) (values.Value, error) {
			input := string(c.Args[0].(values.Str))
			pattern := string(c.Args[1].(values.Str))
			repl := string(c.Args[2].(values.Str))
			return values.Str(strings.ReplaceAll(input, pattern, repl)), nil
		},
	}}}
}

func sepFn() Function {
	return Function{Name: "sep", Overloads: []Overload{{
		Params: []*types.Type{types.String, types.Array(types.String)},
		Return: ret(types.String),
		Eval: func(c Call) (values.Value, error) {
			sep := string(c.Args[0].(values.Str))
			arr := c.Args[1].(values.Array)
			parts := make([]string, len(arr.Vals))
			for i, v := range arr.Vals {
				parts[i] = v.String()
			}
			return values.Str(strings.Join(parts, sep)), nil
		},
	}}}
}

func rangeFn() Function {
	return Function{Name: "range", Overloads: []Overload{{
		Params: []*types.Type{types.Int},
		Return: ret(types.Array(types.Int)),
		Eval: func(c Call) (values.Value, error) {
			n := int64(c.Args[0].(values.Int))
			if n < 0 {
				return nil, fmt.Errorf("range: negative length %d", n)
			}
			out := values.Array{Elem: types.Int}
			for i := int64(0); i < n; i++ {
				out.Vals = append(out.Vals, values.Int(i))
			}
			return out, nil
		},
	}}}
}

func containsKeyFn() Function {
	return Function{Name: "contains_key", Overloads: []Overload{{
		Params: []*types.Type{types.Map(types.Any, types.Any), types.Any},
		Return: ret(types.Boolean),
		Eval: func(c Call) (values.Value, error) {
			m := c.Args[0].(values.Map)
			_, ok := m.Get(c.Args[1])
			return values.Bool(ok), nil
		},
	}}}
}

func keysFn() Function {
	return Function{Name: "keys", Overloads: []Overload{{
		Params: []*types.Type{types.Map(types.Any, types.Any)},
		Return: func(argTypes []*types.Type) *types.Type { return types.Array(argTypes[0].Elem2) },
		Eval: func(c Call) (values.Value, error) {
			m := c.Args[0].(values.Map)
			return values.Array{Elem: m.KeyType, Vals: append([]values.Value{}, m.Keys...)}, nil
		},
	}}}
}

func flattenFn() Function {
	return Function{Name: "flatten", Overloads: []Overload{{
		Params: []*types.Type{types.Array(types.Array(types.Any))},
		Return: func(argTypes []*types.Type) *types.Type { return argTypes[0].Elem },
		Eval: func(c Call) (values.Value, error) {
			outer := c.Args[0].(values.Array)
			var elem *types.Type = types.Any
			out := values.Array{}
			for _, v := range outer.Vals {
				inner := v.(values.Array)
				elem = inner.Elem
				out.Vals = append(out.Vals, inner.Vals...)
			}
			out.Elem = elem
			return out, nil
		},
	}}}
}

func floorFn() Function {
	return Function{Name: "floor", Overloads: []Overload{{
		Params: []*types.Type{types.Float}, Return: ret(types.Int),
		Eval: func(c Call) (values.Value, error) {
			return values.Int(int64(math.Floor(floatOf(c.Args[0])))), nil
		},
	}}}
}

func ceilFn() Function {
	return Function{Name: "ceil", Overloads: []Overload{{
		Params: []*types.Type{types.Float}, Return: ret(types.Int),
		Eval: func(c Call) (values.Value, error) {
			return values.Int(int64(math.Ceil(floatOf(c.Args[0])))), nil
		},
	}}}
}

func roundFn() Function {
	return Function{Name: "round", Overloads: []Overload{{
		Params: []*types.Type{types.Float}, Return: ret(types.Int),
		Eval: func(c Call) (values.Value, error) {
			return values.Int(int64(math.Round(floatOf(c.Args[0])))), nil
		},
	}}}
}

func minFn() Function {
	return Function{Name: "min", Overloads: []Overload{{
		Params: []*types.Type{types.Float, types.Float}, Return: ret(types.Float),
		Eval: func(c Call) (values.Value, error) {
			return values.Float(math.Min(floatOf(c.Args[0]), floatOf(c.Args[1]))), nil
		},
	}}}
}

func maxFn() Function {
	return Function{Name: "max", Overloads: []Overload{{
		Params: []*types.Type{types.Float, types.Float}, Return: ret(types.Float),
		Eval: func(c Call) (values.Value, error) {
			return values.Float(math.Max(floatOf(c.Args[0]), floatOf(c.Args[1]))), nil
		},
	}}}
}

func floatOf(v values.Value) float64 {
	switch n := v.(type) {
	case values.Float:
		return float64(n)
	case values.Int:
		return float64(n)
	default:
		return 0
	}
}
