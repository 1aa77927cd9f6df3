// Package values implements the runtime value representation of
// spec.md §3: the sum type produced by expression evaluation, immutable
// once constructed. Files and directories carry an evaluation path that
// is either a local absolute path or a remote URL, populated by the
// evaluator and later by the transferer's localization step.
package values

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/viant/wdl/types"
)

// Value is any runtime WDL value.
type Value interface {
	// Type returns this value's static type.
	Type() *types.Type
	// String renders the value as WDL source-like text, used for command
	// placeholder expansion and diagnostics.
	String() string
}

// None is the singleton absent-optional value.
type None struct{ Of *types.Type }

func (n None) Type() *types.Type { return n.Of.WithOptional(true) }
func (n None) String() string    { return "" }

// Bool wraps a Boolean value.
type Bool bool

func (b Bool) Type() *types.Type { return types.Boolean }
func (b Bool) String() string    { return strconv.FormatBool(bool(b)) }

// Int wraps an Int value.
type Int int64

func (i Int) Type() *types.Type { return types.Int }
func (i Int) String() string    { return strconv.FormatInt(int64(i), 10) }

// Float wraps a Float value.
type Float float64

func (f Float) Type() *types.Type { return types.Float }
func (f Float) String() string    { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

// Str wraps a String value.
type Str string

func (s Str) Type() *types.Type { return types.String }
func (s Str) String() string    { return string(s) }

// PathKind distinguishes a File from a Directory evaluation path.
type PathKind int

const (
	KindFile PathKind = iota
	KindDirectory
)

// Path is a File or Directory value: an evaluation path (local absolute
// path or remote URL), optionally paired with a guest path once a
// container-backed spawn has mapped it, and a localized path once the
// transferer has copied it onto the backend's local file system.
type Path struct {
	Kind      PathKind
	Eval      string
	Guest     string // set once mapped into a container's guest_inputs_dir
	Localized string // set once the transferer has localized it
}

func (p Path) Type() *types.Type {
	if p.Kind == KindDirectory {
		return types.Directory
	}
	return types.File
}

// Resolved returns the path the command template should substitute:
// localized if set, else guest if set, else the original evaluation
// path.
func (p Path) Resolved() string {
	if p.Localized != "" {
		return p.Localized
	}
	if p.Guest != "" {
		return p.Guest
	}
	return p.Eval
}

func (p Path) String() string { return p.Resolved() }

// Array is an ordered, homogeneously-typed list of values.
type Array struct {
	Elem *types.Type
	Vals []Value
}

func (a Array) Type() *types.Type { return types.Array(a.Elem) }
func (a Array) String() string {
	parts := make([]string, len(a.Vals))
	for i, v := range a.Vals {
		parts[i] = renderLiteral(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Map is an ordered key/value store (insertion order preserved, per
// spec.md's "map with ordered keys").
type Map struct {
	KeyType, ValType *types.Type
	Keys             []Value
	Vals             []Value
}

// Get looks up v by its rendered key text (WDL map keys are compared by
// value; primitives render to a stable string form).
func (m Map) Get(key Value) (Value, bool) {
	k := key.String()
	for i, existing := range m.Keys {
		if existing.String() == k {
			return m.Vals[i], true
		}
	}
	return nil, false
}

func (m Map) Type() *types.Type { return types.Map(m.KeyType, m.ValType) }
func (m Map) String() string {
	parts := make([]string, len(m.Keys))
	for i := range m.Keys {
		parts[i] = fmt.Sprintf("%s: %s", renderLiteral(m.Keys[i]), renderLiteral(m.Vals[i]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Pair is a two-element heterogeneous tuple.
type Pair struct {
	Left, Right Value
}

func (p Pair) Type() *types.Type {
	return types.Pair(p.Left.Type(), p.Right.Type())
}
func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", renderLiteral(p.Left), renderLiteral(p.Right))
}

// Object is an untyped member map (also used for struct instances whose
// static type is tracked separately in StructName).
type Object struct {
	StructName string // empty for a plain Object, set for a struct instance
	Order      []string
	Members    map[string]Value
}

func (o Object) Type() *types.Type {
	if o.StructName != "" {
		memberTypes := make(map[string]*types.Type, len(o.Members))
		for k, v := range o.Members {
			memberTypes[k] = v.Type()
		}
		return types.Struct(o.StructName, o.Order, memberTypes)
	}
	return types.Object()
}
func (o Object) String() string {
	parts := make([]string, 0, len(o.Order))
	for _, k := range o.Order {
		parts = append(parts, fmt.Sprintf("%s: %s", k, renderLiteral(o.Members[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// TaskResult is the output bundle of a completed call, addressable by
// `.member` access in a workflow (e.g. `t.out`).
type TaskResult struct {
	TaskName string
	Outputs  map[string]Value
	Order    []string
}

func (t TaskResult) Type() *types.Type {
	members := make(map[string]*types.Type, len(t.Outputs))
	for k, v := range t.Outputs {
		members[k] = v.Type()
	}
	return &types.Type{Kind: types.KindTaskResult, Name: t.TaskName, Members: members, Order: t.Order}
}
func (t TaskResult) String() string { return fmt.Sprintf("<call %s>", t.TaskName) }

func renderLiteral(v Value) string {
	if s, ok := v.(Str); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// SortMapKeys returns a Map's key indices sorted ascending by the keys'
// rendered text, used by cachekey to hash map inputs in a key order that
// does not depend on insertion order.
func SortMapKeys(m Map) []int {
	idx := make([]int, len(m.Keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return m.Keys[idx[i]].String() < m.Keys[idx[j]].String() })
	return idx
}

// Encode converts v into a self-describing, YAML-marshalable tree (a
// "kind" tag plus its nested data) that Decode can invert exactly — used
// by the call cache (callcache.Entry.Outputs) so a cache hit reconstructs
// the original runtime type instead of collapsing every output to Str.
func Encode(v Value) interface{} {
	switch o := v.(type) {
	case None:
		return map[string]interface{}{"kind": "None", "of": encodeType(o.Of)}
	case Bool:
		return map[string]interface{}{"kind": "Bool", "value": bool(o)}
	case Int:
		return map[string]interface{}{"kind": "Int", "value": int64(o)}
	case Float:
		return map[string]interface{}{"kind": "Float", "value": float64(o)}
	case Str:
		return map[string]interface{}{"kind": "Str", "value": string(o)}
	case Path:
		return map[string]interface{}{
			"kind":      "Path",
			"pathKind":  int(o.Kind),
			"eval":      o.Eval,
			"guest":     o.Guest,
			"localized": o.Localized,
		}
	case Array:
		elems := make([]interface{}, len(o.Vals))
		for i, e := range o.Vals {
			elems[i] = Encode(e)
		}
		return map[string]interface{}{"kind": "Array", "elem": encodeType(o.Elem), "values": elems}
	case Map:
		keys := make([]interface{}, len(o.Keys))
		vals := make([]interface{}, len(o.Vals))
		for i := range o.Keys {
			keys[i] = Encode(o.Keys[i])
		}
		for i := range o.Vals {
			vals[i] = Encode(o.Vals[i])
		}
		return map[string]interface{}{
			"kind": "Map", "keyType": encodeType(o.KeyType), "valType": encodeType(o.ValType),
			"keys": keys, "values": vals,
		}
	case Pair:
		return map[string]interface{}{"kind": "Pair", "left": Encode(o.Left), "right": Encode(o.Right)}
	case Object:
		members := make(map[string]interface{}, len(o.Members))
		for k, mv := range o.Members {
			members[k] = Encode(mv)
		}
		return map[string]interface{}{
			"kind": "Object", "structName": o.StructName,
			"order": append([]string{}, o.Order...), "members": members,
		}
	case TaskResult:
		outputs := make(map[string]interface{}, len(o.Outputs))
		for k, ov := range o.Outputs {
			outputs[k] = Encode(ov)
		}
		return map[string]interface{}{
			"kind": "TaskResult", "taskName": o.TaskName,
			"order": append([]string{}, o.Order...), "outputs": outputs,
		}
	default:
		return map[string]interface{}{"kind": "Str", "value": v.String()}
	}
}

// Decode inverts Encode, reconstructing the exact Value a prior Encode
// call produced.
func Decode(node interface{}) (Value, error) {
	m, ok := asMap(node)
	if !ok {
		return nil, fmt.Errorf("values: cannot decode %T as an encoded value", node)
	}
	kind, _ := m["kind"].(string)
	switch kind {
	case "None":
		return None{Of: decodeType(m["of"])}, nil
	case "Bool":
		return Bool(asBool(m["value"])), nil
	case "Int":
		return Int(asInt64(m["value"])), nil
	case "Float":
		return Float(asFloat64(m["value"])), nil
	case "Str":
		s, _ := m["value"].(string)
		return Str(s), nil
	case "Path":
		eval, _ := m["eval"].(string)
		guest, _ := m["guest"].(string)
		localized, _ := m["localized"].(string)
		return Path{Kind: PathKind(asInt64(m["pathKind"])), Eval: eval, Guest: guest, Localized: localized}, nil
	case "Array":
		raw, _ := m["values"].([]interface{})
		vals := make([]Value, len(raw))
		for i, rv := range raw {
			dv, err := Decode(rv)
			if err != nil {
				return nil, err
			}
			vals[i] = dv
		}
		return Array{Elem: decodeType(m["elem"]), Vals: vals}, nil
	case "Map":
		rawKeys, _ := m["keys"].([]interface{})
		rawVals, _ := m["values"].([]interface{})
		keys := make([]Value, len(rawKeys))
		vals := make([]Value, len(rawVals))
		for i, rk := range rawKeys {
			dk, err := Decode(rk)
			if err != nil {
				return nil, err
			}
			keys[i] = dk
		}
		for i, rv := range rawVals {
			dv, err := Decode(rv)
			if err != nil {
				return nil, err
			}
			vals[i] = dv
		}
		return Map{KeyType: decodeType(m["keyType"]), ValType: decodeType(m["valType"]), Keys: keys, Vals: vals}, nil
	case "Pair":
		left, err := Decode(m["left"])
		if err != nil {
			return nil, err
		}
		right, err := Decode(m["right"])
		if err != nil {
			return nil, err
		}
		return Pair{Left: left, Right: right}, nil
	case "Object":
		rawMembers, _ := asMap(m["members"])
		members := make(map[string]Value, len(rawMembers))
		for k, rv := range rawMembers {
			dv, err := Decode(rv)
			if err != nil {
				return nil, err
			}
			members[k] = dv
		}
		structName, _ := m["structName"].(string)
		return Object{StructName: structName, Order: asStringSlice(m["order"]), Members: members}, nil
	case "TaskResult":
		rawOutputs, _ := asMap(m["outputs"])
		outputs := make(map[string]Value, len(rawOutputs))
		for k, rv := range rawOutputs {
			dv, err := Decode(rv)
			if err != nil {
				return nil, err
			}
			outputs[k] = dv
		}
		taskName, _ := m["taskName"].(string)
		return TaskResult{TaskName: taskName, Order: asStringSlice(m["order"]), Outputs: outputs}, nil
	default:
		return nil, fmt.Errorf("values: unknown encoded kind %q", kind)
	}
}

func encodeType(t *types.Type) interface{} {
	if t == nil {
		return nil
	}
	m := map[string]interface{}{"kind": int(t.Kind), "optional": t.Optional}
	if t.Name != "" {
		m["name"] = t.Name
	}
	if t.Elem != nil {
		m["elem"] = encodeType(t.Elem)
	}
	if t.Elem2 != nil {
		m["elem2"] = encodeType(t.Elem2)
	}
	if len(t.Order) > 0 {
		m["order"] = append([]string{}, t.Order...)
	}
	return m
}

func decodeType(node interface{}) *types.Type {
	if node == nil {
		return types.Any
	}
	m, ok := asMap(node)
	if !ok {
		return types.Any
	}
	t := &types.Type{Kind: types.Kind(asInt64(m["kind"])), Optional: asBool(m["optional"])}
	if name, ok := m["name"].(string); ok {
		t.Name = name
	}
	if e, ok := m["elem"]; ok {
		t.Elem = decodeType(e)
	}
	if e2, ok := m["elem2"]; ok {
		t.Elem2 = decodeType(e2)
	}
	if order, ok := m["order"]; ok {
		t.Order = asStringSlice(order)
	}
	return t
}

// asMap accepts both a map[string]interface{} already in Go form and the
// equivalent shape produced by round-tripping through yaml.v3, which
// decodes mapping nodes into map[string]interface{} as well.
func asMap(node interface{}) (map[string]interface{}, bool) {
	m, ok := node.(map[string]interface{})
	return m, ok
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asStringSlice(v interface{}) []string {
	switch raw := v.(type) {
	case []interface{}:
		out := make([]string, len(raw))
		for i, r := range raw {
			s, _ := r.(string)
			out[i] = s
		}
		return out
	case []string:
		return raw
	default:
		return nil
	}
}
