// Package types implements the WDL type lattice and coercion rules of
// spec.md §4.4: primitives, optional/array/map/pair compounds, Object,
// named struct/enum types, task results, unions, None, and Any, plus the
// container-URI sub-type supplemented from the original implementation's
// runtime value model (SPEC_FULL.md §3).
package types

import (
	"fmt"
	"strings"

	"github.com/viant/wdl/versions"
)

// Kind is the closed set of type constructors.
type Kind int

const (
	KindNone Kind = iota
	KindAny
	KindBoolean
	KindInt
	KindFloat
	KindString
	KindFile
	KindDirectory
	KindContainerURI // supplemented: a File/Directory-like value tied to a container transfer
	KindArray
	KindMap
	KindPair
	KindObject
	KindStruct
	KindEnum
	KindTaskResult
	KindUnion
)

// Type is an immutable value describing a WDL static type. Compound kinds
// carry their element type(s) in Elem/Elem2; Struct/Enum carry Name plus a
// member table; Union carries its alternative members in Members.
type Type struct {
	Kind     Kind
	Optional bool
	// NonEmpty marks an `Array[T]+` type (spec.md §3/§4.4): a subtype of
	// `Array[T]` whose values must carry at least one element. Meaningless
	// outside KindArray.
	NonEmpty bool

	Elem  *Type // Array element, Map value, Pair first
	Elem2 *Type // Map key, Pair second

	Name    string           // struct/enum name
	Members map[string]*Type // struct field types, or enum variant->None
	Order   []string         // member/variant declaration order, for stable rendering

	Members2 []*Type // Union alternatives
}

func prim(k Kind) *Type { return &Type{Kind: k} }

var (
	Boolean  = prim(KindBoolean)
	Int      = prim(KindInt)
	Float    = prim(KindFloat)
	String   = prim(KindString)
	File     = prim(KindFile)
	Directory = prim(KindDirectory)
	Any      = prim(KindAny)
	NoneType = prim(KindNone)
)

// Array builds an `Array[elem]` type.
func Array(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// Map builds a `Map[key, value]` type.
func Map(key, value *Type) *Type { return &Type{Kind: KindMap, Elem2: key, Elem: value} }

// Pair builds a `Pair[left, right]` type.
func Pair(left, right *Type) *Type { return &Type{Kind: KindPair, Elem: left, Elem2: right} }

// Object builds an untyped `Object` value type.
func Object() *Type { return &Type{Kind: KindObject} }

// Struct builds a named struct type with the given fields, in declaration
// order.
func Struct(name string, order []string, members map[string]*Type) *Type {
	return &Type{Kind: KindStruct, Name: name, Order: order, Members: members}
}

// Enum builds a named enum type with the given variants, in declaration
// order.
func Enum(name string, variants []string) *Type {
	members := make(map[string]*Type, len(variants))
	for _, v := range variants {
		members[v] = NoneType
	}
	return &Type{Kind: KindEnum, Name: name, Order: variants, Members: members}
}

// Union builds the union of several alternative types (used for stdlib
// function overloads and for `if`-expression branch reconciliation).
func Union(members ...*Type) *Type { return &Type{Kind: KindUnion, Members2: members} }

// ContainerURI builds the supplemented container-identified File/Directory
// sub-type: a File or Directory value whose path is meaningful only inside
// a specific execution backend's container (SPEC_FULL.md §3).
func ContainerURI(elem Kind) *Type {
	return &Type{Kind: KindContainerURI, Elem: &Type{Kind: elem}}
}

// WithOptional returns a copy of t marked optional (or not).
func (t *Type) WithOptional(opt bool) *Type {
	cp := *t
	cp.Optional = opt
	return &cp
}

// WithNonEmpty returns a copy of t (which must be KindArray) marked as
// the `Array[T]+` non-empty subtype (or not).
func (t *Type) WithNonEmpty(nonEmpty bool) *Type {
	cp := *t
	cp.NonEmpty = nonEmpty
	return &cp
}

// String renders t using WDL type syntax, for diagnostics.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	suffix := ""
	if t.Optional {
		suffix = "?"
	}
	switch t.Kind {
	case KindNone:
		return "None"
	case KindAny:
		return "Any" + suffix
	case KindBoolean:
		return "Boolean" + suffix
	case KindInt:
		return "Int" + suffix
	case KindFloat:
		return "Float" + suffix
	case KindString:
		return "String" + suffix
	case KindFile:
		return "File" + suffix
	case KindDirectory:
		return "Directory" + suffix
	case KindContainerURI:
		return fmt.Sprintf("ContainerURI[%s]%s", t.Elem, suffix)
	case KindArray:
		nonEmpty := ""
		if t.NonEmpty {
			nonEmpty = "+"
		}
		return fmt.Sprintf("Array[%s]%s%s", t.Elem, nonEmpty, suffix)
	case KindMap:
		return fmt.Sprintf("Map[%s, %s]%s", t.Elem2, t.Elem, suffix)
	case KindPair:
		return fmt.Sprintf("Pair[%s, %s]%s", t.Elem, t.Elem2, suffix)
	case KindObject:
		return "Object" + suffix
	case KindStruct, KindEnum:
		return t.Name + suffix
	case KindTaskResult:
		return "TaskResult<" + t.Name + ">" + suffix
	case KindUnion:
		parts := make([]string, len(t.Members2))
		for i, m := range t.Members2 {
			parts[i] = m.String()
		}
		return strings.Join(parts, " | ") + suffix
	default:
		return "?"
	}
}

// Equal reports structural equality, ignoring Optional (callers that care
// about optionality compare it separately; coercion treats T and T? as
// mutually assignable in the directions spec.md §4.4 allows).
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.Equal(o.Elem)
	case KindMap:
		return t.Elem.Equal(o.Elem) && t.Elem2.Equal(o.Elem2)
	case KindPair:
		return t.Elem.Equal(o.Elem) && t.Elem2.Equal(o.Elem2)
	case KindContainerURI:
		return t.Elem.Equal(o.Elem)
	case KindStruct, KindEnum:
		return t.Name == o.Name
	case KindTaskResult:
		return t.Name == o.Name
	default:
		return true
	}
}

// Coercible reports whether a value of type from may be used where a value
// of type to is expected, under the rules of spec.md §4.4: identity,
// widening (Int->Float), None->optional-anything, non-optional->optional,
// String->File, String->Directory and File->Directory (Directory targets
// 1.1+), Map[String,V]->Object (1.1+), and struct
// member-wise structural compatibility.
func Coercible(from, to *Type, v versions.SupportedVersion) bool {
	if to.Kind == KindAny {
		return true
	}
	if from.Kind == KindNone {
		return to.Optional || to.Kind == KindNone
	}
	if from.Equal(to) {
		return (!from.Optional || to.Optional) && arrayNonEmptyCoercible(from, to)
	}
	switch {
	case from.Kind == KindInt && to.Kind == KindFloat:
		return true
	case from.Kind == KindString && to.Kind == KindFile:
		return true
	case from.Kind == KindString && to.Kind == KindDirectory && v.AllowsDirectoryCoercion():
		return true
	case from.Kind == KindFile && to.Kind == KindDirectory && v.AllowsDirectoryCoercion():
		return true
	case from.Kind == KindMap && to.Kind == KindObject && from.Elem2.Kind == KindString && v.AllowsMapToObjectCoercion():
		return true
	case from.Kind == KindArray && to.Kind == KindArray:
		return arrayNonEmptyCoercible(from, to) && Coercible(from.Elem, to.Elem, v)
	case from.Kind == KindMap && to.Kind == KindMap:
		return Coercible(from.Elem2, to.Elem2, v) && Coercible(from.Elem, to.Elem, v)
	case from.Kind == KindPair && to.Kind == KindPair:
		return Coercible(from.Elem, to.Elem, v) && Coercible(from.Elem2, to.Elem2, v)
	case from.Kind == KindStruct && to.Kind == KindObject:
		return true
	case from.Kind == KindObject && to.Kind == KindStruct:
		if from.Members == nil {
			return true // no statically known members to compare
		}
		for _, name := range to.Order {
			if _, ok := from.Members[name]; !ok {
				return false
			}
		}
		return true
	}
	return to.Optional && Coercible(from, to.WithOptional(false), v)
}

// arrayNonEmptyCoercible enforces `Array[T]+` ⇒ `Array[T]` (spec.md §4.4):
// a non-empty array coerces to a plain array of the same element type, but
// not the reverse — an `Array[T]` value isn't statically known to be
// non-empty. Meaningless (always true) unless to is itself an array.
func arrayNonEmptyCoercible(from, to *Type) bool {
	if to.Kind != KindArray {
		return true
	}
	return from.NonEmpty || !to.NonEmpty
}

// LeastUpperBound finds the narrowest type both a and b coerce to, used to
// type an `if`-expression whose branches differ (e.g. Int and Float unify
// to Float). It returns (Any, false) when neither type coerces to the
// other (caller reports a type error).
func LeastUpperBound(a, b *Type, v versions.SupportedVersion) (*Type, bool) {
	if a.Equal(b) {
		return a.WithOptional(a.Optional || b.Optional), true
	}
	if Coercible(a, b, v) {
		return b.WithOptional(a.Optional || b.Optional), true
	}
	if Coercible(b, a, v) {
		return a.WithOptional(a.Optional || b.Optional), true
	}
	return Any, false
}
