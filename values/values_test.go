package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/viant/wdl/types"
)

func TestPathResolvedPrefersLocalizedThenGuestThenEval(t *testing.T) {
	p := Path{Kind: KindFile, Eval: "s3://bucket/key"}
	assert.Equal(t, "s3://bucket/key", p.Resolved())

	p.Guest = "/guest/key"
	assert.Equal(t, "/guest/key", p.Resolved())

	p.Localized = "/local/key"
	assert.Equal(t, "/local/key", p.Resolved())
}

func TestArrayStringRendersQuotedStrings(t *testing.T) {
	a := Array{Elem: types.String, Vals: []Value{Str("a"), Str("b")}}
	assert.Equal(t, `["a", "b"]`, a.String())
}

func TestMapGetFindsByRenderedKey(t *testing.T) {
	m := Map{
		KeyType: types.String, ValType: types.Int,
		Keys: []Value{Str("a"), Str("b")},
		Vals: []Value{Int(1), Int(2)},
	}
	v, ok := m.Get(Str("b"))
	assert.True(t, ok)
	assert.Equal(t, Int(2), v)

	_, ok = m.Get(Str("missing"))
	assert.False(t, ok)
}

func TestObjectTypeReflectsStructName(t *testing.T) {
	o := Object{StructName: "Person", Order: []string{"name"}, Members: map[string]Value{"name": Str("a")}}
	ty := o.Type()
	assert.Equal(t, types.KindStruct, ty.Kind)
	assert.Equal(t, "Person", ty.Name)
}

func TestNoneTypeIsOptional(t *testing.T) {
	n := None{Of: types.String}
	assert.True(t, n.Type().Optional)
}

func TestSortMapKeysOrdersByRenderedText(t *testing.T) {
	m := Map{
		KeyType: types.String, ValType: types.Int,
		Keys: []Value{Str("b"), Str("a")},
		Vals: []Value{Int(2), Int(1)},
	}
	order := SortMapKeys(m)
	assert.Equal(t, []int{1, 0}, order)
}

// roundTrip exercises the exact path callcache.Entry takes: Encode, then a
// real YAML marshal/unmarshal (as persisted on disk), then Decode.
func roundTrip(t *testing.T, v Value) Value {
	t.Helper()
	raw, err := yaml.Marshal(Encode(v))
	require.NoError(t, err)
	var node interface{}
	require.NoError(t, yaml.Unmarshal(raw, &node))
	out, err := Decode(node)
	require.NoError(t, err)
	return out
}

func TestEncodeDecodeRoundTripsPrimitives(t *testing.T) {
	assert.Equal(t, Bool(true), roundTrip(t, Bool(true)))
	assert.Equal(t, Int(42), roundTrip(t, Int(42)))
	assert.Equal(t, Float(3.5), roundTrip(t, Float(3.5)))
	assert.Equal(t, Str("hi"), roundTrip(t, Str("hi")))
}

func TestEncodeDecodeRoundTripsNone(t *testing.T) {
	got, ok := roundTrip(t, None{Of: types.Int}).(None)
	require.True(t, ok)
	assert.Equal(t, types.KindInt, got.Of.Kind)
}

func TestEncodeDecodeRoundTripsPath(t *testing.T) {
	p := Path{Kind: KindDirectory, Eval: "s3://bucket/dir", Guest: "/inputs/dir", Localized: "/tmp/dir"}
	got, ok := roundTrip(t, p).(Path)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestEncodeDecodeRoundTripsArrayPreservingElementType(t *testing.T) {
	a := Array{Elem: types.Int, Vals: []Value{Int(1), Int(2), Int(3)}}
	got, ok := roundTrip(t, a).(Array)
	require.True(t, ok)
	assert.Equal(t, a.Vals, got.Vals)
	assert.Equal(t, types.KindInt, got.Elem.Kind)
}

func TestEncodeDecodeRoundTripsMap(t *testing.T) {
	m := Map{
		KeyType: types.String, ValType: types.Int,
		Keys: []Value{Str("a"), Str("b")},
		Vals: []Value{Int(1), Int(2)},
	}
	got, ok := roundTrip(t, m).(Map)
	require.True(t, ok)
	assert.Equal(t, m.Keys, got.Keys)
	assert.Equal(t, m.Vals, got.Vals)
}

func TestEncodeDecodeRoundTripsPair(t *testing.T) {
	p := Pair{Left: Int(1), Right: Str("x")}
	got, ok := roundTrip(t, p).(Pair)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestEncodeDecodeRoundTripsObjectWithStructName(t *testing.T) {
	o := Object{StructName: "Person", Order: []string{"name"}, Members: map[string]Value{"name": Str("a")}}
	got, ok := roundTrip(t, o).(Object)
	require.True(t, ok)
	assert.Equal(t, o.StructName, got.StructName)
	assert.Equal(t, o.Order, got.Order)
	assert.Equal(t, o.Members, got.Members)
}

func TestEncodeDecodeRoundTripsNestedArrayOfObjects(t *testing.T) {
	a := Array{
		Elem: types.Object(),
		Vals: []Value{
			Object{Order: []string{"x"}, Members: map[string]Value{"x": Int(1)}},
			Object{Order: []string{"x"}, Members: map[string]Value{"x": Int(2)}},
		},
	}
	got, ok := roundTrip(t, a).(Array)
	require.True(t, ok)
	require.Len(t, got.Vals, 2)
	assert.Equal(t, a.Vals, got.Vals)
}

func TestDecodeRejectsUnrecognizedKind(t *testing.T) {
	_, err := Decode(map[string]interface{}{"kind": "Bogus"})
	assert.Error(t, err)
}

func TestDecodeRejectsNonMapInput(t *testing.T) {
	_, err := Decode("not a map")
	assert.Error(t, err)
}
