package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/wdl/types"
	"github.com/viant/wdl/values"
	"github.com/viant/wdl/versions"
)

func TestLengthDispatch(t *testing.T) {
	tbl := New()
	arr := values.Array{Elem: types.Int, Vals: []values.Value{values.Int(1), values.Int(2), values.Int(3)}}
	v, err := tbl.Dispatch("length", Call{Args: []values.Value{arr}, Version: versions.V1_2})
	require.NoError(t, err)
	assert.Equal(t, values.Int(3), v)
}

func TestSelectFirstReturnsFirstNonNone(t *testing.T) {
	tbl := New()
	arr := values.Array{Elem: types.Int.WithOptional(true), Vals: []values.Value{
		values.None{Of: types.Int}, values.Int(5),
	}}
	v, err := tbl.Dispatch("select_first", Call{Args: []values.Value{arr}, Version: versions.V1_2})
	require.NoError(t, err)
	assert.Equal(t, values.Int(5), v)
}

func TestSelectFirstErrorsWhenAllNone(t *testing.T) {
	tbl := New()
	arr := values.Array{Elem: types.Int.WithOptional(true), Vals: []values.Value{values.None{Of: types.Int}}}
	_, err := tbl.Dispatch("select_first", Call{Args: []values.Value{arr}, Version: versions.V1_2})
	assert.Error(t, err)
}

func TestBasenameStripsDirectoryAndSuffix(t *testing.T) {
	tbl := New()
	p := values.Path{Kind: values.KindFile, Eval: "/tmp/dir/file.txt"}
	v, err := tbl.Dispatch("basename", Call{Args: []values.Value{p, values.Str(".txt")}, Version: versions.V1_2})
	require.NoError(t, err)
	assert.Equal(t, values.Str("file"), v)
}

func TestSepJoinsWithSeparator(t *testing.T) {
	tbl := New()
	arr := values.Array{Elem: types.String, Vals: []values.Value{values.Str("a"), values.Str("b")}}
	v, err := tbl.Dispatch("sep", Call{Args: []values.Value{values.Str(","), arr}, Version: versions.V1_2})
	require.NoError(t, err)
	assert.Equal(t, values.Str("a,b"), v)
}

func TestRangeProducesSequence(t *testing.T) {
	tbl := New()
	v, err := tbl.Dispatch("range", Call{Args: []values.Value{values.Int(3)}, Version: versions.V1_2})
	require.NoError(t, err)
	arr := v.(values.Array)
	assert.Equal(t, []values.Value{values.Int(0), values.Int(1), values.Int(2)}, arr.Vals)
}

func TestDispatchUnknownFunction(t *testing.T) {
	tbl := New()
	_, err := tbl.Dispatch("not_a_function", Call{Version: versions.V1_2})
	assert.Error(t, err)
}

func TestDispatchNoApplicableOverload(t *testing.T) {
	tbl := New()
	_, err := tbl.Dispatch("length", Call{Args: []values.Value{values.Int(1)}, Version: versions.V1_2})
	assert.Error(t, err)
}

func TestFlattenConcatenatesInnerArrays(t *testing.T) {
	tbl := New()
	inner1 := values.Array{Elem: types.Int, Vals: []values.Value{values.Int(1), values.Int(2)}}
	inner2 := values.Array{Elem: types.Int, Vals: []values.Value{values.Int(3)}}
	outer := values.Array{Elem: types.Array(types.Int), Vals: []values.Value{inner1, inner2}}
	v, err := tbl.Dispatch("flatten", Call{Args: []values.Value{outer}, Version: versions.V1_2})
	require.NoError(t, err)
	arr := v.(values.Array)
	assert.Len(t, arr.Vals, 3)
}
