package types

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/wdl/versions"
)

func TestCoercibleWidening(t *testing.T) {
	assert.True(t, Coercible(Int, Float, versions.V1_2))
	assert.False(t, Coercible(Float, Int, versions.V1_2))
}

func TestCoercibleNoneToOptional(t *testing.T) {
	assert.True(t, Coercible(NoneType, String.WithOptional(true), versions.V1_2))
	assert.False(t, Coercible(NoneType, String, versions.V1_2))
}

func TestCoercibleDirectoryRequiresV1_1(t *testing.T) {
	assert.False(t, Coercible(String, Directory, versions.Draft3))
	assert.True(t, Coercible(String, Directory, versions.V1_1))
}

func TestCoercibleArrayElementwise(t *testing.T) {
	assert.True(t, Coercible(Array(Int), Array(Float), versions.V1_2))
	assert.False(t, Coercible(Array(Float), Array(Int), versions.V1_2))
}

func TestCoercibleStructToObjectAndBack(t *testing.T) {
	s := Struct("Person", []string{"name"}, map[string]*Type{"name": String})
	assert.True(t, Coercible(s, Object(), versions.V1_2))
	assert.True(t, Coercible(Object(), s, versions.V1_2))
}

func TestLeastUpperBoundWidensIntFloat(t *testing.T) {
	lub, ok := LeastUpperBound(Int, Float, versions.V1_2)
	assert.True(t, ok)
	assert.Equal(t, KindFloat, lub.Kind)
}

func TestLeastUpperBoundIncompatible(t *testing.T) {
	_, ok := LeastUpperBound(Boolean, Struct("X", nil, nil), versions.V1_2)
	assert.False(t, ok)
}

func TestTypeStringRendersCompoundTypes(t *testing.T) {
	assert.Equal(t, "Array[Int]", Array(Int).String())
	assert.Equal(t, "Map[String, Int]", Map(String, Int).String())
	assert.Equal(t, "Int?", Int.WithOptional(true).String())
}

func TestTypeStringRendersNonEmptyArraySuffix(t *testing.T) {
	assert.Equal(t, "Array[String]+", Array(String).WithNonEmpty(true).String())
	assert.Equal(t, "Array[String]+?", Array(String).WithNonEmpty(true).WithOptional(true).String())
}

func TestCoercibleNonEmptyArrayToPlainArray(t *testing.T) {
	assert.True(t, Coercible(Array(String).WithNonEmpty(true), Array(String), versions.V1_2))
}

func TestCoercibleRejectsPlainArrayToNonEmptyArray(t *testing.T) {
	assert.False(t, Coercible(Array(String), Array(String).WithNonEmpty(true), versions.V1_2))
}

func TestCoercibleNonEmptyArrayToNonEmptyArray(t *testing.T) {
	assert.True(t, Coercible(Array(String).WithNonEmpty(true), Array(String).WithNonEmpty(true), versions.V1_2))
}

func TestEqualIgnoresNonEmpty(t *testing.T) {
	assert.True(t, Array(String).Equal(Array(String).WithNonEmpty(true)))
}
