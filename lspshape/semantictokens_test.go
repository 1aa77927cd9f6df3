package lspshape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/wdl/lspshape"
)

func TestEncodeDeltaEncodesSameLineTokens(t *testing.T) {
	tokens := []lspshape.Token{
		{Line: 0, StartChar: 0, Length: 4, Type: lspshape.TokenKeyword},
		{Line: 0, StartChar: 5, Length: 3, Type: lspshape.TokenVariable, Mods: lspshape.ModDeclaration},
	}
	got := lspshape.Encode(tokens)
	want := []uint32{
		0, 0, 4, uint32(lspshape.TokenKeyword), 0,
		0, 5, 3, uint32(lspshape.TokenVariable), uint32(lspshape.ModDeclaration),
	}
	assert.Equal(t, want, got)
}

func TestEncodeDeltaEncodesAcrossLines(t *testing.T) {
	tokens := []lspshape.Token{
		{Line: 2, StartChar: 4, Length: 3, Type: lspshape.TokenKeyword},
		{Line: 5, StartChar: 1, Length: 6, Type: lspshape.TokenFunction},
	}
	got := lspshape.Encode(tokens)
	// second token: deltaLine = 5-2 = 3, and since deltaLine != 0 the
	// start character is absolute, not relative to the previous token.
	want := []uint32{
		2, 4, 3, uint32(lspshape.TokenKeyword), 0,
		3, 1, 6, uint32(lspshape.TokenFunction), 0,
	}
	assert.Equal(t, want, got)
}

func TestEncodeEmptyInput(t *testing.T) {
	assert.Empty(t, lspshape.Encode(nil))
}

func TestTokenTypesAndModifiersMatchFixedLegendOrder(t *testing.T) {
	assert.Equal(t, []string{
		"keyword", "variable", "parameter", "function", "property",
		"struct", "enum", "type", "string", "number", "operator",
		"namespace", "comment",
	}, lspshape.TokenTypes)
	assert.Equal(t, []string{"async", "deprecated", "declaration", "readonly"}, lspshape.Modifiers)
}
