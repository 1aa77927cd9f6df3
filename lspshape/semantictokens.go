package lspshape

// TokenType is one of spec.md §6's fixed ordered semantic token types;
// its index in TokenTypes is the wire-format typeIndex.
type TokenType int

const (
	TokenKeyword TokenType = iota
	TokenVariable
	TokenParameter
	TokenFunction
	TokenProperty
	TokenStruct
	TokenEnum
	TokenTypeRef
	TokenString
	TokenNumber
	TokenOperator
	TokenNamespace
	TokenComment
)

// TokenTypes is the fixed order spec.md §6 names: "keyword, variable,
// parameter, function, property, struct, enum, type, string, number,
// operator, namespace, comment". A language-server collaborator
// advertises this exact slice (in this order) as its semanticTokens
// legend.
var TokenTypes = []string{
	"keyword", "variable", "parameter", "function", "property",
	"struct", "enum", "type", "string", "number", "operator",
	"namespace", "comment",
}

// Modifier is one of spec.md §6's fixed semantic token modifiers,
// applied as a bit in the wire-format modifierBitset.
type Modifier uint32

const (
	ModAsync Modifier = 1 << iota
	ModDeprecated
	ModDeclaration
	ModReadonly
)

// Modifiers is the fixed order spec.md §6 names: "async, deprecated,
// declaration, readonly".
var Modifiers = []string{"async", "deprecated", "declaration", "readonly"}

// Token is one semantic token before delta-encoding: its absolute line
// and start character, its length, type, and modifier bitset.
type Token struct {
	Line      int
	StartChar int
	Length    int
	Type      TokenType
	Mods      Modifier
}

// Encode delta-encodes tokens in document order into the LSP wire
// format: a flat uint32 array of (deltaLine, deltaStartChar, length,
// typeIndex, modifierBitset) quintuples, per spec.md §6. tokens must
// already be sorted in document order; Encode does not sort.
func Encode(tokens []Token) []uint32 {
	out := make([]uint32, 0, len(tokens)*5)
	prevLine, prevChar := 0, 0
	for _, t := range tokens {
		deltaLine := t.Line - prevLine
		deltaChar := t.StartChar
		if deltaLine == 0 {
			deltaChar = t.StartChar - prevChar
		}
		out = append(out, uint32(deltaLine), uint32(deltaChar), uint32(t.Length), uint32(t.Type), uint32(t.Mods))
		prevLine, prevChar = t.Line, t.StartChar
	}
	return out
}
