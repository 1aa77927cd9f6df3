// Package syntax implements the lossless green/red concrete syntax tree that
// every other package in this module builds on.
package syntax

// Kind is the closed enumeration of syntax kinds: every keyword,
// punctuation mark, literal, trivia, and composite node produced by the
// parser carries exactly one Kind.
type Kind uint16

const (
	KindUnknown Kind = iota

	// Trivia
	KindWhitespace
	KindComment
	KindEndOfInput

	// Preamble / version-statement tokens
	KindVersionKeyword
	KindVersionLiteral
	KindAnyByte

	// Punctuation
	KindOpenBrace
	KindCloseBrace
	KindOpenParen
	KindCloseParen
	KindOpenBracket
	KindCloseBracket
	KindOpenHeredoc
	KindCloseHeredoc
	KindColon
	KindComma
	KindSemicolon
	KindDot
	KindEquals
	KindQuestion
	KindPlus
	KindMinus
	KindAsterisk
	KindSlash
	KindPercent
	KindLogicalAnd
	KindLogicalOr
	KindLogicalNot
	KindEquality
	KindInequality
	KindLessThan
	KindLessEqual
	KindGreaterThan
	KindGreaterEqual
	KindDollarOpenBrace // ~{ and ${ placeholder openers
	KindDoubleQuote
	KindSingleQuote

	// Keywords
	KindKeywordVersion
	KindKeywordImport
	KindKeywordAs
	KindKeywordAlias
	KindKeywordWorkflow
	KindKeywordTask
	KindKeywordStruct
	KindKeywordEnum
	KindKeywordCall
	KindKeywordScatter
	KindKeywordIf
	KindKeywordThen
	KindKeywordElse
	KindKeywordIn
	KindKeywordInput
	KindKeywordOutput
	KindKeywordCommand
	KindKeywordRuntime
	KindKeywordRequirements
	KindKeywordHints
	KindKeywordMeta
	KindKeywordParameterMeta
	KindKeywordObject
	KindKeywordNone
	KindKeywordTrue
	KindKeywordFalse

	// Type keywords
	KindTypeBoolean
	KindTypeInt
	KindTypeFloat
	KindTypeString
	KindTypeFile
	KindTypeDirectory
	KindTypeArray
	KindTypeMap
	KindTypePair
	KindTypeObjectType

	// Literals
	KindIdentifier
	KindIntLiteral
	KindFloatLiteral
	KindStringLiteralText
	KindStringEscape
	KindCommandText
	KindLexError

	// Composite (node) kinds
	KindRoot
	KindPreambleNode
	KindVersionStatementNode
	KindImportNode
	KindImportAliasNode
	KindStructNode
	KindStructMemberNode
	KindEnumNode
	KindEnumVariantNode
	KindTaskNode
	KindWorkflowNode
	KindInputSectionNode
	KindOutputSectionNode
	KindDeclarationNode
	KindCommandSectionNode
	KindRuntimeSectionNode
	KindRequirementsSectionNode
	KindHintsSectionNode
	KindMetaSectionNode
	KindParameterMetaSectionNode
	KindMetaObjectNode
	KindMetaArrayNode
	KindMetaKeyValueNode
	KindCallNode
	KindCallInputNode
	KindScatterNode
	KindConditionalNode
	KindTypeNode
	KindExprNameRefNode
	KindExprLiteralNode
	KindExprBinaryNode
	KindExprUnaryNode
	KindExprCallNode
	KindExprAccessNode
	KindExprIndexNode
	KindExprIfNode
	KindExprPairNode
	KindExprArrayNode
	KindExprMapNode
	KindExprObjectNode
	KindExprStringNode
	KindExprPlaceholderNode
	KindErrorNode

	kindSentinel
)

// IsTrivia reports whether k is whitespace or a comment: trivia tokens are
// retained in the tree but ignored by typed AST accessors.
func (k Kind) IsTrivia() bool {
	return k == KindWhitespace || k == KindComment
}

// IsToken reports whether k represents a leaf token kind rather than a
// composite node kind.
func (k Kind) IsToken() bool {
	return k < KindRoot
}

// String renders a human-readable name, primarily for diagnostics and
// debugging; it is not part of any wire format.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

var kindNames = map[Kind]string{
	KindUnknown:              "Unknown",
	KindWhitespace:           "Whitespace",
	KindComment:              "Comment",
	KindEndOfInput:           "EndOfInput",
	KindVersionKeyword:       "VersionKeyword",
	KindVersionLiteral:       "VersionLiteral",
	KindAnyByte:              "AnyByte",
	KindIdentifier:           "Identifier",
	KindIntLiteral:           "IntLiteral",
	KindFloatLiteral:         "FloatLiteral",
	KindStringLiteralText:    "StringLiteralText",
	KindStringEscape:         "StringEscape",
	KindCommandText:          "CommandText",
	KindLexError:             "LexError",
	KindRoot:                 "Root",
	KindVersionStatementNode: "VersionStatement",
	KindImportNode:           "Import",
	KindStructNode:           "Struct",
	KindEnumNode:             "Enum",
	KindTaskNode:             "Task",
	KindWorkflowNode:         "Workflow",
	KindCallNode:             "Call",
	KindScatterNode:          "Scatter",
	KindConditionalNode:      "Conditional",
	KindErrorNode:            "Error",
}
