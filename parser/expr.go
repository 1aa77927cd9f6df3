package parser

import (
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/lexer"
	"github.com/viant/wdl/syntax"
)

// binaryPrecedence gives each binary operator's precedence level, lowest
// to highest; operators at the same level are left-associative.
var binaryPrecedence = map[syntax.Kind]int{
	syntax.KindLogicalOr:    1,
	syntax.KindLogicalAnd:   2,
	syntax.KindEquality:     3,
	syntax.KindInequality:   3,
	syntax.KindLessThan:     4,
	syntax.KindLessEqual:    4,
	syntax.KindGreaterThan:  4,
	syntax.KindGreaterEqual: 4,
	syntax.KindPlus:         5,
	syntax.KindMinus:        5,
	syntax.KindAsterisk:     6,
	syntax.KindSlash:        6,
	syntax.KindPercent:      6,
}

// parseExpr parses a full expression: the `if/then/else` conditional form
// at the top, falling through to binary/unary/postfix/primary otherwise.
func (p *Parser) parseExpr() {
	if p.at(syntax.KindKeywordIf) {
		p.parseIfExpr()
		return
	}
	p.parseBinary(1)
}

func (p *Parser) parseIfExpr() {
	mark := p.builder.Mark()
	p.token(syntax.KindKeywordIf)
	p.parseExpr()
	p.expect(syntax.KindKeywordThen)
	p.parseExpr()
	p.expect(syntax.KindKeywordElse)
	p.parseExpr()
	p.builder.WrapFrom(mark, syntax.KindExprIfNode)
}

// parseBinary implements precedence climbing using the builder checkpoint
// pattern: the left operand is parsed without knowing whether an operator
// follows, and WrapFrom retroactively groups [left, op, right] into one
// node once it does.
func (p *Parser) parseBinary(minPrec int) {
	mark := p.builder.Mark()
	p.parseUnary()
	for {
		prec, ok := binaryPrecedence[p.cur.Kind]
		if !ok || prec < minPrec {
			return
		}
		p.token(p.cur.Kind)
		p.parseBinary(prec + 1)
		p.builder.WrapFrom(mark, syntax.KindExprBinaryNode)
	}
}

func (p *Parser) parseUnary() {
	switch p.cur.Kind {
	case syntax.KindLogicalNot, syntax.KindMinus, syntax.KindPlus:
		mark := p.builder.Mark()
		p.token(p.cur.Kind)
		p.parseUnary()
		p.builder.WrapFrom(mark, syntax.KindExprUnaryNode)
	default:
		p.parsePostfix()
	}
}

// parsePostfix handles member access and indexing, both of which
// left-associate onto whatever primary expression precedes them; call
// arguments are parsed by parsePrimary.
func (p *Parser) parsePostfix() {
	mark := p.builder.Mark()
	p.parsePrimary()
	for {
		switch p.cur.Kind {
		case syntax.KindDot:
			p.token(syntax.KindDot)
			p.expect(syntax.KindIdentifier)
			p.builder.WrapFrom(mark, syntax.KindExprAccessNode)
		case syntax.KindOpenBracket:
			p.token(syntax.KindOpenBracket)
			p.parseExpr()
			p.expect(syntax.KindCloseBracket)
			p.builder.WrapFrom(mark, syntax.KindExprIndexNode)
		default:
			return
		}
	}
}

var literalTokenKinds = map[syntax.Kind]bool{
	syntax.KindIntLiteral: true, syntax.KindFloatLiteral: true,
	syntax.KindKeywordTrue: true, syntax.KindKeywordFalse: true, syntax.KindKeywordNone: true,
}

func (p *Parser) parsePrimary() {
	switch {
	case literalTokenKinds[p.cur.Kind]:
		p.builder.StartNode()
		p.token(p.cur.Kind)
		p.builder.FinishNode(syntax.KindExprLiteralNode)

	case p.at(syntax.KindIdentifier):
		mark := p.builder.Mark()
		name := p.text()
		p.token(syntax.KindIdentifier)
		if p.at(syntax.KindOpenParen) {
			p.token(syntax.KindOpenParen)
			for !p.at(syntax.KindCloseParen) && !p.at(syntax.KindEndOfInput) {
				p.parseExpr()
				if p.at(syntax.KindComma) {
					p.token(syntax.KindComma)
				}
			}
			p.expect(syntax.KindCloseParen)
			p.builder.WrapFrom(mark, syntax.KindExprCallNode)
			_ = name
			return
		}
		p.builder.WrapFrom(mark, syntax.KindExprNameRefNode)

	case p.at(syntax.KindDoubleQuote) || p.at(syntax.KindSingleQuote):
		p.parseInterpolatedString()

	case p.at(syntax.KindOpenParen):
		p.token(syntax.KindOpenParen)
		mark := p.builder.Mark()
		p.parseExpr()
		if p.at(syntax.KindComma) {
			// Pair literal: (a, b)
			p.token(syntax.KindComma)
			p.parseExpr()
			p.expect(syntax.KindCloseParen)
			p.builder.WrapFrom(mark, syntax.KindExprPairNode)
			return
		}
		p.expect(syntax.KindCloseParen)
		// Parenthesized sub-expression: no wrapping node, the inner
		// expression's own node already carries correct precedence.

	case p.at(syntax.KindOpenBracket):
		mark := p.builder.Mark()
		p.token(syntax.KindOpenBracket)
		for !p.at(syntax.KindCloseBracket) && !p.at(syntax.KindEndOfInput) {
			p.parseExpr()
			if p.at(syntax.KindComma) {
				p.token(syntax.KindComma)
			}
		}
		p.expect(syntax.KindCloseBracket)
		p.builder.WrapFrom(mark, syntax.KindExprArrayNode)

	case p.at(syntax.KindOpenBrace):
		mark := p.builder.Mark()
		p.token(syntax.KindOpenBrace)
		for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
			p.parseMapEntry()
			if p.at(syntax.KindComma) {
				p.token(syntax.KindComma)
			}
		}
		p.expect(syntax.KindCloseBrace)
		p.builder.WrapFrom(mark, syntax.KindExprMapNode)

	case p.at(syntax.KindKeywordObject):
		mark := p.builder.Mark()
		p.token(syntax.KindKeywordObject)
		p.expect(syntax.KindOpenBrace)
		for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
			p.parseObjectMember()
			if p.at(syntax.KindComma) {
				p.token(syntax.KindComma)
			}
		}
		p.expect(syntax.KindCloseBrace)
		p.builder.WrapFrom(mark, syntax.KindExprObjectNode)

	case p.at(syntax.KindIntLiteral), p.at(syntax.KindFloatLiteral):
		p.builder.StartNode()
		p.token(p.cur.Kind)
		p.builder.FinishNode(syntax.KindExprLiteralNode)

	default:
		p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "expected an expression, found %v", p.cur.Kind)
		if p.cur.Kind != syntax.KindEndOfInput {
			p.builder.Token(syntax.KindLexError, p.text())
			p.bump()
		}
	}
}

// parseMapEntry parses one `key: value` pair inside a `{ }` map literal;
// object-literal shorthand (bare `object { key: value }` uses the same
// shape) is handled separately in parseObjectMember.
func (p *Parser) parseMapEntry() {
	p.builder.StartNode()
	p.parseExpr()
	p.expect(syntax.KindColon)
	p.parseExpr()
	p.builder.FinishNode(syntax.KindMetaKeyValueNode)
}

func (p *Parser) parseObjectMember() {
	p.builder.StartNode()
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindColon)
	p.parseExpr()
	p.builder.FinishNode(syntax.KindMetaKeyValueNode)
}

// parseInterpolatedString parses a double/single-quoted string literal,
// switching the lexer into ModeStringInterior for its body and back to
// ModeVersioned for each `~{}`/`${}` placeholder, mirroring command-body
// placeholder handling.
func (p *Parser) parseInterpolatedString() {
	mark := p.builder.Mark()
	quote := p.cur.Kind
	quoteByte := byte('"')
	if quote == syntax.KindSingleQuote {
		quoteByte = '\''
	}
	p.builder.Token(quote, p.text())
	p.lex.EnterString(quoteByte)
	p.bump()
	for {
		switch p.cur.Kind {
		case quote, syntax.KindEndOfInput:
			goto closeString
		case syntax.KindStringLiteralText, syntax.KindStringEscape:
			p.builder.Token(p.cur.Kind, p.text())
			p.bump()
		case syntax.KindDollarOpenBrace:
			p.parseStringPlaceholder()
		default:
			p.builder.Token(syntax.KindLexError, p.text())
			p.bump()
		}
	}
closeString:
	p.lex.Morph(lexer.ModeVersioned)
	p.expect(quote)
	p.builder.WrapFrom(mark, syntax.KindExprStringNode)
}

func (p *Parser) parseStringPlaceholder() {
	p.builder.StartNode()
	p.builder.Token(p.cur.Kind, p.text())
	p.lex.Morph(lexer.ModeVersioned)
	p.bump()
	p.parseExpr()
	p.lex.Morph(lexer.ModeStringInterior)
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindExprPlaceholderNode)
}
