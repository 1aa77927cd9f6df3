package parser

import (
	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/lexer"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/versions"
)

// parsePreambleAndVersion consumes leading trivia/any-bytes in
// ModePreamble, then the `version X` statement in ModeVersionStatement,
// applying the fallback-version policy of spec.md §4.2. The concrete
// version-statement tokens are preserved unchanged in the tree either way.
func (p *Parser) parsePreambleAndVersion() {
	p.builder.StartNode() // KindPreambleNode

	for {
		t := p.lex.Next()
		if t.Kind == syntax.KindVersionKeyword {
			p.builder.FinishNode(syntax.KindPreambleNode)
			p.parseVersionStatement(t)
			return
		}
		if t.Kind == syntax.KindEndOfInput {
			p.builder.Token(t.Kind, "")
			p.builder.FinishNode(syntax.KindPreambleNode)
			p.errorf(diagnostics.Span{Start: t.Start, End: t.End}, "missing version statement")
			return
		}
		p.builder.Token(t.Kind, t.Text(p.src))
	}
}

func (p *Parser) parseVersionStatement(kw lexer.Token) {
	p.builder.StartNode() // KindVersionStatementNode
	p.builder.Token(kw.Kind, kw.Text(p.src))

	p.lex.Morph(lexer.ModeVersionStatement)
	for {
		t := p.lex.Next()
		if t.Kind == syntax.KindVersionLiteral {
			literal := t.Text(p.src)
			p.builder.Token(t.Kind, literal)
			p.builder.FinishNode(syntax.KindVersionStatementNode)

			eff, recognized, err := p.cfg.Resolve(literal)
			if err != nil {
				p.errorf(diagnostics.Span{Start: t.Start, End: t.End}, "%s", err.Error())
				p.version = versions.Unrecognized
				return
			}
			if !recognized {
				p.warnf(diagnostics.Span{Start: t.Start, End: t.End},
					"unrecognized WDL version %q, parsing as fallback version %v", literal, eff)
			}
			p.version = eff
			return
		}
		if t.Kind == syntax.KindWhitespace || t.Kind == syntax.KindComment {
			p.builder.Token(t.Kind, t.Text(p.src))
			continue
		}
		// Lex error or unexpected token inside the version statement: wrap
		// what we have and bail with no recognized version.
		p.builder.Token(syntax.KindLexError, t.Text(p.src))
		p.builder.FinishNode(syntax.KindVersionStatementNode)
		p.errorf(diagnostics.Span{Start: t.Start, End: t.End}, "malformed version statement")
		p.version = versions.Unrecognized
		return
	}
}

var topLevelSync = []syntax.Kind{
	syntax.KindKeywordImport, syntax.KindKeywordStruct, syntax.KindKeywordEnum,
	syntax.KindKeywordTask, syntax.KindKeywordWorkflow,
}

func (p *Parser) parseTopLevelItem() {
	switch p.cur.Kind {
	case syntax.KindKeywordImport:
		p.parseImport()
	case syntax.KindKeywordStruct:
		p.parseStruct()
	case syntax.KindKeywordEnum:
		p.parseEnum()
	case syntax.KindKeywordTask:
		p.parseTask()
	case syntax.KindKeywordWorkflow:
		p.parseWorkflow()
	default:
		p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "expected a top-level declaration, found %v", p.cur.Kind)
		p.syncTo(topLevelSync...)
	}
}

func (p *Parser) parseImport() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordImport)
	if p.at(syntax.KindDoubleQuote) || p.at(syntax.KindSingleQuote) {
		p.parseSimpleStringLiteral()
	} else {
		p.expect(syntax.KindStringLiteralText)
	}
	if p.at(syntax.KindKeywordAs) {
		p.token(syntax.KindKeywordAs)
		p.expect(syntax.KindIdentifier)
	}
	for p.at(syntax.KindKeywordAlias) {
		p.builder.StartNode()
		p.token(syntax.KindKeywordAlias)
		p.expect(syntax.KindIdentifier)
		if p.at(syntax.KindKeywordAs) {
			p.token(syntax.KindKeywordAs)
		}
		p.expect(syntax.KindIdentifier)
		p.builder.FinishNode(syntax.KindImportAliasNode)
	}
	p.builder.FinishNode(syntax.KindImportNode)
}

// parseSimpleStringLiteral parses a non-interpolated quoted literal (used
// for import URIs, which never allow `~{}`/`${}` placeholders): any
// placeholder opener encountered is reported as an error rather than
// silently treated as literal text.
func (p *Parser) parseSimpleStringLiteral() {
	quote := p.cur.Kind
	quoteByte := byte('"')
	if quote == syntax.KindSingleQuote {
		quoteByte = '\''
	}
	p.token(quote)
	p.lex.EnterString(quoteByte)
	p.bump()
	for {
		switch p.cur.Kind {
		case quote, syntax.KindEndOfInput:
			goto closeLiteral
		case syntax.KindStringLiteralText, syntax.KindStringEscape:
			p.builder.Token(p.cur.Kind, p.text())
			p.bump()
		case syntax.KindDollarOpenBrace:
			p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "import URIs may not contain string interpolation")
			p.builder.Token(syntax.KindLexError, p.text())
			p.bump()
		default:
			p.builder.Token(syntax.KindLexError, p.text())
			p.bump()
		}
	}
closeLiteral:
	p.lex.Morph(lexer.ModeVersioned)
	p.expect(quote)
}

func (p *Parser) parseStruct() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordStruct)
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		p.parseStructMember()
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindStructNode)
}

func (p *Parser) parseStructMember() {
	p.builder.StartNode()
	p.parseType()
	p.expect(syntax.KindIdentifier)
	p.builder.FinishNode(syntax.KindStructMemberNode)
}

func (p *Parser) parseEnum() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordEnum)
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		p.builder.StartNode()
		p.expect(syntax.KindIdentifier)
		p.builder.FinishNode(syntax.KindEnumVariantNode)
		if p.at(syntax.KindComma) {
			p.token(syntax.KindComma)
		} else {
			break
		}
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindEnumNode)
}

var taskSectionSync = []syntax.Kind{
	syntax.KindKeywordInput, syntax.KindKeywordOutput, syntax.KindKeywordCommand,
	syntax.KindKeywordRuntime, syntax.KindKeywordRequirements, syntax.KindKeywordHints,
	syntax.KindKeywordMeta, syntax.KindKeywordParameterMeta, syntax.KindCloseBrace,
}

func (p *Parser) parseTask() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordTask)
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		switch p.cur.Kind {
		case syntax.KindKeywordInput:
			p.parseInputSection()
		case syntax.KindKeywordOutput:
			p.parseOutputSection()
		case syntax.KindKeywordCommand:
			p.parseCommandSection()
		case syntax.KindKeywordRuntime:
			p.parseKeyValueSection(syntax.KindKeywordRuntime, syntax.KindRuntimeSectionNode)
		case syntax.KindKeywordRequirements:
			p.parseKeyValueSection(syntax.KindKeywordRequirements, syntax.KindRequirementsSectionNode)
		case syntax.KindKeywordHints:
			p.parseKeyValueSection(syntax.KindKeywordHints, syntax.KindHintsSectionNode)
		case syntax.KindKeywordMeta:
			p.parseKeyValueSection(syntax.KindKeywordMeta, syntax.KindMetaSectionNode)
		case syntax.KindKeywordParameterMeta:
			p.parseKeyValueSection(syntax.KindKeywordParameterMeta, syntax.KindParameterMetaSectionNode)
		case syntax.KindIdentifier, syntax.KindTypeBoolean, syntax.KindTypeInt, syntax.KindTypeFloat,
			syntax.KindTypeString, syntax.KindTypeFile, syntax.KindTypeDirectory, syntax.KindTypeArray,
			syntax.KindTypeMap, syntax.KindTypePair, syntax.KindTypeObjectType:
			p.parseDeclaration()
		default:
			p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "unexpected token in task body: %v", p.cur.Kind)
			p.syncTo(taskSectionSync...)
		}
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindTaskNode)
}

func (p *Parser) parseWorkflow() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordWorkflow)
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		switch p.cur.Kind {
		case syntax.KindKeywordInput:
			p.parseInputSection()
		case syntax.KindKeywordOutput:
			p.parseOutputSection()
		case syntax.KindKeywordMeta:
			p.parseKeyValueSection(syntax.KindKeywordMeta, syntax.KindMetaSectionNode)
		case syntax.KindKeywordParameterMeta:
			p.parseKeyValueSection(syntax.KindKeywordParameterMeta, syntax.KindParameterMetaSectionNode)
		case syntax.KindKeywordCall:
			p.parseCall()
		case syntax.KindKeywordScatter:
			p.parseScatter()
		case syntax.KindKeywordIf:
			p.parseConditional()
		case syntax.KindIdentifier, syntax.KindTypeBoolean, syntax.KindTypeInt, syntax.KindTypeFloat,
			syntax.KindTypeString, syntax.KindTypeFile, syntax.KindTypeDirectory, syntax.KindTypeArray,
			syntax.KindTypeMap, syntax.KindTypePair, syntax.KindTypeObjectType:
			p.parseDeclaration()
		default:
			p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "unexpected token in workflow body: %v", p.cur.Kind)
			p.syncTo(syntax.KindKeywordCall, syntax.KindKeywordScatter, syntax.KindKeywordIf, syntax.KindCloseBrace)
		}
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindWorkflowNode)
}

func (p *Parser) parseInputSection() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordInput)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		p.parseDeclaration()
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindInputSectionNode)
}

func (p *Parser) parseOutputSection() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordOutput)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		p.parseDeclaration()
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindOutputSectionNode)
}

func (p *Parser) parseDeclaration() {
	p.builder.StartNode()
	p.parseType()
	p.expect(syntax.KindIdentifier)
	if p.at(syntax.KindEquals) {
		p.token(syntax.KindEquals)
		p.parseExpr()
	}
	p.builder.FinishNode(syntax.KindDeclarationNode)
}

func (p *Parser) parseKeyValueSection(kw, nodeKind syntax.Kind) {
	p.builder.StartNode()
	p.token(kw)
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		p.parseMetaKeyValue()
		if p.at(syntax.KindComma) {
			p.token(syntax.KindComma)
		}
	}
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(nodeKind)
}

func (p *Parser) parseMetaKeyValue() {
	p.builder.StartNode()
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindColon)
	p.parseMetaValue()
	p.builder.FinishNode(syntax.KindMetaKeyValueNode)
}

// parseMetaValue parses a metadata value: a primitive literal, a nested
// object, or an array of values. It is intentionally permissive since
// metadata/hints/requirements accept a wide, version-dependent shape; the
// type checker validates known keys (spec.md §4.5 step 3).
func (p *Parser) parseMetaValue() {
	switch p.cur.Kind {
	case syntax.KindOpenBrace:
		p.builder.StartNode()
		p.token(syntax.KindOpenBrace)
		for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
			p.parseMetaKeyValue()
			if p.at(syntax.KindComma) {
				p.token(syntax.KindComma)
			}
		}
		p.expect(syntax.KindCloseBrace)
		p.builder.FinishNode(syntax.KindMetaObjectNode)
	case syntax.KindOpenBracket:
		p.builder.StartNode()
		p.token(syntax.KindOpenBracket)
		for !p.at(syntax.KindCloseBracket) && !p.at(syntax.KindEndOfInput) {
			p.parseMetaValue()
			if p.at(syntax.KindComma) {
				p.token(syntax.KindComma)
			}
		}
		p.expect(syntax.KindCloseBracket)
		p.builder.FinishNode(syntax.KindMetaArrayNode)
	default:
		p.parseExpr()
	}
}

func (p *Parser) parseCommandSection() {
	p.builder.StartNode()
	// The opener (`{` or `<<<`) is already lexed under ModeVersioned by the
	// time we see it; emit it directly rather than through token(), whose
	// bump() would advance into the command body still using the wrong
	// mode. EnterCommand must run before the next Next() call.
	p.token(syntax.KindKeywordCommand)
	heredoc := p.at(syntax.KindOpenHeredoc)
	if !heredoc && !p.at(syntax.KindOpenBrace) {
		p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "expected command body")
	}
	p.builder.Token(p.cur.Kind, p.text())
	p.lex.EnterCommand(heredoc)
	p.bump()
	for {
		switch p.cur.Kind {
		case syntax.KindCommandText:
			p.token(syntax.KindCommandText)
		case syntax.KindDollarOpenBrace:
			p.parsePlaceholder()
		case syntax.KindCloseBrace, syntax.KindCloseHeredoc, syntax.KindEndOfInput:
			goto closeCommand
		default:
			p.builder.Token(p.cur.Kind, p.text())
			p.bump()
		}
	}
closeCommand:
	p.lex.Morph(lexer.ModeVersioned)
	if heredoc {
		p.expect(syntax.KindCloseHeredoc)
	} else {
		p.expect(syntax.KindCloseBrace)
	}
	p.builder.FinishNode(syntax.KindCommandSectionNode)
}

func (p *Parser) parsePlaceholder() {
	p.builder.StartNode()
	// Same mode-ordering care as the command opener: emit the `~{`/`${`
	// token directly, morph, then bump so the first expression token is
	// read under ModeVersioned.
	p.builder.Token(p.cur.Kind, p.text())
	p.lex.Morph(lexer.ModeVersioned)
	p.bump()
	p.parseExpr()
	// p.cur already holds the closing `}`, lexed under ModeVersioned (the
	// byte reads the same in either mode). Morph back before consuming it
	// so token()'s bump resumes scanning the surrounding command text.
	p.lex.Morph(lexer.ModeCommandInterior)
	p.expect(syntax.KindCloseBrace)
	p.builder.FinishNode(syntax.KindExprPlaceholderNode)
}

func (p *Parser) parseCall() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordCall)
	p.expect(syntax.KindIdentifier)
	for p.at(syntax.KindDot) {
		p.token(syntax.KindDot)
		p.expect(syntax.KindIdentifier)
	}
	if p.at(syntax.KindKeywordAs) {
		p.token(syntax.KindKeywordAs)
		p.expect(syntax.KindIdentifier)
	}
	if p.at(syntax.KindOpenBrace) {
		p.token(syntax.KindOpenBrace)
		if p.at(syntax.KindKeywordInput) {
			p.token(syntax.KindKeywordInput)
			p.expect(syntax.KindColon)
		}
		for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
			p.builder.StartNode()
			p.expect(syntax.KindIdentifier)
			if p.at(syntax.KindEquals) {
				p.token(syntax.KindEquals)
				p.parseExpr()
			}
			p.builder.FinishNode(syntax.KindCallInputNode)
			if p.at(syntax.KindComma) {
				p.token(syntax.KindComma)
			}
		}
		p.expect(syntax.KindCloseBrace)
	}
	p.builder.FinishNode(syntax.KindCallNode)
}

func (p *Parser) parseScatter() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordScatter)
	p.expect(syntax.KindOpenParen)
	p.expect(syntax.KindIdentifier)
	p.expect(syntax.KindKeywordIn)
	p.parseExpr()
	p.expect(syntax.KindCloseParen)
	p.parseStatementBlock()
	p.builder.FinishNode(syntax.KindScatterNode)
}

func (p *Parser) parseConditional() {
	p.builder.StartNode()
	p.token(syntax.KindKeywordIf)
	p.expect(syntax.KindOpenParen)
	p.parseExpr()
	p.expect(syntax.KindCloseParen)
	p.parseStatementBlock()
	p.builder.FinishNode(syntax.KindConditionalNode)
}

func (p *Parser) parseStatementBlock() {
	p.expect(syntax.KindOpenBrace)
	for !p.at(syntax.KindCloseBrace) && !p.at(syntax.KindEndOfInput) {
		switch p.cur.Kind {
		case syntax.KindKeywordCall:
			p.parseCall()
		case syntax.KindKeywordScatter:
			p.parseScatter()
		case syntax.KindKeywordIf:
			p.parseConditional()
		case syntax.KindIdentifier, syntax.KindTypeBoolean, syntax.KindTypeInt, syntax.KindTypeFloat,
			syntax.KindTypeString, syntax.KindTypeFile, syntax.KindTypeDirectory, syntax.KindTypeArray,
			syntax.KindTypeMap, syntax.KindTypePair, syntax.KindTypeObjectType:
			p.parseDeclaration()
		default:
			p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "unexpected token in statement block: %v", p.cur.Kind)
			p.syncTo(syntax.KindKeywordCall, syntax.KindKeywordScatter, syntax.KindKeywordIf, syntax.KindCloseBrace)
		}
	}
	p.expect(syntax.KindCloseBrace)
}

var typeKeywordKinds = map[syntax.Kind]bool{
	syntax.KindTypeBoolean: true, syntax.KindTypeInt: true, syntax.KindTypeFloat: true,
	syntax.KindTypeString: true, syntax.KindTypeFile: true, syntax.KindTypeDirectory: true,
	syntax.KindTypeArray: true, syntax.KindTypeMap: true, syntax.KindTypePair: true,
	syntax.KindTypeObjectType: true, syntax.KindIdentifier: true,
}

func (p *Parser) parseType() {
	p.builder.StartNode()
	if typeKeywordKinds[p.cur.Kind] {
		p.token(p.cur.Kind)
	} else {
		p.expect(syntax.KindIdentifier)
	}
	if p.at(syntax.KindOpenBracket) {
		p.token(syntax.KindOpenBracket)
		p.parseType()
		for p.at(syntax.KindComma) {
			p.token(syntax.KindComma)
			p.parseType()
		}
		p.expect(syntax.KindCloseBracket)
	}
	if p.at(syntax.KindPlus) {
		p.token(syntax.KindPlus)
	}
	if p.at(syntax.KindQuestion) {
		p.token(syntax.KindQuestion)
	}
	p.builder.FinishNode(syntax.KindTypeNode)
}
