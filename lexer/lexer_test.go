package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/wdl/syntax"
)

func tokenize(t *testing.T, l *Lexer) []Token {
	t.Helper()
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == syntax.KindEndOfInput {
			return toks
		}
	}
}

func TestPreambleRecognizesVersionKeyword(t *testing.T) {
	src := []byte("# header\nversion")
	l := New(src)
	toks := []Token{}
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == syntax.KindVersionKeyword || tok.Kind == syntax.KindEndOfInput {
			break
		}
	}
	last := toks[len(toks)-1]
	assert.Equal(t, syntax.KindVersionKeyword, last.Kind)
	assert.Equal(t, "version", last.Text(src))
}

func TestVersionStatementLiteral(t *testing.T) {
	src := []byte(" 1.2\n")
	l := New(src)
	l.Morph(ModeVersionStatement)
	toks := tokenize(t, l)
	assert.Equal(t, syntax.KindWhitespace, toks[0].Kind)
	assert.Equal(t, syntax.KindVersionLiteral, toks[1].Kind)
	assert.Equal(t, "1.2", toks[1].Text(src))
}

func TestEveryByteCovered(t *testing.T) {
	src := []byte("task foo { command <<< echo ~{x} >>> }")
	l := New(src)
	l.Morph(ModeVersioned)
	var covered int
	for {
		tok := l.Next()
		if tok.Kind == syntax.KindEndOfInput {
			break
		}
		assert.Equal(t, covered, tok.Start, "gap or overlap before byte %d", covered)
		covered = tok.End
	}
	assert.Equal(t, len(src), covered)
}

func TestIdentifierVsKeyword(t *testing.T) {
	src := []byte("workflow fooBar")
	l := New(src)
	l.Morph(ModeVersioned)
	toks := tokenize(t, l)
	assert.Equal(t, syntax.KindKeywordWorkflow, toks[0].Kind)
	assert.Equal(t, syntax.KindIdentifier, toks[2].Kind)
}

func TestStringInteriorWithPlaceholder(t *testing.T) {
	src := []byte(`hello ~{name}"`)
	l := New(src)
	l.EnterString('"')
	toks := tokenize(t, l)
	assert.Equal(t, syntax.KindStringLiteralText, toks[0].Kind)
	assert.Equal(t, "hello ", toks[0].Text(src))
	assert.Equal(t, syntax.KindDollarOpenBrace, toks[1].Kind)
}
