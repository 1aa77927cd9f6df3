// Package parser implements the hand-written, recursive-descent parser of
// spec.md §4.2: it produces a lossless green tree from a token stream,
// recovering from syntax errors by synchronizing on statement terminators
// and closing braces rather than aborting.
package parser

import (
	"fmt"

	"github.com/viant/wdl/diagnostics"
	"github.com/viant/wdl/lexer"
	"github.com/viant/wdl/syntax"
	"github.com/viant/wdl/versions"
)

// Result is the output of a Parse call.
type Result struct {
	Tree        *syntax.Green
	Version     versions.SupportedVersion
	VersionSeen bool // true once a version statement was parsed, regardless of recognition
	Diagnostics []diagnostics.Diagnostic
}

// Parser holds the mutable state of a single parse. Parsing never panics
// on malformed input: every error path emits a diagnostic and produces a
// best-effort partial tree instead.
type Parser struct {
	src     []byte
	lex     *lexer.Lexer
	builder *syntax.Builder
	cur     lexer.Token
	cfg     versions.Config
	version versions.SupportedVersion
	diags   []diagnostics.Diagnostic
}

// Parse parses src under cfg and returns the resulting tree plus
// diagnostics. It is the sole entry point; Parser is not meant to be
// constructed or reused directly by callers outside this package.
func Parse(src []byte, cfg versions.Config) Result {
	p := &Parser{
		src:     src,
		lex:     lexer.New(src),
		builder: syntax.NewBuilder(),
		cfg:     cfg,
	}
	p.builder.StartNode() // KindRoot
	p.parsePreambleAndVersion()
	// The root frame holds the preamble node, plus a version-statement
	// node when one was found.
	versionSeen := p.builder.Mark() > 1
	if p.version != versions.Unrecognized {
		p.lex.Morph(lexer.ModeVersioned)
		p.bump()
		for p.cur.Kind != syntax.KindEndOfInput {
			p.parseTopLevelItem()
		}
	} else {
		// No usable grammar to parse the rest under: drain whatever bytes
		// remain into a single error node so the tree still round-trips.
		p.drainRemainder()
	}
	p.emitTrailingTrivia()
	p.builder.FinishNode(syntax.KindRoot)
	return Result{
		Tree:        p.builder.Finish(),
		Version:     p.version,
		VersionSeen: versionSeen,
		Diagnostics: p.diags,
	}
}

func (p *Parser) errorf(span diagnostics.Span, format string, args ...interface{}) {
	p.diags = append(p.diags, diagnostics.Diagnostic{
		Severity: diagnostics.Error,
		Message:  sprintf(format, args...),
		Primary:  span,
	})
}

func (p *Parser) warnf(span diagnostics.Span, format string, args ...interface{}) {
	p.diags = append(p.diags, diagnostics.Diagnostic{
		Severity: diagnostics.Warning,
		Message:  sprintf(format, args...),
		Primary:  span,
	})
}

// bump advances to the next significant token, buffering and emitting any
// intervening trivia tokens directly into the builder so the tree stays
// lossless.
func (p *Parser) bump() {
	for {
		t := p.lex.Next()
		if t.Kind.IsTrivia() {
			p.builder.Token(t.Kind, t.Text(p.src))
			continue
		}
		p.cur = t
		return
	}
}

// drainRemainder consumes every remaining byte (in whatever mode the lexer
// is currently in) into one error node, used when the version statement
// could not be resolved and no further grammar applies.
func (p *Parser) drainRemainder() {
	p.builder.StartNode()
	for {
		t := p.lex.Next()
		if t.Kind == syntax.KindEndOfInput {
			break
		}
		p.builder.Token(t.Kind, t.Text(p.src))
	}
	p.builder.FinishNode(syntax.KindErrorNode)
}

func (p *Parser) emitTrailingTrivia() {
	// cur already holds KindEndOfInput by loop exit; nothing further to
	// drain since bump() only stops on non-trivia tokens and EndOfInput is
	// non-trivia. Present for symmetry/documentation.
}

func (p *Parser) at(k syntax.Kind) bool { return p.cur.Kind == k }

func (p *Parser) text() string { return p.cur.Text(p.src) }

func (p *Parser) token(k syntax.Kind) {
	p.builder.Token(k, p.text())
	p.bump()
}

// expect consumes the current token if it matches k, else emits an error
// diagnostic and synchronizes without consuming further input, leaving a
// best-effort partial node.
func (p *Parser) expect(k syntax.Kind) bool {
	if p.at(k) {
		p.token(k)
		return true
	}
	p.errorf(diagnostics.Span{Start: p.cur.Start, End: p.cur.End}, "expected %v, found %v", k, p.cur.Kind)
	return false
}

// syncTo skips tokens until one of the given kinds (or end of input) is
// reached, wrapping skipped tokens in an error node so the partial tree
// still accounts for every byte.
func (p *Parser) syncTo(kinds ...syntax.Kind) {
	match := func(k syntax.Kind) bool {
		for _, s := range kinds {
			if k == s {
				return true
			}
		}
		return false
	}
	if match(p.cur.Kind) || p.cur.Kind == syntax.KindEndOfInput {
		return
	}
	p.builder.StartNode()
	for !match(p.cur.Kind) && p.cur.Kind != syntax.KindEndOfInput {
		p.builder.Token(syntax.KindLexError, p.text())
		p.bump()
	}
	p.builder.FinishNode(syntax.KindErrorNode)
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
