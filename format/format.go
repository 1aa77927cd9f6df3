// Package format implements the token-stream model of spec.md §1/§9: the
// in-scope half of the formatter. Per-node print rules (how a specific
// node kind should be broken across lines) are explicitly out of scope;
// what this package owns is the token stream itself — walking a
// syntax.Cursor's leaves in order, reproducing source bytes exactly by
// default, and offering a canonical re-serialization (stable whitespace,
// trivia stripped) used by cachekey to hash a task body independent of
// its original formatting.
package format

import "github.com/viant/wdl/syntax"

// Config is the formatter's set of knobs. Canonical uses IndentWidth as
// the number of spaces per open brace; MaxLineWidth and TrailingCommas are
// carried in the value (and so fixed by cachekey's pinned configuration)
// but neither Print nor Canonical reads them. Per-node line-breaking
// decisions stay with the (out of scope) per-node print rules.
type Config struct {
	IndentWidth     int
	MaxLineWidth    int
	TrailingCommas  bool
}

// Default is the formatter's default configuration.
var Default = Config{IndentWidth: 4, MaxLineWidth: 100, TrailingCommas: true}

// Print reproduces root's exact source text by concatenating every leaf
// token (including trivia) in left-to-right order. This is the identity
// half of the round-trip law in spec.md §8: Format(parse(s)) with default
// configuration must be syntactically equivalent to s.
func Print(root *syntax.Cursor) string {
	var buf []byte
	var walk func(c *syntax.Cursor)
	walk = func(c *syntax.Cursor) {
		if c.IsToken() {
			buf = append(buf, c.Text()...)
			return
		}
		for _, ch := range c.Children() {
			walk(ch)
		}
	}
	walk(root)
	return string(buf)
}

// breakAfter is the set of token kinds that start a new canonical line
// when they close a block-shaped construct; breakBefore similarly forces
// a line break ahead of the token. These are structural (apply uniformly
// to every node kind that contains such a token), not per-node rules.
var breakAfter = map[syntax.Kind]bool{
	syntax.KindOpenBrace:  true,
	syntax.KindSemicolon:  true,
}

var breakBefore = map[syntax.Kind]bool{
	syntax.KindCloseBrace: true,
}

// Canonical re-serializes root with trivia stripped and whitespace
// normalized to a single space between tokens (indented one level per
// open brace), used as the stable byte form cachekey hashes for a task
// body (spec.md §4.7, §9 open question: "re-emit the task AST via the
// formatter with a pinned configuration, hash the bytes").
func Canonical(root *syntax.Cursor, cfg Config) string {
	var out []byte
	depth := 0
	atLineStart := true
	writeIndent := func() {
		for i := 0; i < depth*cfg.IndentWidth; i++ {
			out = append(out, ' ')
		}
	}
	var walk func(c *syntax.Cursor)
	walk = func(c *syntax.Cursor) {
		if c.Kind().IsTrivia() {
			return
		}
		if !c.IsToken() {
			for _, ch := range c.Children() {
				walk(ch)
			}
			return
		}
		k := c.Kind()
		if k == syntax.KindCloseBrace {
			depth--
		}
		if breakBefore[k] && len(out) > 0 && !atLineStart {
			out = append(out, '\n')
			atLineStart = true
		}
		if atLineStart {
			writeIndent()
			atLineStart = false
		} else if needsSpace(out) {
			out = append(out, ' ')
		}
		out = append(out, c.Text()...)
		if k == syntax.KindOpenBrace {
			depth++
		}
		if breakAfter[k] {
			out = append(out, '\n')
			atLineStart = true
		}
	}
	walk(root)
	return string(out)
}

// needsSpace reports whether a space should separate the previous
// emitted byte from the next token; avoids gluing two identifiers or an
// identifier and a keyword together.
func needsSpace(out []byte) bool {
	if len(out) == 0 {
		return false
	}
	last := out[len(out)-1]
	return last != '\n' && last != '(' && last != '['
}
