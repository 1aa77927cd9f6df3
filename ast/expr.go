package ast

import "github.com/viant/wdl/syntax"

// Expr is the typed view over any expression node kind: literal, binary,
// unary, call, access, index, name-reference, conditional, pair, array,
// map, object, or interpolated string.
type Expr struct{ base }

var exprKinds = map[syntax.Kind]bool{
	syntax.KindExprNameRefNode:   true,
	syntax.KindExprLiteralNode:   true,
	syntax.KindExprBinaryNode:    true,
	syntax.KindExprUnaryNode:     true,
	syntax.KindExprCallNode:      true,
	syntax.KindExprAccessNode:    true,
	syntax.KindExprIndexNode:     true,
	syntax.KindExprIfNode:        true,
	syntax.KindExprPairNode:      true,
	syntax.KindExprArrayNode:     true,
	syntax.KindExprMapNode:       true,
	syntax.KindExprObjectNode:    true,
	syntax.KindExprStringNode:    true,
}

// WrapExpr asserts c's kind belongs to the expression-view set.
func WrapExpr(c *syntax.Cursor) (Expr, bool) {
	if c == nil || !exprKinds[c.Kind()] {
		return Expr{}, false
	}
	return Expr{base{c}}, true
}

func firstExprChild(c *syntax.Cursor) (Expr, bool) {
	for _, ch := range c.Children() {
		if e, ok := WrapExpr(ch); ok {
			return e, true
		}
	}
	return Expr{}, false
}

// NameRef returns the referenced identifier text, valid when
// Kind() == KindExprNameRefNode.
func (e Expr) NameRef() string { return firstIdentText(e.c) }

// LiteralText returns the raw literal token text, valid when
// Kind() == KindExprLiteralNode.
func (e Expr) LiteralText() string {
	for _, ch := range e.c.Children() {
		switch ch.Kind() {
		case syntax.KindIntLiteral, syntax.KindFloatLiteral,
			syntax.KindKeywordTrue, syntax.KindKeywordFalse, syntax.KindKeywordNone:
			return ch.Text()
		}
	}
	return ""
}

// Operator returns the operator token text for binary/unary expressions.
func (e Expr) Operator() string {
	for _, ch := range e.c.Children() {
		if isOperatorKind(ch.Kind()) {
			return ch.Text()
		}
	}
	return ""
}

func isOperatorKind(k syntax.Kind) bool {
	switch k {
	case syntax.KindPlus, syntax.KindMinus, syntax.KindAsterisk, syntax.KindSlash, syntax.KindPercent,
		syntax.KindLogicalAnd, syntax.KindLogicalOr, syntax.KindLogicalNot,
		syntax.KindEquality, syntax.KindInequality,
		syntax.KindLessThan, syntax.KindLessEqual, syntax.KindGreaterThan, syntax.KindGreaterEqual:
		return true
	}
	return false
}

// Operands returns the expression's sub-expressions in source order (two
// for binary, one for unary, N for array/object/etc.).
func (e Expr) Operands() []Expr {
	var out []Expr
	for _, ch := range e.c.Children() {
		if sub, ok := WrapExpr(ch); ok {
			out = append(out, sub)
		}
	}
	return out
}

// Callee returns the function-call target name, valid when
// Kind() == KindExprCallNode.
func (e Expr) Callee() string { return firstIdentText(e.c) }

// Args returns the call's argument expressions.
func (e Expr) Args() []Expr { return e.Operands() }

// Member returns the accessed member name, valid when
// Kind() == KindExprAccessNode.
func (e Expr) Member() string {
	idents := e.c.ChildrenOfKind(syntax.KindIdentifier)
	if len(idents) > 0 {
		return idents[len(idents)-1].Text()
	}
	return ""
}

// Base returns the base expression of an access/index expression.
func (e Expr) Base() (Expr, bool) { return firstExprChild(e.c) }

// StringParts returns the alternating literal-text and placeholder parts
// of an interpolated string, valid when Kind() == KindExprStringNode.
func (e Expr) StringParts() []Node {
	var out []Node
	for _, ch := range e.c.Children() {
		switch ch.Kind() {
		case syntax.KindStringLiteralText, syntax.KindStringEscape:
			out = append(out, literalText{base{ch}})
		case syntax.KindExprPlaceholderNode:
			out = append(out, Placeholder{base{ch}})
		}
	}
	return out
}
