package syntax

import "testing"

func TestGreenFullTextRoundTrip(t *testing.T) {
	src := "version 1.2\n"
	kw := NewToken(KindKeywordVersion, "version")
	ws := NewToken(KindWhitespace, " ")
	lit := NewToken(KindVersionLiteral, "1.2")
	nl := NewToken(KindWhitespace, "\n")
	stmt := NewNode(KindVersionStatementNode, []*Green{kw, ws, lit, nl})
	root := NewNode(KindRoot, []*Green{stmt})

	if got := root.FullText(); got != src {
		t.Fatalf("FullText() = %q, want %q", got, src)
	}
	if root.Len() != len(src) {
		t.Fatalf("Len() = %d, want %d", root.Len(), len(src))
	}
}

func TestCursorOffsetsAndParentAgreement(t *testing.T) {
	a := NewToken(KindIdentifier, "foo")
	b := NewToken(KindWhitespace, " ")
	c := NewToken(KindIdentifier, "bar")
	node := NewNode(KindDeclarationNode, []*Green{a, b, c})
	root := NewRoot(node)

	cb := root.Child(2)
	if cb.Offset() != 4 {
		t.Fatalf("Offset() = %d, want 4", cb.Offset())
	}
	if cb.End() != 7 {
		t.Fatalf("End() = %d, want 7", cb.End())
	}
	if root.Child(cb.Slot()).Green() != cb.Green() {
		t.Fatalf("parent.Child(slot) does not agree with cursor")
	}
	if prev := cb.PrevSibling(); prev == nil || prev.Kind() != KindWhitespace {
		t.Fatalf("PrevSibling() = %v, want whitespace token", prev)
	}
}

func TestNonTriviaFiltersWhitespaceAndComments(t *testing.T) {
	ident := NewToken(KindIdentifier, "x")
	ws := NewToken(KindWhitespace, " ")
	comment := NewToken(KindComment, "# c\n")
	node := NewNode(KindDeclarationNode, []*Green{ident, ws, comment, ident})
	root := NewRoot(node)

	nt := root.NonTrivia()
	if len(nt) != 2 {
		t.Fatalf("NonTrivia() len = %d, want 2", len(nt))
	}
	for _, n := range nt {
		if n.Kind() != KindIdentifier {
			t.Fatalf("unexpected kind %v in NonTrivia()", n.Kind())
		}
	}
}
